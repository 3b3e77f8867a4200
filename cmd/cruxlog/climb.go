// Climb commands: log, edit, delete and list climbs.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cruxlog/cruxlog/internal/models"
)

var (
	climbRoute   string
	climbGrade   string
	climbStyle   string
	climbSent    bool
	climbSession string
)

var climbCmd = &cobra.Command{
	Use:   "climb",
	Short: "Manage climbs in the open session",
}

var climbAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a climb in the open session",
	Long: `Add logs a climb against the currently open session.

Example:
  cruxlog climb add --route "Moonlight Arete" --grade 5.10a --style trad
  cruxlog climb add --route "The Mandala" --grade V12 --style boulder --sent`,
	RunE: runClimbAdd,
}

var climbSentCmd = &cobra.Command{
	Use:   "sent <climb-id>",
	Short: "Mark a climb as sent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.climbs.SetSent(cmd.Context(), args[0], true); err != nil {
			return fmt.Errorf("mark sent: %w", err)
		}
		fmt.Println("Marked as sent")
		return nil
	},
}

var climbDeleteCmd = &cobra.Command{
	Use:   "delete <climb-id>",
	Short: "Delete a climb",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.climbs.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete climb: %w", err)
		}
		fmt.Println("Climb deleted")
		return nil
	},
}

var climbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a session's climbs",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := app.climbs.List(cmd.Context(), climbSession)
		if err != nil {
			return fmt.Errorf("list climbs: %w", err)
		}
		for _, c := range list {
			sent := " "
			if c.Sent {
				sent = "x"
			}
			fmt.Printf("[%s] %s  %s %s (%s)\n", sent, c.ID, c.Route, c.Grade, c.Style)
		}
		return nil
	},
}

func init() {
	climbAddCmd.Flags().StringVar(&climbRoute, "route", "", "route or problem name (required)")
	climbAddCmd.Flags().StringVar(&climbGrade, "grade", "", "grade")
	climbAddCmd.Flags().StringVar(&climbStyle, "style", string(models.StyleBoulder), "style: boulder, sport, trad, toprope")
	climbAddCmd.Flags().BoolVar(&climbSent, "sent", false, "mark as sent")
	_ = climbAddCmd.MarkFlagRequired("route")

	climbListCmd.Flags().StringVar(&climbSession, "session", "", "session id (required)")
	_ = climbListCmd.MarkFlagRequired("session")

	climbCmd.AddCommand(climbAddCmd)
	climbCmd.AddCommand(climbSentCmd)
	climbCmd.AddCommand(climbDeleteCmd)
	climbCmd.AddCommand(climbListCmd)
}

func runClimbAdd(cmd *cobra.Command, args []string) error {
	style := models.ClimbStyle(climbStyle)
	switch style {
	case models.StyleBoulder, models.StyleSport, models.StyleTrad, models.StyleTopRope:
	default:
		return fmt.Errorf("invalid style %q", climbStyle)
	}

	c, err := app.climbs.Add(cmd.Context(), climbRoute, climbGrade, style, climbSent)
	if err != nil {
		return fmt.Errorf("add climb: %w", err)
	}
	fmt.Printf("Climb logged: %s  %s %s\n", c.ID, c.Route, c.Grade)
	return nil
}
