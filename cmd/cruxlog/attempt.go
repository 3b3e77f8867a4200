// Attempt commands: log and list goes on a climb.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cruxlog/cruxlog/internal/models"
)

var (
	attemptClimb  string
	attemptResult string
	attemptNote   string
)

var attemptCmd = &cobra.Command{
	Use:   "attempt",
	Short: "Manage attempts on a climb",
}

var attemptAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log an attempt on a climb",
	RunE: func(cmd *cobra.Command, args []string) error {
		result := models.AttemptResult(attemptResult)
		switch result {
		case models.ResultSend, models.ResultFall, models.ResultRest:
		default:
			return fmt.Errorf("invalid result %q", attemptResult)
		}

		a, err := app.climbs.AddAttempt(cmd.Context(), attemptClimb, result, attemptNote)
		if err != nil {
			return fmt.Errorf("add attempt: %w", err)
		}
		fmt.Printf("Attempt #%d logged: %s\n", a.Number, a.Result)
		return nil
	},
}

var attemptListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a climb's attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := app.climbs.Attempts(cmd.Context(), attemptClimb)
		if err != nil {
			return fmt.Errorf("list attempts: %w", err)
		}
		for _, a := range list {
			fmt.Printf("#%d  %s  %s\n", a.Number, a.Result, a.Note)
		}
		return nil
	},
}

func init() {
	attemptAddCmd.Flags().StringVar(&attemptClimb, "climb", "", "climb id (required)")
	attemptAddCmd.Flags().StringVar(&attemptResult, "result", "", "result: send, fall, rest (required)")
	attemptAddCmd.Flags().StringVar(&attemptNote, "note", "", "note")
	_ = attemptAddCmd.MarkFlagRequired("climb")
	_ = attemptAddCmd.MarkFlagRequired("result")

	attemptListCmd.Flags().StringVar(&attemptClimb, "climb", "", "climb id (required)")
	_ = attemptListCmd.MarkFlagRequired("climb")

	attemptCmd.AddCommand(attemptAddCmd)
	attemptCmd.AddCommand(attemptListCmd)
}
