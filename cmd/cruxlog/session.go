// Session commands: start, end and list climbing sessions.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	sessionCrag  string
	sessionNotes string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage climbing sessions",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new session",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := app.sessions.Start(cmd.Context(), sessionCrag, sessionNotes)
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		fmt.Printf("Session started: %s at %s\n", sess.ID, sess.Crag)
		return nil
	},
}

var sessionEndCmd = &cobra.Command{
	Use:   "end",
	Short: "End the open session",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := app.sessions.End(cmd.Context())
		if err != nil {
			return fmt.Errorf("end session: %w", err)
		}
		fmt.Printf("Session ended: %s\n", sess.ID)
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := app.sessions.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		for _, s := range list {
			state := "open"
			if s.EndedAt != nil {
				state = "ended " + s.EndedAt.Format(time.RFC3339)
			}
			fmt.Printf("%s  %s  %s  (%s)\n", s.ID, s.StartedAt.Format("2006-01-02 15:04"), s.Crag, state)
		}
		return nil
	},
}

func init() {
	sessionStartCmd.Flags().StringVar(&sessionCrag, "crag", "", "crag or gym name (required)")
	sessionStartCmd.Flags().StringVar(&sessionNotes, "notes", "", "session notes")
	_ = sessionStartCmd.MarkFlagRequired("crag")

	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionEndCmd)
	sessionCmd.AddCommand(sessionListCmd)
}
