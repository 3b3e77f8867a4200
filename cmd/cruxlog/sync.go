// Sync commands: drain queued changes, pull remote ones, inspect the queue
// and run the background coordinator.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cruxlog/cruxlog/internal/models"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize with the remote store",
}

var syncNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Push queued changes once",
	RunE: func(cmd *cobra.Command, args []string) error {
		coord, cleanup, err := app.buildCoordinator(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		if err := coord.DrainOnce(cmd.Context()); err != nil {
			return fmt.Errorf("drain: %w", err)
		}
		return printQueue(cmd, args)
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch remote changes once",
	RunE: func(cmd *cobra.Command, args []string) error {
		coord, cleanup, err := app.buildCoordinator(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		if err := coord.Pull(cmd.Context()); err != nil {
			return fmt.Errorf("pull: %w", err)
		}
		fmt.Println("Pull complete")
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queued and failed record counts",
	RunE:  printQueue,
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync coordinator until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		coord, cleanup, err := app.buildCoordinator(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		return coord.Run(ctx)
	},
}

func init() {
	syncCmd.AddCommand(syncNowCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncRunCmd)
}

// printQueue reports per-kind pending and failed counts straight from the
// local store; no remote connection is needed.
func printQueue(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repos := []struct {
		kind   models.EntityKind
		counts func(context.Context) (int, int, error)
	}{
		{models.KindProfile, app.store.Profiles.DirtyCounts},
		{models.KindSession, app.store.Sessions.DirtyCounts},
		{models.KindClimb, app.store.Climbs.DirtyCounts},
		{models.KindAttempt, app.store.Attempts.DirtyCounts},
		{models.KindPhoto, app.store.Photos.DirtyCounts},
		{models.KindFollow, app.store.Follows.DirtyCounts},
	}

	var totalPending, totalFailed int
	for _, r := range repos {
		pending, failed, err := r.counts(ctx)
		if err != nil {
			return fmt.Errorf("count %s records: %w", r.kind, err)
		}
		totalPending += pending
		totalFailed += failed
		if pending > 0 || failed > 0 {
			fmt.Printf("%-8s pending: %d  failed: %d\n", r.kind, pending, failed)
		}
	}

	if totalPending == 0 && totalFailed == 0 {
		fmt.Println("Everything is synced")
	} else if totalFailed > 0 {
		fmt.Printf("%d record(s) need attention; edit them to retry\n", totalFailed)
	}
	return nil
}
