// Follow commands: follow, unfollow and list followed climbers.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var followCmd = &cobra.Command{
	Use:   "follow <profile-id>",
	Short: "Follow another climber",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.follows.Follow(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("follow: %w", err)
		}
		fmt.Printf("Following %s\n", args[0])
		return nil
	},
}

var unfollowCmd = &cobra.Command{
	Use:   "unfollow <profile-id>",
	Short: "Stop following a climber",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.follows.Unfollow(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("unfollow: %w", err)
		}
		fmt.Printf("Unfollowed %s\n", args[0])
		return nil
	},
}

var followingCmd = &cobra.Command{
	Use:   "following",
	Short: "List climbers you follow",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := app.follows.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list follows: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("Not following anyone")
			return nil
		}
		for _, f := range list {
			fmt.Println(f.FolloweeID)
		}
		return nil
	},
}
