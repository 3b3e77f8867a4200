// Profile commands: set up and inspect the device owner's profile.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	profileHandle string
	profileName   string
	profileBio    string
	profileCrag   string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your climbing profile",
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update your profile",
	Long: `Set creates your profile on first use and updates it afterwards.

The handle must be unique across all climbers; a clash that is only visible
on the remote store surfaces as a failed record in "sync status".

Example:
  cruxlog profile set --handle ondra --name "Adam O." --crag "Flatanger"`,
	RunE: runProfileSet,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	RunE:  runProfileShow,
}

func init() {
	profileSetCmd.Flags().StringVar(&profileHandle, "handle", "", "unique handle (required)")
	profileSetCmd.Flags().StringVar(&profileName, "name", "", "display name")
	profileSetCmd.Flags().StringVar(&profileBio, "bio", "", "short bio")
	profileSetCmd.Flags().StringVar(&profileCrag, "crag", "", "home crag")
	_ = profileSetCmd.MarkFlagRequired("handle")

	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileShowCmd)
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	p, err := app.profiles.Set(cmd.Context(), profileHandle, profileName, profileBio, profileCrag)
	if err != nil {
		return fmt.Errorf("set profile: %w", err)
	}
	fmt.Printf("Profile saved: %s (@%s)\n", p.ID, p.Handle)
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	p, err := app.profiles.Get(cmd.Context())
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	fmt.Printf("ID:      %s\n", p.ID)
	fmt.Printf("Handle:  @%s\n", p.Handle)
	fmt.Printf("Name:    %s\n", p.DisplayName)
	fmt.Printf("Bio:     %s\n", p.Bio)
	fmt.Printf("Crag:    %s\n", p.HomeCrag)
	return nil
}
