// Photo commands: attach, list and delete climb photos.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	photoClimb       string
	photoFile        string
	photoContentType string
)

var photoCmd = &cobra.Command{
	Use:   "photo",
	Short: "Manage climb photos",
}

var photoAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Attach a photo to a climb",
	Long: `Add registers a local image file as a photo of the climb. The file is
uploaded to object storage when the photo syncs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := app.photos.Add(cmd.Context(), photoClimb, photoFile, photoContentType)
		if err != nil {
			return fmt.Errorf("add photo: %w", err)
		}
		fmt.Printf("Photo added: %s\n", p.ID)
		return nil
	},
}

var photoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a climb's photos",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := app.photos.List(cmd.Context(), photoClimb)
		if err != nil {
			return fmt.Errorf("list photos: %w", err)
		}
		for _, p := range list {
			fmt.Printf("%s  %s\n", p.ID, p.LocalPath)
		}
		return nil
	},
}

var photoDeleteCmd = &cobra.Command{
	Use:   "delete <photo-id>",
	Short: "Delete a photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.photos.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete photo: %w", err)
		}
		fmt.Println("Photo deleted")
		return nil
	},
}

func init() {
	photoAddCmd.Flags().StringVar(&photoClimb, "climb", "", "climb id (required)")
	photoAddCmd.Flags().StringVar(&photoFile, "file", "", "path to the image file (required)")
	photoAddCmd.Flags().StringVar(&photoContentType, "content-type", "image/jpeg", "MIME type")
	_ = photoAddCmd.MarkFlagRequired("climb")
	_ = photoAddCmd.MarkFlagRequired("file")

	photoListCmd.Flags().StringVar(&photoClimb, "climb", "", "climb id (required)")
	_ = photoListCmd.MarkFlagRequired("climb")

	photoCmd.AddCommand(photoAddCmd)
	photoCmd.AddCommand(photoListCmd)
	photoCmd.AddCommand(photoDeleteCmd)
}
