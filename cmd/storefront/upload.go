package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [pattern...]",
	Short: "Upload product images through a running storefront API",
	Long: `Upload every file matching the given patterns (doublestar globs such as
"photos/**/*.jpg") and print the resulting image URLs in order, ready
to paste into a product's images list.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if serverURL == "" {
			fatal("Missing server", fmt.Errorf("--server is required"))
		}

		var files []string
		for _, pattern := range args {
			matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				fatal("Invalid pattern", err)
			}
			files = append(files, matches...)
		}
		if len(files) == 0 {
			fatal("No images found", fmt.Errorf("patterns %v matched nothing", args))
		}

		c := newClient(loadConfig())
		progress := func(done, total int) {
			fmt.Fprintf(os.Stderr, "\r%d/%d uploaded", done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		}
		for up, err := range c.UploadImages(context.Background(), files, progress) {
			if err != nil {
				fmt.Fprintln(os.Stderr)
				fatal("Upload failed for "+up.Path, err)
			}
			fmt.Println(up.Result.URL)
		}
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&serverURL, "server", "", "Base URL of a running storefront API")
}
