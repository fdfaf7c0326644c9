// albums.go implements the album commands: albums, album and upload.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pictoria-app/pictoria/internal/composer"
)

var albumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "List your albums",
	Args:  cobra.NoArgs,
	RunE:  runAlbums,
}

var albumCmd = &cobra.Command{
	Use:   "album [folder]",
	Short: "Show the stories and pictograms of an album",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlbum,
}

var uploadCmd = &cobra.Command{
	Use:   "upload [image]",
	Short: "Create an album from a reference image",
	Long: `Upload an image. The server generates stories and pictograms for
it and returns the new album. This can take a while.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func runAlbums(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.requireLogin(cmd); err != nil {
		return err
	}

	albums, err := e.loader.ListAlbums(cmd.Context())
	if err != nil {
		return describe(err)
	}

	out := cmd.OutOrStdout()
	if len(albums) == 0 {
		fmt.Fprintln(out, "No albums yet. Create one with: pictoria upload <image>")
		return nil
	}
	for _, a := range albums {
		fmt.Fprintf(out, "  %-38s  %s\n", a.FolderName, a.ImageURL)
	}
	fmt.Fprintf(out, "%d album(s).\n", len(albums))
	return nil
}

func runAlbum(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.requireLogin(cmd); err != nil {
		return err
	}

	detail, err := e.loader.GetAlbum(cmd.Context(), args[0])
	if err != nil {
		return describe(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Album %s\n", args[0])
	if detail.ImageURL != "" {
		fmt.Fprintf(out, "Image: %s\n", detail.ImageURL)
	}
	fmt.Fprintln(out)
	for i, story := range detail.Stories {
		fmt.Fprintf(out, "%d. %s\n", i+1, story)
		group := detail.PictogramGroups[i]
		if len(group) == 0 {
			fmt.Fprintln(out, "   (no pictograms)")
			continue
		}
		words := make([]string, len(group))
		for j, u := range group {
			words[j] = composer.WordFor(u)
		}
		fmt.Fprintf(out, "   %s\n", strings.Join(words, "  "))
	}
	return nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.requireLogin(cmd); err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Generating stories...")
	created, err := e.loader.UploadAlbum(cmd.Context(), filepath.Base(args[0]), data)
	if err != nil {
		return describe(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created album %s\n", created.FolderName)
	if created.ImageURL != "" {
		fmt.Fprintf(out, "Image: %s\n", created.ImageURL)
	}
	return nil
}
