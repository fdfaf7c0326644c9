// Package cli defines Cobra command definitions for the pictoria CLI.
// This file contains the root command, version flag, and help output.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pictoria-app/pictoria/internal/session"
	"github.com/pictoria-app/pictoria/internal/tui"
	"github.com/pictoria-app/pictoria/internal/tui/app"
)

var (
	configDirFlag string
	version       = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "pictoria",
	Short: "Pictogram stories in the terminal",
	Long: `Pictoria turns a reference image into an album of short stories.
Each story comes with pictograms that can be picked to build a
sentence, which is spoken aloud.

Run without a subcommand to open the interactive interface.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runRoot,
}

func runRoot(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	speaker, err := e.speaker()
	if err != nil {
		// Not fatal: pictograms are still composable, just silent.
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v; audio disabled\n", err)
	}

	tuiApp := app.New(app.Deps{
		Store:   e.store,
		Loader:  e.loader,
		Speaker: speaker,
		Timeout: e.cfg.Timeout(),
		Audio:   e.cfg.Speech.Enabled,
		Voice:   e.voice(),
		Logger:  e.logger,
	})

	var unsubscribe func()
	defer func() {
		if unsubscribe != nil {
			unsubscribe()
		}
	}()
	return tui.Run(tuiApp, func(p *tea.Program) {
		// Logouts triggered by a 401 happen inside request commands; the
		// app only learns about them through this message.
		unsubscribe = e.store.Subscribe(func(st session.State) {
			p.Send(tui.SessionChangedMsg{State: st})
		})
	})
}

// Execute runs the root command. Called from main. An interrupt cancels the
// command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Configuration directory (default: <user config dir>/pictoria)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(albumsCmd)
	rootCmd.AddCommand(albumCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(devserverCmd)
}
