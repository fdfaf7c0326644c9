// devserver.go implements the "pictoria devserver" command, a local stand-in
// for the story server used for demos and manual testing.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pictoria-app/pictoria/internal/devserver"
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run a local story server",
	Long: `Serve the pictoria API locally with canned stories and pictograms.
Accounts and albums live in memory and are lost on exit.`,
	Args: cobra.NoArgs,
	RunE: runDevserver,
}

var devserverAddr string

func init() {
	devserverCmd.Flags().StringVar(&devserverAddr, "addr", "", "Listen address (default from config)")
}

func runDevserver(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	addr := devserverAddr
	if addr == "" {
		addr = e.cfg.DevServer.Addr
	}
	srv, err := devserver.NewServer(devserver.Options{
		Addr:   addr,
		Secret: e.cfg.DevServer.Secret,
		Logger: e.logger,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s (Ctrl+C to stop)\n", srv.URL())

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("stopping server: %w", err)
	}
	return <-errCh
}
