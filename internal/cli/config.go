// config.go implements the "pictoria config" commands.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pictoria-app/pictoria/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml",
	Long: `Write config.yaml with default settings to the config directory.
An existing file is kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var (
	initAPIURL  string
	initBackend string
	initForce   bool
)

func init() {
	configInitCmd.Flags().StringVar(&initAPIURL, "api-url", "", "Server base URL")
	configInitCmd.Flags().StringVar(&initBackend, "credential-backend", "", "Credential storage: file or sqlite")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config.yaml")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	dir, err := configDir()
	if err != nil {
		return err
	}

	if _, err := config.ReadConfig(dir); err == nil && !initForce {
		return fmt.Errorf("config.yaml already exists in %s (use --force to overwrite)", dir)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) && !initForce {
		return err
	}

	cfg := config.DefaultConfig()
	if initAPIURL != "" {
		cfg.APIURL = strings.TrimRight(initAPIURL, "/")
	}
	switch initBackend {
	case "":
	case config.BackendFile, config.BackendSQLite:
		cfg.Credential.Backend = initBackend
	default:
		return fmt.Errorf("unknown credential backend %q (want %q or %q)", initBackend, config.BackendFile, config.BackendSQLite)
	}

	if err := config.WriteConfig(dir, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s/config.yaml\n", dir)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	dir, err := configDir()
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config dir:   %s\n", dir)
	fmt.Fprintf(out, "Server:       %s\n", cfg.APIURL)
	fmt.Fprintf(out, "Timeout:      %s\n", cfg.Timeout())
	fmt.Fprintf(out, "Credential:   %s (%s)\n", cfg.Credential.Backend, cfg.CredentialPath(dir))
	fmt.Fprintf(out, "Event log:    %s\n", cfg.LogPath(dir))
	if cfg.Speech.Enabled {
		fmt.Fprintf(out, "Speech:       %s, %s, pitch %.2f, rate %.2f\n",
			cfg.Speech.Command, cfg.Speech.Language, cfg.Speech.Pitch, cfg.Speech.Rate)
	} else {
		fmt.Fprintln(out, "Speech:       off")
	}
	return nil
}
