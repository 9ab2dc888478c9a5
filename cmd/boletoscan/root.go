package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/nao1215/boletoscan/internal/config"
	applog "github.com/nao1215/boletoscan/internal/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for boletoscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boletoscan",
		Short: "Scan boleto QR codes and submit them to the backend",
		Long: `boletoscan reads QR codes from a camera input and submits the scanned
number to the boleto backend with POST {api-url}/user/boleto.

Each scan session waits for a short warm-up before accepting codes, accepts
exactly one code, and gives up when no code is read before the deadline.

The backend URL is taken from --api-url, the BOLETOSCAN_API_URL environment
variable (a .env file in the current directory is loaded), or api_url in
the .boletoscan configuration file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			_ = godotenv.Load()
		},
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .boletoscan in current or home directory)")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewStubCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command. Interrupts cancel the command context,
// which closes the open scan session.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		NewRootCmd(),
		fang.WithVersion(getVersion()),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config path from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// loadConfig builds the configuration from the config file and the
// environment. Command flags are applied by the caller.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, path, err := config.Load(getConfigFlag(cmd), os.LookupEnv)
	if err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	if path != "" {
		logger.Debug("configuration file loaded", "path", path)
	}
	return cfg, nil
}

// setupLogger creates the redacting logger and makes it the default.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	logger := applog.NewSecureLogger(w, verbose)
	slog.SetDefault(logger)
	return logger
}
