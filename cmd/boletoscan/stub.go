package main

import (
	"fmt"
	"net"

	"github.com/nao1215/boletoscan/internal/config"
	"github.com/nao1215/boletoscan/internal/stubserver"
	"github.com/spf13/cobra"
)

// NewStubCmd creates the stub command.
func NewStubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a local stand-in for the boleto backend",
		Long: `Stub serves POST /user/boleto on a local address so that the scan
command can be tried without the real backend.

Submissions must be JSON of the form {"numero": <integer>}. Accepted
submissions are answered with 201 and a receipt, and can be listed with
GET /user/boleto. Use --status to answer every submission with a fixed
status, for example 503 to try the connection error path.

If BOLETOSCAN_API_TOKEN (or api_token) is set, the stub requires the same
bearer token.

Examples:
  # Serve on the default address
  boletoscan stub

  # Scan against it from another terminal
  boletoscan scan --api-url http://127.0.0.1:8080

  # Make every submission fail
  boletoscan stub --status 503`,
		Args: cobra.NoArgs,
		RunE: runStubCmd,
	}

	cmd.Flags().StringP("addr", "a", config.DefaultStubAddr,
		"Address to listen on")
	cmd.Flags().IntP("status", "s", 0,
		"Answer every submission with this HTTP status (default: 201)")

	return cmd
}

// runStubCmd executes the stub command.
func runStubCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	status, err := cmd.Flags().GetInt("status")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	srv, err := stubserver.NewServer(
		stubserver.WithStatus(status),
		stubserver.WithToken(cfg.APIToken),
		stubserver.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	return srv.ListenAndServe(cmd.Context(), addr, func(a net.Addr) {
		fmt.Fprintf(cmd.OutOrStdout(), "Stub backend listening on http://%s%s\n", a, stubserver.BoletoPath)
		fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop.")
	})
}
