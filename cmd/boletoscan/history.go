package main

import (
	"errors"
	"fmt"

	"github.com/nao1215/boletoscan/internal/config"
	"github.com/nao1215/boletoscan/internal/history"
	"github.com/nao1215/boletoscan/internal/report"
	"github.com/spf13/cobra"
)

// errSessionNotFound is returned by history --id for an unknown session.
var errSessionNotFound = errors.New("session not found")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded scan sessions",
		Long: `History lists the scan sessions recorded by the scan command, newest
first, followed by a count of sessions per outcome.

Examples:
  # Show the last 20 sessions
  boletoscan history

  # Show every session as JSON
  boletoscan history --limit 0 --json

  # Export a Markdown summary
  boletoscan history --markdown > sessions.md

  # Show one session in detail
  boletoscan history --id 4f7c1a2e-4b1d-4c8e-9a55-1d2f3e4a5b6c`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit,
		"Maximum number of sessions to show (0 for all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().String("id", "",
		"Show a single session by ID")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	id, err := flags.GetString("id")
	if err != nil {
		return err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return err
		}
	}

	if err := cfg.ValidateOutput(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(cmd.OutOrStdout())
	default:
		w = report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(cfg.Verbose))
	}

	opts := history.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := history.Open(cfg.DBDir, opts)
	if err != nil {
		if !errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		if id != "" {
			return fmt.Errorf("%w: %s", errSessionNotFound, id)
		}
		if cfg.JSONReport || cfg.MarkdownReport {
			_, err := w.WriteHistory(nil)
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded yet.")
		return nil
	}
	defer db.Close()

	if id != "" {
		rec, err := db.GetSession(cmd.Context(), id)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("%w: %s", errSessionNotFound, id)
		}
		_, err = w.Write(rec)
		return err
	}

	recs, err := db.ListSessions(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if _, err := w.WriteHistory(recs); err != nil {
		return err
	}

	if cfg.JSONReport || cfg.MarkdownReport {
		return nil
	}
	summary, err := db.Summarize(cmd.Context())
	if err != nil {
		return err
	}
	if summary.Total > len(recs) {
		fmt.Fprintf(cmd.OutOrStdout(), "Showing %d of %d stored sessions (use --limit 0 to show all).\n",
			len(recs), summary.Total)
	}
	return nil
}
