package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gridsync/internal/config"
	"github.com/roach88/gridsync/internal/game"
	"github.com/roach88/gridsync/internal/localstore"
)

// RecordsOptions holds flags for the records command.
type RecordsOptions struct {
	*RootOptions
	Database  string // overrides the config database path when set
	Completed bool
	All       bool
}

// RecordSummary is one row of the records listing.
type RecordSummary struct {
	ID             string `json:"id"`
	Difficulty     string `json:"difficulty"`
	Completed      bool   `json:"completed"`
	Mistakes       int    `json:"mistakes"`
	ElapsedSeconds int    `json:"elapsedSeconds"`
	LastModifiedAt string `json:"lastModifiedAt"`
}

// NewRecordsCommand creates the records command.
func NewRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List games in the local replica",
		Long: `List the game records stored in this device's local replica,
newest modification first.

Example:
  gridsync records
  gridsync records --completed
  gridsync records --all --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecords(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the replica database (overrides config)")
	cmd.Flags().BoolVar(&opts.Completed, "completed", false, "list completed games instead of in-progress ones")
	cmd.Flags().BoolVar(&opts.All, "all", false, "list every game regardless of state")

	return cmd
}

func runRecords(opts *RecordsOptions, cmd *cobra.Command) error {
	path := opts.Database
	if path == "" {
		cfg, err := config.Load(opts.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		path = cfg.DatabasePath
	}

	store, err := localstore.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open replica database", err)
	}
	defer store.Close()

	filter := localstore.Filter{}
	if !opts.All {
		completed := opts.Completed
		filter.Completed = &completed
	}
	records, err := store.FetchGames(cmd.Context(), filter)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list games", err)
	}

	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	summaries := make([]RecordSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, summarize(rec))
	}

	if opts.Format == "json" {
		return formatter.Success(summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no games")
		return nil
	}
	return formatter.Success(formatTable(summaries))
}

func summarize(rec *game.Record) RecordSummary {
	return RecordSummary{
		ID:             rec.ID,
		Difficulty:     rec.Difficulty.String(),
		Completed:      rec.IsCompleted,
		Mistakes:       rec.MistakeCount,
		ElapsedSeconds: rec.ElapsedSeconds,
		LastModifiedAt: rec.LastModifiedAt.Format(time.RFC3339),
	}
}

func formatTable(summaries []RecordSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s  %-8s  %-9s  %8s  %8s  %s\n",
		"ID", "TIER", "STATE", "MISTAKES", "ELAPSED", "MODIFIED")
	for _, s := range summaries {
		state := "playing"
		if s.Completed {
			state = "done"
		}
		fmt.Fprintf(&b, "%-36s  %-8s  %-9s  %8d  %7ds  %s\n",
			s.ID, s.Difficulty, state, s.Mistakes, s.ElapsedSeconds, s.LastModifiedAt)
	}
	return strings.TrimRight(b.String(), "\n")
}
