package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/anime-shed/doc-inspector-go/internal/repository"
	"github.com/anime-shed/doc-inspector-go/pkg/models"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [file-path]",
		Short: "Show stored analysis results",
		Long: `History lists results recorded with --db, newest first.

With a file path only the results for that image are listed; without one
the most recent results across all images are shown.

Examples:
  docqa history --db results.db
  docqa history --db results.db --limit 5 scans/page1.png`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("db", os.Getenv(resultsDBEnv),
		"SQLite file holding recorded results (default: $RESULTS_DB)")
	cmd.Flags().Int("limit", 20, "Maximum number of results")
	cmd.Flags().BoolP("json", "j", false, "Output JSON instead of Markdown")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	dbPath, err := cmd.Flags().GetString("db")
	if err != nil {
		return err
	}
	if dbPath == "" {
		return errors.New("no results database given (use --db or set RESULTS_DB)")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("cannot open results database: %w", err)
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	if limit < 1 {
		return fmt.Errorf("--limit must be >= 1 (got %d)", limit)
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	store, err := repository.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var (
		filePath string
		rows     []*models.StoredAnalysis
	)
	if len(args) == 1 {
		filePath = args[0]
		rows, err = store.History(cmd.Context(), filePath, limit)
	} else {
		rows, err = store.Recent(cmd.Context(), limit)
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(models.HistoryResponse{FilePath: filePath, Results: rows})
	}
	return writeHistory(cmd, filePath, rows)
}

func writeHistory(cmd *cobra.Command, filePath string, rows []*models.StoredAnalysis) error {
	md := markdown.NewMarkdown(cmd.OutOrStdout())
	if filePath != "" {
		md.H2f("History for %s", filePath)
	} else {
		md.H2("Recent Analyses")
	}
	md.PlainText("")

	if len(rows) == 0 {
		md.PlainText("No results recorded.")
		return md.Build()
	}

	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{
			"`" + r.ID + "`",
			r.FilePath,
			fmt.Sprintf("%.3f", r.Score),
			fmt.Sprintf("%d", r.Stars),
			r.Status,
			r.Profile,
			r.AnalyzedAt.Local().Format(time.DateTime),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "File", "Score", "Stars", "Status", "Profile", "Analyzed"},
		Rows:   table,
	})
	return md.Build()
}
