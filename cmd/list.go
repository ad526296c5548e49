package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/rostersim/internal/report"
	"github.com/pable/rostersim/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored matches",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	return listMatches(db)
}

func listMatches(db *storage.DB) error {
	matches, err := db.ListMatches()
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'rostersim simulate' to add one.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-20s  %-20s  %5s  %-20s  %s\n",
		"ID", "TEAM A", "TEAM B", "MAPS", "WINNER", "DATE")
	fmt.Fprintf(os.Stdout, "%-10s  %-20s  %-20s  %5s  %-20s  %s\n",
		"──────────", "────────────────────", "────────────────────", "─────", "────────────────────", "────")
	for _, m := range matches {
		maps := fmt.Sprintf("%d-%d", m.MapsA, m.MapsB)
		fmt.Fprintf(os.Stdout, "%-10s  %-20s  %-20s  %5s  %-20s  %s\n",
			report.ShortID(m.ID), m.TeamA, m.TeamB, maps, m.Winner, m.CreatedAt)
	}
	return nil
}
