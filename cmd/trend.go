package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/rostersim/internal/report"
	"github.com/pable/rostersim/internal/storage"
)

var trendCmd = &cobra.Command{
	Use:   "trend <player-id>",
	Short: "Chronological per-map performance trend for a player",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func runTrend(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	points, err := db.GetPlayerTrend(args[0])
	if err != nil {
		return fmt.Errorf("query trend: %w", err)
	}
	if len(points) == 0 {
		fmt.Println("no maps found")
		return nil
	}
	report.PrintTrendTable(os.Stdout, points)
	return nil
}
