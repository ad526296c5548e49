package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/rostersim/internal/aggregator"
	"github.com/pable/rostersim/internal/model"
	"github.com/pable/rostersim/internal/report"
	"github.com/pable/rostersim/internal/storage"
)

// playerCmd is the cobra command for cross-match aggregate analysis of one or more players.
var playerCmd = &cobra.Command{
	Use:   "player <player-id> [<player-id>...]",
	Short: "Cross-match analysis for one or more players",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlayer,
}

func runPlayer(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	aggs, err := loadCareers(db, args, os.Stderr)
	if err != nil {
		return err
	}
	printCareers(os.Stdout, aggs)
	return nil
}

// loadCareers builds one career aggregate per id. Ids with no stored maps
// are reported to warn and skipped.
func loadCareers(db *storage.DB, ids []string, warn io.Writer) ([]model.PlayerAggregate, error) {
	var all []model.PlayerAggregate
	for _, id := range ids {
		perfs, err := db.GetPlayerCareer(id)
		if err != nil {
			return nil, fmt.Errorf("query stats for %s: %w", id, err)
		}
		if len(perfs) == 0 {
			fmt.Fprintf(warn, "No data found for player %s\n", id)
			continue
		}
		all = append(all, aggregator.Career(perfs)...)
	}
	return all, nil
}

func printCareers(w io.Writer, aggs []model.PlayerAggregate) {
	if len(aggs) == 0 {
		return
	}
	fmt.Fprintln(w)
	report.PrintCareerTable(w, aggs)
	fmt.Fprintln(w)
	for _, a := range aggs {
		if a.ClutchesPlayed == 0 {
			continue
		}
		lo, hi := report.WilsonCI(a.ClutchesWon, a.ClutchesPlayed)
		fmt.Fprintf(w, "  %s clutch win rate %.0f%% (95%% CI %.0f–%.0f%%, n=%d)\n",
			a.Name, a.ClutchPct(), lo*100, hi*100, a.ClutchesPlayed)
	}
}
