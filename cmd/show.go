package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/rostersim/internal/model"
	"github.com/pable/rostersim/internal/report"
	"github.com/pable/rostersim/internal/storage"
)

var showPlayerID string

var showCmd = &cobra.Command{
	Use:   "show <id-prefix>",
	Short: "Show stored match scoreboards by id prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPlayerID, "player", "", "highlight player id")
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	return showMatch(db, args[0], showPlayerID)
}

// showMatch prints the stored scoreboards of the match matching prefix.
func showMatch(db *storage.DB, prefix, focus string) error {
	match, err := db.GetMatchByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if match == nil {
		fmt.Fprintf(os.Stderr, "No match found with id prefix %q\n", prefix)
		return nil
	}

	maps, err := db.GetMapResults(match.ID)
	if err != nil {
		return fmt.Errorf("get map results: %w", err)
	}

	report.PrintMatchSummary(os.Stdout, *match)
	for i, r := range maps {
		perfs, err := db.GetPlayerMapStats(match.ID, i+1)
		if err != nil {
			return fmt.Errorf("get player stats for map %d: %w", i+1, err)
		}
		teamA := filterTeam(perfs, model.TeamA)
		teamB := filterTeam(perfs, model.TeamB)

		report.PrintMapHeader(os.Stdout, i+1, r, match.TeamA, match.TeamB)
		report.PrintPlayerTable(os.Stdout, teamA, match.TeamA, focus)
		report.PrintPlayerTable(os.Stdout, teamB, match.TeamB, focus)
		report.PrintImpactTable(os.Stdout, perfs)
	}
	return nil
}

func filterTeam(perfs []model.PlayerMapPerformance, team model.TeamSide) []model.PlayerMapPerformance {
	var out []model.PlayerMapPerformance
	for _, p := range perfs {
		if p.Team == team {
			out = append(out, p)
		}
	}
	return out
}
