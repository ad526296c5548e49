package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/rostersim/internal/model"
	"github.com/pable/rostersim/internal/report"
	"github.com/pable/rostersim/internal/roster"
	"github.com/pable/rostersim/internal/sim"
	"github.com/pable/rostersim/internal/storage"
)

var (
	simTeamA   string
	simTeamB   string
	simMaps    string
	simNoStore bool
	simRounds  bool
	simPlayer  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate a best-of-three between two rosters",
	Long: "Load two team rosters from JSON, simulate a series on the given maps,\n" +
		"print per-map scoreboards and store the match.",
	Example: "  rostersim simulate --team-a wolves.json --team-b foxes.json --maps Ascent,Bind,Haven",
	Args:    cobra.NoArgs,
	RunE:    runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simTeamA, "team-a", "", "team A roster JSON file (required)")
	simulateCmd.Flags().StringVar(&simTeamB, "team-b", "", "team B roster JSON file (required)")
	simulateCmd.Flags().StringVar(&simMaps, "maps", "Ascent,Bind,Haven", "comma-separated map order; the odd count sets the series length")
	simulateCmd.Flags().BoolVar(&simNoStore, "no-store", false, "do not write the match to the database")
	simulateCmd.Flags().BoolVar(&simRounds, "rounds", false, "print the round timeline of every map")
	simulateCmd.Flags().StringVar(&simPlayer, "player", "", "highlight player id")
	_ = simulateCmd.MarkFlagRequired("team-a")
	_ = simulateCmd.MarkFlagRequired("team-b")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	teamA, teamB, err := loadTeams(simTeamA, simTeamB)
	if err != nil {
		return err
	}
	maps, err := parseSeriesMaps(simMaps)
	if err != nil {
		return err
	}

	s, err := newSimulator()
	if err != nil {
		return err
	}
	match, err := s.SimulateMatch(*teamA, *teamB, maps)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	printMatch(match, playerNames(teamA, teamB), simRounds, simPlayer)

	if simNoStore {
		return nil
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	if err := db.InsertMatch(match); err != nil {
		return fmt.Errorf("store match: %w", err)
	}
	log.WithField("match", match.ID).Debug("match stored")
	fmt.Fprintf(os.Stdout, "Stored as %s\n", match.ID)
	return nil
}

// loadTeams reads both roster files and rejects shared players.
func loadTeams(pathA, pathB string) (*model.Team, *model.Team, error) {
	a, err := roster.LoadFile(pathA)
	if err != nil {
		return nil, nil, err
	}
	b, err := roster.LoadFile(pathB)
	if err != nil {
		return nil, nil, err
	}
	if err := roster.CheckPair(a, b); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func parseMaps(list string) ([]model.Map, error) {
	var maps []model.Map
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		m, err := model.ParseMap(name)
		if err != nil {
			return nil, err
		}
		maps = append(maps, m)
	}
	if len(maps) == 0 {
		return nil, fmt.Errorf("no maps given")
	}
	return maps, nil
}

// parseSeriesMaps is parseMaps for a series, which needs an odd map count.
func parseSeriesMaps(list string) ([]model.Map, error) {
	maps, err := parseMaps(list)
	if err != nil {
		return nil, err
	}
	if len(maps)%2 == 0 {
		return nil, fmt.Errorf("--maps: %w: got %d", sim.ErrMapCount, len(maps))
	}
	return maps, nil
}

func playerNames(teams ...*model.Team) map[string]string {
	names := make(map[string]string)
	for _, t := range teams {
		for _, p := range t.Roster {
			names[p.ID] = p.Name
		}
	}
	return names
}

func printMatch(m *model.Match, names map[string]string, rounds bool, focus string) {
	report.PrintMatchSummary(os.Stdout, m.Summary())
	for i, r := range m.Maps {
		report.PrintMapHeader(os.Stdout, i+1, r, m.TeamA, m.TeamB)
		report.PrintPlayerTable(os.Stdout, r.TeamAPerformances, m.TeamA, focus)
		report.PrintPlayerTable(os.Stdout, r.TeamBPerformances, m.TeamB, focus)
		report.PrintImpactTable(os.Stdout, append(append([]model.PlayerMapPerformance{}, r.TeamAPerformances...), r.TeamBPerformances...))
		if rounds && len(r.Rounds) > 0 {
			fmt.Fprintln(os.Stdout)
			report.PrintRoundTable(os.Stdout, r.Rounds, names, m.TeamA, m.TeamB)
		}
	}
	fmt.Fprintln(os.Stdout)
}
