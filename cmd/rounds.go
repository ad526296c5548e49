package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/rostersim/internal/model"
	"github.com/pable/rostersim/internal/report"
	"github.com/pable/rostersim/internal/storage"
)

var (
	roundsClutch    bool
	roundsPostPlant bool
	roundsSide      string
	roundsCondition string
	roundsEvents    int
)

// roundsCmd is the cobra command for the round timeline of one stored map.
var roundsCmd = &cobra.Command{
	Use:   "rounds <id-prefix> <map-number>",
	Short: "Round-by-round timeline of one map of a stored match",
	Args:  cobra.ExactArgs(2),
	RunE:  runRounds,
}

func init() {
	roundsCmd.Flags().BoolVar(&roundsClutch, "clutch", false, "only show rounds with a clutch")
	roundsCmd.Flags().BoolVar(&roundsPostPlant, "post-plant", false, "only show rounds with a plant")
	roundsCmd.Flags().StringVar(&roundsSide, "side", "", "only show rounds won by this side: attack or defense")
	roundsCmd.Flags().StringVar(&roundsCondition, "condition", "", "only show rounds ending this way, e.g. detonated")
	roundsCmd.Flags().IntVar(&roundsEvents, "events", 0, "print the full event log of this round number")
}

// filterRounds applies --clutch, --post-plant, --side and --condition.
func filterRounds(rounds []model.RoundOutcome, clutch, postPlant bool, side, cond string) []model.RoundOutcome {
	switch strings.ToLower(side) {
	case "attack", "atk":
		side = model.Attack.String()
	case "defense", "def":
		side = model.Defense.String()
	}
	cond = strings.ToLower(cond)
	var out []model.RoundOutcome
	for _, r := range rounds {
		if clutch && len(r.Clutches) == 0 {
			continue
		}
		if postPlant && r.PlanterID == "" {
			continue
		}
		if side != "" && r.WinnerSide.String() != side {
			continue
		}
		if cond != "" && string(r.WinCondition) != cond {
			continue
		}
		out = append(out, r)
	}
	return out
}

// runRounds loads the stored rounds of one map and prints the timeline.
func runRounds(cmd *cobra.Command, args []string) error {
	prefix := args[0]
	mapNumber, err := strconv.Atoi(args[1])
	if err != nil || mapNumber < 1 {
		return fmt.Errorf("invalid map number %q", args[1])
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	return showRounds(db, prefix, mapNumber, roundFilter{
		clutch:    roundsClutch,
		postPlant: roundsPostPlant,
		side:      roundsSide,
		condition: roundsCondition,
		events:    roundsEvents,
	})
}

// roundFilter carries the rounds command flags.
type roundFilter struct {
	clutch, postPlant bool
	side, condition   string
	// events selects one round whose full log is printed instead of the table.
	events int
}

func showRounds(db *storage.DB, prefix string, mapNumber int, f roundFilter) error {
	match, err := db.GetMatchByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if match == nil {
		fmt.Fprintf(os.Stderr, "No match found with id prefix %q\n", prefix)
		return nil
	}

	rounds, err := db.GetRounds(match.ID, mapNumber)
	if err != nil {
		return fmt.Errorf("get rounds: %w", err)
	}
	if len(rounds) == 0 {
		fmt.Fprintf(os.Stderr, "No round data for map %d of match %s\n", mapNumber, report.ShortID(match.ID))
		return nil
	}

	// Player names come from the map's scoreboard.
	perfs, err := db.GetPlayerMapStats(match.ID, mapNumber)
	if err != nil {
		return fmt.Errorf("get player stats: %w", err)
	}
	names := make(map[string]string, len(perfs))
	for _, p := range perfs {
		names[p.PlayerID] = p.PlayerName
	}

	if f.events > 0 {
		for i := range rounds {
			if rounds[i].Number == f.events {
				report.PrintRoundEvents(os.Stdout, &rounds[i], names)
				return nil
			}
		}
		return fmt.Errorf("map %d has no round %d", mapNumber, f.events)
	}

	rounds = filterRounds(rounds, f.clutch, f.postPlant, f.side, f.condition)
	if len(rounds) == 0 {
		fmt.Fprintln(os.Stderr, "No rounds match the given filters.")
		return nil
	}
	report.PrintRoundTable(os.Stdout, rounds, names, match.TeamA, match.TeamB)
	return nil
}
