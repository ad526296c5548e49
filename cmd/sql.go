package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/rostersim/internal/report"
	"github.com/pable/rostersim/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the match database",
	Long: `Run an arbitrary SQL query against the match database and print results as a table.

Schema overview:
  matches(id, team_a, team_b, winner, maps_a, maps_b, created_at)
  map_results(match_id, map_number, map_name, team_a_score, team_b_score, winner,
    team_a_attack_rounds, team_a_defense_rounds, team_b_attack_rounds,
    team_b_defense_rounds, total_rounds, overtime_rounds, tie_break)
  player_map_stats(match_id, map_number, player_id, name, team, team_name, agent,
    kills, deaths, assists, first_kills, first_deaths, trade_kills, plants, defuses,
    rounds_played, double_kills, triple_kills, quadra_kills, aces,
    clutches_played, clutches_won, kast_rounds, kd, acs, adr, kast, econ_rating)
  rounds(match_id, map_number, round_number, attacking, winner, win_condition,
    planter_id, plant_time, defuser_id, defused, first_killer_id, first_victim_id,
    clutch_player_id, clutch_enemies, clutch_won, survivors_a, survivors_b, detail)

team, attacking and winner hold 'A' or 'B'. rounds.detail is the JSON event log.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

var sqlJSON bool

func init() {
	sqlCmd.Flags().BoolVar(&sqlJSON, "json", false, "print rows as a JSON array of objects")
}

func runSQL(_ *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(strings.Join(args, " "))
	if err != nil {
		return err
	}
	log.WithField("rows", len(rows)).Debug("sql query done")
	if sqlJSON {
		return writeRowsJSON(os.Stdout, cols, rows)
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}
	report.PrintRows(os.Stdout, cols, rows)
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}

func writeRowsJSON(w io.Writer, cols []string, rows [][]string) error {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]string, len(cols))
		for i, c := range cols {
			obj[c] = row[i]
		}
		out = append(out, obj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
