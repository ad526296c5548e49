package cmd

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/rostersim/internal/roster"
	"github.com/pable/rostersim/internal/storage"
)

var (
	exportTeam    string
	exportPlayers string
	exportRoster  string
	exportOut     string
)

// teamForm is the JSON document written by export: a team's simulated
// record, ready to feed scouting or seeding tools.
type teamForm struct {
	Team               string             `json:"team"`
	GeneratedAt        string             `json:"generated_at"`
	MapsPlayed         int                `json:"maps_played"`
	AttackRoundWinPct  float64            `json:"attack_round_win_pct"`
	DefenseRoundWinPct float64            `json:"defense_round_win_pct"`
	Maps               map[string]mapForm `json:"maps"`
	Players            []playerForm       `json:"players"`
	// RatingFloor is the lowest rating among the top five players.
	RatingFloor float64 `json:"rating_floor"`
}

// mapForm is the per-map block within teamForm.
type mapForm struct {
	MapWinPct   float64 `json:"map_win_pct"`
	RoundWinPct float64 `json:"round_win_pct"`
	Played      int     `json:"played"`
}

type playerForm struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Maps    int     `json:"maps"`
	KPR     float64 `json:"kpr"`
	DPR     float64 `json:"dpr"`
	KASTPct float64 `json:"kast_pct"`
	AvgACS  float64 `json:"avg_acs"`
	Rating  float64 `json:"rating"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a team's simulated form as JSON",
	Long: `Queries the match database for a team and its players and produces a JSON
summary: per-map win rates, attack/defense round win rates and a rating per player.

Specify the players via --players (comma-separated ids) or --roster (a team
roster JSON file as used by simulate). If both are provided, --players takes
precedence. --team overrides the name from the roster file.

Player ratings use the community approximation of a Rating 2.0 style score,
with ADR taken as 0.7 * ACS:
  Rating ≈ 0.0073*KAST% + 0.3591*KPR - 0.5329*DPR + 0.2372*Impact + 0.0032*ADR + 0.1587
  Impact  = 2.13*KPR + 0.42*APR - 0.41

Example:
  rostersim export --roster wolves.json --out wolves-form.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportTeam, "team", "", "team name as stored in matches")
	exportCmd.Flags().StringVar(&exportPlayers, "players", "", "comma-separated player ids")
	exportCmd.Flags().StringVar(&exportRoster, "roster", "", "team roster JSON file")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path (default: stdout)")
}

func runExport(_ *cobra.Command, _ []string) error {
	teamName, ids, err := resolveRoster()
	if err != nil {
		return err
	}
	if teamName == "" {
		return fmt.Errorf("no team name specified: use --team or --roster")
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	form, err := buildTeamForm(db, teamName, ids)
	if err != nil {
		return err
	}
	form.GeneratedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(form, "", "  ")
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	if exportOut == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(exportOut, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", exportOut)
	return nil
}

// resolveRoster returns the team name and player ids from flags.
// --players takes precedence over --roster; --team always overrides the roster file name.
func resolveRoster() (teamName string, ids []string, err error) {
	if exportPlayers != "" {
		for _, raw := range strings.Split(exportPlayers, ",") {
			if id := strings.TrimSpace(raw); id != "" {
				ids = append(ids, id)
			}
		}
		return exportTeam, ids, nil
	}
	if exportRoster != "" {
		t, loadErr := roster.LoadFile(exportRoster)
		if loadErr != nil {
			return "", nil, loadErr
		}
		name := t.Name
		if exportTeam != "" {
			name = exportTeam
		}
		for _, p := range t.Roster {
			ids = append(ids, p.ID)
		}
		return name, ids, nil
	}
	return exportTeam, nil, nil
}

func buildTeamForm(db *storage.DB, teamName string, ids []string) (*teamForm, error) {
	records, err := db.TeamMapRecords(teamName)
	if err != nil {
		return nil, fmt.Errorf("team map records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no stored maps for team %q", teamName)
	}
	sides, err := db.TeamSideStats(teamName)
	if err != nil {
		return nil, fmt.Errorf("team side stats: %w", err)
	}
	totals, err := db.PlayerTotalsByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("player totals: %w", err)
	}

	form := &teamForm{
		Team:               teamName,
		Maps:               make(map[string]mapForm, len(records)),
		AttackRoundWinPct:  ratioOr(sides.AttackWins, sides.AttackTotal, 0.5),
		DefenseRoundWinPct: ratioOr(sides.DefenseWins, sides.DefenseTotal, 0.5),
	}
	for _, r := range records {
		form.MapsPlayed += r.Played
		form.Maps[r.MapName] = mapForm{
			MapWinPct:   ratioOr(r.Won, r.Played, 0),
			RoundWinPct: ratioOr(r.RoundsWon, r.RoundsPlayed, 0),
			Played:      r.Played,
		}
	}

	form.Players = buildRatings(totals)
	ratings := make([]float64, 0, 5)
	for i := 0; i < len(form.Players) && i < 5; i++ {
		ratings = append(ratings, form.Players[i].Rating)
	}
	sort.Float64s(ratings)
	if len(ratings) > 0 {
		form.RatingFloor = ratings[0]
	}
	return form, nil
}

// buildRatings computes per-player rate stats and the rating proxy. Players
// are ordered by rounds played, most active first.
func buildRatings(totals []storage.PlayerTotals) []playerForm {
	out := make([]playerForm, 0, len(totals))
	for _, t := range totals {
		if t.RoundsPlayed == 0 {
			continue
		}
		rounds := float64(t.RoundsPlayed)
		kpr := float64(t.Kills) / rounds
		dpr := float64(t.Deaths) / rounds
		apr := float64(t.Assists) / rounds
		kast := 100.0 * float64(t.KASTRounds) / rounds
		avgACS := float64(t.ACSTotal) / float64(max(t.Maps, 1))
		adr := 0.7 * avgACS
		impact := 2.13*kpr + 0.42*apr - 0.41
		r := 0.0073*kast + 0.3591*kpr - 0.5329*dpr + 0.2372*impact + 0.0032*adr + 0.1587
		out = append(out, playerForm{
			ID:      t.PlayerID,
			Name:    t.Name,
			Maps:    t.Maps,
			KPR:     roundTo2dp(kpr),
			DPR:     roundTo2dp(dpr),
			KASTPct: roundTo2dp(kast),
			AvgACS:  roundTo2dp(avgACS),
			Rating:  roundTo2dp(r),
		})
	}
	return out
}

func ratioOr(num, den int, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	return roundTo2dp(float64(num) / float64(den))
}

func roundTo2dp(v float64) float64 {
	return math.Round(v*100) / 100
}
