package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/pable/rostersim/internal/aggregator"
	"github.com/pable/rostersim/internal/model"
	"github.com/pable/rostersim/internal/storage"
)

const analyzeSystemPrompt = `You are an esports performance analyst for a 5v5 tactical shooter. You are
given structured data from a match simulator and a question about a player or a match.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise and focus on what the roster could change.

Metrics glossary:
- ACS: Average Combat Score, round((150*kills + 50*assists + 25*first kills) / rounds).
- ADR: derived from ACS (ACS * 0.7).
- KAST%: % rounds with Kill/Assist/Survival/Trade. Good: >70%.
- K/D: Kills / deaths; equals kills when there are no deaths.
- FK/FD: first kill/death of the round.
- Trade kill: killing the enemy who killed a teammate within 1 second.
- Econ rating: 50 + (K/D - 1) * 20 + (KAST - 70) * 0.3.
- 1vN clutch W/A: won/attempted rounds as the last player alive vs N enemies.
- ATK/DEF rounds: rounds won while attacking or defending.`

var (
	analyzeModel  string
	analyzeAPIKey string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "AI-powered grounded analysis (requires ANTHROPIC_API_KEY)",
}

var analyzePlayerCmd = &cobra.Command{
	Use:   "player <player-id> <question>",
	Short: "Analyze a player's career stats with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzePlayer,
}

var analyzeMatchCmd = &cobra.Command{
	Use:   "match <id-prefix> <question>",
	Short: "Analyze a single stored match with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzeMatch,
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&analyzeModel, "model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	analyzeCmd.PersistentFlags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")

	analyzeCmd.AddCommand(analyzePlayerCmd)
	analyzeCmd.AddCommand(analyzeMatchCmd)
}

func runAnalyzePlayer(cmd *cobra.Command, args []string) error {
	id, question := args[0], args[1]

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	perfs, err := db.GetPlayerCareer(id)
	if err != nil {
		return fmt.Errorf("query stats: %w", err)
	}
	if len(perfs) == 0 {
		return fmt.Errorf("no data found for player %s", id)
	}

	contextJSON, err := buildPlayerContext(perfs)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, contextJSON, question)
}

func runAnalyzeMatch(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	match, err := db.GetMatchByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("find match: %w", err)
	}
	if match == nil {
		return fmt.Errorf("no match found with id prefix %q", args[0])
	}
	question := args[1]

	maps, err := db.GetMapResults(match.ID)
	if err != nil {
		return fmt.Errorf("query maps: %w", err)
	}
	for i := range maps {
		perfs, err := db.GetPlayerMapStats(match.ID, i+1)
		if err != nil {
			return fmt.Errorf("query map %d stats: %w", i+1, err)
		}
		maps[i].TeamAPerformances = filterTeam(perfs, model.TeamA)
		maps[i].TeamBPerformances = filterTeam(perfs, model.TeamB)
	}

	contextJSON, err := buildMatchContext(match, maps)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, contextJSON, question)
}

type perfEntry struct {
	Name    string            `json:"name"`
	Agent   string            `json:"agent"`
	ACS     int               `json:"acs"`
	KD      float64           `json:"kd"`
	KASTPct int               `json:"kast_pct"`
	Kills   int               `json:"kills"`
	Deaths  int               `json:"deaths"`
	Assists int               `json:"assists"`
	FK      int               `json:"fk"`
	FD      int               `json:"fd"`
	TradeK  int               `json:"trade_k"`
	Plants  int               `json:"plants"`
	Defuses int               `json:"defuses"`
	Econ    int               `json:"econ"`
	Clutch  map[string]string `json:"clutch"`
	MultiK  map[string]int    `json:"multi_kills,omitempty"`
}

func newPerfEntry(p *model.PlayerMapPerformance) perfEntry {
	e := perfEntry{
		Name:    p.PlayerName,
		Agent:   string(p.Agent),
		ACS:     p.ACS,
		KD:      round2(p.KD),
		KASTPct: p.KAST,
		Kills:   p.Kills,
		Deaths:  p.Deaths,
		Assists: p.Assists,
		FK:      p.FirstKills,
		FD:      p.FirstDeaths,
		TradeK:  p.TradeKills,
		Plants:  p.Plants,
		Defuses: p.Defuses,
		Econ:    p.EconRating,
		Clutch:  clutchSummary(p),
	}
	for n, label := range map[int]string{2: "2k", 3: "3k", 4: "4k", 5: "ace"} {
		if p.MultiKills[n] > 0 {
			if e.MultiK == nil {
				e.MultiK = make(map[string]int)
			}
			e.MultiK[label] = p.MultiKills[n]
		}
	}
	return e
}

// buildPlayerContext serialises a player's stored map lines and career
// totals into compact JSON.
func buildPlayerContext(perfs []model.PlayerMapPerformance) (string, error) {
	agg := aggregator.Career(perfs)[0]
	lines := make([]perfEntry, 0, len(perfs))
	for i := range perfs {
		lines = append(lines, newPerfEntry(&perfs[i]))
	}

	doc := map[string]interface{}{
		"subject":       "player",
		"player":        agg.Name,
		"maps_analyzed": agg.Maps,
		"overview": map[string]interface{}{
			"kd":       round2(agg.KDRatio()),
			"avg_acs":  round2(agg.AvgACS()),
			"kast_pct": round2(agg.KASTPct()),
			"kills":    agg.Kills,
			"assists":  agg.Assists,
			"deaths":   agg.Deaths,
			"rounds":   agg.RoundsPlayed,
			"aces":     agg.Aces,
		},
		"opening": map[string]interface{}{
			"kills":  agg.FirstKills,
			"deaths": agg.FirstDeaths,
		},
		"objectives": map[string]interface{}{
			"plants":  agg.Plants,
			"defuses": agg.Defuses,
		},
		"clutch":    clutchStr(agg.ClutchesWon, agg.ClutchesPlayed),
		"map_lines": lines,
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

// buildMatchContext serialises a stored match into compact JSON.
func buildMatchContext(match *model.MatchSummary, maps []model.MapResult) (string, error) {
	type mapEntry struct {
		Map      string      `json:"map"`
		Score    string      `json:"score"`
		Winner   string      `json:"winner"`
		AttackA  int         `json:"team_a_atk_rounds"`
		DefenseA int         `json:"team_a_def_rounds"`
		AttackB  int         `json:"team_b_atk_rounds"`
		DefenseB int         `json:"team_b_def_rounds"`
		Overtime int         `json:"overtime_rounds"`
		TieBreak string      `json:"tie_break,omitempty"`
		TeamA    []perfEntry `json:"team_a"`
		TeamB    []perfEntry `json:"team_b"`
	}

	entries := make([]mapEntry, 0, len(maps))
	for _, r := range maps {
		winner := match.TeamA
		if r.Winner == model.TeamB {
			winner = match.TeamB
		}
		e := mapEntry{
			Map:      string(r.Map),
			Score:    fmt.Sprintf("%d-%d", r.TeamAScore, r.TeamBScore),
			Winner:   winner,
			AttackA:  r.TeamAAttackRounds,
			DefenseA: r.TeamADefenseRounds,
			AttackB:  r.TeamBAttackRounds,
			DefenseB: r.TeamBDefenseRounds,
			Overtime: r.OvertimeRounds,
			TieBreak: r.TieBreak,
		}
		for i := range r.TeamAPerformances {
			e.TeamA = append(e.TeamA, newPerfEntry(&r.TeamAPerformances[i]))
		}
		for i := range r.TeamBPerformances {
			e.TeamB = append(e.TeamB, newPerfEntry(&r.TeamBPerformances[i]))
		}
		entries = append(entries, e)
	}

	doc := map[string]interface{}{
		"subject": "match",
		"team_a":  match.TeamA,
		"team_b":  match.TeamB,
		"series":  fmt.Sprintf("%d-%d", match.MapsA, match.MapsB),
		"winner":  match.Winner,
		"date":    match.CreatedAt,
		"maps":    entries,
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

// clutchSummary builds a map of "1v1"…"1v5" + "total" clutch strings.
// Stored lines only carry totals, which sit in bucket 0.
func clutchSummary(p *model.PlayerMapPerformance) map[string]string {
	out := make(map[string]string, model.MaxClutchEnemies+1)
	for i := 1; i <= model.MaxClutchEnemies; i++ {
		if p.ClutchAttempts[i] > 0 {
			out[fmt.Sprintf("1v%d", i)] = clutchStr(p.ClutchWins[i], p.ClutchAttempts[i])
		}
	}
	out["total"] = clutchStr(p.ClutchesWon(), p.ClutchesPlayed())
	return out
}

// clutchStr formats wins/attempts as "W/A (P%)" or "—".
func clutchStr(wins, attempts int) string {
	if attempts == 0 {
		return "—"
	}
	pct := float64(wins) / float64(attempts) * 100
	return fmt.Sprintf("%d/%d (%.0f%%)", wins, attempts, pct)
}

// round2 rounds a float64 to 2 decimal places.
func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		// Provide a cleaner error message for common API errors.
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed, check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
