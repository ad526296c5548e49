package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/elliotchance/pie/v2"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/rostersim/internal/model"
	"github.com/pable/rostersim/internal/storage"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintRows prints an ad-hoc result set with one header per column.
func PrintRows(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	table.Header(pie.Map(cols, func(c string) any { return c })...)
	for _, row := range rows {
		table.Append(pie.Map(row, func(v string) any { return v })...)
	}
	table.Render()
}

// PrintMatchSummary prints a one-line summary header for the match.
func PrintMatchSummary(w io.Writer, s model.MatchSummary) {
	winner := s.Winner
	if winner == "" {
		winner = "undecided"
	}
	fmt.Fprintf(w, "\n%s %d – %d %s  |  Winner: %s  |  Maps: %d  |  Date: %s  |  ID: %s\n\n",
		s.TeamA, s.MapsA, s.MapsB, s.TeamB, winner, s.MapCount, s.CreatedAt, ShortID(s.ID))
}

// PrintMapHeader prints the score line of one map.
func PrintMapHeader(w io.Writer, n int, r model.MapResult, teamA, teamB string) {
	extra := ""
	if r.Overtime {
		extra = fmt.Sprintf("  |  OT +%d", r.OvertimeRounds)
	}
	if r.TieBreak != "" {
		extra += fmt.Sprintf("  |  tie-break: %s", r.TieBreak)
	}
	fmt.Fprintf(w, "\nMap %d: %s  |  %s %d – %d %s  |  ATK/DEF %s %d/%d, %s %d/%d%s\n\n",
		n, r.Map, teamA, r.TeamAScore, r.TeamBScore, teamB,
		teamA, r.TeamAAttackRounds, r.TeamADefenseRounds,
		teamB, r.TeamBAttackRounds, r.TeamBDefenseRounds, extra)
}

// PrintPlayerTable prints one team's scoreboard for a map, best ACS first.
// If focusID is non-empty, that player's row is marked with ">".
func PrintPlayerTable(w io.Writer, perfs []model.PlayerMapPerformance, team, focusID string) {
	table := newTable(w)
	table.Header(
		" ", "PLAYER", "TEAM", "AGENT", "ACS", "K", "D", "A", "K/D", "ADR", "KAST%",
		"FK", "FD", "TRADE_K", "PLANT", "DEFUSE", "ECON",
	)

	sorted := pie.SortUsing(perfs, func(a, b model.PlayerMapPerformance) bool { return a.ACS > b.ACS })
	for _, p := range sorted {
		marker := " "
		if focusID != "" && p.PlayerID == focusID {
			marker = ">"
		}
		table.Append(
			marker,
			p.PlayerName,
			team,
			string(p.Agent),
			strconv.Itoa(p.ACS),
			strconv.Itoa(p.Kills),
			strconv.Itoa(p.Deaths),
			strconv.Itoa(p.Assists),
			fmt.Sprintf("%.2f", p.KD),
			strconv.Itoa(p.ADR),
			fmt.Sprintf("%d%%", p.KAST),
			strconv.Itoa(p.FirstKills),
			strconv.Itoa(p.FirstDeaths),
			strconv.Itoa(p.TradeKills),
			strconv.Itoa(p.Plants),
			strconv.Itoa(p.Defuses),
			strconv.Itoa(p.EconRating),
		)
	}
	table.Render()
}

// PrintImpactTable prints multi-kill and clutch counts for both teams.
// Players with no multi-kills and no clutches are skipped.
func PrintImpactTable(w io.Writer, perfs []model.PlayerMapPerformance) {
	rows := pie.Filter(perfs, func(p model.PlayerMapPerformance) bool {
		return p.DoubleKills()+p.TripleKills()+p.QuadraKills()+p.AceKills()+p.ClutchesPlayed() > 0
	})
	if len(rows) == 0 {
		return
	}
	table := newTable(w)
	table.Header("PLAYER", "2K", "3K", "4K", "ACE", "CLUTCH", "1v1", "1v2", "1v3", "1v4", "1v5")
	for _, p := range rows {
		cells := []any{
			p.PlayerName,
			strconv.Itoa(p.DoubleKills()),
			strconv.Itoa(p.TripleKills()),
			strconv.Itoa(p.QuadraKills()),
			strconv.Itoa(p.AceKills()),
			clutchCell(p.ClutchesWon(), p.ClutchesPlayed()),
		}
		for n := 1; n <= model.MaxClutchEnemies; n++ {
			cells = append(cells, clutchCell(p.ClutchWins[n], p.ClutchAttempts[n]))
		}
		table.Append(cells...)
	}
	table.Render()
}

func clutchCell(won, played int) string {
	if played == 0 {
		return "—"
	}
	return fmt.Sprintf("%d/%d", won, played)
}

// PrintRoundTable prints a one-line-per-round timeline. names maps player
// ids to display names; unknown ids print as-is.
func PrintRoundTable(w io.Writer, rounds []model.RoundOutcome, names map[string]string, teamA, teamB string) {
	label := func(t model.TeamSide) string {
		if t == model.TeamA {
			return teamA
		}
		return teamB
	}
	name := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	}

	table := newTable(w)
	table.Header("RND", "ATTACK", "WINNER", "SIDE", "HOW", "END", "FIRST BLOOD", "PLANT", "CLUTCH", "ALIVE")
	for i := range rounds {
		r := &rounds[i]
		fb := "—"
		if r.FirstBlood != nil {
			fb = fmt.Sprintf("%s > %s @%.0fs", name(r.FirstBlood.KillerID), name(r.FirstBlood.VictimID), r.FirstBlood.Time)
		}
		plant := "—"
		if r.PlanterID != "" {
			plant = fmt.Sprintf("%s @%.0fs", name(r.PlanterID), r.PlantTime)
		}
		clutch := "—"
		if c := r.WonClutch(); c != nil {
			clutch = fmt.Sprintf("%s 1v%d won", name(c.PlayerID), c.Enemies)
		} else if len(r.Clutches) > 0 {
			c := r.Clutches[0]
			clutch = fmt.Sprintf("%s 1v%d lost", name(c.PlayerID), c.Enemies)
		}
		end := 0.0
		if len(r.Events) > 0 {
			end = r.Events[len(r.Events)-1].Time
		}
		table.Append(
			strconv.Itoa(r.Number),
			label(r.Attacking),
			label(r.Winner),
			r.WinnerSide.String(),
			string(r.WinCondition),
			fmt.Sprintf("%.0fs", end),
			fb,
			plant,
			clutch,
			fmt.Sprintf("%d v %d", r.SurvivorCount(model.TeamA), r.SurvivorCount(model.TeamB)),
		)
	}
	table.Render()
}

// PrintRoundEvents prints the full event log of one round.
func PrintRoundEvents(w io.Writer, r *model.RoundOutcome, names map[string]string) {
	name := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	}
	fmt.Fprintf(w, "Round %d (%s attacking)\n", r.Number, r.Attacking)
	for _, e := range r.Events {
		var line string
		switch e.Type {
		case model.EventKill, model.EventTradeKill:
			line = fmt.Sprintf("%s killed %s", name(e.KillerID), name(e.VictimID))
			if e.AssisterID != "" {
				line += fmt.Sprintf(" (assist %s)", name(e.AssisterID))
			}
			if e.Type == model.EventTradeKill {
				line += " [trade]"
			}
		case model.EventBombPlant, model.EventBombDefuseStart, model.EventBombDefuseComplete:
			line = fmt.Sprintf("%s %s", strings.ReplaceAll(string(e.Type), "_", " "), name(e.Actor))
		case model.EventRoundEnd:
			line = fmt.Sprintf("round won by team %s (%s)", e.KillerTeam, e.Actor)
		default:
			line = strings.ReplaceAll(string(e.Type), "_", " ")
		}
		fmt.Fprintf(w, "  %6.1fs  %s\n", e.Time, line)
	}
}

// PrintCareerTable prints per-player totals aggregated across stored maps.
func PrintCareerTable(w io.Writer, aggs []model.PlayerAggregate) {
	table := newTable(w)
	table.Header("PLAYER", "MAPS", "K", "D", "A", "K/D", "AVG ACS", "KAST%",
		"FK", "FD", "TRADE_K", "PLANT", "DEFUSE", "CLUTCH%", "ACES")
	for i := range aggs {
		a := &aggs[i]
		clutch := "—"
		if a.ClutchesPlayed > 0 {
			clutch = fmt.Sprintf("%.0f%% (%d/%d)", a.ClutchPct(), a.ClutchesWon, a.ClutchesPlayed)
		}
		table.Append(
			a.Name,
			strconv.Itoa(a.Maps),
			strconv.Itoa(a.Kills),
			strconv.Itoa(a.Deaths),
			strconv.Itoa(a.Assists),
			fmt.Sprintf("%.2f", a.KDRatio()),
			fmt.Sprintf("%.0f", a.AvgACS()),
			fmt.Sprintf("%.0f%%", a.KASTPct()),
			strconv.Itoa(a.FirstKills),
			strconv.Itoa(a.FirstDeaths),
			strconv.Itoa(a.TradeKills),
			strconv.Itoa(a.Plants),
			strconv.Itoa(a.Defuses),
			clutch,
			strconv.Itoa(a.Aces),
		)
	}
	table.Render()
}

// WilsonCI computes the 95% Wilson score confidence interval for a proportion.
// Returns (lo, hi) as fractions in [0, 1].
func WilsonCI(hits, n int) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	z := 1.96
	p := float64(hits) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	center := (p + z*z/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
	return math.Max(0, center-half), math.Min(1, center+half)
}

// ShortID truncates a match id for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// PrintTrendTable prints one row per stored map of a player, oldest first,
// with a rolling three-map ACS average.
func PrintTrendTable(w io.Writer, points []storage.TrendPoint) {
	table := newTable(w)
	table.Header("DATE", "MATCH", "MAP", "AGENT", "RESULT", "K", "D", "A", "K/D", "ACS", "ACS (3)", "KAST%", "ECON")
	for i, p := range points {
		result := "L"
		if p.Won {
			result = "W"
		}
		lo := max(0, i-2)
		sum := 0
		for _, q := range points[lo : i+1] {
			sum += q.ACS
		}
		date := p.CreatedAt
		if len(date) > 10 {
			date = date[:10]
		}
		table.Append(
			date,
			fmt.Sprintf("%s/%d", ShortID(p.MatchID), p.MapNumber),
			p.MapName,
			p.Agent,
			result,
			strconv.Itoa(p.Kills),
			strconv.Itoa(p.Deaths),
			strconv.Itoa(p.Assists),
			fmt.Sprintf("%.2f", p.KD),
			strconv.Itoa(p.ACS),
			fmt.Sprintf("%.0f", float64(sum)/float64(i+1-lo)),
			fmt.Sprintf("%d%%", p.KAST),
			strconv.Itoa(p.Econ),
		)
	}
	table.Render()
}
