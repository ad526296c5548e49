package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/rostersim/internal/storage"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about all simulated matches in the database:
match and map counts, date range, per-map attack win rates, how rounds
ended and the most active players.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func summaryTable() *tablewriter.Table {
	return tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	ov, err := db.GetOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.TotalMatches == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'rostersim simulate' to add one.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Matches stored : %d\n", ov.TotalMatches)
	fmt.Fprintf(os.Stdout, "  Date range     : %s → %s\n", ov.EarliestMatch, ov.LatestMatch)
	fmt.Fprintf(os.Stdout, "  Maps played    : %d (%d overtime, %d tie-breaks)\n", ov.TotalMaps, ov.OvertimeMaps, ov.TieBreaks)
	fmt.Fprintf(os.Stdout, "  Players seen   : %d\n", ov.UniquePlayers)
	fmt.Fprintf(os.Stdout, "  Total rounds   : %d\n", ov.TotalRounds)

	maps, err := db.GetMapStats()
	if err != nil {
		return fmt.Errorf("get map stats: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Maps ---\n\n")
	mt := summaryTable()
	mt.Header("MAP", "PLAYED", "ROUNDS", "ATK WINS", "ATK WIN%", "OT")
	for _, m := range maps {
		atkPct := 0.0
		if m.Rounds > 0 {
			atkPct = 100.0 * float64(m.AttackWins) / float64(m.Rounds)
		}
		mt.Append(
			m.MapName,
			fmt.Sprintf("%d", m.Maps),
			fmt.Sprintf("%d", m.Rounds),
			fmt.Sprintf("%d", m.AttackWins),
			fmt.Sprintf("%.0f%%", atkPct),
			fmt.Sprintf("%d", m.OvertimeMaps),
		)
	}
	mt.Render()

	// Only maps stored with round detail contribute here.
	conds, err := db.GetWinConditionCounts()
	if err != nil {
		return fmt.Errorf("get win conditions: %w", err)
	}
	if len(conds) > 0 {
		fmt.Fprintf(os.Stdout, "\n--- Round Endings ---\n\n")
		ct := summaryTable()
		ct.Header("CONDITION", "ROUNDS")
		for _, c := range conds {
			ct.Append(c.Condition, fmt.Sprintf("%d", c.Rounds))
		}
		ct.Render()
	}

	players, err := db.GetTopPlayers(10)
	if err != nil {
		return fmt.Errorf("get top players: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Most Active Players ---\n\n")
	pt := summaryTable()
	pt.Header("NAME", "PLAYER ID", "MAPS", "K/D", "AVG ACS", "KAST%")
	for _, p := range players {
		kd := float64(p.Kills)
		if p.Deaths > 0 {
			kd = float64(p.Kills) / float64(p.Deaths)
		}
		kast := 0.0
		if p.RoundsPlayed > 0 {
			kast = 100 * float64(p.KASTRounds) / float64(p.RoundsPlayed)
		}
		pt.Append(
			p.Name,
			p.PlayerID,
			fmt.Sprintf("%d", p.Maps),
			fmt.Sprintf("%.2f", kd),
			fmt.Sprintf("%.0f", float64(p.ACSTotal)/float64(max(p.Maps, 1))),
			fmt.Sprintf("%.0f%%", kast),
		)
	}
	pt.Render()
	return nil
}
