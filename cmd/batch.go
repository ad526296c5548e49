package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/rostersim/internal/batch"
	"github.com/pable/rostersim/internal/logging"
	"github.com/pable/rostersim/internal/report"
)

var (
	batchTeamA   string
	batchTeamB   string
	batchMaps    string
	batchRuns    int
	batchWorkers int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Simulate many maps in parallel and report win-rate statistics",
	Long: "Simulate --runs maps between two rosters, cycling through --maps, and print\n" +
		"the win rate with a 95% confidence interval, round-difference percentiles,\n" +
		"per-map results and player totals. Nothing is stored.",
	Example: "  rostersim batch --team-a wolves.json --team-b foxes.json --runs 1000 --seed 7",
	Args:    cobra.NoArgs,
	RunE:    runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchTeamA, "team-a", "", "team A roster JSON file (required)")
	batchCmd.Flags().StringVar(&batchTeamB, "team-b", "", "team B roster JSON file (required)")
	batchCmd.Flags().StringVar(&batchMaps, "maps", "Ascent,Bind,Haven", "comma-separated maps to cycle through")
	batchCmd.Flags().IntVarP(&batchRuns, "runs", "n", 500, "number of maps to simulate")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "parallel workers (default from ROSTERSIM_WORKERS)")
	_ = batchCmd.MarkFlagRequired("team-a")
	_ = batchCmd.MarkFlagRequired("team-b")
}

func runBatch(cmd *cobra.Command, args []string) error {
	teamA, teamB, err := loadTeams(batchTeamA, batchTeamB)
	if err != nil {
		return err
	}
	maps, err := parseMaps(batchMaps)
	if err != nil {
		return err
	}
	rules, err := cfg.Rules()
	if err != nil {
		return err
	}
	workers := batchWorkers
	if workers <= 0 {
		workers = cfg.Workers
	}

	res, err := batch.Run(cmd.Context(), *teamA, *teamB, maps, batch.Options{
		Runs:    batchRuns,
		Workers: workers,
		Seed:    seed,
		Rules:   rules,
		Log:     logging.For("batch"),
	})
	if err != nil {
		return fmt.Errorf("batch: %w", err)
	}

	lo, hi := report.WilsonCI(res.WinsA, res.Runs)
	fmt.Fprintf(os.Stdout, "\n%s vs %s  |  %d maps  |  seed %d  |  %s\n\n",
		teamA.Name, teamB.Name, res.Runs, res.Seed, res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(os.Stdout, "  %s win rate : %.1f%% (95%% CI %.1f–%.1f%%)\n",
		teamA.Label(), res.WinRateA()*100, lo*100, hi*100)
	fmt.Fprintf(os.Stdout, "  Round diff    : mean %+.2f, sd %.2f, p10 %+.0f, median %+.0f, p90 %+.0f\n",
		res.RoundDiffMean, res.RoundDiffStdDev, res.RoundDiffP10, res.RoundDiffMedian, res.RoundDiffP90)
	fmt.Fprintf(os.Stdout, "  Rounds / map  : %.1f (%d overtime, %d tie-breaks)\n",
		res.MeanTotalRounds, res.OvertimeMaps, res.TieBreaks)
	fmt.Fprintf(os.Stdout, "  Attack rounds : %.1f%% won by the attacking side\n\n", res.AttackRoundRate*100)

	mt := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	mt.Header("MAP", "RUNS", teamA.Label()+" WINS", "WIN%", "95% CI")
	for _, m := range res.ByMap {
		mlo, mhi := report.WilsonCI(m.WinsA, m.Runs)
		mt.Append(
			string(m.Map),
			fmt.Sprintf("%d", m.Runs),
			fmt.Sprintf("%d", m.WinsA),
			fmt.Sprintf("%.1f%%", 100*float64(m.WinsA)/float64(m.Runs)),
			fmt.Sprintf("%.1f–%.1f%%", mlo*100, mhi*100),
		)
	}
	mt.Render()
	fmt.Fprintln(os.Stdout)

	report.PrintCareerTable(os.Stdout, res.Players)
	return nil
}
