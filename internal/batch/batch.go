// Package batch runs many independent map simulations in parallel and
// summarises the outcomes.
package batch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pable/rostersim/internal/aggregator"
	"github.com/pable/rostersim/internal/model"
	"github.com/pable/rostersim/internal/sim"
)

// Options controls a batch run.
type Options struct {
	// Runs is the number of maps to simulate.
	Runs int
	// Workers bounds parallelism; values below 1 mean one worker.
	Workers int
	// Seed is the base seed; worker i draws from Seed+i. Zero picks a
	// seed from the clock, recorded on the Result.
	Seed  int64
	// Rules defaults to sim.DefaultRules when left zero.
	Rules sim.Rules
	Log   *logrus.Entry
}

// MapTally counts results on one map.
type MapTally struct {
	Map   model.Map
	Runs  int
	WinsA int
}

// Result summarises a batch.
type Result struct {
	Runs  int
	Seed  int64
	WinsA int
	WinsB int

	// RoundDiff is team A's score minus team B's, per map.
	RoundDiffMean   float64
	RoundDiffStdDev float64
	RoundDiffP10    float64
	RoundDiffMedian float64
	RoundDiffP90    float64

	MeanTotalRounds float64
	OvertimeMaps    int
	TieBreaks       int
	// AttackRoundRate is the share of all rounds won by the attacking side.
	AttackRoundRate float64

	ByMap   []MapTally
	Players []model.PlayerAggregate
	Elapsed time.Duration
}

// WinRateA returns team A's share of maps won.
func (r *Result) WinRateA() float64 {
	if r.Runs == 0 {
		return 0
	}
	return float64(r.WinsA) / float64(r.Runs)
}

// Run simulates opts.Runs maps between the active lineups of teamA and
// teamB, cycling through maps. Results depend only on the seed and worker
// count, not on scheduling.
func Run(ctx context.Context, teamA, teamB model.Team, maps []model.Map, opts Options) (*Result, error) {
	if opts.Runs <= 0 {
		return nil, fmt.Errorf("runs must be positive, got %d", opts.Runs)
	}
	if len(maps) == 0 {
		return nil, fmt.Errorf("no maps to simulate")
	}
	workers := max(opts.Workers, 1)
	workers = min(workers, opts.Runs)
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	rules := opts.Rules
	if rules == (sim.Rules{}) {
		rules = sim.DefaultRules()
	}
	// Rounds are not needed for the summary.
	rules.KeepRounds = false

	a, b := teamA.WithActiveRoster(), teamB.WithActiveRoster()
	results := make([]*model.MapResult, opts.Runs)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			s, err := sim.New(sim.NewRand(seed+int64(w)), sim.WithRules(rules), sim.WithLogger(log.WithField("worker", w)))
			if err != nil {
				return err
			}
			for i := w; i < opts.Runs; i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := s.SimulateMap(a, b, maps[i%len(maps)])
				if err != nil {
					return fmt.Errorf("run %d: %w", i, err)
				}
				results[i] = res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := summarize(results)
	out.Seed = seed
	out.Elapsed = time.Since(start)
	log.WithField("runs", out.Runs).WithField("workers", workers).
		Debugf("batch finished in %s", out.Elapsed)
	return out, nil
}

func summarize(results []*model.MapResult) *Result {
	out := &Result{Runs: len(results)}
	diffs := make([]float64, 0, len(results))
	totals := make([]float64, 0, len(results))
	tallies := make(map[model.Map]*MapTally)
	var perfs []model.PlayerMapPerformance
	attackWins, rounds := 0, 0

	for _, r := range results {
		if r.Winner == model.TeamA {
			out.WinsA++
		} else {
			out.WinsB++
		}
		diffs = append(diffs, float64(r.TeamAScore-r.TeamBScore))
		totals = append(totals, float64(r.TotalRounds))
		if r.Overtime {
			out.OvertimeMaps++
		}
		if r.TieBreak != "" {
			out.TieBreaks++
		}
		attackWins += r.TeamAAttackRounds + r.TeamBAttackRounds
		rounds += r.TotalRounds

		t := tallies[r.Map]
		if t == nil {
			t = &MapTally{Map: r.Map}
			tallies[r.Map] = t
		}
		t.Runs++
		if r.Winner == model.TeamA {
			t.WinsA++
		}
		perfs = append(perfs, r.TeamAPerformances...)
		perfs = append(perfs, r.TeamBPerformances...)
	}

	out.RoundDiffMean = stat.Mean(diffs, nil)
	if len(diffs) > 1 {
		out.RoundDiffStdDev = stat.StdDev(diffs, nil)
	}
	out.MeanTotalRounds = stat.Mean(totals, nil)
	sort.Float64s(diffs)
	out.RoundDiffP10 = stat.Quantile(0.1, stat.Empirical, diffs, nil)
	out.RoundDiffMedian = stat.Quantile(0.5, stat.Empirical, diffs, nil)
	out.RoundDiffP90 = stat.Quantile(0.9, stat.Empirical, diffs, nil)
	if rounds > 0 {
		out.AttackRoundRate = float64(attackWins) / float64(rounds)
	}

	for _, t := range tallies {
		out.ByMap = append(out.ByMap, *t)
	}
	sort.Slice(out.ByMap, func(i, j int) bool { return out.ByMap[i].Map < out.ByMap[j].Map })
	out.Players = aggregator.Career(perfs)
	return out
}
