package aggregator

import (
	"math"

	"github.com/pable/rostersim/internal/model"
)

// Accumulator collects per-player counters for one map. It is owned by a
// single map simulation and is not safe for concurrent use.
type Accumulator struct {
	perf  map[string]*model.PlayerMapPerformance
	order map[model.TeamSide][]string
}

// NewAccumulator seeds an empty performance record for every rostered player.
func NewAccumulator(teamA, teamB []model.Player) *Accumulator {
	acc := &Accumulator{
		perf:  make(map[string]*model.PlayerMapPerformance),
		order: make(map[model.TeamSide][]string),
	}
	for side, roster := range map[model.TeamSide][]model.Player{model.TeamA: teamA, model.TeamB: teamB} {
		for i := range roster {
			p := &roster[i]
			acc.perf[p.ID] = &model.PlayerMapPerformance{
				PlayerID:   p.ID,
				PlayerName: p.Name,
				Team:       side,
				Agent:      p.Agent(),
			}
			acc.order[side] = append(acc.order[side], p.ID)
		}
	}
	return acc
}

// roundFlags is the per-player view of a single round.
type roundFlags struct {
	kills     int
	gotKill   bool
	gotAssist bool
	survived  bool
	wasTraded bool
}

// AddRound folds one round's events into the running counters. Events that
// reference players outside the two rosters are ignored.
func (a *Accumulator) AddRound(r *model.RoundOutcome) {
	flags := make(map[string]*roundFlags, len(a.perf))
	for id := range a.perf {
		flags[id] = &roundFlags{}
	}

	// ---- Pass 1: kills, assists, trades. ----
	firstSeen := false
	for _, e := range r.Events {
		if !e.IsKill() {
			continue
		}
		if killer, ok := a.perf[e.KillerID]; ok {
			killer.Kills++
			flags[e.KillerID].kills++
			flags[e.KillerID].gotKill = true
			if e.Type == model.EventTradeKill {
				killer.TradeKills++
			}
			if !firstSeen {
				killer.FirstKills++
			}
		}
		if victim, ok := a.perf[e.VictimID]; ok {
			victim.Deaths++
			if e.Traded {
				flags[e.VictimID].wasTraded = true
			}
			if !firstSeen {
				victim.FirstDeaths++
			}
		}
		if assister, ok := a.perf[e.AssisterID]; ok && e.AssisterID != "" {
			assister.Assists++
			flags[e.AssisterID].gotAssist = true
		}
		firstSeen = true
	}

	// ---- Pass 2: objective actions and clutches. ----
	if p, ok := a.perf[r.PlanterID]; ok && r.PlanterID != "" {
		p.Plants++
	}
	if p, ok := a.perf[r.DefuserID]; ok && r.Defused {
		p.Defuses++
	}
	for _, c := range r.Clutches {
		p, ok := a.perf[c.PlayerID]
		if !ok || c.Enemies < 1 {
			continue
		}
		n := min(c.Enemies, model.MaxClutchEnemies)
		p.ClutchAttempts[n]++
		if c.Won {
			p.ClutchWins[n]++
		}
	}

	// ---- Pass 3: per-round rollup (KAST union, multi-kills, sides). ----
	for id := range r.Survivors {
		if f, ok := flags[id]; ok {
			f.survived = true
		}
	}
	for id, f := range flags {
		p := a.perf[id]
		p.RoundsPlayed++
		if r.SideOf(p.Team) == model.Attack {
			p.AttackRounds++
		} else {
			p.DefenseRounds++
		}
		if f.kills >= 2 {
			p.MultiKills[min(f.kills, 5)]++
		}
		if f.gotKill {
			p.RoundsWithKill++
		}
		if f.gotAssist {
			p.RoundsWithAssist++
		}
		if f.survived {
			p.RoundsSurvived++
		}
		if f.wasTraded {
			p.RoundsTraded++
		}
		if f.gotKill || f.gotAssist || f.survived || f.wasTraded {
			p.KASTRounds++
		}
	}
}

// Finalize computes the derived statistics and returns each team's
// performances in roster order.
func (a *Accumulator) Finalize(totalRounds int) (teamA, teamB []model.PlayerMapPerformance) {
	for _, p := range a.perf {
		finalize(p, totalRounds)
	}
	collect := func(side model.TeamSide) []model.PlayerMapPerformance {
		out := make([]model.PlayerMapPerformance, 0, len(a.order[side]))
		for _, id := range a.order[side] {
			out = append(out, *a.perf[id])
		}
		return out
	}
	return collect(model.TeamA), collect(model.TeamB)
}

func finalize(p *model.PlayerMapPerformance, totalRounds int) {
	if p.Deaths > 0 {
		p.KD = float64(p.Kills) / float64(p.Deaths)
	} else {
		p.KD = float64(p.Kills)
	}
	if played := p.ClutchesPlayed(); played > 0 {
		p.ClutchSuccessRate = float64(p.ClutchesWon()) / float64(played) * 100
	}
	if totalRounds <= 0 {
		return
	}
	rounds := float64(totalRounds)
	p.KPR = float64(p.Kills) / rounds
	p.APR = float64(p.Assists) / rounds
	p.FKPR = float64(p.FirstKills) / rounds
	p.FDPR = float64(p.FirstDeaths) / rounds

	p.ACS = int(math.Round(float64(p.Kills*150+p.Assists*50+p.FirstKills*25) / rounds))
	p.ADR = int(math.Round(float64(p.ACS) * 0.7))
	p.KAST = int(math.Round(100 * float64(p.KASTRounds) / rounds))
	p.EconRating = int(math.Round(50 + (p.KD-1)*20 + (float64(p.KAST)-70)*0.3))
}
