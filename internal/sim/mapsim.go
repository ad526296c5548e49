package sim

import (
	"fmt"

	"github.com/pable/rostersim/internal/aggregator"
	"github.com/pable/rostersim/internal/model"
)

// SimulateMap plays rounds between the two teams' rosters until one side
// reaches RoundsToWin with at least WinMargin, or MaxRounds is hit. Rosters
// are used as given; callers pick the active lineup.
func (s *Simulator) SimulateMap(teamA, teamB model.Team, m model.Map) (*model.MapResult, error) {
	if err := checkLineups(teamA.Label(), teamA.Roster, teamB.Label(), teamB.Roster); err != nil {
		return nil, err
	}
	lineups := [2][]model.Player{teamA.Roster, teamB.Roster}

	// strength[team][side]
	var strength [2][2]float64
	for t := range lineups {
		strength[t][model.Attack] = TeamStrength(lineups[t], model.Attack, m)
		strength[t][model.Defense] = TeamStrength(lineups[t], model.Defense, m)
	}

	acc := aggregator.NewAccumulator(teamA.Roster, teamB.Roster)
	res := &model.MapResult{Map: m}
	var (
		score     [2]int
		survivors [2]int
		kills     [2]int
	)

	n := 0
	for !s.decided(score) && n < s.rules.MaxRounds {
		n++
		attacking := s.rules.AttackingTeam(n)
		defending := attacking.Other()
		var str [2]float64
		str[attacking] = strength[attacking][model.Attack]
		str[defending] = strength[defending][model.Defense]

		out := s.playRound(lineups, str, attacking, n)
		acc.AddRound(out)

		score[out.Winner]++
		switch {
		case out.Winner == model.TeamA && out.WinnerSide == model.Attack:
			res.TeamAAttackRounds++
		case out.Winner == model.TeamA:
			res.TeamADefenseRounds++
		case out.WinnerSide == model.Attack:
			res.TeamBAttackRounds++
		default:
			res.TeamBDefenseRounds++
		}
		for _, t := range out.Survivors {
			survivors[t]++
		}
		for _, e := range out.Kills() {
			kills[e.KillerTeam]++
		}
		if s.rules.KeepRounds {
			res.Rounds = append(res.Rounds, *out)
		}
	}

	res.TeamAScore, res.TeamBScore = score[model.TeamA], score[model.TeamB]
	res.TotalRounds = n
	regulation := 2 * s.rules.HalfLength
	if n > regulation {
		res.Overtime = true
		res.OvertimeRounds = n - regulation
	}

	switch {
	case score[model.TeamA] > score[model.TeamB]:
		res.Winner = model.TeamA
	case score[model.TeamB] > score[model.TeamA]:
		res.Winner = model.TeamB
	default:
		res.Winner, res.TieBreak = s.tieBreak(survivors, kills)
		s.log.WithField("map", m).WithField("tiebreak", res.TieBreak).
			Infof("%s %d-%d %s hit the round cap", teamA.Label(), res.TeamAScore, res.TeamBScore, teamB.Label())
	}

	res.TeamAPerformances, res.TeamBPerformances = acc.Finalize(n)

	s.log.WithField("map", m).WithField("rounds", n).
		Debugf("%s %d-%d %s", teamA.Label(), res.TeamAScore, res.TeamBScore, teamB.Label())
	return res, nil
}

func (s *Simulator) decided(score [2]int) bool {
	hi, lo := max(score[0], score[1]), min(score[0], score[1])
	return hi >= s.rules.RoundsToWin && hi-lo >= s.rules.WinMargin
}

// tieBreak settles a level map at the cap: more round-end survivors, then
// more kills, then a coin flip.
func (s *Simulator) tieBreak(survivors, kills [2]int) (model.TeamSide, string) {
	switch {
	case survivors[model.TeamA] != survivors[model.TeamB]:
		w := model.TeamA
		if survivors[model.TeamB] > survivors[model.TeamA] {
			w = model.TeamB
		}
		return w, fmt.Sprintf("survivors %d-%d", survivors[model.TeamA], survivors[model.TeamB])
	case kills[model.TeamA] != kills[model.TeamB]:
		w := model.TeamA
		if kills[model.TeamB] > kills[model.TeamA] {
			w = model.TeamB
		}
		return w, fmt.Sprintf("kills %d-%d", kills[model.TeamA], kills[model.TeamB])
	}
	return model.TeamSide(s.rng.Intn(2)), "coin flip"
}
