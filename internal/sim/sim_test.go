package sim

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/rostersim/internal/model"
)

// ---- builders ----

func flatStats(v int) model.Stats {
	return model.Stats{
		Mechanics: v, Shotcalling: v, Composure: v, Clutch: v, Morale: v,
		Solo: v, Aggression: v, Support: v, Consistency: v,
	}
}

func makeTeam(name string, stat int) model.Team {
	t := model.Team{ID: name, Name: name}
	for i := 0; i < 5; i++ {
		t.Roster = append(t.Roster, model.Player{
			ID:    fmt.Sprintf("%s-%d", name, i),
			Name:  fmt.Sprintf("%s player %d", name, i),
			Stats: flatStats(stat),
		})
	}
	return t
}

func newSim(t *testing.T, seed int64, opts ...Option) *Simulator {
	t.Helper()
	s, err := New(NewRand(seed), opts...)
	require.NoError(t, err)
	return s
}

// ---- strength ----

func TestTeamStrength_Formula(t *testing.T) {
	team := makeTeam("a", 50)
	// 5 x 50, then x1.075 for shotcalling and x1.05 for morale.
	assert.InDelta(t, 282.1875, TeamStrength(team.Roster, model.Attack, model.Ascent), 1e-9)
	assert.InDelta(t, 282.1875, TeamStrength(team.Roster, model.Defense, model.Ascent), 1e-9)
}

func TestTeamStrength_SideWeights(t *testing.T) {
	p := model.Player{ID: "p", Stats: model.Stats{Aggression: 100}}
	players := []model.Player{p}
	assert.InDelta(t, 30.0, TeamStrength(players, model.Attack, model.Bind), 1e-9)
	assert.InDelta(t, 10.0, TeamStrength(players, model.Defense, model.Bind), 1e-9)
}

func TestTeamStrength_MapProficiency(t *testing.T) {
	team := makeTeam("a", 50)
	base := TeamStrength(team.Roster, model.Attack, model.Haven)
	for i := range team.Roster {
		team.Roster[i].MapProficiency = map[model.Map]int{model.Haven: 35}
	}
	assert.InDelta(t, base/2, TeamStrength(team.Roster, model.Attack, model.Haven), 1e-9)
	assert.InDelta(t, base, TeamStrength(team.Roster, model.Attack, model.Split), 1e-9)
}

func TestTeamStrength_Empty(t *testing.T) {
	assert.Zero(t, TeamStrength(nil, model.Attack, model.Ascent))
}

// ---- rules ----

func TestAttackingTeam(t *testing.T) {
	r := DefaultRules()
	cases := []struct {
		round int
		want  model.TeamSide
	}{
		{1, model.TeamA}, {12, model.TeamA},
		{13, model.TeamB}, {24, model.TeamB},
		{25, model.TeamA}, {26, model.TeamB}, {27, model.TeamA}, {30, model.TeamB},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, r.AttackingTeam(c.round), "round %d", c.round)
	}
}

func TestNew_RejectsBadRules(t *testing.T) {
	r := DefaultRules()
	r.ClutchMinEnemies = 0
	_, err := New(NewRand(1), WithRules(r))
	assert.ErrorIs(t, err, ErrBadRules)

	r = DefaultRules()
	r.MaxRounds = 20
	_, err = New(NewRand(1), WithRules(r))
	assert.ErrorIs(t, err, ErrBadRules)

	r = DefaultRules()
	r.MaxRounds = 25
	_, err = New(NewRand(1), WithRules(r))
	assert.ErrorIs(t, err, ErrBadRules)

	r.MaxRounds = 26
	_, err = New(NewRand(1), WithRules(r))
	assert.NoError(t, err)
}

// ---- rounds ----

func TestSimulateRound_EmptyRoster(t *testing.T) {
	s := newSim(t, 1)
	a := makeTeam("a", 70)
	_, err := s.SimulateRound(a.Roster, nil, model.TeamA, 1, model.Ascent)
	assert.ErrorIs(t, err, ErrEmptyRoster)
	_, err = s.SimulateRound(nil, a.Roster, model.TeamA, 1, model.Ascent)
	assert.ErrorIs(t, err, ErrEmptyRoster)
}

func TestSimulateRound_Invariants(t *testing.T) {
	s := newSim(t, 7)
	a, b := makeTeam("a", 70), makeTeam("b", 65)
	rules := s.Rules()

	for i := 0; i < 500; i++ {
		attacking := model.TeamSide(i % 2)
		r, err := s.SimulateRound(a.Roster, b.Roster, attacking, i+1, model.Lotus)
		require.NoError(t, err)

		require.NotEmpty(t, r.Events)
		assert.Equal(t, model.EventRoundStart, r.Events[0].Type)
		assert.Equal(t, model.EventRoundEnd, r.Events[len(r.Events)-1].Type)
		for j := 1; j < len(r.Events); j++ {
			assert.GreaterOrEqual(t, r.Events[j].Time, r.Events[j-1].Time, "round %d event %d", i, j)
		}

		var deaths [2]int
		for _, k := range r.Kills() {
			deaths[k.KillerTeam.Other()]++
		}
		assert.Equal(t, 5-deaths[model.TeamA], r.SurvivorCount(model.TeamA))
		assert.Equal(t, 5-deaths[model.TeamB], r.SurvivorCount(model.TeamB))
		assert.Equal(t, r.SideOf(r.Winner), r.WinnerSide)

		switch r.WinCondition {
		case model.WinElimination:
			assert.Zero(t, r.SurvivorCount(r.Winner.Other()))
		case model.WinTimeExpired:
			assert.Equal(t, model.Defense, r.WinnerSide)
			assert.Empty(t, r.PlanterID)
		case model.WinBombDefused:
			assert.Equal(t, model.Defense, r.WinnerSide)
			assert.True(t, r.Defused)
			assert.NotEmpty(t, r.PlanterID)
			assert.NotEmpty(t, r.DefuserID)
		case model.WinBombDetonated:
			assert.Equal(t, model.Attack, r.WinnerSide)
			assert.NotEmpty(t, r.PlanterID)
			assert.False(t, r.Defused)
		default:
			t.Fatalf("unknown win condition %q", r.WinCondition)
		}
		if r.PlanterID != "" {
			assert.LessOrEqual(t, r.PlantTime, rules.PlantBudget)
		}

		if kills := r.Kills(); len(kills) > 0 {
			require.NotNil(t, r.FirstBlood)
			assert.Equal(t, kills[0].KillerID, r.FirstBlood.KillerID)
			assert.Equal(t, kills[0].VictimID, r.FirstBlood.VictimID)
		} else {
			assert.Nil(t, r.FirstBlood)
		}

		assert.LessOrEqual(t, len(r.Clutches), 2)
		for _, c := range r.Clutches {
			assert.GreaterOrEqual(t, c.Enemies, rules.ClutchMinEnemies)
			if c.Won {
				assert.Equal(t, r.Winner, c.Team)
				assert.Equal(t, 1, r.SurvivorCount(c.Team))
			}
		}
	}
}

func TestSimulateRound_TradesWithinWindow(t *testing.T) {
	s := newSim(t, 11)
	a, b := makeTeam("a", 70), makeTeam("b", 70)
	window := s.Rules().TradeWindow

	trades := 0
	for i := 0; i < 300; i++ {
		r, err := s.SimulateRound(a.Roster, b.Roster, model.TeamA, 1, model.Bind)
		require.NoError(t, err)
		kills := r.Kills()
		for j, k := range kills {
			if k.Type != model.EventTradeKill {
				continue
			}
			trades++
			found := false
			for _, prev := range kills[:j] {
				if prev.KillerID == k.VictimID && prev.Traded && k.Time-prev.Time <= window {
					found = true
				}
			}
			assert.True(t, found, "trade kill without an avenged death")
		}
	}
	assert.Positive(t, trades)
}

// ---- maps ----

func TestSimulateMap_ScoreAndAccounting(t *testing.T) {
	s := newSim(t, 3)
	a, b := makeTeam("a", 72), makeTeam("b", 68)
	rules := s.Rules()

	for i := 0; i < 40; i++ {
		res, err := s.SimulateMap(a, b, model.Pearl)
		require.NoError(t, err)

		hi, lo := max(res.TeamAScore, res.TeamBScore), min(res.TeamAScore, res.TeamBScore)
		if res.TieBreak == "" {
			assert.GreaterOrEqual(t, hi, rules.RoundsToWin)
			assert.GreaterOrEqual(t, hi-lo, rules.WinMargin)
			assert.Equal(t, res.Winner == model.TeamA, res.TeamAScore > res.TeamBScore)
		} else {
			assert.Equal(t, rules.MaxRounds, res.TotalRounds)
			assert.Equal(t, hi, lo)
		}
		assert.Equal(t, res.TeamAScore+res.TeamBScore, res.TotalRounds)
		assert.Equal(t, res.TeamAScore, res.TeamAAttackRounds+res.TeamADefenseRounds)
		assert.Equal(t, res.TeamBScore, res.TeamBAttackRounds+res.TeamBDefenseRounds)
		assert.Equal(t, res.TotalRounds > 24, res.Overtime)
		assert.Len(t, res.Rounds, res.TotalRounds)

		for n, r := range res.Rounds {
			assert.Equal(t, n+1, r.Number)
			assert.Equal(t, rules.AttackingTeam(n+1), r.Attacking)
		}

		for _, p := range append(res.TeamAPerformances, res.TeamBPerformances...) {
			assert.Equal(t, res.TotalRounds, p.RoundsPlayed)
			assert.GreaterOrEqual(t, p.KAST, 0)
			assert.LessOrEqual(t, p.KAST, 100)
			assert.GreaterOrEqual(t, p.KD, 0.0)
			if p.Deaths == 0 {
				assert.Equal(t, float64(p.Kills), p.KD)
			}
		}
	}
}

func TestSimulateMap_PerformanceTeamsAndOrder(t *testing.T) {
	s := newSim(t, 5)
	a, b := makeTeam("a", 70), makeTeam("b", 70)
	res, err := s.SimulateMap(a, b, model.Icebox)
	require.NoError(t, err)
	require.Len(t, res.TeamAPerformances, 5)
	require.Len(t, res.TeamBPerformances, 5)
	for i, p := range res.TeamAPerformances {
		assert.Equal(t, a.Roster[i].ID, p.PlayerID)
		assert.Equal(t, model.TeamA, p.Team)
	}
	for i, p := range res.TeamBPerformances {
		assert.Equal(t, b.Roster[i].ID, p.PlayerID)
		assert.Equal(t, model.TeamB, p.Team)
	}
}

func TestSimulateMap_DropsRoundsWhenDisabled(t *testing.T) {
	r := DefaultRules()
	r.KeepRounds = false
	s := newSim(t, 5, WithRules(r))
	res, err := s.SimulateMap(makeTeam("a", 70), makeTeam("b", 70), model.Split)
	require.NoError(t, err)
	assert.Empty(t, res.Rounds)
	assert.Positive(t, res.TotalRounds)
}

func TestSimulateMap_Deterministic(t *testing.T) {
	a, b := makeTeam("a", 70), makeTeam("b", 69)
	r1, err := newSim(t, 42).SimulateMap(a, b, model.Sunset)
	require.NoError(t, err)
	r2, err := newSim(t, 42).SimulateMap(a, b, model.Sunset)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestSimulateMap_Stalemate(t *testing.T) {
	s := newSim(t, 2024)
	a, b := makeTeam("a", 70), makeTeam("b", 70)
	const n = 200
	wins := 0
	for i := 0; i < n; i++ {
		res, err := s.SimulateMap(a, b, model.Ascent)
		require.NoError(t, err)
		if res.Winner == model.TeamA {
			wins++
		}
	}
	assert.InDelta(t, 0.5, float64(wins)/n, 0.12)
}

func TestSimulateMap_DominantRoster(t *testing.T) {
	s := newSim(t, 99)
	strong, weak := makeTeam("strong", 95), makeTeam("weak", 40)
	const n = 50
	wins := 0
	for i := 0; i < n; i++ {
		res, err := s.SimulateMap(strong, weak, model.Breeze)
		require.NoError(t, err)
		if res.Winner == model.TeamA {
			wins++
		}
	}
	assert.Greater(t, float64(wins)/n, 0.9)
}

func TestTieBreak(t *testing.T) {
	s := newSim(t, 1)

	w, why := s.tieBreak([2]int{40, 38}, [2]int{60, 70})
	assert.Equal(t, model.TeamA, w)
	assert.Equal(t, "survivors 40-38", why)

	w, why = s.tieBreak([2]int{40, 40}, [2]int{60, 70})
	assert.Equal(t, model.TeamB, w)
	assert.Equal(t, "kills 60-70", why)

	_, why = s.tieBreak([2]int{40, 40}, [2]int{60, 60})
	assert.Equal(t, "coin flip", why)
}

// ---- series ----

func TestSimulateBestOf3_Termination(t *testing.T) {
	s := newSim(t, 8)
	a, b := makeTeam("a", 70), makeTeam("b", 70)
	maps := [3]model.Map{model.Ascent, model.Bind, model.Haven}

	for i := 0; i < 30; i++ {
		results, err := s.SimulateBestOf3(a, b, maps)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(results), 2)
		require.LessOrEqual(t, len(results), 3)

		var wins [2]int
		for j, r := range results {
			assert.Equal(t, maps[j], r.Map)
			wins[r.Winner]++
		}
		assert.Equal(t, 2, max(wins[0], wins[1]))
		if len(results) == 2 {
			assert.Equal(t, results[0].Winner, results[1].Winner)
		}
	}
}

func TestSimulateBestOf3_BenchesReserves(t *testing.T) {
	s := newSim(t, 4)
	a, b := makeTeam("a", 70), makeTeam("b", 70)
	a.Roster = append([]model.Player{{ID: "bench", Name: "bench", Stats: flatStats(99), Status: model.StatusReserve}}, a.Roster...)
	a.Roster = append(a.Roster, model.Player{ID: "sixth", Name: "sixth", Stats: flatStats(99)})

	results, err := s.SimulateBestOf3(a, b, [3]model.Map{model.Fracture, model.Abyss, model.Lotus})
	require.NoError(t, err)
	for _, r := range results {
		require.Len(t, r.TeamAPerformances, 5)
		for _, p := range r.TeamAPerformances {
			assert.NotEqual(t, "bench", p.PlayerID)
			assert.NotEqual(t, "sixth", p.PlayerID)
		}
	}
}

func TestSimulateBestOf3_AllReserves(t *testing.T) {
	s := newSim(t, 4)
	a := makeTeam("a", 70)
	for i := range a.Roster {
		a.Roster[i].Status = model.StatusReserve
	}
	_, err := s.SimulateBestOf3(a, makeTeam("b", 70), [3]model.Map{model.Ascent, model.Bind, model.Haven})
	assert.ErrorIs(t, err, ErrEmptyRoster)
}

func TestSimulateMatch(t *testing.T) {
	s := newSim(t, 12)
	m, err := s.SimulateMatch(makeTeam("a", 80), makeTeam("b", 60), []model.Map{model.Ascent, model.Bind, model.Haven})
	require.NoError(t, err)

	_, err = uuid.Parse(m.ID)
	assert.NoError(t, err)
	assert.Equal(t, "a", m.TeamA)
	require.NotNil(t, m.Winner)
	wa, wb := m.MapWins()
	assert.Equal(t, 2, max(wa, wb))
	assert.Equal(t, m.WinnerName(), map[model.TeamSide]string{model.TeamA: "a", model.TeamB: "b"}[*m.Winner])
}

func TestSimulateSeries_MapCount(t *testing.T) {
	s := newSim(t, 7)
	a, b := makeTeam("a", 70), makeTeam("b", 70)

	_, err := s.SimulateSeries(a, b, nil)
	assert.ErrorIs(t, err, ErrMapCount)

	_, err = s.SimulateSeries(a, b, []model.Map{model.Ascent, model.Bind})
	assert.ErrorIs(t, err, ErrMapCount)

	m, err := s.SimulateMatch(a, b, []model.Map{model.Ascent, model.Bind})
	assert.ErrorIs(t, err, ErrMapCount)
	assert.Nil(t, m)

	results, err := s.SimulateSeries(a, b, []model.Map{model.Split})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSimulateMap_DuplicatePlayer(t *testing.T) {
	s := newSim(t, 1)

	_, err := s.SimulateMap(makeTeam("x", 70), makeTeam("x", 70), model.Ascent)
	assert.ErrorIs(t, err, ErrDuplicatePlayer)

	a, b := makeTeam("a", 70), makeTeam("b", 70)
	b.Roster[3].ID = a.Roster[0].ID
	_, err = s.SimulateMap(a, b, model.Ascent)
	assert.ErrorIs(t, err, ErrDuplicatePlayer)

	a = makeTeam("a", 70)
	a.Roster[1].ID = a.Roster[2].ID
	_, err = s.SimulateRound(a.Roster, makeTeam("b", 70).Roster, model.TeamA, 1, model.Bind)
	assert.ErrorIs(t, err, ErrDuplicatePlayer)

	_, err = s.SimulateBestOf3(makeTeam("x", 70), makeTeam("x", 60), [3]model.Map{model.Ascent, model.Bind, model.Haven})
	assert.ErrorIs(t, err, ErrDuplicatePlayer)
}

func TestSimulateRound_ZeroStrengthStillRollsPlant(t *testing.T) {
	s := newSim(t, 21)
	a, b := makeTeam("a", 0), makeTeam("b", 0)

	plants, timeouts := 0, 0
	for i := 0; i < 200; i++ {
		r, err := s.SimulateRound(a.Roster, b.Roster, model.TeamA, 1, model.Icebox)
		require.NoError(t, err)
		if r.PlanterID != "" {
			plants++
		}
		if r.WinCondition == model.WinTimeExpired {
			timeouts++
		}
	}
	assert.Greater(t, plants, 0)
	assert.Greater(t, timeouts, 0)
}
