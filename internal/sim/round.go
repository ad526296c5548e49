package sim

import "github.com/pable/rostersim/internal/model"

// SimulateRound plays one round between two lineups on map m. attacking
// names the team on attack. Strengths are computed from the lineups as given.
func (s *Simulator) SimulateRound(teamA, teamB []model.Player, attacking model.TeamSide, number int, m model.Map) (*model.RoundOutcome, error) {
	if err := checkLineups("team A", teamA, "team B", teamB); err != nil {
		return nil, err
	}
	lineups := [2][]model.Player{teamA, teamB}
	var strength [2]float64
	for t := range lineups {
		side := model.Defense
		if model.TeamSide(t) == attacking {
			side = model.Attack
		}
		strength[t] = TeamStrength(lineups[t], side, m)
	}
	return s.playRound(lineups, strength, attacking, number), nil
}

// roundState is the mutable state of one round in progress.
type roundState struct {
	rng   Rand
	rules *Rules
	out   *model.RoundOutcome

	attacking model.TeamSide
	alive     [2][]*model.Player
	size      [2]int
	strength  [2]float64
	now       float64

	// clutch holds the index into out.Clutches opened for each team, or -1.
	clutch [2]int
	// kills indexes kill events in out.Events for trade lookups.
	kills []int
}

// playRound runs the phase machine: pre-plant fights, plant roll,
// post-plant fights and the defuse race. Lineups must be non-empty.
func (s *Simulator) playRound(lineups [2][]model.Player, strength [2]float64, attacking model.TeamSide, number int) *model.RoundOutcome {
	rs := &roundState{
		rng:       s.rng,
		rules:     &s.rules,
		attacking: attacking,
		strength:  strength,
		clutch:    [2]int{-1, -1},
		out: &model.RoundOutcome{
			Number:    number,
			Attacking: attacking,
		},
	}
	for t := range lineups {
		rs.size[t] = len(lineups[t])
		rs.alive[t] = make([]*model.Player, len(lineups[t]))
		for i := range lineups[t] {
			rs.alive[t][i] = &lineups[t][i]
		}
	}
	rs.emit(model.RoundEvent{Type: model.EventRoundStart})

	attackers, defenders := attacking, attacking.Other()

	n := rs.between(s.rules.MinPrePlantFights, s.rules.MaxPrePlantFights)
	slot := s.rules.PlantBudget / float64(n+2)
	for i := 0; i < n && !rs.eliminated(); i++ {
		rs.advance(slot*(0.5+rs.rng.Float64()), s.rules.PlantBudget)
		rs.fight(rs.prePlantWinner())
	}
	if rs.eliminated() {
		return rs.finish(rs.standing(), model.WinElimination)
	}

	effA, effD := rs.effective(attackers), rs.effective(defenders)
	plantChance := 0.5
	if effA+effD > 0 {
		plantChance = effA / (effA + effD)
	}
	if rs.now >= s.rules.PlantBudget || rs.rng.Float64() >= plantChance {
		rs.now = max(rs.now, s.rules.PlantBudget)
		return rs.finish(defenders, model.WinTimeExpired)
	}

	planter := rs.alive[attackers][pick(rs.rng, rs.alive[attackers], func(p *model.Player) int { return p.Stats.Shotcalling })]
	rs.advance(max(s.rules.PlantBudget-rs.now, 0)*0.5*rs.rng.Float64(), s.rules.PlantBudget)
	plantTime := rs.now
	rs.out.PlanterID = planter.ID
	rs.out.PlantTime = plantTime
	rs.emit(model.RoundEvent{Type: model.EventBombPlant, Actor: planter.ID, KillerTeam: attackers})

	explodes := plantTime + s.rules.PostPlantBudget
	m := rs.between(s.rules.MinPostPlantFights, s.rules.MaxPostPlantFights)
	slot = s.rules.PostPlantBudget / float64(m+2)
	for i := 0; i < m && !rs.eliminated() && rs.now < explodes; i++ {
		rs.advance(slot*(0.5+rs.rng.Float64()), explodes)
		rs.fight(rs.postPlantWinner())
	}
	if len(rs.alive[defenders]) == 0 {
		rs.now = max(rs.now, explodes)
		return rs.finish(attackers, model.WinBombDetonated)
	}

	defuser := rs.alive[defenders][pick(rs.rng, rs.alive[defenders], func(p *model.Player) int { return p.Stats.Clutch })]
	rs.advance(1+3*rs.rng.Float64(), explodes)
	rs.emit(model.RoundEvent{Type: model.EventBombDefuseStart, Actor: defuser.ID, KillerTeam: defenders})
	done := rs.now + s.rules.DefuseDuration + s.rules.ContestDelay*float64(len(rs.alive[attackers]))
	if done <= explodes {
		rs.now = done
		rs.out.DefuserID = defuser.ID
		rs.out.Defused = true
		rs.emit(model.RoundEvent{Type: model.EventBombDefuseComplete, Actor: defuser.ID, KillerTeam: defenders})
		return rs.finish(defenders, model.WinBombDefused)
	}
	rs.now = max(rs.now, explodes)
	return rs.finish(attackers, model.WinBombDetonated)
}

// between returns a uniform int in [lo, hi].
func (rs *roundState) between(lo, hi int) int {
	return lo + rs.rng.Intn(hi-lo+1)
}

// advance moves the clock forward by d without passing limit.
func (rs *roundState) advance(d, limit float64) {
	rs.now = min(rs.now+d, max(limit, rs.now))
}

func (rs *roundState) emit(ev model.RoundEvent) {
	ev.Time = rs.now
	rs.out.Events = append(rs.out.Events, ev)
}

func (rs *roundState) eliminated() bool {
	return len(rs.alive[model.TeamA]) == 0 || len(rs.alive[model.TeamB]) == 0
}

// standing returns the team with players left after an elimination.
func (rs *roundState) standing() model.TeamSide {
	if len(rs.alive[model.TeamA]) == 0 {
		return model.TeamB
	}
	return model.TeamA
}

// effective is the team's strength scaled by the fraction still alive.
func (rs *roundState) effective(t model.TeamSide) float64 {
	return rs.strength[t] * float64(len(rs.alive[t])) / float64(rs.size[t])
}

// jitter returns a multiplier in [1-v, 1+v].
func (rs *roundState) jitter() float64 {
	return 1 + (2*rs.rng.Float64()-1)*rs.rules.EngagementVariance
}

// prePlantWinner rolls both teams and returns the higher roll.
func (rs *roundState) prePlantWinner() model.TeamSide {
	a := rs.effective(model.TeamA) * rs.jitter()
	b := rs.effective(model.TeamB) * rs.jitter()
	if a >= b {
		return model.TeamA
	}
	return model.TeamB
}

// postPlantWinner weights the fight toward the attackers holding the bomb.
func (rs *roundState) postPlantWinner() model.TeamSide {
	edge := rs.rules.PostPlantAttackEdge
	atk := edge * rs.effective(rs.attacking) * rs.jitter()
	def := (1 - edge) * rs.effective(rs.attacking.Other()) * rs.jitter()
	if atk+def <= 0 || rs.rng.Float64() < atk/(atk+def) {
		return rs.attacking
	}
	return rs.attacking.Other()
}

// fight resolves one engagement won by winner, then gives the losing side
// its chance to trade.
func (rs *roundState) fight(winner model.TeamSide) {
	loser := winner.Other()
	ki := pick(rs.rng, rs.alive[winner], func(p *model.Player) int { return p.Stats.Aggression })
	vi := pick(rs.rng, rs.alive[loser], func(p *model.Player) int { return p.Stats.Mechanics })
	killer := rs.alive[winner][ki]
	rs.kill(winner, ki, vi)
	rs.tradeAttempt(winner, killer)
}

// tradeAttempt lets the victim's team answer a kill by killer at once.
// The duel it starts produces a kill either way.
func (rs *roundState) tradeAttempt(killerTeam model.TeamSide, killer *model.Player) {
	team := killerTeam.Other()
	if len(rs.alive[team]) == 0 {
		return
	}
	support := 0
	for _, p := range rs.alive[team] {
		support += p.Stats.Support
	}
	avg := float64(support) / float64(len(rs.alive[team]))
	if rs.rng.Float64() >= rs.rules.TradeChance*(0.5+avg/100) {
		return
	}
	rs.now += 0.2 + 1.3*rs.rng.Float64()

	ti := pick(rs.rng, rs.alive[team], func(p *model.Player) int { return p.Stats.Aggression })
	ki := indexOf(rs.alive[killerTeam], killer)
	if ki < 0 {
		return
	}
	mine := rs.strength[team] / float64(rs.size[team]) * rs.jitter()
	theirs := rs.strength[killerTeam] / float64(rs.size[killerTeam]) * rs.jitter()
	if mine+theirs <= 0 || rs.rng.Float64() < mine/(mine+theirs) {
		rs.kill(team, ti, ki)
		return
	}
	rs.kill(killerTeam, ki, ti)
}

// kill records alive[team][ki] killing alive[team.Other()][vi] at the
// current time.
func (rs *roundState) kill(team model.TeamSide, ki, vi int) {
	enemy := team.Other()
	killer, victim := rs.alive[team][ki], rs.alive[enemy][vi]
	ev := model.RoundEvent{
		Type:       model.EventKill,
		KillerID:   killer.ID,
		VictimID:   victim.ID,
		KillerTeam: team,
	}

	if mates := len(rs.alive[team]) - 1; mates > 0 {
		others := make([]*model.Player, 0, mates)
		for _, p := range rs.alive[team] {
			if p != killer {
				others = append(others, p)
			}
		}
		mate := others[pick(rs.rng, others, func(p *model.Player) int { return p.Stats.Support })]
		if rs.rng.Float64() < float64(mate.Stats.Support)/rs.rules.AssistDivisor {
			ev.AssisterID = mate.ID
		}
	}

	// A kill on the player who just killed a teammate is a trade.
	for j := len(rs.kills) - 1; j >= 0; j-- {
		prev := &rs.out.Events[rs.kills[j]]
		if rs.now-prev.Time > rs.rules.TradeWindow {
			break
		}
		if prev.KillerID == victim.ID && prev.KillerTeam == enemy {
			ev.Type = model.EventTradeKill
			prev.Traded = true
			break
		}
	}

	rs.kills = append(rs.kills, len(rs.out.Events))
	rs.emit(ev)
	if rs.out.FirstBlood == nil {
		rs.out.FirstBlood = &model.FirstBlood{KillerID: killer.ID, VictimID: victim.ID, Time: rs.now}
	}

	rs.alive[enemy] = append(rs.alive[enemy][:vi], rs.alive[enemy][vi+1:]...)
	rs.openClutches()
}

// openClutches starts a clutch for any team newly down to one player
// facing enough enemies.
func (rs *roundState) openClutches() {
	for _, t := range []model.TeamSide{model.TeamA, model.TeamB} {
		if rs.clutch[t] >= 0 || len(rs.alive[t]) != 1 {
			continue
		}
		enemies := len(rs.alive[t.Other()])
		if enemies < rs.rules.ClutchMinEnemies {
			continue
		}
		rs.clutch[t] = len(rs.out.Clutches)
		rs.out.Clutches = append(rs.out.Clutches, model.Clutch{
			PlayerID: rs.alive[t][0].ID,
			Team:     t,
			Enemies:  enemies,
		})
	}
}

// finish closes the round with winner and returns the outcome.
func (rs *roundState) finish(winner model.TeamSide, cond model.WinCondition) *model.RoundOutcome {
	out := rs.out
	out.Winner = winner
	out.WinnerSide = out.SideOf(winner)
	out.WinCondition = cond
	out.Survivors = make(map[string]model.TeamSide, len(rs.alive[0])+len(rs.alive[1]))
	for t := range rs.alive {
		for _, p := range rs.alive[t] {
			out.Survivors[p.ID] = model.TeamSide(t)
		}
	}
	for i := range out.Clutches {
		c := &out.Clutches[i]
		_, alive := out.Survivors[c.PlayerID]
		c.Won = c.Team == winner && alive
	}
	rs.emit(model.RoundEvent{Type: model.EventRoundEnd, KillerTeam: winner, Actor: string(cond)})
	return out
}

// pick chooses an index from players with probability proportional to
// weight. Zero total weight falls back to a uniform pick.
func pick(rng Rand, players []*model.Player, weight func(*model.Player) int) int {
	total := 0
	for _, p := range players {
		total += max(weight(p), 0)
	}
	if total == 0 {
		return rng.Intn(len(players))
	}
	r := rng.Float64() * float64(total)
	for i, p := range players {
		r -= float64(max(weight(p), 0))
		if r < 0 {
			return i
		}
	}
	return len(players) - 1
}

func indexOf(players []*model.Player, target *model.Player) int {
	for i, p := range players {
		if p == target {
			return i
		}
	}
	return -1
}
