package sim

import "github.com/pable/rostersim/internal/model"

// Side-specific weights for a player's contribution.
const (
	shotcallingBonus = 0.15
	moraleBonus      = 0.10
)

// playerStrength is one player's weighted contribution before map scaling.
func playerStrength(s model.Stats, side model.Side) float64 {
	v := float64(s.Mechanics) * 0.3
	if side == model.Attack {
		v += float64(s.Aggression) * 0.3
		v += float64(s.Solo) * 0.2
		v += float64(s.Clutch) * 0.1
		v += float64(s.Support) * 0.1
	} else {
		v += float64(s.Support) * 0.3
		v += float64(s.Clutch) * 0.2
		v += float64(s.Composure) * 0.1
		v += float64(s.Aggression) * 0.1
	}
	return v
}

// TeamStrength scores a lineup for one side of a map. Each player's
// contribution is scaled by map proficiency around a neutral 70, then the
// best shotcaller adds up to 15% and average morale up to 10%.
// An empty lineup scores 0.
func TeamStrength(players []model.Player, side model.Side, m model.Map) float64 {
	if len(players) == 0 {
		return 0
	}
	var total float64
	bestCall, moraleSum := 0, 0
	for i := range players {
		p := &players[i]
		contrib := playerStrength(p.Stats, side)
		contrib *= float64(p.MapProficiencyFor(m)) / model.DefaultMapProficiency
		total += contrib

		bestCall = max(bestCall, p.Stats.Shotcalling)
		moraleSum += p.Stats.Morale
	}
	avgMorale := float64(moraleSum) / float64(len(players))
	total *= 1 + float64(bestCall)/100*shotcallingBonus
	total *= 1 + avgMorale/100*moraleBonus
	return total
}
