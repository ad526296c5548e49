package sim

import (
	"fmt"

	"github.com/pable/rostersim/internal/model"
)

// Rules holds the tunable constants of the engine. Times are in seconds.
type Rules struct {
	RoundsToWin int
	WinMargin   int
	HalfLength  int
	// MaxRounds caps a map; a map still level at the cap goes to the tie-break.
	MaxRounds int

	PlantBudget     float64
	PostPlantBudget float64
	DefuseDuration  float64
	// ContestDelay is added to a defuse for every attacker still alive.
	ContestDelay float64

	EngagementVariance  float64
	PostPlantAttackEdge float64
	MinPrePlantFights   int
	MaxPrePlantFights   int
	MinPostPlantFights  int
	MaxPostPlantFights  int

	// TradeChance is the base probability that a death is answered at once.
	TradeChance float64
	TradeWindow float64
	// ClutchMinEnemies is the smallest N for which a 1vN is a clutch.
	ClutchMinEnemies int
	// AssistDivisor turns a teammate's Support into an assist probability.
	AssistDivisor float64

	// KeepRounds retains every RoundOutcome on the MapResult.
	KeepRounds bool
}

// DefaultRules returns the standard first-to-13 ruleset.
func DefaultRules() Rules {
	return Rules{
		RoundsToWin: 13,
		WinMargin:   2,
		HalfLength:  12,
		MaxRounds:   30,

		PlantBudget:     90,
		PostPlantBudget: 45,
		DefuseDuration:  7,
		ContestDelay:    3,

		EngagementVariance:  0.15,
		PostPlantAttackEdge: 0.6,
		MinPrePlantFights:   2,
		MaxPrePlantFights:   4,
		MinPostPlantFights:  1,
		MaxPostPlantFights:  3,

		TradeChance:      0.35,
		TradeWindow:      1.0,
		ClutchMinEnemies: 2,
		AssistDivisor:    150,

		KeepRounds: true,
	}
}

// Validate rejects rules the map loop cannot terminate under.
func (r Rules) Validate() error {
	switch {
	case r.RoundsToWin < 1 || r.WinMargin < 1 || r.HalfLength < 1:
		return fmt.Errorf("%w: rounds to win, margin and half length must be positive", ErrBadRules)
	case r.MaxRounds < 2*(r.RoundsToWin-1)+1:
		return fmt.Errorf("%w: max rounds %d cannot fit regulation", ErrBadRules, r.MaxRounds)
	case r.MaxRounds%2 != 0:
		// An odd cap can stop a map one round apart with neither side decided.
		return fmt.Errorf("%w: max rounds %d must be even", ErrBadRules, r.MaxRounds)
	case r.PlantBudget <= 0 || r.PostPlantBudget <= 0 || r.DefuseDuration <= 0 || r.ContestDelay < 0:
		return fmt.Errorf("%w: phase budgets must be positive", ErrBadRules)
	case r.EngagementVariance < 0 || r.EngagementVariance >= 1:
		return fmt.Errorf("%w: engagement variance must be in [0,1)", ErrBadRules)
	case r.PostPlantAttackEdge <= 0 || r.PostPlantAttackEdge >= 1:
		return fmt.Errorf("%w: post-plant edge must be in (0,1)", ErrBadRules)
	case r.MinPrePlantFights < 1 || r.MaxPrePlantFights < r.MinPrePlantFights:
		return fmt.Errorf("%w: pre-plant fight range", ErrBadRules)
	case r.MinPostPlantFights < 1 || r.MaxPostPlantFights < r.MinPostPlantFights:
		return fmt.Errorf("%w: post-plant fight range", ErrBadRules)
	case r.TradeChance < 0 || r.TradeChance > 1 || r.TradeWindow <= 0:
		return fmt.Errorf("%w: trade chance must be in [0,1] and window positive", ErrBadRules)
	case r.ClutchMinEnemies < 1 || r.ClutchMinEnemies > model.MaxClutchEnemies:
		return fmt.Errorf("%w: clutch minimum must be 1..%d", ErrBadRules, model.MaxClutchEnemies)
	case r.AssistDivisor <= 0:
		return fmt.Errorf("%w: assist divisor must be positive", ErrBadRules)
	}
	return nil
}

// AttackingTeam returns which team attacks in round n (1-based). Team A
// attacks the first half, team B the second; from overtime on the sides
// alternate every round with team A attacking odd rounds.
func (r Rules) AttackingTeam(n int) model.TeamSide {
	switch {
	case n <= r.HalfLength:
		return model.TeamA
	case n <= 2*r.HalfLength:
		return model.TeamB
	case n%2 == 1:
		return model.TeamA
	default:
		return model.TeamB
	}
}
