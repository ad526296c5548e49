package aggregator

import (
	"sort"

	"github.com/pable/rostersim/internal/model"
)

// Career sums per-map performances into one aggregate per player, sorted by
// kills descending, ties by player id.
func Career(perfs []model.PlayerMapPerformance) []model.PlayerAggregate {
	byID := make(map[string]*model.PlayerAggregate)
	for _, p := range perfs {
		agg := byID[p.PlayerID]
		if agg == nil {
			agg = &model.PlayerAggregate{PlayerID: p.PlayerID}
			byID[p.PlayerID] = agg
		}
		if p.PlayerName != "" {
			agg.Name = p.PlayerName
		}
		agg.Maps++
		agg.Kills += p.Kills
		agg.Deaths += p.Deaths
		agg.Assists += p.Assists
		agg.FirstKills += p.FirstKills
		agg.FirstDeaths += p.FirstDeaths
		agg.TradeKills += p.TradeKills
		agg.Plants += p.Plants
		agg.Defuses += p.Defuses
		agg.RoundsPlayed += p.RoundsPlayed
		agg.KASTRounds += p.KASTRounds
		agg.ClutchesPlayed += p.ClutchesPlayed()
		agg.ClutchesWon += p.ClutchesWon()
		agg.Aces += p.AceKills()
		agg.ACSTotal += p.ACS
	}

	out := make([]model.PlayerAggregate, 0, len(byID))
	for _, agg := range byID {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kills != out[j].Kills {
			return out[i].Kills > out[j].Kills
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}
