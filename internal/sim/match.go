package sim

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pable/rostersim/internal/model"
)

// SimulateBestOf3 fields each team's active five and plays the maps in
// order until one team has won two. The third map is skipped on a sweep.
func (s *Simulator) SimulateBestOf3(teamA, teamB model.Team, maps [3]model.Map) ([]model.MapResult, error) {
	return s.SimulateSeries(teamA, teamB, maps[:])
}

// SimulateSeries plays a best-of-len(maps) series. len(maps) must be odd so
// the series always has a winner.
func (s *Simulator) SimulateSeries(teamA, teamB model.Team, maps []model.Map) ([]model.MapResult, error) {
	if len(maps)%2 == 0 {
		return nil, fmt.Errorf("%w: got %d", ErrMapCount, len(maps))
	}
	a, b := teamA.WithActiveRoster(), teamB.WithActiveRoster()
	need := len(maps)/2 + 1

	var results []model.MapResult
	var wins [2]int
	for i, m := range maps {
		res, err := s.SimulateMap(a, b, m)
		if err != nil {
			return nil, fmt.Errorf("map %d (%s): %w", i+1, m, err)
		}
		results = append(results, *res)
		wins[res.Winner]++
		if wins[res.Winner] >= need {
			break
		}
	}
	s.log.WithField("maps", len(results)).
		Debugf("%s %d-%d %s", a.Label(), wins[model.TeamA], wins[model.TeamB], b.Label())
	return results, nil
}

// SimulateMatch plays a series and wraps it in a Match ready for storage.
func (s *Simulator) SimulateMatch(teamA, teamB model.Team, maps []model.Map) (*model.Match, error) {
	results, err := s.SimulateSeries(teamA, teamB, maps)
	if err != nil {
		return nil, err
	}
	m := &model.Match{
		ID:        uuid.NewString(),
		TeamA:     teamA.Name,
		TeamB:     teamB.Name,
		CreatedAt: time.Now().UTC(),
	}
	for _, r := range results {
		m.Append(r)
	}
	m.Decide(len(maps)/2 + 1)
	return m, nil
}
