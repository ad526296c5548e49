// Package sim is the match engine: team strength, the round state machine,
// the map loop and the best-of-N orchestrator.
package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pable/rostersim/internal/model"
)

var (
	// ErrEmptyRoster is returned when a side has no players to field.
	ErrEmptyRoster = errors.New("empty roster")
	// ErrBadRules is returned when Rules fail validation.
	ErrBadRules = errors.New("invalid rules")
	// ErrDuplicatePlayer is returned when a player id appears twice across
	// the two lineups.
	ErrDuplicatePlayer = errors.New("duplicate player")
	// ErrMapCount is returned when a series is not given an odd number of maps.
	ErrMapCount = errors.New("series needs an odd number of maps")
)

// Rand is the randomness the engine consumes. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// NewRand returns a seeded source. A zero seed uses the wall clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Simulator runs rounds, maps and series. A Simulator owns its Rand and
// must not be shared between goroutines.
type Simulator struct {
	rng   Rand
	rules Rules
	log   *logrus.Entry
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithRules overrides the default rules.
func WithRules(r Rules) Option {
	return func(s *Simulator) { s.rules = r }
}

// WithLogger sets the logger used for map and series events.
func WithLogger(l *logrus.Entry) Option {
	return func(s *Simulator) { s.log = l }
}

// New builds a Simulator drawing from rng. A nil rng uses NewRand(0).
func New(rng Rand, opts ...Option) (*Simulator, error) {
	if rng == nil {
		rng = NewRand(0)
	}
	s := &Simulator{
		rng:   rng,
		rules: DefaultRules(),
		log:   logrus.NewEntry(logrus.StandardLogger()).WithField("component", "sim"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.rules.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Rules returns the rules this simulator plays by.
func (s *Simulator) Rules() Rules {
	return s.rules
}

// checkLineups rejects an empty side and any player id fielded twice,
// within one lineup or across both.
func checkLineups(labelA string, a []model.Player, labelB string, b []model.Player) error {
	if len(a) == 0 {
		return fmt.Errorf("%s: %w", labelA, ErrEmptyRoster)
	}
	if len(b) == 0 {
		return fmt.Errorf("%s: %w", labelB, ErrEmptyRoster)
	}
	seen := make(map[string]string, len(a)+len(b))
	for _, side := range []struct {
		label   string
		players []model.Player
	}{{labelA, a}, {labelB, b}} {
		for _, p := range side.players {
			if prev, ok := seen[p.ID]; ok {
				return fmt.Errorf("%w: %q on %s and %s", ErrDuplicatePlayer, p.ID, prev, side.label)
			}
			seen[p.ID] = side.label
		}
	}
	return nil
}
