// Package roster loads team rosters from JSON files.
package roster

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pable/rostersim/internal/model"
)

// ErrInvalidTeam is wrapped by every validation failure.
var ErrInvalidTeam = errors.New("invalid team")

// LoadFile reads and validates a team from a JSON file.
func LoadFile(path string) (*model.Team, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open team file: %w", err)
	}
	defer f.Close()

	t, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Decode reads one team from r, normalises it and validates it.
// Unknown fields are rejected so typos in stat names do not silently
// fall back to zero.
func Decode(r io.Reader) (*model.Team, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var t model.Team
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidTeam, err)
	}
	if err := Normalize(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Normalize fills defaults, clamps stats into range and validates t.
func Normalize(t *model.Team) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return fmt.Errorf("%w: team name is empty", ErrInvalidTeam)
	}
	if t.ID == "" {
		t.ID = strings.ToLower(strings.Join(strings.Fields(t.Name), "-"))
	}

	seen := make(map[string]bool, len(t.Roster))
	for i := range t.Roster {
		p := &t.Roster[i]
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return fmt.Errorf("%w: %s: player %d has no id", ErrInvalidTeam, t.Name, i+1)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: %s: duplicate player id %q", ErrInvalidTeam, t.Name, p.ID)
		}
		seen[p.ID] = true
		if p.Name == "" {
			p.Name = p.ID
		}

		switch p.Status {
		case "":
			p.Status = model.StatusActive
		case model.StatusActive, model.StatusReserve:
		default:
			return fmt.Errorf("%w: %s: player %s has unknown status %q", ErrInvalidTeam, t.Name, p.ID, p.Status)
		}

		p.Stats.Clamp()
		for a, v := range p.AgentPool {
			p.AgentPool[a] = min(100, max(0, v))
		}
		for m := range p.MapProficiency {
			if _, err := model.ParseMap(string(m)); err != nil {
				return fmt.Errorf("%w: %s: player %s: %v", ErrInvalidTeam, t.Name, p.ID, err)
			}
		}
	}

	if len(t.ActiveRoster(model.ActiveRosterSize)) == 0 {
		return fmt.Errorf("%w: %s has no active players", ErrInvalidTeam, t.Name)
	}
	return nil
}

// CheckPair rejects two teams that would field the same player.
func CheckPair(a, b *model.Team) error {
	ids := make(map[string]bool, len(a.Roster))
	for _, p := range a.Roster {
		ids[p.ID] = true
	}
	for _, p := range b.Roster {
		if ids[p.ID] {
			return fmt.Errorf("%w: player %q is on both %s and %s", ErrInvalidTeam, p.ID, a.Name, b.Name)
		}
	}
	return nil
}
