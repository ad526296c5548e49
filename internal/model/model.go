package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/elliotchance/pie/v2"
)

// Map is one of the competitive map pool entries.
type Map string

const (
	Ascent   Map = "Ascent"
	Split    Map = "Split"
	Haven    Map = "Haven"
	Bind     Map = "Bind"
	Icebox   Map = "Icebox"
	Breeze   Map = "Breeze"
	Fracture Map = "Fracture"
	Pearl    Map = "Pearl"
	Lotus    Map = "Lotus"
	Sunset   Map = "Sunset"
	Abyss    Map = "Abyss"
)

// MapPool lists every map the simulator knows about.
var MapPool = []Map{
	Ascent, Split, Haven, Bind, Icebox, Breeze,
	Fracture, Pearl, Lotus, Sunset, Abyss,
}

// ParseMap resolves a map name case-insensitively.
func ParseMap(s string) (Map, error) {
	s = strings.TrimSpace(s)
	for _, m := range MapPool {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown map %q", s)
}

// Agent is a playable character.
type Agent string

// DefaultAgent is used when a player's agent pool is empty.
const DefaultAgent Agent = "Jett"

// Role is a player's tactical role.
type Role string

const (
	RoleDuelist    Role = "Duelist"
	RoleInitiator  Role = "Initiator"
	RoleController Role = "Controller"
	RoleSentinel   Role = "Sentinel"
	RoleFlex       Role = "Flex"
)

// Status marks whether a player is in the starting five.
type Status string

const (
	StatusActive  Status = "active"
	StatusReserve Status = "reserve"
)

// DefaultMapProficiency is the neutral per-map proficiency.
const DefaultMapProficiency = 70

// ActiveRosterSize is the number of players fielded per side.
const ActiveRosterSize = 5

// Stats is a player's 0-100 attribute vector.
type Stats struct {
	Mechanics   int `json:"mechanics"`
	Shotcalling int `json:"shotcalling"`
	Composure   int `json:"composure"`
	Clutch      int `json:"clutch"`
	Morale      int `json:"morale"`
	Solo        int `json:"solo"`
	Aggression  int `json:"aggression"`
	Support     int `json:"support"`
	Consistency int `json:"consistency"`
}

// Clamp forces every stat into [0,100].
func (s *Stats) Clamp() {
	for _, p := range []*int{
		&s.Mechanics, &s.Shotcalling, &s.Composure, &s.Clutch, &s.Morale,
		&s.Solo, &s.Aggression, &s.Support, &s.Consistency,
	} {
		*p = clampStat(*p)
	}
}

// Overall is the unweighted mean of all nine stats.
func (s Stats) Overall() float64 {
	sum := s.Mechanics + s.Shotcalling + s.Composure + s.Clutch + s.Morale +
		s.Solo + s.Aggression + s.Support + s.Consistency
	return float64(sum) / 9
}

func clampStat(v int) int {
	return min(100, max(0, v))
}

// Player is a rostered player as supplied by the game-state container.
type Player struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Role           Role          `json:"role"`
	Stats          Stats         `json:"stats"`
	AgentPool      map[Agent]int `json:"agent_pool,omitempty"`
	MapProficiency map[Map]int   `json:"map_proficiency,omitempty"`
	Status         Status        `json:"status,omitempty"`
}

// MapProficiencyFor returns the player's proficiency on m, defaulting to 70.
func (p *Player) MapProficiencyFor(m Map) int {
	if v, ok := p.MapProficiency[m]; ok {
		return clampStat(v)
	}
	return DefaultMapProficiency
}

// Agent picks the player's highest-proficiency agent. Ties go to the
// alphabetically first agent so the choice is stable.
func (p *Player) Agent() Agent {
	if len(p.AgentPool) == 0 {
		return DefaultAgent
	}
	agents := make([]Agent, 0, len(p.AgentPool))
	for a := range p.AgentPool {
		agents = append(agents, a)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i] < agents[j] })

	best := agents[0]
	for _, a := range agents[1:] {
		if p.AgentPool[a] > p.AgentPool[best] {
			best = a
		}
	}
	return best
}

// IsReserve reports whether the player sits on the bench.
func (p *Player) IsReserve() bool {
	return p.Status == StatusReserve
}

// Team is a roster plus team-level practice data.
type Team struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	ShortName        string      `json:"short_name,omitempty"`
	Roster           []Player    `json:"roster"`
	MapPracticeLevel map[Map]int `json:"map_practice_level,omitempty"`
}

// ActiveRoster returns at most limit non-reserve players, in roster order.
func (t *Team) ActiveRoster(limit int) []Player {
	active := pie.Filter(t.Roster, func(p Player) bool { return !p.IsReserve() })
	if limit > 0 && len(active) > limit {
		active = active[:limit]
	}
	return active
}

// WithActiveRoster returns a shallow copy of t fielding only its active five.
func (t Team) WithActiveRoster() Team {
	t.Roster = t.ActiveRoster(ActiveRosterSize)
	return t
}

// Label returns the short name when set, otherwise the full name.
func (t *Team) Label() string {
	if t.ShortName != "" {
		return t.ShortName
	}
	return t.Name
}
