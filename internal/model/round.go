package model

// Side is the role a team plays in a round.
type Side int

const (
	Attack Side = iota
	Defense
)

func (s Side) String() string {
	if s == Attack {
		return "ATK"
	}
	return "DEF"
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Attack {
		return Defense
	}
	return Attack
}

// TeamSide identifies one of the two teams in a map.
type TeamSide int

const (
	TeamA TeamSide = iota
	TeamB
)

func (t TeamSide) String() string {
	if t == TeamA {
		return "A"
	}
	return "B"
}

// Other returns the opposing team.
func (t TeamSide) Other() TeamSide {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

// WinCondition is how a round ended.
type WinCondition string

const (
	WinElimination   WinCondition = "elimination"
	WinBombDetonated WinCondition = "bomb_detonated"
	WinBombDefused   WinCondition = "bomb_defused"
	WinTimeExpired   WinCondition = "time_expired"
)

// EventType tags an entry in a round timeline.
type EventType string

const (
	EventRoundStart         EventType = "round_start"
	EventKill               EventType = "kill"
	EventTradeKill          EventType = "trade_kill"
	EventBombPlant          EventType = "bomb_plant"
	EventBombDefuseStart    EventType = "bomb_defuse_start"
	EventBombDefuseComplete EventType = "bomb_defuse_complete"
	EventRoundEnd           EventType = "round_end"
)

// RoundEvent is one timestamped entry in a round. Time is seconds since the
// round started. Kill fields are only set for kill and trade_kill events;
// Actor is set for plant and defuse events.
type RoundEvent struct {
	Type EventType `json:"type"`
	Time float64   `json:"t"`

	KillerID   string   `json:"killer,omitempty"`
	VictimID   string   `json:"victim,omitempty"`
	AssisterID string   `json:"assister,omitempty"` // "" if none
	KillerTeam TeamSide `json:"team"`
	// Traded is set on a kill whose killer was then killed by a teammate of
	// the victim within the trade window.
	Traded bool `json:"traded,omitempty"`

	Actor string `json:"actor,omitempty"`
}

// IsKill reports whether the event removed a player.
func (e *RoundEvent) IsKill() bool {
	return e.Type == EventKill || e.Type == EventTradeKill
}

// Clutch is a 1vN situation: the last player alive on a side facing
// Enemies opponents when it began.
type Clutch struct {
	PlayerID string   `json:"player"`
	Team     TeamSide `json:"team"`
	Enemies  int      `json:"enemies"`
	Won      bool     `json:"won"`
}

// FirstBlood is the opening kill of a round.
type FirstBlood struct {
	KillerID string
	VictimID string
	Time     float64
}

// RoundOutcome is the full record of one simulated round.
type RoundOutcome struct {
	Number       int
	Attacking    TeamSide
	Winner       TeamSide
	WinnerSide   Side
	WinCondition WinCondition
	Events       []RoundEvent

	PlanterID  string // "" if no plant
	PlantTime  float64
	DefuserID  string // "" if no defuse attempt
	Defused    bool
	FirstBlood *FirstBlood
	Clutches   []Clutch
	// Survivors maps player id to the team of every player alive at round end.
	Survivors map[string]TeamSide
}

// Kills returns the kill and trade_kill events in timeline order.
func (r *RoundOutcome) Kills() []RoundEvent {
	var out []RoundEvent
	for _, e := range r.Events {
		if e.IsKill() {
			out = append(out, e)
		}
	}
	return out
}

// WonClutch returns the clutch won by the round winner's lone survivor, or nil.
func (r *RoundOutcome) WonClutch() *Clutch {
	for i := range r.Clutches {
		if r.Clutches[i].Won {
			return &r.Clutches[i]
		}
	}
	return nil
}

// SideOf returns which side team played in this round.
func (r *RoundOutcome) SideOf(team TeamSide) Side {
	if team == r.Attacking {
		return Attack
	}
	return Defense
}

// SurvivorCount returns how many players of team were alive at round end.
func (r *RoundOutcome) SurvivorCount(team TeamSide) int {
	n := 0
	for _, t := range r.Survivors {
		if t == team {
			n++
		}
	}
	return n
}
