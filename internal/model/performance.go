package model

import "time"

// MaxClutchEnemies is the largest N tracked for 1vN clutches.
const MaxClutchEnemies = 5

// PlayerMapPerformance holds one player's counters for a single map. The
// derived fields below the divider stay zero until the aggregator finalizes.
type PlayerMapPerformance struct {
	PlayerID   string
	PlayerName string
	Team       TeamSide
	Agent      Agent

	Kills         int
	Deaths        int
	Assists       int
	FirstKills    int
	FirstDeaths   int
	TradeKills    int
	Plants        int
	Defuses       int
	RoundsPlayed  int
	AttackRounds  int
	DefenseRounds int

	// MultiKills is indexed by kills in a round; only 2..5 are meaningful.
	MultiKills [6]int
	// ClutchAttempts and ClutchWins are indexed by enemy count (1..5).
	ClutchAttempts [MaxClutchEnemies + 1]int
	ClutchWins     [MaxClutchEnemies + 1]int

	// KAST components, each counted at most once per round.
	RoundsWithKill   int
	RoundsWithAssist int
	RoundsSurvived   int
	RoundsTraded     int
	KASTRounds       int

	// ---- derived ----

	KD                float64
	KPR               float64
	APR               float64
	FKPR              float64
	FDPR              float64
	ACS               int
	ADR               int
	KAST              int // percent, 0-100
	ClutchSuccessRate float64
	EconRating        int
}

func (p *PlayerMapPerformance) DoubleKills() int { return p.MultiKills[2] }
func (p *PlayerMapPerformance) TripleKills() int { return p.MultiKills[3] }
func (p *PlayerMapPerformance) QuadraKills() int { return p.MultiKills[4] }
func (p *PlayerMapPerformance) AceKills() int    { return p.MultiKills[5] }

// ClutchesPlayed sums attempts across all enemy counts.
func (p *PlayerMapPerformance) ClutchesPlayed() int {
	n := 0
	for _, c := range p.ClutchAttempts {
		n += c
	}
	return n
}

// ClutchesWon sums wins across all enemy counts.
func (p *PlayerMapPerformance) ClutchesWon() int {
	n := 0
	for _, c := range p.ClutchWins {
		n += c
	}
	return n
}

// MapResult is the immutable outcome of one simulated map.
type MapResult struct {
	Map        Map
	TeamAScore int
	TeamBScore int
	Winner     TeamSide

	TeamAAttackRounds  int
	TeamADefenseRounds int
	TeamBAttackRounds  int
	TeamBDefenseRounds int

	TeamAPerformances []PlayerMapPerformance
	TeamBPerformances []PlayerMapPerformance

	TotalRounds    int
	Overtime       bool
	OvertimeRounds int
	// TieBreak describes how a map that hit the round cap was decided; "" otherwise.
	TieBreak string

	Rounds []RoundOutcome
}

// Score returns the rounds won by team.
func (r *MapResult) Score(team TeamSide) int {
	if team == TeamA {
		return r.TeamAScore
	}
	return r.TeamBScore
}

// Performances returns the finalized performances for team.
func (r *MapResult) Performances(team TeamSide) []PlayerMapPerformance {
	if team == TeamA {
		return r.TeamAPerformances
	}
	return r.TeamBPerformances
}

// Match is a best-of-three series between two teams.
type Match struct {
	ID        string
	TeamA     string
	TeamB     string
	Maps      []MapResult
	Winner    *TeamSide
	CreatedAt time.Time
}

// MapWins counts maps won by each team.
func (m *Match) MapWins() (a, b int) {
	for _, r := range m.Maps {
		if r.Winner == TeamA {
			a++
		} else {
			b++
		}
	}
	return a, b
}

// Append records a finished map.
func (m *Match) Append(r MapResult) {
	m.Maps = append(m.Maps, r)
}

// Decide sets the winner once a team holds the majority of map wins.
func (m *Match) Decide(winsNeeded int) bool {
	a, b := m.MapWins()
	switch {
	case a >= winsNeeded:
		w := TeamA
		m.Winner = &w
	case b >= winsNeeded:
		w := TeamB
		m.Winner = &w
	default:
		return false
	}
	return true
}

// WinnerName returns the winning team's name or "" while undecided.
func (m *Match) WinnerName() string {
	if m.Winner == nil {
		return ""
	}
	if *m.Winner == TeamA {
		return m.TeamA
	}
	return m.TeamB
}

// Summary returns the list/show view of m.
func (m *Match) Summary() MatchSummary {
	a, b := m.MapWins()
	return MatchSummary{
		ID:        m.ID,
		TeamA:     m.TeamA,
		TeamB:     m.TeamB,
		Winner:    m.WinnerName(),
		MapsA:     a,
		MapsB:     b,
		MapCount:  len(m.Maps),
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// MatchSummary is a lightweight record for list/show commands.
type MatchSummary struct {
	ID        string
	TeamA     string
	TeamB     string
	Winner    string
	MapsA     int
	MapsB     int
	MapCount  int
	CreatedAt string
}

// PlayerAggregate holds one player's counters summed across stored maps.
type PlayerAggregate struct {
	PlayerID string
	Name     string
	Maps     int

	Kills, Deaths, Assists      int
	FirstKills, FirstDeaths     int
	TradeKills                  int
	Plants, Defuses             int
	RoundsPlayed, KASTRounds    int
	ClutchesPlayed, ClutchesWon int
	Aces                        int
	ACSTotal                    int // sum of per-map ACS, for averaging
}

func (a *PlayerAggregate) KDRatio() float64 {
	if a.Deaths == 0 {
		return float64(a.Kills)
	}
	return float64(a.Kills) / float64(a.Deaths)
}

func (a *PlayerAggregate) KASTPct() float64 {
	if a.RoundsPlayed == 0 {
		return 0
	}
	return float64(a.KASTRounds) / float64(a.RoundsPlayed) * 100
}

func (a *PlayerAggregate) AvgACS() float64 {
	if a.Maps == 0 {
		return 0
	}
	return float64(a.ACSTotal) / float64(a.Maps)
}

func (a *PlayerAggregate) ClutchPct() float64 {
	if a.ClutchesPlayed == 0 {
		return 0
	}
	return float64(a.ClutchesWon) / float64(a.ClutchesPlayed) * 100
}
