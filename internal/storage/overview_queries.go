package storage

import (
	"fmt"
	"strings"
)

// Overview holds database-wide counts for the summary command.
type Overview struct {
	TotalMatches  int
	TotalMaps     int
	TotalRounds   int
	UniquePlayers int
	OvertimeMaps  int
	TieBreaks     int
	EarliestMatch string
	LatestMatch   string
}

// MapStats aggregates stored results for one map.
type MapStats struct {
	MapName      string
	Maps         int
	Rounds       int
	AttackWins   int
	OvertimeMaps int
}

// ConditionCount is how many stored rounds ended a given way.
type ConditionCount struct {
	Condition string
	Rounds    int
}

// SideStats holds attack and defense round wins and totals for one team.
type SideStats struct {
	AttackWins   int
	AttackTotal  int
	DefenseWins  int
	DefenseTotal int
}

// TeamMapRecord is one team's record on one map.
type TeamMapRecord struct {
	MapName      string
	Played       int
	Won          int
	RoundsWon    int
	RoundsPlayed int
}

// PlayerTotals holds summed stats for one player across stored maps.
type PlayerTotals struct {
	PlayerID     string
	Name         string
	Maps         int
	Kills        int
	Deaths       int
	Assists      int
	KASTRounds   int
	RoundsPlayed int
	ACSTotal     int
}

// GetOverview returns database-wide counts. Dates are empty when no match is stored.
func (db *DB) GetOverview() (Overview, error) {
	var ov Overview
	err := db.conn.QueryRow(`
		SELECT COUNT(1), COALESCE(MIN(created_at), ''), COALESCE(MAX(created_at), '')
		FROM matches`).Scan(&ov.TotalMatches, &ov.EarliestMatch, &ov.LatestMatch)
	if err != nil {
		return ov, fmt.Errorf("count matches: %w", err)
	}
	// COALESCE guards against NULL when no rows match.
	err = db.conn.QueryRow(`
		SELECT COUNT(1),
		       COALESCE(SUM(total_rounds), 0),
		       COALESCE(SUM(CASE WHEN overtime_rounds > 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN tie_break != '' THEN 1 ELSE 0 END), 0)
		FROM map_results`).Scan(&ov.TotalMaps, &ov.TotalRounds, &ov.OvertimeMaps, &ov.TieBreaks)
	if err != nil {
		return ov, fmt.Errorf("count maps: %w", err)
	}
	err = db.conn.QueryRow(`SELECT COUNT(DISTINCT player_id) FROM player_map_stats`).Scan(&ov.UniquePlayers)
	if err != nil {
		return ov, fmt.Errorf("count players: %w", err)
	}
	return ov, nil
}

// GetMapStats returns one row per map name, most played first.
func (db *DB) GetMapStats() ([]MapStats, error) {
	rows, err := db.conn.Query(`
		SELECT map_name, COUNT(1), SUM(total_rounds),
		       SUM(team_a_attack_rounds + team_b_attack_rounds),
		       SUM(CASE WHEN overtime_rounds > 0 THEN 1 ELSE 0 END)
		FROM map_results
		GROUP BY map_name
		ORDER BY COUNT(1) DESC, map_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MapStats
	for rows.Next() {
		var m MapStats
		if err := rows.Scan(&m.MapName, &m.Maps, &m.Rounds, &m.AttackWins, &m.OvertimeMaps); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetWinConditionCounts returns how stored rounds ended, most common first.
func (db *DB) GetWinConditionCounts() ([]ConditionCount, error) {
	rows, err := db.conn.Query(`
		SELECT win_condition, COUNT(1) FROM rounds
		GROUP BY win_condition
		ORDER BY COUNT(1) DESC, win_condition`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ConditionCount
	for rows.Next() {
		var c ConditionCount
		if err := rows.Scan(&c.Condition, &c.Rounds); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetTopPlayers returns the limit players with the most stored maps.
func (db *DB) GetTopPlayers(limit int) ([]PlayerTotals, error) {
	return db.playerTotals(`GROUP BY player_id ORDER BY COUNT(1) DESC, SUM(kills) DESC, player_id LIMIT ?`, limit)
}

// PlayerTotalsByIDs returns summed stats for the given player ids,
// ordered by rounds played descending.
func (db *DB) PlayerTotalsByIDs(ids []string) ([]PlayerTotals, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	where := fmt.Sprintf(`WHERE player_id IN (%s)
		GROUP BY player_id ORDER BY SUM(rounds_played) DESC, player_id`, placeholders(len(ids)))
	return db.playerTotals(where, args...)
}

func (db *DB) playerTotals(tail string, args ...interface{}) ([]PlayerTotals, error) {
	rows, err := db.conn.Query(`
		SELECT player_id, MAX(name), COUNT(1),
		       SUM(kills), SUM(deaths), SUM(assists),
		       SUM(kast_rounds), SUM(rounds_played), SUM(acs)
		FROM player_map_stats `+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerTotals
	for rows.Next() {
		var p PlayerTotals
		if err := rows.Scan(&p.PlayerID, &p.Name, &p.Maps,
			&p.Kills, &p.Deaths, &p.Assists,
			&p.KASTRounds, &p.RoundsPlayed, &p.ACSTotal); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TeamSideStats returns a team's attack and defense round record across
// every stored map it played, on either side of the bracket.
func (db *DB) TeamSideStats(team string) (SideStats, error) {
	var s SideStats
	err := db.conn.QueryRow(`
		SELECT
		  COALESCE(SUM(CASE WHEN m.team_a = ? THEN r.team_a_attack_rounds  ELSE r.team_b_attack_rounds  END), 0),
		  COALESCE(SUM(CASE WHEN m.team_a = ? THEN r.team_a_defense_rounds ELSE r.team_b_defense_rounds END), 0)
		FROM map_results r
		JOIN matches m ON m.id = r.match_id
		WHERE m.team_a = ? OR m.team_b = ?`,
		team, team, team, team).Scan(&s.AttackWins, &s.DefenseWins)
	if err != nil {
		return s, err
	}
	// Rounds on each side come from the stored timelines.
	err = db.conn.QueryRow(`
		SELECT
		  COALESCE(SUM(CASE WHEN (d.attacking = 'A') = (m.team_a = ?) THEN 1 ELSE 0 END), 0),
		  COALESCE(SUM(CASE WHEN (d.attacking = 'A') = (m.team_a = ?) THEN 0 ELSE 1 END), 0)
		FROM rounds d
		JOIN matches m ON m.id = d.match_id
		WHERE m.team_a = ? OR m.team_b = ?`,
		team, team, team, team).Scan(&s.AttackTotal, &s.DefenseTotal)
	return s, err
}

// TeamMapRecords returns a team's per-map record across stored matches,
// most played first.
func (db *DB) TeamMapRecords(team string) ([]TeamMapRecord, error) {
	rows, err := db.conn.Query(`
		SELECT r.map_name, COUNT(1),
		       SUM(CASE WHEN (r.winner = 'A') = (m.team_a = ?) THEN 1 ELSE 0 END),
		       SUM(CASE WHEN m.team_a = ? THEN r.team_a_score ELSE r.team_b_score END),
		       SUM(r.total_rounds)
		FROM map_results r
		JOIN matches m ON m.id = r.match_id
		WHERE m.team_a = ? OR m.team_b = ?
		GROUP BY r.map_name
		ORDER BY COUNT(1) DESC, r.map_name`,
		team, team, team, team)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TeamMapRecord
	for rows.Next() {
		var rec TeamMapRecord
		if err := rows.Scan(&rec.MapName, &rec.Played, &rec.Won, &rec.RoundsWon, &rec.RoundsPlayed); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// placeholders returns a comma-separated string of n "?" for SQL IN clauses,
// e.g. placeholders(3) → "?,?,?".
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
