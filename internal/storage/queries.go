package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pable/rostersim/internal/model"
)

// roundDetail is the JSON payload kept per round for replay.
type roundDetail struct {
	Events    []model.RoundEvent        `json:"events"`
	Clutches  []model.Clutch            `json:"clutches,omitempty"`
	Survivors map[string]model.TeamSide `json:"survivors,omitempty"`
}

// MatchExists returns true if a match with the given id is already stored.
func (db *DB) MatchExists(id string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM matches WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertMatch stores a match with its maps, player lines and rounds in one
// transaction. Uses INSERT OR REPLACE so re-storing a match is idempotent.
func (db *DB) InsertMatch(m *model.Match) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	mapsA, mapsB := m.MapWins()
	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO matches(id, team_a, team_b, winner, maps_a, maps_b, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.TeamA, m.TeamB, m.WinnerName(), mapsA, mapsB,
		m.CreatedAt.UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("insert match %s: %w", m.ID, err)
	}

	mapStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO map_results(
			match_id, map_number, map_name, team_a_score, team_b_score, winner,
			team_a_attack_rounds, team_a_defense_rounds,
			team_b_attack_rounds, team_b_defense_rounds,
			total_rounds, overtime_rounds, tie_break
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer mapStmt.Close()

	playerStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_map_stats(
			match_id, map_number, player_id, name, team, team_name, agent,
			kills, deaths, assists, first_kills, first_deaths, trade_kills,
			plants, defuses, rounds_played, attack_rounds, defense_rounds,
			double_kills, triple_kills, quadra_kills, aces,
			clutches_played, clutches_won, kast_rounds,
			kd, acs, adr, kast, econ_rating
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer playerStmt.Close()

	roundStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO rounds(
			match_id, map_number, round_number, attacking, winner, win_condition,
			planter_id, plant_time, defuser_id, defused,
			first_killer_id, first_victim_id,
			clutch_player_id, clutch_enemies, clutch_won,
			survivors_a, survivors_b, detail
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer roundStmt.Close()

	for i := range m.Maps {
		r := &m.Maps[i]
		num := i + 1
		if _, err := mapStmt.Exec(
			m.ID, num, string(r.Map), r.TeamAScore, r.TeamBScore, r.Winner.String(),
			r.TeamAAttackRounds, r.TeamADefenseRounds,
			r.TeamBAttackRounds, r.TeamBDefenseRounds,
			r.TotalRounds, r.OvertimeRounds, r.TieBreak,
		); err != nil {
			return fmt.Errorf("insert map_results %d: %w", num, err)
		}

		teamNames := map[model.TeamSide]string{model.TeamA: m.TeamA, model.TeamB: m.TeamB}
		for _, side := range []model.TeamSide{model.TeamA, model.TeamB} {
			for _, p := range r.Performances(side) {
				if _, err := playerStmt.Exec(
					m.ID, num, p.PlayerID, p.PlayerName, p.Team.String(), teamNames[p.Team], string(p.Agent),
					p.Kills, p.Deaths, p.Assists, p.FirstKills, p.FirstDeaths, p.TradeKills,
					p.Plants, p.Defuses, p.RoundsPlayed, p.AttackRounds, p.DefenseRounds,
					p.DoubleKills(), p.TripleKills(), p.QuadraKills(), p.AceKills(),
					p.ClutchesPlayed(), p.ClutchesWon(), p.KASTRounds,
					p.KD, p.ACS, p.ADR, p.KAST, p.EconRating,
				); err != nil {
					return fmt.Errorf("insert player_map_stats for %s: %w", p.PlayerID, err)
				}
			}
		}

		for j := range r.Rounds {
			if err := insertRound(roundStmt, m.ID, num, &r.Rounds[j]); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func insertRound(stmt *sql.Stmt, matchID string, mapNumber int, r *model.RoundOutcome) error {
	detail, err := json.Marshal(roundDetail{Events: r.Events, Clutches: r.Clutches, Survivors: r.Survivors})
	if err != nil {
		return fmt.Errorf("encode round %d: %w", r.Number, err)
	}
	var fk, fv string
	if r.FirstBlood != nil {
		fk, fv = r.FirstBlood.KillerID, r.FirstBlood.VictimID
	}
	// The won clutch is the headline one; otherwise the first opened.
	var clutch model.Clutch
	if c := r.WonClutch(); c != nil {
		clutch = *c
	} else if len(r.Clutches) > 0 {
		clutch = r.Clutches[0]
	}
	_, err = stmt.Exec(
		matchID, mapNumber, r.Number, r.Attacking.String(), r.Winner.String(), string(r.WinCondition),
		r.PlanterID, r.PlantTime, r.DefuserID, boolInt(r.Defused),
		fk, fv,
		clutch.PlayerID, clutch.Enemies, boolInt(clutch.Won),
		r.SurvivorCount(model.TeamA), r.SurvivorCount(model.TeamB), string(detail),
	)
	if err != nil {
		return fmt.Errorf("insert round %d: %w", r.Number, err)
	}
	return nil
}

const matchSummaryCols = `
	SELECT m.id, m.team_a, m.team_b, m.winner, m.maps_a, m.maps_b,
	       (SELECT COUNT(1) FROM map_results r WHERE r.match_id = m.id), m.created_at
	FROM matches m`

func scanMatchSummary(row interface{ Scan(...any) error }) (model.MatchSummary, error) {
	var s model.MatchSummary
	err := row.Scan(&s.ID, &s.TeamA, &s.TeamB, &s.Winner, &s.MapsA, &s.MapsB, &s.MapCount, &s.CreatedAt)
	return s, err
}

// ListMatches returns all stored match summaries, newest first.
func (db *DB) ListMatches() ([]model.MatchSummary, error) {
	rows, err := db.conn.Query(matchSummaryCols + ` ORDER BY m.created_at DESC, m.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MatchSummary
	for rows.Next() {
		s, err := scanMatchSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetMatchByPrefix finds the first match whose id starts with the given prefix.
func (db *DB) GetMatchByPrefix(prefix string) (*model.MatchSummary, error) {
	s, err := scanMatchSummary(db.conn.QueryRow(matchSummaryCols+` WHERE m.id LIKE ? ORDER BY m.id LIMIT 1`, prefix+"%"))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetMapResults returns the maps of a match in play order. Performances and
// rounds are not populated; see GetPlayerMapStats and GetRounds.
func (db *DB) GetMapResults(matchID string) ([]model.MapResult, error) {
	rows, err := db.conn.Query(`
		SELECT map_name, team_a_score, team_b_score, winner,
		       team_a_attack_rounds, team_a_defense_rounds,
		       team_b_attack_rounds, team_b_defense_rounds,
		       total_rounds, overtime_rounds, tie_break
		FROM map_results WHERE match_id = ?
		ORDER BY map_number`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MapResult
	for rows.Next() {
		var r model.MapResult
		var mapName, winner string
		if err := rows.Scan(&mapName, &r.TeamAScore, &r.TeamBScore, &winner,
			&r.TeamAAttackRounds, &r.TeamADefenseRounds,
			&r.TeamBAttackRounds, &r.TeamBDefenseRounds,
			&r.TotalRounds, &r.OvertimeRounds, &r.TieBreak); err != nil {
			return nil, err
		}
		r.Map = model.Map(mapName)
		r.Winner = parseTeamSide(winner)
		r.Overtime = r.OvertimeRounds > 0
		out = append(out, r)
	}
	return out, rows.Err()
}

const playerMapCols = `
	SELECT player_id, name, team, agent,
	       kills, deaths, assists, first_kills, first_deaths, trade_kills,
	       plants, defuses, rounds_played, attack_rounds, defense_rounds,
	       double_kills, triple_kills, quadra_kills, aces,
	       clutches_played, clutches_won, kast_rounds,
	       kd, acs, adr, kast, econ_rating
	FROM player_map_stats`

func scanPlayerMap(rows *sql.Rows) (model.PlayerMapPerformance, error) {
	var p model.PlayerMapPerformance
	var team, agent string
	var clutchesPlayed, clutchesWon int
	err := rows.Scan(
		&p.PlayerID, &p.PlayerName, &team, &agent,
		&p.Kills, &p.Deaths, &p.Assists, &p.FirstKills, &p.FirstDeaths, &p.TradeKills,
		&p.Plants, &p.Defuses, &p.RoundsPlayed, &p.AttackRounds, &p.DefenseRounds,
		&p.MultiKills[2], &p.MultiKills[3], &p.MultiKills[4], &p.MultiKills[5],
		&clutchesPlayed, &clutchesWon, &p.KASTRounds,
		&p.KD, &p.ACS, &p.ADR, &p.KAST, &p.EconRating,
	)
	if err != nil {
		return p, err
	}
	p.Team = parseTeamSide(team)
	p.Agent = model.Agent(agent)
	// Per-size buckets are not stored; totals land in bucket 0.
	p.ClutchAttempts[0] = clutchesPlayed
	p.ClutchWins[0] = clutchesWon
	if clutchesPlayed > 0 {
		p.ClutchSuccessRate = float64(clutchesWon) / float64(clutchesPlayed) * 100
	}
	return p, nil
}

// GetPlayerMapStats returns the player lines of one map of a match, team A
// first, then by kills descending.
func (db *DB) GetPlayerMapStats(matchID string, mapNumber int) ([]model.PlayerMapPerformance, error) {
	rows, err := db.conn.Query(playerMapCols+`
		WHERE match_id = ? AND map_number = ?
		ORDER BY team, kills DESC, player_id`, matchID, mapNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerMapPerformance
	for rows.Next() {
		p, err := scanPlayerMap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPlayerCareer returns every stored map line for a player across all matches.
func (db *DB) GetPlayerCareer(playerID string) ([]model.PlayerMapPerformance, error) {
	rows, err := db.conn.Query(playerMapCols+`
		WHERE player_id = ?
		ORDER BY match_id, map_number`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerMapPerformance
	for rows.Next() {
		p, err := scanPlayerMap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TrendPoint is one stored map line of a player, in play order.
type TrendPoint struct {
	MatchID   string
	MapNumber int
	MapName   string
	CreatedAt string
	Agent     string
	Won       bool
	Kills     int
	Deaths    int
	Assists   int
	KD        float64
	ACS       int
	KAST      int
	Econ      int
}

// GetPlayerTrend returns a player's map lines oldest first.
func (db *DB) GetPlayerTrend(playerID string) ([]TrendPoint, error) {
	rows, err := db.conn.Query(`
		SELECT p.match_id, p.map_number, r.map_name, m.created_at, p.agent,
		       CASE WHEN p.team = r.winner THEN 1 ELSE 0 END,
		       p.kills, p.deaths, p.assists, p.kd, p.acs, p.kast, p.econ_rating
		FROM player_map_stats p
		JOIN map_results r ON r.match_id = p.match_id AND r.map_number = p.map_number
		JOIN matches m ON m.id = p.match_id
		WHERE p.player_id = ?
		ORDER BY m.created_at, p.match_id, p.map_number`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrendPoint
	for rows.Next() {
		var t TrendPoint
		var won int
		if err := rows.Scan(&t.MatchID, &t.MapNumber, &t.MapName, &t.CreatedAt, &t.Agent,
			&won, &t.Kills, &t.Deaths, &t.Assists, &t.KD, &t.ACS, &t.KAST, &t.Econ); err != nil {
			return nil, err
		}
		t.Won = won != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetRounds returns the stored rounds of one map in order.
func (db *DB) GetRounds(matchID string, mapNumber int) ([]model.RoundOutcome, error) {
	rows, err := db.conn.Query(`
		SELECT round_number, attacking, winner, win_condition,
		       planter_id, plant_time, defuser_id, defused,
		       first_killer_id, first_victim_id, detail
		FROM rounds WHERE match_id = ? AND map_number = ?
		ORDER BY round_number`, matchID, mapNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RoundOutcome
	for rows.Next() {
		var r model.RoundOutcome
		var attacking, winner, cond, fk, fv, detail string
		var defused int
		if err := rows.Scan(&r.Number, &attacking, &winner, &cond,
			&r.PlanterID, &r.PlantTime, &r.DefuserID, &defused,
			&fk, &fv, &detail); err != nil {
			return nil, err
		}
		var d roundDetail
		if err := json.Unmarshal([]byte(detail), &d); err != nil {
			return nil, fmt.Errorf("decode round %d: %w", r.Number, err)
		}
		r.Attacking = parseTeamSide(attacking)
		r.Winner = parseTeamSide(winner)
		r.WinnerSide = r.SideOf(r.Winner)
		r.WinCondition = model.WinCondition(cond)
		r.Defused = defused != 0
		r.Events, r.Clutches, r.Survivors = d.Events, d.Clutches, d.Survivors
		if fk != "" {
			fb := &model.FirstBlood{KillerID: fk, VictimID: fv}
			for _, e := range r.Events {
				if e.IsKill() {
					fb.Time = e.Time
					break
				}
			}
			r.FirstBlood = fb
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and returns column names and stringified rows.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(x)
			case float64:
				row[i] = fmt.Sprintf("%.4g", x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

// Reset deletes every stored match.
func (db *DB) Reset() error {
	for _, table := range []string{"rounds", "player_map_stats", "map_results", "matches"} {
		if _, err := db.conn.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTeamSide(s string) model.TeamSide {
	if s == "B" {
		return model.TeamB
	}
	return model.TeamA
}
