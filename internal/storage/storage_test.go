package storage

import (
	"testing"
	"time"

	"github.com/pable/rostersim/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func perf(id, name string, team model.TeamSide, kills, deaths int) model.PlayerMapPerformance {
	p := model.PlayerMapPerformance{
		PlayerID: id, PlayerName: name, Team: team, Agent: model.DefaultAgent,
		Kills: kills, Deaths: deaths, Assists: 3, FirstKills: 2,
		RoundsPlayed: 24, KASTRounds: 18, ACS: 210, ADR: 147, KAST: 75,
	}
	p.MultiKills[2] = 2
	p.MultiKills[5] = 1
	p.ClutchAttempts[2] = 2
	p.ClutchWins[2] = 1
	if deaths > 0 {
		p.KD = float64(kills) / float64(deaths)
	}
	return p
}

func sampleRound(n int, attacking, winner model.TeamSide) model.RoundOutcome {
	r := model.RoundOutcome{
		Number:       n,
		Attacking:    attacking,
		Winner:       winner,
		WinCondition: model.WinElimination,
		Events: []model.RoundEvent{
			{Type: model.EventRoundStart},
			{Type: model.EventKill, Time: 12.5, KillerID: "a1", VictimID: "b1", KillerTeam: model.TeamA, Traded: true},
			{Type: model.EventTradeKill, Time: 13.1, KillerID: "b2", VictimID: "a1", KillerTeam: model.TeamB},
			{Type: model.EventRoundEnd, Time: 40, KillerTeam: winner},
		},
		FirstBlood: &model.FirstBlood{KillerID: "a1", VictimID: "b1", Time: 12.5},
		Clutches:   []model.Clutch{{PlayerID: "b2", Team: model.TeamB, Enemies: 2, Won: winner == model.TeamB}},
		Survivors:  map[string]model.TeamSide{"a2": model.TeamA, "b2": model.TeamB},
	}
	r.WinnerSide = r.SideOf(winner)
	return r
}

func sampleMatch(id string, created time.Time) *model.Match {
	m := &model.Match{ID: id, TeamA: "Alpha", TeamB: "Bravo", CreatedAt: created}
	m.Append(model.MapResult{
		Map: model.Ascent, TeamAScore: 13, TeamBScore: 11, Winner: model.TeamA,
		TeamAAttackRounds: 7, TeamADefenseRounds: 6, TeamBAttackRounds: 5, TeamBDefenseRounds: 6,
		TotalRounds:       24,
		TeamAPerformances: []model.PlayerMapPerformance{perf("a1", "Ace", model.TeamA, 20, 15), perf("a2", "Ash", model.TeamA, 12, 16)},
		TeamBPerformances: []model.PlayerMapPerformance{perf("b1", "Bolt", model.TeamB, 18, 17), perf("b2", "Blitz", model.TeamB, 10, 0)},
		Rounds:            []model.RoundOutcome{sampleRound(1, model.TeamA, model.TeamA), sampleRound(2, model.TeamA, model.TeamB)},
	})
	m.Append(model.MapResult{
		Map: model.Bind, TeamAScore: 15, TeamBScore: 15, Winner: model.TeamA,
		TotalRounds: 30, Overtime: true, OvertimeRounds: 6, TieBreak: "survivors 40-38",
		TeamAPerformances: []model.PlayerMapPerformance{perf("a1", "Ace", model.TeamA, 25, 20)},
		TeamBPerformances: []model.PlayerMapPerformance{perf("b1", "Bolt", model.TeamB, 22, 24)},
	})
	m.Decide(2)
	return m
}

func TestMatchInsertAndExists(t *testing.T) {
	db := openMemDB(t)

	if err := db.InsertMatch(sampleMatch("abc123", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("InsertMatch: %v", err)
	}

	exists, err := db.MatchExists("abc123")
	if err != nil {
		t.Fatalf("MatchExists: %v", err)
	}
	if !exists {
		t.Error("expected match to exist after insert")
	}

	exists2, _ := db.MatchExists("nonexistent")
	if exists2 {
		t.Error("expected non-existent match to not exist")
	}
}

func TestListMatches(t *testing.T) {
	db := openMemDB(t)

	db.InsertMatch(sampleMatch("m1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	db.InsertMatch(sampleMatch("m2", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))

	list, err := db.ListMatches()
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(list))
	}
	// Newest first.
	if list[0].ID != "m2" {
		t.Errorf("expected m2 first (newest), got %s", list[0].ID)
	}
	if list[0].Winner != "Alpha" || list[0].MapsA != 2 || list[0].MapsB != 0 || list[0].MapCount != 2 {
		t.Errorf("unexpected summary %+v", list[0])
	}
}

func TestGetMatchByPrefix(t *testing.T) {
	db := openMemDB(t)

	db.InsertMatch(sampleMatch("deadbeef1234", time.Now()))

	s, err := db.GetMatchByPrefix("deadb")
	if err != nil {
		t.Fatalf("GetMatchByPrefix: %v", err)
	}
	if s == nil {
		t.Fatal("expected match for prefix 'deadb'")
	}
	if s.ID != "deadbeef1234" {
		t.Errorf("unexpected id %s", s.ID)
	}

	s2, err := db.GetMatchByPrefix("ffffffff")
	if err != nil {
		t.Fatalf("GetMatchByPrefix no-match: %v", err)
	}
	if s2 != nil {
		t.Error("expected nil for unknown prefix")
	}
}

func TestMapResultsRoundTrip(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatch(sampleMatch("h1", time.Now()))

	maps, err := db.GetMapResults("h1")
	if err != nil {
		t.Fatalf("GetMapResults: %v", err)
	}
	if len(maps) != 2 {
		t.Fatalf("expected 2 maps, got %d", len(maps))
	}
	if maps[0].Map != model.Ascent || maps[0].TeamAScore != 13 || maps[0].TeamBScore != 11 {
		t.Errorf("map 1 mismatch: %+v", maps[0])
	}
	if maps[0].TeamAAttackRounds != 7 || maps[0].TeamBDefenseRounds != 6 {
		t.Errorf("map 1 side split mismatch: %+v", maps[0])
	}
	if !maps[1].Overtime || maps[1].OvertimeRounds != 6 || maps[1].TieBreak != "survivors 40-38" {
		t.Errorf("map 2 overtime mismatch: %+v", maps[1])
	}
}

func TestPlayerMapStatsRoundTrip(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatch(sampleMatch("h1", time.Now()))

	got, err := db.GetPlayerMapStats("h1", 1)
	if err != nil {
		t.Fatalf("GetPlayerMapStats: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 player rows, got %d", len(got))
	}
	// Team A first, kills descending.
	if got[0].PlayerID != "a1" || got[1].PlayerID != "a2" || got[2].PlayerID != "b1" {
		t.Errorf("unexpected order: %s %s %s", got[0].PlayerID, got[1].PlayerID, got[2].PlayerID)
	}

	ace := got[0]
	if ace.Kills != 20 || ace.Deaths != 15 || ace.KASTRounds != 18 {
		t.Errorf("a1 stats mismatch: kills=%d deaths=%d kast=%d", ace.Kills, ace.Deaths, ace.KASTRounds)
	}
	if ace.Team != model.TeamA {
		t.Errorf("a1 team: expected A, got %v", ace.Team)
	}
	if ace.DoubleKills() != 2 || ace.AceKills() != 1 {
		t.Errorf("a1 multi-kills: doubles=%d aces=%d", ace.DoubleKills(), ace.AceKills())
	}
	if ace.ClutchesPlayed() != 2 || ace.ClutchesWon() != 1 || ace.ClutchSuccessRate != 50 {
		t.Errorf("a1 clutches: played=%d won=%d rate=%f", ace.ClutchesPlayed(), ace.ClutchesWon(), ace.ClutchSuccessRate)
	}
	if got[3].Team != model.TeamB || got[3].Deaths != 0 {
		t.Errorf("b2 mismatch: %+v", got[3])
	}
}

func TestRoundsRoundTrip(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatch(sampleMatch("h1", time.Now()))

	rounds, err := db.GetRounds("h1", 1)
	if err != nil {
		t.Fatalf("GetRounds: %v", err)
	}
	if len(rounds) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(rounds))
	}
	r := rounds[1]
	if r.Number != 2 || r.Winner != model.TeamB || r.WinnerSide != model.Defense {
		t.Errorf("round 2 header mismatch: %+v", r)
	}
	if len(r.Events) != 4 || r.Events[2].Type != model.EventTradeKill || !r.Events[1].Traded {
		t.Errorf("round 2 events mismatch: %+v", r.Events)
	}
	if r.FirstBlood == nil || r.FirstBlood.KillerID != "a1" || r.FirstBlood.Time != 12.5 {
		t.Errorf("first blood mismatch: %+v", r.FirstBlood)
	}
	if c := r.WonClutch(); c == nil || c.PlayerID != "b2" {
		t.Errorf("expected b2 clutch win, got %+v", c)
	}
	if r.SurvivorCount(model.TeamA) != 1 {
		t.Errorf("survivors mismatch: %v", r.Survivors)
	}

	none, err := db.GetRounds("h1", 2)
	if err != nil {
		t.Fatalf("GetRounds map 2: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no rounds stored for map 2, got %d", len(none))
	}
}

func TestPlayerCareerAndTotals(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatch(sampleMatch("m1", time.Now()))
	db.InsertMatch(sampleMatch("m2", time.Now()))

	career, err := db.GetPlayerCareer("a1")
	if err != nil {
		t.Fatalf("GetPlayerCareer: %v", err)
	}
	if len(career) != 4 {
		t.Fatalf("expected 4 map lines for a1, got %d", len(career))
	}

	totals, err := db.PlayerTotalsByIDs([]string{"a1", "b2"})
	if err != nil {
		t.Fatalf("PlayerTotalsByIDs: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected 2 totals, got %d", len(totals))
	}
	if totals[0].PlayerID != "a1" || totals[0].Kills != 90 || totals[0].Maps != 4 {
		t.Errorf("a1 totals mismatch: %+v", totals[0])
	}
}

func TestPlayerTrend(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatch(sampleMatch("late", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	db.InsertMatch(sampleMatch("early", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))

	pts, err := db.GetPlayerTrend("b1")
	if err != nil {
		t.Fatalf("GetPlayerTrend: %v", err)
	}
	if len(pts) != 4 {
		t.Fatalf("expected 4 points, got %d", len(pts))
	}
	if pts[0].MatchID != "early" || pts[0].MapNumber != 1 || pts[0].MapName != "Ascent" {
		t.Errorf("first point mismatch: %+v", pts[0])
	}
	if pts[1].MapName != "Bind" || pts[1].Kills != 22 || pts[1].Won {
		t.Errorf("second point mismatch: %+v", pts[1])
	}
	if pts[2].MatchID != "late" {
		t.Errorf("expected late match third, got %+v", pts[2])
	}

	a1, _ := db.GetPlayerTrend("a1")
	if len(a1) == 0 || !a1[0].Won {
		t.Errorf("expected a1 to have won the first map: %+v", a1)
	}
}

func TestOverview(t *testing.T) {
	db := openMemDB(t)

	ov, err := db.GetOverview()
	if err != nil {
		t.Fatalf("GetOverview empty: %v", err)
	}
	if ov.TotalMatches != 0 || ov.EarliestMatch != "" {
		t.Errorf("expected empty overview, got %+v", ov)
	}

	db.InsertMatch(sampleMatch("m1", time.Now()))
	ov, err = db.GetOverview()
	if err != nil {
		t.Fatalf("GetOverview: %v", err)
	}
	if ov.TotalMatches != 1 || ov.TotalMaps != 2 || ov.TotalRounds != 54 || ov.UniquePlayers != 4 {
		t.Errorf("overview counts mismatch: %+v", ov)
	}
	if ov.OvertimeMaps != 1 || ov.TieBreaks != 1 {
		t.Errorf("overview overtime mismatch: %+v", ov)
	}

	conds, err := db.GetWinConditionCounts()
	if err != nil {
		t.Fatalf("GetWinConditionCounts: %v", err)
	}
	if len(conds) != 1 || conds[0].Condition != "elimination" || conds[0].Rounds != 2 {
		t.Errorf("conditions mismatch: %+v", conds)
	}

	side, err := db.TeamSideStats("Alpha")
	if err != nil {
		t.Fatalf("TeamSideStats: %v", err)
	}
	if side.AttackWins != 7 || side.DefenseWins != 6 || side.AttackTotal != 2 || side.DefenseTotal != 0 {
		t.Errorf("side stats mismatch: %+v", side)
	}
}

func TestTeamMapRecords(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatch(sampleMatch("m1", time.Now()))

	alpha, err := db.TeamMapRecords("Alpha")
	if err != nil {
		t.Fatalf("TeamMapRecords: %v", err)
	}
	if len(alpha) != 2 {
		t.Fatalf("expected 2 maps for Alpha, got %d", len(alpha))
	}
	if alpha[0].MapName != "Ascent" || alpha[0].Played != 1 || alpha[0].Won != 1 || alpha[0].RoundsWon != 13 || alpha[0].RoundsPlayed != 24 {
		t.Errorf("Alpha Ascent mismatch: %+v", alpha[0])
	}
	if alpha[1].MapName != "Bind" || alpha[1].RoundsWon != 15 || alpha[1].RoundsPlayed != 30 {
		t.Errorf("Alpha Bind mismatch: %+v", alpha[1])
	}

	bravo, err := db.TeamMapRecords("Bravo")
	if err != nil {
		t.Fatalf("TeamMapRecords: %v", err)
	}
	if len(bravo) != 2 || bravo[0].Won != 0 || bravo[0].RoundsWon != 11 {
		t.Errorf("Bravo mismatch: %+v", bravo)
	}

	none, err := db.TeamMapRecords("Charlie")
	if err != nil || len(none) != 0 {
		t.Errorf("expected no records for unknown team, got %v (%v)", none, err)
	}
}

func TestInsertIdempotency(t *testing.T) {
	db := openMemDB(t)

	m := sampleMatch("idem1", time.Now())
	db.InsertMatch(m)
	// Second insert should not error (INSERT OR REPLACE).
	if err := db.InsertMatch(m); err != nil {
		t.Errorf("second InsertMatch should succeed (idempotent): %v", err)
	}
	list, _ := db.ListMatches()
	if len(list) != 1 {
		t.Errorf("expected 1 match after re-insert, got %d", len(list))
	}
}

func TestQueryRawAndReset(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatch(sampleMatch("m1", time.Now()))

	cols, rows, err := db.QueryRaw("SELECT map_name, total_rounds FROM map_results ORDER BY map_number")
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 2 || len(rows) != 2 || rows[0][0] != "Ascent" || rows[0][1] != "24" {
		t.Errorf("QueryRaw mismatch: cols=%v rows=%v", cols, rows)
	}

	if err := db.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	list, _ := db.ListMatches()
	if len(list) != 0 {
		t.Errorf("expected no matches after reset, got %d", len(list))
	}
}
