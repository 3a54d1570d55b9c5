package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/padel/internal/domain/model"
	"github.com/okian/padel/pkg/logger"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var sqliteSchema string

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const sqlitePlayerColumns = `id, name, gender, level, confidence, position, premium, picture, clubs,
	matches_played, total_bookings, wins, losses, sets_won, sets_lost, games_won, games_lost,
	competitive_matches, friendly_matches, unique_teammates, unique_opponents,
	win_rate, first_match, last_match`

const sqliteEdgeColumns = `source, target, weight, clubs, last_played, relationship`

// SQLite is a Source backed by an embedded SQLite file. It also accepts
// writes so fixtures and the CLI can load data.
type SQLite struct {
	conn *sql.DB
	settings
}

var _ Source = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLite, error) {
	dsn := path
	if path != MemoryPath {
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == MemoryPath {
		// every pooled connection would otherwise see its own empty database
		conn.SetMaxOpenConns(1)
	}
	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	s := &SQLite{conn: conn, settings: newSettings(opts)}
	s.log.Info(ctx, "sqlite store opened", logger.String("path", path))
	return s, nil
}

// Close closes the underlying connection pool.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

func formatTime(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC().Format(timeLayout)
	return &v
}

func parseTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, v.String)
	if err != nil {
		if t, err = time.Parse(time.RFC3339Nano, v.String); err != nil {
			return nil, fmt.Errorf("timestamp %q: %w: %w", v.String, ErrInvalidRow, err)
		}
	}
	return &t, nil
}

func parseList(v sql.NullString) ([]string, error) {
	if !v.Valid || v.String == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(v.String), &out); err != nil {
		return nil, fmt.Errorf("list column %q: %w: %w", v.String, ErrInvalidRow, err)
	}
	return out, nil
}

func scanSQLitePlayer(rs rowScanner) (playerRow, error) {
	var (
		r                  playerRow
		clubs, first, last sql.NullString
	)
	err := rs.Scan(&r.ID, &r.Name, &r.Gender, &r.Level, &r.Confidence, &r.Position, &r.Premium, &r.Picture, &clubs,
		&r.MatchesPlayed, &r.TotalBookings, &r.Wins, &r.Losses, &r.SetsWon, &r.SetsLost, &r.GamesWon, &r.GamesLost,
		&r.CompetitiveMatches, &r.FriendlyMatches, &r.UniqueTeammates, &r.UniqueOpponents,
		&r.WinRate, &first, &last)
	if err != nil {
		return r, fmt.Errorf("scan player: %w", err)
	}
	if r.Clubs, err = parseList(clubs); err != nil {
		return r, err
	}
	if r.FirstMatch, err = parseTime(first); err != nil {
		return r, err
	}
	r.LastMatch, err = parseTime(last)
	return r, err
}

func scanSQLiteEdge(rs rowScanner) (edgeRow, error) {
	var (
		r           edgeRow
		clubs, last sql.NullString
	)
	if err := rs.Scan(&r.Source, &r.Target, &r.Weight, &clubs, &last, &r.Relationship); err != nil {
		return r, fmt.Errorf("scan edge: %w", err)
	}
	var err error
	if r.Clubs, err = parseList(clubs); err != nil {
		return r, err
	}
	r.LastPlayed, err = parseTime(last)
	return r, err
}

func scanSQLiteMatch(rs rowScanner) (matchRow, error) {
	var (
		r             matchRow
		played        sql.NullString
		teams, scores sql.NullString
	)
	if err := rs.Scan(&r.ID, &played, &r.Club, &teams, &scores, &r.CompetitionMode); err != nil {
		return r, fmt.Errorf("scan match: %w", err)
	}
	r.Teams, r.Sets = []byte(teams.String), []byte(scores.String)
	var err error
	r.PlayedAt, err = parseTime(played)
	return r, err
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// asciiTerm returns term when SQLite can compare it case-insensitively.
// lower() and LIKE fold ASCII only, so other terms are left to the caller's
// in-memory filter and the predicate is dropped.
func asciiTerm(term string) string {
	for i := 0; i < len(term); i++ {
		if term[i] >= utf8.RuneSelf {
			return ""
		}
	}
	return term
}

// PlayersPage implements Source. Club and name predicates are pushed down
// only for ASCII terms.
func (s *SQLite) PlayersPage(ctx context.Context, q PlayerQuery, page Page) (Batch[model.Player], error) {
	defer observe("sqlite_players_page", time.Now())

	club, search := asciiTerm(q.Club), asciiTerm(q.Search)
	rows, err := s.conn.QueryContext(ctx, `SELECT `+sqlitePlayerColumns+` FROM players
		WHERE matches_played >= ?
		  AND (? IS NULL OR level >= ?)
		  AND (? IS NULL OR level <= ?)
		  AND (? = '' OR EXISTS (SELECT 1 FROM json_each(players.clubs) c WHERE lower(trim(c.value)) = lower(trim(?))))
		  AND (? = '' OR name LIKE '%' || ? || '%')
		ORDER BY matches_played DESC, id
		LIMIT ? OFFSET ?`,
		q.MinMatches, q.MinLevel, q.MinLevel, q.MaxLevel, q.MaxLevel,
		club, club, search, search, page.Limit, page.Offset)
	if err != nil {
		return Batch[model.Player]{}, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()
	return readBatch(ctx, s.log, KindPlayer, rows, scanSQLitePlayer, playerRow.decode)
}

// Player implements Source.
func (s *SQLite) Player(ctx context.Context, id string) (model.Player, error) {
	defer observe("sqlite_player", time.Now())

	rows, err := s.conn.QueryContext(ctx, `SELECT `+sqlitePlayerColumns+` FROM players WHERE id = ?`, id)
	if err != nil {
		return model.Player{}, fmt.Errorf("query player %s: %w", id, err)
	}
	defer rows.Close()
	b, err := readBatch(ctx, s.log, KindPlayer, rows, scanSQLitePlayer, playerRow.decode)
	if err != nil {
		return model.Player{}, err
	}
	if len(b.Rows) == 0 {
		return model.Player{}, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	return b.Rows[0], nil
}

// EdgesPage implements Source.
func (s *SQLite) EdgesPage(ctx context.Context, minWeight int, page Page) (Batch[model.Edge], error) {
	defer observe("sqlite_edges_page", time.Now())

	rows, err := s.conn.QueryContext(ctx, `SELECT `+sqliteEdgeColumns+` FROM edges
		WHERE weight >= ?
		ORDER BY weight DESC, source, target
		LIMIT ? OFFSET ?`, minWeight, page.Limit, page.Offset)
	if err != nil {
		return Batch[model.Edge]{}, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()
	return readBatch(ctx, s.log, KindEdge, rows, scanSQLiteEdge, edgeRow.decode)
}

// EdgesForPage implements Source.
func (s *SQLite) EdgesForPage(ctx context.Context, ids []string, minWeight int, page Page) (Batch[model.Edge], error) {
	if len(ids) == 0 {
		return Batch[model.Edge]{Rows: []model.Edge{}}, nil
	}
	defer observe("sqlite_edges_for_page", time.Now())

	in := placeholders(len(ids))
	args := []any{minWeight}
	args = append(args, stringArgs(ids)...)
	args = append(args, stringArgs(ids)...)
	args = append(args, page.Limit, page.Offset)

	rows, err := s.conn.QueryContext(ctx, `SELECT `+sqliteEdgeColumns+` FROM edges
		WHERE weight >= ? AND (source IN (`+in+`) OR target IN (`+in+`))
		ORDER BY weight DESC, source, target
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return Batch[model.Edge]{}, fmt.Errorf("query edges for %d players: %w", len(ids), err)
	}
	defer rows.Close()
	return readBatch(ctx, s.log, KindEdge, rows, scanSQLiteEdge, edgeRow.decode)
}

// MatchesForPage implements Source.
func (s *SQLite) MatchesForPage(ctx context.Context, playerID string, page Page) (Batch[model.MatchRecord], error) {
	defer observe("sqlite_matches_page", time.Now())

	rows, err := s.conn.QueryContext(ctx, `SELECT m.id, m.played_at, m.club, m.teams, m.sets, m.competition_mode
		FROM matches m JOIN match_players mp ON mp.match_id = m.id
		WHERE mp.player_id = ?
		ORDER BY m.played_at, m.id
		LIMIT ? OFFSET ?`, playerID, page.Limit, page.Offset)
	if err != nil {
		return Batch[model.MatchRecord]{}, fmt.Errorf("query matches of %s: %w", playerID, err)
	}
	defer rows.Close()
	return readBatch(ctx, s.log, KindMatch, rows, scanSQLiteMatch, matchRow.decode)
}

// EdgeBetween implements Source.
func (s *SQLite) EdgeBetween(ctx context.Context, a, b string) (model.Edge, error) {
	defer observe("sqlite_edge_between", time.Now())

	rows, err := s.conn.QueryContext(ctx, `SELECT `+sqliteEdgeColumns+` FROM edges
		WHERE (source = ? AND target = ?) OR (source = ? AND target = ?)
		ORDER BY weight DESC LIMIT 1`, a, b, b, a)
	if err != nil {
		return model.Edge{}, fmt.Errorf("query edge %s-%s: %w", a, b, err)
	}
	defer rows.Close()
	batch, err := readBatch(ctx, s.log, KindEdge, rows, scanSQLiteEdge, edgeRow.decode)
	if err != nil {
		return model.Edge{}, err
	}
	if len(batch.Rows) == 0 {
		return model.Edge{}, fmt.Errorf("edge %s-%s: %w", a, b, ErrNotFound)
	}
	return batch.Rows[0], nil
}

// Identities implements Source.
func (s *SQLite) Identities(ctx context.Context, ids []string) ([]model.Identity, error) {
	if len(ids) == 0 {
		return []model.Identity{}, nil
	}
	defer observe("sqlite_identities", time.Now())

	rows, err := s.conn.QueryContext(ctx, `SELECT id, name, level FROM players WHERE id IN (`+placeholders(len(ids))+`)`, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	out := make([]model.Identity, 0, len(ids))
	for rows.Next() {
		var (
			ident model.Identity
			name  sql.NullString
		)
		if err := rows.Scan(&ident.ID, &name, &ident.Level); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		ident.Name = name.String
		out = append(out, ident)
	}
	return out, rows.Err()
}

// Seed writes players, edges and matches in one transaction, replacing rows
// with the same key.
func (s *SQLite) Seed(ctx context.Context, players []model.Player, edges []model.Edge, matches []model.MatchRecord) (err error) {
	defer observe("sqlite_seed", time.Now())

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, p := range players {
		clubs, _ := json.Marshal(nonNil(p.Clubs))
		if _, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO players(`+sqlitePlayerColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Gender, p.Level, p.Confidence, p.Position, p.Premium, p.Picture, string(clubs),
			p.MatchesPlayed, p.TotalBookings, p.Wins, p.Losses, p.SetsWon, p.SetsLost, p.GamesWon, p.GamesLost,
			p.CompetitiveMatches, p.FriendlyMatches, p.UniqueTeammates, p.UniqueOpponents,
			p.WinRate, formatTime(p.FirstMatch), formatTime(p.LastMatch)); err != nil {
			return fmt.Errorf("insert player %s: %w", p.ID, err)
		}
	}

	for _, e := range edges {
		clubs, _ := json.Marshal(nonNil(e.Clubs))
		if _, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO edges(`+sqliteEdgeColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			e.Source, e.Target, e.Weight, string(clubs), formatTime(e.LastPlayed), string(e.Relationship)); err != nil {
			return fmt.Errorf("insert edge %s-%s: %w", e.Source, e.Target, err)
		}
	}

	for _, m := range matches {
		if err = seedMatch(ctx, tx, m); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	s.log.Info(ctx, "seeded sqlite store",
		logger.Int("players", len(players)), logger.Int("edges", len(edges)), logger.Int("matches", len(matches)))
	return nil
}

func seedMatch(ctx context.Context, tx *sql.Tx, m model.MatchRecord) error {
	teams, err := encodeTeams(m)
	if err != nil {
		return fmt.Errorf("encode match %s teams: %w", m.ID, err)
	}
	sets, err := encodeSets(m)
	if err != nil {
		return fmt.Errorf("encode match %s sets: %w", m.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO matches(id, played_at, club, teams, sets, competition_mode)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, formatTime(&m.PlayedAt), m.Club, string(teams), string(sets), m.CompetitionMode); err != nil {
		return fmt.Errorf("insert match %s: %w", m.ID, err)
	}
	for _, t := range m.Teams {
		for _, pid := range t.Players {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO match_players(match_id, player_id) VALUES (?, ?)`, m.ID, pid); err != nil {
				return fmt.Errorf("insert match %s player %s: %w", m.ID, pid, err)
			}
		}
	}
	return nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// Counts returns the number of stored players, edges and matches.
func (s *SQLite) Counts(ctx context.Context) (players, edges, matches int, err error) {
	err = s.conn.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(1) FROM players), (SELECT COUNT(1) FROM edges), (SELECT COUNT(1) FROM matches)`).
		Scan(&players, &edges, &matches)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
	}
	return players, edges, matches, err
}
