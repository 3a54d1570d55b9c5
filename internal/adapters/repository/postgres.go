package repository

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okian/padel/internal/domain/model"
	"github.com/okian/padel/pkg/logger"
)

//go:embed schema_postgres.sql
var postgresSchema string

const pgPlayerColumns = `id, name, gender, level, confidence, position, premium, picture, clubs,
	matches_played, total_bookings, wins, losses, sets_won, sets_lost, games_won, games_lost,
	competitive_matches, friendly_matches, unique_teammates, unique_opponents,
	win_rate, first_match, last_match`

const pgEdgeColumns = `source, target, weight, clubs, last_played, relationship`

// Postgres is a Source backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	settings
}

var _ Source = (*Postgres)(nil)

// OpenPostgres connects to databaseURL and verifies the connection.
func OpenPostgres(ctx context.Context, databaseURL string, opts ...Option) (*Postgres, error) {
	s := newSettings(opts)

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if s.maxConns > 0 {
		cfg.MaxConns = s.maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s.log.Info(ctx, "postgres store opened",
		logger.String("host", cfg.ConnConfig.Host), logger.String("database", cfg.ConnConfig.Database),
		logger.Int("max_conns", int(cfg.MaxConns)))
	return &Postgres{pool: pool, settings: s}, nil
}

// EnsureSchema creates the tables and indexes when they are missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply postgres schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

func scanPgPlayer(rs rowScanner) (playerRow, error) {
	var r playerRow
	err := rs.Scan(&r.ID, &r.Name, &r.Gender, &r.Level, &r.Confidence, &r.Position, &r.Premium, &r.Picture, &r.Clubs,
		&r.MatchesPlayed, &r.TotalBookings, &r.Wins, &r.Losses, &r.SetsWon, &r.SetsLost, &r.GamesWon, &r.GamesLost,
		&r.CompetitiveMatches, &r.FriendlyMatches, &r.UniqueTeammates, &r.UniqueOpponents,
		&r.WinRate, &r.FirstMatch, &r.LastMatch)
	if err != nil {
		return r, fmt.Errorf("scan player: %w", err)
	}
	return r, nil
}

func scanPgEdge(rs rowScanner) (edgeRow, error) {
	var r edgeRow
	if err := rs.Scan(&r.Source, &r.Target, &r.Weight, &r.Clubs, &r.LastPlayed, &r.Relationship); err != nil {
		return r, fmt.Errorf("scan edge: %w", err)
	}
	return r, nil
}

func scanPgMatch(rs rowScanner) (matchRow, error) {
	var r matchRow
	if err := rs.Scan(&r.ID, &r.PlayedAt, &r.Club, &r.Teams, &r.Sets, &r.CompetitionMode); err != nil {
		return r, fmt.Errorf("scan match: %w", err)
	}
	return r, nil
}

// PlayersPage implements Source.
func (s *Postgres) PlayersPage(ctx context.Context, q PlayerQuery, page Page) (Batch[model.Player], error) {
	defer observe("pg_players_page", time.Now())

	rows, err := s.pool.Query(ctx, `SELECT `+pgPlayerColumns+` FROM players
		WHERE matches_played >= $1
		  AND ($2::float8 IS NULL OR level >= $2)
		  AND ($3::float8 IS NULL OR level <= $3)
		  AND ($4 = '' OR EXISTS (SELECT 1 FROM unnest(clubs) c WHERE lower(trim(c)) = lower(trim($4))))
		  AND ($5 = '' OR name ILIKE '%' || $5 || '%')
		ORDER BY matches_played DESC, id
		LIMIT $6 OFFSET $7`,
		q.MinMatches, q.MinLevel, q.MaxLevel, q.Club, q.Search, page.Limit, page.Offset)
	if err != nil {
		return Batch[model.Player]{}, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()
	return readBatch(ctx, s.log, KindPlayer, rows, scanPgPlayer, playerRow.decode)
}

// Player implements Source.
func (s *Postgres) Player(ctx context.Context, id string) (model.Player, error) {
	defer observe("pg_player", time.Now())

	rows, err := s.pool.Query(ctx, `SELECT `+pgPlayerColumns+` FROM players WHERE id = $1`, id)
	if err != nil {
		return model.Player{}, fmt.Errorf("query player %s: %w", id, err)
	}
	defer rows.Close()
	b, err := readBatch(ctx, s.log, KindPlayer, rows, scanPgPlayer, playerRow.decode)
	if err != nil {
		return model.Player{}, err
	}
	if len(b.Rows) == 0 {
		return model.Player{}, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	return b.Rows[0], nil
}

// EdgesPage implements Source.
func (s *Postgres) EdgesPage(ctx context.Context, minWeight int, page Page) (Batch[model.Edge], error) {
	defer observe("pg_edges_page", time.Now())

	rows, err := s.pool.Query(ctx, `SELECT `+pgEdgeColumns+` FROM edges
		WHERE weight >= $1
		ORDER BY weight DESC, source, target
		LIMIT $2 OFFSET $3`, minWeight, page.Limit, page.Offset)
	if err != nil {
		return Batch[model.Edge]{}, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()
	return readBatch(ctx, s.log, KindEdge, rows, scanPgEdge, edgeRow.decode)
}

// EdgesForPage implements Source.
func (s *Postgres) EdgesForPage(ctx context.Context, ids []string, minWeight int, page Page) (Batch[model.Edge], error) {
	if len(ids) == 0 {
		return Batch[model.Edge]{Rows: []model.Edge{}}, nil
	}
	defer observe("pg_edges_for_page", time.Now())

	rows, err := s.pool.Query(ctx, `SELECT `+pgEdgeColumns+` FROM edges
		WHERE weight >= $1 AND (source = ANY($2) OR target = ANY($2))
		ORDER BY weight DESC, source, target
		LIMIT $3 OFFSET $4`, minWeight, ids, page.Limit, page.Offset)
	if err != nil {
		return Batch[model.Edge]{}, fmt.Errorf("query edges for %d players: %w", len(ids), err)
	}
	defer rows.Close()
	return readBatch(ctx, s.log, KindEdge, rows, scanPgEdge, edgeRow.decode)
}

// MatchesForPage implements Source.
func (s *Postgres) MatchesForPage(ctx context.Context, playerID string, page Page) (Batch[model.MatchRecord], error) {
	defer observe("pg_matches_page", time.Now())

	rows, err := s.pool.Query(ctx, `SELECT id, played_at, club, teams, sets, competition_mode FROM matches
		WHERE $1 = ANY(player_ids)
		ORDER BY played_at, id
		LIMIT $2 OFFSET $3`, playerID, page.Limit, page.Offset)
	if err != nil {
		return Batch[model.MatchRecord]{}, fmt.Errorf("query matches of %s: %w", playerID, err)
	}
	defer rows.Close()
	return readBatch(ctx, s.log, KindMatch, rows, scanPgMatch, matchRow.decode)
}

// EdgeBetween implements Source.
func (s *Postgres) EdgeBetween(ctx context.Context, a, b string) (model.Edge, error) {
	defer observe("pg_edge_between", time.Now())

	rows, err := s.pool.Query(ctx, `SELECT `+pgEdgeColumns+` FROM edges
		WHERE (source = $1 AND target = $2) OR (source = $2 AND target = $1)
		ORDER BY weight DESC LIMIT 1`, a, b)
	if err != nil {
		return model.Edge{}, fmt.Errorf("query edge %s-%s: %w", a, b, err)
	}
	defer rows.Close()
	batch, err := readBatch(ctx, s.log, KindEdge, rows, scanPgEdge, edgeRow.decode)
	if err != nil {
		return model.Edge{}, err
	}
	if len(batch.Rows) == 0 {
		return model.Edge{}, fmt.Errorf("edge %s-%s: %w", a, b, ErrNotFound)
	}
	return batch.Rows[0], nil
}

// Identities implements Source.
func (s *Postgres) Identities(ctx context.Context, ids []string) ([]model.Identity, error) {
	if len(ids) == 0 {
		return []model.Identity{}, nil
	}
	defer observe("pg_identities", time.Now())

	rows, err := s.pool.Query(ctx, `SELECT id, COALESCE(name, ''), level FROM players WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Identity, error) {
		var ident model.Identity
		err := row.Scan(&ident.ID, &ident.Name, &ident.Level)
		return ident, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan identities: %w", err)
	}
	return out, nil
}
