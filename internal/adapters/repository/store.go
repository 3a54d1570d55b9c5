// Package repository reads player, edge and match rows from the storage
// backend and decodes them into the analytics model.
package repository

import (
	"context"
	"time"

	"github.com/okian/padel/internal/domain/model"
	"github.com/okian/padel/pkg/metrics"
)

// MaxPageSize bounds a single round-trip.
const MaxPageSize = 1000

// Row kinds used in logs and metrics.
const (
	KindPlayer   = "player"
	KindEdge     = "edge"
	KindMatch    = "match"
	KindIdentity = "identity"
)

// Page is a bounded window over an ordered result set.
type Page struct {
	Offset int
	Limit  int
}

// PlayerQuery holds the predicates pushed down to storage. Storage may return
// a superset; the analytics core filters again.
type PlayerQuery struct {
	MinMatches int
	MinLevel   *float64
	MaxLevel   *float64
	Club       string
	Search     string
}

// Batch is one decoded page. Read counts every row scanned, rejected rows
// included, so callers can tell a short page from a filtered one.
type Batch[T any] struct {
	Rows []T
	Read int
}

// Source is the read side of a storage backend. Page methods return rows in a
// stable order; a page that reads fewer rows than requested ends the result set.
type Source interface {
	// PlayersPage returns players matching q, most active first.
	PlayersPage(ctx context.Context, q PlayerQuery, page Page) (Batch[model.Player], error)
	// Player returns one player or ErrNotFound.
	Player(ctx context.Context, id string) (model.Player, error)
	// EdgesPage scans every edge with weight >= minWeight.
	EdgesPage(ctx context.Context, minWeight int, page Page) (Batch[model.Edge], error)
	// EdgesForPage returns edges with weight >= minWeight touching any of ids.
	EdgesForPage(ctx context.Context, ids []string, minWeight int, page Page) (Batch[model.Edge], error)
	// MatchesForPage returns the matches playerID took part in, oldest first.
	MatchesForPage(ctx context.Context, playerID string, page Page) (Batch[model.MatchRecord], error)
	// EdgeBetween returns the edge joining a and b or ErrNotFound.
	EdgeBetween(ctx context.Context, a, b string) (model.Edge, error)
	// Identities resolves ids to names and levels. Unknown ids are omitted.
	Identities(ctx context.Context, ids []string) ([]model.Identity, error)
	Close() error
}

// Fetch reads one page.
type Fetch[T any] func(ctx context.Context, page Page) (Batch[T], error)

// Collect pages through fetch until it reads an empty or short page.
// pageSize is clamped to 1..MaxPageSize.
func Collect[T any](ctx context.Context, kind string, pageSize int, fetch Fetch[T]) ([]T, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	var out []T
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := fetch(ctx, Page{Offset: offset, Limit: pageSize})
		if err != nil {
			return nil, err
		}
		metrics.RecordPageFetched(kind)
		metrics.RecordRowsFetched(kind, len(batch.Rows))
		out = append(out, batch.Rows...)
		if batch.Read < pageSize {
			return out, nil
		}
	}
}

// observe records the latency of a storage operation started at start.
func observe(op string, start time.Time) {
	metrics.RecordStorageQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
}
