package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	repository "github.com/okian/padel/internal/adapters/repository"
	"github.com/okian/padel/internal/domain/filter"
	"github.com/okian/padel/internal/domain/model"
	"github.com/okian/padel/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// fetchPlayers pushes the cheap predicates down to storage and applies the
// full criteria in memory. It also returns how many rows storage produced.
func (s *Service) fetchPlayers(ctx context.Context, src repository.Source, c filter.Criteria) ([]model.Player, int, error) {
	q := repository.PlayerQuery{
		MinMatches: c.EffectiveMinMatches(s.defaultMinMatches),
		Club:       strings.TrimSpace(c.Club),
		Search:     strings.TrimSpace(c.Search),
	}
	if c.LevelBounded() {
		lo, hi := c.MinLevel, c.MaxLevel
		q.MinLevel, q.MaxLevel = &lo, &hi
	}

	rows, err := repository.Collect(ctx, repository.KindPlayer, s.pageSize,
		func(ctx context.Context, p repository.Page) (repository.Batch[model.Player], error) {
			return src.PlayersPage(ctx, q, p)
		})
	if err != nil {
		return nil, 0, fmt.Errorf("fetch players: %w", err)
	}
	return filter.Apply(rows, c, filter.WithDefaultMinMatches(s.defaultMinMatches)), len(rows), nil
}

// fetchEdges returns the edges of weight >= minWeight touching ids, ordered
// by weight desc then endpoints. Large id sets are served by one broad scan,
// smaller ones by concurrent per-chunk lookups; both paths yield the same set.
func (s *Service) fetchEdges(ctx context.Context, src repository.Source, ids []string, minWeight int) ([]model.Edge, error) {
	if len(ids) == 0 {
		return []model.Edge{}, nil
	}

	if len(ids) > s.broadScanThreshold {
		s.logger.Debug(ctx, "broad edge scan", logger.Int("ids", len(ids)), logger.Int("minWeight", minWeight))
		rows, err := repository.Collect(ctx, repository.KindEdge, s.pageSize,
			func(ctx context.Context, p repository.Page) (repository.Batch[model.Edge], error) {
				return src.EdgesPage(ctx, minWeight, p)
			})
		if err != nil {
			return nil, fmt.Errorf("scan edges: %w", err)
		}
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		out := make([]model.Edge, 0, len(rows))
		for _, e := range rows {
			_, from := set[e.Source]
			_, to := set[e.Target]
			if from || to {
				out = append(out, e)
			}
		}
		return out, nil
	}

	chunks := chunk(ids, s.resolveBatchSize)
	results := make([][]model.Edge, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.resolveConcurrency)
	for i, part := range chunks {
		g.Go(func() error {
			rows, err := repository.Collect(gctx, repository.KindEdge, s.pageSize,
				func(ctx context.Context, p repository.Page) (repository.Batch[model.Edge], error) {
					return src.EdgesForPage(ctx, part, minWeight, p)
				})
			if err != nil {
				return fmt.Errorf("edges for chunk %d: %w", i, err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	out := make([]model.Edge, 0)
	for _, rows := range results {
		for _, e := range rows {
			key := e.Source + "|" + e.Target
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Edge) int {
		if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return cmp.Compare(a.Target, b.Target)
	})
	return out, nil
}

// fetchMatches returns every stored match of playerID, oldest first.
func (s *Service) fetchMatches(ctx context.Context, src repository.Source, playerID string) ([]model.MatchRecord, error) {
	rows, err := repository.Collect(ctx, repository.KindMatch, s.pageSize,
		func(ctx context.Context, p repository.Page) (repository.Batch[model.MatchRecord], error) {
			return src.MatchesForPage(ctx, playerID, p)
		})
	if err != nil {
		return nil, fmt.Errorf("fetch matches of %s: %w", playerID, err)
	}
	return rows, nil
}

// directory resolves ids in concurrent batches. Unknown ids are left out and
// resolve to the placeholder identity later.
func (s *Service) directory(ctx context.Context, src repository.Source, ids []string) (model.Directory, error) {
	dir := make(model.Directory, len(ids))
	if len(ids) == 0 {
		return dir, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.resolveConcurrency)
	for _, part := range chunk(ids, s.resolveBatchSize) {
		g.Go(func() error {
			found, err := src.Identities(gctx, part)
			if err != nil {
				return fmt.Errorf("resolve %d identities: %w", len(part), err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, ident := range found {
				dir[ident.ID] = ident
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dir, nil
}

// participants returns the distinct player ids of matches, excluding skip.
func participants(matches []model.MatchRecord, skip string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, m := range matches {
		for _, t := range m.Teams {
			for _, id := range t.Players {
				if id == skip {
					continue
				}
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}

func chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	out := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}
