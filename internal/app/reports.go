package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/okian/padel/internal/adapters/repository"
	"github.com/okian/padel/internal/domain/h2h"
	"github.com/okian/padel/internal/domain/history"
	"github.com/okian/padel/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

// HistoryQuery scopes a match history report. Empty Clubs keeps every match;
// a non-positive Limit uses the default number of history entries.
type HistoryQuery struct {
	Clubs []string
	Limit int
}

// History analyses every stored match of id.
func (s *Service) History(ctx context.Context, id string, q HistoryQuery) (history.Report, error) {
	src, err := s.ready()
	if err != nil {
		return history.Report{}, err
	}
	defer timed("history", time.Now())

	if _, err := src.Player(ctx, id); err != nil {
		return history.Report{}, fmt.Errorf("load player: %w", notFound(id, err))
	}
	matches, err := s.fetchMatches(ctx, src, id)
	if err != nil {
		return history.Report{}, err
	}
	names, err := s.directory(ctx, src, participants(matches, id))
	if err != nil {
		return history.Report{}, err
	}

	return history.Analyze(id, matches, names,
		history.WithScope(history.ClubScope(q.Clubs...)),
		history.WithHistoryLimit(q.Limit),
	), nil
}

// HeadToHead compares players a and b.
func (s *Service) HeadToHead(ctx context.Context, a, b string) (h2h.Report, error) {
	src, err := s.ready()
	if err != nil {
		return h2h.Report{}, err
	}
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == b {
		return h2h.Report{}, fmt.Errorf("compare %s: %w", a, ErrSamePlayer)
	}
	defer timed("h2h", time.Now())

	var (
		in       h2h.Input
		matchesA []model.MatchRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.resolveConcurrency)
	g.Go(func() error {
		p, err := src.Player(gctx, a)
		if err != nil {
			return fmt.Errorf("load player: %w", notFound(a, err))
		}
		in.A = p
		return nil
	})
	g.Go(func() error {
		p, err := src.Player(gctx, b)
		if err != nil {
			return fmt.Errorf("load player: %w", notFound(b, err))
		}
		in.B = p
		return nil
	})
	g.Go(func() error {
		edges, err := s.fetchEdges(gctx, src, []string{a}, 1)
		in.EdgesA = edges
		return err
	})
	g.Go(func() error {
		edges, err := s.fetchEdges(gctx, src, []string{b}, 1)
		in.EdgesB = edges
		return err
	})
	g.Go(func() error {
		e, err := src.EdgeBetween(gctx, a, b)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil
		case err != nil:
			return fmt.Errorf("direct edge: %w", err)
		}
		in.Direct = &e
		return nil
	})
	g.Go(func() error {
		m, err := s.fetchMatches(gctx, src, a)
		matchesA = m
		return err
	})
	if err := g.Wait(); err != nil {
		return h2h.Report{}, err
	}

	in.Shared = make([]model.MatchRecord, 0)
	for _, m := range matchesA {
		if m.SideOf(b) >= 0 {
			in.Shared = append(in.Shared, m)
		}
	}

	names, err := s.directory(ctx, src, commonNeighbors(a, b, in.EdgesA, in.EdgesB))
	if err != nil {
		return h2h.Report{}, err
	}
	in.Names = names

	return h2h.Compare(in, h2h.WithEdgeLimit(s.h2hEdgeLimit)), nil
}

// commonNeighbors returns the ids adjacent to both a and b, in edgesA order.
func commonNeighbors(a, b string, edgesA, edgesB []model.Edge) []string {
	ofB := make(map[string]struct{}, len(edgesB))
	for _, e := range edgesB {
		if other, ok := e.Other(b); ok {
			ofB[other] = struct{}{}
		}
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, e := range edgesA {
		other, ok := e.Other(a)
		if !ok {
			continue
		}
		if _, shared := ofB[other]; !shared {
			continue
		}
		if _, dup := seen[other]; dup {
			continue
		}
		seen[other] = struct{}{}
		out = append(out, other)
	}
	return out
}
