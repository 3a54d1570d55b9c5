package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/okian/padel/internal/domain/filter"
	"github.com/okian/padel/internal/domain/graph"
	"github.com/okian/padel/internal/domain/leaderboard"
	"github.com/okian/padel/internal/domain/model"
	"github.com/okian/padel/internal/domain/scoring"
	"github.com/okian/padel/internal/domain/types"
	"github.com/okian/padel/pkg/logger"
	"github.com/okian/padel/pkg/metrics"
)

// DefaultPlayersLimit caps player listings when the caller gives no limit.
const DefaultPlayersLimit = 50

// GraphQuery selects the players and edges of a graph build. A nil MinWeight
// uses the configured default.
type GraphQuery struct {
	Criteria  filter.Criteria
	MinWeight *int
}

// GraphView is the graph payload with its leaderboards.
type GraphView struct {
	graph.Payload
	Leaderboard leaderboard.Leaderboard `json:"leaderboard"`
}

// RankingQuery selects and pages a power ranking. A non-positive Limit
// returns every ranked player from Offset on.
type RankingQuery struct {
	Criteria filter.Criteria
	Limit    int
	Offset   int
}

// RankingPage is one page of the power ranking.
type RankingPage struct {
	Entries     []types.Entry `json:"entries"`
	Total       int           `json:"total"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// PlayerCard is the summary of a player in listings.
type PlayerCard struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Level   *float64 `json:"level"`
	Matches int      `json:"matches"`
	WinRate *float64 `json:"winRate"`
	Clubs   []string `json:"clubs"`
	Premium bool     `json:"premium"`
	Picture *string  `json:"picture"`
}

// Profile is a single player with counters and power score.
type Profile struct {
	PlayerCard
	Gender             *string           `json:"gender"`
	Position           *string           `json:"position"`
	Confidence         *float64          `json:"confidence"`
	TotalBookings      int               `json:"totalBookings"`
	Wins               int               `json:"wins"`
	Losses             int               `json:"losses"`
	SetsWon            int               `json:"setsWon"`
	SetsLost           int               `json:"setsLost"`
	GamesWon           int               `json:"gamesWon"`
	GamesLost          int               `json:"gamesLost"`
	CompetitiveMatches int               `json:"competitiveMatches"`
	FriendlyMatches    int               `json:"friendlyMatches"`
	UniqueTeammates    int               `json:"uniqueTeammates"`
	UniqueOpponents    int               `json:"uniqueOpponents"`
	FirstMatch         *time.Time        `json:"firstMatch"`
	LastMatch          *time.Time        `json:"lastMatch"`
	PowerScore         float64           `json:"powerScore"`
	Breakdown          scoring.Breakdown `json:"breakdown"`
	Streak             types.Streak      `json:"streak"`
}

func card(p model.Player) PlayerCard {
	clubs := slices.Clone(p.Clubs)
	if clubs == nil {
		clubs = []string{}
	}
	return PlayerCard{
		ID:      p.ID,
		Name:    p.Name,
		Level:   p.Level,
		Matches: p.MatchesPlayed,
		WinRate: p.DisplayWinRate(),
		Clubs:   clubs,
		Premium: p.Premium,
		Picture: p.Picture,
	}
}

// Graph builds the filtered player graph and its leaderboards.
func (s *Service) Graph(ctx context.Context, q GraphQuery) (GraphView, error) {
	src, err := s.ready()
	if err != nil {
		return GraphView{}, err
	}
	defer timed("graph", time.Now())

	minWeight := s.defaultMinWeight
	if q.MinWeight != nil {
		minWeight = *q.MinWeight
	}

	players, considered, err := s.fetchPlayers(ctx, src, q.Criteria)
	if err != nil {
		return GraphView{}, err
	}
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	edges, err := s.fetchEdges(ctx, src, ids, minWeight)
	if err != nil {
		return GraphView{}, err
	}

	g := graph.Build(players, edges, minWeight, graph.WithPlayersConsidered(considered))
	payload := g.Payload()
	metrics.UpdateGraphSize(payload.Meta.Nodes, payload.Meta.Links)

	s.logger.Debug(ctx, "graph built",
		logger.Int("nodes", payload.Meta.Nodes),
		logger.Int("links", payload.Meta.Links),
		logger.Int("edgesScanned", payload.Meta.EdgesScanned),
		logger.Int("minWeight", minWeight),
	)
	return GraphView{
		Payload:     payload,
		Leaderboard: leaderboard.Compute(payload.Nodes, payload.Links),
	}, nil
}

// Rankings scores the filtered players and returns the requested page.
func (s *Service) Rankings(ctx context.Context, q RankingQuery) (RankingPage, error) {
	src, err := s.ready()
	if err != nil {
		return RankingPage{}, err
	}
	defer timed("rankings", time.Now())

	players, _, err := s.fetchPlayers(ctx, src, q.Criteria)
	if err != nil {
		return RankingPage{}, err
	}
	ranked := s.engine.Rank(players)

	start := min(max(q.Offset, 0), len(ranked))
	end := len(ranked)
	if q.Limit > 0 {
		end = min(start+q.Limit, len(ranked))
	}
	return RankingPage{
		Entries:     ranked[start:end],
		Total:       len(ranked),
		GeneratedAt: s.engine.Now(),
	}, nil
}

// Players lists the filtered players, most active first.
func (s *Service) Players(ctx context.Context, c filter.Criteria, limit int) ([]PlayerCard, error) {
	src, err := s.ready()
	if err != nil {
		return nil, err
	}
	defer timed("players", time.Now())

	if limit <= 0 {
		limit = DefaultPlayersLimit
	}
	players, _, err := s.fetchPlayers(ctx, src, c)
	if err != nil {
		return nil, err
	}
	out := make([]PlayerCard, 0, min(limit, len(players)))
	for _, p := range players[:min(limit, len(players))] {
		out = append(out, card(p))
	}
	return out, nil
}

// Player returns the profile of id with its power score and streak.
func (s *Service) Player(ctx context.Context, id string) (Profile, error) {
	src, err := s.ready()
	if err != nil {
		return Profile{}, err
	}

	p, err := src.Player(ctx, id)
	if err != nil {
		return Profile{}, fmt.Errorf("load player: %w", notFound(id, err))
	}

	now := s.engine.Now()
	b := scoring.Explain(p, now)
	return Profile{
		PlayerCard:         card(p),
		Gender:             p.Gender,
		Position:           p.Position,
		Confidence:         p.Confidence,
		TotalBookings:      p.TotalBookings,
		Wins:               p.Wins,
		Losses:             p.Losses,
		SetsWon:            p.SetsWon,
		SetsLost:           p.SetsLost,
		GamesWon:           p.GamesWon,
		GamesLost:          p.GamesLost,
		CompetitiveMatches: p.CompetitiveMatches,
		FriendlyMatches:    p.FriendlyMatches,
		UniqueTeammates:    p.UniqueTeammates,
		UniqueOpponents:    p.UniqueOpponents,
		FirstMatch:         p.FirstMatch,
		LastMatch:          p.LastMatch,
		PowerScore:         b.Total,
		Breakdown:          b,
		Streak:             scoring.Classify(p, now),
	}, nil
}
