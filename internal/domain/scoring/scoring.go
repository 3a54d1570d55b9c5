// Package scoring computes the composite power score and the activity streak
// of a player.
package scoring

import (
	"math"
	"slices"
	"time"

	"github.com/okian/padel/internal/domain/model"
	"github.com/okian/padel/internal/domain/types"
)

// Power score weights and caps.
const (
	defaultLevel       = 2.0
	levelWeight        = 5.0
	winRateWeight      = 25.0
	confidenceMatches  = 50.0
	volumeWeight       = 2.0
	volumeCap          = 15.0
	competitiveDivisor = 10.0
	competitiveCap     = 10.0
	diversityDivisor   = 20.0
	diversityCap       = 5.0
	recencyWeight      = 5.0
	recencyHorizonDays = 90.0
	roundingScale      = 10.0
	hoursPerDay        = 24.0
)

// Streak thresholds in days and matches.
const (
	newPlayerDays     = 30
	newPlayerMaxMatch = 10
	hotDays           = 14
	hotMinWinRate     = 0.6
	hotMinMatches     = 10
	activeDays        = 30
	inactiveDays      = 60
)

// Fixed streak classifications.
var (
	Hot      = types.Streak{Kind: types.StreakHot, Label: "On Fire", Color: "#ef4444"}
	Rising   = types.Streak{Kind: types.StreakNew, Label: "Rising Star", Color: "#8b5cf6"}
	Active   = types.Streak{Kind: types.StreakSteady, Label: "Active", Color: "#22c55e"}
	Steady   = types.Streak{Kind: types.StreakSteady, Label: "Steady", Color: "#3b82f6"}
	Inactive = types.Streak{Kind: types.StreakCold, Label: "Inactive", Color: "#64748b"}
)

// Breakdown holds the individual terms of a power score.
type Breakdown struct {
	Level       float64 `json:"level"`
	WinRate     float64 `json:"winRate"`
	Confidence  float64 `json:"confidence"`
	Volume      float64 `json:"volume"`
	Competitive float64 `json:"competitive"`
	Diversity   float64 `json:"diversity"`
	Recency     float64 `json:"recency"`
	Total       float64 `json:"total"`
}

// daysSince returns the fractional days from t to now, never negative.
func daysSince(t, now time.Time) float64 {
	return math.Max(0, now.Sub(t).Hours()/hoursPerDay)
}

// Explain computes every term of the power score for p at now.
func Explain(p model.Player, now time.Time) Breakdown {
	level := defaultLevel
	if p.Level != nil {
		level = *p.Level
	}
	winRate := 0.0
	if p.WinRate != nil {
		winRate = *p.WinRate
	}
	matches := float64(p.MatchesPlayed)

	b := Breakdown{
		Level:       level * levelWeight,
		Confidence:  math.Min(matches/confidenceMatches, 1),
		Volume:      math.Min(math.Log2(matches+1)*volumeWeight, volumeCap),
		Competitive: math.Min(float64(p.CompetitiveMatches)/competitiveDivisor, competitiveCap),
		Diversity:   math.Min(float64(p.UniqueOpponents)/diversityDivisor, diversityCap),
	}
	b.WinRate = winRate * winRateWeight * b.Confidence
	if p.LastMatch != nil {
		b.Recency = math.Max(0, recencyWeight*(1-daysSince(*p.LastMatch, now)/recencyHorizonDays))
	}

	sum := b.Level + b.WinRate + b.Volume + b.Competitive + b.Diversity + b.Recency
	b.Total = math.Round(sum*roundingScale) / roundingScale
	return b
}

// Score returns the power score of p at now, rounded to one decimal.
func Score(p model.Player, now time.Time) float64 {
	return Explain(p, now).Total
}

// Classify returns the streak of p at now. Rules are evaluated in priority
// order and the first match wins.
func Classify(p model.Player, now time.Time) types.Streak {
	if p.LastMatch == nil {
		return Inactive
	}
	last := daysSince(*p.LastMatch, now)
	winRate := 0.0
	if p.WinRate != nil {
		winRate = *p.WinRate
	}

	switch {
	case p.FirstMatch != nil && daysSince(*p.FirstMatch, now) <= newPlayerDays && p.MatchesPlayed <= newPlayerMaxMatch:
		return Rising
	case last <= hotDays && winRate >= hotMinWinRate && p.MatchesPlayed >= hotMinMatches:
		return Hot
	case last <= activeDays:
		return Active
	case last > inactiveDays:
		return Inactive
	default:
		return Steady
	}
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithClock sets the time source used for recency and streaks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine ranks players by power score against a clock.
type Engine struct {
	now func() time.Time
}

// NewEngine creates an Engine using the wall clock unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Rank scores and classifies every player, orders them by score descending
// (input order on ties) and assigns 1-based ranks.
func (e *Engine) Rank(players []model.Player) []types.Entry {
	now := e.now()
	out := make([]types.Entry, 0, len(players))
	for _, p := range players {
		out = append(out, types.Entry{
			PlayerID:   p.ID,
			Name:       p.Name,
			Level:      p.Level,
			Matches:    p.MatchesPlayed,
			WinRate:    p.DisplayWinRate(),
			Clubs:      slices.Clone(p.Clubs),
			Premium:    p.Premium,
			Picture:    p.Picture,
			PowerScore: Score(p, now),
			Streak:     Classify(p, now),
		})
	}
	slices.SortStableFunc(out, func(a, b types.Entry) int {
		switch {
		case a.PowerScore > b.PowerScore:
			return -1
		case a.PowerScore < b.PowerScore:
			return 1
		}
		return 0
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
