package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/padel/internal/domain/model"
	"github.com/okian/padel/pkg/logger"
	"github.com/okian/padel/pkg/metrics"
)

// playerRow is a players row as scanned, before validation.
type playerRow struct {
	ID         *string
	Name       *string
	Gender     *string
	Level      *float64
	Confidence *float64
	Position   *string
	Premium    *bool
	Picture    *string
	Clubs      []string

	MatchesPlayed      int64
	TotalBookings      int64
	Wins               int64
	Losses             int64
	SetsWon            int64
	SetsLost           int64
	GamesWon           int64
	GamesLost          int64
	CompetitiveMatches int64
	FriendlyMatches    int64
	UniqueTeammates    int64
	UniqueOpponents    int64

	WinRate    *float64
	FirstMatch *time.Time
	LastMatch  *time.Time
}

// edgeRow is an edges row as scanned.
type edgeRow struct {
	Source       *string
	Target       *string
	Weight       int64
	Clubs        []string
	LastPlayed   *time.Time
	Relationship *string
}

// matchRow is a matches row as scanned. Teams and sets are JSON documents.
type matchRow struct {
	ID              *string
	PlayedAt        *time.Time
	Club            *string
	Teams           []byte
	Sets            []byte
	CompetitionMode *string
}

// teamDoc is the stored shape of one team.
type teamDoc struct {
	Players []string `json:"players"`
	Result  string   `json:"result"`
}

// setDoc is the stored shape of one set: [team1Games, team2Games], either may be null.
type setDoc [2]*int

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func (r playerRow) decode() (model.Player, error) {
	if blank(r.ID) {
		return model.Player{}, fmt.Errorf("player without id: %w", ErrInvalidRow)
	}
	p := model.Player{
		ID:                 *r.ID,
		Name:               strings.TrimSpace(str(r.Name)),
		Gender:             r.Gender,
		Level:              r.Level,
		Confidence:         r.Confidence,
		Position:           r.Position,
		Premium:            r.Premium != nil && *r.Premium,
		Picture:            r.Picture,
		Clubs:              r.Clubs,
		MatchesPlayed:      int(r.MatchesPlayed),
		TotalBookings:      int(r.TotalBookings),
		Wins:               int(r.Wins),
		Losses:             int(r.Losses),
		SetsWon:            int(r.SetsWon),
		SetsLost:           int(r.SetsLost),
		GamesWon:           int(r.GamesWon),
		GamesLost:          int(r.GamesLost),
		CompetitiveMatches: int(r.CompetitiveMatches),
		FriendlyMatches:    int(r.FriendlyMatches),
		UniqueTeammates:    int(r.UniqueTeammates),
		UniqueOpponents:    int(r.UniqueOpponents),
		WinRate:            r.WinRate,
		FirstMatch:         r.FirstMatch,
		LastMatch:          r.LastMatch,
	}
	if p.Clubs == nil {
		p.Clubs = []string{}
	}
	return p, nil
}

func (r edgeRow) decode() (model.Edge, error) {
	if blank(r.Source) || blank(r.Target) {
		return model.Edge{}, fmt.Errorf("edge without endpoints: %w", ErrInvalidRow)
	}
	if *r.Source == *r.Target {
		return model.Edge{}, fmt.Errorf("self-loop edge on %s: %w", *r.Source, ErrInvalidRow)
	}
	e := model.Edge{
		Source:       *r.Source,
		Target:       *r.Target,
		Weight:       int(r.Weight),
		Clubs:        r.Clubs,
		LastPlayed:   r.LastPlayed,
		Relationship: model.Relationship(str(r.Relationship)),
	}
	if e.Clubs == nil {
		e.Clubs = []string{}
	}
	return e, nil
}

func (r matchRow) decode() (model.MatchRecord, error) {
	if blank(r.ID) {
		return model.MatchRecord{}, fmt.Errorf("match without id: %w", ErrInvalidRow)
	}
	var teams []teamDoc
	if err := json.Unmarshal(r.Teams, &teams); err != nil {
		return model.MatchRecord{}, fmt.Errorf("match %s teams: %w: %w", *r.ID, ErrInvalidRow, err)
	}
	if len(teams) != 2 {
		return model.MatchRecord{}, fmt.Errorf("match %s has %d teams: %w", *r.ID, len(teams), ErrInvalidRow)
	}

	m := model.MatchRecord{
		ID:              *r.ID,
		Club:            str(r.Club),
		CompetitionMode: r.CompetitionMode,
	}
	if r.PlayedAt != nil {
		m.PlayedAt = *r.PlayedAt
	}
	for i, t := range teams {
		if len(t.Players) == 0 || len(t.Players) > 2 {
			return model.MatchRecord{}, fmt.Errorf("match %s team %d has %d players: %w", *r.ID, i+1, len(t.Players), ErrInvalidRow)
		}
		m.Teams[i] = model.Team{Players: t.Players, Result: model.TeamResult(strings.ToUpper(t.Result))}
	}

	if len(r.Sets) > 0 {
		var sets []setDoc
		if err := json.Unmarshal(r.Sets, &sets); err != nil {
			return model.MatchRecord{}, fmt.Errorf("match %s sets: %w: %w", *r.ID, ErrInvalidRow, err)
		}
		for _, s := range sets {
			m.Sets = append(m.Sets, model.SetScore{Team1: s[0], Team2: s[1]})
		}
	}
	return m, nil
}

// rowScanner is the cursor surface shared by database/sql and pgx.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// readBatch drains rows, decoding each one. Rows failing with ErrInvalidRow
// are rejected and skipped; any other error aborts the page.
func readBatch[R, T any](ctx context.Context, log logger.Logger, kind string, rows rowScanner, scan func(rowScanner) (R, error), decode func(R) (T, error)) (Batch[T], error) {
	b := Batch[T]{Rows: []T{}}
	for rows.Next() {
		b.Read++
		raw, err := scan(rows)
		if err == nil {
			var v T
			if v, err = decode(raw); err == nil {
				b.Rows = append(b.Rows, v)
				continue
			}
		}
		if !errors.Is(err, ErrInvalidRow) {
			return Batch[T]{}, err
		}
		reject(ctx, log, kind, err)
	}
	if err := rows.Err(); err != nil {
		return Batch[T]{}, err
	}
	return b, nil
}

// reject logs and counts a row dropped at the boundary.
func reject(ctx context.Context, log logger.Logger, kind string, err error) {
	metrics.RecordRowRejected(kind)
	log.Warn(ctx, "rejected storage row", logger.String("kind", kind), logger.Error(err))
}

// encodeTeams and encodeSets produce the stored JSON documents of a match.
func encodeTeams(m model.MatchRecord) ([]byte, error) {
	docs := make([]teamDoc, 0, len(m.Teams))
	for _, t := range m.Teams {
		docs = append(docs, teamDoc{Players: t.Players, Result: string(t.Result)})
	}
	return json.Marshal(docs)
}

func encodeSets(m model.MatchRecord) ([]byte, error) {
	docs := make([]setDoc, 0, len(m.Sets))
	for _, s := range m.Sets {
		docs = append(docs, setDoc{s.Team1, s.Team2})
	}
	return json.Marshal(docs)
}
