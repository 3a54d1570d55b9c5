// Package history analyses one player's matches: form, partner synergy,
// nemesis and favorite opponents, club breakdown and set/game statistics.
package history

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/okian/padel/internal/domain/model"
)

// Outcome is a match result from the subject's perspective.
type Outcome string

const (
	Win  Outcome = "W"
	Loss Outcome = "L"
)

// Analysis limits.
const (
	DefaultHistoryLimit = 20
	formLength          = 10
	rollingWindow       = 10
	rollingKeep         = 20
	minRankedMatches    = 3
	minListedMatches    = 2
	listedRecords       = 10
	threeSetThreshold   = 3
)

// SetLine is a set score from the subject's perspective. Retired marks a set
// where one side was not scored; that side counts as zero games.
type SetLine struct {
	Mine    int  `json:"mine"`
	Theirs  int  `json:"theirs"`
	Retired bool `json:"retired,omitempty"`
}

// Entry is one match seen by the subject.
type Entry struct {
	MatchID         string           `json:"matchId"`
	PlayedAt        time.Time        `json:"playedAt"`
	Club            string           `json:"club"`
	Result          Outcome          `json:"result"`
	Partner         *model.Identity  `json:"partner"`
	Opponents       []model.Identity `json:"opponents"`
	Sets            []SetLine        `json:"sets"`
	Score           string           `json:"score"`
	CompetitionMode *string          `json:"competitionMode"`
}

// Record is a win/loss aggregate against or alongside another player.
type Record struct {
	model.Identity
	Matches int     `json:"matches"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"winRate"`
}

// GroupRecord is a win/loss aggregate keyed by a label (club, competition mode).
type GroupRecord struct {
	Label   string  `json:"label"`
	Matches int     `json:"matches"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"winRate"`
}

// Form describes recent results.
type Form struct {
	Last              []Outcome `json:"last"`
	Streak            int       `json:"streak"`
	StreakType        Outcome   `json:"streakType"`
	Rolling           []float64 `json:"rolling"`
	LongestWinStreak  int       `json:"longestWinStreak"`
	LongestLossStreak int       `json:"longestLossStreak"`
}

// Advanced holds set and game statistics.
type Advanced struct {
	SetsWon         int      `json:"setsWon"`
	SetsLost        int      `json:"setsLost"`
	GamesWon        int      `json:"gamesWon"`
	GamesLost       int      `json:"gamesLost"`
	SetRatio        *float64 `json:"setRatio"`
	GameRatio       *float64 `json:"gameRatio"`
	SetWinPct       float64  `json:"setWinPct"`
	GameWinPct      float64  `json:"gameWinPct"`
	ThreeSetMatches int      `json:"threeSetMatches"`
	ThreeSetWins    int      `json:"threeSetWins"`
	ThreeSetWinRate float64  `json:"threeSetWinRate"`
	Bagels          int      `json:"bagels"`
	Breadsticks     int      `json:"breadsticks"`
}

// Report is the full match-history analysis of one player.
type Report struct {
	PlayerID     string        `json:"playerId"`
	TotalMatches int           `json:"totalMatches"`
	Wins         int           `json:"wins"`
	Losses       int           `json:"losses"`
	WinRate      float64       `json:"winRate"`
	History      []Entry       `json:"history"`
	Form         Form          `json:"form"`
	Partners     []Record      `json:"partners"`
	BestPartner  *Record       `json:"bestPartner"`
	WorstPartner *Record       `json:"worstPartner"`
	Opponents    []Record      `json:"opponents"`
	Nemesis      *Record       `json:"nemesis"`
	Favorite     *Record       `json:"favorite"`
	Clubs        []GroupRecord `json:"clubs"`
	Modes        []GroupRecord `json:"modes"`
	Advanced     Advanced      `json:"advanced"`
}

// Scope restricts which matches are analysed.
type Scope func(model.MatchRecord) bool

// ClubScope keeps matches played at any of clubs (case-insensitive). With no
// clubs it keeps everything.
func ClubScope(clubs ...string) Scope {
	return func(m model.MatchRecord) bool {
		if len(clubs) == 0 {
			return true
		}
		for _, c := range clubs {
			if strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(m.Club)) {
				return true
			}
		}
		return false
	}
}

type options struct {
	scope        Scope
	historyLimit int
}

// Option configures Analyze.
type Option func(*options)

// WithScope restricts the analysed matches.
func WithScope(s Scope) Option {
	return func(o *options) {
		if s != nil {
			o.scope = s
		}
	}
}

// WithHistoryLimit sets how many recent entries the report exposes.
func WithHistoryLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.historyLimit = n
		}
	}
}

// Perspective is a decided match seen from one player's side.
type Perspective struct {
	Side      int
	Result    Outcome
	Partner   string
	Opponents []string
	Sets      []SetLine
}

// View resolves match m from the side of id. It reports false when id did
// not play, or when either team lacks a WON/LOST result.
func View(m model.MatchRecord, id string) (Perspective, bool) {
	side := m.SideOf(id)
	if side < 0 || !m.Decided() {
		return Perspective{}, false
	}
	mine, theirs := m.Teams[side], m.Teams[1-side]

	p := Perspective{Side: side, Result: Loss, Opponents: slices.Clone(theirs.Players)}
	if mine.Result == model.Won {
		p.Result = Win
	}
	for _, pid := range mine.Players {
		if pid != id {
			p.Partner = pid
			break
		}
	}
	for _, s := range m.Sets {
		if s.Team1 == nil && s.Team2 == nil {
			continue
		}
		line := SetLine{Mine: deref(s.Team1), Theirs: deref(s.Team2), Retired: s.Team1 == nil || s.Team2 == nil}
		if side == 1 {
			line.Mine, line.Theirs = line.Theirs, line.Mine
		}
		p.Sets = append(p.Sets, line)
	}
	return p, true
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// tally accumulates a Record in first-seen order.
type tally struct {
	order []string
	byID  map[string]*Record
}

func newTally() *tally {
	return &tally{byID: map[string]*Record{}}
}

func (t *tally) add(ident model.Identity, won bool) {
	r, ok := t.byID[ident.ID]
	if !ok {
		r = &Record{Identity: ident}
		t.byID[ident.ID] = r
		t.order = append(t.order, ident.ID)
	}
	r.Matches++
	if won {
		r.Wins++
	} else {
		r.Losses++
	}
	r.WinRate = model.Ratio(r.Wins, r.Matches)
}

func (t *tally) records() []Record {
	out := make([]Record, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.byID[id])
	}
	return out
}

// groups accumulates GroupRecords in first-seen order.
type groups struct {
	order   []string
	byLabel map[string]*GroupRecord
}

func newGroups() *groups {
	return &groups{byLabel: map[string]*GroupRecord{}}
}

func (g *groups) add(label string, won bool) {
	r, ok := g.byLabel[label]
	if !ok {
		r = &GroupRecord{Label: label}
		g.byLabel[label] = r
		g.order = append(g.order, label)
	}
	r.Matches++
	if won {
		r.Wins++
	} else {
		r.Losses++
	}
	r.WinRate = model.Ratio(r.Wins, r.Matches)
}

func (g *groups) sorted() []GroupRecord {
	out := make([]GroupRecord, 0, len(g.order))
	for _, l := range g.order {
		out = append(out, *g.byLabel[l])
	}
	slices.SortStableFunc(out, func(a, b GroupRecord) int { return cmp.Compare(b.Matches, a.Matches) })
	return out
}

// Analyze computes the report for subjectID over matches. Matches the subject
// did not play, or that lack a result on either team, are skipped. Aggregates
// cover every analysed match; only History is truncated.
func Analyze(subjectID string, matches []model.MatchRecord, names model.Directory, opts ...Option) Report {
	o := options{scope: ClubScope(), historyLimit: DefaultHistoryLimit}
	for _, opt := range opts {
		opt(&o)
	}

	ordered := make([]model.MatchRecord, 0, len(matches))
	for _, m := range matches {
		if o.scope(m) {
			ordered = append(ordered, m)
		}
	}
	slices.SortStableFunc(ordered, func(a, b model.MatchRecord) int { return a.PlayedAt.Compare(b.PlayedAt) })

	rep := Report{PlayerID: subjectID}
	partners, opponents := newTally(), newTally()
	clubs, modes := newGroups(), newGroups()
	var entries []Entry
	var results []Outcome
	adv := &rep.Advanced

	for _, m := range ordered {
		view, ok := View(m, subjectID)
		if !ok {
			continue
		}
		won := view.Result == Win
		results = append(results, view.Result)

		entry := Entry{
			MatchID:         m.ID,
			PlayedAt:        m.PlayedAt,
			Club:            m.Club,
			Result:          view.Result,
			Opponents:       make([]model.Identity, 0, len(view.Opponents)),
			Sets:            view.Sets,
			Score:           scoreLine(view.Sets),
			CompetitionMode: m.CompetitionMode,
		}
		if view.Partner != "" {
			ident := names.Resolve(view.Partner)
			entry.Partner = &ident
			partners.add(ident, won)
		}
		for _, oid := range view.Opponents {
			ident := names.Resolve(oid)
			entry.Opponents = append(entry.Opponents, ident)
			opponents.add(ident, won)
		}
		entries = append(entries, entry)

		if m.Club != "" {
			clubs.add(m.Club, won)
		}
		if m.CompetitionMode != nil && *m.CompetitionMode != "" {
			modes.add(*m.CompetitionMode, won)
		}

		for _, s := range view.Sets {
			adv.GamesWon += s.Mine
			adv.GamesLost += s.Theirs
			switch {
			case s.Mine > s.Theirs:
				adv.SetsWon++
			case s.Mine < s.Theirs:
				adv.SetsLost++
			}
			if s.Retired {
				continue
			}
			if s.Mine == 6 && s.Theirs == 0 {
				adv.Bagels++
			}
			if s.Mine == 6 && s.Theirs == 1 {
				adv.Breadsticks++
			}
		}
		if len(view.Sets) >= threeSetThreshold {
			adv.ThreeSetMatches++
			if won {
				adv.ThreeSetWins++
			}
		}
		if won {
			rep.Wins++
		} else {
			rep.Losses++
		}
	}

	rep.TotalMatches = len(entries)
	rep.WinRate = model.Ratio(rep.Wins, rep.TotalMatches)
	rep.History = recentFirst(entries, o.historyLimit)
	rep.Form = buildForm(results)

	partnerRecords := partners.records()
	rep.Partners = listed(partnerRecords)
	rep.BestPartner = pick(partnerRecords, betterPartner)
	rep.WorstPartner = pick(partnerRecords, worsePartner)

	opponentRecords := opponents.records()
	rep.Opponents = listed(opponentRecords)
	rep.Nemesis = pick(opponentRecords, nemesis)
	rep.Favorite = pick(opponentRecords, favorite)

	rep.Clubs = clubs.sorted()
	rep.Modes = modes.sorted()
	finishAdvanced(adv)
	return rep
}

func scoreLine(sets []SetLine) string {
	parts := make([]string, 0, len(sets))
	for _, s := range sets {
		parts = append(parts, fmt.Sprintf("%d-%d", s.Mine, s.Theirs))
	}
	return strings.Join(parts, " ")
}

// recentFirst returns up to limit entries, newest first.
func recentFirst(entries []Entry, limit int) []Entry {
	out := make([]Entry, 0, min(len(entries), limit))
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	return out
}

// buildForm derives form from chronological results.
func buildForm(results []Outcome) Form {
	f := Form{Last: make([]Outcome, 0, formLength), Rolling: make([]float64, 0)}
	for i := len(results) - 1; i >= 0 && len(f.Last) < formLength; i-- {
		f.Last = append(f.Last, results[i])
	}

	if n := len(results); n > 0 {
		f.StreakType = results[n-1]
		for i := n - 1; i >= 0 && results[i] == f.StreakType; i-- {
			f.Streak++
		}
	}

	run, prev := 0, Outcome("")
	for _, r := range results {
		if r == prev {
			run++
		} else {
			run, prev = 1, r
		}
		if r == Win {
			f.LongestWinStreak = max(f.LongestWinStreak, run)
		} else {
			f.LongestLossStreak = max(f.LongestLossStreak, run)
		}
	}

	for start := 0; start+rollingWindow <= len(results); start++ {
		wins := 0
		for _, r := range results[start : start+rollingWindow] {
			if r == Win {
				wins++
			}
		}
		f.Rolling = append(f.Rolling, float64(wins)/rollingWindow)
	}
	if len(f.Rolling) > rollingKeep {
		f.Rolling = f.Rolling[len(f.Rolling)-rollingKeep:]
	}
	return f
}

// listed returns records with at least two matches, most frequent first, top 10.
func listed(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Matches >= minListedMatches {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b Record) int { return cmp.Compare(b.Matches, a.Matches) })
	return out[:min(len(out), listedRecords)]
}

// pick returns the record among those with at least three matches for which
// better(candidate, current) holds against every other, first seen on full ties.
func pick(records []Record, better func(a, b Record) bool) *Record {
	var best *Record
	for i := range records {
		r := records[i]
		if r.Matches < minRankedMatches {
			continue
		}
		if best == nil || better(r, *best) {
			rc := r
			best = &rc
		}
	}
	return best
}

func betterPartner(a, b Record) bool {
	if a.WinRate != b.WinRate {
		return a.WinRate > b.WinRate
	}
	return a.Matches > b.Matches
}

func worsePartner(a, b Record) bool {
	if a.WinRate != b.WinRate {
		return a.WinRate < b.WinRate
	}
	return a.Matches > b.Matches
}

func nemesis(a, b Record) bool {
	if a.WinRate != b.WinRate {
		return a.WinRate < b.WinRate
	}
	if a.Losses != b.Losses {
		return a.Losses > b.Losses
	}
	return a.Matches > b.Matches
}

func favorite(a, b Record) bool {
	if a.WinRate != b.WinRate {
		return a.WinRate > b.WinRate
	}
	if a.Wins != b.Wins {
		return a.Wins > b.Wins
	}
	return a.Matches > b.Matches
}

func finishAdvanced(a *Advanced) {
	if a.SetsLost > 0 {
		r := float64(a.SetsWon) / float64(a.SetsLost)
		a.SetRatio = &r
	}
	if a.GamesLost > 0 {
		r := float64(a.GamesWon) / float64(a.GamesLost)
		a.GameRatio = &r
	}
	a.SetWinPct = model.Ratio(a.SetsWon, a.SetsWon+a.SetsLost)
	a.GameWinPct = model.Ratio(a.GamesWon, a.GamesWon+a.GamesLost)
	a.ThreeSetWinRate = model.Ratio(a.ThreeSetWins, a.ThreeSetMatches)
}
