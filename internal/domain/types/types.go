// Package types holds the ranking types shared by the scoring engine and its callers.
package types

// StreakKind is the coarse activity classification of a player.
type StreakKind string

const (
	StreakHot    StreakKind = "hot"
	StreakCold   StreakKind = "cold"
	StreakNew    StreakKind = "new"
	StreakSteady StreakKind = "steady"
)

// Streak is a classification with its display metadata.
type Streak struct {
	Kind  StreakKind `json:"kind"`
	Label string     `json:"label"`
	Color string     `json:"color"`
}

// Entry represents a power ranking row.
type Entry struct {
	Rank       int      `json:"rank"`
	PlayerID   string   `json:"playerId"`
	Name       string   `json:"name"`
	Level      *float64 `json:"level"`
	Matches    int      `json:"matches"`
	WinRate    *float64 `json:"winRate"`
	Clubs      []string `json:"clubs"`
	Premium    bool     `json:"premium"`
	Picture    *string  `json:"picture"`
	PowerScore float64  `json:"powerScore"`
	Streak     Streak   `json:"streak"`
}
