package cli

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/okian/padel/internal/domain/filter"
)

// criteriaFlags binds the player filter flags shared by listing commands.
type criteriaFlags struct {
	minMatches int
	minLevel   float64
	maxLevel   float64
	club       string
	search     string
}

func (f *criteriaFlags) bind(fs *pflag.FlagSet) {
	fs.IntVar(&f.minMatches, "min-matches", -1, "minimum matches played (default: configured floor)")
	fs.Float64Var(&f.minLevel, "min-level", filter.LevelFloor, "minimum level")
	fs.Float64Var(&f.maxLevel, "max-level", filter.LevelCeil, "maximum level")
	fs.StringVar(&f.club, "club", "", "only players of this club")
	fs.StringVar(&f.search, "search", "", "case-insensitive name substring")
}

func (f *criteriaFlags) criteria() (filter.Criteria, error) {
	if f.minLevel > f.maxLevel {
		return filter.Criteria{}, fmt.Errorf("--min-level %.1f is above --max-level %.1f", f.minLevel, f.maxLevel)
	}
	c := filter.Criteria{
		MinLevel: f.minLevel,
		MaxLevel: f.maxLevel,
		Club:     f.club,
		Search:   f.search,
	}
	if f.minMatches >= 0 {
		n := f.minMatches
		c.MinMatches = &n
	}
	return c, nil
}
