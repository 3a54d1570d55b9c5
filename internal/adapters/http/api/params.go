// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/padel/internal/domain/filter"
)

// MaxListLimit caps the limit query parameter of list endpoints.
const MaxListLimit = 1000

// queryInt parses an optional non-negative integer parameter.
func queryInt(q url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%s must be a non-negative integer: %w", key, ErrBadRequest)
	}
	return &n, nil
}

// queryFloat parses an optional float parameter.
func queryFloat(q url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number: %w", key, ErrBadRequest)
	}
	return &v, nil
}

// queryLimit parses limit, falling back to def and rejecting values above maxLimit.
func queryLimit(q url.Values, def, maxLimit int) (int, error) {
	n, err := queryInt(q, "limit")
	if err != nil {
		return 0, err
	}
	if n == nil {
		return def, nil
	}
	if *n < 1 || *n > maxLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d: %w", maxLimit, ErrBadRequest)
	}
	return *n, nil
}

// parseCriteria reads minMatches, minLevel, maxLevel, club and search.
func parseCriteria(q url.Values) (filter.Criteria, error) {
	c := filter.DefaultCriteria()

	minMatches, err := queryInt(q, "minMatches")
	if err != nil {
		return c, err
	}
	c.MinMatches = minMatches

	lo, err := queryFloat(q, "minLevel")
	if err != nil {
		return c, err
	}
	hi, err := queryFloat(q, "maxLevel")
	if err != nil {
		return c, err
	}
	if lo != nil {
		c.MinLevel = *lo
	}
	if hi != nil {
		c.MaxLevel = *hi
	}
	if c.MinLevel < filter.LevelFloor || c.MaxLevel > filter.LevelCeil || c.MinLevel > c.MaxLevel {
		return c, fmt.Errorf("level range must satisfy %g <= minLevel <= maxLevel <= %g: %w",
			filter.LevelFloor, filter.LevelCeil, ErrBadRequest)
	}

	c.Club = strings.TrimSpace(q.Get("club"))
	c.Search = strings.TrimSpace(q.Get("search"))
	return c, nil
}
