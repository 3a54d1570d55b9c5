package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/padel/internal/domain/types"
	"github.com/okian/padel/pkg/logger"
)

// Probe defaults.
const (
	defaultProbeURL      = "http://localhost:9080"
	defaultProbeRequests = 200
	defaultProbeTimeout  = 10 * time.Second
	probeSampleSize      = 20
	percentileP50        = 0.50
	percentileP95        = 0.95
)

// ErrProbe is returned when the target service fails a probe check.
var ErrProbe = errors.New("probe failed")

// ProbeConfig configures a probe run against a live server.
type ProbeConfig struct {
	BaseURL  string
	Requests int
	Workers  int
	Timeout  time.Duration
}

// EndpointStats aggregates the outcome of one endpoint's requests.
type EndpointStats struct {
	Endpoint    string          `json:"endpoint"`
	Requests    int             `json:"requests"`
	OK          int             `json:"ok"`
	RateLimited int             `json:"rateLimited"`
	Failed      int             `json:"failed"`
	Latencies   []time.Duration `json:"-"`
}

// Percentile returns the q-th latency percentile, or zero without samples.
func (s EndpointStats) Percentile(q float64) time.Duration {
	if len(s.Latencies) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), s.Latencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[int(q*float64(len(sorted)-1))]
}

// ProbeReport is the result of a probe run.
type ProbeReport struct {
	Endpoints []EndpointStats `json:"endpoints"`
	Duration  time.Duration   `json:"duration"`
}

func newProbeCmd() *cobra.Command {
	cfg := ProbeConfig{}

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Exercise a running API server and verify its rankings",
		Long: `Probe checks a running server's health, verifies the ordering of its
power ranking, then spreads concurrent requests over every analytics
endpoint and reports status counts and latency percentiles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := RunProbe(cmd.Context(), cfg, &http.Client{Timeout: cfg.Timeout})
			if err != nil {
				return err
			}
			printProbe(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", defaultProbeURL, "base URL of the server")
	cmd.Flags().IntVar(&cfg.Requests, "requests", defaultProbeRequests, "total requests spread over the endpoints")
	cmd.Flags().IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "concurrent workers")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", defaultProbeTimeout, "per-request timeout")
	return cmd
}

type prober struct {
	cfg    ProbeConfig
	client *http.Client
}

// RunProbe runs a probe against cfg.BaseURL with client.
func RunProbe(ctx context.Context, cfg ProbeConfig, client *http.Client) (ProbeReport, error) {
	if cfg.Requests < 1 || cfg.Workers < 1 {
		return ProbeReport{}, fmt.Errorf("%w: requests and workers must be positive", ErrProbe)
	}
	p := &prober{cfg: cfg, client: client}
	log := logger.Get()
	start := time.Now()

	log.Info(ctx, "checking service health", logger.String("baseURL", cfg.BaseURL))
	if code, err := p.get(ctx, "/healthz", nil); err != nil {
		return ProbeReport{}, fmt.Errorf("health check: %w", err)
	} else if code != http.StatusOK {
		return ProbeReport{}, fmt.Errorf("%w: health check returned %d", ErrProbe, code)
	}

	var page struct {
		Entries []types.Entry `json:"entries"`
		Total   int           `json:"total"`
	}
	code, err := p.get(ctx, "/api/rankings?limit="+strconv.Itoa(probeSampleSize), &page)
	if err != nil {
		return ProbeReport{}, fmt.Errorf("fetch rankings: %w", err)
	}
	if code != http.StatusOK {
		return ProbeReport{}, fmt.Errorf("%w: rankings returned %d", ErrProbe, code)
	}
	if err := verifyRankings(page.Entries); err != nil {
		return ProbeReport{}, err
	}
	log.Info(ctx, "rankings verified", logger.Int("entries", len(page.Entries)), logger.Int("total", page.Total))

	targets := probeTargets(page.Entries)
	results := make([]EndpointStats, len(targets))
	var mu sync.Mutex
	for i, t := range targets {
		results[i].Endpoint = t.endpoint
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for n := range cfg.Requests {
		i := n % len(targets)
		g.Go(func() error {
			began := time.Now()
			code, err := p.get(gctx, targets[i].path, nil)
			took := time.Since(began)

			mu.Lock()
			defer mu.Unlock()
			s := &results[i]
			s.Requests++
			switch {
			case err != nil && gctx.Err() != nil:
				return gctx.Err()
			case err != nil || code >= http.StatusInternalServerError:
				s.Failed++
			case code == http.StatusTooManyRequests:
				s.RateLimited++
			default:
				s.OK++
				s.Latencies = append(s.Latencies, took)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ProbeReport{}, err
	}

	report := ProbeReport{Endpoints: results, Duration: time.Since(start)}
	log.Info(ctx, "probe completed", logger.Int("requests", cfg.Requests), logger.Duration("duration", report.Duration))
	return report, nil
}

type probeTarget struct {
	endpoint string
	path     string
}

// probeTargets covers every analytics endpoint, using ranked players as
// subjects for the per-player routes.
func probeTargets(entries []types.Entry) []probeTarget {
	targets := []probeTarget{
		{"graph", "/api/graph"},
		{"rankings", "/api/rankings"},
		{"players", "/api/players"},
	}
	if len(entries) > 0 {
		id := url.PathEscape(entries[0].PlayerID)
		targets = append(targets,
			probeTarget{"player", "/api/players/" + id},
			probeTarget{"history", "/api/players/" + id + "/history"},
		)
	}
	if len(entries) > 1 {
		q := url.Values{"a": {entries[0].PlayerID}, "b": {entries[1].PlayerID}}
		targets = append(targets, probeTarget{"h2h", "/api/h2h?" + q.Encode()})
	}
	return targets
}

// verifyRankings checks that ranks are contiguous from 1 and scores never
// increase down the table.
func verifyRankings(entries []types.Entry) error {
	for i, e := range entries {
		if e.Rank != i+1 {
			return fmt.Errorf("%w: entry %d has rank %d", ErrProbe, i, e.Rank)
		}
		if i > 0 && e.PowerScore > entries[i-1].PowerScore {
			return fmt.Errorf("%w: rank %d scores %.2f above rank %d", ErrProbe, e.Rank, e.PowerScore, entries[i-1].Rank)
		}
	}
	return nil
}

func (p *prober) get(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+path, http.NoBody)
	if err != nil {
		return 0, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

func printProbe(w io.Writer, r ProbeReport) {
	table := newTable(w)
	table.Header("ENDPOINT", "REQUESTS", "OK", "429", "FAILED", "P50", "P95")
	for _, s := range r.Endpoints {
		table.Append(
			s.Endpoint,
			strconv.Itoa(s.Requests),
			strconv.Itoa(s.OK),
			strconv.Itoa(s.RateLimited),
			strconv.Itoa(s.Failed),
			s.Percentile(percentileP50).Round(time.Microsecond).String(),
			s.Percentile(percentileP95).Round(time.Microsecond).String(),
		)
	}
	table.Render()
	fmt.Fprintf(w, "Completed in %s\n", r.Duration.Round(time.Millisecond))
}
