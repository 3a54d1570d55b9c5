package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/padel/pkg/logger"
)

// Seed defaults.
const (
	defaultSeedPlayers = 60
	defaultSeedClubs   = 4
	defaultSeedMatches = 400
	defaultSeedValue   = 1
)

func newSeedCmd(e *env) *cobra.Command {
	var o LeagueOptions
	var end string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a synthetic league into the SQLite snapshot",
		Long: `Seed generates a deterministic league of players, matches and the
derived player graph, then writes it into the database given by --db.
The same --seed always produces the same league.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if end != "" {
				t, err := time.Parse(time.DateOnly, end)
				if err != nil {
					return fmt.Errorf("--end: %w", err)
				}
				o.End = t.UTC()
			}
			league, err := GenerateLeague(o)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Seed(ctx, league.Players, league.Edges, league.Matches); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			players, edges, matches, err := store.Counts(ctx)
			if err != nil {
				return err
			}
			e.log.Info(ctx, "league seeded",
				logger.String("db", e.dbPath),
				logger.Int("players", players),
				logger.Int("edges", edges),
				logger.Int("matches", matches))
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s: %d players, %d edges, %d matches\n", e.dbPath, players, edges, matches)
			return nil
		},
	}
	cmd.Flags().IntVar(&o.Players, "players", defaultSeedPlayers, "number of players")
	cmd.Flags().IntVar(&o.Clubs, "clubs", defaultSeedClubs, "number of clubs")
	cmd.Flags().IntVar(&o.Matches, "matches", defaultSeedMatches, "number of matches")
	cmd.Flags().Int64Var(&o.Seed, "seed", defaultSeedValue, "random seed")
	cmd.Flags().StringVar(&end, "end", "", "date of the latest possible match, YYYY-MM-DD (default: today)")
	return cmd
}
