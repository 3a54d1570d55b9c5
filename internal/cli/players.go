package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/padel/internal/app"
)

func newPlayersCmd(e *env) *cobra.Command {
	var (
		f     criteriaFlags
		limit int
	)

	cmd := &cobra.Command{
		Use:   "players [id]",
		Short: "List players, or show one player's profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				return e.withService(ctx, func(svc *service.Service) error {
					profile, err := svc.Player(ctx, args[0])
					if err != nil {
						return err
					}
					return e.emit(cmd.OutOrStdout(), profile, func(w io.Writer) { printProfile(w, profile) })
				})
			}

			c, err := f.criteria()
			if err != nil {
				return err
			}
			return e.withService(ctx, func(svc *service.Service) error {
				cards, err := svc.Players(ctx, c, limit)
				if err != nil {
					return err
				}
				return e.emit(cmd.OutOrStdout(), cards, func(w io.Writer) { PrintPlayers(w, cards) })
			})
		},
	}
	f.bind(cmd.Flags())
	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultPlayersLimit, "maximum players listed")
	return cmd
}

func printProfile(w io.Writer, p service.Profile) {
	fmt.Fprintf(w, "%s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(w, "Level: %s  |  Clubs: %s  |  Streak: %s\n", level(p.Level), strings.Join(p.Clubs, ", "), p.Streak.Label)
	fmt.Fprintf(w, "Matches: %d  |  W-L: %d-%d  |  Win rate: %s  |  Sets: %d-%d  |  Games: %d-%d\n",
		p.Matches, p.Wins, p.Losses, percent(p.WinRate), p.SetsWon, p.SetsLost, p.GamesWon, p.GamesLost)
	fmt.Fprintf(w, "Teammates: %d  |  Opponents: %d  |  Competitive: %d  |  Friendly: %d\n",
		p.UniqueTeammates, p.UniqueOpponents, p.CompetitiveMatches, p.FriendlyMatches)

	b := p.Breakdown
	table := newTable(w)
	table.Header("COMPONENT", "POINTS")
	rows := []struct {
		name   string
		points float64
	}{
		{"level", b.Level},
		{"win rate", b.WinRate},
		{"confidence", b.Confidence},
		{"volume", b.Volume},
		{"competitive", b.Competitive},
		{"diversity", b.Diversity},
		{"recency", b.Recency},
		{"total", b.Total},
	}
	for _, r := range rows {
		table.Append(r.name, fmt.Sprintf("%.2f", r.points))
	}
	table.Render()
}
