package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	service "github.com/okian/padel/internal/app"
)

const defaultRankingsTop = 20

func newRankingsCmd(e *env) *cobra.Command {
	var (
		f      criteriaFlags
		top    int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Show the power ranking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := f.criteria()
			if err != nil {
				return err
			}
			return e.withService(cmd.Context(), func(svc *service.Service) error {
				page, err := svc.Rankings(cmd.Context(), service.RankingQuery{Criteria: c, Limit: top, Offset: offset})
				if err != nil {
					return err
				}
				return e.emit(cmd.OutOrStdout(), page, func(w io.Writer) {
					PrintRankings(w, page.Entries)
					fmt.Fprintf(w, "%d of %d ranked players\n", len(page.Entries), page.Total)
				})
			})
		},
	}
	f.bind(cmd.Flags())
	cmd.Flags().IntVarP(&top, "top", "n", defaultRankingsTop, "number of entries (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	return cmd
}
