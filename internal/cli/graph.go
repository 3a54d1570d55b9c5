package cli

import (
	"io"

	"github.com/spf13/cobra"

	service "github.com/okian/padel/internal/app"
)

func newGraphCmd(e *env) *cobra.Command {
	var (
		f         criteriaFlags
		minWeight int
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Build the player graph and show its leaderboards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := f.criteria()
			if err != nil {
				return err
			}
			q := service.GraphQuery{Criteria: c}
			if cmd.Flags().Changed("min-weight") {
				q.MinWeight = &minWeight
			}
			return e.withService(cmd.Context(), func(svc *service.Service) error {
				view, err := svc.Graph(cmd.Context(), q)
				if err != nil {
					return err
				}
				return e.emit(cmd.OutOrStdout(), view, func(w io.Writer) { PrintGraph(w, view) })
			})
		},
	}
	f.bind(cmd.Flags())
	cmd.Flags().IntVar(&minWeight, "min-weight", 0, "minimum shared matches per link (default: configured floor)")
	return cmd
}
