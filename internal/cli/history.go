package cli

import (
	"io"

	"github.com/spf13/cobra"

	service "github.com/okian/padel/internal/app"
	"github.com/okian/padel/internal/domain/history"
)

func newHistoryCmd(e *env) *cobra.Command {
	var q service.HistoryQuery

	cmd := &cobra.Command{
		Use:   "history <player-id>",
		Short: "Analyse a player's match history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd.Context(), func(svc *service.Service) error {
				report, err := svc.History(cmd.Context(), args[0], q)
				if err != nil {
					return err
				}
				return e.emit(cmd.OutOrStdout(), report, func(w io.Writer) { PrintHistory(w, report) })
			})
		},
	}
	cmd.Flags().StringSliceVar(&q.Clubs, "club", nil, "only matches at these clubs (repeatable)")
	cmd.Flags().IntVarP(&q.Limit, "limit", "n", history.DefaultHistoryLimit, "recent matches listed")
	return cmd
}
