package cli

import (
	"io"

	"github.com/spf13/cobra"

	service "github.com/okian/padel/internal/app"
)

func newH2HCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "h2h <player-a> <player-b>",
		Short: "Compare two players head to head",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd.Context(), func(svc *service.Service) error {
				report, err := svc.HeadToHead(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return e.emit(cmd.OutOrStdout(), report, func(w io.Writer) { PrintH2H(w, report) })
			})
		},
	}
}
