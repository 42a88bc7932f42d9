package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var errArchiveDisabled = errors.New("revision archive is disabled (archive.driver: none)")

func (a *app) newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived revisions of the inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if s.archive == nil {
				return errArchiveDisabled
			}

			revs, err := s.archive.List(cmd.Context(), limit)
			if err != nil {
				return sysErrorf("%w", err)
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), revs)
			}
			if len(revs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No revisions")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REVISION\tVERSION\tRECORDS\tCREATED")
			for _, r := range revs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.ID, r.Version, r.RecordCount, r.CreatedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of revisions (0 for all)")
	return cmd
}
