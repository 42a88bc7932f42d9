package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the inventory",
		Long:  "Display the version and records of the inventory. With --json the\nwhole document is printed in its interchange form.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.requireBound(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				data, err := s.codec.EncodeIndent(s.store.Document())
				if err != nil {
					return sysErrorf("%w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			records := s.store.Records()
			fmt.Fprintf(out, "version: %s\nrecords: %d\n", s.store.Version(), len(records))
			if len(records) == 0 {
				return nil
			}
			ids := make([]string, 0, len(records))
			for id := range records {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\nID\tSPECIES\tHEIGHT\tDBH")
			for _, id := range ids {
				attrs, _ := records[id].(map[string]any)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, field(attrs, "species"), field(attrs, "height"), field(attrs, "dbh"))
			}
			return w.Flush()
		},
	}
}

func field(attrs map[string]any, key string) string {
	v, ok := attrs[key]
	if !ok || v == nil {
		return "-"
	}
	return fmt.Sprint(v)
}
