package cli

import (
	"github.com/spf13/cobra"

	"github.com/vinv-group/vinv-go/internal/schema"
)

func (a *app) newSchemaCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the tree record schema of the inventory's version",
		Long: "Print the record schema with its references inlined, wrapped as a\n" +
			"single \"tree\" property for form builders. --raw omits the wrapper.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.requireBound(); err != nil {
				return err
			}

			doc, err := s.store.RecordSchema()
			if err != nil {
				return err
			}
			if raw {
				return printJSON(cmd.OutOrStdout(), doc)
			}
			return printJSON(cmd.OutOrStdout(), schema.TreeEnvelope(doc))
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the record schema without the form wrapper")
	return cmd
}
