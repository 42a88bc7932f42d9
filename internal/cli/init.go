package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vinv-group/vinv-go/internal/inventory"
	"github.com/vinv-group/vinv-go/internal/paths"
	"github.com/vinv-group/vinv-go/pkg/types"
)

func (a *app) newInitCmd() *cobra.Command {
	var (
		from  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the inventory working copy",
		Long: "Create configuration and data directories and start an inventory.\n" +
			"Without --from the default document is used. An existing inventory is\n" +
			"kept unless --from or --force is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := requireWorkingCopy
			if from != "" || force {
				mode = replaceWorkingCopy
			}
			s, err := a.openSessionMode(cmd, mode)
			if err != nil {
				return err
			}
			defer s.close()

			if s.store.State() == inventory.StateBound && from == "" && !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Inventory already initialized at %s\n", paths.WorkingCopy(s.env.dataDir))
				return nil
			}

			src := types.NoSource()
			if from != "" {
				data, err := os.ReadFile(from)
				if err != nil {
					return fmt.Errorf("read %s: %w", from, err)
				}
				src = types.FromText(data)
			}
			if err := s.store.Initialize(src); err != nil {
				printIssues(cmd.ErrOrStderr(), err)
				return err
			}
			if err := s.persisted(); err != nil {
				return err
			}

			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"version": s.store.Version(),
					"records": len(s.store.Records()),
					"path":    paths.WorkingCopy(s.env.dataDir),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inventory initialized (version %s, %d records)\n",
				s.store.Version(), len(s.store.Records()))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "initialize from a .vinv file")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing inventory with the default document")
	return cmd
}
