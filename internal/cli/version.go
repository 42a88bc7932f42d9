package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the vinv release, set at build time with
// -ldflags "-X github.com/vinv-group/vinv-go/internal/cli.Version=...".
var Version = "0.1.0-dev"

const modulePath = "github.com/vinv-group/vinv-go"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the vinv version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "vinv v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}

func (a *app) newVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List the schema versions vinv can validate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.loadEnv(cmd)
			if err != nil {
				return err
			}
			catalog, err := a.catalog(env)
			if err != nil {
				return err
			}
			versions := catalog.Versions()
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), versions)
			}
			for _, v := range versions {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
}
