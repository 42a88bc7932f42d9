package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vinv-group/vinv-go/pkg/types"
)

func (a *app) newAddCmd() *cobra.Command {
	var (
		id   string
		file string
	)
	cmd := &cobra.Command{
		Use:   "add [attributes-json]",
		Short: "Add a tree record",
		Long: "Add a tree record given as a JSON object, for example\n" +
			`  vinv add '{"species":"Oak","height":12}' --id t1` + "\n" +
			"Without --id a unique id is generated.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			switch {
			case file != "" && len(args) > 0:
				return errors.New("give attributes either as argument or with --file, not both")
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read %s: %w", file, err)
				}
				raw = data
			case len(args) == 1:
				raw = []byte(args[0])
			default:
				return errors.New("record attributes required")
			}

			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.requireBound(); err != nil {
				return err
			}

			attrs, err := s.codec.Decode(raw)
			if err != nil {
				return fmt.Errorf("attributes: %w", err)
			}
			got, err := s.store.AddRecord(map[string]any(attrs), id)
			if err != nil {
				if _, ok := types.AsIssues(err); ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "record rejected:")
					printIssues(cmd.ErrOrStderr(), err)
				}
				return err
			}
			if err := s.persisted(); err != nil {
				return err
			}

			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{"id": got})
			}
			fmt.Fprintln(cmd.OutOrStdout(), got)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "record id (default: generated)")
	cmd.Flags().StringVar(&file, "file", "", "read attributes from a JSON file")
	return cmd
}
