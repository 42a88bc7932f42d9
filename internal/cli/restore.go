package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vinv-group/vinv-go/internal/archive"
)

func (a *app) newRestoreCmd() *cobra.Command {
	var revision string
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Replace the inventory with an archived revision",
		Long: "Re-initialize the inventory from the revision archive. Without\n" +
			"--revision the newest revision is used. The working copy is replaced\n" +
			"even when it can no longer be read.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSessionMode(cmd, replaceWorkingCopy)
			if err != nil {
				return err
			}
			defer s.close()
			if s.archive == nil {
				return errArchiveDisabled
			}

			var rev archive.Revision
			if revision == "" {
				rev, err = s.archive.Latest(cmd.Context())
			} else {
				rev, err = s.archive.Get(cmd.Context(), revision)
			}
			switch {
			case errors.Is(err, archive.ErrNoRevisions), errors.Is(err, archive.ErrNotFound):
				return err
			case err != nil:
				return sysErrorf("%w", err)
			}

			if err := s.load([]byte(rev.Body)); err != nil {
				printIssues(cmd.ErrOrStderr(), err)
				return fmt.Errorf("revision %s: %w", rev.ID, err)
			}
			if err := s.persisted(); err != nil {
				return err
			}

			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"revision_id": rev.ID,
					"version":     s.store.Version(),
					"records":     len(s.store.Records()),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored revision %s (version %s, %d records)\n",
				rev.ID, s.store.Version(), len(s.store.Records()))
			return nil
		},
	}
	cmd.Flags().StringVar(&revision, "revision", "", "revision id (default: the newest)")
	return cmd
}
