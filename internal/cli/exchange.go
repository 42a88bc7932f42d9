package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vinv-group/vinv-go/internal/exchange"
	"github.com/vinv-group/vinv-go/pkg/types"
)

// now is replaced in tests.
var now = time.Now

func (a *app) newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [key]",
		Short: "Write the inventory to the exchange store",
		Long: "Write the inventory as a .vinv file to the configured exchange store\n" +
			"(a directory or an S3 bucket). The key defaults to\n" +
			"virtual-inventory-YYYY-MM-DD.vinv.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.requireBound(); err != nil {
				return err
			}

			key := exchange.FileName(now())
			if len(args) == 1 {
				key = args[0]
			}
			text, err := s.store.DocumentText()
			if err != nil {
				return sysErrorf("%w", err)
			}
			store, err := exchange.Open(cmd.Context(), s.env.cfg.Exchange, s.env.dataDir)
			if err != nil {
				return sysErrorf("open exchange: %w", err)
			}
			info, err := store.Put(cmd.Context(), key, []byte(text))
			if err != nil {
				if errors.Is(err, exchange.ErrInvalidKey) || errors.Is(err, exchange.ErrNotInventoryFile) {
					return err
				}
				return sysErrorf("export: %w", err)
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), info)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%d bytes)\n", info.Key, info.Size)
			return nil
		},
	}
}

// importResult reports the outcome for one file.
type importResult struct {
	Key     string `json:"key"`
	Error   string `json:"error,omitempty"`
	Version string `json:"version,omitempty"`
	Records int    `json:"records,omitempty"`
}

func (a *app) newImportCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "import key...",
		Short: "Replace the inventory with files from the exchange store",
		Long: "Read each .vinv file from the exchange store and initialize the\n" +
			"inventory from it. Files are applied in order; the last one that\n" +
			"validates becomes the inventory. With --list the available files are\n" +
			"listed instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !list && len(args) == 0 {
				return errors.New("at least one key required (use --list to see available files)")
			}
			s, err := a.openSessionMode(cmd, replaceWorkingCopy)
			if err != nil {
				return err
			}
			defer s.close()

			store, err := exchange.Open(cmd.Context(), s.env.cfg.Exchange, s.env.dataDir)
			if err != nil {
				return sysErrorf("open exchange: %w", err)
			}
			if list {
				infos, err := store.List(cmd.Context())
				if err != nil {
					return sysErrorf("%w", err)
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), infos)
				}
				for _, info := range infos {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", info.Key, info.Size, info.LastModified.Format(time.RFC3339))
				}
				return nil
			}

			var (
				results []importResult
				lastErr error
				applied int
			)
			for _, key := range args {
				res := importResult{Key: key}
				err := a.importOne(cmd, s, store, key)
				if err != nil {
					res.Error = err.Error()
					lastErr = err
					fmt.Fprintf(cmd.ErrOrStderr(), "import %s: %v\n", key, err)
					printIssues(cmd.ErrOrStderr(), err)
				} else {
					applied++
					res.Version = s.store.Version()
					res.Records = len(s.store.Records())
				}
				results = append(results, res)
			}
			if err := s.persisted(); err != nil {
				return err
			}

			if a.flags.jsonMode {
				if err := printJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					if r.Error == "" {
						fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (version %s, %d records)\n", r.Key, r.Version, r.Records)
					}
				}
			}
			if applied == 0 {
				return fmt.Errorf("no file imported: %w", lastErr)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list the inventory files in the exchange store")
	return cmd
}

func (a *app) importOne(cmd *cobra.Command, s *session, store exchange.Store, key string) error {
	if !exchange.IsInventoryFile(key) {
		return fmt.Errorf("%w: %s", exchange.ErrNotInventoryFile, key)
	}
	data, err := store.Get(cmd.Context(), key)
	if err != nil {
		return err
	}
	return s.store.Initialize(types.FromText(data))
}
