// Package vinv provides the public API for embedding a virtual inventory.
// It exposes factory functions for schema-governed inventories while keeping
// the schema, codec and store implementations internal.
package vinv

import (
	"log/slog"

	"github.com/vinv-group/vinv-go/internal/inventory"
	"github.com/vinv-group/vinv-go/internal/schema"
	"github.com/vinv-group/vinv-go/pkg/types"
)

// Options configures a new inventory. The zero value selects the built-in
// schema sets, a discarding logger and non-transactional adds.
type Options struct {
	// SchemaDir holds additional schema sets, one directory per version tag.
	// Sets in SchemaDir replace built-in sets with the same tag. A missing
	// directory is ignored.
	SchemaDir string

	// Logger receives diagnostics such as malformed input fallbacks.
	Logger *slog.Logger

	// TransactionalAdd rolls back a record whose insertion leaves the
	// document invalid.
	TransactionalAdd bool
}

// New creates an uninitialized inventory.
// Call Initialize before adding records.
//
// Example:
//
//	inv, err := vinv.New(vinv.Options{})
//	if err != nil {
//	    return err
//	}
//	if err := inv.Initialize(types.NoSource()); err != nil {
//	    return err
//	}
//	id, err := inv.AddRecord(map[string]any{"species": "Oak", "height": 12}, "")
func New(opts Options) (types.Inventory, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	catalog, err := schema.Builtin()
	if err != nil {
		return nil, err
	}
	if opts.SchemaDir != "" {
		replaced, err := catalog.MergeDir(opts.SchemaDir)
		if err != nil {
			return nil, err
		}
		for _, v := range replaced {
			logger.Info("schema dir overrides built-in set", "version", v, "dir", opts.SchemaDir)
		}
	}

	storeOpts := []inventory.Option{inventory.WithLogger(logger)}
	if opts.TransactionalAdd {
		storeOpts = append(storeOpts, inventory.WithTransactionalAdd())
	}
	return inventory.New(catalog, storeOpts...), nil
}

// Versions lists the version tags of the built-in schema sets.
func Versions() ([]string, error) {
	catalog, err := schema.Builtin()
	if err != nil {
		return nil, err
	}
	return catalog.Versions(), nil
}
