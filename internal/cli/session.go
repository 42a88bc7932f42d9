package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/vinv-group/vinv-go/internal/archive"
	"github.com/vinv-group/vinv-go/internal/codec"
	"github.com/vinv-group/vinv-go/internal/exchange"
	"github.com/vinv-group/vinv-go/internal/inventory"
	"github.com/vinv-group/vinv-go/internal/paths"
	"github.com/vinv-group/vinv-go/internal/schema"
	"github.com/vinv-group/vinv-go/pkg/types"
)

// session is an inventory store loaded from the working copy, with change
// handlers that persist every accepted document.
type session struct {
	env     *env
	store   *inventory.Store
	archive *archive.Archive
	codec   *codec.Codec

	// persistErr is the first failure to write the working copy.
	persistErr error
}

// catalog returns the built-in schema sets plus those under the schema dir.
func (a *app) catalog(e *env) (*schema.Catalog, error) {
	c, err := schema.Builtin()
	if err != nil {
		return nil, sysErrorf("%w", err)
	}
	dir := e.cfg.SchemaDir
	replaced, err := c.MergeDir(dir)
	if err != nil {
		return nil, err
	}
	for _, v := range replaced {
		a.logger.Info("schema dir overrides built-in set", "version", v, "dir", dir)
	}
	return c, nil
}

// sessionMode says how openSession treats a working copy it cannot load.
type sessionMode int

const (
	// requireWorkingCopy fails on an unreadable working copy.
	requireWorkingCopy sessionMode = iota
	// replaceWorkingCopy logs an unreadable working copy and starts
	// uninitialized, for commands that overwrite it anyway.
	replaceWorkingCopy
)

// openSession loads the working copy, if any, and opens the archive.
// The caller must call close.
func (a *app) openSession(cmd *cobra.Command) (*session, error) {
	return a.openSessionMode(cmd, requireWorkingCopy)
}

func (a *app) openSessionMode(cmd *cobra.Command, mode sessionMode) (*session, error) {
	e, err := a.loadEnv(cmd)
	if err != nil {
		return nil, err
	}
	catalog, err := a.catalog(e)
	if err != nil {
		return nil, err
	}

	opts := []inventory.Option{inventory.WithLogger(a.logger), inventory.WithMetrics(a.metrics)}
	if e.cfg.TransactionalAdd {
		opts = append(opts, inventory.WithTransactionalAdd())
	}
	s := &session{
		env:   e,
		store: inventory.New(catalog, opts...),
		codec: codec.New(a.logger),
	}

	if err := os.MkdirAll(e.dataDir, 0o755); err != nil {
		return nil, sysErrorf("create data dir: %w", err)
	}
	wc := paths.WorkingCopy(e.dataDir)
	data, err := os.ReadFile(wc)
	switch {
	case err == nil:
		if err := s.load(data); err != nil {
			if mode != replaceWorkingCopy {
				return nil, fmt.Errorf("load working copy %s: %w (recover with 'vinv restore' or 'vinv init --force')", wc, err)
			}
			a.logger.Warn("ignoring unreadable working copy", "path", wc, "error", err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, sysErrorf("read working copy: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	arch, err := archive.Open(ctx, e.cfg.Archive, e.dataDir)
	switch {
	case err == nil:
		s.archive = arch
	case errors.Is(err, archive.ErrDisabled):
		a.logger.Debug("revision archive disabled")
	default:
		return nil, sysErrorf("open archive: %w", err)
	}

	s.store.On(types.EventChange, s.writeWorkingCopy)
	if s.archive != nil {
		s.store.On(types.EventChange, s.archive.Handler(ctx, s.codec, a.logger))
	}
	return s, nil
}

// load initializes the store from the working copy. The file is the CLI's
// own state, so malformed text is an error rather than a reason to fall back
// to the default document.
func (s *session) load(data []byte) error {
	doc, err := s.codec.Decode(data)
	if err != nil {
		return err
	}
	return s.store.Initialize(types.FromDocument(doc))
}

// writeWorkingCopy is the change handler keeping the working copy current.
func (s *session) writeWorkingCopy(doc types.Document) {
	data, err := s.codec.EncodeIndent(doc)
	if err == nil {
		err = exchange.WriteFileAtomic(paths.WorkingCopy(s.env.dataDir), append(data, '\n'))
	}
	if err != nil && s.persistErr == nil {
		s.persistErr = err
	}
}

// persisted reports a failed working copy write as a system error.
func (s *session) persisted() error {
	if s.persistErr != nil {
		return sysErrorf("write working copy: %w", s.persistErr)
	}
	return nil
}

// requireBound fails when there is no working copy yet.
func (s *session) requireBound() error {
	if s.store.State() != inventory.StateBound {
		return fmt.Errorf("%w: run 'vinv init' first", types.ErrUninitialized)
	}
	return nil
}

func (s *session) close() error {
	if s.archive != nil {
		return s.archive.Close()
	}
	return nil
}
