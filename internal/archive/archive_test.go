package archive

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinv-group/vinv-go/internal/codec"
	"github.com/vinv-group/vinv-go/pkg/types"
)

func openSQLite(t *testing.T) (*Archive, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	a, err := Open(context.Background(), types.ArchiveConfig{}, dir)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a, dir
}

func TestOpenCreatesDatabaseInDataDir(t *testing.T) {
	_, dir := openSQLite(t)
	_, err := os.Stat(filepath.Join(dir, DBFile))
	assert.NoError(t, err)
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     types.ArchiveConfig
		wantErr error
	}{
		{name: "none", cfg: types.ArchiveConfig{Driver: types.ArchiveNone}, wantErr: ErrDisabled},
		{name: "postgres without dsn", cfg: types.ArchiveConfig{Driver: types.ArchivePostgres}, wantErr: types.ErrArchiveDSNMissing},
		{name: "unknown", cfg: types.ArchiveConfig{Driver: "mongo"}, wantErr: types.ErrArchiveDriverUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(ctx, tt.cfg, t.TempDir())
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRecordAndList(t *testing.T) {
	a, _ := openSQLite(t)
	ctx := context.Background()

	_, err := a.Latest(ctx)
	assert.True(t, errors.Is(err, ErrNoRevisions))

	first := types.Document{"v": "0.1-alpha"}
	second := types.Document{"v": "0.1-alpha", "trees": []any{map[string]any{"t1": map[string]any{"species": "Oak"}}, []any{}}}
	r1, err := a.Record(ctx, first, []byte(`{"v":"0.1-alpha"}`))
	require.NoError(t, err)
	r2, err := a.Record(ctx, second, []byte(`{"trees":[{"t1":{"species":"Oak"}},[]],"v":"0.1-alpha"}`))
	require.NoError(t, err)
	assert.NotEqual(t, r1.ID, r2.ID)

	revs, err := a.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, r2.ID, revs[0].ID)
	assert.Equal(t, 1, revs[0].RecordCount)
	assert.Equal(t, "0.1-alpha", revs[0].Version)
	assert.Empty(t, revs[0].Body)
	assert.Equal(t, r1.ID, revs[1].ID)
	assert.Equal(t, 0, revs[1].RecordCount)

	limited, err := a.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	latest, err := a.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, r2.ID, latest.ID)
	assert.JSONEq(t, `{"v":"0.1-alpha","trees":[{"t1":{"species":"Oak"}},[]]}`, latest.Body)

	got, err := a.Get(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, r1.ID, got.ID)
	assert.JSONEq(t, `{"v":"0.1-alpha"}`, got.Body)

	_, err = a.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReopenKeepsRevisions(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a, err := Open(ctx, types.ArchiveConfig{Driver: types.ArchiveSQLite}, dir)
	require.NoError(t, err)
	_, err = a.Record(ctx, types.DefaultDocument(), []byte(`{"v":"0.1-alpha"}`))
	require.NoError(t, err)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	_, err = a.List(ctx, 0)
	assert.True(t, errors.Is(err, ErrClosed))

	b, err := Open(ctx, types.ArchiveConfig{Driver: types.ArchiveSQLite}, dir)
	require.NoError(t, err)
	defer b.Close()
	revs, err := b.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, revs, 1)
}

func TestHandlerArchivesChanges(t *testing.T) {
	a, _ := openSQLite(t)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := a.Handler(context.Background(), codec.New(nil), logger)

	h(types.Document{"v": "0.1-alpha"})
	h(types.Document{"v": "0.1-alpha", "trees": []any{map[string]any{"a": map[string]any{}}, []any{}}})

	revs, err := a.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, revs, 2)
	assert.Contains(t, logs.String(), "revision archived")

	require.NoError(t, a.Close())
	h(types.Document{"v": "0.1-alpha"})
	assert.Contains(t, logs.String(), "level=ERROR")
}

func TestRebind(t *testing.T) {
	pg := &Archive{dialect: dialectPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2 LIMIT $3",
		pg.rebind("SELECT * FROM t WHERE a = ? AND b = ? LIMIT ?"))

	lite := &Archive{dialect: dialectSQLite}
	assert.Equal(t, "VALUES (?, ?)", lite.rebind("VALUES (?, ?)"))
}
