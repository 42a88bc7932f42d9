package exchange

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinv-group/vinv-go/pkg/types"
)

func TestFileName(t *testing.T) {
	ts := time.Date(2026, time.October, 18, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "virtual-inventory-2026-10-18.vinv", FileName(ts))
	assert.True(t, IsInventoryFile(FileName(ts)))
}

func TestIsInventoryFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.vinv", true},
		{"dir/a.VINV", true},
		{"a.json", false},
		{"vinv", false},
		{"a.vinv.bak", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInventoryFile(tt.name))
		})
	}
}

func TestCheckKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr error
	}{
		{key: "a.vinv", want: "a.vinv"},
		{key: "plots/north/a.vinv", want: "plots/north/a.vinv"},
		{key: "./a.vinv", want: "a.vinv"},
		{key: "", wantErr: ErrInvalidKey},
		{key: "/etc/a.vinv", wantErr: ErrInvalidKey},
		{key: "../a.vinv", wantErr: ErrInvalidKey},
		{key: "x/../../a.vinv", wantErr: ErrInvalidKey},
		{key: "a.json", wantErr: ErrNotInventoryFile},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := checkKey(tt.key)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFSStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "exchange")
	s, err := NewFS(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Root())

	_, err = s.Get(ctx, "missing.vinv")
	assert.True(t, errors.Is(err, ErrNotFound))

	info, err := s.Put(ctx, "b.vinv", []byte(`{"v":"0.1-alpha"}`))
	require.NoError(t, err)
	assert.Equal(t, "b.vinv", info.Key)
	assert.Equal(t, int64(17), info.Size)

	_, err = s.Put(ctx, "plots/a.vinv", []byte(`{}`))
	require.NoError(t, err)
	_, err = s.Put(ctx, "b.vinv", []byte(`{"v":"0.2"}`))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	data, err := s.Get(ctx, "b.vinv")
	require.NoError(t, err)
	assert.Equal(t, `{"v":"0.2"}`, string(data))

	infos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "b.vinv", infos[0].Key)
	assert.Equal(t, "plots/a.vinv", infos[1].Key)

	_, err = s.Put(ctx, "notes.txt", []byte("x"))
	assert.True(t, errors.Is(err, ErrNotInventoryFile))
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "inventory.vinv")
	require.NoError(t, WriteFileAtomic(p, []byte("one")))
	require.NoError(t, WriteFileAtomic(p, []byte("two")))

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "x.vinv"), []byte("x"))
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()

	s, err := Open(ctx, types.ExchangeConfig{}, dataDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "exchange"), s.(*FSStore).Root())

	custom := filepath.Join(t.TempDir(), "out")
	s, err = Open(ctx, types.ExchangeConfig{Driver: types.ExchangeFS, Dir: custom}, dataDir)
	require.NoError(t, err)
	assert.Equal(t, custom, s.(*FSStore).Root())

	_, err = Open(ctx, types.ExchangeConfig{Driver: types.ExchangeS3}, dataDir)
	assert.True(t, errors.Is(err, types.ErrExchangeBucketMissing))

	_, err = Open(ctx, types.ExchangeConfig{Driver: "ftp"}, dataDir)
	assert.True(t, errors.Is(err, types.ErrExchangeDriverUnknown))
}
