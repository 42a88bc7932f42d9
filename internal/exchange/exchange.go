// Package exchange moves .vinv inventory files in and out of a blob store:
// a local directory or an S3-compatible bucket.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/vinv-group/vinv-go/pkg/types"
)

// Exchange errors.
var (
	ErrNotFound         = errors.New("inventory file not found")
	ErrInvalidKey       = errors.New("invalid inventory file key")
	ErrNotInventoryFile = errors.New("not an inventory file")
)

// filePrefix is the stem of generated file names.
const filePrefix = "virtual-inventory-"

// Info describes a stored inventory file.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
}

// Store reads and writes inventory files by key.
type Store interface {
	// Put writes data under key, replacing an existing file.
	Put(ctx context.Context, key string, data []byte) (Info, error)
	// Get returns the content stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns the inventory files in the store ordered by key.
	List(ctx context.Context) ([]Info, error)
}

// Open returns the store selected by cfg. The fs driver defaults to an
// "exchange" directory below dataDir.
func Open(ctx context.Context, cfg types.ExchangeConfig, dataDir string) (Store, error) {
	switch cfg.Driver {
	case "", types.ExchangeFS:
		dir := cfg.Dir
		if dir == "" {
			dir = filepath.Join(dataDir, "exchange")
		}
		return NewFS(dir)
	case types.ExchangeS3:
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrExchangeDriverUnknown, cfg.Driver)
	}
}

// FileName returns the default name of a file exported at t, for example
// virtual-inventory-2026-10-18.vinv.
func FileName(t time.Time) string {
	return filePrefix + t.Format(time.DateOnly) + types.FileExtension
}

// IsInventoryFile reports whether name carries the inventory extension.
func IsInventoryFile(name string) bool {
	return strings.EqualFold(path.Ext(name), types.FileExtension)
}

// checkKey rejects keys that are empty, absolute, escape the store, or
// lack the inventory extension.
func checkKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	key = strings.ReplaceAll(key, "\\", "/")
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidKey, key)
	}
	clean := path.Clean(key)
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(key, "/../") {
		return "", fmt.Errorf("%w: %q escapes the store", ErrInvalidKey, key)
	}
	if !IsInventoryFile(clean) {
		return "", fmt.Errorf("%w: %q", ErrNotInventoryFile, key)
	}
	return clean, nil
}
