// Package archive keeps every accepted inventory document as a revision in
// a SQL database: SQLite in the data directory by default, or Postgres.
package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "modernc.org/sqlite"

	"github.com/vinv-group/vinv-go/internal/codec"
	"github.com/vinv-group/vinv-go/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// DBFile is the SQLite database created in the data directory.
const DBFile = "revisions.db"

// timeLayout is fixed-width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Archive errors.
var (
	ErrDisabled    = errors.New("revision archive is disabled")
	ErrNoRevisions = errors.New("no revisions archived")
	ErrNotFound    = errors.New("revision not found")
	ErrClosed      = errors.New("revision archive is closed")
)

// Revision is one archived document.
type Revision struct {
	ID          string    `json:"revision_id"`
	Version     string    `json:"version"`
	RecordCount int       `json:"record_count"`
	Body        string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Archive appends and lists revisions. It is safe for concurrent use.
type Archive struct {
	mu      sync.Mutex
	db      *sql.DB
	dialect dialect
}

// Open connects to the archive described by cfg, creating the revisions
// table if needed. An empty driver selects SQLite under dataDir.
// Returns ErrDisabled for the "none" driver.
func Open(ctx context.Context, cfg types.ArchiveConfig, dataDir string) (*Archive, error) {
	var (
		driverName string
		dsn        = cfg.DSN
		d          dialect
	)
	switch cfg.Driver {
	case "", types.ArchiveSQLite:
		driverName, d = "sqlite", dialectSQLite
		if dsn == "" {
			if dataDir == "" {
				dataDir = "."
			}
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			dsn = filepath.Join(dataDir, DBFile)
		}
	case types.ArchivePostgres:
		driverName, d = "pgx", dialectPostgres
		if dsn == "" {
			return nil, types.ErrArchiveDSNMissing
		}
	case types.ArchiveNone:
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrArchiveDriverUnknown, cfg.Driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s archive: %w", driverName, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create revisions table: %w", err)
		}
	}
	return &Archive{db: db, dialect: d}, nil
}

// Record stores doc, encoded as body, as a new revision.
func (a *Archive) Record(ctx context.Context, doc types.Document, body []byte) (Revision, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return Revision{}, ErrClosed
	}

	version, _ := doc.Version()
	rev := Revision{
		ID:          newRevisionID(),
		Version:     version,
		RecordCount: doc.RecordCount(),
		Body:        string(body),
		CreatedAt:   time.Now().UTC(),
	}
	_, err := a.db.ExecContext(ctx, a.rebind(
		`INSERT INTO revisions (revision_id, version, record_count, body, created_at) VALUES (?, ?, ?, ?, ?)`),
		rev.ID, rev.Version, rev.RecordCount, rev.Body, rev.CreatedAt.Format(timeLayout))
	if err != nil {
		return Revision{}, fmt.Errorf("insert revision: %w", err)
	}
	return rev, nil
}

// Latest returns the newest revision.
// Returns ErrNoRevisions if the archive is empty.
func (a *Archive) Latest(ctx context.Context) (Revision, error) {
	revs, err := a.query(ctx, "", nil, 1, true)
	if err != nil {
		return Revision{}, err
	}
	if len(revs) == 0 {
		return Revision{}, ErrNoRevisions
	}
	return revs[0], nil
}

// Get returns the revision with the given id, body included.
// Returns ErrNotFound if there is none.
func (a *Archive) Get(ctx context.Context, id string) (Revision, error) {
	revs, err := a.query(ctx, "revision_id = ?", []any{id}, 1, true)
	if err != nil {
		return Revision{}, err
	}
	if len(revs) == 0 {
		return Revision{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return revs[0], nil
}

// List returns up to limit revisions, newest first, without their bodies.
// A limit of zero or less returns every revision.
func (a *Archive) List(ctx context.Context, limit int) ([]Revision, error) {
	return a.query(ctx, "", nil, limit, false)
}

func (a *Archive) query(ctx context.Context, where string, args []any, limit int, withBody bool) ([]Revision, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil, ErrClosed
	}

	cols := "revision_id, version, record_count, created_at"
	if withBody {
		cols += ", body"
	}
	q := "SELECT " + cols + " FROM revisions"
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY created_at DESC, revision_id DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := a.db.QueryContext(ctx, a.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var (
			rev     Revision
			created string
		)
		dest := []any{&rev.ID, &rev.Version, &rev.RecordCount, &created}
		if withBody {
			dest = append(dest, &rev.Body)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		if rev.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("revision %s: bad created_at: %w", rev.ID, err)
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

// Handler returns a change handler that archives every document it
// receives. Failures are logged; they never reach the inventory.
func (a *Archive) Handler(ctx context.Context, c *codec.Codec, logger *slog.Logger) types.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(doc types.Document) {
		body, err := c.Encode(doc)
		if err != nil {
			logger.Error("archive revision", "error", err)
			return
		}
		rev, err := a.Record(ctx, doc, body)
		if err != nil {
			logger.Error("archive revision", "error", err)
			return
		}
		logger.Debug("revision archived", "revision", rev.ID, "records", rev.RecordCount)
	}
}

// Close releases the database connection. Close is idempotent.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// rebind rewrites ? placeholders to $n for Postgres.
func (a *Archive) rebind(q string) string {
	if a.dialect != dialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func newRevisionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
