// Package store provides read-only access to the traffic camera database.
// It opens the configured backend (SQLite, an embedded Dolt repository or
// PostgreSQL) behind a single connection and exposes one query method per
// report. Nothing in this package writes to the database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	_ "github.com/dolthub/driver"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Backend identifies the database engine holding the camera tables.
type Backend string

const (
	// BackendSQLite reads a SQLite file (the distributed dataset format).
	BackendSQLite Backend = "sqlite"

	// BackendDolt reads an embedded Dolt repository directory.
	BackendDolt Backend = "dolt"

	// BackendPostgres connects to a PostgreSQL server using a pgx DSN.
	BackendPostgres Backend = "postgres"
)

// ValidBackends lists the accepted backend names.
var ValidBackends = []Backend{BackendSQLite, BackendDolt, BackendPostgres}

// ErrUnsupportedBackend is returned by Open for an unknown backend name.
var ErrUnsupportedBackend = errors.New("unsupported backend")

// ParseBackend parses a backend name (case-insensitive).
func ParseBackend(s string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range ValidBackends {
		if b == valid {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q (expected sqlite, dolt, or postgres)", ErrUnsupportedBackend, s)
}

// Querier is the query surface the catalog needs. *sql.DB satisfies it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Options configures Open.
type Options struct {
	Backend Backend
	// DSN is the SQLite file path, the Dolt repository directory or the
	// PostgreSQL connection string, depending on Backend.
	DSN string
	// Database names the Dolt database inside the repository.
	Database string
	Logger   logrus.FieldLogger
}

// Store holds the single connection used for every report in a run.
type Store struct {
	db      *sql.DB
	q       Querier
	backend Backend
	dsn     string
	log     logrus.FieldLogger
}

// Open connects to the configured backend and verifies the connection.
// The pool is capped at one connection so every query runs sequentially
// over the same session.
func Open(ctx context.Context, opts Options) (*Store, error) {
	backend := opts.Backend
	if backend == "" {
		backend = BackendSQLite
	}

	driver, dsn, err := driverDSN(backend, opts)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", backend, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s db: %w", backend, err)
	}

	s := New(db, backend, opts.Logger)
	s.db = db
	s.dsn = opts.DSN
	return s, nil
}

// New wraps an existing query handle. The caller keeps ownership of q;
// Close is a no-op unless the Store was created by Open.
func New(q Querier, backend Backend, log logrus.FieldLogger) *Store {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Store{q: q, backend: backend, log: log.WithField("backend", string(backend))}
}

func driverDSN(backend Backend, opts Options) (string, string, error) {
	switch backend {
	case BackendSQLite:
		if _, err := os.Stat(opts.DSN); err != nil {
			return "", "", fmt.Errorf("open sqlite %s: %w", opts.DSN, err)
		}
		// The file: prefix makes the driver honour mode=ro.
		return "sqlite", "file:" + opts.DSN + "?mode=ro", nil
	case BackendDolt:
		info, err := os.Stat(opts.DSN)
		if err != nil {
			return "", "", fmt.Errorf("open dolt repo %s: %w", opts.DSN, err)
		}
		if !info.IsDir() {
			return "", "", fmt.Errorf("open dolt repo %s: not a directory", opts.DSN)
		}
		database := opts.Database
		if database == "" {
			database = "traffic"
		}
		dsn := fmt.Sprintf("file://%s?commitname=tcam&commitemail=tcam@local&database=%s", opts.DSN, database)
		return "dolt", dsn, nil
	case BackendPostgres:
		if opts.DSN == "" {
			return "", "", fmt.Errorf("open postgres: empty connection string")
		}
		return "pgx", opts.DSN, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedBackend, backend)
	}
}

// Close releases the connection. It is safe to call more than once.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying connection pool, nil for stores built with New.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Backend returns the engine the store reads from.
func (s *Store) Backend() Backend {
	return s.backend
}

// Path returns the DSN the store was opened with.
func (s *Store) Path() string {
	return s.dsn
}

// rebind rewrites ? placeholders into the backend's bind syntax.
func (s *Store) rebind(query string) string {
	if s.backend != BackendPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
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

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	query = s.rebind(query)
	s.log.WithFields(logrus.Fields{"query": compact(query), "args": args}).Debug("query")
	return s.q.QueryContext(ctx, query, args...)
}

// count runs a single-value COUNT query.
func (s *Store) count(ctx context.Context, query string, args ...any) (int64, error) {
	query = s.rebind(query)
	s.log.WithFields(logrus.Fields{"query": compact(query), "args": args}).Debug("query")

	var n sql.NullInt64
	if err := s.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n.Int64, nil
}

// compact collapses whitespace so queries log on one line.
func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
