package maskstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/cwbudde/algo-rfi/rfi/maskcount"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a measurement database.
type Store struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for migration output.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Store) { s.log = l }
}

// Open opens or creates the database at path and migrates it to the
// latest schema.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(s)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("maskstore: open %s: %w", path, err)
	}
	s.db = db
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("maskstore: migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("maskstore: sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("maskstore: migrate instance: %w", err)
	}
	// m is not closed: that would close s.db.
	m.Log = &migrateLogger{log: s.log}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("maskstore: migration up failed: %w", err)
	}
	return nil
}

// Version returns the applied schema version.
func (s *Store) Version(ctx context.Context) (uint, error) {
	var v uint
	err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_migrations LIMIT 1`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("maskstore: schema version: %w", err)
	}
	return v, nil
}

// Record stores a finished run and its measurements in one transaction
// and returns the run id. Nothing is stored when any insert fails.
func (s *Store) Record(ctx context.Context, pipeline string, nfreq int, ms []maskcount.Measurement) (uuid.UUID, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return uuid.Nil, fmt.Errorf("maskstore: begin: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, pipeline, nfreq) VALUES (?, ?, ?)`,
		id.String(), pipeline, nfreq); err != nil {
		return uuid.Nil, fmt.Errorf("maskstore: insert run: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO measurements
			(run_id, location, pos, nsamples, nsamples_masked, nt, nt_masked, nf, nf_masked)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return uuid.Nil, fmt.Errorf("maskstore: prepare: %w", err)
	}
	defer stmt.Close()
	for _, m := range ms {
		if _, err := stmt.ExecContext(ctx,
			id.String(), m.Where, m.Pos, m.NSamples, m.NSamplesMasked, m.Nt, m.NtMasked, m.Nf, m.NfMasked); err != nil {
			return uuid.Nil, fmt.Errorf("maskstore: insert measurement: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("maskstore: commit: %w", err)
	}
	return id, nil
}

// Run is one recorded pipeline run.
type Run struct {
	ID       uuid.UUID
	Pipeline string
	Nfreq    int
}

// Runs lists the recorded runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, pipeline, nfreq FROM runs ORDER BY started_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("maskstore: query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var id string
		if err := rows.Scan(&id, &r.Pipeline, &r.Nfreq); err != nil {
			return nil, fmt.Errorf("maskstore: scan run: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("maskstore: run id %q: %w", id, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Measurements returns the measurements of run ordered by location and
// position. Per-channel and per-time counts are not stored.
func (s *Store) Measurements(ctx context.Context, run uuid.UUID) ([]maskcount.Measurement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT location, pos, nsamples, nsamples_masked, nt, nt_masked, nf, nf_masked
		FROM measurements WHERE run_id = ? ORDER BY location, pos`, run.String())
	if err != nil {
		return nil, fmt.Errorf("maskstore: query measurements: %w", err)
	}
	defer rows.Close()

	var out []maskcount.Measurement
	for rows.Next() {
		var m maskcount.Measurement
		if err := rows.Scan(&m.Where, &m.Pos, &m.NSamples, &m.NSamplesMasked, &m.Nt, &m.NtMasked, &m.Nf, &m.NfMasked); err != nil {
			return nil, fmt.Errorf("maskstore: scan measurement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type migrateLogger struct {
	log *zap.SugaredLogger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Infof("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}
