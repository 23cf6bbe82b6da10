// Package sqlite provides a SQLite-backed record.Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/dittoreg/internal/logger"
	"github.com/marmos91/dittoreg/pkg/store/record"
	"github.com/marmos91/dittoreg/pkg/store/record/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// SQLiteRecordStoreConfig configures the SQLite record store.
type SQLiteRecordStoreConfig struct {
	// Path is the database file. ":memory:" opens a private in-memory DB.
	Path string `mapstructure:"path"`

	// BusyTimeout is how long a writer waits on a locked database
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// SQLiteRecordStore persists records in SQLite.
//
// The pool is limited to one connection: transactions are serialized by
// database/sql, and an in-memory database stays alive for the lifetime of
// the store.
type SQLiteRecordStore struct {
	sqlDB *sql.DB
}

// keyOffset flips the sign bit so that unsigned IDs map onto signed SQLite
// integers without changing their order.
const keyOffset = uint64(1) << 63

func toKey(id record.ID) int64 {
	return int64(uint64(id) ^ keyOffset)
}

func fromKey(key int64) record.ID {
	return record.ID(uint64(key) ^ keyOffset)
}

// Open opens a SQLite record store and applies embedded migrations.
func Open(ctx context.Context, cfg SQLiteRecordStoreConfig) (*SQLiteRecordStore, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, fmt.Errorf("sqlite record store: path is required")
	}

	busy := cfg.BusyTimeout
	if busy == 0 {
		busy = 5 * time.Second
	}

	var dsn string
	if path == ":memory:" {
		dsn = fmt.Sprintf("file::memory:?_pragma=busy_timeout(%d)", busy.Milliseconds())
	} else {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(%d)",
			filepath.Clean(path), busy.Milliseconds())
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Debug("SQLite record store opened: path=%s", path)

	return &SQLiteRecordStore{sqlDB: sqlDB}, nil
}

// View implements record.Store.
func (s *SQLiteRecordStore) View(ctx context.Context, fn func(tx record.Tx) error) error {
	return s.run(ctx, true, fn)
}

// Update implements record.Store.
func (s *SQLiteRecordStore) Update(ctx context.Context, fn func(tx record.Tx) error) error {
	return s.run(ctx, false, fn)
}

func (s *SQLiteRecordStore) run(ctx context.Context, readOnly bool, fn func(tx record.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&sqliteTx{ctx: ctx, tx: sqlTx, readOnly: readOnly}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if readOnly {
		return sqlTx.Rollback()
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Healthcheck implements record.Store.
func (s *SQLiteRecordStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// Close closes the SQLite handle.
func (s *SQLiteRecordStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

type sqliteTx struct {
	ctx      context.Context
	tx       *sql.Tx
	readOnly bool
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*record.Record, error) {
	var (
		key       int64
		name      string
		kind      string
		size      int64
		desc      string
		sec       int64
		nsec      int64
		owner     string
	)
	if err := row.Scan(&key, &name, &kind, &size, &desc, &sec, &nsec, &owner); err != nil {
		return nil, err
	}
	return &record.Record{
		ID:          fromKey(key),
		Name:        name,
		Kind:        record.ParseKind(kind),
		Size:        uint64(size),
		Description: desc,
		CreatedAt:   time.Unix(sec, nsec).UTC(),
		Owner:       record.Identity(owner),
	}, nil
}

// Creation times are stored as Unix seconds plus nanoseconds; UnixNano only
// covers years 1678-2262.
const selectColumns = "id, name, kind, size, description, created_sec, created_nsec, owner"

func (t *sqliteTx) Get(id record.ID) (*record.Record, error) {
	row := t.tx.QueryRowContext(t.ctx, "SELECT "+selectColumns+" FROM records WHERE id = ?", toKey(id))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, record.NewNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return rec, nil
}

func (t *sqliteTx) Put(id record.ID, rec *record.Record) error {
	if t.readOnly {
		return record.ErrReadOnly
	}
	if rec == nil || rec.ID != id {
		var got record.ID
		if rec != nil {
			got = rec.ID
		}
		return record.NewKeyMismatchError(id, got)
	}

	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO records (id, name, kind, size, description, created_sec, created_nsec, owner)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   kind = excluded.kind,
		   size = excluded.size,
		   description = excluded.description,
		   created_sec = excluded.created_sec,
		   created_nsec = excluded.created_nsec,
		   owner = excluded.owner`,
		toKey(id),
		rec.Name,
		rec.Kind.String(),
		int64(rec.Size),
		rec.Description,
		rec.CreatedAt.Unix(),
		int64(rec.CreatedAt.Nanosecond()),
		string(rec.Owner),
	)
	if err != nil {
		return fmt.Errorf("put record %d: %w", id, err)
	}
	return nil
}

func (t *sqliteTx) Remove(id record.ID) error {
	if t.readOnly {
		return record.ErrReadOnly
	}
	if _, err := t.tx.ExecContext(t.ctx, "DELETE FROM records WHERE id = ?", toKey(id)); err != nil {
		return fmt.Errorf("remove record %d: %w", id, err)
	}
	return nil
}

func (t *sqliteTx) NextID() (record.ID, error) {
	var next int64
	err := t.tx.QueryRowContext(t.ctx, "SELECT next_id FROM registry_state WHERE singleton = 1").Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read next id: %w", err)
	}
	return record.ID(uint64(next)), nil
}

func (t *sqliteTx) SetNextID(next record.ID) error {
	if t.readOnly {
		return record.ErrReadOnly
	}
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO registry_state (singleton, next_id) VALUES (1, ?)
		 ON CONFLICT(singleton) DO UPDATE SET next_id = excluded.next_id`,
		int64(uint64(next)),
	)
	if err != nil {
		return fmt.Errorf("set next id: %w", err)
	}
	return nil
}

func (t *sqliteTx) ForEach(fn func(rec *record.Record) error) error {
	rows, err := t.tx.QueryContext(t.ctx, "SELECT "+selectColumns+" FROM records ORDER BY id")
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	// Collect first: the single pooled connection is busy until rows close.
	var recs []*record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("list records: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	for _, rec := range recs {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}
