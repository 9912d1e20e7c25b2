package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const sqlSchema = `CREATE TABLE IF NOT EXISTS flight_cache (
	cache_key  TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	body       TEXT NOT NULL,
	fetched_at TIMESTAMP NOT NULL
)`

type cacheRow struct {
	Key       string    `db:"cache_key"`
	Source    string    `db:"source"`
	Body      string    `db:"body"`
	FetchedAt time.Time `db:"fetched_at"`
}

// SQLStore keeps entries in a single table. It works against sqlite3 and
// postgres; the caller registers the driver.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// OpenSQLStore connects and creates the table when it is missing.
func OpenSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s cache: %w", driver, err)
	}

	store := NewSQLStore(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqlSchema); err != nil {
		return fmt.Errorf("create flight_cache table: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	query := s.db.Rebind(`SELECT body FROM flight_cache WHERE cache_key = ?`)

	var body string
	err := s.db.GetContext(ctx, &body, query, key.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cache entry: %w", err)
	}
	return []byte(body), true, nil
}

func (s *SQLStore) Set(ctx context.Context, key Key, blob []byte) error {
	const query = `INSERT INTO flight_cache (cache_key, source, body, fetched_at)
VALUES (:cache_key, :source, :body, :fetched_at)
ON CONFLICT (cache_key)
DO UPDATE SET body = EXCLUDED.body, fetched_at = EXCLUDED.fetched_at`

	row := cacheRow{
		Key:       key.String(),
		Source:    key.Source,
		Body:      string(blob),
		FetchedAt: time.Now().UTC(),
	}
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
