// Package store is the persistence layer for prayer candidates.
// File: store/store.go
//
// The same queries run against PostgreSQL (lib/pq, when DATABASE_URL has a
// postgres scheme) or an on-disk SQLite file (modernc.org/sqlite, the
// local-development default). Status transitions are guarded UPDATEs
// (WHERE id = ? AND status = ?) so the database provides the only
// concurrency guarantee the app needs: last writer wins at row level.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"prayreps/logger"
	"prayreps/models"
)

// Sentinel errors surfaced to controllers as user-visible messages.
var (
	ErrNotFound   = errors.New("representative not found")
	ErrWrongState = errors.New("representative is not in the required state")
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

// Store wraps the SQL connection and knows which placeholder dialect to
// speak.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database named by databaseURL. A postgres:// (or
// postgresql://) URL selects the Postgres driver; anything else is treated
// as a SQLite file path. An empty URL opens ./data/prayreps.sqlite.
func Open(databaseURL string) (*Store, error) {
	driver := driverSQLite
	dsn := databaseURL
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		driver = driverPostgres
	case databaseURL == "":
		dsn = "data/prayreps.sqlite"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}
	if driver == driverSQLite {
		// a single writer avoids SQLITE_BUSY on concurrent requests
		db.SetMaxOpenConns(1)
	}
	logger.Info.Printf("store: connected using %s driver", driver)
	return &Store{db: db, driver: driver}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites '?' placeholders into the $n form when talking to
// Postgres. Queries in this package are written with '?'.
func (s *Store) rebind(query string) string {
	if s.driver != driverPostgres {
		return query
	}
	var b strings.Builder
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

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS prayer_candidates (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    person_name TEXT NOT NULL,
    post_label TEXT NOT NULL DEFAULT '',
    country_code TEXT NOT NULL,
    party TEXT NOT NULL DEFAULT 'Other',
    thumbnail TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL CHECK (status IN ('queued', 'prayed')),
    status_timestamp TIMESTAMP NOT NULL,
    initial_add_timestamp TIMESTAMP NOT NULL,
    hex_id TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_candidates_unique
    ON prayer_candidates (person_name, post_label, country_code);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS prayer_candidates (
    id SERIAL PRIMARY KEY,
    person_name TEXT NOT NULL,
    post_label TEXT NOT NULL DEFAULT '',
    country_code TEXT NOT NULL,
    party TEXT NOT NULL DEFAULT 'Other',
    thumbnail TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL CHECK (status IN ('queued', 'prayed')),
    status_timestamp TIMESTAMP NOT NULL,
    initial_add_timestamp TIMESTAMP NOT NULL,
    hex_id TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_candidates_unique
    ON prayer_candidates (person_name, post_label, country_code);
`

// Init creates the prayer_candidates table and its unique identity index.
// Safe to call multiple times.
func (s *Store) Init(ctx context.Context) error {
	schema := schemaSQLite
	if s.driver == driverPostgres {
		schema = schemaPostgres
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const candidateColumns = `id, person_name, post_label, country_code, party, thumbnail,
       status, status_timestamp, initial_add_timestamp, hex_id`

func scanRepresentative(row interface{ Scan(...any) error }) (*models.Representative, error) {
	var rep models.Representative
	err := row.Scan(&rep.ID, &rep.PersonName, &rep.PostLabel, &rep.CountryCode,
		&rep.Party, &rep.Thumbnail, &rep.Status, &rep.StatusAt, &rep.AddedAt, &rep.HexID)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (s *Store) queryRepresentatives(ctx context.Context, query string, args ...any) ([]models.Representative, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reps []models.Representative
	for rows.Next() {
		rep, err := scanRepresentative(rows)
		if err != nil {
			return nil, err
		}
		reps = append(reps, *rep)
	}
	return reps, rows.Err()
}

// Insert adds a queued representative. Rows that collide with the unique
// (person_name, post_label, country_code) identity are skipped; the bool
// reports whether a row was actually written.
func (s *Store) Insert(ctx context.Context, rep models.Representative) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO prayer_candidates
		    (person_name, post_label, country_code, party, thumbnail,
		     status, status_timestamp, initial_add_timestamp, hex_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`),
		rep.PersonName, rep.PostLabel, rep.CountryCode, rep.Party, rep.Thumbnail,
		rep.Status, rep.StatusAt, rep.AddedAt, rep.HexID)
	if err != nil {
		return false, fmt.Errorf("insert representative %q: %w", rep.PersonName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetByID fetches one representative or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id int64) (*models.Representative, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+candidateColumns+` FROM prayer_candidates WHERE id = ?`), id)
	rep, err := scanRepresentative(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// Queued returns queued representatives in insertion order. An empty
// country selects all countries; limit <= 0 means no limit.
func (s *Store) Queued(ctx context.Context, country string, limit int) ([]models.Representative, error) {
	query := `SELECT ` + candidateColumns + ` FROM prayer_candidates WHERE status = 'queued'`
	var args []any
	if country != "" {
		query += ` AND country_code = ?`
		args = append(args, country)
	}
	query += ` ORDER BY id ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryRepresentatives(ctx, query, args...)
}

// Prayed returns prayed representatives, most recent first (list pages).
// An empty country selects all countries.
func (s *Store) Prayed(ctx context.Context, country string) ([]models.Representative, error) {
	query := `SELECT ` + candidateColumns + ` FROM prayer_candidates WHERE status = 'prayed'`
	var args []any
	if country != "" {
		query += ` AND country_code = ?`
		args = append(args, country)
	}
	query += ` ORDER BY status_timestamp DESC, id DESC`
	return s.queryRepresentatives(ctx, query, args...)
}

// PrayedChronological returns prayed representatives in the order the
// prayers were recorded (statistics timelines).
func (s *Store) PrayedChronological(ctx context.Context, country string) ([]models.Representative, error) {
	query := `SELECT ` + candidateColumns + ` FROM prayer_candidates WHERE status = 'prayed'`
	var args []any
	if country != "" {
		query += ` AND country_code = ?`
		args = append(args, country)
	}
	query += ` ORDER BY status_timestamp ASC, id ASC`
	return s.queryRepresentatives(ctx, query, args...)
}

// MarkPrayed transitions a queued representative to prayed at the given
// time. Returns ErrNotFound if the id does not exist and ErrWrongState if
// the representative is already prayed.
func (s *Store) MarkPrayed(ctx context.Context, id int64, now time.Time) (*models.Representative, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE prayer_candidates
		SET status = 'prayed', status_timestamp = ?
		WHERE id = ? AND status = 'queued'`), now, id)
	if err != nil {
		return nil, fmt.Errorf("mark prayed id=%d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, s.transitionFailure(ctx, id)
	}
	return s.GetByID(ctx, id)
}

// PutBack transitions a prayed representative back to queued. newHexID
// replaces the assigned map unit when non-empty; otherwise the previous
// assignment is kept. Returns ErrNotFound/ErrWrongState like MarkPrayed.
func (s *Store) PutBack(ctx context.Context, id int64, newHexID string, now time.Time) (*models.Representative, error) {
	query := `UPDATE prayer_candidates SET status = 'queued', status_timestamp = ?`
	args := []any{now}
	if newHexID != "" {
		query += `, hex_id = ?`
		args = append(args, newHexID)
	}
	query += ` WHERE id = ? AND status = 'prayed'`
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("put back id=%d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, s.transitionFailure(ctx, id)
	}
	return s.GetByID(ctx, id)
}

// transitionFailure distinguishes "no such row" from "row exists but in
// the wrong state" after a guarded update affected nothing.
func (s *Store) transitionFailure(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); errors.Is(err, ErrNotFound) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	return ErrWrongState
}

// UsedHexIDs returns the hex ids currently held by any representative of
// a country, regardless of status. excludeID ignores one row (used when
// reassigning that representative's own unit).
func (s *Store) UsedHexIDs(ctx context.Context, country string, excludeID int64) (map[string]bool, error) {
	query := `SELECT hex_id FROM prayer_candidates
		WHERE country_code = ? AND hex_id <> ''`
	args := []any{country}
	if excludeID > 0 {
		query += ` AND id <> ?`
		args = append(args, excludeID)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	used := make(map[string]bool)
	for rows.Next() {
		var hexID string
		if err := rows.Scan(&hexID); err != nil {
			return nil, err
		}
		used[hexID] = true
	}
	return used, rows.Err()
}

// PrayedKeys returns the natural keys of every prayed representative of
// a country. Used when topping up from a source list to leave prayed
// rows untouched.
func (s *Store) PrayedKeys(ctx context.Context, country string) (map[string]bool, error) {
	reps, err := s.Prayed(ctx, country)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool, len(reps))
	for _, rep := range reps {
		keys[rep.NaturalKey()] = true
	}
	return keys, nil
}

// DeleteCountries removes every row belonging to the given countries and
// reports how many rows went away. Used by purge-and-reload.
func (s *Store) DeleteCountries(ctx context.Context, countries []string) (int64, error) {
	if len(countries) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(countries)), ", ")
	args := make([]any, len(countries))
	for i, c := range countries {
		args[i] = c
	}
	res, err := s.db.ExecContext(ctx, s.rebind(
		`DELETE FROM prayer_candidates WHERE country_code IN (`+placeholders+`)`), args...)
	if err != nil {
		return 0, fmt.Errorf("delete countries: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) countByStatus(ctx context.Context, status, country string) (int, error) {
	query := `SELECT COUNT(id) FROM prayer_candidates WHERE status = ?`
	args := []any{status}
	if country != "" {
		query += ` AND country_code = ?`
		args = append(args, country)
	}
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&count)
	return count, err
}

// CountPrayed counts prayed rows; empty country means all countries.
func (s *Store) CountPrayed(ctx context.Context, country string) (int, error) {
	return s.countByStatus(ctx, models.StatusPrayed, country)
}

// CountQueued counts queued rows; empty country means all countries.
func (s *Store) CountQueued(ctx context.Context, country string) (int, error) {
	return s.countByStatus(ctx, models.StatusQueued, country)
}

// CountAll counts every row for a country.
func (s *Store) CountAll(ctx context.Context, country string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(id) FROM prayer_candidates WHERE country_code = ?`), country).Scan(&count)
	return count, err
}
