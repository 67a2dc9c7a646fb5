// Package storage persists the transport catalog and query history in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"Travia/internal/transport"
)

// ErrInvalidMode is returned when a catalog row names an unknown mode.
var ErrInvalidMode = errors.New("invalid transport mode")

// ErrNotFound is returned when a catalog row does not exist.
var ErrNotFound = errors.New("transport not found")

// PriorityBooking marks history rows written by a simulated booking.
const PriorityBooking = "booking"

const schema = `
CREATE TABLE IF NOT EXISTS transports (
	id TEXT PRIMARY KEY,
	mode TEXT,
	name TEXT,
	origin TEXT,
	destination TEXT,
	departure TEXT,
	arrival TEXT,
	duration_mins INTEGER,
	price REAL,
	seats_available INTEGER,
	rating REAL,
	extra_json TEXT
);
CREATE TABLE IF NOT EXISTS user_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	origin TEXT,
	destination TEXT,
	mode TEXT,
	priority TEXT,
	timestamp DATETIME
);`

const selectColumns = `id, mode, name, origin, destination, departure, arrival,
	duration_mins, price, seats_available, rating`

// HistoryEntry is one logged search or booking.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Mode        string    `json:"mode"`
	Priority    string    `json:"priority"`
	Timestamp   time.Time `json:"timestamp"`
}

// ModeCount is the number of catalog rows for a mode.
type ModeCount struct {
	Mode  string `json:"mode"`
	Count int    `json:"cnt"`
}

// DB is the SQLite-backed datastore.
type DB struct {
	db     *sql.DB
	tracer trace.Tracer
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &DB{db: db, tracer: otel.Tracer("travia/storage")}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// InsertOption adds one catalog row. A missing id is generated from the mode.
func (d *DB) InsertOption(ctx context.Context, opt transport.Option, extraJSON string) error {
	ctx, span := d.tracer.Start(ctx, "storage.insert_option")
	defer span.End()

	mode, ok := transport.ParseMode(string(opt.Mode))
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidMode, opt.Mode)
	}
	if opt.ID == "" {
		opt.ID = fmt.Sprintf("%s_%s", mode, uuid.NewString()[:8])
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO transports(id, mode, name, origin, destination,
			departure, arrival, duration_mins, price,
			seats_available, rating, extra_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		opt.ID, string(mode), opt.Name, opt.Origin, opt.Destination,
		opt.Departure, opt.Arrival, opt.DurationMins, opt.Price,
		opt.SeatsAvailable, opt.Rating, extraJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transport %s: %w", opt.ID, err)
	}
	return nil
}

// Search returns catalog rows matching f. Origin and destination match by
// case-insensitive containment, mode by equality.
func (d *DB) Search(ctx context.Context, f transport.Filter) ([]transport.Option, error) {
	ctx, span := d.tracer.Start(ctx, "storage.search")
	defer span.End()

	query := "SELECT " + selectColumns + " FROM transports WHERE 1=1"
	var args []any
	if o := strings.ToLower(strings.TrimSpace(f.Origin)); o != "" {
		query += " AND lower(origin) LIKE ?"
		args = append(args, "%"+o+"%")
	}
	if dst := strings.ToLower(strings.TrimSpace(f.Destination)); dst != "" {
		query += " AND lower(destination) LIKE ?"
		args = append(args, "%"+dst+"%")
	}
	if m := strings.ToLower(strings.TrimSpace(string(f.Mode))); m != "" {
		query += " AND lower(mode) = ?"
		args = append(args, m)
	}
	query += " ORDER BY rowid"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transports: %w", err)
	}
	defer rows.Close()

	var out []transport.Option
	for rows.Next() {
		opt, err := scanOption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transports: %w", err)
	}
	span.SetAttributes(attribute.Int("rows", len(out)))
	return out, nil
}

// All returns the whole catalog.
func (d *DB) All(ctx context.Context) ([]transport.Option, error) {
	return d.Search(ctx, transport.Filter{})
}

// Get returns the row with the given id.
func (d *DB) Get(ctx context.Context, id string) (transport.Option, error) {
	row := d.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM transports WHERE id = ?", id)
	opt, err := scanOption(row)
	if errors.Is(err, sql.ErrNoRows) {
		return transport.Option{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return opt, err
}

// Count returns the number of catalog rows.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transports").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transports: %w", err)
	}
	return n, nil
}

// ModeCounts returns the number of rows per mode.
func (d *DB) ModeCounts(ctx context.Context) ([]ModeCount, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT mode, COUNT(*) FROM transports GROUP BY mode ORDER BY mode")
	if err != nil {
		return nil, fmt.Errorf("failed to count modes: %w", err)
	}
	defer rows.Close()

	var out []ModeCount
	for rows.Next() {
		var mc ModeCount
		var mode sql.NullString
		if err := rows.Scan(&mode, &mc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan mode count: %w", err)
		}
		mc.Mode = mode.String
		out = append(out, mc)
	}
	return out, rows.Err()
}

// RecordSearch appends one history row.
func (d *DB) RecordSearch(ctx context.Context, e HistoryEntry) error {
	ctx, span := d.tracer.Start(ctx, "storage.record_search")
	defer span.End()

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	_, err := d.db.ExecContext(ctx,
		"INSERT INTO user_history(origin, destination, mode, priority, timestamp) VALUES (?, ?, ?, ?, ?)",
		e.Origin, e.Destination, e.Mode, e.Priority, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

// History returns history rows newest first. An empty priority returns all
// rows; limit <= 0 means no limit.
func (d *DB) History(ctx context.Context, priority string, limit int) ([]HistoryEntry, error) {
	query := "SELECT id, origin, destination, mode, priority, timestamp FROM user_history"
	var args []any
	if priority != "" {
		query += " WHERE priority = ?"
		args = append(args, priority)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var origin, dest, mode, prio sql.NullString
		var ts sql.NullTime
		if err := rows.Scan(&e.ID, &origin, &dest, &mode, &prio, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.Origin, e.Destination, e.Mode, e.Priority = origin.String, dest.String, mode.String, prio.String
		e.Timestamp = ts.Time
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOption(s scanner) (transport.Option, error) {
	var id, mode, name, origin, dest, dep, arr sql.NullString
	var duration, price, seats, rating any
	if err := s.Scan(&id, &mode, &name, &origin, &dest, &dep, &arr,
		&duration, &price, &seats, &rating); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transport.Option{}, err
		}
		return transport.Option{}, fmt.Errorf("failed to scan transport: %w", err)
	}
	return transport.Option{
		ID:             id.String,
		Mode:           transport.Mode(strings.ToLower(mode.String)),
		Name:           name.String,
		Origin:         origin.String,
		Destination:    dest.String,
		Departure:      dep.String,
		Arrival:        arr.String,
		DurationMins:   transport.FloatOr(duration, transport.DefaultDuration),
		Price:          transport.FloatOr(price, transport.DefaultPrice),
		SeatsAvailable: transport.IntOr(seats, transport.DefaultSeats),
		Rating:         transport.FloatOr(rating, transport.DefaultRating),
	}, nil
}
