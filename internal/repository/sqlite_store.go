package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/carlos-sqds/travel-buddy/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

const memoryPath = ":memory:"

// SQLiteStore is a Store backed by a local SQLite file.
type SQLiteStore struct {
	conn *sql.DB
	now  func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at path and applies the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path + "?_foreign_keys=1&_busy_timeout=5000"
	if path != memoryPath {
		dsn += "&_journal_mode=WAL"
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == memoryPath {
		// every connection to :memory: is a separate database
		conn.SetMaxOpenConns(1)
	}

	s := &SQLiteStore{conn: conn, now: time.Now}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS config (
			user_id TEXT NOT NULL REFERENCES users(id),
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (user_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS destinations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL REFERENCES users(id),
			code TEXT NOT NULL,
			added_at TEXT NOT NULL,
			UNIQUE (user_id, code)
		)`,
		`CREATE TABLE IF NOT EXISTS price_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL REFERENCES users(id),
			destination_code TEXT NOT NULL,
			price REAL NOT NULL CHECK (price > 0),
			currency TEXT NOT NULL DEFAULT 'EUR',
			airline TEXT,
			booking_site TEXT,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_destinations_user_added ON destinations(user_id, added_at)`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_user_dest_date ON price_history(user_id, destination_code, recorded_at)`,
	}

	for _, query := range queries {
		if _, err := s.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}
	return nil
}

// EnsureUser creates the user on first sight and seeds the default configuration
// when the user has none. Concurrent calls for the same id are safe.
func (s *SQLiteStore) EnsureUser(ctx context.Context, userID string) error {
	if _, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, created_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		userID, formatTime(s.now())); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	var count int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM config WHERE user_id = ?`, userID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count config rows: %w", err)
	}
	if count > 0 {
		return nil
	}
	return s.seedDefaults(ctx, userID)
}

func (s *SQLiteStore) seedDefaults(ctx context.Context, userID string) error {
	if _, err := s.conn.ExecContext(ctx,
		`INSERT INTO config (user_id, key, value) VALUES (?, ?, ?) ON CONFLICT(user_id, key) DO NOTHING`,
		userID, configKeyHomeAirport, domain.DefaultHomeAirport); err != nil {
		return fmt.Errorf("failed to seed config: %w", err)
	}

	// one statement so the defaults land together and keep their order
	now := s.now()
	placeholders := make([]string, 0, len(domain.DefaultDestinations))
	args := make([]interface{}, 0, 3*len(domain.DefaultDestinations))
	for i, code := range domain.DefaultDestinations {
		placeholders = append(placeholders, "(?, ?, ?)")
		args = append(args, userID, code, formatTime(now.Add(time.Duration(i)*time.Microsecond)))
	}
	query := `INSERT INTO destinations (user_id, code, added_at) VALUES ` +
		strings.Join(placeholders, ", ") +
		` ON CONFLICT(user_id, code) DO NOTHING`
	if _, err := s.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to seed destinations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UserExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	if err := s.conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return exists, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) GetConfiguration(ctx context.Context, userID string) (*domain.Configuration, error) {
	if err := s.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := s.conn.QueryContext(ctx, `SELECT key, value FROM config WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query config: %w", err)
	}
	defer rows.Close()

	cfg := &domain.Configuration{HomeAirport: domain.DefaultHomeAirport}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan config: %w", err)
		}
		applyConfigRow(cfg, key, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating config: %w", err)
	}

	cfg.Destinations, err = s.ListDestinations(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *SQLiteStore) SetHomeAirport(ctx context.Context, userID, code string) (bool, error) {
	if !domain.IsKnownAirport(code) {
		return false, nil
	}
	if err := s.EnsureUser(ctx, userID); err != nil {
		return false, err
	}
	if err := s.upsertConfig(ctx, userID, configKeyHomeAirport, code); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) SetWebhookURL(ctx context.Context, userID, rawURL string) (bool, error) {
	if rawURL != "" && !ValidWebhookURL(rawURL) {
		return false, nil
	}
	if err := s.EnsureUser(ctx, userID); err != nil {
		return false, err
	}

	if rawURL == "" {
		if _, err := s.conn.ExecContext(ctx, `DELETE FROM config WHERE user_id = ? AND key = ?`, userID, configKeyWebhookURL); err != nil {
			return false, fmt.Errorf("failed to clear webhook url: %w", err)
		}
		return true, nil
	}
	if err := s.upsertConfig(ctx, userID, configKeyWebhookURL, rawURL); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) upsertConfig(ctx context.Context, userID, key, value string) error {
	_, err := s.conn.ExecContext(ctx, `INSERT INTO config (user_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value`, userID, key, value)
	if err != nil {
		return fmt.Errorf("failed to upsert config %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) AddDestination(ctx context.Context, userID, code string) (bool, error) {
	if !domain.IsKnownAirport(code) {
		return false, nil
	}
	if err := s.EnsureUser(ctx, userID); err != nil {
		return false, err
	}
	if _, err := s.conn.ExecContext(ctx,
		`INSERT INTO destinations (user_id, code, added_at) VALUES (?, ?, ?) ON CONFLICT(user_id, code) DO NOTHING`,
		userID, code, formatTime(s.now())); err != nil {
		return false, fmt.Errorf("failed to add destination: %w", err)
	}
	return true, nil
}

// RemoveDestination stops tracking code. Recorded prices for it are kept.
func (s *SQLiteStore) RemoveDestination(ctx context.Context, userID, code string) (bool, error) {
	if err := s.EnsureUser(ctx, userID); err != nil {
		return false, err
	}
	res, err := s.conn.ExecContext(ctx, `DELETE FROM destinations WHERE user_id = ? AND code = ?`, userID, code)
	if err != nil {
		return false, fmt.Errorf("failed to remove destination: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListDestinations(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT code FROM destinations WHERE user_id = ? ORDER BY added_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query destinations: %w", err)
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan destination: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (s *SQLiteStore) RecordPrice(ctx context.Context, userID, code string, price float64, currency, airline, site string) (*domain.PriceRecord, error) {
	if price <= 0 {
		return nil, ErrInvalidPrice
	}
	if currency == "" {
		currency = domain.Currency
	}
	if err := s.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}

	recordedAt := s.now().UTC().Truncate(time.Microsecond)
	res, err := s.conn.ExecContext(ctx, `INSERT INTO price_history
		(user_id, destination_code, price, currency, airline, booking_site, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, code, price, currency, airline, site, formatTime(recordedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to record price: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read record id: %w", err)
	}

	return &domain.PriceRecord{
		ID:              id,
		UserID:          userID,
		DestinationCode: code,
		Price:           price,
		Currency:        currency,
		Airline:         airline,
		BookingSite:     site,
		RecordedAt:      recordedAt,
	}, nil
}

func (s *SQLiteStore) PriceHistory(ctx context.Context, userID, code string, windowDays int) (domain.PriceHistory, error) {
	since := windowStart(s.now(), windowDays)

	rows, err := s.conn.QueryContext(ctx, `SELECT id, destination_code, price, currency, airline, booking_site, recorded_at
		FROM price_history
		WHERE user_id = ? AND destination_code = ? AND recorded_at >= ?
		ORDER BY recorded_at ASC, id ASC`,
		userID, code, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var records []domain.PriceRecord
	for rows.Next() {
		var (
			r             domain.PriceRecord
			airline, site sql.NullString
			recordedAt    string
		)
		if err := rows.Scan(&r.ID, &r.DestinationCode, &r.Price, &r.Currency, &airline, &site, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price record: %w", err)
		}
		r.UserID = userID
		r.Airline = airline.String
		r.BookingSite = site.String
		if r.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, fmt.Errorf("failed to parse recorded_at: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price history: %w", err)
	}

	return domain.NewPriceHistory(records), nil
}

func applyConfigRow(cfg *domain.Configuration, key, value string) {
	switch key {
	case configKeyHomeAirport:
		if value != "" {
			cfg.HomeAirport = value
		}
	case configKeyWebhookURL:
		cfg.TrmnlWebhookURL = value
	}
}

var _ Store = (*SQLiteStore)(nil)
