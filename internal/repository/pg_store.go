package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carlos-sqds/travel-buddy/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS config (
		user_id TEXT NOT NULL REFERENCES users(id),
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (user_id, key)
	)`,
	`CREATE TABLE IF NOT EXISTS destinations (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		code TEXT NOT NULL,
		added_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, code)
	)`,
	`CREATE TABLE IF NOT EXISTS price_history (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		destination_code TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL CHECK (price > 0),
		currency TEXT NOT NULL DEFAULT 'EUR',
		airline TEXT NOT NULL DEFAULT '',
		booking_site TEXT NOT NULL DEFAULT '',
		recorded_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_price_history_user_dest_date ON price_history(user_id, destination_code, recorded_at)`,
}

type PGStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db, now: time.Now}
}

// NewPGStoreFromDSN connects a pool, checks it and applies the schema.
func NewPGStoreFromDSN(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := NewPGStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PGStore) Migrate(ctx context.Context) error {
	for _, query := range pgSchema {
		if _, err := s.db.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (s *PGStore) Close() error {
	s.db.Close()
	return nil
}

func (s *PGStore) EnsureUser(ctx context.Context, userID string) error {
	if _, err := s.db.Exec(ctx, `INSERT INTO users (id, created_at) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, userID, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM config WHERE user_id=$1`, userID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count config rows: %w", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := s.db.Exec(ctx, `INSERT INTO config (user_id, key, value) VALUES ($1, $2, $3) ON CONFLICT (user_id, key) DO NOTHING`,
		userID, configKeyHomeAirport, domain.DefaultHomeAirport); err != nil {
		return fmt.Errorf("failed to seed config: %w", err)
	}

	now := s.now().UTC()
	values := make([]string, 0, len(domain.DefaultDestinations))
	args := make([]interface{}, 0, 3*len(domain.DefaultDestinations))
	for i, code := range domain.DefaultDestinations {
		n := len(args)
		values = append(values, fmt.Sprintf("($%d, $%d, $%d)", n+1, n+2, n+3))
		args = append(args, userID, code, now.Add(time.Duration(i)*time.Microsecond))
	}
	query := `INSERT INTO destinations (user_id, code, added_at) VALUES ` +
		strings.Join(values, ", ") +
		` ON CONFLICT (user_id, code) DO NOTHING`
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to seed destinations: %w", err)
	}
	return nil
}

func (s *PGStore) UserExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return exists, nil
}

func (s *PGStore) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM users ORDER BY created_at, id`)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

func (s *PGStore) GetConfiguration(ctx context.Context, userID string) (*domain.Configuration, error) {
	if err := s.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `SELECT key, value FROM config WHERE user_id=$1`, userID)
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

func (s *PGStore) SetHomeAirport(ctx context.Context, userID, code string) (bool, error) {
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

func (s *PGStore) SetWebhookURL(ctx context.Context, userID, rawURL string) (bool, error) {
	if rawURL != "" && !ValidWebhookURL(rawURL) {
		return false, nil
	}
	if err := s.EnsureUser(ctx, userID); err != nil {
		return false, err
	}

	if rawURL == "" {
		if _, err := s.db.Exec(ctx, `DELETE FROM config WHERE user_id=$1 AND key=$2`, userID, configKeyWebhookURL); err != nil {
			return false, fmt.Errorf("failed to clear webhook url: %w", err)
		}
		return true, nil
	}
	if err := s.upsertConfig(ctx, userID, configKeyWebhookURL, rawURL); err != nil {
		return false, err
	}
	return true, nil
}

func (s *PGStore) upsertConfig(ctx context.Context, userID, key, value string) error {
	_, err := s.db.Exec(ctx, `INSERT INTO config (user_id, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, key) DO UPDATE SET value = EXCLUDED.value`, userID, key, value)
	if err != nil {
		return fmt.Errorf("failed to upsert config %s: %w", key, err)
	}
	return nil
}

func (s *PGStore) AddDestination(ctx context.Context, userID, code string) (bool, error) {
	if !domain.IsKnownAirport(code) {
		return false, nil
	}
	if err := s.EnsureUser(ctx, userID); err != nil {
		return false, err
	}
	if _, err := s.db.Exec(ctx, `INSERT INTO destinations (user_id, code, added_at) VALUES ($1, $2, $3) ON CONFLICT (user_id, code) DO NOTHING`,
		userID, code, s.now().UTC()); err != nil {
		return false, fmt.Errorf("failed to add destination: %w", err)
	}
	return true, nil
}

func (s *PGStore) RemoveDestination(ctx context.Context, userID, code string) (bool, error) {
	if err := s.EnsureUser(ctx, userID); err != nil {
		return false, err
	}
	res, err := s.db.Exec(ctx, `DELETE FROM destinations WHERE user_id=$1 AND code=$2`, userID, code)
	if err != nil {
		return false, fmt.Errorf("failed to remove destination: %w", err)
	}
	return res.RowsAffected() > 0, nil
}

func (s *PGStore) ListDestinations(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT code FROM destinations WHERE user_id=$1 ORDER BY added_at, id`, userID)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating destinations: %w", err)
	}
	return codes, nil
}

func (s *PGStore) RecordPrice(ctx context.Context, userID, code string, price float64, currency, airline, site string) (*domain.PriceRecord, error) {
	if price <= 0 {
		return nil, ErrInvalidPrice
	}
	if currency == "" {
		currency = domain.Currency
	}
	if err := s.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}

	rec := &domain.PriceRecord{
		UserID:          userID,
		DestinationCode: code,
		Price:           price,
		Currency:        currency,
		Airline:         airline,
		BookingSite:     site,
		RecordedAt:      s.now().UTC().Truncate(time.Microsecond),
	}
	row := s.db.QueryRow(ctx, `INSERT INTO price_history
		(user_id, destination_code, price, currency, airline, booking_site, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		userID, code, price, currency, airline, site, rec.RecordedAt)
	if err := row.Scan(&rec.ID); err != nil {
		return nil, fmt.Errorf("failed to record price: %w", err)
	}
	return rec, nil
}

func (s *PGStore) PriceHistory(ctx context.Context, userID, code string, windowDays int) (domain.PriceHistory, error) {
	rows, err := s.db.Query(ctx, `SELECT id, destination_code, price, currency, airline, booking_site, recorded_at
		FROM price_history
		WHERE user_id=$1 AND destination_code=$2 AND recorded_at >= $3
		ORDER BY recorded_at ASC, id ASC`,
		userID, code, windowStart(s.now(), windowDays).UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var records []domain.PriceRecord
	for rows.Next() {
		var r domain.PriceRecord
		if err := rows.Scan(&r.ID, &r.DestinationCode, &r.Price, &r.Currency, &r.Airline, &r.BookingSite, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price record: %w", err)
		}
		r.UserID = userID
		r.RecordedAt = r.RecordedAt.UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price history: %w", err)
	}
	return domain.NewPriceHistory(records), nil
}

var _ Store = (*PGStore)(nil)
