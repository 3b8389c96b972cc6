package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/vantage-os/vantage-cli/internal/config"
	"github.com/vantage-os/vantage-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	hub     *hub
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, cfg config.StoreConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if cfg.MaxConns > 0 {
		maxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		minConns = cfg.MinConns
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, hub: newHub(), closeFn: pool.Close}, nil
}

// NewPostgresWithPool wires an existing pool; tests inject pgxmock here.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, hub: newHub()}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS bills (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	sponsor    TEXT NOT NULL DEFAULT 'Unknown',
	committee  TEXT NOT NULL DEFAULT 'Unknown',
	year       TEXT NOT NULL DEFAULT '2025',
	status     TEXT NOT NULL DEFAULT 'Unknown',
	summary    TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL DEFAULT 'Watching',
	folder_url TEXT NOT NULL DEFAULT '',
	documents  JSONB NOT NULL DEFAULT '[]',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_bills_status ON bills(status);
CREATE INDEX IF NOT EXISTS idx_bills_committee ON bills(committee);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Subscribe(fn func(billID string)) func() {
	return s.hub.subscribe(fn)
}

func (s *PostgresStore) UpsertBill(ctx context.Context, bill model.Bill) error {
	if bill.ID == "" {
		return eris.New("postgres: bill id required")
	}
	docsJSON, err := json.Marshal(bill.Documents)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal documents")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO bills (id, title, sponsor, committee, year, status, summary, role, folder_url, documents, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
		   title = $2, sponsor = $3, committee = $4, year = $5, status = $6,
		   summary = $7, role = $8, folder_url = $9, documents = $10, updated_at = $11`,
		bill.ID, bill.Title, bill.Sponsor, bill.Committee, bill.Year, bill.Status,
		bill.Summary, bill.Role, bill.FolderURL, docsJSON, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert bill %s", bill.ID)
	}

	s.hub.notify(bill.ID)
	return nil
}

func (s *PostgresStore) GetBill(ctx context.Context, billID string) (*model.Bill, error) {
	var b model.Bill
	var docsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, title, sponsor, committee, year, status, summary, role, folder_url, documents
		 FROM bills WHERE id = $1`,
		billID,
	).Scan(&b.ID, &b.Title, &b.Sponsor, &b.Committee, &b.Year, &b.Status,
		&b.Summary, &b.Role, &b.FolderURL, &docsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get bill %s", billID)
	}

	if err := json.Unmarshal(docsJSON, &b.Documents); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal documents")
	}
	if b.Documents == nil {
		b.Documents = []model.Document{}
	}
	return &b, nil
}

func (s *PostgresStore) ListBills(ctx context.Context, filter BillFilter) ([]model.Bill, error) {
	query := `SELECT id, title, sponsor, committee, year, status, summary, role, folder_url, documents
	          FROM bills WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.Committee != "" {
		query += fmt.Sprintf(` AND committee = $%d`, argIdx)
		args = append(args, filter.Committee)
		argIdx++
	}
	query += ` ORDER BY id ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list bills")
	}
	defer rows.Close()

	var bills []model.Bill
	for rows.Next() {
		var b model.Bill
		var docsJSON []byte
		if err := rows.Scan(&b.ID, &b.Title, &b.Sponsor, &b.Committee, &b.Year, &b.Status,
			&b.Summary, &b.Role, &b.FolderURL, &docsJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan bill")
		}
		if err := json.Unmarshal(docsJSON, &b.Documents); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal documents")
		}
		if b.Documents == nil {
			b.Documents = []model.Document{}
		}
		bills = append(bills, b)
	}
	return bills, eris.Wrap(rows.Err(), "postgres: list bills iterate")
}

func (s *PostgresStore) DeleteBill(ctx context.Context, billID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM bills WHERE id = $1`, billID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete bill %s", billID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: %s", billID)
	}
	s.hub.notify(billID)
	return nil
}
