package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/vantage-os/vantage-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	hub *hub
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, hub: newHub()}, nil
}

const sqliteMigration = `
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
	documents  TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_bills_status ON bills(status);
CREATE INDEX IF NOT EXISTS idx_bills_committee ON bills(committee);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Subscribe(fn func(billID string)) func() {
	return s.hub.subscribe(fn)
}

func (s *SQLiteStore) UpsertBill(ctx context.Context, bill model.Bill) error {
	if bill.ID == "" {
		return eris.New("sqlite: bill id required")
	}
	docsJSON, err := json.Marshal(bill.Documents)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal documents")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bills (id, title, sponsor, committee, year, status, summary, role, folder_url, documents, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   title = excluded.title, sponsor = excluded.sponsor, committee = excluded.committee,
		   year = excluded.year, status = excluded.status, summary = excluded.summary,
		   role = excluded.role, folder_url = excluded.folder_url, documents = excluded.documents,
		   updated_at = excluded.updated_at`,
		bill.ID, bill.Title, bill.Sponsor, bill.Committee, bill.Year, bill.Status,
		bill.Summary, bill.Role, bill.FolderURL, string(docsJSON), time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert bill %s", bill.ID)
	}

	s.hub.notify(bill.ID)
	return nil
}

func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*model.Bill, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, sponsor, committee, year, status, summary, role, folder_url, documents
		 FROM bills WHERE id = ?`,
		billID,
	)
	return scanBill(row)
}

func (s *SQLiteStore) ListBills(ctx context.Context, filter BillFilter) ([]model.Bill, error) {
	query := `SELECT id, title, sponsor, committee, year, status, summary, role, folder_url, documents
	          FROM bills WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Committee != "" {
		query += ` AND committee = ?`
		args = append(args, filter.Committee)
	}
	query += ` ORDER BY id ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list bills")
	}
	defer rows.Close()

	var bills []model.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, *b)
	}
	return bills, eris.Wrap(rows.Err(), "sqlite: list bills iterate")
}

func (s *SQLiteStore) DeleteBill(ctx context.Context, billID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bills WHERE id = ?`, billID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete bill %s", billID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: %s", billID)
	}
	s.hub.notify(billID)
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanBill(row scannable) (*model.Bill, error) {
	var b model.Bill
	var docsJSON string

	err := row.Scan(&b.ID, &b.Title, &b.Sponsor, &b.Committee, &b.Year, &b.Status,
		&b.Summary, &b.Role, &b.FolderURL, &docsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan bill")
	}

	if err := json.Unmarshal([]byte(docsJSON), &b.Documents); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal documents")
	}
	if b.Documents == nil {
		b.Documents = []model.Document{}
	}
	return &b, nil
}
