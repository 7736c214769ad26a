package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"libcirc/internal/domain/account"
	"libcirc/internal/domain/catalog"
	"libcirc/internal/domain/ledger"
	"libcirc/internal/pkg/errs"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store is the durable persistence collaborator, backed by a single
// SQLite file. The engine owns the live aggregate graph; this store only
// appends and updates rows, and rebuilds the graph once at startup.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and applies
// schema migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errs.Wrap(err, "create db dir")
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errs.Wrap(err, "open sqlite")
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write latency for the append-heavy workload.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return errs.Wrap(err, "enable WAL")
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
            username TEXT PRIMARY KEY,
            balance_cents INTEGER NOT NULL DEFAULT 0,
            role TEXT NOT NULL DEFAULT 'member',
            staff_number INTEGER,
            employed_at DATETIME,
            created_at DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS resources (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS copies (
            resource_id TEXT NOT NULL REFERENCES resources(id),
            number INTEGER NOT NULL,
            PRIMARY KEY (resource_id, number)
        );`,
		`CREATE TABLE IF NOT EXISTS transactions (
            id TEXT PRIMARY KEY,
            username TEXT NOT NULL REFERENCES accounts(username),
            resource_id TEXT NOT NULL,
            copy_number INTEGER NOT NULL,
            reserved BOOLEAN NOT NULL DEFAULT 0,
            started_at DATETIME NOT NULL,
            returned_at DATETIME
        );`,
		`CREATE TABLE IF NOT EXISTS entries (
            id TEXT PRIMARY KEY,
            kind TEXT NOT NULL,
            username TEXT NOT NULL REFERENCES accounts(username),
            amount_cents INTEGER NOT NULL,
            occurred_at DATETIME NOT NULL,
            resource_id TEXT,
            copy_number INTEGER,
            days_overdue INTEGER
        );`,
		`CREATE TABLE IF NOT EXISTS requests (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            resource_id TEXT NOT NULL REFERENCES resources(id),
            username TEXT NOT NULL REFERENCES accounts(username),
            UNIQUE (resource_id, username)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_copy ON transactions(resource_id, copy_number, started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_username ON entries(username, occurred_at);`,
		`INSERT OR IGNORE INTO meta (key, value) VALUES ('next_staff_number', '0');`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return errs.Wrap(err, "apply migration")
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO meta (key, value) VALUES ('schema_version', ?)
         ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
		fmt.Sprint(schemaVersion),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Identity generation
// ---------------------------------------------------------------------------

func (s *Store) NextTransactionID() uuid.UUID {
	return uuid.New()
}

func (s *Store) NextStaffNumber(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errs.Wrap(err, "begin staff number tx")
	}
	defer tx.Rollback()

	var current int
	if err := tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE key='next_staff_number';`).Scan(&current); err != nil {
		return 0, errs.Wrap(err, "read staff counter")
	}
	current++
	if _, err := tx.ExecContext(ctx, `UPDATE meta SET value=? WHERE key='next_staff_number';`, fmt.Sprint(current)); err != nil {
		return 0, errs.Wrap(err, "advance staff counter")
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return current, nil
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

func (s *Store) SaveAccount(ctx context.Context, a *account.Account) error {
	staffNumber, employedAt := staffColumns(a.Role())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (username, balance_cents, role, staff_number, employed_at, created_at)
         VALUES (?, ?, ?, ?, ?, ?);`,
		a.Username().Value(), a.Balance().Cents(), a.Role().Kind().String(), staffNumber, employedAt, a.CreatedAt(),
	)
	return errs.Wrap(err, "insert account")
}

func (s *Store) UpdateAccount(ctx context.Context, a *account.Account) error {
	staffNumber, employedAt := staffColumns(a.Role())
	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET balance_cents=?, role=?, staff_number=?, employed_at=? WHERE username=?;`,
		a.Balance().Cents(), a.Role().Kind().String(), staffNumber, employedAt, a.Username().Value(),
	)
	return errs.Wrap(err, "update account")
}

func (s *Store) SaveResource(ctx context.Context, r *catalog.Resource) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resources (id, title, author) VALUES (?, ?, ?);`,
		r.ID(), r.Title(), r.Author(),
	)
	return errs.Wrap(err, "insert resource")
}

func (s *Store) SaveCopy(ctx context.Context, key catalog.CopyKey) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO copies (resource_id, number) VALUES (?, ?);`,
		key.ResourceID, key.Number,
	)
	return errs.Wrap(err, "insert copy")
}

func (s *Store) SaveTransaction(ctx context.Context, tx *ledger.Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, username, resource_id, copy_number, reserved, started_at, returned_at)
         VALUES (?, ?, ?, ?, ?, ?, ?);`,
		tx.ID().String(), tx.Username(), tx.ResourceID(), tx.CopyNumber(), tx.IsReserved(), tx.StartedAt(), returnedColumn(tx),
	)
	return errs.Wrap(err, "insert transaction")
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *ledger.Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET reserved=?, returned_at=? WHERE id=?;`,
		tx.IsReserved(), returnedColumn(tx), tx.ID().String(),
	)
	return errs.Wrap(err, "update transaction")
}

func (s *Store) SaveEntry(ctx context.Context, e *ledger.Entry) error {
	var resourceID any
	var copyNumber, daysOverdue any
	if rid, number, days, ok := e.Fine(); ok {
		resourceID, copyNumber, daysOverdue = rid, number, days
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, kind, username, amount_cents, occurred_at, resource_id, copy_number, days_overdue)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		e.ID().String(), e.Kind().String(), e.Username(), e.Amount().Cents(), e.OccurredAt(), resourceID, copyNumber, daysOverdue,
	)
	return errs.Wrap(err, "insert entry")
}

func (s *Store) SaveRequest(ctx context.Context, resourceID, username string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO requests (resource_id, username) VALUES (?, ?);`,
		resourceID, username,
	)
	return errs.Wrap(err, "insert request")
}

func (s *Store) DeleteRequest(ctx context.Context, resourceID, username string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM requests WHERE resource_id=? AND username=?;`,
		resourceID, username,
	)
	return errs.Wrap(err, "delete request")
}

func staffColumns(r account.Role) (any, any) {
	if number, employedAt, ok := r.Staff(); ok {
		return number, employedAt
	}
	return nil, nil
}

func returnedColumn(tx *ledger.Transaction) any {
	if at := tx.ReturnedAt(); at != nil {
		return *at
	}
	return nil
}
