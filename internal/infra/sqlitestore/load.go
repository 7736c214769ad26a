package sqlitestore

import (
	"context"
	"database/sql"
	"time"

	"libcirc/internal/domain/account"
	"libcirc/internal/domain/catalog"
	"libcirc/internal/domain/ledger"
	"libcirc/internal/pkg/errs"
	"libcirc/internal/usecase/commands"

	"github.com/google/uuid"
)

type accountRow struct {
	username    string
	balance     int64
	role        string
	staffNumber sql.NullInt64
	employedAt  sql.NullTime
	createdAt   time.Time
}

// Load rebuilds the full aggregate graph from the database. Active
// transactions become copy currents and account borrowed/reserved sets;
// request rows rebuild the FIFO queues in insertion order.
func (s *Store) Load(ctx context.Context) (*commands.Snapshot, error) {
	accountRows, err := s.loadAccountRows(ctx)
	if err != nil {
		return nil, err
	}

	transactions, err := s.loadTransactions(ctx)
	if err != nil {
		return nil, err
	}

	requests, requestOrder, err := s.loadRequests(ctx)
	if err != nil {
		return nil, err
	}

	// Membership sets derive from live state, ordered by start time for
	// transactions and by insertion for requests.
	borrowed := make(map[string][]catalog.CopyKey)
	reserved := make(map[string][]catalog.CopyKey)
	for _, tx := range transactions {
		if !tx.IsActive() {
			continue
		}
		key := catalog.CopyKey{ResourceID: tx.ResourceID(), Number: tx.CopyNumber()}
		if tx.IsReserved() {
			reserved[tx.Username()] = append(reserved[tx.Username()], key)
		} else {
			borrowed[tx.Username()] = append(borrowed[tx.Username()], key)
		}
	}
	requested := make(map[string][]string)
	for _, req := range requestOrder {
		requested[req.username] = append(requested[req.username], req.resourceID)
	}

	snap := &commands.Snapshot{}
	for _, row := range accountRows {
		username, err := account.NewUsername(row.username)
		if err != nil {
			return nil, errs.Wrapf(err, "stored username %q", row.username)
		}
		role := account.MemberRole()
		if row.role == account.RoleStaff.String() {
			role = account.StaffRole(int(row.staffNumber.Int64), row.employedAt.Time)
		}
		snap.Accounts = append(snap.Accounts, account.ReconstructAccount(
			username,
			ledger.NewMoney(row.balance),
			borrowed[row.username],
			reserved[row.username],
			requested[row.username],
			role,
			row.createdAt,
		))
	}

	resources, err := s.loadResources(ctx, transactions, requests)
	if err != nil {
		return nil, err
	}
	snap.Resources = resources

	entries, err := s.loadEntries(ctx)
	if err != nil {
		return nil, err
	}
	snap.Entries = entries

	return snap, nil
}

func (s *Store) loadAccountRows(ctx context.Context) ([]accountRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, balance_cents, role, staff_number, employed_at, created_at
         FROM accounts ORDER BY rowid;`)
	if err != nil {
		return nil, errs.Wrap(err, "query accounts")
	}
	defer rows.Close()

	var out []accountRow
	for rows.Next() {
		var row accountRow
		if err := rows.Scan(&row.username, &row.balance, &row.role, &row.staffNumber, &row.employedAt, &row.createdAt); err != nil {
			return nil, errs.Wrap(err, "scan account")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) loadTransactions(ctx context.Context) ([]*ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, resource_id, copy_number, reserved, started_at, returned_at
         FROM transactions ORDER BY started_at, rowid;`)
	if err != nil {
		return nil, errs.Wrap(err, "query transactions")
	}
	defer rows.Close()

	var out []*ledger.Transaction
	for rows.Next() {
		var (
			rawID      string
			username   string
			resourceID string
			copyNumber int
			isReserved bool
			startedAt  time.Time
			returnedAt sql.NullTime
		)
		if err := rows.Scan(&rawID, &username, &resourceID, &copyNumber, &isReserved, &startedAt, &returnedAt); err != nil {
			return nil, errs.Wrap(err, "scan transaction")
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, errs.Wrapf(err, "stored transaction ID %q", rawID)
		}
		var returned *time.Time
		if returnedAt.Valid {
			at := returnedAt.Time
			returned = &at
		}
		out = append(out, ledger.ReconstructTransaction(id, username, resourceID, copyNumber, isReserved, startedAt, returned))
	}
	return out, rows.Err()
}

type requestRow struct {
	resourceID string
	username   string
}

func (s *Store) loadRequests(ctx context.Context) (map[string][]string, []requestRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT resource_id, username FROM requests ORDER BY id;`)
	if err != nil {
		return nil, nil, errs.Wrap(err, "query requests")
	}
	defer rows.Close()

	perResource := make(map[string][]string)
	var order []requestRow
	for rows.Next() {
		var row requestRow
		if err := rows.Scan(&row.resourceID, &row.username); err != nil {
			return nil, nil, errs.Wrap(err, "scan request")
		}
		perResource[row.resourceID] = append(perResource[row.resourceID], row.username)
		order = append(order, row)
	}
	return perResource, order, rows.Err()
}

func (s *Store) loadResources(ctx context.Context, transactions []*ledger.Transaction, requests map[string][]string) ([]*catalog.Resource, error) {
	// Group transactions per copy; order is preserved from the query.
	current := make(map[catalog.CopyKey]*ledger.Transaction)
	history := make(map[catalog.CopyKey][]*ledger.Transaction)
	for _, tx := range transactions {
		key := catalog.CopyKey{ResourceID: tx.ResourceID(), Number: tx.CopyNumber()}
		if tx.IsActive() {
			current[key] = tx
		} else {
			history[key] = append(history[key], tx)
		}
	}

	copyNumbers, err := s.loadCopyNumbers(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, title, author FROM resources ORDER BY rowid;`)
	if err != nil {
		return nil, errs.Wrap(err, "query resources")
	}
	defer rows.Close()

	var out []*catalog.Resource
	for rows.Next() {
		var id, title, author string
		if err := rows.Scan(&id, &title, &author); err != nil {
			return nil, errs.Wrap(err, "scan resource")
		}
		var copies []*catalog.Copy
		for _, number := range copyNumbers[id] {
			key := catalog.CopyKey{ResourceID: id, Number: number}
			copies = append(copies, catalog.ReconstructCopy(key, current[key], history[key]))
		}
		queue := catalog.ReconstructRequestQueue(requests[id])
		out = append(out, catalog.ReconstructResource(id, title, author, copies, queue))
	}
	return out, rows.Err()
}

func (s *Store) loadCopyNumbers(ctx context.Context) (map[string][]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT resource_id, number FROM copies ORDER BY resource_id, number;`)
	if err != nil {
		return nil, errs.Wrap(err, "query copies")
	}
	defer rows.Close()

	out := make(map[string][]int)
	for rows.Next() {
		var resourceID string
		var number int
		if err := rows.Scan(&resourceID, &number); err != nil {
			return nil, errs.Wrap(err, "scan copy")
		}
		out[resourceID] = append(out[resourceID], number)
	}
	return out, rows.Err()
}

func (s *Store) loadEntries(ctx context.Context) ([]*ledger.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, username, amount_cents, occurred_at, resource_id, copy_number, days_overdue
         FROM entries ORDER BY occurred_at, rowid;`)
	if err != nil {
		return nil, errs.Wrap(err, "query entries")
	}
	defer rows.Close()

	var out []*ledger.Entry
	for rows.Next() {
		var (
			rawID       string
			kind        string
			username    string
			amount      int64
			occurredAt  time.Time
			resourceID  sql.NullString
			copyNumber  sql.NullInt64
			daysOverdue sql.NullInt64
		)
		if err := rows.Scan(&rawID, &kind, &username, &amount, &occurredAt, &resourceID, &copyNumber, &daysOverdue); err != nil {
			return nil, errs.Wrap(err, "scan entry")
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, errs.Wrapf(err, "stored entry ID %q", rawID)
		}
		out = append(out, ledger.ReconstructEntry(
			id,
			ledger.EntryKind(kind),
			username,
			ledger.NewMoney(amount),
			occurredAt,
			resourceID.String,
			int(copyNumber.Int64),
			int(daysOverdue.Int64),
		))
	}
	return out, rows.Err()
}
