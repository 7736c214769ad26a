package queries

import (
	"time"

	"github.com/google/uuid"
)

// Read models (DTO for read side)

type AccountView struct {
	Username     string     `json:"username"`
	BalanceCents int64      `json:"balance_cents"`
	Role         string     `json:"role"`
	StaffNumber  *int       `json:"staff_number,omitempty"`
	EmployedAt   *time.Time `json:"employed_at,omitempty"`
	Borrowed     []string   `json:"borrowed"`
	Reserved     []string   `json:"reserved"`
	Requested    []string   `json:"requested"`
}

type CopyView struct {
	ResourceID   string     `json:"resource_id"`
	Number       int        `json:"number"`
	Status       string     `json:"status"`
	Borrower     *string    `json:"borrower,omitempty"`
	Since        *time.Time `json:"since,omitempty"`
	DaysUntilDue *int       `json:"days_until_due,omitempty"`
}

type ResourceView struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Author string     `json:"author"`
	Copies []CopyView `json:"copies"`
	Queue  []string   `json:"queue"`
}

type EntryView struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	Username    string    `json:"username"`
	AmountCents int64     `json:"amount_cents"`
	OccurredAt  time.Time `json:"occurred_at"`
	CopyRef     *string   `json:"copy_ref,omitempty"`
	DaysOverdue *int      `json:"days_overdue,omitempty"`
}

type TransactionView struct {
	ID         uuid.UUID  `json:"id"`
	Username   string     `json:"username"`
	ResourceID string     `json:"resource_id"`
	Number     int        `json:"number"`
	Reserved   bool       `json:"reserved"`
	StartedAt  time.Time  `json:"started_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}
