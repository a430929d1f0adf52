package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Loan statuses.
const (
	LoanPending  = "pending"
	LoanActive   = "active"
	LoanReturned = "returned"
	LoanRejected = "rejected"
)

// DefaultLoanPeriod is how long an approved loan runs before it is due.
const DefaultLoanPeriod = 14 * 24 * time.Hour

// Loan is a row in the loans table.
type Loan struct {
	ID          string       `db:"id"`
	ItemID      string       `db:"item_id"`
	UserID      string       `db:"user_id"`
	Status      string       `db:"status"`
	RequestedAt time.Time    `db:"requested_at"`
	DueAt       sql.NullTime `db:"due_at"`
	ReturnedAt  sql.NullTime `db:"returned_at"`
}

// LoanView is a loan joined with its item and borrower for listings.
type LoanView struct {
	Loan
	ItemTitle    string `db:"item_title"`
	ItemCode     string `db:"item_code"`
	BorrowerName string `db:"borrower_name"`
	BorrowerTag  string `db:"borrower_class"`
}

// Overdue reports whether an active loan is past its due date at now.
func (l *Loan) Overdue(now time.Time) bool {
	return l.Status == LoanActive && l.DueAt.Valid && now.After(l.DueAt.Time)
}

// LoanStore is the sqlx-backed store for loans. Approve and Return adjust
// item stock in the same transaction as the status change.
type LoanStore struct {
	db     *sqlx.DB
	period time.Duration
}

func NewLoanStore(db *sqlx.DB) *LoanStore {
	return &LoanStore{db: db, period: DefaultLoanPeriod}
}

func (s *LoanStore) q(query string) string { return s.db.Rebind(query) }

const loanViewSelect = `
	SELECT l.*, i.title AS item_title, i.code AS item_code,
		u.display_name AS borrower_name, u.class_tag AS borrower_class
	FROM loans l
	INNER JOIN items i ON i.id = l.item_id
	INNER JOIN users u ON u.id = l.user_id
`

// Request opens a pending loan of itemID for userID.
func (s *LoanStore) Request(ctx context.Context, itemID, userID string) (*Loan, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var stock int
	err = tx.GetContext(ctx, &stock, s.q(`SELECT stock FROM items WHERE id = ?`), itemID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if stock <= 0 {
		return nil, ErrOutOfStock
	}

	var open int
	err = tx.GetContext(ctx, &open, s.q(`
		SELECT COUNT(*) FROM loans WHERE item_id = ? AND user_id = ? AND status IN (?, ?)
	`), itemID, userID, LoanPending, LoanActive)
	if err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, ErrLoanExists
	}

	id := uuid.New().String()
	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO loans (id, item_id, user_id, status, requested_at)
		VALUES (?, ?, ?, ?, ?)
	`), id, itemID, userID, LoanPending, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// GetByID returns the loan matching id, or ErrNotFound.
func (s *LoanStore) GetByID(ctx context.Context, id string) (*Loan, error) {
	var l Loan
	err := s.db.GetContext(ctx, &l, s.q(`SELECT * FROM loans WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Approve activates a pending loan, takes one copy out of stock, and sets
// the due date.
func (s *LoanStore) Approve(ctx context.Context, id string) (*Loan, error) {
	return s.transition(ctx, id, LoanPending, LoanActive, func(tx *sqlx.Tx, l *Loan, now time.Time) error {
		res, err := tx.ExecContext(ctx, s.q(`UPDATE items SET stock = stock - 1, updated_at = ? WHERE id = ? AND stock > 0`), now, l.ItemID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrOutOfStock
		}
		_, err = tx.ExecContext(ctx, s.q(`UPDATE loans SET due_at = ? WHERE id = ?`), now.Add(s.period), l.ID)
		return err
	})
}

// Reject declines a pending loan.
func (s *LoanStore) Reject(ctx context.Context, id string) (*Loan, error) {
	return s.transition(ctx, id, LoanPending, LoanRejected, nil)
}

// Return closes an active loan and puts the copy back in stock.
func (s *LoanStore) Return(ctx context.Context, id string) (*Loan, error) {
	return s.transition(ctx, id, LoanActive, LoanReturned, func(tx *sqlx.Tx, l *Loan, now time.Time) error {
		if _, err := tx.ExecContext(ctx, s.q(`UPDATE items SET stock = stock + 1, updated_at = ? WHERE id = ?`), now, l.ItemID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, s.q(`UPDATE loans SET returned_at = ? WHERE id = ?`), now, l.ID)
		return err
	})
}

// transition moves loan id from status from to status to, then runs apply
// in the same transaction. The status update is conditional on from, so of
// two concurrent transitions of the same loan only one commits; the other
// gets ErrInvalidTransition and apply never runs for it.
func (s *LoanStore) transition(ctx context.Context, id, from, to string, apply func(*sqlx.Tx, *Loan, time.Time) error) (*Loan, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var l Loan
	err = tx.GetContext(ctx, &l, s.q(`SELECT * FROM loans WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := claimTransition(ctx, tx, s.q, &l, from, to); err != nil {
		return nil, err
	}
	if apply != nil {
		if err := apply(tx, &l, time.Now().UTC()); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// claimTransition sets l's status to to if it is still from. The row lock
// taken by the UPDATE makes a concurrent claim wait and then match no rows.
func claimTransition(ctx context.Context, tx *sqlx.Tx, rebind func(string) string, l *Loan, from, to string) error {
	if l.Status != from {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, l.Status, to)
	}
	res, err := tx.ExecContext(ctx, rebind(`UPDATE loans SET status = ? WHERE id = ? AND status = ?`), to, l.ID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, l.ID)
	}
	l.Status = to
	return nil
}

// ListByUser returns the user's loans, newest first.
func (s *LoanStore) ListByUser(ctx context.Context, userID string) ([]*LoanView, error) {
	var loans []*LoanView
	err := s.db.SelectContext(ctx, &loans, s.q(loanViewSelect+`
		WHERE l.user_id = ?
		ORDER BY l.requested_at DESC
	`), userID)
	if err != nil {
		return nil, err
	}
	return loans, nil
}

// ListByStatus returns loans in the given status, oldest first. An empty
// status lists every loan.
func (s *LoanStore) ListByStatus(ctx context.Context, status string) ([]*LoanView, error) {
	var loans []*LoanView
	var err error
	if status == "" {
		err = s.db.SelectContext(ctx, &loans, loanViewSelect+` ORDER BY l.requested_at ASC`)
	} else {
		err = s.db.SelectContext(ctx, &loans, s.q(loanViewSelect+`
			WHERE l.status = ?
			ORDER BY l.requested_at ASC
		`), status)
	}
	if err != nil {
		return nil, err
	}
	return loans, nil
}

// CountByStatus returns the number of loans in status.
func (s *LoanStore) CountByStatus(ctx context.Context, status string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.q(`SELECT COUNT(*) FROM loans WHERE status = ?`), status)
	return n, err
}
