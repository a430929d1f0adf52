package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Notification is a message addressed to one user.
type Notification struct {
	ID        string       `db:"id"`
	UserID    string       `db:"user_id"`
	Message   string       `db:"message"`
	Link      string       `db:"link"`
	ReadAt    sql.NullTime `db:"read_at"`
	CreatedAt time.Time    `db:"created_at"`
}

// Unread reports whether the notification has not been read.
func (n *Notification) Unread() bool { return !n.ReadAt.Valid }

type NotificationStore struct {
	db *sqlx.DB
}

func NewNotificationStore(db *sqlx.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) q(query string) string { return s.db.Rebind(query) }

// Create stores an unread notification for userID.
func (s *NotificationStore) Create(ctx context.Context, userID, message, link string) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Message:   message,
		Link:      link,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO notifications (id, user_id, message, link, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), n.ID, n.UserID, n.Message, n.Link, n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// CountUnread returns how many of userID's notifications are unread.
func (s *NotificationStore) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.q(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_at IS NULL`), userID)
	return n, err
}

// ListByUser returns userID's notifications, newest first.
func (s *NotificationStore) ListByUser(ctx context.Context, userID string) ([]*Notification, error) {
	var ns []*Notification
	err := s.db.SelectContext(ctx, &ns, s.q(`
		SELECT * FROM notifications WHERE user_id = ? ORDER BY created_at DESC
	`), userID)
	if err != nil {
		return nil, err
	}
	return ns, nil
}

// MarkAllRead marks every unread notification of userID as read.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		UPDATE notifications SET read_at = ? WHERE user_id = ? AND read_at IS NULL
	`), time.Now().UTC(), userID)
	return err
}
