package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Item is a borrowable catalog entry.
type Item struct {
	ID          string    `db:"id"`
	Code        string    `db:"code"`
	Title       string    `db:"title"`
	Author      string    `db:"author"`
	Description string    `db:"description"`
	Stock       int       `db:"stock"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Available reports whether at least one copy can be lent out.
func (i *Item) Available() bool { return i.Stock > 0 }

// ItemStore is the sqlx-backed catalog.
type ItemStore struct {
	db *sqlx.DB
}

func NewItemStore(db *sqlx.DB) *ItemStore {
	return &ItemStore{db: db}
}

func (s *ItemStore) q(query string) string { return s.db.Rebind(query) }

// Create adds an item to the catalog.
func (s *ItemStore) Create(ctx context.Context, code, title, author, description string, stock int) (*Item, error) {
	if err := ValidateItemCode(code); err != nil {
		return nil, err
	}
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO items (id, code, title, author, description, stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), id, code, title, author, description, stock, now, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrCodeTaken
		}
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// GetByID returns the item matching id, or ErrNotFound.
func (s *ItemStore) GetByID(ctx context.Context, id string) (*Item, error) {
	var it Item
	err := s.db.GetContext(ctx, &it, s.q(`SELECT * FROM items WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// List returns the whole catalog ordered by title.
func (s *ItemStore) List(ctx context.Context) ([]*Item, error) {
	var items []*Item
	err := s.db.SelectContext(ctx, &items, `SELECT * FROM items ORDER BY title ASC`)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Search returns items whose code, title, or author contains query
// (case-insensitive). An empty query lists everything.
func (s *ItemStore) Search(ctx context.Context, query string) ([]*Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}
	like := "%" + strings.ToLower(query) + "%"
	var items []*Item
	err := s.db.SelectContext(ctx, &items, s.q(`
		SELECT * FROM items
		WHERE LOWER(code) LIKE ? OR LOWER(title) LIKE ? OR LOWER(author) LIKE ?
		ORDER BY title ASC
	`), like, like, like)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Count returns the number of catalog entries.
func (s *ItemStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM items`)
	return n, err
}
