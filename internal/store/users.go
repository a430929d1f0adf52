package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Roles a user can hold.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ProviderLocal marks accounts created through the registration form.
const ProviderLocal = "local"

type User struct {
	ID           string    `db:"id"`
	Provider     string    `db:"provider"`
	Subject      string    `db:"subject"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	DisplayName  string    `db:"display_name"`
	Role         string    `db:"role"`
	ClassTag     string    `db:"class_tag"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NewUser carries the fields of a locally registered account.
type NewUser struct {
	Email        string
	PasswordHash string
	DisplayName  string
	ClassTag     string
}

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) q(query string) string { return s.db.Rebind(query) }

// roleFor returns "admin" when email matches the configured admin email.
// Addresses compare case-insensitively.
func roleFor(email, adminEmail string) string {
	adminEmail = strings.TrimSpace(adminEmail)
	if adminEmail != "" && strings.EqualFold(strings.TrimSpace(email), adminEmail) {
		return RoleAdmin
	}
	return RoleUser
}

// Create inserts a local account. adminEmail: if non-empty and equal to
// nu.Email, the account gets the admin role.
func (s *UserStore) Create(ctx context.Context, nu NewUser, adminEmail string) (*User, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO users (id, provider, subject, email, password_hash, display_name, role, class_tag, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), id, ProviderLocal, id, nu.Email, nu.PasswordHash, nu.DisplayName, roleFor(nu.Email, adminEmail), nu.ClassTag, now, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// OIDCIdentity is the account data carried by a verified ID token.
type OIDCIdentity struct {
	Provider    string
	Subject     string
	Email       string
	DisplayName string
	ClassTag    string
	// Admin is set when the identity provider puts the user in an admin group.
	Admin bool
}

// upsertQuery returns the insert-or-update statement for driver. A returning
// user keeps their role unless the new login grants admin, and keeps their
// class when the token carries none.
func upsertQuery(driver string) string {
	if driver == "mysql" {
		// ON DUPLICATE KEY fires for the email index too; the provider and
		// subject guards leave a colliding local account untouched.
		return `
		INSERT INTO users (id, provider, subject, email, password_hash, display_name, role, class_tag, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			email = IF(provider = VALUES(provider) AND subject = VALUES(subject), VALUES(email), email),
			display_name = IF(provider = VALUES(provider) AND subject = VALUES(subject), VALUES(display_name), display_name),
			class_tag = IF(provider = VALUES(provider) AND subject = VALUES(subject) AND VALUES(class_tag) <> '', VALUES(class_tag), class_tag),
			role = IF(provider = VALUES(provider) AND subject = VALUES(subject) AND VALUES(role) = 'admin', 'admin', role),
			updated_at = IF(provider = VALUES(provider) AND subject = VALUES(subject), VALUES(updated_at), updated_at)`
	}
	return `
		INSERT INTO users (id, provider, subject, email, password_hash, display_name, role, class_tag, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', ?, ?, ?, ?, ?)
		ON CONFLICT (provider, subject) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			class_tag = CASE WHEN excluded.class_tag <> '' THEN excluded.class_tag ELSE users.class_tag END,
			role = CASE WHEN excluded.role = 'admin' THEN 'admin' ELSE users.role END,
			updated_at = excluded.updated_at`
}

// Upsert creates or updates a user record on OIDC login. It returns
// ErrEmailTaken when the email belongs to a different account.
func (s *UserStore) Upsert(ctx context.Context, id OIDCIdentity, adminEmail string) (*User, error) {
	now := time.Now().UTC()
	role := roleFor(id.Email, adminEmail)
	if id.Admin {
		role = RoleAdmin
	}

	_, err := s.db.ExecContext(ctx, s.q(upsertQuery(s.db.DriverName())),
		uuid.New().String(), id.Provider, id.Subject, id.Email, id.DisplayName, role, id.ClassTag, now, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	var u User
	err = s.db.GetContext(ctx, &u, s.q(`SELECT * FROM users WHERE provider = ? AND subject = ?`), id.Provider, id.Subject)
	if err == sql.ErrNoRows {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns the user matching email, or ErrNotFound.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.q(`SELECT * FROM users WHERE email = ?`), email)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns the user matching id, or ErrNotFound.
func (s *UserStore) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.q(`SELECT * FROM users WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListAll returns all users ordered by display name.
func (s *UserStore) ListAll(ctx context.Context) ([]*User, error) {
	var users []*User
	err := s.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY display_name ASC`)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateRole sets the role for the given user and returns the updated record.
func (s *UserStore) UpdateRole(ctx context.Context, id, role string) (*User, error) {
	_, err := s.db.ExecContext(ctx, s.q(`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`),
		role, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Count returns the number of users.
func (s *UserStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}
