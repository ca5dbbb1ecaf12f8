// Package repositories implements the PostgreSQL data access layer behind the
// "postgres" store backend. Each repository type owns the queries for one
// table; Store bundles them into a store.Store.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hookline/hookline/internal/db/models"
	"github.com/hookline/hookline/internal/store"
)

// PostgreSQL error codes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	// pgInvalidTextRepresentation is raised when a malformed id is cast to UUID.
	pgInvalidTextRepresentation = "22P02"
)

// Unique constraints on the users table, see migrations/000001_init.up.sql.
const (
	usersEmailKey    = "users_email_key"
	usersUsernameKey = "users_username_key"
)

func pqError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// isMalformedID reports whether err is PostgreSQL rejecting an id that is not
// a UUID. No row can have such an id, so callers treat it as not found.
func isMalformedID(err error) bool {
	pqErr, ok := pqError(err)
	return ok && pqErr.Code == pgInvalidTextRepresentation
}

// UserRepository handles user database operations
type UserRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

// CreateUser inserts a user. Duplicate email or username surface as
// store.ErrEmailTaken or store.ErrUsernameTaken; the unique indexes make the
// check atomic with the insert.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	id := uuid.New().String()
	createdAt := r.now().UTC()

	query := `
		INSERT INTO users (id, username, email, password_hash, full_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		id,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FullName,
		createdAt,
	)
	if err != nil {
		if pqErr, ok := pqError(err); ok && pqErr.Code == pgUniqueViolation {
			switch pqErr.Constraint {
			case usersEmailKey:
				return store.ErrEmailTaken
			case usersUsernameKey:
				return store.ErrUsernameTaken
			}
		}
		return err
	}

	user.ID = id
	user.CreatedAt = createdAt
	return nil
}

const userColumns = `id, username, email, password_hash, full_name, created_at`

func (r *UserRepository) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	err := r.db.GetContext(ctx, user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetUserByUsername retrieves a user by username
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// CountUsers returns the number of registered users
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}
