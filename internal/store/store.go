// Package store defines the persistence interfaces for users, scripts and the
// community feed, plus the backend registry used to pick an implementation
// from configuration.
//
// Backends register themselves from an init function:
//
//	func init() { store.Register(config.BackendMemory, New) }
//
// and are pulled in by the binary with a blank import.
package store

import (
	"context"
	"errors"

	"github.com/hookline/hookline/internal/db/models"
)

var (
	// ErrEmailTaken is returned by CreateUser when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUsernameTaken is returned by CreateUser when the username is already taken.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrScriptNotFound is returned when an operation references a script that does not exist.
	ErrScriptNotFound = errors.New("script not found")
)

// Users is the credential store.
type Users interface {
	// CreateUser assigns ID and CreatedAt and inserts u. The uniqueness check
	// for email and username is atomic with the insert.
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// Scripts is the script repository.
type Scripts interface {
	// CreateScript assigns ID, CreatedAt and UpdatedAt and inserts s.
	CreateScript(ctx context.Context, s *models.Script) error
	GetScript(ctx context.Context, id string) (*models.Script, error)
	// ListScriptsByUser returns the user's scripts newest first.
	ListScriptsByUser(ctx context.Context, userID string) ([]*models.Script, error)
	// UpdateScript applies patch and refreshes UpdatedAt. It returns nil, nil
	// when the script does not exist.
	UpdateScript(ctx context.Context, id string, patch *models.ScriptPatch) (*models.Script, error)
	// DeleteScript removes the script and its community entries when userID
	// owns it. It reports false, without mutating anything, when the script is
	// absent or owned by someone else.
	DeleteScript(ctx context.Context, id, userID string) (bool, error)
	CountScripts(ctx context.Context) (int, error)
}

// Community is the community feed repository.
type Community interface {
	// ListCommunity returns visible entries with their scripts, most liked
	// first. limit <= 0 means no limit.
	ListCommunity(ctx context.Context, limit int) ([]*models.CommunityScript, error)
	// AddToCommunity promotes a script with randomised engagement counters.
	AddToCommunity(ctx context.Context, scriptID, anonymousUsername string) (*models.CommunityEntry, error)
	CountCommunityEntries(ctx context.Context) (int, error)
}

// Store bundles every repository behind one backend.
type Store interface {
	Users
	Scripts
	Community

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
