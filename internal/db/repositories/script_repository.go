package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hookline/hookline/internal/db/models"
)

// ScriptRepository handles script database operations
type ScriptRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewScriptRepository creates a new ScriptRepository
func NewScriptRepository(db *sqlx.DB) *ScriptRepository {
	return &ScriptRepository{db: db, now: time.Now}
}

const scriptColumns = `id, user_id, title, niche, content_type, tone, length, notes, hook, body, cta, is_favorite, created_at, updated_at`

// CreateScript inserts a script with a fresh ID and timestamps
func (r *ScriptRepository) CreateScript(ctx context.Context, s *models.Script) error {
	id := uuid.New().String()
	now := r.now().UTC()

	query := `
		INSERT INTO scripts (` + scriptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		id,
		s.UserID,
		s.Title,
		s.Niche,
		s.ContentType,
		s.Tone,
		s.Length,
		s.Notes,
		s.Hook,
		s.Body,
		s.CTA,
		s.IsFavorite,
		now,
		now,
	)
	if err != nil {
		return err
	}

	s.ID = id
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// GetScript retrieves a script by ID
func (r *ScriptRepository) GetScript(ctx context.Context, id string) (*models.Script, error) {
	s := &models.Script{}
	err := r.db.GetContext(ctx, s, `SELECT `+scriptColumns+` FROM scripts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListScriptsByUser returns a user's scripts, newest first
func (r *ScriptRepository) ListScriptsByUser(ctx context.Context, userID string) ([]*models.Script, error) {
	query := `
		SELECT ` + scriptColumns + `
		FROM scripts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	scripts := make([]*models.Script, 0)
	if err := r.db.SelectContext(ctx, &scripts, query, userID); err != nil {
		return nil, err
	}
	return scripts, nil
}

// UpdateScript applies patch inside a transaction holding a row lock, so
// concurrent patches to different fields do not overwrite each other.
func (r *ScriptRepository) UpdateScript(ctx context.Context, id string, patch *models.ScriptPatch) (*models.Script, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	s := &models.Script{}
	err = tx.GetContext(ctx, s, `SELECT `+scriptColumns+` FROM scripts WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	patch.Apply(s)
	s.UpdatedAt = r.now().UTC()

	query := `
		UPDATE scripts
		SET title = $2, niche = $3, content_type = $4, tone = $5, length = $6,
		    notes = $7, hook = $8, body = $9, cta = $10, is_favorite = $11, updated_at = $12
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, query,
		s.ID,
		s.Title,
		s.Niche,
		s.ContentType,
		s.Tone,
		s.Length,
		s.Notes,
		s.Hook,
		s.Body,
		s.CTA,
		s.IsFavorite,
		s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s, nil
}

// DeleteScript deletes a script owned by userID. Community entries go with
// it through ON DELETE CASCADE.
func (r *ScriptRepository) DeleteScript(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scripts WHERE id = $1 AND user_id = $2`, id, userID)
	if isMalformedID(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountScripts returns the number of saved scripts
func (r *ScriptRepository) CountScripts(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM scripts`)
	return n, err
}
