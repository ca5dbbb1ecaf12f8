package repositories

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hookline/hookline/internal/db/models"
	"github.com/hookline/hookline/internal/store"
)

// CommunityRepository handles community feed database operations
type CommunityRepository struct {
	db   *sqlx.DB
	now  func() time.Time
	intN func(n int) int
}

// NewCommunityRepository creates a new CommunityRepository
func NewCommunityRepository(db *sqlx.DB) *CommunityRepository {
	return &CommunityRepository{db: db, now: time.Now, intN: rand.IntN}
}

// ListCommunity returns visible entries joined with their scripts, most
// liked first. limit <= 0 returns every visible entry.
func (r *CommunityRepository) ListCommunity(ctx context.Context, limit int) ([]*models.CommunityScript, error) {
	query := `
		SELECT c.id, c.script_id, c.anonymous_username, c.likes, c.shares, c.is_visible, c.created_at,
		       s.id, s.user_id, s.title, s.niche, s.content_type, s.tone, s.length, s.notes,
		       s.hook, s.body, s.cta, s.is_favorite, s.created_at, s.updated_at
		FROM community_scripts c
		JOIN scripts s ON s.id = c.script_id
		WHERE c.is_visible = 1
		ORDER BY c.likes DESC, c.created_at DESC, c.id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	feed := make([]*models.CommunityScript, 0)
	for rows.Next() {
		cs := &models.CommunityScript{}
		err := rows.Scan(
			&cs.ID,
			&cs.ScriptID,
			&cs.AnonymousUsername,
			&cs.Likes,
			&cs.Shares,
			&cs.IsVisible,
			&cs.CreatedAt,
			&cs.Script.ID,
			&cs.Script.UserID,
			&cs.Script.Title,
			&cs.Script.Niche,
			&cs.Script.ContentType,
			&cs.Script.Tone,
			&cs.Script.Length,
			&cs.Script.Notes,
			&cs.Script.Hook,
			&cs.Script.Body,
			&cs.Script.CTA,
			&cs.Script.IsFavorite,
			&cs.Script.CreatedAt,
			&cs.Script.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		feed = append(feed, cs)
	}
	return feed, rows.Err()
}

// AddToCommunity promotes a script with likes in [100, 600) and shares in
// [20, 120). A missing script fails the foreign key and maps to
// store.ErrScriptNotFound, as does a script id that is not a UUID.
func (r *CommunityRepository) AddToCommunity(ctx context.Context, scriptID, anonymousUsername string) (*models.CommunityEntry, error) {
	entry := &models.CommunityEntry{
		ID:                uuid.New().String(),
		ScriptID:          scriptID,
		AnonymousUsername: anonymousUsername,
		Likes:             100 + r.intN(500),
		Shares:            20 + r.intN(100),
		IsVisible:         1,
		CreatedAt:         r.now().UTC(),
	}

	query := `
		INSERT INTO community_scripts (id, script_id, anonymous_username, likes, shares, is_visible, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ScriptID,
		entry.AnonymousUsername,
		entry.Likes,
		entry.Shares,
		entry.IsVisible,
		entry.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := pqError(err); ok && pqErr.Code == pgForeignKeyViolation {
			return nil, store.ErrScriptNotFound
		}
		if isMalformedID(err) {
			return nil, store.ErrScriptNotFound
		}
		return nil, err
	}
	return entry, nil
}

// CountCommunityEntries returns the number of feed entries
func (r *CommunityRepository) CountCommunityEntries(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM community_scripts`)
	return n, err
}
