// Package models - script.go defines saved scripts and the partial update applied to them.
package models

import "time"

// Script is a saved three-part short-form video script.
type Script struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	Title       string    `db:"title" json:"title"`
	Niche       string    `db:"niche" json:"niche"`
	ContentType string    `db:"content_type" json:"contentType"`
	Tone        string    `db:"tone" json:"tone"`
	Length      string    `db:"length" json:"length"`
	Notes       *string   `db:"notes" json:"notes"`
	Hook        string    `db:"hook" json:"hook"`
	Body        string    `db:"body" json:"body"`
	CTA         string    `db:"cta" json:"cta"`
	IsFavorite  int       `db:"is_favorite" json:"isFavorite"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// ScriptPatch carries the fields a partial update may change. Nil fields are
// left untouched. Identity fields (id, userId, createdAt) are deliberately absent.
type ScriptPatch struct {
	Title       *string `json:"title"`
	Niche       *string `json:"niche"`
	ContentType *string `json:"contentType"`
	Tone        *string `json:"tone"`
	Length      *string `json:"length"`
	Notes       *string `json:"notes"`
	Hook        *string `json:"hook"`
	Body        *string `json:"body"`
	CTA         *string `json:"cta"`
	IsFavorite  *int    `json:"isFavorite"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *ScriptPatch) IsEmpty() bool {
	return p.Title == nil && p.Niche == nil && p.ContentType == nil && p.Tone == nil &&
		p.Length == nil && p.Notes == nil && p.Hook == nil && p.Body == nil &&
		p.CTA == nil && p.IsFavorite == nil
}

// Apply copies the non-nil patch fields onto s. An empty Notes string clears notes.
func (p *ScriptPatch) Apply(s *Script) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.Title, p.Title)
	set(&s.Niche, p.Niche)
	set(&s.ContentType, p.ContentType)
	set(&s.Tone, p.Tone)
	set(&s.Length, p.Length)
	set(&s.Hook, p.Hook)
	set(&s.Body, p.Body)
	set(&s.CTA, p.CTA)
	if p.Notes != nil {
		if *p.Notes == "" {
			s.Notes = nil
		} else {
			notes := *p.Notes
			s.Notes = &notes
		}
	}
	if p.IsFavorite != nil {
		s.IsFavorite = *p.IsFavorite
	}
}
