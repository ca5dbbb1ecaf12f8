package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hookline/hookline/internal/db/models"
	"github.com/hookline/hookline/internal/generation"
	"github.com/hookline/hookline/internal/store"
	"github.com/hookline/hookline/internal/telemetry"
	"github.com/hookline/hookline/internal/validation"
)

// Generator produces a script for a brief. *generation.Service implements it.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) generation.Result
}

// SaveInput is the body of a save request.
type SaveInput struct {
	Title       string `json:"title"`
	Niche       string `json:"niche"`
	ContentType string `json:"contentType"`
	Tone        string `json:"tone"`
	Length      string `json:"length"`
	Notes       string `json:"notes"`
	Hook        string `json:"hook"`
	Body        string `json:"body"`
	CTA         string `json:"cta"`
}

// ScriptService generates, saves and manages a user's scripts.
type ScriptService struct {
	scripts   store.Scripts
	community store.Community
	generator Generator
}

// NewScriptService creates a ScriptService.
func NewScriptService(scripts store.Scripts, community store.Community, generator Generator) *ScriptService {
	return &ScriptService{scripts: scripts, community: community, generator: generator}
}

// Generate validates the brief and returns a script. Provider failures never
// reach the caller.
func (s *ScriptService) Generate(ctx context.Context, req generation.Request) (generation.Result, error) {
	if err := validation.ValidateBrief(req.Niche, req.ContentType, req.Tone, req.Length); err != nil {
		return generation.Result{}, err
	}
	return s.generator.Generate(ctx, req), nil
}

// Save stores a script for userID. Blank notes are stored as null and the
// script starts as a non-favorite.
func (s *ScriptService) Save(ctx context.Context, userID string, in SaveInput) (*models.Script, error) {
	script := &models.Script{
		UserID:      userID,
		Title:       in.Title,
		Niche:       in.Niche,
		ContentType: in.ContentType,
		Tone:        in.Tone,
		Length:      in.Length,
		Hook:        in.Hook,
		Body:        in.Body,
		CTA:         in.CTA,
		IsFavorite:  0,
	}
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		script.Notes = &in.Notes
	}

	if err := validation.ValidateScript(script); err != nil {
		return nil, err
	}
	if err := s.scripts.CreateScript(ctx, script); err != nil {
		return nil, err
	}

	telemetry.ScriptsSavedTotal.Inc()
	return script, nil
}

// List returns userID's scripts, newest first.
func (s *ScriptService) List(ctx context.Context, userID string) ([]*models.Script, error) {
	return s.scripts.ListScriptsByUser(ctx, userID)
}

// Update applies patch to a script owned by userID. Absent and not-owned
// scripts both return ErrScriptNotFound.
func (s *ScriptService) Update(ctx context.Context, userID, id string, patch *models.ScriptPatch) (*models.Script, error) {
	if err := validation.ValidatePatch(patch); err != nil {
		return nil, err
	}

	existing, err := s.scripts.GetScript(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil || existing.UserID != userID {
		return nil, ErrScriptNotFound
	}

	updated, err := s.scripts.UpdateScript(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// deleted between the ownership check and the update
		return nil, ErrScriptNotFound
	}
	return updated, nil
}

// Delete removes a script owned by userID together with its community entries.
func (s *ScriptService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.scripts.DeleteScript(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrScriptNotFound
	}
	telemetry.ScriptsDeletedTotal.Inc()
	return nil
}

// Promote publishes a script to the community feed under an anonymous name.
// No HTTP route calls it; operators run it through the server's promote
// subcommand.
func (s *ScriptService) Promote(ctx context.Context, scriptID, anonymousUsername string) (*models.CommunityEntry, error) {
	anonymousUsername = strings.TrimSpace(anonymousUsername)
	if err := validation.Required("Anonymous username is required",
		validation.Field{Name: "anonymousUsername", Value: anonymousUsername}); err != nil {
		return nil, err
	}

	entry, err := s.community.AddToCommunity(ctx, scriptID, anonymousUsername)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "script promoted to community",
		"script_id", scriptID,
		"entry_id", entry.ID,
		"likes", entry.Likes,
	)
	return entry, nil
}
