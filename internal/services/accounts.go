package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hookline/hookline/internal/auth"
	"github.com/hookline/hookline/internal/db/models"
	"github.com/hookline/hookline/internal/store"
	"github.com/hookline/hookline/internal/telemetry"
	"github.com/hookline/hookline/internal/validation"
)

// SignupInput is the signup request body.
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

// LoginInput is the login request body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is returned by signup and login.
type Session struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// AccountService registers users and issues sessions.
type AccountService struct {
	users  store.Users
	hasher *auth.PasswordHasher
	tokens *auth.TokenIssuer
}

// NewAccountService creates an AccountService.
func NewAccountService(users store.Users, hasher *auth.PasswordHasher, tokens *auth.TokenIssuer) *AccountService {
	return &AccountService{users: users, hasher: hasher, tokens: tokens}
}

// Signup validates in, rejects a taken email (checked first) or username,
// stores the user with a bcrypt hash and returns a session.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)

	if err := validation.ValidateSignup(in.Email, in.Password, in.Username, in.FullName); err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	existing, err = s.users.GetUserByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
	}
	// The store repeats the uniqueness check atomically, so a concurrent
	// signup that slipped past the lookups above still fails here.
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	telemetry.AuthEventsTotal.WithLabelValues("signup").Inc()
	slog.InfoContext(ctx, "user signed up", "user_id", user.ID)

	return s.session(user)
}

// Login checks credentials. Unknown email and wrong password both return
// ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.ValidateLogin(in.Email, in.Password); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if user == nil || !s.hasher.Compare(user.PasswordHash, in.Password) {
		telemetry.AuthEventsTotal.WithLabelValues("login_failed").Inc()
		return nil, ErrInvalidCredentials
	}

	telemetry.AuthEventsTotal.WithLabelValues("login").Inc()
	return s.session(user)
}

// Profile returns the public view of userID.
func (s *AccountService) Profile(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	pub := user.Public()
	return &pub, nil
}

func (s *AccountService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{Token: token, User: user.Public()}, nil
}
