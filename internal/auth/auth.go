// Package auth signs users up and in with email and password and issues
// session tokens. A session is an HS256 JWT whose id is registered in a
// SessionStore; signing out removes it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"reportit/backend/internal/config"
	"reportit/backend/internal/models"
	"reportit/backend/internal/storage"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooShort   = errors.New("password too short")
)

// MinPasswordLength matches what the sign-up form enforces.
const MinPasswordLength = 6

type Claims struct {
	DisplayName string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Provider implements the email/password auth flow.
type Provider struct {
	users    storage.Storage
	sessions SessionStore
	secret   []byte
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewProvider(users storage.Storage, sessions SessionStore, cfg config.AuthConfig, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = config.DefaultSessionTTL
	}
	return &Provider{
		users:    users,
		sessions: sessions,
		secret:   []byte(cfg.JWTSecret),
		ttl:      ttl,
		logger:   logger.With("component", "auth"),
		now:      time.Now,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// SignUp creates an account and returns a fresh session for it.
func (p *Provider) SignUp(ctx context.Context, email, password, name string) (*models.AuthSession, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Email:        &email,
		DisplayName:  strings.TrimSpace(name),
		PasswordHash: string(hash),
	}
	if err := p.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	p.logger.Info("user signed up", "user_id", user.ID)
	return p.issue(ctx, user)
}

// SignIn checks the password and returns a new session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := p.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return p.issue(ctx, user)
}

// SignOut revokes the session behind token. Signing out an unknown or
// expired token is not an error.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		return nil
	}
	if err := p.sessions.Revoke(ctx, claims.ID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	p.logger.Info("user signed out", "user_id", claims.Subject)
	return nil
}

// CurrentSession resolves token to the signed-in user, or returns
// ErrNotAuthenticated.
func (p *Provider) CurrentSession(ctx context.Context, token string) (*models.AuthSession, error) {
	claims, err := p.parse(token)
	if err != nil {
		return nil, ErrNotAuthenticated
	}
	active, err := p.sessions.Active(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if !active {
		return nil, ErrNotAuthenticated
	}
	return &models.AuthSession{
		Token:       token,
		UserID:      claims.Subject,
		DisplayName: claims.DisplayName,
		Email:       claims.Email,
	}, nil
}

func (p *Provider) issue(ctx context.Context, user *models.User) (*models.AuthSession, error) {
	now := p.now()
	claims := Claims{
		DisplayName: user.DisplayName,
		Email:       user.EmailAddress(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    config.SessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	if err := p.sessions.Register(ctx, claims.ID, user.ID, p.ttl); err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}
	return &models.AuthSession{
		Token:       token,
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Email:       user.EmailAddress(),
	}, nil
}

func (p *Provider) parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(config.SessionIssuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrNotAuthenticated
	}
	return claims, nil
}
