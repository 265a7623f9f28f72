// Package handler serves the complaint screens over HTTP. Every response
// body is a screen state: {"state": ..., "data": ..., "message": ...}.
package handler

import (
	"context"
	"errors"
	"net/http"

	"reportit/backend/internal/analysis"
	"reportit/backend/internal/auth"
	"reportit/backend/internal/complaint"
	"reportit/backend/internal/models"
	"reportit/backend/internal/screen"
	"reportit/backend/internal/storage"
)

// Sessions is the auth provider as seen by the HTTP layer.
type Sessions interface {
	screen.Authenticator
	SignOut(ctx context.Context, token string) error
	CurrentSession(ctx context.Context, token string) (*models.AuthSession, error)
}

// Handler holds the collaborators every route needs.
type Handler struct {
	Complaints screen.Complaints
	Analyzer   screen.Analyzer
	Sessions   Sessions
	Deps       screen.Deps
}

func NewHandler(complaints screen.Complaints, analyzer screen.Analyzer, sessions Sessions, deps screen.Deps) *Handler {
	return &Handler{
		Complaints: complaints,
		Analyzer:   analyzer,
		Sessions:   sessions,
		Deps:       deps,
	}
}

// statusFor maps the cause of an Error state to an HTTP status.
func statusFor(cause error) int {
	switch {
	case cause == nil:
		return http.StatusOK
	case errors.Is(cause, auth.ErrNotAuthenticated),
		errors.Is(cause, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(cause, auth.ErrEmailTaken),
		errors.Is(cause, storage.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(cause, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(cause, auth.ErrInvalidEmail),
		errors.Is(cause, auth.ErrPasswordTooShort),
		errors.Is(cause, complaint.ErrTitleRequired),
		errors.Is(cause, analysis.ErrEmptyImage):
		return http.StatusBadRequest
	case errors.Is(cause, analysis.ErrNoResponse),
		errors.Is(cause, analysis.ErrAnalysisFailed):
		return http.StatusBadGateway
	case errors.Is(cause, context.Canceled),
		errors.Is(cause, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
