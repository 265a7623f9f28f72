// Package complaint provides the core logic for civic complaints: creation,
// the vote transactions and the status workflow.
package complaint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reportit/backend/internal/auth"
	"reportit/backend/internal/config"
	"reportit/backend/internal/metrics"
	"reportit/backend/internal/models"
	"reportit/backend/internal/storage"
)

var (
	ErrTitleRequired = errors.New("complaint title is required")
	ErrUnknownStatus = errors.New("unknown complaint status")
)

// Vote directions, also used as metric labels.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Draft is what a user fills in on the post form.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	IsAnonymous bool   `json:"isAnonymous"`
}

// Service handles the business logic for complaints.
type Service struct {
	Storage storage.Storage
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new complaint service. m and logger may be nil.
func NewService(s storage.Storage, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Storage: s,
		metrics: m,
		logger:  logger.With("component", "complaint"),
		now:     time.Now,
	}
}

// List returns all complaints, newest first.
func (s *Service) List(ctx context.Context) ([]models.Complaint, error) {
	return s.Storage.ListComplaints(ctx)
}

// Get returns one complaint or storage.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*models.Complaint, error) {
	return s.Storage.GetComplaint(ctx, id)
}

// AuthorName picks the public author label for a new complaint.
func AuthorName(session *models.AuthSession, anonymous bool) string {
	switch {
	case anonymous:
		return config.AnonymousAuthor
	case session != nil && strings.TrimSpace(session.DisplayName) != "":
		return session.DisplayName
	default:
		return config.FallbackAuthor
	}
}

// Build turns a draft into a new complaint record: zero votes, empty voter
// set, initial status and the current time.
func (s *Service) Build(draft Draft, session *models.AuthSession) (*models.Complaint, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	category := strings.TrimSpace(draft.Category)
	if category == "" {
		category = config.DefaultCategory
	}
	severity := config.DefaultSeverity
	if strings.TrimSpace(draft.Severity) != "" {
		severity = config.SeverityLabel(config.SeverityLevel(draft.Severity))
	}
	c := &models.Complaint{
		Title:       title,
		Description: strings.TrimSpace(draft.Description),
		Location:    strings.TrimSpace(draft.Location),
		Category:    category,
		Severity:    severity,
		Votes:       0,
		AuthorName:  AuthorName(session, draft.IsAnonymous),
		IsAnonymous: draft.IsAnonymous,
		Status:      StageSubmitted.String(),
		CreatedAt:   s.now().UnixMilli(),
		VoterIDs:    models.VoterSet{},
	}
	if session != nil {
		c.AuthorID = session.UserID
	}
	return c, nil
}

// Create stores a complaint built from draft and returns its id.
func (s *Service) Create(ctx context.Context, draft Draft, session *models.AuthSession) (string, error) {
	c, err := s.Build(draft, session)
	if err != nil {
		return "", err
	}
	id, err := s.Storage.CreateComplaint(ctx, c)
	if err != nil {
		return "", err
	}
	s.logger.Info("complaint created", "complaint_id", id, "category", c.Category, "anonymous", c.IsAnonymous)
	return id, nil
}

// Upvote records userID's support. Repeating it changes nothing.
func (s *Service) Upvote(ctx context.Context, complaintID, userID string) error {
	return s.vote(ctx, DirectionUp, complaintID, userID, ApplyUpvote)
}

// Downvote withdraws userID's support if present.
func (s *Service) Downvote(ctx context.Context, complaintID, userID string) error {
	return s.vote(ctx, DirectionDown, complaintID, userID, ApplyDownvote)
}

func (s *Service) vote(
	ctx context.Context,
	direction, complaintID, userID string,
	apply func(*models.Complaint, string) bool,
) error {
	if strings.TrimSpace(userID) == "" {
		return auth.ErrNotAuthenticated
	}
	applied := false
	err := s.Storage.RunTransaction(ctx, complaintID, func(c *models.Complaint) (bool, error) {
		applied = apply(c, userID)
		return applied, nil
	})
	switch {
	case err != nil:
		s.metrics.ObserveVote(direction, metrics.OutcomeError)
		s.logger.Error("vote transaction failed",
			"direction", direction, "complaint_id", complaintID, "user_id", userID, "error", err)
		return fmt.Errorf("%svote %s: %w", direction, complaintID, err)
	case applied:
		s.metrics.ObserveVote(direction, metrics.OutcomeApplied)
	default:
		s.metrics.ObserveVote(direction, metrics.OutcomeNoop)
	}
	return nil
}

// SetStatus moves a complaint to another stage. Only the admin tooling calls
// this; clients never change status.
func (s *Service) SetStatus(ctx context.Context, complaintID, status string) (Stage, error) {
	stage, ok := ParseStatus(status)
	if !ok {
		valid := make([]string, 0, len(stages))
		for _, st := range Stages() {
			valid = append(valid, st.String())
		}
		return stage, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownStatus, status, strings.Join(valid, ", "))
	}
	if err := s.Storage.SetComplaintStatus(ctx, complaintID, stage.String()); err != nil {
		return stage, err
	}
	s.metrics.ObserveStatusChange()
	s.logger.Info("complaint status changed", "complaint_id", complaintID, "status", stage.String())
	return stage, nil
}
