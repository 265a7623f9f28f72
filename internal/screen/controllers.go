package screen

import (
	"context"

	"reportit/backend/internal/analysis"
	"reportit/backend/internal/complaint"
	"reportit/backend/internal/models"
)

// Complaints is the slice of the complaint service the screens use.
type Complaints interface {
	List(ctx context.Context) ([]models.Complaint, error)
	Get(ctx context.Context, id string) (*models.Complaint, error)
	Create(ctx context.Context, draft complaint.Draft, session *models.AuthSession) (string, error)
	Upvote(ctx context.Context, complaintID, userID string) error
	Downvote(ctx context.Context, complaintID, userID string) error
}

type Analyzer interface {
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) (analysis.Result, error)
}

type Authenticator interface {
	SignUp(ctx context.Context, email, password, name string) (*models.AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*models.AuthSession, error)
}

// Screen names, also used as log and metric labels.
const (
	NameFeed    = "feed"
	NameDetail  = "detail"
	NamePost    = "post"
	NameProfile = "profile"
	NameAuth    = "auth"
)
