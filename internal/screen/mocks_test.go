package screen

import (
	"context"

	"reportit/backend/internal/analysis"
	"reportit/backend/internal/complaint"
	"reportit/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockComplaints struct {
	mock.Mock
}

func (m *MockComplaints) List(ctx context.Context) ([]models.Complaint, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Complaint)
	return list, args.Error(1)
}

func (m *MockComplaints) Get(ctx context.Context, id string) (*models.Complaint, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Complaint)
	return c, args.Error(1)
}

func (m *MockComplaints) Create(ctx context.Context, draft complaint.Draft, session *models.AuthSession) (string, error) {
	args := m.Called(ctx, draft, session)
	return args.String(0), args.Error(1)
}

func (m *MockComplaints) Upvote(ctx context.Context, complaintID, userID string) error {
	return m.Called(ctx, complaintID, userID).Error(0)
}

func (m *MockComplaints) Downvote(ctx context.Context, complaintID, userID string) error {
	return m.Called(ctx, complaintID, userID).Error(0)
}

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (analysis.Result, error) {
	args := m.Called(ctx, image, mimeType)
	res, _ := args.Get(0).(analysis.Result)
	return res, args.Error(1)
}

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) SignUp(ctx context.Context, email, password, name string) (*models.AuthSession, error) {
	args := m.Called(ctx, email, password, name)
	s, _ := args.Get(0).(*models.AuthSession)
	return s, args.Error(1)
}

func (m *MockAuthenticator) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	args := m.Called(ctx, email, password)
	s, _ := args.Get(0).(*models.AuthSession)
	return s, args.Error(1)
}
