package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reportit/backend/internal/analysis"
	"reportit/backend/internal/auth"
	"reportit/backend/internal/complaint"
	"reportit/backend/internal/config"
	"reportit/backend/internal/metrics"
	"reportit/backend/internal/screen"
	"reportit/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (analysis.Result, error) {
	args := m.Called(ctx, image, mimeType)
	res, _ := args.Get(0).(analysis.Result)
	return res, args.Error(1)
}

type envelope struct {
	State   string          `json:"state"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type testServer struct {
	router   *gin.Engine
	svc      *complaint.Service
	analyzer *MockAnalyzer
	reg      *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStore()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := complaint.NewService(store, m, nil)
	provider := auth.NewProvider(store, auth.NewMemorySessionStore(), config.AuthConfig{
		JWTSecret:  "handler-test-secret",
		SessionTTL: time.Hour,
	}, nil)
	analyzer := new(MockAnalyzer)

	h := NewHandler(svc, analyzer, provider, screen.Deps{Metrics: m})
	return &testServer{router: NewRouter(h, reg, nil), svc: svc, analyzer: analyzer, reg: reg}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (s *testServer) signUp(t *testing.T, email, name string) string {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/auth/signup", "", gin.H{
		"email": email, "password": "secret123", "name": name,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, statusFor(nil))
	assert.Equal(t, http.StatusNotFound, statusFor(storage.ErrNotFound))
	assert.Equal(t, http.StatusUnauthorized, statusFor(auth.ErrInvalidCredentials))
	assert.Equal(t, http.StatusConflict, statusFor(auth.ErrEmailTaken))
	assert.Equal(t, http.StatusBadRequest, statusFor(complaint.ErrTitleRequired))
	assert.Equal(t, http.StatusBadGateway, statusFor(analysis.ErrNoResponse))
	assert.Equal(t, http.StatusInternalServerError, statusFor(storage.ErrStoreFailure))
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "neha@example.com", "Neha")

	w, env := s.do(t, http.MethodPost, "/auth/signup", "", gin.H{"email": "neha@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "error", env.State)
	assert.Equal(t, "Sign up failed", env.Message)

	w, env = s.do(t, http.MethodPost, "/auth/signin", "", gin.H{"email": "neha@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Sign in failed", env.Message)

	w, env = s.do(t, http.MethodPost, "/auth/signin", "", gin.H{"email": "neha@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", env.State)

	w, _ = s.do(t, http.MethodGet, "/auth/session", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodPost, "/auth/signout", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, env = s.do(t, http.MethodGet, "/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not logged in", env.Message)

	w, _ = s.do(t, http.MethodPost, "/auth/signin", "", gin.H{"email": "neha@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignUp_RejectsMalformedEmail(t *testing.T) {
	s := newTestServer(t)

	for _, email := range []string{"not-an-email", "neha@", ""} {
		w, env := s.do(t, http.MethodPost, "/auth/signup", "", gin.H{"email": email, "password": "secret123"})
		assert.Equal(t, http.StatusBadRequest, w.Code, email)
		assert.Equal(t, "Sign up failed", env.Message)
	}

	families, err := s.reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "reportit_screen_loads_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				assert.False(t, l.GetName() == "screen" && l.GetValue() == screen.NameAuth,
					"malformed bodies never reach the auth screen")
			}
		}
	}
}

func TestComplaintLifecycle(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/complaints", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", env.State)
	assert.JSONEq(t, `[]`, string(env.Data))

	w, env = s.do(t, http.MethodPost, "/complaints", "", gin.H{"title": "Pothole"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not logged in", env.Message)

	token := s.signUp(t, "arjun@example.com", "Arjun")
	w, env = s.do(t, http.MethodPost, "/complaints", token, gin.H{
		"title":       "Pothole near school",
		"description": "Kids trip on it every day",
		"location":    "Ward 12",
		"category":    "Roads",
		"severity":    "High",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var posted screen.Posted
	require.NoError(t, json.Unmarshal(env.Data, &posted))
	require.NotEmpty(t, posted.ID)

	w, env = s.do(t, http.MethodPost, "/complaints", token, gin.H{"title": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Failed to submit. Try again.", env.Message)

	w, env = s.do(t, http.MethodGet, "/complaints/"+posted.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Complaint struct {
			Title      string `json:"title"`
			AuthorName string `json:"authorName"`
			Votes      int    `json:"votes"`
			Status     string `json:"status"`
		} `json:"complaint"`
		Timeline  []complaint.StatusStep `json:"timeline"`
		Supported bool                   `json:"supported"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "Pothole near school", view.Complaint.Title)
	assert.Equal(t, "Arjun", view.Complaint.AuthorName)
	assert.Equal(t, "SUBMITTED", view.Complaint.Status)
	require.Len(t, view.Timeline, 5)
	assert.True(t, view.Timeline[0].Active)
	assert.NotContains(t, w.Body.String(), "voterIds")

	w, env = s.do(t, http.MethodPost, "/complaints/"+posted.ID+"/upvote", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 1, view.Complaint.Votes)
	assert.True(t, view.Supported)

	w, _ = s.do(t, http.MethodPost, "/complaints/"+posted.ID+"/upvote", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got, err := s.svc.Get(context.Background(), posted.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Votes)

	w, env = s.do(t, http.MethodPost, "/complaints/"+posted.ID+"/downvote", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 0, view.Complaint.Votes)
	assert.False(t, view.Supported)

	w, env = s.do(t, http.MethodPost, "/complaints/"+posted.ID+"/support", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 1, view.Complaint.Votes)
	assert.True(t, view.Supported)

	w, env = s.do(t, http.MethodPost, "/complaints/"+posted.ID+"/support", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 0, view.Complaint.Votes)
	assert.False(t, view.Supported)

	w, env = s.do(t, http.MethodPost, "/complaints/missing/support", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Failed to load complaint", env.Message)

	w, env = s.do(t, http.MethodGet, "/complaints/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Failed to load complaint", env.Message)

	w, env = s.do(t, http.MethodPost, "/complaints/missing/upvote", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Failed to load complaint", env.Message)

	w, env = s.do(t, http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile screen.ProfileView
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "Arjun", profile.UserName)
	assert.Equal(t, 1, profile.ComplaintsPosted)
}

func multipartImage(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "photo.jpg")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAnalyzeImage(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "lata@example.com", "Lata")
	image := []byte("\xff\xd8\xff\xe0 jpeg data")

	s.analyzer.On("AnalyzeImage", mock.Anything, image, mock.AnythingOfType("string")).
		Return(analysis.Result{Category: "Drainage", Description: "Blocked drain.", Severity: "Medium"}, nil).Once()

	body, contentType := multipartImage(t, "image", image)
	req := httptest.NewRequest(http.MethodPost, "/complaints/analyze", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var res analysis.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "Drainage", res.Category)

	s.analyzer.On("AnalyzeImage", mock.Anything, mock.Anything, mock.Anything).
		Return(analysis.Result{}, analysis.ErrNoResponse).Once()
	body, contentType = multipartImage(t, "image", image)
	req = httptest.NewRequest(http.MethodPost, "/complaints/analyze", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "AI analysis failed. Please fill in details manually.", env.Message)

	body, contentType = multipartImage(t, "file", image)
	req = httptest.NewRequest(http.MethodPost, "/complaints/analyze", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.analyzer.AssertExpectations(t)
}

func TestStaticRoutes(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/languages", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Bhojpuri"`)

	w, _ = s.do(t, http.MethodGet, "/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Street Lights")

	s.do(t, http.MethodGet, "/complaints", "", nil)
	w, _ = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `reportit_screen_loads_total{screen="feed",state="success"}`)
}
