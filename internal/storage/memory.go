package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"reportit/backend/internal/models"
)

// MemoryStore is an in-process Storage. Its mutex is the transaction
// primitive: RunTransaction holds it for the whole read-modify-write.
type MemoryStore struct {
	mu         sync.Mutex
	complaints map[string]*models.Complaint
	users      map[string]*models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		complaints: make(map[string]*models.Complaint),
		users:      make(map[string]*models.User),
	}
}

func (m *MemoryStore) ListComplaints(ctx context.Context) ([]models.Complaint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Complaint, 0, len(m.complaints))
	for _, c := range m.complaints {
		out = append(out, *c.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt == out[j].CreatedAt {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out, nil
}

func (m *MemoryStore) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.complaints[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (m *MemoryStore) CreateComplaint(ctx context.Context, c *models.Complaint) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_ = c.BeforeCreate(nil)
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().UnixMilli()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.complaints[c.ID]; exists {
		return "", ErrDuplicate
	}
	m.complaints[c.ID] = c.Clone()
	return c.ID, nil
}

func (m *MemoryStore) RunTransaction(ctx context.Context, id string, fn Mutator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.complaints[id]
	if !ok {
		return ErrNotFound
	}
	working := current.Clone()
	changed, err := fn(working)
	if err != nil {
		return storeErr(err)
	}
	if changed {
		current.Votes = working.Votes
		current.VoterIDs = working.VoterIDs
	}
	return nil
}

func (m *MemoryStore) SetComplaintStatus(ctx context.Context, id, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.complaints[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_ = user.BeforeCreate(nil)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.ID]; exists {
		return ErrDuplicate
	}
	for _, u := range m.users {
		if user.Email != nil && u.Email != nil && *u.Email == *user.Email {
			return ErrDuplicate
		}
		if user.TelegramID != nil && u.TelegramID != nil && *u.TelegramID == *user.TelegramID {
			return ErrDuplicate
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemoryStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email != nil && *u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) SaveUserIfNotExists(ctx context.Context, telegramID int64) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			cp := *u
			return &cp, nil
		}
	}
	tgID := telegramID
	u := &models.User{TelegramID: &tgID}
	_ = u.BeforeCreate(nil)
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) UpdateUserLanguage(ctx context.Context, userID, language string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Language = language
	return nil
}
