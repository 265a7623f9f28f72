// Package storage is the document store behind complaints and users.
// Service is backed by gorm (PostgreSQL in production, SQLite for local runs
// and tests); MemoryStore keeps everything in process.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"reportit/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("record already exists")
	ErrStoreFailure = errors.New("store failure")
)

// Mutator edits a complaint inside a transaction. Returning false skips the
// write; returning an error rolls the transaction back.
type Mutator func(c *models.Complaint) (changed bool, err error)

type Storage interface {
	// ListComplaints returns every complaint, newest first.
	ListComplaints(ctx context.Context) ([]models.Complaint, error)
	GetComplaint(ctx context.Context, id string) (*models.Complaint, error)
	// CreateComplaint stores c and returns the assigned id.
	CreateComplaint(ctx context.Context, c *models.Complaint) (string, error)
	// RunTransaction reads the complaint, applies fn and writes the result
	// atomically with respect to other transactions on the same complaint.
	RunTransaction(ctx context.Context, id string, fn Mutator) error
	SetComplaintStatus(ctx context.Context, id, status string) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUserIfNotExists(ctx context.Context, telegramID int64) (*models.User, error)
	UpdateUserLanguage(ctx context.Context, userID, language string) error
}

type Service struct {
	DB     *gorm.DB
	logger *slog.Logger
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		DB:     db,
		logger: logger.With("component", "storage"),
	}
}

// Migrate creates or updates the tables.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(&models.User{}, &models.Complaint{})
}

func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicate), errors.Is(err, ErrStoreFailure):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
}

func (s *Service) ListComplaints(ctx context.Context) ([]models.Complaint, error) {
	var complaints []models.Complaint
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&complaints).Error; err != nil {
		s.logger.Error("failed to list complaints", "error", err)
		return nil, storeErr(err)
	}
	return complaints, nil
}

func (s *Service) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	var c models.Complaint
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, storeErr(err)
	}
	return &c, nil
}

func (s *Service) CreateComplaint(ctx context.Context, c *models.Complaint) (string, error) {
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		s.logger.Error("failed to create complaint", "error", err)
		return "", storeErr(err)
	}
	return c.ID, nil
}

func (s *Service) RunTransaction(ctx context.Context, id string, fn Mutator) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		// SQLite serialises writers on its own and has no row locks.
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var c models.Complaint
		if err := q.Where("id = ?", id).First(&c).Error; err != nil {
			return err
		}
		changed, err := fn(&c)
		if err != nil || !changed {
			return err
		}
		return tx.Model(&models.Complaint{}).
			Where("id = ?", id).
			Updates(map[string]any{"votes": c.Votes, "voter_ids": c.VoterIDs}).Error
	})
	return storeErr(err)
}

func (s *Service) SetComplaintStatus(ctx context.Context, id, status string) error {
	res := s.DB.WithContext(ctx).Model(&models.Complaint{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if user.Email != nil {
			var count int64
			if err := tx.Model(&models.User{}).Where("email = ?", *user.Email).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrDuplicate
			}
		}
		return tx.Create(user).Error
	})
	return storeErr(err)
}

func (s *Service) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, storeErr(err)
	}
	return &user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, storeErr(err)
	}
	return &user, nil
}

// SaveUserIfNotExists returns the user linked to telegramID, creating it on
// first contact.
func (s *Service) SaveUserIfNotExists(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	tgID := telegramID
	defaults := models.User{TelegramID: &tgID}

	result := s.DB.WithContext(ctx).Where("telegram_id = ?", telegramID).FirstOrCreate(&user, defaults)
	if result.Error != nil {
		s.logger.Error("failed to save user on first contact", "telegram_id", telegramID, "error", result.Error)
		return nil, storeErr(result.Error)
	}
	if result.RowsAffected > 0 {
		s.logger.Info("new telegram user saved", "user_id", user.ID, "telegram_id", telegramID)
	}
	return &user, nil
}

func (s *Service) UpdateUserLanguage(ctx context.Context, userID, language string) error {
	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("language", language)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
