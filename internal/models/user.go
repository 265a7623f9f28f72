package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account known to the auth provider. Telegram users are created
// on first contact and have no email or password.
type User struct {
	ID           string  `gorm:"primaryKey" json:"id"`
	Email        *string `gorm:"uniqueIndex" json:"email,omitempty"`
	DisplayName  string  `json:"displayName"`
	PasswordHash string  `json:"-"`
	TelegramID   *int64  `gorm:"uniqueIndex" json:"-"`
	// Language is a display name from localization.Languages.
	Language string `json:"language,omitempty"`
}

// BeforeCreate assigns a UUID before insert.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// EmailAddress returns the email or "" for Telegram-only users.
func (u *User) EmailAddress() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// AuthSession is the signed-in view of a user.
type AuthSession struct {
	Token       string `json:"token,omitempty"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}
