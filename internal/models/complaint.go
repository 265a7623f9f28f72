package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Complaint is a civic issue submitted by a user.
// Votes always equals len(VoterIDs); only vote transactions change either.
type Complaint struct {
	// ID is assigned by the store on creation (UUID).
	ID          string `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"type:text;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Location    string `gorm:"type:text" json:"location"`
	// Category is normally one of config.Categories, but AI pre-filled
	// values are stored as given.
	Category string `gorm:"type:text;index" json:"category"`
	Severity string `gorm:"type:text" json:"severity"`
	Votes    int    `gorm:"not null;default:0" json:"votes"`
	// AuthorID is the submitting user; kept even for anonymous complaints so
	// the profile screen can list them.
	AuthorID    string `gorm:"type:text;index" json:"-"`
	AuthorName  string `gorm:"type:text" json:"authorName"`
	IsAnonymous bool   `json:"isAnonymous"`
	// Status is one of the five stage names, written by the admin CLI.
	Status string `gorm:"type:text;not null" json:"status"`
	// CreatedAt is milliseconds since epoch.
	CreatedAt int64    `gorm:"autoCreateTime:milli;index" json:"timestamp"`
	VoterIDs  VoterSet `json:"-"`
}

// BeforeCreate assigns a UUID when the caller has not set an ID.
func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// HasVoter reports whether userID is in the voter set.
func (c *Complaint) HasVoter(userID string) bool {
	return c.VoterIDs.Contains(userID)
}

// Clone returns a deep copy, including the voter set.
func (c *Complaint) Clone() *Complaint {
	out := *c
	if c.VoterIDs != nil {
		out.VoterIDs = append(VoterSet(nil), c.VoterIDs...)
	}
	return &out
}
