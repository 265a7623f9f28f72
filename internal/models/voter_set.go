package models

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// VoterSet is the set of user ids that support a complaint. It is stored as
// a PostgreSQL text[] and, on other dialects, as the same array literal in a
// text column.
type VoterSet []string

func (v VoterSet) Value() (driver.Value, error) {
	return pq.StringArray(v).Value()
}

func (v *VoterSet) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*v = VoterSet(arr)
	return nil
}

func (VoterSet) GormDataType() string {
	return "voter_set"
}

func (VoterSet) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// Contains reports whether userID is in the set.
func (v VoterSet) Contains(userID string) bool {
	for _, id := range v {
		if id == userID {
			return true
		}
	}
	return false
}

// Without returns a copy of the set with userID removed.
func (v VoterSet) Without(userID string) VoterSet {
	out := make(VoterSet, 0, len(v))
	for _, id := range v {
		if id != userID {
			out = append(out, id)
		}
	}
	return out
}
