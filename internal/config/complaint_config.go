package config

import (
	"strings"
	"time"
)

const (
	// Complaint defaults
	DefaultCategory = "Other"
	DefaultSeverity = "Medium"
	AnonymousAuthor = "Anonymous"
	FallbackAuthor  = "User"

	// Session
	DefaultSessionTTL = 72 * time.Hour
	SessionIssuer     = "reportit-service"
)

// Categories is the fixed list offered on the post form and in the AI prompt.
var Categories = []string{
	"Roads", "Sanitation", "Water", "Electricity",
	"Parks", "Street Lights", "Drainage", "Other",
}

// Severities in ascending order.
var Severities = []string{"Low", "Medium", "High"}

// SeverityLevel maps a severity label onto the 1..3 slider scale. Unknown
// labels sit in the middle.
func SeverityLevel(label string) float64 {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "low":
		return 1
	case "high":
		return 3
	default:
		return 2
	}
}

// SeverityLabel is the inverse of SeverityLevel for arbitrary slider values.
func SeverityLabel(level float64) string {
	switch {
	case level < 1.5:
		return Severities[0]
	case level < 2.5:
		return Severities[1]
	default:
		return Severities[2]
	}
}

// User-facing messages for screen errors. Root causes are only logged.
const (
	MsgFeedFailed    = "Failed to load complaints"
	MsgDetailFailed  = "Failed to load complaint"
	MsgPostFailed    = "Failed to submit. Try again."
	MsgAnalyzeFailed = "AI analysis failed. Please fill in details manually."
	MsgNotLoggedIn   = "Not logged in"
	MsgProfileFailed = "Failed to load profile"
	MsgSignUpFailed  = "Sign up failed"
	MsgSignInFailed  = "Sign in failed"
	MsgVoteFailed    = "Failed to record your vote"
)

// IsCategory reports whether name is one of the fixed categories.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
