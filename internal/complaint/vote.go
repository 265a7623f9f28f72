package complaint

import "reportit/backend/internal/models"

// ApplyUpvote adds userID to the voter set. It is a no-op when the user has
// already voted.
func ApplyUpvote(c *models.Complaint, userID string) bool {
	if c.HasVoter(userID) {
		return false
	}
	c.VoterIDs = append(c.VoterIDs, userID)
	c.Votes++
	return true
}

// ApplyDownvote removes userID from the voter set. The count never drops
// below zero.
func ApplyDownvote(c *models.Complaint, userID string) bool {
	if !c.HasVoter(userID) {
		return false
	}
	c.VoterIDs = c.VoterIDs.Without(userID)
	c.Votes--
	if c.Votes < 0 {
		c.Votes = 0
	}
	return true
}
