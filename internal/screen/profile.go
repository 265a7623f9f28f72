package screen

import (
	"context"
	"strings"

	"reportit/backend/internal/auth"
	"reportit/backend/internal/config"
	"reportit/backend/internal/models"
)

type ProfileView struct {
	UserName         string             `json:"userName"`
	UserEmail        string             `json:"userEmail"`
	ComplaintsPosted int                `json:"complaintsPosted"`
	MyComplaints     []models.Complaint `json:"myComplaints"`
}

// Profile shows the signed-in user and the complaints they posted.
type Profile struct {
	*Screen[ProfileView]
	session    *models.AuthSession
	complaints Complaints
}

func NewProfile(ctx context.Context, session *models.AuthSession, complaints Complaints, deps Deps) *Profile {
	return &Profile{
		Screen:     New[ProfileView](ctx, NameProfile, config.MsgProfileFailed, deps),
		session:    session,
		complaints: complaints,
	}
}

// UserName picks the name shown on the profile: display name, then the
// local part of the email, then "User".
func UserName(session *models.AuthSession) string {
	if session == nil {
		return config.FallbackAuthor
	}
	if name := strings.TrimSpace(session.DisplayName); name != "" {
		return name
	}
	if local, _, _ := strings.Cut(session.Email, "@"); local != "" {
		return local
	}
	return config.FallbackAuthor
}

// ownedBy matches complaints by author id. Rows without an author id are
// matched on the public name.
func ownedBy(c models.Complaint, userID, name string) bool {
	if c.AuthorID != "" {
		return c.AuthorID == userID
	}
	return !c.IsAnonymous && c.AuthorName == name
}

func (p *Profile) fetch(ctx context.Context) (ProfileView, error) {
	name := UserName(p.session)
	all, err := p.complaints.List(ctx)
	if err != nil {
		// The profile itself still renders; only the list is lost.
		p.logger.Warn("listing complaints for profile failed", "user_id", p.session.UserID, "error", err)
		all = nil
	}
	mine := []models.Complaint{}
	for _, c := range all {
		if ownedBy(c, p.session.UserID, name) {
			mine = append(mine, c)
		}
	}
	return ProfileView{
		UserName:         name,
		UserEmail:        p.session.Email,
		ComplaintsPosted: len(mine),
		MyComplaints:     mine,
	}, nil
}

func (p *Profile) Load(ctx context.Context) State[ProfileView] {
	if p.session == nil {
		p.FailWith(config.MsgNotLoggedIn, auth.ErrNotAuthenticated)
		return p.State()
	}
	return p.Screen.Load(ctx, p.fetch)
}

func (p *Profile) Refresh() {
	if p.session == nil {
		p.FailWith(config.MsgNotLoggedIn, auth.ErrNotAuthenticated)
		return
	}
	p.Launch(p.fetch)
}
