package screen

import (
	"context"

	"reportit/backend/internal/config"
	"reportit/backend/internal/models"
)

// Feed lists all complaints, newest first.
type Feed struct {
	*Screen[[]models.Complaint]
	complaints Complaints
}

func NewFeed(ctx context.Context, complaints Complaints, deps Deps) *Feed {
	return &Feed{
		Screen:     New[[]models.Complaint](ctx, NameFeed, config.MsgFeedFailed, deps),
		complaints: complaints,
	}
}

func (f *Feed) fetch(ctx context.Context) ([]models.Complaint, error) {
	list, err := f.complaints.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Complaint{}
	}
	return list, nil
}

// Refresh reloads the feed in the background.
func (f *Feed) Refresh() { f.Launch(f.fetch) }

func (f *Feed) Load(ctx context.Context) State[[]models.Complaint] {
	return f.Screen.Load(ctx, f.fetch)
}
