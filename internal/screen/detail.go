package screen

import (
	"context"
	"errors"

	"reportit/backend/internal/complaint"
	"reportit/backend/internal/config"
	"reportit/backend/internal/models"
	"reportit/backend/internal/storage"
)

type DetailView struct {
	Complaint models.Complaint       `json:"complaint"`
	Timeline  []complaint.StatusStep `json:"timeline"`
	Supported bool                   `json:"supported"`
}

// Detail shows one complaint with its status timeline. Supported mirrors the
// viewer's vote; it flips as soon as the user taps and is not reverted when
// the vote fails.
type Detail struct {
	*Screen[DetailView]
	id         string
	viewer     string
	complaints Complaints

	supported   bool
	supportSeen bool
}

// NewDetail opens complaint id for viewer, who may be empty for a signed-out
// visitor.
func NewDetail(ctx context.Context, id, viewer string, complaints Complaints, deps Deps) *Detail {
	return &Detail{
		Screen:     New[DetailView](ctx, NameDetail, config.MsgDetailFailed, deps),
		id:         id,
		viewer:     viewer,
		complaints: complaints,
	}
}

func (d *Detail) fetch(ctx context.Context) (DetailView, error) {
	c, err := d.complaints.Get(ctx, d.id)
	if err != nil {
		return DetailView{}, err
	}
	d.Screen.mu.Lock()
	if !d.supportSeen {
		d.supported = d.viewer != "" && c.HasVoter(d.viewer)
		d.supportSeen = true
	}
	supported := d.supported
	d.Screen.mu.Unlock()

	return DetailView{
		Complaint: *c,
		Timeline:  complaint.Timeline(c.Status),
		Supported: supported,
	}, nil
}

func (d *Detail) Refresh() { d.Launch(d.fetch) }

func (d *Detail) Load(ctx context.Context) State[DetailView] {
	return d.Screen.Load(ctx, d.fetch)
}

// NotFound reports whether err from the complaint lookup means the id does
// not exist.
func NotFound(err error) bool { return errors.Is(err, storage.ErrNotFound) }

// Support records (or withdraws) the viewer's vote, then reloads. The
// returned error is the vote failure, if any; the state is updated either
// way.
func (d *Detail) Support(ctx context.Context, support bool) (State[DetailView], error) {
	d.Screen.mu.Lock()
	d.supported = support
	d.supportSeen = true
	d.Screen.mu.Unlock()

	d.Update(func(st State[DetailView]) State[DetailView] {
		if st.Kind == KindSuccess {
			st.Data.Supported = support
		}
		return st
	})

	var err error
	if support {
		err = d.complaints.Upvote(ctx, d.id, d.viewer)
	} else {
		err = d.complaints.Downvote(ctx, d.id, d.viewer)
	}
	if err != nil {
		d.logger.Error("vote failed", "complaint_id", d.id, "support", support, "error", err)
	}
	return d.Load(ctx), err
}

// Toggle flips the current Supported flag. A screen that has not loaded yet
// loads first so the flag reflects the stored voter set.
func (d *Detail) Toggle(ctx context.Context) (State[DetailView], error) {
	d.Screen.mu.Lock()
	seen := d.supportSeen
	d.Screen.mu.Unlock()
	if !seen {
		if st := d.Load(ctx); st.Kind != KindSuccess {
			return st, d.Cause()
		}
	}

	d.Screen.mu.Lock()
	next := !d.supported
	d.Screen.mu.Unlock()
	return d.Support(ctx, next)
}
