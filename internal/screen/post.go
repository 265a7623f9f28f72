package screen

import (
	"context"
	"strings"

	"reportit/backend/internal/analysis"
	"reportit/backend/internal/complaint"
	"reportit/backend/internal/config"
	"reportit/backend/internal/models"
)

type Posted struct {
	ID string `json:"id"`
}

// Post is the submission form. It stays Idle until the user submits, and
// carries a second reducer for the optional photo analysis that pre-fills
// the form.
type Post struct {
	*Screen[Posted]
	Analysis   *Screen[analysis.Result]
	complaints Complaints
	analyzer   Analyzer
}

func NewPost(ctx context.Context, complaints Complaints, analyzer Analyzer, deps Deps) *Post {
	return &Post{
		Screen:     NewIdle[Posted](ctx, NamePost, config.MsgPostFailed, deps),
		Analysis:   NewIdle[analysis.Result](ctx, NamePost+"_analysis", config.MsgAnalyzeFailed, deps),
		complaints: complaints,
		analyzer:   analyzer,
	}
}

func (p *Post) Submit(ctx context.Context, draft complaint.Draft, session *models.AuthSession) State[Posted] {
	return p.Screen.Load(ctx, func(ctx context.Context) (Posted, error) {
		id, err := p.complaints.Create(ctx, draft, session)
		if err != nil {
			return Posted{}, err
		}
		return Posted{ID: id}, nil
	})
}

// Analyze runs the photo through the model. On success the result is what
// the form should be pre-filled with.
func (p *Post) Analyze(ctx context.Context, image []byte, mimeType string) State[analysis.Result] {
	return p.Analysis.Load(ctx, func(ctx context.Context) (analysis.Result, error) {
		return p.analyzer.AnalyzeImage(ctx, image, mimeType)
	})
}

// Prefill merges an analysis result into draft without overwriting what the
// user already typed.
func Prefill(draft complaint.Draft, res analysis.Result) complaint.Draft {
	if strings.TrimSpace(draft.Category) == "" {
		draft.Category = res.Category
	}
	if strings.TrimSpace(draft.Description) == "" {
		draft.Description = res.Description
	}
	if strings.TrimSpace(draft.Severity) == "" {
		draft.Severity = res.Severity
	}
	return draft
}

func (p *Post) Close() {
	p.Analysis.Close()
	p.Screen.Close()
}
