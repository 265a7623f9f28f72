package handler

import (
	"context"
	"io"
	"net/http"

	"reportit/backend/internal/complaint"
	"reportit/backend/internal/config"
	"reportit/backend/internal/screen"

	"github.com/gin-gonic/gin"
)

// maxImageBytes caps uploads to /complaints/analyze.
const maxImageBytes = 10 << 20

func (h *Handler) ListComplaints(c *gin.Context) {
	feed := screen.NewFeed(c.Request.Context(), h.Complaints, h.Deps)
	defer feed.Close()

	st := feed.Load(c.Request.Context())
	c.JSON(statusFor(feed.Cause()), st)
}

func (h *Handler) GetComplaint(c *gin.Context) {
	viewer := ""
	if s := currentSession(c); s != nil {
		viewer = s.UserID
	}
	detail := screen.NewDetail(c.Request.Context(), c.Param("id"), viewer, h.Complaints, h.Deps)
	defer detail.Close()

	st := detail.Load(c.Request.Context())
	c.JSON(statusFor(detail.Cause()), st)
}

func (h *Handler) CreateComplaint(c *gin.Context) {
	var draft complaint.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, screen.Failure[any](config.MsgPostFailed))
		return
	}
	post := screen.NewPost(c.Request.Context(), h.Complaints, h.Analyzer, h.Deps)
	defer post.Close()

	st := post.Submit(c.Request.Context(), draft, currentSession(c))
	if st.Kind == screen.KindSuccess {
		c.JSON(http.StatusCreated, st)
		return
	}
	c.JSON(statusFor(post.Cause()), st)
}

// AnalyzeImage accepts a multipart upload in the "image" field and returns
// the suggested category, description and severity.
func (h *Handler) AnalyzeImage(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, screen.Failure[any](config.MsgAnalyzeFailed))
		return
	}
	if fh.Size > maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, screen.Failure[any](config.MsgAnalyzeFailed))
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, screen.Failure[any](config.MsgAnalyzeFailed))
		return
	}
	defer f.Close()
	image, err := io.ReadAll(io.LimitReader(f, maxImageBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, screen.Failure[any](config.MsgAnalyzeFailed))
		return
	}
	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}

	post := screen.NewPost(c.Request.Context(), h.Complaints, h.Analyzer, h.Deps)
	defer post.Close()

	st := post.Analyze(c.Request.Context(), image, mimeType)
	c.JSON(statusFor(post.Analysis.Cause()), st)
}

func (h *Handler) Upvote(c *gin.Context) {
	h.vote(c, func(ctx context.Context, d *screen.Detail) (screen.State[screen.DetailView], error) {
		return d.Support(ctx, true)
	})
}

func (h *Handler) Downvote(c *gin.Context) {
	h.vote(c, func(ctx context.Context, d *screen.Detail) (screen.State[screen.DetailView], error) {
		return d.Support(ctx, false)
	})
}

// ToggleSupport flips the caller's vote, like the support button on the
// detail screen.
func (h *Handler) ToggleSupport(c *gin.Context) {
	h.vote(c, func(ctx context.Context, d *screen.Detail) (screen.State[screen.DetailView], error) {
		return d.Toggle(ctx)
	})
}

func (h *Handler) vote(c *gin.Context, action func(context.Context, *screen.Detail) (screen.State[screen.DetailView], error)) {
	session := currentSession(c)
	detail := screen.NewDetail(c.Request.Context(), c.Param("id"), session.UserID, h.Complaints, h.Deps)
	defer detail.Close()

	st, err := action(c.Request.Context(), detail)
	switch {
	case err != nil && screen.NotFound(err):
		c.JSON(http.StatusNotFound, screen.Failure[any](config.MsgDetailFailed))
	case err != nil:
		c.JSON(statusFor(err), screen.Failure[any](config.MsgVoteFailed))
	default:
		c.JSON(statusFor(detail.Cause()), st)
	}
}

func (h *Handler) Profile(c *gin.Context) {
	profile := screen.NewProfile(c.Request.Context(), currentSession(c), h.Complaints, h.Deps)
	defer profile.Close()

	st := profile.Load(c.Request.Context())
	c.JSON(statusFor(profile.Cause()), st)
}

// Categories lists the fixed complaint categories and severities for the
// post form.
func (h *Handler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": config.Categories,
		"severities": config.Severities,
	})
}
