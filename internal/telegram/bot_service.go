// Package telegram exposes the complaint screens over a Telegram bot. Every
// command opens the matching screen, waits for it to settle and replies with
// the result.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"reportit/backend/internal/analysis"
	"reportit/backend/internal/complaint"
	"reportit/backend/internal/config"
	"reportit/backend/internal/localization"
	"reportit/backend/internal/models"
	"reportit/backend/internal/screen"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	feedLimit          = 10
	langCallbackPrefix = "set_lang_"
)

// Users is the part of storage the bot needs to identify chats.
type Users interface {
	SaveUserIfNotExists(ctx context.Context, telegramID int64) (*models.User, error)
	UpdateUserLanguage(ctx context.Context, userID, language string) error
}

// BotService is responsible for receiving Telegram updates and answering
// them.
type BotService struct {
	client     *Client
	users      Users
	complaints screen.Complaints
	analyzer   screen.Analyzer
	localizer  *localization.Localizer
	deps       screen.Deps
	logger     *slog.Logger

	mu        sync.Mutex
	drafts    map[int64]analysis.Result
	anonymous map[int64]bool
}

// NewBotAPI connects to Telegram with token.
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	return bot, nil
}

func NewBotService(
	client *Client,
	users Users,
	complaints screen.Complaints,
	analyzer screen.Analyzer,
	localizer *localization.Localizer,
	deps screen.Deps,
) *BotService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BotService{
		client:     client,
		users:      users,
		complaints: complaints,
		analyzer:   analyzer,
		localizer:  localizer,
		deps:       deps,
		logger:     logger.With("component", "telegram"),
		drafts:     make(map[int64]analysis.Result),
		anonymous:  make(map[int64]bool),
	}
}

// Run handles updates until ctx is cancelled or updates is closed.
func (s *BotService) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one update.
func (s *BotService) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		s.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		s.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

// chatUser resolves the sender of a chat, creating the account on first
// contact.
func (s *BotService) chatUser(ctx context.Context, chatID int64, from *tgbotapi.User) (*models.User, *models.AuthSession, bool) {
	user, err := s.users.SaveUserIfNotExists(ctx, chatID)
	if err != nil {
		s.logger.Error("failed to get or create telegram user", "chat_id", chatID, "error", err)
		return nil, nil, false
	}
	name := user.DisplayName
	if name == "" && from != nil {
		name = strings.TrimSpace(from.FirstName + " " + from.LastName)
	}
	return user, &models.AuthSession{
		UserID:      user.ID,
		DisplayName: name,
		Email:       user.EmailAddress(),
	}, true
}

func (s *BotService) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	user, session, ok := s.chatUser(ctx, chatID, msg.From)
	if !ok {
		return
	}
	lang := user.Language

	if len(msg.Photo) > 0 {
		s.handlePhoto(ctx, chatID, lang, msg.Photo)
		return
	}
	if !msg.IsCommand() {
		s.client.Reply(chatID, s.localizer.GetString(lang, "unsupported_message_type"), nil)
		return
	}

	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		s.client.Reply(chatID, s.localizer.GetString(lang, "welcome"), nil)
	case "feed":
		s.handleFeed(ctx, chatID, lang)
	case "complaint":
		s.handleComplaint(ctx, chatID, lang, user.ID, args)
	case "support":
		s.handleVote(ctx, chatID, lang, user.ID, args, true)
	case "withdraw":
		s.handleVote(ctx, chatID, lang, user.ID, args, false)
	case "report":
		s.handleReport(ctx, chatID, lang, session, args)
	case "profile":
		s.handleProfile(ctx, chatID, lang, session)
	case "language":
		s.handleLanguageCommand(chatID, lang)
	case "anonymous_on", "anonymous_off":
		s.handleAnonymousCommand(chatID, lang, msg.Command())
	default:
		s.client.Reply(chatID, s.localizer.GetString(lang, "unknown_command"), nil)
	}
}

// awaitDone blocks until the screen reaches Success or Error.
func awaitDone[T any](ctx context.Context, ch <-chan screen.State[T]) (screen.State[T], bool) {
	for {
		select {
		case <-ctx.Done():
			return screen.State[T]{}, false
		case st, ok := <-ch:
			if !ok {
				return st, false
			}
			if st.Done() {
				return st, true
			}
		}
	}
}

func (s *BotService) handleFeed(ctx context.Context, chatID int64, lang string) {
	feed := screen.NewFeed(ctx, s.complaints, s.deps)
	defer feed.Close()

	updates := feed.Subscribe()
	feed.Refresh()
	st, ok := awaitDone(ctx, updates)
	if !ok {
		return
	}
	if st.Kind == screen.KindError {
		s.client.Reply(chatID, st.Message, nil)
		return
	}
	if len(st.Data) == 0 {
		s.client.Reply(chatID, s.localizer.GetString(lang, "feed_empty"), nil)
		return
	}

	var b strings.Builder
	b.WriteString(s.localizer.GetString(lang, "feed_header"))
	for i, c := range st.Data {
		if i == feedLimit {
			break
		}
		b.WriteString("\n\n")
		b.WriteString(s.localizer.Format(lang, "feed_line", c.Title, c.Location, c.Category, c.Votes, c.ID))
	}
	s.client.Reply(chatID, b.String(), nil)
}

func timelineText(steps []complaint.StatusStep) string {
	lines := make([]string, len(steps))
	for i, step := range steps {
		mark := "○"
		switch {
		case step.Completed:
			mark = "✅"
		case step.Active:
			mark = "▶️"
		}
		lines[i] = mark + " " + step.Label
	}
	return strings.Join(lines, "\n")
}

func (s *BotService) detailText(lang string, view screen.DetailView) string {
	c := view.Complaint
	text := s.localizer.Format(lang, "detail",
		c.Title, c.Description, c.Location, c.Category, c.Severity, c.AuthorName, c.Votes,
		timelineText(view.Timeline))
	if view.Supported {
		return text + "\n\n" + s.localizer.Format(lang, "detail_supported", c.ID)
	}
	return text + "\n\n" + s.localizer.Format(lang, "detail_not_supported", c.ID)
}

func (s *BotService) handleComplaint(ctx context.Context, chatID int64, lang, userID, id string) {
	if id == "" {
		s.client.Reply(chatID, s.localizer.GetString(lang, "usage_complaint"), nil)
		return
	}
	detail := screen.NewDetail(ctx, id, userID, s.complaints, s.deps)
	defer detail.Close()

	st := detail.Load(ctx)
	if st.Kind != screen.KindSuccess {
		s.client.Reply(chatID, st.Message, nil)
		return
	}
	s.client.Reply(chatID, s.detailText(lang, st.Data), nil)
}

func (s *BotService) handleVote(ctx context.Context, chatID int64, lang, userID, id string, support bool) {
	if id == "" {
		s.client.Reply(chatID, s.localizer.GetString(lang, "usage_support"), nil)
		return
	}
	detail := screen.NewDetail(ctx, id, userID, s.complaints, s.deps)
	defer detail.Close()

	st, err := detail.Support(ctx, support)
	switch {
	case err != nil && screen.NotFound(err):
		s.client.Reply(chatID, config.MsgDetailFailed, nil)
	case err != nil:
		s.client.Reply(chatID, config.MsgVoteFailed, nil)
	case st.Kind != screen.KindSuccess:
		s.client.Reply(chatID, st.Message, nil)
	case support:
		s.client.Reply(chatID, s.localizer.GetString(lang, "vote_recorded"), nil)
	default:
		s.client.Reply(chatID, s.localizer.GetString(lang, "vote_withdrawn"), nil)
	}
}

// parseReport splits "Title | Location | Category | Description". Only the
// title is required.
func parseReport(args string) (complaint.Draft, bool) {
	parts := strings.SplitN(args, "|", 4)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	var d complaint.Draft
	d.Title = parts[0]
	if len(parts) > 1 {
		d.Location = parts[1]
	}
	if len(parts) > 2 {
		d.Category = parts[2]
	}
	if len(parts) > 3 {
		d.Description = parts[3]
	}
	return d, d.Title != ""
}

func (s *BotService) handleReport(ctx context.Context, chatID int64, lang string, session *models.AuthSession, args string) {
	draft, ok := parseReport(args)
	if !ok {
		s.client.Reply(chatID, s.localizer.GetString(lang, "usage_report"), nil)
		return
	}

	s.mu.Lock()
	draft.IsAnonymous = s.anonymous[chatID]
	pending, hasPending := s.drafts[chatID]
	s.mu.Unlock()
	if hasPending {
		draft = screen.Prefill(draft, pending)
	}

	post := screen.NewPost(ctx, s.complaints, s.analyzer, s.deps)
	defer post.Close()

	st := post.Submit(ctx, draft, session)
	if st.Kind != screen.KindSuccess {
		s.client.Reply(chatID, st.Message, nil)
		return
	}
	if hasPending {
		s.mu.Lock()
		delete(s.drafts, chatID)
		s.mu.Unlock()
	}
	s.client.Reply(chatID, s.localizer.Format(lang, "report_submitted", st.Data.ID), nil)
}

func (s *BotService) handlePhoto(ctx context.Context, chatID int64, lang string, photos []tgbotapi.PhotoSize) {
	largest := photos[len(photos)-1]
	s.client.Reply(chatID, s.localizer.GetString(lang, "analysis_working"), nil)

	data, mimeType, err := s.client.DownloadFile(ctx, largest.FileID)
	if err != nil {
		s.logger.Error("failed to download photo", "chat_id", chatID, "error", err)
		s.client.Reply(chatID, config.MsgAnalyzeFailed, nil)
		return
	}

	post := screen.NewPost(ctx, s.complaints, s.analyzer, s.deps)
	defer post.Close()

	st := post.Analyze(ctx, data, mimeType)
	if st.Kind != screen.KindSuccess {
		s.client.Reply(chatID, st.Message, nil)
		return
	}

	s.mu.Lock()
	s.drafts[chatID] = st.Data
	s.mu.Unlock()
	s.client.Reply(chatID, s.localizer.Format(lang, "analysis_result",
		st.Data.Category, st.Data.Severity, st.Data.Description), nil)
}

func (s *BotService) handleProfile(ctx context.Context, chatID int64, lang string, session *models.AuthSession) {
	profile := screen.NewProfile(ctx, session, s.complaints, s.deps)
	defer profile.Close()

	st := profile.Load(ctx)
	if st.Kind != screen.KindSuccess {
		s.client.Reply(chatID, st.Message, nil)
		return
	}
	lines := make([]string, 0, len(st.Data.MyComplaints))
	for _, c := range st.Data.MyComplaints {
		lines = append(lines, fmt.Sprintf("• %s (%s) /complaint %s", c.Title, complaint.StageIndex(c.Status), c.ID))
	}
	s.client.Reply(chatID, s.localizer.Format(lang, "profile",
		st.Data.UserName, st.Data.UserEmail, st.Data.ComplaintsPosted, strings.Join(lines, "\n")), nil)
}

// handleLanguageCommand sends a keyboard with every supported language.
func (s *BotService) handleLanguageCommand(chatID int64, lang string) {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, l := range localization.Languages {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(l.Name, langCallbackPrefix+l.Code))
		if len(row) == 3 {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	s.client.Reply(chatID, s.localizer.GetString(lang, "choose_language"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (s *BotService) handleCallbackQuery(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	s.client.Answer(cb.ID, "")
	if cb.Message == nil || !strings.HasPrefix(cb.Data, langCallbackPrefix) {
		return
	}
	chatID := cb.Message.Chat.ID

	language, ok := localization.Lookup(strings.TrimPrefix(cb.Data, langCallbackPrefix))
	if !ok {
		s.logger.Warn("unknown language in callback", "data", cb.Data)
		return
	}
	user, _, ok := s.chatUser(ctx, chatID, cb.From)
	if !ok {
		return
	}
	if err := s.users.UpdateUserLanguage(ctx, user.ID, language.Name); err != nil {
		s.logger.Error("failed to update user language", "user_id", user.ID, "error", err)
		return
	}
	s.client.Reply(chatID, s.localizer.Format(language.Code, "language_changed", language.Name), nil)
}
