package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxPhotoBytes caps what we download for analysis.
const maxPhotoBytes = 10 << 20

var ErrPhotoTooLarge = errors.New("photo too large")

// BotAPI is the subset of *tgbotapi.BotAPI the bot uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Client sends replies and fetches files. Send failures are logged, not
// returned: a reply that cannot be delivered has nowhere else to go.
type Client struct {
	api    BotAPI
	http   *http.Client
	logger *slog.Logger
}

func NewClient(api BotAPI, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, http: httpClient, logger: logger}
}

// Reply sends plain text. markup may be nil.
func (c *Client) Reply(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := c.api.Send(msg); err != nil {
		c.logger.Error("failed to send telegram message", "chat_id", chatID, "error", err)
	}
}

// Answer acknowledges a callback query so the client stops its spinner.
func (c *Client) Answer(callbackID, text string) {
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		c.logger.Warn("failed to answer callback", "callback_id", callbackID, "error", err)
	}
}

// DownloadFile fetches a file by id and returns its bytes and content type.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, string, error) {
	url, err := c.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, "", fmt.Errorf("resolve file %s: %w", fileID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download file %s: status %d", fileID, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read file %s: %w", fileID, err)
	}
	if len(data) > maxPhotoBytes {
		return nil, "", ErrPhotoTooLarge
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}
