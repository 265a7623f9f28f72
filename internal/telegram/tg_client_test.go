package telegram

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestClient_DownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpeg-bytes"))
		case "/big":
			_, _ = w.Write(bytes.Repeat([]byte{'x'}, maxPhotoBytes+1))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	api := new(MockBotAPI)
	api.On("GetFileDirectURL", "ok").Return(srv.URL+"/ok", nil)
	api.On("GetFileDirectURL", "big").Return(srv.URL+"/big", nil)
	api.On("GetFileDirectURL", "gone").Return(srv.URL+"/gone", nil)
	api.On("GetFileDirectURL", "bad").Return("", errors.New("file not found"))
	c := NewClient(api, srv.Client(), nil)
	ctx := context.Background()

	data, mimeType, err := c.DownloadFile(ctx, "ok")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
	assert.Equal(t, "image/jpeg", mimeType)

	_, _, err = c.DownloadFile(ctx, "big")
	assert.ErrorIs(t, err, ErrPhotoTooLarge)

	_, _, err = c.DownloadFile(ctx, "gone")
	assert.ErrorContains(t, err, "status 404")

	_, _, err = c.DownloadFile(ctx, "bad")
	assert.ErrorContains(t, err, "file not found")
}

func TestClient_ReplySwallowsErrors(t *testing.T) {
	api := new(MockBotAPI)
	api.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("blocked by user")).Once()
	api.On("Request", mock.Anything).Return(nil, errors.New("timeout")).Once()
	c := NewClient(api, nil, nil)

	assert.NotPanics(t, func() {
		c.Reply(1, "hi", nil)
		c.Answer("cb", "")
	})
	api.AssertExpectations(t)
}
