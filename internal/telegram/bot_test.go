package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranemoloko/tg-downloader/internal/config"
	"github.com/veranemoloko/tg-downloader/internal/delivery"
	"github.com/veranemoloko/tg-downloader/internal/domain"
)

const messageJSON = `{"ok":true,"result":{"message_id":%d,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`

type apiCall struct {
	method string
	form   map[string]string
}

// fakeBotAPI answers the subset of Bot API methods the bot uses.
type fakeBotAPI struct {
	mu       sync.Mutex
	calls    []apiCall
	failWith map[string]string
	server   *httptest.Server
}

func newFakeBotAPI(t *testing.T) *fakeBotAPI {
	t.Helper()
	f := &fakeBotAPI{failWith: make(map[string]string)}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeBotAPI) serve(w http.ResponseWriter, r *http.Request) {
	method := path.Base(r.URL.Path)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		_ = r.ParseMultipartForm(32 << 20)
	} else {
		_ = r.ParseForm()
	}

	form := make(map[string]string)
	for k, v := range r.Form {
		form[k] = v[0]
	}
	if r.MultipartForm != nil {
		for k := range r.MultipartForm.File {
			form[k] = "<file>"
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, form: form})
	n := len(f.calls)
	desc, fail := f.failWith[method]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		fmt.Fprintf(w, `{"ok":false,"error_code":400,"description":%q}`, desc)
		return
	}

	switch method {
	case "getMe":
		io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Test","username":"test_bot"}}`)
	case "deleteMessage":
		io.WriteString(w, `{"ok":true,"result":true}`)
	case "getUpdates":
		time.Sleep(20 * time.Millisecond)
		io.WriteString(w, `{"ok":true,"result":[]}`)
	default:
		fmt.Fprintf(w, messageJSON, 1000+n)
	}
}

func (f *fakeBotAPI) called(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

type fakeLinkHandler struct {
	mu   sync.Mutex
	urls []string
	done chan struct{}
}

func (h *fakeLinkHandler) HandleLink(ctx context.Context, chat delivery.Messenger, chatID int64, url string) domain.JobState {
	h.mu.Lock()
	h.urls = append(h.urls, url)
	h.mu.Unlock()
	if h.done != nil {
		<-h.done
	}
	return domain.JobStateDelivered
}

func (h *fakeLinkHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.urls...)
}

func newTestBot(t *testing.T, handler LinkHandler) (*Bot, *fakeBotAPI) {
	t.Helper()
	return newTestBotWithConfig(t, handler, &config.Config{BotToken: "test-token", PollTimeout: 1})
}

func newTestBotWithConfig(t *testing.T, handler LinkHandler, cfg *config.Config) (*Bot, *fakeBotAPI) {
	t.Helper()
	api := newFakeBotAPI(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	bot, err := NewBotWithEndpoint(cfg, api.server.URL+"/bot%s/%s", handler, logger)
	require.NoError(t, err)
	require.Len(t, api.called("getMe"), 1)
	return bot, api
}

func textUpdate(text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 7,
		Chat:      &tgbotapi.Chat{ID: 42, Type: "private"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{UpdateID: 1, Message: msg}
}

func TestBot_Dispatch(t *testing.T) {
	t.Run("start command replies with keyboard", func(t *testing.T) {
		handler := &fakeLinkHandler{}
		bot, api := newTestBot(t, handler)

		bot.dispatch(context.Background(), textUpdate("/start"))

		sent := api.called("sendMessage")
		require.Len(t, sent, 1)
		assert.Equal(t, "42", sent[0].form["chat_id"])
		assert.Equal(t, textStart, sent[0].form["text"])
		assert.Contains(t, sent[0].form["reply_markup"], supportedSitesURL)
		assert.Empty(t, handler.seen())
	})

	t.Run("help command", func(t *testing.T) {
		bot, api := newTestBot(t, &fakeLinkHandler{})

		bot.dispatch(context.Background(), textUpdate("/help"))

		sent := api.called("sendMessage")
		require.Len(t, sent, 1)
		assert.Equal(t, textHelp, sent[0].form["text"])
	})

	t.Run("unknown command is ignored", func(t *testing.T) {
		handler := &fakeLinkHandler{}
		bot, api := newTestBot(t, handler)

		bot.dispatch(context.Background(), textUpdate("/settings"))

		assert.Empty(t, api.called("sendMessage"))
		assert.Empty(t, handler.seen())
	})

	t.Run("plain text is ignored", func(t *testing.T) {
		handler := &fakeLinkHandler{}
		bot, api := newTestBot(t, handler)

		bot.dispatch(context.Background(), textUpdate("hello there"))

		require.NoError(t, bot.Wait(context.Background()))
		assert.Empty(t, api.called("sendMessage"))
		assert.Empty(t, handler.seen())
	})

	t.Run("link is handed to handler", func(t *testing.T) {
		handler := &fakeLinkHandler{}
		bot, _ := newTestBot(t, handler)

		bot.dispatch(context.Background(), textUpdate("  https://www.youtube.com/watch?v=abc  "))

		require.NoError(t, bot.Wait(context.Background()))
		assert.Equal(t, []string{"https://www.youtube.com/watch?v=abc"}, handler.seen())
	})

	t.Run("private host link is ignored by default", func(t *testing.T) {
		handler := &fakeLinkHandler{}
		bot, _ := newTestBot(t, handler)

		bot.dispatch(context.Background(), textUpdate("http://192.168.1.20:8096/videos/1"))

		require.NoError(t, bot.Wait(context.Background()))
		assert.Empty(t, handler.seen())
	})

	t.Run("private host link accepted when allowed", func(t *testing.T) {
		handler := &fakeLinkHandler{}
		cfg := &config.Config{BotToken: "test-token", PollTimeout: 1, AllowPrivateHosts: true}
		bot, _ := newTestBotWithConfig(t, handler, cfg)

		bot.dispatch(context.Background(), textUpdate("http://192.168.1.20:8096/videos/1"))

		require.NoError(t, bot.Wait(context.Background()))
		assert.Equal(t, []string{"http://192.168.1.20:8096/videos/1"}, handler.seen())
	})

	t.Run("update without message", func(t *testing.T) {
		handler := &fakeLinkHandler{}
		bot, _ := newTestBot(t, handler)

		bot.dispatch(context.Background(), tgbotapi.Update{UpdateID: 2})

		assert.Empty(t, handler.seen())
	})
}

func TestBot_WaitTimesOut(t *testing.T) {
	handler := &fakeLinkHandler{done: make(chan struct{})}
	bot, _ := newTestBot(t, handler)

	bot.dispatch(context.Background(), textUpdate("https://vk.com/video1"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bot.Wait(ctx), context.DeadlineExceeded)

	close(handler.done)
	require.NoError(t, bot.Wait(context.Background()))
}

func TestBot_RunStopsOnCancel(t *testing.T) {
	bot, _ := newTestBot(t, &fakeLinkHandler{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- bot.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestChatMessenger(t *testing.T) {
	ctx := context.Background()

	t.Run("send and edit text", func(t *testing.T) {
		bot, api := newTestBot(t, &fakeLinkHandler{})
		m := bot.Messenger(42)

		id, err := m.SendText(ctx, "Downloading…")
		require.NoError(t, err)
		assert.Greater(t, id, 1000)

		require.NoError(t, m.EditText(ctx, id, "Downloading: 10%"))
		edits := api.called("editMessageText")
		require.Len(t, edits, 1)
		assert.Equal(t, fmt.Sprint(id), edits[0].form["message_id"])
		assert.Equal(t, "Downloading: 10%", edits[0].form["text"])
		assert.Contains(t, edits[0].form["reply_markup"], supportedSitesURL)
	})

	t.Run("unchanged edit is not an error", func(t *testing.T) {
		bot, api := newTestBot(t, &fakeLinkHandler{})
		api.failWith["editMessageText"] = "Bad Request: message is not modified"

		assert.NoError(t, bot.Messenger(42).EditText(ctx, 5, "same"))
	})

	t.Run("edit error surfaces", func(t *testing.T) {
		bot, api := newTestBot(t, &fakeLinkHandler{})
		api.failWith["editMessageText"] = "Bad Request: message to edit not found"

		assert.Error(t, bot.Messenger(42).EditText(ctx, 5, "text"))
	})

	t.Run("delete", func(t *testing.T) {
		bot, api := newTestBot(t, &fakeLinkHandler{})

		require.NoError(t, bot.Messenger(42).Delete(ctx, 9))
		deletes := api.called("deleteMessage")
		require.Len(t, deletes, 1)
		assert.Equal(t, "9", deletes[0].form["message_id"])
	})

	t.Run("uploads", func(t *testing.T) {
		bot, api := newTestBot(t, &fakeLinkHandler{})
		file := filepath.Join(t.TempDir(), "clip [x].mp4")
		require.NoError(t, os.WriteFile(file, []byte("video"), 0o644))

		m := bot.Messenger(42)
		require.NoError(t, m.SendVideo(ctx, file, "Done: clip"))
		require.NoError(t, m.SendDocument(ctx, file, "Done: clip"))

		videos := api.called("sendVideo")
		require.Len(t, videos, 1)
		assert.Equal(t, "Done: clip", videos[0].form["caption"])
		assert.Equal(t, "<file>", videos[0].form["video"])

		docs := api.called("sendDocument")
		require.Len(t, docs, 1)
		assert.Equal(t, "<file>", docs[0].form["document"])
	})

	t.Run("cancelled context skips the call", func(t *testing.T) {
		bot, api := newTestBot(t, &fakeLinkHandler{})
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := bot.Messenger(42).SendText(cctx, "x")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, api.called("sendMessage"))
	})
}
