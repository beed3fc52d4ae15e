package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirebot/internal/common/config"
	"hirebot/internal/common/logger"
)

type botAPI struct {
	mu      sync.Mutex
	updates []tgUpdate
	sent    []map[string]interface{}
	acked   []string
	served  bool
	server  *httptest.Server
}

func newBotAPI(t *testing.T, updates []tgUpdate) *botAPI {
	t.Helper()
	api := &botAPI{updates: updates}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()

		switch {
		case r.URL.Path == "/bottest-token/getUpdates":
			result := []tgUpdate{}
			if !api.served {
				result = api.updates
				api.served = true
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": result})
		case r.URL.Path == "/bottest-token/sendMessage":
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			api.sent = append(api.sent, body)
			fmt.Fprint(w, `{"ok":true}`)
		case r.URL.Path == "/bottest-token/answerCallbackQuery":
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			api.acked = append(api.acked, fmt.Sprint(body["callback_query_id"]))
			fmt.Fprint(w, `{"ok":true}`)
		case r.URL.Path == "/bottest-token/getFile":
			fmt.Fprint(w, `{"ok":true,"result":{"file_path":"documents/file_1.pdf"}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(api.server.Close)
	return api
}

func (a *botAPI) transport() *Telegram {
	return NewTelegram(config.TelegramConfig{
		BotToken:       "test-token",
		APIBaseURL:     a.server.URL,
		PollTimeout:    0,
		RequestTimeout: 2000,
		WorkerCount:    1,
	}, logger.NewNoOpLogger())
}

func (a *botAPI) sentTexts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	texts := make([]string, 0, len(a.sent))
	for _, s := range a.sent {
		texts = append(texts, fmt.Sprint(s["text"]))
	}
	return texts
}

func runUntil(t *testing.T, tg *Telegram, done <-chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		tg.Run(ctx)
		close(finished)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	cancel()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("run loop did not stop")
	}
}

func TestTelegram_TextUpdateDispatchedAndRepliesSent(t *testing.T) {
	api := newBotAPI(t, []tgUpdate{{
		UpdateID: 1,
		Message: &tgMessage{
			From: &tgUser{ID: 100, Username: "ada", FirstName: "Ada"},
			Chat: tgChat{ID: 100},
			Text: "hello",
		},
	}})
	tg := api.transport()

	done := make(chan struct{})
	tg.OnTextMessage(func(_ context.Context, ev TextEvent) []Outbound {
		defer close(done)
		assert.Equal(t, "100", ev.SubjectID)
		assert.Equal(t, "ada", ev.Username)
		assert.Equal(t, "hello", ev.Text)
		return []Outbound{
			{SubjectID: ev.SubjectID, Text: "first"},
			{SubjectID: ev.SubjectID, Text: "second"},
		}
	})

	runUntil(t, tg, done)
	assert.Equal(t, []string{"first", "second"}, api.sentTexts())
}

func TestTelegram_DocumentUpdateDispatched(t *testing.T) {
	api := newBotAPI(t, []tgUpdate{{
		UpdateID: 7,
		Message: &tgMessage{
			From:     &tgUser{ID: 100},
			Chat:     tgChat{ID: 100},
			Document: &tgDocument{FileID: "f-1", FileName: "resume.pdf", FileSize: 1024, MIMEType: "application/pdf"},
		},
	}})
	tg := api.transport()

	done := make(chan struct{})
	tg.OnDocumentMessage(func(_ context.Context, ev DocumentEvent) []Outbound {
		defer close(done)
		assert.Equal(t, "100", ev.SubjectID)
		assert.Equal(t, "resume.pdf", ev.FileName)
		assert.Equal(t, int64(1024), ev.FileSize)
		return nil
	})
	tg.OnTextMessage(func(context.Context, TextEvent) []Outbound { return nil })

	runUntil(t, tg, done)
}

func TestTelegram_CallbackReplayedAsText(t *testing.T) {
	api := newBotAPI(t, []tgUpdate{{
		UpdateID: 9,
		CallbackQuery: &tgCallbackQuery{
			ID:   "cb-1",
			From: tgUser{ID: 100, Username: "ada"},
			Data: "/start qs-1",
		},
	}})
	tg := api.transport()

	done := make(chan struct{})
	tg.OnTextMessage(func(_ context.Context, ev TextEvent) []Outbound {
		defer close(done)
		assert.Equal(t, "/start qs-1", ev.Text)
		assert.Equal(t, "100", ev.SubjectID)
		return nil
	})

	runUntil(t, tg, done)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, []string{"cb-1"}, api.acked)
}

func TestTelegram_SendBuildsInlineKeyboard(t *testing.T) {
	api := newBotAPI(t, nil)
	tg := api.transport()

	err := tg.Send(context.Background(), Outbound{
		SubjectID: "100",
		Text:      "Open positions:",
		Buttons:   [][]Button{{{Label: "Backend", Data: "/start qs-1"}}},
	})
	require.NoError(t, err)

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.sent, 1)
	markup, ok := api.sent[0]["reply_markup"].(map[string]interface{})
	require.True(t, ok)
	rows := markup["inline_keyboard"].([]interface{})
	row := rows[0].([]interface{})
	button := row[0].(map[string]interface{})
	assert.Equal(t, "Backend", button["text"])
	assert.Equal(t, "/start qs-1", button["callback_data"])
}

func TestTelegram_FileURL(t *testing.T) {
	api := newBotAPI(t, nil)
	tg := api.transport()

	link, err := tg.FileURL(context.Background(), "f-1")
	require.NoError(t, err)
	assert.Equal(t, api.server.URL+"/file/bottest-token/documents/file_1.pdf", link)
}

func TestTelegram_RunWithoutHandlersFails(t *testing.T) {
	api := newBotAPI(t, nil)
	err := api.transport().Run(context.Background())
	assert.Error(t, err)
}
