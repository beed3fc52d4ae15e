// internal/transport/telegram.go
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"hirebot/internal/common/config"
	httpclient "hirebot/internal/common/http"
	"hirebot/internal/common/logger"
)

// Telegram implements Transport over the Bot API using long polling.
type Telegram struct {
	cfg     config.TelegramConfig
	client  *httpclient.Client
	logger  logger.Logger
	workers int

	mu     sync.RWMutex
	onText TextHandler
	onDoc  DocumentHandler
	offset int64
}

func NewTelegram(cfg config.TelegramConfig, log logger.Logger) *Telegram {
	return &Telegram{
		cfg:     cfg,
		client:  httpclient.NewClient(config.GetDuration(cfg.RequestTimeout)),
		logger:  log.WithFields(map[string]interface{}{"component": "telegram"}),
		workers: cfg.WorkerCount,
	}
}

func (t *Telegram) OnTextMessage(h TextHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onText = h
}

func (t *Telegram) OnDocumentMessage(h DocumentHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDoc = h
}

func (t *Telegram) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.cfg.APIBaseURL, t.cfg.BotToken, method)
}

type apiEnvelope struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

type tgUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type tgChat struct {
	ID int64 `json:"id"`
}

type tgDocument struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MIMEType string `json:"mime_type"`
}

type tgMessage struct {
	MessageID int64       `json:"message_id"`
	From      *tgUser     `json:"from"`
	Chat      tgChat      `json:"chat"`
	Text      string      `json:"text"`
	Document  *tgDocument `json:"document"`
}

type tgCallbackQuery struct {
	ID   string     `json:"id"`
	From tgUser     `json:"from"`
	Data string     `json:"data"`
	Msg  *tgMessage `json:"message"`
}

type tgUpdate struct {
	UpdateID      int64            `json:"update_id"`
	Message       *tgMessage       `json:"message"`
	CallbackQuery *tgCallbackQuery `json:"callback_query"`
}

type getUpdatesResponse struct {
	apiEnvelope
	Result []tgUpdate `json:"result"`
}

// Send delivers one message, attaching an inline keyboard when buttons
// are present.
func (t *Telegram) Send(ctx context.Context, msg Outbound) error {
	chatID, err := strconv.ParseInt(msg.SubjectID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid subject id %q: %w", msg.SubjectID, err)
	}

	body := map[string]interface{}{
		"chat_id": chatID,
		"text":    msg.Text,
	}

	if len(msg.Buttons) > 0 {
		keyboard := make([][]map[string]string, 0, len(msg.Buttons))
		for _, row := range msg.Buttons {
			keyboardRow := make([]map[string]string, 0, len(row))
			for _, b := range row {
				keyboardRow = append(keyboardRow, map[string]string{
					"text":          b.Label,
					"callback_data": b.Data,
				})
			}
			keyboard = append(keyboard, keyboardRow)
		}
		body["reply_markup"] = map[string]interface{}{"inline_keyboard": keyboard}
	}

	var resp apiEnvelope
	if err := t.client.PostJSON(ctx, t.methodURL("sendMessage"), body, &resp); err != nil {
		return fmt.Errorf("sendMessage failed: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("sendMessage rejected: %s", resp.Description)
	}
	return nil
}

// FileURL resolves a file_id through getFile to a download link.
func (t *Telegram) FileURL(ctx context.Context, fileID string) (string, error) {
	var resp struct {
		apiEnvelope
		Result struct {
			FilePath string `json:"file_path"`
		} `json:"result"`
	}

	u := t.methodURL("getFile") + "?file_id=" + url.QueryEscape(fileID)
	if err := t.client.GetJSON(ctx, u, &resp); err != nil {
		return "", fmt.Errorf("getFile failed: %w", err)
	}
	if !resp.OK {
		return "", fmt.Errorf("getFile rejected: %s", resp.Description)
	}

	return fmt.Sprintf("%s/file/bot%s/%s", t.cfg.APIBaseURL, t.cfg.BotToken, resp.Result.FilePath), nil
}

// Run polls getUpdates until ctx is cancelled. Events are dispatched to
// a bounded worker pool so one slow subject cannot stall the others.
func (t *Telegram) Run(ctx context.Context) error {
	t.mu.RLock()
	registered := t.onText != nil || t.onDoc != nil
	t.mu.RUnlock()
	if !registered {
		return errors.New("no handlers registered")
	}

	jobs := make(chan tgUpdate, t.workers*2)
	var wg sync.WaitGroup
	for i := 0; i < t.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for upd := range jobs {
				t.dispatch(ctx, upd)
			}
		}()
	}
	defer func() {
		close(jobs)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, err := t.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.logger.Warn("getUpdates failed", map[string]interface{}{"error": err.Error()})
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= t.offset {
				t.offset = upd.UpdateID + 1
			}
			select {
			case jobs <- upd:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (t *Telegram) poll(ctx context.Context) ([]tgUpdate, error) {
	u := fmt.Sprintf("%s?offset=%d&timeout=%d", t.methodURL("getUpdates"), t.offset, t.cfg.PollTimeout)

	var resp getUpdatesResponse
	if err := t.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("getUpdates rejected: %s", resp.Description)
	}
	return resp.Result, nil
}

func (t *Telegram) dispatch(ctx context.Context, upd tgUpdate) {
	t.mu.RLock()
	onText, onDoc := t.onText, t.onDoc
	t.mu.RUnlock()

	switch {
	case upd.CallbackQuery != nil:
		// Button presses carry their command in callback data and are
		// replayed through the text path.
		t.ackCallback(ctx, upd.CallbackQuery.ID)
		if onText == nil {
			return
		}
		from := upd.CallbackQuery.From
		t.deliver(ctx, onText(ctx, TextEvent{
			SubjectID: strconv.FormatInt(from.ID, 10),
			Username:  from.Username,
			FirstName: from.FirstName,
			LastName:  from.LastName,
			Text:      upd.CallbackQuery.Data,
		}))

	case upd.Message != nil && upd.Message.Document != nil:
		if onDoc == nil {
			return
		}
		ev := DocumentEvent{
			TextEvent: TextEvent{SubjectID: chatSubjectID(upd.Message)},
			FileID:    upd.Message.Document.FileID,
			FileName:  upd.Message.Document.FileName,
			FileSize:  upd.Message.Document.FileSize,
			MIMEType:  upd.Message.Document.MIMEType,
		}
		if upd.Message.From != nil {
			ev.Username = upd.Message.From.Username
			ev.FirstName = upd.Message.From.FirstName
			ev.LastName = upd.Message.From.LastName
		}
		t.deliver(ctx, onDoc(ctx, ev))

	case upd.Message != nil && upd.Message.Text != "":
		if onText == nil {
			return
		}
		ev := TextEvent{
			SubjectID: chatSubjectID(upd.Message),
			Text:      upd.Message.Text,
		}
		if upd.Message.From != nil {
			ev.Username = upd.Message.From.Username
			ev.FirstName = upd.Message.From.FirstName
			ev.LastName = upd.Message.From.LastName
		}
		t.deliver(ctx, onText(ctx, ev))
	}
}

// deliver sends the transition's messages in order. A failed send is
// logged and the rest still go out.
func (t *Telegram) deliver(ctx context.Context, out []Outbound) {
	for _, msg := range out {
		if err := t.Send(ctx, msg); err != nil {
			t.logger.Error("sendMessage failed", map[string]interface{}{
				"subject_id": msg.SubjectID,
				"error":      err.Error(),
			})
		}
	}
}

func chatSubjectID(msg *tgMessage) string {
	if msg.From != nil {
		return strconv.FormatInt(msg.From.ID, 10)
	}
	return strconv.FormatInt(msg.Chat.ID, 10)
}

func (t *Telegram) ackCallback(ctx context.Context, callbackID string) {
	body := map[string]interface{}{"callback_query_id": callbackID}
	var resp apiEnvelope
	if err := t.client.PostJSON(ctx, t.methodURL("answerCallbackQuery"), body, &resp); err != nil {
		t.logger.Debug("answerCallbackQuery failed", map[string]interface{}{"error": err.Error()})
	}
}
