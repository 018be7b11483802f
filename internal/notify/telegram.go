package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram sends messages through a bot to a fixed chat. A zero token
// disables it: Send becomes a no-op so callers never need to branch.
// Delivery is fire and forget: failures are logged, never returned.
type Telegram struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		token:   token,
		chatID:  chatID,
		baseURL: defaultAPIBase,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SetBaseURL points the client at a different API host. Used by tests.
func (t *Telegram) SetBaseURL(base string) {
	t.baseURL = strings.TrimRight(base, "/")
}

// Enabled reports whether a bot token is configured.
func (t *Telegram) Enabled() bool {
	return t.token != "" && t.chatID != ""
}

// Send delivers one text message to the configured chat.
func (t *Telegram) Send(ctx context.Context, text string) {
	if !t.Enabled() || text == "" {
		return
	}

	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", text)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		log.Printf("telegram send: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		log.Printf("telegram send: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("telegram send: status %d", resp.StatusCode)
	}
}

// Update is one inbound event from the bot's queue.
type Update struct {
	UpdateID int64 `json:"update_id"`
	Message  struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Date int64 `json:"date"`
	} `json:"message"`
}

// Updates polls inbound messages after the given cursor. The caller
// advances the cursor to the highest UpdateID it has seen plus one.
func (t *Telegram) Updates(ctx context.Context, offset int64) ([]Update, error) {
	if !t.Enabled() {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?offset=%s", t.baseURL, t.token, strconv.FormatInt(offset, 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram getUpdates: status %d", resp.StatusCode)
	}

	var body struct {
		OK     bool     `json:"ok"`
		Result []Update `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if !body.OK {
		return nil, fmt.Errorf("telegram getUpdates: not ok")
	}
	return body.Result, nil
}
