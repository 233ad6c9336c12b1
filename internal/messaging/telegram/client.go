// README: Telegram Bot API client (messages, invoices, callback answers, getUpdates).
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"pizzabot/internal/messaging"
	"pizzabot/internal/types"
)

// The client-level timeout guards against stalled connections; callers still
// bound each call with their own context.
var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

type Client struct {
	base         string
	token        string
	paymentToken string
	http         *http.Client
}

func NewClient(apiBase, token, paymentToken string) *Client {
	return &Client{base: apiBase, token: token, paymentToken: paymentToken, http: defaultHTTPClient}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
}

type inlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]inlineKeyboardButton `json:"inline_keyboard"`
}

type labeledPrice struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// call posts a JSON body to a Bot API method and decodes result into out (if non-nil).
func (c *Client) call(ctx context.Context, method string, body any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("telegram %s: marshal request: %w", method, err)
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.base, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("telegram %s: build request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: do request: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram %s: read response: %w", method, err)
	}
	var ar apiResponse
	if err := json.Unmarshal(raw, &ar); err != nil {
		return fmt.Errorf("telegram %s: unmarshal response (status %d): %w", method, resp.StatusCode, err)
	}
	if !ar.OK {
		return fmt.Errorf("telegram %s: api error %d: %s", method, ar.ErrorCode, ar.Description)
	}
	if out != nil {
		if err := json.Unmarshal(ar.Result, out); err != nil {
			return fmt.Errorf("telegram %s: unmarshal result: %w", method, err)
		}
	}
	return nil
}

func keyboard(rows [][]messaging.Button) *inlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	kb := &inlineKeyboardMarkup{InlineKeyboard: make([][]inlineKeyboardButton, 0, len(rows))}
	for _, row := range rows {
		out := make([]inlineKeyboardButton, 0, len(row))
		for _, b := range row {
			out = append(out, inlineKeyboardButton{Text: b.Text, CallbackData: b.Data})
		}
		kb.InlineKeyboard = append(kb.InlineKeyboard, out)
	}
	return kb
}

// Send renders m as a photo with caption when it has a photo, otherwise as text.
func (c *Client) Send(ctx context.Context, chatID string, m messaging.Message) error {
	if m.PhotoURL != "" {
		return c.call(ctx, "sendPhoto", map[string]any{
			"chat_id":      chatID,
			"photo":        m.PhotoURL,
			"caption":      m.Text,
			"reply_markup": keyboard(m.Buttons),
		}, nil)
	}
	return c.call(ctx, "sendMessage", map[string]any{
		"chat_id":      chatID,
		"text":         m.Text,
		"reply_markup": keyboard(m.Buttons),
	}, nil)
}

func (c *Client) SendLocation(ctx context.Context, chatID string, p types.Point) error {
	return c.call(ctx, "sendLocation", map[string]any{
		"chat_id":   chatID,
		"latitude":  p.Lat,
		"longitude": p.Lng,
	}, nil)
}

func (c *Client) SendInvoice(ctx context.Context, chatID string, inv messaging.Invoice) error {
	if c.paymentToken == "" {
		return fmt.Errorf("telegram sendInvoice: %w: payment provider token not configured", messaging.ErrUnsupported)
	}
	return c.call(ctx, "sendInvoice", map[string]any{
		"chat_id":        chatID,
		"title":          inv.Title,
		"description":    inv.Description,
		"payload":        inv.Payload,
		"provider_token": c.paymentToken,
		"currency":       inv.Amount.Currency,
		"prices":         []labeledPrice{{Label: inv.Title, Amount: inv.Amount.Amount}},
	}, nil)
}

func (c *Client) AnswerPrecheckout(ctx context.Context, queryID string, ok bool, errMsg string) error {
	body := map[string]any{
		"pre_checkout_query_id": queryID,
		"ok":                    ok,
	}
	if !ok {
		body["error_message"] = errMsg
	}
	return c.call(ctx, "answerPreCheckoutQuery", body, nil)
}

// Acknowledge answers a callback query with a short toast.
func (c *Client) Acknowledge(ctx context.Context, _ string, callbackID, text string) error {
	if callbackID == "" {
		return nil
	}
	return c.call(ctx, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackID,
		"text":              text,
	}, nil)
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	var updates []Update
	err := c.call(ctx, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message", "callback_query", "pre_checkout_query"},
	}, &updates)
	return updates, err
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
