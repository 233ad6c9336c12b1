// README: Facebook Messenger Send API client. Menus become generic templates; payments are not available.
package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pizzabot/internal/messaging"
	"pizzabot/internal/types"
)

// Messenger limits for generic templates.
const (
	maxButtonsPerElement = 3
	maxElements          = 10
	maxTitleLen          = 80
	maxButtonTitleLen    = 20
)

var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

type Client struct {
	base    string
	token   string
	logoURL string
	http    *http.Client
}

func NewClient(apiBase, pageToken, logoURL string) *Client {
	return &Client{base: apiBase, token: pageToken, logoURL: logoURL, http: defaultHTTPClient}
}

type recipient struct {
	ID string `json:"id"`
}

type button struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

type element struct {
	Title    string   `json:"title"`
	ImageURL string   `json:"image_url,omitempty"`
	Subtitle string   `json:"subtitle,omitempty"`
	Buttons  []button `json:"buttons,omitempty"`
}

type templatePayload struct {
	TemplateType string    `json:"template_type"`
	Elements     []element `json:"elements"`
}

type attachment struct {
	Type    string          `json:"type"`
	Payload templatePayload `json:"payload"`
}

type outMessage struct {
	Text       string      `json:"text,omitempty"`
	Attachment *attachment `json:"attachment,omitempty"`
}

type sendRequest struct {
	Recipient recipient  `json:"recipient"`
	Message   outMessage `json:"message"`
}

func (c *Client) post(ctx context.Context, body sendRequest) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("facebook send: marshal request: %w", err)
	}
	endpoint := c.base + "/me/messages?" + url.Values{"access_token": {c.token}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("facebook send: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("facebook send: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("facebook send: status %d: %s", resp.StatusCode, raw)
	}
	return nil
}

// Send posts plain text when m has no buttons. Messages with cards become
// the text followed by a generic template with one card per item; others
// become a single template whose first card holds the text and photo.
func (c *Client) Send(ctx context.Context, recipientID string, m messaging.Message) error {
	req := sendRequest{Recipient: recipient{ID: recipientID}}
	if len(m.Cards) > 0 {
		if m.Text != "" {
			req.Message.Text = m.Text
			if err := c.post(ctx, req); err != nil {
				return err
			}
			req.Message.Text = ""
		}
		req.Message.Attachment = generic(c.cardElements(m))
		return c.post(ctx, req)
	}
	if len(m.Buttons) == 0 && m.PhotoURL == "" {
		req.Message.Text = m.Text
		return c.post(ctx, req)
	}
	req.Message.Attachment = generic(c.elements(m))
	return c.post(ctx, req)
}

func generic(els []element) *attachment {
	return &attachment{
		Type:    "template",
		Payload: templatePayload{TemplateType: "generic", Elements: els},
	}
}

func postback(b messaging.Button) button {
	return button{Type: "postback", Title: clip(b.Text, maxButtonTitleLen), Payload: b.Data}
}

// cardElements renders one element per card, then the buttons no card
// carries. Cards are dropped from the end to fit the element limit.
func (c *Client) cardElements(m messaging.Message) []element {
	onCard := map[string]bool{}
	cards := make([]element, 0, len(m.Cards))
	for _, card := range m.Cards {
		el := element{
			Title:    clip(card.Title, maxTitleLen),
			Subtitle: clip(card.Subtitle, maxTitleLen),
			ImageURL: card.ImageURL,
		}
		if el.ImageURL == "" {
			el.ImageURL = c.logoURL
		}
		for _, b := range card.Buttons[:min(len(card.Buttons), maxButtonsPerElement)] {
			el.Buttons = append(el.Buttons, postback(b))
			onCard[b.Data] = true
		}
		cards = append(cards, el)
	}

	var rest []button
	for _, row := range m.Buttons {
		for _, b := range row {
			if !onCard[b.Data] {
				rest = append(rest, postback(b))
			}
		}
	}
	extra := chunk(rest, element{Title: "More options"})
	cards = cards[:min(len(cards), max(maxElements-len(extra), 0))]
	out := append(cards, extra...)
	return out[:min(len(out), maxElements)]
}

func (c *Client) elements(m messaging.Message) []element {
	var flat []button
	for _, row := range m.Buttons {
		for _, b := range row {
			flat = append(flat, postback(b))
		}
	}

	image := m.PhotoURL
	if image == "" {
		image = c.logoURL
	}
	title, subtitle := splitTitle(m.Text)
	out := chunk(flat, element{Title: title, Subtitle: subtitle, ImageURL: image})
	if len(out) == 0 {
		out = []element{{Title: title, Subtitle: subtitle, ImageURL: image}}
	}
	for i := 1; i < len(out); i++ {
		out[i] = element{Title: "More", Buttons: out[i].Buttons}
	}
	return out[:min(len(out), maxElements)]
}

// chunk spreads buttons over copies of head, maxButtonsPerElement at a time.
func chunk(buttons []button, head element) []element {
	var out []element
	for len(buttons) > 0 {
		n := min(maxButtonsPerElement, len(buttons))
		el := head
		el.Buttons = buttons[:n]
		out = append(out, el)
		buttons = buttons[n:]
	}
	return out
}

func clip(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

// splitTitle uses the first line as the card title and the rest as subtitle.
func splitTitle(text string) (string, string) {
	title, rest, _ := strings.Cut(text, "\n")
	title = clip(title, maxTitleLen)
	if title == "" {
		title = "Menu"
	}
	return title, clip(rest, maxTitleLen)
}

// SendLocation sends a map link; Messenger has no outbound location pin.
func (c *Client) SendLocation(ctx context.Context, recipientID string, p types.Point) error {
	link := fmt.Sprintf("https://maps.google.com/?q=%f,%f", p.Lat, p.Lng)
	return c.post(ctx, sendRequest{Recipient: recipient{ID: recipientID}, Message: outMessage{Text: link}})
}

func (c *Client) SendInvoice(context.Context, string, messaging.Invoice) error {
	return fmt.Errorf("facebook sendInvoice: %w", messaging.ErrUnsupported)
}

func (c *Client) AnswerPrecheckout(context.Context, string, bool, string) error {
	return fmt.Errorf("facebook answerPrecheckout: %w", messaging.ErrUnsupported)
}

// Acknowledge replies with a short text since postbacks have no toast.
func (c *Client) Acknowledge(ctx context.Context, recipientID, _ string, text string) error {
	if text == "" {
		return nil
	}
	return c.post(ctx, sendRequest{Recipient: recipient{ID: recipientID}, Message: outMessage{Text: text}})
}
