// Package messaging defines the platform-neutral shapes exchanged with chat
// platforms: inbound events and outbound messages.
package messaging

import (
	"errors"
	"strings"

	"pizzabot/internal/types"
)

// ErrUnsupported is returned by a transport for an operation its platform lacks.
var ErrUnsupported = errors.New("messaging: not supported by this channel")

type Channel string

const (
	ChannelTelegram Channel = "telegram"
	ChannelFacebook Channel = "facebook"
)

// Session keys are namespaced per channel so the same platform-level id on
// two channels never shares a conversation.
var keyPrefixes = map[Channel]string{
	ChannelTelegram: "tg_pizza_shop_",
	ChannelFacebook: "fb_pizza_shop_",
}

func SessionKey(ch Channel, chatID string) string {
	return keyPrefixes[ch] + chatID
}

// ParseSessionKey is the inverse of SessionKey.
func ParseSessionKey(key string) (Channel, string, bool) {
	for ch, prefix := range keyPrefixes {
		if id, ok := strings.CutPrefix(key, prefix); ok && id != "" {
			return ch, id, true
		}
	}
	return "", "", false
}

type EventKind int

const (
	KindText EventKind = iota + 1
	KindButton
	KindLocation
	KindPaymentPrecheck
	KindPaymentSuccess
)

func (k EventKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindButton:
		return "button"
	case KindLocation:
		return "location"
	case KindPaymentPrecheck:
		return "payment_precheck"
	case KindPaymentSuccess:
		return "payment_success"
	default:
		return "unknown"
	}
}

// Payment carries the gateway fields of precheckout and success events.
type Payment struct {
	QueryID string
	Payload string
	Total   types.Money
}

// Event is one inbound user action. Which optional field is set depends on Kind:
// Text for text, Data and CallbackID for button, Location for location,
// Payment for both payment kinds.
type Event struct {
	Channel    Channel
	ChatID     string
	Kind       EventKind
	Text       string
	Data       string
	CallbackID string
	Location   *types.Point
	Payment    *Payment
}

func (e Event) SessionKey() string {
	return SessionKey(e.Channel, e.ChatID)
}

type Button struct {
	Text string
	Data string
}

// Message is an outbound rendering: text (or photo caption) plus button rows.
// Cards optionally describe the items the buttons refer to; channels with a
// carousel render a card per item and keep only the remaining buttons as rows.
type Message struct {
	Text     string
	PhotoURL string
	Buttons  [][]Button
	Cards    []Card
}

// Card is one item of a carousel.
type Card struct {
	Title    string
	Subtitle string
	ImageURL string
	Buttons  []Button
}

type Invoice struct {
	Title       string
	Description string
	Payload     string
	Amount      types.Money
}
