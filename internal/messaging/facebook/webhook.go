package facebook

import (
	"pizzabot/internal/messaging"
	"pizzabot/internal/types"
)

// WebhookPayload is the body Messenger posts to the page webhook.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID        string           `json:"id"`
	Messaging []MessagingEvent `json:"messaging"`
}

type MessagingEvent struct {
	Sender   Sender     `json:"sender"`
	Message  *InMessage `json:"message,omitempty"`
	Postback *Postback  `json:"postback,omitempty"`
}

type Sender struct {
	ID string `json:"id"`
}

type InMessage struct {
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	Type    string `json:"type"`
	Payload struct {
		Coordinates *struct {
			Lat  float64 `json:"lat"`
			Long float64 `json:"long"`
		} `json:"coordinates,omitempty"`
	} `json:"payload"`
}

type Postback struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// Events flattens a page webhook into inbound events in delivery order.
func (p WebhookPayload) Events() []messaging.Event {
	if p.Object != "page" {
		return nil
	}
	var out []messaging.Event
	for _, entry := range p.Entry {
		for _, me := range entry.Messaging {
			if ev, ok := me.toEvent(); ok {
				out = append(out, ev)
			}
		}
	}
	return out
}

func (me MessagingEvent) toEvent() (messaging.Event, bool) {
	ev := messaging.Event{Channel: messaging.ChannelFacebook, ChatID: me.Sender.ID}
	if ev.ChatID == "" {
		return messaging.Event{}, false
	}
	switch {
	case me.Postback != nil:
		ev.Kind = messaging.KindButton
		ev.Data = me.Postback.Payload
	case me.Message != nil:
		for _, a := range me.Message.Attachments {
			if a.Type == "location" && a.Payload.Coordinates != nil {
				ev.Kind = messaging.KindLocation
				ev.Location = &types.Point{Lat: a.Payload.Coordinates.Lat, Lng: a.Payload.Coordinates.Long}
				return ev, true
			}
		}
		if me.Message.Text == "" {
			return messaging.Event{}, false
		}
		ev.Kind = messaging.KindText
		ev.Text = me.Message.Text
	default:
		return messaging.Event{}, false
	}
	return ev, true
}

// Verify answers the subscription handshake: it returns the challenge to echo
// and whether the token matched.
func Verify(mode, token, challenge, expected string) (string, bool) {
	if mode != "subscribe" || challenge == "" || expected == "" || token != expected {
		return "", false
	}
	return challenge, true
}
