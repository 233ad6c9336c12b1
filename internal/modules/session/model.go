// README: Conversation session persisted per namespaced user key.
package session

import (
	"errors"

	"pizzabot/internal/types"
)

// ErrConflict is returned by Save when another writer updated the session first.
var ErrConflict = errors.New("session: concurrent update")

// Session holds the current state name and the transient context a few
// states need between events. State is stored as an opaque string; the
// conversation engine owns its meaning.
type Session struct {
	Key        string
	State      string
	Page       int
	Position   *types.Point
	LocationID string
	Version    int64
}
