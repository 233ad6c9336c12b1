package bot

import (
	"strconv"
	"strings"
)

type Action int

const (
	ActionMenu Action = iota + 1
	ActionCart
	ActionBack
	ActionCheckout
	ActionPickup
	ActionDelivery
	ActionPage
	ActionProduct
	ActionQuantity
	ActionRemove
)

// Callback is a decoded button payload.
type Callback struct {
	Action   Action
	Page     int
	ID       string
	Quantity int
}

var plainActions = map[string]Action{
	"menu":     ActionMenu,
	"cart":     ActionCart,
	"back":     ActionBack,
	"checkout": ActionCheckout,
	"pickup":   ActionPickup,
	"delivery": ActionDelivery,
}

// ParseCallback decodes payloads produced by the *Data helpers below.
func ParseCallback(data string) (Callback, error) {
	if a, ok := plainActions[data]; ok {
		return Callback{Action: a}, nil
	}
	prefix, rest, ok := strings.Cut(data, ":")
	if !ok || rest == "" {
		return Callback{}, userInput("malformed button payload %q", data)
	}
	switch prefix {
	case "page":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return Callback{}, userInput("bad page in %q", data)
		}
		return Callback{Action: ActionPage, Page: n}, nil
	case "product":
		return Callback{Action: ActionProduct, ID: rest}, nil
	case "remove":
		return Callback{Action: ActionRemove, ID: rest}, nil
	case "qty":
		i := strings.LastIndex(rest, ":")
		if i <= 0 {
			return Callback{}, userInput("malformed quantity payload %q", data)
		}
		n, err := strconv.Atoi(rest[i+1:])
		if err != nil || n <= 0 {
			return Callback{}, userInput("bad quantity in %q", data)
		}
		return Callback{Action: ActionQuantity, ID: rest[:i], Quantity: n}, nil
	}
	return Callback{}, userInput("unknown button payload %q", data)
}

func PageData(n int) string { return "page:" + strconv.Itoa(n) }

func ProductData(id string) string { return "product:" + id }

func RemoveData(itemID string) string { return "remove:" + itemID }

func QuantityData(id string, n int) string { return "qty:" + id + ":" + strconv.Itoa(n) }
