// README: Conversation states. Sessions store the name; unknown names restart the flow.
package bot

type State int

const (
	StateStart State = iota
	StateMenu
	StateProductDetail
	StateCart
	StateAwaitingEmail
	StateAwaitingPaymentPrecheck
	StatePaymentConfirmed
	StateAwaitingLocation
	StateAwaitingDeliveryChoice
)

var stateNames = [...]string{
	StateStart:                   "START",
	StateMenu:                    "MENU",
	StateProductDetail:           "PRODUCT_DETAIL",
	StateCart:                    "CART",
	StateAwaitingEmail:           "AWAITING_EMAIL",
	StateAwaitingPaymentPrecheck: "AWAITING_PAYMENT_PRECHECK",
	StatePaymentConfirmed:        "PAYMENT_CONFIRMED",
	StateAwaitingLocation:        "AWAITING_LOCATION",
	StateAwaitingDeliveryChoice:  "AWAITING_DELIVERY_CHOICE",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return stateNames[StateStart]
	}
	return stateNames[s]
}

// ParseState maps a stored name back to a State. Empty or unknown names
// yield StateStart.
func ParseState(name string) State {
	for i, n := range stateNames {
		if n == name {
			return State(i)
		}
	}
	return StateStart
}
