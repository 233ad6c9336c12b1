package bot

const (
	textAskEmail          = "Please send your email address so we can send you the receipt."
	textInvoicePending    = "We have already sent you an invoice for this order. Please pay it above, or send /start to begin again."
	textPaymentFailed     = "Something went wrong with the payment. Please send /start and try again."
	textInvoiceStale      = "This invoice is no longer valid."
	textAskLocation       = "Thank you for your payment! Send us your delivery address or share your location."
	textDeliveryConfirmed = "Your order is on its way! The courier has your address."
	textReminder          = "Enjoy your meal! If your pizza has not arrived yet, reply to this chat and we will sort it out."
	textGenericFailure    = "Something went wrong on our side. Please try again in a moment."
)

func helpText(s State) string {
	switch s {
	case StateMenu, StateProductDetail, StateCart:
		return "Use the buttons to pick a pizza, open your cart or go back. Send /start to return to the menu."
	case StateAwaitingEmail:
		return textAskEmail
	case StateAwaitingPaymentPrecheck:
		return "Please pay the invoice above, or send /start to begin again."
	case StatePaymentConfirmed:
		return "We are waiting for the payment confirmation. Send /start to begin again."
	case StateAwaitingLocation:
		return "Send your delivery address as text or share your location."
	case StateAwaitingDeliveryChoice:
		return "Choose pickup or delivery with the buttons above."
	default:
		return "Send /start to see the menu."
	}
}

func repromptText(s State) string {
	switch s {
	case StateAwaitingEmail:
		return "That does not look like an email address. Please send it again, for example name@example.com."
	case StateAwaitingLocation:
		return "We could not find that address. Please send another address or share your location."
	case StateAwaitingDeliveryChoice:
		return "That option is no longer available. Send /start to begin again."
	default:
		return "That button is out of date. " + helpText(s)
	}
}
