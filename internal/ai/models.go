package ai

// HelpResult captures the structured output from the AI model.
type HelpResult struct {
	// Topic classifies the question: "menu", "order", "delivery", "payment" or "other".
	Topic string `json:"topic"`

	// OffTopic is true when the message has nothing to do with ordering pizza.
	OffTopic bool `json:"off_topic"`

	// Reply is a short, polite answer shown to the customer.
	Reply string `json:"reply"`
}
