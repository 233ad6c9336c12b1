package ai

import (
	"context"
)

// LLMProvider defines the contract for interacting with AI models.
// This interface allows for swapping different AI providers in the future.
type LLMProvider interface {
	// AnswerQuestion replies to a customer's free-text message. contextMap carries
	// dynamic information such as "state" (where the customer is in the order flow).
	AnswerQuestion(ctx context.Context, question string, contextMap map[string]string) (*HelpResult, error)
}
