package ai

import (
	"context"
	"errors"

	"pizzabot/internal/modules/aiusage"
)

type Quota interface {
	UseToken(ctx context.Context, uid string) error
}

// Assistant writes help replies for messages the order flow did not expect,
// spending one token of the user's monthly quota per reply.
type Assistant struct {
	provider LLMProvider
	quota    Quota
}

func NewAssistant(provider LLMProvider, quota Quota) *Assistant {
	return &Assistant{provider: provider, quota: quota}
}

// HelpReply returns "" with a nil error when the user's quota is used up, so
// the caller falls back to its static help text.
func (a *Assistant) HelpReply(ctx context.Context, userKey, state, text string) (string, error) {
	if err := a.quota.UseToken(ctx, userKey); err != nil {
		if errors.Is(err, aiusage.ErrInsufficientTokens) {
			return "", nil
		}
		return "", err
	}
	res, err := a.provider.AnswerQuestion(ctx, text, map[string]string{"state": state})
	if err != nil {
		return "", err
	}
	return res.Reply, nil
}
