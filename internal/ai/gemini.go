package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider implements LLMProvider using Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiProvider initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Use Gemini 2.0 Flash for low latency and cost efficiency.
	model := client.GenerativeModel("gemini-2.0-flash")
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.3)
	model.SetMaxOutputTokens(256)

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

func (p *GeminiProvider) AnswerQuestion(ctx context.Context, question string, contextMap map[string]string) (*HelpResult, error) {
	fullPrompt := fmt.Sprintf("%s\n\nCustomer Message: %s", buildSystemPrompt(contextMap), question)

	resp, err := p.model.GenerateContent(ctx, genai.Text(fullPrompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}
	return parseHelpResult(responseText.String())
}

func parseHelpResult(raw string) (*HelpResult, error) {
	cleanJSON := cleanJSONString(raw)
	var result HelpResult
	if err := json.Unmarshal([]byte(cleanJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}
	result.Reply = strings.TrimSpace(result.Reply)
	return &result, nil
}

// buildSystemPrompt constructs the instructions for the AI.
func buildSystemPrompt(ctxMap map[string]string) string {
	state := ctxMap["state"]
	if state == "" {
		state = "UNKNOWN"
	}

	return fmt.Sprintf(`Role: You answer questions for a pizzeria's chat bot. Customers order through buttons.
Context:
- Customer's current step: %s

RULES:
1. Answer in at most two short sentences, in the customer's language.
2. Never invent prices, menu items, delivery times or promotions. Point the customer to the menu buttons instead.
3. Never ask for card details. Payment happens only through the invoice the bot sends.
4. If the message is unrelated to ordering pizza, set "off_topic": true and politely steer back to the order.
5. Do not use markdown.

Output JSON Schema:
{
  "topic": "menu" | "order" | "delivery" | "payment" | "other",
  "off_topic": boolean,
  "reply": "string (customer facing answer)"
}
`, state)
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
