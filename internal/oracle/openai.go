package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient implements all three oracles over the chat completion API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI-backed oracle set member.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (c *OpenAIClient) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Summarize implements Summarizer.
func (c *OpenAIClient) Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error) {
	system := fmt.Sprintf(
		"You summarize emails. Reply with only the summary, between %d and %d words, no preamble.",
		minLen, maxLen)
	out, err := c.complete(ctx, system, text, maxLen*2)
	if err != nil {
		return "", fmt.Errorf("openai summarization failed: %w", err)
	}
	if out == "" {
		return "", fmt.Errorf("empty summary returned")
	}
	return out, nil
}

// Classify implements ToneClassifier. The model is asked for a strict JSON
// object so the label and confidence parse deterministically.
func (c *OpenAIClient) Classify(ctx context.Context, text string) (ToneResult, error) {
	system := `Classify the sentiment of the text. Reply with only a JSON object: ` +
		`{"label":"POSITIVE"|"NEGATIVE"|"NEUTRAL","score":<confidence 0..1>}`
	out, err := c.complete(ctx, system, text, 64)
	if err != nil {
		return ToneResult{}, fmt.Errorf("openai classification failed: %w", err)
	}
	// Model output sometimes fences the JSON in markdown.
	out = strings.TrimPrefix(out, "```json")
	out = strings.Trim(out, "` \n")

	var result ToneResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		return ToneResult{}, fmt.Errorf("unusable classification output %q: %w", out, err)
	}
	if result.Label == "" {
		return ToneResult{}, fmt.Errorf("no sentiment label returned")
	}
	result.Label = strings.ToUpper(result.Label)
	if result.Score < 0 || result.Score > 1 {
		return ToneResult{}, fmt.Errorf("confidence %v out of range", result.Score)
	}
	return result, nil
}

// Generate implements ReplyGenerator.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, maxLen, minLen int) (string, error) {
	system := "You draft short, polite, professional email replies. Reply with only the email body."
	out, err := c.complete(ctx, system, prompt, maxLen*2)
	if err != nil {
		return "", fmt.Errorf("openai generation failed: %w", err)
	}
	if out == "" {
		return "", fmt.Errorf("empty generation returned")
	}
	return out, nil
}
