package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// LocalClient talks to a local inference gateway that fronts the actual
// models (one endpoint per task, JSON in/out). The gateway serializes access
// to the model device, so requests are plain sequential POSTs.
type LocalClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewLocalClient creates a client for the gateway at baseURL.
func NewLocalClient(baseURL, model string) *LocalClient {
	if baseURL == "" {
		baseURL = "http://localhost:8090"
	}
	return &LocalClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
	}
}

func (c *LocalClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference API error (%d): %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Summarize implements Summarizer.
func (c *LocalClient) Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error) {
	payload := map[string]any{
		"model":      c.model,
		"text":       text,
		"max_length": maxLen,
		"min_length": minLen,
	}
	var result struct {
		SummaryText string `json:"summary_text"`
	}
	if err := c.post(ctx, "/v1/summarize", payload, &result); err != nil {
		return "", err
	}
	if result.SummaryText == "" {
		return "", fmt.Errorf("empty summary returned")
	}
	return strings.TrimSpace(result.SummaryText), nil
}

// Classify implements ToneClassifier.
func (c *LocalClient) Classify(ctx context.Context, text string) (ToneResult, error) {
	payload := map[string]any{
		"model": c.model,
		"text":  text,
	}
	var result ToneResult
	if err := c.post(ctx, "/v1/sentiment", payload, &result); err != nil {
		return ToneResult{}, err
	}
	if result.Label == "" {
		return ToneResult{}, fmt.Errorf("no sentiment label returned")
	}
	result.Label = strings.ToUpper(result.Label)
	return result, nil
}

// Generate implements ReplyGenerator.
func (c *LocalClient) Generate(ctx context.Context, prompt string, maxLen, minLen int) (string, error) {
	payload := map[string]any{
		"model":      c.model,
		"prompt":     prompt,
		"max_length": maxLen,
		"min_length": minLen,
	}
	var result struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := c.post(ctx, "/v1/generate", payload, &result); err != nil {
		return "", err
	}
	if result.GeneratedText == "" {
		return "", fmt.Errorf("empty generation returned")
	}
	return strings.TrimSpace(result.GeneratedText), nil
}
