// Package extract calls the vision/text model that turns inbound order
// messages into structured CSV text, and hosts the narrowly scoped secondary
// call used for canonical-token normalization.
package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"orderintake/internal/config"
)

type Client struct {
	cfg        config.Config
	httpClient *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.OpenAITimeoutMs) * time.Millisecond},
	}
}

// Refusal boilerplate the model returns instead of data. A response made of
// these triggers a retry; after the retry budget the extraction yields "".
var refusalMarkers = []string{
	"申し訳ありません",
	"直接抽出することはできません",
	"i'm sorry",
	"cannot extract",
}

// ExtractText structures a free-text order message.
func (c *Client) ExtractText(ctx context.Context, text, operator string, now time.Time) (string, error) {
	messages := []map[string]any{
		{"role": "system", "content": textSystemPrompt},
		{"role": "user", "content": textOrderPrompt(text, operator, now)},
	}
	return c.extract(ctx, messages)
}

// ExtractImage structures a photographed or scanned order sheet.
func (c *Client) ExtractImage(ctx context.Context, image []byte, operator string, now time.Time) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(image)
	messages := []map[string]any{
		{"role": "system", "content": imageSystemPrompt},
		{"role": "user", "content": []map[string]any{
			{"type": "text", "text": imageOrderPrompt(operator, now)},
			{"type": "image_url", "image_url": map[string]any{"url": "data:image/jpeg;base64," + encoded}},
		}},
	}
	return c.extract(ctx, messages)
}

func (c *Client) extract(ctx context.Context, messages []map[string]any) (string, error) {
	retries := c.cfg.ExtractMaxRetries
	if retries <= 0 {
		retries = 1
	}
	last := ""
	for attempt := 0; attempt < retries; attempt++ {
		content, err := c.chatCompletion(ctx, messages, 1000)
		if err != nil {
			return "", err
		}
		if isRefusal(content) {
			last = content
			continue
		}
		return cleanLines(content), nil
	}
	// All attempts were refusals. The last response goes back uncleaned so the
	// parser rejects it and a diagnostic artifact is preserved.
	return last, nil
}

// CanonicalToken asks for a single short canonical spelling. The caller is
// responsible for rejecting anomalous responses.
func (c *Client) CanonicalToken(ctx context.Context, kind, value, hint string) (string, error) {
	messages := []map[string]any{
		{"role": "system", "content": tokenSystemPrompt},
		{"role": "user", "content": tokenPrompt(kind, value, hint)},
	}
	return c.chatCompletion(ctx, messages, 20)
}

func (c *Client) chatCompletion(ctx context.Context, messages []map[string]any, maxTokens int) (string, error) {
	body := map[string]any{
		"model":       c.cfg.OpenAIModel,
		"messages":    messages,
		"max_tokens":  maxTokens,
		"temperature": 0.2,
	}

	endpoint := strings.TrimRight(c.cfg.OpenAIBaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode extraction response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in extraction response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction http error: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("extraction status %d: %s", resp.StatusCode, string(payload))
	}
	return payload, nil
}

func isRefusal(content string) bool {
	lower := strings.ToLower(content)
	for _, marker := range refusalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// cleanLines strips the boilerplate closers the model appends around the data
// rows.
func cleanLines(content string) string {
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "この情報") || trimmed == "..." || trimmed == "…" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
