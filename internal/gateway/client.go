package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"orderintake/internal/config"
)

// Client calls the messaging platform's REST API.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetContent downloads the binary payload of an image or file message.
func (c *Client) GetContent(ctx context.Context, messageID string) ([]byte, error) {
	url := fmt.Sprintf("%s/v2/bot/message/%s/content", strings.TrimRight(c.cfg.GatewayDataBaseURL, "/"), messageID)
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch message content %s: status %d", messageID, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// GetDisplayName resolves a sender's display name; unknown senders come back
// as "不明" so the handler column is never empty.
func (c *Client) GetDisplayName(ctx context.Context, userID string) (string, error) {
	url := fmt.Sprintf("%s/v2/bot/profile/%s", strings.TrimRight(c.cfg.GatewayAPIBaseURL, "/"), userID)
	resp, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "不明", nil
	}

	var profile struct {
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "不明", nil
	}
	if strings.TrimSpace(profile.DisplayName) == "" {
		return "不明", nil
	}
	return profile.DisplayName, nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.ChannelAccessToken)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway http error: %w", err)
	}
	return resp, nil
}
