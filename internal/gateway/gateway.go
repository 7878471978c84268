// Package gateway is the narrow interface to the messaging platform: webhook
// signature verification, event parsing, and the REST calls that fetch
// message content and sender display names.
package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"orderintake/internal"
)

// SignatureHeader carries the base64 HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Line-Signature"

// VerifySignature checks the webhook body against the channel secret.
func VerifySignature(channelSecret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Event is one inbound message, reduced to what the pipeline needs.
type Event struct {
	Kind      internal.MessageKind
	MessageID string
	UserID    string
	Text      string
	FileName  string
}

type webhookPayload struct {
	Events []struct {
		Source struct {
			UserID string `json:"userId"`
		} `json:"source"`
		Message struct {
			ID       string `json:"id"`
			Type     string `json:"type"`
			Text     string `json:"text"`
			FileName string `json:"fileName"`
		} `json:"message"`
	} `json:"events"`
}

// ParseEvents extracts the message events from a webhook body. Events with an
// unrecognized message type are dropped.
func ParseEvents(body []byte) ([]Event, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse webhook payload: %w", err)
	}

	out := make([]Event, 0, len(payload.Events))
	for _, ev := range payload.Events {
		kind := internal.MessageKind(ev.Message.Type)
		switch kind {
		case internal.KindImage, internal.KindText, internal.KindFile:
		default:
			continue
		}
		out = append(out, Event{
			Kind:      kind,
			MessageID: ev.Message.ID,
			UserID:    ev.Source.UserID,
			Text:      ev.Message.Text,
			FileName:  ev.Message.FileName,
		})
	}
	return out, nil
}
