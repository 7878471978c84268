package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"orderintake/internal"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"events":[]}`)
	secret := "channel-secret"

	if !VerifySignature(secret, body, sign(secret, body)) {
		t.Fatal("valid signature rejected")
	}
	if VerifySignature(secret, body, sign("other-secret", body)) {
		t.Fatal("signature from wrong secret accepted")
	}
	if VerifySignature(secret, body, "not-base64!") {
		t.Fatal("garbage signature accepted")
	}
}

func TestParseEvents(t *testing.T) {
	body := []byte(`{"events":[
		{"source":{"userId":"U1"},"message":{"id":"m1","type":"text","text":"キャベツ 2個"}},
		{"source":{"userId":"U2"},"message":{"id":"m2","type":"image"}},
		{"source":{"userId":"U3"},"message":{"id":"m3","type":"file","fileName":"order.pdf"}},
		{"source":{"userId":"U4"},"message":{"id":"m4","type":"sticker"}}
	]}`)

	events, err := ParseEvents(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3 (sticker dropped)", len(events))
	}
	if events[0].Kind != internal.KindText || events[0].Text != "キャベツ 2個" || events[0].UserID != "U1" {
		t.Fatalf("text event = %+v", events[0])
	}
	if events[2].Kind != internal.KindFile || events[2].FileName != "order.pdf" {
		t.Fatalf("file event = %+v", events[2])
	}
}

func TestParseEventsEmpty(t *testing.T) {
	events, err := ParseEvents([]byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("events = %d", len(events))
	}
}

func TestParseEventsMalformed(t *testing.T) {
	if _, err := ParseEvents([]byte(`not json`)); err == nil {
		t.Fatal("malformed payload must error")
	}
}
