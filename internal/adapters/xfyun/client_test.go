package xfyun

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"
)

func testRecognizer() *Recognizer {
	return NewRecognizer("app123", "key456", "secret789", "iat-api.xfyun.cn")
}

func TestAuthURL(t *testing.T) {
	r := testRecognizer()
	now := time.Date(2026, time.August, 28, 10, 30, 0, 0, time.UTC)

	u, err := url.Parse(r.authURL(now))
	if err != nil {
		t.Fatalf("authURL must parse: %v", err)
	}
	if u.Scheme != "wss" || u.Host != "iat-api.xfyun.cn" || u.Path != "/v2/iat" {
		t.Errorf("endpoint: got %s://%s%s", u.Scheme, u.Host, u.Path)
	}

	q := u.Query()
	if got := q.Get("host"); got != "iat-api.xfyun.cn" {
		t.Errorf("host param: got %q", got)
	}
	wantDate := "Thu, 28 Aug 2026 10:30:00 GMT"
	if got := q.Get("date"); got != wantDate {
		t.Errorf("date param: got %q, want %q", got, wantDate)
	}

	raw, err := base64.StdEncoding.DecodeString(q.Get("authorization"))
	if err != nil {
		t.Fatalf("authorization must be base64: %v", err)
	}
	auth := string(raw)

	if !strings.Contains(auth, `api_key="key456"`) {
		t.Errorf("authorization missing api_key: %s", auth)
	}
	if !strings.Contains(auth, `algorithm="hmac-sha256"`) {
		t.Errorf("authorization missing algorithm: %s", auth)
	}
	if !strings.Contains(auth, `headers="host date request-line"`) {
		t.Errorf("authorization missing headers: %s", auth)
	}

	// recompute the signature over the canonical string
	canonical := fmt.Sprintf("host: %s\ndate: %s\nGET /v2/iat HTTP/1.1", "iat-api.xfyun.cn", wantDate)
	mac := hmac.New(sha256.New, []byte("secret789"))
	mac.Write([]byte(canonical))
	wantSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !strings.Contains(auth, `signature="`+wantSig+`"`) {
		t.Errorf("signature mismatch:\n auth %s\n want %s", auth, wantSig)
	}
}

func TestAuthURL_Deterministic(t *testing.T) {
	r := testRecognizer()
	now := time.Date(2026, time.August, 28, 10, 30, 0, 0, time.UTC)
	if r.authURL(now) != r.authURL(now) {
		t.Fatal("same instant must sign identically")
	}
}

func TestSegmentText(t *testing.T) {
	frame := `{"code":0,"data":{"status":2,"result":{"ws":[
		{"cw":[{"w":"从"},{"w":"北京西站"}]},
		{"cw":[{"w":"到"},{"w":"天安门"}]}
	]}}}`

	var resp iatResponse
	if err := json.Unmarshal([]byte(frame), &resp); err != nil {
		t.Fatalf("frame must decode: %v", err)
	}
	if got := segmentText(&resp); got != "从北京西站到天安门" {
		t.Errorf("got %q", got)
	}
	if resp.Data.Status != statusLastFrame {
		t.Errorf("status: got %d", resp.Data.Status)
	}
}

func TestTranscribe_MissingCredentials(t *testing.T) {
	r := NewRecognizer("", "", "", "iat-api.xfyun.cn")
	if _, err := r.Transcribe(context.Background(), []byte{0x00}); err == nil {
		t.Fatal("expected an error without credentials")
	}
}
