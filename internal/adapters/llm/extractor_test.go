package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/qiyuanliu/mapnav/internal/core/domain"
)

func TestParseIntentReply(t *testing.T) {
	cases := []struct {
		name     string
		reply    string
		wantFrom string
		wantTo   string
	}{
		{
			name:     "bare object",
			reply:    `{"from": "北京西站", "to": "天安门"}`,
			wantFrom: "北京西站",
			wantTo:   "天安门",
		},
		{
			name:     "wrapped in prose",
			reply:    "好的，提取结果如下：\n{\"from\": \"北京西站\", \"to\": \"天安门\"}\n以上。",
			wantFrom: "北京西站",
			wantTo:   "天安门",
		},
		{
			name:     "json null origin",
			reply:    `{"from": null, "to": "颐和园"}`,
			wantFrom: "",
			wantTo:   "颐和园",
		},
		{
			name:     "literal null string origin",
			reply:    `{"from": "null", "to": "颐和园"}`,
			wantFrom: "",
			wantTo:   "颐和园",
		},
		{
			name:     "braces inside a value",
			reply:    `{"from": "金拱门{新店}", "to": "天坛"}`,
			wantFrom: "金拱门{新店}",
			wantTo:   "天坛",
		},
		{
			name:     "whitespace trimmed",
			reply:    `{"from": "  北京西站 ", "to": " 天安门  "}`,
			wantFrom: "北京西站",
			wantTo:   "天安门",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			intent, err := parseIntentReply(tc.reply)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if intent.From != tc.wantFrom {
				t.Errorf("from: got %q, want %q", intent.From, tc.wantFrom)
			}
			if intent.To != tc.wantTo {
				t.Errorf("to: got %q, want %q", intent.To, tc.wantTo)
			}
			if (tc.wantFrom != "") != intent.HasFrom() {
				t.Errorf("HasFrom: got %v", intent.HasFrom())
			}
		})
	}
}

func TestParseIntentReply_Errors(t *testing.T) {
	cases := []struct {
		name  string
		reply string
	}{
		{"no json at all", "抱歉，我不明白您的意思。"},
		{"empty reply", ""},
		{"unbalanced braces", `{"from": "a", "to": "b"`},
		{"invalid json", `{'from': 'a', 'to': 'b'}`},
		{"empty destination", `{"from": "北京西站", "to": ""}`},
		{"missing destination", `{"from": "北京西站"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseIntentReply(tc.reply)
			if !errors.Is(err, domain.ErrIntentParse) {
				t.Fatalf("expected ErrIntentParse, got %v", err)
			}
		})
	}
}

func TestFirstJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"prefix and suffix", `text {"a":1} more`, `{"a":1}`},
		{"nested object", `{"a":{"b":1},"c":2}`, `{"a":{"b":1},"c":2}`},
		{"brace in string", `{"a":"x}y"}`, `{"a":"x}y"}`},
		{"escaped quote in string", `{"a":"x\"}"}`, `{"a":"x\"}"}`},
		{"none", "no braces here", ""},
		{"never closed", `{"a":1`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := firstJSONObject(tc.in); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "{\"from\": null, \"to\": \"天安门\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 50, "output_tokens": 20}
		}`))
	}))
	defer ts.Close()

	e := NewExtractor("test-key", ts.URL, "claude-sonnet-4-20250514", 1024)
	intent, err := e.Extract(context.Background(), "带我去天安门")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(gotPath, "/messages") {
		t.Errorf("request path: got %q", gotPath)
	}
	if intent.HasFrom() {
		t.Errorf("expected no origin, got %q", intent.From)
	}
	if intent.To != "天安门" {
		t.Errorf("to: got %q", intent.To)
	}
}

func TestExtract_ModelError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
	}))
	defer ts.Close()

	e := NewExtractor("test-key", ts.URL, "claude-sonnet-4-20250514", 1024)
	if _, err := e.Extract(context.Background(), "去天安门"); err == nil {
		t.Fatal("expected an error from the model request")
	}
}
