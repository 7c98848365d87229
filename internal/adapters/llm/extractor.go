// Package llm extracts travel intent from free text through the Anthropic
// messages API.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/qiyuanliu/mapnav/internal/core/domain"
	"github.com/qiyuanliu/mapnav/internal/pkg/metrics"
)

const promptTemplate = `从以下用户输入中提取起点和终点信息，以JSON格式返回：{"from": "起点", "to": "终点"}

用户输入：%s

如果用户没有明确指定起点（例如只说"去xxx"、"到xxx"），请将from字段设置为null。
请只返回JSON，不要有其他说明文字。`

// Extractor asks the model for a {from,to} pair and parses its reply.
type Extractor struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewExtractor creates an Extractor with the given credential and model.
// baseURL may be empty for the default API endpoint.
func NewExtractor(apiKey, baseURL, model string, maxTokens int) *Extractor {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Extractor{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

// Extract sends the fixed instruction prompt and parses the first text block
// of the reply. The model is told to emit "from": null when no origin is
// stated; both JSON null and the literal string "null" mean no origin.
func (e *Extractor) Extract(ctx context.Context, input string) (*domain.Intent, error) {
	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: e.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(promptTemplate, input))),
		},
	})
	if err != nil {
		metrics.IntentExtractions.WithLabelValues("model_error").Inc()
		return nil, fmt.Errorf("model request: %w", err)
	}

	var reply string
	for _, block := range resp.Content {
		if block.Type == "text" {
			reply = block.Text
			break
		}
	}

	intent, err := parseIntentReply(reply)
	if err != nil {
		metrics.IntentExtractions.WithLabelValues("parse_error").Inc()
		return nil, err
	}
	metrics.IntentExtractions.WithLabelValues("ok").Inc()
	return intent, nil
}

// parseIntentReply pulls the first brace-balanced object out of the reply and
// reads its from/to fields. A balanced scan, not a regex: model replies often
// wrap the object in explanatory text, and nested braces must not mis-bound
// the match.
func parseIntentReply(reply string) (*domain.Intent, error) {
	obj := firstJSONObject(reply)
	if obj == "" || !gjson.Valid(obj) {
		return nil, domain.ErrIntentParse
	}

	from := gjson.Get(obj, "from")
	to := gjson.Get(obj, "to")

	intent := &domain.Intent{To: strings.TrimSpace(to.String())}
	if intent.To == "" {
		return nil, domain.ErrIntentParse
	}

	if from.Exists() && from.Type != gjson.Null {
		if s := strings.TrimSpace(from.String()); s != "" && s != "null" {
			intent.From = s
		}
	}
	return intent, nil
}

// firstJSONObject returns the first brace-balanced {...} substring, tracking
// string literals and escapes so braces inside values do not terminate the
// scan early. Empty string when no balanced object exists.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
