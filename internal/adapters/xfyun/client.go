// Package xfyun bridges a recorded audio clip to the iFlytek IAT streaming
// speech-recognition service over an authenticated WebSocket.
package xfyun

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fasthttp/websocket"
)

// Frame status values of the IAT protocol.
const (
	statusLastFrame = 2
)

// Recognizer implements ports.SpeechRecognizer against the IAT v2 endpoint.
type Recognizer struct {
	appID     string
	apiKey    string
	apiSecret string
	host      string
	dialer    *websocket.Dialer
}

// NewRecognizer creates a recognizer for the given credentials.
func NewRecognizer(appID, apiKey, apiSecret, host string) *Recognizer {
	return &Recognizer{
		appID:     appID,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		host:      host,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

type iatRequest struct {
	Common struct {
		AppID string `json:"app_id"`
	} `json:"common"`
	Business struct {
		Language string `json:"language"`
		Domain   string `json:"domain"`
		Accent   string `json:"accent"`
		VadEOS   int    `json:"vad_eos"`
		Dwa      string `json:"dwa"`
	} `json:"business"`
	Data struct {
		Status   int    `json:"status"`
		Format   string `json:"format"`
		Encoding string `json:"encoding"`
		Audio    string `json:"audio"`
	} `json:"data"`
}

type iatResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status int `json:"status"`
		Result struct {
			WS []struct {
				CW []struct {
					W string `json:"w"`
				} `json:"cw"`
			} `json:"ws"`
		} `json:"result"`
	} `json:"data"`
}

// Transcribe sends the whole clip as a single final frame and concatenates
// the streamed word spans until the service reports the terminal status.
func (r *Recognizer) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if r.appID == "" || r.apiKey == "" || r.apiSecret == "" {
		return "", fmt.Errorf("xfyun credentials not configured")
	}

	conn, _, err := r.dialer.DialContext(ctx, r.authURL(time.Now().UTC()), nil)
	if err != nil {
		return "", fmt.Errorf("dial recognition service: %w", err)
	}
	defer conn.Close()

	// A cancelled context tears the connection down so the read loop ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	var req iatRequest
	req.Common.AppID = r.appID
	req.Business.Language = "zh_cn"
	req.Business.Domain = "iat"
	req.Business.Accent = "mandarin"
	req.Business.VadEOS = 5000
	req.Business.Dwa = "wpgs"
	req.Data.Status = statusLastFrame
	req.Data.Format = "audio/L16;rate=16000"
	req.Data.Encoding = "raw"
	req.Data.Audio = base64.StdEncoding.EncodeToString(audio)

	if err := conn.WriteJSON(&req); err != nil {
		return "", fmt.Errorf("send audio frame: %w", err)
	}

	var text strings.Builder
	for {
		var resp iatResponse
		if err := conn.ReadJSON(&resp); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("read transcript: %w", err)
		}
		if resp.Code != 0 {
			return "", fmt.Errorf("recognition error %d: %s", resp.Code, resp.Message)
		}
		text.WriteString(segmentText(&resp))
		if resp.Data.Status == statusLastFrame {
			break
		}
	}
	return text.String(), nil
}

// segmentText flattens one response frame's word spans in order.
func segmentText(resp *iatResponse) string {
	var b strings.Builder
	for _, ws := range resp.Data.Result.WS {
		for _, cw := range ws.CW {
			b.WriteString(cw.W)
		}
	}
	return b.String()
}

// authURL signs the canonical host/date/request-line string with HMAC-SHA256
// and folds the signature into the authorization query parameter, per the
// IAT handshake contract.
func (r *Recognizer) authURL(now time.Time) string {
	date := now.Format(http.TimeFormat)

	signatureOrigin := fmt.Sprintf("host: %s\ndate: %s\nGET /v2/iat HTTP/1.1", r.host, date)
	mac := hmac.New(sha256.New, []byte(r.apiSecret))
	mac.Write([]byte(signatureOrigin))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	authorizationOrigin := fmt.Sprintf(
		`api_key="%s", algorithm="hmac-sha256", headers="host date request-line", signature="%s"`,
		r.apiKey, signature,
	)
	authorization := base64.StdEncoding.EncodeToString([]byte(authorizationOrigin))

	return "wss://" + r.host + "/v2/iat" +
		"?authorization=" + url.QueryEscape(authorization) +
		"&date=" + url.QueryEscape(date) +
		"&host=" + r.host
}
