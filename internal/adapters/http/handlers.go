package http

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/qiyuanliu/mapnav/internal/core/domain"
	"github.com/qiyuanliu/mapnav/internal/pkg/metrics"
)

// navigateRequest is the inbound navigation payload.
type navigateRequest struct {
	Input        string           `json:"input"`
	UserLocation *domain.GeoPoint `json:"userLocation"`
	MapProvider  string           `json:"mapProvider"`
}

// navigateResponse mirrors the original client contract.
type navigateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	From    string `json:"from"`
	To      string `json:"to"`
	Map     string `json:"map"`
}

// NavigateHandler runs the navigation pipeline: intent extraction, place
// resolution, URL synthesis, browser launch. Missing input is a 400; every
// pipeline failure is a 500 with the user-facing message.
func NavigateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req navigateRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "请求格式错误")
		}
		if req.Input == "" {
			return errBadRequest(c, "请输入导航需求")
		}

		provider := domain.ParseProvider(req.MapProvider)
		log := LoggerFromCtx(c.UserContext())
		log.Info("navigate request",
			"input", req.Input,
			"provider", provider,
			"has_location", req.UserLocation != nil,
		)

		plan, err := deps.Navigation.Plan(c.UserContext(), req.Input, req.UserLocation, provider)
		if err != nil {
			log.Error("navigation failed", "error", err, "provider", provider)
			return errInternal(c, err.Error())
		}

		return c.JSON(navigateResponse{
			Success: true,
			Message: fmt.Sprintf("%s导航已启动！正在规划路线：%s → %s",
				provider.DisplayName(), plan.From.Name, plan.To.Name),
			From: plan.From.Name,
			To:   plan.To.Name,
			Map:  provider.DisplayName(),
		})
	}
}

// speechResponse is the transcription payload.
type speechResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
}

// SpeechToTextHandler accepts a multipart audio clip and bridges it to the
// streaming recognition service.
func SpeechToTextHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("audio")
		if err != nil {
			return errBadRequest(c, "未接收到音频文件")
		}

		f, err := fh.Open()
		if err != nil {
			return errInternal(c, "读取音频文件失败")
		}
		defer f.Close()

		audio, err := io.ReadAll(f)
		if err != nil {
			return errInternal(c, "读取音频文件失败")
		}
		metrics.SpeechAudioBytes.Observe(float64(len(audio)))

		text, err := deps.Speech.Transcribe(c.UserContext(), audio)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("speech recognition failed", "error", err, "bytes", len(audio))
			metrics.SpeechSessions.WithLabelValues("failed").Inc()
			return errInternal(c, "语音识别失败")
		}

		metrics.SpeechSessions.WithLabelValues("ok").Inc()
		return c.JSON(speechResponse{Success: true, Text: text})
	}
}
