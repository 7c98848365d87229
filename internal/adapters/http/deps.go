package http

import (
	"github.com/nats-io/nats.go"

	"github.com/qiyuanliu/mapnav/internal/adapters/valkey"
	"github.com/qiyuanliu/mapnav/internal/core/ports"
	"github.com/qiyuanliu/mapnav/internal/core/usecases"
)

// Dependencies holds everything the HTTP handlers need.
type Dependencies struct {
	Navigation *usecases.NavigationService
	Speech     ports.SpeechRecognizer
	NATS       *nats.Conn    // activity relay; may be nil
	Cache      *valkey.Cache // readiness probe; may be nil
}
