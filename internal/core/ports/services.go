package ports

import (
	"context"

	"github.com/qiyuanliu/mapnav/internal/core/domain"
)

// IntentExtractor pulls an origin/destination pair out of a free-text travel
// request via the language-model collaborator.
type IntentExtractor interface {
	Extract(ctx context.Context, input string) (*domain.Intent, error)
}

// URLOpener opens a URL in the user's default browser.
type URLOpener interface {
	Open(ctx context.Context, url string) error
}

// SpeechRecognizer transcribes a recorded audio clip to text through the
// streaming recognition service.
type SpeechRecognizer interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// EventPublisher publishes navigation events to a message broker.
type EventPublisher interface {
	PublishNavigation(ctx context.Context, ev *domain.NavigationEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
