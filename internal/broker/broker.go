package broker

import (
	"context"

	"upload-converter/internal/domain"
)

// Publisher announces processed uploads to other services.
type Publisher interface {
	Publish(ctx context.Context, event *domain.UploadEvent) error
	Close() error
}
