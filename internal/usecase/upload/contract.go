package upload

import (
	"context"
	"io"

	"upload-converter/internal/domain"
)

// AttachmentRepository stores attachment records.
type AttachmentRepository interface {
	Save(ctx context.Context, attachment *domain.Attachment) error
	GetByID(ctx context.Context, id string) (*domain.Attachment, error)
	List(ctx context.Context, limit, offset int) ([]domain.Attachment, error)
	Delete(ctx context.Context, id string) error
}

type fileRepository interface {
	WriteStream(path string, src io.Reader) (int64, error)
	Open(path string) (io.ReadCloser, error)
	Size(path string) (int64, error)
	Exists(path string) bool
	Remove(path string) error
}

// uploadHook runs after the file has been stored and may replace it.
type uploadHook interface {
	Apply(ctx context.Context, req domain.UploadRequest) (domain.UploadResult, domain.ConversionStatus)
	Settings() domain.ConversionConfig
	Available() bool
	TargetMimeType() string
}

type objectMirror interface {
	Put(ctx context.Context, key, path, contentType string) error
	Delete(ctx context.Context, key string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, event *domain.UploadEvent) error
}
