package upload

import (
	"context"
	"io"

	"upload-converter/internal/domain"
)

type uploadUsecase interface {
	Upload(ctx context.Context, file io.Reader, filename string, size int64) (*domain.Attachment, error)
	GetAttachment(ctx context.Context, id string) (*domain.Attachment, error)
	ListAttachments(ctx context.Context, limit, offset int) ([]domain.Attachment, error)
	OpenFile(ctx context.Context, id string) (*domain.Attachment, io.ReadCloser, error)
	DeleteAttachment(ctx context.Context, id string) error
	ConverterStatus() domain.ConverterStatus
}
