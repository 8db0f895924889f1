package converter

import (
	"context"

	"upload-converter/internal/domain"
)

// Hook plugs the converter into the upload pipeline. Settings are read from
// the provider on every upload.
type Hook struct {
	converter *Converter
	provider  configProvider
}

func NewHook(converter *Converter, provider configProvider) *Hook {
	return &Hook{
		converter: converter,
		provider:  provider,
	}
}

func (h *Hook) Apply(ctx context.Context, req domain.UploadRequest) (domain.UploadResult, domain.ConversionStatus) {
	return h.converter.Convert(ctx, req, h.provider.ConversionConfig())
}

func (h *Hook) Settings() domain.ConversionConfig {
	return h.provider.ConversionConfig()
}

func (h *Hook) Available() bool {
	return h.converter.Available()
}

func (h *Hook) TargetMimeType() string {
	return h.converter.TargetMimeType()
}
