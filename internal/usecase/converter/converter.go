package converter

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"upload-converter/internal/domain"
	"upload-converter/internal/usecase/converter/codec"
	"upload-converter/internal/usecase/converter/operations"

	"github.com/wb-go/wbf/zlog"
)

// Converter re-encodes a freshly uploaded image and keeps whichever of the
// original and the converted file is smaller. It holds no per-upload state.
type Converter struct {
	fileRepo fileRepository
	encoder  codec.Encoder
	orienter *operations.Orienter
	resizer  *operations.Resizer
	logger   *zlog.Zerolog
	debug    bool

	maxPixels int
}

func NewConverter(fileRepo fileRepository, encoder codec.Encoder, logger *zlog.Zerolog, debug bool) *Converter {
	return &Converter{
		fileRepo: fileRepo,
		encoder:  encoder,
		orienter: operations.NewOrienter(),
		resizer:  operations.NewResizer(),
		logger:   logger,
		debug:    debug,

		maxPixels: operations.DefaultMaxPixels,
	}
}

// WithMaxPixels caps the width times height of images the converter decodes.
// Larger uploads are kept as they are.
func (c *Converter) WithMaxPixels(maxPixels int) *Converter {
	c.maxPixels = maxPixels
	return c
}

// Available reports whether the target codec is usable in this build.
func (c *Converter) Available() bool {
	return c.encoder.Available()
}

func (c *Converter) TargetMimeType() string {
	return c.encoder.MimeType()
}

// Convert never fails the upload: on any problem it returns the request
// unchanged together with a status describing what happened.
func (c *Converter) Convert(ctx context.Context, req domain.UploadRequest, cfg domain.ConversionConfig) (result domain.UploadResult, status domain.ConversionStatus) {
	unchanged := req.Result()

	if !cfg.Enabled {
		return unchanged, domain.ConversionDisabled
	}

	if !domain.IsAccepted(req.MimeType) {
		return unchanged, domain.ConversionUnsupported
	}

	if !c.encoder.Available() {
		if c.debug {
			c.logger.Warn().
				Err(ErrCapabilityMissing).
				Str("path", req.FilePath).
				Str("target_type", c.encoder.MimeType()).
				Msg("Image codec is not available, upload left unconverted")
		}
		return unchanged, domain.ConversionCapabilityMissing
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Interface("panic", r).
				Str("path", req.FilePath).
				Msg("Panic recovered during image conversion")
			result, status = unchanged, domain.ConversionFailed
		}
	}()

	converted, replaced, err := c.convert(ctx, req, cfg)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("path", req.FilePath).
			Str("mime_type", req.MimeType).
			Msg("Image conversion failed")
		return unchanged, domain.ConversionFailed
	}

	if !replaced {
		return unchanged, domain.ConversionKeptOriginal
	}

	return converted, domain.ConversionConverted
}

func (c *Converter) convert(ctx context.Context, req domain.UploadRequest, cfg domain.ConversionConfig) (domain.UploadResult, bool, error) {
	targetPath := TargetPath(req.FilePath, c.encoder.Extension())
	if filepath.Clean(targetPath) == filepath.Clean(req.FilePath) {
		return domain.UploadResult{}, false, fmt.Errorf("%s: %w", req.FilePath, ErrSamePath)
	}

	data, err := c.fileRepo.ReadFile(req.FilePath)
	if err != nil {
		return domain.UploadResult{}, false, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	img, err := operations.Decode(data, c.maxPixels)
	if err != nil {
		return domain.UploadResult{}, false, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer img.Release()

	originalWidth, originalHeight := img.Width(), img.Height()
	orientation := img.Orientation

	c.orienter.Process(img)

	if _, err := c.resizer.Process(img, int(cfg.MaxWidth), int(cfg.MaxHeight)); err != nil {
		return domain.UploadResult{}, false, fmt.Errorf("%w: %w", ErrResize, err)
	}

	if err := ctx.Err(); err != nil {
		return domain.UploadResult{}, false, fmt.Errorf("conversion aborted: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := c.encoder.Encode(buf, img.Pixels(), cfg.ClampedQuality()); err != nil {
		return domain.UploadResult{}, false, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	width, height := img.Width(), img.Height()
	img.Release()

	if err := c.fileRepo.WriteFile(targetPath, buf.Bytes()); err != nil {
		return domain.UploadResult{}, false, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	newSize, err := c.fileRepo.Size(targetPath)
	if err != nil {
		c.cleanup(targetPath)
		return domain.UploadResult{}, false, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	originalSize, err := c.fileRepo.Size(req.FilePath)
	if err != nil {
		c.cleanup(targetPath)
		return domain.UploadResult{}, false, fmt.Errorf("failed to stat original: %w", err)
	}

	log := c.logger.Debug().
		Str("path", req.FilePath).
		Str("target", targetPath).
		Int("orientation", int(orientation)).
		Int("width", originalWidth).
		Int("height", originalHeight).
		Int("new_width", width).
		Int("new_height", height).
		Int64("original_size", originalSize).
		Int64("new_size", newSize)

	if newSize >= originalSize {
		c.cleanup(targetPath)
		log.Msg("Converted image is not smaller, keeping original")
		return domain.UploadResult{}, false, nil
	}

	c.cleanup(req.FilePath)
	log.Msg("Upload converted")

	return domain.UploadResult{
		FilePath: targetPath,
		MimeType: c.encoder.MimeType(),
		URL:      domain.ReplaceBasename(req.URL, filepath.Base(targetPath)),
	}, true, nil
}

// cleanup removes a superseded file. Failures are logged and otherwise ignored.
func (c *Converter) cleanup(path string) {
	if err := c.fileRepo.Remove(path); err != nil {
		c.logger.Warn().
			Err(fmt.Errorf("%w: %w", ErrCleanup, err)).
			Str("path", path).
			Msg("Failed to remove superseded file")
	}
}

// TargetPath keeps the directory and base name of path and swaps the extension.
func TargetPath(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
