package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"upload-converter/internal/domain"
	repoUpload "upload-converter/internal/repository/upload"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
	_ "golang.org/x/image/webp"
)

const (
	sniffLen     = 3072
	maxListLimit = 100
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

type Options struct {
	UploadsDir    string
	BaseURL       string
	MaxUploadSize int64
}

type UploadUsecase struct {
	repo      AttachmentRepository
	fileRepo  fileRepository
	hook      uploadHook
	mirror    objectMirror
	publisher eventPublisher
	logger    *zlog.Zerolog
	opts      Options
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewUploadUsecase(repo AttachmentRepository, fileRepo fileRepository, hook uploadHook, logger *zlog.Zerolog, opts Options) *UploadUsecase {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = domain.DefaultMaxUploadSize
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &UploadUsecase{
		repo:     repo,
		fileRepo: fileRepo,
		hook:     hook,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
}

// WithMirror copies every stored upload to object storage.
func (u *UploadUsecase) WithMirror(mirror objectMirror) *UploadUsecase {
	u.mirror = mirror
	return u
}

// WithPublisher announces every stored upload.
func (u *UploadUsecase) WithPublisher(publisher eventPublisher) *UploadUsecase {
	u.publisher = publisher
	return u
}

// Upload stores the file, runs the post-upload hook on it and records the
// surviving file as an attachment.
func (u *UploadUsecase) Upload(ctx context.Context, file io.Reader, filename string, size int64) (*domain.Attachment, error) {
	if size > u.opts.MaxUploadSize {
		return nil, ErrFileTooLarge
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if n == 0 {
		return nil, ErrEmptyFile
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	mimeType := baseMimeType(detected.String())
	if !strings.HasPrefix(mimeType, "image/") {
		u.logger.Warn().Str("filename", filename).Str("mime_type", mimeType).Msg("Rejected non-image upload")
		return nil, fmt.Errorf("%w: %s", ErrInvalidFileFormat, mimeType)
	}

	stem, ext := sanitizeFilename(filename)
	if ext == "" {
		ext = detected.Extension()
	}

	now := u.now()
	subdir := path.Join(fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())))

	filePath, written, release, err := u.store(filepath.Join(u.opts.UploadsDir, filepath.FromSlash(subdir)), stem, ext,
		io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		return nil, err
	}
	defer release()

	if written > u.opts.MaxUploadSize {
		u.removeQuietly(filePath)
		return nil, ErrFileTooLarge
	}

	req := domain.UploadRequest{
		FilePath: filePath,
		MimeType: mimeType,
		URL:      u.opts.BaseURL + "/" + path.Join(subdir, filepath.Base(filePath)),
	}

	result, status := u.hook.Apply(ctx, req)

	finalSize, err := u.fileRepo.Size(result.FilePath)
	if err != nil {
		u.logger.Error().Err(err).Str("path", result.FilePath).Msg("Stored upload is missing after hook")
		return nil, fmt.Errorf("%w: %w", ErrStorageError, err)
	}

	width, height := u.probe(result.FilePath)

	attachment := &domain.Attachment{
		ID:               uuid.New().String(),
		OriginalFilename: filename,
		FilePath:         result.FilePath,
		URL:              result.URL,
		MimeType:         result.MimeType,
		Size:             finalSize,
		Width:            width,
		Height:           height,
		Conversion:       status,
		CreatedAt:        now,
	}

	if err := u.repo.Save(ctx, attachment); err != nil {
		u.logger.Error().Err(err).Str("path", result.FilePath).Msg("Failed to save attachment")
		u.removeQuietly(result.FilePath)
		return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}

	u.mirrorUpload(ctx, attachment)
	u.publish(ctx, attachment)

	u.logger.Info().
		Str("attachment_id", attachment.ID).
		Str("filename", filename).
		Str("mime_type", attachment.MimeType).
		Str("conversion", string(status)).
		Int64("size", attachment.Size).
		Msg("Upload stored")

	return attachment, nil
}

func (u *UploadUsecase) GetAttachment(ctx context.Context, id string) (*domain.Attachment, error) {
	attachment, err := u.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repoUpload.ErrAttachmentNotFound) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return attachment, nil
}

// Page returns the limit and offset ListAttachments actually applies.
func Page(limit, offset int) (int, int) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (u *UploadUsecase) ListAttachments(ctx context.Context, limit, offset int) ([]domain.Attachment, error) {
	limit, offset = Page(limit, offset)

	attachments, err := u.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}
	return attachments, nil
}

func (u *UploadUsecase) OpenFile(ctx context.Context, id string) (*domain.Attachment, io.ReadCloser, error) {
	attachment, err := u.GetAttachment(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	reader, err := u.fileRepo.Open(attachment.FilePath)
	if err != nil {
		if errors.Is(err, repoUpload.ErrFileNotFound) {
			return nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrStorageError, err)
	}

	return attachment, reader, nil
}

func (u *UploadUsecase) DeleteAttachment(ctx context.Context, id string) error {
	attachment, err := u.GetAttachment(ctx, id)
	if err != nil {
		return err
	}

	if err := u.fileRepo.Remove(attachment.FilePath); err != nil && !errors.Is(err, repoUpload.ErrFileNotFound) {
		u.logger.Error().Err(err).Str("path", attachment.FilePath).Msg("Failed to delete upload file")
	}

	if u.mirror != nil {
		if err := u.mirror.Delete(ctx, u.objectKey(attachment.FilePath)); err != nil {
			u.logger.Error().Err(err).Str("attachment_id", id).Msg("Failed to delete mirrored object")
		}
	}

	if err := u.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repoUpload.ErrAttachmentNotFound) {
			return ErrAttachmentNotFound
		}
		return fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}

	u.logger.Info().Str("attachment_id", id).Msg("Attachment deleted")
	return nil
}

func (u *UploadUsecase) ConverterStatus() domain.ConverterStatus {
	settings := u.hook.Settings()
	return domain.ConverterStatus{
		Enabled:        settings.Enabled,
		CodecAvailable: u.hook.Available(),
		TargetMimeType: u.hook.TargetMimeType(),
		MaxWidth:       settings.MaxWidth,
		MaxHeight:      settings.MaxHeight,
		Quality:        settings.ClampedQuality(),
	}
}

// store picks a free name in dir and writes src there. A stem is taken while
// another upload holding it is still in flight, or when either the file itself
// or its converted sibling exists. The returned release frees the stem and must
// be called once the hook has settled which file survives.
func (u *UploadUsecase) store(dir, stem, ext string, src io.Reader) (string, int64, func(), error) {
	filePath, release := u.reserve(dir, stem, ext)

	written, err := u.fileRepo.WriteStream(filePath, src)
	if err != nil {
		release()
		u.logger.Error().Err(err).Str("path", filePath).Msg("Failed to store upload")
		return "", 0, nil, fmt.Errorf("%w: %w", ErrStorageError, err)
	}

	return filePath, written, release, nil
}

func (u *UploadUsecase) reserve(dir, stem, ext string) (string, func()) {
	siblingExt := ".webp"
	if target := mimetype.Lookup(u.hook.TargetMimeType()); target != nil {
		siblingExt = target.Extension()
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	for i := 0; ; i++ {
		name := stem
		if i > 0 {
			name = fmt.Sprintf("%s-%d", stem, i)
		}

		key := filepath.Join(dir, name)
		if _, busy := u.inFlight[key]; busy {
			continue
		}
		if u.fileRepo.Exists(key+ext) || u.fileRepo.Exists(key+siblingExt) {
			continue
		}

		u.inFlight[key] = struct{}{}
		return key + ext, func() {
			u.mu.Lock()
			delete(u.inFlight, key)
			u.mu.Unlock()
		}
	}
}

func (u *UploadUsecase) probe(filePath string) (int, int) {
	rc, err := u.fileRepo.Open(filePath)
	if err != nil {
		return 0, 0
	}
	defer rc.Close()

	cfg, _, err := image.DecodeConfig(rc)
	if err != nil {
		u.logger.Debug().Err(err).Str("path", filePath).Msg("Could not read image dimensions")
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func (u *UploadUsecase) mirrorUpload(ctx context.Context, attachment *domain.Attachment) {
	if u.mirror == nil {
		return
	}
	key := u.objectKey(attachment.FilePath)
	if err := u.mirror.Put(ctx, key, attachment.FilePath, attachment.MimeType); err != nil {
		u.logger.Error().Err(err).Str("attachment_id", attachment.ID).Str("key", key).Msg("Failed to mirror upload")
	}
}

func (u *UploadUsecase) publish(ctx context.Context, attachment *domain.Attachment) {
	if u.publisher == nil {
		return
	}
	event := &domain.UploadEvent{
		Type:         domain.EventUploadStored,
		AttachmentID: attachment.ID,
		FilePath:     attachment.FilePath,
		URL:          attachment.URL,
		MimeType:     attachment.MimeType,
		Size:         attachment.Size,
		Conversion:   attachment.Conversion,
		OccurredAt:   u.now(),
	}
	if err := u.publisher.Publish(ctx, event); err != nil {
		u.logger.Error().Err(err).Str("attachment_id", attachment.ID).Msg("Failed to publish upload event")
	}
}

func (u *UploadUsecase) objectKey(filePath string) string {
	rel, err := filepath.Rel(u.opts.UploadsDir, filePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(filePath)
	}
	return filepath.ToSlash(rel)
}

func (u *UploadUsecase) removeQuietly(filePath string) {
	if err := u.fileRepo.Remove(filePath); err != nil {
		u.logger.Warn().Err(err).Str("path", filePath).Msg("Failed to remove upload")
	}
}

func sanitizeFilename(filename string) (string, string) {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	stem = strings.Trim(unsafeChars.ReplaceAllString(stem, "-"), "-.")
	ext = unsafeChars.ReplaceAllString(ext, "")
	if ext == "." {
		ext = ""
	}
	if stem == "" {
		stem = "upload"
	}
	return stem, ext
}

func baseMimeType(value string) string {
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = value[:i]
	}
	return strings.TrimSpace(strings.ToLower(value))
}
