package upload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"upload-converter/internal/domain"
	fsrepo "upload-converter/internal/repository/upload/fs"
	"upload-converter/internal/repository/upload/memory"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHook struct {
	cfg     domain.ConversionConfig
	convert bool
	calls   []domain.UploadRequest
}

func (h *fakeHook) Apply(_ context.Context, req domain.UploadRequest) (domain.UploadResult, domain.ConversionStatus) {
	h.calls = append(h.calls, req)
	if !h.convert {
		return req.Result(), domain.ConversionKeptOriginal
	}

	target := strings.TrimSuffix(req.FilePath, filepath.Ext(req.FilePath)) + ".webp"
	if err := os.WriteFile(target, []byte("RIFF"), 0o644); err != nil {
		return req.Result(), domain.ConversionFailed
	}
	_ = os.Remove(req.FilePath)
	return domain.UploadResult{
		FilePath: target,
		MimeType: domain.MimeWebP,
		URL:      domain.ReplaceBasename(req.URL, filepath.Base(target)),
	}, domain.ConversionConverted
}

func (h *fakeHook) Settings() domain.ConversionConfig { return h.cfg }
func (h *fakeHook) Available() bool                   { return true }
func (h *fakeHook) TargetMimeType() string            { return domain.MimeWebP }

// interleavingHook calls during once, before the first upload reaches the inner
// hook, so a second upload overlaps the first one's conversion.
type interleavingHook struct {
	*fakeHook
	during func()
}

func (h *interleavingHook) Apply(ctx context.Context, req domain.UploadRequest) (domain.UploadResult, domain.ConversionStatus) {
	if during := h.during; during != nil {
		h.during = nil
		during()
	}
	return h.fakeHook.Apply(ctx, req)
}

type fakeMirror struct {
	puts    []string
	deletes []string
	err     error
}

func (m *fakeMirror) Put(_ context.Context, key, _, _ string) error {
	m.puts = append(m.puts, key)
	return m.err
}

func (m *fakeMirror) Delete(_ context.Context, key string) error {
	m.deletes = append(m.deletes, key)
	return m.err
}

type fakePublisher struct {
	events []*domain.UploadEvent
}

func (p *fakePublisher) Publish(_ context.Context, event *domain.UploadEvent) error {
	p.events = append(p.events, event)
	return nil
}

type failingRepo struct {
	*memory.AttachmentsRepository
}

func (failingRepo) Save(context.Context, *domain.Attachment) error {
	return errors.New("connection refused")
}

type fixture struct {
	dir       string
	usecase   *UploadUsecase
	hook      *fakeHook
	repo      *memory.AttachmentsRepository
	mirror    *fakeMirror
	publisher *fakePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		dir:       t.TempDir(),
		hook:      &fakeHook{cfg: domain.ConversionConfig{Enabled: true, MaxWidth: 1920, MaxHeight: 1080, Quality: 80}},
		repo:      memory.NewAttachmentsRepository(),
		mirror:    &fakeMirror{},
		publisher: &fakePublisher{},
	}
	logger := zerolog.New(io.Discard)
	f.usecase = NewUploadUsecase(f.repo, fsrepo.NewFileRepository(), f.hook, &logger, Options{
		UploadsDir:    f.dir,
		BaseURL:       "https://example.com/uploads/",
		MaxUploadSize: 1 << 20,
	}).WithMirror(f.mirror).WithPublisher(f.publisher)
	f.usecase.now = func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }
	return f
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 8), B: 90, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func (f *fixture) upload(t *testing.T, data []byte, name string) (*domain.Attachment, error) {
	t.Helper()
	return f.usecase.Upload(context.Background(), bytes.NewReader(data), name, int64(len(data)))
}

func TestUpload_StoresAndRecords(t *testing.T) {
	f := newFixture(t)
	data := pngBytes(t, 30, 20)

	attachment, err := f.upload(t, data, "Holiday Photo.PNG")
	require.NoError(t, err)

	expectedPath := filepath.Join(f.dir, "2026", "10", "Holiday-Photo.png")
	require.Len(t, f.hook.calls, 1)
	assert.Equal(t, domain.UploadRequest{
		FilePath: expectedPath,
		MimeType: domain.MimePNG,
		URL:      "https://example.com/uploads/2026/10/Holiday-Photo.png",
	}, f.hook.calls[0])

	assert.Equal(t, expectedPath, attachment.FilePath)
	assert.Equal(t, domain.MimePNG, attachment.MimeType)
	assert.Equal(t, int64(len(data)), attachment.Size)
	assert.Equal(t, 30, attachment.Width)
	assert.Equal(t, 20, attachment.Height)
	assert.Equal(t, domain.ConversionKeptOriginal, attachment.Conversion)
	assert.Equal(t, "Holiday Photo.PNG", attachment.OriginalFilename)
	assert.NotEmpty(t, attachment.ID)

	stored, err := os.ReadFile(expectedPath)
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	saved, err := f.usecase.GetAttachment(context.Background(), attachment.ID)
	require.NoError(t, err)
	assert.Equal(t, attachment, saved)

	assert.Equal(t, []string{"2026/10/Holiday-Photo.png"}, f.mirror.puts)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.EventUploadStored, f.publisher.events[0].Type)
	assert.Equal(t, attachment.ID, f.publisher.events[0].AttachmentID)
}

func TestUpload_RecordsConvertedFile(t *testing.T) {
	f := newFixture(t)
	f.hook.convert = true

	attachment, err := f.upload(t, pngBytes(t, 30, 20), "photo.png")
	require.NoError(t, err)

	webpPath := filepath.Join(f.dir, "2026", "10", "photo.webp")
	assert.Equal(t, webpPath, attachment.FilePath)
	assert.Equal(t, domain.MimeWebP, attachment.MimeType)
	assert.Equal(t, "https://example.com/uploads/2026/10/photo.webp", attachment.URL)
	assert.Equal(t, domain.ConversionConverted, attachment.Conversion)
	assert.Equal(t, int64(4), attachment.Size)
	assert.NoFileExists(t, filepath.Join(f.dir, "2026", "10", "photo.png"))
	assert.Equal(t, []string{"2026/10/photo.webp"}, f.mirror.puts)
}

func TestUpload_UniqueNameAvoidsConvertedSibling(t *testing.T) {
	f := newFixture(t)
	f.hook.convert = true

	first, err := f.upload(t, pngBytes(t, 10, 10), "photo.jpg.png")
	require.NoError(t, err)
	second, err := f.upload(t, pngBytes(t, 10, 10), "photo.jpg.png")
	require.NoError(t, err)

	dir := filepath.Join(f.dir, "2026", "10")
	assert.Equal(t, filepath.Join(dir, "photo.jpg.webp"), first.FilePath)
	assert.Equal(t, filepath.Join(dir, "photo.jpg-1.webp"), second.FilePath)
	assert.FileExists(t, first.FilePath)
	assert.FileExists(t, second.FilePath)
}

func TestUpload_OverlappingUploadsKeepSeparateFiles(t *testing.T) {
	f := newFixture(t)
	f.hook.convert = true

	var second *domain.Attachment
	var secondErr error
	f.usecase.hook = &interleavingHook{
		fakeHook: f.hook,
		during: func() {
			second, secondErr = f.upload(t, pngBytes(t, 10, 10), "photo.jpeg")
		},
	}

	first, err := f.upload(t, pngBytes(t, 10, 10), "photo.jpg")
	require.NoError(t, err)
	require.NoError(t, secondErr)

	dir := filepath.Join(f.dir, "2026", "10")
	assert.Equal(t, filepath.Join(dir, "photo.webp"), first.FilePath)
	assert.Equal(t, filepath.Join(dir, "photo-1.webp"), second.FilePath)
	assert.NotEqual(t, first.FilePath, second.FilePath)
	assert.FileExists(t, first.FilePath)
	assert.FileExists(t, second.FilePath)

	third, err := f.upload(t, pngBytes(t, 10, 10), "photo.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "photo-2.webp"), third.FilePath)
}

func TestUpload_Rejections(t *testing.T) {
	f := newFixture(t)

	_, err := f.upload(t, []byte("just some text, not a picture"), "notes.png")
	assert.ErrorIs(t, err, ErrInvalidFileFormat)

	_, err = f.upload(t, nil, "empty.png")
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = f.usecase.Upload(context.Background(), bytes.NewReader(pngBytes(t, 4, 4)), "big.png", 2<<20)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	assert.Empty(t, f.hook.calls)
	assert.NoDirExists(t, filepath.Join(f.dir, "2026"))
}

func TestUpload_StreamLargerThanDeclared(t *testing.T) {
	f := newFixture(t)
	f.usecase.opts.MaxUploadSize = 100

	data := append(pngBytes(t, 4, 4), bytes.Repeat([]byte{0}, 200)...)
	_, err := f.usecase.Upload(context.Background(), bytes.NewReader(data), "sneaky.png", 10)

	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.NoFileExists(t, filepath.Join(f.dir, "2026", "10", "sneaky.png"))
	assert.Empty(t, f.hook.calls)
}

func TestUpload_SaveFailureRemovesFile(t *testing.T) {
	f := newFixture(t)
	f.usecase.repo = failingRepo{f.repo}

	_, err := f.upload(t, pngBytes(t, 4, 4), "photo.png")

	assert.ErrorIs(t, err, ErrDatabaseError)
	assert.NoFileExists(t, filepath.Join(f.dir, "2026", "10", "photo.png"))
	assert.Empty(t, f.mirror.puts)
	assert.Empty(t, f.publisher.events)
}

func TestUpload_MirrorFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.mirror.err = errors.New("bucket unavailable")

	attachment, err := f.upload(t, pngBytes(t, 4, 4), "photo.png")

	require.NoError(t, err)
	assert.FileExists(t, attachment.FilePath)
	assert.Len(t, f.publisher.events, 1)
}

func TestOpenAndDeleteAttachment(t *testing.T) {
	f := newFixture(t)
	data := pngBytes(t, 8, 8)
	attachment, err := f.upload(t, data, "photo.png")
	require.NoError(t, err)

	got, rc, err := f.usecase.OpenFile(context.Background(), attachment.ID)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, data, body)
	assert.Equal(t, attachment.ID, got.ID)

	require.NoError(t, f.usecase.DeleteAttachment(context.Background(), attachment.ID))
	assert.NoFileExists(t, attachment.FilePath)
	assert.Equal(t, []string{"2026/10/photo.png"}, f.mirror.deletes)

	_, err = f.usecase.GetAttachment(context.Background(), attachment.ID)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
	assert.ErrorIs(t, f.usecase.DeleteAttachment(context.Background(), attachment.ID), ErrAttachmentNotFound)
	_, _, err = f.usecase.OpenFile(context.Background(), attachment.ID)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}

func TestListAttachments(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		_, err := f.upload(t, pngBytes(t, 4, 4), name)
		require.NoError(t, err)
	}

	all, err := f.usecase.ListAttachments(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := f.usecase.ListAttachments(context.Background(), 2, -5)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestPage(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{limit: 0, offset: 0, wantLimit: 100, wantOffset: 0},
		{limit: 25, offset: 50, wantLimit: 25, wantOffset: 50},
		{limit: 500, offset: -3, wantLimit: 100, wantOffset: 0},
	}

	for _, tt := range tests {
		limit, offset := Page(tt.limit, tt.offset)
		assert.Equal(t, tt.wantLimit, limit)
		assert.Equal(t, tt.wantOffset, offset)
	}
}

func TestConverterStatus(t *testing.T) {
	f := newFixture(t)
	f.hook.cfg.Quality = 250

	status := f.usecase.ConverterStatus()

	assert.Equal(t, domain.ConverterStatus{
		Enabled:        true,
		CodecAvailable: true,
		TargetMimeType: domain.MimeWebP,
		MaxWidth:       1920,
		MaxHeight:      1080,
		Quality:        100,
	}, status)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		stem string
		ext  string
	}{
		{in: "photo.JPG", stem: "photo", ext: ".jpg"},
		{in: "../../etc/passwd", stem: "passwd", ext: ""},
		{in: `C:\Users\me\My Picture.png`, stem: "My-Picture", ext: ".png"},
		{in: "фото.png", stem: "upload", ext: ".png"},
		{in: ".hidden", stem: "upload", ext: ".hidden"},
		{in: "", stem: "upload", ext: ""},
	}

	for _, tt := range tests {
		stem, ext := sanitizeFilename(tt.in)
		assert.Equal(t, tt.stem, stem, tt.in)
		assert.Equal(t, tt.ext, ext, tt.in)
	}
}
