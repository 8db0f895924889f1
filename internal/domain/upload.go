package domain

import (
	"path"
	"strings"
	"time"
)

// UploadRequest is what the upload pipeline hands to its post-upload filters.
type UploadRequest struct {
	FilePath string
	MimeType string
	URL      string
}

// UploadResult is what survives the post-upload hook.
type UploadResult struct {
	FilePath string
	MimeType string
	URL      string
}

// Result returns the request as an untouched result.
func (r UploadRequest) Result() UploadResult {
	return UploadResult{
		FilePath: r.FilePath,
		MimeType: r.MimeType,
		URL:      r.URL,
	}
}

// ReplaceBasename swaps the last path element of a URL, keeping any query string.
func ReplaceBasename(rawURL, newBase string) string {
	if rawURL == "" {
		return rawURL
	}

	query := ""
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL, query = rawURL[:i], rawURL[i:]
	}

	old := path.Base(rawURL)
	if old == "/" || old == "." {
		return rawURL + query
	}

	return strings.TrimSuffix(rawURL, old) + newBase + query
}

type Attachment struct {
	ID               string
	OriginalFilename string
	FilePath         string
	URL              string
	MimeType         string
	Size             int64
	Width            int
	Height           int
	Conversion       ConversionStatus
	CreatedAt        time.Time
}

const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeGIF  = "image/gif"
	MimeHEIC = "image/heic"
	MimeWebP = "image/webp"
)

const (
	DefaultMaxUploadSize = 32 << 20
	DefaultMaxWidth      = 1920
	DefaultMaxHeight     = 1080
	DefaultQuality       = 80
)

const (
	KafkaTopicUploads = "media-uploads"
	EventUploadStored = "upload.processed"
)
