package domain

import "time"

// UploadEvent is published once an upload has passed through the pipeline.
type UploadEvent struct {
	Type         string           `json:"type"`
	AttachmentID string           `json:"attachment_id"`
	FilePath     string           `json:"file_path"`
	URL          string           `json:"url"`
	MimeType     string           `json:"mime_type"`
	Size         int64            `json:"size"`
	Conversion   ConversionStatus `json:"conversion"`
	OccurredAt   time.Time        `json:"occurred_at"`
}

// ConverterStatus describes the converter as the operator sees it.
type ConverterStatus struct {
	Enabled        bool   `json:"enabled"`
	CodecAvailable bool   `json:"codec_available"`
	TargetMimeType string `json:"target_mime_type"`
	MaxWidth       uint   `json:"max_width"`
	MaxHeight      uint   `json:"max_height"`
	Quality        int    `json:"quality"`
}
