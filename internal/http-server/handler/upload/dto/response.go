package dto

import (
	"time"

	"upload-converter/internal/domain"
)

type AttachmentResponse struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	URL              string    `json:"url"`
	MimeType         string    `json:"mime_type"`
	Size             int64     `json:"size"`
	Width            int       `json:"width,omitempty"`
	Height           int       `json:"height,omitempty"`
	Conversion       string    `json:"conversion"`
	CreatedAt        time.Time `json:"created_at"`
}

func NewAttachmentResponse(a *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:               a.ID,
		OriginalFilename: a.OriginalFilename,
		URL:              a.URL,
		MimeType:         a.MimeType,
		Size:             a.Size,
		Width:            a.Width,
		Height:           a.Height,
		Conversion:       string(a.Conversion),
		CreatedAt:        a.CreatedAt,
	}
}

type ListResponse struct {
	Items  []AttachmentResponse `json:"items"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
