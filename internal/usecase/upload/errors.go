package upload

import "errors"

var (
	ErrInvalidFileFormat  = errors.New("invalid file format")
	ErrFileTooLarge       = errors.New("file too large")
	ErrEmptyFile          = errors.New("empty file")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrStorageError       = errors.New("storage error")
	ErrDatabaseError      = errors.New("database error")
)
