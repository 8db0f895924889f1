package upload

import "errors"

var (
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrFileNotFound       = errors.New("file not found")
	ErrStorageError       = errors.New("storage error")
	ErrDuplicateKey       = errors.New("duplicate key violation")
)
