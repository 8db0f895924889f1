package upload

import "errors"

var (
	ErrFileRequired = errors.New("file is required")
	ErrInvalidID    = errors.New("invalid attachment id")
)
