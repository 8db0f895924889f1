package converter

import "errors"

var (
	ErrCapabilityMissing = errors.New("image codec unavailable")
	ErrDecode            = errors.New("decode failed")
	ErrResize            = errors.New("resize failed")
	ErrEncode            = errors.New("encode failed")
	ErrWrite             = errors.New("write failed")
	ErrCleanup           = errors.New("cleanup failed")
	ErrSamePath          = errors.New("target path equals source path")
)
