package storage

import "errors"

var (
	ErrInvalidConfig      = errors.New("storage: invalid configuration")
	ErrInvalidKey         = errors.New("storage: invalid key")
	ErrUnsupportedType    = errors.New("storage: unsupported image type")
	ErrAccessDenied       = errors.New("storage: access denied")
	ErrBucketNotFound     = errors.New("storage: bucket not found")
	ErrServiceUnavailable = errors.New("storage: service unavailable")
	ErrWriteFailed        = errors.New("storage: write failed")
)
