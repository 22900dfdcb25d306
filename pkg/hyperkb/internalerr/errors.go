package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidEdge    = errors.New("invalid edge")
	ErrInvalidPattern = errors.New("invalid pattern")
	ErrStore          = errors.New("store fault")
	ErrInvalidConfig  = errors.New("invalid configuration")
)
