package transform

import "errors"

// Errors returned by the transform entry points.
var (
	ErrInvalidDimensions = errors.New("transform: rows and cols must be positive")
	ErrPlaneSize         = errors.New("transform: plane length does not match rows*cols")
	ErrInvalidMask       = errors.New("transform: mask radius must be at least 1")
)
