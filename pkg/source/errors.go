package source

import "errors"

// Sentinel errors for capture failures.
var (
	// ErrDeviceAccess is returned when a camera device cannot be opened
	// (missing hardware or no permission). Fatal to camera activation.
	ErrDeviceAccess = errors.New("source: camera device access failed")

	// ErrMediaLoad is returned when an image or video resource cannot be
	// loaded or decoded. Fatal to that activation attempt.
	ErrMediaLoad = errors.New("source: media load failed")

	// ErrUnavailable is returned by Capture on a source that is not
	// currently started.
	ErrUnavailable = errors.New("source: not started")

	// ErrEndOfStream is returned when video playback finished naturally.
	// The caller should stop the source and release it.
	ErrEndOfStream = errors.New("source: end of stream")

	// ErrEncoding is returned when a captured frame cannot be JPEG
	// encoded. Recoverable; the cycle is simply skipped.
	ErrEncoding = errors.New("source: frame encoding unavailable")
)
