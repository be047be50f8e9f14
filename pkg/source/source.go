// Package source provides the capture source adapters for crowdwatch.
//
// A Source produces one still frame per request, already JPEG-encoded for
// the detection backend. Four variants exist: camera device, still image
// file, video file, and remote video URL. All variants share the same
// lifecycle: Start, repeated Capture, Stop. Stop is always idempotent and
// safe to call on a source that never started.
package source

import (
	"gocv.io/x/gocv"
)

// Capture defaults.
const (
	// JPEGQuality is the encode quality factor for submitted frames.
	JPEGQuality = 80

	// CameraWidth and CameraHeight are the target camera resolution.
	CameraWidth  = 1280
	CameraHeight = 720
)

// Frame is one captured still, JPEG-encoded.
type Frame struct {
	JPEG   []byte
	Width  int
	Height int
}

// Source is the capability shared by all capture variants.
type Source interface {
	// Start acquires the underlying resource. Activation failures are
	// fatal to this source; it stays inactive.
	Start() error

	// Capture returns the current frame. ErrUnavailable when the source
	// is not started, ErrEndOfStream when playback finished naturally.
	Capture() (*Frame, error)

	// Stop releases the underlying resource. Idempotent.
	Stop()
}

// encodeJPEG converts a decoded frame into a Frame. Zero-dimension mats
// cannot be encoded and abort the cycle with ErrEncoding.
func encodeJPEG(img gocv.Mat) (*Frame, error) {
	if img.Empty() || img.Cols() == 0 || img.Rows() == 0 {
		return nil, ErrEncoding
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, JPEGQuality})
	if err != nil {
		return nil, ErrEncoding
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())

	return &Frame{
		JPEG:   data,
		Width:  img.Cols(),
		Height: img.Rows(),
	}, nil
}
