package source

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// ImageFile is the still-image variant: the file is decoded and encoded
// once at Start, and every Capture returns that same frame. The session
// controller runs a single detection pass for this variant instead of
// scheduling periodic capture.
type ImageFile struct {
	path string

	mu    sync.Mutex
	frame *Frame
}

// NewImageFile creates a single-shot source for the given image path.
func NewImageFile(path string) *ImageFile {
	return &ImageFile{path: path}
}

// Start decodes the image file into the one frame this source produces.
func (s *ImageFile) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	img := gocv.IMRead(s.path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return fmt.Errorf("%w: %s", ErrMediaLoad, s.path)
	}

	frame, err := encodeJPEG(img)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMediaLoad, s.path)
	}
	s.frame = frame
	return nil
}

// Capture returns the decoded frame.
func (s *ImageFile) Capture() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frame == nil {
		return nil, ErrUnavailable
	}
	return s.frame, nil
}

// Stop drops the decoded frame. Safe to call repeatedly.
func (s *ImageFile) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = nil
}
