package source

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/visionops/crowdwatch/internal/log"
)

// Video plays back a video resource and supplies the currently-playing
// frame on each capture. The uri may be a local file path or a remote
// URL; OpenCV handles both through the same capture backend.
type Video struct {
	uri string

	mu  sync.Mutex
	cap *gocv.VideoCapture
	img gocv.Mat
}

// NewVideo creates a playback source for a local video file.
func NewVideo(path string) *Video {
	return &Video{uri: path}
}

// NewVideoURL creates a playback source for a remote video URL.
func NewVideoURL(url string) *Video {
	return &Video{uri: url}
}

// Start opens the video resource. Network errors, missing files, and
// unsupported codecs all surface as ErrMediaLoad.
func (v *Video) Start() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cap != nil {
		return nil
	}

	cap, err := gocv.VideoCaptureFile(v.uri)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMediaLoad, v.uri, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return fmt.Errorf("%w: %s", ErrMediaLoad, v.uri)
	}

	v.cap = cap
	v.img = gocv.NewMat()
	log.Info("video playback started", "uri", v.uri)
	return nil
}

// Capture reads the next frame. A failed read on an open capture means
// playback finished; the caller should treat that as completion.
func (v *Video) Capture() (*Frame, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cap == nil {
		return nil, ErrUnavailable
	}
	if ok := v.cap.Read(&v.img); !ok {
		return nil, ErrEndOfStream
	}
	return encodeJPEG(v.img)
}

// Stop releases the capture handle. Safe to call repeatedly.
func (v *Video) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cap == nil {
		return
	}
	v.cap.Close()
	v.cap = nil
	v.img.Close()
	log.Info("video playback stopped", "uri", v.uri)
}
