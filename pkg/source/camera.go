package source

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/visionops/crowdwatch/internal/log"
)

// Camera captures frames from a local video capture device.
// The device handle is a hardware lock; Stop must release it.
type Camera struct {
	device int

	mu  sync.Mutex
	cap *gocv.VideoCapture
	img gocv.Mat
}

// NewCamera creates a camera source for the given device index.
func NewCamera(device int) *Camera {
	return &Camera{device: device}
}

// Start opens the capture device at the target resolution.
func (c *Camera) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cap != nil {
		return nil
	}

	cap, err := gocv.VideoCaptureDevice(c.device)
	if err != nil {
		return fmt.Errorf("%w: device %d: %v", ErrDeviceAccess, c.device, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return fmt.Errorf("%w: device %d not opened", ErrDeviceAccess, c.device)
	}

	cap.Set(gocv.VideoCaptureFrameWidth, CameraWidth)
	cap.Set(gocv.VideoCaptureFrameHeight, CameraHeight)

	c.cap = cap
	c.img = gocv.NewMat()
	log.Info("camera started", "device", c.device)
	return nil
}

// Capture reads one frame from the device and encodes it.
func (c *Camera) Capture() (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cap == nil {
		return nil, ErrUnavailable
	}
	if ok := c.cap.Read(&c.img); !ok {
		return nil, ErrEncoding
	}
	return encodeJPEG(c.img)
}

// Stop releases the device handle. Safe to call repeatedly.
func (c *Camera) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cap == nil {
		return
	}
	c.cap.Close()
	c.cap = nil
	c.img.Close()
	log.Info("camera stopped", "device", c.device)
}
