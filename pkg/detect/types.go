// Package detect provides a client for the crowd density detection backend.
//
// The backend accepts a JPEG frame plus region/threshold parameters as a
// multipart form and returns a person count, a computed density, a
// classified status, and per-person bounding boxes.
package detect

// Status is the backend's three-level density classification.
type Status string

const (
	StatusNormal  Status = "normal"
	StatusWarning Status = "warning"
	StatusDanger  Status = "danger"
)

// Violating reports whether the status is above normal.
func (s Status) Violating() bool {
	return s == StatusWarning || s == StatusDanger
}

// BoundingBox is one detected person, in pixel coordinates of the
// submitted frame.
type BoundingBox struct {
	X1         int     `json:"x1"`
	Y1         int     `json:"y1"`
	X2         int     `json:"x2"`
	Y2         int     `json:"y2"`
	Confidence float64 `json:"confidence"`
}

// Result is the backend's response for one detection pass.
type Result struct {
	PersonCount   int           `json:"person_count"`
	Density       float64       `json:"density"`
	Status        Status        `json:"status"`
	BoundingBoxes []BoundingBox `json:"bounding_boxes"`
	ImageWidth    int           `json:"image_width"`
	ImageHeight   int           `json:"image_height"`
	ROIAreaM2     float64       `json:"roi_area_m2"`
	WarnThresh    float64       `json:"density_warn_threshold"`
	DangerThresh  float64       `json:"density_danger_threshold"`
	Message       string        `json:"message"`
}

// Params are the configuration fields attached to a detection request.
// They are snapshotted at request-build time.
type Params struct {
	// AreaM2 is the monitored area in square meters.
	AreaM2 float64

	// WarnThreshold and DangerThreshold are density limits in people/m².
	WarnThreshold   float64
	DangerThreshold float64

	// ConfThreshold is the detector confidence cutoff (0-1).
	// Zero means the backend default.
	ConfThreshold float64

	// ROIEnabled controls whether the ROI percentage bounds are sent.
	// When false the roi_* fields are omitted entirely.
	ROIEnabled bool

	// ROI percentage bounds of the full frame (0-100).
	ROIX0, ROIY0, ROIX1, ROIY1 float64
}

// Health is the backend's health probe response.
type Health struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Service     string `json:"service"`
	Version     string `json:"version"`
}
