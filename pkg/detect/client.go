package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/visionops/crowdwatch/internal/httpc"
	"github.com/visionops/crowdwatch/internal/log"
)

// Client talks to the detection backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// NewClient creates a detection backend client for the given base URL,
// e.g. "http://localhost:8001".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpc.Client,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Detect submits one JPEG-encoded frame with the given parameters and
// returns the parsed detection result. Non-2xx responses return *APIError.
func (c *Client) Detect(ctx context.Context, jpeg []byte, p Params) (*Result, error) {
	if len(jpeg) == 0 {
		return nil, ErrEmptyFrame
	}

	body, contentType, err := buildForm(jpeg, p)
	if err != nil {
		return nil, fmt.Errorf("detect: build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/detect", body)
	if err != nil {
		return nil, fmt.Errorf("detect: new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detect: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    readErrorDetail(resp.Body),
		}
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("detect: decode response: %w", err)
	}

	log.Debug("detection complete",
		"persons", result.PersonCount,
		"density", result.Density,
		"status", result.Status,
		"latency_ms", time.Since(start).Milliseconds())

	return &result, nil
}

// Health probes the backend health endpoint.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return nil, fmt.Errorf("detect: new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detect: health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: readErrorDetail(resp.Body)}
	}

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("detect: decode health: %w", err)
	}
	return &h, nil
}

// buildForm assembles the multipart request body. ROI bounds are written
// only when ROI is enabled, never as zero placeholders.
func buildForm(jpeg []byte, p Params) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	part, err := w.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(jpeg); err != nil {
		return nil, "", err
	}

	fields := map[string]float64{
		"roi_area_m2":    p.AreaM2,
		"density_warn":   p.WarnThreshold,
		"density_danger": p.DangerThreshold,
	}
	for name, v := range fields {
		if err := w.WriteField(name, formatFloat(v)); err != nil {
			return nil, "", err
		}
	}

	if p.ConfThreshold > 0 {
		if err := w.WriteField("conf_threshold", formatFloat(p.ConfThreshold)); err != nil {
			return nil, "", err
		}
	}

	if p.ROIEnabled {
		roi := map[string]float64{
			"roi_x0": p.ROIX0,
			"roi_y0": p.ROIY0,
			"roi_x1": p.ROIX1,
			"roi_y1": p.ROIY1,
		}
		for name, v := range roi {
			if err := w.WriteField(name, formatFloat(v)); err != nil {
				return nil, "", err
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// readErrorDetail extracts the backend's error detail, falling back to the
// raw body (truncated) when it is not the expected JSON shape.
func readErrorDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Detail != "" {
		return detail.Detail
	}
	return strings.TrimSpace(string(raw))
}
