package detect

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

var testFrame = []byte("\xff\xd8\xff\xe0fake-jpeg-bytes")

func testParams() Params {
	return Params{
		AreaM2:          20.0,
		WarnThreshold:   5.0,
		DangerThreshold: 6.5,
	}
}

func TestDetect_SendsConfiguredFields(t *testing.T) {
	var gotForm map[string]string
	var gotFile []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotForm = make(map[string]string)
		for k, v := range r.MultipartForm.Value {
			gotForm[k] = v[0]
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		buf := make([]byte, 64)
		n, _ := f.Read(buf)
		gotFile = buf[:n]

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"person_count":35,"density":7.5,"status":"danger","bounding_boxes":[],"image_width":1280,"image_height":720}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	res, err := c.Detect(context.Background(), testFrame, testParams())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if res.PersonCount != 35 || res.Density != 7.5 || res.Status != StatusDanger {
		t.Errorf("result: got %+v", res)
	}
	if string(gotFile) != string(testFrame) {
		t.Errorf("file payload mismatch")
	}
	if gotForm["roi_area_m2"] != "20" {
		t.Errorf("roi_area_m2: got %q, want 20", gotForm["roi_area_m2"])
	}
	if gotForm["density_warn"] != "5" {
		t.Errorf("density_warn: got %q, want 5", gotForm["density_warn"])
	}
	if gotForm["density_danger"] != "6.5" {
		t.Errorf("density_danger: got %q, want 6.5", gotForm["density_danger"])
	}
}

func TestDetect_ROIFieldsOnlyWhenEnabled(t *testing.T) {
	cases := []struct {
		name    string
		params  Params
		wantROI bool
	}{
		{"disabled", testParams(), false},
		{"enabled", func() Params {
			p := testParams()
			p.ROIEnabled = true
			p.ROIX0, p.ROIY0, p.ROIX1, p.ROIY1 = 10, 20, 90, 80
			return p
		}(), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var form map[string][]string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				r.ParseMultipartForm(1 << 20)
				form = r.MultipartForm.Value
				w.Write([]byte(`{"person_count":0,"density":0,"status":"normal"}`))
			}))
			defer srv.Close()

			c, _ := NewClient(srv.URL)
			if _, err := c.Detect(context.Background(), testFrame, tc.params); err != nil {
				t.Fatalf("Detect: %v", err)
			}

			for _, field := range []string{"roi_x0", "roi_y0", "roi_x1", "roi_y1"} {
				_, present := form[field]
				if present != tc.wantROI {
					t.Errorf("%s present=%v, want %v", field, present, tc.wantROI)
				}
			}
		})
	}
}

func TestDetect_NonSuccessIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"model not loaded"}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	_, err := c.Detect(context.Background(), testFrame, testParams())
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", apiErr.StatusCode)
	}
	if apiErr.Message != "model not loaded" {
		t.Errorf("message: got %q", apiErr.Message)
	}
	if !apiErr.IsServerError() {
		t.Error("expected IsServerError")
	}
}

func TestDetect_MalformedBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	if _, err := c.Detect(context.Background(), testFrame, testParams()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDetect_EmptyFrame(t *testing.T) {
	c, _ := NewClient("http://localhost:1")
	if _, err := c.Detect(context.Background(), nil, testParams()); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("got %v, want ErrEmptyFrame", err)
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient(""); !errors.Is(err, ErrNoBaseURL) {
		t.Errorf("got %v, want ErrNoBaseURL", err)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"healthy","model_loaded":true,"service":"Crowd Density Detection API","version":"1.0.0"}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "healthy" || !h.ModelLoaded {
		t.Errorf("health: got %+v", h)
	}
}
