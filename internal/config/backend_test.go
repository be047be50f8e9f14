package config

import "testing"

func TestResolveAPIBase(t *testing.T) {
	cases := []struct {
		name   string
		origin string
		want   string
	}{
		{"localhost keeps local default", "http://localhost:8080", DefaultLocalAPIBase},
		{"loopback keeps local default", "http://127.0.0.1:3000", DefaultLocalAPIBase},
		{"deployed origin drops the port", "https://crowd.example.com:8443", "https://crowd.example.com"},
		{"deployed origin keeps the scheme", "https://crowd.example.com", "https://crowd.example.com"},
		{"schemeless origin defaults to http", "//crowd.example.com:9000", "http://crowd.example.com"},
		{"garbage falls back to local", "not a url", DefaultLocalAPIBase},
		{"empty falls back to local", "", DefaultLocalAPIBase},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveAPIBase(tc.origin); got != tc.want {
				t.Errorf("ResolveAPIBase(%q) = %q, want %q", tc.origin, got, tc.want)
			}
		})
	}
}

func TestAPIBaseEnvOverride(t *testing.T) {
	t.Setenv("CROWDWATCH_API", "http://backend:8001/")
	if got := APIBase(DefaultLocalAPIBase); got != "http://backend:8001" {
		t.Errorf("APIBase = %q, want env value without trailing slash", got)
	}
}
