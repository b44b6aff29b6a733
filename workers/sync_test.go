package workers

import (
	"testing"
	"time"
)

func TestBuildSyncURL(t *testing.T) {
	since := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

	cases := []struct {
		base     string
		path     string
		expected string
	}{
		{"http://profiles:8080", "/api/v1/public/profiles", "http://profiles:8080/api/v1/public/profiles?since=2025-03-01T12%3A30%3A00Z"},
		{"http://profiles:8080/", "api/v1/public/profiles", "http://profiles:8080/api/v1/public/profiles?since=2025-03-01T12%3A30%3A00Z"},
	}
	for _, c := range cases {
		got, err := buildSyncURL(c.base, c.path, since)
		if err != nil {
			t.Fatalf("buildSyncURL(%q, %q) failed: %v", c.base, c.path, err)
		}
		if got != c.expected {
			t.Errorf("buildSyncURL(%q, %q) = %q, want %q", c.base, c.path, got, c.expected)
		}
	}
}

func TestBuildSyncURLInvalidBase(t *testing.T) {
	if _, err := buildSyncURL("://bad", "/path", time.Now()); err == nil {
		t.Error("expected error for invalid base URL")
	}
}
