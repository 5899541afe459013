package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/maskline/maskline/domain"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00"},
		{59.9, "00:59"},
		{61, "01:01"},
		{3599, "59:59"},
		{-5, "00:00"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.seconds); got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.seconds, got, c.want)
		}
	}
}

func TestCreateProgressBarClampsRange(t *testing.T) {
	full := CreateProgressBar(1.5, 10)
	if !strings.Contains(full, "100.0%") {
		t.Errorf("Expected overshoot to clamp to 100%%, got %q", full)
	}
	empty := CreateProgressBar(-0.5, 10)
	if !strings.Contains(empty, "0.0%") {
		t.Errorf("Expected undershoot to clamp to 0%%, got %q", empty)
	}
}

func TestFormatStatusShowsError(t *testing.T) {
	text := FormatStatus(domain.SyncError, "source unavailable: bad.mp4", "good.mp4", 1920, 1080)
	if !strings.Contains(text, "source unavailable: bad.mp4") {
		t.Errorf("Expected error message in status, got %q", text)
	}
	if !strings.Contains(text, "1920x1080") {
		t.Errorf("Expected resolution in status, got %q", text)
	}
}

func TestFormatDriftBeforeFirstMeasurement(t *testing.T) {
	text := FormatDrift(domain.DriftMeasurement{})
	if !strings.Contains(text, "--") {
		t.Errorf("Expected placeholder before first measurement, got %q", text)
	}
}

func TestFormatDriftMilliseconds(t *testing.T) {
	text := FormatDrift(domain.DriftMeasurement{
		DeltaSeconds: 0.042,
		ObservedAt:   time.Now(),
	})
	if !strings.Contains(text, "42 ms") {
		t.Errorf("Expected drift in milliseconds, got %q", text)
	}
}
