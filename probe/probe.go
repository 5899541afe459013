package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/maskline/maskline/domain"
)

// SourceInfo is the minimal metadata the render interface needs from a
// source: its duration and, once known, its resolution.
type SourceInfo struct {
	URI             string
	DurationSeconds float64
	Width           int
	Height          int
}

// HasResolution reports whether the source carries a video stream with a
// known resolution.
func (s *SourceInfo) HasResolution() bool {
	return s.Width > 0 && s.Height > 0
}

// Prober resolves source locators to metadata. The interface decouples
// startup validation from the ffprobe binary for testing.
type Prober interface {
	Probe(ctx context.Context, uri string) (*SourceInfo, error)
}

// FFProbe probes sources with the ffprobe binary.
type FFProbe struct{}

// ffprobe's -print_format json output, reduced to the fields used here.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe runs ffprobe against the locator. Failures surface as a
// SourceUnavailable media error so a bad locator is caught at startup
// rather than as a silent readiness stall.
func (f *FFProbe) Probe(ctx context.Context, uri string) (*SourceInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		uri)
	raw, err := cmd.Output()
	if err != nil {
		return nil, &domain.MediaError{
			Kind:    domain.ErrSourceUnavailable,
			Source:  uri,
			Message: fmt.Sprintf("probe failed: %v", err),
		}
	}

	info, err := parseOutput(uri, raw)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"source":   uri,
		"duration": info.DurationSeconds,
		"width":    info.Width,
		"height":   info.Height,
	}).Debug("source probed")
	return info, nil
}

func parseOutput(uri string, raw []byte) (*SourceInfo, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to parse probe output for %s: %w", uri, err)
	}

	info := &SourceInfo{URI: uri}
	if out.Format.Duration != "" {
		duration, err := strconv.ParseFloat(out.Format.Duration, 64)
		if err == nil {
			info.DurationSeconds = duration
		}
	}
	for _, stream := range out.Streams {
		if stream.CodecType == "video" && stream.Width > 0 {
			info.Width = stream.Width
			info.Height = stream.Height
			break
		}
	}
	if !info.HasResolution() {
		return nil, &domain.MediaError{
			Kind:    domain.ErrUnsupportedFormat,
			Source:  uri,
			Message: "no video stream found",
		}
	}
	return info, nil
}
