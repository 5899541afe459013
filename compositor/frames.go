package compositor

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// Pipeline decodes the content and mask sources with two ffmpeg processes
// and emits composited preview frames at a low fixed rate. It is cosmetic:
// it runs on its own clock, and any failure degrades to a closed frame
// channel rather than touching the sync pair's state.
type Pipeline struct {
	params OutlineParams
	out    chan *image.RGBA
}

// NewPipeline starts decoding both sources at fps, scaled to width (height
// follows the aspect ratio). Frames stop (the channel closes) at the end of
// the shorter stream or on the first decode error.
func NewPipeline(ctx context.Context, contentURI, maskURI string, params OutlineParams, fps, width int) (*Pipeline, error) {
	content, err := startFrameStream(ctx, contentURI, fps, width)
	if err != nil {
		return nil, fmt.Errorf("failed to start content preview decode: %w", err)
	}
	mask, err := startFrameStream(ctx, maskURI, fps, width)
	if err != nil {
		return nil, fmt.Errorf("failed to start mask preview decode: %w", err)
	}

	p := &Pipeline{
		params: params,
		out:    make(chan *image.RGBA, 1),
	}
	go p.compose(ctx, content, mask)
	return p, nil
}

// Frames returns the channel of composited preview frames.
func (p *Pipeline) Frames() <-chan *image.RGBA {
	return p.out
}

func (p *Pipeline) compose(ctx context.Context, content, mask <-chan image.Image) {
	defer close(p.out)
	for {
		contentFrame, okContent := <-content
		maskFrame, okMask := <-mask
		if !okContent || !okMask {
			return
		}
		frame := Compose(contentFrame, maskFrame, p.params)
		select {
		case p.out <- frame:
		case <-ctx.Done():
			return
		default:
			// Preview consumers that fall behind skip frames rather than
			// stalling the decode.
		}
	}
}

// startFrameStream spawns an ffmpeg process emitting the source as an MJPEG
// image pipe and returns the decoded frame channel.
func startFrameStream(ctx context.Context, uri string, fps, width int) (<-chan image.Image, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-loglevel", "error",
		"-i", uri,
		"-vf", fmt.Sprintf("fps=%d,scale=%d:-1", fps, width),
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"pipe:1")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed to start for %s: %w", uri, err)
	}

	frames := make(chan image.Image, 1)
	go func() {
		defer close(frames)
		defer cmd.Wait()
		reader := bufio.NewReader(stdout)
		for {
			// MJPEG pipes are back-to-back JPEGs; each decode consumes
			// exactly one image.
			img, err := jpeg.Decode(reader)
			if err != nil {
				if err != io.EOF && ctx.Err() == nil {
					logrus.WithError(err).WithField("source", uri).Warn("preview decode stopped")
				}
				return
			}
			select {
			case frames <- img:
			case <-ctx.Done():
				return
			}
		}
	}()
	return frames, nil
}
