package ascii

import (
	"image"

	"github.com/qeesung/image2ascii/convert"
)

// Converter renders composited preview frames as colored ASCII art for the
// terminal preview pane.
type Converter struct {
	converter *convert.ImageConverter
	options   convert.Options
}

// NewConverter creates a frame converter targeting the given character cell
// size.
func NewConverter(width, height int) *Converter {
	options := convert.DefaultOptions
	options.FixedWidth = width
	options.FixedHeight = height
	options.Colored = true
	return &Converter{
		converter: convert.NewImageConverter(),
		options:   options,
	}
}

// Convert renders one frame as ASCII art.
func (c *Converter) Convert(frame image.Image) string {
	if frame == nil {
		return c.Placeholder()
	}
	return c.converter.Image2ASCIIString(frame, &c.options)
}

// Placeholder returns the pane content shown before the first frame arrives
// or after the preview pipeline has stopped.
func (c *Converter) Placeholder() string {
	return `
	┌─────────────────┐
	│                 │
	│    ▶ MASKLINE   │
	│   no preview    │
	│                 │
	└─────────────────┘
	`
}
