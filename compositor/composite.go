package compositor

import (
	"image"
	"image/color"
)

// OutlineParams is the parameter set of the outline compositing function.
type OutlineParams struct {
	OutlineColor  color.RGBA
	OutlineWidth  int     // dilation radius of the detected edge, in source pixels
	Opacity       float64 // outline blend factor, 0..1
	EdgeThreshold float64 // gradient magnitude above which a pixel is an edge, 0..1

	// SourceWidth is the native width of the content stream. When the frame
	// being composited is a downscaled preview, the dilation radius scales
	// down with it so the outline keeps its on-screen proportion.
	SourceWidth int
}

// DefaultEdgeThreshold suits typical binary-ish mask videos, where the
// mask/background boundary has a steep luminance gradient.
const DefaultEdgeThreshold = 0.25

// Compose renders one output frame: the content frame with an outline drawn
// where the mask frame has edges. Edges come from a Sobel convolution over
// the mask's luminance; the outline is the edge map dilated by OutlineWidth
// and blended over the content at Opacity. The mask is sampled
// nearest-neighbor when its resolution differs from the content's.
func Compose(content, mask image.Image, p OutlineParams) *image.RGBA {
	bounds := content.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewRGBA(image.Rectangle{Max: image.Point{X: w, Y: h}})

	if p.EdgeThreshold <= 0 {
		p.EdgeThreshold = DefaultEdgeThreshold
	}
	if p.Opacity < 0 {
		p.Opacity = 0
	}
	if p.Opacity > 1 {
		p.Opacity = 1
	}

	width := p.OutlineWidth
	if p.SourceWidth > 0 && w < p.SourceWidth {
		width = width * w / p.SourceWidth
		if width < 1 {
			width = 1
		}
	}

	lum := maskLuminance(mask, w, h)
	edges := sobelEdges(lum, w, h, p.EdgeThreshold)
	if width > 1 {
		edges = dilate(edges, w, h, width-1)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := content.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			c := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0xff}
			if edges[y*w+x] {
				c = blend(c, p.OutlineColor, p.Opacity)
			}
			out.SetRGBA(x, y, c)
		}
	}
	return out
}

// maskLuminance samples the mask into a w×h luminance plane in 0..1,
// nearest-neighbor scaled to the content resolution.
func maskLuminance(mask image.Image, w, h int) []float64 {
	mb := mask.Bounds()
	mw, mh := mb.Dx(), mb.Dy()
	lum := make([]float64, w*h)
	for y := 0; y < h; y++ {
		my := mb.Min.Y + y*mh/h
		for x := 0; x < w; x++ {
			mx := mb.Min.X + x*mw/w
			r, g, b, _ := mask.At(mx, my).RGBA()
			// Rec. 601 luma weights.
			lum[y*w+x] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
		}
	}
	return lum
}

var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// sobelEdges marks pixels whose gradient magnitude exceeds the threshold.
// Border pixels are never edges; the kernel does not reach outside.
func sobelEdges(lum []float64, w, h int, threshold float64) []bool {
	edges := make([]bool, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := lum[(y+ky)*w+(x+kx)]
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			if gx*gx+gy*gy > threshold*threshold {
				edges[y*w+x] = true
			}
		}
	}
	return edges
}

// dilate grows the edge map by radius using a square structuring element.
func dilate(edges []bool, w, h, radius int) []bool {
	out := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !edges[y*w+x] {
				continue
			}
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= 0 && nx < w && ny >= 0 && ny < h {
						out[ny*w+nx] = true
					}
				}
			}
		}
	}
	return out
}

func blend(base, over color.RGBA, opacity float64) color.RGBA {
	mix := func(b, o uint8) uint8 {
		return uint8(float64(b)*(1-opacity) + float64(o)*opacity)
	}
	return color.RGBA{
		R: mix(base.R, over.R),
		G: mix(base.G, over.G),
		B: mix(base.B, over.B),
		A: 0xff,
	}
}
