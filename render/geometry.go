// Package render turns composed documents into artifacts: HTML markup, a
// paginated PDF through a prioritized engine chain, and DOCX through a fully
// separate path.
package render

import "math"

const mmPerInch = 25.4

// PageGeometry fixes the physical page and the reference resolution. Pixel
// dimensions are derived here, once, instead of trusting engine defaults; the
// engines are told to scale 1:1 and never shrink content to fit.
type PageGeometry struct {
	WidthMM  float64
	HeightMM float64
	DPI      int

	MarginMM float64
}

// A4Geometry is the default: A4 portrait at the 96 DPI CSS reference.
func A4Geometry() PageGeometry {
	return PageGeometry{WidthMM: 210, HeightMM: 297, DPI: 96, MarginMM: 10}
}

// PixelWidth converts the physical width via the reference DPI.
func (g PageGeometry) PixelWidth() int {
	return int(math.Round(g.WidthMM / mmPerInch * float64(g.DPI)))
}

// PixelHeight converts the physical height via the reference DPI.
func (g PageGeometry) PixelHeight() int {
	return int(math.Round(g.HeightMM / mmPerInch * float64(g.DPI)))
}

// ContentScale is the forced content-scaling factor: markup maps 1:1 onto the
// page. Engines with shrink-to-fit behavior get it explicitly disabled.
func (g PageGeometry) ContentScale() float64 { return 1.0 }
