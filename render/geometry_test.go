package render

import "testing"

func TestA4Geometry_PixelDimensions(t *testing.T) {
	geo := A4Geometry()

	// 210mm and 297mm at the 96 DPI CSS reference.
	if got := geo.PixelWidth(); got != 794 {
		t.Errorf("PixelWidth() = %d, want 794", got)
	}
	if got := geo.PixelHeight(); got != 1123 {
		t.Errorf("PixelHeight() = %d, want 1123", got)
	}
	if got := geo.ContentScale(); got != 1.0 {
		t.Errorf("ContentScale() = %v, want 1.0", got)
	}
}

func TestPageGeometry_CustomDPI(t *testing.T) {
	geo := PageGeometry{WidthMM: 210, HeightMM: 297, DPI: 300}
	if got := geo.PixelWidth(); got != 2480 {
		t.Errorf("PixelWidth() at 300dpi = %d, want 2480", got)
	}
}
