package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"billworks/compose"
)

// WkhtmltopdfEngine renders the HTML markup through the wkhtmltopdf binary.
// wkhtmltopdf auto-shrinks wide tables by default, which silently changes
// font sizes and breaks the print-compatibility contract, so smart shrinking
// is disabled explicitly and zoom is pinned to the geometry's scale.
type WkhtmltopdfEngine struct {
	markup *Markup
	geo    PageGeometry

	probeOnce sync.Once
	binary    string
	probeErr  error
}

func NewWkhtmltopdfEngine(markup *Markup, geo PageGeometry) *WkhtmltopdfEngine {
	return &WkhtmltopdfEngine{markup: markup, geo: geo}
}

func (e *WkhtmltopdfEngine) Name() string { return "wkhtmltopdf" }

func (e *WkhtmltopdfEngine) Probe() error {
	e.probeOnce.Do(func() {
		path, err := exec.LookPath("wkhtmltopdf")
		if err != nil {
			e.probeErr = fmt.Errorf("wkhtmltopdf not on PATH: %w", err)
			return
		}
		e.binary = path
	})
	return e.probeErr
}

func (e *WkhtmltopdfEngine) Render(ctx context.Context, doc *compose.Document) ([]byte, error) {
	html, err := e.markup.Render(doc)
	if err != nil {
		return nil, err
	}

	margin := fmt.Sprintf("%.0fmm", e.geo.MarginMM)
	cmd := exec.CommandContext(ctx, e.binary,
		"--quiet",
		"--page-width", fmt.Sprintf("%.0fmm", e.geo.WidthMM),
		"--page-height", fmt.Sprintf("%.0fmm", e.geo.HeightMM),
		"--dpi", fmt.Sprintf("%d", e.geo.DPI),
		"--zoom", fmt.Sprintf("%.1f", e.geo.ContentScale()),
		"--disable-smart-shrinking",
		"--margin-top", margin,
		"--margin-bottom", margin,
		"--margin-left", margin,
		"--margin-right", margin,
		"-", "-",
	)
	cmd.Stdin = strings.NewReader(html)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("wkhtmltopdf failed: %w (stderr: %s)", err, firstLine(stderr.Bytes()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("wkhtmltopdf produced an empty artifact")
	}
	return stdout.Bytes(), nil
}
