package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"billworks/compose"
)

// chromiumBinaries are probed in order; distributions disagree on the name.
var chromiumBinaries = []string{"chromium", "chromium-browser", "google-chrome", "google-chrome-stable"}

// ChromiumEngine prints the HTML markup through headless chromium. Most
// precise engine for CSS-heavy tables, so it leads the default chain.
type ChromiumEngine struct {
	markup *Markup
	geo    PageGeometry

	probeOnce sync.Once
	binary    string
	probeErr  error
}

// NewChromiumEngine builds the engine; availability is probed lazily on
// first use and cached for the engine's lifetime.
func NewChromiumEngine(markup *Markup, geo PageGeometry) *ChromiumEngine {
	return &ChromiumEngine{markup: markup, geo: geo}
}

func (e *ChromiumEngine) Name() string { return "chromium" }

func (e *ChromiumEngine) Probe() error {
	e.probeOnce.Do(func() {
		for _, name := range chromiumBinaries {
			if path, err := exec.LookPath(name); err == nil {
				e.binary = path
				return
			}
		}
		e.probeErr = fmt.Errorf("no chromium binary on PATH (tried %v)", chromiumBinaries)
	})
	return e.probeErr
}

func (e *ChromiumEngine) Render(ctx context.Context, doc *compose.Document) ([]byte, error) {
	html, err := e.markup.Render(doc)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "billworks-chromium-*")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "document.html")
	out := filepath.Join(dir, "document.pdf")
	if err := os.WriteFile(in, []byte(html), 0o644); err != nil {
		return nil, fmt.Errorf("write markup: %w", err)
	}

	// --no-pdf-header-footer and the fixed window size keep chromium from
	// injecting chrome of its own; the @page rule in the markup carries the
	// physical size, so scale stays 1:1.
	cmd := exec.CommandContext(ctx, e.binary,
		"--headless=new",
		"--disable-gpu",
		"--no-sandbox",
		"--no-pdf-header-footer",
		fmt.Sprintf("--window-size=%d,%d", e.geo.PixelWidth(), e.geo.PixelHeight()),
		"--print-to-pdf="+out,
		in,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("chromium print failed: %w (output: %s)", err, firstLine(output))
	}

	pdf, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read chromium output: %w", err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("chromium produced an empty artifact")
	}
	return pdf, nil
}

func firstLine(b []byte) string {
	for i, c := range b {
		if c == '\n' {
			return string(b[:i])
		}
	}
	return string(b)
}
