package render

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"

	"billworks/compose"
)

// Chain tries an ordered list of rendering engines until one produces a PDF.
// Engine selection is automatic; callers never name a backend. The chain is
// safe for concurrent use.
type Chain struct {
	engines []Engine
	log     *zap.Logger
}

// NewChain builds the default chain for a geometry: chromium, then
// wkhtmltopdf, then the in-process maroto engine. priority, when non-empty,
// reorders the chain by engine name; unknown names are ignored and engines
// left unnamed keep their relative order at the tail.
func NewChain(log *zap.Logger, geo PageGeometry, priority []string) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	markup := NewMarkup(geo)
	defaults := []Engine{
		NewChromiumEngine(markup, geo),
		NewWkhtmltopdfEngine(markup, geo),
		NewMarotoEngine(geo),
	}
	return &Chain{engines: reorder(defaults, priority), log: log}
}

// NewChainWithEngines builds a chain over explicit engines. Used by tests
// and by callers with custom backends.
func NewChainWithEngines(log *zap.Logger, engines ...Engine) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{engines: engines, log: log}
}

func reorder(engines []Engine, priority []string) []Engine {
	if len(priority) == 0 {
		return engines
	}
	byName := make(map[string]Engine, len(engines))
	for _, e := range engines {
		byName[e.Name()] = e
	}
	ordered := make([]Engine, 0, len(engines))
	taken := make(map[string]bool, len(engines))
	for _, name := range priority {
		if e, ok := byName[name]; ok && !taken[name] {
			ordered = append(ordered, e)
			taken[name] = true
		}
	}
	for _, e := range engines {
		if !taken[e.Name()] {
			ordered = append(ordered, e)
		}
	}
	return ordered
}

// Engines lists the chain's engine names in attempt order.
func (c *Chain) Engines() []string {
	names := make([]string, 0, len(c.engines))
	for _, e := range c.engines {
		names = append(names, e.Name())
	}
	return names
}

// EngineStatus is the probe outcome for one chain member.
type EngineStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// Status probes every engine in attempt order.
func (c *Chain) Status() []EngineStatus {
	out := make([]EngineStatus, 0, len(c.engines))
	for _, e := range c.engines {
		s := EngineStatus{Name: e.Name(), Available: true}
		if err := e.Probe(); err != nil {
			s.Available = false
			s.Detail = err.Error()
		}
		out = append(out, s)
	}
	return out
}

// RenderPDF renders one document through the chain. Per-engine failures are
// expected and only logged; the returned error is ErrInvalidDocument for bad
// input or ErrEngineExhausted when no engine succeeded. No partial artifact
// is ever returned alongside an error.
func (c *Chain) RenderPDF(ctx context.Context, doc *compose.Document) (*Result, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	for _, e := range c.engines {
		if err := e.Probe(); err != nil {
			c.log.Debug("render engine unavailable",
				zap.String("engine", e.Name()),
				zap.String("document", string(doc.Kind)),
				zap.Error(err))
			continue
		}

		start := time.Now()
		pdf, err := e.Render(ctx, doc)
		elapsed := time.Since(start)
		if err != nil {
			c.log.Warn("render engine failed",
				zap.String("engine", e.Name()),
				zap.String("document", string(doc.Kind)),
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
			continue
		}
		if len(pdf) == 0 {
			c.log.Warn("render engine produced empty output",
				zap.String("engine", e.Name()),
				zap.String("document", string(doc.Kind)))
			continue
		}

		pages := c.pageCount(pdf)
		if doc.SinglePage && pages > 1 {
			c.log.Warn("single-page document overflowed",
				zap.String("document", string(doc.Kind)),
				zap.String("engine", e.Name()),
				zap.Int("pages", pages))
		}
		c.log.Info("document rendered",
			zap.String("document", string(doc.Kind)),
			zap.String("engine", e.Name()),
			zap.Duration("elapsed", elapsed),
			zap.Int("pages", pages))
		return &Result{PDF: pdf, Engine: e.Name(), Elapsed: elapsed, Pages: pages}, nil
	}

	return nil, fmt.Errorf("document %q: %w", doc.Kind, ErrEngineExhausted)
}

// pageCount parses the artifact with pdfcpu. A parse failure is reported as
// zero pages, not a render failure: the bytes may still print.
func (c *Chain) pageCount(pdf []byte) int {
	n, err := api.PageCount(bytes.NewReader(pdf), nil)
	if err != nil {
		c.log.Debug("page count failed", zap.Error(err))
		return 0
	}
	return n
}
