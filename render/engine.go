package render

import (
	"context"
	"errors"
	"time"

	"billworks/compose"
)

// ErrEngineExhausted means every candidate engine failed for one document.
// It is a different condition from a bad document; callers distinguish the
// two with errors.Is.
var ErrEngineExhausted = errors.New("all rendering engines failed")

// ErrInvalidDocument means the markup input itself is unusable (nil document
// or no content blocks).
var ErrInvalidDocument = errors.New("invalid document markup")

// Engine is one candidate rendering backend. Probe reports availability
// without rendering; Render produces the paginated PDF bytes. Subprocess
// engines start a fresh process per call, never sharing instances across
// concurrent renders.
type Engine interface {
	Name() string
	Probe() error
	Render(ctx context.Context, doc *compose.Document) ([]byte, error)
}

// Result reports a successful chain render for diagnostics.
type Result struct {
	PDF     []byte
	Engine  string
	Elapsed time.Duration
	Pages   int
}

func validateDocument(doc *compose.Document) error {
	if doc == nil || len(doc.Blocks) == 0 {
		return ErrInvalidDocument
	}
	return nil
}
