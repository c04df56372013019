package render

import (
	"errors"
	"fmt"
)

// ErrNoDocument means a render was requested before any document was
// opened.
var ErrNoDocument = errors.New("render: no document open")

// Stage names the pipeline phase a render failure came from.
type Stage string

const (
	// StagePage covers page access and content-stream interpretation.
	StagePage Stage = "page"
	// StageGlyph covers font loading and glyph resolution.
	StageGlyph Stage = "glyph"
	// StageBackend covers rasterization and render arguments.
	StageBackend Stage = "backend"
)

// RenderError reports the failure of a single render request. The
// document, the page cache and the font cache all remain valid; only
// this request failed. errors.Is and errors.As see through it.
type RenderError struct {
	Page  int
	Stage Stage
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render: page %d: %s fault: %v", e.Page, e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
