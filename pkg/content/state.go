package content

import (
	"github.com/novvoo/go-pdfrender/pkg/font"
	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// textFont is the slice of font behavior the text machine consumes.
// *font.Font implements it; tests substitute scripted fonts.
type textFont interface {
	Codes(b []byte) []font.CharCode
	GlyphForCode(cc font.CharCode) (font.Glyph, error)
	Advance(cc font.CharCode) float64
}

// textState carries the text parameters set by the Tc..Ts operators.
// All of it is part of the graphics state, so save/restore covers it.
type textState struct {
	font        textFont
	size        float64
	charSpacing float64
	wordSpacing float64
	horizScale  float64 // Tz operand divided by 100
	leading     float64
	rise        float64
	renderMode  int
}

// graphicsState is one snapshot of the interpreter state affected by
// q/Q. Snapshots are plain values: save copies the struct, restore
// copies it back. The pointers inside (color spaces, patterns) are
// immutable once built and the dash slice is replaced, never edited, so
// no snapshot can alias another's mutations.
type graphicsState struct {
	ctm scene.Matrix

	fillSpace   *colorSpace
	strokeSpace *colorSpace
	fillColor   scene.Color
	strokeColor scene.Color

	// Shading patterns selected with scn/SCN. nil means the plain
	// color applies.
	fillPattern   *patternPaint
	strokePattern *patternPaint

	stroke scene.StrokeStyle

	fillAlpha   float64
	strokeAlpha float64

	// clipDepth is the number of builder clip entries pushed while
	// this state was current. Restore pops the builder back to the
	// saved depth.
	clipDepth int

	text textState
}

// patternPaint is a pattern-type-2 fill: the shading and the matrix
// mapping pattern space to the stream's default space.
type patternPaint struct {
	shading *scene.Shading
	matrix  scene.Matrix
}

func newGraphicsState(base scene.Matrix) graphicsState {
	return graphicsState{
		ctm:         base,
		fillSpace:   deviceGray,
		strokeSpace: deviceGray,
		fillColor:   scene.Black,
		strokeColor: scene.Black,
		stroke:      scene.DefaultStrokeStyle(),
		fillAlpha:   1,
		strokeAlpha: 1,
		text:        textState{horizScale: 1},
	}
}
