package font

import "errors"

var (
	// ErrUndefinedGlyph means a character code resolved to no outline in
	// the font program or its substitute. The Glyph returned alongside it
	// still carries a valid advance, so callers can skip the shape
	// without desynchronizing text layout.
	ErrUndefinedGlyph = errors.New("font: undefined glyph")

	// ErrUnsupportedFontProgram marks an embedded font program in a
	// format the loader cannot parse (bare Type 1, broken tables). The
	// font falls back to substitute resolution.
	ErrUnsupportedFontProgram = errors.New("font: unsupported font program")
)
