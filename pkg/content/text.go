package content

import (
	"github.com/novvoo/go-pdfrender/pkg/pdf"
	"github.com/novvoo/go-pdfrender/pkg/scene"
)

func (in *interp) beginText() {
	if in.inText {
		in.warnf("BT", "nested text object")
	}
	in.tm = scene.Identity()
	in.tlm = scene.Identity()
	in.inText = true
}

func (in *interp) endText() {
	if !in.inText {
		in.warnf("ET", "end of text outside text object")
		return
	}
	in.inText = false
}

// textMove starts a new line displaced by (tx, ty) from the start of
// the current one.
func (in *interp) textMove(tx, ty float64) {
	in.tlm = scene.Translation(tx, ty).Multiply(in.tlm)
	in.tm = in.tlm
}

func (in *interp) showText(b []byte, kw string) {
	if !in.inText {
		in.warnf(kw, "text show outside text object")
		return
	}
	if in.state.text.font == nil {
		in.warnf(kw, "no font set")
		return
	}
	in.drawText(b)
}

func (in *interp) showAdjusted(arr pdf.Array) {
	if !in.inText {
		in.warnf("TJ", "text show outside text object")
		return
	}
	if in.state.text.font == nil {
		in.warnf("TJ", "no font set")
		return
	}
	st := &in.state.text
	for _, item := range arr {
		switch v := item.(type) {
		case pdf.String:
			in.drawText(v.Value)
		default:
			if adj, ok := pdf.ToFloat(item); ok {
				tx := -adj / 1000 * st.size * st.horizScale
				in.tm = scene.Translation(tx, 0).Multiply(in.tm)
			}
		}
	}
}

// drawText lays the string's glyphs along the text line. Every code
// advances the pen whether or not its glyph can be drawn, so columns
// stay aligned when a glyph is missing.
func (in *interp) drawText(b []byte) {
	st := &in.state.text
	invisible := st.renderMode == 3 || st.renderMode == 7

	var run []scene.PositionedGlyph
	for _, cc := range st.font.Codes(b) {
		var w0 float64
		if invisible {
			w0 = st.font.Advance(cc)
		} else {
			g, err := st.font.GlyphForCode(cc)
			w0 = g.Advance
			if err == nil && g.Outline != nil {
				pm := scene.Matrix{A: st.size * st.horizScale, D: st.size, F: st.rise}
				run = append(run, scene.PositionedGlyph{
					Outline:   g.Outline,
					Transform: pm.Multiply(in.tm),
				})
			}
		}

		tx := w0*st.size + st.charSpacing
		if cc.Bytes == 1 && cc.Code == 32 {
			tx += st.wordSpacing
		}
		in.tm = scene.Translation(tx*st.horizScale, 0).Multiply(in.tm)
	}

	if len(run) > 0 {
		color, alpha := in.state.fillColor, in.state.fillAlpha
		if st.renderMode == 1 || st.renderMode == 5 {
			color, alpha = in.state.strokeColor, in.state.strokeAlpha
		}
		in.builder.GlyphRun(in.state.ctm, run, color.WithAlpha(alpha))
	}

	if st.renderMode >= 4 && !in.warnedTextClip {
		in.warnf("", "text clipping render modes not supported")
		in.warnedTextClip = true
	}
}
