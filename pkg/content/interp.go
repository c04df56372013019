package content

import (
	"context"
	"fmt"
	"math"

	"github.com/novvoo/go-pdfrender/pkg/font"
	"github.com/novvoo/go-pdfrender/pkg/pdf"
	"github.com/novvoo/go-pdfrender/pkg/scene"
)

// pendingClip tracks a W or W* waiting for the path-painting operator
// that makes it take effect.
type pendingClip uint8

const (
	clipNone pendingClip = iota
	clipNonZero
	clipEvenOdd
)

// interp is the content stream stack machine. One instance interprets
// one page; nothing in it is shared across goroutines.
type interp struct {
	ctx          context.Context
	doc          *pdf.Document
	page         *pdf.Page
	fonts        *font.Cache
	builder      *scene.Builder
	maxFormDepth int

	state graphicsState
	stack []graphicsState

	// stackFloor is the save depth of the current stream. Restores
	// never pop below it, so an unbalanced Q inside a form cannot
	// unwind the caller's state.
	stackFloor int

	// Current path under construction, in user space.
	path           *scene.Path
	curX, curY     float64
	startX, startY float64
	hasCur         bool
	afterClose     bool

	pending pendingClip

	// Text object state. The matrices live outside graphicsState
	// because q/Q does not restore them.
	tm, tlm scene.Matrix
	inText  bool

	// baseCTM anchors pattern space: the CTM at the start of the
	// stream being executed.
	baseCTM scene.Matrix

	formDepth int

	// resources holds the form resource dictionaries currently in
	// scope, outermost first. Lookups walk it backwards before
	// falling back to the page chain.
	resources []pdf.Dictionary

	// images memoizes decoded image XObjects for the duration of the
	// page, so a logo stamped on every invoice row decodes once.
	images map[pdf.Reference]*scene.Image

	warnings []Warning
	dropped  int

	warnedTextClip bool
	warnedBlend    bool
	warnedSMask    bool

	// compatLevel is the BX nesting depth. Unknown operators inside a
	// compatibility section are dropped without a warning.
	compatLevel int

	steps int
}

// ctxCheckInterval is how many instructions run between cancellation
// checks.
const ctxCheckInterval = 256

// execStream scans and executes one content stream. The returned error
// is only ever the context's.
func (in *interp) execStream(data []byte) error {
	sc := newScanner(data)
	floor := in.stackFloor
	in.stackFloor = len(in.stack)
	defer func() { in.stackFloor = floor }()

	for {
		ins, ok := sc.next()
		if !ok {
			break
		}
		in.steps++
		if in.steps%ctxCheckInterval == 0 && in.ctx != nil {
			if err := in.ctx.Err(); err != nil {
				return err
			}
		}
		if ins.truncated {
			in.warnf(ins.keyword, "operand stack overflow, oldest operands dropped")
		}
		if err := in.exec(ins); err != nil {
			return err
		}
	}
	if sc.stray > 0 {
		in.warnf("", "%d stray tokens ignored", sc.stray)
	}
	return nil
}

// exec dispatches one instruction. Malformed operands skip the operator
// with a warning and leave the state untouched.
func (in *interp) exec(ins instruction) error {
	ops := ins.operands

	switch ins.op {
	case opSave:
		in.stack = append(in.stack, in.state)

	case opRestore:
		if len(in.stack) <= in.stackFloor {
			in.warnf("Q", "restore without matching save")
			break
		}
		in.restoreOne()

	case opConcat:
		var a [6]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("cm", "expected 6 numbers")
			break
		}
		m := scene.Matrix{A: a[0], B: a[1], C: a[2], D: a[3], E: a[4], F: a[5]}
		in.state.ctm = m.Multiply(in.state.ctm)

	case opLineWidth:
		var a [1]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("w", "expected line width")
			break
		}
		in.state.stroke.Width = math.Abs(a[0])

	case opLineCap:
		var a [1]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("J", "expected cap style")
			break
		}
		in.state.stroke.Cap = lineCapFor(int(a[0]))

	case opLineJoin:
		var a [1]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("j", "expected join style")
			break
		}
		in.state.stroke.Join = lineJoinFor(int(a[0]))

	case opMiterLimit:
		var a [1]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("M", "expected miter limit")
			break
		}
		if a[0] >= 1 {
			in.state.stroke.MiterLimit = a[0]
		}

	case opDash:
		in.setDash(ops)

	case opRenderIntent, opFlatness:
		// Accepted and ignored; neither affects the output model.

	case opExtGState:
		name, ok := nameTail(ops)
		if !ok {
			in.warnf("gs", "expected ExtGState name")
			break
		}
		in.applyExtGState(name)

	case opMoveTo:
		var a [2]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("m", "expected 2 numbers")
			break
		}
		in.ensurePath()
		in.path.MoveTo(a[0], a[1])
		in.curX, in.curY = a[0], a[1]
		in.startX, in.startY = a[0], a[1]
		in.hasCur = true
		in.afterClose = false

	case opLineTo:
		var a [2]float64
		if !floatsTail(ops, a[:]) || !in.hasCur {
			in.warnf("l", "lineto without current point")
			break
		}
		in.continueSubpath()
		in.path.LineTo(a[0], a[1])
		in.curX, in.curY = a[0], a[1]

	case opCurveTo:
		var a [6]float64
		if !floatsTail(ops, a[:]) || !in.hasCur {
			in.warnf("c", "curveto without current point")
			break
		}
		in.continueSubpath()
		in.path.CurveTo(a[0], a[1], a[2], a[3], a[4], a[5])
		in.curX, in.curY = a[4], a[5]

	case opCurveToV:
		var a [4]float64
		if !floatsTail(ops, a[:]) || !in.hasCur {
			in.warnf("v", "curveto without current point")
			break
		}
		in.continueSubpath()
		in.path.CurveTo(in.curX, in.curY, a[0], a[1], a[2], a[3])
		in.curX, in.curY = a[2], a[3]

	case opCurveToY:
		var a [4]float64
		if !floatsTail(ops, a[:]) || !in.hasCur {
			in.warnf("y", "curveto without current point")
			break
		}
		in.continueSubpath()
		in.path.CurveTo(a[0], a[1], a[2], a[3], a[2], a[3])
		in.curX, in.curY = a[2], a[3]

	case opClosePath:
		if in.hasCur {
			in.closeSubpath()
			in.curX, in.curY = in.startX, in.startY
		}

	case opRect:
		var a [4]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("re", "expected 4 numbers")
			break
		}
		in.ensurePath()
		in.path.Rect(a[0], a[1], a[2], a[3])
		in.curX, in.curY = a[0], a[1]
		in.startX, in.startY = a[0], a[1]
		in.hasCur = true
		in.afterClose = true

	case opStroke:
		in.paintPath(false, true, scene.FillNonZero, false)
	case opCloseStroke:
		in.paintPath(false, true, scene.FillNonZero, true)
	case opFill:
		in.paintPath(true, false, scene.FillNonZero, false)
	case opFillEvenOdd:
		in.paintPath(true, false, scene.FillEvenOdd, false)
	case opFillStroke:
		in.paintPath(true, true, scene.FillNonZero, false)
	case opFillStrokeEvenOdd:
		in.paintPath(true, true, scene.FillEvenOdd, false)
	case opCloseFillStroke:
		in.paintPath(true, true, scene.FillNonZero, true)
	case opCloseFillStrokeEO:
		in.paintPath(true, true, scene.FillEvenOdd, true)
	case opEndPath:
		in.paintPath(false, false, scene.FillNonZero, false)

	case opClipNonZero:
		in.pending = clipNonZero
	case opClipEvenOdd:
		in.pending = clipEvenOdd

	case opStrokeSpace:
		in.setColorSpace(ops, false, "CS")
	case opFillSpace:
		in.setColorSpace(ops, true, "cs")
	case opStrokeColor:
		in.setColor(ops, false, false, "SC")
	case opStrokeColorN:
		in.setColor(ops, false, true, "SCN")
	case opFillColor:
		in.setColor(ops, true, false, "sc")
	case opFillColorN:
		in.setColor(ops, true, true, "scn")

	case opStrokeGray:
		var a [1]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("G", "expected gray level")
			break
		}
		in.state.strokeSpace = deviceGray
		in.state.strokeColor = scene.FromGray(a[0])
		in.state.strokePattern = nil

	case opFillGray:
		var a [1]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("g", "expected gray level")
			break
		}
		in.state.fillSpace = deviceGray
		in.state.fillColor = scene.FromGray(a[0])
		in.state.fillPattern = nil

	case opStrokeRGB:
		var a [3]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("RG", "expected 3 numbers")
			break
		}
		in.state.strokeSpace = deviceRGB
		in.state.strokeColor = scene.FromRGB(a[0], a[1], a[2])
		in.state.strokePattern = nil

	case opFillRGB:
		var a [3]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("rg", "expected 3 numbers")
			break
		}
		in.state.fillSpace = deviceRGB
		in.state.fillColor = scene.FromRGB(a[0], a[1], a[2])
		in.state.fillPattern = nil

	case opStrokeCMYK:
		var a [4]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("K", "expected 4 numbers")
			break
		}
		in.state.strokeSpace = deviceCMYK
		in.state.strokeColor = scene.FromCMYK(a[0], a[1], a[2], a[3])
		in.state.strokePattern = nil

	case opFillCMYK:
		var a [4]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("k", "expected 4 numbers")
			break
		}
		in.state.fillSpace = deviceCMYK
		in.state.fillColor = scene.FromCMYK(a[0], a[1], a[2], a[3])
		in.state.fillPattern = nil

	case opBeginText:
		in.beginText()
	case opEndText:
		in.endText()

	case opCharSpacing:
		var a [1]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("Tc", "expected char spacing")
			break
		}
		in.state.text.charSpacing = a[0]

	case opWordSpacing:
		var a [1]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("Tw", "expected word spacing")
			break
		}
		in.state.text.wordSpacing = a[0]

	case opHorizScaling:
		var a [1]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("Tz", "expected scale percentage")
			break
		}
		in.state.text.horizScale = a[0] / 100

	case opLeading:
		var a [1]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("TL", "expected leading")
			break
		}
		in.state.text.leading = a[0]

	case opFont:
		in.setFont(ops)

	case opRenderMode:
		var a [1]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("Tr", "expected render mode")
			break
		}
		if mode := int(a[0]); mode >= 0 && mode <= 7 {
			in.state.text.renderMode = mode
		}

	case opRise:
		var a [1]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("Ts", "expected rise")
			break
		}
		in.state.text.rise = a[0]

	case opTextMove:
		var a [2]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("Td", "expected 2 numbers")
			break
		}
		in.textMove(a[0], a[1])

	case opTextMoveSetLeading:
		var a [2]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("TD", "expected 2 numbers")
			break
		}
		in.state.text.leading = -a[1]
		in.textMove(a[0], a[1])

	case opTextMatrix:
		var a [6]float64
		if !floatsTail(ops, a[:]) {
			in.warnf("Tm", "expected 6 numbers")
			break
		}
		m := scene.Matrix{A: a[0], B: a[1], C: a[2], D: a[3], E: a[4], F: a[5]}
		in.tm, in.tlm = m, m

	case opTextNextLine:
		in.textMove(0, -in.state.text.leading)

	case opShowText:
		s, ok := stringTail(ops)
		if !ok {
			in.warnf("Tj", "expected string")
			break
		}
		in.showText(s, "Tj")

	case opShowTextAdjusted:
		arr, ok := arrayTail(ops)
		if !ok {
			in.warnf("TJ", "expected array")
			break
		}
		in.showAdjusted(arr)

	case opNextLineShow:
		s, ok := stringTail(ops)
		if !ok {
			in.warnf("'", "expected string")
			break
		}
		in.textMove(0, -in.state.text.leading)
		in.showText(s, "'")

	case opNextLineSetShow:
		if len(ops) < 3 {
			in.warnf("\"", "expected 2 numbers and a string")
			break
		}
		s, okS := stringTail(ops)
		var a [2]float64
		if !okS || !floatsTail(ops[:len(ops)-1], a[:]) {
			in.warnf("\"", "expected 2 numbers and a string")
			break
		}
		in.state.text.wordSpacing = a[0]
		in.state.text.charSpacing = a[1]
		in.textMove(0, -in.state.text.leading)
		in.showText(s, "\"")

	case opXObject:
		name, ok := nameTail(ops)
		if !ok {
			in.warnf("Do", "expected XObject name")
			break
		}
		return in.runXObject(name)

	case opBeginImage:
		if ins.img != nil {
			in.runInlineImage(ins.img)
		}

	case opShadingFill:
		name, ok := nameTail(ops)
		if !ok {
			in.warnf("sh", "expected shading name")
			break
		}
		in.runShading(name)

	case opSetCharWidth, opSetCacheDevice:
		// Type 3 glyph metrics; meaningless at page level.

	case opMarkPoint, opMarkPointProps, opBeginMarked, opBeginMarkedProps, opEndMarked:
		// Marked content carries no graphics.

	case opBeginCompat:
		in.compatLevel++
	case opEndCompat:
		if in.compatLevel > 0 {
			in.compatLevel--
		}

	case opUnknown:
		if in.compatLevel == 0 {
			in.warnf(ins.keyword, "unknown operator")
		}
	}
	return nil
}

func (in *interp) restoreOne() {
	saved := in.stack[len(in.stack)-1]
	in.stack = in.stack[:len(in.stack)-1]
	for in.state.clipDepth > saved.clipDepth {
		in.builder.PopClip()
		in.state.clipDepth--
	}
	in.state = saved
}

func (in *interp) ensurePath() {
	if in.path == nil {
		in.path = scene.NewPath()
	}
}

// continueSubpath reopens a subpath closed by h or re: the segment that
// follows starts from the retained current point.
func (in *interp) continueSubpath() {
	if in.afterClose {
		in.path.MoveTo(in.curX, in.curY)
		in.startX, in.startY = in.curX, in.curY
		in.afterClose = false
	}
}

func (in *interp) closeSubpath() {
	if in.path == nil || len(in.path.Verbs) == 0 {
		return
	}
	if in.path.Verbs[len(in.path.Verbs)-1] != scene.VerbClose {
		in.path.Close()
	}
	in.afterClose = true
}

// paintPath runs one path-painting operator: paint under the current
// clip, then intersect any pending clip, then discard the path. The
// pending clip applying after the paint is what makes W clip-then-paint
// atomic.
func (in *interp) paintPath(fill, stroke bool, rule scene.FillRule, closeFirst bool) {
	if in.path != nil && !in.path.Empty() {
		if closeFirst {
			in.closeSubpath()
		}
		if fill {
			in.emitFill(rule)
		}
		if stroke {
			in.emitStroke()
		}
	}

	if in.pending != clipNone {
		rule := scene.FillNonZero
		if in.pending == clipEvenOdd {
			rule = scene.FillEvenOdd
		}
		p := in.path
		if p == nil {
			p = scene.NewPath()
		}
		in.builder.PushClip(in.state.ctm, p, rule)
		in.state.clipDepth++
		in.pending = clipNone
	}

	in.path = nil
	in.hasCur = false
	in.afterClose = false
}

func (in *interp) emitFill(rule scene.FillRule) {
	st := &in.state
	if st.fillPattern != nil {
		in.builder.PushClip(st.ctm, in.path, rule)
		in.builder.DrawShading(st.fillPattern.matrix.Multiply(in.baseCTM), st.fillPattern.shading, st.fillAlpha)
		in.builder.PopClip()
		return
	}
	in.builder.FillPath(st.ctm, in.path, rule, st.fillColor.WithAlpha(st.fillAlpha))
}

func (in *interp) emitStroke() {
	st := &in.state
	color := st.strokeColor
	if st.strokePattern != nil {
		// Stroking with a shading pattern collapses to the ramp
		// midpoint; the geometry still reads correctly.
		color = st.strokePattern.shading.ColorAt(0.5)
	}
	in.builder.StrokePath(st.ctm, in.path, st.stroke, color.WithAlpha(st.strokeAlpha))
}

func (in *interp) setDash(ops []pdf.Object) {
	if len(ops) < 2 {
		in.warnf("d", "expected dash array and phase")
		return
	}
	arr, okA := ops[len(ops)-2].(pdf.Array)
	phase, okP := pdf.ToFloat(ops[len(ops)-1])
	if !okA || !okP {
		in.warnf("d", "expected dash array and phase")
		return
	}
	dash, ok := dashPattern(arr)
	if !ok {
		in.warnf("d", "invalid dash pattern")
		return
	}
	in.state.stroke.Dash = dash
	if dash == nil {
		phase = 0
	}
	in.state.stroke.DashPhase = phase
}

// dashPattern validates a dash array. An empty or all-zero array means
// solid; any negative entry rejects the pattern.
func dashPattern(arr pdf.Array) ([]float64, bool) {
	dash := make([]float64, 0, len(arr))
	allZero := true
	for _, item := range arr {
		v, ok := pdf.ToFloat(item)
		if !ok || v < 0 {
			return nil, false
		}
		if v > 0 {
			allZero = false
		}
		dash = append(dash, v)
	}
	if len(dash) == 0 || allZero {
		return nil, true
	}
	return dash, true
}

func (in *interp) setColorSpace(ops []pdf.Object, fill bool, kw string) {
	name, ok := nameTail(ops)
	if !ok {
		in.warnf(kw, "expected color space name")
		return
	}

	var space *colorSpace
	switch name {
	case "DeviceGray":
		space = deviceGray
	case "DeviceRGB":
		space = deviceRGB
	case "DeviceCMYK":
		space = deviceCMYK
	case "Pattern":
		space = patternSpace
	default:
		obj, err := in.findResource("ColorSpace", name)
		if err != nil {
			in.warnf(kw, "%v", err)
			return
		}
		space, err = parseColorSpace(in.doc, obj, 0)
		if err != nil {
			in.warnf(kw, "%s: %v", name, err)
		}
	}

	color := space.color(space.initial())
	if fill {
		in.state.fillSpace = space
		in.state.fillColor = color
		in.state.fillPattern = nil
	} else {
		in.state.strokeSpace = space
		in.state.strokeColor = color
		in.state.strokePattern = nil
	}
}

func (in *interp) setColor(ops []pdf.Object, fill bool, allowPattern bool, kw string) {
	st := &in.state
	space := st.fillSpace
	if !fill {
		space = st.strokeSpace
	}

	if allowPattern && len(ops) > 0 {
		if name, ok := ops[len(ops)-1].(pdf.Name); ok {
			in.setPattern(name, fill, kw)
			return
		}
	}
	if space.kind == spacePattern && space.under == nil {
		in.warnf(kw, "color components in a pattern space")
		return
	}

	n := space.comps
	var buf [32]float64
	if n > len(buf) {
		n = len(buf)
	}
	if !floatsTail(ops, buf[:n]) {
		in.warnf(kw, "expected %d color components", space.comps)
		return
	}

	color := space.color(buf[:n])
	if fill {
		st.fillColor = color
		st.fillPattern = nil
	} else {
		st.strokeColor = color
		st.strokePattern = nil
	}
}

func (in *interp) setPattern(name pdf.Name, fill bool, kw string) {
	obj, err := in.findResource("Pattern", name)
	if err != nil {
		in.warnf(kw, "%v", err)
		return
	}

	var dict pdf.Dictionary
	switch v := obj.(type) {
	case pdf.Dictionary:
		dict = v
	case pdf.Stream:
		dict = v.Dictionary
	default:
		in.warnf(kw, "pattern %s is not a dictionary", name)
		return
	}

	pt, _ := pdf.ToInt(in.doc.ResolveReference(dict.Get("PatternType")))
	switch pt {
	case 2:
		sh, err := parseShading(in.doc, dict.Get("Shading"))
		if err != nil {
			in.warnf(kw, "pattern %s: %v", name, err)
			in.setPatternFallback(fill)
			return
		}
		m := scene.Identity()
		if mv, ok := floatArray(in.doc, dict.Get("Matrix")); ok && len(mv) >= 6 {
			m = scene.Matrix{A: mv[0], B: mv[1], C: mv[2], D: mv[3], E: mv[4], F: mv[5]}
		}
		pp := &patternPaint{shading: sh, matrix: m}
		if fill {
			in.state.fillPattern = pp
		} else {
			in.state.strokePattern = pp
		}

	case 1:
		in.warnf(kw, "tiling pattern %s not supported", name)
		in.setPatternFallback(fill)

	default:
		in.warnf(kw, "pattern %s has invalid PatternType %d", name, pt)
		in.setPatternFallback(fill)
	}
}

// setPatternFallback paints where an unsupported pattern would: a mid
// gray keeps the covered content legible instead of dropping it.
func (in *interp) setPatternFallback(fill bool) {
	gray := scene.FromGray(0.5)
	if fill {
		in.state.fillColor = gray
		in.state.fillPattern = nil
	} else {
		in.state.strokeColor = gray
		in.state.strokePattern = nil
	}
}

func (in *interp) setFont(ops []pdf.Object) {
	if len(ops) < 2 {
		in.warnf("Tf", "expected font name and size")
		return
	}
	name, okN := ops[len(ops)-2].(pdf.Name)
	size, okS := pdf.ToFloat(ops[len(ops)-1])
	if !okN || !okS {
		in.warnf("Tf", "expected font name and size")
		return
	}
	in.state.text.size = size
	in.state.text.font = nil

	raw, err := in.findRaw("Font", name)
	if err != nil {
		in.warnf("Tf", "%v", err)
		return
	}
	f, err := in.fonts.Font(in.doc, raw)
	if err != nil {
		in.warnf("Tf", "font %s: %v", name, err)
		return
	}
	in.state.text.font = f
}

func (in *interp) applyExtGState(name pdf.Name) {
	obj, err := in.findResource("ExtGState", name)
	if err != nil {
		in.warnf("gs", "%v", err)
		return
	}
	dict, ok := obj.(pdf.Dictionary)
	if !ok {
		in.warnf("gs", "ExtGState %s is not a dictionary", name)
		return
	}

	if v, ok := pdf.ToFloat(in.doc.ResolveReference(dict.Get("LW"))); ok {
		in.state.stroke.Width = math.Abs(v)
	}
	if v, ok := pdf.ToInt(in.doc.ResolveReference(dict.Get("LC"))); ok {
		in.state.stroke.Cap = lineCapFor(int(v))
	}
	if v, ok := pdf.ToInt(in.doc.ResolveReference(dict.Get("LJ"))); ok {
		in.state.stroke.Join = lineJoinFor(int(v))
	}
	if v, ok := pdf.ToFloat(in.doc.ResolveReference(dict.Get("ML"))); ok && v >= 1 {
		in.state.stroke.MiterLimit = v
	}
	if arr, ok := in.doc.ResolveReference(dict.Get("D")).(pdf.Array); ok && len(arr) >= 2 {
		if dashArr, ok := in.doc.ResolveReference(arr[0]).(pdf.Array); ok {
			if dash, ok := dashPattern(dashArr); ok {
				in.state.stroke.Dash = dash
				in.state.stroke.DashPhase = 0
				if phase, ok := pdf.ToFloat(in.doc.ResolveReference(arr[1])); ok && dash != nil {
					in.state.stroke.DashPhase = phase
				}
			}
		}
	}
	if arr, ok := in.doc.ResolveReference(dict.Get("Font")).(pdf.Array); ok && len(arr) >= 2 {
		if f, err := in.fonts.Font(in.doc, arr[0]); err == nil {
			in.state.text.font = f
		} else {
			in.warnf("gs", "font: %v", err)
		}
		if size, ok := pdf.ToFloat(in.doc.ResolveReference(arr[1])); ok {
			in.state.text.size = size
		}
	}
	if v, ok := pdf.ToFloat(in.doc.ResolveReference(dict.Get("CA"))); ok {
		in.state.strokeAlpha = clampAlpha(v)
	}
	if v, ok := pdf.ToFloat(in.doc.ResolveReference(dict.Get("ca"))); ok {
		in.state.fillAlpha = clampAlpha(v)
	}

	if bm := blendModeName(in.doc, dict.Get("BM")); bm != "" && bm != "Normal" && bm != "Compatible" {
		if !in.warnedBlend {
			in.warnf("gs", "blend mode %s not supported, using source-over", bm)
			in.warnedBlend = true
		}
	}
	if sm := in.doc.ResolveReference(dict.Get("SMask")); sm != nil {
		if n, ok := sm.(pdf.Name); !ok || n != "None" {
			if _, isNull := sm.(pdf.Null); !isNull && !in.warnedSMask {
				in.warnf("gs", "soft masks not supported")
				in.warnedSMask = true
			}
		}
	}
}

// blendModeName reads BM, which is a name or an array of names in
// preference order.
func blendModeName(doc *pdf.Document, obj pdf.Object) pdf.Name {
	switch v := doc.ResolveReference(obj).(type) {
	case pdf.Name:
		return v
	case pdf.Array:
		if len(v) > 0 {
			if n, ok := doc.ResolveReference(v[0]).(pdf.Name); ok {
				return n
			}
		}
	}
	return ""
}

func (in *interp) runXObject(name pdf.Name) error {
	raw, err := in.findRaw("XObject", name)
	if err != nil {
		in.warnf("Do", "%v", err)
		return nil
	}
	obj, err := in.doc.Resolve(raw)
	if err != nil {
		in.warnf("Do", "XObject %s: %v", name, err)
		return nil
	}
	xobj, ok := obj.(pdf.Stream)
	if !ok {
		in.warnf("Do", "XObject %s is not a stream", name)
		return nil
	}

	sub, _ := xobj.Dictionary.GetName("Subtype")
	switch sub {
	case "Image":
		ref, hasRef := raw.(pdf.Reference)
		in.runImage(ref, hasRef, xobj)
		return nil
	case "Form":
		return in.runForm(xobj)
	default:
		in.warnf("Do", "XObject %s has unsupported subtype %s", name, sub)
		return nil
	}
}

func (in *interp) runImage(ref pdf.Reference, hasRef bool, xobj pdf.Stream) {
	var img *scene.Image
	if hasRef {
		img = in.images[ref]
	}
	if img == nil {
		decoded, err := pdf.DecodeImageStream(in.doc, xobj, in.resolveColorSpaceName)
		if err != nil {
			in.warnf("Do", "image: %v", err)
			return
		}
		img = &scene.Image{
			Width:       decoded.Width,
			Height:      decoded.Height,
			Pix:         decoded.Pix,
			IsMask:      decoded.IsMask,
			Interpolate: decoded.Interpolate,
		}
		if hasRef {
			in.images[ref] = img
		}
	}
	in.builder.DrawImage(in.state.ctm, img, in.state.fillColor, in.state.fillAlpha)
}

func (in *interp) runInlineImage(inl *inlineImage) {
	stream := pdf.Stream{Dictionary: inl.dict, Data: inl.data}
	decoded, err := pdf.DecodeImageStream(in.doc, stream, in.resolveColorSpaceName)
	if err != nil {
		in.warnf("BI", "inline image: %v", err)
		return
	}
	img := &scene.Image{
		Width:       decoded.Width,
		Height:      decoded.Height,
		Pix:         decoded.Pix,
		IsMask:      decoded.IsMask,
		Interpolate: decoded.Interpolate,
	}
	in.builder.DrawImage(in.state.ctm, img, in.state.fillColor, in.state.fillAlpha)
}

// runForm executes a form XObject: save everything, apply the form
// matrix, clip to its BBox, run its stream against its resources, then
// unwind even when the form left saves open.
func (in *interp) runForm(xobj pdf.Stream) error {
	if in.formDepth >= in.maxFormDepth {
		in.warnf("Do", "form nesting deeper than %d", in.maxFormDepth)
		return nil
	}
	data, err := xobj.Decode()
	if err != nil {
		in.warnf("Do", "form: %v", err)
		return nil
	}

	in.stack = append(in.stack, in.state)
	entryDepth := len(in.stack) - 1

	savedPath, savedHasCur, savedAfterClose := in.path, in.hasCur, in.afterClose
	savedCurX, savedCurY := in.curX, in.curY
	savedStartX, savedStartY := in.startX, in.startY
	savedPending := in.pending
	savedTm, savedTlm, savedInText := in.tm, in.tlm, in.inText
	savedBase := in.baseCTM
	savedResources := len(in.resources)

	if mv, ok := floatArray(in.doc, xobj.Dictionary.Get("Matrix")); ok && len(mv) >= 6 {
		m := scene.Matrix{A: mv[0], B: mv[1], C: mv[2], D: mv[3], E: mv[4], F: mv[5]}
		in.state.ctm = m.Multiply(in.state.ctm)
	}
	if bb, ok := floatArray(in.doc, xobj.Dictionary.Get("BBox")); ok && len(bb) >= 4 {
		x0, x1 := math.Min(bb[0], bb[2]), math.Max(bb[0], bb[2])
		y0, y1 := math.Min(bb[1], bb[3]), math.Max(bb[1], bb[3])
		clip := scene.NewPath()
		clip.Rect(x0, y0, x1-x0, y1-y0)
		in.builder.PushClip(in.state.ctm, clip, scene.FillNonZero)
		in.state.clipDepth++
	}
	if res, ok := in.doc.ResolveReference(xobj.Dictionary.Get("Resources")).(pdf.Dictionary); ok {
		in.resources = append(in.resources, res)
	}

	in.path, in.hasCur, in.afterClose = nil, false, false
	in.pending = clipNone
	in.tm, in.tlm, in.inText = scene.Identity(), scene.Identity(), false
	in.baseCTM = in.state.ctm
	in.formDepth++

	execErr := in.execStream(data)

	in.formDepth--
	in.resources = in.resources[:savedResources]

	// Unwind to the snapshot pushed above, popping clips as each
	// level goes, including the BBox clip.
	for len(in.stack) > entryDepth {
		in.restoreOne()
	}

	in.path, in.hasCur, in.afterClose = savedPath, savedHasCur, savedAfterClose
	in.curX, in.curY = savedCurX, savedCurY
	in.startX, in.startY = savedStartX, savedStartY
	in.pending = savedPending
	in.tm, in.tlm, in.inText = savedTm, savedTlm, savedInText
	in.baseCTM = savedBase

	return execErr
}

func (in *interp) runShading(name pdf.Name) {
	obj, err := in.findResource("Shading", name)
	if err != nil {
		in.warnf("sh", "%v", err)
		return
	}
	sh, err := parseShading(in.doc, obj)
	if err != nil {
		in.warnf("sh", "shading %s: %v", name, err)
		return
	}
	in.builder.DrawShading(in.state.ctm, sh, in.state.fillAlpha)
}

// findRaw looks a named resource up without resolving it, walking form
// scopes innermost first and then the page's inheritance chain.
func (in *interp) findRaw(category, name pdf.Name) (pdf.Object, error) {
	for i := len(in.resources) - 1; i >= 0; i-- {
		catDict, ok := in.doc.ResolveReference(in.resources[i].Get(string(category))).(pdf.Dictionary)
		if !ok {
			continue
		}
		if value := catDict.Get(string(name)); value != nil {
			return value, nil
		}
	}
	return in.page.FindRawResource(category, name)
}

func (in *interp) findResource(category, name pdf.Name) (pdf.Object, error) {
	raw, err := in.findRaw(category, name)
	if err != nil {
		return nil, err
	}
	resolved, err := in.doc.Resolve(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", pdf.ErrUndefinedResource, category, name, err)
	}
	return resolved, nil
}

func (in *interp) resolveColorSpaceName(name pdf.Name) (pdf.Object, error) {
	return in.findResource("ColorSpace", name)
}

func (in *interp) warnf(op, format string, args ...any) {
	if len(in.warnings) >= maxWarnings {
		in.dropped++
		return
	}
	in.warnings = append(in.warnings, Warning{Op: op, Message: fmt.Sprintf(format, args...)})
}

func lineCapFor(v int) scene.LineCap {
	switch v {
	case 1:
		return scene.CapRound
	case 2:
		return scene.CapSquare
	default:
		return scene.CapButt
	}
}

func lineJoinFor(v int) scene.LineJoin {
	switch v {
	case 1:
		return scene.JoinRound
	case 2:
		return scene.JoinBevel
	default:
		return scene.JoinMiter
	}
}

func clampAlpha(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// floatsTail fills buf from the last len(buf) operands. It reports
// false when there are too few or any is not a number.
func floatsTail(ops []pdf.Object, buf []float64) bool {
	n := len(buf)
	if len(ops) < n {
		return false
	}
	tail := ops[len(ops)-n:]
	for i, o := range tail {
		v, ok := pdf.ToFloat(o)
		if !ok {
			return false
		}
		buf[i] = v
	}
	return true
}

func nameTail(ops []pdf.Object) (pdf.Name, bool) {
	if len(ops) == 0 {
		return "", false
	}
	name, ok := ops[len(ops)-1].(pdf.Name)
	return name, ok
}

func stringTail(ops []pdf.Object) ([]byte, bool) {
	if len(ops) == 0 {
		return nil, false
	}
	s, ok := ops[len(ops)-1].(pdf.String)
	if !ok {
		return nil, false
	}
	return s.Value, true
}

func arrayTail(ops []pdf.Object) (pdf.Array, bool) {
	if len(ops) == 0 {
		return nil, false
	}
	arr, ok := ops[len(ops)-1].(pdf.Array)
	return arr, ok
}
