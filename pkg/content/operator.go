package content

// operator enumerates every content stream operator the interpreter
// understands. Keywords are mapped to operator values once during
// scanning; the interpreter loop dispatches on the value, never on the
// keyword string.
type operator uint8

const (
	opUnknown operator = iota

	// Graphics state
	opSave         // q
	opRestore      // Q
	opConcat       // cm
	opLineWidth    // w
	opLineCap      // J
	opLineJoin     // j
	opMiterLimit   // M
	opDash         // d
	opRenderIntent // ri
	opFlatness     // i
	opExtGState    // gs

	// Path construction
	opMoveTo    // m
	opLineTo    // l
	opCurveTo   // c
	opCurveToV  // v
	opCurveToY  // y
	opClosePath // h
	opRect      // re

	// Path painting
	opStroke              // S
	opCloseStroke         // s
	opFill                // f, F
	opFillEvenOdd         // f*
	opFillStroke          // B
	opFillStrokeEvenOdd   // B*
	opCloseFillStroke     // b
	opCloseFillStrokeEO   // b*
	opEndPath             // n
	opClipNonZero         // W
	opClipEvenOdd         // W*

	// Color
	opStrokeSpace // CS
	opFillSpace   // cs
	opStrokeColor  // SC
	opStrokeColorN // SCN
	opFillColor    // sc
	opFillColorN   // scn
	opStrokeGray   // G
	opFillGray     // g
	opStrokeRGB    // RG
	opFillRGB      // rg
	opStrokeCMYK   // K
	opFillCMYK     // k

	// Text objects and state
	opBeginText      // BT
	opEndText        // ET
	opCharSpacing    // Tc
	opWordSpacing    // Tw
	opHorizScaling   // Tz
	opLeading        // TL
	opFont           // Tf
	opRenderMode     // Tr
	opRise           // Ts

	// Text positioning and showing
	opTextMove           // Td
	opTextMoveSetLeading // TD
	opTextMatrix         // Tm
	opTextNextLine       // T*
	opShowText           // Tj
	opShowTextAdjusted   // TJ
	opNextLineShow       // '
	opNextLineSetShow    // "

	// XObjects, images, shadings
	opXObject    // Do
	opBeginImage // BI
	opShadingFill // sh

	// Type 3 glyph metrics
	opSetCharWidth     // d0
	opSetCacheDevice   // d1

	// Marked content and compatibility
	opMarkPoint      // MP
	opMarkPointProps // DP
	opBeginMarked    // BMC
	opBeginMarkedProps // BDC
	opEndMarked      // EMC
	opBeginCompat    // BX
	opEndCompat      // EX
)

// operatorTable maps content stream keywords to operator values. ID and
// EI never reach the table: the scanner consumes both while reading an
// inline image started by BI.
var operatorTable = map[string]operator{
	"q":   opSave,
	"Q":   opRestore,
	"cm":  opConcat,
	"w":   opLineWidth,
	"J":   opLineCap,
	"j":   opLineJoin,
	"M":   opMiterLimit,
	"d":   opDash,
	"ri":  opRenderIntent,
	"i":   opFlatness,
	"gs":  opExtGState,
	"m":   opMoveTo,
	"l":   opLineTo,
	"c":   opCurveTo,
	"v":   opCurveToV,
	"y":   opCurveToY,
	"h":   opClosePath,
	"re":  opRect,
	"S":   opStroke,
	"s":   opCloseStroke,
	"f":   opFill,
	"F":   opFill,
	"f*":  opFillEvenOdd,
	"B":   opFillStroke,
	"B*":  opFillStrokeEvenOdd,
	"b":   opCloseFillStroke,
	"b*":  opCloseFillStrokeEO,
	"n":   opEndPath,
	"W":   opClipNonZero,
	"W*":  opClipEvenOdd,
	"CS":  opStrokeSpace,
	"cs":  opFillSpace,
	"SC":  opStrokeColor,
	"SCN": opStrokeColorN,
	"sc":  opFillColor,
	"scn": opFillColorN,
	"G":   opStrokeGray,
	"g":   opFillGray,
	"RG":  opStrokeRGB,
	"rg":  opFillRGB,
	"K":   opStrokeCMYK,
	"k":   opFillCMYK,
	"BT":  opBeginText,
	"ET":  opEndText,
	"Tc":  opCharSpacing,
	"Tw":  opWordSpacing,
	"Tz":  opHorizScaling,
	"TL":  opLeading,
	"Tf":  opFont,
	"Tr":  opRenderMode,
	"Ts":  opRise,
	"Td":  opTextMove,
	"TD":  opTextMoveSetLeading,
	"Tm":  opTextMatrix,
	"T*":  opTextNextLine,
	"Tj":  opShowText,
	"TJ":  opShowTextAdjusted,
	"'":   opNextLineShow,
	"\"":  opNextLineSetShow,
	"Do":  opXObject,
	"BI":  opBeginImage,
	"sh":  opShadingFill,
	"d0":  opSetCharWidth,
	"d1":  opSetCacheDevice,
	"MP":  opMarkPoint,
	"DP":  opMarkPointProps,
	"BMC": opBeginMarked,
	"BDC": opBeginMarkedProps,
	"EMC": opEndMarked,
	"BX":  opBeginCompat,
	"EX":  opEndCompat,
}
