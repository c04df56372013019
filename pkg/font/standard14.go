package font

import "strings"

// builtinMetrics carries the advance widths of one standard font, keyed
// by glyph name in glyph space units (1/1000 em). Documents may omit the
// Widths array for these fonts, so the viewer has to know them.
type builtinMetrics struct {
	name         string
	widths       map[string]float64
	defaultWidth float64
	encoding     *encodingTable // built-in encoding; nil means Standard
	fixedPitch   bool
	serif        bool
}

// Width returns the advance for a glyph name in glyph space units.
func (m *builtinMetrics) Width(glyphName string) float64 {
	if m == nil {
		return 0
	}
	if w, ok := m.widths[glyphName]; ok {
		return w
	}
	return m.defaultWidth
}

// standardFontNames is the canonical set, keyed by PostScript name.
var standardFontNames = map[string]bool{
	"Courier": true, "Courier-Bold": true, "Courier-BoldOblique": true,
	"Courier-Oblique": true,
	"Helvetica": true, "Helvetica-Bold": true, "Helvetica-BoldOblique": true,
	"Helvetica-Oblique": true,
	"Times-Roman": true, "Times-Bold": true, "Times-BoldItalic": true,
	"Times-Italic": true,
	"Symbol": true, "ZapfDingbats": true,
}

// IsStandardName reports whether a BaseFont name (after subset-tag
// stripping) is one of the 14 standard fonts or a common alias for one.
func IsStandardName(name string) bool {
	if standardFontNames[stripSubsetTag(name)] {
		return true
	}
	family, _, _ := standardFamily(name)
	return family != ""
}

// stripSubsetTag removes the "ABCDEF+" prefix from a subset BaseFont
// name.
func stripSubsetTag(name string) string {
	if len(name) > 7 && name[6] == '+' {
		tag := name[:6]
		upper := true
		for i := 0; i < 6; i++ {
			if tag[i] < 'A' || tag[i] > 'Z' {
				upper = false
				break
			}
		}
		if upper {
			return name[7:]
		}
	}
	return name
}

// standardFamily maps a BaseFont name (including the usual aliases such
// as Arial and TimesNewRoman) onto one of the standard families plus any
// bold/italic encoded in the name itself.
func standardFamily(name string) (family string, bold, italic bool) {
	n := strings.ToLower(stripSubsetTag(name))
	n = strings.NewReplacer("-", "", "_", "", " ", "", ",", "").Replace(n)

	bold = strings.Contains(n, "bold")
	italic = strings.Contains(n, "italic") || strings.Contains(n, "oblique")

	switch {
	case strings.HasPrefix(n, "courier"), strings.HasPrefix(n, "couriernew"):
		return "Courier", bold, italic
	case strings.HasPrefix(n, "helvetica"), strings.HasPrefix(n, "arial"):
		return "Helvetica", bold, italic
	case strings.HasPrefix(n, "timesnewroman"), strings.HasPrefix(n, "times"):
		return "Times", bold, italic
	case strings.HasPrefix(n, "symbol"):
		return "Symbol", false, false
	case strings.HasPrefix(n, "zapfdingbats"), strings.HasPrefix(n, "dingbats"):
		return "ZapfDingbats", false, false
	}
	return "", false, false
}

// lookupStandard resolves a BaseFont name and style to builtin metrics,
// or nil when the name is not a standard font.
func lookupStandard(name string, bold, italic bool) *builtinMetrics {
	family, nameBold, nameItalic := standardFamily(name)
	if family == "" {
		return nil
	}
	bold = bold || nameBold
	italic = italic || nameItalic

	switch family {
	case "Courier":
		return &courierMetrics
	case "Helvetica":
		if bold {
			return &helveticaBoldMetrics
		}
		return &helveticaMetrics
	case "Times":
		switch {
		case bold && italic:
			return &timesBoldItalicMetrics
		case bold:
			return &timesBoldMetrics
		case italic:
			return &timesItalicMetrics
		default:
			return &timesRomanMetrics
		}
	case "Symbol":
		return &symbolMetrics
	case "ZapfDingbats":
		return &zapfDingbatsMetrics
	}
	return nil
}

// Courier is monospaced: every glyph advances 600.
var courierMetrics = builtinMetrics{
	name: "Courier", defaultWidth: 600, fixedPitch: true, serif: true,
}

// Oblique variants share the upright widths, so Helvetica needs two
// tables and Times four.

var helveticaMetrics = builtinMetrics{
	name: "Helvetica", defaultWidth: 556,
	widths: map[string]float64{
		"space": 278, "exclam": 278, "quotedbl": 355, "numbersign": 556,
		"dollar": 556, "percent": 889, "ampersand": 667, "quoteright": 222,
		"quotesingle": 191, "parenleft": 333, "parenright": 333,
		"asterisk": 389, "plus": 584, "comma": 278, "hyphen": 333,
		"period": 278, "slash": 278,
		"zero": 556, "one": 556, "two": 556, "three": 556, "four": 556,
		"five": 556, "six": 556, "seven": 556, "eight": 556, "nine": 556,
		"colon": 278, "semicolon": 278, "less": 584, "equal": 584,
		"greater": 584, "question": 556, "at": 1015,
		"A": 667, "B": 667, "C": 722, "D": 722, "E": 667, "F": 611,
		"G": 778, "H": 722, "I": 278, "J": 500, "K": 667, "L": 556,
		"M": 833, "N": 722, "O": 778, "P": 667, "Q": 778, "R": 722,
		"S": 667, "T": 611, "U": 722, "V": 667, "W": 944, "X": 667,
		"Y": 667, "Z": 611,
		"bracketleft": 278, "backslash": 278, "bracketright": 278,
		"asciicircum": 469, "underscore": 556, "quoteleft": 222, "grave": 333,
		"a": 556, "b": 556, "c": 500, "d": 556, "e": 556, "f": 278,
		"g": 556, "h": 556, "i": 222, "j": 222, "k": 500, "l": 222,
		"m": 833, "n": 556, "o": 556, "p": 556, "q": 556, "r": 333,
		"s": 500, "t": 278, "u": 556, "v": 500, "w": 722, "x": 500,
		"y": 500, "z": 500,
		"braceleft": 334, "bar": 260, "braceright": 334, "asciitilde": 584,
		"exclamdown": 333, "cent": 556, "sterling": 556, "fraction": 167,
		"yen": 556, "florin": 556, "section": 556, "currency": 556,
		"quotedblleft": 333, "guillemotleft": 556, "guilsinglleft": 333,
		"guilsinglright": 333, "fi": 500, "fl": 500, "endash": 556,
		"dagger": 556, "daggerdbl": 556, "periodcentered": 278,
		"paragraph": 537, "bullet": 350, "quotesinglbase": 222,
		"quotedblbase": 333, "quotedblright": 333, "guillemotright": 556,
		"ellipsis": 1000, "perthousand": 1000, "questiondown": 611,
		"acute": 333, "circumflex": 333, "tilde": 333, "macron": 333,
		"breve": 333, "dotaccent": 333, "dieresis": 333, "ring": 333,
		"cedilla": 333, "hungarumlaut": 333, "ogonek": 333, "caron": 333,
		"emdash": 1000, "AE": 1000, "ordfeminine": 370, "Lslash": 556,
		"Oslash": 778, "OE": 1000, "ordmasculine": 365, "ae": 889,
		"dotlessi": 278, "lslash": 222, "oslash": 611, "oe": 944,
		"germandbls": 611, "Euro": 556, "trademark": 1000,
		"copyright": 737, "registered": 737, "degree": 400,
		"plusminus": 584, "mu": 556, "multiply": 584, "divide": 584,
		"brokenbar": 260, "logicalnot": 584, "onequarter": 834,
		"onehalf": 834, "threequarters": 834, "onesuperior": 333,
		"twosuperior": 333, "threesuperior": 333, "Eth": 722, "eth": 556,
		"Thorn": 667, "thorn": 556, "Scaron": 667, "scaron": 500,
		"Zcaron": 611, "zcaron": 500, "Ydieresis": 667, "ydieresis": 500,
	},
}

var helveticaBoldMetrics = builtinMetrics{
	name: "Helvetica-Bold", defaultWidth: 611,
	widths: map[string]float64{
		"space": 278, "exclam": 333, "quotedbl": 474, "numbersign": 556,
		"dollar": 556, "percent": 889, "ampersand": 722, "quoteright": 278,
		"quotesingle": 238, "parenleft": 333, "parenright": 333,
		"asterisk": 389, "plus": 584, "comma": 278, "hyphen": 333,
		"period": 278, "slash": 278,
		"zero": 556, "one": 556, "two": 556, "three": 556, "four": 556,
		"five": 556, "six": 556, "seven": 556, "eight": 556, "nine": 556,
		"colon": 333, "semicolon": 333, "less": 584, "equal": 584,
		"greater": 584, "question": 611, "at": 975,
		"A": 722, "B": 722, "C": 722, "D": 722, "E": 667, "F": 611,
		"G": 778, "H": 722, "I": 278, "J": 556, "K": 722, "L": 611,
		"M": 833, "N": 722, "O": 778, "P": 667, "Q": 778, "R": 722,
		"S": 667, "T": 611, "U": 722, "V": 667, "W": 944, "X": 667,
		"Y": 667, "Z": 611,
		"bracketleft": 333, "backslash": 278, "bracketright": 333,
		"asciicircum": 584, "underscore": 556, "quoteleft": 278, "grave": 333,
		"a": 556, "b": 611, "c": 556, "d": 611, "e": 556, "f": 333,
		"g": 611, "h": 611, "i": 278, "j": 278, "k": 556, "l": 278,
		"m": 889, "n": 611, "o": 611, "p": 611, "q": 611, "r": 389,
		"s": 556, "t": 333, "u": 611, "v": 556, "w": 778, "x": 556,
		"y": 556, "z": 500,
		"braceleft": 389, "bar": 280, "braceright": 389, "asciitilde": 584,
		"exclamdown": 333, "cent": 556, "sterling": 556, "fraction": 167,
		"yen": 556, "florin": 556, "section": 556, "currency": 556,
		"quotedblleft": 500, "guillemotleft": 556, "guilsinglleft": 333,
		"guilsinglright": 333, "fi": 611, "fl": 611, "endash": 556,
		"dagger": 556, "daggerdbl": 556, "periodcentered": 278,
		"paragraph": 556, "bullet": 350, "quotesinglbase": 278,
		"quotedblbase": 500, "quotedblright": 500, "guillemotright": 556,
		"ellipsis": 1000, "perthousand": 1000, "questiondown": 611,
		"emdash": 1000, "AE": 1000, "Oslash": 778, "OE": 1000, "ae": 889,
		"oslash": 611, "oe": 944, "germandbls": 611, "Euro": 556,
		"trademark": 1000, "copyright": 737, "registered": 737,
		"degree": 400, "plusminus": 584, "mu": 611, "multiply": 584,
		"divide": 584, "Eth": 722, "eth": 611, "Thorn": 667, "thorn": 611,
	},
}

var timesRomanMetrics = builtinMetrics{
	name: "Times-Roman", defaultWidth: 500, serif: true,
	widths: map[string]float64{
		"space": 250, "exclam": 333, "quotedbl": 408, "numbersign": 500,
		"dollar": 500, "percent": 833, "ampersand": 778, "quoteright": 333,
		"quotesingle": 180, "parenleft": 333, "parenright": 333,
		"asterisk": 500, "plus": 564, "comma": 250, "hyphen": 333,
		"period": 250, "slash": 278,
		"zero": 500, "one": 500, "two": 500, "three": 500, "four": 500,
		"five": 500, "six": 500, "seven": 500, "eight": 500, "nine": 500,
		"colon": 278, "semicolon": 278, "less": 564, "equal": 564,
		"greater": 564, "question": 444, "at": 921,
		"A": 722, "B": 667, "C": 667, "D": 722, "E": 611, "F": 556,
		"G": 722, "H": 722, "I": 333, "J": 389, "K": 722, "L": 611,
		"M": 889, "N": 722, "O": 722, "P": 556, "Q": 722, "R": 667,
		"S": 556, "T": 611, "U": 722, "V": 722, "W": 944, "X": 722,
		"Y": 722, "Z": 611,
		"bracketleft": 333, "backslash": 278, "bracketright": 333,
		"asciicircum": 469, "underscore": 500, "quoteleft": 333, "grave": 333,
		"a": 444, "b": 500, "c": 444, "d": 500, "e": 444, "f": 333,
		"g": 500, "h": 500, "i": 278, "j": 278, "k": 500, "l": 278,
		"m": 778, "n": 500, "o": 500, "p": 500, "q": 500, "r": 333,
		"s": 389, "t": 278, "u": 500, "v": 500, "w": 722, "x": 500,
		"y": 500, "z": 444,
		"braceleft": 480, "bar": 200, "braceright": 480, "asciitilde": 541,
		"exclamdown": 333, "cent": 500, "sterling": 500, "fraction": 167,
		"yen": 500, "florin": 500, "section": 500, "currency": 500,
		"quotedblleft": 444, "guillemotleft": 500, "guilsinglleft": 333,
		"guilsinglright": 333, "fi": 556, "fl": 556, "endash": 500,
		"dagger": 500, "daggerdbl": 500, "periodcentered": 250,
		"paragraph": 453, "bullet": 350, "quotesinglbase": 333,
		"quotedblbase": 444, "quotedblright": 444, "guillemotright": 500,
		"ellipsis": 1000, "perthousand": 1000, "questiondown": 444,
		"emdash": 1000, "AE": 889, "ordfeminine": 276, "Lslash": 611,
		"Oslash": 722, "OE": 889, "ordmasculine": 310, "ae": 667,
		"dotlessi": 278, "lslash": 278, "oslash": 500, "oe": 722,
		"germandbls": 500, "Euro": 500, "trademark": 980,
		"copyright": 760, "registered": 760, "degree": 400,
		"plusminus": 564, "mu": 500, "multiply": 564, "divide": 564,
	},
}

var timesBoldMetrics = builtinMetrics{
	name: "Times-Bold", defaultWidth: 556, serif: true,
	widths: map[string]float64{
		"space": 250, "exclam": 333, "quotedbl": 555, "numbersign": 500,
		"dollar": 500, "percent": 1000, "ampersand": 833, "quoteright": 333,
		"quotesingle": 278, "parenleft": 333, "parenright": 333,
		"asterisk": 500, "plus": 570, "comma": 250, "hyphen": 333,
		"period": 250, "slash": 278,
		"zero": 500, "one": 500, "two": 500, "three": 500, "four": 500,
		"five": 500, "six": 500, "seven": 500, "eight": 500, "nine": 500,
		"colon": 333, "semicolon": 333, "less": 570, "equal": 570,
		"greater": 570, "question": 500, "at": 930,
		"A": 722, "B": 667, "C": 722, "D": 722, "E": 667, "F": 611,
		"G": 778, "H": 778, "I": 389, "J": 500, "K": 778, "L": 667,
		"M": 944, "N": 722, "O": 778, "P": 611, "Q": 778, "R": 722,
		"S": 556, "T": 667, "U": 722, "V": 722, "W": 1000, "X": 722,
		"Y": 722, "Z": 667,
		"bracketleft": 333, "backslash": 278, "bracketright": 333,
		"asciicircum": 581, "underscore": 500, "quoteleft": 333, "grave": 333,
		"a": 500, "b": 556, "c": 444, "d": 556, "e": 444, "f": 333,
		"g": 500, "h": 556, "i": 278, "j": 333, "k": 556, "l": 278,
		"m": 833, "n": 556, "o": 500, "p": 556, "q": 556, "r": 444,
		"s": 389, "t": 333, "u": 556, "v": 500, "w": 722, "x": 500,
		"y": 500, "z": 444,
		"braceleft": 394, "bar": 220, "braceright": 394, "asciitilde": 520,
		"fi": 556, "fl": 556, "endash": 500, "emdash": 1000,
		"bullet": 350, "ellipsis": 1000, "perthousand": 1000,
		"AE": 1000, "Oslash": 778, "OE": 1000, "ae": 722, "oslash": 500,
		"oe": 722, "germandbls": 556, "Euro": 500, "trademark": 1000,
		"copyright": 747, "registered": 747, "degree": 400,
		"plusminus": 570, "mu": 556, "multiply": 570, "divide": 570,
	},
}

var timesItalicMetrics = builtinMetrics{
	name: "Times-Italic", defaultWidth: 500, serif: true,
	widths: map[string]float64{
		"space": 250, "exclam": 333, "quotedbl": 420, "numbersign": 500,
		"dollar": 500, "percent": 833, "ampersand": 778, "quoteright": 333,
		"quotesingle": 214, "parenleft": 333, "parenright": 333,
		"asterisk": 500, "plus": 675, "comma": 250, "hyphen": 333,
		"period": 250, "slash": 278,
		"zero": 500, "one": 500, "two": 500, "three": 500, "four": 500,
		"five": 500, "six": 500, "seven": 500, "eight": 500, "nine": 500,
		"colon": 333, "semicolon": 333, "less": 675, "equal": 675,
		"greater": 675, "question": 500, "at": 920,
		"A": 611, "B": 611, "C": 667, "D": 722, "E": 611, "F": 611,
		"G": 722, "H": 722, "I": 333, "J": 444, "K": 667, "L": 556,
		"M": 833, "N": 667, "O": 722, "P": 611, "Q": 722, "R": 611,
		"S": 500, "T": 556, "U": 722, "V": 611, "W": 833, "X": 611,
		"Y": 556, "Z": 556,
		"bracketleft": 389, "backslash": 278, "bracketright": 389,
		"asciicircum": 422, "underscore": 500, "quoteleft": 333, "grave": 333,
		"a": 500, "b": 500, "c": 444, "d": 500, "e": 444, "f": 278,
		"g": 500, "h": 500, "i": 278, "j": 278, "k": 444, "l": 278,
		"m": 722, "n": 500, "o": 500, "p": 500, "q": 500, "r": 389,
		"s": 389, "t": 278, "u": 500, "v": 444, "w": 667, "x": 444,
		"y": 444, "z": 389,
		"braceleft": 400, "bar": 275, "braceright": 400, "asciitilde": 541,
		"fi": 500, "fl": 500, "endash": 500, "emdash": 889,
		"bullet": 350, "ellipsis": 889, "perthousand": 1000,
		"AE": 889, "Oslash": 722, "OE": 944, "ae": 667, "oslash": 500,
		"oe": 667, "germandbls": 500, "Euro": 500, "trademark": 980,
		"copyright": 760, "registered": 760, "degree": 400,
		"plusminus": 675, "mu": 500, "multiply": 675, "divide": 675,
	},
}

var timesBoldItalicMetrics = builtinMetrics{
	name: "Times-BoldItalic", defaultWidth: 500, serif: true,
	widths: map[string]float64{
		"space": 250, "exclam": 389, "quotedbl": 555, "numbersign": 500,
		"dollar": 500, "percent": 833, "ampersand": 778, "quoteright": 333,
		"quotesingle": 278, "parenleft": 333, "parenright": 333,
		"asterisk": 500, "plus": 570, "comma": 250, "hyphen": 333,
		"period": 250, "slash": 278,
		"zero": 500, "one": 500, "two": 500, "three": 500, "four": 500,
		"five": 500, "six": 500, "seven": 500, "eight": 500, "nine": 500,
		"colon": 333, "semicolon": 333, "less": 570, "equal": 570,
		"greater": 570, "question": 500, "at": 832,
		"A": 667, "B": 667, "C": 667, "D": 722, "E": 667, "F": 667,
		"G": 722, "H": 778, "I": 389, "J": 500, "K": 667, "L": 611,
		"M": 889, "N": 722, "O": 722, "P": 611, "Q": 722, "R": 667,
		"S": 556, "T": 611, "U": 722, "V": 667, "W": 889, "X": 667,
		"Y": 611, "Z": 611,
		"bracketleft": 333, "backslash": 278, "bracketright": 333,
		"asciicircum": 570, "underscore": 500, "quoteleft": 333, "grave": 333,
		"a": 500, "b": 500, "c": 444, "d": 500, "e": 444, "f": 333,
		"g": 500, "h": 556, "i": 278, "j": 278, "k": 500, "l": 278,
		"m": 778, "n": 556, "o": 500, "p": 500, "q": 500, "r": 389,
		"s": 389, "t": 278, "u": 556, "v": 444, "w": 667, "x": 500,
		"y": 444, "z": 389,
		"braceleft": 348, "bar": 220, "braceright": 348, "asciitilde": 570,
		"fi": 556, "fl": 556, "endash": 500, "emdash": 1000,
		"bullet": 350, "ellipsis": 1000, "perthousand": 1000,
		"AE": 944, "Oslash": 722, "OE": 944, "ae": 722, "oslash": 500,
		"oe": 722, "germandbls": 500, "Euro": 500, "trademark": 1000,
		"copyright": 747, "registered": 747, "degree": 400,
		"plusminus": 570, "mu": 576, "multiply": 570, "divide": 570,
	},
}

var symbolMetrics = builtinMetrics{
	name: "Symbol", defaultWidth: 600, encoding: &symbolEncoding,
	widths: map[string]float64{
		"space": 250, "exclam": 333, "universal": 713, "numbersign": 500,
		"existential": 549, "percent": 833, "ampersand": 778,
		"suchthat": 439, "parenleft": 333, "parenright": 333,
		"asteriskmath": 500, "plus": 549, "comma": 250, "minus": 549,
		"period": 250, "slash": 278,
		"zero": 500, "one": 500, "two": 500, "three": 500, "four": 500,
		"five": 500, "six": 500, "seven": 500, "eight": 500, "nine": 500,
		"colon": 278, "semicolon": 278, "less": 549, "equal": 549,
		"greater": 549, "question": 444, "congruent": 549,
		"Alpha": 722, "Beta": 667, "Chi": 722, "Delta": 612,
		"Epsilon": 611, "Phi": 763, "Gamma": 603, "Eta": 722,
		"Iota": 333, "theta1": 631, "Kappa": 722, "Lambda": 686,
		"Mu": 889, "Nu": 722, "Omicron": 722, "Pi": 768, "Theta": 741,
		"Rho": 556, "Sigma": 592, "Tau": 611, "Upsilon": 690,
		"sigma1": 439, "Omega": 768, "Xi": 645, "Psi": 795, "Zeta": 611,
		"bracketleft": 333, "therefore": 863, "bracketright": 333,
		"perpendicular": 658, "underscore": 500, "radicalex": 500,
		"alpha": 631, "beta": 549, "chi": 549, "delta": 494,
		"epsilon": 439, "phi": 521, "gamma": 411, "eta": 603,
		"iota": 329, "phi1": 603, "kappa": 549, "lambda": 549,
		"mu": 576, "nu": 521, "omicron": 549, "pi": 549, "theta": 521,
		"rho": 549, "sigma": 603, "tau": 439, "upsilon": 576,
		"omega1": 713, "omega": 686, "xi": 493, "psi": 686, "zeta": 494,
		"braceleft": 480, "bar": 200, "braceright": 480, "similar": 549,
	},
}

var zapfDingbatsMetrics = builtinMetrics{
	name: "ZapfDingbats", defaultWidth: 788,
	encoding: &zapfDingbatsEncoding,
	widths: map[string]float64{
		"space": 278, "a1": 974, "a2": 961, "a202": 974, "a3": 980,
		"a4": 719, "a5": 789, "a119": 790, "a118": 791, "a117": 690,
		"a11": 960, "a12": 939, "a13": 549, "a14": 855, "a15": 911,
		"a16": 933, "a105": 911, "a17": 945, "a18": 974, "a19": 755,
		"a20": 846, "a21": 762, "a22": 761, "a23": 571, "a24": 677,
		"a25": 763, "a26": 760, "a27": 759, "a28": 754, "a6": 494,
		"a7": 552, "a8": 537, "a9": 577, "a10": 692, "a29": 786,
		"a30": 788, "a31": 788, "a32": 790, "a33": 793, "a34": 794,
		"a35": 816, "a36": 823, "a37": 789, "a38": 841, "a39": 823,
		"a40": 833, "a41": 816, "a42": 831, "a43": 923, "a44": 744,
		"a45": 723, "a46": 749, "a47": 790, "a48": 792, "a49": 695,
		"a50": 776, "a51": 768, "a52": 792, "a53": 759, "a54": 707,
		"a55": 708, "a56": 682, "a57": 701, "a58": 826, "a59": 815,
		"a60": 789, "a61": 789, "a62": 707, "a63": 687, "a64": 696,
		"a65": 689, "a66": 786, "a67": 787, "a68": 713, "a69": 791,
		"a70": 785, "a71": 791, "a72": 873, "a73": 761, "a74": 762,
		"a203": 762, "a75": 759, "a204": 759, "a76": 892, "a77": 892,
		"a78": 788, "a79": 784, "a81": 438, "a82": 138, "a83": 277,
		"a84": 415, "a97": 392, "a98": 392, "a99": 668, "a100": 668,
	},
}
