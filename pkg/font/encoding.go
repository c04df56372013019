package font

import (
	"strconv"
	"strings"

	"github.com/novvoo/go-pdfrender/pkg/pdf"
)

// encodingTable maps a single-byte character code to an Adobe glyph
// name. Empty string means the code is undefined in the encoding.
type encodingTable [256]string

// baseEncoding returns the named base table. MacExpert is not carried;
// it falls back to Standard, which keeps layout reasonable for the rare
// documents that ask for it.
func baseEncoding(name string) *encodingTable {
	switch name {
	case "WinAnsiEncoding":
		return &winAnsiEncoding
	case "MacRomanEncoding":
		return &macRomanEncoding
	case "StandardEncoding", "MacExpertEncoding":
		return &standardEncoding
	default:
		return nil
	}
}

// applyDifferences overlays a /Differences array onto a copy of base.
// The array alternates integer codes and glyph names: each integer sets
// the code for the names that follow it.
func applyDifferences(base *encodingTable, diffs pdf.Array, doc *pdf.Document) *encodingTable {
	table := &encodingTable{}
	if base != nil {
		*table = *base
	}
	code := -1
	for _, item := range diffs {
		if doc != nil {
			item = doc.ResolveReference(item)
		}
		switch v := item.(type) {
		case pdf.Integer:
			code = int(v)
		case pdf.Name:
			if code >= 0 && code < 256 {
				table[code] = string(v)
				code++
			}
		}
	}
	return table
}

// glyphNameToRune maps an Adobe glyph name to its Unicode code point.
// Covers the names used by the carried encodings plus the uniXXXX /
// uXXXX[XX] conventions. Returns 0 for unknown names.
func glyphNameToRune(name string) rune {
	if name == "" || name == ".notdef" {
		return 0
	}
	if r, ok := aglMap[name]; ok {
		return r
	}
	if strings.HasPrefix(name, "uni") && len(name) >= 7 {
		if v, err := strconv.ParseUint(name[3:7], 16, 32); err == nil {
			return rune(v)
		}
	}
	if strings.HasPrefix(name, "u") && len(name) >= 5 && len(name) <= 7 {
		if v, err := strconv.ParseUint(name[1:], 16, 32); err == nil && v <= 0x10FFFF {
			return rune(v)
		}
	}
	// Some subset fonts use bare single-character names.
	if r := []rune(name); len(r) == 1 {
		return r[0]
	}
	return 0
}

var standardEncoding = encodingTable{
	0x20: "space", 0x21: "exclam", 0x22: "quotedbl", 0x23: "numbersign",
	0x24: "dollar", 0x25: "percent", 0x26: "ampersand", 0x27: "quoteright",
	0x28: "parenleft", 0x29: "parenright", 0x2A: "asterisk", 0x2B: "plus",
	0x2C: "comma", 0x2D: "hyphen", 0x2E: "period", 0x2F: "slash",
	0x30: "zero", 0x31: "one", 0x32: "two", 0x33: "three",
	0x34: "four", 0x35: "five", 0x36: "six", 0x37: "seven",
	0x38: "eight", 0x39: "nine", 0x3A: "colon", 0x3B: "semicolon",
	0x3C: "less", 0x3D: "equal", 0x3E: "greater", 0x3F: "question",
	0x40: "at", 0x41: "A", 0x42: "B", 0x43: "C", 0x44: "D", 0x45: "E",
	0x46: "F", 0x47: "G", 0x48: "H", 0x49: "I", 0x4A: "J", 0x4B: "K",
	0x4C: "L", 0x4D: "M", 0x4E: "N", 0x4F: "O", 0x50: "P", 0x51: "Q",
	0x52: "R", 0x53: "S", 0x54: "T", 0x55: "U", 0x56: "V", 0x57: "W",
	0x58: "X", 0x59: "Y", 0x5A: "Z",
	0x5B: "bracketleft", 0x5C: "backslash", 0x5D: "bracketright",
	0x5E: "asciicircum", 0x5F: "underscore", 0x60: "quoteleft",
	0x61: "a", 0x62: "b", 0x63: "c", 0x64: "d", 0x65: "e", 0x66: "f",
	0x67: "g", 0x68: "h", 0x69: "i", 0x6A: "j", 0x6B: "k", 0x6C: "l",
	0x6D: "m", 0x6E: "n", 0x6F: "o", 0x70: "p", 0x71: "q", 0x72: "r",
	0x73: "s", 0x74: "t", 0x75: "u", 0x76: "v", 0x77: "w", 0x78: "x",
	0x79: "y", 0x7A: "z",
	0x7B: "braceleft", 0x7C: "bar", 0x7D: "braceright", 0x7E: "asciitilde",
	0xA1: "exclamdown", 0xA2: "cent", 0xA3: "sterling", 0xA4: "fraction",
	0xA5: "yen", 0xA6: "florin", 0xA7: "section", 0xA8: "currency",
	0xA9: "quotesingle", 0xAA: "quotedblleft", 0xAB: "guillemotleft",
	0xAC: "guilsinglleft", 0xAD: "guilsinglright", 0xAE: "fi", 0xAF: "fl",
	0xB1: "endash", 0xB2: "dagger", 0xB3: "daggerdbl", 0xB4: "periodcentered",
	0xB6: "paragraph", 0xB7: "bullet", 0xB8: "quotesinglbase",
	0xB9: "quotedblbase", 0xBA: "quotedblright", 0xBB: "guillemotright",
	0xBC: "ellipsis", 0xBD: "perthousand", 0xBF: "questiondown",
	0xC1: "grave", 0xC2: "acute", 0xC3: "circumflex", 0xC4: "tilde",
	0xC5: "macron", 0xC6: "breve", 0xC7: "dotaccent", 0xC8: "dieresis",
	0xCA: "ring", 0xCB: "cedilla", 0xCD: "hungarumlaut", 0xCE: "ogonek",
	0xCF: "caron", 0xD0: "emdash",
	0xE1: "AE", 0xE3: "ordfeminine", 0xE8: "Lslash", 0xE9: "Oslash",
	0xEA: "OE", 0xEB: "ordmasculine",
	0xF1: "ae", 0xF5: "dotlessi", 0xF8: "lslash", 0xF9: "oslash",
	0xFA: "oe", 0xFB: "germandbls",
}

var winAnsiEncoding = encodingTable{
	0x20: "space", 0x21: "exclam", 0x22: "quotedbl", 0x23: "numbersign",
	0x24: "dollar", 0x25: "percent", 0x26: "ampersand", 0x27: "quotesingle",
	0x28: "parenleft", 0x29: "parenright", 0x2A: "asterisk", 0x2B: "plus",
	0x2C: "comma", 0x2D: "hyphen", 0x2E: "period", 0x2F: "slash",
	0x30: "zero", 0x31: "one", 0x32: "two", 0x33: "three",
	0x34: "four", 0x35: "five", 0x36: "six", 0x37: "seven",
	0x38: "eight", 0x39: "nine", 0x3A: "colon", 0x3B: "semicolon",
	0x3C: "less", 0x3D: "equal", 0x3E: "greater", 0x3F: "question",
	0x40: "at", 0x41: "A", 0x42: "B", 0x43: "C", 0x44: "D", 0x45: "E",
	0x46: "F", 0x47: "G", 0x48: "H", 0x49: "I", 0x4A: "J", 0x4B: "K",
	0x4C: "L", 0x4D: "M", 0x4E: "N", 0x4F: "O", 0x50: "P", 0x51: "Q",
	0x52: "R", 0x53: "S", 0x54: "T", 0x55: "U", 0x56: "V", 0x57: "W",
	0x58: "X", 0x59: "Y", 0x5A: "Z",
	0x5B: "bracketleft", 0x5C: "backslash", 0x5D: "bracketright",
	0x5E: "asciicircum", 0x5F: "underscore", 0x60: "grave",
	0x61: "a", 0x62: "b", 0x63: "c", 0x64: "d", 0x65: "e", 0x66: "f",
	0x67: "g", 0x68: "h", 0x69: "i", 0x6A: "j", 0x6B: "k", 0x6C: "l",
	0x6D: "m", 0x6E: "n", 0x6F: "o", 0x70: "p", 0x71: "q", 0x72: "r",
	0x73: "s", 0x74: "t", 0x75: "u", 0x76: "v", 0x77: "w", 0x78: "x",
	0x79: "y", 0x7A: "z",
	0x7B: "braceleft", 0x7C: "bar", 0x7D: "braceright", 0x7E: "asciitilde",
	0x80: "Euro", 0x82: "quotesinglbase", 0x83: "florin",
	0x84: "quotedblbase", 0x85: "ellipsis", 0x86: "dagger",
	0x87: "daggerdbl", 0x88: "circumflex", 0x89: "perthousand",
	0x8A: "Scaron", 0x8B: "guilsinglleft", 0x8C: "OE", 0x8E: "Zcaron",
	0x91: "quoteleft", 0x92: "quoteright", 0x93: "quotedblleft",
	0x94: "quotedblright", 0x95: "bullet", 0x96: "endash", 0x97: "emdash",
	0x98: "tilde", 0x99: "trademark", 0x9A: "scaron",
	0x9B: "guilsinglright", 0x9C: "oe", 0x9E: "zcaron", 0x9F: "Ydieresis",
	0xA0: "space", 0xA1: "exclamdown", 0xA2: "cent", 0xA3: "sterling",
	0xA4: "currency", 0xA5: "yen", 0xA6: "brokenbar", 0xA7: "section",
	0xA8: "dieresis", 0xA9: "copyright", 0xAA: "ordfeminine",
	0xAB: "guillemotleft", 0xAC: "logicalnot", 0xAD: "hyphen",
	0xAE: "registered", 0xAF: "macron", 0xB0: "degree", 0xB1: "plusminus",
	0xB2: "twosuperior", 0xB3: "threesuperior", 0xB4: "acute", 0xB5: "mu",
	0xB6: "paragraph", 0xB7: "periodcentered", 0xB8: "cedilla",
	0xB9: "onesuperior", 0xBA: "ordmasculine", 0xBB: "guillemotright",
	0xBC: "onequarter", 0xBD: "onehalf", 0xBE: "threequarters",
	0xBF: "questiondown",
	0xC0: "Agrave", 0xC1: "Aacute", 0xC2: "Acircumflex", 0xC3: "Atilde",
	0xC4: "Adieresis", 0xC5: "Aring", 0xC6: "AE", 0xC7: "Ccedilla",
	0xC8: "Egrave", 0xC9: "Eacute", 0xCA: "Ecircumflex", 0xCB: "Edieresis",
	0xCC: "Igrave", 0xCD: "Iacute", 0xCE: "Icircumflex", 0xCF: "Idieresis",
	0xD0: "Eth", 0xD1: "Ntilde", 0xD2: "Ograve", 0xD3: "Oacute",
	0xD4: "Ocircumflex", 0xD5: "Otilde", 0xD6: "Odieresis",
	0xD7: "multiply", 0xD8: "Oslash", 0xD9: "Ugrave", 0xDA: "Uacute",
	0xDB: "Ucircumflex", 0xDC: "Udieresis", 0xDD: "Yacute", 0xDE: "Thorn",
	0xDF: "germandbls",
	0xE0: "agrave", 0xE1: "aacute", 0xE2: "acircumflex", 0xE3: "atilde",
	0xE4: "adieresis", 0xE5: "aring", 0xE6: "ae", 0xE7: "ccedilla",
	0xE8: "egrave", 0xE9: "eacute", 0xEA: "ecircumflex", 0xEB: "edieresis",
	0xEC: "igrave", 0xED: "iacute", 0xEE: "icircumflex", 0xEF: "idieresis",
	0xF0: "eth", 0xF1: "ntilde", 0xF2: "ograve", 0xF3: "oacute",
	0xF4: "ocircumflex", 0xF5: "otilde", 0xF6: "odieresis", 0xF7: "divide",
	0xF8: "oslash", 0xF9: "ugrave", 0xFA: "uacute", 0xFB: "ucircumflex",
	0xFC: "udieresis", 0xFD: "yacute", 0xFE: "thorn", 0xFF: "ydieresis",
}

var macRomanEncoding = encodingTable{
	0x20: "space", 0x21: "exclam", 0x22: "quotedbl", 0x23: "numbersign",
	0x24: "dollar", 0x25: "percent", 0x26: "ampersand", 0x27: "quotesingle",
	0x28: "parenleft", 0x29: "parenright", 0x2A: "asterisk", 0x2B: "plus",
	0x2C: "comma", 0x2D: "hyphen", 0x2E: "period", 0x2F: "slash",
	0x30: "zero", 0x31: "one", 0x32: "two", 0x33: "three",
	0x34: "four", 0x35: "five", 0x36: "six", 0x37: "seven",
	0x38: "eight", 0x39: "nine", 0x3A: "colon", 0x3B: "semicolon",
	0x3C: "less", 0x3D: "equal", 0x3E: "greater", 0x3F: "question",
	0x40: "at", 0x41: "A", 0x42: "B", 0x43: "C", 0x44: "D", 0x45: "E",
	0x46: "F", 0x47: "G", 0x48: "H", 0x49: "I", 0x4A: "J", 0x4B: "K",
	0x4C: "L", 0x4D: "M", 0x4E: "N", 0x4F: "O", 0x50: "P", 0x51: "Q",
	0x52: "R", 0x53: "S", 0x54: "T", 0x55: "U", 0x56: "V", 0x57: "W",
	0x58: "X", 0x59: "Y", 0x5A: "Z",
	0x5B: "bracketleft", 0x5C: "backslash", 0x5D: "bracketright",
	0x5E: "asciicircum", 0x5F: "underscore", 0x60: "grave",
	0x61: "a", 0x62: "b", 0x63: "c", 0x64: "d", 0x65: "e", 0x66: "f",
	0x67: "g", 0x68: "h", 0x69: "i", 0x6A: "j", 0x6B: "k", 0x6C: "l",
	0x6D: "m", 0x6E: "n", 0x6F: "o", 0x70: "p", 0x71: "q", 0x72: "r",
	0x73: "s", 0x74: "t", 0x75: "u", 0x76: "v", 0x77: "w", 0x78: "x",
	0x79: "y", 0x7A: "z",
	0x7B: "braceleft", 0x7C: "bar", 0x7D: "braceright", 0x7E: "asciitilde",
	0x80: "Adieresis", 0x81: "Aring", 0x82: "Ccedilla", 0x83: "Eacute",
	0x84: "Ntilde", 0x85: "Odieresis", 0x86: "Udieresis", 0x87: "aacute",
	0x88: "agrave", 0x89: "acircumflex", 0x8A: "adieresis", 0x8B: "atilde",
	0x8C: "aring", 0x8D: "ccedilla", 0x8E: "eacute", 0x8F: "egrave",
	0x90: "ecircumflex", 0x91: "edieresis", 0x92: "iacute", 0x93: "igrave",
	0x94: "icircumflex", 0x95: "idieresis", 0x96: "ntilde", 0x97: "oacute",
	0x98: "ograve", 0x99: "ocircumflex", 0x9A: "odieresis", 0x9B: "otilde",
	0x9C: "uacute", 0x9D: "ugrave", 0x9E: "ucircumflex", 0x9F: "udieresis",
	0xA0: "dagger", 0xA1: "degree", 0xA2: "cent", 0xA3: "sterling",
	0xA4: "section", 0xA5: "bullet", 0xA6: "paragraph", 0xA7: "germandbls",
	0xA8: "registered", 0xA9: "copyright", 0xAA: "trademark", 0xAB: "acute",
	0xAC: "dieresis", 0xAD: "notequal", 0xAE: "AE", 0xAF: "Oslash",
	0xB0: "infinity", 0xB1: "plusminus", 0xB2: "lessequal",
	0xB3: "greaterequal", 0xB4: "yen", 0xB5: "mu", 0xB6: "partialdiff",
	0xB7: "summation", 0xB8: "product", 0xB9: "pi", 0xBA: "integral",
	0xBB: "ordfeminine", 0xBC: "ordmasculine", 0xBD: "Omega", 0xBE: "ae",
	0xBF: "oslash",
	0xC0: "questiondown", 0xC1: "exclamdown", 0xC2: "logicalnot",
	0xC3: "radical", 0xC4: "florin", 0xC5: "approxequal", 0xC6: "Delta",
	0xC7: "guillemotleft", 0xC8: "guillemotright", 0xC9: "ellipsis",
	0xCA: "space", 0xCB: "Agrave", 0xCC: "Atilde", 0xCD: "Otilde",
	0xCE: "OE", 0xCF: "oe",
	0xD0: "endash", 0xD1: "emdash", 0xD2: "quotedblleft",
	0xD3: "quotedblright", 0xD4: "quoteleft", 0xD5: "quoteright",
	0xD6: "divide", 0xD7: "lozenge", 0xD8: "ydieresis", 0xD9: "Ydieresis",
	0xDA: "fraction", 0xDB: "currency", 0xDC: "guilsinglleft",
	0xDD: "guilsinglright", 0xDE: "fi", 0xDF: "fl",
	0xE0: "daggerdbl", 0xE1: "periodcentered", 0xE2: "quotesinglbase",
	0xE3: "quotedblbase", 0xE4: "perthousand", 0xE5: "Acircumflex",
	0xE6: "Ecircumflex", 0xE7: "Aacute", 0xE8: "Edieresis", 0xE9: "Egrave",
	0xEA: "Iacute", 0xEB: "Icircumflex", 0xEC: "Idieresis", 0xED: "Igrave",
	0xEE: "Oacute", 0xEF: "Ocircumflex",
	0xF0: "apple", 0xF1: "Ograve", 0xF2: "Uacute", 0xF3: "Ucircumflex",
	0xF4: "Ugrave", 0xF5: "dotlessi", 0xF6: "circumflex", 0xF7: "tilde",
	0xF8: "macron", 0xF9: "breve", 0xFA: "dotaccent", 0xFB: "ring",
	0xFC: "cedilla", 0xFD: "hungarumlaut", 0xFE: "ogonek", 0xFF: "caron",
}

// symbolEncoding is the built-in encoding of the Symbol font.
var symbolEncoding = encodingTable{
	0x20: "space", 0x21: "exclam", 0x22: "universal", 0x23: "numbersign",
	0x24: "existential", 0x25: "percent", 0x26: "ampersand",
	0x27: "suchthat", 0x28: "parenleft", 0x29: "parenright",
	0x2A: "asteriskmath", 0x2B: "plus", 0x2C: "comma", 0x2D: "minus",
	0x2E: "period", 0x2F: "slash",
	0x30: "zero", 0x31: "one", 0x32: "two", 0x33: "three",
	0x34: "four", 0x35: "five", 0x36: "six", 0x37: "seven",
	0x38: "eight", 0x39: "nine", 0x3A: "colon", 0x3B: "semicolon",
	0x3C: "less", 0x3D: "equal", 0x3E: "greater", 0x3F: "question",
	0x40: "congruent", 0x41: "Alpha", 0x42: "Beta", 0x43: "Chi",
	0x44: "Delta", 0x45: "Epsilon", 0x46: "Phi", 0x47: "Gamma",
	0x48: "Eta", 0x49: "Iota", 0x4A: "theta1", 0x4B: "Kappa",
	0x4C: "Lambda", 0x4D: "Mu", 0x4E: "Nu", 0x4F: "Omicron",
	0x50: "Pi", 0x51: "Theta", 0x52: "Rho", 0x53: "Sigma", 0x54: "Tau",
	0x55: "Upsilon", 0x56: "sigma1", 0x57: "Omega", 0x58: "Xi",
	0x59: "Psi", 0x5A: "Zeta",
	0x5B: "bracketleft", 0x5C: "therefore", 0x5D: "bracketright",
	0x5E: "perpendicular", 0x5F: "underscore", 0x60: "radicalex",
	0x61: "alpha", 0x62: "beta", 0x63: "chi", 0x64: "delta",
	0x65: "epsilon", 0x66: "phi", 0x67: "gamma", 0x68: "eta",
	0x69: "iota", 0x6A: "phi1", 0x6B: "kappa", 0x6C: "lambda",
	0x6D: "mu", 0x6E: "nu", 0x6F: "omicron", 0x70: "pi", 0x71: "theta",
	0x72: "rho", 0x73: "sigma", 0x74: "tau", 0x75: "upsilon",
	0x76: "omega1", 0x77: "omega", 0x78: "xi", 0x79: "psi", 0x7A: "zeta",
	0x7B: "braceleft", 0x7C: "bar", 0x7D: "braceright", 0x7E: "similar",
	0xA1: "Upsilon1", 0xA2: "minute", 0xA3: "lessequal", 0xA4: "fraction",
	0xA5: "infinity", 0xA6: "florin", 0xA7: "club", 0xA8: "diamond",
	0xA9: "heart", 0xAA: "spade", 0xAB: "arrowboth", 0xAC: "arrowleft",
	0xAD: "arrowup", 0xAE: "arrowright", 0xAF: "arrowdown",
	0xB0: "degree", 0xB1: "plusminus", 0xB2: "second",
	0xB3: "greaterequal", 0xB4: "multiply", 0xB5: "proportional",
	0xB6: "partialdiff", 0xB7: "bullet", 0xB8: "divide", 0xB9: "notequal",
	0xBA: "equivalence", 0xBB: "approxequal", 0xBC: "ellipsis",
	0xBD: "arrowvertex", 0xBE: "arrowhorizex", 0xBF: "carriagereturn",
	0xC0: "aleph", 0xC1: "Ifraktur", 0xC2: "Rfraktur", 0xC3: "weierstrass",
	0xC4: "circlemultiply", 0xC5: "circleplus", 0xC6: "emptyset",
	0xC7: "intersection", 0xC8: "union", 0xC9: "propersuperset",
	0xCA: "reflexsuperset", 0xCB: "notsubset", 0xCC: "propersubset",
	0xCD: "reflexsubset", 0xCE: "element", 0xCF: "notelement",
	0xD0: "angle", 0xD1: "gradient", 0xD2: "registerserif",
	0xD3: "copyrightserif", 0xD4: "trademarkserif", 0xD5: "product",
	0xD6: "radical", 0xD7: "dotmath", 0xD8: "logicalnot",
	0xD9: "logicaland", 0xDA: "logicalor", 0xDB: "arrowdblboth",
	0xDC: "arrowdblleft", 0xDD: "arrowdblup", 0xDE: "arrowdblright",
	0xDF: "arrowdbldown",
	0xE0: "lozenge", 0xE1: "angleleft", 0xE2: "registersans",
	0xE3: "copyrightsans", 0xE4: "trademarksans", 0xE5: "summation",
	0xE6: "parenlefttp", 0xE7: "parenleftex", 0xE8: "parenleftbt",
	0xE9: "bracketlefttp", 0xEA: "bracketleftex", 0xEB: "bracketleftbt",
	0xEC: "bracelefttp", 0xED: "braceleftmid", 0xEE: "braceleftbt",
	0xEF: "braceex",
	0xF1: "angleright", 0xF2: "integral", 0xF3: "integraltp",
	0xF4: "integralex", 0xF5: "integralbt", 0xF6: "parenrighttp",
	0xF7: "parenrightex", 0xF8: "parenrightbt", 0xF9: "bracketrighttp",
	0xFA: "bracketrightex", 0xFB: "bracketrightbt", 0xFC: "bracerighttp",
	0xFD: "bracerightmid", 0xFE: "bracerightbt",
}

// zapfDingbatsEncoding covers the low half of the ZapfDingbats built-in
// encoding; the ornament names there are irregular and hand-listed. The
// high half is synthesized in init as the a101… run.
var zapfDingbatsEncoding = encodingTable{
	0x20: "space", 0x21: "a1", 0x22: "a2", 0x23: "a202", 0x24: "a3",
	0x25: "a4", 0x26: "a5", 0x27: "a119", 0x28: "a118", 0x29: "a117",
	0x2A: "a11", 0x2B: "a12", 0x2C: "a13", 0x2D: "a14", 0x2E: "a15",
	0x2F: "a16", 0x30: "a105", 0x31: "a17", 0x32: "a18", 0x33: "a19",
	0x34: "a20", 0x35: "a21", 0x36: "a22", 0x37: "a23", 0x38: "a24",
	0x39: "a25", 0x3A: "a26", 0x3B: "a27", 0x3C: "a28", 0x3D: "a6",
	0x3E: "a7", 0x3F: "a8", 0x40: "a9", 0x41: "a10", 0x42: "a29",
	0x43: "a30", 0x44: "a31", 0x45: "a32", 0x46: "a33", 0x47: "a34",
	0x48: "a35", 0x49: "a36", 0x4A: "a37", 0x4B: "a38", 0x4C: "a39",
	0x4D: "a40", 0x4E: "a41", 0x4F: "a42", 0x50: "a43", 0x51: "a44",
	0x52: "a45", 0x53: "a46", 0x54: "a47", 0x55: "a48", 0x56: "a49",
	0x57: "a50", 0x58: "a51", 0x59: "a52", 0x5A: "a53", 0x5B: "a54",
	0x5C: "a55", 0x5D: "a56", 0x5E: "a57", 0x5F: "a58", 0x60: "a59",
	0x61: "a60", 0x62: "a61", 0x63: "a62", 0x64: "a63", 0x65: "a64",
	0x66: "a65", 0x67: "a66", 0x68: "a67", 0x69: "a68", 0x6A: "a69",
	0x6B: "a70", 0x6C: "a71", 0x6D: "a72", 0x6E: "a73", 0x6F: "a74",
	0x70: "a203", 0x71: "a75", 0x72: "a204", 0x73: "a76", 0x74: "a77",
	0x75: "a78", 0x76: "a79", 0x77: "a81", 0x78: "a82", 0x79: "a83",
	0x7A: "a84", 0x7B: "a97", 0x7C: "a98", 0x7D: "a99", 0x7E: "a100",
}

func init() {
	// High half of ZapfDingbats: a101 at 0xA1, counting up.
	for c := 0xA1; c <= 0xFE; c++ {
		if zapfDingbatsEncoding[c] == "" {
			zapfDingbatsEncoding[c] = "a" + strconv.Itoa(c-0xA1+101)
		}
	}
}

// aglMap is the slice of the Adobe Glyph List covering every name the
// carried encodings use, so substitute faces can be addressed by rune.
var aglMap = map[string]rune{
	"space": 0x0020, "exclam": 0x0021, "quotedbl": 0x0022,
	"numbersign": 0x0023, "dollar": 0x0024, "percent": 0x0025,
	"ampersand": 0x0026, "quotesingle": 0x0027, "parenleft": 0x0028,
	"parenright": 0x0029, "asterisk": 0x002A, "plus": 0x002B,
	"comma": 0x002C, "hyphen": 0x002D, "period": 0x002E, "slash": 0x002F,
	"zero": 0x0030, "one": 0x0031, "two": 0x0032, "three": 0x0033,
	"four": 0x0034, "five": 0x0035, "six": 0x0036, "seven": 0x0037,
	"eight": 0x0038, "nine": 0x0039, "colon": 0x003A, "semicolon": 0x003B,
	"less": 0x003C, "equal": 0x003D, "greater": 0x003E, "question": 0x003F,
	"at": 0x0040, "bracketleft": 0x005B, "backslash": 0x005C,
	"bracketright": 0x005D, "asciicircum": 0x005E, "underscore": 0x005F,
	"grave": 0x0060, "braceleft": 0x007B, "bar": 0x007C,
	"braceright": 0x007D, "asciitilde": 0x007E,
	"exclamdown": 0x00A1, "cent": 0x00A2, "sterling": 0x00A3,
	"currency": 0x00A4, "yen": 0x00A5, "brokenbar": 0x00A6,
	"section": 0x00A7, "dieresis": 0x00A8, "copyright": 0x00A9,
	"ordfeminine": 0x00AA, "guillemotleft": 0x00AB, "logicalnot": 0x00AC,
	"registered": 0x00AE, "macron": 0x00AF, "degree": 0x00B0,
	"plusminus": 0x00B1, "twosuperior": 0x00B2, "threesuperior": 0x00B3,
	"acute": 0x00B4, "mu": 0x00B5, "paragraph": 0x00B6,
	"periodcentered": 0x00B7, "cedilla": 0x00B8, "onesuperior": 0x00B9,
	"ordmasculine": 0x00BA, "guillemotright": 0x00BB, "onequarter": 0x00BC,
	"onehalf": 0x00BD, "threequarters": 0x00BE, "questiondown": 0x00BF,
	"Agrave": 0x00C0, "Aacute": 0x00C1, "Acircumflex": 0x00C2,
	"Atilde": 0x00C3, "Adieresis": 0x00C4, "Aring": 0x00C5, "AE": 0x00C6,
	"Ccedilla": 0x00C7, "Egrave": 0x00C8, "Eacute": 0x00C9,
	"Ecircumflex": 0x00CA, "Edieresis": 0x00CB, "Igrave": 0x00CC,
	"Iacute": 0x00CD, "Icircumflex": 0x00CE, "Idieresis": 0x00CF,
	"Eth": 0x00D0, "Ntilde": 0x00D1, "Ograve": 0x00D2, "Oacute": 0x00D3,
	"Ocircumflex": 0x00D4, "Otilde": 0x00D5, "Odieresis": 0x00D6,
	"multiply": 0x00D7, "Oslash": 0x00D8, "Ugrave": 0x00D9,
	"Uacute": 0x00DA, "Ucircumflex": 0x00DB, "Udieresis": 0x00DC,
	"Yacute": 0x00DD, "Thorn": 0x00DE, "germandbls": 0x00DF,
	"agrave": 0x00E0, "aacute": 0x00E1, "acircumflex": 0x00E2,
	"atilde": 0x00E3, "adieresis": 0x00E4, "aring": 0x00E5, "ae": 0x00E6,
	"ccedilla": 0x00E7, "egrave": 0x00E8, "eacute": 0x00E9,
	"ecircumflex": 0x00EA, "edieresis": 0x00EB, "igrave": 0x00EC,
	"iacute": 0x00ED, "icircumflex": 0x00EE, "idieresis": 0x00EF,
	"eth": 0x00F0, "ntilde": 0x00F1, "ograve": 0x00F2, "oacute": 0x00F3,
	"ocircumflex": 0x00F4, "otilde": 0x00F5, "odieresis": 0x00F6,
	"divide": 0x00F7, "oslash": 0x00F8, "ugrave": 0x00F9,
	"uacute": 0x00FA, "ucircumflex": 0x00FB, "udieresis": 0x00FC,
	"yacute": 0x00FD, "thorn": 0x00FE, "ydieresis": 0x00FF,
	"OE": 0x0152, "oe": 0x0153, "Scaron": 0x0160, "scaron": 0x0161,
	"Ydieresis": 0x0178, "Zcaron": 0x017D, "zcaron": 0x017E,
	"Lslash": 0x0141, "lslash": 0x0142, "dotlessi": 0x0131,
	"florin": 0x0192, "circumflex": 0x02C6, "caron": 0x02C7,
	"breve": 0x02D8, "dotaccent": 0x02D9, "ring": 0x02DA,
	"ogonek": 0x02DB, "tilde": 0x02DC, "hungarumlaut": 0x02DD,
	"endash": 0x2013, "emdash": 0x2014, "quoteleft": 0x2018,
	"quoteright": 0x2019, "quotesinglbase": 0x201A, "quotedblleft": 0x201C,
	"quotedblright": 0x201D, "quotedblbase": 0x201E, "dagger": 0x2020,
	"daggerdbl": 0x2021, "bullet": 0x2022, "ellipsis": 0x2026,
	"perthousand": 0x2030, "guilsinglleft": 0x2039,
	"guilsinglright": 0x203A, "fraction": 0x2044, "Euro": 0x20AC,
	"trademark": 0x2122, "fi": 0xFB01, "fl": 0xFB02,
	"minus": 0x2212, "notequal": 0x2260, "infinity": 0x221E,
	"lessequal": 0x2264, "greaterequal": 0x2265, "partialdiff": 0x2202,
	"summation": 0x2211, "product": 0x220F, "integral": 0x222B,
	"radical": 0x221A, "approxequal": 0x2248, "lozenge": 0x25CA,
	"apple": 0xF8FF,
	"Alpha": 0x0391, "Beta": 0x0392, "Gamma": 0x0393, "Delta": 0x0394,
	"Epsilon": 0x0395, "Zeta": 0x0396, "Eta": 0x0397, "Theta": 0x0398,
	"Iota": 0x0399, "Kappa": 0x039A, "Lambda": 0x039B, "Mu": 0x039C,
	"Nu": 0x039D, "Xi": 0x039E, "Omicron": 0x039F, "Pi": 0x03A0,
	"Rho": 0x03A1, "Sigma": 0x03A3, "Tau": 0x03A4, "Upsilon": 0x03A5,
	"Phi": 0x03A6, "Chi": 0x03A7, "Psi": 0x03A8, "Omega": 0x03A9,
	"alpha": 0x03B1, "beta": 0x03B2, "gamma": 0x03B3, "delta": 0x03B4,
	"epsilon": 0x03B5, "zeta": 0x03B6, "eta": 0x03B7, "theta": 0x03B8,
	"iota": 0x03B9, "kappa": 0x03BA, "lambda": 0x03BB, "nu": 0x03BD,
	"xi": 0x03BE, "omicron": 0x03BF, "pi": 0x03C0, "rho": 0x03C1,
	"sigma1": 0x03C2, "sigma": 0x03C3, "tau": 0x03C4, "upsilon": 0x03C5,
	"phi": 0x03C6, "chi": 0x03C7, "psi": 0x03C8, "omega": 0x03C9,
	"theta1": 0x03D1, "Upsilon1": 0x03D2, "phi1": 0x03D5, "omega1": 0x03D6,
	"universal": 0x2200, "existential": 0x2203, "suchthat": 0x220B,
	"asteriskmath": 0x2217, "congruent": 0x2245, "therefore": 0x2234,
	"perpendicular": 0x22A5, "similar": 0x223C, "minute": 0x2032,
	"second": 0x2033, "proportional": 0x221D, "equivalence": 0x2261,
	"club": 0x2663, "diamond": 0x2666, "heart": 0x2665, "spade": 0x2660,
	"arrowboth": 0x2194, "arrowleft": 0x2190, "arrowup": 0x2191,
	"arrowright": 0x2192, "arrowdown": 0x2193, "aleph": 0x2135,
	"Ifraktur": 0x2111, "Rfraktur": 0x211C, "weierstrass": 0x2118,
	"circlemultiply": 0x2297, "circleplus": 0x2295, "emptyset": 0x2205,
	"intersection": 0x2229, "union": 0x222A, "propersuperset": 0x2283,
	"reflexsuperset": 0x2287, "notsubset": 0x2284, "propersubset": 0x2282,
	"reflexsubset": 0x2286, "element": 0x2208, "notelement": 0x2209,
	"angle": 0x2220, "gradient": 0x2207, "dotmath": 0x22C5,
	"logicaland": 0x2227, "logicalor": 0x2228, "arrowdblboth": 0x21D4,
	"arrowdblleft": 0x21D0, "arrowdblup": 0x21D1, "arrowdblright": 0x21D2,
	"arrowdbldown": 0x21D3, "angleleft": 0x2329, "angleright": 0x232A,
}
