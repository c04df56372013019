package font

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// substitute is a system font standing in for one the document did not
// embed. Glyph selection runs through the shaper so the substitute's
// own cmap decides, and outlines come from the same bytes via sfnt.
type substitute struct {
	face    *gofont.Face
	outline *sfntProgram
}

type missKey struct {
	name         string
	bold, italic bool
}

// substituteSet indexes candidate font files once and parses them
// lazily. Names that resolve to no usable file are remembered so
// repeated lookups stay cheap.
type substituteSet struct {
	mu     sync.Mutex
	shaper shaping.HarfbuzzShaper
	files  map[string]string
	byPath map[string]*substitute
	misses map[missKey]bool
}

func newSubstituteSet(dir string) *substituteSet {
	s := &substituteSet{
		files:  make(map[string]string),
		byPath: make(map[string]*substitute),
		misses: make(map[missKey]bool),
	}
	for _, d := range fontDirectories(dir) {
		s.scanDir(d)
	}
	return s
}

// fontDirectories returns the directories to index. An explicit dir or
// the PDFRENDER_FONT_DIR variable replaces the platform defaults.
func fontDirectories(dir string) []string {
	if dir != "" {
		return []string{dir}
	}
	if env := os.Getenv("PDFRENDER_FONT_DIR"); env != "" {
		return []string{env}
	}
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = "C:\\Windows"
		}
		return []string{filepath.Join(windir, "Fonts")}
	case "darwin":
		return []string{
			"/System/Library/Fonts",
			"/Library/Fonts",
			filepath.Join(os.Getenv("HOME"), "Library", "Fonts"),
		}
	default:
		return []string{
			"/usr/share/fonts",
			"/usr/local/share/fonts",
			filepath.Join(os.Getenv("HOME"), ".fonts"),
			filepath.Join(os.Getenv("HOME"), ".local", "share", "fonts"),
		}
	}
}

func (s *substituteSet) scanDir(dir string) {
	if _, err := os.Stat(dir); err != nil {
		return
	}
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".ttf" && ext != ".otf" {
			return nil
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		key := normalizeFontName(base)
		if _, taken := s.files[key]; !taken {
			s.files[key] = path
		}
		return nil
	})
}

// resolve finds a substitute for a font name, preferring a style match
// before falling back to the generic families the descriptor flags
// suggest.
func (s *substituteSet) resolve(name string, serif, fixedPitch, bold, italic bool) *substitute {
	key := missKey{name: normalizeFontName(name), bold: bold, italic: italic}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.misses[key] {
		return nil
	}
	for _, cand := range substituteCandidates(name, serif, fixedPitch, bold, italic) {
		path, ok := s.files[cand]
		if !ok {
			continue
		}
		if sub := s.load(path); sub != nil {
			return sub
		}
	}
	s.misses[key] = true
	return nil
}

// load parses a font file once. A file either parser rejects is
// recorded as unusable so it is not retried.
func (s *substituteSet) load(path string) *substitute {
	if sub, ok := s.byPath[path]; ok {
		return sub
	}
	var sub *substitute
	if data, err := os.ReadFile(path); err == nil {
		if face, err := gofont.ParseTTF(bytes.NewReader(data)); err == nil {
			if prog, err := parseSFNT(data); err == nil {
				sub = &substitute{face: face, outline: prog}
			}
		}
	}
	s.byPath[path] = sub
	return sub
}

// shapeRune maps one rune through the substitute's cmap. The shaper is
// not safe for concurrent use, hence the set lock. Shaping at size
// 1000*64 makes advances read back in 1/1000 em.
func (s *substituteSet) shapeRune(sub *substitute, r rune) (gid uint32, advance float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	input := shaping.Input{
		Text:      []rune{r},
		RunStart:  0,
		RunEnd:    1,
		Direction: di.DirectionLTR,
		Face:      sub.face,
		Size:      fixed.Int26_6(1000 * 64),
		Script:    language.LookupScript(r),
		Language:  language.DefaultLanguage(),
	}
	out := s.shaper.Shape(input)
	if len(out.Glyphs) == 0 {
		return 0, 0, false
	}
	g := out.Glyphs[0]
	if g.GlyphID == 0 {
		return 0, 0, false
	}
	return uint32(g.GlyphID), float64(g.XAdvance) / 64 / 1000, true
}

// normalizeFontName lowercases a BaseFont or file name and strips the
// separators PDF producers and font files disagree on.
func normalizeFontName(name string) string {
	name = stripSubsetTag(name)
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch r {
		case ' ', '-', '_', ',', '.':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var styleSuffixes = []string{
	"bolditalic", "boldoblique", "italicbold", "bold", "italic",
	"oblique", "regular", "roman", "psmt", "mt", "ps",
}

func trimStyleSuffix(name string) string {
	for changed := true; changed; {
		changed = false
		for _, suf := range styleSuffixes {
			if len(name) > len(suf) && strings.HasSuffix(name, suf) {
				name = strings.TrimSuffix(name, suf)
				changed = true
			}
		}
	}
	return name
}

var (
	sansFallbacks = []string{
		"arial", "helvetica", "dejavusans", "liberationsans",
		"notosans", "segoeui", "tahoma", "verdana",
	}
	serifFallbacks = []string{
		"timesnewroman", "times", "dejavuserif", "liberationserif",
		"notoserif", "georgia",
	}
	monoFallbacks = []string{
		"couriernew", "courier", "dejavusansmono", "liberationmono",
		"notosansmono", "consolas",
	}
)

// substituteCandidates lists index keys to try, most specific first:
// the exact name, styled variants of its family, then styled and plain
// generic fallbacks.
func substituteCandidates(name string, serif, fixedPitch, bold, italic bool) []string {
	norm := normalizeFontName(name)
	family := trimStyleSuffix(norm)

	var families []string
	seen := map[string]bool{}
	add := func(f string) {
		if f != "" && !seen[f] {
			seen[f] = true
			families = append(families, f)
		}
	}
	add(family)
	switch fam, _, _ := standardFamily(name); fam {
	case "Helvetica":
		add("arial")
		add("helvetica")
	case "Times":
		add("timesnewroman")
		add("times")
	case "Courier":
		add("couriernew")
		add("courier")
	case "Symbol":
		add("symbol")
	case "ZapfDingbats":
		add("zapfdingbats")
		add("dingbats")
	}
	switch {
	case fixedPitch:
		for _, f := range monoFallbacks {
			add(f)
		}
	case serif:
		for _, f := range serifFallbacks {
			add(f)
		}
	default:
		for _, f := range sansFallbacks {
			add(f)
		}
	}

	var out []string
	outSeen := map[string]bool{}
	push := func(n string) {
		if n != "" && !outSeen[n] {
			outSeen[n] = true
			out = append(out, n)
		}
	}
	push(norm)
	for _, f := range families {
		switch {
		case bold && italic:
			push(f + "bolditalic")
			push(f + "boldoblique")
		case bold:
			push(f + "bold")
		case italic:
			push(f + "italic")
			push(f + "oblique")
		}
	}
	for _, f := range families {
		push(f)
		push(f + "regular")
	}
	return out
}
