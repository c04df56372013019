package font

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const shiftJISLikeCMap = `%!PS-Adobe-3.0 Resource-CMap
/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CMapName /Test-H def
/CMapType 1 def
/WMode 0 def
2 begincodespacerange
<00> <80>
<8140> <9FFC>
endcodespacerange
1 begincidrange
<8140> <817E> 100
endcidrange
2 begincidchar
<41> 7
<8180> 500
endcidchar
endcmap
CMapName currentdict /CMap defineresource pop
end
end
`

func testCMap(t *testing.T, src string) *CMap {
	t.Helper()
	m, err := ParseCMap([]byte(src))
	if err != nil {
		t.Fatalf("ParseCMap: %v", err)
	}
	return m
}

func TestCMapNextCode(t *testing.T) {
	m := testCMap(t, shiftJISLikeCMap)

	if m.Name != "Test-H" {
		t.Errorf("Name = %q, want Test-H", m.Name)
	}
	if m.WMode != 0 {
		t.Errorf("WMode = %d, want 0", m.WMode)
	}

	input := []byte{0x41, 0x81, 0x50, 0x90, 0x20}
	var codes []uint32
	var sizes []int
	for i := 0; i < len(input); {
		code, n := m.NextCode(input[i:])
		codes = append(codes, code)
		sizes = append(sizes, n)
		i += n
	}

	// 0x41 is a one-byte code. 0x8150 is a two-byte code. 0x9020 fails
	// the second-byte check (0x20 < 0x40), so the shortest declared
	// length consumes 0x90 alone, then 0x20 matches the one-byte range.
	wantCodes := []uint32{0x41, 0x8150, 0x90, 0x20}
	wantSizes := []int{1, 2, 1, 1}
	if diff := cmp.Diff(wantCodes, codes); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantSizes, sizes); diff != "" {
		t.Errorf("sizes mismatch (-want +got):\n%s", diff)
	}
}

func TestCMapCID(t *testing.T) {
	m := testCMap(t, shiftJISLikeCMap)

	tests := []struct {
		code uint32
		n    int
		want uint32
	}{
		{0x8140, 2, 100},
		{0x8150, 2, 116},
		{0x817E, 2, 162},
		{0x41, 1, 7},
		{0x8180, 2, 500},
		{0x42, 1, 0},
		{0x9FFC, 2, 0},
	}
	for _, tt := range tests {
		if got := m.CID(tt.code, tt.n); got != tt.want {
			t.Errorf("CID(%#x, %d) = %d, want %d", tt.code, tt.n, got, tt.want)
		}
	}
}

func TestPredefinedIdentity(t *testing.T) {
	h, err := PredefinedCMap("Identity-H")
	if err != nil {
		t.Fatalf("Identity-H: %v", err)
	}
	if h.WMode != 0 {
		t.Errorf("Identity-H WMode = %d, want 0", h.WMode)
	}
	code, n := h.NextCode([]byte{0x12, 0x34})
	if code != 0x1234 || n != 2 {
		t.Errorf("NextCode = (%#x, %d), want (0x1234, 2)", code, n)
	}
	if cid := h.CID(0x1234, 2); cid != 0x1234 {
		t.Errorf("CID(0x1234) = %d, want identity", cid)
	}

	v, err := PredefinedCMap("Identity-V")
	if err != nil {
		t.Fatalf("Identity-V: %v", err)
	}
	if v.WMode != 1 {
		t.Errorf("Identity-V WMode = %d, want 1", v.WMode)
	}
}

func TestPredefinedCMapNames(t *testing.T) {
	// Registry CMaps degrade to two-byte identity segmentation.
	m, err := PredefinedCMap("UniJIS-UCS2-V")
	if err != nil {
		t.Fatalf("UniJIS-UCS2-V: %v", err)
	}
	if m.WMode != 1 {
		t.Errorf("WMode = %d, want 1", m.WMode)
	}
	if _, n := m.NextCode([]byte{0x30, 0x42}); n != 2 {
		t.Errorf("code length = %d, want 2", n)
	}

	if _, err := PredefinedCMap("NotACMap"); err == nil {
		t.Error("expected error for unknown CMap name")
	}
}

func TestCMapUseCMap(t *testing.T) {
	src := `/CIDInit /ProcSet findresource begin
begincmap
/Identity-H usecmap
1 begincidrange
<0100> <01FF> 9000
endcidrange
endcmap
end
`
	m := testCMap(t, src)

	// Inherited identity segmentation and mapping.
	code, n := m.NextCode([]byte{0x50, 0x51})
	if code != 0x5051 || n != 2 {
		t.Errorf("NextCode = (%#x, %d), want (0x5051, 2)", code, n)
	}
	if cid := m.CID(0x5051, 2); cid != 0x5051 {
		t.Errorf("CID(0x5051) = %d, want identity", cid)
	}
	// The layered range wins over the base.
	if cid := m.CID(0x0110, 2); cid != 9000+0x10 {
		t.Errorf("CID(0x0110) = %d, want %d", cid, 9000+0x10)
	}
}

func TestCMapWMode(t *testing.T) {
	src := `begincmap
/WMode 1 def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
endcmap
`
	m := testCMap(t, src)
	if m.WMode != 1 {
		t.Errorf("WMode = %d, want 1", m.WMode)
	}
}

func TestToUnicodeBFChar(t *testing.T) {
	src := `begincmap
1 begincodespacerange
<00> <FF>
endcodespacerange
3 beginbfchar
<01> <0041>
<02> <00480069>
<03> <D83DDE00>
endbfchar
endcmap
`
	m, err := parseToUnicode([]byte(src))
	if err != nil {
		t.Fatalf("parseToUnicode: %v", err)
	}
	want := map[uint32][]rune{
		0x01: {'A'},
		0x02: {'H', 'i'},
		0x03: {0x1F600},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("mapping mismatch (-want +got):\n%s", diff)
	}
}

func TestToUnicodeBFRange(t *testing.T) {
	src := `begincmap
2 beginbfrange
<10> <12> <0061>
<20> <21> [<0058> <00590059>]
endbfrange
endcmap
`
	m, err := parseToUnicode([]byte(src))
	if err != nil {
		t.Fatalf("parseToUnicode: %v", err)
	}
	want := map[uint32][]rune{
		0x10: {'a'},
		0x11: {'b'},
		0x12: {'c'},
		0x20: {'X'},
		0x21: {'Y', 'Y'},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("mapping mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCMapDamaged(t *testing.T) {
	// Unterminated sections and stray operands must not wedge the
	// parser or produce bogus entries.
	src := `begincmap
1 begincodespacerange
<00>
endcodespacerange
1 begincidrange
<00> <FF>
endcidrange
`
	m, err := ParseCMap([]byte(src))
	if err != nil {
		t.Fatalf("ParseCMap: %v", err)
	}
	if len(m.codespaces) != 0 {
		t.Errorf("got %d codespaces from odd entries, want 0", len(m.codespaces))
	}
	if len(m.ranges) != 0 {
		t.Errorf("got %d ranges from incomplete triple, want 0", len(m.ranges))
	}
}

func TestUndefinedGlyphErrorIdentity(t *testing.T) {
	if !errors.Is(ErrUndefinedGlyph, ErrUndefinedGlyph) {
		t.Fatal("ErrUndefinedGlyph must match itself")
	}
}
