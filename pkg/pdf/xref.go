package pdf

import (
	"bytes"
	"fmt"
	"strconv"
)

// XRefEntry represents a cross-reference table entry
type XRefEntry struct {
	Offset     int64
	Generation int
	InUse      bool

	// Compressed entries live inside an object stream
	Compressed   bool
	StreamObjNum int
	StreamIdx    int
}

// maxXRefSubsection caps a single subsection so a corrupt count cannot
// make the loader allocate without bound.
const maxXRefSubsection = 1 << 24

// findStartXRef locates the startxref offset near the end of the file
func (d *Document) findStartXRef() (int64, error) {
	searchLen := int64(1024)
	if searchLen > int64(len(d.data)) {
		searchLen = int64(len(d.data))
	}

	tail := d.data[int64(len(d.data))-searchLen:]
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("%w: startxref not found", ErrMalformedDocument)
	}

	lex := NewLexerFromBytes(tail[idx+len("startxref"):])
	tok, err := lex.NextToken()
	if err != nil || tok.Type != TokenInteger {
		return 0, fmt.Errorf("%w: invalid startxref offset", ErrMalformedDocument)
	}

	offset := tok.Value.(int64)
	if offset < 0 || offset >= int64(len(d.data)) {
		return 0, fmt.Errorf("%w: startxref offset %d out of range", ErrMalformedDocument, offset)
	}
	return offset, nil
}

// parseXRefSection parses the cross-reference section at offset, following
// Prev and XRefStm links. Entries already present win, so the newest
// update shadows older ones. visited breaks reference cycles between
// sections, which occur in damaged files.
func (d *Document) parseXRefSection(offset int64, visited map[int64]bool) error {
	if offset < 0 || offset >= int64(len(d.data)) {
		return fmt.Errorf("%w: xref offset %d out of range", ErrMalformedDocument, offset)
	}
	if visited[offset] {
		return nil
	}
	visited[offset] = true

	lex := NewLexerFromBytes(d.data[offset:])
	tok, err := lex.NextToken()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	if tok.Type != TokenXRef {
		return d.parseXRefStream(offset, visited)
	}
	return d.parseXRefTable(lex, visited)
}

// parseXRefTable parses a classic xref table positioned after the xref
// keyword, then its trailer dictionary
func (d *Document) parseXRefTable(lex *Lexer, visited map[int64]bool) error {
	for {
		tok, err := lex.NextToken()
		if err != nil {
			return fmt.Errorf("%w: truncated xref table: %v", ErrMalformedDocument, err)
		}

		if tok.Type == TokenTrailer {
			p := NewParser(lex)
			obj, err := p.ParseObject()
			if err != nil {
				return fmt.Errorf("%w: invalid trailer: %v", ErrMalformedDocument, err)
			}
			trailer, ok := obj.(Dictionary)
			if !ok {
				return fmt.Errorf("%w: trailer is not a dictionary", ErrMalformedDocument)
			}
			return d.finishXRefSection(trailer, visited)
		}

		if tok.Type != TokenInteger {
			return fmt.Errorf("%w: unexpected token in xref table at %d", ErrMalformedDocument, tok.Pos)
		}
		start := int(tok.Value.(int64))

		countTok, err := lex.NextToken()
		if err != nil || countTok.Type != TokenInteger {
			return fmt.Errorf("%w: invalid xref subsection header", ErrMalformedDocument)
		}
		count := int(countTok.Value.(int64))
		if start < 0 || count < 0 || count > maxXRefSubsection {
			return fmt.Errorf("%w: invalid xref subsection %d %d", ErrMalformedDocument, start, count)
		}

		for i := 0; i < count; i++ {
			offTok, err := lex.NextToken()
			if err != nil || offTok.Type != TokenInteger {
				return fmt.Errorf("%w: invalid xref entry offset", ErrMalformedDocument)
			}
			genTok, err := lex.NextToken()
			if err != nil || genTok.Type != TokenInteger {
				return fmt.Errorf("%w: invalid xref entry generation", ErrMalformedDocument)
			}
			kindTok, err := lex.NextToken()
			if err != nil {
				return fmt.Errorf("%w: invalid xref entry kind", ErrMalformedDocument)
			}
			kind, _ := kindTok.Value.(string)
			if kindTok.Type != TokenKeyword || (kind != "n" && kind != "f") {
				return fmt.Errorf("%w: invalid xref entry kind at %d", ErrMalformedDocument, kindTok.Pos)
			}

			num := start + i
			if _, exists := d.xref[num]; exists {
				continue
			}
			// Free entries are recorded too, they shadow older live
			// entries when an incremental update deletes an object
			d.xref[num] = &XRefEntry{
				Offset:     offTok.Value.(int64),
				Generation: int(genTok.Value.(int64)),
				InUse:      kind == "n",
			}
		}
	}
}

// parseXRefStream parses a cross-reference stream at offset (PDF 1.5+)
func (d *Document) parseXRefStream(offset int64, visited map[int64]bool) error {
	p := NewParserFromBytes(d.data[offset:])
	_, _, obj, err := p.ParseIndirectObject()
	if err != nil {
		return fmt.Errorf("%w: invalid xref stream: %v", ErrMalformedDocument, err)
	}
	stream, ok := obj.(Stream)
	if !ok {
		return fmt.Errorf("%w: object at xref offset is not a stream", ErrMalformedDocument)
	}

	// Cross-reference streams are never encrypted, so plain Decode is safe
	data, err := stream.Decode()
	if err != nil {
		return fmt.Errorf("%w: cannot decode xref stream: %v", ErrMalformedDocument, err)
	}

	dict := stream.Dictionary
	size, ok := dict.GetInt("Size")
	if !ok {
		return fmt.Errorf("%w: xref stream missing Size", ErrMalformedDocument)
	}

	wArr, ok := dict.GetArray("W")
	if !ok || len(wArr) < 3 {
		return fmt.Errorf("%w: xref stream missing W", ErrMalformedDocument)
	}
	var w [3]int
	for i := 0; i < 3; i++ {
		v, ok := ToInt(wArr[i])
		if !ok || v < 0 || v > 8 {
			return fmt.Errorf("%w: invalid xref stream W", ErrMalformedDocument)
		}
		w[i] = int(v)
	}
	entryLen := w[0] + w[1] + w[2]
	if entryLen == 0 {
		return fmt.Errorf("%w: empty xref stream entries", ErrMalformedDocument)
	}

	// Index defaults to the whole table
	index := []int64{0, size}
	if idxArr, ok := dict.GetArray("Index"); ok && len(idxArr)%2 == 0 {
		index = index[:0]
		for _, item := range idxArr {
			v, ok := ToInt(item)
			if !ok {
				return fmt.Errorf("%w: invalid xref stream Index", ErrMalformedDocument)
			}
			index = append(index, v)
		}
	}

	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start := int(index[i])
		count := int(index[i+1])
		if start < 0 || count < 0 || count > maxXRefSubsection {
			return fmt.Errorf("%w: invalid xref stream subsection", ErrMalformedDocument)
		}

		for j := 0; j < count; j++ {
			if pos+entryLen > len(data) {
				// Truncated table, keep what was read so far
				return d.finishXRefSection(dict, visited)
			}

			f := [3]int64{1, 0, 0} // type defaults to 1 when W[0] is 0
			for k := 0; k < 3; k++ {
				if w[k] == 0 {
					continue
				}
				f[k] = 0
				for b := 0; b < w[k]; b++ {
					f[k] = f[k]<<8 | int64(data[pos])
					pos++
				}
			}

			num := start + j
			if _, exists := d.xref[num]; exists {
				continue
			}

			switch f[0] {
			case 0:
				d.xref[num] = &XRefEntry{InUse: false, Generation: int(f[2])}
			case 1:
				d.xref[num] = &XRefEntry{Offset: f[1], Generation: int(f[2]), InUse: true}
			case 2:
				d.xref[num] = &XRefEntry{
					InUse:        true,
					Compressed:   true,
					StreamObjNum: int(f[1]),
					StreamIdx:    int(f[2]),
				}
			default:
				// Unknown entry types are reserved, treated as absent
			}
		}
	}

	return d.finishXRefSection(dict, visited)
}

// finishXRefSection merges trailer keys and follows XRefStm and Prev links
func (d *Document) finishXRefSection(trailer Dictionary, visited map[int64]bool) error {
	if d.trailer == nil {
		d.trailer = make(Dictionary)
	}
	for key, value := range trailer {
		if _, exists := d.trailer[key]; !exists {
			d.trailer[key] = value
		}
	}

	// Hybrid-reference files carry a parallel xref stream. It is parsed
	// after the table so table entries keep priority.
	if stm, ok := trailer.GetInt("XRefStm"); ok {
		if err := d.parseXRefSection(stm, visited); err != nil {
			return err
		}
	}

	if prev, ok := trailer.GetInt("Prev"); ok {
		return d.parseXRefSection(prev, visited)
	}
	return nil
}

// reconstructXRef rebuilds the object table by scanning the whole file for
// "num gen obj" markers. Later definitions win, matching the incremental
// update order. Used when the cross-reference data is missing or broken.
func (d *Document) reconstructXRef() error {
	d.xref = make(map[int]*XRefEntry)

	marker := []byte("obj")
	for i := 1; i+len(marker) <= len(d.data); i++ {
		if !bytes.HasPrefix(d.data[i:], marker) {
			continue
		}
		// The keyword must stand alone between whitespace
		if !isWhitespace(d.data[i-1]) {
			continue
		}
		after := i + len(marker)
		if after < len(d.data) && !isWhitespace(d.data[after]) && !isDelimiter(d.data[after]) {
			continue
		}

		num, gen, start, ok := scanObjHeader(d.data, i)
		if !ok {
			continue
		}
		// Later occurrences overwrite earlier ones
		d.xref[num] = &XRefEntry{Offset: start, Generation: gen, InUse: true}
	}

	if len(d.xref) == 0 {
		return fmt.Errorf("%w: no objects found during recovery scan", ErrMalformedDocument)
	}

	if d.trailer == nil {
		d.trailer = make(Dictionary)
	}
	if err := d.recoverTrailer(); err != nil {
		return err
	}
	return nil
}

// scanObjHeader walks backwards from the " obj" marker at idx and reads
// the generation and object numbers preceding it
func scanObjHeader(data []byte, idx int) (num, gen int, start int64, ok bool) {
	readBack := func(end int) (int, int, bool) {
		i := end
		for i > 0 && isWhitespace(data[i-1]) {
			i--
		}
		digitsEnd := i
		for i > 0 && data[i-1] >= '0' && data[i-1] <= '9' {
			i--
		}
		if i == digitsEnd {
			return 0, 0, false
		}
		v, err := strconv.Atoi(string(data[i:digitsEnd]))
		if err != nil {
			return 0, 0, false
		}
		return v, i, true
	}

	gen, genStart, ok := readBack(idx)
	if !ok {
		return 0, 0, 0, false
	}
	num, numStart, ok := readBack(genStart)
	if !ok {
		return 0, 0, 0, false
	}
	// Object numbers are written at the start of a line
	if numStart > 0 && !isWhitespace(data[numStart-1]) && !isDelimiter(data[numStart-1]) {
		return 0, 0, 0, false
	}
	return num, gen, int64(numStart), true
}

// recoverTrailer fills in the trailer Root during recovery. The trailer
// dictionaries near the end of the file are tried first, then the objects
// themselves are searched for a catalog.
func (d *Document) recoverTrailer() error {
	if _, ok := d.trailer["Root"]; ok {
		return nil
	}

	// Search trailer dictionaries from the end of the file
	search := d.data
	for idx := bytes.LastIndex(search, []byte("trailer")); idx >= 0; idx = bytes.LastIndex(search[:idx], []byte("trailer")) {
		p := NewParserFromBytes(search[idx+len("trailer"):])
		obj, err := p.ParseObject()
		if err != nil {
			continue
		}
		if trailer, ok := obj.(Dictionary); ok {
			if root := trailer.Get("Root"); root != nil {
				for key, value := range trailer {
					if _, exists := d.trailer[key]; !exists {
						d.trailer[key] = value
					}
				}
				return nil
			}
		}
	}

	// No usable trailer, look for the catalog object directly
	for num := range d.xref {
		obj, err := d.GetObject(num, d.xref[num].Generation)
		if err != nil {
			continue
		}
		dict, ok := obj.(Dictionary)
		if !ok {
			continue
		}
		if typ, _ := dict.GetName("Type"); typ == "Catalog" {
			d.trailer["Root"] = Reference{ObjectNumber: num, GenerationNumber: d.xref[num].Generation}
			return nil
		}
	}

	return fmt.Errorf("%w: no document catalog found", ErrMalformedDocument)
}
