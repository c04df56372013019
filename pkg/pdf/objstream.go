package pdf

import (
	"fmt"
)

// objectStream holds a decoded /ObjStm container and its offset table
type objectStream struct {
	numbers []int
	offsets []int64
	first   int64
	data    []byte
}

// getCompressedObject loads an object stored inside an object stream
func (d *Document) getCompressedObject(streamNum, idx int) (Object, error) {
	os, err := d.loadObjectStream(streamNum)
	if err != nil {
		return nil, err
	}

	if idx < 0 || idx >= len(os.offsets) {
		return nil, fmt.Errorf("%w: object stream %d has no slot %d", ErrDanglingReference, streamNum, idx)
	}

	start := os.first + os.offsets[idx]
	if start < 0 || start > int64(len(os.data)) {
		return nil, fmt.Errorf("%w: object stream %d slot %d out of bounds", ErrMalformedDocument, streamNum, idx)
	}

	// Objects in a stream carry no obj/endobj wrapper and contain no
	// streams of their own. Strings inside are already covered by the
	// container's decryption.
	p := NewParserFromBytes(os.data[start:])
	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("%w: object stream %d slot %d: %v", ErrMalformedDocument, streamNum, idx, err)
	}
	return obj, nil
}

// loadObjectStream fetches, decodes and indexes an object stream, caching
// the result for later slots
func (d *Document) loadObjectStream(num int) (*objectStream, error) {
	d.mu.RLock()
	cached, ok := d.objStreams[num]
	d.mu.RUnlock()
	if ok {
		return cached, nil
	}

	obj, err := d.GetObject(num, 0)
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(Stream)
	if !ok {
		return nil, fmt.Errorf("%w: object %d is not an object stream", ErrMalformedDocument, num)
	}

	// GetObject already decrypted the container, so only filters remain
	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot decode object stream %d: %v", ErrMalformedDocument, num, err)
	}

	n, ok := stream.Dictionary.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("%w: object stream %d missing N", ErrMalformedDocument, num)
	}
	first, ok := stream.Dictionary.GetInt("First")
	if !ok || first < 0 || first > int64(len(data)) {
		return nil, fmt.Errorf("%w: object stream %d missing First", ErrMalformedDocument, num)
	}

	os := &objectStream{
		numbers: make([]int, 0, n),
		offsets: make([]int64, 0, n),
		first:   first,
		data:    data,
	}

	// The header is N pairs of object number and relative offset
	lex := NewLexerFromBytes(data[:first])
	for i := int64(0); i < n; i++ {
		numTok, err := lex.NextToken()
		if err != nil || numTok.Type != TokenInteger {
			return nil, fmt.Errorf("%w: invalid object stream %d header", ErrMalformedDocument, num)
		}
		offTok, err := lex.NextToken()
		if err != nil || offTok.Type != TokenInteger {
			return nil, fmt.Errorf("%w: invalid object stream %d header", ErrMalformedDocument, num)
		}
		os.numbers = append(os.numbers, int(numTok.Value.(int64)))
		os.offsets = append(os.offsets, offTok.Value.(int64))
	}

	d.mu.Lock()
	d.objStreams[num] = os
	d.mu.Unlock()
	return os, nil
}
