package pdf

import (
	"bytes"
	"fmt"
	"io"
)

// Parser parses PDF objects from tokens
type Parser struct {
	lexer   *Lexer
	tokens  []Token
	pos     int
	source  []byte
	resolve func(Reference) (Object, error)
}

// NewParser creates a new parser for the given lexer
func NewParser(lexer *Lexer) *Parser {
	return &Parser{
		lexer:  lexer,
		tokens: make([]Token, 0),
		pos:    0,
	}
}

// NewParserFromBytes creates a new parser from byte slice
func NewParserFromBytes(data []byte) *Parser {
	p := NewParser(NewLexerFromBytes(data))
	p.source = data
	return p
}

// SetResolver installs a callback for resolving indirect references that
// the parser meets where a direct value is needed, such as stream Length.
func (p *Parser) SetResolver(fn func(Reference) (Object, error)) {
	p.resolve = fn
}

// nextToken gets the next token, buffering for lookahead
func (p *Parser) nextToken() (Token, error) {
	if p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++
		return tok, nil
	}

	tok, err := p.lexer.NextToken()
	if err != nil {
		return Token{}, err
	}

	p.tokens = append(p.tokens, tok)
	p.pos++
	return tok, nil
}

// peekToken peeks at the next token without consuming it
func (p *Parser) peekToken() (Token, error) {
	tok, err := p.nextToken()
	if err != nil {
		return Token{}, err
	}
	p.pos--
	return tok, nil
}

// peekTokenN peeks at the nth token ahead (0-indexed)
func (p *Parser) peekTokenN(n int) (Token, error) {
	for i := len(p.tokens); i <= p.pos+n; i++ {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return Token{}, err
		}
		p.tokens = append(p.tokens, tok)
	}
	return p.tokens[p.pos+n], nil
}

// ParseObject parses a single PDF object
func (p *Parser) ParseObject() (Object, error) {
	tok, err := p.nextToken()
	if err != nil {
		return nil, err
	}

	switch tok.Type {
	case TokenEOF:
		return nil, io.EOF

	case TokenNull:
		return Null{}, nil

	case TokenBoolean:
		return Boolean(tok.Value.(bool)), nil

	case TokenInteger:
		// Check if this is a reference (num gen R)
		next1, err := p.peekToken()
		if err == nil && next1.Type == TokenInteger {
			next2, err := p.peekTokenN(1)
			if err == nil && next2.Type == TokenRef {
				p.nextToken() // consume generation number
				p.nextToken() // consume R
				return Reference{
					ObjectNumber:     int(tok.Value.(int64)),
					GenerationNumber: int(next1.Value.(int64)),
				}, nil
			}
		}
		return Integer(tok.Value.(int64)), nil

	case TokenReal:
		return Real(tok.Value.(float64)), nil

	case TokenString:
		return String{Value: tok.Value.([]byte), IsHex: false}, nil

	case TokenHexString:
		return String{Value: tok.Value.([]byte), IsHex: true}, nil

	case TokenName:
		return Name(tok.Value.(string)), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDictionary()

	default:
		return nil, fmt.Errorf("unexpected token type %d at position %d", tok.Type, tok.Pos)
	}
}

// parseArray parses a PDF array [...]
func (p *Parser) parseArray() (Array, error) {
	var arr Array

	for {
		tok, err := p.peekToken()
		if err != nil {
			return nil, err
		}

		if tok.Type == TokenArrayEnd {
			p.nextToken()
			return arr, nil
		}

		obj, err := p.ParseObject()
		if err != nil {
			return nil, err
		}

		arr = append(arr, obj)
	}
}

// parseDictionary parses a PDF dictionary <<...>>
func (p *Parser) parseDictionary() (Dictionary, error) {
	dict := make(Dictionary)

	for {
		tok, err := p.peekToken()
		if err != nil {
			return nil, err
		}

		if tok.Type == TokenDictEnd {
			p.nextToken()
			return dict, nil
		}

		// Key must be a name
		keyTok, err := p.nextToken()
		if err != nil {
			return nil, err
		}
		if keyTok.Type != TokenName {
			return nil, fmt.Errorf("expected name as dictionary key at position %d", keyTok.Pos)
		}
		key := Name(keyTok.Value.(string))

		// Parse value
		value, err := p.ParseObject()
		if err != nil {
			return nil, err
		}

		dict[key] = value
	}
}

// ParseIndirectObject parses an indirect object definition (num gen obj ... endobj)
func (p *Parser) ParseIndirectObject() (int, int, Object, error) {
	// Object number
	numTok, err := p.nextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	if numTok.Type != TokenInteger {
		return 0, 0, nil, fmt.Errorf("expected object number at position %d", numTok.Pos)
	}
	objNum := int(numTok.Value.(int64))

	// Generation number
	genTok, err := p.nextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	if genTok.Type != TokenInteger {
		return 0, 0, nil, fmt.Errorf("expected generation number at position %d", genTok.Pos)
	}
	genNum := int(genTok.Value.(int64))

	// obj keyword
	objTok, err := p.nextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	if objTok.Type != TokenObjStart {
		return 0, 0, nil, fmt.Errorf("expected 'obj' keyword at position %d", objTok.Pos)
	}

	// Parse the object
	obj, err := p.ParseObject()
	if err != nil {
		return 0, 0, nil, err
	}

	// Check for stream
	nextTok, err := p.peekToken()
	if err == nil && nextTok.Type == TokenStreamStart {
		p.nextToken() // consume stream keyword

		// Get stream dictionary
		dict, ok := obj.(Dictionary)
		if !ok {
			return 0, 0, nil, fmt.Errorf("stream must have dictionary at position %d", nextTok.Pos)
		}

		// Read stream data
		streamData, err := p.readStreamData(dict)
		if err != nil {
			return 0, 0, nil, err
		}

		obj = Stream{
			Dictionary: dict,
			Data:       streamData,
		}

		// Consume endstream unless the rescue scan already swallowed it
		endTok, err := p.peekToken()
		if err == nil && endTok.Type == TokenStreamEnd {
			p.nextToken()
		}
	}

	// endobj keyword. A missing one is common in damaged files and the
	// object itself is already complete, so it is not treated as fatal.
	endTok, err := p.peekToken()
	if err == nil && endTok.Type == TokenObjEnd {
		p.nextToken()
	}

	return objNum, genNum, obj, nil
}

// readStreamData reads the raw stream data
func (p *Parser) readStreamData(dict Dictionary) ([]byte, error) {
	// Skip the newline after 'stream'
	line, err := p.lexer.ReadLine()
	if err != nil {
		return nil, err
	}
	// If line is not empty, it's part of the stream data
	var prefix []byte
	if len(line) > 0 {
		prefix = line
	}

	// Get stream length, resolving an indirect value when possible
	lengthObj := dict.Get("Length")
	if ref, ok := lengthObj.(Reference); ok && p.resolve != nil {
		if resolved, err := p.resolve(ref); err == nil {
			lengthObj = resolved
		}
	}

	length := int64(-1)
	switch l := lengthObj.(type) {
	case Integer:
		length = int64(l)
	case Real:
		length = int64(l)
	}

	if p.source != nil && len(prefix) == 0 {
		return p.readStreamFromSource(length)
	}

	if length < 0 {
		// Length missing or an unresolvable reference
		return p.readStreamUntilEnd(prefix)
	}

	// Read exactly length bytes
	data, err := p.lexer.ReadBytes(int(length))
	if err != nil {
		return nil, err
	}

	if len(prefix) > 0 {
		data = append(prefix, data...)
	}

	return data, nil
}

// readStreamFromSource slices stream data out of the backing buffer. The
// declared length is trusted only when endstream actually follows it;
// otherwise the data is rescanned, which repairs wrong Length values.
func (p *Parser) readStreamFromSource(length int64) ([]byte, error) {
	start := p.lexer.Position()

	if length >= 0 && start+length <= int64(len(p.source)) &&
		endstreamFollows(p.source, start+length) {
		if err := p.lexer.SkipBytes(length); err != nil {
			return nil, err
		}
		data := make([]byte, length)
		copy(data, p.source[start:start+length])
		return data, nil
	}

	idx := bytes.Index(p.source[start:], []byte("endstream"))
	if idx < 0 {
		return nil, fmt.Errorf("unterminated stream at position %d", start)
	}

	end := start + int64(idx)
	// The EOL before endstream is a separator, not stream data
	if end > start && p.source[end-1] == '\n' {
		end--
	}
	if end > start && p.source[end-1] == '\r' {
		end--
	}

	data := make([]byte, end-start)
	copy(data, p.source[start:end])

	if err := p.lexer.SkipBytes(end - start); err != nil {
		return nil, err
	}
	return data, nil
}

// endstreamFollows reports whether the endstream keyword starts at or just
// after pos, with only whitespace in between.
func endstreamFollows(data []byte, pos int64) bool {
	i := pos
	for i < int64(len(data)) && isWhitespace(data[i]) {
		i++
	}
	return bytes.HasPrefix(data[i:], []byte("endstream"))
}

// readStreamUntilEnd reads stream data until 'endstream' is found
func (p *Parser) readStreamUntilEnd(prefix []byte) ([]byte, error) {
	var buf bytes.Buffer
	if len(prefix) > 0 {
		buf.Write(prefix)
		buf.WriteByte('\n')
	}

	endMarker := []byte("endstream")

	for {
		line, err := p.lexer.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		// Check if this line contains endstream
		if idx := bytes.Index(line, endMarker); idx >= 0 {
			// Add data before endstream
			if idx > 0 {
				buf.Write(line[:idx])
			}
			break
		}

		buf.Write(line)
		buf.WriteByte('\n')
	}

	// Remove trailing whitespace
	data := buf.Bytes()
	for len(data) > 0 && (data[len(data)-1] == '\n' || data[len(data)-1] == '\r') {
		data = data[:len(data)-1]
	}

	return data, nil
}
