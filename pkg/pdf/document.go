package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"
)

// Document represents a parsed PDF document. The object table is immutable
// after loading and object access is safe for concurrent use, so one
// Document can serve several page renders at a time.
type Document struct {
	data    []byte
	Version string

	trailer  Dictionary
	root     Dictionary
	info     Dictionary
	xref     map[int]*XRefEntry
	security *SecurityHandler

	// The object number of the Encrypt dictionary, whose strings are
	// stored in the clear. -1 when direct or absent.
	encryptObjNum int

	mu         sync.RWMutex
	objects    map[int]Object
	objStreams map[int]*objectStream

	pages []*Page
}

// Open opens a PDF file
func Open(filename string) (*Document, error) {
	return OpenWithPassword(filename, "")
}

// OpenWithPassword opens an encrypted PDF file
func OpenWithPassword(filename, password string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewDocumentWithPassword(data, password)
}

// NewDocument creates a document from PDF data
func NewDocument(data []byte) (*Document, error) {
	return NewDocumentWithPassword(data, "")
}

// NewDocumentWithPassword creates a document from PDF data, authenticating
// with the given password when the file is encrypted. The empty password
// is always tried, so unprotected-but-encrypted files open without one.
func NewDocumentWithPassword(data []byte, password string) (*Document, error) {
	doc := &Document{
		data:          data,
		encryptObjNum: -1,
		objects:       make(map[int]Object),
		objStreams:    make(map[int]*objectStream),
		xref:          make(map[int]*XRefEntry),
	}

	if err := doc.parse(password); err != nil {
		return nil, err
	}

	return doc, nil
}

// NewReader creates a document from an io.Reader
func NewReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewDocument(data)
}

// parse parses the PDF document
func (d *Document) parse(password string) error {
	// Locate the header. Some files carry junk before it and offsets are
	// then relative to the header position.
	headerZone := d.data
	if len(headerZone) > 1024 {
		headerZone = headerZone[:1024]
	}
	idx := bytes.Index(headerZone, []byte("%PDF-"))
	if idx < 0 {
		return fmt.Errorf("%w: missing PDF header", ErrMalformedDocument)
	}
	d.data = d.data[idx:]

	// Get version
	if eol := bytes.IndexAny(d.data, "\r\n"); eol > 5 {
		d.Version = string(d.data[5:eol])
	}

	// Parse xref and trailer, falling back to a full scan when the
	// cross-reference data is broken
	if err := d.loadXRef(); err != nil {
		if rerr := d.reconstructXRef(); rerr != nil {
			return err
		}
	}

	if err := d.setupEncryption(password); err != nil {
		return err
	}

	if err := d.loadCatalog(); err != nil {
		// A dead Root pointer is still recoverable by scanning
		if rerr := d.reconstructXRef(); rerr != nil {
			return err
		}
		d.resetObjectCaches()
		if err := d.loadCatalog(); err != nil {
			return err
		}
	}

	// Get document info (optional)
	if infoRef := d.trailer.Get("Info"); infoRef != nil {
		if infoObj, err := d.Resolve(infoRef); err == nil {
			if info, ok := infoObj.(Dictionary); ok {
				d.info = info
			}
		}
	}

	return d.loadPages()
}

// loadXRef parses the cross-reference chain starting at startxref
func (d *Document) loadXRef() error {
	startxref, err := d.findStartXRef()
	if err != nil {
		return err
	}
	return d.parseXRefSection(startxref, make(map[int64]bool))
}

// loadCatalog resolves the document catalog out of the trailer
func (d *Document) loadCatalog() error {
	rootRef := d.trailer.Get("Root")
	if rootRef == nil {
		return fmt.Errorf("%w: missing Root in trailer", ErrMalformedDocument)
	}
	rootObj, err := d.Resolve(rootRef)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve Root: %v", ErrMalformedDocument, err)
	}
	root, ok := rootObj.(Dictionary)
	if !ok {
		return fmt.Errorf("%w: Root is not a dictionary", ErrMalformedDocument)
	}
	d.root = root
	return nil
}

// setupEncryption builds the security handler when the trailer carries an
// Encrypt dictionary and authenticates with the password
func (d *Document) setupEncryption(password string) error {
	encryptRef := d.trailer.Get("Encrypt")
	if encryptRef == nil {
		return nil
	}

	if ref, ok := encryptRef.(Reference); ok {
		d.encryptObjNum = ref.ObjectNumber
	}

	encryptObj, err := d.Resolve(encryptRef)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve Encrypt: %v", ErrMalformedDocument, err)
	}
	encryptDict, ok := encryptObj.(Dictionary)
	if !ok {
		return fmt.Errorf("%w: Encrypt is not a dictionary", ErrMalformedDocument)
	}

	// The first ID element feeds key derivation, raw and undecoded
	var docID []byte
	if idArr, ok := d.trailer.GetArray("ID"); ok && len(idArr) > 0 {
		if id, ok := idArr[0].(String); ok {
			docID = id.Value
		}
	}

	sh, err := ParseEncryption(encryptDict, docID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	if !sh.Authenticate(password) {
		return ErrInvalidPassword
	}

	d.security = sh
	// Objects cached before authentication hold undecrypted strings
	d.resetObjectCaches()
	return nil
}

// resetObjectCaches drops cached objects and object streams
func (d *Document) resetObjectCaches() {
	d.mu.Lock()
	d.objects = make(map[int]Object)
	d.objStreams = make(map[int]*objectStream)
	d.mu.Unlock()
}

// IsEncrypted returns true if the document has an Encrypt dictionary
func (d *Document) IsEncrypted() bool {
	return d.trailer.Get("Encrypt") != nil
}

// Security returns the active security handler, nil for plain documents
func (d *Document) Security() *SecurityHandler {
	return d.security
}

// Resolve follows references until a direct object is reached. A dangling
// reference fails with ErrDanglingReference. Non-reference objects are
// returned unchanged.
func (d *Document) Resolve(obj Object) (Object, error) {
	for i := 0; i < 32; i++ {
		ref, ok := obj.(Reference)
		if !ok {
			return obj, nil
		}
		var err error
		obj, err = d.GetObject(ref.ObjectNumber, ref.GenerationNumber)
		if err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: reference chain too deep", ErrDanglingReference)
}

// ResolveReference resolves like Resolve but maps failures to Null, for
// contexts where a damaged link should degrade instead of aborting
func (d *Document) ResolveReference(obj Object) Object {
	resolved, err := d.Resolve(obj)
	if err != nil {
		return Null{}
	}
	return resolved
}

// GetObject loads an object by number and generation
func (d *Document) GetObject(objNum, genNum int) (Object, error) {
	d.mu.RLock()
	obj, ok := d.objects[objNum]
	d.mu.RUnlock()
	if ok {
		return obj, nil
	}

	entry, ok := d.xref[objNum]
	if !ok || !entry.InUse {
		return nil, fmt.Errorf("%w: object %d %d", ErrDanglingReference, objNum, genNum)
	}

	var err error
	if entry.Compressed {
		// Compressed objects sit in an already-decrypted container
		obj, err = d.getCompressedObject(entry.StreamObjNum, entry.StreamIdx)
	} else {
		obj, err = d.getUncompressedObject(entry.Offset)
		if err == nil && d.security != nil && objNum != d.encryptObjNum {
			obj = d.decryptObject(obj, objNum, entry.Generation)
		}
	}
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.objects[objNum] = obj
	d.mu.Unlock()
	return obj, nil
}

// getUncompressedObject reads an object at a byte offset
func (d *Document) getUncompressedObject(offset int64) (Object, error) {
	if offset < 0 || offset >= int64(len(d.data)) {
		return nil, fmt.Errorf("%w: object offset %d out of range", ErrMalformedDocument, offset)
	}

	parser := NewParserFromBytes(d.data[offset:])
	parser.SetResolver(func(ref Reference) (Object, error) {
		return d.GetObject(ref.ObjectNumber, ref.GenerationNumber)
	})
	_, _, obj, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return obj, nil
}

// decryptObject walks an object and decrypts strings and stream data in
// place using the object's key
func (d *Document) decryptObject(obj Object, objNum, genNum int) Object {
	switch v := obj.(type) {
	case String:
		if decrypted, err := d.security.DecryptString(v.Value, objNum, genNum); err == nil {
			v.Value = decrypted
		}
		return v
	case Array:
		for i, item := range v {
			v[i] = d.decryptObject(item, objNum, genNum)
		}
		return v
	case Dictionary:
		for key, item := range v {
			v[key] = d.decryptObject(item, objNum, genNum)
		}
		return v
	case Stream:
		// Metadata streams stay in the clear when EncryptMetadata is off
		if typ, _ := v.Dictionary.GetName("Type"); typ == "Metadata" && !d.security.EncryptMeta {
			return v
		}
		if decrypted, err := d.security.DecryptStream(v.Data, objNum, genNum); err == nil {
			v.Data = decrypted
		}
		v.Dictionary = d.decryptObject(v.Dictionary, objNum, genNum).(Dictionary)
		return v
	default:
		return obj
	}
}

// NumPages returns the number of pages
func (d *Document) NumPages() int {
	return len(d.pages)
}

// GetPage returns a page by index, starting at 0
func (d *Document) GetPage(index int) (*Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageIndexOutOfRange, index, len(d.pages))
	}
	return d.pages[index], nil
}

// Close releases the document buffers
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = nil
	d.objects = nil
	d.objStreams = nil
	d.xref = nil
	d.pages = nil
	return nil
}

// GetVersion returns the PDF version string
func (d *Document) GetVersion() string {
	return d.Version
}

// GetMetadata returns the XMP metadata as a string
func (d *Document) GetMetadata() string {
	if d.root == nil {
		return ""
	}
	metadataObj, err := d.Resolve(d.root.Get("Metadata"))
	if err != nil {
		return ""
	}
	stream, ok := metadataObj.(Stream)
	if !ok {
		return ""
	}
	data, err := stream.Decode()
	if err != nil {
		return ""
	}
	return string(data)
}

// DocumentInfo contains PDF document metadata
type DocumentInfo struct {
	Title           string
	Author          string
	Subject         string
	Keywords        string
	Creator         string
	Producer        string
	CreationDate    time.Time
	ModDate         time.Time
	CreationDateRaw string
	ModDateRaw      string
	Custom          map[string]string
	Tagged          bool
	Form            string
	JavaScript      bool
	Encrypted       bool
	Optimized       bool
	PDFVersion      string
}

// GetInfo returns document metadata
func (d *Document) GetInfo() DocumentInfo {
	info := DocumentInfo{
		Custom:     make(map[string]string),
		PDFVersion: d.Version,
		Form:       "none",
	}

	if d.info != nil {
		if title, ok := d.info.GetString("Title"); ok {
			info.Title = title.Text()
		}
		if author, ok := d.info.GetString("Author"); ok {
			info.Author = author.Text()
		}
		if subject, ok := d.info.GetString("Subject"); ok {
			info.Subject = subject.Text()
		}
		if keywords, ok := d.info.GetString("Keywords"); ok {
			info.Keywords = keywords.Text()
		}
		if creator, ok := d.info.GetString("Creator"); ok {
			info.Creator = creator.Text()
		}
		if producer, ok := d.info.GetString("Producer"); ok {
			info.Producer = producer.Text()
		}
		if creationDate, ok := d.info.GetString("CreationDate"); ok {
			info.CreationDateRaw = string(creationDate.Value)
			info.CreationDate = parsePDFDate(info.CreationDateRaw)
		}
		if modDate, ok := d.info.GetString("ModDate"); ok {
			info.ModDateRaw = string(modDate.Value)
			info.ModDate = parsePDFDate(info.ModDateRaw)
		}

		// Collect custom metadata
		standardKeys := map[string]bool{
			"Title": true, "Author": true, "Subject": true, "Keywords": true,
			"Creator": true, "Producer": true, "CreationDate": true, "ModDate": true,
			"Trapped": true,
		}
		for key, val := range d.info {
			if standardKeys[string(key)] {
				continue
			}
			if s, ok := d.ResolveReference(val).(String); ok {
				info.Custom[string(key)] = s.Text()
			}
		}
	}

	info.Encrypted = d.IsEncrypted()

	// Check for tagged PDF
	if markDict, ok := d.ResolveReference(d.root.Get("MarkInfo")).(Dictionary); ok {
		if marked, ok := markDict.GetBool("Marked"); ok {
			info.Tagged = marked
		}
	}

	// Check for AcroForm
	if formDict, ok := d.ResolveReference(d.root.Get("AcroForm")).(Dictionary); ok {
		info.Form = "AcroForm"
		if formDict.Get("XFA") != nil {
			info.Form = "XFA"
		}
	}

	// Check for JavaScript
	if namesDict, ok := d.ResolveReference(d.root.Get("Names")).(Dictionary); ok {
		if namesDict.Get("JavaScript") != nil {
			info.JavaScript = true
		}
	}

	// Check for linearization (optimized)
	if len(d.data) > 100 && bytes.Contains(d.data[:100], []byte("/Linearized")) {
		info.Optimized = true
	}

	return info
}

// parsePDFDate parses a PDF date string (D:YYYYMMDDHHmmSSOHH'mm')
func parsePDFDate(s string) time.Time {
	if len(s) < 2 {
		return time.Time{}
	}

	// Remove "D:" prefix
	if s[0:2] == "D:" {
		s = s[2:]
	}
	if len(s) < 4 {
		return time.Time{}
	}

	// Parse components
	var year, month, day, hour, min, sec int
	var tzHour, tzMin int
	var tzSign byte = '+'

	year, _ = strconv.Atoi(s[0:4])
	if len(s) >= 6 {
		month, _ = strconv.Atoi(s[4:6])
	} else {
		month = 1
	}
	if len(s) >= 8 {
		day, _ = strconv.Atoi(s[6:8])
	} else {
		day = 1
	}
	if len(s) >= 10 {
		hour, _ = strconv.Atoi(s[8:10])
	}
	if len(s) >= 12 {
		min, _ = strconv.Atoi(s[10:12])
	}
	if len(s) >= 14 {
		sec, _ = strconv.Atoi(s[12:14])
	}

	// Parse timezone
	if len(s) >= 15 {
		tzSign = s[14]
		if len(s) >= 17 {
			tzHour, _ = strconv.Atoi(s[15:17])
		}
		if len(s) >= 20 && s[17] == '\'' {
			tzMin, _ = strconv.Atoi(s[18:20])
		}
	}

	// Create location
	offset := tzHour*3600 + tzMin*60
	if tzSign == '-' {
		offset = -offset
	}
	loc := time.FixedZone("", offset)

	return time.Date(year, time.Month(month), day, hour, min, sec, 0, loc)
}
