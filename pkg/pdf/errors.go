package pdf

import "errors"

// Errors surfaced by the document layer. Parsing problems with a viable
// recovery path (a truncated xref table, a bad object in a content stream)
// are handled internally and never reach the caller; these sentinels mark
// the failures with no safe continuation.
var (
	// ErrMalformedDocument means the container is broken beyond recovery,
	// even after a linear-scan rebuild of the object table.
	ErrMalformedDocument = errors.New("pdf: malformed document")

	// ErrDanglingReference means an indirect reference points at an object
	// number absent from the object table.
	ErrDanglingReference = errors.New("pdf: dangling reference")

	// ErrPageIndexOutOfRange means a page index outside [0, PageCount).
	ErrPageIndexOutOfRange = errors.New("pdf: page index out of range")

	// ErrCyclicPageTree means the page tree references one of its own
	// ancestors.
	ErrCyclicPageTree = errors.New("pdf: cyclic page tree")

	// ErrInvalidPassword means neither the user nor the owner password
	// matched the document's encryption dictionary.
	ErrInvalidPassword = errors.New("pdf: invalid password")

	// ErrUndefinedResource means a content stream referenced a resource
	// name absent from the page's resource dictionaries.
	ErrUndefinedResource = errors.New("pdf: undefined resource")

	// ErrUnsupportedFilter marks a stream filter the decoder recognizes
	// but cannot decode (JPXDecode, JBIG2Decode). Callers drawing images
	// treat it as recoverable.
	ErrUnsupportedFilter = errors.New("pdf: unsupported stream filter")
)
