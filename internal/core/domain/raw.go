package domain

// RawDocument represents opaque bytes fetched from a tracker, wiki or URL.
// It is the input to text extraction.
type RawDocument struct {
	// Filename is the declared name, used for suffix-based dispatch.
	Filename string

	// URI is the original location (download URL, page URL, file path).
	URI string

	// ContentType is the declared MIME type hint, possibly empty.
	ContentType string

	// Content is the raw bytes.
	Content []byte
}

// Format is a document encoding recognised by text extraction.
type Format string

// Recognised formats, in dispatch order.
const (
	FormatPDF   Format = "pdf"
	FormatWord  Format = "word"
	FormatText  Format = "text"
	FormatHTML  Format = "html"
	FormatEmail Format = "email"
)
