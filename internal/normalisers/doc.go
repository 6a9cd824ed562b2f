// Package normalisers turns heterogeneous documents into plain text.
//
// Each sub-package handles one format (pdf, docx, html, plaintext, eml).
// Extractor dispatches a raw document to the right one by filename
// suffix first, then by content-type hint, and finally falls back to
// a best-effort text decode.
package normalisers
