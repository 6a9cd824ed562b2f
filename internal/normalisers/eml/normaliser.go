// Package eml extracts the headers and readable body of e-mail attachments.
package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
	"github.com/custodia-labs/testbrief/internal/normalisers/html"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// maxNesting bounds multipart recursion.
const maxNesting = 10

// Normaliser handles RFC 822 messages.
type Normaliser struct{}

// New creates a new e-mail normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the format this normaliser handles.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatEmail
}

// Normalise renders From, To, Date and Subject followed by the body.
// Plain text parts are preferred over HTML parts.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Content))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	body, err := readBody(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body, 0)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, h := range []string{"From", "To", "Cc", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(h)); v != "" {
			fmt.Fprintf(&sb, "%s: %s\n", h, v)
		}
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(strings.TrimSpace(body))
	return strings.TrimSpace(sb.String()), nil
}

func decodeHeader(v string) string {
	if v == "" {
		return ""
	}
	dec := &mime.WordDecoder{CharsetReader: charset.NewReaderLabel}
	decoded, err := dec.DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}

// readBody returns the readable text of one entity.
func readBody(contentType, transferEncoding string, r io.Reader, depth int) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, params = "text/plain", nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if depth >= maxNesting {
			return "", nil
		}
		return readMultipart(r, params["boundary"], mediaType, depth+1)
	}

	if !strings.HasPrefix(mediaType, "text/") {
		return "", nil
	}

	data, err := io.ReadAll(decodeTransfer(transferEncoding, r))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	text := toUTF8(data, params["charset"])

	if mediaType == "text/html" {
		return html.Strip(text)
	}
	return text, nil
}

// readMultipart collects text parts, falling back to HTML parts.
// For multipart/alternative only the best single alternative is kept.
func readMultipart(r io.Reader, boundary, mediaType string, depth int) (string, error) {
	if boundary == "" {
		return "", errors.New("multipart message without boundary")
	}

	var plain, rich []string
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		if isAttachment(part.Header.Get("Content-Disposition")) {
			continue
		}

		ct := part.Header.Get("Content-Type")
		text, err := readBody(ct, part.Header.Get("Content-Transfer-Encoding"), part, depth)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		if strings.Contains(strings.ToLower(ct), "text/html") {
			rich = append(rich, text)
		} else {
			plain = append(plain, text)
		}
	}

	parts := plain
	if len(parts) == 0 {
		parts = rich
	}
	if mediaType == "multipart/alternative" && len(parts) > 1 {
		parts = parts[:1]
	}
	return strings.Join(parts, "\n\n"), nil
}

func isAttachment(disposition string) bool {
	d, _, err := mime.ParseMediaType(disposition)
	return err == nil && d == "attachment"
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// toUTF8 transcodes data from label, keeping the bytes when the label is unknown.
func toUTF8(data []byte, label string) string {
	if label == "" {
		return strings.ToValidUTF8(string(data), "")
	}
	rd, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return strings.ToValidUTF8(string(data), "")
	}
	out, err := io.ReadAll(rd)
	if err != nil {
		return strings.ToValidUTF8(string(data), "")
	}
	return string(out)
}
