package parser

import (
	"io"

	"golang.org/x/net/html/charset"
)

// NewUTF8Reader converts a page body to UTF-8 before it is searched for the
// tracks literal. contentType is the response Content-Type header and may be
// empty, in which case the encoding is sniffed from meta tags, BOM or content.
func NewUTF8Reader(body io.Reader, contentType string) (io.Reader, error) {
	return charset.NewReader(body, contentType)
}
