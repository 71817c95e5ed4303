package parser

import (
	"errors"

	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/zigwangles/tokydownloader/internal/apperrors"
)

// ParseLiteral parses a JavaScript array or object literal as found in page
// scripts using the JSON5 grammar: unquoted keys, single quoted strings,
// trailing commas and comments are accepted.
//
// Values are returned as []any, map[string]any, string, float64, bool or nil.
// Errors are *apperrors.ParseError.
func ParseLiteral(src string) (any, error) {
	var v any
	if err := json5.Unmarshal([]byte(src), &v); err != nil {
		return nil, toParseError(err, len(src))
	}
	return v, nil
}

// toParseError keeps the byte offset of decoder syntax errors. The decoder
// counts the offending byte as read, so the offset is moved back onto it.
func toParseError(err error, inputLen int) error {
	var syntaxErr *json5.SyntaxError
	if errors.As(err, &syntaxErr) {
		offset := int(syntaxErr.Offset)
		if offset > 0 {
			offset--
		}
		return &apperrors.ParseError{Offset: offset, Reason: syntaxErr.Error()}
	}
	return &apperrors.ParseError{Offset: inputLen, Reason: err.Error()}
}
