package services

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const maxFilenameBytes = 200

// fallbackFilename is used when nothing printable is left of a chapter name
const fallbackFilename = "chapter"

var windowsReservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeFilename turns a chapter title into a base name that is safe on
// Linux, macOS and Windows. Path separators, reserved punctuation and
// control characters become '_', the result is NFC normalized, stripped of
// leading/trailing dots and spaces, and capped at maxFilenameBytes.
func SanitizeFilename(name string) string {
	name = norm.NFC.String(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == utf8.RuneError, r < 0x20, r == 0x7f:
			b.WriteByte('_')
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}

	s := strings.Trim(b.String(), ". ")
	s = truncateUTF8(s, maxFilenameBytes)
	s = strings.TrimRight(s, ". ")
	if s == "" {
		return fallbackFilename
	}

	stem, _, _ := strings.Cut(s, ".")
	if windowsReservedNames[strings.ToUpper(strings.TrimSpace(stem))] {
		s = "_" + s
	}
	return s
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := 0
	for i := range s {
		if i > limit {
			break
		}
		cut = i
	}
	if cut == 0 && len(s) > 0 {
		_, size := utf8.DecodeRuneInString(s)
		if size <= limit {
			cut = size
		}
	}
	return s[:cut]
}
