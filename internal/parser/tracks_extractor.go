package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/zigwangles/tokydownloader/internal/apperrors"
	"github.com/zigwangles/tokydownloader/internal/config"
	"github.com/zigwangles/tokydownloader/internal/models"
)

// ChapterExtractor turns the text of a book page into chapter descriptors
type ChapterExtractor interface {
	Extract(page string) ([]models.Chapter, error)
}

// Field names looked up on each track record, in priority order
var (
	titleFields = []string{"title", "name"}
	pathFields  = []string{"chapter_link_dropbox", "src"}
)

// TracksExtractor finds an `<identifier> = [ ... ]` assignment in the page
// scripts and maps its records to chapters. The first record describes the
// book itself and is dropped.
type TracksExtractor struct {
	identifier string
	pattern    *regexp.Regexp
}

// NewTracksExtractor creates an extractor for the given JS identifier,
// "tracks" when empty.
func NewTracksExtractor(identifier string) *TracksExtractor {
	if identifier == "" {
		identifier = "tracks"
	}
	// The literal ends at the first closing bracket, nested arrays are not supported.
	pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(identifier) + `\s*=\s*(\[[^\]]*\])`)
	return &TracksExtractor{
		identifier: identifier,
		pattern:    pattern,
	}
}

// Extract parses page and returns the chapters in page order.
func (e *TracksExtractor) Extract(page string) ([]models.Chapter, error) {
	logger := config.GetLogger()

	literal, ok := e.findLiteral(page)
	if !ok {
		logger.Error().Str("identifier", e.identifier).Msg("Tracks array not found in page")
		return nil, &apperrors.ExtractionError{Identifier: e.identifier}
	}

	logger.Debug().Int("literal_length", len(literal)).Msg("Found tracks literal")

	parsed, err := ParseLiteral(literal)
	if err != nil {
		return nil, err
	}

	records, ok := parsed.([]any)
	if !ok {
		return nil, &apperrors.ParseError{Offset: 0, Reason: fmt.Sprintf("expected array, got %T", parsed)}
	}

	if len(records) == 0 {
		logger.Warn().Msg("Tracks array is empty")
		return []models.Chapter{}, nil
	}

	chapters := make([]models.Chapter, 0, len(records)-1)
	for i, raw := range records[1:] {
		index := i + 1
		record, ok := raw.(map[string]any)
		if !ok {
			return nil, &apperrors.SchemaError{Index: index, Field: titleFields[0]}
		}

		name, ok := firstString(record, titleFields)
		if !ok {
			return nil, &apperrors.SchemaError{Index: index, Field: titleFields[0]}
		}
		remotePath, ok := firstString(record, pathFields)
		if !ok {
			return nil, &apperrors.SchemaError{Index: index, Field: pathFields[0]}
		}

		chapters = append(chapters, models.Chapter{Name: name, RemotePath: remotePath})
	}

	logger.Info().Int("chapters", len(chapters)).Msg("Extracted chapters from page")
	return chapters, nil
}

// findLiteral searches script elements first, then the raw page text.
func (e *TracksExtractor) findLiteral(page string) (string, bool) {
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(page)); err == nil {
		var literal string
		doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
			if m := e.pattern.FindStringSubmatch(script.Text()); m != nil {
				literal = m[1]
				return false
			}
			return true
		})
		if literal != "" {
			return literal, true
		}
	}

	if m := e.pattern.FindStringSubmatch(page); m != nil {
		return m[1], true
	}
	return "", false
}

// firstString returns the first non-empty string value among keys.
func firstString(record map[string]any, keys []string) (string, bool) {
	for _, key := range keys {
		if s, ok := record[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}
