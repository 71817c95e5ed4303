package testutil

import (
	"fmt"
	"strings"
)

// TrackOptions contains options for generating one record of a tracks array
type TrackOptions struct {
	Title      string
	RemotePath string // Written as chapter_link_dropbox when non-empty
	OmitTitle  bool
	Extra      string // Raw extra properties, e.g. `duration: 120`
}

// MetaTrack is the leading metadata record real book pages carry
var MetaTrack = TrackOptions{Title: "meta", Extra: "chapter_id: 0"}

// GenerateTracksLiteral renders tracks as a JS array literal in the loose
// style found on book pages (unquoted keys, single quotes, trailing comma).
func GenerateTracksLiteral(tracks []TrackOptions) string {
	var sb strings.Builder
	sb.WriteString("[\n")
	for _, track := range tracks {
		var props []string
		if !track.OmitTitle {
			props = append(props, fmt.Sprintf("title: '%s'", strings.ReplaceAll(track.Title, "'", `\'`)))
		}
		if track.RemotePath != "" {
			props = append(props, fmt.Sprintf("chapter_link_dropbox: '%s'", track.RemotePath))
		}
		if track.Extra != "" {
			props = append(props, track.Extra)
		}
		sb.WriteString("\t{")
		sb.WriteString(strings.Join(props, ", "))
		sb.WriteString("},\n")
	}
	sb.WriteString("]")
	return sb.String()
}

// GenerateBookPageHTML generates a book page with the tracks literal embedded
// in an inline script among unrelated scripts.
func GenerateBookPageHTML(tracks []TrackOptions) string {
	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>Audiobook</title>
	<script src="/static/player.js"></script>
	<script>window.dataLayer = window.dataLayer || [];</script>
</head>
<body>
	<div class="entry-content"><h1>Audiobook</h1></div>
	<script type="text/javascript">
		var bookId = 42;
		tracks = `)
	sb.WriteString(GenerateTracksLiteral(tracks))
	sb.WriteString(`
		;
		initPlayer(tracks);
	</script>
</body>
</html>`)
	return sb.String()
}
