package morph

import (
	"encoding/json"
	"strings"

	"golang.org/x/net/html"
)

// DefaultMarkerPrefix starts the comment text of every island marker
// understood by JSONMarkers.
const DefaultMarkerPrefix = "island:"

// Marker is the payload embedded in an island boundary comment.
type Marker struct {
	// ID pairs a start marker with its end marker.
	ID string `json:"id"`

	// Type names the owning pipeline (e.g. "server", "wasm").
	Type string `json:"type,omitempty"`

	// Descriptor is opaque pipeline data; the engine never interprets it.
	Descriptor json.RawMessage `json:"descriptor,omitempty"`
}

// MarkerParser recognises island marker comments.
type MarkerParser interface {
	// ParseMarker returns the marker embedded in a comment's text.
	ParseMarker(text string) (Marker, bool)
}

// MarkerParserFunc adapts a function to MarkerParser.
type MarkerParserFunc func(text string) (Marker, bool)

// ParseMarker implements MarkerParser.
func (f MarkerParserFunc) ParseMarker(text string) (Marker, bool) {
	return f(text)
}

// JSONMarkers parses comments of the form `<prefix>{"id":"...",...}`.
type JSONMarkers struct {
	// Prefix defaults to DefaultMarkerPrefix.
	Prefix string
}

// ParseMarker implements MarkerParser. Comments without the prefix, with
// malformed JSON, or with an empty id are not markers.
func (p JSONMarkers) ParseMarker(text string) (Marker, bool) {
	prefix := p.Prefix
	if prefix == "" {
		prefix = DefaultMarkerPrefix
	}

	payload, ok := strings.CutPrefix(strings.TrimSpace(text), prefix)
	if !ok {
		return Marker{}, false
	}

	var m Marker
	if err := json.Unmarshal([]byte(payload), &m); err != nil || m.ID == "" {
		return Marker{}, false
	}
	return m, true
}

// ResolveEnd finds the end marker matching the island opened by start.
// Siblings are scanned forward up to, but excluding, limit (nil scans to the
// end of the parent). The first comment that parses with the same ID closes
// the island. Marker pairs are never cached: the owning pipeline may rewrite
// payloads between passes.
func ResolveEnd(start *html.Node, m Marker, limit *html.Node, p MarkerParser) (*html.Node, error) {
	for n := start.NextSibling; n != nil && n != limit; n = n.NextSibling {
		if n.Type != html.CommentNode {
			continue
		}
		if other, ok := p.ParseMarker(n.Data); ok && other.ID == m.ID {
			return n, nil
		}
	}
	return nil, unterminatedIsland(start, m)
}
