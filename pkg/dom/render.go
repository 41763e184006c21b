package dom

import (
	"bytes"
	"io"
	"strings"

	"github.com/tdewolff/minify/v2"
	mhtml "github.com/tdewolff/minify/v2/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse reads a complete HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	return html.Parse(r)
}

// ParseString reads a complete HTML document from a string.
func ParseString(s string) (*html.Node, error) {
	return html.Parse(strings.NewReader(s))
}

// ParseFragment parses markup as the content of a <body> element and returns
// a disconnected container holding the resulting nodes.
func ParseFragment(s string) (*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), context)
	if err != nil {
		return nil, err
	}
	return Container(nodes...), nil
}

// Render serializes n and its subtree.
func Render(w io.Writer, n *html.Node) error {
	return html.Render(w, n)
}

// RenderChildren serializes the children of n without n itself.
func RenderChildren(w io.Writer, n *html.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(w, c); err != nil {
			return err
		}
	}
	return nil
}

// String renders n to a string. Document and fragment containers render
// their children only.
func String(n *html.Node) string {
	var buf bytes.Buffer
	if n != nil && n.Type == html.DocumentNode {
		_ = RenderChildren(&buf, n)
	} else if n != nil {
		_ = Render(&buf, n)
	}
	return buf.String()
}

// minifier keeps comments because island markers are comments.
var minifier = func() *minify.M {
	m := minify.New()
	m.Add("text/html", &mhtml.Minifier{
		KeepComments:     true,
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	return m
}()

// Minify writes a compacted rendering of n.
func Minify(w io.Writer, n *html.Node) error {
	return minifier.Minify("text/html", w, strings.NewReader(String(n)))
}
