package morph

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/dom"
)

// Sentinel errors. Match them with errors.Is; returned errors carry a node
// path and detail but share the sentinel's code.
var (
	ErrUnsupportedNode    error = errors.New("D001")
	ErrUnterminatedIsland error = errors.New("D002")
	ErrLengthMismatch     error = errors.New("D003")
	ErrForeignNode        error = errors.New("D004")
)

// ErrorCode returns the domsync error code carried by err ("D001", ...), or
// "" when err did not originate in domsync.
func ErrorCode(err error) string {
	return errors.Code(err)
}

func unsupportedNode(n *html.Node, action string) error {
	return errors.New("D001").
		WithPath(nodePath(n)).
		WithDetailf("cannot %s a %s node", action, describe(n))
}

func unmatchable(d, c Item) error {
	return errors.New("D001").
		WithPath(nodePath(d.Node)).
		WithDetailf("cannot match %s with %s", describeItem(d), describeItem(c))
}

func unterminatedIsland(start *html.Node, m Marker) error {
	return errors.New("D002").
		WithPath(nodePath(start)).
		WithDetailf("no end marker for island %q", m.ID).
		WithSuggestion("Every island start marker needs a later sibling comment carrying the same id.")
}

func lengthMismatch(dstLeft, candLeft int) error {
	return errors.New("D003").
		WithDetailf("%d destination and %d candidate items left after the edit script", dstLeft, candLeft)
}

func foreignNode(n *html.Node) error {
	return errors.New("D004").WithPath(nodePath(n))
}

func describe(n *html.Node) string {
	switch k := dom.KindOf(n); k {
	case dom.KindElement:
		return "<" + dom.Tag(n) + ">"
	case dom.KindOther:
		if n == nil {
			return "nil"
		}
		return fmt.Sprintf("%s(type %d)", k, n.Type)
	default:
		return k.String()
	}
}

func describeItem(it Item) string {
	if it.Island != nil {
		return fmt.Sprintf("island %q", it.Island.Marker.ID)
	}
	return describe(it.Node)
}

// nodePath renders the ancestry of n, e.g. "html>body>ul>li[2]>#text".
// Elements get a 1-based index when they have same-tag siblings.
func nodePath(n *html.Node) string {
	var parts []string
	for ; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		parts = append(parts, pathSegment(n))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ">")
}

func pathSegment(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return "#text"
	case html.CommentNode:
		return "#comment"
	case html.DoctypeNode:
		return "#doctype"
	case html.ElementNode:
	default:
		return "#other"
	}
	tag := dom.Tag(n)
	if n.Parent == nil {
		return tag
	}
	index, total := 0, 0
	for s := n.Parent.FirstChild; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode && dom.Tag(s) == tag {
			total++
			if s == n {
				index = total
			}
		}
	}
	if total > 1 {
		return fmt.Sprintf("%s[%d]", tag, index)
	}
	return tag
}
