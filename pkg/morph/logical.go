package morph

import (
	"iter"

	"golang.org/x/net/html"

	"github.com/vango-dev/domsync/pkg/dom"
)

// LogicalRange is an island-aware range. Marker comments recognised by its
// parser open islands that are yielded, matched, moved and removed as single
// items.
type LogicalRange struct {
	span
	markers MarkerParser
	holding *html.Node
}

// Logical returns an island-aware range over all children of parent.
func Logical(parent *html.Node, markers MarkerParser) *LogicalRange {
	return &LogicalRange{
		span:    span{parent: parent},
		markers: markers,
		holding: dom.Container(),
	}
}

// LogicalBetween returns an island-aware range over the siblings strictly
// between start and end.
func LogicalBetween(start, end *html.Node, markers MarkerParser) *LogicalRange {
	return &LogicalRange{
		span:    span{parent: start.Parent, start: start, end: end},
		markers: markers,
		holding: dom.Container(),
	}
}

// Kind implements Range.
func (r *LogicalRange) Kind() RangeKind { return RangeLogical }

// Detached returns the disconnected container that removed islands are moved
// into. It is shared by every range derived through Children.
func (r *LogicalRange) Detached() *html.Node {
	return r.holding
}

// Items implements Range. Each island is resolved afresh; an island without
// an end marker inside the range yields ErrUnterminatedIsland and stops.
func (r *LogicalRange) Items() iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		for n := r.first(); n != nil && n != r.end; {
			m, ok := r.marker(n)
			if !ok {
				next := n.NextSibling
				if !yield(Item{Node: n}, nil) {
					return
				}
				n = next
				continue
			}

			end, err := ResolveEnd(n, m, r.end, r.markers)
			if err != nil {
				yield(Item{}, err)
				return
			}
			next := end.NextSibling
			if !yield(Item{Node: n, Island: &Island{Marker: m, Start: n, End: end}}, nil) {
				return
			}
			n = next
		}
	}
}

func (r *LogicalRange) marker(n *html.Node) (Marker, bool) {
	if n.Type != html.CommentNode || r.markers == nil {
		return Marker{}, false
	}
	return r.markers.ParseMarker(n.Data)
}

// InsertBefore implements Range.
func (r *LogicalRange) InsertBefore(item Item, before *html.Node) error {
	return r.insert(item.nodes(), before)
}

// Remove implements Range. Islands are not torn down: their nodes move, in
// order and with their subtrees intact, into the holding container.
func (r *LogicalRange) Remove(item Item) error {
	if item.Island == nil {
		return r.remove(item.nodes())
	}
	nodes := item.nodes()
	if err := r.remove(nodes); err != nil {
		return err
	}
	for _, n := range nodes {
		r.holding.AppendChild(n)
	}
	return nil
}

// Children implements Range. Subtrees may hold further islands, so children
// are reconciled through another logical range with the same parser and
// holding container.
func (r *LogicalRange) Children(node *html.Node) Range {
	return &LogicalRange{
		span:    span{parent: node},
		markers: r.markers,
		holding: r.holding,
	}
}
