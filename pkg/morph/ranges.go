package morph

import (
	"iter"

	"golang.org/x/net/html"

	"github.com/vango-dev/domsync/pkg/dom"
)

// RangeKind is the shape of a Range.
type RangeKind uint8

const (
	RangePhysical      RangeKind = iota // All children of a container
	RangeMarkerBounded                  // Siblings between two markers
	RangeLogical                        // Island-aware
)

// String returns the string representation of the RangeKind.
func (k RangeKind) String() string {
	switch k {
	case RangePhysical:
		return "Physical"
	case RangeMarkerBounded:
		return "MarkerBounded"
	case RangeLogical:
		return "Logical"
	default:
		return "Unknown"
	}
}

// Item is one entry of a Range: a single node, or a whole island.
// For islands Node is the start marker.
type Item struct {
	Node   *html.Node
	Island *Island
}

// nodes returns the host nodes the item covers, in document order.
func (it Item) nodes() []*html.Node {
	if it.Island != nil {
		return it.Island.Nodes()
	}
	return []*html.Node{it.Node}
}

// Range is an ordered run of siblings that the reconciler reads and edits.
// Only the range's own InsertBefore and Remove may change the region while a
// pass is running.
type Range interface {
	// Kind reports the range's shape.
	Kind() RangeKind

	// Items yields the range's entries once, front to back. To iterate
	// again, call Items again.
	Items() iter.Seq2[Item, error]

	// InsertBefore moves item into the range immediately before the sibling
	// before, or at the end of the range when before is nil.
	InsertBefore(item Item, before *html.Node) error

	// Remove takes item out of the range.
	Remove(item Item) error

	// Children returns the range to reconcile for a matched element.
	Children(node *html.Node) Range
}

// Collect materialises a range into a slice.
func Collect(r Range) ([]Item, error) {
	var items []Item
	for it, err := range r.Items() {
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// span is a run of siblings under parent, bounded by optional exclusive
// markers. A nil start begins at the first child; a nil end runs to the last.
type span struct {
	parent *html.Node
	start  *html.Node
	end    *html.Node
}

func (s *span) first() *html.Node {
	if s.start != nil {
		return s.start.NextSibling
	}
	return s.parent.FirstChild
}

// nodes yields each sibling in the span. The successor is read before
// yielding so the consumer may detach the current node.
func (s *span) nodes(yield func(Item, error) bool) {
	for n := s.first(); n != nil && n != s.end; {
		next := n.NextSibling
		if !yield(Item{Node: n}, nil) {
			return
		}
		n = next
	}
}

func (s *span) insert(nodes []*html.Node, before *html.Node) error {
	if before == nil {
		before = s.end
	} else if before.Parent != s.parent {
		return foreignNode(before)
	}
	for _, n := range nodes {
		// Candidate nodes still hang off the candidate tree; take ownership.
		dom.Detach(n)
		s.parent.InsertBefore(n, before)
	}
	return nil
}

func (s *span) remove(nodes []*html.Node) error {
	for _, n := range nodes {
		if n.Parent != s.parent {
			return foreignNode(n)
		}
		s.parent.RemoveChild(n)
	}
	return nil
}

// PhysicalRange covers every child of a container node.
type PhysicalRange struct {
	span
}

// Physical returns a range over all children of parent.
func Physical(parent *html.Node) *PhysicalRange {
	return &PhysicalRange{span{parent: parent}}
}

// Kind implements Range.
func (r *PhysicalRange) Kind() RangeKind { return RangePhysical }

// Items implements Range.
func (r *PhysicalRange) Items() iter.Seq2[Item, error] { return r.nodes }

// InsertBefore implements Range.
func (r *PhysicalRange) InsertBefore(item Item, before *html.Node) error {
	return r.insert(item.nodes(), before)
}

// Remove implements Range.
func (r *PhysicalRange) Remove(item Item) error {
	return r.remove(item.nodes())
}

// Children implements Range.
func (r *PhysicalRange) Children(node *html.Node) Range {
	return Physical(node)
}

// BoundedRange covers the siblings strictly between two marker nodes.
type BoundedRange struct {
	span
}

// Between returns a range over the siblings strictly between start and end,
// which must share a parent. Appends land before end.
func Between(start, end *html.Node) *BoundedRange {
	return &BoundedRange{span{parent: start.Parent, start: start, end: end}}
}

// Kind implements Range.
func (r *BoundedRange) Kind() RangeKind { return RangeMarkerBounded }

// Items implements Range.
func (r *BoundedRange) Items() iter.Seq2[Item, error] { return r.nodes }

// InsertBefore implements Range.
func (r *BoundedRange) InsertBefore(item Item, before *html.Node) error {
	return r.insert(item.nodes(), before)
}

// Remove implements Range.
func (r *BoundedRange) Remove(item Item) error {
	return r.remove(item.nodes())
}

// Children implements Range. Markers only bound the top level; matched
// elements are reconciled over all their children.
func (r *BoundedRange) Children(node *html.Node) Range {
	return Physical(node)
}
