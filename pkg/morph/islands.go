package morph

import "golang.org/x/net/html"

// Island is an opaque subtree delimited by a start and an end marker, both
// inclusive. Its content belongs to an external rendering pipeline.
type Island struct {
	Marker Marker
	Start  *html.Node
	End    *html.Node
}

// Nodes returns the markers and every sibling between them, in order.
func (i *Island) Nodes() []*html.Node {
	var out []*html.Node
	for n := i.Start; n != nil; n = n.NextSibling {
		out = append(out, n)
		if n == i.End {
			break
		}
	}
	return out
}

// Contents returns the siblings strictly between the two markers.
func (i *Island) Contents() []*html.Node {
	nodes := i.Nodes()
	if len(nodes) < 2 {
		return nil
	}
	return nodes[1 : len(nodes)-1]
}

// IslandHandler is notified about islands the reconciler touches. The owning
// pipeline uses these calls to re-render, mount, or dispose islands after the
// pass; the reconciler itself never looks inside one.
type IslandHandler interface {
	// IslandMatched is called when a host island is kept because the
	// candidate holds an island with the same identifier.
	IslandMatched(dst, cand *Island)

	// IslandInserted is called after a candidate island was moved into the host.
	IslandInserted(island *Island)

	// IslandRemoved is called after a host island was detached intact into the
	// range's holding container.
	IslandRemoved(island *Island)
}

// NopIslands ignores every island notification.
type NopIslands struct{}

func (NopIslands) IslandMatched(dst, cand *Island) {}
func (NopIslands) IslandInserted(island *Island)   {}
func (NopIslands) IslandRemoved(island *Island)    {}
