package morph

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/domsync/pkg/dom"
)

// UpdateCost is the price of turning one node into another in place.
type UpdateCost uint8

const (
	CostNone     UpdateCost = iota // Identical for matching purposes
	CostSome                       // Retainable, content changes
	CostInfinite                   // Never matched; delete and insert instead
)

// String returns the string representation of the UpdateCost.
func (c UpdateCost) String() string {
	switch c {
	case CostNone:
		return "None"
	case CostSome:
		return "Some"
	case CostInfinite:
		return "Infinite"
	default:
		return "Unknown"
	}
}

// weight returns the diagonal step cost, or false when the pair may not be
// matched at all.
func (c UpdateCost) weight() (int, bool) {
	switch c {
	case CostNone:
		return 0, true
	case CostSome:
		return 1, true
	default:
		return 0, false
	}
}

// Cost classifies a host node against a candidate node. Attributes and
// children never contribute; they are reconciled after two elements match.
func Cost(a, b *html.Node) UpdateCost {
	ka, kb := dom.KindOf(a), dom.KindOf(b)
	if ka != kb {
		return CostInfinite
	}

	switch ka {
	case dom.KindText, dom.KindComment:
		if a.Data == b.Data {
			return CostNone
		}
		return CostSome
	case dom.KindElement:
		if dom.Tag(a) == dom.Tag(b) {
			return CostNone
		}
		return CostInfinite
	case dom.KindDocumentType:
		return CostNone
	default:
		return CostInfinite
	}
}

// itemCost lifts Cost to range items. Islands only ever match islands with
// the same identifier.
func itemCost(a, b Item) UpdateCost {
	switch {
	case a.Island != nil && b.Island != nil:
		if a.Island.Marker.ID == b.Island.Marker.ID {
			return CostNone
		}
		return CostInfinite
	case a.Island != nil || b.Island != nil:
		return CostInfinite
	}
	return Cost(a.Node, b.Node)
}
