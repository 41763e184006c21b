// Package morph reconciles a live HTML tree against a freshly rendered one.
//
// Given a host range (the live tree) and a candidate range (the desired next
// state), a Reconciler computes, for every sibling list, the cheapest
// sequence of keep, update, delete and insert operations and applies it in
// place, depth first. Existing nodes are retained whenever possible, so
// element identity and any state attached to host nodes survive the pass.
//
// # Update Cost
//
// Cost classifies a pair of nodes:
//
//	different kinds            CostInfinite (never matched)
//	text/comment, same text    CostNone
//	text/comment, other text   CostSome (updated in place)
//	element, same tag          CostNone (attributes and children synced later)
//	element, other tag         CostInfinite
//	doctype                    CostNone
//	anything else              CostInfinite
//
// # Edit Scripts
//
// ComputeEditScript trims the common prefix, then aligns the remaining
// suffixes with dynamic programming where deletes and inserts cost 1 and a
// diagonal step costs the pair's UpdateCost. Ties prefer keeping a node, then
// deleting, then inserting. There is no move detection.
//
// # Ranges
//
// A Range is a view over a run of siblings:
//
//	Physical(parent)                   every child of parent
//	Between(start, end)                siblings strictly between two markers
//	Logical(parent, markers)           like Physical, islands are opaque items
//	LogicalBetween(start, end, markers)
//
// # Islands
//
// An island is a subtree owned by another rendering pipeline, delimited by a
// pair of comment markers carrying the same identifier:
//
//	<!--island:{"id":"c1","type":"server"}-->
//	  ...content owned by the pipeline...
//	<!--island:{"id":"c1"}-->
//
// Logical ranges yield an island as a single item. Islands with equal
// identifiers match and are reported to the IslandHandler; the engine never
// descends into them. Removed islands are detached intact into a holding
// container so the owning pipeline can finish its own teardown.
//
// # Usage
//
//	r := morph.New(morph.WithLogger(logger))
//	if err := r.Reconcile(morph.Physical(hostBody), morph.Physical(candBody)); err != nil {
//	    return err
//	}
//
// Errors returned by a pass are fatal invariant violations. They can be
// tested with errors.Is against ErrUnsupportedNode, ErrUnterminatedIsland,
// ErrLengthMismatch and ErrForeignNode. Mutations applied before the failure
// stay applied.
package morph
