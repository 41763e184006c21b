// Package dom classifies and manipulates the HTML trees that domsync reconciles.
//
// Trees are golang.org/x/net/html node graphs. The engine never looks at
// html.NodeType directly; it works with the closed Kind enum returned by
// KindOf, so that every node category has exactly one handling arm in the
// classifier and in the reconciler.
//
// # Kinds
//
//	KindText          text nodes
//	KindComment       comments, including island markers
//	KindElement       elements, compared by namespace and tag
//	KindDocumentType  <!DOCTYPE ...>
//	KindOther         documents, raw and error nodes
//
// # Building trees
//
// Parse and ParseFragment read markup. Element, Text and Comment build nodes
// directly, which is convenient in tests:
//
//	ul := dom.Element("ul", nil,
//	    dom.Element("li", nil, dom.Text("one")),
//	    dom.Element("li", nil, dom.Text("two")),
//	)
//
// # Output
//
// Render serializes a node, RenderChildren serializes only its children, and
// Minify writes a compacted form that keeps comments so island markers
// survive.
package dom
