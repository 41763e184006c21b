package dom

import "golang.org/x/net/html"

// Kind is the node category discriminator.
type Kind uint8

const (
	KindOther        Kind = iota // Documents, raw HTML, parse errors
	KindText                     // Text node
	KindComment                  // Comment node
	KindElement                  // <div>, <select>, etc.
	KindDocumentType             // <!DOCTYPE html>
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	case KindElement:
		return "Element"
	case KindDocumentType:
		return "DocumentType"
	default:
		return "Other"
	}
}

// KindOf returns the category of n. A nil node is KindOther.
func KindOf(n *html.Node) Kind {
	if n == nil {
		return KindOther
	}
	switch n.Type {
	case html.TextNode:
		return KindText
	case html.CommentNode:
		return KindComment
	case html.ElementNode:
		return KindElement
	case html.DoctypeNode:
		return KindDocumentType
	default:
		return KindOther
	}
}

// Tag returns the qualified tag of an element: the bare name for HTML
// elements, "namespace:name" for foreign content such as svg or math.
// Non-elements have an empty tag.
func Tag(n *html.Node) string {
	if KindOf(n) != KindElement {
		return ""
	}
	if n.Namespace == "" {
		return n.Data
	}
	return n.Namespace + ":" + n.Data
}

// IsElement reports whether n is an element with the given (unqualified) tag.
func IsElement(n *html.Node, tag string) bool {
	return KindOf(n) == KindElement && n.Namespace == "" && n.Data == tag
}
