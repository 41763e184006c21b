package morph

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/domsync/pkg/dom"
)

// AttributeSyncer copies attributes from a candidate element onto a matched
// host element. Implementations must be idempotent.
type AttributeSyncer interface {
	// SyncAttributes returns the number of attributes it added, changed or
	// removed on dst.
	SyncAttributes(dst, cand *html.Node) int
}

// AttributeSyncFunc adapts a function to AttributeSyncer.
type AttributeSyncFunc func(dst, cand *html.Node) int

// SyncAttributes implements AttributeSyncer.
func (f AttributeSyncFunc) SyncAttributes(dst, cand *html.Node) int {
	return f(dst, cand)
}

// Attributes is the default AttributeSyncer. It makes dst's attributes equal
// to cand's, except for attributes it is told to preserve.
type Attributes struct {
	// Preserve reports attributes of el that must be left untouched.
	// Nil preserves the attributes FormValues applies after children:
	// value and checked on <input>, selected on an <option> of a <select>.
	Preserve func(el *html.Node, key string) bool
}

// SyncAttributes implements AttributeSyncer. Existing attributes keep their
// position; new ones are appended in candidate order.
func (a Attributes) SyncAttributes(dst, cand *html.Node) int {
	preserve := a.Preserve
	if preserve == nil {
		preserve = deferredAttribute
	}

	want := make(map[string]string, len(cand.Attr))
	for _, attr := range cand.Attr {
		want[dom.AttrKey(attr)] = attr.Val
	}

	changed := 0
	have := make(map[string]bool, len(dst.Attr))
	out := dst.Attr[:0]
	for _, attr := range dst.Attr {
		key := dom.AttrKey(attr)
		if preserve(dst, key) {
			have[key] = true
			out = append(out, attr)
			continue
		}
		val, ok := want[key]
		if !ok {
			changed++
			continue
		}
		if attr.Val != val {
			attr.Val = val
			changed++
		}
		have[key] = true
		out = append(out, attr)
	}

	for _, attr := range cand.Attr {
		key := dom.AttrKey(attr)
		if have[key] || preserve(dst, key) {
			continue
		}
		have[key] = true
		out = append(out, attr)
		changed++
	}

	dst.Attr = out
	return changed
}

// deferredAttribute reports attributes that carry a control's current value.
func deferredAttribute(el *html.Node, key string) bool {
	switch {
	case dom.IsElement(el, "input"):
		return key == "value" || key == "checked"
	case dom.IsElement(el, "option"):
		return key == "selected" && inSelect(el)
	}
	return false
}

// inSelect reports whether opt belongs to a <select>, directly or through an
// <optgroup>. Only those options have their selection applied by FormValues.
func inSelect(opt *html.Node) bool {
	p := opt.Parent
	if dom.IsElement(p, "optgroup") {
		p = p.Parent
	}
	return dom.IsElement(p, "select")
}
