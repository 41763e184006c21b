package morph

import (
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/domsync/pkg/dom"
)

// Value is a control's intended current value, captured from a candidate
// element. Its concrete type is private to the ValueDeferrer that produced it.
type Value any

// ValueDeferrer captures a control's intended value before its children are
// reconciled and applies it afterwards. Assigning a selection before the
// options exist would select nothing.
type ValueDeferrer interface {
	// CaptureValue reads the value cand wants, if cand is a control.
	CaptureValue(cand *html.Node) (Value, bool)

	// ApplyValue assigns v to dst and reports whether dst changed.
	ApplyValue(dst *html.Node, v Value) bool
}

// FormValues is the default ValueDeferrer for HTML form controls:
//
//	<input type=checkbox|radio>  checked
//	<input>                      value
//	<select>                     selected options (by option value)
type FormValues struct{}

type inputValue struct {
	val string
	set bool
}

type checkedState bool

type selection []string

// CaptureValue implements ValueDeferrer.
func (FormValues) CaptureValue(cand *html.Node) (Value, bool) {
	switch {
	case dom.IsElement(cand, "input"):
		if isCheckable(cand) {
			return checkedState(dom.HasAttr(cand, "checked")), true
		}
		val, ok := dom.GetAttr(cand, "value")
		return inputValue{val: val, set: ok}, true
	case dom.IsElement(cand, "select"):
		var selected selection
		for _, opt := range options(cand) {
			if dom.HasAttr(opt, "selected") {
				selected = append(selected, optionValue(opt))
			}
		}
		return selected, true
	}
	return nil, false
}

// ApplyValue implements ValueDeferrer.
func (FormValues) ApplyValue(dst *html.Node, v Value) bool {
	switch v := v.(type) {
	case checkedState:
		if v {
			return dom.SetAttr(dst, "checked", "")
		}
		return dom.RemoveAttr(dst, "checked")
	case inputValue:
		if v.set {
			return dom.SetAttr(dst, "value", v.val)
		}
		return dom.RemoveAttr(dst, "value")
	case selection:
		changed := false
		for _, opt := range options(dst) {
			want := slices.Contains(v, optionValue(opt))
			switch has := dom.HasAttr(opt, "selected"); {
			case want && !has:
				dom.SetAttr(opt, "selected", "")
				changed = true
			case !want && has:
				dom.RemoveAttr(opt, "selected")
				changed = true
			}
		}
		return changed
	}
	return false
}

func isCheckable(input *html.Node) bool {
	typ, _ := dom.GetAttr(input, "type")
	typ = strings.ToLower(typ)
	return typ == "checkbox" || typ == "radio"
}

// options returns the <option> elements of a select, including those inside
// <optgroup>.
func options(sel *html.Node) []*html.Node {
	var out []*html.Node
	for c := sel.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case dom.IsElement(c, "option"):
			out = append(out, c)
		case dom.IsElement(c, "optgroup"):
			for o := c.FirstChild; o != nil; o = o.NextSibling {
				if dom.IsElement(o, "option") {
					out = append(out, o)
				}
			}
		}
	}
	return out
}

// optionValue mirrors HTMLOptionElement.value: the value attribute, or the
// whitespace-collapsed text.
func optionValue(opt *html.Node) string {
	if val, ok := dom.GetAttr(opt, "value"); ok {
		return val
	}
	return strings.Join(strings.Fields(dom.TextContent(opt)), " ")
}
