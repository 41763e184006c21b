package morph

import (
	"errors"
	"testing"

	"golang.org/x/net/html"

	"github.com/vango-dev/domsync/pkg/dom"
)

func itemData(t *testing.T, r Range) []string {
	t.Helper()
	items, err := Collect(r)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var out []string
	for _, it := range items {
		switch {
		case it.Island != nil:
			out = append(out, "island:"+it.Island.Marker.ID)
		case it.Node.Type == html.ElementNode:
			out = append(out, "<"+it.Node.Data+">")
		default:
			out = append(out, it.Node.Data)
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPhysicalRange(t *testing.T) {
	root := fragment(t, `a<b></b>c`)
	r := Physical(root)

	if r.Kind() != RangePhysical {
		t.Errorf("Kind() = %v, want Physical", r.Kind())
	}
	if got := itemData(t, r); !equalStrings(got, []string{"a", "<b>", "c"}) {
		t.Errorf("items = %v", got)
	}

	if err := r.InsertBefore(Item{Node: dom.Text("z")}, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.InsertBefore(Item{Node: dom.Text("y")}, root.FirstChild); err != nil {
		t.Fatal(err)
	}
	if got := dom.String(root); got != "ya<b></b>cz" {
		t.Errorf("after inserts = %q", got)
	}

	if err := r.Remove(Item{Node: root.FirstChild}); err != nil {
		t.Fatal(err)
	}
	if got := dom.String(root); got != "a<b></b>cz" {
		t.Errorf("after remove = %q", got)
	}

	if _, ok := r.Children(root.FirstChild.NextSibling).(*PhysicalRange); !ok {
		t.Error("Children of a physical range should be physical")
	}
}

func TestPhysicalRangeTakesOwnership(t *testing.T) {
	host := fragment(t, `<p></p>`)
	cand := fragment(t, `<i>x</i><b></b>`)
	moving := cand.FirstChild

	if err := Physical(host).InsertBefore(Item{Node: moving}, nil); err != nil {
		t.Fatal(err)
	}
	if moving.Parent != host {
		t.Error("inserted node should be re-parented into the host")
	}
	if got := dom.String(cand); got != "<b></b>" {
		t.Errorf("candidate after move = %q", got)
	}
}

func TestRangeRejectsForeignNodes(t *testing.T) {
	host := fragment(t, `<p></p>`)
	other := fragment(t, `<i></i>`)
	r := Physical(host)

	if err := r.InsertBefore(Item{Node: dom.Text("x")}, other.FirstChild); !errors.Is(err, ErrForeignNode) {
		t.Errorf("InsertBefore foreign = %v, want ErrForeignNode", err)
	}
	if err := r.Remove(Item{Node: other.FirstChild}); !errors.Is(err, ErrForeignNode) {
		t.Errorf("Remove foreign = %v, want ErrForeignNode", err)
	}
}

func TestBoundedRange(t *testing.T) {
	root := fragment(t, `x<!--s-->a<b></b><!--e-->y`)
	nodes := dom.Children(root)
	r := Between(nodes[1], nodes[4])

	if r.Kind() != RangeMarkerBounded {
		t.Errorf("Kind() = %v, want MarkerBounded", r.Kind())
	}
	if got := itemData(t, r); !equalStrings(got, []string{"a", "<b>"}) {
		t.Errorf("items = %v", got)
	}

	if err := r.InsertBefore(Item{Node: dom.Text("z")}, nil); err != nil {
		t.Fatal(err)
	}
	if got := dom.String(root); got != "x<!--s-->a<b></b>z<!--e-->y" {
		t.Errorf("append should land before the end marker, got %q", got)
	}

	if _, ok := r.Children(nodes[3]).(*PhysicalRange); !ok {
		t.Error("Children of a bounded range should be physical")
	}
}

func TestBoundedRangeEmpty(t *testing.T) {
	root := fragment(t, `<!--s--><!--e-->`)
	r := Between(root.FirstChild, root.LastChild)
	if got := itemData(t, r); len(got) != 0 {
		t.Errorf("items = %v, want none", got)
	}
}

func TestLogicalRangeYieldsIslands(t *testing.T) {
	root := fragment(t, `a<!--island:{"id":"c1"}--><p>inside</p><!--island:{"id":"c1"}--><b></b>`)
	r := Logical(root, JSONMarkers{})

	if r.Kind() != RangeLogical {
		t.Errorf("Kind() = %v, want Logical", r.Kind())
	}
	got := itemData(t, r)
	if !equalStrings(got, []string{"a", "island:c1", "<b>"}) {
		t.Fatalf("items = %v", got)
	}

	items, _ := Collect(r)
	island := items[1].Island
	if len(island.Contents()) != 1 || island.Contents()[0].Data != "p" {
		t.Errorf("island contents = %v", island.Contents())
	}
	if len(island.Nodes()) != 3 {
		t.Errorf("island nodes = %d, want 3", len(island.Nodes()))
	}
}

func TestLogicalRangeUnterminated(t *testing.T) {
	root := fragment(t, `a<!--island:{"id":"c1"}--><p></p>`)
	_, err := Collect(Logical(root, JSONMarkers{}))
	if !errors.Is(err, ErrUnterminatedIsland) {
		t.Errorf("Collect = %v, want ErrUnterminatedIsland", err)
	}
}

func TestLogicalBetweenStopsAtBound(t *testing.T) {
	// The island's end lies past the range end, so it is unterminated here.
	root := fragment(t, `<!--s--><!--island:{"id":"c1"}--><!--e--><!--island:{"id":"c1"}-->`)
	nodes := dom.Children(root)
	_, err := Collect(LogicalBetween(nodes[0], nodes[2], JSONMarkers{}))
	if !errors.Is(err, ErrUnterminatedIsland) {
		t.Errorf("Collect = %v, want ErrUnterminatedIsland", err)
	}
}

func TestLogicalRangeRemoveDetachesIntact(t *testing.T) {
	root := fragment(t, `a<!--island:{"id":"c1"}--><p><i>deep</i></p><!--island:{"id":"c1"}-->b`)
	r := Logical(root, JSONMarkers{})
	items, err := Collect(r)
	if err != nil {
		t.Fatal(err)
	}

	island := items[1]
	inner := island.Island.Contents()[0]
	if err := r.Remove(island); err != nil {
		t.Fatal(err)
	}

	if got := dom.String(root); got != "ab" {
		t.Errorf("host after remove = %q", got)
	}
	held := r.Detached()
	if got := dom.String(held); got != `<!--island:{"id":"c1"}--><p><i>deep</i></p><!--island:{"id":"c1"}-->` {
		t.Errorf("holding container = %q", got)
	}
	if inner.Parent != held || inner.FirstChild == nil {
		t.Error("island content should be moved intact, not torn down")
	}
}

func TestLogicalRangeInsertMovesIsland(t *testing.T) {
	host := fragment(t, `<b></b>`)
	cand := fragment(t, `<!--island:{"id":"c1"}-->x<!--island:{"id":"c1"}-->`)
	items, err := Collect(Logical(cand, JSONMarkers{}))
	if err != nil {
		t.Fatal(err)
	}

	if err := Logical(host, JSONMarkers{}).InsertBefore(items[0], host.FirstChild); err != nil {
		t.Fatal(err)
	}
	if got := dom.String(host); got != `<!--island:{"id":"c1"}-->x<!--island:{"id":"c1"}--><b></b>` {
		t.Errorf("host = %q", got)
	}
	if cand.FirstChild != nil {
		t.Error("candidate should be empty after the island moved")
	}
}

func TestLogicalRangeChildren(t *testing.T) {
	root := fragment(t, `<div><!--island:{"id":"n"}--><span></span><!--island:{"id":"n"}--></div>`)
	r := Logical(root, JSONMarkers{})

	child, ok := r.Children(root.FirstChild).(*LogicalRange)
	if !ok {
		t.Fatal("Children of a logical range should be logical")
	}
	if child.Detached() != r.Detached() {
		t.Error("derived ranges should share the holding container")
	}
	if got := itemData(t, child); !equalStrings(got, []string{"island:n"}) {
		t.Errorf("nested items = %v", got)
	}
}

func TestItemsStopsEarly(t *testing.T) {
	root := fragment(t, `a<b></b>c`)
	count := 0
	for range Physical(root).Items() {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestRangeKindString(t *testing.T) {
	if RangeLogical.String() != "Logical" || RangeKind(9).String() != "Unknown" {
		t.Error("unexpected RangeKind strings")
	}
}
