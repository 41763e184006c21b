package morph

import (
	"testing"

	"golang.org/x/net/html"

	"github.com/vango-dev/domsync/pkg/dom"
)

// fragment parses markup into a disconnected container.
func fragment(t testing.TB, markup string) *html.Node {
	t.Helper()
	root, err := dom.ParseFragment(markup)
	if err != nil {
		t.Fatalf("ParseFragment(%q): %v", markup, err)
	}
	return root
}

// recorder collects mutations in order.
type recorder struct {
	muts []Mutation
}

func (r *recorder) observe(m Mutation) {
	r.muts = append(r.muts, m)
}

func (r *recorder) kinds() []MutationKind {
	out := make([]MutationKind, len(r.muts))
	for i, m := range r.muts {
		out[i] = m.Kind
	}
	return out
}

// islandLog records IslandHandler calls.
type islandLog struct {
	matched  [][2]string
	inserted []string
	removed  []*Island
}

func (l *islandLog) IslandMatched(dst, cand *Island) {
	l.matched = append(l.matched, [2]string{dst.Marker.ID, cand.Marker.ID})
}

func (l *islandLog) IslandInserted(island *Island) {
	l.inserted = append(l.inserted, island.Marker.ID)
}

func (l *islandLog) IslandRemoved(island *Island) {
	l.removed = append(l.removed, island)
}

// reconcileFragments reconciles host markup against candidate markup through
// physical ranges and returns the host container.
func reconcileFragments(t *testing.T, host, cand string, opts ...Option) (*html.Node, Stats) {
	t.Helper()
	dst := fragment(t, host)
	src := fragment(t, cand)
	stats, err := New(opts...).Run(t.Context(), Physical(dst), Physical(src))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return dst, stats
}
