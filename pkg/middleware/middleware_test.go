package middleware

import (
	"context"
	"testing"

	"github.com/vango-dev/domsync/pkg/dom"
	"github.com/vango-dev/domsync/pkg/morph"
)

// ranges parses host and candidate markup into physical ranges.
func ranges(t *testing.T, host, cand string) (morph.Range, morph.Range) {
	t.Helper()
	dst, err := dom.ParseFragment(host)
	if err != nil {
		t.Fatal(err)
	}
	src, err := dom.ParseFragment(cand)
	if err != nil {
		t.Fatal(err)
	}
	return morph.Physical(dst), morph.Physical(src)
}

// stubPass returns fixed results without touching the ranges.
func stubPass(stats morph.Stats, err error) morph.PassFunc {
	return func(context.Context, morph.Range, morph.Range) (morph.Stats, error) {
		return stats, err
	}
}
