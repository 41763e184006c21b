package morph

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/net/html"

	"github.com/vango-dev/domsync/pkg/dom"
)

// Reconciler applies candidate trees onto host trees. It holds no per-pass
// state, so one Reconciler may serve concurrent passes over disjoint host
// regions.
type Reconciler struct {
	attrs      AttributeSyncer
	values     ValueDeferrer
	islands    IslandHandler
	observer   func(Mutation)
	logger     *slog.Logger
	middleware []Middleware
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithAttributes replaces the attribute-sync collaborator.
func WithAttributes(a AttributeSyncer) Option {
	return func(r *Reconciler) {
		r.attrs = a
	}
}

// WithValues replaces the deferred-value collaborator.
func WithValues(v ValueDeferrer) Option {
	return func(r *Reconciler) {
		r.values = v
	}
}

// WithIslands sets the handler notified about matched, inserted and removed
// islands.
func WithIslands(h IslandHandler) Option {
	return func(r *Reconciler) {
		r.islands = h
	}
}

// WithObserver registers a callback that receives every mutation in the
// order it is applied.
func WithObserver(fn func(Mutation)) Option {
	return func(r *Reconciler) {
		r.observer = fn
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithMiddleware appends middleware wrapped around Run.
func WithMiddleware(mw ...Middleware) Option {
	return func(r *Reconciler) {
		r.middleware = append(r.middleware, mw...)
	}
}

// New creates a Reconciler with the default collaborators: Attributes,
// FormValues and NopIslands.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{
		attrs:   Attributes{},
		values:  FormValues{},
		islands: NopIslands{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Reconcile makes dst match cand. Candidate nodes inserted into dst are moved,
// so cand must not be reused afterwards. On error, edits applied so far are
// kept.
func (r *Reconciler) Reconcile(dst, cand Range) error {
	_, err := r.runPass(dst, cand)
	return err
}

// Run reconciles through the configured middleware and returns the pass
// statistics.
func (r *Reconciler) Run(ctx context.Context, dst, cand Range) (Stats, error) {
	run := Chain(r.middleware...)(func(_ context.Context, dst, cand Range) (Stats, error) {
		return r.runPass(dst, cand)
	})
	return run(ctx, dst, cand)
}

func (r *Reconciler) runPass(dst, cand Range) (Stats, error) {
	p := &pass{Reconciler: r}
	start := time.Now()

	if err := p.reconcile(dst, cand); err != nil {
		r.logger.Error("reconcile pass failed",
			"error", err,
			"code", ErrorCode(err),
			"range", dst.Kind().String(),
		)
		return p.stats, err
	}

	r.logger.Debug("reconcile pass",
		"range", dst.Kind().String(),
		"inserted", p.stats.Inserted,
		"removed", p.stats.Removed,
		"text", p.stats.TextUpdated,
		"attrs", p.stats.AttributesChanged,
		"values", p.stats.ValuesApplied,
		"islands", p.stats.IslandsMatched,
		"duration", time.Since(start),
	)
	return p.stats, nil
}

// pass is the state of one reconciliation.
type pass struct {
	*Reconciler
	stats Stats
}

func (p *pass) emit(m Mutation) {
	p.stats.record(m)
	if p.observer != nil {
		p.observer(m)
	}
}

func (p *pass) reconcile(dst, cand Range) error {
	dstItems, err := Collect(dst)
	if err != nil {
		return err
	}
	candItems, err := Collect(cand)
	if err != nil {
		return err
	}

	script := ComputeEditScript(dstItems, candItems, itemCost)
	return p.apply(dst, cand, dstItems, candItems, script)
}

// apply replays script over the two materialised lists, one cursor each.
func (p *pass) apply(dst, cand Range, dstItems, candItems []Item, script EditScript) error {
	i, j := 0, 0

	for ; i < script.SkipCount; i, j = i+1, j+1 {
		if err := p.match(dst, cand, dstItems[i], candItems[j]); err != nil {
			return err
		}
	}

	for _, op := range script.Operations {
		switch op {
		case OpKeep, OpUpdate:
			if err := p.match(dst, cand, dstItems[i], candItems[j]); err != nil {
				return err
			}
			i++
			j++
		case OpDelete:
			if err := p.remove(dst, dstItems[i]); err != nil {
				return err
			}
			i++
		case OpInsert:
			var before *html.Node
			if i < len(dstItems) {
				before = dstItems[i].Node
			}
			if err := p.insert(dst, candItems[j], before); err != nil {
				return err
			}
			j++
		}
	}

	// A shared suffix the script did not spell out is matched pairwise.
	for ; i < len(dstItems) && j < len(candItems); i, j = i+1, j+1 {
		if err := p.match(dst, cand, dstItems[i], candItems[j]); err != nil {
			return err
		}
	}

	if i < len(dstItems) || j < len(candItems) {
		return lengthMismatch(len(dstItems)-i, len(candItems)-j)
	}
	return nil
}

// match handles a Keep or Update pair.
func (p *pass) match(dst, cand Range, d, c Item) error {
	if itemCost(d, c) == CostInfinite {
		return unmatchable(d, c)
	}

	if d.Island != nil {
		p.islands.IslandMatched(d.Island, c.Island)
		p.emit(Mutation{Kind: MutationIslandMatched, Node: d.Node, Island: d.Island})
		return nil
	}

	switch dom.KindOf(d.Node) {
	case dom.KindText, dom.KindComment:
		if d.Node.Data != c.Node.Data {
			d.Node.Data = c.Node.Data
			p.emit(Mutation{Kind: MutationSetText, Node: d.Node})
		}
		return nil

	case dom.KindElement:
		p.stats.ElementsVisited++
		if n := p.attrs.SyncAttributes(d.Node, c.Node); n > 0 {
			p.emit(Mutation{Kind: MutationSetAttributes, Node: d.Node, Count: n})
		}

		// Read the intended value before the candidate's children can be
		// moved away, apply it once the host children exist.
		value, deferred := p.values.CaptureValue(c.Node)
		if err := p.reconcile(dst.Children(d.Node), cand.Children(c.Node)); err != nil {
			return err
		}
		if deferred && p.values.ApplyValue(d.Node, value) {
			p.emit(Mutation{Kind: MutationApplyValue, Node: d.Node})
		}
		return nil

	case dom.KindDocumentType:
		return nil

	default:
		return unsupportedNode(d.Node, "match")
	}
}

func (p *pass) remove(dst Range, it Item) error {
	if err := dst.Remove(it); err != nil {
		return err
	}
	p.emit(Mutation{Kind: MutationRemove, Node: it.Node, Island: it.Island})
	if it.Island != nil {
		p.islands.IslandRemoved(it.Island)
	}
	return nil
}

func (p *pass) insert(dst Range, it Item, before *html.Node) error {
	if it.Island == nil && dom.KindOf(it.Node) == dom.KindOther {
		return unsupportedNode(it.Node, "insert")
	}
	if err := dst.InsertBefore(it, before); err != nil {
		return err
	}
	p.emit(Mutation{Kind: MutationInsert, Node: it.Node, Island: it.Island})
	if it.Island != nil {
		p.islands.IslandInserted(it.Island)
	}
	return nil
}
