package vdom

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vsync/internal/errors"
	"github.com/vango-dev/vsync/pkg/dom"
)

// Default tracer name for reconciliation spans.
const defaultTracerName = "vsync/vdom"

// KeyPolicy decides what happens when siblings share a key.
type KeyPolicy string

const (
	// KeyPolicyWarn logs a warning and lets the last duplicate win in the
	// key index.
	KeyPolicyWarn KeyPolicy = "warn"

	// KeyPolicyReject fails the pass with E101 before any mutation.
	KeyPolicyReject KeyPolicy = "reject"
)

// PropRemoval decides when a property present in the old props is removed.
type PropRemoval string

const (
	// PropRemovalFalsy removes a property whose new value is absent or falsy
	// (nil, "", false, 0, NaN). The new value is still applied afterwards.
	PropRemovalFalsy PropRemoval = "falsy"

	// PropRemovalPresence removes a property only when its name is absent
	// from the new props.
	PropRemovalPresence PropRemoval = "presence"
)

// Phase names a reconciliation entry point.
type Phase string

const (
	PhaseMount Phase = "mount"
	PhasePatch Phase = "patch"
)

// Observer receives the outcome of every Mount and Patch.
type Observer interface {
	ObservePass(phase Phase, stats Stats, elapsed time.Duration, err error)
}

// Stats counts the work done by one pass.
type Stats struct {
	Created      int // External nodes created
	Removed      int // Old children detached (ClearChildren counts each child)
	Moved        int // Existing nodes repositioned
	Replaced     int // Subtrees replaced on kind or tag change
	TextUpdates  int // SetText calls
	PropSets     int
	PropRemovals int
	StyleSets    int
	StyleClears  int
	Patched      int // Node pairs reconciled in place
}

// Mutations returns the number of node-level changes, excluding per-property
// writes.
func (s Stats) Mutations() int {
	return s.Created + s.Removed + s.Moved + s.Replaced + s.TextUpdates
}

// Add returns the sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Created:      s.Created + o.Created,
		Removed:      s.Removed + o.Removed,
		Moved:        s.Moved + o.Moved,
		Replaced:     s.Replaced + o.Replaced,
		TextUpdates:  s.TextUpdates + o.TextUpdates,
		PropSets:     s.PropSets + o.PropSets,
		PropRemovals: s.PropRemovals + o.PropRemovals,
		StyleSets:    s.StyleSets + o.StyleSets,
		StyleClears:  s.StyleClears + o.StyleClears,
		Patched:      s.Patched + o.Patched,
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("created=%d removed=%d moved=%d replaced=%d text=%d props=+%d/-%d styles=+%d/-%d patched=%d",
		s.Created, s.Removed, s.Moved, s.Replaced, s.TextUpdates,
		s.PropSets, s.PropRemovals, s.StyleSets, s.StyleClears, s.Patched)
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracer sets the tracer used for Mount and Patch spans. Defaults to the
// global OpenTelemetry provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Reconciler) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithObserver registers an observer for pass results.
func WithObserver(o Observer) Option {
	return func(r *Reconciler) {
		r.observer = o
	}
}

// WithKeyPolicy sets the duplicate key policy.
func WithKeyPolicy(p KeyPolicy) Option {
	return func(r *Reconciler) {
		r.keyPolicy = p
	}
}

// WithPropRemoval sets the property removal rule.
func WithPropRemoval(p PropRemoval) Option {
	return func(r *Reconciler) {
		r.propRemoval = p
	}
}

// WithValidation enables or disables structural validation of input trees.
// Enabled by default.
func WithValidation(enabled bool) Option {
	return func(r *Reconciler) {
		r.validate = enabled
	}
}

// Reconciler mounts virtual trees into a dom.Document and patches them.
//
// A Reconciler is not safe for concurrent use: a Mount or Patch started while
// another one is running on the same instance fails with E104.
type Reconciler struct {
	doc         dom.Document
	logger      *slog.Logger
	tracer      trace.Tracer
	observer    Observer
	keyPolicy   KeyPolicy
	propRemoval PropRemoval
	validate    bool

	busy atomic.Bool
}

// NewReconciler creates a Reconciler writing to doc.
func NewReconciler(doc dom.Document, opts ...Option) *Reconciler {
	r := &Reconciler{
		doc:         doc,
		logger:      slog.Default(),
		tracer:      otel.Tracer(defaultTracerName),
		keyPolicy:   KeyPolicyWarn,
		propRemoval: PropRemovalFalsy,
		validate:    true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Document returns the document the reconciler writes to.
func (r *Reconciler) Document() dom.Document {
	return r.doc
}

// Mount materializes v and appends its root to container. Every vnode in the
// tree gets its Node set. Mounting the same tree twice appends it twice.
func (r *Reconciler) Mount(v *VNode, container dom.Node) (Stats, error) {
	return r.MountContext(context.Background(), v, container)
}

// MountContext is Mount with a parent context for tracing.
func (r *Reconciler) MountContext(ctx context.Context, v *VNode, container dom.Node) (Stats, error) {
	return r.run(ctx, PhaseMount, func(p *pass) error {
		if container == nil {
			return errors.New("E106")
		}
		if err := r.check(v); err != nil {
			return err
		}
		n, err := p.create(v)
		if err != nil {
			return err
		}
		r.doc.AppendChild(container, n)
		return nil
	})
}

// Patch brings the external tree mounted from prev in line with next and
// returns the work done. prev must have been mounted or patched before; after
// Patch returns, next carries the external nodes and prev must not be reused.
//
// On error the external tree may be partially updated. Validation errors
// (E100, E101, E102 at the root) are returned before any mutation.
func (r *Reconciler) Patch(prev, next *VNode) (Stats, error) {
	return r.PatchContext(context.Background(), prev, next)
}

// PatchContext is Patch with a parent context for tracing.
func (r *Reconciler) PatchContext(ctx context.Context, prev, next *VNode) (Stats, error) {
	return r.run(ctx, PhasePatch, func(p *pass) error {
		if prev == nil {
			return errors.New("E100").WithDetail("previous tree is nil")
		}
		if prev.Node == nil {
			return errors.New("E102")
		}
		if err := r.check(next); err != nil {
			return err
		}
		return p.patch(prev, next)
	})
}

// check validates v according to the reconciler's options.
func (r *Reconciler) check(v *VNode) error {
	if v == nil {
		return errors.New("E100").WithDetail("tree is nil")
	}
	if r.validate {
		if err := Validate(v); err != nil {
			return err
		}
	}
	for _, dup := range DuplicateKeys(v) {
		if r.keyPolicy == KeyPolicyReject {
			return errors.New("E101").
				WithPath(dup.Path).
				WithDetailf("key %q appears more than once under %s", dup.Key, dup.Path).
				WithSuggestion("Give every sibling a distinct key, or remove the keys")
		}
		r.logger.Warn("duplicate sibling key", "key", dup.Key, "path", dup.Path)
	}
	return nil
}

// run executes fn as one traced, observed pass. It refuses to start while
// another pass is active and converts document panics into E105.
func (r *Reconciler) run(ctx context.Context, phase Phase, fn func(*pass) error) (stats Stats, err error) {
	if !r.busy.CompareAndSwap(false, true) {
		return Stats{}, errors.New("E104")
	}
	defer r.busy.Store(false)

	_, span := r.tracer.Start(ctx, "vdom."+string(phase),
		trace.WithAttributes(attribute.String("vsync.phase", string(phase))),
	)
	start := time.Now()
	p := &pass{r: r, doc: r.doc}

	defer func() {
		if rec := recover(); rec != nil {
			merr, ok := rec.(*dom.MutationError)
			if !ok {
				span.End()
				panic(rec)
			}
			err = errors.New("E105").WithDetail(merr.Error()).Wrap(merr)
		}
		stats = p.stats
		elapsed := time.Since(start)

		span.SetAttributes(
			attribute.Int("vsync.created", stats.Created),
			attribute.Int("vsync.removed", stats.Removed),
			attribute.Int("vsync.moved", stats.Moved),
			attribute.Int("vsync.replaced", stats.Replaced),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.logger.Debug("reconcile failed", "phase", phase, "error", err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()

		if r.observer != nil {
			r.observer.ObservePass(phase, stats, elapsed, err)
		}
	}()

	err = fn(p)
	return stats, err
}

// pass holds the state of one Mount or Patch.
type pass struct {
	r     *Reconciler
	doc   dom.Document
	stats Stats
}

// Mount mounts v into container on doc with default options.
func Mount(doc dom.Document, v *VNode, container dom.Node) error {
	_, err := NewReconciler(doc).Mount(v, container)
	return err
}

// Patch patches prev into next on doc with default options.
func Patch(doc dom.Document, prev, next *VNode) error {
	_, err := NewReconciler(doc).Patch(prev, next)
	return err
}
