package live

import (
	"context"
	"log/slog"

	"github.com/vango-dev/vsync/pkg/dom"
	"github.com/vango-dev/vsync/pkg/protocol"
	"github.com/vango-dev/vsync/pkg/vdom"
)

// Session is the server side of a live document: an in-memory tree, the
// reconciler that keeps it in sync with the latest virtual tree and the
// journal that becomes the wire stream.
// It is not safe for concurrent use; Hub serializes access.
type Session struct {
	tree    *dom.Tree
	rec     *dom.Recorder
	r       *vdom.Reconciler
	body    dom.Node
	current *vdom.VNode
	seq     uint64
	logger  *slog.Logger
}

// Result describes one Render.
type Result struct {
	// Batch holds the mutations of the pass. Nil when the pass failed.
	Batch *protocol.MutationsFrame

	// Stats is the work done, including partial work of a failed pass.
	Stats vdom.Stats

	// Resync is set when a failed pass had already mutated the document.
	// The session is reset to an empty body and clients need a snapshot.
	Resync bool
}

// NewSession creates a session with an empty body. opts are passed to the
// reconciler; the logger is added first so an explicit vdom.WithLogger wins.
func NewSession(logger *slog.Logger, opts ...vdom.Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	tree := dom.NewTree()
	rec := dom.NewRecorder(tree)
	return &Session{
		tree:   tree,
		rec:    rec,
		r:      vdom.NewReconciler(rec, append([]vdom.Option{vdom.WithLogger(logger)}, opts...)...),
		body:   tree.CreateElement("body"),
		logger: logger,
	}
}

// Render brings the document in line with next: the first call mounts, later
// calls patch. next must be a fresh tree; it is kept as the base of the next
// pass.
func (s *Session) Render(ctx context.Context, next *vdom.VNode) (Result, error) {
	var (
		stats vdom.Stats
		err   error
	)
	if s.current == nil {
		stats, err = s.r.MountContext(ctx, next, s.body)
	} else {
		stats, err = s.r.PatchContext(ctx, s.current, next)
	}
	muts := s.rec.Drain()

	if err != nil {
		if len(muts) == 0 {
			return Result{Stats: stats}, err
		}
		s.logger.Warn("render failed after mutating the document; resetting",
			"mutations", len(muts), "error", err)
		s.reset()
		return Result{Stats: stats, Resync: true}, err
	}

	s.current = next
	s.seq++
	return Result{
		Batch: &protocol.MutationsFrame{Seq: s.seq, Mutations: muts},
		Stats: stats,
	}, nil
}

// reset empties the body outside the journal and bumps the sequence so the
// following snapshot supersedes everything sent before.
func (s *Session) reset() {
	s.tree.ClearChildren(s.body)
	s.current = nil
	s.seq++
}

// Snapshot returns a batch that rebuilds the whole body, root included, in an
// empty document.
func (s *Session) Snapshot() *protocol.MutationsFrame {
	return &protocol.MutationsFrame{
		Seq:       s.seq,
		Snapshot:  true,
		Mutations: s.tree.Snapshot(s.body),
	}
}

// Seq returns the sequence number of the last batch.
func (s *Session) Seq() uint64 {
	return s.seq
}

// HTML renders the current body content.
func (s *Session) HTML() string {
	return dom.InnerHTML(s.body)
}
