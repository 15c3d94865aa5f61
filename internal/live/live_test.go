package live

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/vsync/internal/errors"
	"github.com/vango-dev/vsync/pkg/dom"
	"github.com/vango-dev/vsync/pkg/metrics"
	"github.com/vango-dev/vsync/pkg/protocol"
	"github.com/vango-dev/vsync/pkg/vdom"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func view(title string, items ...string) *vdom.VNode {
	return vdom.Main(
		vdom.H1(vdom.Class("title"), title),
		vdom.Ul(vdom.Range(items, func(item string, _ int) *vdom.VNode {
			return vdom.Li(vdom.Key(item), vdom.CSS("color", "teal"), item)
		})),
	)
}

// rejected builds a tree the in-memory document refuses half way through.
func rejected() *vdom.VNode {
	v := vdom.Div("x")
	v.Props[""] = "bad"
	return v
}

type harness struct {
	session *Session
	hub     *Hub
	srv     *httptest.Server
	reg     *prometheus.Registry
	metrics *metrics.Collector
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(metrics.WithRegistry(reg))
	session := NewSession(discardLogger(), vdom.WithObserver(m))
	hub := NewHub(session, HubOptions{Logger: discardLogger(), Metrics: m})
	srv := httptest.NewServer(NewServer(ServerOptions{Hub: hub, Gatherer: reg, Logger: discardLogger()}).Handler())
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &harness{session: session, hub: hub, srv: srv, reg: reg, metrics: m}
}

func (h *harness) dial(t *testing.T) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws"
	c, err := Dial(ctx, url, protocol.DefaultLimits())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func (h *harness) render(t *testing.T, v *vdom.VNode) {
	t.Helper()
	if _, err := h.hub.Render(context.Background(), v); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
}

func next(t *testing.T, c *Client) (*protocol.MutationsFrame, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.Next(ctx)
}

// catchUp reads until c has applied the hub's latest batch.
func catchUp(t *testing.T, c *Client, h *Hub) {
	t.Helper()
	for c.root == nil || c.Seq() != h.Seq() {
		if _, err := next(t, c); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
	}
}

func TestSessionRender(t *testing.T) {
	s := NewSession(discardLogger())

	res, err := s.Render(context.Background(), view("one", "a", "b"))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if res.Batch.Seq != 1 || res.Batch.Snapshot || len(res.Batch.Mutations) == 0 {
		t.Errorf("mount batch = seq %d snapshot %v with %d mutations", res.Batch.Seq, res.Batch.Snapshot, len(res.Batch.Mutations))
	}
	if res.Stats.Created != 8 {
		t.Errorf("Created = %d, want 8", res.Stats.Created)
	}

	res, err = s.Render(context.Background(), view("one", "b", "a"))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if res.Batch.Seq != 2 || res.Stats.Moved != 1 || res.Stats.Created != 0 {
		t.Errorf("patch = seq %d, stats %s", res.Batch.Seq, res.Stats)
	}

	want := `<main><h1 class="title">one</h1><ul><li style="color:teal">b</li><li style="color:teal">a</li></ul></main>`
	if got := s.HTML(); got != want {
		t.Errorf("HTML() = %s\nwant %s", got, want)
	}
}

func TestSessionSnapshotReplays(t *testing.T) {
	s := NewSession(discardLogger())
	for _, v := range []*vdom.VNode{view("a", "x", "y"), view("b", "y", "z", "x")} {
		if _, err := s.Render(context.Background(), v); err != nil {
			t.Fatal(err)
		}
	}

	snap := s.Snapshot()
	if !snap.Snapshot || snap.Seq != 2 {
		t.Errorf("Snapshot() = seq %d snapshot %v", snap.Seq, snap.Snapshot)
	}

	tree := dom.NewTree()
	r := dom.NewReplayer(tree)
	if err := r.Apply(snap.Mutations); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	root, _ := r.Lookup(snap.Mutations[0].Node)
	if got := dom.InnerHTML(root); got != s.HTML() {
		t.Errorf("replayed = %s\nwant %s", got, s.HTML())
	}
}

func TestSessionErrors(t *testing.T) {
	t.Run("validation keeps state", func(t *testing.T) {
		s := NewSession(discardLogger())
		if _, err := s.Render(context.Background(), view("a", "x")); err != nil {
			t.Fatal(err)
		}
		before := s.HTML()

		res, err := s.Render(context.Background(), vdom.H("", nil))
		if !errors.HasCode(err, "E100") {
			t.Fatalf("Render() error = %v, want E100", err)
		}
		if res.Resync || res.Batch != nil {
			t.Errorf("Result = %+v, want no batch and no resync", res)
		}
		if s.HTML() != before || s.Seq() != 1 {
			t.Errorf("state changed: seq %d, html %s", s.Seq(), s.HTML())
		}

		res, err = s.Render(context.Background(), view("b", "x"))
		if err != nil {
			t.Fatalf("Render() after failure error = %v", err)
		}
		// Both text nodes are written, changed or not.
		if res.Stats.Created != 0 || res.Stats.TextUpdates != 2 {
			t.Errorf("stats = %s, want 2 text updates and no creates", res.Stats)
		}
	})

	t.Run("partial failure resets", func(t *testing.T) {
		var logs strings.Builder
		s := NewSession(slog.New(slog.NewTextHandler(&logs, nil)))
		if _, err := s.Render(context.Background(), view("a", "x")); err != nil {
			t.Fatal(err)
		}

		res, err := s.Render(context.Background(), rejected())
		if !errors.HasCode(err, "E105") {
			t.Fatalf("Render() error = %v, want E105", err)
		}
		if !res.Resync {
			t.Error("Resync = false, want true")
		}
		if !strings.Contains(logs.String(), "error.code=E105") {
			t.Errorf("log = %q, want the error code as a field", logs.String())
		}
		if s.HTML() != "" || s.Seq() != 2 {
			t.Errorf("after reset: seq %d, html %q", s.Seq(), s.HTML())
		}

		res, err = s.Render(context.Background(), view("b", "y"))
		if err != nil {
			t.Fatalf("Render() after reset error = %v", err)
		}
		if res.Batch.Seq != 3 || res.Stats.Created != 6 {
			t.Errorf("remount = seq %d, stats %s", res.Batch.Seq, res.Stats)
		}
	})
}

func TestHubStream(t *testing.T) {
	h := newHarness(t)
	c := h.dial(t)

	batch, err := next(t, c)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if !batch.Snapshot || c.HTML() != "" {
		t.Errorf("first batch snapshot = %v, html %q", batch.Snapshot, c.HTML())
	}

	states := []*vdom.VNode{
		view("first", "a", "b", "c"),
		view("second", "c", "a", "b", "d"),
		view("third"),
		view("fourth", "z"),
	}
	for i, v := range states {
		h.render(t, v)
		catchUp(t, c, h.hub)
		if got, want := c.HTML(), h.hub.HTML(); got != want {
			t.Errorf("state %d: client = %s\nserver = %s", i, got, want)
		}
	}

	late := h.dial(t)
	catchUp(t, late, h.hub)
	if got, want := late.HTML(), h.hub.HTML(); got != want {
		t.Errorf("late joiner = %s\nserver = %s", got, want)
	}
	if n := h.hub.ClientCount(); n != 2 {
		t.Errorf("ClientCount() = %d, want 2", n)
	}
}

func TestHubErrorFrames(t *testing.T) {
	h := newHarness(t)
	c := h.dial(t)
	catchUp(t, c, h.hub)
	h.render(t, view("a", "x", "y"))
	catchUp(t, c, h.hub)

	// Validation failure: error frame only.
	if _, err := h.hub.Render(context.Background(), vdom.H("", nil)); err == nil {
		t.Fatal("Render() of an invalid tree succeeded")
	}
	_, err := next(t, c)
	var em *protocol.ErrorMessage
	if !stderrors.As(err, &em) {
		t.Fatalf("Next() error = %v, want *protocol.ErrorMessage", err)
	}
	if em.Code != protocol.ErrReconcile || em.IsFatal() || !strings.Contains(em.Message, "E100") {
		t.Errorf("error message = %+v", em)
	}

	// Document failure: error frame, then a snapshot of the reset body.
	if _, err := h.hub.Render(context.Background(), rejected()); !errors.HasCode(err, "E105") {
		t.Fatalf("Render() error = %v, want E105", err)
	}
	if _, err := next(t, c); !stderrors.As(err, &em) {
		t.Fatalf("Next() error = %v, want *protocol.ErrorMessage", err)
	}
	batch, err := next(t, c)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if !batch.Snapshot || c.HTML() != "" || c.Seq() != h.hub.Seq() {
		t.Errorf("resync batch = snapshot %v seq %d, html %q", batch.Snapshot, c.Seq(), c.HTML())
	}

	h.render(t, view("b", "y"))
	catchUp(t, c, h.hub)
	if got, want := c.HTML(), h.hub.HTML(); got != want {
		t.Errorf("after resync client = %s\nserver = %s", got, want)
	}
}

func TestServerRoutes(t *testing.T) {
	h := newHarness(t)
	h.render(t, view("hello", "a"))

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{"/healthz", http.StatusOK, "OK"},
		{"/", http.StatusOK, `<h1 class="title">hello</h1>`},
		{"/", http.StatusOK, `<meta name="vsync-seq" content="1">`},
		{"/metrics", http.StatusOK, `vsync_passes_total{phase="mount",status="success"} 1`},
		{"/missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(h.srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if !strings.Contains(string(body), tt.contains) {
				t.Errorf("body does not contain %q:\n%s", tt.contains, body)
			}
		})
	}
}

func TestHubMetrics(t *testing.T) {
	h := newHarness(t)
	c := h.dial(t)
	catchUp(t, c, h.hub)
	h.render(t, view("a", "x"))
	catchUp(t, c, h.hub)

	mfs, err := h.reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	values := make(map[string]float64)
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			values[mf.GetName()] += m.GetCounter().GetValue()
		}
	}

	// One snapshot frame and one batch frame.
	if got := values["vsync_frames_sent_total"]; got != 2 {
		t.Errorf("frames_sent_total = %v, want 2", got)
	}
	if got := values["vsync_frame_bytes_total"]; got <= 0 {
		t.Errorf("frame_bytes_total = %v, want > 0", got)
	}
	if n, err := testutil.GatherAndCount(h.reg, "vsync_passes_total"); err != nil || n != 1 {
		t.Errorf("passes_total series = %d, %v", n, err)
	}
}

func TestPlay(t *testing.T) {
	h := newHarness(t)
	trees := []*vdom.VNode{view("a", "x"), view("b", "x", "y")}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	Play(ctx, h.hub, trees, 5*time.Millisecond, discardLogger())

	if seq := h.hub.Seq(); seq < 3 {
		t.Errorf("Seq() = %d, want at least 3 renders", seq)
	}
	if trees[0].Node != nil {
		t.Error("Play mounted the caller's tree instead of a clone")
	}
}
