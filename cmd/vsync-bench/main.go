package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"runtime/metrics"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/vsync/internal/live"
	"github.com/vango-dev/vsync/pkg/dom"
	vmetrics "github.com/vango-dev/vsync/pkg/metrics"
	"github.com/vango-dev/vsync/pkg/protocol"
	. "github.com/vango-dev/vsync/pkg/vdom"
)

type profile struct {
	Name     string
	Clients  int
	Duration time.Duration
	RPS      float64
	ListSize int
	Edits    int
}

var profiles = map[string]profile{
	"fast": {
		Name:     "fast",
		Clients:  20,
		Duration: 10 * time.Second,
		RPS:      10,
		ListSize: 50,
		Edits:    3,
	},
	"standard": {
		Name:     "standard",
		Clients:  100,
		Duration: 30 * time.Second,
		RPS:      20,
		ListSize: 200,
		Edits:    5,
	},
	"stress": {
		Name:     "stress",
		Clients:  500,
		Duration: 60 * time.Second,
		RPS:      50,
		ListSize: 1000,
		Edits:    20,
	},
}

type benchConfig struct {
	Profile    string
	Clients    int
	Duration   time.Duration
	RPS        float64
	ListSize   int
	Edits      int
	MaxProcs   int
	Seed       uint64
	JSONOutput string
}

type benchCounters struct {
	renders      atomic.Uint64
	renderErrors atomic.Uint64
	batches      atomic.Uint64
	snapshots    atomic.Uint64
	mutations    atomic.Uint64
	mismatches   atomic.Uint64
	dialFailures atomic.Uint64
	streamErrors atomic.Uint64
	serverErrors atomic.Uint64
}

type opCounts struct {
	counts [256]atomic.Uint64
}

func (p *opCounts) add(op dom.MutationOp) {
	p.counts[uint8(op)].Add(1)
}

func (p *opCounts) snapshot() map[string]uint64 {
	out := make(map[string]uint64)
	for i := range p.counts {
		count := p.counts[i].Load()
		if count == 0 {
			continue
		}
		name := dom.MutationOp(uint8(i)).String()
		if name == "Unknown" {
			name = fmt.Sprintf("0x%02x", i)
		}
		out[name] = count
	}
	return out
}

// renderLog remembers when each sequence number was broadcast.
type renderLog struct {
	mu    sync.Mutex
	sent  map[uint64]time.Time
	final string
}

func (l *renderLog) record(seq uint64, at time.Time) {
	l.mu.Lock()
	l.sent[seq] = at
	l.mu.Unlock()
}

func (l *renderLog) since(seq uint64) (time.Duration, bool) {
	l.mu.Lock()
	at, ok := l.sent[seq]
	l.mu.Unlock()
	if !ok {
		return 0, false
	}
	return time.Since(at), true
}

func main() {
	log.SetFlags(0)

	cfg, err := parseConfig()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}
	debug.SetGCPercent(100)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	reg := prometheus.NewRegistry()
	collector := vmetrics.New(vmetrics.WithRegistry(reg))
	session := live.NewSession(logger, WithObserver(collector))
	hub := live.NewHub(session, live.HubOptions{Logger: logger, Metrics: collector})
	srv := live.NewServer(live.ServerOptions{Hub: hub, Gatherer: reg, Logger: logger})

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	httpServer := &http.Server{Handler: srv.Handler()}
	go func() {
		_ = httpServer.Serve(ln)
	}()
	defer func() {
		hub.Close()
		_ = httpServer.Shutdown(context.Background())
	}()

	wsURL := "ws://" + ln.Addr().String() + "/ws"

	var (
		counters benchCounters
		ops      opCounts
		rlog     = &renderLog{sent: make(map[uint64]time.Time)}
	)

	w := newWorkload(cfg.ListSize, cfg.Seed)
	if _, err := hub.Render(context.Background(), w.view()); err != nil {
		log.Fatalf("initial render: %v", err)
	}
	rlog.record(hub.Seq(), time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	samplesCh := make(chan time.Duration, sampleBuffer(cfg.Clients))
	var samples []time.Duration
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for rtt := range samplesCh {
			samples = append(samples, rtt)
		}
	}()

	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	beforeMetrics := readRuntimeMetrics()

	start := time.Now()
	finals := make(chan string, cfg.Clients)
	var wg sync.WaitGroup
	wg.Add(cfg.Clients)
	for i := 0; i < cfg.Clients; i++ {
		go func() {
			defer wg.Done()
			html, err := runClient(ctx, wsURL, &counters, &ops, rlog, samplesCh)
			if err != nil {
				counters.streamErrors.Add(1)
			}
			finals <- html
		}()
	}

	renderLoop(ctx, hub, w, cfg, &counters, rlog)
	rlog.final = hub.HTML()

	wg.Wait()
	close(samplesCh)
	close(finals)
	<-collectorDone

	for html := range finals {
		if html != rlog.final {
			counters.mismatches.Add(1)
		}
	}

	elapsed := time.Since(start)

	var after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&after)
	afterMetrics := readRuntimeMetrics()

	latencies := append([]time.Duration(nil), samples...)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	report := buildReport(cfg, elapsed, latencies, &counters, &ops, gatherWire(reg), before, after, beforeMetrics, afterMetrics)

	writeSummary(os.Stderr, report)
	if err := writeJSON(cfg.JSONOutput, report); err != nil {
		log.Fatalf("write json: %v", err)
	}
}

func sampleBuffer(clients int) int {
	if clients < 1 {
		return 1024
	}
	return max(clients*4, 1024)
}

func parseConfig() (benchConfig, error) {
	profileFlag := flag.String("profile", "standard", "profile: fast|standard|stress")
	clientsFlag := flag.Int("clients", -1, "number of concurrent mirror clients")
	durationFlag := flag.String("duration", "", "benchmark duration, e.g. 30s")
	rpsFlag := flag.Float64("rps", -1, "renders per second")
	listFlag := flag.Int("list", -1, "number of keyed list items")
	editsFlag := flag.Int("edits", -1, "list edits per render")
	maxProcsFlag := flag.Int("max-procs", -1, "GOMAXPROCS cap (0 to leave unchanged)")
	seedFlag := flag.Uint64("seed", 1, "workload random seed")
	jsonFlag := flag.String("json", "-", "JSON output path ('-' for stdout)")
	flag.Parse()

	name := strings.ToLower(strings.TrimSpace(*profileFlag))
	if name == "" {
		name = "standard"
	}
	base, ok := profiles[name]
	if !ok {
		return benchConfig{}, fmt.Errorf("unknown profile %q", name)
	}

	cfg := benchConfig{
		Profile:    base.Name,
		Clients:    base.Clients,
		Duration:   base.Duration,
		RPS:        base.RPS,
		ListSize:   base.ListSize,
		Edits:      base.Edits,
		Seed:       *seedFlag,
		JSONOutput: strings.TrimSpace(*jsonFlag),
	}

	if *clientsFlag != -1 {
		cfg.Clients = *clientsFlag
	}
	if *durationFlag != "" {
		d, err := time.ParseDuration(*durationFlag)
		if err != nil {
			return benchConfig{}, fmt.Errorf("invalid -duration: %w", err)
		}
		cfg.Duration = d
	}
	if *rpsFlag != -1 {
		cfg.RPS = *rpsFlag
	}
	if *listFlag != -1 {
		cfg.ListSize = *listFlag
	}
	if *editsFlag != -1 {
		cfg.Edits = *editsFlag
	}
	if *maxProcsFlag != -1 {
		cfg.MaxProcs = *maxProcsFlag
	}
	if cfg.JSONOutput == "" {
		cfg.JSONOutput = "-"
	}
	return cfg, cfg.validate()
}

func (c benchConfig) validate() error {
	switch {
	case c.Clients <= 0:
		return errors.New("-clients must be > 0")
	case c.Duration <= 0:
		return errors.New("-duration must be > 0")
	case c.RPS <= 0:
		return errors.New("-rps must be > 0")
	case c.ListSize < 0:
		return errors.New("-list must be >= 0")
	case c.Edits < 0:
		return errors.New("-edits must be >= 0")
	}
	return nil
}

// renderLoop applies cfg.Edits random edits and renders, cfg.RPS times a
// second, until ctx is done.
func renderLoop(ctx context.Context, hub *live.Hub, w *workload, cfg benchConfig, counters *benchCounters, rlog *renderLog) {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / cfg.RPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for i := 0; i < cfg.Edits; i++ {
			w.edit()
		}
		// Recorded up front so fast clients find their batch.
		rlog.record(hub.Seq()+1, time.Now())
		if _, err := hub.Render(context.Background(), w.view()); err != nil {
			counters.renderErrors.Add(1)
			continue
		}
		counters.renders.Add(1)
	}
}

// runClient mirrors the stream until ctx is done and returns the final
// mirrored HTML.
func runClient(
	ctx context.Context,
	wsURL string,
	counters *benchCounters,
	ops *opCounts,
	rlog *renderLog,
	samples chan<- time.Duration,
) (string, error) {
	client, err := live.Dial(ctx, wsURL, protocol.DefaultLimits())
	if err != nil {
		counters.dialFailures.Add(1)
		return "", fmt.Errorf("dial: %w", err)
	}
	defer client.Close()

	// Drain the tail of the stream for a moment after the run ends.
	readCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-ctx.Done()
		time.Sleep(500 * time.Millisecond)
		cancel()
		client.Close()
	}()

	for {
		batch, err := client.Next(readCtx)
		var em *protocol.ErrorMessage
		switch {
		case errors.As(err, &em):
			counters.serverErrors.Add(1)
			continue
		case err != nil:
			if readCtx.Err() != nil {
				return client.HTML(), nil
			}
			return client.HTML(), err
		}

		if batch.Snapshot {
			counters.snapshots.Add(1)
		} else {
			counters.batches.Add(1)
			if rtt, ok := rlog.since(batch.Seq); ok {
				samples <- rtt
			}
		}
		counters.mutations.Add(uint64(len(batch.Mutations)))
		for _, m := range batch.Mutations {
			ops.add(m.Op)
		}
	}
}

// workload is a keyed list edited at random between renders.
type workload struct {
	rng   *rand.Rand
	items []item
	next  int
}

type item struct {
	id    int
	label string
	done  bool
}

func newWorkload(size int, seed uint64) *workload {
	w := &workload{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	for i := 0; i < size; i++ {
		w.items = append(w.items, w.newItem())
	}
	return w
}

func (w *workload) newItem() item {
	w.next++
	return item{id: w.next, label: fmt.Sprintf("Item %d", w.next)}
}

// edit applies one random change: move, relabel, toggle, insert or remove.
func (w *workload) edit() {
	n := len(w.items)
	if n == 0 {
		w.items = append(w.items, w.newItem())
		return
	}
	i := w.rng.IntN(n)
	switch w.rng.IntN(5) {
	case 0:
		it := w.items[i]
		w.items = append(w.items[:i], w.items[i+1:]...)
		j := w.rng.IntN(len(w.items) + 1)
		w.items = append(w.items[:j], append([]item{it}, w.items[j:]...)...)
	case 1:
		w.items[i].label = fmt.Sprintf("Item %d (%d)", w.items[i].id, w.rng.IntN(100))
	case 2:
		w.items[i].done = !w.items[i].done
	case 3:
		w.items = append(w.items[:i], append([]item{w.newItem()}, w.items[i:]...)...)
	default:
		w.items = append(w.items[:i], w.items[i+1:]...)
	}
}

func (w *workload) view() *VNode {
	return Div(
		H1(Textf("%d items", len(w.items))),
		Ul(ID("items"), Range(w.items, func(it item, _ int) *VNode {
			return Li(Key(it.id), itemAttrs(it), it.label)
		})),
	)
}

func itemAttrs(it item) []Attr {
	if !it.done {
		return nil
	}
	return []Attr{Class("done"), CSS("textDecoration", "line-through")}
}

type wireTotals struct {
	frames float64
	bytes  float64
}

func gatherWire(g prometheus.Gatherer) wireTotals {
	var out wireTotals
	mfs, err := g.Gather()
	if err != nil {
		return out
	}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch mf.GetName() {
			case "vsync_frames_sent_total":
				out.frames += m.GetCounter().GetValue()
			case "vsync_frame_bytes_total":
				out.bytes += m.GetCounter().GetValue()
			}
		}
	}
	return out
}

type runtimeMetricsSnapshot struct {
	cpuTotalSeconds   float64
	cpuGCSeconds      float64
	heapAllocsObjects uint64
}

func readRuntimeMetrics() runtimeMetricsSnapshot {
	samples := []metrics.Sample{
		{Name: "/cpu/classes/total:cpu-seconds"},
		{Name: "/cpu/classes/gc/total:cpu-seconds"},
		{Name: "/gc/heap/allocs:objects"},
	}
	metrics.Read(samples)

	var out runtimeMetricsSnapshot
	for _, s := range samples {
		switch s.Name {
		case "/cpu/classes/total:cpu-seconds":
			out.cpuTotalSeconds = s.Value.Float64()
		case "/cpu/classes/gc/total:cpu-seconds":
			out.cpuGCSeconds = s.Value.Float64()
		case "/gc/heap/allocs:objects":
			out.heapAllocsObjects = s.Value.Uint64()
		}
	}
	return out
}

func cpuFraction(after, before runtimeMetricsSnapshot) float64 {
	total := after.cpuTotalSeconds - before.cpuTotalSeconds
	if total <= 0 {
		return 0
	}
	gc := after.cpuGCSeconds - before.cpuGCSeconds
	if gc < 0 {
		return 0
	}
	return gc / total
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

type benchReport struct {
	Version    string         `json:"version"`
	Run        runInfo        `json:"run"`
	Workload   workloadInfo   `json:"workload"`
	LatencyMS  latencyInfo    `json:"latency_ms"`
	Throughput throughputInfo `json:"throughput"`
	GC         gcInfo         `json:"gc"`
	Protocol   protocolInfo   `json:"protocol"`
	Errors     errorInfo      `json:"errors"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
}

type workloadInfo struct {
	Profile    string  `json:"profile"`
	Clients    int     `json:"clients"`
	DurationMS int64   `json:"duration_ms"`
	RPS        float64 `json:"rps"`
	ListSize   int     `json:"list_size"`
	Edits      int     `json:"edits_per_render"`
	Seed       uint64  `json:"seed"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type throughputInfo struct {
	Renders          uint64  `json:"renders_total"`
	RendersPerSec    float64 `json:"renders_per_sec"`
	BatchesApplied   uint64  `json:"batches_applied_total"`
	MutationsApplied uint64  `json:"mutations_applied_total"`
}

type gcInfo struct {
	AllocMB       float64 `json:"alloc_mb"`
	HeapLiveMB    float64 `json:"heap_live_mb"`
	NumGC         uint32  `json:"num_gc"`
	PauseTotalMS  float64 `json:"pause_total_ms"`
	GCCPUFraction float64 `json:"gc_cpu_fraction"`
	AllocsObjects uint64  `json:"allocs_objects"`
}

type protocolInfo struct {
	FramesSent        uint64            `json:"frames_sent_total"`
	FrameBytes        uint64            `json:"frame_bytes_total"`
	AvgBatchBytes     float64           `json:"avg_batch_bytes"`
	MutationsPerBatch float64           `json:"mutations_per_batch"`
	Snapshots         uint64            `json:"snapshots_total"`
	Ops               map[string]uint64 `json:"ops"`
}

type errorInfo struct {
	DialFailures uint64 `json:"dial_failures"`
	StreamErrors uint64 `json:"stream_errors"`
	ServerErrors uint64 `json:"server_error_frames"`
	RenderErrors uint64 `json:"render_errors"`
	HTMLMismatch uint64 `json:"html_mismatches"`
}

func buildReport(
	cfg benchConfig,
	elapsed time.Duration,
	latencies []time.Duration,
	counters *benchCounters,
	ops *opCounts,
	wire wireTotals,
	before runtime.MemStats,
	after runtime.MemStats,
	beforeMetrics runtimeMetricsSnapshot,
	afterMetrics runtimeMetricsSnapshot,
) benchReport {
	renders := counters.renders.Load()
	batches := counters.batches.Load()
	mutations := counters.mutations.Load()

	latency := latencyInfo{}
	if len(latencies) > 0 {
		latency = latencyInfo{
			Min: ms(latencies[0]),
			P50: ms(percentile(latencies, 0.50)),
			P95: ms(percentile(latencies, 0.95)),
			P99: ms(percentile(latencies, 0.99)),
			Max: ms(latencies[len(latencies)-1]),
		}
	}

	// Per client byte counts are not tracked; the server side total covers
	// every client.
	avgBatchBytes, mutationsPerBatch := 0.0, 0.0
	if received := batches + counters.snapshots.Load(); received > 0 {
		avgBatchBytes = wire.bytes / float64(received)
		mutationsPerBatch = float64(mutations) / float64(received)
	}

	return benchReport{
		Version: "1",
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
		},
		Workload: workloadInfo{
			Profile:    cfg.Profile,
			Clients:    cfg.Clients,
			DurationMS: cfg.Duration.Milliseconds(),
			RPS:        cfg.RPS,
			ListSize:   cfg.ListSize,
			Edits:      cfg.Edits,
			Seed:       cfg.Seed,
		},
		LatencyMS: latency,
		Throughput: throughputInfo{
			Renders:          renders,
			RendersPerSec:    float64(renders) / math.Max(0.001, elapsed.Seconds()),
			BatchesApplied:   batches,
			MutationsApplied: mutations,
		},
		GC: gcInfo{
			AllocMB:       float64(after.TotalAlloc-before.TotalAlloc) / (1024 * 1024),
			HeapLiveMB:    float64(after.HeapAlloc) / (1024 * 1024),
			NumGC:         after.NumGC - before.NumGC,
			PauseTotalMS:  ms(time.Duration(after.PauseTotalNs - before.PauseTotalNs)),
			GCCPUFraction: cpuFraction(afterMetrics, beforeMetrics),
			AllocsObjects: afterMetrics.heapAllocsObjects - beforeMetrics.heapAllocsObjects,
		},
		Protocol: protocolInfo{
			FramesSent:        uint64(wire.frames),
			FrameBytes:        uint64(wire.bytes),
			AvgBatchBytes:     avgBatchBytes,
			MutationsPerBatch: mutationsPerBatch,
			Snapshots:         counters.snapshots.Load(),
			Ops:               ops.snapshot(),
		},
		Errors: errorInfo{
			DialFailures: counters.dialFailures.Load(),
			StreamErrors: counters.streamErrors.Load(),
			ServerErrors: counters.serverErrors.Load(),
			RenderErrors: counters.renderErrors.Load(),
			HTMLMismatch: counters.mismatches.Load(),
		},
	}
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== vsync stream benchmark ===")
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Profile)
	fmt.Fprintf(w, "Clients: %d\n", report.Workload.Clients)
	fmt.Fprintf(w, "Duration: %s\n", time.Duration(report.Workload.DurationMS)*time.Millisecond)
	fmt.Fprintf(w, "Target render rate: %.2f/s\n", report.Workload.RPS)
	fmt.Fprintf(w, "List size: %d (%d edits per render)\n", report.Workload.ListSize, report.Workload.Edits)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Renders: %d (%.1f/s)\n", report.Throughput.Renders, report.Throughput.RendersPerSec)
	fmt.Fprintf(w, "Batches applied: %d\n", report.Throughput.BatchesApplied)
	fmt.Fprintf(w, "Mirror mismatches: %d\n", report.Errors.HTMLMismatch)
	fmt.Fprintln(w)

	if report.LatencyMS.Max == 0 {
		fmt.Fprintln(w, "No latency samples recorded.")
	} else {
		fmt.Fprintln(w, "Latency (render start -> client applied):")
		fmt.Fprintf(w, "  min: %.2f ms\n", report.LatencyMS.Min)
		fmt.Fprintf(w, "  p50: %.2f ms\n", report.LatencyMS.P50)
		fmt.Fprintf(w, "  p95: %.2f ms\n", report.LatencyMS.P95)
		fmt.Fprintf(w, "  p99: %.2f ms\n", report.LatencyMS.P99)
		fmt.Fprintf(w, "  max: %.2f ms\n", report.LatencyMS.Max)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Protocol:")
	fmt.Fprintf(w, "  frames:          %d\n", report.Protocol.FramesSent)
	fmt.Fprintf(w, "  bytes/batch:     %.1f\n", report.Protocol.AvgBatchBytes)
	fmt.Fprintf(w, "  mutations/batch: %.2f\n", report.Protocol.MutationsPerBatch)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Go runtime / GC (process-wide):")
	fmt.Fprintf(w, "  alloc:     %.2f MB\n", report.GC.AllocMB)
	fmt.Fprintf(w, "  heap_live: %.2f MB\n", report.GC.HeapLiveMB)
	fmt.Fprintf(w, "  num_gc:    %d\n", report.GC.NumGC)
	fmt.Fprintf(w, "  gc_pause:  %.2f ms (total)\n", report.GC.PauseTotalMS)
	fmt.Fprintf(w, "  gc_cpu:    %.2f%%\n", report.GC.GCCPUFraction*100)
}

func writeJSON(path string, report benchReport) error {
	var out io.Writer
	if path == "-" {
		out = os.Stdout
	} else {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
