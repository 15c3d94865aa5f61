package live

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vsync/pkg/metrics"
	"github.com/vango-dev/vsync/pkg/protocol"
	"github.com/vango-dev/vsync/pkg/vdom"
)

// DefaultWriteTimeout bounds each frame write to a client.
const DefaultWriteTimeout = 5 * time.Second

// HubOptions configures a Hub.
type HubOptions struct {
	// Logger receives connection and render events.
	Logger *slog.Logger

	// Metrics, when set, records clients, frames and socket errors.
	Metrics *metrics.Collector

	// WriteTimeout bounds each frame write (default DefaultWriteTimeout).
	WriteTimeout time.Duration

	// CheckOrigin overrides the upgrader's origin check. Nil allows all.
	CheckOrigin func(r *http.Request) bool
}

// Hub streams a Session to WebSocket clients. Each client gets a snapshot on
// connect and every batch after it, as binary protocol frames.
type Hub struct {
	session      *Session
	clients      map[*websocket.Conn]bool
	mu           sync.Mutex // Guards session and clients; serializes writes
	upgrader     websocket.Upgrader
	logger       *slog.Logger
	metrics      *metrics.Collector
	writeTimeout time.Duration
}

// NewHub creates a hub for session.
func NewHub(session *Session, opts HubOptions) *Hub {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		session: session,
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     checkOrigin,
		},
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		writeTimeout: opts.WriteTimeout,
	}
}

// HandleWebSocket upgrades the connection, sends a snapshot and keeps the
// client registered until it disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.recordError("upgrade")
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(512)

	h.mu.Lock()
	frames, err := h.session.Snapshot().Frames()
	if err == nil {
		err = h.write(conn, frames)
	}
	if err != nil {
		h.mu.Unlock()
		h.recordError("snapshot")
		h.logger.Warn("snapshot failed", "remote", req.RemoteAddr, "error", err)
		conn.Close()
		return
	}
	h.clients[conn] = true
	seq := h.session.Seq()
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.ClientConnected()
	}
	h.logger.Info("client connected", "remote", req.RemoteAddr, "seq", seq)

	// Clients do not send anything; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.drop(conn)
	h.logger.Info("client disconnected", "remote", req.RemoteAddr)
}

// Render reconciles next into the session and broadcasts the result. A failed
// pass is broadcast as a non-fatal error frame, followed by a snapshot when
// the session had to reset.
func (h *Hub) Render(ctx context.Context, next *vdom.VNode) (vdom.Stats, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	res, err := h.session.Render(ctx, next)
	if err != nil {
		frames := []*protocol.Frame{protocol.NewError(protocol.ErrReconcile, err.Error()).Frame()}
		if res.Resync {
			snap, serr := h.session.Snapshot().Frames()
			if serr != nil {
				return res.Stats, serr
			}
			frames = append(frames, snap...)
		}
		h.broadcast(frames)
		return res.Stats, err
	}

	frames, err := res.Batch.Frames()
	if err != nil {
		return res.Stats, err
	}
	h.broadcast(frames)
	h.logger.Debug("rendered", "seq", res.Batch.Seq, "mutations", len(res.Batch.Mutations),
		"frames", len(frames), "clients", len(h.clients))
	return res.Stats, nil
}

// broadcast sends frames to every client, dropping clients that fail.
// The caller holds h.mu.
func (h *Hub) broadcast(frames []*protocol.Frame) {
	for conn := range h.clients {
		if err := h.write(conn, frames); err != nil {
			h.recordError("write")
			h.logger.Warn("write failed; dropping client", "remote", conn.RemoteAddr(), "error", err)
			delete(h.clients, conn)
			conn.Close()
			if h.metrics != nil {
				h.metrics.ClientDisconnected()
			}
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, frames []*protocol.Frame) error {
	for _, f := range frames {
		data := f.Encode()
		conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			return err
		}
		if h.metrics != nil {
			h.metrics.RecordFrame(len(data))
		}
	}
	return nil
}

// drop unregisters conn if a broadcast has not already done so.
func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	present := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()

	conn.Close()
	if present && h.metrics != nil {
		h.metrics.ClientDisconnected()
	}
}

func (h *Hub) recordError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordWebSocketError(kind)
	}
}

// HTML renders the current document body.
func (h *Hub) HTML() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session.HTML()
}

// Seq returns the sequence number of the last batch.
func (h *Hub) Seq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session.Seq()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
		if h.metrics != nil {
			h.metrics.ClientDisconnected()
		}
	}
}
