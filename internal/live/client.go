package live

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vsync/internal/errors"
	"github.com/vango-dev/vsync/pkg/dom"
	"github.com/vango-dev/vsync/pkg/protocol"
)

// Client follows a Hub stream and mirrors the document locally.
// It is not safe for concurrent use.
type Client struct {
	conn     *websocket.Conn
	asm      *protocol.Assembler
	tree     *dom.Tree
	replayer *dom.Replayer
	root     dom.Node
	seq      uint64
}

// Dial connects to a /ws endpoint, e.g. "ws://localhost:7331/ws".
func Dial(ctx context.Context, url string, limits protocol.Limits) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, http.Header{})
	if err != nil {
		return nil, err
	}
	return NewClient(conn, limits), nil
}

// NewClient wraps an established connection.
func NewClient(conn *websocket.Conn, limits protocol.Limits) *Client {
	return &Client{
		conn: conn,
		asm:  protocol.NewAssembler(limits),
	}
}

// Next reads frames until a complete batch has been applied and returns it.
// An error frame from the server is returned as a *protocol.ErrorMessage;
// reading may continue after a non-fatal one. The context deadline, if any,
// bounds the read.
func (c *Client) Next(ctx context.Context) (*protocol.MutationsFrame, error) {
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(deadline)
	}

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind != websocket.BinaryMessage {
			continue
		}

		f, err := protocol.DecodeFrame(data)
		if err != nil {
			return nil, errors.New("E160").WithDetail(err.Error()).Wrap(err)
		}

		if f.Type == protocol.FrameError {
			em, err := protocol.DecodeErrorMessage(f.Payload)
			if err != nil {
				return nil, errors.New("E160").WithDetail(err.Error()).Wrap(err)
			}
			return nil, em
		}

		batch, err := c.asm.Add(f)
		if err != nil {
			return nil, errors.New("E160").WithDetail(err.Error()).Wrap(err)
		}
		if batch == nil {
			continue
		}
		if err := c.apply(batch); err != nil {
			return nil, err
		}
		return batch, nil
	}
}

func (c *Client) apply(batch *protocol.MutationsFrame) error {
	if batch.Snapshot {
		if len(batch.Mutations) == 0 || batch.Mutations[0].Op != dom.OpCreateElement {
			return errors.New("E160").WithDetail("snapshot does not start with its root")
		}
		c.tree = dom.NewTree()
		c.replayer = dom.NewReplayer(c.tree)
	} else if c.replayer == nil {
		return errors.New("E161").WithDetail("received a batch before any snapshot")
	}

	if err := c.replayer.Apply(batch.Mutations); err != nil {
		return errors.New("E161").WithDetail(err.Error()).Wrap(err)
	}
	if batch.Snapshot {
		c.root, _ = c.replayer.Lookup(batch.Mutations[0].Node)
	}
	c.seq = batch.Seq
	return nil
}

// HTML renders the mirrored body content.
func (c *Client) HTML() string {
	return dom.InnerHTML(c.root)
}

// Seq returns the sequence number of the last applied batch.
func (c *Client) Seq() uint64 {
	return c.seq
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
