// Package bridge is the connection supervisor: it accepts WebSocket
// connections, optionally behind TLS, and for each one owns the
// per-connection goroutines and fabric session for its lifetime, split into
// a reader and writer goroutine per connection.
package bridge

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nano-kit/zenoh-remote-bridge/internal/admin"
	"github.com/nano-kit/zenoh-remote-bridge/internal/config"
	"github.com/nano-kit/zenoh-remote-bridge/internal/fabric"
	"github.com/nano-kit/zenoh-remote-bridge/internal/log"
	"github.com/nano-kit/zenoh-remote-bridge/internal/outbound"
	"github.com/nano-kit/zenoh-remote-bridge/internal/remotestate"
	"github.com/nano-kit/zenoh-remote-bridge/internal/wire"
)

// wsPath is the single endpoint clients connect to; the admin tree is served
// separately under adminPathPrefix.
const (
	wsPath          = "/"
	adminPathPrefix = "/admin/"
)

// Bridge owns the listener, the fabric, and the admin directory shared by
// every connection.
type Bridge struct {
	cfg    *config.Config
	fabric fabric.Fabric
	admin  *admin.Directory
	mux    *http.ServeMux

	upgrader websocket.Upgrader
}

// New wires a Bridge ready to ListenAndServe. dir may be shared with a
// caller that wants to render admin snapshots independently of HTTP. Options
// follow the functional-options idiom (see options.go).
func New(cfg *config.Config, fab fabric.Fabric, dir *admin.Directory, opts ...Option) *Bridge {
	b := &Bridge{
		cfg:    cfg,
		fabric: fab,
		admin:  dir,
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.mux.HandleFunc(wsPath, b.serveWS)
	b.mux.HandleFunc(adminPathPrefix, b.serveAdmin)
	return b
}

// ListenAndServe blocks serving connections until the listener fails.
func (b *Bridge) ListenAndServe() error {
	server := &http.Server{Addr: b.cfg.WebsocketPort, Handler: b.mux}
	if b.cfg.TLSEnabled() {
		return server.ListenAndServeTLS(b.cfg.SecureWebsocket.CertificatePath, b.cfg.SecureWebsocket.PrivateKeyPath)
	}
	return server.ListenAndServe()
}

func (b *Bridge) serveAdmin(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, adminPathPrefix)
	raw, err := b.admin.Snapshot(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

func (b *Bridge) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("bridge: upgrade failure from %s: %v", r.RemoteAddr, err)
		return
	}

	clientUUID := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	session, err := b.fabric.NewSession(ctx)
	if err != nil {
		log.Printf("bridge: new session for %s: %v", clientUUID, err)
		cancel()
		_ = conn.Close()
		return
	}

	out := outbound.New()
	state := remotestate.New(clientUUID, session, out)
	rec := b.admin.Register(clientUUID.String(), r.RemoteAddr, state.Stats, state.AdminRecord)

	c := &connection{
		uuid:  clientUUID,
		conn:  conn,
		out:   out,
		state: state,
		admin: b.admin,
		rec:   rec,
		ctx:   ctx,
		cancel: cancel,
	}
	c.run()
}

// connection owns the reader and writer goroutines for one accepted socket
// and tears everything down exactly once when either side closes.
type connection struct {
	uuid   uuid.UUID
	conn   *websocket.Conn
	out    *outbound.Queue
	state  *remotestate.RemoteState
	admin  *admin.Directory
	rec    *admin.ClientRecord
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

func (c *connection) run() {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.writeLoop() }()
	go func() { defer wg.Done(); c.readLoop() }()
	wg.Wait()
	c.teardown()
}

func (c *connection) writeLoop() {
	for {
		env, ok := c.out.Recv()
		if !ok {
			return
		}
		frame := wire.Encode(env.Msg, env.SeqID)
		if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			log.Printf("bridge: write to %s: %v", c.uuid, err)
			c.close()
			return
		}
	}
}

func (c *connection) readLoop() {
	defer c.close()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("bridge: read from %s: %v", c.uuid, err)
			}
			return
		}
		c.handleFrame(data)
	}
}

func (c *connection) handleFrame(data []byte) {
	h, msg, err := wire.Decode(data)
	if err != nil {
		// Header-level errors are recoverable: the WebSocket frame boundary
		// is already known, so the stream itself is not corrupted.
		var berr *wire.BodyError
		if errors.As(err, &berr) {
			c.respondError(berr.Header, berr.Err)
			return
		}
		log.Printf("bridge: %s: dropping unreadable frame: %v", c.uuid, err)
		return
	}

	resp, err := c.state.Handle(c.ctx, h, msg)
	if err != nil {
		c.respondError(h, err)
		return
	}
	if resp == nil {
		return
	}
	if _, isAck := resp.(wire.Ok); isAck {
		if h.AckRequest {
			c.out.Send(resp, &h.SeqID)
		}
		return
	}
	var seq *uint32
	if h.AckRequest {
		seq = &h.SeqID
	}
	c.out.Send(resp, seq)
}

// respondError implements the request-error propagation policy:
// request-scoped errors only reach the client when it asked for an ack;
// otherwise they are logged and dropped.
func (c *connection) respondError(h wire.Header, err error) {
	if !h.AckRequest {
		log.Printf("bridge: %s: request error (tag=%d, no ack requested): %v", c.uuid, h.Tag, err)
		return
	}
	c.out.Send(wire.Error{Message: err.Error()}, &h.SeqID)
}

func (c *connection) close() {
	c.closeOnce.Do(func() {
		c.out.Close()
		_ = c.conn.Close()
		c.cancel()
	})
}

func (c *connection) teardown() {
	c.state.Clear()
	c.admin.Remove(c.uuid.String())
}
