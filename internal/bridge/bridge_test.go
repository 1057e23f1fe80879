package bridge

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/nano-kit/zenoh-remote-bridge/internal/admin"
	"github.com/nano-kit/zenoh-remote-bridge/internal/config"
	"github.com/nano-kit/zenoh-remote-bridge/internal/fabric/fake"
	"github.com/nano-kit/zenoh-remote-bridge/internal/wire"
)

func newTestServer(t *testing.T) (*httptest.Server, *admin.Directory) {
	t.Helper()
	cfg := &config.Config{WebsocketPort: "unused-in-tests"}
	dir := admin.New(cfg.AsMap())
	b := New(cfg, fake.New(), dir)
	srv := httptest.NewServer(b.mux)
	t.Cleanup(srv.Close)
	return srv, dir
}

func dialWS(t *testing.T, srv *httptest.Server) *gorillaws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestPingRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialWS(t, srv)

	frame := wire.Encode(wire.Ping{}, nil)
	if err := conn.WriteMessage(gorillaws.BinaryMessage, frame); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	h, msg, err := wire.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Tag != wire.TagPingAck {
		t.Fatalf("unexpected tag %d", h.Tag)
	}
	if _, ok := msg.(wire.PingAck); !ok {
		t.Fatalf("expected PingAck, got %T", msg)
	}
}

func TestDeclarePublisherAckOnlyWhenRequested(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialWS(t, srv)

	seq := uint32(5)
	frame := wire.Encode(wire.DeclarePublisher{ID: 1, KeyExpr: "a/b"}, &seq)
	if err := conn.WriteMessage(gorillaws.BinaryMessage, frame); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	h, msg, err := wire.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Tag != wire.TagOk || !h.AckRequest || h.SeqID != seq {
		t.Fatalf("unexpected header: %+v", h)
	}
	ok, isOk := msg.(wire.Ok)
	if !isOk || ok.RequestTag != wire.TagDeclarePublisher {
		t.Fatalf("unexpected ack body: %+v", msg)
	}
}

func TestDuplicateDeclareWithoutAckIsDroppedSilently(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialWS(t, srv)

	// First declare, ack requested, to synchronize on the server having
	// processed it before sending the duplicate.
	seq := uint32(1)
	frame := wire.Encode(wire.DeclarePublisher{ID: 9, KeyExpr: "a/b"}, &seq)
	if err := conn.WriteMessage(gorillaws.BinaryMessage, frame); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read first ack: %v", err)
	}

	// Duplicate, no ack requested: this is logged and dropped, never
	// reaching the client.
	frame = wire.Encode(wire.DeclarePublisher{ID: 9, KeyExpr: "a/b"}, nil)
	if err := conn.WriteMessage(gorillaws.BinaryMessage, frame); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Prove liveness with a ping instead of asserting an absence, which
	// would require an arbitrary timeout.
	frame = wire.Encode(wire.Ping{}, nil)
	if err := conn.WriteMessage(gorillaws.BinaryMessage, frame); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read ping ack: %v", err)
	}
	_, msg, err := wire.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := msg.(wire.PingAck); !ok {
		t.Fatalf("expected the next frame to be PingAck (duplicate error was dropped), got %T", msg)
	}
}

func TestConnectionRegistersClientInDirectory(t *testing.T) {
	srv, dir := newTestServer(t)
	conn := dialWS(t, srv)

	frame := wire.Encode(wire.DeclarePublisher{ID: 1, KeyExpr: "a/b"}, nil)
	if err := conn.WriteMessage(gorillaws.BinaryMessage, frame); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Give the server a moment to register the connection before listing it.
	deadline := time.Now().Add(2 * time.Second)
	for dir.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if dir.ClientCount() != 1 {
		t.Fatalf("expected 1 registered client, got %d", dir.ClientCount())
	}
}
