// Package fabric declares the narrow capability surface the bridge core
// consumes from the pub/sub/query messaging runtime.
// The fabric's routing, discovery, and storage internals are out of scope —
// this package only names the operations the bridge calls and the callback
// shapes the fabric must invoke, so internal/remotestate can be built and
// tested against a fake without a real fabric runtime (see internal/fabric/fake).
package fabric

import (
	"context"
	"time"

	"github.com/nano-kit/zenoh-remote-bridge/internal/wire"
)

// Fabric opens sessions against the messaging runtime.
type Fabric interface {
	NewSession(ctx context.Context) (Session, error)
}

// Timestamp mirrors wire.Timestamp; kept distinct so fabric callers never
// import the wire codec.
type Timestamp = wire.Timestamp

// Sample is a single key/value observation delivered to a subscriber or as
// part of a Reply.
type Sample struct {
	KeyExpr    string
	Payload    []byte
	Kind       wire.SampleKind
	Encoding   wire.Encoding
	Attachment []byte
	HasAttach  bool
	Timestamp  *Timestamp
	Qos        wire.Qos
}

// PutOptions configures a publisher/session put.
type PutOptions struct {
	Encoding   wire.Encoding
	Attachment []byte
	HasAttach  bool
	Timestamp  *Timestamp
}

// DeleteOptions configures a publisher/session delete.
type DeleteOptions struct {
	Attachment []byte
	HasAttach  bool
	Timestamp  *Timestamp
}

// Session is one client's fabric handle, created fresh per connection.
type Session interface {
	Zid() string
	RoutersZid() []string
	PeersZid() []string
	NewTimestamp() Timestamp
	Close() error

	DeclarePublisher(keyExpr string, encoding wire.Encoding, qos wire.Qos) (Publisher, error)
	DeclareSubscriber(keyExpr string, locality wire.Locality, onSample func(Sample)) (Subscriber, error)
	DeclareQueryable(keyExpr string, complete bool, locality wire.Locality, onQuery func(Query)) (Queryable, error)
	DeclareQuerier(keyExpr string, qos wire.Qos, qs wire.QuerySettings, timeout time.Duration, locality wire.Locality) (Querier, error)
	DeclareLivelinessToken(keyExpr string) (LivelinessToken, error)
	DeclareLivelinessSubscriber(keyExpr string, history bool, onSample func(Sample)) (Subscriber, error)
	LivelinessGet(ctx context.Context, keyExpr string, timeout time.Duration, onReply func(Reply), onDone func()) error

	// Get issues a one-shot query against the whole session.
	Get(ctx context.Context, keyExpr, parameters string, encoding wire.Encoding, hasEncoding bool, payload []byte, hasPayload bool, attachment []byte, hasAttach bool, qos wire.Qos, qs wire.QuerySettings, timeout time.Duration, onReply func(Reply), onDone func()) error

	Put(keyExpr string, payload []byte, qos wire.Qos, opts PutOptions) error
	Delete(keyExpr string, qos wire.Qos, opts DeleteOptions) error
}

// Publisher is a declared, keyed publication handle.
type Publisher interface {
	Put(payload []byte, opts PutOptions) error
	Delete(opts DeleteOptions) error
	Undeclare() error
	DeclareMatchingListener(onChange func(matching bool)) (MatchingListener, error)
	MatchingStatus() (bool, error)
}

// Subscriber is a declared push-callback subscription (data or liveliness).
type Subscriber interface {
	Undeclare() error
}

// Query is a live query handle owned by a Queryable callback; replies are
// issued through it until Finalize is called or it is dropped by eviction.
type Query interface {
	KeyExpr() string
	Parameters() string
	Encoding() (wire.Encoding, bool)
	Payload() ([]byte, bool)
	Attachment() ([]byte, bool)
	Qos() wire.Qos

	ReplyOk(keyExpr string, payload []byte, encoding wire.Encoding, qos wire.Qos, opts PutOptions) error
	ReplyDel(keyExpr string, qos wire.Qos, opts DeleteOptions) error
	ReplyErr(encoding wire.Encoding, payload []byte) error
	// Finalize closes the reply stream. Dropping a Query without calling
	// Finalize (eviction) has the same effect as an implicit final reply.
	Finalize() error
}

// Queryable is a declared server-side endpoint receiving Query callbacks.
type Queryable interface {
	Undeclare() error
}

// Querier is a client-side cache of query parameters used for repeated Gets.
type Querier interface {
	Get(ctx context.Context, parameters string, encoding wire.Encoding, hasEncoding bool, payload []byte, hasPayload bool, attachment []byte, hasAttach bool, onReply func(Reply), onDone func()) error
	Undeclare() error
	DeclareMatchingListener(onChange func(matching bool)) (MatchingListener, error)
	MatchingStatus() (bool, error)
}

// Reply is a single answer to a Get/QuerierGet/LivelinessGet, either a
// successful Sample or an error encoding+payload pair.
type Reply struct {
	Ok       bool
	Sample   Sample
	Encoding wire.Encoding
	Payload  []byte
}

// LivelinessToken is a presence assertion; undeclaring it notifies liveliness
// subscribers that the presence has gone away.
type LivelinessToken interface {
	Undeclare() error
}

// MatchingListener fires onChange callbacks until undeclared.
type MatchingListener interface {
	Undeclare() error
}
