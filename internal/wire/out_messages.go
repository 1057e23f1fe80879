package wire

// OutMessage is the closed set of bridge-to-client asynchronous/response
// messages. Ordinals are part of the wire contract, see in_messages.go.
type OutMessage interface {
	outTag() uint8
}

const (
	TagPingAck uint8 = iota
	TagOk
	TagError
	TagResponseTimestamp
	TagResponseSessionInfo
	TagSample
	TagQuery
	TagReply
	TagQueryResponseFinal
	TagMatchingStatus
	TagMatchingStatusUpdate
	outTagCount
)

type PingAck struct{ ClientUUID [16]byte }

func (PingAck) outTag() uint8 { return TagPingAck }

// Ok acknowledges a successful request that produced no inline response,
// echoing the inbound tag so the client can tell which command succeeded.
type Ok struct{ RequestTag uint8 }

func (Ok) outTag() uint8 { return TagOk }

type Error struct{ Message string }

func (Error) outTag() uint8 { return TagError }

type ResponseTimestamp struct{ Timestamp Timestamp }

func (ResponseTimestamp) outTag() uint8 { return TagResponseTimestamp }

type ResponseSessionInfo struct {
	Zid        string
	RoutersZid []string
	PeersZid   []string
}

func (ResponseSessionInfo) outTag() uint8 { return TagResponseSessionInfo }

type Sample struct {
	SubscriberID uint32
	KeyExpr      string
	Payload      []byte
	Kind         SampleKind
	Encoding     Encoding
	Attachment   []byte
	HasAttach    bool
	Timestamp    *Timestamp
	Qos          Qos
}

func (Sample) outTag() uint8 { return TagSample }

type Query struct {
	QueryableID uint32
	QueryID     uint32
	KeyExpr     string
	Parameters  string
	Encoding    Encoding
	HasEncoding bool
	Payload     []byte
	HasPayload  bool
	Attachment  []byte
	HasAttach   bool
	Qos         Qos
}

func (Query) outTag() uint8 { return TagQuery }

// Reply carries either a successful Sample (Ok==true) or an error
// encoding+payload pair (Ok==false).
type Reply struct {
	QueryID  uint32
	Ok       bool
	Sample   Sample
	Encoding Encoding
	Payload  []byte
}

func (Reply) outTag() uint8 { return TagReply }

type QueryResponseFinal struct{ QueryID uint32 }

func (QueryResponseFinal) outTag() uint8 { return TagQueryResponseFinal }

// MatchingStatus is the synchronous one-shot answer to
// PublisherGetMatchingStatus / QuerierGetMatchingStatus.
type MatchingStatus struct {
	EntityID uint32
	Matching bool
}

func (MatchingStatus) outTag() uint8 { return TagMatchingStatus }

// MatchingStatusUpdate is pushed asynchronously by a declared matching
// listener whenever the matching set changes.
type MatchingStatusUpdate struct {
	ListenerID uint32
	Matching   bool
}

func (MatchingStatusUpdate) outTag() uint8 { return TagMatchingStatusUpdate }
