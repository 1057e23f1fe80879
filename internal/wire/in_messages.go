package wire

// InMessage is the closed set of client-to-bridge control messages. Ordinal
// values below are part of the wire contract: appending a variant is
// backward compatible, reordering or inserting one is not.
type InMessage interface {
	inTag() uint8
}

const (
	TagDeclarePublisher uint8 = iota
	TagUndeclarePublisher
	TagDeclareSubscriber
	TagUndeclareSubscriber
	TagDeclareQueryable
	TagUndeclareQueryable
	TagDeclareQuerier
	TagUndeclareQuerier
	TagDeclareLivelinessToken
	TagUndeclareLivelinessToken
	TagDeclareLivelinessSubscriber
	TagUndeclareLivelinessSubscriber
	TagGetSessionInfo
	TagGetTimestamp
	TagPut
	TagDelete
	TagPublisherPut
	TagPublisherDelete
	TagGet
	TagQuerierGet
	TagLivelinessGet
	TagReplyOk
	TagReplyDel
	TagReplyErr
	TagQueryResponseFinal
	TagPing
	TagPublisherDeclareMatchingListener
	TagUndeclareMatchingListener
	TagPublisherGetMatchingStatus
	TagQuerierDeclareMatchingListener
	TagQuerierGetMatchingStatus
	inTagCount
)

type DeclarePublisher struct {
	ID       uint32
	KeyExpr  string
	Encoding Encoding
	Qos      Qos
}

func (DeclarePublisher) inTag() uint8 { return TagDeclarePublisher }

type UndeclarePublisher struct{ ID uint32 }

func (UndeclarePublisher) inTag() uint8 { return TagUndeclarePublisher }

type DeclareSubscriber struct {
	ID       uint32
	KeyExpr  string
	Locality Locality
}

func (DeclareSubscriber) inTag() uint8 { return TagDeclareSubscriber }

type UndeclareSubscriber struct{ ID uint32 }

func (UndeclareSubscriber) inTag() uint8 { return TagUndeclareSubscriber }

type DeclareQueryable struct {
	ID       uint32
	KeyExpr  string
	Complete bool
	Locality Locality
}

func (DeclareQueryable) inTag() uint8 { return TagDeclareQueryable }

type UndeclareQueryable struct{ ID uint32 }

func (UndeclareQueryable) inTag() uint8 { return TagUndeclareQueryable }

type DeclareQuerier struct {
	ID            uint32
	KeyExpr       string
	Qos           Qos
	QuerySettings QuerySettings
	TimeoutMs     uint64
	Locality      Locality
}

func (DeclareQuerier) inTag() uint8 { return TagDeclareQuerier }

type UndeclareQuerier struct{ ID uint32 }

func (UndeclareQuerier) inTag() uint8 { return TagUndeclareQuerier }

type DeclareLivelinessToken struct {
	ID      uint32
	KeyExpr string
}

func (DeclareLivelinessToken) inTag() uint8 { return TagDeclareLivelinessToken }

type UndeclareLivelinessToken struct{ ID uint32 }

func (UndeclareLivelinessToken) inTag() uint8 { return TagUndeclareLivelinessToken }

type DeclareLivelinessSubscriber struct {
	ID      uint32
	KeyExpr string
	History bool
}

func (DeclareLivelinessSubscriber) inTag() uint8 { return TagDeclareLivelinessSubscriber }

type UndeclareLivelinessSubscriber struct{ ID uint32 }

func (UndeclareLivelinessSubscriber) inTag() uint8 { return TagUndeclareLivelinessSubscriber }

type GetSessionInfo struct{}

func (GetSessionInfo) inTag() uint8 { return TagGetSessionInfo }

type GetTimestamp struct{}

func (GetTimestamp) inTag() uint8 { return TagGetTimestamp }

type Put struct {
	KeyExpr    string
	Payload    []byte
	Encoding   Encoding
	Qos        Qos
	Attachment []byte
	HasAttach  bool
	Timestamp  *Timestamp
}

func (Put) inTag() uint8 { return TagPut }

type Delete struct {
	KeyExpr    string
	Qos        Qos
	Attachment []byte
	HasAttach  bool
	Timestamp  *Timestamp
}

func (Delete) inTag() uint8 { return TagDelete }

type PublisherPut struct {
	ID         uint32
	Payload    []byte
	Attachment []byte
	HasAttach  bool
	Timestamp  *Timestamp
}

func (PublisherPut) inTag() uint8 { return TagPublisherPut }

type PublisherDelete struct {
	ID         uint32
	Attachment []byte
	HasAttach  bool
	Timestamp  *Timestamp
}

func (PublisherDelete) inTag() uint8 { return TagPublisherDelete }

type Get struct {
	QueryID       uint32
	KeyExpr       string
	Parameters    string
	TimeoutMs     uint64
	Qos           Qos
	QuerySettings QuerySettings
	Encoding      Encoding
	HasEncoding   bool
	Payload       []byte
	HasPayload    bool
	Attachment    []byte
	HasAttach     bool
}

func (Get) inTag() uint8 { return TagGet }

type QuerierGet struct {
	QuerierID   uint32
	QueryID     uint32
	Parameters  string
	Encoding    Encoding
	HasEncoding bool
	Payload     []byte
	HasPayload  bool
	Attachment  []byte
	HasAttach   bool
}

func (QuerierGet) inTag() uint8 { return TagQuerierGet }

type LivelinessGet struct {
	QueryID   uint32
	KeyExpr   string
	TimeoutMs uint64
}

func (LivelinessGet) inTag() uint8 { return TagLivelinessGet }

type ReplyOk struct {
	QueryID    uint32
	KeyExpr    string
	Payload    []byte
	Encoding   Encoding
	Qos        Qos
	Attachment []byte
	HasAttach  bool
	Timestamp  *Timestamp
}

func (ReplyOk) inTag() uint8 { return TagReplyOk }

type ReplyDel struct {
	QueryID    uint32
	KeyExpr    string
	Qos        Qos
	Attachment []byte
	HasAttach  bool
	Timestamp  *Timestamp
}

func (ReplyDel) inTag() uint8 { return TagReplyDel }

type ReplyErr struct {
	QueryID  uint32
	Encoding Encoding
	Payload  []byte
}

func (ReplyErr) inTag() uint8 { return TagReplyErr }

type QueryResponseFinalIn struct{ QueryID uint32 }

func (QueryResponseFinalIn) inTag() uint8 { return TagQueryResponseFinal }

type Ping struct{}

func (Ping) inTag() uint8 { return TagPing }

type PublisherDeclareMatchingListener struct {
	ID          uint32
	PublisherID uint32
}

func (PublisherDeclareMatchingListener) inTag() uint8 { return TagPublisherDeclareMatchingListener }

type UndeclareMatchingListener struct{ ID uint32 }

func (UndeclareMatchingListener) inTag() uint8 { return TagUndeclareMatchingListener }

type PublisherGetMatchingStatus struct{ PublisherID uint32 }

func (PublisherGetMatchingStatus) inTag() uint8 { return TagPublisherGetMatchingStatus }

type QuerierDeclareMatchingListener struct {
	ID        uint32
	QuerierID uint32
}

func (QuerierDeclareMatchingListener) inTag() uint8 { return TagQuerierDeclareMatchingListener }

type QuerierGetMatchingStatus struct{ QuerierID uint32 }

func (QuerierGetMatchingStatus) inTag() uint8 { return TagQuerierGetMatchingStatus }
