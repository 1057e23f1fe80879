// Package remotestate owns one client connection's fabric-side bookkeeping:
// the declared publishers/subscribers/queryables/queriers/liveliness
// tokens/matching listeners, and the bounded table of queries awaiting a
// client reply. A RemoteState is only ever mutated by the connection's
// reader goroutine (Handle is called synchronously, in frame order), with
// one exception: the queryable callback allocates a query id and parks the
// query in the pending-query LRU, both safe for concurrent use. Otherwise
// fabric callbacks only push finished wire.OutMessage values onto the
// outbound queue.
package remotestate

import (
	"context"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pingcap/errors"

	"github.com/nano-kit/zenoh-remote-bridge/internal/fabric"
	"github.com/nano-kit/zenoh-remote-bridge/internal/log"
	"github.com/nano-kit/zenoh-remote-bridge/internal/outbound"
	"github.com/nano-kit/zenoh-remote-bridge/internal/wire"
)

// pendingQueriesCapacity bounds the in-flight query table; past this size the
// oldest unfinished query is evicted and implicitly finalized.
const pendingQueriesCapacity = 1000

// pendingQuery is a Queryable-side query awaiting ReplyOk/ReplyDel/ReplyErr/
// QueryResponseFinal from the client.
type pendingQuery struct {
	query fabric.Query
	// finalized is set once the client's QueryResponseFinal has finalized
	// the query, so the removal callback does not finalize it a second time.
	finalized atomic.Bool
}

// Stats is a point-in-time snapshot of one connection's entity counts, read
// by the admin directory when it renders a client record.
type Stats struct {
	Publishers            int
	Subscribers           int
	Queryables            int
	Queriers              int
	LivelinessTokens      int
	LivelinessSubscribers int
	MatchingListeners     int
	PendingQueries        int
	MessagesHandled       uint64
	MessagesErrored       uint64
}

// AdminRecord is the id->key_expr registry the admin space exposes per
// client: one map each for publishers, subscribers, queryables, queriers and
// liveliness tokens (liveliness subscribers are not recorded), mutated on
// every declare/undeclare alongside the matching fabric table.
type AdminRecord struct {
	Publishers       map[uint32]string
	Subscribers      map[uint32]string
	Queryables       map[uint32]string
	Queriers         map[uint32]string
	LivelinessTokens map[uint32]string
}

// RemoteState is the per-connection fabric bookkeeping described above.
type RemoteState struct {
	clientUUID [16]byte
	session    fabric.Session
	outbound   *outbound.Queue

	// adminMu guards the entity tables and their id->key_expr mirrors below
	// against the admin HTTP handler reading them concurrently with the
	// connection's reader goroutine mutating them.
	adminMu               sync.RWMutex
	publishers            map[uint32]fabric.Publisher
	subscribers           map[uint32]fabric.Subscriber
	queryables            map[uint32]fabric.Queryable
	queriers              map[uint32]fabric.Querier
	livelinessTokens      map[uint32]fabric.LivelinessToken
	livelinessSubscribers map[uint32]fabric.Subscriber
	matchingListeners     map[uint32]fabric.MatchingListener

	publisherKeys       map[uint32]string
	subscriberKeys      map[uint32]string
	queryableKeys       map[uint32]string
	querierKeys         map[uint32]string
	livelinessTokenKeys map[uint32]string

	pendingQueries *lru.Cache[uint32, *pendingQuery]
	queryCounter   atomic.Uint64

	messagesHandled atomic.Uint64
	messagesErrored atomic.Uint64
}

// New builds a RemoteState for a freshly accepted connection. session and out
// must already be live; New does not itself touch the fabric.
func New(clientUUID [16]byte, session fabric.Session, out *outbound.Queue) *RemoteState {
	s := &RemoteState{
		clientUUID:            clientUUID,
		session:               session,
		outbound:              out,
		publishers:            make(map[uint32]fabric.Publisher),
		subscribers:           make(map[uint32]fabric.Subscriber),
		queryables:            make(map[uint32]fabric.Queryable),
		queriers:              make(map[uint32]fabric.Querier),
		livelinessTokens:      make(map[uint32]fabric.LivelinessToken),
		livelinessSubscribers: make(map[uint32]fabric.Subscriber),
		matchingListeners:     make(map[uint32]fabric.MatchingListener),
		publisherKeys:         make(map[uint32]string),
		subscriberKeys:        make(map[uint32]string),
		queryableKeys:         make(map[uint32]string),
		querierKeys:           make(map[uint32]string),
		livelinessTokenKeys:   make(map[uint32]string),
	}
	cache, err := lru.NewWithEvict[uint32, *pendingQuery](pendingQueriesCapacity, s.onQueryEvicted)
	if err != nil {
		// Only returns an error for non-positive capacity, which is a
		// programmer error, not a runtime condition.
		panic(err)
	}
	s.pendingQueries = cache
	return s
}

// onQueryEvicted is the LRU eviction callback: an evicted, unfinished query
// behaves as an implicit final reply, so the client never has to learn that
// the bridge stopped tracking it.
func (s *RemoteState) onQueryEvicted(queryID uint32, pq *pendingQuery) {
	if pq.finalized.Load() {
		return
	}
	if err := pq.query.Finalize(); err != nil {
		log.Printf("remotestate: finalize evicted query %d: %v", queryID, err)
	}
}

// Stats returns a snapshot of the connection's current entity counts.
func (s *RemoteState) Stats() Stats {
	s.adminMu.RLock()
	defer s.adminMu.RUnlock()
	return Stats{
		Publishers:            len(s.publishers),
		Subscribers:           len(s.subscribers),
		Queryables:            len(s.queryables),
		Queriers:              len(s.queriers),
		LivelinessTokens:      len(s.livelinessTokens),
		LivelinessSubscribers: len(s.livelinessSubscribers),
		MatchingListeners:     len(s.matchingListeners),
		PendingQueries:        s.pendingQueries.Len(),
		MessagesHandled:       s.messagesHandled.Load(),
		MessagesErrored:       s.messagesErrored.Load(),
	}
}

// AdminRecord returns a snapshot of the connection's id->key_expr registry,
// matching the admin space's per-client view.
func (s *RemoteState) AdminRecord() AdminRecord {
	s.adminMu.RLock()
	defer s.adminMu.RUnlock()
	return AdminRecord{
		Publishers:       copyStringMap(s.publisherKeys),
		Subscribers:      copyStringMap(s.subscriberKeys),
		Queryables:       copyStringMap(s.queryableKeys),
		Queriers:         copyStringMap(s.querierKeys),
		LivelinessTokens: copyStringMap(s.livelinessTokenKeys),
	}
}

func copyStringMap(m map[uint32]string) map[uint32]string {
	out := make(map[uint32]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Clear undeclares every entity the connection ever declared. Called once,
// when the connection's supervisor tears it down.
func (s *RemoteState) Clear() {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()
	for id, p := range s.publishers {
		if err := p.Undeclare(); err != nil {
			log.Printf("remotestate: undeclare publisher %d: %v", id, err)
		}
	}
	for id, sub := range s.subscribers {
		if err := sub.Undeclare(); err != nil {
			log.Printf("remotestate: undeclare subscriber %d: %v", id, err)
		}
	}
	for id, q := range s.queryables {
		if err := q.Undeclare(); err != nil {
			log.Printf("remotestate: undeclare queryable %d: %v", id, err)
		}
	}
	for id, q := range s.queriers {
		if err := q.Undeclare(); err != nil {
			log.Printf("remotestate: undeclare querier %d: %v", id, err)
		}
	}
	for id, t := range s.livelinessTokens {
		if err := t.Undeclare(); err != nil {
			log.Printf("remotestate: undeclare liveliness token %d: %v", id, err)
		}
	}
	for id, sub := range s.livelinessSubscribers {
		if err := sub.Undeclare(); err != nil {
			log.Printf("remotestate: undeclare liveliness subscriber %d: %v", id, err)
		}
	}
	for id, l := range s.matchingListeners {
		if err := l.Undeclare(); err != nil {
			log.Printf("remotestate: undeclare matching listener %d: %v", id, err)
		}
	}
	s.pendingQueries.Purge()
	if err := s.session.Close(); err != nil {
		log.Printf("remotestate: close session: %v", err)
	}
}

// nextQueryID allocates a bridge-owned query id for a Queryable-side query
// forwarded to the client, distinct from the client-chosen QueryID space used
// by Get/QuerierGet/LivelinessGet.
func (s *RemoteState) nextQueryID() uint32 {
	return uint32(s.queryCounter.Add(1))
}

// Handle dispatches one decoded InMessage and returns the request's direct
// response, if any: wire.Ok acknowledges a fire-and-forget success, any other
// OutMessage is an in-band data response that must always reach the client,
// and an error is the request's failure. The caller (the connection
// supervisor) decides whether to actually transmit an Ok or an Error based on
// the frame's ack-requested bit; data responses are sent unconditionally.
// Asynchronous effects (sample
// delivery, forwarded queries, replies) are pushed to the outbound queue
// directly and are not part of the return value.
func (s *RemoteState) Handle(ctx context.Context, h wire.Header, msg wire.InMessage) (wire.OutMessage, error) {
	s.messagesHandled.Add(1)
	resp, err := s.dispatch(ctx, msg)
	if err != nil {
		s.messagesErrored.Add(1)
	}
	return resp, err
}

func (s *RemoteState) dispatch(ctx context.Context, msg wire.InMessage) (wire.OutMessage, error) {
	switch m := msg.(type) {
	case wire.DeclarePublisher:
		return s.declarePublisher(m)
	case wire.UndeclarePublisher:
		return s.undeclarePublisher(m)
	case wire.DeclareSubscriber:
		return s.declareSubscriber(m)
	case wire.UndeclareSubscriber:
		return s.undeclareSubscriber(m)
	case wire.DeclareQueryable:
		return s.declareQueryable(m)
	case wire.UndeclareQueryable:
		return s.undeclareQueryable(m)
	case wire.DeclareQuerier:
		return s.declareQuerier(ctx, m)
	case wire.UndeclareQuerier:
		return s.undeclareQuerier(m)
	case wire.DeclareLivelinessToken:
		return s.declareLivelinessToken(m)
	case wire.UndeclareLivelinessToken:
		return s.undeclareLivelinessToken(m)
	case wire.DeclareLivelinessSubscriber:
		return s.declareLivelinessSubscriber(m)
	case wire.UndeclareLivelinessSubscriber:
		return s.undeclareLivelinessSubscriber(m)
	case wire.GetSessionInfo:
		return wire.ResponseSessionInfo{Zid: s.session.Zid(), RoutersZid: s.session.RoutersZid(), PeersZid: s.session.PeersZid()}, nil
	case wire.GetTimestamp:
		return wire.ResponseTimestamp{Timestamp: s.session.NewTimestamp()}, nil
	case wire.Put:
		if err := s.session.Put(m.KeyExpr, m.Payload, m.Qos, fabric.PutOptions{Encoding: m.Encoding, Attachment: m.Attachment, HasAttach: m.HasAttach, Timestamp: m.Timestamp}); err != nil {
			return nil, err
		}
		return wire.Ok{RequestTag: wire.TagPut}, nil
	case wire.Delete:
		if err := s.session.Delete(m.KeyExpr, m.Qos, fabric.DeleteOptions{Attachment: m.Attachment, HasAttach: m.HasAttach, Timestamp: m.Timestamp}); err != nil {
			return nil, err
		}
		return wire.Ok{RequestTag: wire.TagDelete}, nil
	case wire.PublisherPut:
		return s.publisherPut(m)
	case wire.PublisherDelete:
		return s.publisherDelete(m)
	case wire.Get:
		if err := s.get(ctx, m); err != nil {
			return nil, err
		}
		return wire.Ok{RequestTag: wire.TagGet}, nil
	case wire.QuerierGet:
		if err := s.querierGet(ctx, m); err != nil {
			return nil, err
		}
		return wire.Ok{RequestTag: wire.TagQuerierGet}, nil
	case wire.LivelinessGet:
		if err := s.livelinessGet(ctx, m); err != nil {
			return nil, err
		}
		return wire.Ok{RequestTag: wire.TagLivelinessGet}, nil
	case wire.ReplyOk:
		if err := s.replyOk(m); err != nil {
			return nil, err
		}
		return wire.Ok{RequestTag: wire.TagReplyOk}, nil
	case wire.ReplyDel:
		if err := s.replyDel(m); err != nil {
			return nil, err
		}
		return wire.Ok{RequestTag: wire.TagReplyDel}, nil
	case wire.ReplyErr:
		if err := s.replyErr(m); err != nil {
			return nil, err
		}
		return wire.Ok{RequestTag: wire.TagReplyErr}, nil
	case wire.QueryResponseFinalIn:
		if err := s.queryResponseFinal(m); err != nil {
			return nil, err
		}
		return wire.Ok{RequestTag: wire.TagQueryResponseFinal}, nil
	case wire.Ping:
		return wire.PingAck{ClientUUID: s.clientUUID}, nil
	case wire.PublisherDeclareMatchingListener:
		return s.publisherDeclareMatchingListener(m)
	case wire.UndeclareMatchingListener:
		return s.undeclareMatchingListener(m)
	case wire.PublisherGetMatchingStatus:
		return s.publisherGetMatchingStatus(m)
	case wire.QuerierDeclareMatchingListener:
		return s.querierDeclareMatchingListener(m)
	case wire.QuerierGetMatchingStatus:
		return s.querierGetMatchingStatus(m)
	default:
		return nil, errors.Errorf("remotestate: unhandled message type %T", msg)
	}
}
