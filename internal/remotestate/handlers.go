package remotestate

import (
	"context"
	"time"

	"github.com/pingcap/errors"

	"github.com/nano-kit/zenoh-remote-bridge/internal/fabric"
	"github.com/nano-kit/zenoh-remote-bridge/internal/wire"
)

var (
	errDuplicateID  = errors.New("duplicate entity id")
	errUnknownID    = errors.New("unknown entity id")
	errUnknownQuery = errors.New("unknown or already finalized query id")
)

func (s *RemoteState) declarePublisher(m wire.DeclarePublisher) (wire.OutMessage, error) {
	if _, exists := s.publishers[m.ID]; exists {
		return nil, errors.Annotatef(errDuplicateID, "publisher %d", m.ID)
	}
	p, err := s.session.DeclarePublisher(m.KeyExpr, m.Encoding, m.Qos)
	if err != nil {
		return nil, err
	}
	s.adminMu.Lock()
	s.publishers[m.ID] = p
	s.publisherKeys[m.ID] = m.KeyExpr
	s.adminMu.Unlock()
	return wire.Ok{RequestTag: wire.TagDeclarePublisher}, nil
}

func (s *RemoteState) undeclarePublisher(m wire.UndeclarePublisher) (wire.OutMessage, error) {
	p, ok := s.publishers[m.ID]
	if !ok {
		return nil, errors.Annotatef(errUnknownID, "publisher %d", m.ID)
	}
	s.adminMu.Lock()
	delete(s.publishers, m.ID)
	delete(s.publisherKeys, m.ID)
	s.adminMu.Unlock()
	if err := p.Undeclare(); err != nil {
		return nil, err
	}
	return wire.Ok{RequestTag: wire.TagUndeclarePublisher}, nil
}

func (s *RemoteState) declareSubscriber(m wire.DeclareSubscriber) (wire.OutMessage, error) {
	if _, exists := s.subscribers[m.ID]; exists {
		return nil, errors.Annotatef(errDuplicateID, "subscriber %d", m.ID)
	}
	id := m.ID
	sub, err := s.session.DeclareSubscriber(m.KeyExpr, m.Locality, func(sample fabric.Sample) {
		s.outbound.Send(sampleToWire(id, sample), nil)
	})
	if err != nil {
		return nil, err
	}
	s.adminMu.Lock()
	s.subscribers[m.ID] = sub
	s.subscriberKeys[m.ID] = m.KeyExpr
	s.adminMu.Unlock()
	return wire.Ok{RequestTag: wire.TagDeclareSubscriber}, nil
}

func (s *RemoteState) undeclareSubscriber(m wire.UndeclareSubscriber) (wire.OutMessage, error) {
	sub, ok := s.subscribers[m.ID]
	if !ok {
		return nil, errors.Annotatef(errUnknownID, "subscriber %d", m.ID)
	}
	s.adminMu.Lock()
	delete(s.subscribers, m.ID)
	delete(s.subscriberKeys, m.ID)
	s.adminMu.Unlock()
	if err := sub.Undeclare(); err != nil {
		return nil, err
	}
	return wire.Ok{RequestTag: wire.TagUndeclareSubscriber}, nil
}

func (s *RemoteState) declareQueryable(m wire.DeclareQueryable) (wire.OutMessage, error) {
	if _, exists := s.queryables[m.ID]; exists {
		return nil, errors.Annotatef(errDuplicateID, "queryable %d", m.ID)
	}
	queryableID := m.ID
	q, err := s.session.DeclareQueryable(m.KeyExpr, m.Complete, m.Locality, func(query fabric.Query) {
		s.onIncomingQuery(queryableID, query)
	})
	if err != nil {
		return nil, err
	}
	s.adminMu.Lock()
	s.queryables[m.ID] = q
	s.queryableKeys[m.ID] = m.KeyExpr
	s.adminMu.Unlock()
	return wire.Ok{RequestTag: wire.TagDeclareQueryable}, nil
}

func (s *RemoteState) undeclareQueryable(m wire.UndeclareQueryable) (wire.OutMessage, error) {
	q, ok := s.queryables[m.ID]
	if !ok {
		return nil, errors.Annotatef(errUnknownID, "queryable %d", m.ID)
	}
	s.adminMu.Lock()
	delete(s.queryables, m.ID)
	delete(s.queryableKeys, m.ID)
	s.adminMu.Unlock()
	if err := q.Undeclare(); err != nil {
		return nil, err
	}
	return wire.Ok{RequestTag: wire.TagUndeclareQueryable}, nil
}

func (s *RemoteState) declareQuerier(ctx context.Context, m wire.DeclareQuerier) (wire.OutMessage, error) {
	if _, exists := s.queriers[m.ID]; exists {
		return nil, errors.Annotatef(errDuplicateID, "querier %d", m.ID)
	}
	timeout := time.Duration(m.TimeoutMs) * time.Millisecond
	q, err := s.session.DeclareQuerier(m.KeyExpr, m.Qos, m.QuerySettings, timeout, m.Locality)
	if err != nil {
		return nil, err
	}
	s.adminMu.Lock()
	s.queriers[m.ID] = q
	s.querierKeys[m.ID] = m.KeyExpr
	s.adminMu.Unlock()
	return wire.Ok{RequestTag: wire.TagDeclareQuerier}, nil
}

func (s *RemoteState) undeclareQuerier(m wire.UndeclareQuerier) (wire.OutMessage, error) {
	q, ok := s.queriers[m.ID]
	if !ok {
		return nil, errors.Annotatef(errUnknownID, "querier %d", m.ID)
	}
	s.adminMu.Lock()
	delete(s.queriers, m.ID)
	delete(s.querierKeys, m.ID)
	s.adminMu.Unlock()
	if err := q.Undeclare(); err != nil {
		return nil, err
	}
	return wire.Ok{RequestTag: wire.TagUndeclareQuerier}, nil
}

func (s *RemoteState) declareLivelinessToken(m wire.DeclareLivelinessToken) (wire.OutMessage, error) {
	if _, exists := s.livelinessTokens[m.ID]; exists {
		return nil, errors.Annotatef(errDuplicateID, "liveliness token %d", m.ID)
	}
	t, err := s.session.DeclareLivelinessToken(m.KeyExpr)
	if err != nil {
		return nil, err
	}
	s.adminMu.Lock()
	s.livelinessTokens[m.ID] = t
	s.livelinessTokenKeys[m.ID] = m.KeyExpr
	s.adminMu.Unlock()
	return wire.Ok{RequestTag: wire.TagDeclareLivelinessToken}, nil
}

func (s *RemoteState) undeclareLivelinessToken(m wire.UndeclareLivelinessToken) (wire.OutMessage, error) {
	t, ok := s.livelinessTokens[m.ID]
	if !ok {
		return nil, errors.Annotatef(errUnknownID, "liveliness token %d", m.ID)
	}
	s.adminMu.Lock()
	delete(s.livelinessTokens, m.ID)
	delete(s.livelinessTokenKeys, m.ID)
	s.adminMu.Unlock()
	if err := t.Undeclare(); err != nil {
		return nil, err
	}
	return wire.Ok{RequestTag: wire.TagUndeclareLivelinessToken}, nil
}

func (s *RemoteState) declareLivelinessSubscriber(m wire.DeclareLivelinessSubscriber) (wire.OutMessage, error) {
	if _, exists := s.livelinessSubscribers[m.ID]; exists {
		return nil, errors.Annotatef(errDuplicateID, "liveliness subscriber %d", m.ID)
	}
	id := m.ID
	sub, err := s.session.DeclareLivelinessSubscriber(m.KeyExpr, m.History, func(sample fabric.Sample) {
		s.outbound.Send(sampleToWire(id, sample), nil)
	})
	if err != nil {
		return nil, err
	}
	s.adminMu.Lock()
	s.livelinessSubscribers[m.ID] = sub
	s.adminMu.Unlock()
	return wire.Ok{RequestTag: wire.TagDeclareLivelinessSubscriber}, nil
}

func (s *RemoteState) undeclareLivelinessSubscriber(m wire.UndeclareLivelinessSubscriber) (wire.OutMessage, error) {
	sub, ok := s.livelinessSubscribers[m.ID]
	if !ok {
		return nil, errors.Annotatef(errUnknownID, "liveliness subscriber %d", m.ID)
	}
	s.adminMu.Lock()
	delete(s.livelinessSubscribers, m.ID)
	s.adminMu.Unlock()
	if err := sub.Undeclare(); err != nil {
		return nil, err
	}
	return wire.Ok{RequestTag: wire.TagUndeclareLivelinessSubscriber}, nil
}

func (s *RemoteState) publisherPut(m wire.PublisherPut) (wire.OutMessage, error) {
	p, ok := s.publishers[m.ID]
	if !ok {
		return nil, errors.Annotatef(errUnknownID, "publisher %d", m.ID)
	}
	if err := p.Put(m.Payload, fabric.PutOptions{Attachment: m.Attachment, HasAttach: m.HasAttach, Timestamp: m.Timestamp}); err != nil {
		return nil, err
	}
	return wire.Ok{RequestTag: wire.TagPublisherPut}, nil
}

func (s *RemoteState) publisherDelete(m wire.PublisherDelete) (wire.OutMessage, error) {
	p, ok := s.publishers[m.ID]
	if !ok {
		return nil, errors.Annotatef(errUnknownID, "publisher %d", m.ID)
	}
	if err := p.Delete(fabric.DeleteOptions{Attachment: m.Attachment, HasAttach: m.HasAttach, Timestamp: m.Timestamp}); err != nil {
		return nil, err
	}
	return wire.Ok{RequestTag: wire.TagPublisherDelete}, nil
}

// get forwards a one-shot query to the fabric, streaming each reply back to
// the client tagged with the client's own QueryID, and closing the stream
// with QueryResponseFinal when the fabric signals completion.
func (s *RemoteState) get(ctx context.Context, m wire.Get) error {
	queryID := m.QueryID
	timeout := time.Duration(m.TimeoutMs) * time.Millisecond
	return s.session.Get(ctx, m.KeyExpr, m.Parameters, m.Encoding, m.HasEncoding, m.Payload, m.HasPayload, m.Attachment, m.HasAttach, m.Qos, m.QuerySettings, timeout,
		func(reply fabric.Reply) { s.outbound.Send(replyToWire(queryID, reply), nil) },
		func() { s.outbound.Send(wire.QueryResponseFinal{QueryID: queryID}, nil) },
	)
}

func (s *RemoteState) querierGet(ctx context.Context, m wire.QuerierGet) error {
	q, ok := s.queriers[m.QuerierID]
	if !ok {
		return errors.Annotatef(errUnknownID, "querier %d", m.QuerierID)
	}
	queryID := m.QueryID
	return q.Get(ctx, m.Parameters, m.Encoding, m.HasEncoding, m.Payload, m.HasPayload, m.Attachment, m.HasAttach,
		func(reply fabric.Reply) { s.outbound.Send(replyToWire(queryID, reply), nil) },
		func() { s.outbound.Send(wire.QueryResponseFinal{QueryID: queryID}, nil) },
	)
}

func (s *RemoteState) livelinessGet(ctx context.Context, m wire.LivelinessGet) error {
	queryID := m.QueryID
	timeout := time.Duration(m.TimeoutMs) * time.Millisecond
	return s.session.LivelinessGet(ctx, m.KeyExpr, timeout,
		func(reply fabric.Reply) { s.outbound.Send(replyToWire(queryID, reply), nil) },
		func() { s.outbound.Send(wire.QueryResponseFinal{QueryID: queryID}, nil) },
	)
}

// onIncomingQuery is invoked by the fabric (on an arbitrary goroutine) when a
// declared Queryable receives a query. It allocates a bridge-owned QueryID,
// parks the fabric.Query in pendingQueries until the client replies, and
// forwards a wire.Query to the client.
func (s *RemoteState) onIncomingQuery(queryableID uint32, query fabric.Query) {
	queryID := s.nextQueryID()
	s.pendingQueries.Add(queryID, &pendingQuery{query: query})

	encoding, hasEncoding := query.Encoding()
	payload, hasPayload := query.Payload()
	attachment, hasAttach := query.Attachment()

	s.outbound.Send(wire.Query{
		QueryableID: queryableID,
		QueryID:     queryID,
		KeyExpr:     query.KeyExpr(),
		Parameters:  query.Parameters(),
		Encoding:    encoding,
		HasEncoding: hasEncoding,
		Payload:     payload,
		HasPayload:  hasPayload,
		Attachment:  attachment,
		HasAttach:   hasAttach,
		Qos:         query.Qos(),
	}, nil)
}

func (s *RemoteState) takePendingQuery(queryID uint32) (*pendingQuery, error) {
	pq, ok := s.pendingQueries.Get(queryID)
	if !ok {
		return nil, errors.Annotatef(errUnknownQuery, "query %d", queryID)
	}
	return pq, nil
}

func (s *RemoteState) replyOk(m wire.ReplyOk) error {
	pq, err := s.takePendingQuery(m.QueryID)
	if err != nil {
		return err
	}
	return pq.query.ReplyOk(m.KeyExpr, m.Payload, m.Encoding, m.Qos, fabric.PutOptions{Attachment: m.Attachment, HasAttach: m.HasAttach, Timestamp: m.Timestamp})
}

func (s *RemoteState) replyDel(m wire.ReplyDel) error {
	pq, err := s.takePendingQuery(m.QueryID)
	if err != nil {
		return err
	}
	return pq.query.ReplyDel(m.KeyExpr, m.Qos, fabric.DeleteOptions{Attachment: m.Attachment, HasAttach: m.HasAttach, Timestamp: m.Timestamp})
}

func (s *RemoteState) replyErr(m wire.ReplyErr) error {
	pq, err := s.takePendingQuery(m.QueryID)
	if err != nil {
		return err
	}
	return pq.query.ReplyErr(m.Encoding, m.Payload)
}

func (s *RemoteState) queryResponseFinal(m wire.QueryResponseFinalIn) error {
	pq, err := s.takePendingQuery(m.QueryID)
	if err != nil {
		return err
	}
	pq.finalized.Store(true)
	s.pendingQueries.Remove(m.QueryID)
	return pq.query.Finalize()
}

func (s *RemoteState) publisherDeclareMatchingListener(m wire.PublisherDeclareMatchingListener) (wire.OutMessage, error) {
	if _, exists := s.matchingListeners[m.ID]; exists {
		return nil, errors.Annotatef(errDuplicateID, "matching listener %d", m.ID)
	}
	p, ok := s.publishers[m.PublisherID]
	if !ok {
		return nil, errors.Annotatef(errUnknownID, "publisher %d", m.PublisherID)
	}
	listenerID := m.ID
	l, err := p.DeclareMatchingListener(func(matching bool) {
		s.outbound.Send(wire.MatchingStatusUpdate{ListenerID: listenerID, Matching: matching}, nil)
	})
	if err != nil {
		return nil, err
	}
	s.adminMu.Lock()
	s.matchingListeners[m.ID] = l
	s.adminMu.Unlock()
	return wire.Ok{RequestTag: wire.TagPublisherDeclareMatchingListener}, nil
}

func (s *RemoteState) querierDeclareMatchingListener(m wire.QuerierDeclareMatchingListener) (wire.OutMessage, error) {
	if _, exists := s.matchingListeners[m.ID]; exists {
		return nil, errors.Annotatef(errDuplicateID, "matching listener %d", m.ID)
	}
	q, ok := s.queriers[m.QuerierID]
	if !ok {
		return nil, errors.Annotatef(errUnknownID, "querier %d", m.QuerierID)
	}
	listenerID := m.ID
	l, err := q.DeclareMatchingListener(func(matching bool) {
		s.outbound.Send(wire.MatchingStatusUpdate{ListenerID: listenerID, Matching: matching}, nil)
	})
	if err != nil {
		return nil, err
	}
	s.adminMu.Lock()
	s.matchingListeners[m.ID] = l
	s.adminMu.Unlock()
	return wire.Ok{RequestTag: wire.TagQuerierDeclareMatchingListener}, nil
}

func (s *RemoteState) undeclareMatchingListener(m wire.UndeclareMatchingListener) (wire.OutMessage, error) {
	l, ok := s.matchingListeners[m.ID]
	if !ok {
		return nil, errors.Annotatef(errUnknownID, "matching listener %d", m.ID)
	}
	s.adminMu.Lock()
	delete(s.matchingListeners, m.ID)
	s.adminMu.Unlock()
	if err := l.Undeclare(); err != nil {
		return nil, err
	}
	return wire.Ok{RequestTag: wire.TagUndeclareMatchingListener}, nil
}

func (s *RemoteState) publisherGetMatchingStatus(m wire.PublisherGetMatchingStatus) (wire.OutMessage, error) {
	p, ok := s.publishers[m.PublisherID]
	if !ok {
		return nil, errors.Annotatef(errUnknownID, "publisher %d", m.PublisherID)
	}
	matching, err := p.MatchingStatus()
	if err != nil {
		return nil, err
	}
	return wire.MatchingStatus{EntityID: m.PublisherID, Matching: matching}, nil
}

func (s *RemoteState) querierGetMatchingStatus(m wire.QuerierGetMatchingStatus) (wire.OutMessage, error) {
	q, ok := s.queriers[m.QuerierID]
	if !ok {
		return nil, errors.Annotatef(errUnknownID, "querier %d", m.QuerierID)
	}
	matching, err := q.MatchingStatus()
	if err != nil {
		return nil, err
	}
	return wire.MatchingStatus{EntityID: m.QuerierID, Matching: matching}, nil
}

func sampleToWire(subscriberID uint32, sample fabric.Sample) wire.Sample {
	return wire.Sample{
		SubscriberID: subscriberID,
		KeyExpr:      sample.KeyExpr,
		Payload:      sample.Payload,
		Kind:         sample.Kind,
		Encoding:     sample.Encoding,
		Attachment:   sample.Attachment,
		HasAttach:    sample.HasAttach,
		Timestamp:    sample.Timestamp,
		Qos:          sample.Qos,
	}
}

func replyToWire(queryID uint32, reply fabric.Reply) wire.Reply {
	if !reply.Ok {
		return wire.Reply{QueryID: queryID, Ok: false, Encoding: reply.Encoding, Payload: reply.Payload}
	}
	return wire.Reply{
		QueryID: queryID,
		Ok:      true,
		Sample: wire.Sample{
			KeyExpr:    reply.Sample.KeyExpr,
			Payload:    reply.Sample.Payload,
			Kind:       reply.Sample.Kind,
			Encoding:   reply.Sample.Encoding,
			Attachment: reply.Sample.Attachment,
			HasAttach:  reply.Sample.HasAttach,
			Timestamp:  reply.Sample.Timestamp,
			Qos:        reply.Sample.Qos,
		},
	}
}
