// Package fake is an in-memory fabric.Fabric test double. It keeps just
// enough state (process-wide subscriber and queryable lists) to drive
// internal/remotestate and internal/bridge tests without a real fabric
// runtime.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nano-kit/zenoh-remote-bridge/internal/fabric"
	"github.com/nano-kit/zenoh-remote-bridge/internal/wire"
)

// Fabric is a shared in-memory message bus; every Session created from the
// same Fabric observes the others' publishes and queries, mimicking a real
// fabric's cross-session routing.
type Fabric struct {
	mu   sync.Mutex
	subs []*fakeSubscriber
	qrys []*fakeQueryable
}

func New() *Fabric { return &Fabric{} }

func (f *Fabric) NewSession(_ context.Context) (fabric.Session, error) {
	return &session{f: f, zid: uuid.NewString()}, nil
}

type session struct {
	f   *Fabric
	zid string
}

func (s *session) Zid() string          { return s.zid }
func (s *session) RoutersZid() []string { return nil }
func (s *session) PeersZid() []string   { return nil }
func (s *session) NewTimestamp() fabric.Timestamp {
	id := uuid.New()
	var b [16]byte
	copy(b[:], id[:])
	return fabric.Timestamp{NTP64: uint64(time.Now().UnixNano()), ID: b}
}
func (s *session) Close() error { return nil }

func (s *session) DeclarePublisher(keyExpr string, encoding wire.Encoding, qos wire.Qos) (fabric.Publisher, error) {
	return &fakePublisher{s: s, keyExpr: keyExpr, encoding: encoding, qos: qos}, nil
}

func (s *session) DeclareSubscriber(keyExpr string, locality wire.Locality, onSample func(fabric.Sample)) (fabric.Subscriber, error) {
	sub := &fakeSubscriber{f: s.f, keyExpr: keyExpr, onSample: onSample}
	s.f.mu.Lock()
	s.f.subs = append(s.f.subs, sub)
	s.f.mu.Unlock()
	return sub, nil
}

func (s *session) DeclareQueryable(keyExpr string, complete bool, locality wire.Locality, onQuery func(fabric.Query)) (fabric.Queryable, error) {
	q := &fakeQueryable{f: s.f, keyExpr: keyExpr, onQuery: onQuery}
	s.f.mu.Lock()
	s.f.qrys = append(s.f.qrys, q)
	s.f.mu.Unlock()
	return q, nil
}

func (s *session) DeclareQuerier(keyExpr string, qos wire.Qos, qs wire.QuerySettings, timeout time.Duration, locality wire.Locality) (fabric.Querier, error) {
	return &fakeQuerier{s: s, keyExpr: keyExpr}, nil
}

func (s *session) DeclareLivelinessToken(keyExpr string) (fabric.LivelinessToken, error) {
	return &fakeToken{}, nil
}

func (s *session) DeclareLivelinessSubscriber(keyExpr string, history bool, onSample func(fabric.Sample)) (fabric.Subscriber, error) {
	return &fakeSubscriber{f: s.f, keyExpr: keyExpr, onSample: onSample}, nil
}

func (s *session) LivelinessGet(ctx context.Context, keyExpr string, timeout time.Duration, onReply func(fabric.Reply), onDone func()) error {
	onDone()
	return nil
}

func (s *session) Get(ctx context.Context, keyExpr, parameters string, encoding wire.Encoding, hasEncoding bool, payload []byte, hasPayload bool, attachment []byte, hasAttach bool, qos wire.Qos, qs wire.QuerySettings, timeout time.Duration, onReply func(fabric.Reply), onDone func()) error {
	s.f.mu.Lock()
	matching := make([]*fakeQueryable, 0)
	for _, q := range s.f.qrys {
		if q.keyExpr == keyExpr {
			matching = append(matching, q)
		}
	}
	s.f.mu.Unlock()
	go func() {
		// The reply stream stays open until every dispatched query has been
		// finalized (explicitly or through eviction).
		var pending sync.WaitGroup
		pending.Add(len(matching))
		for _, q := range matching {
			q.onQuery(&fakeQuery{keyExpr: keyExpr, parameters: parameters, onReply: onReply, onFinal: pending.Done})
		}
		pending.Wait()
		onDone()
	}()
	return nil
}

func (s *session) Put(keyExpr string, payload []byte, qos wire.Qos, opts fabric.PutOptions) error {
	s.f.publish(fabric.Sample{KeyExpr: keyExpr, Payload: payload, Kind: wire.SampleKindPut, Encoding: opts.Encoding, Attachment: opts.Attachment, HasAttach: opts.HasAttach, Timestamp: opts.Timestamp, Qos: qos})
	return nil
}

func (s *session) Delete(keyExpr string, qos wire.Qos, opts fabric.DeleteOptions) error {
	s.f.publish(fabric.Sample{KeyExpr: keyExpr, Kind: wire.SampleKindDelete, Attachment: opts.Attachment, HasAttach: opts.HasAttach, Timestamp: opts.Timestamp, Qos: qos})
	return nil
}

func (f *Fabric) publish(sample fabric.Sample) {
	f.mu.Lock()
	subs := append([]*fakeSubscriber(nil), f.subs...)
	f.mu.Unlock()
	for _, sub := range subs {
		if keyExprMatches(sub.keyExpr, sample.KeyExpr) {
			sub.onSample(sample)
		}
	}
}

// keyExprMatches implements the subset of key-expression wildcards the fake
// needs for tests: an exact match, or a "**" suffix matching any deeper path.
func keyExprMatches(expr, key string) bool {
	if expr == key {
		return true
	}
	const wildcardSuffix = "/**"
	if len(expr) > len(wildcardSuffix) && expr[len(expr)-len(wildcardSuffix):] == wildcardSuffix {
		prefix := expr[:len(expr)-len(wildcardSuffix)]
		return len(key) >= len(prefix) && key[:len(prefix)] == prefix
	}
	const starSuffix = "/*"
	if len(expr) > len(starSuffix) && expr[len(expr)-len(starSuffix):] == starSuffix {
		prefix := expr[:len(expr)-len(starSuffix)]
		if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
			return false
		}
		rest := key[len(prefix)+1:]
		for _, c := range rest {
			if c == '/' {
				return false
			}
		}
		return true
	}
	return false
}

type fakePublisher struct {
	s        *session
	keyExpr  string
	encoding wire.Encoding
	qos      wire.Qos
}

func (p *fakePublisher) Put(payload []byte, opts fabric.PutOptions) error {
	return p.s.Put(p.keyExpr, payload, p.qos, opts)
}
func (p *fakePublisher) Delete(opts fabric.DeleteOptions) error {
	return p.s.Delete(p.keyExpr, p.qos, opts)
}
func (p *fakePublisher) Undeclare() error { return nil }
func (p *fakePublisher) DeclareMatchingListener(onChange func(bool)) (fabric.MatchingListener, error) {
	return &fakeMatchingListener{}, nil
}
func (p *fakePublisher) MatchingStatus() (bool, error) { return false, nil }

type fakeSubscriber struct {
	f        *Fabric
	keyExpr  string
	onSample func(fabric.Sample)
}

func (s *fakeSubscriber) Undeclare() error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	for i, sub := range s.f.subs {
		if sub == s {
			s.f.subs = append(s.f.subs[:i], s.f.subs[i+1:]...)
			break
		}
	}
	return nil
}

type fakeQueryable struct {
	f       *Fabric
	keyExpr string
	onQuery func(fabric.Query)
}

func (q *fakeQueryable) Undeclare() error {
	q.f.mu.Lock()
	defer q.f.mu.Unlock()
	for i, qq := range q.f.qrys {
		if qq == q {
			q.f.qrys = append(q.f.qrys[:i], q.f.qrys[i+1:]...)
			break
		}
	}
	return nil
}

type fakeQuery struct {
	keyExpr    string
	parameters string
	onReply    func(fabric.Reply)
	onFinal    func()
	finalOnce  sync.Once
	done       bool
}

func (q *fakeQuery) KeyExpr() string                         { return q.keyExpr }
func (q *fakeQuery) Parameters() string                      { return q.parameters }
func (q *fakeQuery) Encoding() (wire.Encoding, bool)          { return wire.Encoding{}, false }
func (q *fakeQuery) Payload() ([]byte, bool)                 { return nil, false }
func (q *fakeQuery) Attachment() ([]byte, bool)              { return nil, false }
func (q *fakeQuery) Qos() wire.Qos                           { return wire.DefaultQos() }

func (q *fakeQuery) ReplyOk(keyExpr string, payload []byte, encoding wire.Encoding, qos wire.Qos, opts fabric.PutOptions) error {
	q.onReply(fabric.Reply{Ok: true, Sample: fabric.Sample{KeyExpr: keyExpr, Payload: payload, Kind: wire.SampleKindPut, Encoding: encoding, Attachment: opts.Attachment, HasAttach: opts.HasAttach, Timestamp: opts.Timestamp, Qos: qos}})
	return nil
}

func (q *fakeQuery) ReplyDel(keyExpr string, qos wire.Qos, opts fabric.DeleteOptions) error {
	q.onReply(fabric.Reply{Ok: true, Sample: fabric.Sample{KeyExpr: keyExpr, Kind: wire.SampleKindDelete, Attachment: opts.Attachment, HasAttach: opts.HasAttach, Timestamp: opts.Timestamp, Qos: qos}})
	return nil
}

func (q *fakeQuery) ReplyErr(encoding wire.Encoding, payload []byte) error {
	q.onReply(fabric.Reply{Ok: false, Encoding: encoding, Payload: payload})
	return nil
}

func (q *fakeQuery) Finalize() error {
	q.finalOnce.Do(func() {
		q.done = true
		if q.onFinal != nil {
			q.onFinal()
		}
	})
	return nil
}

type fakeQuerier struct {
	s       *session
	keyExpr string
}

func (q *fakeQuerier) Get(ctx context.Context, parameters string, encoding wire.Encoding, hasEncoding bool, payload []byte, hasPayload bool, attachment []byte, hasAttach bool, onReply func(fabric.Reply), onDone func()) error {
	return q.s.Get(ctx, q.keyExpr, parameters, encoding, hasEncoding, payload, hasPayload, attachment, hasAttach, wire.DefaultQos(), wire.DefaultQuerySettings(), 0, onReply, onDone)
}
func (q *fakeQuerier) Undeclare() error { return nil }
func (q *fakeQuerier) DeclareMatchingListener(onChange func(bool)) (fabric.MatchingListener, error) {
	return &fakeMatchingListener{}, nil
}
func (q *fakeQuerier) MatchingStatus() (bool, error) { return false, nil }

type fakeToken struct{}

func (fakeToken) Undeclare() error { return nil }

type fakeMatchingListener struct{}

func (fakeMatchingListener) Undeclare() error { return nil }
