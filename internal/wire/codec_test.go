package wire

import (
	"bytes"
	"testing"
)

func TestQosRoundTrip(t *testing.T) {
	for prio := uint8(0); prio <= 7; prio++ {
		for _, cc := range []CongestionControl{CongestionDrop, CongestionBlock} {
			for _, express := range []bool{true, false} {
				for _, rel := range []Reliability{ReliabilityBestEffort, ReliabilityReliable} {
					for _, loc := range []Locality{LocalitySessionLocal, LocalityRemote, LocalityAny} {
						q := Qos{Priority: prio, CongestionControl: cc, Express: express, Reliability: rel, Locality: loc}
						got := decodeQos(q.encode())
						if got != q {
							t.Fatalf("qos round trip: want %+v got %+v", q, got)
						}
					}
				}
			}
		}
	}
}

func TestQosLocalityReservedDecodesToAny(t *testing.T) {
	// bits 6-7 == 3 is reserved and must decode to Any.
	got := decodeQos(0xC0)
	if got.Locality != LocalityAny {
		t.Fatalf("want LocalityAny for reserved bits, got %v", got.Locality)
	}
}

func TestQuerySettingsRoundTrip(t *testing.T) {
	for _, target := range []QueryTarget{QueryTargetAll, QueryTargetAllComplete, QueryTargetBestMatching} {
		for _, cons := range []Consolidation{ConsolidationAuto, ConsolidationNone, ConsolidationMonotonic, ConsolidationLatest} {
			for _, accept := range []bool{true, false} {
				qs := QuerySettings{Target: target, Consolidation: cons, AcceptReplyKeyExprMatchingQueryOnly: accept}
				got := decodeQuerySettings(qs.encode())
				if got != qs {
					t.Fatalf("query settings round trip: want %+v got %+v", qs, got)
				}
			}
		}
	}
}

func roundTrip(t *testing.T, tag uint8, body []byte) InMessage {
	t.Helper()
	frame := append([]byte{tag}, body...)
	_, msg, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

func TestDeclarePublisherRoundTrip(t *testing.T) {
	w := newWriter()
	w.u32(42)
	w.str("a/b")
	w.encoding(Encoding{ID: 1, Schema: ""})
	w.qos(DefaultQos())
	msg := roundTrip(t, TagDeclarePublisher, w.buf)
	got, ok := msg.(DeclarePublisher)
	if !ok {
		t.Fatalf("wrong type %T", msg)
	}
	if got.ID != 42 || got.KeyExpr != "a/b" {
		t.Fatalf("unexpected decode: %+v", got)
	}
}

func TestDecodeUnknownTagIsHeaderError(t *testing.T) {
	_, _, err := Decode([]byte{100})
	if err == nil {
		t.Fatal("expected error")
	}
	var herr *HeaderError
	if !isHeaderError(err, &herr) {
		t.Fatalf("expected *HeaderError, got %T: %v", err, err)
	}
}

func isHeaderError(err error, target **HeaderError) bool {
	if he, ok := err.(*HeaderError); ok {
		*target = he
		return true
	}
	return false
}

func TestDecodeTruncatedBodyIsBodyErrorWithHeader(t *testing.T) {
	// UndeclarePublisher with ack bit set and seq=7, but no body (needs a u32 id).
	frame := []byte{TagUndeclarePublisher | ackBit, 7, 0, 0, 0}
	_, _, err := Decode(frame)
	berr, ok := err.(*BodyError)
	if !ok {
		t.Fatalf("expected *BodyError, got %T: %v", err, err)
	}
	if berr.Header.SeqID != 7 || !berr.Header.AckRequest {
		t.Fatalf("unexpected header in body error: %+v", berr.Header)
	}
}

func TestEncodeDecodeAckRoundTrip(t *testing.T) {
	seq := uint32(99)
	frame := Encode(Error{Message: "boom"}, &seq)
	if frame[0]&ackBit == 0 {
		t.Fatal("expected ack bit set")
	}
	h, body, err := decodeHeader(frame)
	if err != nil {
		t.Fatal(err)
	}
	if h.SeqID != 99 || !h.AckRequest {
		t.Fatalf("unexpected header %+v", h)
	}
	r := newReader(body)
	s, err := r.str()
	if err != nil || s != "boom" {
		t.Fatalf("unexpected body: %q err=%v", s, err)
	}
}

func TestEncodeNoAck(t *testing.T) {
	frame := Encode(Ok{RequestTag: TagPing}, nil)
	if frame[0]&ackBit != 0 {
		t.Fatal("ack bit must be unset")
	}
	if len(frame) != 2 {
		t.Fatalf("expected tag+1 byte body, got %d bytes", len(frame))
	}
}

func TestSampleRoundTrip(t *testing.T) {
	ts := Timestamp{NTP64: 123, ID: [16]byte{1, 2, 3}}
	s := Sample{
		SubscriberID: 5,
		KeyExpr:      "x/y",
		Payload:      []byte("hello"),
		Kind:         SampleKindPut,
		Encoding:     Encoding{ID: 0, Schema: ""},
		Attachment:   []byte("a"),
		HasAttach:    true,
		Timestamp:    &ts,
		Qos:          Qos{Priority: 5, Express: true},
	}
	frame := Encode(s, nil)
	h, body, err := decodeHeader(frame)
	if err != nil {
		t.Fatal(err)
	}
	if h.Tag != TagSample {
		t.Fatalf("wrong tag %d", h.Tag)
	}
	r := newReader(body)
	subID, _ := r.u32()
	key, _ := r.str()
	payload, _ := r.bytes()
	kindByte, _ := r.u8()
	if subID != 5 || key != "x/y" || !bytes.Equal(payload, []byte("hello")) || kindByte != uint8(SampleKindPut) {
		t.Fatalf("unexpected sample body: id=%d key=%s payload=%s kind=%d", subID, key, payload, kindByte)
	}
}
