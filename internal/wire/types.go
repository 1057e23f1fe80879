package wire

import "github.com/pingcap/errors"

// CongestionControl mirrors the fabric's publisher congestion policy.
type CongestionControl uint8

const (
	CongestionDrop CongestionControl = iota
	CongestionBlock
)

// Reliability mirrors the fabric's delivery guarantee.
type Reliability uint8

const (
	ReliabilityBestEffort Reliability = iota
	ReliabilityReliable
)

// Locality mirrors the fabric's origin-scoping for subscribers/queryables.
// Locality value 3 is reserved on the wire and always decodes to Any.
type Locality uint8

const (
	LocalitySessionLocal Locality = iota
	LocalityRemote
	LocalityAny
	localityReservedMax
)

// Qos packs priority(3)/congestion(1)/express(1)/reliability(1)/locality(2)
// into a single byte, written high bit first: llrecppp.
type Qos struct {
	Priority          uint8 // 1..=7
	CongestionControl CongestionControl
	Express           bool
	Reliability       Reliability
	Locality          Locality
}

// DefaultQos matches the fabric's usual defaults: best-effort priority 5,
// drop on congestion, session-local scoping.
func DefaultQos() Qos {
	return Qos{Priority: 5, CongestionControl: CongestionDrop, Reliability: ReliabilityBestEffort, Locality: LocalitySessionLocal}
}

func (q Qos) encode() uint8 {
	var b uint8
	b |= q.Priority & 0x07
	if q.CongestionControl == CongestionBlock {
		b |= 1 << 3
	}
	if q.Express {
		b |= 1 << 4
	}
	if q.Reliability == ReliabilityReliable {
		b |= 1 << 5
	}
	b |= (uint8(q.Locality) & 0x03) << 6
	return b
}

func decodeQos(b uint8) Qos {
	loc := Locality((b >> 6) & 0x03)
	if Locality(loc) >= localityReservedMax {
		loc = LocalityAny
	}
	return Qos{
		Priority:          b & 0x07,
		CongestionControl: CongestionControl((b >> 3) & 0x01),
		Express:           (b>>4)&0x01 != 0,
		Reliability:       Reliability((b >> 5) & 0x01),
		Locality:          loc,
	}
}

func (r *reader) qos() (Qos, error) {
	b, err := r.u8()
	if err != nil {
		return Qos{}, err
	}
	return decodeQos(b), nil
}

func (w *writer) qos(q Qos) { w.u8(q.encode()) }

// QueryTarget selects which matching queryables a Get addresses.
type QueryTarget uint8

const (
	QueryTargetAll QueryTarget = iota
	QueryTargetAllComplete
	QueryTargetBestMatching
)

// Consolidation selects how the fabric merges replies to a Get.
type Consolidation uint8

const (
	ConsolidationAuto Consolidation = iota
	ConsolidationNone
	ConsolidationMonotonic
	ConsolidationLatest
)

// QuerySettings packs target(2)/consolidation(2)/accept(1) into one byte,
// written high bit first: rcctt.
type QuerySettings struct {
	Target              QueryTarget
	Consolidation       Consolidation
	AcceptReplyKeyExprMatchingQueryOnly bool
}

func DefaultQuerySettings() QuerySettings {
	return QuerySettings{Target: QueryTargetBestMatching, Consolidation: ConsolidationAuto}
}

func (q QuerySettings) encode() uint8 {
	var b uint8
	b |= uint8(q.Target) & 0x03
	b |= (uint8(q.Consolidation) & 0x03) << 2
	if q.AcceptReplyKeyExprMatchingQueryOnly {
		b |= 1 << 4
	}
	return b
}

func decodeQuerySettings(b uint8) QuerySettings {
	return QuerySettings{
		Target:                               QueryTarget(b & 0x03),
		Consolidation:                        Consolidation((b >> 2) & 0x03),
		AcceptReplyKeyExprMatchingQueryOnly: (b>>4)&0x01 != 0,
	}
}

func (r *reader) querySettings() (QuerySettings, error) {
	b, err := r.u8()
	if err != nil {
		return QuerySettings{}, err
	}
	return decodeQuerySettings(b), nil
}

func (w *writer) querySettings(q QuerySettings) { w.u8(q.encode()) }

// Encoding is (u16 id, string schema); an empty schema means "none".
type Encoding struct {
	ID     uint16
	Schema string
}

func (r *reader) encoding() (Encoding, error) {
	id, err := r.u16()
	if err != nil {
		return Encoding{}, err
	}
	schema, err := r.str()
	if err != nil {
		return Encoding{}, err
	}
	return Encoding{ID: id, Schema: schema}, nil
}

func (w *writer) encoding(e Encoding) {
	w.u16(e.ID)
	w.str(e.Schema)
}

// Timestamp is (u64 ntp64, [16]byte id).
type Timestamp struct {
	NTP64 uint64
	ID    [16]byte
}

func (r *reader) timestamp() (Timestamp, error) {
	ntp, err := r.u64()
	if err != nil {
		return Timestamp{}, err
	}
	id, err := r.fixed(16)
	if err != nil {
		return Timestamp{}, err
	}
	var ts Timestamp
	ts.NTP64 = ntp
	copy(ts.ID[:], id)
	return ts, nil
}

func (w *writer) timestamp(ts Timestamp) {
	w.u64(ts.NTP64)
	w.fixed(ts.ID[:])
}

func (r *reader) optTimestamp() (*Timestamp, error) {
	present, err := r.boolean()
	if err != nil || !present {
		return nil, err
	}
	ts, err := r.timestamp()
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (w *writer) optTimestamp(ts *Timestamp) {
	w.boolean(ts != nil)
	if ts != nil {
		w.timestamp(*ts)
	}
}

// SampleKind distinguishes a Put from a Delete sample.
type SampleKind uint8

const (
	SampleKindPut SampleKind = iota
	SampleKindDelete
)

func decodeSampleKind(b uint8) (SampleKind, error) {
	switch b {
	case 0:
		return SampleKindPut, nil
	case 1:
		return SampleKindDelete, nil
	default:
		return 0, errors.Errorf("invalid sample kind byte %d", b)
	}
}
