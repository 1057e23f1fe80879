package wire

import "github.com/pingcap/errors"

// Decode parses a single frame's bytes into its Header and InMessage. A
// header-level failure (unknown tag, truncated header) returns a
// *HeaderError with no further context. A body-level failure returns a
// *BodyError carrying the already-parsed Header.
func Decode(frame []byte) (Header, InMessage, error) {
	h, body, err := decodeHeader(frame)
	if err != nil {
		return Header{}, nil, err
	}
	if h.Tag >= inTagCount {
		return Header{}, nil, &HeaderError{Err: errors.Trace(ErrUnknownTag)}
	}

	r := newReader(body)
	msg, err := decodeInBody(h.Tag, r)
	if err != nil {
		return h, nil, &BodyError{Header: h, Err: err}
	}
	return h, msg, nil
}

func decodeInBody(tag uint8, r *reader) (InMessage, error) {
	switch tag {
	case TagDeclarePublisher:
		var m DeclarePublisher
		var err error
		if m.ID, err = r.u32(); err != nil {
			return nil, err
		}
		if m.KeyExpr, err = r.str(); err != nil {
			return nil, err
		}
		if m.Encoding, err = r.encoding(); err != nil {
			return nil, err
		}
		if m.Qos, err = r.qos(); err != nil {
			return nil, err
		}
		return m, nil

	case TagUndeclarePublisher:
		id, err := r.u32()
		return UndeclarePublisher{ID: id}, err

	case TagDeclareSubscriber:
		var m DeclareSubscriber
		var err error
		if m.ID, err = r.u32(); err != nil {
			return nil, err
		}
		if m.KeyExpr, err = r.str(); err != nil {
			return nil, err
		}
		loc, err := r.u8()
		if err != nil {
			return nil, err
		}
		m.Locality = clampLocality(loc)
		return m, nil

	case TagUndeclareSubscriber:
		id, err := r.u32()
		return UndeclareSubscriber{ID: id}, err

	case TagDeclareQueryable:
		var m DeclareQueryable
		var err error
		if m.ID, err = r.u32(); err != nil {
			return nil, err
		}
		if m.KeyExpr, err = r.str(); err != nil {
			return nil, err
		}
		if m.Complete, err = r.boolean(); err != nil {
			return nil, err
		}
		loc, err := r.u8()
		if err != nil {
			return nil, err
		}
		m.Locality = clampLocality(loc)
		return m, nil

	case TagUndeclareQueryable:
		id, err := r.u32()
		return UndeclareQueryable{ID: id}, err

	case TagDeclareQuerier:
		var m DeclareQuerier
		var err error
		if m.ID, err = r.u32(); err != nil {
			return nil, err
		}
		if m.KeyExpr, err = r.str(); err != nil {
			return nil, err
		}
		if m.Qos, err = r.qos(); err != nil {
			return nil, err
		}
		if m.QuerySettings, err = r.querySettings(); err != nil {
			return nil, err
		}
		if m.TimeoutMs, err = r.u64(); err != nil {
			return nil, err
		}
		loc, err := r.u8()
		if err != nil {
			return nil, err
		}
		m.Locality = clampLocality(loc)
		return m, nil

	case TagUndeclareQuerier:
		id, err := r.u32()
		return UndeclareQuerier{ID: id}, err

	case TagDeclareLivelinessToken:
		var m DeclareLivelinessToken
		var err error
		if m.ID, err = r.u32(); err != nil {
			return nil, err
		}
		m.KeyExpr, err = r.str()
		return m, err

	case TagUndeclareLivelinessToken:
		id, err := r.u32()
		return UndeclareLivelinessToken{ID: id}, err

	case TagDeclareLivelinessSubscriber:
		var m DeclareLivelinessSubscriber
		var err error
		if m.ID, err = r.u32(); err != nil {
			return nil, err
		}
		if m.KeyExpr, err = r.str(); err != nil {
			return nil, err
		}
		m.History, err = r.boolean()
		return m, err

	case TagUndeclareLivelinessSubscriber:
		id, err := r.u32()
		return UndeclareLivelinessSubscriber{ID: id}, err

	case TagGetSessionInfo:
		return GetSessionInfo{}, nil

	case TagGetTimestamp:
		return GetTimestamp{}, nil

	case TagPut:
		var m Put
		var err error
		if m.KeyExpr, err = r.str(); err != nil {
			return nil, err
		}
		if m.Payload, err = r.bytes(); err != nil {
			return nil, err
		}
		if m.Encoding, err = r.encoding(); err != nil {
			return nil, err
		}
		if m.Qos, err = r.qos(); err != nil {
			return nil, err
		}
		if m.Attachment, m.HasAttach, err = r.optBytes(); err != nil {
			return nil, err
		}
		m.Timestamp, err = r.optTimestamp()
		return m, err

	case TagDelete:
		var m Delete
		var err error
		if m.KeyExpr, err = r.str(); err != nil {
			return nil, err
		}
		if m.Qos, err = r.qos(); err != nil {
			return nil, err
		}
		if m.Attachment, m.HasAttach, err = r.optBytes(); err != nil {
			return nil, err
		}
		m.Timestamp, err = r.optTimestamp()
		return m, err

	case TagPublisherPut:
		var m PublisherPut
		var err error
		if m.ID, err = r.u32(); err != nil {
			return nil, err
		}
		if m.Payload, err = r.bytes(); err != nil {
			return nil, err
		}
		if m.Attachment, m.HasAttach, err = r.optBytes(); err != nil {
			return nil, err
		}
		m.Timestamp, err = r.optTimestamp()
		return m, err

	case TagPublisherDelete:
		var m PublisherDelete
		var err error
		if m.ID, err = r.u32(); err != nil {
			return nil, err
		}
		if m.Attachment, m.HasAttach, err = r.optBytes(); err != nil {
			return nil, err
		}
		m.Timestamp, err = r.optTimestamp()
		return m, err

	case TagGet:
		var m Get
		var err error
		if m.QueryID, err = r.u32(); err != nil {
			return nil, err
		}
		if m.KeyExpr, err = r.str(); err != nil {
			return nil, err
		}
		if m.Parameters, err = r.str(); err != nil {
			return nil, err
		}
		if m.TimeoutMs, err = r.u64(); err != nil {
			return nil, err
		}
		if m.Qos, err = r.qos(); err != nil {
			return nil, err
		}
		if m.QuerySettings, err = r.querySettings(); err != nil {
			return nil, err
		}
		if m.HasEncoding, err = r.boolean(); err != nil {
			return nil, err
		}
		if m.HasEncoding {
			if m.Encoding, err = r.encoding(); err != nil {
				return nil, err
			}
		}
		if m.Payload, m.HasPayload, err = r.optBytes(); err != nil {
			return nil, err
		}
		m.Attachment, m.HasAttach, err = r.optBytes()
		return m, err

	case TagQuerierGet:
		var m QuerierGet
		var err error
		if m.QuerierID, err = r.u32(); err != nil {
			return nil, err
		}
		if m.QueryID, err = r.u32(); err != nil {
			return nil, err
		}
		if m.Parameters, err = r.str(); err != nil {
			return nil, err
		}
		if m.HasEncoding, err = r.boolean(); err != nil {
			return nil, err
		}
		if m.HasEncoding {
			if m.Encoding, err = r.encoding(); err != nil {
				return nil, err
			}
		}
		if m.Payload, m.HasPayload, err = r.optBytes(); err != nil {
			return nil, err
		}
		m.Attachment, m.HasAttach, err = r.optBytes()
		return m, err

	case TagLivelinessGet:
		var m LivelinessGet
		var err error
		if m.QueryID, err = r.u32(); err != nil {
			return nil, err
		}
		if m.KeyExpr, err = r.str(); err != nil {
			return nil, err
		}
		m.TimeoutMs, err = r.u64()
		return m, err

	case TagReplyOk:
		var m ReplyOk
		var err error
		if m.QueryID, err = r.u32(); err != nil {
			return nil, err
		}
		if m.KeyExpr, err = r.str(); err != nil {
			return nil, err
		}
		if m.Payload, err = r.bytes(); err != nil {
			return nil, err
		}
		if m.Encoding, err = r.encoding(); err != nil {
			return nil, err
		}
		if m.Qos, err = r.qos(); err != nil {
			return nil, err
		}
		if m.Attachment, m.HasAttach, err = r.optBytes(); err != nil {
			return nil, err
		}
		m.Timestamp, err = r.optTimestamp()
		return m, err

	case TagReplyDel:
		var m ReplyDel
		var err error
		if m.QueryID, err = r.u32(); err != nil {
			return nil, err
		}
		if m.KeyExpr, err = r.str(); err != nil {
			return nil, err
		}
		if m.Qos, err = r.qos(); err != nil {
			return nil, err
		}
		if m.Attachment, m.HasAttach, err = r.optBytes(); err != nil {
			return nil, err
		}
		m.Timestamp, err = r.optTimestamp()
		return m, err

	case TagReplyErr:
		var m ReplyErr
		var err error
		if m.QueryID, err = r.u32(); err != nil {
			return nil, err
		}
		if m.Encoding, err = r.encoding(); err != nil {
			return nil, err
		}
		m.Payload, err = r.bytes()
		return m, err

	case TagQueryResponseFinal:
		id, err := r.u32()
		return QueryResponseFinalIn{QueryID: id}, err

	case TagPing:
		return Ping{}, nil

	case TagPublisherDeclareMatchingListener:
		var m PublisherDeclareMatchingListener
		var err error
		if m.ID, err = r.u32(); err != nil {
			return nil, err
		}
		m.PublisherID, err = r.u32()
		return m, err

	case TagUndeclareMatchingListener:
		id, err := r.u32()
		return UndeclareMatchingListener{ID: id}, err

	case TagPublisherGetMatchingStatus:
		id, err := r.u32()
		return PublisherGetMatchingStatus{PublisherID: id}, err

	case TagQuerierDeclareMatchingListener:
		var m QuerierDeclareMatchingListener
		var err error
		if m.ID, err = r.u32(); err != nil {
			return nil, err
		}
		m.QuerierID, err = r.u32()
		return m, err

	case TagQuerierGetMatchingStatus:
		id, err := r.u32()
		return QuerierGetMatchingStatus{QuerierID: id}, err

	default:
		return nil, errors.Errorf("unreachable tag %d", tag)
	}
}

func clampLocality(b uint8) Locality {
	loc := Locality(b)
	if loc >= localityReservedMax {
		return LocalityAny
	}
	return loc
}

// Encode serializes an OutMessage into a frame: tag byte (with ack bit and
// seqID when seqID != nil) followed by the body.
func Encode(msg OutMessage, seqID *uint32) []byte {
	w := newWriter()
	encodeOutBody(w, msg)
	header := encodeHeader(msg.outTag(), seqID)
	return append(header, w.buf...)
}

func encodeOutBody(w *writer, msg OutMessage) {
	switch m := msg.(type) {
	case PingAck:
		w.fixed(m.ClientUUID[:])

	case Ok:
		w.u8(m.RequestTag)

	case Error:
		w.str(m.Message)

	case ResponseTimestamp:
		w.timestamp(m.Timestamp)

	case ResponseSessionInfo:
		w.str(m.Zid)
		w.u32(uint32(len(m.RoutersZid)))
		for _, z := range m.RoutersZid {
			w.str(z)
		}
		w.u32(uint32(len(m.PeersZid)))
		for _, z := range m.PeersZid {
			w.str(z)
		}

	case Sample:
		w.u32(m.SubscriberID)
		w.str(m.KeyExpr)
		w.bytes(m.Payload)
		w.u8(uint8(m.Kind))
		w.encoding(m.Encoding)
		w.optBytes(m.Attachment, m.HasAttach)
		w.optTimestamp(m.Timestamp)
		w.qos(m.Qos)

	case Query:
		w.u32(m.QueryableID)
		w.u32(m.QueryID)
		w.str(m.KeyExpr)
		w.str(m.Parameters)
		w.boolean(m.HasEncoding)
		if m.HasEncoding {
			w.encoding(m.Encoding)
		}
		w.optBytes(m.Payload, m.HasPayload)
		w.optBytes(m.Attachment, m.HasAttach)
		w.qos(m.Qos)

	case Reply:
		w.u32(m.QueryID)
		w.boolean(m.Ok)
		if m.Ok {
			w.str(m.Sample.KeyExpr)
			w.bytes(m.Sample.Payload)
			w.u8(uint8(m.Sample.Kind))
			w.encoding(m.Sample.Encoding)
			w.optBytes(m.Sample.Attachment, m.Sample.HasAttach)
			w.optTimestamp(m.Sample.Timestamp)
			w.qos(m.Sample.Qos)
		} else {
			w.encoding(m.Encoding)
			w.bytes(m.Payload)
		}

	case QueryResponseFinal:
		w.u32(m.QueryID)

	case MatchingStatus:
		w.u32(m.EntityID)
		w.boolean(m.Matching)

	case MatchingStatusUpdate:
		w.u32(m.ListenerID)
		w.boolean(m.Matching)

	default:
		panic(errors.Errorf("wire: unknown outbound message type %T", msg))
	}
}
