// Package wire implements the bit-packed binary codec carried over the
// bridge's WebSocket frames: header (tag + optional sequence id) followed by
// a length-free body of typed primitives. Ordinals are fixed by declaration
// order — see the In/Out message lists below — appending a variant is
// backward compatible, reordering or inserting one is not.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/pingcap/errors"
)

// ackBit marks bit 7 of the tag byte: a 4-byte little-endian seq_id follows.
const ackBit = 0x80

// Header is the parsed tag/seq_id pair. It is returned even on a body-level
// decode failure so the caller can still correlate an Error response.
type Header struct {
	Tag         uint8
	AckRequest  bool
	SeqID       uint32
}

// HeaderError is returned when the header itself cannot be parsed: an
// unknown tag ordinal or a truncated buffer before the tag/seq_id are read.
// It carries no Header — a header-level failure has no request context to
// attach a response to.
type HeaderError struct {
	Err error
}

func (e *HeaderError) Error() string { return "wire: header error: " + e.Err.Error() }
func (e *HeaderError) Unwrap() error { return e.Err }

// BodyError is returned when the header decoded fine but the body could not
// be parsed. The header is retained so the supervisor can emit an Error
// frame carrying the correct sequence id.
type BodyError struct {
	Header Header
	Err    error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("wire: body error (tag=%d seq=%d): %s", e.Header.Tag, e.Header.SeqID, e.Err.Error())
}
func (e *BodyError) Unwrap() error { return e.Err }

// ErrUnknownTag is wrapped into a HeaderError when the low 7 bits of the tag
// byte do not name a known inbound variant.
var ErrUnknownTag = errors.New("unknown message tag")

// ErrTruncated is wrapped into a HeaderError/BodyError when fewer bytes are
// present than the format requires.
var ErrTruncated = errors.New("truncated frame")

// decodeHeader reads the tag and optional seq_id from the front of buf,
// returning the header and the remaining body bytes.
func decodeHeader(buf []byte) (Header, []byte, error) {
	if len(buf) < 1 {
		return Header{}, nil, &HeaderError{Err: ErrTruncated}
	}
	raw := buf[0]
	h := Header{Tag: raw &^ ackBit, AckRequest: raw&ackBit != 0}
	rest := buf[1:]
	if h.AckRequest {
		if len(rest) < 4 {
			return Header{}, nil, &HeaderError{Err: ErrTruncated}
		}
		h.SeqID = binary.LittleEndian.Uint32(rest[:4])
		rest = rest[4:]
	}
	return h, rest, nil
}

// encodeHeader writes tag (with ack bit set iff seqID is non-nil) and the
// optional seq_id to the front of a new buffer.
func encodeHeader(tag uint8, seqID *uint32) []byte {
	if seqID == nil {
		return []byte{tag}
	}
	buf := make([]byte, 5)
	buf[0] = tag | ackBit
	binary.LittleEndian.PutUint32(buf[1:], *seqID)
	return buf
}
