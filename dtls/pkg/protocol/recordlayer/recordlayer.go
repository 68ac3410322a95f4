// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package recordlayer implements the DTLS record layer
// https://tools.ietf.org/html/rfc6347#section-4.1
package recordlayer

import (
	"encoding/binary"

	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol"
)

// HeaderSize is the length in bytes of a DTLS record header.
const HeaderSize = 13

// MaxSequenceNumber is the largest value a 48-bit record sequence number can
// hold. Allocating the next one is a fatal, unrecoverable condition for the
// connection (spec.md SequenceNumberOverflow).
const MaxSequenceNumber = (uint64(1) << 48) - 1

// Header is the fixed 13-byte record header.
//
//	content_type (1) | version (2) | epoch (2) | sequence (6) | length (2)
type Header struct {
	ContentType    protocol.ContentType
	Version        protocol.Version
	Epoch          uint16
	SequenceNumber uint64 // 48 bits used
	ContentLen     uint16
}

// Marshal encodes the header to its 13-byte wire form.
func (h *Header) Marshal() ([]byte, error) {
	if h.SequenceNumber > MaxSequenceNumber {
		return nil, errSequenceNumberOverflow
	}

	out := make([]byte, HeaderSize)
	out[0] = byte(h.ContentType)
	out[1] = h.Version.Major
	out[2] = h.Version.Minor
	binary.BigEndian.PutUint16(out[3:], h.Epoch)

	seq := make([]byte, 8)
	binary.BigEndian.PutUint64(seq, h.SequenceNumber)
	copy(out[5:11], seq[2:])

	binary.BigEndian.PutUint16(out[11:], h.ContentLen)

	return out, nil
}

// Unmarshal decodes a 13-byte record header. Per RFC 6347 §4.1.2.7, a record
// whose header cannot be parsed is not an error the caller should propagate;
// ErrInvalidPacketLength signals the caller to discard the datagram silently.
func (h *Header) Unmarshal(data []byte) error {
	if len(data) < HeaderSize {
		return ErrInvalidPacketLength
	}

	h.ContentType = protocol.ContentType(data[0])
	h.Version.Major = data[1]
	h.Version.Minor = data[2]
	h.Epoch = binary.BigEndian.Uint16(data[3:])

	seq := make([]byte, 8)
	copy(seq[2:], data[5:11])
	h.SequenceNumber = binary.BigEndian.Uint64(seq)

	h.ContentLen = binary.BigEndian.Uint16(data[11:])

	return nil
}

// Size returns the encoded size of the header, satisfying the shape the
// cipher suites index into (pkt.Header.Size()).
func (h *Header) Size() int {
	return HeaderSize
}

// Content is anything that can appear as a record payload: a Handshake
// message, an Alert, ChangeCipherSpec, or raw ApplicationData.
type Content interface {
	ContentType() protocol.ContentType
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// RecordLayer pairs a header with its decoded content.
type RecordLayer struct {
	Header  Header
	Content Content
}

// Marshal encodes the full record (header + content).
func (r *RecordLayer) Marshal() ([]byte, error) {
	contentRaw, err := r.Content.Marshal()
	if err != nil {
		return nil, err
	}

	r.Header.ContentType = r.Content.ContentType()
	r.Header.ContentLen = uint16(len(contentRaw))

	headerRaw, err := r.Header.Marshal()
	if err != nil {
		return nil, err
	}

	return append(headerRaw, contentRaw...), nil
}

// UnpackDatagram splits a datagram that may contain multiple concatenated
// records into their individual raw byte slices, per spec.md §4.1. Any
// record whose declared length runs past the end of the buffer, or whose
// header fails to parse, truncates the split at that point; the caller
// silently discards only the unparsable tail.
func UnpackDatagram(buf []byte) [][]byte {
	out := [][]byte{}

	for len(buf) >= HeaderSize {
		var h Header
		if err := h.Unmarshal(buf); err != nil {
			return out
		}

		pktLen := HeaderSize + int(h.ContentLen)
		if pktLen > len(buf) {
			return out
		}

		out = append(out, buf[:pktLen])
		buf = buf[pktLen:]
	}

	return out
}
