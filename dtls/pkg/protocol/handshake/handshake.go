// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package handshake implements the DTLS Handshake protocol content type and
// message fragmentation https://tools.ietf.org/html/rfc6347#section-4.2.2
package handshake

import (
	"crypto/rand"
	"encoding/binary"
	"time"

	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol"
)

// HeaderLength is the length in bytes of a DTLS handshake message header.
const HeaderLength = 12

// Type is the IANA registered handshake message type.
// https://tools.ietf.org/html/rfc5246#section-7.4
type Type uint8

// Types
const (
	TypeHelloRequest       Type = 0
	TypeClientHello        Type = 1
	TypeServerHello        Type = 2
	TypeHelloVerifyRequest Type = 3
	TypeCertificate        Type = 11
	TypeServerKeyExchange  Type = 12
	TypeCertificateRequest Type = 13
	TypeServerHelloDone    Type = 14
	TypeCertificateVerify  Type = 15
	TypeClientKeyExchange  Type = 16
	TypeFinished           Type = 20
)

func (t Type) String() string {
	switch t {
	case TypeHelloRequest:
		return "HelloRequest"
	case TypeClientHello:
		return "ClientHello"
	case TypeServerHello:
		return "ServerHello"
	case TypeHelloVerifyRequest:
		return "HelloVerifyRequest"
	case TypeCertificate:
		return "Certificate"
	case TypeServerKeyExchange:
		return "ServerKeyExchange"
	case TypeCertificateRequest:
		return "CertificateRequest"
	case TypeServerHelloDone:
		return "ServerHelloDone"
	case TypeCertificateVerify:
		return "CertificateVerify"
	case TypeClientKeyExchange:
		return "ClientKeyExchange"
	case TypeFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Message is any DTLS handshake message body.
type Message interface {
	Type() Type
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// Header is the 12-byte fragment header described in spec.md §3:
// type(1) | length(3) | msg_seq(2) | fragment_offset(3) | fragment_length(3)
type Header struct {
	Type            Type
	Length          uint32 // 24 bits
	MessageSequence uint16
	FragmentOffset  uint32 // 24 bits
	FragmentLength  uint32 // 24 bits
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

func getUint24(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// Marshal encodes the fragment header to its 12-byte wire form.
func (h *Header) Marshal() ([]byte, error) {
	out := make([]byte, HeaderLength)
	out[0] = byte(h.Type)
	putUint24(out[1:4], h.Length)
	binary.BigEndian.PutUint16(out[4:6], h.MessageSequence)
	putUint24(out[6:9], h.FragmentOffset)
	putUint24(out[9:12], h.FragmentLength)

	return out, nil
}

// Unmarshal decodes a 12-byte fragment header.
func (h *Header) Unmarshal(data []byte) error {
	if len(data) < HeaderLength {
		return errBufferTooSmall
	}
	h.Type = Type(data[0])
	h.Length = getUint24(data[0+1 : 0+4])
	h.MessageSequence = binary.BigEndian.Uint16(data[4:6])
	h.FragmentOffset = getUint24(data[6:9])
	h.FragmentLength = getUint24(data[9:12])

	return nil
}

// IsComplete reports whether this single fragment header already carries the
// whole message, per spec.md §3.
func (h *Header) IsComplete() bool {
	return h.FragmentOffset == 0 && h.FragmentLength == h.Length
}

// Handshake pairs a fragment Header with its decoded Message body, and
// implements recordlayer.Content so it can sit directly in a RecordLayer.
type Handshake struct {
	Header  Header
	Message Message
}

// ContentType implements recordlayer.Content.
func (h *Handshake) ContentType() protocol.ContentType {
	return protocol.ContentTypeHandshake
}

// Marshal encodes the full, unfragmented message (header + body). Use
// dtls.fragmentHandshake to split across multiple records.
func (h *Handshake) Marshal() ([]byte, error) {
	if h.Message == nil {
		return nil, errHandshakeMessageUnset
	}

	body, err := h.Message.Marshal()
	if err != nil {
		return nil, err
	}

	h.Header.Type = h.Message.Type()
	h.Header.Length = uint32(len(body))
	h.Header.FragmentOffset = 0
	h.Header.FragmentLength = uint32(len(body))

	headerRaw, err := h.Header.Marshal()
	if err != nil {
		return nil, err
	}

	return append(headerRaw, body...), nil
}

// Unmarshal decodes a single, already-reassembled handshake message: a
// 12-byte header (with FragmentOffset 0 and FragmentLength == Length) plus
// its body.
func (h *Handshake) Unmarshal(data []byte) error {
	if err := h.Header.Unmarshal(data); err != nil {
		return err
	}
	if !h.Header.IsComplete() {
		return errUnableToMarshalFragmented
	}

	body := data[HeaderLength:]
	if uint32(len(body)) < h.Header.Length {
		return errLengthMismatch
	}
	body = body[:h.Header.Length]

	msg, err := newMessage(h.Header.Type)
	if err != nil {
		return err
	}
	if err := msg.Unmarshal(body); err != nil {
		return err
	}
	h.Message = msg

	return nil
}

// DecodeMessage parses a fully reassembled message body of the given type,
// for callers (the handshake cache) that already have type and body split
// apart and don't need the 12-byte fragment header re-parsed.
func DecodeMessage(t Type, body []byte) (Message, error) {
	msg, err := newMessage(t)
	if err != nil {
		return nil, err
	}
	if err := msg.Unmarshal(body); err != nil {
		return nil, err
	}

	return msg, nil
}

func newMessage(t Type) (Message, error) {
	switch t {
	case TypeHelloRequest:
		return &MessageHelloRequest{}, nil
	case TypeClientHello:
		return &MessageClientHello{}, nil
	case TypeServerHello:
		return &MessageServerHello{}, nil
	case TypeHelloVerifyRequest:
		return &MessageHelloVerifyRequest{}, nil
	case TypeCertificate:
		return &MessageCertificate{}, nil
	case TypeServerKeyExchange:
		return &MessageServerKeyExchange{}, nil
	case TypeCertificateRequest:
		return &MessageCertificateRequest{}, nil
	case TypeServerHelloDone:
		return &MessageServerHelloDone{}, nil
	case TypeCertificateVerify:
		return &MessageCertificateVerify{}, nil
	case TypeClientKeyExchange:
		return &MessageClientKeyExchange{}, nil
	case TypeFinished:
		return &MessageFinished{}, nil
	default:
		return nil, errNotImplemented
	}
}

// RandomBytesLength is the length of the random nonce carried in ClientHello
// and ServerHello.
const RandomBytesLength = 32

// Random is the 32-byte value sent in ClientHello/ServerHello: 4 bytes of
// Unix time plus 28 bytes of entropy, per RFC 5246 §7.4.1.2.
type Random struct {
	GMTUnixTime uint32
	RandomBytes [28]byte
}

// MarshalFixed encodes the Random into its fixed 32-byte wire form.
func (r *Random) MarshalFixed() [RandomBytesLength]byte {
	var out [RandomBytesLength]byte
	binary.BigEndian.PutUint32(out[0:4], r.GMTUnixTime)
	copy(out[4:], r.RandomBytes[:])

	return out
}

// UnmarshalFixed decodes a 32-byte wire value into the Random.
func (r *Random) UnmarshalFixed(data [RandomBytesLength]byte) {
	r.GMTUnixTime = binary.BigEndian.Uint32(data[0:4])
	copy(r.RandomBytes[:], data[4:])
}

// Populate fills in a fresh Random: the current Unix time plus
// cryptographically random entropy, per RFC 5246 §7.4.1.2.
func (r *Random) Populate() error {
	r.GMTUnixTime = uint32(time.Now().Unix())

	_, err := rand.Read(r.RandomBytes[:])

	return err
}
