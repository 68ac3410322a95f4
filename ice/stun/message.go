// Package stun implements the wire format and short-term-credential
// authentication of RFC 5389 STUN messages, to the extent the ICE agent
// needs: Binding request/response/indication framing and the USERNAME,
// MESSAGE-INTEGRITY, FINGERPRINT, XOR-MAPPED-ADDRESS, PRIORITY,
// USE-CANDIDATE, ICE-CONTROLLING and ICE-CONTROLLED attributes (RFC 8445).
//
// No STUN codec was available in the retrieval pack to ground this on, so
// it is written directly against the RFCs; see DESIGN.md.
package stun

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // HMAC-SHA1 is the algorithm RFC 5389 mandates, not a collision-resistance use.
	"encoding/binary"
	"hash/crc32"
	"net"
)

const magicCookie uint32 = 0x2112A442

// HeaderLength is the fixed size of a STUN message header.
const HeaderLength = 20

// TransactionIDLength is the size of a STUN transaction ID.
const TransactionIDLength = 12

const fingerprintXOR uint32 = 0x5354554e

// MessageType identifies a STUN message's method and class combined, per
// RFC 5389 §6. Only Binding is used by ICE connectivity checks.
type MessageType uint16

const (
	TypeBindingRequest         MessageType = 0x0001
	TypeBindingIndication      MessageType = 0x0011
	TypeBindingSuccessResponse MessageType = 0x0101
	TypeBindingErrorResponse   MessageType = 0x0111
)

func (t MessageType) String() string {
	switch t {
	case TypeBindingRequest:
		return "Binding Request"
	case TypeBindingIndication:
		return "Binding Indication"
	case TypeBindingSuccessResponse:
		return "Binding Success Response"
	case TypeBindingErrorResponse:
		return "Binding Error Response"
	default:
		return "Unknown"
	}
}

// AttrType is a STUN attribute type, RFC 5389 §18.2 / RFC 8445 §16.1.
type AttrType uint16

const (
	AttrUsername         AttrType = 0x0006
	AttrMessageIntegrity AttrType = 0x0008
	AttrErrorCode        AttrType = 0x0009
	AttrXORMappedAddress AttrType = 0x0020
	AttrPriority         AttrType = 0x0024
	AttrUseCandidate     AttrType = 0x0025
	AttrIceControlled    AttrType = 0x8029
	AttrIceControlling   AttrType = 0x802a
	AttrFingerprint      AttrType = 0x8028
)

type rawAttribute struct {
	typ    AttrType
	value  []byte
	offset int // byte offset of this attribute's TLV within raw, set only by Unmarshal
}

// Message is a single STUN message, either freshly built for sending (via
// New*) or parsed from the wire (via Unmarshal).
type Message struct {
	Type          MessageType
	TransactionID [TransactionIDLength]byte

	attrs []rawAttribute
	raw   []byte // the exact bytes this Message was parsed from; nil if built for sending
}

// NewBindingRequest builds a Binding Request with a fresh random transaction ID.
func NewBindingRequest() *Message {
	return newMessage(TypeBindingRequest)
}

// NewBindingIndication builds a Binding Indication with a fresh transaction ID.
func NewBindingIndication() *Message {
	return newMessage(TypeBindingIndication)
}

// NewBindingSuccessResponse builds a Binding Success Response correlated to
// the given request's transaction ID.
func NewBindingSuccessResponse(transactionID [TransactionIDLength]byte) *Message {
	m := newMessage(TypeBindingSuccessResponse)
	m.TransactionID = transactionID
	return m
}

func newMessage(typ MessageType) *Message {
	m := &Message{Type: typ}
	_, _ = rand.Read(m.TransactionID[:]) // crypto/rand.Read never returns a short read without an error
	return m
}

func (m *Message) IsRequest() bool         { return m.Type == TypeBindingRequest }
func (m *Message) IsIndication() bool      { return m.Type == TypeBindingIndication }
func (m *Message) IsSuccessResponse() bool { return m.Type == TypeBindingSuccessResponse }
func (m *Message) IsErrorResponse() bool   { return m.Type == TypeBindingErrorResponse }

// AddUsername sets the USERNAME attribute.
func (m *Message) AddUsername(username string) {
	m.addAttribute(AttrUsername, []byte(username))
}

// Username returns the USERNAME attribute's value, if present.
func (m *Message) Username() (string, bool) {
	_, v, ok := m.findAttr(AttrUsername)
	return string(v), ok
}

// AddPriority sets the PRIORITY attribute (RFC 8445 §7.1.1).
func (m *Message) AddPriority(priority uint32) {
	v := make([]byte, 4)
	binary.BigEndian.PutUint32(v, priority)
	m.addAttribute(AttrPriority, v)
}

// Priority returns the PRIORITY attribute's value, if present.
func (m *Message) Priority() (uint32, bool) {
	_, v, ok := m.findAttr(AttrPriority)
	if !ok || len(v) != 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(v), true
}

// AddUseCandidate sets the zero-length USE-CANDIDATE attribute.
func (m *Message) AddUseCandidate() {
	m.addAttribute(AttrUseCandidate, nil)
}

// HasUseCandidate reports whether USE-CANDIDATE is present.
func (m *Message) HasUseCandidate() bool {
	_, _, ok := m.findAttr(AttrUseCandidate)
	return ok
}

// AddICEControlling sets the ICE-CONTROLLING attribute with the agent's
// tie-breaker value.
func (m *Message) AddICEControlling(tiebreaker uint64) {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, tiebreaker)
	m.addAttribute(AttrIceControlling, v)
}

// AddICEControlled sets the ICE-CONTROLLED attribute with the agent's
// tie-breaker value.
func (m *Message) AddICEControlled(tiebreaker uint64) {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, tiebreaker)
	m.addAttribute(AttrIceControlled, v)
}

// ICEControlling returns the ICE-CONTROLLING tie-breaker, if present.
func (m *Message) ICEControlling() (uint64, bool) {
	_, v, ok := m.findAttr(AttrIceControlling)
	if !ok || len(v) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(v), true
}

// ICEControlled returns the ICE-CONTROLLED tie-breaker, if present.
func (m *Message) ICEControlled() (uint64, bool) {
	_, v, ok := m.findAttr(AttrIceControlled)
	if !ok || len(v) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(v), true
}

// AddXORMappedAddress sets the XOR-MAPPED-ADDRESS attribute (RFC 5389 §15.2).
func (m *Message) AddXORMappedAddress(addr *net.UDPAddr) {
	m.addAttribute(AttrXORMappedAddress, encodeXORAddress(addr, m.TransactionID))
}

// XORMappedAddress decodes the XOR-MAPPED-ADDRESS attribute, if present.
func (m *Message) XORMappedAddress() (*net.UDPAddr, bool) {
	_, v, ok := m.findAttr(AttrXORMappedAddress)
	if !ok {
		return nil, false
	}
	addr, err := decodeXORAddress(v, m.TransactionID)
	if err != nil {
		return nil, false
	}
	return addr, true
}

func encodeXORAddress(addr *net.UDPAddr, transactionID [TransactionIDLength]byte) []byte {
	cookie := make([]byte, 4)
	binary.BigEndian.PutUint32(cookie, magicCookie)

	port := uint16(addr.Port) ^ uint16(magicCookie>>16)

	if ip4 := addr.IP.To4(); ip4 != nil {
		v := make([]byte, 8)
		v[1] = 0x01
		binary.BigEndian.PutUint16(v[2:4], port)
		for i := 0; i < 4; i++ {
			v[4+i] = ip4[i] ^ cookie[i]
		}
		return v
	}

	ip6 := addr.IP.To16()
	xorKey := make([]byte, 16)
	copy(xorKey, cookie)
	copy(xorKey[4:], transactionID[:])

	v := make([]byte, 20)
	v[1] = 0x02
	binary.BigEndian.PutUint16(v[2:4], port)
	for i := 0; i < 16; i++ {
		v[4+i] = ip6[i] ^ xorKey[i]
	}
	return v
}

func decodeXORAddress(v []byte, transactionID [TransactionIDLength]byte) (*net.UDPAddr, error) {
	if len(v) < 4 {
		return nil, errMalformedAttribute
	}
	family := v[1]
	port := int(binary.BigEndian.Uint16(v[2:4]) ^ uint16(magicCookie>>16))

	switch family {
	case 0x01:
		if len(v) < 8 {
			return nil, errMalformedAttribute
		}
		cookie := make([]byte, 4)
		binary.BigEndian.PutUint32(cookie, magicCookie)
		ip := make(net.IP, 4)
		for i := 0; i < 4; i++ {
			ip[i] = v[4+i] ^ cookie[i]
		}
		return &net.UDPAddr{IP: ip, Port: port}, nil

	case 0x02:
		if len(v) < 20 {
			return nil, errMalformedAttribute
		}
		xorKey := make([]byte, 16)
		binary.BigEndian.PutUint32(xorKey, magicCookie)
		copy(xorKey[4:], transactionID[:])
		ip := make(net.IP, 16)
		for i := 0; i < 16; i++ {
			ip[i] = v[4+i] ^ xorKey[i]
		}
		return &net.UDPAddr{IP: ip, Port: port}, nil

	default:
		return nil, errUnknownAddressFamily
	}
}

func (m *Message) addAttribute(t AttrType, value []byte) {
	m.attrs = append(m.attrs, rawAttribute{typ: t, value: value})
}

func (m *Message) findAttr(t AttrType) (offset int, value []byte, ok bool) {
	for _, a := range m.attrs {
		if a.typ == t {
			return a.offset, a.value, true
		}
	}
	return 0, nil, false
}

func encodeAttribute(t AttrType, value []byte) []byte {
	padded := (len(value) + 3) &^ 3
	out := make([]byte, 4+padded)
	binary.BigEndian.PutUint16(out[0:2], uint16(t))
	binary.BigEndian.PutUint16(out[2:4], uint16(len(value)))
	copy(out[4:], value)
	return out
}

func marshalHeader(typ MessageType, length int, transactionID [TransactionIDLength]byte) []byte {
	h := make([]byte, HeaderLength)
	binary.BigEndian.PutUint16(h[0:2], uint16(typ))
	binary.BigEndian.PutUint16(h[2:4], uint16(length))
	binary.BigEndian.PutUint32(h[4:8], magicCookie)
	copy(h[8:20], transactionID[:])
	return h
}

// Marshal encodes the message to its wire form. If password is non-empty a
// MESSAGE-INTEGRITY attribute is appended, keyed by password, covering
// everything before it; if addFingerprint is set a FINGERPRINT attribute is
// appended last, covering everything (including MESSAGE-INTEGRITY) before it.
// This ordering (RFC 5389 §15.4-15.5) is mandatory: FINGERPRINT must be the
// final attribute, and MESSAGE-INTEGRITY must cover everything preceding it.
func (m *Message) Marshal(password string, addFingerprint bool) ([]byte, error) {
	var body []byte
	for _, a := range m.attrs {
		body = append(body, encodeAttribute(a.typ, a.value)...)
	}

	if password != "" {
		header := marshalHeader(m.Type, len(body)+4+sha1.Size, m.TransactionID)
		mac := hmac.New(sha1.New, []byte(password))
		mac.Write(header)
		mac.Write(body)
		body = append(body, encodeAttribute(AttrMessageIntegrity, mac.Sum(nil))...)
	}

	if addFingerprint {
		header := marshalHeader(m.Type, len(body)+8, m.TransactionID)
		sum := crc32.ChecksumIEEE(append(append([]byte{}, header...), body...)) ^ fingerprintXOR
		fp := make([]byte, 4)
		binary.BigEndian.PutUint32(fp, sum)
		body = append(body, encodeAttribute(AttrFingerprint, fp)...)
	}

	return append(marshalHeader(m.Type, len(body), m.TransactionID), body...), nil
}

// Unmarshal parses a raw STUN message. Per RFC 5389 §7.3, any header or
// attribute that fails to parse (bad magic cookie, truncated attribute,
// length mismatch) is reported as an error; the caller is expected to
// silently discard rather than respond, per this module's DoS-resistance
// policy for malformed wire bytes.
func Unmarshal(raw []byte) (*Message, error) {
	if len(raw) < HeaderLength {
		return nil, errMessageTooShort
	}

	cookie := binary.BigEndian.Uint32(raw[4:8])
	if cookie != magicCookie {
		return nil, errBadMagicCookie
	}

	length := int(binary.BigEndian.Uint16(raw[2:4]))
	end := HeaderLength + length
	if end > len(raw) {
		return nil, errMessageTooShort
	}

	m := &Message{
		Type: MessageType(binary.BigEndian.Uint16(raw[0:2])),
		raw:  raw[:end],
	}
	copy(m.TransactionID[:], raw[8:20])

	offset := HeaderLength
	for offset+4 <= end {
		at := AttrType(binary.BigEndian.Uint16(raw[offset : offset+2]))
		vlen := int(binary.BigEndian.Uint16(raw[offset+2 : offset+4]))
		valStart := offset + 4
		if valStart+vlen > end {
			return nil, errAttributeTooLong
		}

		m.attrs = append(m.attrs, rawAttribute{typ: at, value: raw[valStart : valStart+vlen], offset: offset})

		padded := (vlen + 3) &^ 3
		offset = valStart + padded
	}

	return m, nil
}

// VerifyMessageIntegrity recomputes the MESSAGE-INTEGRITY attribute's
// HMAC-SHA1 over the bytes this message was parsed from and compares it in
// constant time. It returns false (never panics) if the attribute is
// missing, malformed, or the message was built rather than parsed.
func (m *Message) VerifyMessageIntegrity(password string) bool {
	if m.raw == nil {
		return false
	}
	off, value, ok := m.findAttr(AttrMessageIntegrity)
	if !ok || len(value) != sha1.Size {
		return false
	}

	prefix := append([]byte{}, m.raw[:off]...)
	binary.BigEndian.PutUint16(prefix[2:4], uint16(off-HeaderLength+4+sha1.Size))

	mac := hmac.New(sha1.New, []byte(password))
	mac.Write(prefix)

	return hmac.Equal(mac.Sum(nil), value)
}

// VerifyFingerprint recomputes the FINGERPRINT attribute's CRC-32 over the
// bytes this message was parsed from. It returns false if the attribute is
// missing, malformed, or the message was built rather than parsed.
func (m *Message) VerifyFingerprint() bool {
	if m.raw == nil {
		return false
	}
	off, value, ok := m.findAttr(AttrFingerprint)
	if !ok || len(value) != 4 {
		return false
	}

	prefix := append([]byte{}, m.raw[:off]...)
	binary.BigEndian.PutUint16(prefix[2:4], uint16(off-HeaderLength+8))

	sum := crc32.ChecksumIEEE(prefix) ^ fingerprintXOR

	return binary.BigEndian.Uint32(value) == sum
}
