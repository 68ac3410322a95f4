// Package sctp implements just enough of RFC 9260 to read and write the
// parameter TLVs embedded in SCTP chunks; the surrounding chunk/association
// machinery is out of scope here and lives in the caller's SCTP stack.
package sctp

import (
	"encoding/binary"
	"errors"
)

// headerLength is the fixed size of a parameter's type+length header.
const headerLength = 4

var (
	errParamTooShort    = errors.New("sctp: parameter shorter than its header")
	errParamLengthField = errors.New("sctp: parameter length field smaller than the header")
	errParamTruncated   = errors.New("sctp: parameter value runs past the buffer end")
)

// Param is a single SCTP parameter TLV: a 2-byte type, a 2-byte length
// covering the header and the value (but never the padding), and a value
// padded on the wire to a 4-byte boundary.
type Param struct {
	Type  uint16
	Value []byte
}

// Marshal encodes p to its padded wire form.
func (p Param) Marshal() []byte {
	length := headerLength + len(p.Value)
	padded := (length + 3) &^ 3

	out := make([]byte, padded)
	binary.BigEndian.PutUint16(out[0:2], p.Type)
	binary.BigEndian.PutUint16(out[2:4], uint16(length))
	copy(out[headerLength:], p.Value)
	return out
}

// Unmarshal parses a single parameter from the front of buf, returning the
// parameter and the number of bytes it (including padding) occupied.
func Unmarshal(buf []byte) (Param, int, error) {
	if len(buf) < headerLength {
		return Param{}, 0, errParamTooShort
	}

	typ := binary.BigEndian.Uint16(buf[0:2])
	length := int(binary.BigEndian.Uint16(buf[2:4]))
	if length < headerLength {
		return Param{}, 0, errParamLengthField
	}
	if length > len(buf) {
		return Param{}, 0, errParamTruncated
	}

	value := make([]byte, length-headerLength)
	copy(value, buf[headerLength:length])

	padded := (length + 3) &^ 3
	if padded > len(buf) {
		padded = len(buf) // trailing padding was truncated; consume what remains
	}

	return Param{Type: typ, Value: value}, padded, nil
}

// UnmarshalAll parses a sequence of back-to-back padded parameters filling
// buf exactly.
func UnmarshalAll(buf []byte) ([]Param, error) {
	var params []Param
	for len(buf) > 0 {
		p, n, err := Unmarshal(buf)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
		buf = buf[n:]
	}
	return params, nil
}
