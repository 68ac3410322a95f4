// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"encoding/binary"

	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/extension"
)

// MessageClientHello is the first message sent by the client.
// https://tools.ietf.org/html/rfc5246#section-7.4.1.2
type MessageClientHello struct {
	Version protocol.Version
	Random  Random

	SessionID []byte
	Cookie    []byte

	CipherSuiteIDs     []uint16
	CompressionMethods []protocol.CompressionMethodID
	Extensions         []extension.Extension
}

func (m MessageClientHello) Type() Type { return TypeClientHello }

// Marshal encodes the ClientHello body.
func (m *MessageClientHello) Marshal() ([]byte, error) {
	if len(m.Cookie) > 255 {
		return nil, errCookieTooLong
	}

	out := make([]byte, 2+RandomBytesLength)
	out[0] = m.Version.Major
	out[1] = m.Version.Minor

	rnd := m.Random.MarshalFixed()
	copy(out[2:], rnd[:])

	out = append(out, byte(len(m.SessionID)))
	out = append(out, m.SessionID...)

	out = append(out, byte(len(m.Cookie)))
	out = append(out, m.Cookie...)

	cipherSuites := make([]byte, 2+2*len(m.CipherSuiteIDs))
	binary.BigEndian.PutUint16(cipherSuites, uint16(2*len(m.CipherSuiteIDs)))
	for i, id := range m.CipherSuiteIDs {
		binary.BigEndian.PutUint16(cipherSuites[2+2*i:], id)
	}
	out = append(out, cipherSuites...)

	out = append(out, byte(len(m.CompressionMethods)))
	for _, c := range m.CompressionMethods {
		out = append(out, byte(c))
	}

	extensions, err := extension.Marshal(m.Extensions)
	if err != nil {
		return nil, err
	}

	return append(out, extensions...), nil
}

// Unmarshal decodes a ClientHello body.
func (m *MessageClientHello) Unmarshal(data []byte) error {
	if len(data) < 2+RandomBytesLength {
		return errBufferTooSmall
	}
	m.Version.Major = data[0]
	m.Version.Minor = data[1]

	var rnd [RandomBytesLength]byte
	copy(rnd[:], data[2:])
	m.Random.UnmarshalFixed(rnd)

	offset := 2 + RandomBytesLength
	n, err := readVector8(data, offset)
	if err != nil {
		return err
	}
	m.SessionID = n.bytes
	offset = n.next

	n, err = readVector8(data, offset)
	if err != nil {
		return err
	}
	m.Cookie = n.bytes
	offset = n.next

	if len(data) < offset+2 {
		return errBufferTooSmall
	}
	cipherSuiteBytes := int(binary.BigEndian.Uint16(data[offset:]))
	offset += 2
	if len(data) < offset+cipherSuiteBytes {
		return errBufferTooSmall
	}
	m.CipherSuiteIDs = nil
	for i := 0; i < cipherSuiteBytes; i += 2 {
		m.CipherSuiteIDs = append(m.CipherSuiteIDs, binary.BigEndian.Uint16(data[offset+i:]))
	}
	offset += cipherSuiteBytes

	if len(data) <= offset {
		return errBufferTooSmall
	}
	compressionLen := int(data[offset])
	offset++
	if len(data) < offset+compressionLen {
		return errBufferTooSmall
	}
	m.CompressionMethods = nil
	for i := 0; i < compressionLen; i++ {
		m.CompressionMethods = append(m.CompressionMethods, protocol.CompressionMethodID(data[offset+i]))
	}
	offset += compressionLen

	if len(data) <= offset {
		m.Extensions = nil
		return nil
	}
	exts, err := extension.Unmarshal(data[offset:])
	if err != nil {
		return err
	}
	m.Extensions = exts

	return nil
}

type vector8 struct {
	bytes []byte
	next  int
}

func readVector8(data []byte, offset int) (vector8, error) {
	if len(data) <= offset {
		return vector8{}, errBufferTooSmall
	}
	n := int(data[offset])
	offset++
	if len(data) < offset+n {
		return vector8{}, errBufferTooSmall
	}

	return vector8{bytes: append([]byte{}, data[offset:offset+n]...), next: offset + n}, nil
}
