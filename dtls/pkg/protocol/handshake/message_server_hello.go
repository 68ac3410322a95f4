// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"encoding/binary"

	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/extension"
)

// MessageServerHello is the server's reply to ClientHello, committing to a
// single cipher suite and compression method. https://tools.ietf.org/html/rfc5246#section-7.4.1.3
type MessageServerHello struct {
	Version protocol.Version
	Random  Random

	SessionID []byte

	CipherSuiteID     *uint16
	CompressionMethod protocol.CompressionMethodID
	Extensions        []extension.Extension
}

func (m MessageServerHello) Type() Type { return TypeServerHello }

func (m *MessageServerHello) Marshal() ([]byte, error) {
	if m.CipherSuiteID == nil {
		return nil, errCipherSuiteUnset
	}

	out := make([]byte, 2+RandomBytesLength)
	out[0] = m.Version.Major
	out[1] = m.Version.Minor
	rnd := m.Random.MarshalFixed()
	copy(out[2:], rnd[:])

	out = append(out, byte(len(m.SessionID)))
	out = append(out, m.SessionID...)

	cipherSuite := make([]byte, 2)
	binary.BigEndian.PutUint16(cipherSuite, *m.CipherSuiteID)
	out = append(out, cipherSuite...)

	out = append(out, byte(m.CompressionMethod))

	extensions, err := extension.Marshal(m.Extensions)
	if err != nil {
		return nil, err
	}

	return append(out, extensions...), nil
}

func (m *MessageServerHello) Unmarshal(data []byte) error {
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

	if len(data) < offset+2 {
		return errBufferTooSmall
	}
	cipherSuiteID := binary.BigEndian.Uint16(data[offset:])
	m.CipherSuiteID = &cipherSuiteID
	offset += 2

	if len(data) <= offset {
		return errBufferTooSmall
	}
	m.CompressionMethod = protocol.CompressionMethodID(data[offset])
	offset++

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
