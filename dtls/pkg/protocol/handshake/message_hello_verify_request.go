// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import "github.com/tgragnato/p2ptransport/dtls/pkg/protocol"

// MessageHelloVerifyRequest carries the anti-amplification cookie the client
// must echo back in its second ClientHello. https://tools.ietf.org/html/rfc6347#section-4.2.1
type MessageHelloVerifyRequest struct {
	Version protocol.Version
	Cookie  []byte
}

func (m MessageHelloVerifyRequest) Type() Type { return TypeHelloVerifyRequest }

func (m *MessageHelloVerifyRequest) Marshal() ([]byte, error) {
	if len(m.Cookie) > 255 {
		return nil, errCookieTooLong
	}

	out := make([]byte, 2, 3+len(m.Cookie))
	out[0] = m.Version.Major
	out[1] = m.Version.Minor
	out = append(out, byte(len(m.Cookie)))
	out = append(out, m.Cookie...)

	return out, nil
}

func (m *MessageHelloVerifyRequest) Unmarshal(data []byte) error {
	if len(data) < 2 {
		return errBufferTooSmall
	}
	m.Version.Major = data[0]
	m.Version.Minor = data[1]

	n, err := readVector8(data, 2)
	if err != nil {
		return err
	}
	m.Cookie = n.bytes

	return nil
}
