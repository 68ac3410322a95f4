// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/elliptic"
)

const ecCurveType = 3 // named_curve, the only ECParameters.CurveType this module offers

// MessageServerKeyExchange carries the server's ephemeral ECDHE public key
// and, for signed suites, a signature over the exchanged randoms.
// https://tools.ietf.org/html/rfc4492#section-5.4
type MessageServerKeyExchange struct {
	IdentityHint []byte

	EllipticCurveType elliptic.Curve
	PublicKey         []byte
	Signature         []byte
}

func (m MessageServerKeyExchange) Type() Type { return TypeServerKeyExchange }

func (m *MessageServerKeyExchange) Marshal() ([]byte, error) {
	if len(m.IdentityHint) > 0 {
		out := make([]byte, 2, 2+len(m.IdentityHint))
		out[0] = byte(len(m.IdentityHint) >> 8)
		out[1] = byte(len(m.IdentityHint))

		return append(out, m.IdentityHint...), nil
	}

	out := []byte{ecCurveType}
	curve := make([]byte, 2)
	curve[0] = byte(m.EllipticCurveType >> 8)
	curve[1] = byte(m.EllipticCurveType)
	out = append(out, curve...)

	out = append(out, byte(len(m.PublicKey)))
	out = append(out, m.PublicKey...)

	if len(m.Signature) > 0 {
		sigLen := make([]byte, 2)
		sigLen[0] = byte(len(m.Signature) >> 8)
		sigLen[1] = byte(len(m.Signature))
		out = append(out, sigLen...)
		out = append(out, m.Signature...)
	}

	return out, nil
}

func (m *MessageServerKeyExchange) Unmarshal(data []byte) error {
	if len(data) < 1 {
		return errBufferTooSmall
	}

	if data[0] != ecCurveType {
		return errInvalidEllipticCurveType
	}

	if len(data) < 4 {
		return errBufferTooSmall
	}
	m.EllipticCurveType = elliptic.Curve(uint16(data[1])<<8 | uint16(data[2]))

	n, err := readVector8(data, 3)
	if err != nil {
		return err
	}
	m.PublicKey = n.bytes

	if len(data) <= n.next {
		m.Signature = nil
		return nil
	}
	if len(data) < n.next+2 {
		return errBufferTooSmall
	}
	sigLen := int(data[n.next])<<8 | int(data[n.next+1])
	if len(data) < n.next+2+sigLen {
		return errBufferTooSmall
	}
	m.Signature = append([]byte{}, data[n.next+2:n.next+2+sigLen]...)

	return nil
}
