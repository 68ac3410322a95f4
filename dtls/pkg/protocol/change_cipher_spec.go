// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package protocol

import "errors"

var errInvalidCipherSpec = errors.New("invalid change cipher spec value")

// ChangeCipherSpec is the single-byte message marking the boundary between a
// plaintext epoch and the next: everything after it on the same epoch uses
// the just-negotiated cipher suite. https://tools.ietf.org/html/rfc5246#section-7.1
type ChangeCipherSpec struct{}

// ContentType implements recordlayer.Content.
func (c *ChangeCipherSpec) ContentType() ContentType {
	return ContentTypeChangeCipherSpec
}

// Marshal encodes the fixed one-byte body.
func (c *ChangeCipherSpec) Marshal() ([]byte, error) {
	return []byte{0x01}, nil
}

// Unmarshal decodes the fixed one-byte body.
func (c *ChangeCipherSpec) Unmarshal(data []byte) error {
	if len(data) < 1 || data[0] != 0x01 {
		return errInvalidCipherSpec
	}

	return nil
}
