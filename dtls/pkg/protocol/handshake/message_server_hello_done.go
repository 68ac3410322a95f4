// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

// MessageServerHelloDone has an empty body; it marks the end of the
// server's first flight. https://tools.ietf.org/html/rfc5246#section-7.4.5
type MessageServerHelloDone struct{}

func (m MessageServerHelloDone) Type() Type { return TypeServerHelloDone }

func (m *MessageServerHelloDone) Marshal() ([]byte, error) { return []byte{}, nil }

func (m *MessageServerHelloDone) Unmarshal([]byte) error { return nil }
