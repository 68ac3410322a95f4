// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

// MessageHelloRequest is an empty message sent by a server to prompt a
// client to begin renegotiation. This module does not implement
// renegotiation; HelloRequest is parsed only so an unexpected instance does
// not crash the fragment reassembler.
type MessageHelloRequest struct{}

func (m MessageHelloRequest) Type() Type { return TypeHelloRequest }

func (m *MessageHelloRequest) Marshal() ([]byte, error) { return []byte{}, nil }

func (m *MessageHelloRequest) Unmarshal(data []byte) error { return nil }
