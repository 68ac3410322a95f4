// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package types holds the small shared enums internal/ciphersuite re-exports,
// broken out to avoid an import cycle between the suite implementations and
// the suite registry.
package types

// AuthenticationType controls what authentication method a cipher suite
// uses during the handshake.
type AuthenticationType int

// AuthenticationType values.
const (
	AuthenticationTypeCertificate AuthenticationType = iota
	AuthenticationTypePreSharedKey
	AuthenticationTypeAnonymous
)

// KeyExchangeAlgorithm is a bitmask describing which key exchange a cipher
// suite negotiates.
type KeyExchangeAlgorithm int

// KeyExchangeAlgorithm values.
const (
	KeyExchangeAlgorithmNone KeyExchangeAlgorithm = 1 << iota
	KeyExchangeAlgorithmPsk
	KeyExchangeAlgorithmEcdhe
)
