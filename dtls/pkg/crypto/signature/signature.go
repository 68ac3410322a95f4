// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package signature provides the signature algorithm IDs used in TLS 1.2
// signature/hash pairs. https://tools.ietf.org/html/rfc5246#section-7.4.1.4.1
package signature

// Algorithm is the IANA registered signature algorithm identifier.
type Algorithm uint16

// Algorithm values registered for use in SignatureAndHashAlgorithm.
const (
	RSA     Algorithm = 1
	ECDSA   Algorithm = 3
	Ed25519 Algorithm = 7
)

// Algorithms returns the set of signature algorithms this module can produce
// and verify.
func Algorithms() map[Algorithm]struct{} {
	return map[Algorithm]struct{}{
		ECDSA:   {},
		Ed25519: {},
	}
}
