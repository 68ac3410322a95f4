// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package hash provides the hash algorithm IDs used in TLS 1.2 signature/hash pairs.
// https://tools.ietf.org/html/rfc5246#section-7.4.1.4.1
package hash

import gocrypto "crypto"

// Algorithm is the IANA registered hash algorithm identifier.
type Algorithm uint16

// Algorithm values registered for use in SignatureAndHashAlgorithm.
const (
	None   Algorithm = 0
	MD5    Algorithm = 1
	SHA1   Algorithm = 2
	SHA224 Algorithm = 3
	SHA256 Algorithm = 4
	SHA384 Algorithm = 5
	SHA512 Algorithm = 6
	Ed25519 Algorithm = 8
)

// Algorithms returns the set of hash algorithms this module understands.
func Algorithms() map[Algorithm]gocrypto.Hash {
	return map[Algorithm]gocrypto.Hash{
		MD5:     gocrypto.MD5,
		SHA1:    gocrypto.SHA1,
		SHA224:  gocrypto.SHA224,
		SHA256:  gocrypto.SHA256,
		SHA384:  gocrypto.SHA384,
		SHA512:  gocrypto.SHA512,
		Ed25519: 0, // intrinsic to the signature algorithm, no separate digest
	}
}

// Insecure reports whether this hash must not be offered unless the peer
// explicitly opts in to insecure hashes.
func (a Algorithm) Insecure() bool {
	switch a {
	case MD5, SHA1:
		return true
	default:
		return false
	}
}

// CryptoHash returns the stdlib crypto.Hash equivalent, if any.
func (a Algorithm) CryptoHash() (gocrypto.Hash, bool) {
	h, ok := Algorithms()[a]
	return h, ok
}
