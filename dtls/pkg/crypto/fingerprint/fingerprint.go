// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package fingerprint computes and formats certificate fingerprints, of the
// kind exchanged out of band (e.g. in signaling) to pin the certificate
// expected during the DTLS handshake. https://tools.ietf.org/html/rfc8122
package fingerprint

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"strings"
)

// Fingerprint hashes a certificate's raw DER bytes and formats the digest
// as colon-separated uppercase-hex-free lowercase hex pairs, matching the
// a=fingerprint attribute format used in session descriptions.
func Fingerprint(cert *x509.Certificate, algo crypto.Hash) (string, error) {
	if !algo.Available() {
		return "", errHashUnavailable
	}

	h := algo.New()
	if _, err := h.Write(cert.Raw); err != nil {
		return "", err
	}
	sum := h.Sum(nil)

	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = fmt.Sprintf("%02x", b)
	}

	return strings.Join(parts, ":"), nil
}
