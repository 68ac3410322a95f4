// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package clientcertificate provides the ClientCertificateType IDs used in
// CertificateRequest. https://tools.ietf.org/html/rfc5246#section-7.4.4
package clientcertificate

// Type is the IANA registered ClientCertificateType identifier.
type Type byte

// Certificate types this module requests or offers.
const (
	RSASign      Type = 1
	ECDSASign    Type = 64
)

// Types returns the set of certificate types this module understands.
func Types() map[Type]struct{} {
	return map[Type]struct{}{
		RSASign:   {},
		ECDSASign: {},
	}
}
