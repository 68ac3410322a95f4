// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import "github.com/tgragnato/p2ptransport/dtls/pkg/crypto/elliptic"

const cookieLength = 20

var defaultNamedCurve = elliptic.X25519

// ClientHelloInfo contains information from a ClientHello message in order
// to guide application logic in the GetCertificate.
type ClientHelloInfo struct {
	// ServerName indicates the name of the server requested by the client
	// in order to support virtual hosting. ServerName is only set if the
	// client is using SNI.
	ServerName string

	// CipherSuites lists the CipherSuites supported by the client (in the
	// client's preference order).
	CipherSuites []CipherSuiteID
}

// CertificateRequestInfo contains information from a server's
// CertificateRequest message, which is used to demand a certificate and
// proof of identity from a client.
type CertificateRequestInfo struct {
	// AcceptableCAs contains zero or more, DER-encoded, X.501
	// Distinguished Names. These are the names of root or intermediate CAs
	// that the server wishes the returned certificate to be signed by. An
	// empty slice indicates that the server has no preference.
	AcceptableCAs [][]byte
}

// findMatchingCipherSuite walks needles in order and returns the haystack
// entry matching the first needle that has one. flight0Parse passes the
// client's offered suites as needles, so the client's preference order
// wins and the server's list only filters.
func findMatchingCipherSuite(needles, haystack []CipherSuite) (CipherSuite, bool) {
	for _, n := range needles {
		for _, h := range haystack {
			if n.ID() == h.ID() {
				return h, true
			}
		}
	}

	return nil, false
}

func findMatchingSRTPProfile(needles, haystack []SRTPProtectionProfile) (SRTPProtectionProfile, bool) {
	for _, n := range needles {
		for _, h := range haystack {
			if n == h {
				return h, true
			}
		}
	}

	return 0, false
}
