// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package prf

import "hash"

// dtlsSRTPLabel is the exporter label registered for DTLS-SRTP key export.
// https://tools.ietf.org/html/rfc5764#section-4.2
const dtlsSRTPLabel = "EXTRACTOR-dtls_srtp"

// invalidKeyingLabels are exporter labels that, per RFC 5705 §4, must never
// be handed to an exporter because they collide with values the handshake
// itself authenticates.
var invalidKeyingLabels = map[string]struct{}{
	clientFinishedLabel: {},
	serverFinishedLabel: {},
	masterSecretLabel:   {},
	"key expansion":      {},
}

// ExportKeyingMaterial implements the RFC 5705 exporter_output interface
// DTLS-SRTP (RFC 5764) keys off of, fenced against the reserved labels.
func ExportKeyingMaterial(
	label string,
	masterSecret, clientRandom, serverRandom []byte,
	length int,
	h func() hash.Hash,
) ([]byte, error) {
	if _, forbidden := invalidKeyingLabels[label]; forbidden {
		return nil, errInvalidKeyingLabel
	}

	seed := append(append([]byte{}, clientRandom...), serverRandom...)

	return PHash(masterSecret, append([]byte(label), seed...), length, h)
}

// SRTPKeyingMaterial is ExportKeyingMaterial pinned to the DTLS-SRTP label.
func SRTPKeyingMaterial(masterSecret, clientRandom, serverRandom []byte, length int, h func() hash.Hash) ([]byte, error) {
	return ExportKeyingMaterial(dtlsSRTPLabel, masterSecret, clientRandom, serverRandom, length, h)
}
