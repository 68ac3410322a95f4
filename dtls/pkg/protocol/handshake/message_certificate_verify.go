// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/hash"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/signature"
)

// MessageCertificateVerify proves possession of the private key matching
// the certificate sent earlier, signing the running handshake transcript
// hash. https://tools.ietf.org/html/rfc5246#section-7.4.8
type MessageCertificateVerify struct {
	HashAlgorithm      hash.Algorithm
	SignatureAlgorithm signature.Algorithm
	Signature          []byte
}

func (m MessageCertificateVerify) Type() Type { return TypeCertificateVerify }

func (m *MessageCertificateVerify) Marshal() ([]byte, error) {
	if _, ok := hash.Algorithms()[m.HashAlgorithm]; !ok {
		return nil, errInvalidHashAlgorithm
	}
	if _, ok := signature.Algorithms()[m.SignatureAlgorithm]; !ok {
		return nil, errInvalidSignatureAlgorithm
	}

	out := []byte{byte(m.HashAlgorithm), byte(m.SignatureAlgorithm)}
	out = append(out, byte(len(m.Signature)>>8), byte(len(m.Signature)))

	return append(out, m.Signature...), nil
}

func (m *MessageCertificateVerify) Unmarshal(data []byte) error {
	if len(data) < 4 {
		return errBufferTooSmall
	}

	m.HashAlgorithm = hash.Algorithm(data[0])
	if _, ok := hash.Algorithms()[m.HashAlgorithm]; !ok {
		return errInvalidHashAlgorithm
	}

	m.SignatureAlgorithm = signature.Algorithm(data[1])
	if _, ok := signature.Algorithms()[m.SignatureAlgorithm]; !ok {
		return errInvalidSignatureAlgorithm
	}

	sigLen := int(data[2])<<8 | int(data[3])
	if len(data) < 4+sigLen {
		return errBufferTooSmall
	}
	m.Signature = append([]byte{}, data[4:4+sigLen]...)

	return nil
}
