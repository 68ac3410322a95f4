// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import (
	"encoding/binary"

	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/hash"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/signature"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/signaturehash"
)

// SupportedSignatureAlgorithms advertises the signature/hash pairs a peer is
// willing to use for CertificateVerify and ServerKeyExchange signing.
// https://tools.ietf.org/html/rfc5246#section-7.4.1.4.1
type SupportedSignatureAlgorithms struct {
	SignatureHashAlgorithms []signaturehash.Algorithm
}

func (s SupportedSignatureAlgorithms) TypeValue() TypeValue {
	return SupportedSignatureAlgorithmsTypeValue
}

func (s *SupportedSignatureAlgorithms) Marshal() ([]byte, error) {
	out := make([]byte, 2, 2+2*len(s.SignatureHashAlgorithms))
	binary.BigEndian.PutUint16(out, uint16(2*len(s.SignatureHashAlgorithms)))
	for _, a := range s.SignatureHashAlgorithms {
		out = append(out, byte(a.Hash), byte(a.Signature))
	}

	return out, nil
}

func (s *SupportedSignatureAlgorithms) Unmarshal(data []byte) error {
	if len(data) < 2 {
		return errBufferTooSmall
	}
	declared := int(binary.BigEndian.Uint16(data))
	if len(data) < 2+declared {
		return errLengthMismatch
	}

	s.SignatureHashAlgorithms = nil
	for i := 0; i+1 < declared; i += 2 {
		h := hash.Algorithm(data[2+i])
		sig := signature.Algorithm(data[2+i+1])
		if _, ok := hash.Algorithms()[h]; !ok {
			continue
		}
		if _, ok := signature.Algorithms()[sig]; !ok {
			continue
		}
		s.SignatureHashAlgorithms = append(s.SignatureHashAlgorithms, signaturehash.Algorithm{Hash: h, Signature: sig})
	}

	return nil
}
