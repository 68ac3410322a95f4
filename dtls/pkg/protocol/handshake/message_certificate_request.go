// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"encoding/binary"

	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/clientcertificate"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/hash"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/signature"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/signaturehash"
)

// MessageCertificateRequest asks the client for a certificate, constraining
// the acceptable types and signature/hash pairs.
// https://tools.ietf.org/html/rfc5246#section-7.4.4
type MessageCertificateRequest struct {
	CertificateTypes        []clientcertificate.Type
	SignatureHashAlgorithms []signaturehash.Algorithm
}

func (m MessageCertificateRequest) Type() Type { return TypeCertificateRequest }

func (m *MessageCertificateRequest) Marshal() ([]byte, error) {
	out := []byte{byte(len(m.CertificateTypes))}
	for _, t := range m.CertificateTypes {
		out = append(out, byte(t))
	}

	sigs := make([]byte, 2, 2+2*len(m.SignatureHashAlgorithms))
	binary.BigEndian.PutUint16(sigs, uint16(2*len(m.SignatureHashAlgorithms)))
	for _, a := range m.SignatureHashAlgorithms {
		sigs = append(sigs, byte(a.Hash), byte(a.Signature))
	}
	out = append(out, sigs...)

	// distinguished_names: this module never advertises a CA restriction
	out = append(out, 0, 0)

	return out, nil
}

func (m *MessageCertificateRequest) Unmarshal(data []byte) error {
	n, err := readVector8(data, 0)
	if err != nil {
		return err
	}
	m.CertificateTypes = nil
	for _, b := range n.bytes {
		m.CertificateTypes = append(m.CertificateTypes, clientcertificate.Type(b))
	}

	offset := n.next
	if len(data) < offset+2 {
		return errBufferTooSmall
	}
	declared := int(binary.BigEndian.Uint16(data[offset:]))
	offset += 2
	if len(data) < offset+declared {
		return errLengthMismatch
	}

	m.SignatureHashAlgorithms = nil
	for i := 0; i+1 < declared; i += 2 {
		h := hash.Algorithm(data[offset+i])
		sig := signature.Algorithm(data[offset+i+1])
		m.SignatureHashAlgorithms = append(m.SignatureHashAlgorithms, signaturehash.Algorithm{Hash: h, Signature: sig})
	}

	return nil
}
