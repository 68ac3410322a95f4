// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/recordlayer"
)

const (
	gcmNonceLength      = 12
	gcmTagLength        = 16
	gcmExplicitNonceLen = 8
)

// GCM implements the AEAD_AES_128_GCM / AEAD_AES_256_GCM record protection
// used by every cipher suite this module offers. https://tools.ietf.org/html/rfc5288
type GCM struct {
	localGCM, remoteGCM         cipher.AEAD
	localWriteIV, remoteWriteIV []byte
}

// NewGCM constructs the local/remote halves of a GCM record-protection
// context from already-derived key material (see pkg/crypto/prf).
func NewGCM(localKey, localWriteIV, remoteKey, remoteWriteIV []byte) (*GCM, error) {
	localBlock, err := aes.NewCipher(localKey)
	if err != nil {
		return nil, err
	}
	localGCM, err := cipher.NewGCM(localBlock)
	if err != nil {
		return nil, err
	}

	remoteBlock, err := aes.NewCipher(remoteKey)
	if err != nil {
		return nil, err
	}
	remoteGCM, err := cipher.NewGCM(remoteBlock)
	if err != nil {
		return nil, err
	}

	return &GCM{
		localGCM:      localGCM,
		remoteGCM:     remoteGCM,
		localWriteIV:  localWriteIV,
		remoteWriteIV: remoteWriteIV,
	}, nil
}

// Encrypt seals a single RecordLayer (the plaintext DTLSCiphertext.fragment),
// using the header's epoch/sequence as part of the additional authenticated
// data.
func (g *GCM) Encrypt(pkt *recordlayer.RecordLayer, raw []byte) ([]byte, error) {
	nonce := make([]byte, gcmNonceLength)
	copy(nonce, g.localWriteIV[:4])
	if _, err := rand.Read(nonce[4:]); err != nil {
		return nil, err
	}

	additionalData := generateAEADAdditionalData(&pkt.Header, len(raw)-recordlayer.HeaderSize)
	encrypted := g.localGCM.Seal(nil, nonce, raw[recordlayer.HeaderSize:], additionalData)

	out := make([]byte, 0, recordlayer.HeaderSize+gcmExplicitNonceLen+len(encrypted))
	out = append(out, raw[:recordlayer.HeaderSize]...)
	out = append(out, nonce[4:]...)
	out = append(out, encrypted...)

	return out, nil
}

// Decrypt opens an incoming DTLSCiphertext record in place.
func (g *GCM) Decrypt(in []byte) ([]byte, error) {
	var header recordlayer.Header
	if err := header.Unmarshal(in); err != nil {
		return nil, err
	}

	switch {
	case header.ContentType == 0:
		return nil, errInvalidContentType
	case len(in) <= recordlayer.HeaderSize+gcmExplicitNonceLen:
		return nil, errNotEnoughRoomForNonce
	}

	nonce := make([]byte, 0, gcmNonceLength)
	nonce = append(nonce, g.remoteWriteIV[:4]...)
	nonce = append(nonce, in[recordlayer.HeaderSize:recordlayer.HeaderSize+gcmExplicitNonceLen]...)

	out := in[recordlayer.HeaderSize+gcmExplicitNonceLen:]
	additionalData := generateAEADAdditionalData(&header, len(out)-gcmTagLength)

	decrypted, err := g.remoteGCM.Open(nil, nonce, out, additionalData)
	if err != nil {
		return nil, errDecryptPacket
	}

	return append(in[:recordlayer.HeaderSize], decrypted...), nil
}
