// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package prf implements the TLS 1.2 pseudo-random function and the key
// material it derives: the master secret, the Finished verify_data, the
// record-layer encryption keys, and the DTLS-SRTP exporter.
// https://tools.ietf.org/html/rfc5246#section-5
package prf

import (
	"crypto/hmac"
	"hash"
)

const (
	masterSecretLength  = 48
	clientFinishedLabel = "client finished"
	serverFinishedLabel = "server finished"
	masterSecretLabel   = "master secret"
	extendedMasterSecretLabel = "extended master secret"
	keyExpansionLabel   = "key expansion"
	verifyDataLength    = 12
)

// EncryptionKeys holds the six values derived from the master secret for a
// single GCM cipher suite instance (explicit IVs, no bulk MAC key).
// https://tools.ietf.org/html/rfc5246#section-6.3
type EncryptionKeys struct {
	MasterSecret   []byte
	ClientMACKey   []byte
	ServerMACKey   []byte
	ClientWriteKey []byte
	ServerWriteKey []byte
	ClientWriteIV  []byte
	ServerWriteIV  []byte
}

// PHash is the data expansion function P_hash defined in RFC 5246 §5,
// iterated with HMAC(secret, A(i) || seed) until at least the requested
// number of bytes is produced.
func PHash(secret, seed []byte, requestedLength int, h func() hash.Hash) ([]byte, error) {
	hmacHash := hmac.New(h, secret)

	if _, err := hmacHash.Write(seed); err != nil {
		return nil, err
	}
	a := hmacHash.Sum(nil)

	out := []byte{}
	for len(out) < requestedLength {
		hmacHash.Reset()
		if _, err := hmacHash.Write(a); err != nil {
			return nil, err
		}
		if _, err := hmacHash.Write(seed); err != nil {
			return nil, err
		}
		b := hmacHash.Sum(nil)
		out = append(out, b...)

		hmacHash.Reset()
		if _, err := hmacHash.Write(a); err != nil {
			return nil, err
		}
		a = hmacHash.Sum(nil)
	}

	return out[:requestedLength], nil
}

// MasterSecret derives the 48-byte master secret from the pre-master secret
// and the client/server randoms. https://tools.ietf.org/html/rfc5246#section-8.1
func MasterSecret(preMasterSecret, clientRandom, serverRandom []byte, h func() hash.Hash) ([]byte, error) {
	seed := append(append([]byte{}, clientRandom...), serverRandom...)

	return PHash(preMasterSecret, append([]byte(masterSecretLabel), seed...), masterSecretLength, h)
}

// ExtendedMasterSecret derives the master secret using the session hash
// rather than raw randoms, binding it to the full transcript of messages
// exchanged so far. https://tools.ietf.org/html/rfc7627
func ExtendedMasterSecret(preMasterSecret, sessionHash []byte, h func() hash.Hash) ([]byte, error) {
	return PHash(preMasterSecret, append([]byte(extendedMasterSecretLabel), sessionHash...), masterSecretLength, h)
}

// GenerateEncryptionKeys expands a master secret into the per-direction
// GCM key/IV material an AEAD cipher suite needs to initialize.
func GenerateEncryptionKeys(
	masterSecret, clientRandom, serverRandom []byte,
	macLen, keyLen, ivLen int,
	h func() hash.Hash,
) (*EncryptionKeys, error) {
	seed := append(append([]byte{}, serverRandom...), clientRandom...)
	material, err := PHash(masterSecret, append([]byte(keyExpansionLabel), seed...), (2*macLen)+(2*keyLen)+(2*ivLen), h)
	if err != nil {
		return nil, err
	}

	offset := 0
	next := func(n int) []byte {
		v := material[offset : offset+n]
		offset += n
		return v
	}

	clientMACKey := next(macLen)
	serverMACKey := next(macLen)
	clientWriteKey := next(keyLen)
	serverWriteKey := next(keyLen)
	clientWriteIV := next(ivLen)
	serverWriteIV := next(ivLen)

	return &EncryptionKeys{
		MasterSecret:   masterSecret,
		ClientMACKey:   clientMACKey,
		ServerMACKey:   serverMACKey,
		ClientWriteKey: clientWriteKey,
		ServerWriteKey: serverWriteKey,
		ClientWriteIV:  clientWriteIV,
		ServerWriteIV:  serverWriteIV,
	}, nil
}

// VerifyData computes the Finished message's verify_data over the running
// handshake transcript hash. https://tools.ietf.org/html/rfc5246#section-7.4.9
func VerifyData(masterSecret, handshakeBodies []byte, isClient bool, h func() hash.Hash) ([]byte, error) {
	label := serverFinishedLabel
	if isClient {
		label = clientFinishedLabel
	}

	hashFunc := h()
	if _, err := hashFunc.Write(handshakeBodies); err != nil {
		return nil, err
	}
	transcriptHash := hashFunc.Sum(nil)

	return PHash(masterSecret, append([]byte(label), transcriptHash...), verifyDataLength, h)
}
