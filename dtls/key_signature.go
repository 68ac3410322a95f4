// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"

	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/hash"
)

// valueKeyMessage builds the signed_params input of ServerKeyExchange,
// per RFC 4492 §5.4: the two randoms bind the signature to this handshake,
// the curve/public key bind it to the specific key being exchanged.
func valueKeyMessage(clientRandom, serverRandom, publicKey []byte, namedCurve uint16) []byte {
	serverECDHParams := make([]byte, 4)
	serverECDHParams[0] = ecCurveType
	serverECDHParams[1] = byte(namedCurve >> 8)
	serverECDHParams[2] = byte(namedCurve)
	serverECDHParams[3] = byte(len(publicKey))

	plaintext := append([]byte{}, clientRandom...)
	plaintext = append(plaintext, serverRandom...)
	plaintext = append(plaintext, serverECDHParams...)

	return append(plaintext, publicKey...)
}

const ecCurveType = 3

func generateKeySignature(
	clientRandom, serverRandom, publicKey []byte, namedCurve uint16,
	privateKey crypto.PrivateKey, h hash.Algorithm,
) ([]byte, error) {
	signer, ok := privateKey.(crypto.Signer)
	if !ok {
		return nil, errInvalidPrivateKey
	}

	msg := valueKeyMessage(clientRandom, serverRandom, publicKey, namedCurve)
	cryptoHash, ok := hash.Algorithms()[h]
	if !ok {
		return nil, errInvalidHashAlgorithm
	}

	digest := msg
	if cryptoHash != 0 {
		hasher := cryptoHash.New()
		if _, err := hasher.Write(msg); err != nil {
			return nil, err
		}
		digest = hasher.Sum(nil)
	}

	return signer.Sign(rand.Reader, digest, cryptoHash)
}

func verifyKeySignature(msg, remoteSignature []byte, h hash.Algorithm, publicKey crypto.PublicKey) error {
	cryptoHash, ok := hash.Algorithms()[h]
	if !ok {
		return errInvalidHashAlgorithm
	}

	digest := msg
	if cryptoHash != 0 {
		hasher := cryptoHash.New()
		if _, err := hasher.Write(msg); err != nil {
			return err
		}
		digest = hasher.Sum(nil)
	}

	switch pub := publicKey.(type) {
	case *ecdsa.PublicKey:
		if !ecdsa.VerifyASN1(pub, digest, remoteSignature) {
			return errKeySignatureMismatch
		}

		return nil
	case ed25519.PublicKey:
		if !ed25519.Verify(pub, digest, remoteSignature) {
			return errKeySignatureMismatch
		}

		return nil
	default:
		return errKeySignatureVerifyUnimplemented
	}
}
