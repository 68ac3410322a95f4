// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"sync/atomic"

	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/ciphersuite"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/clientcertificate"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/prf"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/recordlayer"
)

// TLSPskWithAes128GcmSha256 represents a TLS_PSK_WITH_AES_128_GCM_SHA256
// CipherSuite. Authentication is by shared secret rather than certificate;
// used between peers that have already exchanged a PSK out of band (for
// example, a key derived from the signaling channel).
type TLSPskWithAes128GcmSha256 struct {
	gcm atomic.Value // *cryptoGCM
}

func (c *TLSPskWithAes128GcmSha256) CertificateType() clientcertificate.Type { return 0 }

func (c *TLSPskWithAes128GcmSha256) KeyExchangeAlgorithm() KeyExchangeAlgorithm {
	return KeyExchangeAlgorithmPsk
}

func (c *TLSPskWithAes128GcmSha256) ECC() bool { return false }

func (c *TLSPskWithAes128GcmSha256) ID() ID { return TLS_PSK_WITH_AES_128_GCM_SHA256 }

func (c *TLSPskWithAes128GcmSha256) String() string { return "TLS_PSK_WITH_AES_128_GCM_SHA256" }

func (c *TLSPskWithAes128GcmSha256) HashFunc() func() hash.Hash { return sha256.New }

func (c *TLSPskWithAes128GcmSha256) AuthenticationType() AuthenticationType {
	return AuthenticationTypePreSharedKey
}

func (c *TLSPskWithAes128GcmSha256) init(masterSecret, clientRandom, serverRandom []byte, isClient bool, prfMacLen, prfKeyLen, prfIvLen int, hashFunc func() hash.Hash) error {
	keys, err := prf.GenerateEncryptionKeys(masterSecret, clientRandom, serverRandom, prfMacLen, prfKeyLen, prfIvLen, hashFunc)
	if err != nil {
		return err
	}

	var gcm *ciphersuite.GCM
	if isClient {
		gcm, err = ciphersuite.NewGCM(keys.ClientWriteKey, keys.ClientWriteIV, keys.ServerWriteKey, keys.ServerWriteIV)
	} else {
		gcm, err = ciphersuite.NewGCM(keys.ServerWriteKey, keys.ServerWriteIV, keys.ClientWriteKey, keys.ClientWriteIV)
	}
	c.gcm.Store(gcm)

	return err
}

func (c *TLSPskWithAes128GcmSha256) IsInitialized() bool { return c.gcm.Load() != nil }

func (c *TLSPskWithAes128GcmSha256) Init(masterSecret, clientRandom, serverRandom []byte, isClient bool) error {
	const (
		prfMacLen = 0
		prfKeyLen = 16
		prfIvLen  = 4
	)

	return c.init(masterSecret, clientRandom, serverRandom, isClient, prfMacLen, prfKeyLen, prfIvLen, c.HashFunc())
}

func (c *TLSPskWithAes128GcmSha256) Encrypt(pkt *recordlayer.RecordLayer, raw []byte) ([]byte, error) {
	cipherSuite, ok := c.gcm.Load().(*ciphersuite.GCM)
	if !ok {
		return nil, fmt.Errorf("%w, unable to encrypt", errCipherSuiteNotInit)
	}

	return cipherSuite.Encrypt(pkt, raw)
}

func (c *TLSPskWithAes128GcmSha256) Decrypt(raw []byte) ([]byte, error) {
	cipherSuite, ok := c.gcm.Load().(*ciphersuite.GCM)
	if !ok {
		return nil, fmt.Errorf("%w, unable to decrypt", errCipherSuiteNotInit)
	}

	return cipherSuite.Decrypt(raw)
}
