// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"crypto"
	"crypto/rand"
	"crypto/tls"
	"strings"

	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/hash"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/prf"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/extension"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/handshake"
)

// selectServerCertificate picks the certificate chain to present to the
// client: the GetCertificate callback first, then a SNI match against
// nameToCertificate, falling back to the first configured certificate.
func selectServerCertificate(cfg *handshakeConfig, state *State) (*tls.Certificate, error) {
	if cfg.localGetCertificate != nil {
		cert, err := cfg.localGetCertificate(&ClientHelloInfo{
			ServerName:   state.serverName,
			CipherSuites: []CipherSuiteID{CipherSuiteID(state.cipherSuite.ID())},
		})
		if err != nil {
			return nil, err
		}
		if cert != nil {
			return cert, nil
		}
	}

	if cert, ok := cfg.nameToCertificate[strings.ToLower(state.serverName)]; ok {
		return cert, nil
	}

	if len(cfg.localCertificates) == 0 {
		return nil, errNoCertificates
	}

	return &cfg.localCertificates[0], nil
}

// serverHelloExtensions echoes back only the extensions the client actually
// negotiated; anything the client didn't ask for is left out.
func serverHelloExtensions(state *State, cfg *handshakeConfig) []extension.Extension {
	var exts []extension.Extension

	if state.extendedMasterSecret {
		exts = append(exts, &extension.UseExtendedMasterSecret{})
	}

	if state.srtpProtectionProfile != 0 {
		exts = append(exts, &extension.UseSRTP{
			ProtectionProfiles: []SRTPProtectionProfile{state.srtpProtectionProfile},
		})
	}

	if proto, ok := negotiateALPN(state.peerSupportedProtocols, cfg.supportedProtocols); ok {
		state.NegotiatedProtocol = proto
		exts = append(exts, &extension.ALPN{ProtocolNameList: []string{proto}})
	}

	return exts
}

func negotiateALPN(peer, local []string) (string, bool) {
	for _, want := range peer {
		for _, have := range local {
			if want == have {
				return want, true
			}
		}
	}

	return "", false
}

// establishMasterSecret derives the master secret from the just-agreed
// pre-master secret, honoring the extended master secret extension
// (RFC 7627) when both sides negotiated it, and initializes the cipher
// suite with the result. pendingTranscript carries any just-built messages
// (e.g. the client's own ClientKeyExchange) that belong in the session hash
// but have not yet been recorded in cache — the cache only gains them once
// the handshaker pushes this flight after the generator returns.
func establishMasterSecret(state *State, cache *handshakeCache, preMasterSecret []byte, isClient bool, pendingTranscript []byte) error {
	hashFunc := state.cipherSuite.HashFunc()

	var masterSecret []byte
	var err error
	if state.extendedMasterSecret {
		sessionHash, hashErr := cache.sessionHashWithExtra(hashFunc, state.getLocalEpoch(), pendingTranscript)
		if hashErr != nil {
			return hashErr
		}
		masterSecret, err = prf.ExtendedMasterSecret(preMasterSecret, sessionHash, hashFunc)
	} else {
		localRandom := state.localRandom.MarshalFixed()
		remoteRandom := state.remoteRandom.MarshalFixed()
		clientRandom, serverRandom := localRandom[:], remoteRandom[:]
		if !isClient {
			clientRandom, serverRandom = remoteRandom[:], localRandom[:]
		}
		masterSecret, err = prf.MasterSecret(preMasterSecret, clientRandom, serverRandom, hashFunc)
	}
	if err != nil {
		return err
	}

	state.masterSecret = masterSecret

	localRandom := state.localRandom.MarshalFixed()
	remoteRandom := state.remoteRandom.MarshalFixed()
	clientRandom, serverRandom := localRandom[:], remoteRandom[:]
	if !isClient {
		clientRandom, serverRandom = remoteRandom[:], localRandom[:]
	}

	return state.cipherSuite.Init(masterSecret, clientRandom, serverRandom, isClient)
}

// selectClientCertificate picks the certificate the client presents in
// response to a CertificateRequest: the GetClientCertificate callback first,
// falling back to the first configured certificate. A nil return (both
// unset) means the client sends an empty certificate_list, per RFC 5246
// §7.4.6 when it has nothing acceptable to offer.
func selectClientCertificate(cfg *handshakeConfig, reqInfo *CertificateRequestInfo) (*tls.Certificate, error) {
	if cfg.localGetClientCertificate != nil {
		return cfg.localGetClientCertificate(reqInfo)
	}

	if len(cfg.localCertificates) == 0 {
		return nil, nil
	}

	return &cfg.localCertificates[0], nil
}

// generateCertificateVerify signs the running handshake transcript hash for
// CertificateVerify (RFC 5246 §7.4.8): unlike ServerKeyExchange's
// signed_params, there is no extra framing around the message, just the
// transcript itself under the negotiated hash.
func generateCertificateVerify(transcript []byte, signer crypto.Signer, h hash.Algorithm) ([]byte, error) {
	cryptoHash, ok := hash.Algorithms()[h]
	if !ok {
		return nil, errInvalidHashAlgorithm
	}

	digest := transcript
	if cryptoHash != 0 {
		hasher := cryptoHash.New()
		if _, err := hasher.Write(transcript); err != nil {
			return nil, err
		}
		digest = hasher.Sum(nil)
	}

	return signer.Sign(rand.Reader, digest, cryptoHash)
}

// serverPreMasterSecret recovers the pre-master secret from the client's
// ClientKeyExchange, either via ECDHE against our ephemeral keypair or via
// the configured PSK callback.
func serverPreMasterSecret(state *State, cfg *handshakeConfig, cke *handshake.MessageClientKeyExchange) ([]byte, error) {
	if cke.IdentityHint != nil {
		return pskPreMasterSecret(cfg, cke.IdentityHint)
	}

	if state.localKeypair == nil {
		return nil, errInvalidCipherSuite
	}

	return state.localKeypair.SharedSecret(cke.PublicKey)
}

// pskPreMasterSecret builds the RFC 4279 §2 pre-master secret: two
// length-prefixed fields, the PSK padded with zeros of its own length in
// between, so an eavesdropper who knows one cannot derive the other half.
func pskPreMasterSecret(cfg *handshakeConfig, identityHint []byte) ([]byte, error) {
	if cfg.localPSKCallback == nil {
		return nil, errIdentityNoPSK
	}

	key, err := cfg.localPSKCallback(identityHint)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 4+2*len(key))
	out = append(out, byte(len(key)>>8), byte(len(key)))
	out = append(out, make([]byte, len(key))...)
	out = append(out, byte(len(key)>>8), byte(len(key)))
	out = append(out, key...)

	return out, nil
}
