// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/x509"

	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/elliptic"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/hash"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/signature"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/signaturehash"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/alert"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/extension"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/handshake"
)

// parseServerFlight is shared by flight1Parse and flight3Parse: flightVal 4
// names only the server's generator, never a state the client's own FSM
// occupies, so both client entry points detect the server's complete
// ServerHello..ServerHelloDone run here and jump straight to flight5.
func parseServerFlight(h *handshaker) (flightVal, *alert.Alert, error) {
	state, cfg, cache := h.state, h.cfg, h.cache

	seq, msgs, ok := cache.fullPullMap(state.handshakeRecvSequence, state.cipherSuite,
		handshakeCachePullRule{handshake.TypeServerHello, cfg.initialEpoch, false, false},
		handshakeCachePullRule{handshake.TypeCertificate, cfg.initialEpoch, false, true},
		handshakeCachePullRule{handshake.TypeServerKeyExchange, cfg.initialEpoch, false, true},
		handshakeCachePullRule{handshake.TypeCertificateRequest, cfg.initialEpoch, false, true},
		handshakeCachePullRule{handshake.TypeServerHelloDone, cfg.initialEpoch, false, false},
	)
	if !ok {
		return 0, nil, nil
	}
	state.handshakeRecvSequence = seq

	serverHello, ok := msgs[handshake.TypeServerHello].(*handshake.MessageServerHello)
	if !ok {
		return 0, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, nil
	}
	if serverHello.CipherSuiteID == nil {
		return 0, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errCipherSuiteNoIntersection
	}

	cipherSuite := cipherSuiteForID(CipherSuiteID(*serverHello.CipherSuiteID), cfg.customCipherSuites)
	if cipherSuite == nil {
		return 0, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errInvalidCipherSuite
	}
	state.cipherSuite = cipherSuite
	state.remoteRandom = serverHello.Random
	state.sessionID = serverHello.SessionID

	for _, val := range serverHello.Extensions {
		switch ext := val.(type) {
		case *extension.UseExtendedMasterSecret:
			if cfg.extendedMasterSecret != DisableExtendedMasterSecret {
				state.extendedMasterSecret = true
			}
		case *extension.UseSRTP:
			if len(ext.ProtectionProfiles) == 1 {
				state.srtpProtectionProfile = ext.ProtectionProfiles[0]
			}
		case *extension.ALPN:
			if len(ext.ProtocolNameList) == 1 {
				state.NegotiatedProtocol = ext.ProtocolNameList[0]
			}
		}
	}

	if cfg.extendedMasterSecret == RequireExtendedMasterSecret && !state.extendedMasterSecret {
		return 0, &alert.Alert{Level: alert.Fatal, Description: alert.InsufficientSecurity}, errClientRequiredButNoServerEMS
	}

	if cert, ok := msgs[handshake.TypeCertificate].(*handshake.MessageCertificate); ok && len(cert.Certificate) > 0 {
		parsed, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return 0, &alert.Alert{Level: alert.Fatal, Description: alert.BadCertificate}, err
		}
		state.remoteCertificate = parsed

		if !cfg.insecureSkipVerify {
			if err := verifyServerCertificate(cfg, state, parsed); err != nil {
				return 0, &alert.Alert{Level: alert.Fatal, Description: alert.BadCertificate}, err
			}
		}
	}

	if ske, ok := msgs[handshake.TypeServerKeyExchange].(*handshake.MessageServerKeyExchange); ok {
		if ske.IdentityHint != nil {
			state.identityHint = ske.IdentityHint
		} else {
			state.namedCurve = uint16(ske.EllipticCurveType)

			if len(ske.Signature) > 0 && state.remoteCertificate != nil {
				clientRandom := state.localRandom.MarshalFixed()
				serverRandom := state.remoteRandom.MarshalFixed()
				msg := valueKeyMessage(clientRandom[:], serverRandom[:], ske.PublicKey, state.namedCurve)

				hashAlg, err := hashAlgorithmFor(state.remoteCertificate.PublicKey)
				if err != nil {
					return 0, &alert.Alert{Level: alert.Fatal, Description: alert.InsufficientSecurity}, err
				}
				if err := verifyKeySignature(msg, ske.Signature, hashAlg, state.remoteCertificate.PublicKey); err != nil {
					return 0, &alert.Alert{Level: alert.Fatal, Description: alert.DecryptError}, err
				}
			}

			if state.localKeypair == nil {
				keypair, err := elliptic.GenerateKeypair(elliptic.Curve(state.namedCurve))
				if err != nil {
					return 0, &alert.Alert{Level: alert.Fatal, Description: alert.IllegalParameter}, err
				}
				state.localKeypair = keypair
			}
			state.remoteKeyExchangePublic = ske.PublicKey
		}
	}

	if req, ok := msgs[handshake.TypeCertificateRequest].(*handshake.MessageCertificateRequest); ok {
		state.remoteRequestedCertificate = true
		state.remoteCertRequestAlgs = req.SignatureHashAlgorithms
	}

	return flight5, nil, nil
}

// hashAlgorithmFor picks the hash paired with the signature algorithm the
// peer's public key uses. The wire format here carries no explicit
// SignatureAndHashAlgorithm for ServerKeyExchange, so the pairing is
// inferred from the key type the way signaturehash.SelectSignatureScheme
// does for the signing side.
func hashAlgorithmFor(publicKey any) (hash.Algorithm, error) {
	switch publicKey.(type) {
	case *ecdsa.PublicKey:
		for _, a := range signaturehash.Algorithms() {
			if a.Signature == signature.ECDSA {
				return a.Hash, nil
			}
		}
	case ed25519.PublicKey:
		return hash.Ed25519, nil
	}

	return 0, errInvalidSignatureAlgorithm
}

func verifyServerCertificate(cfg *handshakeConfig, state *State, cert *x509.Certificate) error {
	if cfg.verifyPeerCertificate != nil {
		if err := cfg.verifyPeerCertificate([][]byte{cert.Raw}, nil); err != nil {
			return err
		}
	}

	opts := x509.VerifyOptions{Roots: cfg.rootCAs, DNSName: state.serverName}
	if _, err := cert.Verify(opts); err != nil {
		return err
	}

	if cfg.verifyConnection != nil {
		return cfg.verifyConnection(state)
	}

	return nil
}
