// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"bytes"
	"crypto"
	"crypto/x509"

	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/clientcertificate"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/elliptic"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/prf"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/signaturehash"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/alert"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/handshake"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/recordlayer"
)

// flight4Generate builds the server's half of the key exchange: ServerHello,
// an optional certificate chain and signed ECDHE parameters, an optional
// CertificateRequest, and ServerHelloDone.
func flight4Generate(h *handshaker) ([]*packet, *alert.Alert, error) {
	state, cfg := h.state, h.cfg

	if err := state.localRandom.Populate(); err != nil {
		return nil, nil, err
	}

	cipherSuiteID := uint16(state.cipherSuite.ID())

	var pkts []*packet
	pkts = append(pkts, &packet{
		record: &recordlayer.RecordLayer{
			Header: recordlayer.Header{Version: protocol.Version1_2},
			Content: &handshake.Handshake{
				Message: &handshake.MessageServerHello{
					Version:           protocol.Version1_2,
					Random:            state.localRandom,
					SessionID:         state.sessionID,
					CipherSuiteID:     &cipherSuiteID,
					CompressionMethod: protocol.CompressionMethodNull,
					Extensions:        serverHelloExtensions(state, cfg),
				},
			},
		},
	})

	var signer crypto.Signer
	if state.cipherSuite.AuthenticationType() == CipherSuiteAuthenticationTypeCertificate {
		cert, err := selectServerCertificate(cfg, state)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, err
		}

		pkts = append(pkts, &packet{
			record: &recordlayer.RecordLayer{
				Header:  recordlayer.Header{Version: protocol.Version1_2},
				Content: &handshake.Handshake{Message: &handshake.MessageCertificate{Certificate: cert.Certificate}},
			},
		})

		var ok bool
		signer, ok = cert.PrivateKey.(crypto.Signer)
		if !ok {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, errInvalidPrivateKey
		}
	}

	if state.cipherSuite.ECC() {
		if state.localKeypair == nil {
			var err error
			state.localKeypair, err = elliptic.GenerateKeypair(defaultNamedCurve)
			if err != nil {
				return nil, &alert.Alert{Level: alert.Fatal, Description: alert.IllegalParameter}, err
			}
			state.namedCurve = uint16(defaultNamedCurve)
		}

		ske := &handshake.MessageServerKeyExchange{
			EllipticCurveType: elliptic.Curve(state.namedCurve),
			PublicKey:         state.localKeypair.PublicKey,
		}

		if signer != nil {
			scheme, err := signaturehash.SelectSignatureScheme(cfg.localSignatureSchemes, signer)
			if err != nil {
				return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InsufficientSecurity}, err
			}

			clientRandom := state.remoteRandom.MarshalFixed()
			serverRandom := state.localRandom.MarshalFixed()
			sig, err := generateKeySignature(clientRandom[:], serverRandom[:], ske.PublicKey, state.namedCurve, signer, scheme.Hash)
			if err != nil {
				return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
			}
			ske.Signature = sig
		}

		pkts = append(pkts, &packet{
			record: &recordlayer.RecordLayer{
				Header:  recordlayer.Header{Version: protocol.Version1_2},
				Content: &handshake.Handshake{Message: ske},
			},
		})
	} else if cfg.localPSKIdentityHint != nil {
		pkts = append(pkts, &packet{
			record: &recordlayer.RecordLayer{
				Header: recordlayer.Header{Version: protocol.Version1_2},
				Content: &handshake.Handshake{
					Message: &handshake.MessageServerKeyExchange{IdentityHint: cfg.localPSKIdentityHint},
				},
			},
		})
	}

	if cfg.clientAuth >= RequestClientCert {
		pkts = append(pkts, &packet{
			record: &recordlayer.RecordLayer{
				Header: recordlayer.Header{Version: protocol.Version1_2},
				Content: &handshake.Handshake{
					Message: &handshake.MessageCertificateRequest{
						CertificateTypes:        []clientcertificate.Type{clientcertificate.ECDSASign},
						SignatureHashAlgorithms: cfg.localSignatureSchemes,
					},
				},
			},
		})
		state.remoteRequestedCertificate = false // only the client sets this true, on receiving a CertificateRequest
	}

	pkts = append(pkts, &packet{
		record: &recordlayer.RecordLayer{
			Header:  recordlayer.Header{Version: protocol.Version1_2},
			Content: &handshake.Handshake{Message: &handshake.MessageServerHelloDone{}},
		},
	})

	return pkts, nil, nil
}

// flight4Parse waits for the client's key exchange and Finished (the
// latter under the new epoch), derives the master secret, and verifies the
// transcript before the server commits to its own Finished in flight6.
func flight4Parse(h *handshaker) (flightVal, *alert.Alert, error) {
	state, cfg, cache := h.state, h.cfg, h.cache

	seq, msgs, ok := cache.fullPullMap(state.handshakeRecvSequence, state.cipherSuite,
		handshakeCachePullRule{handshake.TypeCertificate, cfg.initialEpoch, true, true},
		handshakeCachePullRule{handshake.TypeClientKeyExchange, cfg.initialEpoch, true, false},
		handshakeCachePullRule{handshake.TypeCertificateVerify, cfg.initialEpoch, true, true},
	)
	if !ok {
		return 0, nil, nil
	}
	state.handshakeRecvSequence = seq

	if cert, ok := msgs[handshake.TypeCertificate].(*handshake.MessageCertificate); ok && len(cert.Certificate) > 0 {
		parsed, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return 0, &alert.Alert{Level: alert.Fatal, Description: alert.BadCertificate}, err
		}
		state.remoteCertificate = parsed
	}

	cke, ok := msgs[handshake.TypeClientKeyExchange].(*handshake.MessageClientKeyExchange)
	if !ok {
		return 0, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, nil
	}

	preMasterSecret, err := serverPreMasterSecret(state, cfg, cke)
	if err != nil {
		return 0, &alert.Alert{Level: alert.Fatal, Description: alert.IllegalParameter}, err
	}

	if err := establishMasterSecret(state, cache, preMasterSecret, false, nil); err != nil {
		return 0, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}

	finSeq, finMsgs, ok := cache.fullPullMap(seq, state.cipherSuite,
		handshakeCachePullRule{handshake.TypeFinished, cfg.initialEpoch + 1, true, false},
	)
	if !ok {
		return 0, nil, nil
	}
	state.handshakeRecvSequence = finSeq

	finished, ok := finMsgs[handshake.TypeFinished].(*handshake.MessageFinished)
	if !ok {
		return 0, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, nil
	}

	plainText := cache.pullAndMerge(
		handshakeCachePullRule{handshake.TypeClientHello, cfg.initialEpoch, true, false},
		handshakeCachePullRule{handshake.TypeServerHello, cfg.initialEpoch, false, false},
		handshakeCachePullRule{handshake.TypeCertificate, cfg.initialEpoch, false, true},
		handshakeCachePullRule{handshake.TypeServerKeyExchange, cfg.initialEpoch, false, true},
		handshakeCachePullRule{handshake.TypeCertificateRequest, cfg.initialEpoch, false, true},
		handshakeCachePullRule{handshake.TypeServerHelloDone, cfg.initialEpoch, false, false},
		handshakeCachePullRule{handshake.TypeCertificate, cfg.initialEpoch, true, true},
		handshakeCachePullRule{handshake.TypeClientKeyExchange, cfg.initialEpoch, true, false},
		handshakeCachePullRule{handshake.TypeCertificateVerify, cfg.initialEpoch, true, true},
	)

	expected, err := prf.VerifyData(state.masterSecret, plainText, true, state.cipherSuite.HashFunc())
	if err != nil {
		return 0, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}
	if !bytes.Equal(expected, finished.VerifyData) {
		return 0, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errVerifyDataMismatch
	}

	return flight6, nil, nil
}
