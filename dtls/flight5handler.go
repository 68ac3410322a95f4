// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"bytes"
	"crypto"

	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/prf"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/signaturehash"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/alert"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/handshake"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/recordlayer"
)

// flight5Generate builds the client's key exchange, an optional certificate
// and CertificateVerify if the server asked for one, and commits to the new
// epoch with ChangeCipherSpec and Finished. Every message built here still
// needs a message sequence and a place in the transcript before the master
// secret and verify_data can be computed, but the handshaker only records a
// flight in the cache once this function returns — so sequence assignment
// and transcript hashing are done locally against a merged accumulator,
// mirroring what prepare() will do for real once this flight is sent.
func flight5Generate(h *handshaker) ([]*packet, *alert.Alert, error) {
	state, cfg, cache := h.state, h.cfg, h.cache

	var signer crypto.Signer
	var pkts []*packet

	if state.remoteRequestedCertificate {
		cert, err := selectClientCertificate(cfg, &CertificateRequestInfo{})
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, err
		}

		var certRaw [][]byte
		if cert != nil {
			certRaw = cert.Certificate

			var ok bool
			signer, ok = cert.PrivateKey.(crypto.Signer)
			if !ok {
				return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errInvalidPrivateKey
			}
		}

		pkts = append(pkts, &packet{
			record: &recordlayer.RecordLayer{
				Header:  recordlayer.Header{Version: protocol.Version1_2},
				Content: &handshake.Handshake{Message: &handshake.MessageCertificate{Certificate: certRaw}},
			},
		})
	}

	cke := &handshake.MessageClientKeyExchange{}
	if state.cipherSuite.ECC() {
		cke.PublicKey = state.localKeypair.PublicKey
	} else {
		cke.IdentityHint = cfg.localPSKIdentityHint
	}

	pkts = append(pkts, &packet{
		record: &recordlayer.RecordLayer{
			Header:  recordlayer.Header{Version: protocol.Version1_2},
			Content: &handshake.Handshake{Message: cke},
		},
	})

	// Locally assign message sequences and marshal, exactly as prepare()
	// will once this flight is handed back — so the cache isn't consulted
	// for bytes it doesn't have yet.
	merged, err := mergePendingHandshakes(pkts, state.handshakeSendSequence)
	if err != nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}

	preMasterSecret, err := clientPreMasterSecret(state, cfg)
	if err != nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.IllegalParameter}, err
	}

	if err := establishMasterSecret(state, cache, preMasterSecret, true, merged); err != nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}

	if state.remoteRequestedCertificate && signer != nil {
		transcript := append(cache.pullAndMerge(
			handshakeCachePullRule{handshake.TypeClientHello, cfg.initialEpoch, true, false},
			handshakeCachePullRule{handshake.TypeServerHello, cfg.initialEpoch, false, false},
			handshakeCachePullRule{handshake.TypeCertificate, cfg.initialEpoch, false, true},
			handshakeCachePullRule{handshake.TypeServerKeyExchange, cfg.initialEpoch, false, true},
			handshakeCachePullRule{handshake.TypeCertificateRequest, cfg.initialEpoch, false, true},
			handshakeCachePullRule{handshake.TypeServerHelloDone, cfg.initialEpoch, false, false},
		), merged...)

		scheme, err := signaturehash.SelectSignatureScheme(state.remoteCertRequestAlgs, signer)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InsufficientSecurity}, err
		}

		sig, err := generateCertificateVerify(transcript, signer, scheme.Hash)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}

		pkts = append(pkts, &packet{
			record: &recordlayer.RecordLayer{
				Header: recordlayer.Header{Version: protocol.Version1_2},
				Content: &handshake.Handshake{Message: &handshake.MessageCertificateVerify{
					HashAlgorithm:      scheme.Hash,
					SignatureAlgorithm: scheme.Signature,
					Signature:          sig,
				}},
			},
		})

		merged, err = mergePendingHandshakes(pkts, state.handshakeSendSequence)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}
	}

	pkts = append(pkts, &packet{
		record:  &recordlayer.RecordLayer{Header: recordlayer.Header{Version: protocol.Version1_2}, Content: &protocol.ChangeCipherSpec{}},
	})

	plainText := append(cache.pullAndMerge(
		handshakeCachePullRule{handshake.TypeClientHello, cfg.initialEpoch, true, false},
		handshakeCachePullRule{handshake.TypeServerHello, cfg.initialEpoch, false, false},
		handshakeCachePullRule{handshake.TypeCertificate, cfg.initialEpoch, false, true},
		handshakeCachePullRule{handshake.TypeServerKeyExchange, cfg.initialEpoch, false, true},
		handshakeCachePullRule{handshake.TypeCertificateRequest, cfg.initialEpoch, false, true},
		handshakeCachePullRule{handshake.TypeServerHelloDone, cfg.initialEpoch, false, false},
	), merged...)

	verifyData, err := prf.VerifyData(state.masterSecret, plainText, true, state.cipherSuite.HashFunc())
	if err != nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}

	pkts = append(pkts, &packet{
		record: &recordlayer.RecordLayer{
			Header:  recordlayer.Header{Version: protocol.Version1_2, Epoch: 1},
			Content: &handshake.Handshake{Message: &handshake.MessageFinished{VerifyData: verifyData}},
		},
		shouldEncrypt:            true,
		resetLocalSequenceNumber: true,
	})

	return pkts, nil, nil
}

// flight5Parse waits for the server's Finished under the new epoch and
// verifies it closes out the handshake. Returning flight5 itself (rather
// than flight6) is what isLastRecvFlight relies on to recognize the
// handshake is done once the FSM observes the same flight twice.
func flight5Parse(h *handshaker) (flightVal, *alert.Alert, error) {
	state, cfg, cache := h.state, h.cfg, h.cache

	seq, msgs, ok := cache.fullPullMap(state.handshakeRecvSequence, state.cipherSuite,
		handshakeCachePullRule{handshake.TypeFinished, cfg.initialEpoch + 1, false, false},
	)
	if !ok {
		return 0, nil, nil
	}
	state.handshakeRecvSequence = seq

	finished, ok := msgs[handshake.TypeFinished].(*handshake.MessageFinished)
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
		handshakeCachePullRule{handshake.TypeFinished, cfg.initialEpoch + 1, true, false},
	)

	expected, err := prf.VerifyData(state.masterSecret, plainText, false, state.cipherSuite.HashFunc())
	if err != nil {
		return 0, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}
	if !bytes.Equal(expected, finished.VerifyData) {
		return 0, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errVerifyDataMismatch
	}

	return flight5, nil, nil
}

// mergePendingHandshakes marshals the body of handshake packets not yet in
// the cache, assigning message sequence numbers starting at startSeq the
// same way prepare() assigns them for real, so a generator can fold its own
// output into a transcript hash before returning. Only the message body is
// folded in, matching what prepare() will push into the cache once this
// flight is actually sent — the 12-byte fragment header never enters the
// transcript.
func mergePendingHandshakes(pkts []*packet, startSeq int) ([]byte, error) {
	var merged []byte

	seq := startSeq
	for _, p := range pkts {
		hs, ok := p.record.Content.(*handshake.Handshake)
		if !ok {
			continue
		}

		hs.Header.MessageSequence = uint16(seq)
		seq++

		body, err := hs.Message.Marshal()
		if err != nil {
			return nil, err
		}
		merged = append(merged, body...)
	}

	return merged, nil
}

// clientPreMasterSecret computes the pre-master secret for the client's own
// ClientKeyExchange, mirroring serverPreMasterSecret's two paths.
func clientPreMasterSecret(state *State, cfg *handshakeConfig) ([]byte, error) {
	if !state.cipherSuite.ECC() {
		return pskPreMasterSecret(cfg, cfg.localPSKIdentityHint)
	}

	if state.localKeypair == nil {
		return nil, errInvalidCipherSuite
	}

	return state.localKeypair.SharedSecret(state.remoteKeyExchangePublic)
}
