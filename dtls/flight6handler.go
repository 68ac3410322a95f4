// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/prf"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/alert"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/handshake"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/recordlayer"
)

// flight6Generate closes out the server's side with ChangeCipherSpec and its
// own Finished. The transcript behind verify_data here runs all the way
// through the client's Finished, the last message before this one.
func flight6Generate(h *handshaker) ([]*packet, *alert.Alert, error) {
	state, cfg, cache := h.state, h.cfg, h.cache

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

	verifyData, err := prf.VerifyData(state.masterSecret, plainText, false, state.cipherSuite.HashFunc())
	if err != nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}

	return []*packet{
		{
			record: &recordlayer.RecordLayer{
				Header:  recordlayer.Header{Version: protocol.Version1_2},
				Content: &protocol.ChangeCipherSpec{},
			},
		},
		{
			record: &recordlayer.RecordLayer{
				Header:  recordlayer.Header{Version: protocol.Version1_2, Epoch: 1},
				Content: &handshake.Handshake{Message: &handshake.MessageFinished{VerifyData: verifyData}},
			},
			shouldEncrypt:            true,
			resetLocalSequenceNumber: true,
		},
	}, nil, nil
}

// flight6Parse is never reached: send() treats flight6 as the last send
// flight and moves straight to handshakeFinished without waiting.
func flight6Parse(_ *handshaker) (flightVal, *alert.Alert, error) {
	return flight6, nil, nil
}
