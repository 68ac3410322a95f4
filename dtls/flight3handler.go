// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/alert"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/handshake"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/recordlayer"
)

// flight3Generate re-sends the ClientHello, now carrying the cookie learned
// from the server's HelloVerifyRequest. Random is NOT repopulated: both
// ClientHello copies must carry the same nonce for the transcript hash used
// later by Finished/extended master secret to be consistent.
func flight3Generate(h *handshaker) ([]*packet, *alert.Alert, error) {
	state, cfg := h.state, h.cfg

	cipherSuites := cfg.localCipherSuites
	if cipherSuites == nil {
		cipherSuites = defaultCipherSuites()
	}

	return []*packet{
		{
			record: &recordlayer.RecordLayer{
				Header: recordlayer.Header{Version: protocol.Version1_2},
				Content: &handshake.Handshake{
					Message: &handshake.MessageClientHello{
						Version:            protocol.Version1_2,
						Random:             state.localRandom,
						Cookie:             state.cookie,
						CipherSuiteIDs:     cipherSuiteIDs(cipherSuites),
						CompressionMethods: []protocol.CompressionMethodID{protocol.CompressionMethodNull},
						Extensions:         clientHelloExtensions(cfg),
					},
				},
			},
		},
	}, nil, nil
}

// flight3Parse waits for the server's complete flight4 (ServerHello through
// ServerHelloDone) and, once it has all arrived, derives the key material
// and moves straight to flight5.
func flight3Parse(h *handshaker) (flightVal, *alert.Alert, error) {
	return parseServerFlight(h)
}
