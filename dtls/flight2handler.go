// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"bytes"

	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/alert"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/handshake"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/recordlayer"
)

// flight2Generate sends the server's HelloVerifyRequest carrying the cookie
// computed in flight0Generate. RFC 6347 §4.2.1 uses this round trip to
// make a peer prove ownership of its claimed source address before the
// server commits any per-connection state.
func flight2Generate(h *handshaker) ([]*packet, *alert.Alert, error) {
	return []*packet{
		{
			record: &recordlayer.RecordLayer{
				Header: recordlayer.Header{Version: protocol.Version1_2},
				Content: &handshake.Handshake{
					Message: &handshake.MessageHelloVerifyRequest{
						Version: protocol.Version1_2,
						Cookie:  h.state.cookie,
					},
				},
			},
		},
	}, nil, nil
}

// flight2Parse waits for the client to resend its ClientHello with the
// cookie attached. Anything else (including a ClientHello with the wrong
// cookie) is treated as not-yet-arrived rather than a fatal error, so a
// spoofed retry can't tear down the handshake.
func flight2Parse(h *handshaker) (flightVal, *alert.Alert, error) {
	_, msgs, ok := h.cache.fullPullMap(h.state.handshakeRecvSequence, h.state.cipherSuite,
		handshakeCachePullRule{handshake.TypeClientHello, h.cfg.initialEpoch, true, false},
	)
	if !ok {
		return 0, nil, nil
	}

	clientHello, ok := msgs[handshake.TypeClientHello].(*handshake.MessageClientHello)
	if !ok {
		return 0, nil, nil
	}

	if !bytes.Equal(clientHello.Cookie, h.state.cookie) {
		return 0, nil, nil
	}

	return flight4, nil, nil
}
