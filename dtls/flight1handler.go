// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/alert"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/extension"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/handshake"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/recordlayer"
)

// clientHelloExtensions builds the extension set offered in every
// ClientHello this client sends, cookie or not.
func clientHelloExtensions(cfg *handshakeConfig) []extension.Extension {
	curves := cfg.ellipticCurves
	if len(curves) == 0 {
		curves = defaultCurves
	}

	exts := []extension.Extension{
		&extension.SupportedSignatureAlgorithms{SignatureHashAlgorithms: cfg.localSignatureSchemes},
		&extension.SupportedEllipticCurves{EllipticCurves: curves},
		&extension.SupportedPointFormats{PointFormats: []extension.EllipticCurvePointFormat{extension.EllipticCurvePointFormatUncompressed}},
	}

	if cfg.extendedMasterSecret != DisableExtendedMasterSecret {
		exts = append(exts, &extension.UseExtendedMasterSecret{})
	}

	if len(cfg.localSRTPProtectionProfiles) > 0 {
		exts = append(exts, &extension.UseSRTP{
			ProtectionProfiles: cfg.localSRTPProtectionProfiles,
			Mki:                cfg.localSRTPMasterKeyIdentifier,
		})
	}

	if cfg.serverName != "" {
		exts = append(exts, &extension.ServerName{ServerName: cfg.serverName})
	}

	if len(cfg.supportedProtocols) > 0 {
		exts = append(exts, &extension.ALPN{ProtocolNameList: cfg.supportedProtocols})
	}

	return exts
}

// flight1Generate sends the client's first ClientHello, with no cookie.
func flight1Generate(h *handshaker) ([]*packet, *alert.Alert, error) {
	state, cfg := h.state, h.cfg

	if err := state.localRandom.Populate(); err != nil {
		return nil, nil, err
	}

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
						CipherSuiteIDs:     cipherSuiteIDs(cipherSuites),
						CompressionMethods: []protocol.CompressionMethodID{protocol.CompressionMethodNull},
						Extensions:         clientHelloExtensions(cfg),
					},
				},
			},
		},
	}, nil, nil
}

// flight1Parse waits for either a HelloVerifyRequest (the common case,
// moving to flight3) or, if the server allows InsecureSkipVerifyHello, the
// server's complete flight4 straight away (moving directly to flight5).
func flight1Parse(h *handshaker) (flightVal, *alert.Alert, error) {
	if _, msgs, ok := h.cache.fullPullMap(0, h.state.cipherSuite,
		handshakeCachePullRule{handshake.TypeHelloVerifyRequest, h.cfg.initialEpoch, false, false},
	); ok {
		hvr, ok := msgs[handshake.TypeHelloVerifyRequest].(*handshake.MessageHelloVerifyRequest)
		if !ok {
			return 0, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, nil
		}
		h.state.cookie = hvr.Cookie

		return flight3, nil, nil
	}

	return parseServerFlight(h)
}
