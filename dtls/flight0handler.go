// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"crypto/rand"

	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/elliptic"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/alert"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/extension"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/handshake"
)

// flight0Parse is the server's entry point: it waits for a first
// ClientHello (no cookie required yet), negotiates the cipher suite and
// extensions, and decides whether a cookie round trip (flight2) is needed
// at all.
func flight0Parse(h *handshaker) (flightVal, *alert.Alert, error) {
	state, cfg := h.state, h.cfg

	seq, msgs, ok := h.cache.fullPullMap(0, state.cipherSuite,
		handshakeCachePullRule{handshake.TypeClientHello, cfg.initialEpoch, true, false},
	)
	if !ok {
		return 0, nil, nil
	}

	state.handshakeRecvSequence = seq

	clientHello, ok := msgs[handshake.TypeClientHello].(*handshake.MessageClientHello)
	if !ok {
		return 0, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, nil
	}

	if !clientHello.Version.Equal(protocol.Version1_2) {
		return 0, &alert.Alert{Level: alert.Fatal, Description: alert.ProtocolVersion}, errUnsupportedProtocolVersion
	}

	state.remoteRandom = clientHello.Random
	state.sessionID = clientHello.SessionID

	cipherSuites := []CipherSuite{}
	for _, id := range clientHello.CipherSuiteIDs {
		if c := cipherSuiteForID(CipherSuiteID(id), cfg.customCipherSuites); c != nil {
			cipherSuites = append(cipherSuites, c)
		}
	}

	if state.cipherSuite, ok = findMatchingCipherSuite(cipherSuites, cfg.localCipherSuites); !ok {
		return 0, &alert.Alert{Level: alert.Fatal, Description: alert.InsufficientSecurity}, errCipherSuiteNoIntersection
	}

	for _, val := range clientHello.Extensions {
		switch ext := val.(type) {
		case *extension.SupportedEllipticCurves:
			if len(ext.EllipticCurves) == 0 {
				return 0, &alert.Alert{Level: alert.Fatal, Description: alert.InsufficientSecurity}, errNoSupportedEllipticCurves
			}
			state.namedCurve = uint16(ext.EllipticCurves[0])
		case *extension.UseSRTP:
			profile, ok := findMatchingSRTPProfile(ext.ProtectionProfiles, cfg.localSRTPProtectionProfiles)
			if !ok {
				return 0, &alert.Alert{Level: alert.Fatal, Description: alert.InsufficientSecurity}, errServerNoMatchingSRTPProfile
			}
			state.srtpProtectionProfile = profile
		case *extension.UseExtendedMasterSecret:
			if cfg.extendedMasterSecret != DisableExtendedMasterSecret {
				state.extendedMasterSecret = true
			}
		case *extension.ServerName:
			state.serverName = ext.ServerName
		case *extension.ALPN:
			state.peerSupportedProtocols = ext.ProtocolNameList
		}
	}

	if cfg.extendedMasterSecret == RequireExtendedMasterSecret && !state.extendedMasterSecret {
		return 0, &alert.Alert{Level: alert.Fatal, Description: alert.InsufficientSecurity}, errServerRequiredButNoClientEMS
	}

	if state.localKeypair == nil && state.cipherSuite.KeyExchangeAlgorithm()&CipherSuiteKeyExchangeAlgorithmEcdhe != 0 {
		var err error
		state.localKeypair, err = elliptic.GenerateKeypair(elliptic.Curve(state.namedCurve))
		if err != nil {
			return 0, &alert.Alert{Level: alert.Fatal, Description: alert.IllegalParameter}, err
		}
	}

	if cfg.insecureSkipHelloVerify {
		return flight4, nil, nil
	}

	return flight2, nil, nil
}

// flight0Generate resets per-handshake state that must be fresh for every
// new ClientHello the server accepts. It has nothing of its own to put on
// the wire; flight0 is a pure waiting state.
func flight0Generate(h *handshaker) ([]*packet, *alert.Alert, error) {
	state, cfg := h.state, h.cfg

	if !cfg.insecureSkipHelloVerify {
		state.cookie = make([]byte, cookieLength)
		if _, err := rand.Read(state.cookie); err != nil {
			return nil, nil, err
		}
	}

	state.namedCurve = uint16(defaultNamedCurve)

	if err := state.localRandom.Populate(); err != nil {
		return nil, nil, err
	}

	return nil, nil, nil
}
