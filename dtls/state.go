// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"crypto/tls"
	"crypto/x509"
	"sync/atomic"

	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/elliptic"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/prf"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/signaturehash"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/handshake"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/recordlayer"
)

// State holds the negotiated and in-progress data for a single handshake.
// A State belongs to exactly one Conn and is never shared.
type State struct {
	isClient bool

	localEpoch, remoteEpoch atomic.Uint32

	localSequenceNumber  []uint64 // per epoch, indexed by epoch number
	localRandom          handshake.Random
	remoteRandom         handshake.Random
	masterSecret         []byte

	cipherSuite CipherSuite // nil until the key exchange completes

	localCertificate  *tls.Certificate
	remoteCertificate *x509.Certificate

	extendedMasterSecret bool

	handshakeSendSequence int
	handshakeRecvSequence int

	replayDetector map[uint16]*slidingWindowDetector

	peerSupportedProtocols []string
	NegotiatedProtocol     string

	srtpProtectionProfile SRTPProtectionProfile

	cookie                     []byte
	namedCurve                 uint16
	serverName                 string
	remoteRequestedCertificate bool
	remoteCertRequestAlgs      []signaturehash.Algorithm
	localKeypair               *elliptic.Keypair
	remoteKeyExchangePublic    []byte

	identityHint []byte

	sessionID []byte
}

// newState constructs the zeroed handshake state every Conn starts with.
func newState(isClient bool) *State {
	s := &State{
		isClient:       isClient,
		replayDetector: map[uint16]*slidingWindowDetector{},
	}
	s.localEpoch.Store(0)
	s.remoteEpoch.Store(0)
	s.localSequenceNumber = []uint64{0}

	return s
}

func (s *State) getLocalEpoch() uint16  { return uint16(s.localEpoch.Load()) }
func (s *State) getRemoteEpoch() uint16 { return uint16(s.remoteEpoch.Load()) }

func (s *State) setLocalEpoch(epoch uint16) {
	s.localEpoch.Store(uint32(epoch))
	for len(s.localSequenceNumber) <= int(epoch) {
		s.localSequenceNumber = append(s.localSequenceNumber, 0)
	}
}

func (s *State) setRemoteEpoch(epoch uint16) {
	s.remoteEpoch.Store(uint32(epoch))
}

// nextLocalSequenceNumber allocates the next record sequence number for
// epoch, growing localSequenceNumber if this is the first record sent
// under it. A Conn drives this single-threaded, so no atomic add is
// needed here the way a goroutine-per-connection design would require.
func (s *State) nextLocalSequenceNumber(epoch uint16, reset bool) (uint64, error) {
	for len(s.localSequenceNumber) <= int(epoch) {
		s.localSequenceNumber = append(s.localSequenceNumber, 0)
	}
	if reset {
		s.localSequenceNumber[epoch] = 0
	}

	seq := s.localSequenceNumber[epoch]
	if seq > recordlayer.MaxSequenceNumber {
		return 0, errSequenceNumberOverflow
	}
	s.localSequenceNumber[epoch] = seq + 1

	return seq, nil
}

// exportKeyingMaterial implements RFC 5705 for keys already derived by the
// TLS 1.2 PRF, fenced against the reserved labels prf.ExportKeyingMaterial
// already rejects.
func (s *State) exportKeyingMaterial(label string, context []byte, length int) ([]byte, error) {
	if s.cipherSuite == nil || !s.cipherSuite.IsInitialized() {
		return nil, errHandshakeInProgress
	}
	if context != nil {
		return nil, errContextUnsupported
	}

	localRandom := s.localRandom.MarshalFixed()
	remoteRandom := s.remoteRandom.MarshalFixed()

	clientRandom, serverRandom := localRandom[:], remoteRandom[:]
	if !s.isClient {
		clientRandom, serverRandom = remoteRandom[:], localRandom[:]
	}

	return prf.ExportKeyingMaterial(label, s.masterSecret, clientRandom, serverRandom, length, s.cipherSuite.HashFunc())
}
