// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/elliptic"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/signaturehash"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/alert"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/handshake"
	"github.com/pion/logging"
)

// [RFC6347 Section-4.2.4], adapted to a step-driven model: there is no Run
// loop and no goroutine. A Conn feeds the handshaker reassembled messages
// and timeouts, and the handshaker reports back what, if anything, needs
// to go on the wire.
//
//	                     +-----------+
//	                +--> | PREPARING | <--------------------+
//	                |    +-----------+                      |
//	                |          |  Buffer next flight        |
//	                |         \|/                           |
//	                |    +-----------+                      |
//	                |    |  SENDING  |<------------------+  |
//	        Receive |    +-----------+                   |  |
//	           next |          |  Send flight             |  |
//	         flight |  +-------+  Set retransmit timer    |  |
//	                |  |      \|/                        |  |
//	                |  |  +-----------+                   |  |
//	                +--)--|  WAITING  |-------------------+  |
//	                |  |  +-----------+   Timer expires      |
//	                |  |        |                            |
//	                |  |        +----------------------------+
//	        Receive |  | Send           Timeout: retransmit
//	           last |  | last
//	         flight |  | flight
//	               \|/\|/
//	            +-----------+
//	            | FINISHED  |
//	            +-----------+
type handshakeState uint8

const (
	handshakeErrored handshakeState = iota
	handshakePreparing
	handshakeSending
	handshakeWaiting
	handshakeFinished
)

func (s handshakeState) String() string {
	switch s {
	case handshakeErrored:
		return "Errored"
	case handshakePreparing:
		return "Preparing"
	case handshakeSending:
		return "Sending"
	case handshakeWaiting:
		return "Waiting"
	case handshakeFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// handshaker drives the RFC 6347 §4.2.4 flight state machine without
// owning any I/O: it is stepped forward by a Conn that feeds it completed
// handshake messages (pushed into its cache, followed by a call to step)
// and wall-clock time (via handleTimeout), and drains whatever it queued for transmission (via
// takeOutbound).
type handshaker struct {
	currentFlight      flightVal
	fsmState           handshakeState
	flights            []*packet
	retransmit         bool
	retransmitInterval time.Duration
	nextTimeout        time.Time

	state *State
	cache *handshakeCache
	cfg   *handshakeConfig

	outbound []*packet
	pendingAlert *alert.Alert

	err error
}

type handshakeConfig struct {
	localPSKCallback             PSKCallback
	localPSKIdentityHint         []byte
	localCipherSuites            []CipherSuite             // Available CipherSuites
	localSignatureSchemes        []signaturehash.Algorithm // Available signature schemes
	extendedMasterSecret         ExtendedMasterSecretType  // Policy for the Extended Master Support extension
	localSRTPProtectionProfiles  []SRTPProtectionProfile   // Available SRTPProtectionProfiles, if empty no SRTP support
	localSRTPMasterKeyIdentifier []byte
	serverName                   string
	supportedProtocols           []string
	clientAuth                   ClientAuthType // If we are a client should we request a client certificate
	localCertificates            []tls.Certificate
	nameToCertificate            map[string]*tls.Certificate
	insecureSkipVerify           bool
	verifyPeerCertificate        func(rawCerts [][]byte, verifiedChains [][]*x509.Certificate) error
	verifyConnection             func(*State) error
	rootCAs                      *x509.CertPool
	clientCAs                    *x509.CertPool
	initialRetransmitInterval    time.Duration
	disableRetransmitBackoff     bool
	customCipherSuites           func() []CipherSuite
	ellipticCurves               []elliptic.Curve
	insecureSkipHelloVerify      bool

	onFlightState func(flightVal, handshakeState)
	log           logging.LeveledLogger
	keyLogWriter  io.Writer

	localGetCertificate       func(*ClientHelloInfo) (*tls.Certificate, error)
	localGetClientCertificate func(*CertificateRequestInfo) (*tls.Certificate, error)

	initialEpoch uint16

	mu sync.Mutex
}

func (c *handshakeConfig) writeKeyLog(label string, clientRandom, secret []byte) {
	if c.keyLogWriter == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.keyLogWriter.Write([]byte(fmt.Sprintf("%s %x %x\n", label, clientRandom, secret)))
	if err != nil {
		c.log.Debugf("failed to write key log file: %s", err)
	}
}

func srvCliStr(isClient bool) string {
	if isClient {
		return "client"
	}

	return "server"
}

// newHandshaker constructs a handshaker sitting in the given initial flight.
// Clients start at flight1 (about to send a bare ClientHello); servers start
// at flight0 (waiting for one).
func newHandshaker(s *State, cache *handshakeCache, cfg *handshakeConfig, initialFlight flightVal) *handshaker {
	h := &handshaker{
		currentFlight:      initialFlight,
		state:              s,
		cache:              cache,
		cfg:                cfg,
		retransmitInterval: cfg.initialRetransmitInterval,
		fsmState:           handshakePreparing,
	}

	return h
}

func (h *handshaker) logTransition() {
	h.cfg.log.Tracef("[handshake:%s] %s: %s", srvCliStr(h.state.isClient), h.currentFlight.String(), h.fsmState.String())
	if h.cfg.onFlightState != nil {
		h.cfg.onFlightState(h.currentFlight, h.fsmState)
	}
}

// isFinished reports whether the handshake has completed (successfully or
// not); step and handleTimeout become no-ops once true.
func (h *handshaker) isFinished() bool {
	return h.fsmState == handshakeFinished || h.fsmState == handshakeErrored
}

// takeOutbound drains and returns whatever packets have been queued for
// transmission since the last call.
func (h *handshaker) takeOutbound() []*packet {
	out := h.outbound
	h.outbound = nil

	return out
}

// takeAlert drains the alert (if any) raised by the most recent step or
// handleTimeout call, for the Conn to actually send and then tear down on.
func (h *handshaker) takeAlert() *alert.Alert {
	a := h.pendingAlert
	h.pendingAlert = nil

	return a
}

// pollTimeout reports the wall-clock time at which handleTimeout should
// next be called, and whether one is currently armed (only while waiting
// for a retransmittable flight's response).
func (h *handshaker) pollTimeout() (time.Time, bool) {
	if h.fsmState != handshakeWaiting || !h.retransmit {
		return time.Time{}, false
	}

	return h.nextTimeout, true
}

// handleTimeout retransmits the current flight if the deadline pollTimeout
// reported has passed. Per RFC 6347 §4.2.4.1, the interval doubles on every
// retransmission up to a 60 second ceiling.
func (h *handshaker) handleTimeout(now time.Time) error {
	if h.isFinished() || h.fsmState != handshakeWaiting || !h.retransmit {
		return nil
	}
	if now.Before(h.nextTimeout) {
		return nil
	}

	if !h.cfg.disableRetransmitBackoff {
		h.retransmitInterval *= 2
	}
	if h.retransmitInterval > time.Second*60 {
		h.retransmitInterval = time.Second * 60
	}

	h.fsmState = handshakeSending
	h.logTransition()

	return h.run(now)
}

// step advances the state machine as far as it can go without blocking.
// Call it after pushing newly reassembled handshake messages (or a
// ChangeCipherSpec epoch bump) into the cache/state.
func (h *handshaker) step(now time.Time) error {
	if h.isFinished() {
		return nil
	}

	return h.run(now)
}

// run drives prepare -> send -> wait (non-blocking parse attempt) in a
// loop, stopping as soon as a state would need to block on more data or a
// timer, or the handshake finishes or errors.
func (h *handshaker) run(now time.Time) error {
	for {
		h.logTransition()

		var (
			next handshakeState
			err  error
		)

		switch h.fsmState {
		case handshakePreparing:
			next, err = h.prepare()
		case handshakeSending:
			next, err = h.send()
		case handshakeWaiting:
			var blocked bool
			next, blocked, err = h.wait(now)
			if blocked {
				h.fsmState = next
				return err
			}
		case handshakeFinished:
			return nil
		default:
			return errInvalidFSMTransition
		}
		if err != nil {
			h.fsmState = handshakeErrored
			h.err = err

			return err
		}

		h.fsmState = next
		if next == handshakeFinished {
			h.logTransition()

			return nil
		}
	}
}

func (h *handshaker) prepare() (handshakeState, error) {
	h.flights = nil

	gen, retransmit, err := h.currentFlight.getFlightGenerator()
	if err != nil {
		h.pendingAlert = &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}

		return handshakeErrored, err
	}
	if gen == nil {
		// A flight without a generator has nothing of its own to send.
		return handshakeWaiting, nil
	}

	pkts, dtlsAlert, err := gen(h)
	if dtlsAlert != nil {
		h.pendingAlert = dtlsAlert
	}
	if err != nil {
		return handshakeErrored, err
	}

	h.flights = pkts
	h.retransmit = retransmit

	epoch := h.cfg.initialEpoch
	nextEpoch := epoch
	for _, p := range h.flights {
		p.record.Header.Epoch += epoch
		if p.record.Header.Epoch > nextEpoch {
			nextEpoch = p.record.Header.Epoch
		}

		hs, ok := p.record.Content.(*handshake.Handshake)
		if !ok {
			continue
		}

		hs.Header.MessageSequence = uint16(h.state.handshakeSendSequence)
		h.state.handshakeSendSequence++

		// Cache the message body alone, matching handshake.DecodeMessage and
		// the body Conn pushes for a reassembled incoming message: the
		// 12-byte fragment header never enters the transcript.
		body, err := hs.Message.Marshal()
		if err != nil {
			h.pendingAlert = &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}

			return handshakeErrored, err
		}
		h.cache.push(body, p.record.Header.Epoch, hs.Header.MessageSequence, hs.Message.Type(), h.state.isClient)
	}
	if epoch != nextEpoch {
		h.cfg.log.Tracef("[handshake:%s] -> changeCipherSpec (epoch: %d)", srvCliStr(h.state.isClient), nextEpoch)
		h.state.setLocalEpoch(nextEpoch)
	}

	return handshakeSending, nil
}

func (h *handshaker) send() (handshakeState, error) {
	h.outbound = append(h.outbound, h.flights...)

	if h.currentFlight.isLastSendFlight() {
		return handshakeFinished, nil
	}

	h.retransmitInterval = h.cfg.initialRetransmitInterval
	h.nextTimeout = time.Time{} // armed by the caller driving handleTimeout

	return handshakeWaiting, nil
}

// wait makes one non-blocking attempt to parse the next flight out of the
// handshake cache. blocked reports whether the caller should stop driving
// the loop and wait for more data or a timeout.
func (h *handshaker) wait(now time.Time) (handshakeState, bool, error) {
	parse, err := h.currentFlight.getFlightParser()
	if err != nil {
		h.pendingAlert = &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}

		return handshakeErrored, false, err
	}

	nextFlight, dtlsAlert, err := parse(h)
	if dtlsAlert != nil {
		h.pendingAlert = dtlsAlert
	}
	if err != nil {
		return handshakeErrored, false, err
	}
	if nextFlight == 0 {
		// Nothing new to parse yet; arm (or keep) the retransmit timer and block.
		if h.nextTimeout.IsZero() {
			h.nextTimeout = now.Add(h.retransmitInterval)
		}

		return handshakeWaiting, true, nil
	}

	h.cfg.log.Tracef("[handshake:%s] %s -> %s", srvCliStr(h.state.isClient), h.currentFlight.String(), nextFlight.String())

	if nextFlight.isLastRecvFlight() && h.currentFlight == nextFlight {
		return handshakeFinished, false, nil
	}

	h.currentFlight = nextFlight
	h.nextTimeout = time.Time{}

	return handshakePreparing, false, nil
}
