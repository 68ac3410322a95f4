// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/pion/logging"
	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/signaturehash"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/alert"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/handshake"
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/recordlayer"
)

// recordProtectionOverhead is a generous upper bound on what record
// protection adds to a handshake fragment (explicit nonce + AEAD tag,
// across every cipher suite this module offers), used only to size
// fragments so an encrypted one still fits under the MTU.
const recordProtectionOverhead = 32

// maxQueuedNextEpochRecords bounds how many records arriving one epoch
// early (the peer's ChangeCipherSpec lost or reordered behind them) a Conn
// will hold before giving up and dropping them; unbounded buffering here
// would let a peer exhaust memory with bogus epoch numbers.
const maxQueuedNextEpochRecords = 16

// Conn is a single DTLS 1.2 connection, either end of a handshake plus the
// record layer once it completes. It owns no socket, no goroutine, and no
// timer: a caller feeds it wall-clock time and inbound datagrams, and
// drains whatever it has queued for transmission. See Step, HandleTimeout,
// PollTimeout, HandleRead and PollTransmit.
type Conn struct {
	isClient bool

	state     *State
	cache     *handshakeCache
	fragments *fragmentBuffer
	cfg       *handshakeConfig
	hs        *handshaker

	mtu          int
	replayWindow int
	metrics      *Metrics

	txQueue         []*packet
	incoming        [][]byte
	queuedNextEpoch [][]byte

	closed bool
	err    error
}

// NewClient constructs the client side of a handshake. Step must be called
// once before the first PollTransmit to produce the initial ClientHello.
func NewClient(config *Config) (*Conn, error) {
	if config != nil && config.PSK != nil && config.PSKIdentityHint == nil {
		return nil, errPSKAndIdentityMustBeSetForClient
	}

	return newConn(config, true)
}

// NewServer constructs the server side of a handshake. It waits for the
// first ClientHello; Step still needs one initial call to move the FSM
// from Preparing into Waiting.
func NewServer(config *Config) (*Conn, error) {
	return newConn(config, false)
}

func newConn(config *Config, isClient bool) (*Conn, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	logger := loggerFactory.NewLogger("dtls")

	mtu := config.MTU
	if mtu <= 0 {
		mtu = defaultMTU
	}

	cipherSuites, err := parseCipherSuites(
		config.CipherSuites, config.CustomCipherSuites, config.includeCertificateSuites(), config.PSK != nil,
	)
	if err != nil {
		return nil, err
	}

	signatureSchemes, err := signaturehash.ParseSignatureSchemes(config.SignatureSchemes, config.InsecureHashes)
	if err != nil {
		return nil, err
	}

	retransmitInterval := config.FlightInterval
	if retransmitInterval <= 0 {
		retransmitInterval = time.Second
	}

	// RFC 6066 §3: literal IPs are not valid ServerName values.
	serverName := config.ServerName
	if net.ParseIP(serverName) != nil {
		serverName = ""
	}

	curves := config.EllipticCurves
	if len(curves) == 0 {
		curves = defaultCurves
	}

	nameToCertificate := map[string]*tls.Certificate{}
	for i := range config.Certificates {
		cert := &config.Certificates[i]
		if cert.Leaf == nil {
			continue
		}
		if cert.Leaf.Subject.CommonName != "" {
			nameToCertificate[strings.ToLower(cert.Leaf.Subject.CommonName)] = cert
		}
		for _, san := range cert.Leaf.DNSNames {
			nameToCertificate[strings.ToLower(san)] = cert
		}
	}

	cfg := &handshakeConfig{
		localPSKCallback:             config.PSK,
		localPSKIdentityHint:         config.PSKIdentityHint,
		localCipherSuites:            cipherSuites,
		localSignatureSchemes:        signatureSchemes,
		extendedMasterSecret:         config.ExtendedMasterSecret,
		localSRTPProtectionProfiles:  config.SRTPProtectionProfiles,
		localSRTPMasterKeyIdentifier: config.SRTPMasterKeyIdentifier,
		serverName:                   serverName,
		supportedProtocols:           config.SupportedProtocols,
		clientAuth:                   config.ClientAuth,
		localCertificates:            config.Certificates,
		nameToCertificate:            nameToCertificate,
		insecureSkipVerify:           config.InsecureSkipVerify,
		verifyPeerCertificate:        config.VerifyPeerCertificate,
		verifyConnection:             config.VerifyConnection,
		rootCAs:                      config.RootCAs,
		clientCAs:                    config.ClientCAs,
		initialRetransmitInterval:    retransmitInterval,
		disableRetransmitBackoff:     config.DisableRetransmitBackoff,
		customCipherSuites:           config.CustomCipherSuites,
		ellipticCurves:               curves,
		insecureSkipHelloVerify:      config.InsecureSkipVerifyHello,
		log:                          logger,
		keyLogWriter:                 config.KeyLogWriter,
		localGetCertificate:          config.GetCertificate,
		localGetClientCertificate:    config.GetClientCertificate,
		initialEpoch:                 0,
	}

	// Narrow the advertised suites to what our own certificate can sign
	// for. Only done statically here: config.GetCertificate may pick a
	// certificate based on SNI or the negotiated suite itself, neither of
	// which exists yet at construction time, so that path is left to
	// flight0Parse/flight4Generate to reconcile during the real handshake.
	if !isClient && len(cfg.localCertificates) > 0 {
		cfg.localCipherSuites = filterCipherSuitesForCertificate(&cfg.localCertificates[0], cfg.localCipherSuites)
	}

	replayWindow := config.ReplayProtectionWindow
	if replayWindow <= 0 {
		replayWindow = 64
	}

	state := newState(isClient)
	cache := newHandshakeCache()

	initialFlight := flight0
	if isClient {
		initialFlight = flight1
	}

	return &Conn{
		isClient:     isClient,
		state:        state,
		cache:        cache,
		fragments:    newFragmentBuffer(),
		cfg:          cfg,
		hs:           newHandshaker(state, cache, cfg, initialFlight),
		mtu:          mtu,
		replayWindow: replayWindow,
		metrics:      NewMetrics(),
	}, nil
}

// Step advances the handshake state machine as far as it can without
// blocking. A finished or failed handshake makes this a no-op.
func (c *Conn) Step(now time.Time) error {
	if c.closed {
		return ErrConnClosed
	}

	err := c.hs.step(now)
	c.drainHandshaker()
	if err != nil {
		c.fail(err)
	}

	return err
}

// HandleTimeout retransmits the current flight if pollTimeout's deadline
// has passed.
func (c *Conn) HandleTimeout(now time.Time) error {
	if c.closed {
		return ErrConnClosed
	}

	err := c.hs.handleTimeout(now)
	c.drainHandshaker()
	if err != nil {
		c.fail(err)
	}

	return err
}

// PollTimeout reports when HandleTimeout should next be called, and
// whether a timeout is currently armed at all.
func (c *Conn) PollTimeout() (time.Time, bool) {
	return c.hs.pollTimeout()
}

// HandshakeComplete reports whether the handshake finished successfully.
func (c *Conn) HandshakeComplete() bool {
	return c.hs.fsmState == handshakeFinished
}

// Read returns the next reassembled ApplicationData payload queued by
// HandleRead, if any. It never blocks.
func (c *Conn) Read() ([]byte, bool) {
	if len(c.incoming) == 0 {
		return nil, false
	}

	data := c.incoming[0]
	c.incoming = c.incoming[1:]

	return data, true
}

// Write queues p as a single encrypted ApplicationData record for the next
// PollTransmit. It fails if the handshake has not finished or the
// connection is closed; Conn owns no socket, so there is nothing to flush
// synchronously.
func (c *Conn) Write(p []byte) (int, error) {
	if c.closed {
		return 0, ErrConnClosed
	}
	if c.hs.fsmState != handshakeFinished {
		return 0, errHandshakeInProgress
	}

	c.txQueue = append(c.txQueue, &packet{
		record: &recordlayer.RecordLayer{
			Header:  recordlayer.Header{Version: protocol.Version1_2, Epoch: c.state.getLocalEpoch()},
			Content: &protocol.ApplicationData{Data: append([]byte{}, p...)},
		},
		shouldEncrypt: true,
	})

	return len(p), nil
}

// Close is idempotent. The first call queues a warning CloseNotify (if the
// handshake had finished enough to have an encrypting epoch); later calls
// do nothing.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	if c.state.getLocalEpoch() != 0 {
		c.queueAlert(&alert.Alert{Level: alert.Warning, Description: alert.CloseNotify})
	}

	return nil
}

// ExportKeyingMaterial implements RFC 5705 for the negotiated cipher suite.
func (c *Conn) ExportKeyingMaterial(label string, context []byte, length int) ([]byte, error) {
	return c.state.exportKeyingMaterial(label, context, length)
}

// PeerCertificate returns the certificate the remote side presented, or nil
// for PSK cipher suites and anonymous suites.
func (c *Conn) PeerCertificate() *x509.Certificate {
	return c.state.remoteCertificate
}

// NegotiatedProtocol returns the ALPN protocol selected during the
// handshake, or "" if none was negotiated.
func (c *Conn) NegotiatedProtocol() string {
	return c.state.NegotiatedProtocol
}

// SelectedSRTPProtectionProfile returns the SRTP protection profile
// negotiated via use_srtp, if any.
func (c *Conn) SelectedSRTPProtectionProfile() (SRTPProtectionProfile, bool) {
	return c.state.srtpProtectionProfile, c.state.srtpProtectionProfile != 0
}

// Metrics exposes the Prometheus collector backing this Conn's record and
// alert counters.
func (c *Conn) Metrics() *Metrics {
	return c.metrics
}

func (c *Conn) fail(err error) {
	if c.err == nil {
		c.err = err
	}
	c.closed = true
}

// drainHandshaker moves whatever the handshaker has queued since the last
// call into this Conn's own transmit queue, including any alert it raised.
func (c *Conn) drainHandshaker() {
	c.txQueue = append(c.txQueue, c.hs.takeOutbound()...)
	if a := c.hs.takeAlert(); a != nil {
		c.queueAlert(a)
	}
}

func (c *Conn) queueAlert(a *alert.Alert) {
	epoch := c.state.getLocalEpoch()
	c.txQueue = append(c.txQueue, &packet{
		record: &recordlayer.RecordLayer{
			Header:  recordlayer.Header{Version: protocol.Version1_2, Epoch: epoch},
			Content: a,
		},
		shouldEncrypt: epoch != 0,
	})
	c.metrics.alertSent(a.Description.String())
}

// HandleRead processes one inbound datagram, which may contain several
// concatenated records. now is used only to arm or refresh the retransmit
// timer if new handshake material lets the FSM advance; HandleRead itself
// never blocks and owns no timer of its own.
func (c *Conn) HandleRead(now time.Time, data []byte) error {
	if c.closed {
		return ErrConnClosed
	}

	var sawHandshake bool
	var fatal error

	for _, raw := range recordlayer.UnpackDatagram(data) {
		respAlert, err := c.handleRecord(now, raw, &sawHandshake)
		if respAlert != nil {
			c.queueAlert(respAlert)
		}
		if err == nil {
			continue
		}

		var ae *alertError
		if errors.As(err, &ae) {
			c.metrics.alertReceived(ae.Description.String())
			if ae.IsFatalOrCloseNotify() {
				fatal = err

				break
			}

			continue
		}

		fatal = err

		break
	}

	if sawHandshake && c.err == nil {
		if err := c.hs.step(now); err != nil && fatal == nil {
			fatal = err
		}
		c.drainHandshaker()
	}

	if fatal != nil {
		c.fail(fatal)

		return fatal
	}

	return nil
}

// handleRecord runs a single already-demultiplexed record through header
// parsing, epoch validation, anti-replay, and decryption, then dispatches
// it by content type. Every failure up through decryption is silently
// discarded per RFC 6347 §4.1.2.7 — only a parsed Alert, an
// ApplicationData record arriving at epoch 0, or a record of an unknown
// content type surfaces as an error.
func (c *Conn) handleRecord(now time.Time, raw []byte, sawHandshake *bool) (*alert.Alert, error) {
	var header recordlayer.Header
	if err := header.Unmarshal(raw); err != nil {
		return nil, nil
	}

	remoteEpoch := c.state.getRemoteEpoch()
	if header.Epoch > remoteEpoch+1 {
		c.metrics.recordDiscarded(header.Epoch)

		return nil, nil
	}
	if header.Epoch == remoteEpoch+1 {
		// The peer's ChangeCipherSpec for this epoch hasn't arrived or
		// hasn't been processed yet; hold the record until it has.
		c.queueForNextEpoch(raw)

		return nil, nil
	}

	detector := c.replayDetectorFor(header.Epoch)
	if !detector.Check(header.SequenceNumber) {
		c.metrics.recordReplayed(header.Epoch)

		return nil, nil
	}

	body := raw
	if header.Epoch != 0 {
		if c.state.cipherSuite == nil || !c.state.cipherSuite.IsInitialized() {
			c.queueForNextEpoch(raw)

			return nil, nil
		}

		decrypted, err := c.state.cipherSuite.Decrypt(raw)
		if err != nil {
			c.cfg.log.Debugf("dtls: discarding unauthenticated record at epoch %d: %s", header.Epoch, err)
			c.metrics.recordDiscarded(header.Epoch)

			return nil, nil
		}
		body = decrypted
	}
	content := body[recordlayer.HeaderSize:]

	switch header.ContentType {
	case protocol.ContentTypeHandshake:
		return nil, c.handleHandshakeFragment(header, content, detector, sawHandshake)

	case protocol.ContentTypeChangeCipherSpec:
		ccs := &protocol.ChangeCipherSpec{}
		if err := ccs.Unmarshal(content); err != nil {
			c.metrics.recordDiscarded(header.Epoch)

			return nil, nil
		}
		if c.state.cipherSuite == nil || !c.state.cipherSuite.IsInitialized() {
			c.queueForNextEpoch(raw)

			return nil, nil
		}

		detector.Accept(header.SequenceNumber)
		c.metrics.recordAccepted(header.Epoch)
		c.bumpRemoteEpoch(now, header.Epoch+1)

		return nil, nil

	case protocol.ContentTypeAlert:
		a := &alert.Alert{}
		if err := a.Unmarshal(content); err != nil {
			c.metrics.recordDiscarded(header.Epoch)

			return nil, nil
		}
		detector.Accept(header.SequenceNumber)
		c.metrics.recordAccepted(header.Epoch)

		if a.Description == alert.CloseNotify {
			return &alert.Alert{Level: alert.Warning, Description: alert.CloseNotify}, &alertError{a}
		}

		return nil, &alertError{a}

	case protocol.ContentTypeApplicationData:
		if header.Epoch == 0 {
			return &alert.Alert{Level: alert.Fatal, Description: alert.UnexpectedMessage}, errApplicationDataEpochZero
		}

		ad := &protocol.ApplicationData{}
		if err := ad.Unmarshal(content); err != nil {
			c.metrics.recordDiscarded(header.Epoch)

			return nil, nil
		}
		detector.Accept(header.SequenceNumber)
		c.metrics.recordAccepted(header.Epoch)
		c.incoming = append(c.incoming, ad.Data)

		return nil, nil

	default:
		return &alert.Alert{Level: alert.Fatal, Description: alert.UnexpectedMessage}, errUnhandledContextType
	}
}

func (c *Conn) handleHandshakeFragment(
	header recordlayer.Header,
	content []byte,
	detector *slidingWindowDetector,
	sawHandshake *bool,
) error {
	var fh handshake.Header
	if err := fh.Unmarshal(content); err != nil {
		c.metrics.recordDiscarded(header.Epoch)

		return nil
	}

	fragment := content[handshake.HeaderLength:]
	if uint32(len(fragment)) < fh.FragmentLength {
		c.metrics.recordDiscarded(header.Epoch)

		return nil
	}

	if err := c.fragments.push(header.Epoch, uint16(c.state.handshakeRecvSequence), fh, fragment[:fh.FragmentLength]); err != nil {
		c.metrics.recordDiscarded(header.Epoch)

		return nil
	}
	detector.Accept(header.SequenceNumber)
	c.metrics.recordAccepted(header.Epoch)

	// Received messages are attributed to whoever isn't us: the cache
	// keys entries by sender, and we are not the sender of what we just
	// reassembled.
	for _, msg := range c.fragments.pop(header.Epoch) {
		c.cache.push(msg.body, header.Epoch, msg.messageSequence, msg.typ, !c.isClient)
	}
	*sawHandshake = true

	return nil
}

func (c *Conn) replayDetectorFor(epoch uint16) *slidingWindowDetector {
	d, ok := c.state.replayDetector[epoch]
	if !ok {
		d = newSlidingWindowDetector(uint64(c.replayWindow))
		c.state.replayDetector[epoch] = d
	}

	return d
}

func (c *Conn) queueForNextEpoch(raw []byte) {
	if len(c.queuedNextEpoch) >= maxQueuedNextEpochRecords {
		return
	}
	c.queuedNextEpoch = append(c.queuedNextEpoch, append([]byte{}, raw...))
}

// bumpRemoteEpoch advances the remote epoch and replays whatever arrived
// early for it, in the order it arrived.
func (c *Conn) bumpRemoteEpoch(now time.Time, epoch uint16) {
	c.state.setRemoteEpoch(epoch)

	queued := c.queuedNextEpoch
	c.queuedNextEpoch = nil

	var sawHandshake bool
	for _, raw := range queued {
		if respAlert, _ := c.handleRecord(now, raw, &sawHandshake); respAlert != nil {
			c.queueAlert(respAlert)
		}
	}

	if sawHandshake {
		if err := c.hs.step(now); err != nil {
			c.fail(err)
		}
		c.drainHandshaker()
	}
}

// PollTransmit drains every packet queued since the last call (handshake
// flights, alerts, encrypted ApplicationData) and returns it coalesced
// into MTU-sized datagrams ready to hand to whatever owns the socket.
func (c *Conn) PollTransmit() [][]byte {
	pkts := c.txQueue
	c.txQueue = nil

	var records [][]byte
	for _, p := range pkts {
		raw, err := c.marshalPacket(p)
		if err != nil {
			c.cfg.log.Errorf("dtls: dropping unencodable outbound packet: %s", err)

			continue
		}
		records = append(records, raw...)
	}

	return compactRecords(records, c.mtu)
}

// marshalPacket assigns the next sequence number(s) for p's epoch, encodes
// it to wire form, fragmenting a handshake message across multiple records
// if it doesn't fit the MTU, and encrypts each resulting record if
// p.shouldEncrypt.
func (c *Conn) marshalPacket(p *packet) ([][]byte, error) {
	if hs, ok := p.record.Content.(*handshake.Handshake); ok {
		return c.marshalHandshakeFragments(p, hs)
	}

	seq, err := c.state.nextLocalSequenceNumber(p.record.Header.Epoch, p.resetLocalSequenceNumber)
	if err != nil {
		return nil, err
	}
	p.record.Header.SequenceNumber = seq

	raw, err := p.record.Marshal()
	if err != nil {
		return nil, err
	}

	if p.shouldEncrypt {
		raw, err = c.state.cipherSuite.Encrypt(p.record, raw)
		if err != nil {
			return nil, err
		}
	}

	return [][]byte{raw}, nil
}

func (c *Conn) marshalHandshakeFragments(p *packet, hs *handshake.Handshake) ([][]byte, error) {
	body, err := hs.Message.Marshal()
	if err != nil {
		return nil, err
	}

	fragmentSize := c.mtu - recordlayer.HeaderSize - handshake.HeaderLength
	if p.shouldEncrypt {
		fragmentSize -= recordProtectionOverhead
	}
	if fragmentSize <= 0 {
		fragmentSize = 1
	}

	var out [][]byte
	offset := 0
	for {
		end := offset + fragmentSize
		if end > len(body) {
			end = len(body)
		}
		chunk := body[offset:end]

		fh := handshake.Header{
			Type:            hs.Message.Type(),
			Length:          uint32(len(body)),
			MessageSequence: hs.Header.MessageSequence,
			FragmentOffset:  uint32(offset),
			FragmentLength:  uint32(len(chunk)),
		}
		fhRaw, err := fh.Marshal()
		if err != nil {
			return nil, err
		}

		seq, err := c.state.nextLocalSequenceNumber(p.record.Header.Epoch, p.resetLocalSequenceNumber && offset == 0)
		if err != nil {
			return nil, err
		}

		header := recordlayer.Header{
			Version:        p.record.Header.Version,
			Epoch:          p.record.Header.Epoch,
			SequenceNumber: seq,
		}

		raw := append(fhRaw, chunk...)
		header.ContentType = protocol.ContentTypeHandshake
		header.ContentLen = uint16(len(raw))
		headerRaw, err := header.Marshal()
		if err != nil {
			return nil, err
		}
		raw = append(headerRaw, raw...)

		if p.shouldEncrypt {
			pkt := &recordlayer.RecordLayer{Header: header}
			raw, err = c.state.cipherSuite.Encrypt(pkt, raw)
			if err != nil {
				return nil, err
			}
		}

		out = append(out, raw)

		if end == len(body) {
			break
		}
		offset = end
	}

	return out, nil
}

// compactRecords coalesces consecutive raw records into MTU-sized
// datagrams, starting a new one whenever the next record would push the
// running total at or past mtu.
func compactRecords(records [][]byte, mtu int) [][]byte {
	var datagrams [][]byte
	var current []byte

	for _, r := range records {
		if len(current) > 0 && len(current)+len(r) >= mtu {
			datagrams = append(datagrams, current)
			current = nil
		}
		current = append(current, r...)
	}
	if len(current) > 0 {
		datagrams = append(datagrams, current)
	}

	return datagrams
}
