package ice

import (
	"net"
	"time"

	"github.com/tgragnato/p2ptransport/common/event"
	"github.com/tgragnato/p2ptransport/ice/stun"
)

// ConnectionState mirrors the RFC 8445/8829 ICE connection-state machine.
type ConnectionState int

const (
	ConnectionStateNew ConnectionState = iota
	ConnectionStateChecking
	ConnectionStateConnected
	ConnectionStateDisconnected
	ConnectionStateFailed
	ConnectionStateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionStateNew:
		return "new"
	case ConnectionStateChecking:
		return "checking"
	case ConnectionStateConnected:
		return "connected"
	case ConnectionStateDisconnected:
		return "disconnected"
	case ConnectionStateFailed:
		return "failed"
	case ConnectionStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// maxBindingRequestTimeout bounds how long an outstanding connectivity
// check is tracked before its transaction ID is forgotten, RFC 8445 §14.3.
const maxBindingRequestTimeout = 500 * time.Millisecond

// maxBindingRequestRetries caps retransmissions of a single check. RFC 8445
// §14.3 derives RTO from the number of outstanding pairs; this module fixes
// a flat retry budget instead, matching spec.md's single-constant
// simplification rather than computing RTO from checklist size.
const maxBindingRequestRetries = 7

// OutboundPacket is a datagram PollTransmit hands to the caller's socket.
type OutboundPacket struct {
	Dest *net.UDPAddr
	Data []byte
}

type pendingRequest struct {
	pair    *CandidatePair
	dest    *net.UDPAddr
	sentAt  time.Time
	nominee bool
}

// Agent is a sans-I/O ICE agent: every state transition happens inside
// AddLocalCandidate, AddRemoteCandidate, HandleInbound, or HandleTimeout.
// It never starts a goroutine or a timer; PollTimeout tells the caller when
// to call HandleTimeout next, and PollTransmit drains datagrams to send.
type Agent struct {
	isControlling bool
	tiebreaker    uint64

	localUfrag, localPassword   string
	remoteUfrag, remotePassword string

	localCandidates  map[CandidateID]*Candidate
	remoteCandidates map[CandidateID]*Candidate

	checklist *Checklist

	pending map[[stun.TransactionIDLength]byte]*pendingRequest

	state ConnectionState

	checkInterval       time.Duration
	keepaliveInterval   time.Duration
	disconnectedTimeout time.Duration
	failedTimeout       time.Duration

	lastCheckSent    time.Time
	lastInboundValid time.Time
	disconnectedAt   time.Time

	txQueue []OutboundPacket

	metrics    *Metrics
	dispatcher event.EventDispatcher
}

// AgentConfig carries the pieces of agent setup a caller must supply;
// zero-value durations fall back to the RFC 8445 §14 defaults.
type AgentConfig struct {
	IsControlling       bool
	Tiebreaker          uint64
	LocalUfrag          string
	LocalPassword       string
	CheckInterval       time.Duration
	KeepaliveInterval   time.Duration
	DisconnectedTimeout time.Duration
	FailedTimeout       time.Duration
	Metrics             *Metrics
	Dispatcher          event.EventDispatcher
}

func NewAgent(cfg AgentConfig) *Agent {
	a := &Agent{
		isControlling:       cfg.IsControlling,
		tiebreaker:          cfg.Tiebreaker,
		localUfrag:          cfg.LocalUfrag,
		localPassword:       cfg.LocalPassword,
		localCandidates:     make(map[CandidateID]*Candidate),
		remoteCandidates:    make(map[CandidateID]*Candidate),
		pending:             make(map[[stun.TransactionIDLength]byte]*pendingRequest),
		state:               ConnectionStateNew,
		checkInterval:       cfg.CheckInterval,
		keepaliveInterval:   cfg.KeepaliveInterval,
		disconnectedTimeout: cfg.DisconnectedTimeout,
		failedTimeout:       cfg.FailedTimeout,
		metrics:             cfg.Metrics,
		dispatcher:          cfg.Dispatcher,
	}
	if a.checkInterval == 0 {
		a.checkInterval = 50 * time.Millisecond // Ta, RFC 8445 §14.1's default
	}
	if a.keepaliveInterval == 0 {
		a.keepaliveInterval = 15 * time.Second // Tr, RFC 8445 §11
	}
	if a.disconnectedTimeout == 0 {
		a.disconnectedTimeout = 5 * time.Second
	}
	if a.failedTimeout == 0 {
		a.failedTimeout = 30 * time.Second
	}
	a.checklist = newChecklist(a.isControlling, a.localCandidates, a.remoteCandidates)
	return a
}

// SetRemoteCredentials records the ufrag/password the peer advertised out
// of band (e.g. over a signaling channel), required before any inbound
// request can pass USERNAME/MESSAGE-INTEGRITY verification.
func (a *Agent) SetRemoteCredentials(ufrag, password string) {
	a.remoteUfrag, a.remotePassword = ufrag, password
}

func (a *Agent) LocalCredentials() (ufrag, password string) {
	return a.localUfrag, a.localPassword
}

func (a *Agent) State() ConnectionState { return a.state }

// SelectedPair returns the currently selected candidate pair, if any.
func (a *Agent) SelectedPair() (*CandidatePair, bool) {
	if a.checklist.selected == nil {
		return nil, false
	}
	return a.checklist.selected, true
}

// AddLocalCandidate registers a candidate this agent can be reached at, and
// pairs it against every remote candidate already known.
func (a *Agent) AddLocalCandidate(c *Candidate) {
	a.localCandidates[c.ID] = c
	a.checklist.addPairs([]CandidateID{c.ID}, remoteIDs(a.remoteCandidates))
	a.enterChecking()
}

// AddRemoteCandidate registers a candidate the peer can be reached at, and
// pairs it against every local candidate already known.
func (a *Agent) AddRemoteCandidate(c *Candidate) {
	a.remoteCandidates[c.ID] = c
	a.checklist.addPairs(localIDs(a.localCandidates), []CandidateID{c.ID})
	a.enterChecking()
}

func (a *Agent) enterChecking() {
	if a.state == ConnectionStateNew && len(a.checklist.pairs) > 0 {
		a.setState(ConnectionStateChecking)
	}
}

func localIDs(m map[CandidateID]*Candidate) []CandidateID {
	ids := make([]CandidateID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}

func remoteIDs(m map[CandidateID]*Candidate) []CandidateID {
	return localIDs(m)
}

func (a *Agent) setState(s ConnectionState) {
	if a.state == s {
		return
	}
	a.state = s
	if s == ConnectionStateFailed {
		// checklist.local/remote alias these same maps, so clear in place
		// rather than rebind — a rebind would leave the checklist looking
		// at the old, now-stale maps.
		for id := range a.localCandidates {
			delete(a.localCandidates, id)
		}
		for id := range a.remoteCandidates {
			delete(a.remoteCandidates, id)
		}
		a.checklist.pairs = nil
		a.checklist.triggered = nil
		a.checklist.selected = nil
		a.checklist.nextToCheck = 0
	}
	if a.dispatcher != nil {
		a.dispatcher.OnNewEvent(event.EventOnConnectionStateChange{State: s.String()})
	}
}

// PollTransmit drains and returns every datagram queued for sending since
// the last call.
func (a *Agent) PollTransmit() []OutboundPacket {
	out := a.txQueue
	a.txQueue = nil
	return out
}

// PollTimeout reports the next instant HandleTimeout should be called,
// derived from the sooner of: the next scheduled connectivity check, the
// next keepalive, or the oldest in-flight request's retransmit deadline.
func (a *Agent) PollTimeout() (time.Time, bool) {
	if a.state == ConnectionStateClosed || a.state == ConnectionStateFailed {
		return time.Time{}, false
	}
	next, ok := time.Time{}, false
	consider := func(t time.Time) {
		if t.IsZero() {
			return
		}
		if !ok || t.Before(next) {
			next, ok = t, true
		}
	}
	if !a.lastCheckSent.IsZero() {
		consider(a.lastCheckSent.Add(a.checkInterval))
	} else if a.state == ConnectionStateChecking {
		ok = true // fire immediately to send the first check
	}
	if a.state == ConnectionStateConnected {
		consider(a.lastInboundValid.Add(a.keepaliveInterval))
	}
	for _, p := range a.pending {
		consider(p.sentAt.Add(maxBindingRequestTimeout))
	}
	return next, ok
}

// HandleTimeout drives periodic connectivity checks, keepalives, pending
// request expiry, and connection-state supervision. The caller decides when
// "now" has arrived; nothing here measures wall-clock time itself.
func (a *Agent) HandleTimeout(now time.Time) error {
	if a.state == ConnectionStateClosed {
		return nil
	}

	a.expirePending(now)

	if a.state == ConnectionStateChecking && (a.lastCheckSent.IsZero() || now.Sub(a.lastCheckSent) >= a.checkInterval) {
		if p := a.checklist.nextPair(); p != nil {
			a.sendCheck(now, p)
		}
		a.lastCheckSent = now
	}

	if a.state == ConnectionStateConnected {
		if now.Sub(a.lastInboundValid) >= a.keepaliveInterval {
			a.sendKeepalive(now)
		}
		if now.Sub(a.lastInboundValid) >= a.disconnectedTimeout {
			a.disconnectedAt = now
			a.setState(ConnectionStateDisconnected)
		}
	}

	if a.state == ConnectionStateDisconnected {
		if !a.lastInboundValid.IsZero() && now.Sub(a.lastInboundValid) < a.disconnectedTimeout {
			a.setState(ConnectionStateConnected)
		} else if now.Sub(a.disconnectedAt) >= a.failedTimeout {
			a.setState(ConnectionStateFailed)
		}
	}

	if a.state == ConnectionStateChecking && a.checklist.done() && !a.checklist.hasValidPair() {
		a.setState(ConnectionStateFailed)
	}

	return nil
}

func (a *Agent) expirePending(now time.Time) {
	for tid, p := range a.pending {
		if now.Sub(p.sentAt) >= maxBindingRequestTimeout {
			delete(a.pending, tid)
			if p.pair != nil && p.pair.State == PairInProgress {
				p.pair.BindingRequestCount++
				if p.pair.BindingRequestCount >= maxBindingRequestRetries {
					p.pair.State = PairFailed
					a.metrics.pairState(PairFailed)
				} else {
					p.pair.State = PairWaiting
				}
			}
		}
	}
}

func (a *Agent) sendCheck(now time.Time, p *CandidatePair) {
	local := a.localCandidates[p.Local]
	remote := a.remoteCandidates[p.Remote]
	if local == nil || remote == nil {
		p.State = PairFailed
		return
	}

	m := stun.NewBindingRequest()
	m.AddUsername(a.remoteUfrag + ":" + a.localUfrag)
	m.AddPriority(local.Priority)
	if a.isControlling {
		m.AddICEControlling(a.tiebreaker)
		if p.Nominated {
			m.AddUseCandidate()
		}
	} else {
		m.AddICEControlled(a.tiebreaker)
	}

	raw, err := m.Marshal(a.remotePassword, true)
	if err != nil {
		p.State = PairFailed
		return
	}

	p.State = PairInProgress
	p.transactionID = m.TransactionID
	p.hasInFlight = true
	a.metrics.pairState(PairInProgress)
	a.metrics.bindingRequestSent()

	a.pending[m.TransactionID] = &pendingRequest{pair: p, dest: remote.Addr(), sentAt: now, nominee: p.Nominated}
	a.txQueue = append(a.txQueue, OutboundPacket{Dest: remote.Addr(), Data: raw})
	local.LastSent = now
}

func (a *Agent) sendKeepalive(now time.Time) {
	sel, ok := a.SelectedPair()
	if !ok {
		return
	}
	local := a.localCandidates[sel.Local]
	remote := a.remoteCandidates[sel.Remote]
	if local == nil || remote == nil {
		return
	}
	m := stun.NewBindingIndication()
	raw, err := m.Marshal("", false)
	if err != nil {
		return
	}
	a.txQueue = append(a.txQueue, OutboundPacket{Dest: remote.Addr(), Data: raw})
	local.LastSent = now
}

// HandleInbound processes a datagram received on the local socket backing
// localBase, from src. localBase must name a candidate already registered
// via AddLocalCandidate.
func (a *Agent) HandleInbound(now time.Time, localBase CandidateID, src *net.UDPAddr, data []byte) error {
	base, ok := a.localCandidates[localBase]
	if !ok {
		return errNoSuchLocalBase
	}

	m, err := stun.Unmarshal(data)
	if err != nil {
		return nil // malformed datagram: drop silently, per this module's policy
	}

	switch {
	case m.IsRequest():
		return a.handleBindingRequest(now, base, src, m)
	case m.IsSuccessResponse(), m.IsErrorResponse():
		return a.handleBindingResponse(now, base, m)
	case m.IsIndication():
		base.LastReceived = now
		a.lastInboundValid = now
		return nil
	}
	return nil
}

func (a *Agent) handleBindingRequest(now time.Time, base *Candidate, src *net.UDPAddr, m *stun.Message) error {
	username, ok := m.Username()
	if !ok {
		a.metrics.bindingRequestReceived("malformed")
		return errMissingUsername
	}
	if username != a.localUfrag+":"+a.remoteUfrag {
		a.metrics.bindingRequestReceived("bad-username")
		return errUsernameMismatch
	}
	if !m.VerifyMessageIntegrity(a.localPassword) {
		a.metrics.bindingRequestReceived("bad-integrity")
		return errUnknownCredentials
	}

	// Role conflict: per this module's simplification, a conflicting role
	// attribute from the peer is silently ignored rather than resolved via
	// the tiebreaker comparison RFC 8445 §7.3.1.1 describes.
	if a.isControlling {
		if _, has := m.ICEControlling(); has {
			return nil
		}
	} else if _, has := m.ICEControlled(); has {
		return nil
	}

	pair := a.checklist.findPairByAddr(base.ID, src)
	if pair == nil {
		remote := a.adoptPeerReflexive(src, base, m)
		a.checklist.addPairs([]CandidateID{base.ID}, []CandidateID{remote.ID})
		pair = a.checklist.findPair(base.ID, remote.ID)
	}

	resp := stun.NewBindingSuccessResponse(m.TransactionID)
	resp.AddXORMappedAddress(src)
	raw, err := resp.Marshal(a.localPassword, true)
	if err == nil {
		a.txQueue = append(a.txQueue, OutboundPacket{Dest: src, Data: raw})
	}

	base.LastReceived = now
	a.lastInboundValid = now
	a.metrics.bindingRequestReceived("success")

	if pair != nil && pair.State != PairSucceeded && pair.State != PairInProgress {
		pair.State = PairWaiting
	}
	if pair != nil {
		a.checklist.triggerCheck(pair)
	}

	if !a.isControlling && m.HasUseCandidate() && pair != nil {
		pair.State = PairSucceeded
		a.checklist.nominate(pair)
		a.onMaybeConnected()
	}

	return nil
}

func (a *Agent) adoptPeerReflexive(src *net.UDPAddr, base *Candidate, m *stun.Message) *Candidate {
	priority, _ := m.Priority()
	c := NewPeerReflexiveCandidate(src, base, priority)
	a.remoteCandidates[c.ID] = c
	return c
}

func (a *Agent) handleBindingResponse(now time.Time, base *Candidate, m *stun.Message) error {
	p, ok := a.pending[m.TransactionID]
	if !ok {
		return nil
	}
	delete(a.pending, m.TransactionID)

	pair := p.pair
	if pair == nil {
		return nil
	}

	if m.IsErrorResponse() {
		pair.State = PairFailed
		a.metrics.pairState(PairFailed)
		a.metrics.bindingRequestFailed()
		return nil
	}

	if !m.VerifyMessageIntegrity(a.remotePassword) {
		pair.State = PairFailed
		a.metrics.pairState(PairFailed)
		return nil
	}

	pair.State = PairSucceeded
	a.metrics.pairState(PairSucceeded)
	a.metrics.bindingRequestSucceeded()
	base.LastReceived = now
	a.lastInboundValid = now

	// With exactly one candidate pair there is nothing to choose between, so
	// each side nominates its own succeeded pair directly rather than
	// waiting for a USE-CANDIDATE round trip — a simplification of regular
	// nomination (RFC 8445 §8.1) valid only because there is no competing
	// pair to lose to.
	if p.nominee || len(a.checklist.pairs) == 1 {
		a.checklist.nominate(pair)
	}

	a.onMaybeConnected()
	return nil
}

func (a *Agent) onMaybeConnected() {
	if sel, ok := a.SelectedPair(); ok {
		if a.state == ConnectionStateChecking || a.state == ConnectionStateDisconnected {
			a.setState(ConnectionStateConnected)
			a.metrics.selectedPairChanged()
			if a.dispatcher != nil {
				local := a.localCandidates[sel.Local]
				remote := a.remoteCandidates[sel.Remote]
				if local != nil && remote != nil {
					a.dispatcher.OnNewEvent(event.EventOnCandidatePairSelected{
						Local:  local.String(),
						Remote: remote.String(),
					})
				}
			}
		}
	}
}

// Close transitions the agent to its terminal closed state; PollTimeout
// returns false and HandleTimeout becomes a no-op afterward.
func (a *Agent) Close() {
	a.setState(ConnectionStateClosed)
}
