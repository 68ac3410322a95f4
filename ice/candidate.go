package ice

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
)

// CandidateType classifies how a Candidate's transport address was
// discovered, RFC 8445 §2.
type CandidateType int

const (
	CandidateTypeHost CandidateType = iota
	CandidateTypeServerReflexive
	CandidateTypePeerReflexive
	CandidateTypeRelay
)

func (t CandidateType) String() string {
	switch t {
	case CandidateTypeHost:
		return "host"
	case CandidateTypeServerReflexive:
		return "srflx"
	case CandidateTypePeerReflexive:
		return "prflx"
	case CandidateTypeRelay:
		return "relay"
	default:
		return "unknown"
	}
}

// typePreference implements the RFC 8445 §5.1.2.1 recommended values.
func (t CandidateType) typePreference() uint32 {
	switch t {
	case CandidateTypeHost:
		return 126
	case CandidateTypePeerReflexive:
		return 110
	case CandidateTypeServerReflexive:
		return 100
	case CandidateTypeRelay:
		return 0
	default:
		return 0
	}
}

// localPreference is fixed at its maximum: every candidate this agent
// gathers is single-homed (one interface, one address family), so there is
// never a need to rank sibling candidates of the same type against each
// other, unlike a multi-homed gatherer.
const localPreference = 65535

// candidatePriority implements RFC 8445 §5.1.2.1:
// priority = 2^24*type_preference + 2^8*local_preference + (256-component_id)
func candidatePriority(t CandidateType, component int) uint32 {
	return t.typePreference()<<24 | uint32(localPreference)<<8 | uint32(256-component)
}

// CandidateID stably identifies a Candidate in the agent's arena; pairs and
// checklists reference candidates by ID rather than by pointer, per
// spec.md §9's candidate-arena design note.
type CandidateID string

func newCandidateID() CandidateID {
	return CandidateID(uuid.NewString())
}

// Candidate is a potential transport address an ICE agent may use,
// RFC 8445 §2.
type Candidate struct {
	ID         CandidateID
	Type       CandidateType
	Component  int
	Transport  string // always "udp": ICE-TCP is out of scope
	IP         net.IP
	Port       int
	Priority   uint32
	Foundation string

	// Base names the host candidate this one was learned through (the
	// local socket a server- or peer-reflexive address was observed on).
	// Empty for host candidates, which are their own base.
	Base CandidateID

	LastSent, LastReceived time.Time
}

// Addr returns the UDP address this candidate represents.
func (c *Candidate) Addr() *net.UDPAddr {
	return &net.UDPAddr{IP: c.IP, Port: c.Port}
}

func (c *Candidate) String() string {
	return fmt.Sprintf("%s %s:%d/%s", c.Type, c.IP, c.Port, c.Transport)
}

// foundation groups candidates of the same type, derived from the same
// base, reachable over the same transport, per RFC 8445 §5.1.1.3 —
// approximated here (as in other compact implementations) as a short hash
// of (type, base address, transport) rather than full STUN/TURN-server
// identity tracking, since this agent never speaks to a TURN server.
func foundation(t CandidateType, baseAddr, transport string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", t, baseAddr, transport)))
	return hex.EncodeToString(sum[:4])
}

// NewHostCandidate builds a host candidate bound to a local socket.
func NewHostCandidate(ip net.IP, port int, component int) *Candidate {
	c := &Candidate{
		ID:        newCandidateID(),
		Type:      CandidateTypeHost,
		Component: component,
		Transport: "udp",
		IP:        ip,
		Port:      port,
	}
	c.Foundation = foundation(c.Type, ip.String(), c.Transport)
	c.Priority = candidatePriority(c.Type, component)
	return c
}

// NewServerReflexiveCandidate builds a candidate derived from a STUN
// Binding request's XOR-MAPPED-ADDRESS, observed through base.
func NewServerReflexiveCandidate(mapped *net.UDPAddr, base *Candidate) *Candidate {
	c := &Candidate{
		ID:        newCandidateID(),
		Type:      CandidateTypeServerReflexive,
		Component: base.Component,
		Transport: base.Transport,
		IP:        mapped.IP,
		Port:      mapped.Port,
		Base:      base.ID,
	}
	c.Foundation = foundation(c.Type, base.IP.String(), c.Transport)
	c.Priority = candidatePriority(c.Type, c.Component)
	return c
}

// NewPeerReflexiveCandidate builds a candidate discovered when an inbound
// connectivity check arrives from a source address neither side
// advertised, RFC 8445 §7.3.1.3-4. priority is taken from the PRIORITY
// attribute on the triggering request, not recomputed locally.
func NewPeerReflexiveCandidate(src *net.UDPAddr, base *Candidate, priority uint32) *Candidate {
	c := &Candidate{
		ID:        newCandidateID(),
		Type:      CandidateTypePeerReflexive,
		Component: base.Component,
		Transport: base.Transport,
		IP:        src.IP,
		Port:      src.Port,
		Base:      base.ID,
		Priority:  priority,
	}
	c.Foundation = foundation(c.Type, base.IP.String(), c.Transport)
	return c
}

// isPrivate classifies RFC 1918 / RFC 4193 address space, plus the
// 100.64.0.0/10 shared and 169.254.0.0/16 link-local ranges. Generalized from
// a LAN-address check used elsewhere in this corpus for SDP scrubbing into
// a host-candidate classification helper.
func isPrivate(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		return ip4[0] == 10 ||
			(ip4[0] == 172 && ip4[1]&0xf0 == 16) ||
			(ip4[0] == 192 && ip4[1] == 168) ||
			(ip4[0] == 100 && ip4[1]&0xc0 == 64) ||
			(ip4[0] == 169 && ip4[1] == 254)
	}
	return len(ip) == net.IPv6len && ip[0]&0xfe == 0xfc
}
