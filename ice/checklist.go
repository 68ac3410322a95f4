package ice

import (
	"net"
	"sort"
)

// Checklist holds the candidate pairs an agent is connectivity-checking,
// adapted from a goroutine/ticker-driven reference into the step-driven
// shape this package uses throughout: nothing here starts a timer or a
// goroutine, every state change happens inside a call from Agent.
type Checklist struct {
	isControlling bool

	local  map[CandidateID]*Candidate
	remote map[CandidateID]*Candidate

	pairs []*CandidatePair

	// triggered holds pairs queued for an immediate check by the triggered
	// check queue, RFC 8445 §7.3.1.4, ahead of the regular Waiting rotation.
	triggered []*CandidatePair

	selected *CandidatePair

	nextToCheck int
}

func newChecklist(isControlling bool, local, remote map[CandidateID]*Candidate) *Checklist {
	return &Checklist{isControlling: isControlling, local: local, remote: remote}
}

// addPairs forms every valid (local, remote) combination from the given
// candidate IDs not already paired, then resorts and prunes the checklist.
func (cl *Checklist) addPairs(locals, remotes []CandidateID) {
	for _, lid := range locals {
		l := cl.local[lid]
		if l == nil {
			continue
		}
		for _, rid := range remotes {
			r := cl.remote[rid]
			if r == nil || !canBePaired(l, r) {
				continue
			}
			if cl.findPair(lid, rid) != nil {
				continue
			}
			cl.pairs = append(cl.pairs, newCandidatePair(l, r, cl.isControlling))
		}
	}
	cl.sortAndPrune()
	for _, p := range cl.pairs {
		if p.State == PairFrozen {
			p.State = PairWaiting
		}
	}
}

func canBePaired(local, remote *Candidate) bool {
	return local.Component == remote.Component &&
		local.Transport == remote.Transport &&
		sameFamily(local.IP, remote.IP)
}

func sameFamily(a, b net.IP) bool {
	return (a.To4() != nil) == (b.To4() != nil)
}

func (cl *Checklist) findPair(local, remote CandidateID) *CandidatePair {
	for _, p := range cl.pairs {
		if p.Local == local && p.Remote == remote {
			return p
		}
	}
	return nil
}

// findPairByAddr locates the pair whose local candidate is base and whose
// remote candidate resolves to raddr, used to correlate an inbound request
// against an existing pair before falling back to peer-reflexive adoption.
func (cl *Checklist) findPairByAddr(base CandidateID, raddr *net.UDPAddr) *CandidatePair {
	for _, p := range cl.pairs {
		if p.Local != base {
			continue
		}
		r := cl.remote[p.Remote]
		if r != nil && r.IP.Equal(raddr.IP) && r.Port == raddr.Port {
			return p
		}
	}
	return nil
}

// sortAndPrune implements RFC 8445 §6.1.2.3-4: sort by priority descending,
// then drop pairs made redundant by a higher-priority pair sharing the same
// local base and remote candidate — except a pair already being checked,
// succeeded, or failed is never pruned, since discarding it would throw
// away the outcome of work already done.
func (cl *Checklist) sortAndPrune() {
	sort.SliceStable(cl.pairs, func(i, j int) bool {
		return cl.pairs[i].Priority > cl.pairs[j].Priority
	})

	var kept []*CandidatePair
	for _, p := range cl.pairs {
		if p.State == PairInProgress || p.State == PairSucceeded || p.State == PairFailed {
			kept = append(kept, p)
			continue
		}
		redundant := false
		for _, q := range kept {
			if cl.isRedundant(p, q) {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, p)
		}
	}
	cl.pairs = kept
}

func (cl *Checklist) isRedundant(p1, p2 *CandidatePair) bool {
	return p1.Remote == p2.Remote && cl.baseOf(p1.Local) == cl.baseOf(p2.Local)
}

func (cl *Checklist) baseOf(id CandidateID) CandidateID {
	c := cl.local[id]
	if c == nil || c.Base == "" {
		return id
	}
	return c.Base
}

// nextPair returns the next pair due for a connectivity check: the
// triggered queue drains first, then the Waiting pairs rotate round-robin.
func (cl *Checklist) nextPair() *CandidatePair {
	for len(cl.triggered) > 0 {
		p := cl.triggered[0]
		cl.triggered = cl.triggered[1:]
		if p.State == PairWaiting || p.State == PairFrozen {
			return p
		}
	}
	n := len(cl.pairs)
	for i := 0; i < n; i++ {
		idx := (cl.nextToCheck + i) % n
		p := cl.pairs[idx]
		if p.State == PairWaiting {
			cl.nextToCheck = (idx + 1) % n
			return p
		}
	}
	return nil
}

func (cl *Checklist) triggerCheck(p *CandidatePair) {
	for _, q := range cl.triggered {
		if q == p {
			return
		}
	}
	cl.triggered = append(cl.triggered, p)
}

// done reports whether every pair has reached a terminal state.
func (cl *Checklist) done() bool {
	for _, p := range cl.pairs {
		if p.State == PairWaiting || p.State == PairInProgress || p.State == PairFrozen {
			return false
		}
	}
	return true
}

func (cl *Checklist) hasValidPair() bool {
	for _, p := range cl.pairs {
		if p.State == PairSucceeded {
			return true
		}
	}
	return false
}

// nominate marks p nominated and, once it is also Succeeded, promotes it to
// the selected pair for its component — RFC 8445 §8.1.
func (cl *Checklist) nominate(p *CandidatePair) {
	p.Nominated = true
	cl.maybeSelect(p)
}

func (cl *Checklist) maybeSelect(p *CandidatePair) {
	if p.State != PairSucceeded || !p.Nominated {
		return
	}
	if cl.selected == nil || p.Priority > cl.selected.Priority {
		cl.selected = p
	}
}
