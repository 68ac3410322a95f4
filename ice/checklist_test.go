package ice

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecklistAddPairsSortsByPriorityDescending(t *testing.T) {
	local := map[CandidateID]*Candidate{}
	remote := map[CandidateID]*Candidate{}

	l1 := NewHostCandidate(net.ParseIP("192.168.1.2"), 5000, 1)
	l2 := NewHostCandidate(net.ParseIP("10.0.0.2"), 5001, 1)
	r1 := NewHostCandidate(net.ParseIP("192.168.1.3"), 6000, 1)

	local[l1.ID] = l1
	local[l2.ID] = l2
	remote[r1.ID] = r1

	cl := newChecklist(true, local, remote)
	cl.addPairs([]CandidateID{l1.ID, l2.ID}, []CandidateID{r1.ID})

	require.Len(t, cl.pairs, 2)
	assert.GreaterOrEqual(t, cl.pairs[0].Priority, cl.pairs[1].Priority)
	for _, p := range cl.pairs {
		assert.Equal(t, PairWaiting, p.State)
	}
}

func TestChecklistPruneKeepsHigherPriorityRedundantPair(t *testing.T) {
	local := map[CandidateID]*Candidate{}
	remote := map[CandidateID]*Candidate{}

	base := NewHostCandidate(net.ParseIP("192.168.1.2"), 5000, 1)
	local[base.ID] = base

	r := NewHostCandidate(net.ParseIP("192.168.1.3"), 6000, 1)
	remote[r.ID] = r

	srflx := NewServerReflexiveCandidate(&net.UDPAddr{IP: net.ParseIP("203.0.113.1"), Port: 7000}, base)
	local[srflx.ID] = srflx

	cl := newChecklist(true, local, remote)
	cl.addPairs([]CandidateID{base.ID, srflx.ID}, []CandidateID{r.ID})

	// Both pairs share the same base (srflx.Base == base.ID) and the same
	// remote candidate, so they are redundant; only the higher-priority one
	// (host, since type preference 126 > 100) should survive.
	require.Len(t, cl.pairs, 1)
	assert.Equal(t, base.ID, cl.pairs[0].Local)
}

func TestChecklistNextPairDrainsTriggeredQueueFirst(t *testing.T) {
	local := map[CandidateID]*Candidate{}
	remote := map[CandidateID]*Candidate{}

	l1 := NewHostCandidate(net.ParseIP("192.168.1.2"), 5000, 1)
	l2 := NewHostCandidate(net.ParseIP("192.168.1.4"), 5002, 1)
	r1 := NewHostCandidate(net.ParseIP("192.168.1.3"), 6000, 1)

	local[l1.ID] = l1
	local[l2.ID] = l2
	remote[r1.ID] = r1

	cl := newChecklist(true, local, remote)
	cl.addPairs([]CandidateID{l1.ID, l2.ID}, []CandidateID{r1.ID})
	require.Len(t, cl.pairs, 2)

	triggered := cl.pairs[1]
	cl.triggerCheck(triggered)

	got := cl.nextPair()
	assert.Same(t, triggered, got)
}

func TestChecklistNominateSelectsPair(t *testing.T) {
	local := map[CandidateID]*Candidate{}
	remote := map[CandidateID]*Candidate{}

	l1 := NewHostCandidate(net.ParseIP("192.168.1.2"), 5000, 1)
	r1 := NewHostCandidate(net.ParseIP("192.168.1.3"), 6000, 1)
	local[l1.ID] = l1
	remote[r1.ID] = r1

	cl := newChecklist(true, local, remote)
	cl.addPairs([]CandidateID{l1.ID}, []CandidateID{r1.ID})
	require.Len(t, cl.pairs, 1)

	p := cl.pairs[0]
	p.State = PairSucceeded
	cl.nominate(p)

	assert.True(t, cl.hasValidPair())
	assert.Same(t, p, cl.selected)
}
