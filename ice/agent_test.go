package ice

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipe wires from's PollTransmit output directly into to's HandleInbound,
// standing in for a pair of UDP sockets. fromAddr is the address the
// datagram appears to originate from (from's sole local candidate in these
// single-candidate tests).
func pipe(t *testing.T, now time.Time, from, to *Agent, fromAddr *net.UDPAddr) {
	t.Helper()
	for _, pkt := range from.PollTransmit() {
		require.NoError(t, to.HandleInbound(now, toBaseFor(to, pkt.Dest), fromAddr, pkt.Data))
	}
}

// toBaseFor finds the local candidate of to whose address matches dest,
// simulating socket demultiplexing by destination port.
func toBaseFor(a *Agent, dest *net.UDPAddr) CandidateID {
	for id, c := range a.localCandidates {
		if c.Port == dest.Port {
			return id
		}
	}
	return ""
}

func soleLocalAddr(a *Agent) *net.UDPAddr {
	for _, c := range a.localCandidates {
		return c.Addr()
	}
	return nil
}

func newTestPair(t *testing.T) (controlling, controlled *Agent) {
	t.Helper()
	controlling = NewAgent(AgentConfig{
		IsControlling: true,
		Tiebreaker:    1,
		LocalUfrag:    "CTLUFRAG",
		LocalPassword: "CTLPASSWORDPASSWORD",
	})
	controlled = NewAgent(AgentConfig{
		IsControlling: false,
		Tiebreaker:    2,
		LocalUfrag:    "CTDUFRAG",
		LocalPassword: "CTDPASSWORDPASSWORD",
	})
	controlling.SetRemoteCredentials("CTDUFRAG", "CTDPASSWORDPASSWORD")
	controlled.SetRemoteCredentials("CTLUFRAG", "CTLPASSWORDPASSWORD")

	lc := NewHostCandidate(net.ParseIP("127.0.0.1"), 7001, 1)
	rc := NewHostCandidate(net.ParseIP("127.0.0.1"), 7002, 1)

	controlling.AddLocalCandidate(lc)
	controlled.AddLocalCandidate(rc)

	controlling.AddRemoteCandidate(rc)
	controlled.AddRemoteCandidate(lc)

	return controlling, controlled
}

func TestTwoHostAgentsConnect(t *testing.T) {
	controlling, controlled := newTestPair(t)

	require.Equal(t, ConnectionStateChecking, controlling.State())
	require.Equal(t, ConnectionStateChecking, controlled.State())

	now := time.Unix(0, 0)
	for i := 0; i < 20 && (controlling.State() != ConnectionStateConnected || controlled.State() != ConnectionStateConnected); i++ {
		now = now.Add(60 * time.Millisecond)
		require.NoError(t, controlling.HandleTimeout(now))
		require.NoError(t, controlled.HandleTimeout(now))

		pipe(t, now, controlling, controlled, soleLocalAddr(controlling))
		pipe(t, now, controlled, controlling, soleLocalAddr(controlled))
	}

	assert.Equal(t, ConnectionStateConnected, controlling.State())
	assert.Equal(t, ConnectionStateConnected, controlled.State())

	_, ok := controlling.SelectedPair()
	assert.True(t, ok)
	_, ok = controlled.SelectedPair()
	assert.True(t, ok)
}

func TestBindingRequestUsernameMismatchRejected(t *testing.T) {
	controlling, controlled := newTestPair(t)

	now := time.Unix(0, 0)
	require.NoError(t, controlling.HandleTimeout(now.Add(60*time.Millisecond)))

	pkts := controlling.PollTransmit()
	require.Len(t, pkts, 1)

	controlled.remoteUfrag = "WRONGUFRAG"

	base := toBaseFor(controlled, pkts[0].Dest)
	err := controlled.HandleInbound(now, base, soleLocalAddr(controlling), pkts[0].Data)
	assert.ErrorIs(t, err, errUsernameMismatch)
}
