package event

import (
	"fmt"

	"github.com/tgragnato/p2ptransport/common/safelog"
)

// Event is implemented by every notification a Conn or ice.Agent can raise
// through an EventDispatcher. Concrete types embed Event as a marker field
// rather than implementing IsEvent themselves; the field is never actually
// invoked, it only satisfies the interface.
type Event interface {
	IsEvent()
	String() string
}

// EventOnHandshakeComplete fires once a dtls.Conn's handshake FSM reaches
// Finished.
type EventOnHandshakeComplete struct {
	Event
	IsClient bool
}

func (e EventOnHandshakeComplete) String() string {
	if e.IsClient {
		return "dtls: client handshake complete"
	}
	return "dtls: server handshake complete"
}

// EventOnHandshakeFailed fires when the handshake FSM is abandoned after a
// fatal alert or a propagated error.
type EventOnHandshakeFailed struct {
	Event
	Error error
}

func (e EventOnHandshakeFailed) String() string {
	scrubbed := safelog.Scrub([]byte(e.Error.Error()))
	return fmt.Sprintf("dtls: handshake failed: %s", scrubbed)
}

// EventOnConnectionStateChange fires on every ICE connection state
// transition. State is kept as a string (rather than ice.ConnectionState)
// so this package doesn't import ice.
type EventOnConnectionStateChange struct {
	Event
	State string
}

func (e EventOnConnectionStateChange) String() string {
	return fmt.Sprintf("ice: connection state changed to %s", e.State)
}

// EventOnCandidatePairSelected fires once the checklist nominates and
// installs a selected pair.
type EventOnCandidatePairSelected struct {
	Event
	Local, Remote string
}

func (e EventOnCandidatePairSelected) String() string {
	return fmt.Sprintf("ice: selected candidate pair %s <-> %s", e.Local, e.Remote)
}

// EventReceiver is notified of events by an EventDispatcher.
type EventReceiver interface {
	// OnNewEvent notify receiver about a new event. This method MUST not block.
	OnNewEvent(event Event)
}

// EventDispatcher fans a single event out to every registered receiver.
type EventDispatcher interface {
	EventReceiver
	// AddEventListener allows receiver(s) to receive event notifications
	// when OnNewEvent is called on the dispatcher. Every listener added is
	// called when an event is received; call order is undefined.
	AddEventListener(receiver EventReceiver)
	RemoveEventListener(receiver EventReceiver)
}
