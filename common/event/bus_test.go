package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubReceiver struct {
	counter int
}

func (s *stubReceiver) OnNewEvent(event Event) {
	s.counter++
}

func TestBusDispatch(t *testing.T) {
	bus := NewEventDispatcher()
	receiverA := &stubReceiver{}
	receiverB := &stubReceiver{}
	bus.AddEventListener(receiverA)
	bus.AddEventListener(receiverB)
	assert.Equal(t, 0, receiverA.counter)
	assert.Equal(t, 0, receiverB.counter)

	bus.OnNewEvent(EventOnHandshakeComplete{IsClient: true})
	assert.Equal(t, 1, receiverA.counter)
	assert.Equal(t, 1, receiverB.counter)

	bus.RemoveEventListener(receiverB)
	bus.OnNewEvent(EventOnHandshakeComplete{IsClient: false})
	assert.Equal(t, 2, receiverA.counter)
	assert.Equal(t, 1, receiverB.counter)
}
