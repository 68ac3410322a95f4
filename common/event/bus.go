package event

import "sync"

// NewEventDispatcher returns an EventDispatcher that fans every event out to
// its currently registered receivers, in registration order.
func NewEventDispatcher() EventDispatcher {
	return &eventDispatcher{}
}

type eventDispatcher struct {
	mutex     sync.Mutex
	receivers []EventReceiver
}

func (d *eventDispatcher) OnNewEvent(e Event) {
	d.mutex.Lock()
	receivers := make([]EventReceiver, len(d.receivers))
	copy(receivers, d.receivers)
	d.mutex.Unlock()

	for _, r := range receivers {
		r.OnNewEvent(e)
	}
}

func (d *eventDispatcher) AddEventListener(r EventReceiver) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.receivers = append(d.receivers, r)
}

func (d *eventDispatcher) RemoveEventListener(r EventReceiver) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	for i, existing := range d.receivers {
		if existing == r {
			d.receivers = append(d.receivers[:i], d.receivers[i+1:]...)
			return
		}
	}
}
