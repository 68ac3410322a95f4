// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/handshake"
)

const fragmentBufferMaxOutstanding = 64

// fragmentBuffer reassembles a DTLS handshake message that arrived split
// across multiple records, keyed by (epoch, messageSequence) per
// RFC 6347 §4.2.2. It owns no goroutines or timers: callers push every
// fragment they parse off the wire and pop whichever messages have become
// complete.
type fragmentBuffer struct {
	messages map[fragmentKey]*reassembly
}

type fragmentKey struct {
	epoch           uint16
	messageSequence uint16
}

type reassembly struct {
	typ      handshake.Type
	length   uint32
	received []bool
	body     []byte
}

func newFragmentBuffer() *fragmentBuffer {
	return &fragmentBuffer{messages: map[fragmentKey]*reassembly{}}
}

// push records a single fragment. nextExpectedSequence is the handshake
// engine's next_expected_sequence: fragments of a message the engine has
// already consumed arrive on retransmission of an earlier flight and are
// dropped here rather than reassembled again. push returns an error only on
// malformed input (a fragment whose declared length contradicts an earlier
// fragment of the same message, or too many in-flight messages at once — the
// latter guards against a peer exhausting memory with bogus message_sequence
// values).
func (f *fragmentBuffer) push(epoch uint16, nextExpectedSequence uint16, h handshake.Header, body []byte) error {
	if h.MessageSequence < nextExpectedSequence {
		return nil
	}

	key := fragmentKey{epoch: epoch, messageSequence: h.MessageSequence}

	r, ok := f.messages[key]
	if !ok {
		if len(f.messages) >= fragmentBufferMaxOutstanding {
			return errFragmentBufferOverflow
		}
		r = &reassembly{
			typ:      h.Type,
			length:   h.Length,
			received: make([]bool, h.Length),
			body:     make([]byte, h.Length),
		}
		f.messages[key] = r
	}

	if r.typ != h.Type || r.length != h.Length {
		return errLengthMismatch
	}

	end := h.FragmentOffset + h.FragmentLength
	if end > h.Length || uint32(len(body)) < h.FragmentLength {
		return errLengthMismatch
	}

	copy(r.body[h.FragmentOffset:end], body[:h.FragmentLength])
	for i := h.FragmentOffset; i < end; i++ {
		r.received[i] = true
	}

	return nil
}

// pop returns, and removes, every message that has become complete for the
// given epoch, in ascending messageSequence order.
func (f *fragmentBuffer) pop(epoch uint16) []completedMessage {
	var keys []fragmentKey
	for key, r := range f.messages {
		if key.epoch != epoch || !isComplete(r) {
			continue
		}
		keys = append(keys, key)
	}

	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j].messageSequence < keys[i].messageSequence {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}

	out := make([]completedMessage, 0, len(keys))
	for _, key := range keys {
		r := f.messages[key]
		out = append(out, completedMessage{
			messageSequence: key.messageSequence,
			typ:             r.typ,
			body:            r.body,
		})
		delete(f.messages, key)
	}

	return out
}

type completedMessage struct {
	messageSequence uint16
	typ             handshake.Type
	body            []byte
}

func isComplete(r *reassembly) bool {
	for _, got := range r.received {
		if !got {
			return false
		}
	}

	return true
}
