// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

// slidingWindowDetector implements the anti-replay sliding window described
// in RFC 6347 §4.1.2.6, one per epoch. It tracks the highest sequence number
// seen and a bitmap of the windowSize sequence numbers immediately below it.
type slidingWindowDetector struct {
	windowSize    uint64
	latestSeq     uint64
	window        uint64 // bit i set means latestSeq-i has been seen
	receivedFirst bool
}

func newSlidingWindowDetector(windowSize uint64) *slidingWindowDetector {
	if windowSize == 0 {
		windowSize = 64
	}

	return &slidingWindowDetector{windowSize: windowSize}
}

// Check reports whether seq is new (not a duplicate, not too old). It does
// not mark seq as seen; call Accept after the record's MAC has verified.
func (d *slidingWindowDetector) Check(seq uint64) bool {
	if !d.receivedFirst {
		return true
	}
	if seq > d.latestSeq {
		return true
	}
	diff := d.latestSeq - seq
	if diff >= d.windowSize {
		return false
	}

	return d.window&(1<<diff) == 0
}

// Accept marks seq as seen, sliding the window forward if seq is the new
// high-water mark. Must only be called after authentication succeeds —
// DTLS records are accepted into the window on MAC success, never before.
func (d *slidingWindowDetector) Accept(seq uint64) {
	if !d.receivedFirst {
		d.receivedFirst = true
		d.latestSeq = seq
		d.window = 1

		return
	}

	switch {
	case seq > d.latestSeq:
		shift := seq - d.latestSeq
		if shift >= d.windowSize {
			d.window = 0
		} else {
			d.window <<= shift
		}
		d.window |= 1
		d.latestSeq = seq
	default:
		diff := d.latestSeq - seq
		if diff < d.windowSize {
			d.window |= 1 << diff
		}
	}
}
