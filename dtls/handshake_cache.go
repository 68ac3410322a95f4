// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"hash"
	"sort"
	"sync"

	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol/handshake"
)

// handshakeCacheItem is a single handshake message body recorded for later
// transcript hashing, keyed by who sent it and its message sequence number.
type handshakeCacheItem struct {
	typ             handshake.Type
	isClient        bool
	epoch           uint16
	messageSequence uint16
	data            []byte
}

// handshakeCachePullRule selects which cached item(s) to concatenate, in
// the order the rules are given. optional rules are skipped, not an error,
// when nothing matches (used for CertificateRequest, which not every
// handshake sends).
type handshakeCachePullRule struct {
	typ      handshake.Type
	epoch    uint16
	isClient bool
	optional bool
}

// handshakeCache accumulates every handshake message body sent or received
// during a single handshake, so Finished's verify_data and the extended
// master secret's session hash can be computed over the full transcript
// without re-marshaling anything.
type handshakeCache struct {
	mu    sync.Mutex
	cache []*handshakeCacheItem
}

func newHandshakeCache() *handshakeCache {
	return &handshakeCache{}
}

// push records data unless an item with the same
// (typ, isClient, epoch, messageSequence) key is already cached, in which
// case the first item is kept and data is ignored.
func (h *handshakeCache) push(data []byte, epoch, messageSequence uint16, typ handshake.Type, isClient bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, i := range h.cache {
		if i.typ == typ && i.isClient == isClient && i.epoch == epoch && i.messageSequence == messageSequence {
			return
		}
	}

	h.cache = append(h.cache, &handshakeCacheItem{
		typ:             typ,
		isClient:        isClient,
		epoch:           epoch,
		messageSequence: messageSequence,
		data:            append([]byte{}, data...),
	})
}

// sorted returns every cached item ordered by messageSequence; items with
// equal sequence numbers keep the order they were pushed in.
func (h *handshakeCache) sorted() []*handshakeCacheItem {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := append([]*handshakeCacheItem{}, h.cache...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].messageSequence < out[j].messageSequence
	})

	return out
}

// pullAndMerge concatenates the cached item matching each rule, in rule
// order. A rule that matches nothing contributes nothing, whether it is
// optional or not.
func (h *handshakeCache) pullAndMerge(rules ...handshakeCachePullRule) []byte {
	items := h.sorted()

	var out []byte
	for _, rule := range rules {
		for _, i := range items {
			if i.typ == rule.typ && i.isClient == rule.isClient && i.epoch == rule.epoch {
				out = append(out, i.data...)

				break
			}
		}
	}

	return out
}

// fullPullMap looks for every rule's message among the cached items with a
// messageSequence >= startSeq, decodes each into its concrete handshake.Message,
// and reports ok=false if any non-optional rule has nothing to match yet
// (the flight is still incomplete). cipherSuite is accepted for symmetry
// with callers that gate parsing on the negotiated suite; decoding itself
// only needs the cached item's type and body. On success it also returns
// the message sequence number one past the highest item consumed, so the
// caller can resume from there for the next flight.
func (h *handshakeCache) fullPullMap(
	startSeq int,
	_ CipherSuite,
	rules ...handshakeCachePullRule,
) (int, map[handshake.Type]handshake.Message, bool) {
	items := h.sorted()

	out := map[handshake.Type]handshake.Message{}
	nextSeq := startSeq

	for _, rule := range rules {
		found := false
		for _, i := range items {
			if int(i.messageSequence) < startSeq {
				continue
			}
			if i.typ != rule.typ || i.isClient != rule.isClient || i.epoch != rule.epoch {
				continue
			}

			msg, err := handshake.DecodeMessage(i.typ, i.data)
			if err != nil {
				return 0, nil, false
			}
			out[i.typ] = msg
			found = true
			if int(i.messageSequence)+1 > nextSeq {
				nextSeq = int(i.messageSequence) + 1
			}

			break
		}
		if !found && !rule.optional {
			return 0, nil, false
		}
	}

	return nextSeq, out, true
}

// sessionHash hashes every handshake message sent so far in the given
// epoch, in the order the messages were pushed, up to and including
// ClientKeyExchange — the transcript RFC 7627's extended master secret
// binds to. Push order is used rather than sorted(): client and server
// number their messages independently, so sorting by messageSequence would
// place the client's ClientKeyExchange ahead of later server messages.
// Messages after ClientKeyExchange (CertificateVerify, Finished) are
// deliberately excluded: the session hash must be fixed before Finished
// can be computed from it.
func (h *handshakeCache) sessionHash(hf func() hash.Hash, epoch uint16) ([]byte, error) {
	h.mu.Lock()
	items := append([]*handshakeCacheItem{}, h.cache...)
	h.mu.Unlock()

	hasher := hf()
	for _, i := range items {
		if i.epoch != epoch {
			continue
		}
		if _, err := hasher.Write(i.data); err != nil {
			return nil, err
		}
		if i.typ == handshake.TypeClientKeyExchange {
			break
		}
	}

	return hasher.Sum(nil), nil
}

// sessionHashWithExtra is sessionHash plus a trailing chunk of already
// marshaled but not-yet-cached messages, for the side generating
// ClientKeyExchange itself: the handshaker only records a flight's
// messages in the cache once its generator returns, so the generator
// passes its own pending bytes in directly rather than reading them back.
func (h *handshakeCache) sessionHashWithExtra(hf func() hash.Hash, epoch uint16, extra []byte) ([]byte, error) {
	if len(extra) == 0 {
		return h.sessionHash(hf, epoch)
	}

	items := h.sorted()

	hasher := hf()
	for _, i := range items {
		if i.epoch != epoch {
			continue
		}
		if i.typ == handshake.TypeClientKeyExchange {
			break
		}
		if _, err := hasher.Write(i.data); err != nil {
			return nil, err
		}
	}
	if _, err := hasher.Write(extra); err != nil {
		return nil, err
	}

	return hasher.Sum(nil), nil
}
