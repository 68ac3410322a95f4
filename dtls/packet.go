// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import "github.com/tgragnato/p2ptransport/dtls/pkg/protocol/recordlayer"

// packet is a single record layer message queued for transmission. resetLocalSequenceNumber
// marks the start of a new epoch: the local sequence number for that epoch must begin at 0.
type packet struct {
	record                   *recordlayer.RecordLayer
	shouldEncrypt            bool
	resetLocalSequenceNumber bool
}
