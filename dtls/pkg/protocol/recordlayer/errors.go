// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package recordlayer

import (
	"errors"

	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol"
)

var (
	// ErrInvalidPacketLength is returned when the packet length too small
	// or declared length do not match.
	ErrInvalidPacketLength = &protocol.TemporaryError{
		Err: errors.New("packet length and declared length do not match"),
	}

	errSequenceNumberOverflow     = &protocol.InternalError{Err: errors.New("sequence number overflow")}
	errUnsupportedProtocolVersion = &protocol.FatalError{Err: errors.New("unsupported protocol version")}
	errInvalidContentType         = &protocol.TemporaryError{Err: errors.New("invalid content type")}
)
