// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package prf

import (
	"errors"

	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol"
)

var errInvalidKeyingLabel = &protocol.FatalError{Err: errors.New("export keying material invoked with a reserved label")}
