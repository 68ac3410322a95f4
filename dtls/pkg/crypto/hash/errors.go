// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package hash

import (
	"errors"

	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol"
)

var errInvalidHashAlgorithm = &protocol.FatalError{Err: errors.New("invalid hash algorithm")}
