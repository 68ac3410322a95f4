// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package protocol

// CompressionMethodID is the IANA registered compression method identifier.
// https://tools.ietf.org/html/rfc5246#appendix-A.4.1
type CompressionMethodID byte

// CompressionMethodNull is the only compression method this module offers;
// TLS-layer compression is not implemented (and is broadly deprecated).
const CompressionMethodNull CompressionMethodID = 0
