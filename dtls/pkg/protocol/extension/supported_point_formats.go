// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

// EllipticCurvePointFormat registers the point formats a peer accepts.
// https://tools.ietf.org/html/rfc4492#section-5.1.2
type EllipticCurvePointFormat byte

// EllipticCurvePointFormatUncompressed is the only format in common use and
// the only one this module offers.
const EllipticCurvePointFormatUncompressed EllipticCurvePointFormat = 0

// SupportedPointFormats allows a client to advertise supported point formats.
type SupportedPointFormats struct {
	PointFormats []EllipticCurvePointFormat
}

func (s SupportedPointFormats) TypeValue() TypeValue { return SupportedPointFormatsTypeValue }

func (s *SupportedPointFormats) Marshal() ([]byte, error) {
	out := make([]byte, 1, 1+len(s.PointFormats))
	out[0] = byte(len(s.PointFormats))
	for _, p := range s.PointFormats {
		out = append(out, byte(p))
	}

	return out, nil
}

func (s *SupportedPointFormats) Unmarshal(data []byte) error {
	if len(data) < 1 {
		return errBufferTooSmall
	}
	declared := int(data[0])
	if len(data) < 1+declared {
		return errLengthMismatch
	}

	s.PointFormats = nil
	for i := 0; i < declared; i++ {
		s.PointFormats = append(s.PointFormats, EllipticCurvePointFormat(data[1+i]))
	}

	return nil
}
