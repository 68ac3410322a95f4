// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import (
	"encoding/binary"

	"github.com/tgragnato/p2ptransport/dtls/pkg/crypto/elliptic"
)

// SupportedEllipticCurves allows a client to advertise the named curves it
// supports for ECDHE key exchange. https://tools.ietf.org/html/rfc8422#section-5.1.1
type SupportedEllipticCurves struct {
	EllipticCurves []elliptic.Curve
}

func (s SupportedEllipticCurves) TypeValue() TypeValue { return SupportedEllipticCurvesTypeValue }

func (s *SupportedEllipticCurves) Marshal() ([]byte, error) {
	out := make([]byte, 2, 2+2*len(s.EllipticCurves))
	binary.BigEndian.PutUint16(out, uint16(2*len(s.EllipticCurves)))
	for _, c := range s.EllipticCurves {
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(c))
		out = append(out, b...)
	}

	return out, nil
}

func (s *SupportedEllipticCurves) Unmarshal(data []byte) error {
	if len(data) < 2 {
		return errBufferTooSmall
	}
	declared := int(binary.BigEndian.Uint16(data))
	if len(data) < 2+declared {
		return errLengthMismatch
	}

	s.EllipticCurves = nil
	for i := 0; i < declared; i += 2 {
		s.EllipticCurves = append(s.EllipticCurves, elliptic.Curve(binary.BigEndian.Uint16(data[2+i:])))
	}

	return nil
}
