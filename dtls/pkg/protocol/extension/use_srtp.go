// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import "encoding/binary"

// UseSRTP negotiates a DTLS-SRTP protection profile and MKI length.
// https://tools.ietf.org/html/rfc5764#section-4.1.1
type UseSRTP struct {
	ProtectionProfiles []SRTPProtectionProfile
	Mki                []byte
}

func (u UseSRTP) TypeValue() TypeValue { return UseSRTPTypeValue }

func (u *UseSRTP) Marshal() ([]byte, error) {
	if len(u.Mki) > 255 {
		return nil, errMasterKeyIdentifierTooLarge
	}

	out := make([]byte, 2, 2+2*len(u.ProtectionProfiles)+1+len(u.Mki))
	binary.BigEndian.PutUint16(out, uint16(2*len(u.ProtectionProfiles)))
	for _, p := range u.ProtectionProfiles {
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(p))
		out = append(out, b...)
	}

	out = append(out, byte(len(u.Mki)))
	out = append(out, u.Mki...)

	return out, nil
}

func (u *UseSRTP) Unmarshal(data []byte) error {
	if len(data) < 2 {
		return errBufferTooSmall
	}
	declared := int(binary.BigEndian.Uint16(data))
	if len(data) < 2+declared+1 {
		return errLengthMismatch
	}

	u.ProtectionProfiles = nil
	profiles := srtpProtectionProfiles()
	for i := 0; i < declared; i += 2 {
		p := SRTPProtectionProfile(binary.BigEndian.Uint16(data[2+i:]))
		if _, ok := profiles[p]; ok {
			u.ProtectionProfiles = append(u.ProtectionProfiles, p)
		}
	}

	mkiOffset := 2 + declared
	mkiLen := int(data[mkiOffset])
	if len(data) < mkiOffset+1+mkiLen {
		return errBufferTooSmall
	}
	u.Mki = append([]byte{}, data[mkiOffset+1:mkiOffset+1+mkiLen]...)

	return nil
}
