// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

// MessageCertificate carries an X.509 certificate chain, each entry
// length-prefixed within an outer 24-bit-length-prefixed vector.
// https://tools.ietf.org/html/rfc5246#section-7.4.2
type MessageCertificate struct {
	Certificate [][]byte
}

func (m MessageCertificate) Type() Type { return TypeCertificate }

func (m *MessageCertificate) Marshal() ([]byte, error) {
	var certsRaw []byte
	for _, cert := range m.Certificate {
		entry := make([]byte, 3, 3+len(cert))
		putUint24(entry, uint32(len(cert)))
		entry = append(entry, cert...)
		certsRaw = append(certsRaw, entry...)
	}

	out := make([]byte, 3, 3+len(certsRaw))
	putUint24(out, uint32(len(certsRaw)))

	return append(out, certsRaw...), nil
}

func (m *MessageCertificate) Unmarshal(data []byte) error {
	if len(data) < 3 {
		return errBufferTooSmall
	}
	declared := int(getUint24(data[0:3]))
	data = data[3:]
	if len(data) < declared {
		return errLengthMismatch
	}
	data = data[:declared]

	m.Certificate = nil
	for len(data) > 0 {
		if len(data) < 3 {
			return errBufferTooSmall
		}
		certLen := int(getUint24(data[0:3]))
		data = data[3:]
		if len(data) < certLen {
			return errBufferTooSmall
		}
		m.Certificate = append(m.Certificate, append([]byte{}, data[:certLen]...))
		data = data[certLen:]
	}

	return nil
}
