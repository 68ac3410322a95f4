// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import "encoding/binary"

// ALPN negotiates the application-layer protocol run over the connection.
// https://tools.ietf.org/html/rfc7301
type ALPN struct {
	ProtocolNameList []string
}

func (a ALPN) TypeValue() TypeValue { return ALPNTypeValue }

func (a *ALPN) Marshal() ([]byte, error) {
	var body []byte
	for _, p := range a.ProtocolNameList {
		if len(p) > 255 {
			return nil, ErrALPNInvalidFormat
		}
		body = append(body, byte(len(p)))
		body = append(body, p...)
	}

	out := make([]byte, 2, 2+len(body))
	binary.BigEndian.PutUint16(out, uint16(len(body)))

	return append(out, body...), nil
}

func (a *ALPN) Unmarshal(data []byte) error {
	if len(data) < 2 {
		return errBufferTooSmall
	}
	declared := int(binary.BigEndian.Uint16(data))
	if len(data) < 2+declared {
		return errLengthMismatch
	}
	data = data[2 : 2+declared]

	a.ProtocolNameList = nil
	for len(data) > 0 {
		n := int(data[0])
		if len(data) < 1+n {
			return ErrALPNInvalidFormat
		}
		a.ProtocolNameList = append(a.ProtocolNameList, string(data[1:1+n]))
		data = data[1+n:]
	}

	return nil
}

// SelectedProtocol returns the first protocol this module supports, to echo
// back in the ServerHello's ALPN extension.
func (a *ALPN) SelectedProtocol(supported []string) (string, error) {
	for _, want := range a.ProtocolNameList {
		for _, have := range supported {
			if want == have {
				return want, nil
			}
		}
	}

	return "", errALPNNoAppProto
}
