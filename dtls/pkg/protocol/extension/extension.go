// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package extension implements the DTLS Hello extensions.
// https://tools.ietf.org/html/rfc6066
package extension

import "encoding/binary"

// TypeValue is the IANA registered extension identifier.
type TypeValue uint16

// Extension types in use by this module.
const (
	SupportedEllipticCurvesTypeValue       TypeValue = 10
	SupportedPointFormatsTypeValue         TypeValue = 11
	SupportedSignatureAlgorithmsTypeValue  TypeValue = 13
	UseSRTPTypeValue                       TypeValue = 14
	ALPNTypeValue                          TypeValue = 16
	UseExtendedMasterSecretTypeValue       TypeValue = 23
	ServerNameTypeValue                    TypeValue = 0
)

// Extension is a single DTLS hello extension.
type Extension interface {
	TypeValue() TypeValue
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

func newExtension(t TypeValue) Extension {
	switch t {
	case SupportedEllipticCurvesTypeValue:
		return &SupportedEllipticCurves{}
	case SupportedPointFormatsTypeValue:
		return &SupportedPointFormats{}
	case SupportedSignatureAlgorithmsTypeValue:
		return &SupportedSignatureAlgorithms{}
	case UseSRTPTypeValue:
		return &UseSRTP{}
	case ALPNTypeValue:
		return &ALPN{}
	case UseExtendedMasterSecretTypeValue:
		return &UseExtendedMasterSecret{}
	case ServerNameTypeValue:
		return &ServerName{}
	default:
		return nil
	}
}

// Marshal encodes a list of extensions into the two-length-prefixed
// extensions block appended to ClientHello/ServerHello.
func Marshal(extensions []Extension) ([]byte, error) {
	if len(extensions) == 0 {
		return []byte{}, nil
	}

	var body []byte
	for _, e := range extensions {
		raw, err := e.Marshal()
		if err != nil {
			return nil, err
		}
		header := make([]byte, 4)
		binary.BigEndian.PutUint16(header[0:], uint16(e.TypeValue()))
		binary.BigEndian.PutUint16(header[2:], uint16(len(raw)))
		body = append(body, header...)
		body = append(body, raw...)
	}

	out := make([]byte, 2, 2+len(body))
	binary.BigEndian.PutUint16(out, uint16(len(body)))

	return append(out, body...), nil
}

// Unmarshal decodes the two-length-prefixed extensions block. Unknown
// extension types are skipped, not an error: RFC 5246 requires peers ignore
// extensions they do not understand.
func Unmarshal(data []byte) ([]Extension, error) {
	if len(data) < 2 {
		return nil, errBufferTooSmall
	}
	totalLen := int(binary.BigEndian.Uint16(data))
	data = data[2:]
	if len(data) < totalLen {
		return nil, errLengthMismatch
	}
	data = data[:totalLen]

	var out []Extension
	for len(data) > 0 {
		if len(data) < 4 {
			return nil, errBufferTooSmall
		}
		typeValue := TypeValue(binary.BigEndian.Uint16(data))
		extLen := int(binary.BigEndian.Uint16(data[2:]))
		if len(data) < 4+extLen {
			return nil, errBufferTooSmall
		}
		raw := data[4 : 4+extLen]
		data = data[4+extLen:]

		ext := newExtension(typeValue)
		if ext == nil {
			continue // unknown extension, ignored per RFC 5246 §7.4.1.4
		}
		if err := ext.Unmarshal(raw); err != nil {
			return nil, err
		}
		out = append(out, ext)
	}

	return out, nil
}
