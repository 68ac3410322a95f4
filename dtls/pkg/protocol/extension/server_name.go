// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import "encoding/binary"

const serverNameTypeDNSHostname = 0

// ServerName implements the SNI extension. https://tools.ietf.org/html/rfc6066#section-3
type ServerName struct {
	ServerName string
}

func (s ServerName) TypeValue() TypeValue { return ServerNameTypeValue }

func (s *ServerName) Marshal() ([]byte, error) {
	name := []byte(s.ServerName)

	listEntry := make([]byte, 3, 3+len(name))
	listEntry[0] = serverNameTypeDNSHostname
	binary.BigEndian.PutUint16(listEntry[1:], uint16(len(name)))
	listEntry = append(listEntry, name...)

	out := make([]byte, 2, 2+len(listEntry))
	binary.BigEndian.PutUint16(out, uint16(len(listEntry)))

	return append(out, listEntry...), nil
}

func (s *ServerName) Unmarshal(data []byte) error {
	if len(data) < 2 {
		return errBufferTooSmall
	}
	declared := int(binary.BigEndian.Uint16(data))
	if len(data) < 2+declared || declared < 3 {
		return errInvalidSNIFormat
	}
	data = data[2:]

	if data[0] != serverNameTypeDNSHostname {
		return errInvalidSNIFormat
	}
	nameLen := int(binary.BigEndian.Uint16(data[1:]))
	if len(data) < 3+nameLen {
		return errInvalidSNIFormat
	}
	s.ServerName = string(data[3 : 3+nameLen])

	return nil
}
