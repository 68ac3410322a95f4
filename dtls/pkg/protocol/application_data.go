// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package protocol

// ApplicationData is an opaque payload carried once the handshake has
// completed and a record-layer epoch has a cipher suite installed.
// https://tools.ietf.org/html/rfc5246#section-10
type ApplicationData struct {
	Data []byte
}

// ContentType implements recordlayer.Content.
func (a *ApplicationData) ContentType() ContentType {
	return ContentTypeApplicationData
}

// Marshal returns Data unchanged: ApplicationData has no framing of its own.
func (a *ApplicationData) Marshal() ([]byte, error) {
	return a.Data, nil
}

// Unmarshal stores data unchanged.
func (a *ApplicationData) Unmarshal(data []byte) error {
	a.Data = append([]byte{}, data...)

	return nil
}
