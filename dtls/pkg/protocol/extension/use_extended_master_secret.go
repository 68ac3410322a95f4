// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

// UseExtendedMasterSecret signals support for the session-hash-bound master
// secret derivation. https://tools.ietf.org/html/rfc7627
type UseExtendedMasterSecret struct{}

func (u UseExtendedMasterSecret) TypeValue() TypeValue { return UseExtendedMasterSecretTypeValue }

func (u *UseExtendedMasterSecret) Marshal() ([]byte, error) { return []byte{}, nil }

func (u *UseExtendedMasterSecret) Unmarshal([]byte) error { return nil }
