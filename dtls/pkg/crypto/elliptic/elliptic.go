// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package elliptic implements the named elliptic curves used for ECDHE key
// exchange. https://tools.ietf.org/html/rfc4492#section-5.1.1
package elliptic

import (
	"crypto/ecdh"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/tgragnato/p2ptransport/dtls/pkg/protocol"
)

var errInvalidNamedCurve = &protocol.FatalError{Err: errors.New("invalid named curve")}

// Curve is the IANA registered named curve identifier.
// https://tools.ietf.org/html/rfc8422#section-5.1.1
type Curve uint16

// Curves supported for ECDHE key exchange.
const (
	X25519 Curve = 29
	P384   Curve = 24
)

func (c Curve) String() string {
	switch c {
	case X25519:
		return "X25519"
	case P384:
		return "P-384"
	default:
		return fmt.Sprintf("0x%x", uint16(c))
	}
}

func (c Curve) toECDH() (ecdh.Curve, error) {
	switch c {
	case X25519:
		return ecdh.X25519(), nil
	case P384:
		return ecdh.P384(), nil
	default:
		return nil, errInvalidNamedCurve
	}
}

// Keypair is an ephemeral ECDHE keypair for a single handshake.
type Keypair struct {
	Curve      Curve
	PublicKey  []byte
	PrivateKey *ecdh.PrivateKey
}

// GenerateKeypair creates a fresh ephemeral keypair on the given curve.
func GenerateKeypair(curve Curve) (*Keypair, error) {
	c, err := curve.toECDH()
	if err != nil {
		return nil, err
	}

	priv, err := c.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	return &Keypair{
		Curve:      curve,
		PublicKey:  priv.PublicKey().Bytes(),
		PrivateKey: priv,
	}, nil
}

// SharedSecret performs the ECDH exchange against a peer's public key bytes.
func (k *Keypair) SharedSecret(peerPublicKey []byte) ([]byte, error) {
	c, err := k.Curve.toECDH()
	if err != nil {
		return nil, err
	}
	peer, err := c.NewPublicKey(peerPublicKey)
	if err != nil {
		return nil, err
	}

	return k.PrivateKey.ECDH(peer)
}
