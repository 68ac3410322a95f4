package stun

import "errors"

var (
	errMessageTooShort     = errors.New("stun: message shorter than declared length")
	errBadMagicCookie      = errors.New("stun: magic cookie mismatch")
	errAttributeTooLong    = errors.New("stun: attribute value runs past message end")
	errMalformedAttribute  = errors.New("stun: malformed attribute value")
	errUnknownAddressFamily = errors.New("stun: unknown address family in XOR-MAPPED-ADDRESS")
)
