// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import "github.com/tgragnato/p2ptransport/dtls/pkg/protocol/alert"

// flightVal identifies a step of the RFC 6347 §4.2.4 flight state machine.
// Odd values are sent by the client, even values by the server.
type flightVal uint8

const (
	flight0 flightVal = iota // server: waiting for the first ClientHello
	flight1                  // client: ClientHello (no cookie)
	flight2                  // server: HelloVerifyRequest
	flight3                  // client: ClientHello (with cookie)
	flight4                  // server: ServerHello .. ServerHelloDone
	flight5                  // client: Certificate*, ClientKeyExchange, CertificateVerify*, [ChangeCipherSpec], Finished
	flight6                  // server: [ChangeCipherSpec], Finished
)

func (f flightVal) String() string {
	switch f {
	case flight0:
		return "Flight 0"
	case flight1:
		return "Flight 1"
	case flight2:
		return "Flight 2"
	case flight3:
		return "Flight 3"
	case flight4:
		return "Flight 4"
	case flight5:
		return "Flight 5"
	case flight6:
		return "Flight 6"
	default:
		return "Unknown Flight"
	}
}

// isLastSendFlight reports whether, once this flight has been sent, the
// handshake is complete from the sender's point of view (no further
// messages are expected to go out).
func (f flightVal) isLastSendFlight() bool {
	return f == flight6
}

// isLastRecvFlight reports whether re-observing this same flight value as
// the "next" flight after parsing means the handshake has finished from the
// receiver's point of view.
func (f flightVal) isLastRecvFlight() bool {
	return f == flight5
}

type flightGenerator func(*handshaker) ([]*packet, *alert.Alert, error)
type flightParser func(*handshaker) (flightVal, *alert.Alert, error)

// getFlightGenerator returns the function that builds this flight's
// outbound packets, and whether the flight should be retransmitted on
// timeout while waiting for a response.
func (f flightVal) getFlightGenerator() (flightGenerator, bool, error) {
	switch f {
	case flight0:
		return flight0Generate, false, nil
	case flight2:
		return flight2Generate, true, nil
	case flight1:
		return flight1Generate, true, nil
	case flight3:
		return flight3Generate, true, nil
	case flight4:
		return flight4Generate, true, nil
	case flight5:
		return flight5Generate, true, nil
	case flight6:
		return flight6Generate, false, nil
	default:
		return nil, false, errInvalidFlight
	}
}

// getFlightParser returns the function that inspects the handshake cache
// for this flight's expected inbound messages.
func (f flightVal) getFlightParser() (flightParser, error) {
	switch f {
	case flight0:
		return flight0Parse, nil
	case flight1:
		return flight1Parse, nil
	case flight2:
		return flight2Parse, nil
	case flight3:
		return flight3Parse, nil
	case flight4:
		return flight4Parse, nil
	case flight5:
		return flight5Parse, nil
	case flight6:
		return flight6Parse, nil
	default:
		return nil, errInvalidFlight
	}
}
