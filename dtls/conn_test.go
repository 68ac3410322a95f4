// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"crypto/tls"
	"testing"
	"time"
)

// pumpUntilComplete drives client and server with synthetic time and a
// purely in-memory datagram relay until both report HandshakeComplete, or
// fails the test after a generous number of rounds — a real deadlock would
// otherwise spin pumpUntilComplete forever, since neither Conn owns a timer
// of its own to bound it.
func pumpUntilComplete(t *testing.T, client, server *Conn) {
	t.Helper()

	now := time.Now()
	if err := client.Step(now); err != nil {
		t.Fatalf("client.Step: %v", err)
	}

	for round := 0; round < 100; round++ {
		now = now.Add(10 * time.Millisecond)

		progressed := false
		for _, raw := range client.PollTransmit() {
			if err := server.HandleRead(now, raw); err != nil {
				t.Fatalf("server.HandleRead: %v", err)
			}
			progressed = true
		}
		for _, raw := range server.PollTransmit() {
			if err := client.HandleRead(now, raw); err != nil {
				t.Fatalf("client.HandleRead: %v", err)
			}
			progressed = true
		}

		if err := client.Step(now); err != nil {
			t.Fatalf("client.Step: %v", err)
		}
		if err := server.Step(now); err != nil {
			t.Fatalf("server.Step: %v", err)
		}

		if client.HandshakeComplete() && server.HandshakeComplete() {
			return
		}
		if !progressed {
			if deadline, ok := client.PollTimeout(); ok && !deadline.After(now) {
				if err := client.HandleTimeout(now); err != nil {
					t.Fatalf("client.HandleTimeout: %v", err)
				}

				continue
			}
			if deadline, ok := server.PollTimeout(); ok && !deadline.After(now) {
				if err := server.HandleTimeout(now); err != nil {
					t.Fatalf("server.HandleTimeout: %v", err)
				}

				continue
			}
		}
	}

	t.Fatalf("handshake did not complete: client=%v server=%v", client.HandshakeComplete(), server.HandshakeComplete())
}

func TestConnClientServerHandshakeAndEcho(t *testing.T) {
	cert, err := generateSelfSignedForTest()
	if err != nil {
		t.Fatalf("generateSelfSignedForTest: %v", err)
	}

	client, err := NewClient(&Config{
		Certificates:       []tls.Certificate{cert},
		InsecureSkipVerify: true,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	server, err := NewServer(&Config{
		Certificates: []tls.Certificate{cert},
		ClientAuth:   NoClientCert,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	pumpUntilComplete(t, client, server)

	want := []byte("ping")
	if _, err := client.Write(want); err != nil {
		t.Fatalf("client.Write: %v", err)
	}

	now := time.Now()
	for _, raw := range client.PollTransmit() {
		if err := server.HandleRead(now, raw); err != nil {
			t.Fatalf("server.HandleRead: %v", err)
		}
	}

	got, ok := server.Read()
	if !ok {
		t.Fatal("server.Read: no application data queued")
	}
	if string(got) != string(want) {
		t.Fatalf("server.Read: got %q, want %q", got, want)
	}
}

func TestConnWriteBeforeHandshakeFails(t *testing.T) {
	cert, err := generateSelfSignedForTest()
	if err != nil {
		t.Fatalf("generateSelfSignedForTest: %v", err)
	}

	client, err := NewClient(&Config{
		Certificates:       []tls.Certificate{cert},
		InsecureSkipVerify: true,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.Write([]byte("too soon")); err != errHandshakeInProgress {
		t.Fatalf("client.Write: got %v, want %v", err, errHandshakeInProgress)
	}
}

func TestConnCloseIsIdempotent(t *testing.T) {
	cert, err := generateSelfSignedForTest()
	if err != nil {
		t.Fatalf("generateSelfSignedForTest: %v", err)
	}

	client, err := NewClient(&Config{
		Certificates:       []tls.Certificate{cert},
		InsecureSkipVerify: true,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := client.Step(time.Now()); err != ErrConnClosed {
		t.Fatalf("Step after Close: got %v, want %v", err, ErrConnClosed)
	}
}
