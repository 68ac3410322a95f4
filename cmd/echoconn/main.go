// Command echoconn establishes a single peer-to-peer connection over UDP —
// ICE connectivity checks followed by a DTLS handshake — and echoes
// whatever application data it receives. It is the one place in this
// module that owns a socket, blocks on a read with a deadline and reads the
// wall clock; dtls.Conn and ice.Agent are driven synchronously by this loop.
package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math/big"
	"net"
	"time"

	"github.com/tgragnato/p2ptransport/dtls"
	"github.com/tgragnato/p2ptransport/ice"
)

func main() {
	listenAddr := flag.String("listen", "127.0.0.1:4444", "local UDP address to bind")
	remoteAddr := flag.String("remote", "127.0.0.1:5555", "peer's UDP address")
	controlling := flag.Bool("controlling", true, "act as the ICE controlling agent and the DTLS client")
	flag.Parse()

	local, err := net.ResolveUDPAddr("udp", *listenAddr)
	check(err)
	remote, err := net.ResolveUDPAddr("udp", *remoteAddr)
	check(err)

	sock, err := net.ListenUDP("udp", local)
	check(err)
	defer sock.Close()

	cert := generateSelfSigned()

	agent := ice.NewAgent(ice.AgentConfig{
		IsControlling: *controlling,
		Tiebreaker:    randomTiebreaker(),
		LocalUfrag:    randomUfrag(),
		LocalPassword: randomPassword(),
	})
	// In a real deployment, ufrag/password/candidates are exchanged over a
	// signaling channel. Here the agent takes its own credentials as the
	// peer's too, and there is no exchange: the ufrag and password are drawn
	// at random on each start, so two separately started instances of this
	// binary fail each other's USERNAME and MESSAGE-INTEGRITY checks.
	agent.SetRemoteCredentials(agent.LocalCredentials())

	lc := ice.NewHostCandidate(local.IP, local.Port, 1)
	rc := ice.NewHostCandidate(remote.IP, remote.Port, 1)
	agent.AddLocalCandidate(lc)
	agent.AddRemoteCandidate(rc)

	var conn *dtls.Conn
	if *controlling {
		conn, err = dtls.NewClient(&dtls.Config{Certificates: []tls.Certificate{cert}, InsecureSkipVerify: true})
	} else {
		conn, err = dtls.NewServer(&dtls.Config{Certificates: []tls.Certificate{cert}, ClientAuth: dtls.NoClientCert})
	}
	check(err)

	handshakeStarted := false

	for {
		deadline := nextDeadline(agent, conn)
		sock.SetReadDeadline(deadline)

		buf := make([]byte, 1500)
		n, src, err := sock.ReadFromUDP(buf)
		now := time.Now()

		switch {
		case err == nil:
			data := buf[:n]
			if looksLikeStun(data) {
				if ierr := agent.HandleInbound(now, lc.ID, src, data); ierr != nil {
					log.Printf("ice: %v", ierr)
				}
			} else if herr := conn.HandleRead(now, data); herr != nil {
				log.Printf("dtls: %v", herr)
			}
		case isTimeout(err):
			// fall through to timer servicing below
		default:
			log.Fatalf("read: %v", err)
		}

		if aerr := agent.HandleTimeout(now); aerr != nil {
			log.Printf("ice timeout: %v", aerr)
		}
		if _, selected := agent.SelectedPair(); selected && !handshakeStarted {
			handshakeStarted = true
			if serr := conn.Step(now); serr != nil {
				log.Printf("dtls step: %v", serr)
			}
		} else if handshakeStarted {
			if terr := conn.HandleTimeout(now); terr != nil {
				log.Printf("dtls timeout: %v", terr)
			}
		}

		for _, pkt := range agent.PollTransmit() {
			_, _ = sock.WriteToUDP(pkt.Data, pkt.Dest)
		}
		for _, raw := range conn.PollTransmit() {
			_, _ = sock.WriteToUDP(raw, remote)
		}

		if conn.HandshakeComplete() {
			for {
				msg, ok := conn.Read()
				if !ok {
					break
				}
				fmt.Printf("received %d bytes: %q\n", len(msg), msg)
			}
		}
	}
}

func nextDeadline(agent *ice.Agent, conn *dtls.Conn) time.Time {
	deadline := time.Now().Add(200 * time.Millisecond)
	if t, ok := agent.PollTimeout(); ok && t.Before(deadline) {
		deadline = t
	}
	if t, ok := conn.PollTimeout(); ok && t.Before(deadline) {
		deadline = t
	}
	return deadline
}

// looksLikeStun applies the same heuristic RFC 5389 §8 recommends for
// demultiplexing STUN from other protocols sharing a port: the two
// high bits of the first byte are zero (STUN message type) and bytes 4-8
// carry the fixed magic cookie. A DTLS record's first byte is a
// ContentType in [20,23], whose two high bits are zero as well, so only the
// magic cookie check tells the two apart.
func looksLikeStun(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	if data[0]&0xc0 != 0 {
		return false
	}
	return binary.BigEndian.Uint32(data[4:8]) == 0x2112A442
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

func check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func generateSelfSigned() tls.Certificate {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	check(err)

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	check(err)

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "p2ptransport self-signed"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	check(err)

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

func randomUfrag() string {
	return fmt.Sprintf("%x", randomBytes(4))
}

func randomPassword() string {
	return fmt.Sprintf("%x", randomBytes(12))
}

func randomTiebreaker() uint64 {
	b := randomBytes(8)
	return binary.BigEndian.Uint64(b)
}
