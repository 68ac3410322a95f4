package stun

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindingRequestRoundTrip(t *testing.T) {
	m := NewBindingRequest()
	m.AddUsername("BOB:ALICE")
	m.AddPriority(12345)
	m.AddICEControlling(9999)
	m.AddUseCandidate()

	raw, err := m.Marshal("somepassword", true)
	require.NoError(t, err)

	parsed, err := Unmarshal(raw)
	require.NoError(t, err)

	assert.True(t, parsed.IsRequest())
	assert.Equal(t, m.TransactionID, parsed.TransactionID)

	username, ok := parsed.Username()
	assert.True(t, ok)
	assert.Equal(t, "BOB:ALICE", username)

	priority, ok := parsed.Priority()
	assert.True(t, ok)
	assert.Equal(t, uint32(12345), priority)

	tiebreaker, ok := parsed.ICEControlling()
	assert.True(t, ok)
	assert.Equal(t, uint64(9999), tiebreaker)

	assert.True(t, parsed.HasUseCandidate())
	assert.True(t, parsed.VerifyMessageIntegrity("somepassword"))
	assert.False(t, parsed.VerifyMessageIntegrity("wrongpassword"))
	assert.True(t, parsed.VerifyFingerprint())
}

func TestXORMappedAddressIPv4(t *testing.T) {
	m := NewBindingSuccessResponse([TransactionIDLength]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	addr := &net.UDPAddr{IP: net.ParseIP("203.0.113.42"), Port: 54321}
	m.AddXORMappedAddress(addr)

	raw, err := m.Marshal("", false)
	require.NoError(t, err)

	parsed, err := Unmarshal(raw)
	require.NoError(t, err)

	got, ok := parsed.XORMappedAddress()
	require.True(t, ok)
	assert.True(t, got.IP.Equal(addr.IP.To4()))
	assert.Equal(t, addr.Port, got.Port)
}

func TestXORMappedAddressIPv6(t *testing.T) {
	m := NewBindingSuccessResponse([TransactionIDLength]byte{})
	addr := &net.UDPAddr{IP: net.ParseIP("2001:db8::1"), Port: 4242}
	m.AddXORMappedAddress(addr)

	raw, err := m.Marshal("", false)
	require.NoError(t, err)

	parsed, err := Unmarshal(raw)
	require.NoError(t, err)

	got, ok := parsed.XORMappedAddress()
	require.True(t, ok)
	assert.True(t, got.IP.Equal(addr.IP))
	assert.Equal(t, addr.Port, got.Port)
}

func TestUnmarshalRejectsBadMagicCookie(t *testing.T) {
	m := NewBindingRequest()
	raw, err := m.Marshal("", false)
	require.NoError(t, err)
	raw[4] ^= 0xff

	_, err = Unmarshal(raw)
	assert.Error(t, err)
}

func TestUnmarshalRejectsTruncatedMessage(t *testing.T) {
	_, err := Unmarshal([]byte{0, 1, 0, 0})
	assert.Error(t, err)
}

func TestVerifyMessageIntegrityFailsOnTamperedBody(t *testing.T) {
	m := NewBindingRequest()
	m.AddUsername("BOB:ALICE")
	raw, err := m.Marshal("pw", false)
	require.NoError(t, err)

	parsed, err := Unmarshal(raw)
	require.NoError(t, err)
	assert.True(t, parsed.VerifyMessageIntegrity("pw"))

	raw[HeaderLength+4] ^= 0xff // corrupt the USERNAME value in place
	parsed, err = Unmarshal(raw)
	require.NoError(t, err)
	assert.False(t, parsed.VerifyMessageIntegrity("pw"))
}

func TestVerifyOnBuiltMessageReturnsFalse(t *testing.T) {
	m := NewBindingRequest()
	assert.False(t, m.VerifyMessageIntegrity("pw"))
	assert.False(t, m.VerifyFingerprint())
}
