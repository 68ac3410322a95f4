package sctp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamRoundTripPadded(t *testing.T) {
	p := Param{Type: 0x0005, Value: []byte{1, 2, 3}} // length 7, needs one pad byte
	raw := p.Marshal()
	assert.Equal(t, 8, len(raw))

	got, n, err := Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, len(raw), n)
	assert.Equal(t, p.Type, got.Type)
	assert.Equal(t, p.Value, got.Value)
}

func TestParamRoundTripUnpadded(t *testing.T) {
	p := Param{Type: 0x000c, Value: []byte{1, 2, 3, 4}} // length 8, already aligned
	raw := p.Marshal()
	assert.Equal(t, 8, len(raw))

	got, n, err := Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, p.Value, got.Value)
}

func TestUnmarshalAllSequence(t *testing.T) {
	a := Param{Type: 1, Value: []byte{0xaa}}
	b := Param{Type: 2, Value: []byte{0xbb, 0xcc, 0xdd, 0xee}}

	buf := append(a.Marshal(), b.Marshal()...)

	params, err := UnmarshalAll(buf)
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, a.Value, params[0].Value)
	assert.Equal(t, b.Value, params[1].Value)
}

func TestUnmarshalRejectsShortBuffer(t *testing.T) {
	_, _, err := Unmarshal([]byte{0, 1})
	assert.Error(t, err)
}

func TestUnmarshalRejectsBadLengthField(t *testing.T) {
	buf := []byte{0, 1, 0, 2} // length field (2) smaller than header (4)
	_, _, err := Unmarshal(buf)
	assert.Error(t, err)
}

func TestUnmarshalRejectsTruncatedValue(t *testing.T) {
	buf := []byte{0, 1, 0, 10, 1, 2} // declares 10 bytes, only 6 present
	_, _, err := Unmarshal(buf)
	assert.Error(t, err)
}
