package indexmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(b byte) [FieldFingerprintSize]byte {
	var out [FieldFingerprintSize]byte
	out[0] = b
	return out
}

func TestNewRejectsEmptyFingerprints(t *testing.T) {
	_, err := New(1, nil)
	require.Error(t, err)
}

func TestNewRejectsTooManyFields(t *testing.T) {
	fps := make([][FieldFingerprintSize]byte, MaxIndexFields+1)
	_, err := New(1, fps)
	require.Error(t, err)
}

func TestIndexKeyEncodeDecodeRoundTrip(t *testing.T) {
	k, err := New(42, [][FieldFingerprintSize]byte{fp(1), fp(2)})
	require.NoError(t, err)

	buf := k.Encode()
	assert.Len(t, buf, StoredSizeBytes)

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, k, got)
}

func TestDecodeRejectsWrongWidth(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestPrefixMatchesLeadingFields(t *testing.T) {
	a, err := New(1, [][FieldFingerprintSize]byte{fp(1), fp(2), fp(3)})
	require.NoError(t, err)
	b, err := New(1, [][FieldFingerprintSize]byte{fp(1), fp(2), fp(9)})
	require.NoError(t, err)

	assert.True(t, a.Prefix(b, 2))
	assert.False(t, a.Prefix(b, 3))
}

func TestPrefixRejectsDifferentIndexID(t *testing.T) {
	a, err := New(1, [][FieldFingerprintSize]byte{fp(1)})
	require.NoError(t, err)
	b, err := New(2, [][FieldFingerprintSize]byte{fp(1)})
	require.NoError(t, err)
	assert.False(t, a.Prefix(b, 1))
}

func TestCompareOrdersByEncodedBytes(t *testing.T) {
	a, err := New(1, [][FieldFingerprintSize]byte{fp(1)})
	require.NoError(t, err)
	b, err := New(1, [][FieldFingerprintSize]byte{fp(2)})
	require.NoError(t, err)
	assert.Negative(t, a.Compare(b))
	assert.Equal(t, 0, a.Compare(a))
}
