package icydb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageKeyUintRoundTrip(t *testing.T) {
	buf, err := EncodeStorageKey(Uint(42))
	require.NoError(t, err)
	assert.Len(t, buf, StorageKeyUint.EncodedWidth())

	got, err := DecodeStorageKey(StorageKeyUint, buf)
	require.NoError(t, err)
	assert.Equal(t, Uint(42), got)
}

func TestStorageKeyIntPreservesOrderAcrossSign(t *testing.T) {
	neg, err := EncodeStorageKey(Int(-5))
	require.NoError(t, err)
	pos, err := EncodeStorageKey(Int(5))
	require.NoError(t, err)
	assert.Negative(t, compareBytes(neg, pos), "encoded negative key must sort before positive")

	got, err := DecodeStorageKey(StorageKeyInt, neg)
	require.NoError(t, err)
	assert.Equal(t, Int(-5), got)
}

func TestStorageKeyTextRoundTrip(t *testing.T) {
	buf, err := EncodeStorageKey(Text("hello"))
	require.NoError(t, err)
	got, err := DecodeStorageKey(StorageKeyText, buf)
	require.NoError(t, err)
	assert.Equal(t, Text("hello"), got)
}

func TestStorageKeyTextRejectsOverCap(t *testing.T) {
	long := make([]byte, TextKeyCap+1)
	_, err := EncodeStorageKey(Text(long))
	require.Error(t, err)
}

func TestStorageKeyAccountRoundTrip(t *testing.T) {
	acc := Account{Owner: Principal{1, 2, 3}, Subaccount: [32]byte{9: 1}}
	buf, err := EncodeStorageKey(acc)
	require.NoError(t, err)
	got, err := DecodeStorageKey(StorageKeyAccount, buf)
	require.NoError(t, err)
	assert.Equal(t, acc, got)
}

func TestStorageKeyPrincipalRejectsOverCap(t *testing.T) {
	long := make(Principal, PrincipalMaxBytes+1)
	_, err := EncodeStorageKey(long)
	require.Error(t, err)
}

func TestDecodeStorageKeyRejectsWrongWidth(t *testing.T) {
	_, err := DecodeStorageKey(StorageKeyUint, []byte{1, 2, 3})
	require.Error(t, err)
}

func TestDecodeStorageKeyRejectsTagMismatch(t *testing.T) {
	buf, err := EncodeStorageKey(Uint(1))
	require.NoError(t, err)
	buf[0] = storageKeyTag[StorageKeyInt]
	_, err = DecodeStorageKey(StorageKeyUint, buf)
	require.Error(t, err)
}

func TestDataKeyRoundTrip(t *testing.T) {
	dk := DataKey{Entity: "widget", Key: Uint(7)}
	buf, err := dk.Encode(StorageKeyUint)
	require.NoError(t, err)

	got, err := DecodeDataKey(StorageKeyUint, buf)
	require.NoError(t, err)
	assert.Equal(t, dk, got)
}

func TestDataKeyEncodeRejectsMismatchedKeyKind(t *testing.T) {
	dk := DataKey{Entity: "widget", Key: Uint(7)}
	_, err := dk.Encode(StorageKeyText)
	require.Error(t, err)
}
