package security

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
}

func TestSealAndOpen(t *testing.T) {
	enc, err := NewAESEncryptorFromBase64(testKey())
	require.NoError(t, err)

	sealed, err := SealString(enc, "penicillin")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "enc:"))
	assert.NotContains(t, sealed, "penicillin")

	other, err := SealString(enc, "penicillin")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, other, "nonce must differ per value")

	plain, err := OpenString(enc, sealed)
	require.NoError(t, err)
	assert.Equal(t, "penicillin", plain)
}

func TestOpenPlaintextPassesThrough(t *testing.T) {
	enc, err := NewAESEncryptorFromBase64(testKey())
	require.NoError(t, err)

	plain, err := OpenString(enc, "legacy value")
	require.NoError(t, err)
	assert.Equal(t, "legacy value", plain)
}

func TestOpenRejectsTampering(t *testing.T) {
	enc, err := NewAESEncryptorFromBase64(testKey())
	require.NoError(t, err)
	sealed, err := SealString(enc, "secret")
	require.NoError(t, err)

	raw, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, "enc:"))
	raw[len(raw)-1] ^= 0xff
	_, err = OpenString(enc, "enc:"+base64.StdEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrDecryption)

	_, err = OpenString(enc, "enc:!!!")
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestInvalidKey(t *testing.T) {
	_, err := NewAESEncryptorFromBase64(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrInvalidKeySize)

	_, err = NewAESEncryptorFromBase64("not base64!")
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}
