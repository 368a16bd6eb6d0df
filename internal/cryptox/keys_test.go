package cryptox

import (
	"encoding/hex"
	"testing"

	"github.com/dmitrijs2005/transferguard/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveMasterKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	// argon2id t=1 m=64MiB p=4

	key1 := DeriveMasterKey(password, salt)
	key2 := DeriveMasterKey(password, salt)

	require.Equal(t, key1, key2)
	require.Len(t, key1, KeySize)
	assert.Equal(t, "9290403300158e19f27e48e7087f7383b03065bf5b25ef23ebc40229616cd8b3", hex.EncodeToString(key1))
}

func TestDeriveMasterKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")

	assert.NotEqual(t, DeriveMasterKey(password, []byte("salt-1")), DeriveMasterKey(password, []byte("salt-2")))
}

func TestVerifier(t *testing.T) {
	master := GenerateKey()
	verifier := MakeVerifier(master)

	assert.Len(t, verifier, 32)
	assert.True(t, CheckVerifier(master, verifier))
	assert.False(t, CheckVerifier(GenerateKey(), verifier))
	assert.False(t, CheckVerifier(master, verifier[:16]))
}

func TestDeriveFileKey(t *testing.T) {
	master := make([]byte, KeySize)

	a, err := DeriveFileKey(master, []byte("transfer-a"))
	require.NoError(t, err)
	again, err := DeriveFileKey(master, []byte("transfer-a"))
	require.NoError(t, err)
	b, err := DeriveFileKey(master, []byte("transfer-b"))
	require.NoError(t, err)

	assert.Len(t, a, KeySize)
	assert.Equal(t, a, again)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, master, a)

	_, err = DeriveFileKey([]byte("short"), nil)
	require.ErrorIs(t, err, common.ErrInvalidKey)
}

func TestGenerateKey(t *testing.T) {
	a, b := GenerateKey(), GenerateKey()
	assert.Len(t, a, KeySize)
	assert.NotEqual(t, a, b)
}
