// Package cryptox implements the chunk frame format and key handling used by
// the encryption workers.
//
// A ciphertext frame is laid out as
//
//	offset 0..11   nonce (fresh random value per Seal)
//	offset 12..end ciphertext || 16-byte authentication tag
//
// Both supported ciphers use a 256-bit key, a 12-byte nonce and a 16-byte
// tag, so frames produced by either have identical framing.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/transferguard/internal/common"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16
	// Overhead is the number of bytes a frame adds to its plaintext.
	Overhead = NonceSize + TagSize
)

// Cipher names accepted by NewAEAD.
const (
	CipherAES256GCM        = "aes-256-gcm"
	CipherChaCha20Poly1305 = "chacha20-poly1305"
)

// NewAEAD builds the AEAD named by name over a 32-byte key. An empty name
// selects AES-256-GCM.
func NewAEAD(name string, key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", common.ErrInvalidKey, KeySize, len(key))
	}

	switch strings.ToLower(name) {
	case CipherAES256GCM, "":
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case CipherChaCha20Poly1305:
		return chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("unsupported cipher %q", name)
	}
}

// ValidCipher reports whether name is accepted by NewAEAD.
func ValidCipher(name string) bool {
	switch strings.ToLower(name) {
	case CipherAES256GCM, CipherChaCha20Poly1305, "":
		return true
	}
	return false
}
