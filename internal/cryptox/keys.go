package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"

	"github.com/dmitrijs2005/transferguard/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// SaltSize is the length of the random salt stored with each transfer.
const SaltSize = 16

// FileKeyInfo is the HKDF info label for per-file keys.
const FileKeyInfo = "transferguard-file-v1"

// GenerateKey returns a random 256-bit key.
func GenerateKey() []byte {
	return common.GenerateRandByteArray(KeySize)
}

// DeriveMasterKey stretches a passphrase into a 256-bit key with Argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}

// MakeVerifier returns a value that can be stored next to a transfer to
// check a candidate master key without decrypting any chunk.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// CheckVerifier compares masterKey against a stored verifier in constant time.
func CheckVerifier(masterKey, verifier []byte) bool {
	return subtle.ConstantTimeCompare(MakeVerifier(masterKey), verifier) == 1
}

// DeriveFileKey derives the key used for the chunks of one file from the
// transfer master key. salt binds the key to the transfer (its id).
func DeriveFileKey(masterKey, salt []byte) ([]byte, error) {
	if len(masterKey) != KeySize {
		return nil, fmt.Errorf("%w: master key must be %d bytes", common.ErrInvalidKey, KeySize)
	}

	r := hkdf.New(sha256.New, masterKey, salt, []byte(FileKeyInfo))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return key, nil
}
