package cryptox

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/dmitrijs2005/transferguard/internal/common"
)

// SealFrame encrypts plaintext under a fresh random nonce and returns
// nonce || ciphertext || tag in a single newly allocated buffer.
func SealFrame(aead cipher.AEAD, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, NonceSize, NonceSize+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// OpenFrame authenticates and decrypts a frame produced by SealFrame.
//
// Decryption happens in place: the returned plaintext shares frame's
// backing array, and frame's contents are undefined afterwards, including
// on failure.
func OpenFrame(aead cipher.AEAD, frame []byte) ([]byte, error) {
	nonce, body, err := SplitFrame(frame)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(body[:0], nonce, body, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrAuthentication, err)
	}

	return plaintext, nil
}

// SplitFrame returns the nonce and the ciphertext||tag part of frame
// without copying.
func SplitFrame(frame []byte) (nonce, body []byte, err error) {
	if len(frame) < Overhead {
		return nil, nil, fmt.Errorf("%w: %d bytes", common.ErrFrameTooShort, len(frame))
	}
	return frame[:NonceSize], frame[NonceSize:], nil
}

// FrameSize is the size of the frame carrying n plaintext bytes.
func FrameSize(n int) int {
	return n + Overhead
}
