// Package models defines the local manifest records kept for each transfer.
package models

import "time"

// Transfer is one file sent through the pipeline.
type Transfer struct {
	// ID is a uuid and the HKDF salt for the file key.
	ID       string
	FileName string
	// Size is the plaintext length in bytes.
	Size        int64
	ChunkSize   int
	TotalChunks int64
	Cipher      string

	// Salt feeds Argon2 for the passphrase-derived master key.
	Salt []byte
	// Verifier is SHA-256 of the master key.
	Verifier []byte

	StorageBackend string
	Status         string
	CreatedAt      time.Time
}

// Chunk is one stored frame of a transfer.
type Chunk struct {
	TransferID string
	ChunkID    int64
	// Size is the plaintext length; the frame is 28 bytes longer.
	Size int
	// Checksum is hex SHA-256 of the plaintext.
	Checksum   string
	StorageKey string
	Status     string
}
