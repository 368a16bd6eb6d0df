// Package common defines shared constants and sentinel errors used across
// the TransferGuard client layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Worker lifecycle errors.
	ErrUninitialized      = errors.New("worker not initialized")
	ErrAlreadyInitialized = errors.New("worker already initialized")
	ErrWrongMode          = errors.New("operation not supported by worker mode")
	ErrTerminated         = errors.New("worker terminated")
	ErrDuplicateID        = errors.New("request id already pending")

	// Cryptographic errors.
	ErrInvalidKey     = errors.New("invalid key")
	ErrFrameTooShort  = errors.New("frame too short")
	ErrAuthentication = errors.New("message authentication failed")

	// Transfer-level errors.
	ErrWrongPassphrase  = errors.New("wrong passphrase")
	ErrChecksumMismatch = errors.New("chunk checksum mismatch")
	ErrTransferNotReady = errors.New("transfer is not completed")
)
