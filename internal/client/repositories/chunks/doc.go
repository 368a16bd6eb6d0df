// Package chunks persists per-chunk manifest rows: plaintext size and
// checksum, where the frame is stored, and whether it has been uploaded.
package chunks
