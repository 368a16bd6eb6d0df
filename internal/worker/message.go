package worker

import (
	"fmt"

	"github.com/awnumar/memguard"
)

// Kind identifies a worker message.
type Kind int

const (
	KindInit Kind = iota + 1
	KindReady
	KindEncrypt
	KindDecrypt
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return "INIT"
	case KindReady:
		return "READY"
	case KindEncrypt:
		return "ENCRYPT"
	case KindDecrypt:
		return "DECRYPT"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Request is a message sent to a worker's inbox.
//
// Chunk is handed over: the sender must not read or write it afterwards.
// Key is consumed by INIT and destroyed by the worker whatever the outcome.
type Request struct {
	Kind   Kind
	ID     int64
	Seq    uint64
	Key    *memguard.LockedBuffer
	Cipher string
	Chunk  []byte
}

// Response is a message emitted on a worker's outbox. ID and Seq echo the
// request; a failed INIT carries Kind == KindInit and a non-nil Err.
type Response struct {
	Kind   Kind
	ID     int64
	Seq    uint64
	Result []byte
	Err    error
}

// Error reports a failed request. It unwraps to one of the common sentinel
// errors, e.g. common.ErrAuthentication for a rejected frame.
type Error struct {
	Kind Kind
	ID   int64
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Kind == KindInit {
		return fmt.Sprintf("worker %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("worker %s id=%d: %v", e.Kind, e.ID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
