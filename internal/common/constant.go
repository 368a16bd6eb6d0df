package common

// Upload status values stored in the transfer manifest.
const (
	StatusPending   = "pending"
	StatusUploaded  = "uploaded"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)
