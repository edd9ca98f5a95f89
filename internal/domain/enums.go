package domain

// PayloadStatus represents where a stored product payload is in its lifecycle
type PayloadStatus string

const (
	// NEW - stored, waiting for a worker
	PayloadStatusNew PayloadStatus = "new"
	// PROCESSING - claimed by a worker
	PayloadStatusProcessing PayloadStatus = "processing"
	// COMPLETED - product written to the platform
	PayloadStatusCompleted PayloadStatus = "completed"
	// ERROR - processing failed, message kept on the row
	PayloadStatusError PayloadStatus = "error"
)

// IsValid checks if the payload status is valid
func (s PayloadStatus) IsValid() bool {
	switch s {
	case PayloadStatusNew,
		PayloadStatusProcessing,
		PayloadStatusCompleted,
		PayloadStatusError:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a status transition is valid
func (s PayloadStatus) CanTransitionTo(newStatus PayloadStatus) bool {
	switch s {
	case PayloadStatusNew, PayloadStatusError:
		return newStatus == PayloadStatusProcessing
	case PayloadStatusProcessing:
		return newStatus == PayloadStatusCompleted ||
			newStatus == PayloadStatusError
	case PayloadStatusCompleted:
		return false // Terminal
	default:
		return false
	}
}

// Claimable lists the statuses a worker may pick a payload up from.
func Claimable() []PayloadStatus {
	return []PayloadStatus{PayloadStatusNew, PayloadStatusError}
}
