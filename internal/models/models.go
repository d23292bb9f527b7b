package models

// ProgressRecord is the status record stored in the progress KV per job id.
// It is serialized as JSON: {"step": ..., "progress": ..., "filename": ...}.
// Filename is only set on the terminal Completed record.
type ProgressRecord struct {
	Step     string `json:"step"`
	Progress int    `json:"progress"`
	Filename string `json:"filename,omitempty"`
}

// Pending returns the synthetic record served for job ids that have no stored
// record (never submitted, expired, or the store is unreachable).
func Pending() ProgressRecord {
	return ProgressRecord{Step: StepPending, Progress: 0}
}

// Completed builds the terminal success record.
func Completed(filename string) ProgressRecord {
	return ProgressRecord{Step: StepCompleted, Progress: 100, Filename: filename}
}

// Errored builds the terminal failure record. Progress resets to 0 so
// polling clients can distinguish a failed job from a finished one.
func Errored() ProgressRecord {
	return ProgressRecord{Step: StepError, Progress: 0}
}

// StatusClass classifies a record per the job lifecycle.
type StatusClass string

const (
	StatusPending   StatusClass = "pending"
	StatusRunning   StatusClass = "running"
	StatusCompleted StatusClass = "completed"
	StatusError     StatusClass = "error"
)

// Class derives the implicit status class of a record.
func (r ProgressRecord) Class() StatusClass {
	switch {
	case r.Step == StepError:
		return StatusError
	case r.Progress >= 100:
		return StatusCompleted
	case r.Step == StepPending:
		return StatusPending
	default:
		return StatusRunning
	}
}
