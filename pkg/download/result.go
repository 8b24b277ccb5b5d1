package download

// Outcome tags which variant a Result holds.
type Outcome int

const (
	// OutcomeCompleted means the whole body was written and the file closed.
	OutcomeCompleted Outcome = iota
	// OutcomeStopped means the transfer observed a stop request and removed the partial file.
	OutcomeStopped
	// OutcomeFailed means a transport or filesystem error ended the transfer.
	OutcomeFailed
)

// String returns the string representation of an Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeStopped:
		return "stopped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is what every call to Engine.Run ends with.
type Result struct {
	Outcome Outcome

	// Completed fields.
	Path string
	// TotalBytes is the size reported by the server; 0 when SizeKnown is false.
	TotalBytes   int64
	SizeKnown    bool
	BytesWritten int64

	// Failed field.
	Err error
}

// Completed builds a completed result.
func Completed(path string, totalBytes int64, sizeKnown bool, written int64) Result {
	return Result{
		Outcome:      OutcomeCompleted,
		Path:         path,
		TotalBytes:   totalBytes,
		SizeKnown:    sizeKnown,
		BytesWritten: written,
	}
}

// Stopped builds a stopped result.
func Stopped() Result {
	return Result{Outcome: OutcomeStopped}
}

// Failed builds a failed result.
func Failed(err error) Result {
	return Result{Outcome: OutcomeFailed, Err: err}
}

// Message returns the human-readable failure description, or "" for other outcomes.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Size returns the best size to display: the reported size when known,
// otherwise the number of bytes actually written.
func (r Result) Size() int64 {
	if r.SizeKnown {
		return r.TotalBytes
	}
	return r.BytesWritten
}
