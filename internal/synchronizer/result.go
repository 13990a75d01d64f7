package synchronizer

import "example.com/activitytracker/internal/domain"

// Command asks for activities to be imported from one source.
type Command struct {
	Source domain.DataSource
	// Limit caps both the records fetched and the records imported. Zero means no cap.
	Limit int
}

// Status classifies the outcome of a synchronization.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Result reports how many activities were imported and what went wrong.
type Result struct {
	SyncedCount int
	Errors      []string
}

// IsSuccessful reports a run without any error.
func (r Result) IsSuccessful() bool { return len(r.Errors) == 0 }

// HasPartialSuccess reports a run that imported something but also hit errors.
func (r Result) HasPartialSuccess() bool { return r.SyncedCount > 0 && len(r.Errors) > 0 }

// Status derives the overall outcome.
func (r Result) Status() Status {
	switch {
	case r.IsSuccessful():
		return StatusSuccess
	case r.HasPartialSuccess():
		return StatusPartial
	default:
		return StatusFailed
	}
}
