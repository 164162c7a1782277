package harvest

import "time"

// Status is the terminal state of one tender's orchestration.
type Status string

// Outcome status values.
const (
	StatusPending         Status = "pending"
	StatusNoDocuments     Status = "no_documents"
	StatusCompleted       Status = "completed"
	StatusError           Status = "error"
	StatusSkippedExisting Status = "skipped_existing"
)

// Outcome is the per-tender result record. It is created once per
// orchestration call and immutable after return.
type Outcome struct {
	TenderID            string    `json:"tender_id"`
	RunID               string    `json:"run_id,omitempty"`
	Status              Status    `json:"status"`
	DocumentsFound      int       `json:"documents_found"`
	DocumentsDownloaded int       `json:"documents_downloaded"`
	Error               string    `json:"error,omitempty"`
	FinishedAt          time.Time `json:"finished_at"`
}

// Summary aggregates a batch of outcomes.
type Summary struct {
	Total               int `json:"total"`
	Completed           int `json:"completed"`
	NoDocuments         int `json:"no_documents"`
	SkippedExisting     int `json:"skipped_existing"`
	Errors              int `json:"errors"`
	DocumentsFound      int `json:"documents_found"`
	DocumentsDownloaded int `json:"documents_downloaded"`
}

// Summarize folds outcomes into a Summary.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	s.Total = len(outcomes)
	for _, out := range outcomes {
		switch out.Status {
		case StatusCompleted:
			s.Completed++
		case StatusNoDocuments:
			s.NoDocuments++
		case StatusSkippedExisting:
			s.SkippedExisting++
		case StatusError:
			s.Errors++
		}
		s.DocumentsFound += out.DocumentsFound
		s.DocumentsDownloaded += out.DocumentsDownloaded
	}
	return s
}
