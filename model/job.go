package model

type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusDone    JobStatus = "DONE"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a unit of background work, currently cover image processing.
type Job struct {
	BookID   string
	FileName string
	// Data is the raw uploaded image.
	Data   []byte
	Status JobStatus
}
