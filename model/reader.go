package model

type Reader struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	PasswordHash string `json:"-"`
	CreatedTs    int64  `json:"createdTs"`
}

type FindReader struct {
	ID    *string `json:"id"`
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// ReaderRequest is a self-registration awaiting a librarian decision.
// Requests are never deleted, only moved to approved or rejected.
type ReaderRequest struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Status       RequestStatus `json:"status"`
	CreatedTs    int64         `json:"createdTs"`
}

type FindReaderRequest struct {
	ID     *string        `json:"id"`
	Status *RequestStatus `json:"status"`
}
