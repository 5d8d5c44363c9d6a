package model

// LoanEntry records an open loan. The log keeps open loans only: every
// entry for a book is deleted when the book returns to the shelf.
type LoanEntry struct {
	ID         string `json:"id"`
	BookID     string `json:"bookId"`
	ReaderName string `json:"readerName"`
	TakenTs    int64  `json:"takenTs"`
}

type FindLoanEntry struct {
	BookID     *string `json:"bookId"`
	ReaderName *string `json:"readerName"`
}
