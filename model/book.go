package model

// StatusShelf is the status sentinel meaning the book sits in the library.
// Any other status value is the display name of the reader holding it.
const StatusShelf = "library"

type SortKey string

const (
	SortNewest       SortKey = "newest"
	SortAlphabetical SortKey = "a-z"
)

type Book struct {
	ID             string   `json:"id"`
	BookName       string   `json:"bookName"`
	Author         string   `json:"author"`
	Subject        string   `json:"subject"`
	Publisher      string   `json:"publisher,omitempty"`
	LibraryCode    string   `json:"libraryCode"`
	BookLink       string   `json:"bookLink,omitempty"`
	TitlePage      *string  `json:"titlePage"`
	Status         string   `json:"status"`
	SearchKeywords []string `json:"searchKeywords,omitempty"`
	CreatedTs      int64    `json:"createdTs"`
	UpdatedTs      *int64   `json:"updatedTs"`
}

func (b *Book) OnShelf() bool {
	return b.Status == StatusShelf
}

// BookCursor is the keyset cursor for paginated catalog queries. It carries
// the ordering fields of the last row of the previous page.
type BookCursor struct {
	ID        string `json:"id"`
	BookName  string `json:"bookName"`
	CreatedTs int64  `json:"createdTs"`
}

type FindBook struct {
	ID         *string `json:"id"`
	Subject    *string `json:"subject"`
	SearchTerm *string `json:"searchTerm"`
	Status     *string `json:"status"`

	SortKey SortKey     `json:"sortKey"`
	After   *BookCursor `json:"after"`
	// The maximum number of books to return.
	Limit *int `json:"limit"`
}

// UpdateBook carries field edits; nil means leave the column alone.
type UpdateBook struct {
	ID             string
	BookName       *string
	Author         *string
	Subject        *string
	Publisher      *string
	LibraryCode    *string
	BookLink       *string
	TitlePage      *string
	SearchKeywords []string
}
