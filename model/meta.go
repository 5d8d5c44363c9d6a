package model

// LibraryMetaID is the id of the singleton aggregate row.
const LibraryMetaID = "library"

// LibraryMeta is the denormalized summary of the whole book collection.
// It is eventually consistent: briefly stale after concurrent writes and
// rebuilt in full by a recompute rather than decremented in place.
type LibraryMeta struct {
	TotalBooks    int      `json:"totalBooks"`
	TotalSubjects int      `json:"totalSubjects"`
	TotalAuthors  int      `json:"totalAuthors"`
	Subjects      []string `json:"subjects"`
	UpdatedTs     int64    `json:"updatedTs"`
}
