package model

type Role string

const (
	RoleLibrarian Role = "librarian"
	RoleReader    Role = "reader"
)

// Identity is the authenticated actor behind a request, resolved from the
// access token. A zero-value identity means unauthenticated.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
}

func (i Identity) Authenticated() bool {
	return i.Role != ""
}

func (i Identity) IsLibrarian() bool {
	return i.Role == RoleLibrarian
}

// Librarian is the admin account backing the librarian sign-in.
type Librarian struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	CreatedTs    int64  `json:"createdTs"`
}
