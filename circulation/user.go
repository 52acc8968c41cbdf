package circulation

import (
	"github.com/google/uuid"
)

// Role is a named user category (e.g. "student", "librarian") that a
// BorrowingPolicy can attach to.
type Role struct {
	ID   uuid.UUID
	Name string
}

// User represents a library account. Borrowers and librarians are both
// users; a librarian must additionally be active to perform operations.
type User struct {
	ID       uuid.UUID
	FullName string
	Email    string
	IsActive bool
	RoleID   uuid.UUID
}

// UserSummary is the reduced borrower view embedded in loan results.
type UserSummary struct {
	ID       uuid.UUID
	FullName string
	Email    string
}
