package circulation

import (
	"github.com/google/uuid"
)

// CopyStatus is the lifecycle state of a physical book copy.
//
// Only AVAILABLE and BORROWED are driven by the lending workflows.
// The administrative states are set by direct copy edits and are opaque
// to lending: a copy in an administrative state is simply not lendable.
type CopyStatus string

const (
	CopyStatusAvailable   CopyStatus = "AVAILABLE"
	CopyStatusBorrowed    CopyStatus = "BORROWED"
	CopyStatusDamaged     CopyStatus = "DAMAGED"
	CopyStatusLost        CopyStatus = "LOST"
	CopyStatusMaintenance CopyStatus = "MAINTENANCE"
)

// IsLendable reports whether a copy in this status can be checked out.
func (s CopyStatus) IsLendable() bool {
	return s == CopyStatusAvailable
}

// IsAdministrative reports whether the status is outside the lending
// state machine.
func (s CopyStatus) IsAdministrative() bool {
	return s != CopyStatusAvailable && s != CopyStatusBorrowed
}

// Book is catalog metadata. A book never holds an availability count
// directly; counts are always derived from its copies.
type Book struct {
	ID              uuid.UUID
	Title           string
	Author          string
	ISBN            string
	Category        string
	Publisher       string
	PublicationYear int
	Description     string
}

// BookCopy is one physical unit of a book. A copy belongs to exactly
// one book for its lifetime.
type BookCopy struct {
	ID       uuid.UUID
	BookID   uuid.UUID
	Barcode  string
	Location string
	Status   CopyStatus
}

// BookSummary is the reduced book view embedded in loan results.
type BookSummary struct {
	ID     uuid.UUID
	Title  string
	Author string
}

// CopySummary is the reduced copy view embedded in loan results.
type CopySummary struct {
	ID      uuid.UUID
	Barcode string
	Book    BookSummary
}

// InventoryCounts is the derived availability snapshot for one book.
// TotalCopies counts all copies; AvailableCopies counts those with
// status AVAILABLE. Both are recomputed fresh on every read.
type InventoryCounts struct {
	BookID          uuid.UUID
	TotalCopies     int
	AvailableCopies int
}
