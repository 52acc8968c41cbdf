package circulation

import (
	"github.com/google/uuid"
)

// CreateBookCommand carries the input for catalog book creation.
// TotalCopies is the number of AVAILABLE copies created alongside the
// book; it defaults to 1 when zero.
type CreateBookCommand struct {
	Title           string
	Author          string
	ISBN            string
	Category        string
	Publisher       string
	PublicationYear int
	Description     string
	TotalCopies     int
}

// Validate checks the required catalog fields.
func (c CreateBookCommand) Validate() error {
	if c.Title == "" || c.Author == "" {
		return ErrTitleAndAuthorRequired
	}

	if c.TotalCopies < 0 {
		return ErrInvalidTotalCopies
	}

	return nil
}

// AddCopyCommand carries the input for adding one physical copy to an
// existing book. Status defaults to AVAILABLE when empty.
type AddCopyCommand struct {
	BookID   uuid.UUID
	Barcode  string
	Location string
	Status   CopyStatus
}

// UpdateCopyCommand carries a partial administrative edit of one copy.
// Nil fields are left unchanged. Setting Status to AVAILABLE is rejected
// while an ACTIVE loan references the copy.
type UpdateCopyCommand struct {
	BookID     uuid.UUID
	BookCopyID uuid.UUID
	Barcode    *string
	Location   *string
	Status     *CopyStatus
}

// BookWithCounts is a catalog book together with its derived inventory snapshot.
type BookWithCounts struct {
	Book      Book
	Inventory InventoryCounts
}

// CopyWithCounts is a book copy together with its book's derived inventory snapshot.
type CopyWithCounts struct {
	Copy      BookCopy
	Inventory InventoryCounts
}
