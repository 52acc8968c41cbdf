package postgresengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/test/helper"
	"github.com/shelfwise/circulation-go/test/postgreswrapper"
)

func Test_GetCounts_Derives_FromCopyRows(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	bookID := helper.GivenBook(t, wrapper)
	helper.GivenBookCopy(t, wrapper, bookID, circulation.CopyStatusAvailable)
	helper.GivenBookCopy(t, wrapper, bookID, circulation.CopyStatusAvailable)
	helper.GivenBookCopy(t, wrapper, bookID, circulation.CopyStatusBorrowed)
	helper.GivenBookCopy(t, wrapper, bookID, circulation.CopyStatusLost)
	helper.GivenBookCopy(t, wrapper, bookID, circulation.CopyStatusMaintenance)

	// act
	counts, err := engine.GetCounts(ctxWithTimeout, bookID)

	// assert
	assert.NoError(t, err, "error in querying the counts")
	assert.Equal(t, bookID, counts.BookID)
	assert.Equal(t, 5, counts.TotalCopies)
	assert.Equal(t, 2, counts.AvailableCopies)
}

func Test_GetCounts_When_Book_HasNoCopies(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	bookID := helper.GivenBook(t, wrapper)

	// act
	counts, err := engine.GetCounts(ctxWithTimeout, bookID)

	// assert
	assert.NoError(t, err, "error in querying the counts")
	assert.Equal(t, 0, counts.TotalCopies)
	assert.Equal(t, 0, counts.AvailableCopies)
}

func Test_GetCounts_TracksThe_CheckoutAndReturn_Cycle(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	borrowerID, _ := helper.GivenBorrower(t, wrapper)
	librarianID := helper.GivenLibrarian(t, wrapper)
	bookID := helper.GivenBook(t, wrapper)
	copyID := helper.GivenBookCopy(t, wrapper, bookID, circulation.CopyStatusAvailable)
	helper.GivenBookCopy(t, wrapper, bookID, circulation.CopyStatusAvailable)

	// act + assert
	checkoutResult, checkoutErr := engine.CheckoutBookCopy(ctxWithTimeout, circulation.CheckoutCommand{
		BorrowerID:  borrowerID,
		LibrarianID: librarianID,
		BookCopyID:  copyID,
	})
	assert.NoError(t, checkoutErr, "error in checking out the copy")
	assert.Equal(t, 2, checkoutResult.Inventory.TotalCopies)
	assert.Equal(t, 1, checkoutResult.Inventory.AvailableCopies)

	returnResult, returnErr := engine.ReturnBookCopy(ctxWithTimeout, circulation.ReturnCommand{
		BookCopyID: copyID,
	})
	assert.NoError(t, returnErr, "error in returning the copy")
	assert.Equal(t, 2, returnResult.Inventory.AvailableCopies)

	counts, countsErr := engine.GetCounts(ctxWithTimeout, bookID)
	assert.NoError(t, countsErr, "error in querying the counts")
	assert.Equal(t, returnResult.Inventory, counts)
}
