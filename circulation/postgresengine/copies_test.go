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

func Test_AddBookCopy_ToAn_ExistingBook(t *testing.T) {
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

	// act
	result, err := engine.AddBookCopy(ctxWithTimeout, circulation.AddCopyCommand{
		BookID:   bookID,
		Barcode:  "BC-424242",
		Location: "Shelf B-2",
	})

	// assert
	assert.NoError(t, err, "error in adding the copy")
	assert.Equal(t, circulation.CopyStatusAvailable, result.Copy.Status)
	assert.Equal(t, 2, result.Inventory.TotalCopies)
	assert.Equal(t, 2, result.Inventory.AvailableCopies)
}

func Test_AddBookCopy_When_Book_DoesNotExist(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)

	// act
	_, err := engine.AddBookCopy(ctxWithTimeout, circulation.AddCopyCommand{
		BookID: helper.GivenUniqueID(t),
	})

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, circulation.ErrBookNotFound)
}

func Test_UpdateBookCopy_With_A_PartialEdit(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	bookID := helper.GivenBook(t, wrapper)
	copyID := helper.GivenBookCopy(t, wrapper, bookID, circulation.CopyStatusAvailable)
	newLocation := "Archive C-7"

	// act
	result, err := engine.UpdateBookCopy(ctxWithTimeout, circulation.UpdateCopyCommand{
		BookID:     bookID,
		BookCopyID: copyID,
		Location:   &newLocation,
	})

	// assert
	assert.NoError(t, err, "error in updating the copy")
	assert.Equal(t, newLocation, result.Copy.Location)
	assert.Equal(t, circulation.CopyStatusAvailable, result.Copy.Status)
}

func Test_UpdateBookCopy_When_MarkingLent_Copy_As_Damaged(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
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
	checkoutDate := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	helper.GivenActiveLoan(t, wrapper, copyID, borrowerID, librarianID, checkoutDate)
	damaged := circulation.CopyStatusDamaged

	// act
	result, err := engine.UpdateBookCopy(ctxWithTimeout, circulation.UpdateCopyCommand{
		BookID:     bookID,
		BookCopyID: copyID,
		Status:     &damaged,
	})

	// assert
	assert.NoError(t, err, "error in updating the copy")
	assert.Equal(t, circulation.CopyStatusDamaged, result.Copy.Status)
	assert.Equal(t, circulation.CopyStatusDamaged, helper.QueryCopyStatus(t, wrapper, copyID))
}

func Test_UpdateBookCopy_When_MarkingLent_Copy_As_Available(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
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
	checkoutDate := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	helper.GivenActiveLoan(t, wrapper, copyID, borrowerID, librarianID, checkoutDate)
	available := circulation.CopyStatusAvailable

	// act
	_, err := engine.UpdateBookCopy(ctxWithTimeout, circulation.UpdateCopyCommand{
		BookID:     bookID,
		BookCopyID: copyID,
		Status:     &available,
	})

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, circulation.ErrCopyHasActiveLoan)
	assert.Equal(t, circulation.KindConflict, circulation.Classify(err))
	assert.Equal(t, circulation.CopyStatusBorrowed, helper.QueryCopyStatus(t, wrapper, copyID))
}

func Test_UpdateBookCopy_When_Copy_BelongsToAnotherBook(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	bookID := helper.GivenBook(t, wrapper)
	otherBookID := helper.GivenBook(t, wrapper)
	copyID := helper.GivenBookCopy(t, wrapper, bookID, circulation.CopyStatusAvailable)
	newLocation := "Archive C-7"

	// act
	_, err := engine.UpdateBookCopy(ctxWithTimeout, circulation.UpdateCopyCommand{
		BookID:     otherBookID,
		BookCopyID: copyID,
		Location:   &newLocation,
	})

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, circulation.ErrBookCopyNotFound)
}
