package circulation_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/circulation-go/circulation"
)

func Test_CheckoutCommand_Validate(t *testing.T) {
	complete := circulation.CheckoutCommand{
		BorrowerID:  uuid.New(),
		LibrarianID: uuid.New(),
		BookCopyID:  uuid.New(),
	}

	testCases := []struct {
		name      string
		mutate    func(c circulation.CheckoutCommand) circulation.CheckoutCommand
		expectErr bool
	}{
		{
			name:      "complete command is valid",
			mutate:    func(c circulation.CheckoutCommand) circulation.CheckoutCommand { return c },
			expectErr: false,
		},
		{
			name: "missing borrower ID",
			mutate: func(c circulation.CheckoutCommand) circulation.CheckoutCommand {
				c.BorrowerID = uuid.Nil
				return c
			},
			expectErr: true,
		},
		{
			name: "missing librarian ID",
			mutate: func(c circulation.CheckoutCommand) circulation.CheckoutCommand {
				c.LibrarianID = uuid.Nil
				return c
			},
			expectErr: true,
		},
		{
			name: "missing book copy ID",
			mutate: func(c circulation.CheckoutCommand) circulation.CheckoutCommand {
				c.BookCopyID = uuid.Nil
				return c
			},
			expectErr: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := testCase.mutate(complete).Validate()

			if testCase.expectErr {
				assert.ErrorIs(t, err, circulation.ErrCheckoutInputMissing)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func Test_ReturnCommand_Validate(t *testing.T) {
	// a return only needs the copy identifier
	assert.NoError(t, circulation.ReturnCommand{BookCopyID: uuid.New()}.Validate())
	assert.ErrorIs(t, circulation.ReturnCommand{}.Validate(), circulation.ErrReturnInputMissing)
}
