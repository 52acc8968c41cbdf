package circulation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/circulation-go/circulation"
)

func Test_CreateBookCommand_Validate(t *testing.T) {
	testCases := []struct {
		name        string
		command     circulation.CreateBookCommand
		expectedErr error
	}{
		{
			name:    "title and author are sufficient",
			command: circulation.CreateBookCommand{Title: "Accelerate", Author: "Nicole Forsgren"},
		},
		{
			name:        "missing title",
			command:     circulation.CreateBookCommand{Author: "Nicole Forsgren"},
			expectedErr: circulation.ErrTitleAndAuthorRequired,
		},
		{
			name:        "missing author",
			command:     circulation.CreateBookCommand{Title: "Accelerate"},
			expectedErr: circulation.ErrTitleAndAuthorRequired,
		},
		{
			name:        "negative total copies",
			command:     circulation.CreateBookCommand{Title: "Accelerate", Author: "Nicole Forsgren", TotalCopies: -1},
			expectedErr: circulation.ErrInvalidTotalCopies,
		},
		{
			name:    "zero total copies defaults later, so it is valid input",
			command: circulation.CreateBookCommand{Title: "Accelerate", Author: "Nicole Forsgren", TotalCopies: 0},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := testCase.command.Validate()

			if testCase.expectedErr != nil {
				assert.ErrorIs(t, err, testCase.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func Test_CopyStatus_IsLendable(t *testing.T) {
	assert.True(t, circulation.CopyStatusAvailable.IsLendable())
	assert.False(t, circulation.CopyStatusBorrowed.IsLendable())
	assert.False(t, circulation.CopyStatusDamaged.IsLendable())
	assert.False(t, circulation.CopyStatusLost.IsLendable())
	assert.False(t, circulation.CopyStatusMaintenance.IsLendable())
}

func Test_CopyStatus_IsAdministrative(t *testing.T) {
	assert.False(t, circulation.CopyStatusAvailable.IsAdministrative())
	assert.False(t, circulation.CopyStatusBorrowed.IsAdministrative())
	assert.True(t, circulation.CopyStatusDamaged.IsAdministrative())
	assert.True(t, circulation.CopyStatusLost.IsAdministrative())
	assert.True(t, circulation.CopyStatusMaintenance.IsAdministrative())
}
