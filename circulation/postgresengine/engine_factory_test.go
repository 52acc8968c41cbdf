package postgresengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/postgresengine"
	"github.com/shelfwise/circulation-go/test/config"
)

func Test_FactoryFunctions_NewEngine_ShouldFail_WithNilDatabaseConnection(t *testing.T) {
	testCases := []struct {
		name        string
		factoryFunc func() (postgresengine.Engine, error)
	}{
		{
			name: "NewEngineFromPGXPool with nil",
			factoryFunc: func() (postgresengine.Engine, error) {
				return postgresengine.NewEngineFromPGXPool(nil)
			},
		},
		{
			name: "NewEngineFromSQLDB with nil",
			factoryFunc: func() (postgresengine.Engine, error) {
				return postgresengine.NewEngineFromSQLDB(nil)
			},
		},
		{
			name: "NewEngineFromSQLX with nil",
			factoryFunc: func() (postgresengine.Engine, error) {
				return postgresengine.NewEngineFromSQLX(nil)
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			// act
			_, err := testCase.factoryFunc()

			// assert
			assert.Error(t, err)
			assert.ErrorIs(t, err, circulation.ErrNilDatabaseConnection)
		})
	}
}

func Test_FactoryFunctions_NewEngine_ShouldFail_WithEmptyTablePrefix(t *testing.T) {
	// setup
	db := config.PostgresSQLDBTestConfig()
	defer func() {
		_ = db.Close() // ignore error
	}()

	// act
	_, err := postgresengine.NewEngineFromSQLDB(db, postgresengine.WithTablePrefix(""))

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, circulation.ErrEmptyTablePrefix)
}

func Test_FactoryFunctions_NewEngine_ShouldFail_WithInvalidMaxAttempts(t *testing.T) {
	// setup
	db := config.PostgresSQLDBTestConfig()
	defer func() {
		_ = db.Close() // ignore error
	}()

	// act
	_, err := postgresengine.NewEngineFromSQLDB(db, postgresengine.WithMaxAttempts(0))

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, circulation.ErrInvalidMaxAttempts)
}

func Test_FactoryFunctions_NewEngine_WithTablePrefix_ShouldWorkCorrectly(t *testing.T) {
	// setup
	db := config.PostgresSQLDBTestConfig()
	defer func() {
		_ = db.Close() // ignore error
	}()

	// act
	_, err := postgresengine.NewEngineFromSQLDB(db, postgresengine.WithTablePrefix("lending_"))

	// assert
	assert.NoError(t, err, "creating the engine with a table prefix failed")
}
