package repository_test

import (
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/mlopezgez/group-habits-tracking/internal/database"
)

// setupMock injects a pgxmock pool into database.DB for the duration of the test.
func setupMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = mock
	t.Cleanup(func() {
		database.DB = oldDB
		mock.Close()
	})
	return mock
}

func strPtr(s string) *string { return &s }

var nilStr *string
