package testutil

import (
	"testing"

	"hoard-go/internal/database"
	"hoard-go/internal/hoard"
)

// NewTestDatabase returns an empty archive database in memory, built from
// the schema snapshot rather than by running migrations. It is closed when
// the test ends.
func NewTestDatabase(t *testing.T) hoard.Database {
	t.Helper()

	conn, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	if _, err := conn.Exec(database.Schema); err != nil {
		conn.Close()
		t.Fatalf("applying schema snapshot: %v", err)
	}

	db := database.NewSQLiteDatabaseFromDB(conn)
	t.Cleanup(func() { db.Close() })
	return db
}
