package migrations

import (
	"bytes"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tables := []string{"posts", "tags", "taggings", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	err := CheckDBMigrationStatus(db)
	if err == nil {
		t.Fatal("CheckDBMigrationStatus() expected error for fresh database, got nil")
	}
	if err.Error() != "database has no schema version (needs migration)" {
		t.Errorf("CheckDBMigrationStatus() error = %q, want error about needing migration", err.Error())
	}
}

func TestCheckDBMigrationStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}

	version, dirty, err := Version(db)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	latest, err := LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if version != latest || dirty {
		t.Errorf("Version() = %d dirty=%v, want %d clean", version, dirty, latest)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}
	if err := MigrateDown(db); err != nil {
		t.Fatalf("MigrateDown() failed: %v", err)
	}

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('posts', 'tags', 'taggings')").Scan(&count)
	if err != nil {
		t.Fatalf("counting tables: %v", err)
	}
	if count != 0 {
		t.Errorf("%d archive tables left after MigrateDown, want 0", count)
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Tagging a post that does not exist must fail.
	_, err := db.Exec("INSERT INTO taggings (post_id, tag_id) VALUES (99, 99)")
	if err == nil {
		t.Error("Expected foreign key constraint violation, but insert succeeded")
	}
}

func TestSchema_ContentHashUnique(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	hash := bytes.Repeat([]byte{0xab}, 32)
	if _, err := db.Exec("INSERT INTO posts (content_hash, original_name) VALUES (?, 'a.png')", hash); err != nil {
		t.Fatalf("Failed to insert first post: %v", err)
	}
	if _, err := db.Exec("INSERT INTO posts (content_hash, original_name) VALUES (?, 'b.png')", hash); err == nil {
		t.Error("Expected unique constraint violation for duplicate hash, but insert succeeded")
	}
}

func TestSchema_ContentHashLength(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	_, err := db.Exec("INSERT INTO posts (content_hash, original_name) VALUES (?, 'short.png')", []byte{1, 2, 3})
	if err == nil {
		t.Error("Expected check constraint violation for a 3-byte hash, but insert succeeded")
	}
}

func TestSchema_TaggingUnique(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	hash := bytes.Repeat([]byte{0x01}, 32)
	if _, err := db.Exec("INSERT INTO posts (id, content_hash, original_name) VALUES (1, ?, 'a.png')", hash); err != nil {
		t.Fatalf("insert post: %v", err)
	}
	if _, err := db.Exec("INSERT INTO tags (id, name) VALUES (1, 'cat')"); err != nil {
		t.Fatalf("insert tag: %v", err)
	}
	if _, err := db.Exec("INSERT INTO taggings (post_id, tag_id) VALUES (1, 1)"); err != nil {
		t.Fatalf("insert tagging: %v", err)
	}
	if _, err := db.Exec("INSERT INTO taggings (post_id, tag_id) VALUES (1, 1)"); err == nil {
		t.Error("Expected unique constraint violation for duplicate tagging, but insert succeeded")
	}
}

// openTestDB opens an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	return db
}
