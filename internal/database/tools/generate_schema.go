// generate_schema writes internal/database/sqlc/schema.sql from the
// embedded migrations. With -check it only reports whether the file on
// disk is current and exits 1 when it is not.
package main

import (
	"bytes"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hoard-go/internal/database"
	"hoard-go/internal/database/migrations"
)

const header = `-- This file is auto-generated from migration files.
-- DO NOT EDIT MANUALLY. Run 'go generate ./internal/database' to regenerate.
-- Source: internal/database/migrations/files/*.sql

`

func main() {
	check := flag.Bool("check", false, "fail if schema.sql is stale instead of writing it")
	out := flag.String("out", filepath.Join("internal", "database", "sqlc", "schema.sql"), "output path")
	flag.Parse()

	schema, err := migratedSchema()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *check {
		current, err := os.ReadFile(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading %s: %v\n", *out, err)
			os.Exit(1)
		}
		if !bytes.Equal(current, []byte(schema)) {
			fmt.Fprintf(os.Stderr, "%s is stale; run go generate ./internal/database\n", *out)
			os.Exit(1)
		}
		return
	}

	if err := os.WriteFile(*out, []byte(schema), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("generated %s from migrations\n", *out)
}

// migratedSchema runs every migration against a scratch in-memory database
// and dumps the resulting DDL.
func migratedSchema() (string, error) {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		return "", err
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		return "", err
	}
	return dumpSchema(db)
}

// dumpSchema collects the CREATE statements for the archive tables and
// indexes in creation order, so referenced tables precede the tables that
// point at them. SQLite internals and golang-migrate's table are skipped.
func dumpSchema(db *sql.DB) (string, error) {
	rows, err := db.Query(`
		SELECT sql || ';'
		FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY rowid
	`)
	if err != nil {
		return "", fmt.Errorf("reading sqlite_master: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	b.WriteString(header)
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return "", fmt.Errorf("scanning statement: %w", err)
		}
		b.WriteString(stmt)
		b.WriteString("\n\n")
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("reading sqlite_master: %w", err)
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}
