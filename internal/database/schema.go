package database

import _ "embed"

// Schema is the archive schema as produced by the migrations. It is
// regenerated by go generate and used by tools that need the DDL without
// running golang-migrate.
//
//go:embed sqlc/schema.sql
var Schema string
