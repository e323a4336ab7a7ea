// Package migrations ships the database schema with the binary.
package migrations

import _ "embed"

// Schema creates every table and index the service needs. Safe to run repeatedly.
//
//go:embed schema.sql
var Schema string
