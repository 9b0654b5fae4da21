// Package postgres embebe el schema SQL del store PostgreSQL.
package postgres

import "embed"

// FS contiene las migraciones en formato golang-migrate (NNNN_name.up/down.sql).
//
//go:embed *.sql
var FS embed.FS
