// Package postgres embebe las migraciones SQL del store PostgreSQL.
package postgres

import "embed"

// FS contiene las migraciones {version}_{name}.sql.
//
//go:embed *.sql
var FS embed.FS
