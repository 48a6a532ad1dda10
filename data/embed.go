package data

import (
	"embed"
)

// Templates holds the per-category inspection checklist catalogs.
//
//go:embed templates/*.json
var Templates embed.FS

//go:embed initdb/mariadb/002-ddl-tables.sql
var InitdbMariaDBTables string

//go:embed initdb/mariadb/003-ddl-privileges.sql
var InitdbMariaDBPrivileges string
