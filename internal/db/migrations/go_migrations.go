// Package migrations holds the schema as dialect-aware Go migrations. Column
// types for ids and timestamps differ between SQLite, PostgreSQL and MySQL, so
// each migration picks its DDL from the dialect set by the db package.
package migrations

// dialect is set by the parent db package before migrations are applied.
var dialect string

// SetDialect configures the SQL dialect for Go migrations.
// Must be called before goose.Up. Valid values: "sqlite3", "postgres", "mysql".
func SetDialect(d string) {
	dialect = d
}

// execAll runs stmts in order, stopping at the first failure.
func execAll(exec func(string) error, stmts []string) error {
	for _, stmt := range stmts {
		if err := exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
