package migrations

// The sessions table backs the scs cookie sessions that remember a browser's
// download client id. Its shape is fixed by the scs store adapters: BLOB/REAL
// for sqlite3store, BYTEA/TIMESTAMPTZ for postgresstore, BLOB/TIMESTAMP(6)
// for mysqlstore.

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateSessions, downCreateSessions)
}

func sessionsDDL() string {
	tokenType, dataType, expiryType := "TEXT", "BLOB", "REAL"
	switch dialect {
	case "postgres":
		dataType, expiryType = "BYTEA", "TIMESTAMPTZ"
	case "mysql":
		tokenType, expiryType = "VARCHAR(43)", "TIMESTAMP(6)"
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sessions (
    token  %s PRIMARY KEY,
    data   %s NOT NULL,
    expiry %s NOT NULL
)`, tokenType, dataType, expiryType)
}

func upCreateSessions(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, sessionsDDL()); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	_, err := tx.ExecContext(ctx, `CREATE INDEX sessions_expiry_idx ON sessions (expiry)`)
	return err
}

func downCreateSessions(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS sessions`)
	return err
}
