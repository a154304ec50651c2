package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateEntries, downCreateEntries)
}

func upCreateEntries(ctx context.Context, tx *sql.Tx) error {
	exec := func(stmt string) error {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create entries schema: %w", err)
		}
		return nil
	}
	return execAll(exec, entriesUpStmts())
}

func downCreateEntries(ctx context.Context, tx *sql.Tx) error {
	exec := func(stmt string) error {
		_, err := tx.ExecContext(ctx, stmt)
		return err
	}
	return execAll(exec, []string{
		`DROP TABLE IF EXISTS attachments`,
		`DROP TABLE IF EXISTS entries`,
	})
}

func entriesUpStmts() []string {
	var idType, tsType, textType string
	switch dialect {
	case "postgres":
		idType, tsType, textType = "TEXT", "TIMESTAMPTZ", "TEXT"
	case "mysql":
		idType, tsType, textType = "VARCHAR(36)", "DATETIME(6)", "VARCHAR(1024)"
	default: // sqlite3
		idType, tsType, textType = "TEXT", "TIMESTAMP", "TEXT"
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS entries (
    id         %s PRIMARY KEY,
    content    TEXT NOT NULL,
    created_at %s NOT NULL
)`, idType, tsType),
		`CREATE INDEX entries_created_at_idx ON entries (created_at)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS attachments (
    entry_id      %s NOT NULL REFERENCES entries (id) ON DELETE CASCADE,
    seq           INTEGER NOT NULL,
    saved_path    %s NOT NULL,
    original_name %s NOT NULL,
    mime          %s NOT NULL,
    PRIMARY KEY (entry_id, seq)
)`, idType, textType, textType, textType),
	}
}
