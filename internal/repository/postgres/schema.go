package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FileChangeChannel is the NOTIFY channel the files trigger publishes to.
const FileChangeChannel = "file_changes"

// EnsureSchema creates the prefixed tables and the file change trigger if
// they do not exist. Safe to run on every startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	stmts := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id         UUID PRIMARY KEY,
				email      TEXT NOT NULL UNIQUE,
				avatar_url TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`, tables.Users),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id              UUID PRIMARY KEY,
				workspace_owner UUID NOT NULL,
				title           TEXT NOT NULL,
				icon_id         TEXT NOT NULL,
				data            TEXT,
				in_trash        TEXT,
				logo            TEXT,
				created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`, tables.Workspaces),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id           UUID PRIMARY KEY,
				workspace_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				title        TEXT NOT NULL,
				icon_id      TEXT NOT NULL,
				data         TEXT,
				in_trash     TEXT,
				created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`, tables.Folders, tables.Workspaces),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id           UUID PRIMARY KEY,
				workspace_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				folder_id    UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				title        TEXT NOT NULL,
				icon_id      TEXT NOT NULL,
				data         TEXT,
				in_trash     TEXT,
				created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`, tables.Files, tables.Workspaces, tables.Folders),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				workspace_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				user_id      UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
				PRIMARY KEY (workspace_id, user_id)
			)
		`, tables.Collaborators, tables.Workspaces, tables.Users),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_workspace_idx ON %s (workspace_id, created_at)`,
			tables.Folders, tables.Folders),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_folder_idx ON %s (folder_id, created_at)`,
			tables.Files, tables.Files),
		// The trigger feeds the realtime change feed: every row change on
		// the files table lands on the NOTIFY channel with the full row.
		fmt.Sprintf(`
			CREATE OR REPLACE FUNCTION %s_notify() RETURNS trigger AS $f$
			BEGIN
				PERFORM pg_notify('%s', json_build_object(
					'op', TG_OP,
					'row', row_to_json(COALESCE(NEW, OLD))
				)::text);
				RETURN COALESCE(NEW, OLD);
			END;
			$f$ LANGUAGE plpgsql
		`, tables.Files, FileChangeChannel),
		fmt.Sprintf(`DROP TRIGGER IF EXISTS %s_notify ON %s`, tables.Files, tables.Files),
		fmt.Sprintf(`
			CREATE TRIGGER %s_notify
			AFTER INSERT OR UPDATE OR DELETE ON %s
			FOR EACH ROW EXECUTE FUNCTION %s_notify()
		`, tables.Files, tables.Files, tables.Files),
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}
