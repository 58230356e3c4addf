package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pending_notifications (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	username     TEXT NOT NULL DEFAULT '',
	tmdb_id      INTEGER NOT NULL,
	media_type   TEXT NOT NULL CHECK(media_type IN ('movie', 'tv')),
	title        TEXT NOT NULL DEFAULT '',
	is_4k        INTEGER NOT NULL DEFAULT 0 CHECK(is_4k IN (0, 1)),
	requested_at DATETIME NOT NULL,
	last_status  INTEGER NOT NULL DEFAULT 1,
	UNIQUE(user_id, tmdb_id, is_4k)
);

CREATE INDEX IF NOT EXISTS idx_pending_user_id
	ON pending_notifications(user_id);
CREATE INDEX IF NOT EXISTS idx_pending_media
	ON pending_notifications(tmdb_id, media_type, is_4k);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
