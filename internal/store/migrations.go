package store

// migration is a single schema change applied in version order.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
var migrations = []migration{
	{
		version: 1,
		sql: `
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY
			);

			CREATE TABLE IF NOT EXISTS messages (
				id           TEXT NOT NULL,
				mailbox      TEXT NOT NULL,
				from_address TEXT NOT NULL,
				from_name    TEXT NOT NULL DEFAULT '',
				subject      TEXT NOT NULL DEFAULT '',
				intro        TEXT NOT NULL DEFAULT '',
				seen         INTEGER NOT NULL DEFAULT 0,
				created_at   TIMESTAMP NOT NULL,
				position     INTEGER NOT NULL,
				cached_at    TIMESTAMP NOT NULL,
				PRIMARY KEY (mailbox, id)
			);

			CREATE INDEX IF NOT EXISTS idx_messages_mailbox_position
				ON messages(mailbox, position);

			INSERT INTO schema_version (version) VALUES (1);
		`,
	},
}
