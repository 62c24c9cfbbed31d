package database

import "context"

// SchemaSQL is the initial schema for a fresh database.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS clients (
	id                     text PRIMARY KEY,
	name                   text NOT NULL,
	phone                  text NOT NULL,
	debt_amount            numeric NOT NULL DEFAULT 0,
	contract_number        text NOT NULL DEFAULT '',
	partial_payment_amount numeric NOT NULL DEFAULT 0,
	company                text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS calls (
	id               text PRIMARY KEY,
	carrier_sid      text NOT NULL DEFAULT '',
	client_id        text NOT NULL REFERENCES clients(id),
	status           text NOT NULL,
	started_at       timestamptz NOT NULL,
	answered_at      timestamptz,
	ended_at         timestamptz,
	history          jsonb NOT NULL DEFAULT '[]',
	recordings       jsonb NOT NULL DEFAULT '[]',
	recording_events jsonb NOT NULL DEFAULT '[]',
	result           jsonb NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_calls_carrier_sid ON calls (carrier_sid);
CREATE INDEX IF NOT EXISTS idx_calls_client_id ON calls (client_id);
CREATE INDEX IF NOT EXISTS idx_calls_status ON calls (status) WHERE status NOT IN
	('completed', 'failed', 'busy', 'no-answer', 'canceled');
`

// InitSchema applies the full schema on a fresh database. It checks whether
// the "calls" table exists as a proxy for whether the schema has been
// loaded. If missing, it executes the embedded schema SQL; otherwise it's
// a no-op.
func (db *DB) InitSchema(ctx context.Context, schemaSQL string) error {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT FROM pg_tables WHERE schemaname = 'public' AND tablename = 'calls')`,
	).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		db.log.Debug().Msg("schema already initialized, skipping")
		return nil
	}

	db.log.Info().Msg("fresh database detected — applying schema")
	if _, err := db.Pool.Exec(ctx, schemaSQL); err != nil {
		return err
	}
	db.log.Info().Msg("schema applied successfully")
	return nil
}
