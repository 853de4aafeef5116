package postgres

import (
	"context"
	"fmt"
)

// journalSchema tabla append-only del diario de altas.
const journalSchema = `
CREATE TABLE IF NOT EXISTS provisioning_journal (
	id               TEXT PRIMARY KEY,
	session_id       TEXT        NOT NULL,
	operator_id      TEXT        NOT NULL,
	category         TEXT        NOT NULL,
	outcome          TEXT        NOT NULL,
	owner_id         TEXT        NOT NULL DEFAULT '',
	company_id       TEXT        NOT NULL DEFAULT '',
	account_id       TEXT        NOT NULL DEFAULT '',
	starting_balance NUMERIC(18,2) NOT NULL DEFAULT 0,
	create_card      BOOLEAN     NOT NULL DEFAULT FALSE,
	error_kind       TEXT        NOT NULL DEFAULT '',
	error_message    TEXT        NOT NULL DEFAULT '',
	orphan_customer  BOOLEAN     NOT NULL DEFAULT FALSE,
	orphan_company   BOOLEAN     NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_provisioning_journal_orphans
	ON provisioning_journal (created_at DESC)
	WHERE orphan_customer OR orphan_company;
`

// Migrate crea las tablas si no existen. Es idempotente.
func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, journalSchema); err != nil {
		return fmt.Errorf("migrar provisioning_journal: %w", err)
	}
	return nil
}
