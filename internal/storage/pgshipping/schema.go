package pgshipping

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS requests (
  id BIGSERIAL PRIMARY KEY,
  document_number TEXT NOT NULL,
  request_type TEXT NOT NULL,
  request_body TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  UNIQUE (document_number, request_type)
)`,
		`
CREATE TABLE IF NOT EXISTS shipments (
  id BIGSERIAL PRIMARY KEY,
  document_number TEXT NOT NULL,
  message_number TEXT NOT NULL,
  request_id BIGINT NOT NULL REFERENCES requests(id),
  created_at TIMESTAMPTZ NOT NULL,
  UNIQUE (document_number)
)`,
		`CREATE INDEX IF NOT EXISTS idx_shipments_request_id ON shipments(request_id)`,
		`
CREATE TABLE IF NOT EXISTS tracking_history (
  id BIGSERIAL PRIMARY KEY,
  document_number TEXT NOT NULL,
  code TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT '',
  message_number TEXT NOT NULL DEFAULT '',
  request_id BIGINT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_history_document ON tracking_history(document_number)`,
		// The ledger is the dedup source of truth: one row per (document, code), ever.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_tracking_history_document_code ON tracking_history(document_number, code)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
