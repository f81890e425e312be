package pgshipping

import (
	"context"
	"time"

	"github.com/BearBump/TrackRelay/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// HistoryCodes returns every status code already recorded for a document.
func (s *Storage) HistoryCodes(ctx context.Context, documentNumber string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
SELECT code FROM tracking_history WHERE document_number = $1 ORDER BY id ASC
`, documentNumber)
	if err != nil {
		return nil, errors.Wrap(err, "select history codes")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, errors.Wrap(err, "scan history code")
		}
		out = append(out, code)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// HasLifecycleCode reports whether any of the six partner-relevant codes is
// already on record for a document. Drives Original vs Update classification.
func (s *Storage) HasLifecycleCode(ctx context.Context, documentNumber string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
SELECT EXISTS (
  SELECT 1 FROM tracking_history
  WHERE document_number = $1 AND code = ANY($2)
)
`, documentNumber, models.LifecycleCodes()).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "select lifecycle exists")
	}
	return exists, nil
}

// AppendHistory writes one ledger row per record in a single transaction.
// A (document_number, code) pair that already exists is left untouched.
func (s *Storage) AppendHistory(ctx context.Context, recs []models.HistoryRecord) error {
	if len(recs) == 0 {
		return nil
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, r := range recs {
		_, err := tx.Exec(ctx, `
INSERT INTO tracking_history (document_number, code, status, message_number, request_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (document_number, code) DO NOTHING
`, r.DocumentNumber, r.Code, r.Status, r.MessageNumber, r.RequestID, now)
		if err != nil {
			return errors.Wrap(err, "insert history record")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}
