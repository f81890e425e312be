package pgshipping

import (
	"context"
	"time"

	"github.com/BearBump/TrackRelay/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// EnqueueShipments puts shipments into the pending queue. Re-enqueueing an
// existing document number is a no-op, so intake can be replayed safely.
func (s *Storage) EnqueueShipments(ctx context.Context, items []models.ShipmentCreateInput) error {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, it := range items {
		_, err := tx.Exec(ctx, `
INSERT INTO shipments (document_number, message_number, request_id, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (document_number) DO NOTHING
`, it.DocumentNumber, it.MessageNumber, it.RequestID, now)
		if err != nil {
			return errors.Wrap(err, "insert shipment")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

// ListPending returns every queued shipment joined to its originating
// request, in stable request-id order. This order fixes how a pass walks
// the queue.
func (s *Storage) ListPending(ctx context.Context) ([]*models.Shipment, error) {
	rows, err := s.db.Query(ctx, `
SELECT
  sh.id, sh.document_number, sh.message_number, sh.request_id,
  r.document_number, sh.created_at
FROM shipments sh
JOIN requests r ON r.id = sh.request_id
ORDER BY sh.request_id ASC
`)
	if err != nil {
		return nil, errors.Wrap(err, "select pending shipments")
	}
	defer rows.Close()

	var out []*models.Shipment
	for rows.Next() {
		var sh models.Shipment
		if err := rows.Scan(
			&sh.ID, &sh.DocumentNumber, &sh.MessageNumber, &sh.RequestID,
			&sh.RequestDocumentNumber, &sh.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan shipment")
		}
		out = append(out, &sh)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// PurgeDelivered removes from the queue every shipment whose history
// already carries the Delivered code. Returns the number of rows removed.
func (s *Storage) PurgeDelivered(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `
DELETE FROM shipments
WHERE document_number IN (
  SELECT document_number FROM tracking_history WHERE code = $1
)
`, models.StatusDelivered)
	if err != nil {
		return 0, errors.Wrap(err, "purge delivered shipments")
	}
	return tag.RowsAffected(), nil
}
