package pgshipping

import (
	"context"
	"time"

	"github.com/BearBump/TrackRelay/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// SaveRequest stores an inbound payload once. Requests are immutable: a
// duplicate (document, type) keeps the first body and returns its id.
func (s *Storage) SaveRequest(ctx context.Context, documentNumber, requestType, body string) (uint64, error) {
	var id uint64
	err := s.db.QueryRow(ctx, `
INSERT INTO requests (document_number, request_type, request_body, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (document_number, request_type)
DO UPDATE SET created_at = requests.created_at
RETURNING id
`, documentNumber, requestType, body, time.Now().UTC()).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert request")
	}
	return id, nil
}

func (s *Storage) GetRequest(ctx context.Context, documentNumber, requestType string) (*models.Request, error) {
	var r models.Request
	err := s.db.QueryRow(ctx, `
SELECT id, document_number, request_type, request_body, created_at
FROM requests
WHERE document_number = $1 AND request_type = $2
`, documentNumber, requestType).Scan(
		&r.ID, &r.DocumentNumber, &r.RequestType, &r.RequestBody, &r.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select request")
	}
	return &r, nil
}
