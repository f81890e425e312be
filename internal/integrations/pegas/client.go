package pegas

import (
	"context"
	"time"

	"github.com/BearBump/TrackRelay/internal/models"
)

// StatusResult is one carrier answer for one shipment: the ordered status
// list plus delivery metadata, as reported at fetch time.
type StatusResult struct {
	PerformersNumber string
	PlannedDelivery  *time.Time
	Statuses         []models.DeliveryStatus
}

type Client interface {
	OrderStatus(ctx context.Context, documentNumber string) (StatusResult, error)
}
