package fake

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/BearBump/TrackRelay/internal/integrations/pegas"
	"github.com/BearBump/TrackRelay/internal/models"
)

// FakeClient fabricates a fixed carrier status sequence instead of calling
// the real Pegas API. It backs the generate_test_statuses config flag and
// local demos; the reported sequence is deterministic per document number.
type FakeClient struct{}

func New() *FakeClient { return &FakeClient{} }

func (f *FakeClient) OrderStatus(ctx context.Context, documentNumber string) (pegas.StatusResult, error) {
	now := time.Now().UTC()

	h := fnv.New32a()
	_, _ = h.Write([]byte(documentNumber))
	v := h.Sum32()

	codes := []string{
		models.StatusPickedUp,
		models.StatusDebited,
		models.StatusDeparted,
	}
	// Every fifth document is already delivered end to end.
	if v%5 == 0 {
		codes = append(codes, models.StatusArrived, models.StatusOnLastMile, models.StatusDelivered)
	}

	planned := now.Add(72 * time.Hour)
	res := pegas.StatusResult{
		PerformersNumber: "PF" + documentNumber,
		PlannedDelivery:  &planned,
	}
	for i, code := range codes {
		t := now.Add(-time.Duration(len(codes)-i) * time.Hour)
		res.Statuses = append(res.Statuses, models.DeliveryStatus{
			Code:        code,
			Time:        &t,
			Description: code,
		})
	}
	return res, nil
}
