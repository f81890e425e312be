package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/TrackRelay/internal/edi"
	"github.com/BearBump/TrackRelay/internal/integrations/pegas"
	"github.com/BearBump/TrackRelay/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func newTestBuilder(carrier pegas.Client) *Builder {
	f := NewFetcher(carrier, zeroPolicy(), &fakeSink{})
	b := NewBuilder(f, edi.DefaultEventMap(), zeroPolicy())
	b.now = func() time.Time { return time.Date(2025, 8, 29, 10, 30, 0, 0, time.UTC) }
	return b
}

func carrierWithEstimate() *fakeCarrier {
	planned := time.Date(2025, 9, 2, 18, 0, 0, 0, time.UTC)
	return &fakeCarrier{res: pegas.StatusResult{
		PerformersNumber: "PF-900",
		PlannedDelivery:  &planned,
		Statuses:         []models.DeliveryStatus{statusAt(models.StatusPickedUp, time.Now().UTC())},
	}}
}

func TestBuilder_eventItemsFilteredAndSequenced(t *testing.T) {
	b := newTestBuilder(carrierWithEstimate())
	at := time.Date(2025, 8, 28, 7, 15, 30, 0, time.UTC)

	msg, err := b.Build(context.Background(), BuildInput{
		Request:        sampleRequest(),
		DocumentNumber: "D1",
		Delta: []models.DeliveryStatus{
			statusAt(models.StatusPickedUp, at),
			statusAt("CustomsHold", at), // not partner-relevant
			statusAt(models.StatusDeparted, at),
		},
		CartonNumber: "CTN-1",
		Sequence:     1,
	})
	require.NoError(t, err)

	require.Len(t, msg.Events, 2)
	require.Equal(t, "TR01-AA", msg.Events[0].EventType)
	require.Equal(t, "1", msg.Events[0].SequenceNumber)
	require.Equal(t, "TR02-CC", msg.Events[1].EventType)
	require.Equal(t, "2", msg.Events[1].SequenceNumber)

	require.Equal(t, "20250828", msg.Events[0].ActualDate)
	require.Equal(t, "071530", msg.Events[0].ActualTime)
	require.Equal(t, "20250902", msg.Events[0].EstimateDate)
	require.Equal(t, "180000", msg.Events[0].EstimateTime)
}

func TestBuilder_statusWithoutTimeDefaultsToNow(t *testing.T) {
	b := newTestBuilder(carrierWithEstimate())

	msg, err := b.Build(context.Background(), BuildInput{
		Request:        sampleRequest(),
		DocumentNumber: "D1",
		Delta:          []models.DeliveryStatus{{Code: models.StatusArrived}},
		CartonNumber:   "CTN-1",
		Sequence:       1,
	})
	require.NoError(t, err)
	require.Equal(t, "20250829", msg.Events[0].ActualDate)
	require.Equal(t, "103000", msg.Events[0].ActualTime)
}

func TestBuilder_versionClassification(t *testing.T) {
	now := time.Now().UTC()
	delta := []models.DeliveryStatus{statusAt(models.StatusPickedUp, now)}

	cases := []struct {
		name         string
		sequence     int
		hasLifecycle bool
		want         string
	}{
		{"first carton no history", 1, false, edi.FunctionOriginal},
		{"second carton same pass", 2, false, edi.FunctionUpdate},
		{"first carton prior lifecycle", 1, true, edi.FunctionUpdate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBuilder(carrierWithEstimate())
			msg, err := b.Build(context.Background(), BuildInput{
				Request:             sampleRequest(),
				DocumentNumber:      "D1",
				Delta:               delta,
				CartonNumber:        "CTN-1",
				Sequence:            tc.sequence,
				HasLifecycleHistory: tc.hasLifecycle,
			})
			require.NoError(t, err)
			require.Equal(t, tc.want, msg.MessageFunctionCode)
		})
	}
}

func TestBuilder_chargeableWeightFirstCartonOnly(t *testing.T) {
	now := time.Now().UTC()
	delta := []models.DeliveryStatus{statusAt(models.StatusPickedUp, now)}
	b := newTestBuilder(carrierWithEstimate())

	// volume=2.0 * 167 = 334 > gross=300 -> first carton reports 334.
	first, err := b.Build(context.Background(), BuildInput{
		Request: sampleRequest(), DocumentNumber: "D1", Delta: delta,
		CartonNumber: "CTN-1", Sequence: 1,
	})
	require.NoError(t, err)
	require.Equal(t, "334", first.TotalChargeableWeight)

	second, err := b.Build(context.Background(), BuildInput{
		Request: sampleRequest(), DocumentNumber: "D1", Delta: delta,
		CartonNumber: "CTN-2", Sequence: 2,
	})
	require.NoError(t, err)
	require.Equal(t, "0", second.TotalChargeableWeight)
}

func TestBuilder_chargeableWeightRoundsUpToHalf(t *testing.T) {
	now := time.Now().UTC()
	delta := []models.DeliveryStatus{statusAt(models.StatusPickedUp, now)}
	b := newTestBuilder(carrierWithEstimate())

	req := sampleRequest()
	req.TotalCargo.Volume = "1.997" // 1.997*167 = 333.499 -> 333.5
	req.TotalCargo.GrossWeight = "100"

	msg, err := b.Build(context.Background(), BuildInput{
		Request: req, DocumentNumber: "D1", Delta: delta,
		CartonNumber: "CTN-1", Sequence: 1,
	})
	require.NoError(t, err)
	require.Equal(t, "333.5", msg.TotalChargeableWeight)
}

func TestBuilder_grossWinsWhenHeavierThanVolumetric(t *testing.T) {
	now := time.Now().UTC()
	delta := []models.DeliveryStatus{statusAt(models.StatusPickedUp, now)}
	b := newTestBuilder(carrierWithEstimate())

	req := sampleRequest()
	req.TotalCargo.Volume = "0.1" // 16.7 volumetric
	req.TotalCargo.GrossWeight = "120.2"

	msg, err := b.Build(context.Background(), BuildInput{
		Request: req, DocumentNumber: "D1", Delta: delta,
		CartonNumber: "CTN-1", Sequence: 1,
	})
	require.NoError(t, err)
	require.Equal(t, "120.5", msg.TotalChargeableWeight)
}

func TestBuilder_malformedNumbersDefaultToZero(t *testing.T) {
	now := time.Now().UTC()
	delta := []models.DeliveryStatus{statusAt(models.StatusPickedUp, now)}
	b := newTestBuilder(carrierWithEstimate())

	req := sampleRequest()
	req.TotalCargo.Volume = "n/a"
	req.TotalCargo.GrossWeight = ""

	msg, err := b.Build(context.Background(), BuildInput{
		Request: req, DocumentNumber: "D1", Delta: delta,
		CartonNumber: "CTN-1", Sequence: 1,
	})
	require.NoError(t, err)
	require.Equal(t, "0", msg.TotalChargeableWeight)
}

func TestBuilder_headerAndMaterials(t *testing.T) {
	now := time.Now().UTC()
	b := newTestBuilder(carrierWithEstimate())

	msg, err := b.Build(context.Background(), BuildInput{
		Request:        sampleRequest(),
		DocumentNumber: "D1",
		Delta:          []models.DeliveryStatus{statusAt(models.StatusPickedUp, now)},
		CartonNumber:   "CTN-2",
		Sequence:       1,
	})
	require.NoError(t, err)

	require.Equal(t, "PF-900", msg.DocumentNumber)
	require.Equal(t, "TRKINF_PF-900_103000-1", msg.MessageNumber)
	require.Equal(t, models.MessageTypeTRKINF, msg.MessageTypeIdentifier)
	require.Equal(t, "CTN-2", msg.PackingNo)
	require.Equal(t, "PACK", msg.TrackingType)

	// Sender and receiver swap relative to the inbound request.
	require.Equal(t, "Acme Retail", msg.MessageReceiverName)
	require.Equal(t, "Logistic operator", msg.MessageSenderName)

	require.Len(t, msg.Materials, 2)
	require.Equal(t, "1", msg.Materials[0].SequenceNumber)
	require.Equal(t, "Widget", msg.Materials[0].Material)
	require.Equal(t, "2", msg.Materials[1].SequenceNumber)
	require.Equal(t, "Gadget", msg.Materials[1].Material)
}

func TestBuilder_failsWhenReFetchUnavailable(t *testing.T) {
	b := newTestBuilder(&fakeCarrier{err: errors.New("boom")})

	_, err := b.Build(context.Background(), BuildInput{
		Request:        sampleRequest(),
		DocumentNumber: "D1",
		Delta:          []models.DeliveryStatus{{Code: models.StatusPickedUp}},
		CartonNumber:   "CTN-1",
		Sequence:       1,
	})
	require.Error(t, err)
}

func TestBuilder_settlesBeforeFinalizing(t *testing.T) {
	rec := &sleepRecorder{}
	policy := NewPacingPolicy(PacingConfig{SettleDelay: time.Second}, rec.sleep)
	f := NewFetcher(carrierWithEstimate(), zeroPolicy(), &fakeSink{})
	b := NewBuilder(f, edi.DefaultEventMap(), policy)

	_, err := b.Build(context.Background(), BuildInput{
		Request:        sampleRequest(),
		DocumentNumber: "D1",
		Delta:          []models.DeliveryStatus{{Code: models.StatusPickedUp}},
		CartonNumber:   "CTN-1",
		Sequence:       1,
	})
	require.NoError(t, err)
	require.Contains(t, rec.slept, time.Second)
}
