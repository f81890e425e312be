package reconciler

import (
	"context"
	"time"

	"github.com/BearBump/TrackRelay/internal/edi"
	"github.com/BearBump/TrackRelay/internal/integrations/pegas"
	"github.com/BearBump/TrackRelay/internal/models"
	"github.com/pkg/errors"
)

// Shared fakes for the reconciler package tests.

type fakeCarrier struct {
	res   pegas.StatusResult
	err   error
	calls int
}

func (c *fakeCarrier) OrderStatus(ctx context.Context, documentNumber string) (pegas.StatusResult, error) {
	c.calls++
	return c.res, c.err
}

type fakePartner struct {
	payloads [][]byte
	failures int // fail this many leading calls
	calls    int
}

func (p *fakePartner) Send(ctx context.Context, payload []byte) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("partner down")
	}
	p.payloads = append(p.payloads, append([]byte{}, payload...))
	return nil
}

type fakeSink struct {
	sources []string
	msgs    []string
}

func (s *fakeSink) Failure(_ context.Context, source, msg string, _ map[string]string) {
	s.sources = append(s.sources, source)
	s.msgs = append(s.msgs, msg)
}

type sleepRecorder struct {
	slept []time.Duration
}

func (r *sleepRecorder) sleep(d time.Duration) {
	r.slept = append(r.slept, d)
}

func zeroPolicy() *PacingPolicy {
	return NewPacingPolicy(PacingConfig{}, func(time.Duration) {})
}

func statusAt(code string, t time.Time) models.DeliveryStatus {
	return models.DeliveryStatus{Code: code, Time: &t, Description: code}
}

func sampleRequest() *edi.PKGINF {
	return &edi.PKGINF{
		MessageSenderName:   "Acme Retail",
		MessageReceiverName: "Logistic operator",
		RelatedDocument: edi.RelatedDocument{
			Number:               "RD-77",
			RelatedDocumentDate:  "20250801",
			RelatedMessageNumber: "RM-77",
		},
		TotalCargo: edi.CargoTotals{
			GrossWeight:     "300",
			GrossWeightCode: "KG",
			Quantity:        "2",
			QuantityCode:    "PCE",
			Volume:          "2.0",
			VolumeCode:      "M3",
		},
		Packages: []edi.PKGItem{
			{CartonNumber: "CTN-1"},
			{CartonNumber: "CTN-2"},
		},
		Materials: []edi.MatItem{
			{
				Material: edi.Material{ItemNumber: "10", MaterialName: "Widget"},
				Cargo: edi.CargoInformation{
					ChargeableWeight: "150", ChargeableWeightCode: "KG",
					GrossWeight: "150", GrossWeightCode: "KG",
					Quantity: "1", QuantityCode: "PCE",
					Volume: "1.0", VolumeCode: "M3",
				},
			},
			{
				Material: edi.Material{ItemNumber: "20", MaterialName: "Gadget"},
				Cargo: edi.CargoInformation{
					ChargeableWeight: "150", ChargeableWeightCode: "KG",
					GrossWeight: "150", GrossWeightCode: "KG",
					Quantity: "1", QuantityCode: "PCE",
					Volume: "1.0", VolumeCode: "M3",
				},
			},
		},
	}
}
