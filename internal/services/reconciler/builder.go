package reconciler

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/BearBump/TrackRelay/internal/edi"
	"github.com/BearBump/TrackRelay/internal/models"
	"github.com/pkg/errors"
)

const (
	dateLayout = "20060102"
	timeLayout = "150405"

	// Dimensional weight factor: chargeable weight is the greater of
	// volume*factor and gross weight, rounded up to the nearest 0.5 kg.
	defaultDimensionalFactor = 167

	messageNamespace = "http://edi.bearbump.dev/trackrelay/elem"

	receiverIdentifier = "TAAA"
	senderIdentifier   = "TAAA0000"

	originCityCode    = "MOW"
	originCityName    = "Moscow"
	originCountryCode = "RU"
	originCountryName = "Russian Fed."
)

// BuildInput carries everything one TRKINF needs. Sequence is the running
// carton counter within the pass, 1-based; classification and the weight
// rule read it pre-increment.
type BuildInput struct {
	Request             *edi.PKGINF
	DocumentNumber      string
	Delta               []models.DeliveryStatus
	CartonNumber        string
	Sequence            int
	HasLifecycleHistory bool
}

// Builder assembles outbound TRKINF messages. It re-queries the carrier
// for the planned delivery estimate; if that re-fetch comes back
// unavailable the build fails and the caller must abort the shipment's
// pass.
type Builder struct {
	fetcher *Fetcher
	events  edi.EventMap
	policy  *PacingPolicy

	dimensionalFactor float64
	now               func() time.Time
}

func NewBuilder(fetcher *Fetcher, events edi.EventMap, policy *PacingPolicy) *Builder {
	return &Builder{
		fetcher:           fetcher,
		events:            events,
		policy:            policy,
		dimensionalFactor: defaultDimensionalFactor,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

func (b *Builder) Build(ctx context.Context, in BuildInput) (*edi.TRKINF, error) {
	if in.Request == nil {
		return nil, errors.New("original request is required")
	}

	res := b.fetcher.Fetch(ctx, in.DocumentNumber)
	if !res.Available {
		return nil, errors.Errorf("carrier unavailable for %s: %s", in.DocumentNumber, res.Reason)
	}

	now := b.now()

	estimateDate, estimateTime := "", ""
	if res.PlannedDelivery != nil {
		estimateDate = res.PlannedDelivery.Format(dateLayout)
		estimateTime = res.PlannedDelivery.Format(timeLayout)
	}

	evnItems := make([]edi.EvnItem, 0, len(in.Delta))
	seq := 1
	for _, st := range in.Delta {
		ev, relevant := b.events.Lookup(st.Code)
		if !relevant {
			continue
		}
		at := now
		if st.Time != nil {
			at = *st.Time
		}
		evnItems = append(evnItems, edi.EvnItem{
			ActualDate:     at.Format(dateLayout),
			ActualTime:     at.Format(timeLayout),
			CityCode:       originCityCode,
			CityName:       originCityName,
			CountryCode:    originCountryCode,
			CountryName:    originCountryName,
			CurrentEvent:   "X",
			Description:    ev.Description,
			EstimateDate:   estimateDate,
			EstimateTime:   estimateTime,
			EventName:      ev.Description,
			EventType:      ev.Code,
			SequenceNumber: strconv.Itoa(seq),
		})
		seq++
	}

	matItems := make([]edi.TrkinfMatItem, 0, len(in.Request.Materials))
	for i, item := range in.Request.Materials {
		matItems = append(matItems, edi.TrkinfMatItem{
			ChargeableWeight:     item.Cargo.ChargeableWeight,
			ChargeableWeightCode: item.Cargo.ChargeableWeightCode,
			GoodsDescription:     "",
			GrossWeight:          item.Cargo.GrossWeight,
			GrossWeightCode:      item.Cargo.GrossWeightCode,
			ItemNumber:           item.Material.ItemNumber,
			Material:             item.Material.MaterialName,
			Quantity:             item.Cargo.Quantity,
			QuantityCode:         item.Cargo.QuantityCode,
			SequenceNumber:       strconv.Itoa(i + 1),
			Volume:               item.Cargo.Volume,
			VolumeCode:           item.Cargo.VolumeCode,
		})
	}

	// Not the first carton in this pass, or the partner already heard a
	// lifecycle status in an earlier pass: the message is an update.
	functionCode := edi.FunctionOriginal
	if in.Sequence > 1 || in.HasLifecycleHistory {
		functionCode = edi.FunctionUpdate
	}

	b.policy.Settle()

	msg := &edi.TRKINF{
		Xmlns: messageNamespace,

		DocumentDate:   now.Format(dateLayout),
		DocumentNumber: res.PerformersNumber,

		MessageFunctionCode: functionCode,
		MessageName:         "Tracking Information",
		MessageNumber:       fmt.Sprintf("TRKINF_%s_%s-%d", res.PerformersNumber, now.Format(timeLayout), in.Sequence),

		// Sender and receiver swap relative to the inbound request.
		MessageReceiverIdentifier: receiverIdentifier,
		MessageReceiverName:       in.Request.MessageSenderName,
		MessageSenderIdentifier:   senderIdentifier,
		MessageSenderName:         in.Request.MessageReceiverName,
		MessageTypeIdentifier:     models.MessageTypeTRKINF,

		PackingNo: in.CartonNumber,

		RelatedDocumentDate:          in.Request.RelatedDocument.RelatedDocumentDate,
		RelatedDocumentNumber:        in.Request.RelatedDocument.Number,
		RelatedMessageNumber:         in.Request.RelatedDocument.RelatedMessageNumber,
		RelatedMessageTypeIdentifier: "OUTDLY",

		TotalChargeableWeight:     b.totalChargeableWeight(in),
		TotalChargeableWeightCode: "KG",
		TotalGrossWeight:          in.Request.TotalCargo.GrossWeight,
		TotalGrossWeightCode:      in.Request.TotalCargo.GrossWeightCode,
		TotalQuantity:             in.Request.TotalCargo.Quantity,
		TotalQuantityCode:         in.Request.TotalCargo.QuantityCode,
		TotalVolume:               in.Request.TotalCargo.Volume,
		TotalVolumeCode:           in.Request.TotalCargo.VolumeCode,

		TrackingType: "PACK",

		Events:    evnItems,
		Materials: matItems,
	}

	return msg, nil
}

// totalChargeableWeight implements the first-carton weight rule: only the
// carton with Sequence == 1 reports a weight, every later carton in the
// same pass reports zero.
func (b *Builder) totalChargeableWeight(in BuildInput) string {
	if in.Sequence > 1 {
		return "0"
	}
	volume := parseFloat(in.Request.TotalCargo.Volume)
	gross := parseFloat(in.Request.TotalCargo.GrossWeight)

	volumetric := volume * b.dimensionalFactor
	w := gross
	if volumetric > gross {
		w = volumetric
	}
	return formatFloat(roundUpHalf(w))
}

// parseFloat tolerates empty and non-numeric input by returning zero.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func roundUpHalf(v float64) float64 {
	return math.Ceil(v/0.5) * 0.5
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
