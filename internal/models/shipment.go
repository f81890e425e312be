package models

import "time"

// Carrier delivery status codes as reported by the Pegas status API.
const (
	StatusPickedUp   = "PickedUp"
	StatusDebited    = "Debited"
	StatusDeparted   = "Departed"
	StatusArrived    = "Arrived"
	StatusOnLastMile = "OnLastMile"
	StatusDelivered  = "Delivered"
)

// LifecycleCodes are the six statuses the partner wants to hear about.
// Everything else still lands in tracking_history but never becomes
// an outbound event item.
func LifecycleCodes() []string {
	return []string{
		StatusPickedUp,
		StatusDebited,
		StatusDeparted,
		StatusArrived,
		StatusOnLastMile,
		StatusDelivered,
	}
}

// Request/message type identifiers.
const (
	RequestTypePKGINF = "PKGINF"
	MessageTypeTRKINF = "TRKINF"
)

// Shipment is one pending queue entry. DocumentNumber is the carrier's
// key; RequestDocumentNumber is the inbound PKGINF document it was
// created from (they can differ).
type Shipment struct {
	ID                    uint64
	DocumentNumber        string
	MessageNumber         string
	RequestID             uint64
	RequestDocumentNumber string
	CreatedAt             time.Time
}

type ShipmentCreateInput struct {
	DocumentNumber string
	MessageNumber  string
	RequestID      uint64
}

// Request is an immutable inbound payload, keyed by (document_number, request_type).
type Request struct {
	ID             uint64
	DocumentNumber string
	RequestType    string
	RequestBody    string
	CreatedAt      time.Time
}

// DeliveryStatus is one status record from a carrier fetch. Transient:
// it lives for a single reconciliation pass.
type DeliveryStatus struct {
	Code        string
	Time        *time.Time
	Description string
}

// HistoryRecord is the append-only dedup ledger entry. A
// (document_number, code) pair is written at most once, ever.
type HistoryRecord struct {
	ID             uint64
	DocumentNumber string
	Code           string
	Status         string
	MessageNumber  string
	RequestID      uint64
	CreatedAt      time.Time
}
