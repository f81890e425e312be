package edi

import "github.com/BearBump/TrackRelay/internal/models"

// PartnerEvent is the partner-side (code, description) pair a carrier
// lifecycle status maps to.
type PartnerEvent struct {
	Code        string
	Description string
}

// EventMap maps carrier status codes to partner event types. Constructed
// once and injected; a code absent from the map is not partner-relevant.
type EventMap map[string]PartnerEvent

func (m EventMap) Lookup(code string) (PartnerEvent, bool) {
	ev, ok := m[code]
	return ev, ok
}

func DefaultEventMap() EventMap {
	return EventMap{
		models.StatusPickedUp:   {Code: "TR01-AA", Description: "Shipment picked up"},
		models.StatusDebited:    {Code: "TR02-BB", Description: "Shipment debited"},
		models.StatusDeparted:   {Code: "TR02-CC", Description: "Departed from origin hub"},
		models.StatusArrived:    {Code: "TR03-DD", Description: "Arrived at destination hub"},
		models.StatusOnLastMile: {Code: "TR03-EE", Description: "Out for delivery"},
		models.StatusDelivered:  {Code: "TR05-FF", Description: "Delivered to consignee"},
	}
}
