package messages

import "time"

// ReconcileFailure is the structured record written to the failure topic
// whenever the engine swallows or escalates an error. Fire-and-forget:
// nothing in the engine waits on its delivery.
type ReconcileFailure struct {
	PassID  string            `json:"pass_id"`
	Source  string            `json:"source"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data,omitempty"`
	At      time.Time         `json:"at"`
}

// TrackingForwarded is emitted after a shipment's new statuses have been
// dispatched and committed to the history ledger.
type TrackingForwarded struct {
	PassID         string    `json:"pass_id"`
	DocumentNumber string    `json:"document_number"`
	MessageNumber  string    `json:"message_number"`
	RequestID      uint64    `json:"request_id"`
	Codes          []string  `json:"codes"`
	MessagesSent   int       `json:"messages_sent"`
	At             time.Time `json:"at"`
}
