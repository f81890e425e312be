package edi

import (
	"encoding/xml"

	"github.com/pkg/errors"
)

// Message function codes (EDIFACT 1225): 9 = original transmission,
// 5 = replace/update of a previous one.
const (
	FunctionOriginal = "9"
	FunctionUpdate   = "5"
)

// TRKINF is the outbound tracking notification. Built fresh on every
// reconciliation pass, serialized and sent, never persisted.
type TRKINF struct {
	XMLName xml.Name `xml:"TRKINF"`
	Xmlns   string   `xml:"xmlns,attr"`

	DocumentDate   string `xml:"DocumentDate"`
	DocumentNumber string `xml:"DocumentNumber"`

	MessageFunctionCode string `xml:"MessageFunctionCode"`
	MessageName         string `xml:"MessageName"`
	MessageNumber       string `xml:"MessageNumber"`

	MessageReceiverIdentifier string `xml:"MessageReceiverIdentifier"`
	MessageReceiverName       string `xml:"MessageReceiverName"`
	MessageSenderIdentifier   string `xml:"MessageSenderIdentifier"`
	MessageSenderName         string `xml:"MessageSenderName"`
	MessageTypeIdentifier     string `xml:"MessageTypeIdentifier"`

	PackingNo string `xml:"PackingNo"`

	RelatedDocumentDate          string `xml:"RelatedDocumentDate"`
	RelatedDocumentNumber        string `xml:"RelatedDocumentNumber"`
	RelatedMessageNumber         string `xml:"RelatedMessageNumber"`
	RelatedMessageTypeIdentifier string `xml:"RelatedMessageTypeIdentifier"`

	TotalChargeableWeight     string `xml:"TotalChargeableWeight"`
	TotalChargeableWeightCode string `xml:"TotalChargeableWeightCode"`
	TotalGrossWeight          string `xml:"TotalGrossWeight"`
	TotalGrossWeightCode      string `xml:"TotalGrossWeightCode"`
	TotalQuantity             string `xml:"TotalQuantity"`
	TotalQuantityCode         string `xml:"TotalQuantityCode"`
	TotalVolume               string `xml:"TotalVolume"`
	TotalVolumeCode           string `xml:"TotalVolumeCode"`

	TrackingType string `xml:"TrackingType"`

	Events    []EvnItem       `xml:"EvnList>EvnItem"`
	Materials []TrkinfMatItem `xml:"MatList>MatItem"`
}

// EvnItem is one partner-relevant status event. SequenceNumber is a
// contiguous 1-based ordering local to this message.
type EvnItem struct {
	ActualDate     string `xml:"ActualDate"`
	ActualTime     string `xml:"ActualTime"`
	CityCode       string `xml:"CityCode"`
	CityName       string `xml:"CityName"`
	CountryCode    string `xml:"CountryCode"`
	CountryName    string `xml:"CountryName"`
	CurrentEvent   string `xml:"CurrentEvent"`
	Description    string `xml:"Description"`
	EstimateDate   string `xml:"EstimateDate"`
	EstimateTime   string `xml:"EstimateTime"`
	EventName      string `xml:"EventName"`
	EventType      string `xml:"EventType"`
	SequenceNumber string `xml:"SequenceNumber"`
}

// TrkinfMatItem is a material line copied verbatim from the PKGINF, so the
// material list is identical across every message for a shipment.
type TrkinfMatItem struct {
	ChargeableWeight     string `xml:"ChargeableWeight"`
	ChargeableWeightCode string `xml:"ChargeableWeightCode"`
	GoodsDescription     string `xml:"GoodsDescription"`
	GrossWeight          string `xml:"GrossWeight"`
	GrossWeightCode      string `xml:"GrossWeightCode"`
	ItemNumber           string `xml:"ItemNumber"`
	Material             string `xml:"Material"`
	Quantity             string `xml:"Quantity"`
	QuantityCode         string `xml:"QuantityCode"`
	SequenceNumber       string `xml:"SequenceNumber"`
	Volume               string `xml:"Volume"`
	VolumeCode           string `xml:"VolumeCode"`
}

func (m *TRKINF) Marshal() ([]byte, error) {
	b, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal trkinf")
	}
	return b, nil
}
