package edi

import (
	"encoding/xml"

	"github.com/pkg/errors"
)

// PKGINF is the inbound packing-information message a shipment was created
// from. It is parsed read-only: the reconciler never mutates or re-saves it.
type PKGINF struct {
	XMLName xml.Name `xml:"PKGINF"`

	MessageSenderName   string `xml:"MessageSenderName"`
	MessageReceiverName string `xml:"MessageReceiverName"`

	RelatedDocument RelatedDocument `xml:"RelatedDocumentNumber"`
	TotalCargo      CargoTotals     `xml:"TotalCargoInformation"`

	Packages  []PKGItem `xml:"PKGList>PKGItem"`
	Materials []MatItem `xml:"MatList>MatItem"`
}

type RelatedDocument struct {
	Number               string `xml:"Number"`
	RelatedDocumentDate  string `xml:"RelatedDocumentDate"`
	RelatedMessageNumber string `xml:"RelatedMessageNumber"`
}

type CargoTotals struct {
	GrossWeight     string `xml:"GrossWeight"`
	GrossWeightCode string `xml:"GrossWeightCode"`
	Quantity        string `xml:"Quantity"`
	QuantityCode    string `xml:"QuantityCode"`
	Volume          string `xml:"Volume"`
	VolumeCode      string `xml:"VolumeCode"`
}

// PKGItem is one carton (sub-unit). Each carton gets its own TRKINF
// message per reconciliation pass.
type PKGItem struct {
	CartonNumber string `xml:"CartonNumber"`
}

type MatItem struct {
	Material Material         `xml:"Material"`
	Cargo    CargoInformation `xml:"CargoInformation"`
}

type Material struct {
	ItemNumber   string `xml:"ItemNumber"`
	MaterialName string `xml:"MaterialName"`
}

type CargoInformation struct {
	ChargeableWeight     string `xml:"ChargeableWeight"`
	ChargeableWeightCode string `xml:"ChargeableWeightCode"`
	GrossWeight          string `xml:"GrossWeight"`
	GrossWeightCode      string `xml:"GrossWeightCode"`
	Quantity             string `xml:"Quantity"`
	QuantityCode         string `xml:"QuantityCode"`
	Volume               string `xml:"Volume"`
	VolumeCode           string `xml:"VolumeCode"`
}

func ParsePKGINF(body []byte) (*PKGINF, error) {
	var p PKGINF
	if err := xml.Unmarshal(body, &p); err != nil {
		return nil, errors.Wrap(err, "unmarshal pkginf")
	}
	return &p, nil
}
