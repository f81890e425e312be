package pegashttp

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/BearBump/TrackRelay/internal/integrations/pegas"
	"github.com/BearBump/TrackRelay/internal/models"
	"github.com/pkg/errors"
)

const timeLayout = "2006-01-02T15:04:05"

type Client struct {
	baseURL   string
	accessKey string
	httpc     *http.Client
}

func New(baseURL, accessKey string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9100"
	}
	return &Client{
		baseURL:   baseURL,
		accessKey: accessKey,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type statusRequest struct {
	XMLName xml.Name       `xml:"Request"`
	Mode    string         `xml:"Mode,attr"`
	Orders  []requestOrder `xml:"OrderList>Order"`
}

type requestOrder struct {
	ClientsNumber string `xml:"ClientsNumber,attr"`
}

type statusResponse struct {
	XMLName xml.Name        `xml:"Response"`
	Orders  []responseOrder `xml:"OrderList>Order"`
}

type responseOrder struct {
	PerformersNumber string            `xml:"PerformersNumber,attr"`
	Services         []responseService `xml:"ServiceList>Service"`
}

type responseService struct {
	Type                string           `xml:"Type,attr"`
	PlannedDeliveryDate string           `xml:"PlannedDeliveryDate,attr"`
	Statuses            []responseStatus `xml:"StatusList>Status"`
}

type responseStatus struct {
	Code        string `xml:"Code,attr"`
	Date        string `xml:"Date,attr"`
	Description string `xml:"Description,attr"`
}

// OrderStatus issues a Mode="Status" query for one shipment. The carrier
// answers with every service it performed; statuses are taken from the
// first service, in the carrier's reporting order.
func (c *Client) OrderStatus(ctx context.Context, documentNumber string) (pegas.StatusResult, error) {
	body, err := xml.Marshal(statusRequest{
		Mode:   "Status",
		Orders: []requestOrder{{ClientsNumber: documentNumber}},
	})
	if err != nil {
		return pegas.StatusResult{}, errors.Wrap(err, "marshal status request")
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return pegas.StatusResult{}, errors.Wrap(err, "parse base url")
	}
	u.Path = "/api/orders"

	q := u.Query()
	q.Set("accessKey", c.accessKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return pegas.StatusResult{}, errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/xml")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return pegas.StatusResult{}, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return pegas.StatusResult{}, fmt.Errorf("pegas http %d", resp.StatusCode)
	}

	var r statusResponse
	if err := xml.NewDecoder(resp.Body).Decode(&r); err != nil {
		return pegas.StatusResult{}, errors.Wrap(err, "decode")
	}

	if len(r.Orders) == 0 {
		return pegas.StatusResult{}, nil
	}
	order := r.Orders[0]

	out := pegas.StatusResult{PerformersNumber: order.PerformersNumber}
	if len(order.Services) == 0 {
		return out, nil
	}
	svc := order.Services[0]

	if svc.PlannedDeliveryDate != "" {
		if t, err := time.ParseInLocation(timeLayout, svc.PlannedDeliveryDate, time.UTC); err == nil {
			out.PlannedDelivery = &t
		}
	}

	for _, st := range svc.Statuses {
		ds := models.DeliveryStatus{
			Code:        st.Code,
			Description: st.Description,
		}
		if st.Date != "" {
			if t, err := time.ParseInLocation(timeLayout, st.Date, time.UTC); err == nil {
				ds.Time = &t
			}
		}
		out.Statuses = append(out.Statuses, ds)
	}

	return out, nil
}
