package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
)

func instrumentPath(kind domain.InstrumentKind, id string) string {
	p := "/api/v1/" + kind.Collection()
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

// ListInstruments loads every instrument of one class.
func (c *Client) ListInstruments(ctx context.Context, kind domain.InstrumentKind) ([]domain.InstrumentRecord, error) {
	raw, err := c.getRaw(ctx, kind.Collection(), instrumentPath(kind, ""), nil)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.InstrumentRecord](raw, kind.Collection(), kind.Collection(), "data")
}

// CreateInstrument POSTs a new instrument. Exactly one request is sent.
func (c *Client) CreateInstrument(ctx context.Context, kind domain.InstrumentKind, payload any) error {
	_, err := c.send(ctx, http.MethodPost, kind.Collection(), instrumentPath(kind, ""), payload)
	return err
}

// UpdateInstrument PUTs the full instrument under its id.
func (c *Client) UpdateInstrument(ctx context.Context, kind domain.InstrumentKind, id string, payload any) error {
	if strings.TrimSpace(id) == "" {
		return &domain.ErrValidation{Field: "instrument_id", Message: "required"}
	}
	_, err := c.send(ctx, http.MethodPut, kind.Collection(), instrumentPath(kind, id), payload)
	return err
}

// DeleteInstrument removes an instrument by id.
func (c *Client) DeleteInstrument(ctx context.Context, kind domain.InstrumentKind, id string) error {
	if strings.TrimSpace(id) == "" {
		return &domain.ErrValidation{Field: "instrument_id", Message: "required"}
	}
	_, err := c.send(ctx, http.MethodDelete, kind.Collection(), instrumentPath(kind, id), nil)
	return err
}

// Ping measures one uncoalesced round trip to a cheap endpoint.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	_, err := c.roundTrip(ctx, http.MethodGet, "ping", c.buildURL("/api/v1/portfolio/composition", nil), nil, false)
	return time.Since(start), err
}
