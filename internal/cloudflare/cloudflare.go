package cloudflare

import (
	"context"
	"errors"
	"fmt"
	"strings"

	cf "github.com/cloudflare/cloudflare-go"

	"dnslease/internal/model"
)

// Client is the zone-scoped DNS provider client. Record names cross
// this boundary relative to the managed zone; the client qualifies
// them against the zone name on the way out and strips the suffix on
// the way back in.
type Client struct {
	api      *cf.API
	zone     *cf.ResourceContainer
	zoneName string
}

func New(apiToken, zoneID, zoneName string) (*Client, error) {
	api, err := cf.NewWithAPIToken(apiToken)
	if err != nil {
		return nil, fmt.Errorf("cloudflare: %w", err)
	}
	return &Client{
		api:      api,
		zone:     cf.ZoneIdentifier(zoneID),
		zoneName: strings.TrimSuffix(zoneName, "."),
	}, nil
}

func (c *Client) fqdn(name string) string {
	if name == "" {
		return c.zoneName
	}
	return name + "." + c.zoneName
}

func (c *Client) relative(fqdn string) string {
	name := strings.TrimSuffix(fqdn, ".")
	if name == c.zoneName {
		return ""
	}
	return strings.TrimSuffix(name, "."+c.zoneName)
}

func (c *Client) toRemote(rec cf.DNSRecord) model.RemoteRecord {
	proxied := rec.Proxied != nil && *rec.Proxied
	return model.RemoteRecord{
		ID:      rec.ID,
		Name:    c.relative(rec.Name),
		Type:    rec.Type,
		Value:   rec.Content,
		Proxied: proxied,
		TTL:     rec.TTL,
	}
}

func (c *Client) CreateRecord(ctx context.Context, spec model.RecordSpec) (model.RemoteRecord, error) {
	rec, err := c.api.CreateDNSRecord(ctx, c.zone, cf.CreateDNSRecordParams{
		Type:     spec.Type,
		Name:     c.fqdn(spec.Name),
		Content:  spec.Value,
		TTL:      spec.TTL,
		Proxied:  cf.BoolPtr(spec.Proxied),
		Priority: spec.Priority,
	})
	if err != nil {
		return model.RemoteRecord{}, err
	}
	return c.toRemote(rec), nil
}

// ListRecords returns the remote records whose name matches exactly.
func (c *Client) ListRecords(ctx context.Context, name string) ([]model.RemoteRecord, error) {
	recs, _, err := c.api.ListDNSRecords(ctx, c.zone, cf.ListDNSRecordsParams{
		Name: c.fqdn(name),
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.RemoteRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, c.toRemote(rec))
	}
	return out, nil
}

// DeleteRecord removes a record by its provider-assigned ID. Deleting
// a record that no longer exists is treated as success, so teardown
// passes are safe to retry.
func (c *Client) DeleteRecord(ctx context.Context, remoteID string) error {
	err := c.api.DeleteDNSRecord(ctx, c.zone, remoteID)
	if err != nil && isNotFound(err) {
		return nil
	}
	return err
}

func isNotFound(err error) bool {
	var nfe cf.NotFoundError
	return errors.As(err, &nfe)
}
