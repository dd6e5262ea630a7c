package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dnslease/internal/model"
)

// LeaseStore is the local record store. *database.DB implements it.
// FindLeaseByName returns (nil, nil) when no lease row exists.
type LeaseStore interface {
	FindLeaseByName(name string) (*model.Lease, error)
	FindLeasesByOwner(ownerID string) ([]model.Lease, error)
	FindExpiredLeases(before time.Time) ([]model.Lease, error)
	InsertLease(l *model.Lease) error
	SaveLease(l *model.Lease) error
	DeleteLease(id uuid.UUID) error
}

// Provider is the remote DNS provider, scoped to one zone. Record
// names are relative to the zone. DeleteRecord must treat an absent
// record as a no-op.
type Provider interface {
	CreateRecord(ctx context.Context, spec model.RecordSpec) (model.RemoteRecord, error)
	ListRecords(ctx context.Context, name string) ([]model.RemoteRecord, error)
	DeleteRecord(ctx context.Context, remoteID string) error
}
