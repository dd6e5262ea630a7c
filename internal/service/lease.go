package service

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"dnslease/internal/model"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// LeaseManager grants, queries and releases subdomain leases.
//
// Availability follows one policy everywhere: a name is available iff
// no lease row exists for it or the existing lease has expired, judged
// live against the clock rather than waiting for the sweep.
type LeaseManager struct {
	store      LeaseStore
	reconciler *Reconciler
	ttlDays    int
	now        func() time.Time
}

func NewLeaseManager(store LeaseStore, reconciler *Reconciler, defaultTTLDays int) *LeaseManager {
	return &LeaseManager{
		store:      store,
		reconciler: reconciler,
		ttlDays:    defaultTTLDays,
		now:        time.Now,
	}
}

// Register grants the caller a lease on the subdomain. ttlDays of zero
// or less falls back to the configured default. An expired lease still
// holding the name is torn down first — remote records deleted while
// their IDs are still resolvable from the stale row — before the new
// lease is inserted.
func (m *LeaseManager) Register(ctx context.Context, subdomain, ownerID string, ttlDays int) (*model.Lease, error) {
	name := strings.ToLower(strings.TrimSpace(subdomain))
	if !subdomainPattern.MatchString(name) {
		return nil, ErrInvalidName
	}
	ownerID = strings.ToLower(strings.TrimSpace(ownerID))

	existing, err := m.store.FindLeaseByName(name)
	if err != nil {
		return nil, &StoreError{Op: "find lease", Err: err}
	}
	if existing != nil {
		if !existing.Expired(m.now()) {
			return nil, ErrNameTaken
		}
		m.reconciler.TeardownLease(ctx, existing)
		if err := m.store.DeleteLease(existing.ID); err != nil {
			return nil, &StoreError{Op: "delete stale lease", Err: err}
		}
		log.Printf("reclaimed expired lease %s from %s", name, existing.OwnerID)
	}

	if ttlDays <= 0 {
		ttlDays = m.ttlDays
	}
	now := m.now()
	lease := &model.Lease{
		ID:            uuid.New(),
		SubdomainName: name,
		OwnerID:       ownerID,
		CreatedAt:     now,
		ExpireAt:      now.AddDate(0, 0, ttlDays),
		Records:       []model.Record{},
	}
	if err := m.store.InsertLease(lease); err != nil {
		return nil, &StoreError{Op: "insert lease", Err: err}
	}
	log.Printf("lease registered: %s -> %s (expires %s)", name, ownerID, lease.ExpireAt.Format(time.RFC3339))
	return lease, nil
}

// IsAvailable reports whether the name can currently be registered.
func (m *LeaseManager) IsAvailable(subdomain string) (bool, error) {
	lease, err := m.store.FindLeaseByName(strings.ToLower(strings.TrimSpace(subdomain)))
	if err != nil {
		return false, &StoreError{Op: "find lease", Err: err}
	}
	return lease == nil || lease.Expired(m.now()), nil
}

// IsOwner fails closed: a missing lease is not owned by anyone.
func (m *LeaseManager) IsOwner(ownerID, subdomain string) (bool, error) {
	lease, err := m.store.FindLeaseByName(strings.ToLower(strings.TrimSpace(subdomain)))
	if err != nil {
		return false, &StoreError{Op: "find lease", Err: err}
	}
	if lease == nil {
		return false, nil
	}
	return lease.OwnerID == strings.ToLower(strings.TrimSpace(ownerID)), nil
}

// Release tears down the lease's remote records and then removes the
// lease row and its owner index entry. Remote cleanup runs first, while
// the remote IDs are still retrievable from the local lease.
func (m *LeaseManager) Release(ctx context.Context, subdomain string) error {
	lease, err := m.store.FindLeaseByName(strings.ToLower(strings.TrimSpace(subdomain)))
	if err != nil {
		return &StoreError{Op: "find lease", Err: err}
	}
	if lease == nil {
		return ErrLeaseNotFound
	}
	m.reconciler.TeardownLease(ctx, lease)
	if err := m.store.DeleteLease(lease.ID); err != nil {
		return &StoreError{Op: "delete lease", Err: err}
	}
	log.Printf("lease released: %s", lease.SubdomainName)
	return nil
}

// Lease returns the lease holding the subdomain.
func (m *LeaseManager) Lease(subdomain string) (*model.Lease, error) {
	lease, err := m.store.FindLeaseByName(strings.ToLower(strings.TrimSpace(subdomain)))
	if err != nil {
		return nil, &StoreError{Op: "find lease", Err: err}
	}
	if lease == nil {
		return nil, ErrLeaseNotFound
	}
	return lease, nil
}

// LeasesFor returns the owner's leases.
func (m *LeaseManager) LeasesFor(ownerID string) ([]model.Lease, error) {
	leases, err := m.store.FindLeasesByOwner(strings.ToLower(strings.TrimSpace(ownerID)))
	if err != nil {
		return nil, &StoreError{Op: "find leases by owner", Err: err}
	}
	return leases, nil
}
