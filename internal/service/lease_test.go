package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"dnslease/internal/model"
)

var baseTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type fakeStore struct {
	leases map[string]*model.Lease
	index  map[string]map[string]bool

	findErr    error
	saveErr    error
	insertErr  error
	expiredErr error
	deleteErr  map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leases:    make(map[string]*model.Lease),
		index:     make(map[string]map[string]bool),
		deleteErr: make(map[string]error),
	}
}

func cloneLease(l *model.Lease) *model.Lease {
	c := *l
	c.Records = append([]model.Record{}, l.Records...)
	return &c
}

func (s *fakeStore) FindLeaseByName(name string) (*model.Lease, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	l, ok := s.leases[name]
	if !ok {
		return nil, nil
	}
	return cloneLease(l), nil
}

func (s *fakeStore) FindLeasesByOwner(ownerID string) ([]model.Lease, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []model.Lease
	for _, l := range s.leases {
		if l.OwnerID == ownerID {
			out = append(out, *cloneLease(l))
		}
	}
	return out, nil
}

func (s *fakeStore) FindExpiredLeases(before time.Time) ([]model.Lease, error) {
	if s.expiredErr != nil {
		return nil, s.expiredErr
	}
	var out []model.Lease
	for _, l := range s.leases {
		if l.ExpireAt.Before(before) {
			out = append(out, *cloneLease(l))
		}
	}
	return out, nil
}

func (s *fakeStore) InsertLease(l *model.Lease) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	if _, exists := s.leases[l.SubdomainName]; exists {
		return errors.New("duplicate subdomain_name")
	}
	s.leases[l.SubdomainName] = cloneLease(l)
	if s.index[l.OwnerID] == nil {
		s.index[l.OwnerID] = make(map[string]bool)
	}
	s.index[l.OwnerID][l.SubdomainName] = true
	return nil
}

func (s *fakeStore) SaveLease(l *model.Lease) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	for name, existing := range s.leases {
		if existing.ID == l.ID {
			s.leases[name] = cloneLease(l)
			return nil
		}
	}
	return errors.New("lease not found")
}

func (s *fakeStore) DeleteLease(id uuid.UUID) error {
	for name, l := range s.leases {
		if l.ID == id {
			if err := s.deleteErr[name]; err != nil {
				return err
			}
			delete(s.leases, name)
			delete(s.index[l.OwnerID], name)
			return nil
		}
	}
	return nil
}

type fakeProvider struct {
	records []model.RemoteRecord
	nextID  int

	createErr error
	listErr   error
	deleteErr error
}

func (p *fakeProvider) CreateRecord(_ context.Context, spec model.RecordSpec) (model.RemoteRecord, error) {
	if p.createErr != nil {
		return model.RemoteRecord{}, p.createErr
	}
	p.nextID++
	rec := model.RemoteRecord{
		ID:      fmt.Sprintf("rr-%d", p.nextID),
		Name:    spec.Name,
		Type:    spec.Type,
		Value:   spec.Value,
		Proxied: spec.Proxied,
		TTL:     spec.TTL,
	}
	p.records = append(p.records, rec)
	return rec, nil
}

func (p *fakeProvider) ListRecords(_ context.Context, name string) ([]model.RemoteRecord, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	var out []model.RemoteRecord
	for _, r := range p.records {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out, nil
}

func (p *fakeProvider) DeleteRecord(_ context.Context, id string) error {
	if p.deleteErr != nil {
		return p.deleteErr
	}
	for i, r := range p.records {
		if r.ID == id {
			p.records = append(p.records[:i], p.records[i+1:]...)
			return nil
		}
	}
	// Deleting an absent record is a no-op.
	return nil
}

func newTestEnv() (*fakeStore, *fakeProvider, *LeaseManager, *Reconciler, *Sweeper) {
	store := newFakeStore()
	provider := &fakeProvider{}
	rec := NewReconciler(store, provider)
	rec.now = testClock(baseTime)
	m := NewLeaseManager(store, rec, 30)
	m.now = testClock(baseTime)
	sw := NewSweeper(store, rec, 24*time.Hour)
	sw.now = testClock(baseTime)
	return store, provider, m, rec, sw
}

func TestRegisterThenUnavailable(t *testing.T) {
	_, _, m, _, _ := newTestEnv()

	lease, err := m.Register(context.Background(), "blog", "a@x.com", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lease.SubdomainName != "blog" {
		t.Errorf("expected subdomain 'blog', got %q", lease.SubdomainName)
	}
	if lease.OwnerID != "a@x.com" {
		t.Errorf("expected owner 'a@x.com', got %q", lease.OwnerID)
	}
	if len(lease.Records) != 0 {
		t.Errorf("expected empty record list, got %d", len(lease.Records))
	}

	available, err := m.IsAvailable("blog")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if available {
		t.Error("expected 'blog' to be unavailable after registration")
	}
}

func TestRegisterNormalizesCase(t *testing.T) {
	store, _, m, _, _ := newTestEnv()

	lease, err := m.Register(context.Background(), "  BLOG ", "A@X.COM", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lease.SubdomainName != "blog" {
		t.Errorf("expected lowercased name, got %q", lease.SubdomainName)
	}
	if lease.OwnerID != "a@x.com" {
		t.Errorf("expected lowercased owner, got %q", lease.OwnerID)
	}
	if store.leases["blog"] == nil {
		t.Error("expected lease stored under lowercased name")
	}
}

func TestRegisterInvalidName(t *testing.T) {
	_, _, m, _, _ := newTestEnv()

	for _, name := range []string{"", "has space", "under_score", "dotted.name", "bang!"} {
		_, err := m.Register(context.Background(), name, "a@x.com", 0)
		if !errors.Is(err, ErrInvalidName) {
			t.Errorf("Register(%q): expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestRegisterNameTaken(t *testing.T) {
	_, _, m, _, _ := newTestEnv()

	if _, err := m.Register(context.Background(), "blog", "a@x.com", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := m.Register(context.Background(), "blog", "b@x.com", 0)
	if !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}

func TestRegisterDefaultTTL(t *testing.T) {
	_, _, m, _, _ := newTestEnv()

	lease, err := m.Register(context.Background(), "blog", "a@x.com", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := baseTime.AddDate(0, 0, 30)
	if !lease.ExpireAt.Equal(want) {
		t.Errorf("expected expiry %s, got %s", want, lease.ExpireAt)
	}

	lease, err = m.Register(context.Background(), "wiki", "a@x.com", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = baseTime.AddDate(0, 0, 7)
	if !lease.ExpireAt.Equal(want) {
		t.Errorf("expected expiry %s, got %s", want, lease.ExpireAt)
	}
}

func TestRegisterReclaimsExpiredLease(t *testing.T) {
	store, provider, m, rec, _ := newTestEnv()

	stale, err := m.Register(context.Background(), "blog", "old@x.com", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := rec.CreateRecord(context.Background(), "blog", model.RecordSpec{Type: "A", Value: "1.2.3.4", TTL: 3600}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.records) != 1 {
		t.Fatalf("expected 1 remote record, got %d", len(provider.records))
	}

	// Jump past the stale lease's expiry.
	later := stale.ExpireAt.Add(48 * time.Hour)
	m.now = testClock(later)

	available, err := m.IsAvailable("blog")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !available {
		t.Fatal("expected expired lease to read as available")
	}

	fresh, err := m.Register(context.Background(), "blog", "new@x.com", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.OwnerID != "new@x.com" {
		t.Errorf("expected new owner, got %q", fresh.OwnerID)
	}
	if len(provider.records) != 0 {
		t.Errorf("expected stale remote records torn down, got %d left", len(provider.records))
	}
	if store.index["old@x.com"]["blog"] {
		t.Error("expected stale owner index entry removed")
	}
	if !store.index["new@x.com"]["blog"] {
		t.Error("expected new owner index entry present")
	}
}

func TestIsAvailableMissing(t *testing.T) {
	_, _, m, _, _ := newTestEnv()

	available, err := m.IsAvailable("nosuch")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !available {
		t.Error("expected unknown name to be available")
	}
}

func TestIsOwner(t *testing.T) {
	_, _, m, _, _ := newTestEnv()

	ok, err := m.IsOwner("a@x.com", "nosuch")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected IsOwner to fail closed for a missing lease")
	}

	if _, err := m.Register(context.Background(), "blog", "a@x.com", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, _ = m.IsOwner("a@x.com", "blog")
	if !ok {
		t.Error("expected owner match")
	}
	ok, _ = m.IsOwner("A@X.com", "BLOG")
	if !ok {
		t.Error("expected case-insensitive owner match")
	}
	ok, _ = m.IsOwner("b@x.com", "blog")
	if ok {
		t.Error("expected non-owner mismatch")
	}
}

func TestReleaseRemovesRemoteAndLocal(t *testing.T) {
	store, provider, m, rec, _ := newTestEnv()

	if _, err := m.Register(context.Background(), "blog", "a@x.com", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := rec.CreateRecord(context.Background(), "blog", model.RecordSpec{Type: "A", Value: "1.2.3.4", TTL: 3600}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.Release(context.Background(), "blog"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.leases) != 0 {
		t.Errorf("expected lease row removed, %d left", len(store.leases))
	}
	if len(provider.records) != 0 {
		t.Errorf("expected remote records removed, %d left", len(provider.records))
	}
	if store.index["a@x.com"]["blog"] {
		t.Error("expected owner index entry removed")
	}
}

func TestReleaseMissing(t *testing.T) {
	_, _, m, _, _ := newTestEnv()

	err := m.Release(context.Background(), "nosuch")
	if !errors.Is(err, ErrLeaseNotFound) {
		t.Fatalf("expected ErrLeaseNotFound, got %v", err)
	}
}

func TestLeasesFor(t *testing.T) {
	_, _, m, _, _ := newTestEnv()

	if _, err := m.Register(context.Background(), "blog", "a@x.com", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Register(context.Background(), "wiki", "a@x.com", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Register(context.Background(), "shop", "b@x.com", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	leases, err := m.LeasesFor("a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leases) != 2 {
		t.Errorf("expected 2 leases, got %d", len(leases))
	}
}

func TestStoreFailureSurfacesAsStoreError(t *testing.T) {
	store, _, m, _, _ := newTestEnv()
	store.findErr = errors.New("connection refused")

	_, err := m.Register(context.Background(), "blog", "a@x.com", 0)
	var serr *StoreError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
}
