package service

import (
	"context"
	"log"
	"time"
)

// Sweeper reclaims expired leases on a fixed schedule, deleting their
// remote records and then the local rows. A store failure aborts the
// run; per-lease failures are logged and skipped, and the next run
// re-attempts whatever is left. Remote deletions are retry-safe
// because deleting an absent record is a no-op.
type Sweeper struct {
	store      LeaseStore
	reconciler *Reconciler
	interval   time.Duration
	now        func() time.Time
}

func NewSweeper(store LeaseStore, reconciler *Reconciler, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:      store,
		reconciler: reconciler,
		interval:   interval,
		now:        time.Now,
	}
}

// Sweep runs one pass and returns the number of leases reclaimed. The
// reference timestamp is the start of the current day: leases that
// expired before today are reclaimed, while any expiry falling today
// survives until tomorrow's run.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	ref := startOfDay(s.now())
	expired, err := s.store.FindExpiredLeases(ref)
	if err != nil {
		return 0, &StoreError{Op: "find expired leases", Err: err}
	}

	swept := 0
	for i := range expired {
		lease := &expired[i]
		s.reconciler.TeardownLease(ctx, lease)
		if err := s.store.DeleteLease(lease.ID); err != nil {
			log.Printf("sweep: delete lease %s: %v", lease.SubdomainName, err)
			continue
		}
		swept++
	}
	log.Printf("sweep complete: %d expired lease(s) reclaimed", swept)
	return swept, nil
}

// Run sweeps once immediately, then on every interval tick until the
// context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil {
		log.Printf("sweep failed: %v", err)
	}
	for {
		select {
		case <-time.After(s.interval):
			if _, err := s.Sweep(ctx); err != nil {
				log.Printf("sweep failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
