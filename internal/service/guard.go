package service

import (
	"strings"
)

// Guard authorizes mutations against lease ownership. Every mutating
// route runs through Authorize before the reconciler is invoked; the
// reconciler itself does not re-check ownership.
type Guard struct {
	store LeaseStore
}

func NewGuard(store LeaseStore) *Guard {
	return &Guard{store: store}
}

// Authorize returns nil iff the lease exists and is held by ownerID.
func (g *Guard) Authorize(ownerID, subdomain string) error {
	lease, err := g.store.FindLeaseByName(strings.ToLower(strings.TrimSpace(subdomain)))
	if err != nil {
		return &StoreError{Op: "find lease", Err: err}
	}
	if lease == nil {
		return ErrLeaseNotFound
	}
	if lease.OwnerID != strings.ToLower(strings.TrimSpace(ownerID)) {
		return ErrNotOwner
	}
	return nil
}
