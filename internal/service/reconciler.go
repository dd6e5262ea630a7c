package service

import (
	"context"
	"log"
	"strings"
	"time"

	"dnslease/internal/model"
)

// Reconciler pairs each record mutation with its remote counterpart.
// The remote provider is always mutated before the local mirror, so a
// local-only failure leaves the provider as the source of truth
// instead of leaking orphaned remote records. There is no compensating
// transaction: a succeeded remote step followed by a failed local step
// surfaces as an error while the remote state remains.
//
// The reconciler trusts its caller to have authorized the mutation;
// ownership checks belong to Guard.
type Reconciler struct {
	store    LeaseStore
	provider Provider
	now      func() time.Time
}

func NewReconciler(store LeaseStore, provider Provider) *Reconciler {
	return &Reconciler{store: store, provider: provider, now: time.Now}
}

func (r *Reconciler) loadLease(subdomain string) (*model.Lease, error) {
	lease, err := r.store.FindLeaseByName(strings.ToLower(subdomain))
	if err != nil {
		return nil, &StoreError{Op: "find lease", Err: err}
	}
	if lease == nil {
		return nil, ErrLeaseNotFound
	}
	return lease, nil
}

// CreateRecord materializes a new record at the provider and appends
// it to the lease's local record list.
func (r *Reconciler) CreateRecord(ctx context.Context, subdomain string, spec model.RecordSpec) (model.RemoteRecord, error) {
	lease, err := r.loadLease(subdomain)
	if err != nil {
		return model.RemoteRecord{}, err
	}

	spec.Name = model.QualifyRecordName(spec.Name, lease.SubdomainName)
	remote, err := r.provider.CreateRecord(ctx, spec)
	if err != nil {
		return model.RemoteRecord{}, &ProviderError{Op: "create", Name: spec.Name, Err: err}
	}

	lease.Records = append(lease.Records, model.Record{
		RemoteID:  remote.ID,
		Name:      spec.Name,
		Type:      spec.Type,
		Value:     spec.Value,
		Proxied:   spec.Proxied,
		TTL:       spec.TTL,
		Priority:  spec.Priority,
		CreatedAt: r.now(),
	})
	if err := r.store.SaveLease(lease); err != nil {
		// The remote record now exists without a local mirror entry.
		// Accepted inconsistency window; no remote rollback.
		return model.RemoteRecord{}, &StoreError{Op: "save lease", Err: err}
	}
	return remote, nil
}

// OverwriteRecord replaces whatever the provider holds under the name
// with the new spec. Overwrite is delete-then-create rather than an
// in-place update because the caller may not have a trustworthy remote
// ID for the name. Every same-named remote record is removed first, so
// repeated overwrites converge on exactly one remote record.
func (r *Reconciler) OverwriteRecord(ctx context.Context, subdomain string, spec model.RecordSpec) (model.RemoteRecord, error) {
	lease, err := r.loadLease(subdomain)
	if err != nil {
		return model.RemoteRecord{}, err
	}

	spec.Name = model.QualifyRecordName(spec.Name, lease.SubdomainName)
	existing, err := r.provider.ListRecords(ctx, spec.Name)
	if err != nil {
		return model.RemoteRecord{}, &ProviderError{Op: "list", Name: spec.Name, Err: err}
	}
	for _, rec := range existing {
		if err := r.provider.DeleteRecord(ctx, rec.ID); err != nil {
			return model.RemoteRecord{}, &ProviderError{Op: "delete", Name: spec.Name, Err: err}
		}
	}

	remote, err := r.provider.CreateRecord(ctx, spec)
	if err != nil {
		return model.RemoteRecord{}, &ProviderError{Op: "create", Name: spec.Name, Err: err}
	}

	record := model.Record{
		RemoteID:  remote.ID,
		Name:      spec.Name,
		Type:      spec.Type,
		Value:     spec.Value,
		Proxied:   spec.Proxied,
		TTL:       spec.TTL,
		Priority:  spec.Priority,
		CreatedAt: r.now(),
	}
	if local := lease.FindRecord(spec.Name); local != nil {
		record.CreatedAt = local.CreatedAt
		*local = record
	} else {
		lease.Records = append(lease.Records, record)
	}
	if err := r.store.SaveLease(lease); err != nil {
		return model.RemoteRecord{}, &StoreError{Op: "save lease", Err: err}
	}
	return remote, nil
}

// DeleteRecord removes the record from the provider and then from the
// lease's local record list. Only the first same-named remote record
// is removed; local state tracks a single record per name.
func (r *Reconciler) DeleteRecord(ctx context.Context, subdomain, label string) error {
	lease, err := r.loadLease(subdomain)
	if err != nil {
		return err
	}

	name := model.QualifyRecordName(label, lease.SubdomainName)
	existing, err := r.provider.ListRecords(ctx, name)
	if err != nil {
		return &ProviderError{Op: "list", Name: name, Err: err}
	}
	if len(existing) > 0 {
		if err := r.provider.DeleteRecord(ctx, existing[0].ID); err != nil {
			return &ProviderError{Op: "delete", Name: name, Err: err}
		}
	}

	lease.RemoveRecord(name)
	if err := r.store.SaveLease(lease); err != nil {
		return &StoreError{Op: "save lease", Err: err}
	}
	return nil
}

// TeardownLease deletes the lease's remote records, best effort. Each
// record's remote matches are looked up by name and deleted
// individually; a failure on one record is logged and does not block
// the others. Callers delete the lease row afterwards, while this pass
// could still resolve the records from local state.
func (r *Reconciler) TeardownLease(ctx context.Context, lease *model.Lease) {
	for _, rec := range lease.Records {
		matches, err := r.provider.ListRecords(ctx, rec.Name)
		if err != nil {
			log.Printf("teardown %s: list %q: %v", lease.SubdomainName, rec.Name, err)
			continue
		}
		for _, m := range matches {
			if err := r.provider.DeleteRecord(ctx, m.ID); err != nil {
				log.Printf("teardown %s: delete %q (%s): %v", lease.SubdomainName, rec.Name, m.ID, err)
			}
		}
	}
}
