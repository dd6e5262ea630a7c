package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName rejects subdomain names outside [a-z0-9-]+.
	ErrInvalidName = errors.New("invalid subdomain name")

	// ErrNameTaken means an unexpired lease already holds the name.
	ErrNameTaken = errors.New("subdomain name already taken")

	// ErrLeaseNotFound means no lease exists for the subdomain.
	ErrLeaseNotFound = errors.New("lease not found")

	// ErrNotOwner means the caller does not hold the lease.
	ErrNotOwner = errors.New("not the lease owner")
)

// ProviderError wraps a failed remote DNS provider call.
type ProviderError struct {
	Op   string
	Name string
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StoreError wraps a failed local store operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
