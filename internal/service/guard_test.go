package service

import (
	"context"
	"errors"
	"testing"
)

func TestGuardAuthorize(t *testing.T) {
	store, _, m, _, _ := newTestEnv()
	guard := NewGuard(store)

	if _, err := m.Register(context.Background(), "blog", "a@x.com", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := guard.Authorize("a@x.com", "blog"); err != nil {
		t.Errorf("expected owner authorized, got %v", err)
	}
	if err := guard.Authorize("A@X.com", "BLOG"); err != nil {
		t.Errorf("expected case-insensitive match, got %v", err)
	}
	if err := guard.Authorize("b@x.com", "blog"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if err := guard.Authorize("a@x.com", "nosuch"); !errors.Is(err, ErrLeaseNotFound) {
		t.Errorf("expected ErrLeaseNotFound, got %v", err)
	}
}

func TestGuardAuthorizeStoreFailure(t *testing.T) {
	store, _, _, _, _ := newTestEnv()
	guard := NewGuard(store)
	store.findErr = errors.New("connection refused")

	err := guard.Authorize("a@x.com", "blog")
	var serr *StoreError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
}
