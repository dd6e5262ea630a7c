package util

import (
	"net/http/httptest"
	"testing"
)

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:54321"
	if got := GetClientIP(r); got != "10.0.0.1" {
		t.Errorf("RemoteAddr: expected 10.0.0.1, got %q", got)
	}

	r.Header.Set("X-Real-IP", "172.16.0.9")
	if got := GetClientIP(r); got != "172.16.0.9" {
		t.Errorf("X-Real-IP: expected 172.16.0.9, got %q", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")
	if got := GetClientIP(r); got != "203.0.113.7" {
		t.Errorf("X-Forwarded-For: expected 203.0.113.7, got %q", got)
	}
}
