package model

import (
	"testing"
	"time"
)

func TestQualifyRecordName(t *testing.T) {
	cases := []struct {
		label, subdomain, want string
	}{
		{"", "blog", "blog"},
		{"@", "blog", "blog"},
		{"blog", "blog", "blog"},
		{"www", "blog", "www.blog"},
		{"WWW", "blog", "www.blog"},
		{"  mail ", "blog", "mail.blog"},
		{"a.b", "blog", "a.b.blog"},
	}
	for _, c := range cases {
		if got := QualifyRecordName(c.label, c.subdomain); got != c.want {
			t.Errorf("QualifyRecordName(%q, %q) = %q, want %q", c.label, c.subdomain, got, c.want)
		}
	}
}

func TestValidRecordType(t *testing.T) {
	for _, typ := range []string{"A", "AAAA", "CNAME", "MX", "TXT", "NS"} {
		if !ValidRecordType(typ) {
			t.Errorf("expected %q to be valid", typ)
		}
	}
	for _, typ := range []string{"a", "SRV", "PTR", "", "ANY"} {
		if ValidRecordType(typ) {
			t.Errorf("expected %q to be rejected", typ)
		}
	}
}

func TestLeaseExpired(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	lease := Lease{ExpireAt: now}

	if lease.Expired(now) {
		t.Error("expiry at the reference instant is not yet expired")
	}
	if !lease.Expired(now.Add(time.Second)) {
		t.Error("expected lease expired once the reference passes ExpireAt")
	}
	if lease.Expired(now.Add(-time.Second)) {
		t.Error("expected lease live before ExpireAt")
	}
}

func TestFindAndRemoveRecord(t *testing.T) {
	lease := Lease{Records: []Record{
		{Name: "blog", Type: "A", Value: "1.1.1.1"},
		{Name: "www.blog", Type: "CNAME", Value: "blog.example.com"},
	}}

	if rec := lease.FindRecord("www.blog"); rec == nil || rec.Type != "CNAME" {
		t.Fatalf("expected CNAME record, got %+v", rec)
	}
	if rec := lease.FindRecord("nosuch"); rec != nil {
		t.Errorf("expected nil for unknown name, got %+v", rec)
	}

	if !lease.RemoveRecord("blog") {
		t.Error("expected RemoveRecord to report removal")
	}
	if len(lease.Records) != 1 || lease.Records[0].Name != "www.blog" {
		t.Errorf("unexpected records after removal: %+v", lease.Records)
	}
	if lease.RemoveRecord("blog") {
		t.Error("expected second removal to report false")
	}
}
