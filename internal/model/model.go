package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lease grants one owner exclusive, time-boxed control of a subdomain
// name under the managed zone.
type Lease struct {
	ID            uuid.UUID `json:"id"`
	SubdomainName string    `json:"subdomain_name"`
	OwnerID       string    `json:"owner_id"`
	CreatedAt     time.Time `json:"created_at"`
	ExpireAt      time.Time `json:"expire_at"`
	Records       []Record  `json:"records"`
}

// Expired reports whether the lease has passed its expiry at the given
// reference time.
func (l *Lease) Expired(now time.Time) bool {
	return l.ExpireAt.Before(now)
}

// FindRecord returns the lease's record with the given name, or nil.
func (l *Lease) FindRecord(name string) *Record {
	for i := range l.Records {
		if l.Records[i].Name == name {
			return &l.Records[i]
		}
	}
	return nil
}

// RemoveRecord drops the first record with the given name from the
// lease and reports whether anything was removed.
func (l *Lease) RemoveRecord(name string) bool {
	for i := range l.Records {
		if l.Records[i].Name == name {
			l.Records = append(l.Records[:i], l.Records[i+1:]...)
			return true
		}
	}
	return false
}

// Record is one DNS entry owned by a lease. Name is relative to the
// managed zone: "<label>.<subdomain>" for sub-records, or the bare
// subdomain for apex records. RemoteID is empty until the record has
// been materialized at the provider.
type Record struct {
	RemoteID  string    `json:"remote_id,omitempty"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	Proxied   bool      `json:"proxied"`
	TTL       int       `json:"ttl"`
	Priority  *uint16   `json:"priority,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordSpec is the caller's intent for a record mutation. Name is the
// record label, not yet qualified against its subdomain.
type RecordSpec struct {
	Name     string
	Type     string
	Value    string
	Proxied  bool
	TTL      int
	Priority *uint16
}

// RemoteRecord is the provider's view of a record, as returned from a
// create or list call.
type RemoteRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Value   string `json:"value"`
	Proxied bool   `json:"proxied"`
	TTL     int    `json:"ttl"`
}

var recordTypes = map[string]bool{
	"A":     true,
	"AAAA":  true,
	"CNAME": true,
	"MX":    true,
	"TXT":   true,
	"NS":    true,
}

// ValidRecordType reports whether t is a supported DNS record type.
func ValidRecordType(t string) bool {
	return recordTypes[t]
}

// QualifyRecordName resolves a record label against its subdomain.
// An empty label, "@", or the subdomain itself addresses the apex.
func QualifyRecordName(label, subdomain string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" || label == "@" || label == subdomain {
		return subdomain
	}
	return label + "." + subdomain
}

type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	PassHash   string    `json:"-"`
	Role       string    `json:"role"`
	Active     bool      `json:"active"`
	AuthSource string    `json:"auth_source"` // "local" or "ldap"
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Session struct {
	Token     string
	CSRFToken string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type AuditEntry struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Action     string    `json:"action"`
	Subdomain  string    `json:"subdomain,omitempty"`
	RecordName string    `json:"record_name,omitempty"`
	RecordType string    `json:"record_type,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	IPAddress  string    `json:"ip_address"`
	CreatedAt  time.Time `json:"created_at"`
}
