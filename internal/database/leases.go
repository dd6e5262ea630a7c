package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dnslease/internal/model"
)

func scanLease(row interface {
	Scan(dest ...interface{}) error
}) (*model.Lease, error) {
	l := &model.Lease{}
	var recordsJSON []byte
	err := row.Scan(&l.ID, &l.SubdomainName, &l.OwnerID, &l.CreatedAt, &l.ExpireAt, &recordsJSON)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(recordsJSON, &l.Records); err != nil {
		return nil, fmt.Errorf("decode lease records: %w", err)
	}
	return l, nil
}

// FindLeaseByName returns the lease holding the given subdomain name,
// or nil if no lease row exists.
func (db *DB) FindLeaseByName(name string) (*model.Lease, error) {
	row := db.conn.QueryRow(
		"SELECT id, subdomain_name, owner_id, created_at, expire_at, records FROM leases WHERE subdomain_name = $1",
		name,
	)
	l, err := scanLease(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

func (db *DB) FindLeasesByOwner(ownerID string) ([]model.Lease, error) {
	rows, err := db.conn.Query(
		"SELECT id, subdomain_name, owner_id, created_at, expire_at, records FROM leases WHERE owner_id = $1 ORDER BY created_at",
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leases []model.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		leases = append(leases, *l)
	}
	return leases, rows.Err()
}

// FindExpiredLeases returns every lease whose expiry is strictly before
// the given reference timestamp.
func (db *DB) FindExpiredLeases(before time.Time) ([]model.Lease, error) {
	rows, err := db.conn.Query(
		"SELECT id, subdomain_name, owner_id, created_at, expire_at, records FROM leases WHERE expire_at < $1 ORDER BY expire_at",
		before,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leases []model.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		leases = append(leases, *l)
	}
	return leases, rows.Err()
}

// InsertLease persists a new lease and appends its name to the owner's
// lease index in the same transaction. The unique constraint on
// subdomain_name is the cross-instance guard against double grants.
func (db *DB) InsertLease(l *model.Lease) error {
	recordsJSON, err := json.Marshal(l.Records)
	if err != nil {
		return fmt.Errorf("encode lease records: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO leases (id, subdomain_name, owner_id, created_at, expire_at, records) VALUES ($1, $2, $3, $4, $5, $6)",
		l.ID, l.SubdomainName, l.OwnerID, l.CreatedAt, l.ExpireAt, recordsJSON,
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO owner_leases (owner_id, subdomain_name) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		l.OwnerID, l.SubdomainName,
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// SaveLease updates a lease's record list and expiry.
func (db *DB) SaveLease(l *model.Lease) error {
	recordsJSON, err := json.Marshal(l.Records)
	if err != nil {
		return fmt.Errorf("encode lease records: %w", err)
	}
	res, err := db.conn.Exec(
		"UPDATE leases SET records = $1, expire_at = $2 WHERE id = $3",
		recordsJSON, l.ExpireAt, l.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("lease %s not found", l.ID)
	}
	return nil
}

// DeleteLease removes a lease row and its owner index entry in one
// transaction. Deleting an absent lease is a no-op.
func (db *DB) DeleteLease(id uuid.UUID) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	var ownerID, subdomain string
	err = tx.QueryRow(
		"DELETE FROM leases WHERE id = $1 RETURNING owner_id, subdomain_name", id,
	).Scan(&ownerID, &subdomain)
	if err == sql.ErrNoRows {
		_ = tx.Rollback()
		return nil
	}
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(
		"DELETE FROM owner_leases WHERE owner_id = $1 AND subdomain_name = $2",
		ownerID, subdomain,
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// OwnerSubdomains reads the owner's lease index.
func (db *DB) OwnerSubdomains(ownerID string) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT subdomain_name FROM owner_leases WHERE owner_id = $1 ORDER BY subdomain_name",
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
