package database

import (
	"database/sql"

	"dnslease/internal/model"
)

func (db *DB) CreateSession(s model.Session) error {
	_, err := db.conn.Exec(
		"INSERT INTO sessions (token, csrf_token, username, created_at, expires_at) VALUES ($1, $2, $3, $4, $5)",
		s.Token, s.CSRFToken, s.Username, s.CreatedAt, s.ExpiresAt,
	)
	return err
}

// GetSession returns nil when no session row matches the token.
func (db *DB) GetSession(token string) (*model.Session, error) {
	s := &model.Session{Token: token}
	err := db.conn.QueryRow(
		"SELECT username, csrf_token, created_at, expires_at FROM sessions WHERE token = $1", token,
	).Scan(&s.Username, &s.CSRFToken, &s.CreatedAt, &s.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) DeleteSession(token string) error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE token = $1", token)
	return err
}

func (db *DB) PurgeExpiredSessions() error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE expires_at < NOW()")
	return err
}
