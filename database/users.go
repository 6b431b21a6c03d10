package database

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// UpsertAdmin creates the admin user, or resets its password.
func (s *Store) UpsertAdmin(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO admin_user (username, password_hash) VALUES (?, ?)
		ON CONFLICT (username) DO UPDATE SET password_hash = excluded.password_hash`),
		username,
		string(hash),
	)
	return err
}

// VerifyPassword fails unless password matches the stored hash of username.
func (s *Store) VerifyPassword(ctx context.Context, username, password string) error {
	var hash string
	err := s.db.GetContext(ctx, &hash, s.db.Rebind(`
		SELECT password_hash FROM admin_user WHERE username = ?`),
		username,
	)
	if err != nil {
		return notFound(err)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *Store) StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO token (username, token_id, refresh_token_id, expiration)
		VALUES (?, ?, ?, ?)`),
		username,
		tokenID,
		refreshTokenID,
		expiration.UTC(),
	)
	return err
}

// ConsumeToken deletes a stored token id pair and returns its expiration.
// A pair can be consumed only once.
func (s *Store) ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) (expiration time.Time, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, &expiration, tx.Rebind(`
		SELECT expiration FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?`),
		username,
		tokenID,
		refreshTokenID,
	)
	if err != nil {
		err = notFound(err)
		return
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		DELETE FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?`),
		username,
		tokenID,
		refreshTokenID,
	)
	if err != nil {
		return
	}
	err = tx.Commit()
	return
}
