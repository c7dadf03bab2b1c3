package pg

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sinaneshat/billing-dashboard-sub005/internal/store/core"
)

func (r *repo) GetUserByEmail(ctx context.Context, email string) (*core.User, *core.Credential, error) {
	const query = `
		SELECT u.id, u.email, u.name, u.created_at,
		       c.id, c.user_id, c.email, c.secret_hash, c.created_at
		FROM users u
		LEFT JOIN credentials c ON c.user_id = u.id
		WHERE lower(u.email) = lower($1)
	`
	var u core.User
	var credID, credUserID, credEmail, credHash *string
	var credCreatedAt *time.Time

	err := r.pool.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.Name, &u.CreatedAt,
		&credID, &credUserID, &credEmail, &credHash, &credCreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil, core.ErrNotFound
		}
		return nil, nil, err
	}
	if credID == nil {
		// interrupted provisioning left a user without its credential
		return &u, nil, nil
	}
	c := core.Credential{
		ID:         *credID,
		UserID:     *credUserID,
		Email:      *credEmail,
		SecretHash: *credHash,
	}
	if credCreatedAt != nil {
		c.CreatedAt = *credCreatedAt
	}
	return &u, &c, nil
}

func (r *repo) GetUserBySubject(ctx context.Context, subjectID string) (*core.User, error) {
	const query = `SELECT id, email, name, created_at FROM users WHERE id = $1`
	var u core.User
	err := r.pool.QueryRow(ctx, query, subjectID).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *repo) CreateUserWithCredential(ctx context.Context, u *core.User, secretHash string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, email, name, created_at) VALUES ($1, $2, $3, NOW())`,
		u.ID, u.Email, u.Name)
	if err != nil {
		if isUnique(err) {
			return core.ErrConflict
		}
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO credentials (id, user_id, email, secret_hash, created_at) VALUES ($1, $2, $3, $4, NOW())`,
		uuid.NewString(), u.ID, u.Email, secretHash)
	if err != nil {
		if isUnique(err) {
			return core.ErrConflict
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *repo) PurgeSubject(ctx context.Context, subjectID, email string) error {
	// credentials cascade from users
	_, err := r.pool.Exec(ctx,
		`DELETE FROM users WHERE id = $1 OR lower(email) = lower($2)`,
		subjectID, email)
	return err
}
