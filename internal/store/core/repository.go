package core

import "context"

// Repository is the user/credential store consumed by the provisioner.
type Repository interface {
	Ping(ctx context.Context) error

	// GetUserByEmail returns the user and its credential. The credential
	// may be nil when a previous provisioning attempt was interrupted
	// between user and credential creation.
	GetUserByEmail(ctx context.Context, email string) (*User, *Credential, error)

	// GetUserBySubject looks a user up by the partner subject id.
	GetUserBySubject(ctx context.Context, subjectID string) (*User, error)

	// CreateUserWithCredential atomically inserts the user row and its
	// credential. Returns ErrConflict when the subject id or email is
	// already taken; partial inserts never survive.
	CreateUserWithCredential(ctx context.Context, u *User, secretHash string) error

	// PurgeSubject removes any user/credential rows tied to the subject
	// id or email. Defensive cleanup before create: it repairs state left
	// by a previously interrupted provisioning attempt.
	PurgeSubject(ctx context.Context, subjectID, email string) error

	Close()
}
