// Package core defines the persistence contract for provisioned users.
package core

import "time"

// User is a locally provisioned identity. The id is the partner's stable
// subject identifier, reused as the primary key so provisioning the same
// subject twice can never create two rows.
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// Credential is the sign-in record paired with a user. Exactly one exists
// per user; a user row without one is corrupt state the provisioner repairs.
type Credential struct {
	ID         string
	UserID     string
	Email      string
	SecretHash string
	CreatedAt  time.Time
}
