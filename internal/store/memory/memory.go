// Package memory implements core.Repository in process. Used by tests; it
// mirrors the pg adapter's conflict semantics, including the atomic
// unique-constraint check on create.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sinaneshat/billing-dashboard-sub005/internal/store/core"
)

type Repo struct {
	mu          sync.Mutex
	users       map[string]*core.User       // subject id -> user
	credentials map[string]*core.Credential // user id -> credential

	// CreateCalls counts CreateUserWithCredential invocations, conflicts
	// included. Tests use it to assert short-circuit behavior.
	CreateCalls int
}

func New() *Repo {
	return &Repo{
		users:       make(map[string]*core.User),
		credentials: make(map[string]*core.Credential),
	}
}

func (r *Repo) Ping(ctx context.Context) error { return nil }

func (r *Repo) Close() {}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (*core.User, *core.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range r.users {
		if strings.ToLower(u.Email) == email {
			uc := *u
			if c, ok := r.credentials[u.ID]; ok {
				cc := *c
				return &uc, &cc, nil
			}
			return &uc, nil, nil
		}
	}
	return nil, nil, core.ErrNotFound
}

func (r *Repo) GetUserBySubject(ctx context.Context, subjectID string) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[subjectID]
	if !ok {
		return nil, core.ErrNotFound
	}
	uc := *u
	return &uc, nil
}

func (r *Repo) CreateUserWithCredential(ctx context.Context, u *core.User, secretHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CreateCalls++

	if _, ok := r.users[u.ID]; ok {
		return core.ErrConflict
	}
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.ErrConflict
		}
	}

	stored := *u
	stored.CreatedAt = time.Now().UTC()
	r.users[u.ID] = &stored
	r.credentials[u.ID] = &core.Credential{
		ID:         uuid.NewString(),
		UserID:     u.ID,
		Email:      u.Email,
		SecretHash: secretHash,
		CreatedAt:  stored.CreatedAt,
	}
	return nil
}

func (r *Repo) PurgeSubject(ctx context.Context, subjectID, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.users {
		if id == subjectID || strings.EqualFold(u.Email, email) {
			delete(r.users, id)
			delete(r.credentials, id)
		}
	}
	return nil
}

// DropCredential removes only the credential row, leaving an orphan user.
// Test helper for simulating an interrupted provisioning attempt.
func (r *Repo) DropCredential(subjectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.credentials, subjectID)
}

// UserCount reports the number of user rows.
func (r *Repo) UserCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
