package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/karstforge/speleosync/api"
	"github.com/karstforge/speleosync/internal/logging"
)

// ProjectLock is this client's local belief about a server-held lease. It
// only gates local actions; the server remains authoritative and may reject
// an operation regardless of what the cache says.
type ProjectLock struct {
	ProjectID        string
	HeldByThisClient bool
	AcquiredAt       time.Time
	LeaseExpiresAt   time.Time
}

func (l ProjectLock) expired(now time.Time) bool {
	return !l.LeaseExpiresAt.IsZero() && now.After(l.LeaseExpiresAt)
}

// LockProtocol acquires, refreshes and releases the server-held mutex for
// projects. It provides no local mutual exclusion: two callers racing on
// AcquireOrRefresh both ask the server, and only the server decides.
type LockProtocol struct {
	sessions *SessionManager
	retry    RetryConfig

	mu   sync.Mutex
	held map[string]ProjectLock
}

func NewLockProtocol(sessions *SessionManager, retry RetryConfig) *LockProtocol {
	return &LockProtocol{
		sessions: sessions,
		retry:    retry,
		held:     map[string]ProjectLock{},
	}
}

// AcquireOrRefresh asks the server for the project lease. It returns true
// when this client holds the lock after the call, false on an ordinary
// conflict (someone else holds it). Calling it repeatedly while holding the
// lock renews the lease and is safe. Errors are reserved for authentication
// and network failures.
func (p *LockProtocol) AcquireOrRefresh(ctx context.Context, project api.Project) (bool, error) {
	var lease api.LockResponse
	conflict := false

	err := retryDo(ctx, p.retry, "lock.acquire", func() error {
		req, err := p.sessions.newRequest(ctx, http.MethodPost, acquirePath(project.ID), nil)
		if err != nil {
			return err
		}

		resp, err := p.sessions.doRaw(req)
		if err != nil {
			return err
		}
		defer closeBody(resp)

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode <= 299:
			conflict = false
			// An empty lease body is tolerated; a zero expiry never
			// lapses locally.
			_ = json.NewDecoder(resp.Body).Decode(&lease)
			return nil

		case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusConflict:
			conflict = true
			return nil

		case resp.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("lock acquire rejected: %w", ErrAuthentication)

		default:
			return newStatusError(resp)
		}
	})
	if err != nil {
		return false, err
	}

	if conflict {
		p.forget(project.ID)
		logging.Logger.Debugf("lock conflict on project %s", project.ID)
		return false, nil
	}

	p.remember(project.ID, lease.ExpiresAt)

	return true, nil
}

// Release gives the lease back. Releasing a lock this client does not hold is
// a no-op returning false; the server never force-unlocks another client.
func (p *LockProtocol) Release(ctx context.Context, project api.Project) (bool, error) {
	notHolder := false

	err := retryDo(ctx, p.retry, "lock.release", func() error {
		req, err := p.sessions.newRequest(ctx, http.MethodPost, releasePath(project.ID), nil)
		if err != nil {
			return err
		}

		resp, err := p.sessions.doRaw(req)
		if err != nil {
			return err
		}
		defer closeBody(resp)

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode <= 299:
			notHolder = false
			return nil

		case resp.StatusCode == http.StatusForbidden:
			notHolder = true
			return nil

		case resp.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("lock release rejected: %w", ErrAuthentication)

		default:
			return newStatusError(resp)
		}
	})
	if err != nil {
		return false, err
	}

	p.forget(project.ID)

	return !notHolder, nil
}

// Held returns the local lock cache entry for the project, reporting false
// once the lease deadline has passed.
func (p *LockProtocol) Held(projectID string) (ProjectLock, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.held[projectID]
	if !ok || !lock.HeldByThisClient {
		return ProjectLock{}, false
	}
	if lock.expired(time.Now()) {
		delete(p.held, projectID)
		return ProjectLock{}, false
	}

	return lock, true
}

func (p *LockProtocol) remember(projectID string, expiresAt time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	acquiredAt := now
	if existing, ok := p.held[projectID]; ok && existing.HeldByThisClient {
		acquiredAt = existing.AcquiredAt
	}

	p.held[projectID] = ProjectLock{
		ProjectID:        projectID,
		HeldByThisClient: true,
		AcquiredAt:       acquiredAt,
		LeaseExpiresAt:   expiresAt,
	}
}

func (p *LockProtocol) forget(projectID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.held, projectID)
}

func acquirePath(projectID string) string {
	return projectsPath + projectID + "/acquire/"
}

func releasePath(projectID string) string {
	return projectsPath + projectID + "/release/"
}
