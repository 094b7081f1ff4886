// Package client is the remote-project engine used by desktop survey
// applications to synchronize projects with a collaborative backend. It
// composes session management, the server-mediated project lock protocol and
// archive transfer into one facade.
//
// Every operation exists in a synchronous form and an ...Async form that runs
// the blocking call on a background goroutine and completes a Future.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/karstforge/speleosync/api"
	"github.com/karstforge/speleosync/internal/utils/validate"
)

type Config struct {
	// HTTPTimeout bounds each individual request, not a whole retried
	// operation. Zero means 30s.
	HTTPTimeout time.Duration

	// DownloadDir is where downloaded archives land as {projectID}.tml.
	DownloadDir string

	Retry RetryConfig
}

// Client is the facade over the engine. It is safe for concurrent use; the
// session is the only shared mutable state and is swapped atomically.
type Client struct {
	sessions *SessionManager
	locks    *LockProtocol
	transfer *TransferEngine
}

func New(cfg Config) *Client {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.HTTPTimeout == 0 {
		httpClient.Timeout = 30 * time.Second
	}

	downloadDir := cfg.DownloadDir
	if downloadDir == "" {
		downloadDir = "."
	}

	sessions := NewSessionManager(httpClient)
	locks := NewLockProtocol(sessions, cfg.Retry)

	return &Client{
		sessions: sessions,
		locks:    locks,
		transfer: NewTransferEngine(sessions, locks, cfg.Retry, downloadDir),
	}
}

func (c *Client) Authenticate(ctx context.Context, creds Credentials, instanceHost string) (Session, error) {
	return c.sessions.Authenticate(ctx, creds, instanceHost)
}

func (c *Client) IsAuthenticated() bool {
	return c.sessions.IsAuthenticated()
}

// Instance returns the normalized base URL of the authenticated instance.
func (c *Client) Instance() (string, error) {
	session, err := c.sessions.Current()
	if err != nil {
		return "", err
	}

	return session.Instance, nil
}

func (c *Client) Logout() {
	c.sessions.Logout()
}

// Projects lists the projects visible to the session.
func (c *Client) Projects(ctx context.Context) ([]api.Project, error) {
	var projects []api.Project

	err := retryDo(ctx, c.transfer.retry, "client.projects", func() error {
		req, err := c.sessions.newRequest(ctx, http.MethodGet, projectsPath, nil)
		if err != nil {
			return err
		}

		resp, err := c.sessions.doRaw(req)
		if err != nil {
			return err
		}
		defer closeBody(resp)

		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("project listing rejected: %w", ErrAuthentication)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return newStatusError(resp)
		}

		projects = nil
		return json.NewDecoder(resp.Body).Decode(&projects)
	})
	if err != nil {
		return nil, err
	}

	return projects, nil
}

// CreateProject creates a remote project and returns the server's snapshot of
// it. The request is validated locally first and is never retried: repeating
// it could create duplicates.
func (c *Client) CreateProject(ctx context.Context, request api.CreateProjectRequest) (api.Project, error) {
	err := validate.Validate(request)
	if err != nil {
		return api.Project{}, fmt.Errorf("invalid project: %w", err)
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return api.Project{}, fmt.Errorf("failed to encode project: %w", err)
	}

	req, err := c.sessions.newRequest(ctx, http.MethodPost, projectsPath, bytes.NewReader(payload))
	if err != nil {
		return api.Project{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.sessions.doRaw(req)
	if err != nil {
		return api.Project{}, err
	}
	defer closeBody(resp)

	if resp.StatusCode == http.StatusUnauthorized {
		return api.Project{}, fmt.Errorf("project creation rejected: %w", ErrAuthentication)
	}
	if resp.StatusCode != http.StatusCreated {
		return api.Project{}, newStatusError(resp)
	}

	var project api.Project
	err = json.NewDecoder(resp.Body).Decode(&project)
	if err != nil {
		return api.Project{}, fmt.Errorf("failed to decode created project: %w", err)
	}

	return project, nil
}

// AcquireLock acquires or refreshes the server-held lock for the project.
// False means someone else holds it; that is not an error.
func (c *Client) AcquireLock(ctx context.Context, project api.Project) (bool, error) {
	return c.locks.AcquireOrRefresh(ctx, project)
}

func (c *Client) ReleaseLock(ctx context.Context, project api.Project) (bool, error) {
	return c.locks.Release(ctx, project)
}

// HeldLock exposes the local lock cache, mainly so UI code can gate edit
// actions without a round trip.
func (c *Client) HeldLock(projectID string) (ProjectLock, bool) {
	return c.locks.Held(projectID)
}

func (c *Client) Upload(ctx context.Context, project api.Project, archive []byte, message string) error {
	return c.transfer.Upload(ctx, project, archive, message)
}

func (c *Client) UploadFile(ctx context.Context, project api.Project, path, message string) error {
	return c.transfer.UploadFile(ctx, project, path, message)
}

func (c *Client) Download(ctx context.Context, project api.Project) (string, error) {
	return c.transfer.Download(ctx, project)
}

// VerifyArchive checks the archive at path against an expected SHA-256 hex
// digest, returning ErrChecksumMismatch when they differ.
func (c *Client) VerifyArchive(path, wantChecksum string) error {
	return c.transfer.Verify(path, wantChecksum)
}
