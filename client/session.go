package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/karstforge/speleosync/api"
	"github.com/karstforge/speleosync/internal/logging"
)

const loginPath = "/api/v1/user/auth/login/"
const projectsPath = "/api/v1/projects/"

// Credentials carries exactly one of the two supported credential forms:
// email+password or a pre-issued OAuth token.
type Credentials struct {
	Email      string
	Password   string
	OAuthToken string
}

// Session is the authenticated context required by all project operations.
// It is an immutable value; the SessionManager swaps it atomically.
type Session struct {
	Token           string
	Instance        string
	AuthenticatedAt time.Time
}

// SessionManager owns the authentication state and its lifecycle. All
// outgoing authenticated requests get their Authorization header here, so the
// token never leaks into the other components.
type SessionManager struct {
	http *http.Client

	// mu serializes Authenticate/Logout so concurrent logins can never be
	// observed as a mix of two sessions. Readers go through the pointer.
	mu      sync.Mutex
	current atomic.Pointer[Session]
}

func NewSessionManager(httpClient *http.Client) *SessionManager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &SessionManager{http: httpClient}
}

// Authenticate establishes a new session against instanceHost. On success any
// existing session is replaced atomically; on failure no partial session is
// retained.
func (m *SessionManager) Authenticate(ctx context.Context, creds Credentials, instanceHost string) (Session, error) {
	hasPassword := creds.Email != "" && creds.Password != ""
	hasToken := creds.OAuthToken != ""
	if hasPassword == hasToken {
		return Session{}, fmt.Errorf("exactly one of email/password or an oauth token must be supplied: %w", ErrInvalidCredentials)
	}

	instance, err := NormalizeInstance(instanceHost)
	if err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	token := creds.OAuthToken
	if hasPassword {
		token, err = m.loginWithPassword(ctx, instance, creds)
	} else {
		err = m.validateToken(ctx, instance, token)
	}
	if err != nil {
		m.current.Store(nil)
		return Session{}, err
	}

	session := Session{
		Token:           token,
		Instance:        instance,
		AuthenticatedAt: time.Now(),
	}
	m.current.Store(&session)
	logging.Logger.Infof("authenticated against %s", instance)

	return session, nil
}

func (m *SessionManager) IsAuthenticated() bool {
	return m.current.Load() != nil
}

// Current returns the active session or ErrNotAuthenticated.
func (m *SessionManager) Current() (Session, error) {
	s := m.current.Load()
	if s == nil {
		return Session{}, ErrNotAuthenticated
	}

	return *s, nil
}

// Logout clears the session unconditionally. Calling it while already logged
// out is a no-op.
func (m *SessionManager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current.Store(nil)
}

func (m *SessionManager) loginWithPassword(ctx context.Context, instance string, creds Credentials) (string, error) {
	payload, err := json.Marshal(api.LoginRequest{
		Email:    creds.Email,
		Password: creds.Password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, instance+loginPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.doRaw(req)
	if err != nil {
		return "", err
	}
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := newStatusError(resp)
		return "", fmt.Errorf("server rejected credentials: %s: %w", statusErr.Message, ErrAuthentication)
	}

	var login api.LoginResponse
	err = json.NewDecoder(resp.Body).Decode(&login)
	if err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	if login.Token == "" {
		return "", fmt.Errorf("server returned an empty token: %w", ErrAuthentication)
	}

	return login.Token, nil
}

// validateToken probes an authenticated endpoint; the backend has no
// dedicated token introspection route.
func (m *SessionManager) validateToken(ctx context.Context, instance, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, instance+projectsPath, nil)
	if err != nil {
		return fmt.Errorf("failed to build token validation request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+token)

	resp, err := m.doRaw(req)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("server rejected oauth token: %w", ErrAuthentication)

	default:
		return newStatusError(resp)
	}
}

// newRequest builds a request against the current session's instance with the
// Authorization header attached. Fails fast when no session exists.
func (m *SessionManager) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	session, err := m.Current()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, session.Instance+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Token "+session.Token)

	return req, nil
}

// doRaw performs the request and maps transport-level failures onto the
// client error taxonomy. Callers own the response body.
func (m *SessionManager) doRaw(req *http.Request) (*http.Response, error) {
	resp, err := m.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, ErrTimeout)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, ErrTimeout)
		}

		return nil, fmt.Errorf("%s %s: %s: %w", req.Method, req.URL, err, ErrNetwork)
	}

	return resp, nil
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
