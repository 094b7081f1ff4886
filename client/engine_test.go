package client_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/karstforge/speleosync/api"
	"github.com/karstforge/speleosync/client"
	"github.com/karstforge/speleosync/internal/archive"
	"github.com/karstforge/speleosync/internal/clock"
	"github.com/karstforge/speleosync/internal/config"
	"github.com/karstforge/speleosync/internal/handlers"
	"github.com/karstforge/speleosync/internal/kv"
	"github.com/karstforge/speleosync/internal/server"
	"github.com/karstforge/speleosync/internal/store"
	"github.com/stretchr/testify/suite"
)

const userAda = "ada@caves.example"
const userGrace = "grace@caves.example"
const password = "plugh"

func newTestBackend(t *testing.T, lockTtl time.Duration) *httptest.Server {
	t.Helper()

	catalog, err := store.New()
	if err != nil {
		t.Fatal(err)
	}
	for _, email := range []string{userAda, userGrace} {
		err = catalog.InsertUser(store.User{Email: email, Password: password})
		if err != nil {
			t.Fatal(err)
		}
	}

	handler := &handlers.Handler{
		Store:    catalog,
		Archives: archive.NewInMemoryStore(),
		Kv:       kv.NewMemoryStore(),
		Clock:    clock.NewSystemClock(),
		Auth: config.AuthConfig{
			JwtSecret:       "engine-test-secret",
			TokenTtlMinutes: 60,
		},
		LockTtl: lockTtl,
	}

	srv := httptest.NewServer(server.NewRouter(handler, config.ServerConfig{}))
	t.Cleanup(srv.Close)

	return srv
}

type EngineTestSuite struct {
	suite.Suite

	backend *httptest.Server
	tempDir string
}

func TestEngineTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) SetupTest() {
	s.backend = newTestBackend(s.T(), time.Minute)
	s.tempDir = s.T().TempDir()
}

func (s *EngineTestSuite) newEngine() *client.Client {
	return client.New(client.Config{
		DownloadDir: s.tempDir,
		Retry:       client.RetryConfig{Attempts: 2, BaseDelay: 10 * time.Millisecond},
	})
}

func (s *EngineTestSuite) login(engine *client.Client, email string) {
	_, err := engine.Authenticate(context.Background(), client.Credentials{
		Email:    email,
		Password: password,
	}, s.backend.URL)
	s.Require().NoError(err)
}

func (s *EngineTestSuite) createProject(engine *client.Client, name string) api.Project {
	project, err := engine.CreateProject(context.Background(), api.CreateProjectRequest{
		Name:        name,
		Description: "integration fixture",
		CountryCode: "FR",
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(project.ID)

	return project
}

func (s *EngineTestSuite) TestUnauthenticatedOperationsFailFast() {
	// arrange
	engine := s.newEngine()
	project := api.Project{ID: "someproject"}

	// assert
	s.False(engine.IsAuthenticated())

	_, err := engine.Projects(context.Background())
	s.ErrorIs(err, client.ErrNotAuthenticated)

	_, err = engine.CreateProject(context.Background(), api.CreateProjectRequest{Name: "x", CountryCode: "FR"})
	s.ErrorIs(err, client.ErrNotAuthenticated)

	_, err = engine.AcquireLock(context.Background(), project)
	s.ErrorIs(err, client.ErrNotAuthenticated)

	err = engine.Upload(context.Background(), project, []byte{0x01}, "msg")
	s.ErrorIs(err, client.ErrNotAuthenticated)

	_, err = engine.Download(context.Background(), project)
	s.ErrorIs(err, client.ErrNotAuthenticated)
}

func (s *EngineTestSuite) TestWrongPasswordRejected() {
	// arrange
	engine := s.newEngine()

	// act
	_, err := engine.Authenticate(context.Background(), client.Credentials{
		Email:    userAda,
		Password: "wrong",
	}, s.backend.URL)

	// assert
	s.ErrorIs(err, client.ErrAuthentication)
	s.False(engine.IsAuthenticated())
}

func (s *EngineTestSuite) TestCreateAndListProjects() {
	// arrange
	engine := s.newEngine()
	s.login(engine, userAda)

	// act
	created := s.createProject(engine, "Gouffre Berger")
	projects, err := engine.Projects(context.Background())

	// assert
	s.Require().NoError(err)
	s.Require().Len(projects, 1)
	s.Equal(created.ID, projects[0].ID)
	s.Equal("Gouffre Berger", projects[0].Name)
	s.Equal("FR", projects[0].CountryCode)
}

func (s *EngineTestSuite) TestCreateProjectValidatedLocally() {
	// arrange
	engine := s.newEngine()
	s.login(engine, userAda)

	// act: bad country code never reaches the backend
	_, err := engine.CreateProject(context.Background(), api.CreateProjectRequest{
		Name:        "No Country",
		CountryCode: "France",
	})

	// assert
	s.Error(err)
	s.Contains(err.Error(), "invalid project")
}

func (s *EngineTestSuite) TestLockRefreshIsIdempotent() {
	// arrange
	engine := s.newEngine()
	s.login(engine, userAda)
	project := s.createProject(engine, "Lechuguilla")

	// act + assert
	for i := 0; i < 5; i++ {
		held, err := engine.AcquireLock(context.Background(), project)
		s.Require().NoError(err)
		s.True(held, "refresh %d", i)

		lock, ok := engine.HeldLock(project.ID)
		s.Require().True(ok)
		s.Equal(project.ID, lock.ProjectID)
		s.True(lock.HeldByThisClient)
	}
}

func (s *EngineTestSuite) TestLockMutualExclusion() {
	// arrange
	ada := s.newEngine()
	grace := s.newEngine()
	s.login(ada, userAda)
	s.login(grace, userGrace)
	project := s.createProject(ada, "Krubera")

	// act
	adaHeld, err := ada.AcquireLock(context.Background(), project)
	s.Require().NoError(err)
	graceHeld, err := grace.AcquireLock(context.Background(), project)
	s.Require().NoError(err)

	// assert: only one holder, conflict is not an error
	s.True(adaHeld)
	s.False(graceHeld)

	_, ok := grace.HeldLock(project.ID)
	s.False(ok)

	// after ada releases, grace can take over
	released, err := ada.ReleaseLock(context.Background(), project)
	s.Require().NoError(err)
	s.True(released)

	graceHeld, err = grace.AcquireLock(context.Background(), project)
	s.Require().NoError(err)
	s.True(graceHeld)
}

func (s *EngineTestSuite) TestReleaseWithoutHoldingIsNoOp() {
	// arrange
	ada := s.newEngine()
	grace := s.newEngine()
	s.login(ada, userAda)
	s.login(grace, userGrace)
	project := s.createProject(ada, "Vortex")

	held, err := ada.AcquireLock(context.Background(), project)
	s.Require().NoError(err)
	s.Require().True(held)

	// act: grace never held the lock
	released, err := grace.ReleaseLock(context.Background(), project)

	// assert
	s.NoError(err)
	s.False(released)

	// ada still holds it server-side
	held, err = ada.AcquireLock(context.Background(), project)
	s.NoError(err)
	s.True(held)
}

func (s *EngineTestSuite) TestUploadRequiresLocalLock() {
	// arrange
	engine := s.newEngine()
	s.login(engine, userAda)
	project := s.createProject(engine, "Unlocked")

	// act
	err := engine.Upload(context.Background(), project, []byte{0x01, 0x02}, "no lock")

	// assert
	s.ErrorIs(err, client.ErrLockRequired)
}

func (s *EngineTestSuite) TestUploadDownloadRoundTrip() {
	// arrange
	engine := s.newEngine()
	s.login(engine, userAda)
	project := s.createProject(engine, "RoundTrip")

	held, err := engine.AcquireLock(context.Background(), project)
	s.Require().NoError(err)
	s.Require().True(held)

	archiveBytes := []byte{0x54, 0x4d, 0x4c, 0x00, 0xff, 0x10, 0x13, '\r', '\n', 0x00}
	want := client.Checksum(archiveBytes)

	// act
	err = engine.Upload(context.Background(), project, archiveBytes, "initial survey")
	s.Require().NoError(err)

	path, err := engine.Download(context.Background(), project)

	// assert
	s.Require().NoError(err)
	s.Equal(filepath.Join(s.tempDir, project.ID+".tml"), path)

	got, err := client.ChecksumFile(path)
	s.Require().NoError(err)
	s.Equal(want, got)

	s.NoError(engine.VerifyArchive(path, want))
	s.ErrorIs(engine.VerifyArchive(path, client.Checksum([]byte("other"))), client.ErrChecksumMismatch)
}

func (s *EngineTestSuite) TestDownloadOfUnknownProjectMapsTo422() {
	// arrange
	engine := s.newEngine()
	s.login(engine, userAda)

	// act
	_, err := engine.Download(context.Background(), api.Project{ID: "does-not-exist"})

	// assert
	s.ErrorIs(err, client.ErrProjectNotFound)
}

func (s *EngineTestSuite) TestDownloadBeforeFirstUploadMapsTo422() {
	// arrange
	engine := s.newEngine()
	s.login(engine, userAda)
	project := s.createProject(engine, "Empty")

	// act
	_, err := engine.Download(context.Background(), project)

	// assert
	s.ErrorIs(err, client.ErrProjectNotFound)
}

func (s *EngineTestSuite) TestOauthTokenSession() {
	// arrange: obtain a token via password login, then use it as an oauth token
	first := s.newEngine()
	session, err := first.Authenticate(context.Background(), client.Credentials{
		Email:    userAda,
		Password: password,
	}, s.backend.URL)
	s.Require().NoError(err)

	second := s.newEngine()

	// act
	_, err = second.Authenticate(context.Background(), client.Credentials{OAuthToken: session.Token}, s.backend.URL)

	// assert
	s.Require().NoError(err)

	projects, err := second.Projects(context.Background())
	s.NoError(err)
	s.Empty(projects)
}

func (s *EngineTestSuite) TestLogoutInvalidatesEngine() {
	// arrange
	engine := s.newEngine()
	s.login(engine, userAda)

	// act
	engine.Logout()

	// assert
	s.False(engine.IsAuthenticated())

	_, err := engine.Projects(context.Background())
	s.ErrorIs(err, client.ErrNotAuthenticated)
}

func (s *EngineTestSuite) TestAsyncOperations() {
	// arrange
	engine := s.newEngine()
	s.login(engine, userAda)
	project := s.createProject(engine, "Async")

	held, err := engine.AcquireLock(context.Background(), project)
	s.Require().NoError(err)
	s.Require().True(held)

	archiveBytes := []byte("async archive payload")

	// act
	_, err = engine.UploadAsync(context.Background(), project, archiveBytes, "async upload").Wait(context.Background())
	s.Require().NoError(err)

	path, err := engine.DownloadAsync(context.Background(), project).Wait(context.Background())

	// assert
	s.Require().NoError(err)

	got, err := client.ChecksumFile(path)
	s.Require().NoError(err)
	s.Equal(client.Checksum(archiveBytes), got)

	projects, err := engine.ProjectsAsync(context.Background()).Wait(context.Background())
	s.NoError(err)
	s.Len(projects, 1)
}

type LeaseExpiryTestSuite struct {
	suite.Suite
}

func TestLeaseExpiryTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(LeaseExpiryTestSuite))
}

func (s *LeaseExpiryTestSuite) TestExpiredLeaseCanBeTakenOver() {
	// arrange: very short lease so expiry happens without a refresh
	backend := newTestBackend(s.T(), 60*time.Millisecond)

	newEngine := func() *client.Client {
		return client.New(client.Config{
			DownloadDir: s.T().TempDir(),
			Retry:       client.RetryConfig{Attempts: 2, BaseDelay: 10 * time.Millisecond},
		})
	}
	login := func(engine *client.Client, email string) {
		_, err := engine.Authenticate(context.Background(), client.Credentials{
			Email:    email,
			Password: password,
		}, backend.URL)
		s.Require().NoError(err)
	}

	ada := newEngine()
	grace := newEngine()
	login(ada, userAda)
	login(grace, userGrace)

	project, err := ada.CreateProject(context.Background(), api.CreateProjectRequest{
		Name:        "Expiring",
		CountryCode: "SI",
	})
	s.Require().NoError(err)

	held, err := ada.AcquireLock(context.Background(), project)
	s.Require().NoError(err)
	s.Require().True(held)

	// grace is locked out while the lease is live
	graceHeld, err := grace.AcquireLock(context.Background(), project)
	s.Require().NoError(err)
	s.Require().False(graceHeld)

	// act: let the lease lapse
	time.Sleep(150 * time.Millisecond)

	graceHeld, err = grace.AcquireLock(context.Background(), project)

	// assert
	s.Require().NoError(err)
	s.True(graceHeld)

	// ada's local cache notices the lapse as well
	_, ok := ada.HeldLock(project.ID)
	s.False(ok)
}
