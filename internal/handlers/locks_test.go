package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/karstforge/speleosync/api"
	"github.com/karstforge/speleosync/internal/archive"
	"github.com/karstforge/speleosync/internal/clock"
	"github.com/karstforge/speleosync/internal/config"
	"github.com/karstforge/speleosync/internal/handlers"
	"github.com/karstforge/speleosync/internal/kv"
	"github.com/karstforge/speleosync/internal/middlewares"
	"github.com/karstforge/speleosync/internal/store"
	"github.com/stretchr/testify/suite"
)

type LockHandlerTestSuite struct {
	suite.Suite

	handler *handlers.Handler
	setTime clock.TimeSetterFn
	now     time.Time
}

func TestLockHandlerTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(LockHandlerTestSuite))
}

func (s *LockHandlerTestSuite) SetupTest() {
	catalog, err := store.New()
	s.Require().NoError(err)

	err = catalog.InsertProject(api.Project{ID: "p1", Name: "Postojna", CountryCode: "SI"})
	s.Require().NoError(err)

	s.now = time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	var clockService clock.Service
	clockService, s.setTime = clock.NewMockService(s.now)

	s.handler = &handlers.Handler{
		Store:    catalog,
		Archives: archive.NewInMemoryStore(),
		Kv:       kv.NewMemoryStore(),
		Clock:    clockService,
		Auth:     config.AuthConfig{JwtSecret: "test", TokenTtlMinutes: 60},
		LockTtl:  5 * time.Minute,
	}
}

func (s *LockHandlerTestSuite) do(fn http.HandlerFunc, user, projectID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = mux.SetURLVars(req, map[string]string{"project": projectID})
	req = req.WithContext(middlewares.ContextWithUser(req.Context(), user))

	recorder := httptest.NewRecorder()
	fn(recorder, req)

	return recorder
}

func (s *LockHandlerTestSuite) TestAcquireGrantsLease() {
	// act
	recorder := s.do(s.handler.AcquireLock, "ada@caves.example", "p1")

	// assert
	s.Equal(http.StatusOK, recorder.Code)
	s.Contains(recorder.Body.String(), s.now.Add(5*time.Minute).Format(time.RFC3339))
}

func (s *LockHandlerTestSuite) TestAcquireConflictsForOtherUser() {
	// arrange
	recorder := s.do(s.handler.AcquireLock, "ada@caves.example", "p1")
	s.Require().Equal(http.StatusOK, recorder.Code)

	// act
	recorder = s.do(s.handler.AcquireLock, "grace@caves.example", "p1")

	// assert
	s.Equal(http.StatusConflict, recorder.Code)
}

func (s *LockHandlerTestSuite) TestRefreshExtendsLease() {
	// arrange
	recorder := s.do(s.handler.AcquireLock, "ada@caves.example", "p1")
	s.Require().Equal(http.StatusOK, recorder.Code)

	// act: a refresh two minutes later restarts the lease clock
	s.setTime(s.now.Add(2 * time.Minute))

	recorder = s.do(s.handler.AcquireLock, "ada@caves.example", "p1")

	// assert
	s.Equal(http.StatusOK, recorder.Code)
	s.Contains(recorder.Body.String(), s.now.Add(7*time.Minute).Format(time.RFC3339))
}

func (s *LockHandlerTestSuite) TestReleaseByNonHolderForbidden() {
	// arrange
	recorder := s.do(s.handler.AcquireLock, "ada@caves.example", "p1")
	s.Require().Equal(http.StatusOK, recorder.Code)

	// act
	recorder = s.do(s.handler.ReleaseLock, "grace@caves.example", "p1")

	// assert
	s.Equal(http.StatusForbidden, recorder.Code)

	// the lease is untouched
	recorder = s.do(s.handler.AcquireLock, "grace@caves.example", "p1")
	s.Equal(http.StatusConflict, recorder.Code)
}

func (s *LockHandlerTestSuite) TestReleaseFreesLease() {
	// arrange
	recorder := s.do(s.handler.AcquireLock, "ada@caves.example", "p1")
	s.Require().Equal(http.StatusOK, recorder.Code)

	// act
	recorder = s.do(s.handler.ReleaseLock, "ada@caves.example", "p1")
	s.Require().Equal(http.StatusOK, recorder.Code)

	// assert
	recorder = s.do(s.handler.AcquireLock, "grace@caves.example", "p1")
	s.Equal(http.StatusOK, recorder.Code)
}

func (s *LockHandlerTestSuite) TestUnknownProject() {
	// act
	recorder := s.do(s.handler.AcquireLock, "ada@caves.example", "missing")

	// assert
	s.Equal(http.StatusNotFound, recorder.Code)
}
