package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type RetryTestSuite struct {
	suite.Suite
}

func TestRetryTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(RetryTestSuite))
}

func (s *RetryTestSuite) TestExponentialBackoffAndLastError() {
	// arrange
	cfg := RetryConfig{Attempts: 3, BaseDelay: 50 * time.Millisecond}
	attempts := 0
	start := time.Now()

	// act
	err := retryDo(context.Background(), cfg, "test.op", func() error {
		attempts++
		return fmt.Errorf("attempt %d: %w", attempts, ErrNetwork)
	})
	elapsed := time.Since(start)

	// assert
	s.Equal(3, attempts)
	// delays: base + 2*base before attempts 2 and 3
	s.GreaterOrEqual(elapsed, 150*time.Millisecond)
	s.ErrorIs(err, ErrNetwork)
	s.Contains(err.Error(), "attempt 3")
}

func (s *RetryTestSuite) TestFatalErrorNotRetried() {
	// arrange
	attempts := 0

	// act
	err := retryDo(context.Background(), RetryConfig{Attempts: 5, BaseDelay: time.Millisecond}, "test.op", func() error {
		attempts++
		return fmt.Errorf("nope: %w", ErrAuthentication)
	})

	// assert
	s.Equal(1, attempts)
	s.ErrorIs(err, ErrAuthentication)
}

func (s *RetryTestSuite) TestSuccessAfterTransientFailure() {
	// arrange
	attempts := 0

	// act
	err := retryDo(context.Background(), RetryConfig{Attempts: 3, BaseDelay: time.Millisecond}, "test.op", func() error {
		attempts++
		if attempts < 2 {
			return &StatusError{Status: 503, Message: "unavailable"}
		}
		return nil
	})

	// assert
	s.NoError(err)
	s.Equal(2, attempts)
}

func (s *RetryTestSuite) TestCancellationStopsRetrying() {
	// arrange
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	start := time.Now()

	// act
	err := retryDo(ctx, RetryConfig{Attempts: 10, BaseDelay: 500 * time.Millisecond}, "test.op", func() error {
		attempts++
		cancel()
		return fmt.Errorf("boom: %w", ErrNetwork)
	})

	// assert
	s.Error(err)
	s.Equal(1, attempts)
	s.Less(time.Since(start), 400*time.Millisecond)
}

type ClassificationTestSuite struct {
	suite.Suite
}

func TestClassificationTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(ClassificationTestSuite))
}

func (s *ClassificationTestSuite) TestRetryableKinds() {
	s.True(IsRetryable(ErrNetwork))
	s.True(IsRetryable(ErrTimeout))
	s.True(IsRetryable(fmt.Errorf("wrapped: %w", ErrNetwork)))
	s.True(IsRetryable(&StatusError{Status: 500}))
	s.True(IsRetryable(&StatusError{Status: 503}))
	s.True(IsRetryable(fmt.Errorf("upload: %w: %w", ErrUpload, &StatusError{Status: 502})))
}

func (s *ClassificationTestSuite) TestFatalKinds() {
	s.False(IsRetryable(ErrAuthentication))
	s.False(IsRetryable(ErrNotAuthenticated))
	s.False(IsRetryable(ErrInvalidCredentials))
	s.False(IsRetryable(ErrProjectNotFound))
	s.False(IsRetryable(ErrChecksumMismatch))
	s.False(IsRetryable(&StatusError{Status: 404}))
	s.False(IsRetryable(&StatusError{Status: 422}))
	s.False(IsRetryable(errors.New("some local failure")))
	s.False(IsRetryable(context.Canceled))
}
