package client

import (
	"context"

	"github.com/karstforge/speleosync/api"
)

// Future is the completion handle of an asynchronous operation. Abandoning a
// Future does not retract a request already on the wire; cancellation only
// stops the caller from waiting.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		f.value, f.err = fn()
		close(f.done)
	}()

	return f
}

// Wait blocks until the operation completes or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err

	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed when the operation has completed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

func (c *Client) AuthenticateAsync(ctx context.Context, creds Credentials, instanceHost string) *Future[Session] {
	return newFuture(func() (Session, error) {
		return c.Authenticate(ctx, creds, instanceHost)
	})
}

func (c *Client) ProjectsAsync(ctx context.Context) *Future[[]api.Project] {
	return newFuture(func() ([]api.Project, error) {
		return c.Projects(ctx)
	})
}

func (c *Client) CreateProjectAsync(ctx context.Context, request api.CreateProjectRequest) *Future[api.Project] {
	return newFuture(func() (api.Project, error) {
		return c.CreateProject(ctx, request)
	})
}

func (c *Client) AcquireLockAsync(ctx context.Context, project api.Project) *Future[bool] {
	return newFuture(func() (bool, error) {
		return c.AcquireLock(ctx, project)
	})
}

func (c *Client) ReleaseLockAsync(ctx context.Context, project api.Project) *Future[bool] {
	return newFuture(func() (bool, error) {
		return c.ReleaseLock(ctx, project)
	})
}

func (c *Client) UploadAsync(ctx context.Context, project api.Project, archive []byte, message string) *Future[struct{}] {
	return newFuture(func() (struct{}, error) {
		return struct{}{}, c.Upload(ctx, project, archive, message)
	})
}

func (c *Client) DownloadAsync(ctx context.Context, project api.Project) *Future[string] {
	return newFuture(func() (string, error) {
		return c.Download(ctx, project)
	})
}
