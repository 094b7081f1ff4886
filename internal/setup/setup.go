// Package setup builds the backend's dependency graph from configuration.
package setup

import (
	"fmt"
	"time"

	"github.com/karstforge/speleosync/internal/archive"
	"github.com/karstforge/speleosync/internal/clock"
	"github.com/karstforge/speleosync/internal/config"
	"github.com/karstforge/speleosync/internal/handlers"
	"github.com/karstforge/speleosync/internal/kv"
	"github.com/karstforge/speleosync/internal/store"
)

func Backend(c config.Config) (*handlers.Handler, error) {
	catalog, err := store.New()
	if err != nil {
		return nil, err
	}

	for _, user := range c.Server.Auth.Users {
		err = catalog.InsertUser(store.User{
			Email:    user.Email,
			Password: user.Password,
		})
		if err != nil {
			return nil, err
		}
	}

	kvStore, err := Kv(c.Kv)
	if err != nil {
		return nil, err
	}

	archives, err := Archive(c.Archive)
	if err != nil {
		return nil, err
	}

	return &handlers.Handler{
		Store:    catalog,
		Archives: archives,
		Kv:       kvStore,
		Clock:    clock.NewSystemClock(),
		Auth:     c.Server.Auth,
		LockTtl:  time.Duration(c.Server.Lock.TtlSeconds) * time.Second,
	}, nil
}

func Kv(kvConfig config.KvConfig) (kv.Store, error) {
	switch kvConfig.Mode {
	case config.KvModeInMemory:
		return kv.NewMemoryStore(), nil

	case config.KvModeRedis:
		return kv.NewRedisStore(kvConfig), nil

	default:
		return nil, fmt.Errorf("unsupported kv mode: %s", kvConfig.Mode)
	}
}

func Archive(archiveConfig config.ArchiveConfig) (archive.Store, error) {
	switch archiveConfig.Mode {
	case config.ArchiveModeInMemory:
		return archive.NewInMemoryStore(), nil

	case config.ArchiveModeDirectory:
		return archive.NewDirectoryStore(archiveConfig.Directory.Path)

	default:
		return nil, fmt.Errorf("unsupported archive mode: %s", archiveConfig.Mode)
	}
}
