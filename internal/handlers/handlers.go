// Package handlers implements the REST surface of the reference backend:
// token login, project catalog, the single-holder lock protocol and archive
// upload/download. The backend is the authority for mutual exclusion; clients
// only cache what it answers.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/karstforge/speleosync/internal/archive"
	"github.com/karstforge/speleosync/internal/clock"
	"github.com/karstforge/speleosync/internal/config"
	"github.com/karstforge/speleosync/internal/kv"
	"github.com/karstforge/speleosync/internal/store"
)

type Handler struct {
	Store    *store.Store
	Archives archive.Store
	Kv       kv.Store
	Clock    clock.Service
	Auth     config.AuthConfig
	LockTtl  time.Duration
}

func writeJson(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func lockKey(projectID string) string {
	return "lock:" + projectID
}
