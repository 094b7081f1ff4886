package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	gh "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/karstforge/speleosync/internal/config"
	"github.com/karstforge/speleosync/internal/handlers"
	"github.com/karstforge/speleosync/internal/logging"
	"github.com/karstforge/speleosync/internal/middlewares"
)

// NewRouter wires the REST surface consumed by the client engine. The same
// router backs the dev server and the in-process test double.
func NewRouter(h *handlers.Handler, serverConfig config.ServerConfig) *mux.Router {
	r := mux.NewRouter()

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.Logger.Infof("Not found API Request: %s %s", r.Method, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "route not found"})
	})

	r.Use(middlewares.RecoverMiddleware())
	r.Use(middlewares.LoggingMiddleware())

	r.Use(gh.CORS(
		gh.AllowedOrigins(serverConfig.AllowedOrigins),
		gh.AllowedMethods([]string{"GET", "POST"}),
		gh.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		gh.AllowCredentials(),
		gh.MaxAge(3600),
	))

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// unauthenticated endpoints need to go above the authentication middleware
	apiRouter.HandleFunc("/user/auth/login/", h.Login).Methods(http.MethodPost, http.MethodOptions)

	authApiRouter := apiRouter.PathPrefix("").Subrouter()
	authApiRouter.Use(middlewares.TokenAuthMiddleware(h.Auth.JwtSecret, h.Kv))

	authApiRouter.HandleFunc("/projects/", h.ListProjects).Methods(http.MethodGet, http.MethodOptions)
	authApiRouter.HandleFunc("/projects/", h.CreateProject).Methods(http.MethodPost, http.MethodOptions)

	authApiRouter.HandleFunc("/projects/{project}/acquire/", h.AcquireLock).Methods(http.MethodPost, http.MethodOptions)
	authApiRouter.HandleFunc("/projects/{project}/release/", h.ReleaseLock).Methods(http.MethodPost, http.MethodOptions)

	authApiRouter.HandleFunc("/projects/{project}/upload/ariane_tml/", h.UploadArchive).Methods(http.MethodPost, http.MethodOptions)
	authApiRouter.HandleFunc("/projects/{project}/download/ariane_tml/", h.DownloadArchive).Methods(http.MethodGet, http.MethodOptions)

	return r
}

func Serve(h *handlers.Handler, serverConfig config.ServerConfig) {
	r := NewRouter(h, serverConfig)

	addr := fmt.Sprintf("%s:%d", serverConfig.Host, serverConfig.Port)
	logging.Logger.Infof("Starting server on %s", addr)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go serve(srv)
}

func serve(srv *http.Server) {
	err := srv.ListenAndServe()
	if err != nil {
		panic(fmt.Errorf("error while running server: %w", err))
	}
}
