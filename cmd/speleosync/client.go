package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/karstforge/speleosync/client"
	"github.com/karstforge/speleosync/internal/config"
)

var instanceFlag string
var tokenFlag string

func init() {
	rootCmd.PersistentFlags().StringVar(&instanceFlag, "instance", "", "backend host, e.g. example.com or localhost:8080")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "auth token issued by login (also SPELEOSYNC_CLIENT_TOKEN)")
}

func newEngine() *client.Client {
	return client.New(client.Config{
		HTTPTimeout: time.Duration(config.C.Client.HttpTimeoutSeconds) * time.Second,
		DownloadDir: config.C.Client.DownloadDir,
		Retry: client.RetryConfig{
			Attempts:  uint(config.C.Client.Retry.Attempts),
			BaseDelay: time.Duration(config.C.Client.Retry.BaseDelayMs) * time.Millisecond,
		},
	})
}

func instanceHost() string {
	if instanceFlag != "" {
		return instanceFlag
	}

	return config.C.Client.Instance
}

func authToken() string {
	if tokenFlag != "" {
		return tokenFlag
	}

	return os.Getenv("SPELEOSYNC_CLIENT_TOKEN")
}

// authenticatedEngine builds an engine and authenticates it with the token
// from --token or the environment.
func authenticatedEngine(ctx context.Context) (*client.Client, error) {
	token := authToken()
	if token == "" {
		return nil, fmt.Errorf("no token: run `speleosync login` and pass --token or set SPELEOSYNC_CLIENT_TOKEN")
	}

	engine := newEngine()
	_, err := engine.Authenticate(ctx, client.Credentials{OAuthToken: token}, instanceHost())
	if err != nil {
		return nil, err
	}

	return engine, nil
}
