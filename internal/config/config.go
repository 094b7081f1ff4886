package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Production bool
	Client     ClientConfig
	Server     ServerConfig
	Kv         KvConfig
	Archive    ArchiveConfig
}

type ClientConfig struct {
	Instance           string
	DownloadDir        string
	HttpTimeoutSeconds int
	Retry              RetryConfig
}

type RetryConfig struct {
	Attempts    int
	BaseDelayMs int
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	Auth           AuthConfig
	Lock           LockConfig
}

type AuthConfig struct {
	JwtSecret       string
	TokenTtlMinutes int
	Users           []UserConfig
}

type UserConfig struct {
	Email    string
	Password string
}

type LockConfig struct {
	TtlSeconds int
}

type KvMode string

const (
	KvModeInMemory KvMode = "memory"
	KvModeRedis    KvMode = "redis"
)

type KvConfig struct {
	Mode  KvMode
	Redis struct {
		Host     string
		Port     int
		Username string
		Password string
		Database int
	}
}

type ArchiveMode string

const (
	ArchiveModeInMemory  ArchiveMode = "memory"
	ArchiveModeDirectory ArchiveMode = "directory"
)

type ArchiveConfig struct {
	Mode      ArchiveMode
	Directory struct {
		Path string
	}
}

var C Config

var k = koanf.New(".")

func Init(configFilePath string, production bool) {
	if configFilePath != "" {
		_, err := os.Stat(configFilePath)
		if err != nil {
			panic(fmt.Errorf("failed to stat config file: %w", err))
		}

		err = k.Load(file.Provider(configFilePath), yaml.Parser())
		if err != nil {
			panic(fmt.Errorf("failed to load config file: %w", err))
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: "SPELEOSYNC_",
		TransformFunc: func(k, v string) (string, any) {
			// Transform the key.
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "SPELEOSYNC_")), "_", ".")

			if strings.Contains(v, " ") {
				return k, strings.Split(v, " ")
			}

			return k, v
		},
	}), nil)
	if err != nil {
		panic(fmt.Errorf("failed to load env provider: %w", err))
	}

	err = k.Unmarshal("", &C)
	if err != nil {
		panic(fmt.Errorf("failed to unmarshal config: %w", err))
	}

	C.Production = C.Production || production

	setDefaultsOrPanic()
}

func setDefaultsOrPanic() {
	setClientDefaultsOrPanic()
	setServerDefaultsOrPanic()
	setKvDefaultsOrPanic()
	setArchiveDefaultsOrPanic()
}

func setClientDefaultsOrPanic() {
	if C.Client.DownloadDir == "" {
		C.Client.DownloadDir = "."
	}

	if C.Client.HttpTimeoutSeconds == 0 {
		C.Client.HttpTimeoutSeconds = 30
	}

	if C.Client.Retry.Attempts == 0 {
		C.Client.Retry.Attempts = 3
	}

	if C.Client.Retry.BaseDelayMs == 0 {
		C.Client.Retry.BaseDelayMs = 500
	}
}

func setServerDefaultsOrPanic() {
	if C.Server.Host == "" {
		if C.Production {
			panic("Server.Host must be set in production.")
		}

		C.Server.Host = "localhost"
	}

	if C.Server.Port == 0 {
		C.Server.Port = 8080
	}

	if C.Server.Auth.JwtSecret == "" {
		if C.Production {
			panic("Server.Auth.JwtSecret must be set in production.")
		}

		C.Server.Auth.JwtSecret = "speleosync-dev-secret"
	}

	if C.Server.Auth.TokenTtlMinutes == 0 {
		C.Server.Auth.TokenTtlMinutes = 12 * 60
	}

	if C.Server.Lock.TtlSeconds == 0 {
		C.Server.Lock.TtlSeconds = 300
	}
}

func setKvDefaultsOrPanic() {
	if C.Kv.Mode == "" {
		C.Kv.Mode = KvModeInMemory
	}

	switch C.Kv.Mode {
	case KvModeInMemory:

	case KvModeRedis:
		if C.Kv.Redis.Host == "" {
			panic("Kv.Redis.Host must be set in redis mode.")
		}
		if C.Kv.Redis.Port == 0 {
			C.Kv.Redis.Port = 6379
		}

	default:
		panic(fmt.Sprintf("unsupported kv mode: %s", C.Kv.Mode))
	}
}

func setArchiveDefaultsOrPanic() {
	if C.Archive.Mode == "" {
		C.Archive.Mode = ArchiveModeInMemory
	}

	switch C.Archive.Mode {
	case ArchiveModeInMemory:

	case ArchiveModeDirectory:
		if C.Archive.Directory.Path == "" {
			panic("Archive.Directory.Path must be set in directory mode.")
		}

	default:
		panic(fmt.Sprintf("unsupported archive mode: %s", C.Archive.Mode))
	}
}
