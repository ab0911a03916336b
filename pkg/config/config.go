package config

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "/config/catalog.yaml"
)

// Pagination describes one page-size configuration. Requests may ask for any
// page size up to Max; anything missing or malformed falls back to Default.
type Pagination struct {
	Default int `koanf:"default"`
	Max     int `koanf:"max"`
}

type Config struct {
	CORSAllowOrigins          []string      `koanf:"cors_allow_origins"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	Hostname                  string        `koanf:"hostname"`
	JWTSecret                 string        `koanf:"jwt_secret"`
	JWTTTL                    time.Duration `koanf:"jwt_ttl"`
	RateLimitBurst            int           `koanf:"rate_limit_burst"`
	RateLimitPerSecond        float64       `koanf:"rate_limit_per_second"`
	RecentBooksDefaultYears   int           `koanf:"recent_books_default_years"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`
	TopRatedDefaultLimit      int           `koanf:"top_rated_default_limit"`

	StandardPagination Pagination `koanf:"standard_pagination"`
	LargePagination    Pagination `koanf:"large_pagination"`
	SmallPagination    Pagination `koanf:"small_pagination"`
}

// requiredKeys are the config keys that have no usable default.
var requiredKeys = []string{"database_file_path", "jwt_secret"}

func defaults() *Config {
	return &Config{
		CORSAllowOrigins:          []string{"*"},
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        5,
		JWTTTL:                    24 * time.Hour,
		RateLimitBurst:            20,
		RecentBooksDefaultYears:   2,
		ServerHost:                "0.0.0.0",
		ServerPort:                3690,
		TopRatedDefaultLimit:      10,
		StandardPagination:        Pagination{Default: 20, Max: 100},
		LargePagination:           Pagination{Default: 50, Max: 500},
		SmallPagination:           Pagination{Default: 5, Max: 20},
	}
}

// New builds the config from defaults, then the optional YAML file named by
// CONFIG_FILE, then environment variables. Later sources win.
func New() (*Config, error) {
	cfg := defaults()

	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	cfg.Hostname = hostname

	k := koanf.New(".")

	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", configFile)
		}
	}

	known := knownKeys()
	err = k.Load(env.ProviderWithValue("", "", func(s, value string) (string, interface{}) {
		key := strings.ToLower(s)
		if _, ok := known[key]; !ok {
			return "", nil
		}
		if key == "cors_allow_origins" {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := cfg.checkRequired(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config suitable for tests: an in-memory database and a
// fixed JWT secret.
func NewForTest() *Config {
	cfg := defaults()
	cfg.DatabaseConnectRetryCount = 1
	cfg.DatabaseConnectRetryDelay = 0
	cfg.DatabaseFilePath = ":memory:"
	cfg.JWTSecret = "test-secret"
	cfg.ServerHost = "127.0.0.1"
	return cfg
}

func (cfg *Config) checkRequired() error {
	values := map[string]string{
		"database_file_path": cfg.DatabaseFilePath,
		"jwt_secret":         cfg.JWTSecret,
	}

	missing := []string{}
	for _, key := range requiredKeys {
		if strings.TrimSpace(values[key]) == "" {
			missing = append(missing, strings.ToUpper(key)+" (env) or "+key+" (config file)")
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

// knownKeys lists the top-level koanf keys of Config so that unrelated
// environment variables are not loaded.
func knownKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("koanf")
		if tag == "" || t.Field(i).Type.Kind() == reflect.Struct {
			continue
		}
		keys[tag] = struct{}{}
	}
	return keys
}
