package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Record and object store backends.
const (
	RecordStorePostgres = "postgres"
	RecordStoreSQLite   = "sqlite"
	RecordStoreMongo    = "mongo"

	ObjectStoreCloudinary = "cloudinary"
	ObjectStoreLocal      = "local"
)

type Config struct {
	Environment    string // ENV: production, development, etc.
	Host           string // Raw HOST env (e.g. https://api.example.org)
	AllowedHost    string // Hostname only for strict host check (production only)
	Port           string
	FrontendURL    string
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	LogLevel       string

	RecordStore   string
	PostgresURI   string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
	AutoMigrate   bool

	RedisURI string // empty disables the listing cache
	CacheTTL time.Duration

	ObjectStore         string
	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
	MediaDir            string
	MediaBaseURL        string

	MaxUploadMB    int64
	RequestTimeout time.Duration
}

// Load reads the environment. Malformed numeric or duration values are
// reported together; everything else falls back to defaults.
func Load() (*Config, error) {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	host := getEnv("HOST", "http://localhost:8080")

	// AllowedHost is only set in production; host check is skipped in development
	var allowedHost string
	if env == "production" {
		allowedHost = hostname(host)
	}

	var errs []error
	maxUpload, err := getEnvInt("MAX_UPLOAD_MB", 50)
	errs = append(errs, err)
	timeout, err := getEnvDuration("REQUEST_TIMEOUT", 60*time.Second)
	errs = append(errs, err)
	cacheTTL, err := getEnvDuration("CACHE_TTL", 60*time.Second)
	errs = append(errs, err)
	autoMigrate, err := getEnvBool("AUTO_MIGRATE", true)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &Config{
		Environment:    env,
		Host:           host,
		AllowedHost:    allowedHost,
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins: allowedOrigins(host),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),

		RecordStore:   strings.ToLower(getEnv("RECORD_STORE", RecordStorePostgres)),
		PostgresURI:   getEnv("POSTGRES_URI", "postgres://localhost:5432/reflections?sslmode=disable"),
		SQLitePath:    getEnv("SQLITE_PATH", "reflections.db"),
		MongoURI:      getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/reflections")),
		MongoDatabase: getEnv("MONGODB_DATABASE", ""),
		AutoMigrate:   autoMigrate,

		RedisURI: getEnv("REDIS_URI", ""),
		CacheTTL: cacheTTL,

		ObjectStore:         strings.ToLower(getEnv("OBJECT_STORE", ObjectStoreCloudinary)),
		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "reflections"),
		MediaDir:            getEnv("MEDIA_DIR", "media"),
		MediaBaseURL:        getEnv("MEDIA_BASE_URL", strings.TrimSuffix(host, "/")+"/media"),

		MaxUploadMB:    maxUpload,
		RequestTimeout: timeout,
	}, nil
}

// Validate checks the selected backends have what they need.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.RecordStore, validation.Required,
			validation.In(RecordStorePostgres, RecordStoreSQLite, RecordStoreMongo)),
		validation.Field(&c.PostgresURI, validation.When(c.RecordStore == RecordStorePostgres, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.RecordStore == RecordStoreSQLite, validation.Required)),
		validation.Field(&c.MongoURI, validation.When(c.RecordStore == RecordStoreMongo, validation.Required)),
		validation.Field(&c.ObjectStore, validation.Required,
			validation.In(ObjectStoreCloudinary, ObjectStoreLocal)),
		validation.Field(&c.MediaDir, validation.When(c.ObjectStore == ObjectStoreLocal, validation.Required)),
		validation.Field(&c.MediaBaseURL, validation.When(c.ObjectStore == ObjectStoreLocal, validation.Required)),
		validation.Field(&c.MaxUploadMB, validation.Required, validation.Min(int64(1)), validation.Max(int64(1024))),
		validation.Field(&c.RequestTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.CacheTTL, validation.Min(time.Second), validation.Max(10*time.Minute)),
	)
}

// CloudinaryConfigured reports whether all Cloudinary credentials are set.
func (c *Config) CloudinaryConfigured() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func allowedOrigins(host string) []string {
	origins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(origins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", ""), getEnv("FRONTEND_URL_3", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				origins = append(origins, u)
			}
		}
	}
	// When HOST is a backend host (e.g. api.example.org), always add https://domain and https://www.domain
	// so OPTIONS preflight gets 200 even if ENV isn't set on the server
	hostForCORS := hostname(host)
	if hostForCORS != "" && hostForCORS != "localhost" {
		parts := strings.Split(hostForCORS, ".")
		if len(parts) >= 2 {
			domain := strings.Join(parts[1:], ".")
			for _, origin := range []string{"https://" + domain, "https://www." + domain} {
				if !containsOrigin(origins, origin) {
					origins = append(origins, origin)
				}
			}
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

// hostname strips scheme, path and port from a URL-ish host value.
func hostname(host string) string {
	for _, prefix := range []string{"https://", "http://"} {
		host = strings.TrimPrefix(host, prefix)
	}
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return strings.TrimSpace(host)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
