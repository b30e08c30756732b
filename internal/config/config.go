// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes the HTTP server
// settings together with the cost controls of the itinerary pipeline: quota
// limits, cache backend, LLM and Places credentials, worker pool sizing and
// document storage.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-trip-backend/internal/sysutil"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-trip-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// QuotaConfig holds per-service daily call limits and per-call cost estimates.
// Costs are estimates in USD used for self-throttling only.
type QuotaConfig struct {
	LLMDailyLimit          int64
	PlacesDailyLimit       int64
	AutocompleteDailyLimit int64

	LLMCost          float64
	PlacesCost       float64
	AutocompleteCost float64

	// TimeZone names the IANA zone whose midnight resets daily counters.
	TimeZone string
}

// LLMConfig configures the chat-completions client and retry policy.
type LLMConfig struct {
	APIKey      string
	BaseURL     string // optional, for OpenAI-compatible gateways
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
}

// PlacesConfig configures the Google Maps Places client.
type PlacesConfig struct {
	APIKey         string
	PhotoKey       string // browser-facing key embedded in photo URLs
	SearchTimeout  time.Duration
	DetailsTimeout time.Duration
	RateLimit      int // requests/second enforced client side
	MaxLocations   int // locations enriched per artifact
	MaxPhotos      int // photo URLs kept per place
}

// DocumentConfig selects where rendered documents are stored. When S3Bucket is
// empty the local directory Dir is used.
type DocumentConfig struct {
	Dir         string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string // optional (MinIO, LocalStack)
	S3PathStyle bool
	S3Prefix    string
}

// GenerationConfig sizes the background worker pool.
type GenerationConfig struct {
	Workers    int
	LockTTL    time.Duration // in-progress lock per trip
	RunTimeout time.Duration // upper bound for a single pipeline run
	TipsPath   string        // optional Markdown travel-tips knowledge base
	TipsPerRun int           // tips added to each prompt
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test
	ShutdownTimeout   time.Duration

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBPath   string // SQLite path
	RedisURL string // empty selects the in-process cache backend

	// Cost controls and collaborators
	Quota      QuotaConfig
	LLM        LLMConfig
	Places     PlacesConfig
	Documents  DocumentConfig
	Generation GenerationConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// Location resolves Quota.TimeZone, falling back to UTC for empty or unknown
// names.
func (c Config) Location() *time.Location {
	if strings.TrimSpace(c.Quota.TimeZone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Quota.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		DBPath:   getenv("DB_PATH", "trips.db"),
		RedisURL: getenv("REDIS_URL", ""),

		Quota: QuotaConfig{
			LLMDailyLimit:          int64(getint("QUOTA_LLM_DAILY", 100)),
			PlacesDailyLimit:       int64(getint("QUOTA_PLACES_DAILY", 100)),
			AutocompleteDailyLimit: int64(getint("QUOTA_AUTOCOMPLETE_DAILY", 100)),
			LLMCost:                getfloat("COST_LLM_CALL", 0.002),
			PlacesCost:             getfloat("COST_PLACES_CALL", 0.005),
			AutocompleteCost:       getfloat("COST_AUTOCOMPLETE_CALL", 0.005),
			TimeZone:               getenv("QUOTA_TIMEZONE", "UTC"),
		},
		LLM: LLMConfig{
			APIKey:      sysutil.FirstNonEmpty(os.Getenv("LLM_API_KEY"), os.Getenv("OPENAI_API_KEY")),
			BaseURL:     getenv("LLM_BASE_URL", ""),
			Model:       getenv("LLM_MODEL", "gpt-3.5-turbo"),
			MaxTokens:   getint("LLM_MAX_TOKENS", 2500),
			Temperature: getfloat("LLM_TEMPERATURE", 0.7),
			Timeout:     getdur("LLM_TIMEOUT", 120*time.Second),
			MaxAttempts: getint("LLM_MAX_ATTEMPTS", 3),
			BackoffBase: getdur("LLM_BACKOFF_BASE", time.Second),
		},
		Places: PlacesConfig{
			APIKey:         sysutil.FirstNonEmpty(os.Getenv("PLACES_API_KEY"), os.Getenv("GOOGLE_MAPS_API_KEY")),
			PhotoKey:       getenv("PLACES_PHOTO_KEY", ""),
			SearchTimeout:  getdur("PLACES_SEARCH_TIMEOUT", 10*time.Second),
			DetailsTimeout: getdur("PLACES_DETAILS_TIMEOUT", 15*time.Second),
			RateLimit:      getint("PLACES_RATE_LIMIT", 10),
			MaxLocations:   getint("ENRICH_MAX_LOCATIONS", 5),
			MaxPhotos:      getint("ENRICH_MAX_PHOTOS", 3),
		},
		Documents: DocumentConfig{
			Dir:         getenv("DOCUMENTS_DIR", "documents"),
			S3Bucket:    getenv("DOCUMENTS_S3_BUCKET", ""),
			S3Region:    getenv("DOCUMENTS_S3_REGION", "us-east-1"),
			S3Endpoint:  getenv("DOCUMENTS_S3_ENDPOINT", ""),
			S3PathStyle: getbool("DOCUMENTS_S3_PATH_STYLE", false),
			S3Prefix:    getenv("DOCUMENTS_S3_PREFIX", "trip-documents/"),
		},
		Generation: GenerationConfig{
			Workers:    getint("GENERATION_WORKERS", 4),
			LockTTL:    getdur("GENERATION_LOCK_TTL", 12*time.Minute),
			RunTimeout: getdur("GENERATION_RUN_TIMEOUT", 10*time.Minute),
			TipsPath:   getenv("TIPS_PATH", ""),
			TipsPerRun: getint("TIPS_PER_PROMPT", 3),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-trip-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Documents.S3Prefix != "" && !strings.HasSuffix(cfg.Documents.S3Prefix, "/") {
		cfg.Documents.S3Prefix += "/"
	}

	return cfg, cfg.validate()
}

// validate reports every invalid setting at once so a broken deployment is
// fixed in one round trip.
func (c Config) validate() error {
	var errs []error
	check := func(bad bool, msg string) {
		if bad {
			errs = append(errs, errors.New(msg))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		check(true, "LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	check(strings.TrimSpace(c.Port) == "", "PORT must not be empty")
	check(c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0")
	check(strings.TrimSpace(c.DBPath) == "", "DB_PATH must not be empty")

	q := c.Quota
	check(q.LLMDailyLimit < 0 || q.PlacesDailyLimit < 0 || q.AutocompleteDailyLimit < 0, "QUOTA_*_DAILY limits must be >= 0")
	check(q.LLMCost < 0 || q.PlacesCost < 0 || q.AutocompleteCost < 0, "COST_* estimates must be >= 0")
	if _, err := time.LoadLocation(q.TimeZone); err != nil {
		check(true, "QUOTA_TIMEZONE must be a valid IANA time zone")
	}

	check(c.LLM.MaxTokens <= 0, "LLM_MAX_TOKENS must be > 0")
	check(c.LLM.Temperature < 0 || c.LLM.Temperature > 2, "LLM_TEMPERATURE must be in [0,2]")
	check(c.LLM.Timeout <= 0 || c.LLM.BackoffBase < 0, "LLM_TIMEOUT must be > 0 and LLM_BACKOFF_BASE >= 0")
	check(c.LLM.MaxAttempts < 1 || c.LLM.MaxAttempts > 10, "LLM_MAX_ATTEMPTS must be between 1 and 10")

	check(c.Places.SearchTimeout <= 0 || c.Places.DetailsTimeout <= 0, "PLACES_*_TIMEOUT must be positive durations")
	check(c.Places.MaxLocations < 0 || c.Places.MaxPhotos < 0, "ENRICH_MAX_* must be >= 0")
	check(c.Documents.S3Bucket == "" && strings.TrimSpace(c.Documents.Dir) == "",
		"DOCUMENTS_DIR must not be empty when no S3 bucket is configured")

	check(c.Generation.Workers < 1, "GENERATION_WORKERS must be >= 1")
	check(c.Generation.LockTTL <= 0 || c.Generation.RunTimeout <= 0, "GENERATION_LOCK_TTL and GENERATION_RUN_TIMEOUT must be > 0")
	check(c.Generation.RunTimeout < c.LLM.WorstCase(), "GENERATION_RUN_TIMEOUT must cover LLM_MAX_ATTEMPTS x LLM_TIMEOUT plus backoff")
	check(c.Generation.LockTTL <= c.Generation.RunTimeout, "GENERATION_LOCK_TTL must exceed GENERATION_RUN_TIMEOUT")
	check(c.Generation.TipsPerRun < 0, "TIPS_PER_PROMPT must be >= 0")

	check(c.RateRPS < 0, "RATE_RPS must be >= 0")
	check(c.RateBurst < 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0")
	check(c.IdempotencyTTL <= 0, "IDEMPOTENCY_TTL must be > 0")
	check(c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}

// WorstCase is the longest the retry loop can take: every attempt runs to
// Timeout and backoff doubles from 2*BackoffBase between attempts.
func (l LLMConfig) WorstCase() time.Duration {
	d := time.Duration(max(l.MaxAttempts, 0)) * l.Timeout
	for a := 1; a < l.MaxAttempts; a++ {
		d += time.Duration(1<<uint(a)) * l.BackoffBase
	}
	return d
}

// lookup returns the parsed value of k, or def when k is unset, empty or
// unparsable.
func lookup[T any](k string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

func getenv(k, def string) string {
	return lookup(k, def, func(v string) (string, error) { return v, nil })
}

func getfloat(k string, def float64) float64 {
	return lookup(k, def, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

func getint(k string, def int) int { return lookup(k, def, strconv.Atoi) }

func getdur(k string, def time.Duration) time.Duration { return lookup(k, def, time.ParseDuration) }

var errNotBool = errors.New("not a boolean")

func getbool(k string, def bool) bool {
	return lookup(k, def, func(v string) (bool, error) {
		if sysutil.IsTruthy(v) {
			return true, nil
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "0", "false", "no", "n", "off":
			return false, nil
		}
		return false, errNotBool
	})
}

// splitCSV splits a comma list, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath returns p with one leading slash and no trailing slash;
// blank means root.
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
