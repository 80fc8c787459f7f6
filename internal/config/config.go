package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type DB struct {
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	LockTimeout time.Duration
	TxAttempts  int
	TxTimeout   time.Duration
	Migrate     bool
}

func (d DB) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", d.Host, d.Port, d.User, d.Password, d.Name)
}

type Workflow struct {
	ReturnWindowDays       int
	LegacyReturnWindowDays int
	ForbiddenTransitions   string
}

type Kafka struct {
	Brokers      []string
	Topic        string
	GroupID      string
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type Blob struct {
	Driver          string
	LocalDir        string
	LocalURLPrefix  string
	S3Region        string
	S3Bucket        string
	S3Prefix        string
	S3PublicBaseURL string
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Auth struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
}

type Config struct {
	HTTPPort string
	LogLevel string
	DB       DB
	Workflow Workflow
	Kafka    Kafka
	Redis    Redis
	Blob     Blob
	SMTP     SMTP
	Auth     Auth
}

// Load reads .env (when present) and then the process environment.
func Load() (Config, error) {
	loadEnv()
	return fromEnv()
}

func fromEnv() (Config, error) {
	p := parser{}
	cfg := Config{
		HTTPPort: p.str("HTTP_PORT", "9000"),
		LogLevel: p.str("LOG_LEVEL", "debug"),
		DB: DB{
			Host:        p.str("DB_HOST", "localhost"),
			Port:        p.int("DB_PORT", 5432),
			User:        p.str("POSTGRES_USER", "postgres"),
			Password:    p.str("POSTGRES_PASSWORD", ""),
			Name:        p.str("POSTGRES_DB", "storefront"),
			LockTimeout: p.duration("DB_LOCK_TIMEOUT", 5*time.Second),
			TxAttempts:  p.int("DB_TX_ATTEMPTS", 3),
			TxTimeout:   p.duration("DB_TX_TIMEOUT", 15*time.Second),
			Migrate:     p.bool("DB_MIGRATE", false),
		},
		Workflow: Workflow{
			ReturnWindowDays:       p.int("RETURN_WINDOW_DAYS", 7),
			LegacyReturnWindowDays: p.int("LEGACY_RETURN_WINDOW_DAYS", 30),
			ForbiddenTransitions:   p.str("ORDER_FORBIDDEN_TRANSITIONS", ""),
		},
		Kafka: Kafka{
			Brokers:      p.list("KAFKA_BROKERS"),
			Topic:        p.str("KAFKA_TOPIC", "storefront_events"),
			GroupID:      p.str("KAFKA_GROUP_ID", "storefront-notifications"),
			PollInterval: p.duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
			BatchSize:    p.int("OUTBOX_BATCH_SIZE", 20),
			MaxAttempts:  p.int("OUTBOX_MAX_ATTEMPTS", 5),
		},
		Redis: Redis{
			Addr:     p.str("REDIS_ADDR", ""),
			Password: p.str("REDIS_PASSWORD", ""),
			DB:       p.int("REDIS_DB", 0),
			TTL:      p.duration("ORDER_CACHE_TTL", 10*time.Minute),
		},
		Blob: Blob{
			Driver:          p.str("STORAGE_DRIVER", "local"),
			LocalDir:        p.str("LOCAL_UPLOAD_DIR", "./storage/returns"),
			LocalURLPrefix:  p.str("LOCAL_UPLOAD_URL_PREFIX", "/uploads/returns"),
			S3Region:        p.str("S3_REGION", ""),
			S3Bucket:        p.str("S3_BUCKET", ""),
			S3Prefix:        p.str("S3_PREFIX", "returns"),
			S3PublicBaseURL: p.str("S3_PUBLIC_BASE_URL", ""),
		},
		SMTP: SMTP{
			Host:     p.str("SMTP_HOST", ""),
			Port:     p.int("SMTP_PORT", 587),
			Username: p.str("SMTP_USERNAME", ""),
			Password: p.str("SMTP_PASSWORD", ""),
			From:     p.str("SMTP_FROM", "no-reply@bagstore.local"),
		},
		Auth: Auth{
			JWTSecret:     p.str("JWT_SECRET", ""),
			TokenTTL:      p.duration("JWT_TTL", 24*time.Hour),
			AdminEmail:    p.str("ADMIN_EMAIL", ""),
			AdminPassword: p.str("ADMIN_PASSWORD", ""),
		},
	}

	if p.err != nil {
		return Config{}, p.err
	}
	if cfg.DB.TxAttempts < 1 {
		return Config{}, fmt.Errorf("DB_TX_ATTEMPTS must be at least 1, got %d", cfg.DB.TxAttempts)
	}
	if cfg.Workflow.ReturnWindowDays < 0 || cfg.Workflow.LegacyReturnWindowDays < 0 {
		return Config{}, fmt.Errorf("return windows must not be negative")
	}
	return cfg, nil
}

func loadEnv() {
	exePath, err := os.Getwd()
	if err != nil {
		log.Printf("Error getting working directory: %v", err)
		return
	}

	possiblePaths := []string{
		filepath.Join(exePath, ".env"),
		filepath.Join(exePath, "..", ".env"),
		filepath.Join(exePath, "..", "..", ".env"),
	}

	for _, envPath := range possiblePaths {
		if err := godotenv.Load(envPath); err == nil {
			log.Printf("Loaded environment variables from %s", envPath)
			return
		}
	}

	for _, envPath := range possiblePaths {
		examplePath := filepath.Join(filepath.Dir(envPath), ".example.env")
		if err := godotenv.Load(examplePath); err == nil {
			log.Printf("Loaded environment variables from %s", examplePath)
			return
		}
	}
}

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	err error
}

func (p *parser) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (p *parser) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return d
}

func (p *parser) list(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}
