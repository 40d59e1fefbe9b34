package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

type Config struct {
	Addr              string
	DataDir           string
	Store             string
	DBUrl             string
	FormsFile         string
	TokenSecret       string
	TokenTTL          time.Duration
	SessionTTL        time.Duration
	AdminUser         string
	AdminPasswordHash string
	MaxUploadSize     int64
	Debug             bool
}

// ParseFlags reads args, falling back to environment variables for anything
// not given on the command line.
func ParseFlags(args []string) (cfg Config, err error) {
	fs := flag.NewFlagSet("national-dialog", flag.ContinueOnError)

	host := fs.String("host", "", "listen host name (env HOST, default 0.0.0.0)")
	port := fs.Uint("port", 0, "listen port number (env PORT, default 8080)")
	fs.StringVar(&cfg.DataDir, "data-dir", "", "data directory (env DATA_DIR, default user_data_store)")
	fs.StringVar(&cfg.Store, "store", "", "record store backend, json or sqlite (env STORE, default json)")
	fs.StringVar(&cfg.DBUrl, "db-url", "", "path to SQLite3 DB file (env DB_URL, default <data-dir>/national_dialog.sqlite)")
	fs.StringVar(&cfg.FormsFile, "forms", "", "YAML file with the form catalog (env FORMS_FILE, built-in forms when empty)")
	fs.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for session and admin tokens (env TOKEN_SECRET)")
	sessionTTL := fs.Uint("session-ttl", 0, "session TTL in hours (env SESSION_TTL, default 720)")
	tokenTTL := fs.Uint("token-ttl", 0, "admin token TTL in seconds (env TOKEN_TTL, default 120)")
	fs.StringVar(&cfg.AdminUser, "admin-user", "", "admin user name (env ADMIN_USER, default admin)")
	fs.StringVar(&cfg.AdminPasswordHash, "admin-password-hash", "", "bcrypt hash of the admin password, admin API is off when empty (env ADMIN_PASSWORD_HASH)")
	maxUpload := fs.Int64("max-upload", 0, "largest accepted image upload in bytes (env MAX_UPLOAD, default 5MiB)")
	fs.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")

	if err = fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *host == "" {
		*host = envOr("HOST", "0.0.0.0")
	}
	if *port == 0 {
		if *port, err = envUint("PORT", 8080); err != nil {
			return Config{}, err
		}
	}
	cfg.Addr = net.JoinHostPort(*host, strconv.Itoa(int(*port)))

	if cfg.DataDir == "" {
		cfg.DataDir = envOr("DATA_DIR", "user_data_store")
	}
	if cfg.Store == "" {
		cfg.Store = envOr("STORE", StoreJSON)
	}
	if cfg.Store != StoreJSON && cfg.Store != StoreSQLite {
		return Config{}, fmt.Errorf("unknown store %q (want json or sqlite)", cfg.Store)
	}
	if cfg.DBUrl == "" {
		cfg.DBUrl = envOr("DB_URL", filepath.Join(cfg.DataDir, "national_dialog.sqlite"))
	}
	if cfg.FormsFile == "" {
		cfg.FormsFile = os.Getenv("FORMS_FILE")
	}

	if *sessionTTL == 0 {
		if *sessionTTL, err = envUint("SESSION_TTL", 720); err != nil {
			return Config{}, err
		}
	}
	cfg.SessionTTL = time.Duration(*sessionTTL) * time.Hour
	if *tokenTTL == 0 {
		if *tokenTTL, err = envUint("TOKEN_TTL", 120); err != nil {
			return Config{}, err
		}
	}
	cfg.TokenTTL = time.Duration(*tokenTTL) * time.Second

	if cfg.AdminUser == "" {
		cfg.AdminUser = envOr("ADMIN_USER", "admin")
	}
	if cfg.AdminPasswordHash == "" {
		cfg.AdminPasswordHash = os.Getenv("ADMIN_PASSWORD_HASH")
	}

	cfg.MaxUploadSize = *maxUpload
	if cfg.MaxUploadSize <= 0 {
		size, err := envUint("MAX_UPLOAD", 5<<20)
		if err != nil {
			return Config{}, err
		}
		cfg.MaxUploadSize = int64(size)
	}

	if cfg.TokenSecret == "" {
		cfg.TokenSecret = os.Getenv("TOKEN_SECRET")
	}
	if cfg.TokenSecret == "" {
		return Config{}, errors.New("missing parameter -token-secret (or TOKEN_SECRET)")
	}

	return cfg, nil
}

func (cfg Config) AdminEnabled() bool {
	return cfg.AdminPasswordHash != ""
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envUint(key string, def uint) (uint, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return uint(n), nil
}
