package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Config struct {
	Addr          string
	DBDriver      string
	DBUrl         string
	TokenSecret   string
	TokenTTL      time.Duration
	SessionSecret string
	Debug         bool

	// bootstrap admin account, created or updated on startup
	AdminUser     string
	AdminPassword string

	LogFile       string
	LogMaxSize    int
	LogMaxAge     int
	LogMaxBackups int
}

// fileConfig mirrors the flags in a YAML document.
type fileConfig struct {
	Host          *string `yaml:"host"`
	Port          *uint   `yaml:"port"`
	DBDriver      *string `yaml:"db_driver"`
	DBUrl         *string `yaml:"db_url"`
	TokenSecret   *string `yaml:"token_secret"`
	TokenTTL      *uint   `yaml:"token_ttl"`
	SessionSecret *string `yaml:"session_secret"`
	Debug         *bool   `yaml:"debug"`
	AdminUser     *string `yaml:"admin_user"`
	AdminPassword *string `yaml:"admin_password"`
	Logging       struct {
		File       *string `yaml:"file"`
		MaxSize    *int    `yaml:"max_size"`
		MaxAge     *int    `yaml:"max_age"`
		MaxBackups *int    `yaml:"max_backups"`
	} `yaml:"logging"`
}

func ParseFlags() (Config, error) {
	return Parse(os.Args[1:])
}

// Parse reads the command line. Values from the -config YAML file apply to
// every flag that was not given explicitly.
func Parse(args []string) (cfg Config, err error) {
	fs := flag.NewFlagSet("survey-stats", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "path to a YAML configuration file")
	var host string
	fs.StringVar(&host, "host", "0.0.0.0", "listen host name")
	var port uint
	fs.UintVar(&port, "port", 80, "listen port number")
	fs.StringVar(&cfg.DBDriver, "db-driver", DriverSQLite, "database driver: sqlite3 or postgres")
	fs.StringVar(&cfg.DBUrl, "db-url", "qsurvey.sqlite", "path to SQLite3 DB file, or PostgreSQL connection URL")
	fs.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", 120, "token TTL in seconds")
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "secret key for respondent session tokens (defaults to -token-secret)")
	fs.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	fs.StringVar(&cfg.AdminUser, "admin-user", "", "admin user to create or update on startup")
	fs.StringVar(&cfg.AdminPassword, "admin-password", "", "password for -admin-user")
	fs.StringVar(&cfg.LogFile, "log-file", "", "also write logs to this rotating file")
	fs.IntVar(&cfg.LogMaxSize, "log-max-size", 100, "log file size in megabytes before rotation")
	fs.IntVar(&cfg.LogMaxAge, "log-max-age", 28, "days to keep rotated log files")
	fs.IntVar(&cfg.LogMaxBackups, "log-max-backups", 3, "number of rotated log files to keep")

	err = fs.Parse(args)
	if err != nil {
		return
	}

	if configPath != "" {
		set := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

		var fc fileConfig
		fc, err = readFile(configPath)
		if err != nil {
			return
		}
		apply(set, "host", fc.Host, &host)
		apply(set, "port", fc.Port, &port)
		apply(set, "db-driver", fc.DBDriver, &cfg.DBDriver)
		apply(set, "db-url", fc.DBUrl, &cfg.DBUrl)
		apply(set, "token-secret", fc.TokenSecret, &cfg.TokenSecret)
		apply(set, "token-ttl", fc.TokenTTL, &ttl)
		apply(set, "session-secret", fc.SessionSecret, &cfg.SessionSecret)
		apply(set, "debug", fc.Debug, &cfg.Debug)
		apply(set, "admin-user", fc.AdminUser, &cfg.AdminUser)
		apply(set, "admin-password", fc.AdminPassword, &cfg.AdminPassword)
		apply(set, "log-file", fc.Logging.File, &cfg.LogFile)
		apply(set, "log-max-size", fc.Logging.MaxSize, &cfg.LogMaxSize)
		apply(set, "log-max-age", fc.Logging.MaxAge, &cfg.LogMaxAge)
		apply(set, "log-max-backups", fc.Logging.MaxBackups, &cfg.LogMaxBackups)
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = cfg.TokenSecret
	}

	switch {
	case cfg.TokenSecret == "":
		err = errors.New("missing parameter -token-secret")
	case cfg.DBDriver != DriverSQLite && cfg.DBDriver != DriverPostgres:
		err = fmt.Errorf("unsupported -db-driver %q", cfg.DBDriver)
	case cfg.AdminUser != "" && cfg.AdminPassword == "":
		err = errors.New("missing parameter -admin-password for -admin-user")
	}

	return
}

func readFile(path string) (fc fileConfig, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	if err = yaml.UnmarshalStrict(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file: %w", err)
	}
	return fc, nil
}

func apply[T any](set map[string]bool, name string, value *T, dst *T) {
	if value != nil && !set[name] {
		*dst = *value
	}
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
