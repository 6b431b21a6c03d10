package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]string{"-token-secret", "s3cret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr != "0.0.0.0:80" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.DBDriver != DriverSQLite || cfg.DBUrl != "qsurvey.sqlite" {
		t.Errorf("unexpected database: %s %s", cfg.DBDriver, cfg.DBUrl)
	}
	if cfg.TokenTTL != 2*time.Minute {
		t.Errorf("TokenTTL = %s", cfg.TokenTTL)
	}
	if cfg.SessionSecret != "s3cret" {
		t.Errorf("SessionSecret = %q, want the token secret", cfg.SessionSecret)
	}
	if cfg.Url() != "http://localhost:80" {
		t.Errorf("Url() = %q", cfg.Url())
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing token secret", nil},
		{"unsupported driver", []string{"-token-secret", "x", "-db-driver", "mysql"}},
		{"admin without password", []string{"-token-secret", "x", "-admin-user", "root"}},
		{"unknown flag", []string{"-token-secret", "x", "-nope"}},
		{"missing config file", []string{"-token-secret", "x", "-config", "/does/not/exist.yml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParse_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	err := os.WriteFile(path, []byte(`
host: 127.0.0.1
port: 8080
db_driver: postgres
db_url: postgres://localhost/surveys
token_secret: from-file
token_ttl: 60
session_secret: sessions
logging:
  file: /tmp/survey.log
  max_backups: 7
`), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := Parse([]string{"-config", path, "-port", "9090"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// flags win over the file
	if cfg.Addr != "127.0.0.1:9090" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.DBDriver != DriverPostgres || cfg.DBUrl != "postgres://localhost/surveys" {
		t.Errorf("unexpected database: %s %s", cfg.DBDriver, cfg.DBUrl)
	}
	if cfg.TokenSecret != "from-file" || cfg.SessionSecret != "sessions" {
		t.Errorf("unexpected secrets: %q %q", cfg.TokenSecret, cfg.SessionSecret)
	}
	if cfg.TokenTTL != time.Minute {
		t.Errorf("TokenTTL = %s", cfg.TokenTTL)
	}
	if cfg.LogFile != "/tmp/survey.log" || cfg.LogMaxBackups != 7 || cfg.LogMaxSize != 100 {
		t.Errorf("unexpected logging: %q %d %d", cfg.LogFile, cfg.LogMaxBackups, cfg.LogMaxSize)
	}
}

func TestParse_FileUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("token_secret: x\nportt: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Parse([]string{"-config", path}); err == nil {
		t.Error("expected unknown keys to be rejected")
	}
}
