package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080, ShutdownTimeout: time.Second, RequestTimeout: time.Minute},
		Upload:   UploadConfig{MaxFileSize: 1, MaxFiles: 1, MaxConcurrent: 1, MaxWaitTime: time.Second},
		Session:  SessionConfig{TTL: time.Hour, SweepInterval: time.Minute, CookieName: "s"},
		Preview:  PreviewConfig{Rows: 5, ChartWidth: 640, ChartHeight: 320},
		Rate:     RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 10},
		Security: SecurityConfig{EnableCSP: true},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Upload.MaxFileSize != 50<<20 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 50<<20)
	}
	if cfg.Upload.MaxFiles != 10 {
		t.Errorf("Upload.MaxFiles = %d, want %d", cfg.Upload.MaxFiles, 10)
	}
	if cfg.Session.TTL != time.Hour {
		t.Errorf("Session.TTL = %v, want %v", cfg.Session.TTL, time.Hour)
	}
	if cfg.Preview.Rows != 5 {
		t.Errorf("Preview.Rows = %d, want %d", cfg.Preview.Rows, 5)
	}
	if cfg.Security.RequireAPIKey {
		t.Error("Security.RequireAPIKey should default to false")
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("UPLOAD_MAX_CONCURRENT", "10")
	t.Setenv("PREVIEW_ROWS", "20")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Upload.MaxConcurrent != 10 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 10)
	}
	if cfg.Preview.Rows != 20 {
		t.Errorf("Preview.Rows = %d, want %d", cfg.Preview.Rows, 20)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("PORT", "3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 3000)
	}
}

func TestLoad_Duration(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "45s")
	t.Setenv("SESSION_TTL", "1h30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Session.TTL != 90*time.Minute {
		t.Errorf("Session.TTL = %v, want %v", cfg.Session.TTL, 90*time.Minute)
	}
}

func TestLoad_ByteSize(t *testing.T) {
	tests := []struct {
		value string
		want  int64
	}{
		{"1048576", 1 << 20},
		{"10MiB", 10 << 20},
		{"10 MB", 10_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("UPLOAD_MAX_FILE_SIZE", tt.value)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Upload.MaxFileSize != tt.want {
				t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, tt.want)
			}
		})
	}
}

func TestLoad_InvalidByteSize(t *testing.T) {
	t.Setenv("UPLOAD_MAX_FILE_SIZE", "lots")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject an unparseable size")
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")
	t.Setenv("API_KEYS", "alpha,,beta")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if !reflect.DeepEqual(cfg.Security.TrustedProxies, expected) {
		t.Errorf("TrustedProxies = %v, want %v", cfg.Security.TrustedProxies, expected)
	}
	if !reflect.DeepEqual(cfg.Security.APIKeys, []string{"alpha", "beta"}) {
		t.Errorf("APIKeys = %v, want [alpha beta]", cfg.Security.APIKeys)
	}
}

func TestLoad_InvalidValuesAllReported(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("SESSION_TTL", "forever")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error")
	}
	for _, name := range []string{"SERVER_PORT", "SESSION_TTL"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should mention %s: %v", name, err)
		}
	}
}

func TestLoadStruct_Required(t *testing.T) {
	var target struct {
		Token string `env:"SWEEPER_TEST_TOKEN" required:"true"`
	}

	err := loadStruct(reflect.ValueOf(&target).Elem())
	if err == nil || !strings.Contains(err.Error(), "SWEEPER_TEST_TOKEN") {
		t.Fatalf("loadStruct() error = %v, want missing SWEEPER_TEST_TOKEN", err)
	}

	t.Setenv("SWEEPER_TEST_TOKEN", "x")
	if err := loadStruct(reflect.ValueOf(&target).Elem()); err != nil {
		t.Fatalf("loadStruct() error = %v", err)
	}
	if target.Token != "x" {
		t.Errorf("Token = %q, want %q", target.Token, "x")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"no files allowed", func(c *Config) { c.Upload.MaxFiles = 0 }, "UPLOAD_MAX_FILES"},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, "SESSION_TTL"},
		{"tiny chart", func(c *Config) { c.Preview.ChartWidth = 10 }, "CHART_WIDTH"},
		{"api key required without keys", func(c *Config) { c.Security.RequireAPIKey = true }, "API_KEYS"},
		{"rate limit disabled skips check", func(c *Config) {
			c.Rate.Enabled = false
			c.Rate.RequestsPerMinute = 0
		}, ""},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Preview.Rows = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") || !strings.Contains(err.Error(), "PREVIEW_ROWS") {
		t.Errorf("error should list both violations: %v", err)
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
		{"::1", 443, "[::1]:443"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		if got := cfg.Addr(); got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksAPIKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Security.APIKeys = []string{"super-secret-key"}

	str := cfg.String()
	if strings.Contains(str, "super-secret-key") {
		t.Error("String() should mask API keys")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
}
