package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
[server]
host = "qlik.example.com"
virtual_proxy = "jwt"
ssl_verify = false
timeout = "45s"
page_size = 100

[auth]
mode = "jwt"
token = "eyJhbGciOi"

[log]
level = "info"
`

func TestLoadConfigFile(t *testing.T) {
	t.Setenv(EnvHost, "")
	t.Setenv(EnvPort, "")
	t.Setenv(EnvVirtualProxy, "")
	os.Unsetenv(EnvVirtualProxy)
	dir := t.TempDir()
	path := filepath.Join(dir, "qrs.toml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	if cfg.Host != "qlik.example.com" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if cfg.VirtualProxy != "jwt" {
		t.Errorf("VirtualProxy = %q", cfg.VirtualProxy)
	}
	if cfg.SslVerify {
		t.Error("SslVerify should be false")
	}
	if cfg.Timeout == nil || *cfg.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.AuthMode != AuthJWT || cfg.Token != "eyJhbGciOi" {
		t.Errorf("auth = %q/%q", cfg.AuthMode, cfg.Token)
	}
	if cfg.PageSize != 100 || cfg.LogLevel != "info" {
		t.Errorf("PageSize = %d, LogLevel = %q", cfg.PageSize, cfg.LogLevel)
	}
	if err = cfg.Validate(WithHost, WithAuth, WithPort); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Port != DefaultProxyPort {
		t.Errorf("Port = %d", cfg.Port)
	}
}

func TestParseConfig_EnvOverrides(t *testing.T) {
	t.Setenv(EnvHost, "override.local")
	t.Setenv(EnvPort, "4747")
	t.Setenv(EnvVirtualProxy, "")

	cfg, err := ParseConfig([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.Host != "override.local" || cfg.Port != 4747 {
		t.Errorf("got host=%q port=%d", cfg.Host, cfg.Port)
	}
	if cfg.VirtualProxy != "" {
		t.Errorf("VirtualProxy = %q, want empty", cfg.VirtualProxy)
	}
}

func TestParseConfig_Errors(t *testing.T) {
	t.Setenv(EnvPort, "")
	tests := []struct {
		name string
		data string
	}{
		{"invalid toml", "[server\nhost="},
		{"unknown key", "[server]\nhostname = \"x\""},
		{"bad timeout", "[server]\ntimeout = \"soon\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tt.data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	t.Run("bad port env", func(t *testing.T) {
		t.Setenv(EnvPort, "http")
		if _, err := ParseConfig([]byte("")); !IsValidationErr(err) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}
