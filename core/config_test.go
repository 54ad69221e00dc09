package core

import (
	"strings"
	"testing"
	"time"
)

func TestQRSConfig_Validate(t *testing.T) {
	t.Run("certificate config gets port 4242", func(t *testing.T) {
		config := &QRSConfig{
			Host:          "qlik.local",
			CertFile:      "client.pem",
			KeyFile:       "client_key.pem",
			UserDirectory: "INTERNAL",
			UserID:        "sa_repository",
		}
		if err := config.Validate(WithHost, WithAuth, WithPort); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if config.AuthMode != AuthCertificate {
			t.Errorf("AuthMode = %q, want %q", config.AuthMode, AuthCertificate)
		}
		if config.Port != DefaultCertificatePort {
			t.Errorf("Port = %d, want %d", config.Port, DefaultCertificatePort)
		}
	})

	t.Run("jwt config gets port 443", func(t *testing.T) {
		config := &QRSConfig{Host: "qlik.local", Token: "abc", VirtualProxy: "jwt"}
		if err := config.Validate(WithHost, WithAuth, WithPort); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if config.AuthMode != AuthJWT || config.Port != DefaultProxyPort {
			t.Errorf("got mode=%q port=%d", config.AuthMode, config.Port)
		}
	})

	t.Run("explicit port is kept", func(t *testing.T) {
		config := &QRSConfig{Host: "qlik.local", Token: "abc", Port: 8443}
		if err := config.Validate(WithAuth, WithPort); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if config.Port != 8443 {
			t.Errorf("Port = %d, want 8443", config.Port)
		}
	})

	t.Run("missing host", func(t *testing.T) {
		config := &QRSConfig{Host: "  ", Token: "abc"}
		err := config.Validate(WithHost)
		if !IsValidationErr(err) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		config := &QRSConfig{Host: "qlik.local"}
		if err := config.Validate(WithAuth); err == nil {
			t.Fatal("expected error for missing credentials")
		}
	})

	t.Run("first error wins", func(t *testing.T) {
		config := &QRSConfig{}
		err := config.Validate(WithHost, WithAuth)
		if err == nil || !strings.Contains(err.Error(), "host") {
			t.Fatalf("expected host error first, got %v", err)
		}
	})
}

func TestWithAuth(t *testing.T) {
	tests := []struct {
		name    string
		config  QRSConfig
		wantErr bool
		want    AuthMode
	}{
		{"token wins", QRSConfig{Token: "t", HeaderName: "X-User", UserID: "u"}, false, AuthJWT},
		{"header", QRSConfig{HeaderName: "X-User", UserID: "u"}, false, AuthHeader},
		{"header without user", QRSConfig{HeaderName: "X-User"}, true, AuthHeader},
		{"cert without user", QRSConfig{CertFile: "c", KeyFile: "k"}, true, AuthCertificate},
		{"cert without key", QRSConfig{CertFile: "c", UserDirectory: "D", UserID: "u"}, true, AuthCertificate},
		{"unknown mode", QRSConfig{AuthMode: "kerberos"}, true, "kerberos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := tt.config
			err := WithAuth(&config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("WithAuth() error = %v, wantErr %v", err, tt.wantErr)
			}
			if config.AuthMode != tt.want {
				t.Errorf("AuthMode = %q, want %q", config.AuthMode, tt.want)
			}
		})
	}
}

func TestWithTimeout(t *testing.T) {
	config := &QRSConfig{}
	timeout := 30 * time.Second
	if err := WithTimeout(timeout)(config); err != nil {
		t.Fatalf("WithTimeout() error = %v", err)
	}
	if config.Timeout == nil || *config.Timeout != timeout {
		t.Fatalf("WithTimeout() did not set timeout")
	}

	existing := time.Minute
	config = &QRSConfig{Timeout: &existing}
	_ = WithTimeout(timeout)(config)
	if *config.Timeout != existing {
		t.Errorf("WithTimeout() overrode existing timeout: %v", *config.Timeout)
	}
}

func TestWithMaxConnectionsAndPageSize(t *testing.T) {
	config := &QRSConfig{}
	_ = WithMaxConnections(10)(config)
	_ = WithPageSize(250)(config)
	if config.MaxConnections != 10 {
		t.Errorf("MaxConnections = %d, want 10", config.MaxConnections)
	}
	if config.PageSize != 250 {
		t.Errorf("PageSize = %d, want 250", config.PageSize)
	}

	config = &QRSConfig{MaxConnections: 3, PageSize: 20}
	_ = WithMaxConnections(10)(config)
	_ = WithPageSize(250)(config)
	if config.MaxConnections != 3 || config.PageSize != 20 {
		t.Errorf("explicit values overridden: %+v", config)
	}
}

func TestWithUserAgent(t *testing.T) {
	config := &QRSConfig{}
	_ = WithUserAgent(config)
	if !strings.HasPrefix(config.UserAgent, "go-qrs-client-"+ClientVersion()) {
		t.Errorf("UserAgent = %q", config.UserAgent)
	}

	config = &QRSConfig{UserAgent: "custom"}
	_ = WithUserAgent(config)
	if config.UserAgent != "custom" {
		t.Errorf("UserAgent overridden: %q", config.UserAgent)
	}
}

func TestWithLogger(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	config := &QRSConfig{LogLevel: "verbose"}
	if err := WithLogger(config); err == nil {
		t.Fatal("expected error for unknown log level")
	}

	config = &QRSConfig{LogLevel: "debug"}
	if err := WithLogger(config); err != nil {
		t.Fatalf("WithLogger() error = %v", err)
	}
	if Logger() == nil {
		t.Fatal("Logger() returned nil")
	}
}
