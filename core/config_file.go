package core

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables that override values read from a config file.
const (
	EnvHost         = "QRS_HOST"
	EnvPort         = "QRS_PORT"
	EnvVirtualProxy = "QRS_VIRTUAL_PROXY"
)

// configFile represents the raw TOML structure:
//
//	[server]
//	host = "qlik.example.com"
//	port = 4242
//	virtual_proxy = "jwt"
//	ssl_verify = true
//	timeout = "30s"
//
//	[auth]
//	mode = "certificate"
//	cert_file = "client.pem"
//	key_file = "client_key.pem"
//	ca_file = "root.pem"
//	user_directory = "INTERNAL"
//	user_id = "sa_repository"
//	header_name = "X-Qlik-User-Header"
//	token = "..."
//
//	[log]
//	level = "info"
//	file = "/var/log/qrs.log"
type configFile struct {
	Server struct {
		Host           string  `toml:"host"`
		Port           *uint64 `toml:"port"`
		VirtualProxy   string  `toml:"virtual_proxy"`
		SslVerify      *bool   `toml:"ssl_verify"`
		Timeout        string  `toml:"timeout"`
		MaxConnections int     `toml:"max_connections"`
		PageSize       int     `toml:"page_size"`
	} `toml:"server"`
	Auth struct {
		Mode          string `toml:"mode"`
		CertFile      string `toml:"cert_file"`
		KeyFile       string `toml:"key_file"`
		CAFile        string `toml:"ca_file"`
		UserDirectory string `toml:"user_directory"`
		UserID        string `toml:"user_id"`
		HeaderName    string `toml:"header_name"`
		Token         string `toml:"token"`
	} `toml:"auth"`
	Log struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
}

// LoadConfigFile reads a TOML config file and applies the QRS_HOST, QRS_PORT and
// QRS_VIRTUAL_PROXY environment overrides. The result still has to be validated.
func LoadConfigFile(path string) (*QRSConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes TOML data into a QRSConfig and applies environment overrides.
func ParseConfig(data []byte) (*QRSConfig, error) {
	var raw configFile
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, &ValidationError{Op: "config", Message: fmt.Sprintf("unknown config key %q", undecoded[0].String())}
	}

	cfg := &QRSConfig{
		Host:           raw.Server.Host,
		VirtualProxy:   raw.Server.VirtualProxy,
		SslVerify:      true,
		MaxConnections: raw.Server.MaxConnections,
		PageSize:       raw.Server.PageSize,
		AuthMode:       AuthMode(raw.Auth.Mode),
		CertFile:       raw.Auth.CertFile,
		KeyFile:        raw.Auth.KeyFile,
		CAFile:         raw.Auth.CAFile,
		UserDirectory:  raw.Auth.UserDirectory,
		UserID:         raw.Auth.UserID,
		HeaderName:     raw.Auth.HeaderName,
		Token:          raw.Auth.Token,
		LogLevel:       raw.Log.Level,
		LogFile:        raw.Log.File,
	}
	if raw.Server.Port != nil {
		cfg.Port = *raw.Server.Port
	}
	if raw.Server.SslVerify != nil {
		cfg.SslVerify = *raw.Server.SslVerify
	}
	if raw.Server.Timeout != "" {
		timeout, err := time.ParseDuration(raw.Server.Timeout)
		if err != nil {
			return nil, &ValidationError{Op: "config", Message: fmt.Sprintf("invalid timeout %q", raw.Server.Timeout)}
		}
		cfg.Timeout = &timeout
	}
	if err = applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *QRSConfig) error {
	if host := os.Getenv(EnvHost); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv(EnvPort); port != "" {
		value, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return &ValidationError{Op: "config", Message: fmt.Sprintf("invalid %s %q", EnvPort, port)}
		}
		cfg.Port = value
	}
	if proxy, ok := os.LookupEnv(EnvVirtualProxy); ok {
		cfg.VirtualProxy = proxy
	}
	return nil
}
