package core

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
)

// Authenticator decorates the transport and each request with the credentials of one AuthMode.
type Authenticator interface {
	configureTLS(tlsConfig *tls.Config) error
	setAuthHeader(headers *http.Header)
	mode() AuthMode
}

// createAuthenticator creates a new Authenticator instance based on the provided QRSConfig.
// The config must already have passed WithAuth.
func createAuthenticator(config *QRSConfig) (Authenticator, error) {
	switch config.AuthMode {
	case AuthCertificate:
		return &CertificateAuthenticator{
			CertFile:      config.CertFile,
			KeyFile:       config.KeyFile,
			CAFile:        config.CAFile,
			UserDirectory: config.UserDirectory,
			UserID:        config.UserID,
		}, nil
	case AuthHeader:
		return &HeaderAuthenticator{HeaderName: config.HeaderName, UserID: config.UserID}, nil
	case AuthJWT:
		return &JWTAuthenticator{Token: config.Token}, nil
	}
	return nil, &ValidationError{Op: "auth", Message: fmt.Sprintf("unsupported auth mode %q", config.AuthMode)}
}

// qlikUserHeader formats the X-Qlik-User header value.
func qlikUserHeader(userDirectory, userID string) string {
	return fmt.Sprintf("UserDirectory=%s; UserId=%s", userDirectory, userID)
}

// CertificateAuthenticator presents a client certificate exported from the QMC
// and impersonates UserDirectory\UserID through the X-Qlik-User header.
type CertificateAuthenticator struct {
	CertFile      string
	KeyFile       string
	CAFile        string
	UserDirectory string
	UserID        string
}

func (auth *CertificateAuthenticator) configureTLS(tlsConfig *tls.Config) error {
	cert, err := tls.LoadX509KeyPair(auth.CertFile, auth.KeyFile)
	if err != nil {
		return fmt.Errorf("failed to load client certificate: %w", err)
	}
	tlsConfig.Certificates = []tls.Certificate{cert}
	if auth.CAFile == "" {
		return nil
	}
	caPEM, err := os.ReadFile(auth.CAFile)
	if err != nil {
		return fmt.Errorf("failed to read root certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return fmt.Errorf("no certificates found in %s", auth.CAFile)
	}
	tlsConfig.RootCAs = pool
	return nil
}

func (auth *CertificateAuthenticator) setAuthHeader(headers *http.Header) {
	headers.Set(HeaderQlikUser, qlikUserHeader(auth.UserDirectory, auth.UserID))
}

func (auth *CertificateAuthenticator) mode() AuthMode {
	return AuthCertificate
}

// HeaderAuthenticator passes the user id in the header configured on the virtual proxy.
type HeaderAuthenticator struct {
	HeaderName string
	UserID     string
}

func (auth *HeaderAuthenticator) configureTLS(*tls.Config) error {
	return nil
}

func (auth *HeaderAuthenticator) setAuthHeader(headers *http.Header) {
	headers.Set(auth.HeaderName, auth.UserID)
}

func (auth *HeaderAuthenticator) mode() AuthMode {
	return AuthHeader
}

// JWTAuthenticator sends a pre-issued token as a bearer credential.
type JWTAuthenticator struct {
	Token string
}

func (auth *JWTAuthenticator) configureTLS(*tls.Config) error {
	return nil
}

func (auth *JWTAuthenticator) setAuthHeader(headers *http.Header) {
	headers.Set(HeaderAuthorization, AuthTypeBearer+" "+auth.Token)
}

func (auth *JWTAuthenticator) mode() AuthMode {
	return AuthJWT
}
