package core

import (
	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	xrfKeyAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	xrfKeyLength   = 16
)

// NewXrfKey returns a fresh 16 character alphanumeric key for cross-site request forgery protection.
// The repository rejects requests whose xrfkey query parameter and X-Qlik-Xrfkey header differ.
func NewXrfKey() (string, error) {
	return nanoid.Generate(xrfKeyAlphabet, xrfKeyLength)
}
