package core

// clientVersion is overwritten at build time with -ldflags.
var clientVersion = "0.1.0"

// ClientVersion returns the version of the qrs client module.
func ClientVersion() string {
	return clientVersion
}
