// Package version provides build version information for reqkit.
//
// Version and git commit are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/reqkit/version.Version=1.0.0"
//
// The short form is used as the default User-Agent of executed requests.
package version
