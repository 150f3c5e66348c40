// Package buildinfo reports the version of the running binary.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/alexu8007/Oxidized/internal/infra/buildinfo.Version=v0.1.0 \
//	  -X github.com/alexu8007/Oxidized/internal/infra/buildinfo.Commit=abc123"
package buildinfo
