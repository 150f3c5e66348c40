// Package config defines the oxidized-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values, also as a flat map for confloader
//   - verify.go: validation of addresses, TLS files and enumerations
//
// Configuration is loaded via internal/infra/confloader and supports
// files, a dotenv file, environment variables and flags.
package config
