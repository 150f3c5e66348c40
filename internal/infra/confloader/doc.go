// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables
//  3. Dotenv file
//  4. YAML configuration file
//  5. Defaults
package confloader
