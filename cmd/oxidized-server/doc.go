// Command oxidized-server runs the oxidized reference application.
//
// Configuration is read from, in increasing priority, built-in defaults,
// the --config YAML file, the --env-file dotenv file, OXIDIZED_*
// environment variables and command-line flags:
//
//	oxidized-server --config oxidized.yaml --addr 0.0.0.0:8443 \
//	  --tls-cert server.crt --tls-key server.key
package main
