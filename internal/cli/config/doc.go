// Package config provides the indy-cli configuration.
//
//   - spec.go: CLIConfig, the --config file model
//   - paths.go: the client home directory and what lives in it
//   - loader.go: loading through confloader and live reload in interactive sessions
//
// The config file is JSON:
//
//	{"loggerConfig": "/path/logger.json", "taaAcceptanceMechanism": "on_file"}
package config
