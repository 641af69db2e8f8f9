// Package confloader loads indy-cli configuration files.
//
// It wraps koanf:
//
//   - loader.go: file (JSON, or YAML by extension) and environment loading
//   - provider.go: in-memory map provider for defaults and tests
//   - watcher.go: fsnotify based reload notifications
//
// Priority (highest to lowest): environment variables, file, defaults.
// Environment keys match file keys case-insensitively, so
// INDY_CLI_TAAACCEPTANCEMECHANISM overrides taaAcceptanceMechanism.
package confloader
