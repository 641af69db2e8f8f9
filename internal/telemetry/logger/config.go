package logger

import (
	"fmt"

	"github.com/pradeepp88/indy-cli-go/internal/infra/confloader"
)

// LoadConfig reads a logger configuration file (JSON, or YAML by
// extension). Fields missing from the file keep their DefaultConfig
// values. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	l := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithEnvPrefix(confloader.DefaultEnvPrefix+"LOG_"),
	)
	if err := l.Load(&cfg); err != nil {
		return Config{}, fmt.Errorf("logger config: %w", err)
	}
	return cfg, nil
}
