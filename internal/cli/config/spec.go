package config

// DefaultAcceptanceMechanism is the TAA acceptance mechanism used when the
// config file names none.
const DefaultAcceptanceMechanism = "on_file"

// CLIConfig is the configuration for indy-cli.
type CLIConfig struct {
	// LoggerConfig is the path of a logger config file.
	LoggerConfig string `koanf:"loggerConfig"`

	// TAAAcceptanceMechanism is recorded in taaAcceptance of write requests.
	TAAAcceptanceMechanism string `koanf:"taaAcceptanceMechanism"`

	// Plugins is accepted for compatibility with older config files and
	// otherwise ignored.
	Plugins []PluginConfig `koanf:"plugins"`
}

// PluginConfig is a deprecated payment plugin entry.
type PluginConfig struct {
	Library     string `koanf:"library"`
	Initializer string `koanf:"initializer"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		TAAAcceptanceMechanism: DefaultAcceptanceMechanism,
	}
}
