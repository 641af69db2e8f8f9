package command

import (
	"context"
	"os"

	"github.com/pradeepp88/indy-cli-go/internal/cli/output"
	"github.com/pradeepp88/indy-cli-go/internal/cli/shell"
	"github.com/pradeepp88/indy-cli-go/internal/infra/buildinfo"
	"github.com/pradeepp88/indy-cli-go/internal/telemetry/logger"
)

func commonCommands() []shell.CommandSpec {
	return []shell.CommandSpec{
		{
			Name: "about",
			Help: "Show about information",
			Run:  about,
		},
		{
			Name: "exit",
			Help: "Exit Command-line interface",
			Run:  exit,
		},
		{
			Name:     "prompt",
			Help:     "Change command prompt",
			Params:   []shell.ParamSpec{shell.Main("prompt", "New prompt string")},
			Examples: []string{"prompt new-prompt"},
			Run:      setPrompt,
		},
		{
			Name:     "show",
			Help:     "Print the content of text file",
			Params:   []shell.ParamSpec{shell.Main("file", "The path to file to show")},
			Examples: []string{"show /home/file.txt"},
			Run:      show,
		},
		{
			Name:     "init-logger",
			Help:     "Init logger according to a config file",
			Detail:   "The file is JSON or YAML with level, format, output and add_source fields.",
			Params:   []shell.ParamSpec{shell.Main("file", "The path to the logger config file")},
			Examples: []string{"init-logger /home/logger.json"},
			Run:      initLogger,
		},
		{
			Name: "load-plugin",
			Help: "Load plugin in Libindy (deprecated)",
			Params: []shell.ParamSpec{
				shell.Required("library", "Name of plugin (can be absolute or relative path)"),
				shell.Required("initializer", "Name of plugin init function"),
			},
			Run: loadPlugin,
		},
	}
}

func about(context.Context, *shell.Invocation) (*output.Result, error) {
	info := buildinfo.Get()

	t := output.NewTable("Version", "Commit", "Build Time", "Go")
	t.AddRow(info.Version, info.Commit, info.BuildTime, info.GoVersion)

	return output.NewResult().
		Success("Hyperledger Indy CLI").
		Text("Command-line interface for Hyperledger Indy distributed-ledger clients.").
		Table(t), nil
}

func exit(context.Context, *shell.Invocation) (*output.Result, error) {
	return output.Successf("Goodbye...").WithExit(), nil
}

func setPrompt(_ context.Context, inv *shell.Invocation) (*output.Result, error) {
	inv.Session.SetPrompt(inv.Params.String("prompt"))
	return nil, nil
}

func show(_ context.Context, inv *shell.Invocation) (*output.Result, error) {
	path := inv.Params.String("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, shell.IO(path, err)
	}
	return output.NewResult().Text(string(data)), nil
}

// initLogger replaces the default logger. The previous logger's file, if
// any, is closed once the new one is installed.
func initLogger(_ context.Context, inv *shell.Invocation) (*output.Result, error) {
	path := inv.Params.String("file")
	cfg, err := logger.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	l, err := logger.New(cfg)
	if err != nil {
		return nil, err
	}

	prev := logger.Default()
	logger.SetDefault(l)
	if err := logger.Close(prev); err != nil {
		logger.Warn("close previous logger", "error", err)
	}
	return output.Successf("Logger has been initialized according to the config file: %q", path), nil
}

func loadPlugin(_ context.Context, inv *shell.Invocation) (*output.Result, error) {
	return output.NewResult().Warn("Command DEPRECATED! Plugin %q was not loaded.", inv.Params.String("library")), nil
}
