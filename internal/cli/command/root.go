package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/pradeepp88/indy-cli-go/internal/cli/config"
	"github.com/pradeepp88/indy-cli-go/internal/cli/output"
	"github.com/pradeepp88/indy-cli-go/internal/cli/repl"
	"github.com/pradeepp88/indy-cli-go/internal/cli/session"
	"github.com/pradeepp88/indy-cli-go/internal/cli/shell"
	"github.com/pradeepp88/indy-cli-go/internal/infra/buildinfo"
	"github.com/pradeepp88/indy-cli-go/internal/infra/shutdown"
	"github.com/pradeepp88/indy-cli-go/internal/sdk/pool"
	"github.com/pradeepp88/indy-cli-go/internal/sdk/wallet"
	"github.com/pradeepp88/indy-cli-go/internal/telemetry/logger"
	"github.com/pradeepp88/indy-cli-go/internal/telemetry/metric"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitAborted = 1
	ExitUsage   = 2
)

const shutdownTimeout = 5 * time.Second

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:            "indy-cli",
		Usage:           "Hyperledger Indy command line interpreter",
		UsageText:       "indy-cli [options] [script]",
		ArgsUsage:       "[script]",
		Version:         buildinfo.Get().String(),
		Flags:           globalFlags(),
		HideHelpCommand: true,
		Action:          run,
		// Errors are mapped to exit codes by the caller.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// globalFlags returns the process flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to the CLI config file (JSON)",
			EnvVars: []string{"INDY_CLI_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "logger-config",
			Usage: "Path to the logger config file. Overrides loggerConfig of the CLI config",
		},
		&cli.StringFlag{
			Name:  "plugins",
			Usage: "DEPRECATED. Payment plugins are not supported and the value is ignored",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored output",
		},
		&cli.StringFlag{
			Name:    "metrics-file",
			Usage:   "Write command metrics in Prometheus text format to this file on exit",
			EnvVars: []string{"INDY_CLI_METRICS_FILE"},
		},
	}
}

// Options are the parsed process flags.
type Options struct {
	ConfigPath   string
	LoggerConfig string
	Plugins      string
	Format       output.Format
	NoColor      bool
	MetricsFile  string

	// Script is a batch file. Empty means stdin.
	Script string
}

// ParseOptions extracts the options from the command line context.
func ParseOptions(c *cli.Context) (*Options, error) {
	if c.NArg() > 1 {
		return nil, fmt.Errorf("unexpected arguments: %v", c.Args().Slice()[1:])
	}
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return nil, err
	}
	return &Options{
		ConfigPath:   c.String("config"),
		LoggerConfig: c.String("logger-config"),
		Plugins:      c.String("plugins"),
		Format:       format,
		NoColor:      c.Bool("no-color"),
		MetricsFile:  c.String("metrics-file"),
		Script:       c.Args().First(),
	}, nil
}

// Streams are the process standard streams.
type Streams struct {
	In  *os.File
	Out io.Writer
	Err io.Writer
}

func run(c *cli.Context) error {
	opts, err := ParseOptions(c)
	if err != nil {
		return err
	}
	return Run(c.Context, opts, Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
}

// ExitCode maps the result of App.Run to the process exit status.
func ExitCode(err error) int {
	var abort *repl.AbortError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &abort):
		return ExitAborted
	default:
		return ExitUsage
	}
}

// Run wires the SDK, the session and the command loop, then executes the
// script, stdin, or an interactive session, and releases the session on
// return.
func Run(ctx context.Context, opts *Options, s Streams) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	loggerPath := opts.LoggerConfig
	if loggerPath == "" {
		loggerPath = cfg.LoggerConfig
	}
	logCfg, err := logger.LoadConfig(loggerPath)
	if err != nil {
		return err
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return err
	}
	logger.SetDefault(log)
	// init-logger may replace the default during the run.
	defer func() { _ = logger.Close(logger.Default()) }()

	paths := config.DefaultPaths()
	if err := paths.Ensure(); err != nil {
		return fmt.Errorf("client home: %w", err)
	}

	sdkLog := logger.Slog(log)
	b := &Backend{
		Wallets: wallet.NewManager(paths.WalletDir(), wallet.WithLogger(sdkLog)),
		Pools:   pool.NewManager(paths.PoolDir(), pool.WithLogger(sdkLog)),
	}
	reg, err := NewRegistry(b)
	if err != nil {
		return err
	}

	live := config.NewLive(opts.ConfigPath, cfg, sdkLog)
	sess := session.New(session.WithAcceptanceMechanism(live.AcceptanceMechanism))

	hooks := shutdown.NewHandler(shutdownTimeout)
	hooks.OnShutdown(func(context.Context) error { return sess.Close() })
	hooks.OnShutdown(func(context.Context) error { return live.Stop() })
	defer func() {
		if err := hooks.Shutdown(); err != nil {
			log.Warn("session teardown", "error", err)
		}
	}()
	stopSignals := hooks.Listen(func(os.Signal) { os.Exit(ExitAborted) })
	defer stopSignals()

	var (
		src         repl.Source
		out         = s.Out
		errOut      = s.Err
		prompter    shell.Prompter
		interactive = opts.Script == "" && s.In != nil && term.IsTerminal(int(s.In.Fd()))
	)
	outFile, _ := s.Out.(*os.File)
	output.InitStyles(!opts.NoColor, outFile)

	switch {
	case opts.Script != "":
		f, err := os.Open(opts.Script)
		if err != nil {
			return shell.IO(opts.Script, err)
		}
		defer f.Close()
		src = repl.NewBatch(f)
	case interactive:
		hist := repl.NewHistory(paths.HistoryFile(), repl.DefaultHistorySize)
		if err := hist.Load(); err != nil {
			log.Warn("load history", "path", paths.HistoryFile(), "error", err)
		}
		defer func() {
			if err := hist.Save(); err != nil {
				log.Warn("save history", "path", paths.HistoryFile(), "error", err)
			}
		}()

		t, err := repl.NewTerminal(s.In, s.Out, repl.NewCompleter(reg), hist)
		if err != nil {
			return err
		}
		defer t.Close()
		hooks.OnShutdown(func(context.Context) error { return t.Close() })
		src, out, errOut, prompter = t, t, t, t
		b.Progress = t

		if err := live.Watch(); err != nil {
			log.Warn("watch config", "path", opts.ConfigPath, "error", err)
		}
	default:
		src = repl.NewBatch(s.In)
	}

	printer := output.NewPrinter(out, errOut, opts.Format)
	if opts.Plugins != "" {
		printer.Warn("Plugins are not supported. The --plugins value %q is ignored.", opts.Plugins)
	}

	execOpts := []shell.ExecutorOption{shell.WithInteractive(interactive)}
	if prompter != nil {
		execOpts = append(execOpts, shell.WithPrompter(prompter))
	}
	if opts.MetricsFile != "" {
		metrics := metric.NewRegistry()
		execOpts = append(execOpts, shell.WithObserver(metrics))
		defer func() {
			if err := metrics.WriteTextfile(opts.MetricsFile); err != nil {
				log.Warn("write metrics", "path", opts.MetricsFile, "error", err)
			}
		}()
	}
	exec := shell.NewExecutor(reg, sess, execOpts...)
	return repl.New(exec, printer, src, repl.WithBatch(!interactive)).Run(ctx)
}
