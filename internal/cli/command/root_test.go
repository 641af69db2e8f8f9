package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/pradeepp88/indy-cli-go/internal/cli/config"
	"github.com/pradeepp88/indy-cli-go/internal/cli/output"
	"github.com/pradeepp88/indy-cli-go/internal/cli/repl"
	"github.com/pradeepp88/indy-cli-go/internal/telemetry/logger"
)

func TestApp(t *testing.T) {
	app := App()
	if app == nil {
		t.Fatal("App() returned nil")
	}
	if app.Name != "indy-cli" {
		t.Errorf("Name = %q, want %q", app.Name, "indy-cli")
	}
	if app.Usage == "" {
		t.Error("Usage should not be empty")
	}
	if app.Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	app := App()

	flagNames := make(map[string]bool)
	for _, flag := range app.Flags {
		for _, name := range flag.Names() {
			flagNames[name] = true
		}
	}

	requiredFlags := []string{"config", "logger-config", "plugins", "output", "o", "no-color", "metrics-file"}
	for _, name := range requiredFlags {
		if !flagNames[name] {
			t.Errorf("missing required flag: %s", name)
		}
	}
}

func TestParseOptions(t *testing.T) {
	var got *Options
	app := &cli.App{
		Flags: globalFlags(),
		Action: func(c *cli.Context) error {
			var err error
			got, err = ParseOptions(c)
			return err
		},
	}

	args := []string{
		"test",
		"--config", "/etc/indy/cli.json",
		"--logger-config", "/etc/indy/logger.yaml",
		"-o", "json",
		"--no-color",
		"--metrics-file", "/var/lib/node_exporter/indy_cli.prom",
		"script.txt",
	}
	if err := app.Run(args); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}

	want := Options{
		ConfigPath:   "/etc/indy/cli.json",
		LoggerConfig: "/etc/indy/logger.yaml",
		Format:       output.FormatJSON,
		NoColor:      true,
		MetricsFile:  "/var/lib/node_exporter/indy_cli.prom",
		Script:       "script.txt",
	}
	if *got != want {
		t.Errorf("ParseOptions() = %+v, want %+v", *got, want)
	}
}

func TestParseOptions_Defaults(t *testing.T) {
	app := &cli.App{
		Flags: globalFlags(),
		Action: func(c *cli.Context) error {
			opts, err := ParseOptions(c)
			if err != nil {
				return err
			}
			if opts.Format != output.FormatTable {
				t.Errorf("Format default = %q, want %q", opts.Format, output.FormatTable)
			}
			if opts.Script != "" {
				t.Errorf("Script default = %q", opts.Script)
			}
			return nil
		},
	}
	if err := app.Run([]string{"test"}); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
}

func TestParseOptions_Errors(t *testing.T) {
	tests := [][]string{
		{"test", "a.txt", "b.txt"},
		{"test", "-o", "xml"},
	}
	for _, args := range tests {
		app := &cli.App{
			Flags: globalFlags(),
			Action: func(c *cli.Context) error {
				_, err := ParseOptions(c)
				return err
			},
		}
		if err := app.Run(args); err == nil {
			t.Errorf("app.Run(%v) succeeded", args)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{&repl.AbortError{Line: "about", Err: errors.New("boom")}, ExitAborted},
		{errors.New("bad flag"), ExitUsage},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

// runScript runs a batch script in a fresh client home.
func runScript(t *testing.T, script string, opts *Options) (string, error) {
	t.Helper()
	prev := logger.Default()
	t.Cleanup(func() { logger.SetDefault(prev) })

	dir := t.TempDir()
	t.Setenv(config.HomeEnv, filepath.Join(dir, "home"))

	path := filepath.Join(dir, "script.txt")
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		t.Fatal(err)
	}
	if opts == nil {
		opts = &Options{Format: output.FormatTable}
	}
	opts.Script = path

	var out bytes.Buffer
	err := Run(context.Background(), opts, Streams{Out: &out, Err: &out})
	return out.String(), err
}

func TestRun_Script(t *testing.T) {
	out, err := runScript(t, "# comment\nabout\n\nwallet list\npool list\nexit\nabout-me\n", nil)
	if err != nil {
		t.Fatalf("Run() error = %v\n%s", err, out)
	}
	for _, want := range []string{"Hyperledger Indy CLI", "There are no wallets", "There are no pools defined", "Goodbye..."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_ScriptAborts(t *testing.T) {
	out, err := runScript(t, "wallet open missing key=k\nabout\n", nil)
	var abort *repl.AbortError
	if !errors.As(err, &abort) {
		t.Fatalf("Run() error = %v, want AbortError", err)
	}
	if abort.Line != "wallet open missing key=k" {
		t.Errorf("aborted at %q", abort.Line)
	}
	if ExitCode(err) != ExitAborted {
		t.Errorf("ExitCode() = %d", ExitCode(err))
	}
	if strings.Contains(out, "Hyperledger Indy CLI") {
		t.Errorf("lines after the failure ran:\n%s", out)
	}
}

func TestRun_ScriptIgnoresFailure(t *testing.T) {
	out, err := runScript(t, "-wallet open missing key=k\nabout\n", nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out, "Hyperledger Indy CLI") {
		t.Errorf("about did not run after the ignored failure:\n%s", out)
	}
}

func TestRun_WalletRoundTrip(t *testing.T) {
	script := strings.Join([]string{
		"wallet create w1 key=k1 key_derivation_method=argon2i",
		"wallet open w1 key=k1 key_derivation_method=argon2i",
		"did new seed=" + trusteeSeed,
		"did list",
		"wallet close",
		"",
	}, "\n")
	out, err := runScript(t, script, nil)
	if err != nil {
		t.Fatalf("Run() error = %v\n%s", err, out)
	}
	for _, want := range []string{`Wallet "w1" has been created`, trusteeDID, `Wallet "w1" has been closed`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_PluginsWarning(t *testing.T) {
	out, err := runScript(t, "about\n", &Options{Format: output.FormatTable, Plugins: "libnullpay.so:nullpay_init"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out, "Plugins are not supported") {
		t.Errorf("no plugins warning:\n%s", out)
	}
}

func TestRun_MissingScript(t *testing.T) {
	prev := logger.Default()
	t.Cleanup(func() { logger.SetDefault(prev) })
	t.Setenv(config.HomeEnv, t.TempDir())

	var out bytes.Buffer
	err := Run(context.Background(), &Options{Script: filepath.Join(t.TempDir(), "missing.txt")}, Streams{Out: &out, Err: &out})
	if err == nil {
		t.Fatal("Run() with a missing script succeeded")
	}
	if ExitCode(err) != ExitUsage {
		t.Errorf("ExitCode() = %d, want %d", ExitCode(err), ExitUsage)
	}
}

func TestRun_Stdin(t *testing.T) {
	prev := logger.Default()
	t.Cleanup(func() { logger.SetDefault(prev) })
	dir := t.TempDir()
	t.Setenv(config.HomeEnv, filepath.Join(dir, "home"))

	path := filepath.Join(dir, "stdin.txt")
	if err := os.WriteFile(path, []byte("about\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	in, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	var out bytes.Buffer
	if err := Run(context.Background(), &Options{Format: output.FormatTable}, Streams{In: in, Out: &out, Err: &out}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Hyperledger Indy CLI") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRun_MetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indy_cli.prom")
	if _, err := runScript(t, "about\n-wallet open missing key=k\n", &Options{Format: output.FormatTable, MetricsFile: path}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	for _, want := range []string{
		`indy_cli_commands_total{command="about",outcome="success"} 1`,
		`indy_cli_commands_total{command="wallet open",outcome="failure"} 1`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics missing %q:\n%s", want, data)
		}
	}
}
