package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pradeepp88/indy-cli-go/internal/cli/output"
	"github.com/pradeepp88/indy-cli-go/internal/cli/session"
	"github.com/pradeepp88/indy-cli-go/internal/sdk"
	"github.com/pradeepp88/indy-cli-go/internal/telemetry/logger"
)

type fakeWallet struct {
	sdk.Wallet
	name string
}

func (w *fakeWallet) Name() string { return w.name }
func (w *fakeWallet) Close() error { return nil }

type scriptedPrompter struct {
	secrets []string
	asked   []string
}

func (p *scriptedPrompter) ReadSecret(prompt string) (string, error) {
	p.asked = append(p.asked, prompt)
	if len(p.secrets) == 0 {
		return "", errors.New("no input")
	}
	v := p.secrets[0]
	p.secrets = p.secrets[1:]
	return v, nil
}

func (p *scriptedPrompter) Confirm(string) (bool, error) { return true, nil }

type recorder struct {
	calls []*Invocation
}

func (r *recorder) handler(ctx context.Context, inv *Invocation) (*output.Result, error) {
	r.calls = append(r.calls, inv)
	return output.Successf("ok"), nil
}

func executorFixture(t *testing.T, opts ...ExecutorOption) (*Executor, *recorder) {
	t.Helper()
	rec := &recorder{}
	r := NewRegistry()
	for _, g := range []string{"wallet", "did", "ledger"} {
		if err := r.AddGroup(GroupSpec{Name: g, Help: g + " commands"}); err != nil {
			t.Fatal(err)
		}
	}

	open := *openSpec()
	open.Run = rec.handler
	r.MustRegister(
		open,
		CommandSpec{Name: "about", Help: "Show about information", Run: rec.handler},
		CommandSpec{Name: "prompt", Help: "Change prompt", Params: []ParamSpec{Main("prompt", "New prompt")}, Run: rec.handler},
		CommandSpec{Group: "wallet", Name: "close", Help: "Close wallet", Requires: NeedWallet, Run: rec.handler},
		CommandSpec{Group: "did", Name: "rotate-key", Help: "Rotate keys", Requires: NeedWallet | NeedIdentity | NeedPool, Run: rec.handler},
		CommandSpec{
			Group: "ledger",
			Name:  "nym",
			Help:  "Send NYM transaction",
			Params: []ParamSpec{
				Required("did", "DID of new identity"),
				Optional("sign", "Sign the request").Of(ShapeBool).WithDefault("true"),
				Optional("send", "Send the request").Of(ShapeBool).WithDefault("true"),
			},
			Requires: NeedWallet,
			When: func(p *Params) Requirement {
				var req Requirement
				if p.Bool("sign") {
					req |= NeedIdentity
				}
				if p.Bool("send") {
					req |= NeedPool
				}
				return req
			},
			Run: rec.handler,
		},
		CommandSpec{Group: "ledger", Name: "sign-multi", Help: "Multi sign", Requires: NeedTransaction, Run: rec.handler},
		CommandSpec{
			Group: "ledger",
			Name:  "fail",
			Help:  "Always fails",
			Run: func(context.Context, *Invocation) (*output.Result, error) {
				return nil, errors.New("Pool ledger timeout")
			},
		},
	)
	return NewExecutor(r, session.New(), opts...), rec
}

func run(t *testing.T, e *Executor, raw string) (*output.Result, error) {
	t.Helper()
	return e.Execute(context.Background(), mustParse(t, raw))
}

func render(t *testing.T, res *output.Result) string {
	t.Helper()
	var buf bytes.Buffer
	if err := output.NewPrinter(&buf, nil, output.FormatTable).Print(res); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	return buf.String()
}

func TestExecute_Dispatch(t *testing.T) {
	e, rec := executorFixture(t)

	if _, err := run(t, e, "wallet open alice key=k"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("handler calls = %d, want 1", len(rec.calls))
	}
	inv := rec.calls[0]
	if inv.Spec.Path() != "wallet open" {
		t.Errorf("Spec = %s", inv.Spec.Path())
	}
	if inv.Params.String("name") != "alice" || inv.Params.String("key") != "k" {
		t.Errorf("Params = %v", inv.Bindings)
	}
	if inv.Session != e.Session() {
		t.Error("handler did not receive the executor session")
	}
}

func TestExecute_TopLevel(t *testing.T) {
	e, rec := executorFixture(t)

	if _, err := run(t, e, "prompt my-indy"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := rec.calls[0].Params.String("prompt"); got != "my-indy" {
		t.Errorf("prompt = %q", got)
	}
}

func TestExecute_ResolveErrors(t *testing.T) {
	e, rec := executorFixture(t)

	tests := []struct {
		raw  string
		want error
		hint string
	}{
		{"walet open alice key=k", ErrUnknownGroup, "wallet"},
		{"abut", ErrUnknownCommand, "about"},
		{"wallet opn alice", ErrUnknownCommand, "open"},
		{"wallet name=alice", ErrUnknownCommand, ""},
		{"-wallet create test", ErrUnknownCommand, ""},
		{"wallet open alice key=k bogus=1", ErrUnknownParameter, ""},
		{"wallet open alice", ErrMissingRequiredParam, ""},
		{"ledger nym did=Th7M sign=maybe", ErrInvalidParamValue, ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := run(t, e, tt.raw)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Execute(%q) error = %v, want %v", tt.raw, err, tt.want)
			}
			if tt.hint != "" && !strings.Contains(err.Error(), "Did you mean: "+tt.hint) {
				t.Errorf("error %q has no suggestion %q", err.Error(), tt.hint)
			}
		})
	}
	if len(rec.calls) != 0 {
		t.Errorf("handler called %d times for invalid lines", len(rec.calls))
	}
}

func TestExecute_DashIsStrippedInBothModes(t *testing.T) {
	e, rec := executorFixture(t, WithInteractive(true))

	if _, err := run(t, e, "-about"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !rec.calls[0].IgnoreResult {
		t.Error("IgnoreResult not carried to the invocation")
	}
}

func TestExecute_Preconditions(t *testing.T) {
	e, rec := executorFixture(t)

	tests := []struct {
		raw  string
		want error
	}{
		{"wallet close", ErrNoOpenWallet},
		{"ledger nym did=Th7M", ErrNoOpenWallet},
		{"did rotate-key", ErrNoOpenWallet},
		{"ledger sign-multi", ErrNoStoredTransaction},
	}
	for _, tt := range tests {
		if _, err := run(t, e, tt.raw); !errors.Is(err, tt.want) {
			t.Errorf("Execute(%q) error = %v, want %v", tt.raw, err, tt.want)
		}
	}

	ctx := context.Background()
	if err := e.Session().OpenWallet(ctx, func(context.Context) (sdk.Wallet, error) {
		return &fakeWallet{name: "alice"}, nil
	}); err != nil {
		t.Fatalf("OpenWallet() error = %v", err)
	}

	if _, err := run(t, e, "ledger nym did=Th7M"); !errors.Is(err, ErrNoActiveIdentity) {
		t.Errorf("sign=true without did error = %v, want NoActiveIdentity", err)
	}
	e.Session().SetDID("Th7MpTaRZVRYnPiabds81Y")
	if _, err := run(t, e, "ledger nym did=Th7M"); !errors.Is(err, ErrNoPoolConnection) {
		t.Errorf("send=true without pool error = %v, want NoPoolConnection", err)
	}
	if _, err := run(t, e, "ledger nym did=Th7M send=false"); err != nil {
		t.Errorf("send=false error = %v", err)
	}
	if _, err := run(t, e, "wallet close"); err != nil {
		t.Errorf("wallet close error = %v", err)
	}
	if len(rec.calls) != 2 {
		t.Errorf("handler calls = %d, want 2", len(rec.calls))
	}
}

func TestExecute_ExecutionError(t *testing.T) {
	e, _ := executorFixture(t)

	_, err := run(t, e, "ledger fail")
	if !errors.Is(err, ErrExecution) {
		t.Fatalf("error = %v, want ExecutionError", err)
	}
	if err.Error() != "Pool ledger timeout" {
		t.Errorf("cause was rewritten: %q", err.Error())
	}
}

type observation struct {
	command string
	failed  bool
}

type observations []observation

func (o *observations) ObserveCommand(command string, _ time.Duration, err error) {
	*o = append(*o, observation{command: command, failed: err != nil})
}

func TestExecute_Observer(t *testing.T) {
	var obs observations
	e, _ := executorFixture(t, WithObserver(&obs))

	_, _ = run(t, e, "about")
	_, _ = run(t, e, "ledger fail")
	_, _ = run(t, e, "wallet close")

	want := observations{{"about", false}, {"ledger fail", true}}
	if len(obs) != len(want) {
		t.Fatalf("observations = %v, want %v", obs, want)
	}
	for i := range want {
		if obs[i] != want[i] {
			t.Errorf("observation %d = %v, want %v", i, obs[i], want[i])
		}
	}
}

func TestExecute_LogRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(logger.Config{Level: "debug", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("logger.New() error = %v", err)
	}
	e, _ := executorFixture(t, WithLogger(log))

	if _, err := run(t, e, "wallet open alice key=hunter2"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Errorf("log leaks key: %s", out)
	}
	for _, want := range []string{"command executed", "wallet open", "alice", "command_id"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}

func TestExecute_Deferred(t *testing.T) {
	p := &scriptedPrompter{secrets: []string{"typed-key"}}
	e, rec := executorFixture(t, WithPrompter(p))

	if _, err := run(t, e, "wallet open alice key"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := rec.calls[0].Params.String("key"); got != "typed-key" {
		t.Errorf("key = %q, want typed-key", got)
	}
	if len(p.asked) != 1 || !strings.Contains(p.asked[0], "key") {
		t.Errorf("prompts = %v", p.asked)
	}
}

func TestExecute_DeferredWithoutPrompter(t *testing.T) {
	e, rec := executorFixture(t)

	_, err := run(t, e, "wallet open alice key")
	if !errors.Is(err, ErrExecution) {
		t.Fatalf("error = %v, want ExecutionError", err)
	}
	if len(rec.calls) != 0 {
		t.Error("handler called without the deferred value")
	}
}

func TestExecute_Help(t *testing.T) {
	e, rec := executorFixture(t)

	tests := []struct {
		raw  string
		want []string
	}{
		{"help", []string{"Groups:", "wallet", "ledger", "about"}},
		{"wallet", []string{"open", "close", "Close wallet", "wallet <command>"}},
		{"wallet help", []string{"open", "close"}},
		{"help wallet", []string{"open", "close"}},
		{"wallet open help", []string{"wallet open <name-value> key=<key-value>", "Identifier of the wallet"}},
		{"help wallet open", []string{"wallet open <name-value>"}},
		{"help about", []string{"Show about information"}},
		{"prompt help", []string{"prompt <prompt-value>"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			res, err := run(t, e, tt.raw)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			out := render(t, res)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("help output missing %q:\n%s", w, out)
				}
			}
		})
	}
	if len(rec.calls) != 0 {
		t.Errorf("help invoked %d handlers", len(rec.calls))
	}
}

func TestExecute_HelpUnknownGroup(t *testing.T) {
	e, _ := executorFixture(t)

	if _, err := run(t, e, "help walet"); !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("help walet error = %v, want UnknownGroup", err)
	}
	if _, err := run(t, e, "help wallet opn"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("help wallet opn error = %v, want UnknownCommand", err)
	}
}
