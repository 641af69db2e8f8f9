package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pradeepp88/indy-cli-go/internal/sdk"
)

type fakeWallet struct {
	sdk.Wallet
	name   string
	closed int
	err    error
}

func (w *fakeWallet) Name() string { return w.name }
func (w *fakeWallet) Close() error {
	w.closed++
	return w.err
}

type fakePool struct {
	name   string
	closed int
}

func (p *fakePool) Name() string { return p.name }
func (p *fakePool) Close() error {
	p.closed++
	return nil
}
func (p *fakePool) Refresh(ctx context.Context) error { return nil }
func (p *fakePool) Submit(ctx context.Context, req []byte) ([]byte, error) {
	return nil, nil
}
func (p *fakePool) SubmitAction(ctx context.Context, req []byte, nodes []string, timeout time.Duration) (map[string]json.RawMessage, error) {
	return nil, nil
}

func openWith(w sdk.Wallet, err error) func(context.Context) (sdk.Wallet, error) {
	return func(context.Context) (sdk.Wallet, error) { return w, err }
}

func connectWith(p sdk.Pool) func(context.Context) (sdk.Pool, error) {
	return func(context.Context) (sdk.Pool, error) { return p, nil }
}

func TestNew_Defaults(t *testing.T) {
	c := New()

	if c.HasWallet() || c.HasPool() || c.HasIdentity() || c.HasTransaction() {
		t.Error("New() context should have no slots set")
	}
	if c.ProtocolVersion() != sdk.DefaultProtocolVersion {
		t.Errorf("ProtocolVersion() = %d, want %d", c.ProtocolVersion(), sdk.DefaultProtocolVersion)
	}
	if c.Prompt() != "indy> " {
		t.Errorf("Prompt() = %q, want %q", c.Prompt(), "indy> ")
	}
	if c.AcceptanceMechanism() != "" {
		t.Errorf("AcceptanceMechanism() = %q, want empty", c.AcceptanceMechanism())
	}
}

func TestOpenWallet_ReleasesPrevious(t *testing.T) {
	ctx := context.Background()
	c := New()
	a := &fakeWallet{name: "A"}
	b := &fakeWallet{name: "B"}

	if err := c.OpenWallet(ctx, openWith(a, nil)); err != nil {
		t.Fatalf("OpenWallet(A) error = %v", err)
	}
	c.SetDID("V4SGRU86Z58d6TV7PBUe6f")

	var closedBeforeOpen int
	open := func(context.Context) (sdk.Wallet, error) {
		closedBeforeOpen = a.closed
		return b, nil
	}
	if err := c.OpenWallet(ctx, open); err != nil {
		t.Fatalf("OpenWallet(B) error = %v", err)
	}

	if closedBeforeOpen != 1 {
		t.Errorf("A should be released before B is opened, closed = %d", closedBeforeOpen)
	}
	if a.closed != 1 {
		t.Errorf("A closed %d times, want 1", a.closed)
	}
	if got, _ := c.Wallet(); got != b {
		t.Error("wallet slot should hold B")
	}
	if c.HasIdentity() {
		t.Error("opening a wallet should clear the active DID")
	}
}

func TestOpenWallet_FailureLeavesSlotEmpty(t *testing.T) {
	ctx := context.Background()
	c := New()
	a := &fakeWallet{name: "A"}
	_ = c.OpenWallet(ctx, openWith(a, nil))

	err := c.OpenWallet(ctx, openWith(nil, sdk.ErrInvalidWalletKey))
	if !errors.Is(err, sdk.ErrInvalidWalletKey) {
		t.Fatalf("OpenWallet() error = %v, want ErrInvalidWalletKey", err)
	}
	if c.HasWallet() {
		t.Error("failed open should not install a wallet")
	}
	if a.closed != 1 {
		t.Errorf("A closed %d times, want 1", a.closed)
	}
}

func TestCloseWallet(t *testing.T) {
	ctx := context.Background()
	c := New()
	w := &fakeWallet{name: "alice"}
	_ = c.OpenWallet(ctx, openWith(w, nil))
	c.SetDID("V4SGRU86Z58d6TV7PBUe6f")

	if err := c.CloseWallet(); err != nil {
		t.Fatalf("CloseWallet() error = %v", err)
	}
	if err := c.CloseWallet(); err != nil {
		t.Fatalf("second CloseWallet() error = %v", err)
	}
	if w.closed != 1 {
		t.Errorf("wallet closed %d times, want 1", w.closed)
	}
	if c.HasIdentity() || c.WalletName() != "" {
		t.Error("CloseWallet() should clear the wallet and DID slots")
	}
}

func TestConnectPool_ReleasesPrevious(t *testing.T) {
	ctx := context.Background()
	c := New()
	p1 := &fakePool{name: "sandbox"}
	p2 := &fakePool{name: "staging"}

	_ = c.ConnectPool(ctx, connectWith(p1))
	c.SetAcceptance(&Acceptance{Text: "t", Version: "1", Time: 1})
	if err := c.ConnectPool(ctx, connectWith(p2)); err != nil {
		t.Fatalf("ConnectPool() error = %v", err)
	}

	if p1.closed != 1 {
		t.Errorf("first pool closed %d times, want 1", p1.closed)
	}
	if c.PoolName() != "staging" {
		t.Errorf("PoolName() = %q, want staging", c.PoolName())
	}
	if _, ok := c.Acceptance(); ok {
		t.Error("switching pools should forget the accepted TAA")
	}
}

func TestDisconnectPool(t *testing.T) {
	c := New()
	p := &fakePool{name: "sandbox"}
	_ = c.ConnectPool(context.Background(), connectWith(p))

	if err := c.DisconnectPool(); err != nil {
		t.Fatalf("DisconnectPool() error = %v", err)
	}
	if c.HasPool() || p.closed != 1 {
		t.Errorf("DisconnectPool() left pool=%v closed=%d", c.HasPool(), p.closed)
	}
}

func TestPrompt(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		pool   string
		wallet string
		did    string
		base   string
		want   string
	}{
		{"base only", "", "", "", "", "indy> "},
		{"pool", "sandbox", "", "", "", "pool(sandbox):indy> "},
		{"wallet", "", "alice", "", "", "wallet(alice):indy> "},
		{"all slots", "sandbox", "alice", "Av6KNjX7Vr6xN6d5Bn8Cfs", "", "pool(sandbox):wallet(alice):did(Av6...Cfs):indy> "},
		{"custom base", "sandbox", "alice", "Av6KNjX7Vr6xN6d5Bn8Cfs", "prompt", "pool(sandbox):wallet(alice):did(Av6...Cfs):prompt> "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			if tt.pool != "" {
				_ = c.ConnectPool(ctx, connectWith(&fakePool{name: tt.pool}))
			}
			if tt.wallet != "" {
				_ = c.OpenWallet(ctx, openWith(&fakeWallet{name: tt.wallet}, nil))
			}
			c.SetDID(tt.did)
			if tt.base != "" {
				c.SetPrompt(tt.base)
			}

			if got := c.Prompt(); got != tt.want {
				t.Errorf("Prompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAbbreviate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"V4SGRU86Z58d6TV7PBUe6f", "V4S...e6f"},
		{"short", "short"},
		{"123456789", "123456789"},
		{"1234567890", "123...890"},
	}
	for _, tt := range tests {
		if got := Abbreviate(tt.in); got != tt.want {
			t.Errorf("Abbreviate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTransactionSlot(t *testing.T) {
	c := New()
	c.SetTransaction(`{"reqId":1}`)

	txn, ok := c.Transaction()
	if !ok || txn != `{"reqId":1}` {
		t.Errorf("Transaction() = %q, %v", txn, ok)
	}

	c.SetTransaction("")
	if c.HasTransaction() {
		t.Error("SetTransaction(\"\") should clear the slot")
	}
}

func TestAcceptanceMechanism_ReadsLive(t *testing.T) {
	value := "on_file"
	c := New(WithAcceptanceMechanism(func() string { return value }))

	if c.AcceptanceMechanism() != "on_file" {
		t.Fatalf("AcceptanceMechanism() = %q", c.AcceptanceMechanism())
	}
	value = "click_agreement"
	if c.AcceptanceMechanism() != "click_agreement" {
		t.Errorf("AcceptanceMechanism() should follow the source, got %q", c.AcceptanceMechanism())
	}
}

func TestClose_ReleasesAllOnce(t *testing.T) {
	ctx := context.Background()
	c := New(WithPrompt("test"))
	w := &fakeWallet{name: "alice", err: errors.New("flush failed")}
	p := &fakePool{name: "sandbox"}
	_ = c.ConnectPool(ctx, connectWith(p))
	_ = c.OpenWallet(ctx, openWith(w, nil))

	err := c.Close()
	if err == nil || !strings.Contains(err.Error(), "flush failed") {
		t.Errorf("Close() error = %v, want wallet close error", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if w.closed != 1 || p.closed != 1 {
		t.Errorf("closed wallet=%d pool=%d, want 1 and 1", w.closed, p.closed)
	}
	if c.BasePrompt() != "test" {
		t.Errorf("BasePrompt() = %q, want test", c.BasePrompt())
	}
}
