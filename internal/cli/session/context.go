package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/pradeepp88/indy-cli-go/internal/sdk"
)

// DefaultPrompt is the base prompt text.
const DefaultPrompt = "indy"

// Acceptance records an accepted transaction author agreement.
type Acceptance struct {
	Text    string
	Version string

	// Time is the unix time of acceptance.
	Time int64
}

// Context is the session state.
//
// Methods are safe for concurrent use so that a shutdown hook may release
// handles while the control loop is blocked on input. Openers passed to
// OpenWallet and ConnectPool run under the lock and must not call back into
// the Context.
type Context struct {
	mu sync.Mutex

	wallet sdk.Wallet
	pool   sdk.Pool
	did    string
	prompt string
	txn    string

	acceptance      *Acceptance
	protocolVersion int
	mechanism       func() string
}

// Option configures a Context.
type Option func(*Context)

// WithAcceptanceMechanism sets the source of the configured TAA acceptance
// mechanism. It is read on every use so config reloads take effect.
func WithAcceptanceMechanism(fn func() string) Option {
	return func(c *Context) {
		c.mechanism = fn
	}
}

// WithPrompt sets the base prompt text.
func WithPrompt(prompt string) Option {
	return func(c *Context) {
		c.prompt = prompt
	}
}

// New creates an empty session context.
func New(opts ...Option) *Context {
	c := &Context{
		prompt:          DefaultPrompt,
		protocolVersion: sdk.DefaultProtocolVersion,
		mechanism:       func() string { return "" },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wallet returns the open wallet.
func (c *Context) Wallet() (sdk.Wallet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wallet, c.wallet != nil
}

// WalletName returns the name of the open wallet, or "".
func (c *Context) WalletName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wallet == nil {
		return ""
	}
	return c.wallet.Name()
}

// HasWallet reports whether a wallet is open.
func (c *Context) HasWallet() bool {
	_, ok := c.Wallet()
	return ok
}

// OpenWallet closes the current wallet, then installs the wallet returned
// by open. If open fails the wallet slot stays empty. The active DID is
// cleared in both cases.
func (c *Context) OpenWallet(ctx context.Context, open func(context.Context) (sdk.Wallet, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	closeErr := c.closeWalletLocked()

	w, err := open(ctx)
	if err != nil {
		return errors.Join(err, closeErr)
	}
	c.wallet = w
	return closeErr
}

// CloseWallet releases the open wallet and clears the wallet and DID slots.
// It is a no-op when no wallet is open.
func (c *Context) CloseWallet() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeWalletLocked()
}

func (c *Context) closeWalletLocked() error {
	w := c.wallet
	c.wallet = nil
	c.did = ""
	if w == nil {
		return nil
	}
	return w.Close()
}

// Pool returns the connected pool.
func (c *Context) Pool() (sdk.Pool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pool, c.pool != nil
}

// PoolName returns the name of the connected pool, or "".
func (c *Context) PoolName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool == nil {
		return ""
	}
	return c.pool.Name()
}

// HasPool reports whether a pool is connected.
func (c *Context) HasPool() bool {
	_, ok := c.Pool()
	return ok
}

// ConnectPool disconnects the current pool, then installs the pool
// returned by connect. If connect fails the pool slot stays empty.
func (c *Context) ConnectPool(ctx context.Context, connect func(context.Context) (sdk.Pool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	closeErr := c.disconnectPoolLocked()

	p, err := connect(ctx)
	if err != nil {
		return errors.Join(err, closeErr)
	}
	c.pool = p
	return closeErr
}

// DisconnectPool releases the connected pool and forgets the accepted TAA.
func (c *Context) DisconnectPool() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnectPoolLocked()
}

func (c *Context) disconnectPoolLocked() error {
	p := c.pool
	c.pool = nil
	c.acceptance = nil
	if p == nil {
		return nil
	}
	return p.Close()
}

// DID returns the active DID.
func (c *Context) DID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.did, c.did != ""
}

// HasIdentity reports whether a DID is active.
func (c *Context) HasIdentity() bool {
	_, ok := c.DID()
	return ok
}

// SetDID sets the active DID. An empty value clears it.
func (c *Context) SetDID(did string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.did = did
}

// BasePrompt returns the base prompt text.
func (c *Context) BasePrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt
}

// SetPrompt sets the base prompt text.
func (c *Context) SetPrompt(prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = prompt
}

// Transaction returns the pending transaction JSON.
func (c *Context) Transaction() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txn, c.txn != ""
}

// HasTransaction reports whether a transaction is pending.
func (c *Context) HasTransaction() bool {
	_, ok := c.Transaction()
	return ok
}

// SetTransaction stores the pending transaction. An empty value clears it.
func (c *Context) SetTransaction(txn string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txn = txn
}

// Acceptance returns the accepted TAA, if any.
func (c *Context) Acceptance() (Acceptance, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.acceptance == nil {
		return Acceptance{}, false
	}
	return *c.acceptance, true
}

// SetAcceptance records or, with nil, clears the accepted TAA.
func (c *Context) SetAcceptance(a *Acceptance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a == nil {
		c.acceptance = nil
		return
	}
	cp := *a
	c.acceptance = &cp
}

// AcceptanceMechanism returns the configured TAA acceptance mechanism.
func (c *Context) AcceptanceMechanism() string {
	c.mu.Lock()
	fn := c.mechanism
	c.mu.Unlock()
	return fn()
}

// ProtocolVersion returns the pool protocol version used for new requests.
func (c *Context) ProtocolVersion() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.protocolVersion
}

// SetProtocolVersion sets the pool protocol version.
func (c *Context) SetProtocolVersion(v int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.protocolVersion = v
}

// Prompt renders the prompt from the non-empty slots in fixed order:
// pool, wallet, did, then the base text.
func (c *Context) Prompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var parts []string
	if c.pool != nil {
		parts = append(parts, "pool("+c.pool.Name()+")")
	}
	if c.wallet != nil {
		parts = append(parts, "wallet("+c.wallet.Name()+")")
	}
	if c.did != "" {
		parts = append(parts, "did("+Abbreviate(c.did)+")")
	}
	parts = append(parts, c.prompt)

	return strings.Join(parts, ":") + "> "
}

// Close releases the wallet, then the pool. Each handle is released at most
// once; later calls are no-ops.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Join(c.closeWalletLocked(), c.disconnectPoolLocked())
}

// Abbreviate shortens a DID for display: first and last three characters.
func Abbreviate(did string) string {
	const keep = 3
	if len(did) <= 2*keep+3 {
		return did
	}
	return did[:keep] + "..." + did[len(did)-keep:]
}
