package command

import (
	"io"
	"time"

	"github.com/pradeepp88/indy-cli-go/internal/cli/output"
	"github.com/pradeepp88/indy-cli-go/internal/cli/session"
	"github.com/pradeepp88/indy-cli-go/internal/cli/shell"
	"github.com/pradeepp88/indy-cli-go/internal/sdk"
)

// Group names.
const (
	GroupWallet = "wallet"
	GroupPool   = "pool"
	GroupDID    = "did"
	GroupLedger = "ledger"
)

var groups = []shell.GroupSpec{
	{Name: GroupWallet, Help: "Wallet management commands"},
	{Name: GroupPool, Help: "Pool management commands"},
	{Name: GroupDID, Help: "Identity management commands"},
	{Name: GroupLedger, Help: "Ledger management commands"},
}

// Backend holds the capabilities command handlers drive.
type Backend struct {
	Wallets sdk.Wallets
	Pools   sdk.Pools

	// Now is the clock used for TAA acceptance. Nil means time.Now.
	Now func() time.Time

	// Progress receives a spinner while pool operations run. Nil disables it.
	Progress io.Writer
}

func (b *Backend) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

// spin starts a spinner and returns its stop function.
func (b *Backend) spin(msg string) func() {
	if b.Progress == nil {
		return func() {}
	}
	s := output.NewSpinner(b.Progress, msg)
	s.Start()
	return s.Stop
}

// NewRegistry builds the complete command catalog.
func NewRegistry(b *Backend) (*shell.Registry, error) {
	r := shell.NewRegistry()
	for _, g := range groups {
		if err := r.AddGroup(g); err != nil {
			return nil, err
		}
	}

	catalogs := [][]shell.CommandSpec{
		commonCommands(),
		walletCommands(b),
		poolCommands(b),
		didCommands(b),
		ledgerCommands(),
	}
	for _, specs := range catalogs {
		for _, spec := range specs {
			if err := r.Register(spec); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// NewExecutor builds the catalog and an executor over sess.
func NewExecutor(b *Backend, sess *session.Context, opts ...shell.ExecutorOption) (*shell.Executor, error) {
	reg, err := NewRegistry(b)
	if err != nil {
		return nil, err
	}
	return shell.NewExecutor(reg, sess, opts...), nil
}
