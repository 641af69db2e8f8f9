package command

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pradeepp88/indy-cli-go/internal/cli/output"
	"github.com/pradeepp88/indy-cli-go/internal/cli/session"
	"github.com/pradeepp88/indy-cli-go/internal/cli/shell"
	"github.com/pradeepp88/indy-cli-go/internal/sdk"
	"github.com/pradeepp88/indy-cli-go/internal/sdk/ledger"
)

const protocolVersionHelp = "Pool protocol version that will be used for requests: 1 or 2 (default)"

func poolCommands(b *Backend) []shell.CommandSpec {
	return []shell.CommandSpec{
		{
			Group: GroupPool,
			Name:  "create",
			Help:  "Create new pool ledger config with specified name",
			Params: []shell.ParamSpec{
				shell.Main("name", "The name of new pool ledger config"),
				shell.Required("gen_txn_file", "Path to file with genesis transactions"),
			},
			Examples: []string{"pool create sandbox gen_txn_file=/etc/indy/sandbox.txn"},
			Run:      b.poolCreate,
		},
		{
			Group: GroupPool,
			Name:  "connect",
			Help:  "Connect to pool with specified name. Also disconnect from previously connected.",
			Params: []shell.ParamSpec{
				shell.Main("name", "The name of pool"),
				shell.Optional("protocol-version", protocolVersionHelp).Of(shell.ShapeInt),
				shell.Optional("timeout", "Timeout for network request (in sec)").Of(shell.ShapeInt),
				shell.Optional("extended-timeout", "Extended timeout for network request (in sec)").Of(shell.ShapeInt),
				shell.Optional("pre-ordered-nodes", "Names of nodes which will have a priority during request sending").Of(shell.ShapeList),
				shell.Optional("number-read-nodes", "The number of nodes to send read requests (2 by default)").Of(shell.ShapeInt),
			},
			Examples: []string{
				"pool connect sandbox",
				"pool connect sandbox protocol-version=2 timeout=100 pre-ordered-nodes=Node2,Node1",
			},
			Run: b.poolConnect,
		},
		{
			Group:    GroupPool,
			Name:     "refresh",
			Help:     "Refresh a local copy of a pool ledger and updates pool nodes connections",
			Requires: shell.NeedPool,
			Run:      b.poolRefresh,
		},
		{
			Group:    GroupPool,
			Name:     "set-protocol-version",
			Help:     "Set protocol version that will be used for ledger requests",
			Params:   []shell.ParamSpec{shell.Main("protocol-version", protocolVersionHelp).Of(shell.ShapeInt)},
			Examples: []string{"pool set-protocol-version 2"},
			Run:      setProtocolVersion,
		},
		{
			Group:    GroupPool,
			Name:     "disconnect",
			Help:     "Disconnect from current pool",
			Requires: shell.NeedPool,
			Run:      poolDisconnect,
		},
		{
			Group: GroupPool,
			Name:  "list",
			Help:  "List existing pool configs",
			Run:   b.poolList,
		},
		{
			Group:    GroupPool,
			Name:     "delete",
			Help:     "Delete pool config with specified name",
			Params:   []shell.ParamSpec{shell.Main("name", "The name of deleted pool config")},
			Examples: []string{"pool delete sandbox"},
			Run:      b.poolDelete,
		},
		{
			Group:    GroupPool,
			Name:     "show-taa",
			Help:     "Show transaction author agreement set on Ledger",
			Requires: shell.NeedPool,
			Params: []shell.ParamSpec{
				shell.Optional("accept", "Accept the agreement without asking").Of(shell.ShapeBool),
			},
			Run: b.poolShowTAA,
		},
	}
}

func (b *Backend) poolCreate(_ context.Context, inv *shell.Invocation) (*output.Result, error) {
	name := inv.Params.String("name")
	if err := b.Pools.Create(name, inv.Params.String("gen_txn_file")); err != nil {
		return nil, err
	}
	return output.Successf("Pool config %q has been created", name), nil
}

func checkProtocolVersion(v int64) error {
	if v != 1 && v != 2 {
		return shell.Failf("Unexpected Pool protocol version \"%d\".", v)
	}
	return nil
}

func poolOptions(p *shell.Params, sess *session.Context) (sdk.PoolOptions, error) {
	opts := sdk.PoolOptions{
		ProtocolVersion: sess.ProtocolVersion(),
		PreorderedNodes: p.List("pre-ordered-nodes"),
	}
	if v, ok := p.Int("protocol-version"); ok {
		if err := checkProtocolVersion(v); err != nil {
			return opts, err
		}
		opts.ProtocolVersion = int(v)
	}
	if v, ok := p.Int("timeout"); ok {
		opts.Timeout = time.Duration(v) * time.Second
	}
	if v, ok := p.Int("extended-timeout"); ok {
		opts.ExtendedTimeout = time.Duration(v) * time.Second
	}
	if v, ok := p.Int("number-read-nodes"); ok {
		opts.NumberReadNodes = int(v)
	}
	return opts, nil
}

func (b *Backend) poolConnect(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	name := inv.Params.String("name")
	opts, err := poolOptions(inv.Params, inv.Session)
	if err != nil {
		return nil, err
	}

	stop := b.spin(fmt.Sprintf("Connecting to pool %q", name))
	err = inv.Session.ConnectPool(ctx, func(ctx context.Context) (sdk.Pool, error) {
		return b.Pools.Open(ctx, name, opts)
	})
	if err != nil {
		stop()
		return nil, err
	}
	inv.Session.SetProtocolVersion(opts.ProtocolVersion)

	pool, _ := inv.Session.Pool()
	agreement, taaErr := fetchAgreement(ctx, pool, opts.ProtocolVersion)
	stop()

	res := output.Successf("Pool %q has been connected", name)
	switch {
	case taaErr != nil:
		res.Warn("Cannot read the Transaction Author Agreement: %v", taaErr)
	case agreement != nil:
		if !inv.Interactive {
			res.Text("There is a Transaction Author Agreement set on the connected Pool.\n" +
				"You should read and accept it to be able to send transactions to the Pool.\n" +
				"Accept it by calling `pool show-taa` command.")
			break
		}
		if err := b.reviewAgreement(inv, agreement, false, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (b *Backend) poolRefresh(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	pool, _ := inv.Session.Pool()

	stop := b.spin(fmt.Sprintf("Refreshing pool %q", pool.Name()))
	err := pool.Refresh(ctx)
	stop()
	if err != nil {
		return nil, err
	}
	return output.Successf("Pool %q has been refreshed", pool.Name()), nil
}

func setProtocolVersion(_ context.Context, inv *shell.Invocation) (*output.Result, error) {
	v, _ := inv.Params.Int("protocol-version")
	if err := checkProtocolVersion(v); err != nil {
		return nil, err
	}
	inv.Session.SetProtocolVersion(int(v))
	return output.Successf("Protocol Version has been set: \"%d\".", v), nil
}

func poolDisconnect(_ context.Context, inv *shell.Invocation) (*output.Result, error) {
	name := inv.Session.PoolName()
	if err := inv.Session.DisconnectPool(); err != nil {
		return nil, err
	}
	return output.Successf("Pool %q has been disconnected", name), nil
}

func (b *Backend) poolList(_ context.Context, inv *shell.Invocation) (*output.Result, error) {
	pools, err := b.Pools.List()
	if err != nil {
		return nil, err
	}
	if len(pools) == 0 {
		return output.NewResult().Text("There are no pools defined"), nil
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].Name < pools[j].Name })

	connected := inv.Session.PoolName()
	t := output.NewTable("Pool", "Active")
	for _, p := range pools {
		t.AddRow(p.Name, activeMark(p.Name == connected))
	}

	res := output.NewResult().Table(t)
	if connected != "" {
		res.Success("Current pool %q", connected)
	}
	return res, nil
}

func (b *Backend) poolDelete(_ context.Context, inv *shell.Invocation) (*output.Result, error) {
	name := inv.Params.String("name")
	if inv.Session.PoolName() == name {
		return nil, shell.Failf("Pool %q is connected. Disconnect it before deleting", name)
	}
	if err := b.Pools.Delete(name); err != nil {
		return nil, err
	}
	return output.Successf("Pool %q has been deleted.", name), nil
}

func (b *Backend) poolShowTAA(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	pool, _ := inv.Session.Pool()
	agreement, err := fetchAgreement(ctx, pool, inv.Session.ProtocolVersion())
	if err != nil {
		return nil, err
	}
	if agreement == nil {
		return output.NewResult().Text("There is no transaction agreement set on the Pool."), nil
	}

	res := output.NewResult().
		Title("Transaction Author Agreement").
		Text(agreementText(agreement))

	accept, explicit := inv.Params.Bool("accept"), inv.Params.Has("accept")
	if explicit && !accept {
		return res, nil
	}
	if err := b.reviewAgreement(inv, agreement, accept, res); err != nil {
		return nil, err
	}
	return res, nil
}

// fetchAgreement reads the active agreement. It returns nil when the
// ledger has none.
func fetchAgreement(ctx context.Context, pool sdk.Pool, protocolVersion int) (*ledger.Agreement, error) {
	req := ledger.NewBuilder(protocolVersion).GetTxnAuthorAgreement("", "", "", nil)
	reply, err := submit(ctx, pool, req)
	if err != nil {
		return nil, err
	}
	if err := reply.Err(); err != nil {
		return nil, err
	}
	return ledger.ParseAgreement(reply.Result)
}

func agreementText(a *ledger.Agreement) string {
	s := fmt.Sprintf("Version: %q\n", a.Version)
	if a.Digest != "" {
		s += fmt.Sprintf("Digest: %q\n", a.Digest)
	}
	return s + "Content:\n" + a.Text
}

// reviewAgreement stores the acceptance of a in the session. Unless
// accept is set, an interactive operator is asked first.
func (b *Backend) reviewAgreement(inv *shell.Invocation, a *ledger.Agreement, accept bool, res *output.Result) error {
	if !accept && inv.Interactive && inv.Prompter != nil {
		ok, err := inv.Prompter.Confirm("Transaction Author Agreement\n" + agreementText(a) + "\nWould you like to accept it?")
		if err != nil {
			return err
		}
		accept = ok
	}
	if !accept {
		res.Warn("The Transaction Author Agreement has NOT been Accepted.").
			Text("Use `pool show-taa` command to accept the Agreement.")
		return nil
	}

	inv.Session.SetAcceptance(&session.Acceptance{
		Text:    a.Text,
		Version: a.Version,
		Time:    b.now().Unix(),
	})
	res.Success("Transaction Author Agreement has been accepted.")
	return nil
}
