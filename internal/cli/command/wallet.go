package command

import (
	"context"
	"sort"

	"github.com/pradeepp88/indy-cli-go/internal/cli/output"
	"github.com/pradeepp88/indy-cli-go/internal/cli/shell"
	"github.com/pradeepp88/indy-cli-go/internal/sdk"
)

const (
	keyHelp        = "Key or passphrase used for wallet key derivation. Type the bare word key to enter it without echo."
	derivationHelp = "Algorithm to use for wallet key derivation: argon2m (default), argon2i or raw"
)

func walletCommands(b *Backend) []shell.CommandSpec {
	return []shell.CommandSpec{
		{
			Group: GroupWallet,
			Name:  "create",
			Help:  "Create new wallet and attach to Indy CLI",
			Params: []shell.ParamSpec{
				shell.Main("name", "Identifier of the wallet"),
				shell.Required("key", keyHelp).Secret(),
				shell.Optional("key_derivation_method", derivationHelp),
				shell.Optional("storage_type", "Type of the wallet storage"),
				shell.Optional("storage_config", "The list of key:value pairs defined by storage type").Of(shell.ShapeJSON),
				shell.Optional("storage_credentials", "The list of key:value pairs defined by storage type").Of(shell.ShapeJSON),
			},
			Examples: []string{
				"wallet create wallet1 key",
				"wallet create wallet1 key storage_config={\"path\":\"/tmp/wallets\"}",
			},
			Run: b.walletCreate,
		},
		{
			Group: GroupWallet,
			Name:  "attach",
			Help:  "Attach existing wallet to Indy CLI",
			Params: []shell.ParamSpec{
				shell.Main("name", "Identifier of the wallet"),
				shell.Optional("storage_type", "Type of the wallet storage"),
				shell.Optional("storage_config", "The list of key:value pairs defined by storage type").Of(shell.ShapeJSON),
			},
			Examples: []string{"wallet attach wallet1 storage_config={\"path\":\"/tmp/wallets\"}"},
			Run:      b.walletAttach,
		},
		{
			Group: GroupWallet,
			Name:  "open",
			Help:  "Open wallet with specified name. Also close previously opened.",
			Params: []shell.ParamSpec{
				shell.Main("name", "Identifier of the wallet"),
				shell.Required("key", keyHelp).Secret(),
				shell.Optional("key_derivation_method", derivationHelp),
				shell.Optional("rekey", "New key or passphrase used for wallet key derivation").Secret(),
				shell.Optional("rekey_derivation_method", derivationHelp),
				shell.Optional("storage_credentials", "The list of key:value pairs defined by storage type").Of(shell.ShapeJSON),
			},
			Examples: []string{
				"wallet open wallet1 key",
				"wallet open wallet1 key rekey",
			},
			Run: b.walletOpen,
		},
		{
			Group:    GroupWallet,
			Name:     "close",
			Help:     "Close opened wallet",
			Requires: shell.NeedWallet,
			Run:      walletClose,
		},
		{
			Group: GroupWallet,
			Name:  "delete",
			Help:  "Delete wallet with specified name",
			Params: []shell.ParamSpec{
				shell.Main("name", "Identifier of the wallet"),
				shell.Required("key", keyHelp).Secret(),
				shell.Optional("key_derivation_method", derivationHelp),
				shell.Optional("storage_credentials", "The list of key:value pairs defined by storage type").Of(shell.ShapeJSON),
			},
			Examples: []string{"wallet delete wallet1 key"},
			Run:      b.walletDelete,
		},
		{
			Group:    GroupWallet,
			Name:     "detach",
			Help:     "Detach wallet with specified name",
			Params:   []shell.ParamSpec{shell.Main("name", "Identifier of the wallet")},
			Examples: []string{"wallet detach wallet1"},
			Run:      b.walletDetach,
		},
		{
			Group: GroupWallet,
			Name:  "list",
			Help:  "List attached wallets",
			Run:   b.walletList,
		},
		{
			Group:    GroupWallet,
			Name:     "export",
			Help:     "Export opened wallet to the file",
			Requires: shell.NeedWallet,
			Params: []shell.ParamSpec{
				shell.Required("export_path", "Path to the export file"),
				shell.Required("export_key", "Key used for export of the wallet").Secret(),
				shell.Optional("export_key_derivation_method", derivationHelp),
			},
			Examples: []string{"wallet export export_path=/home/indy/export_wallet export_key"},
			Run:      walletExport,
		},
		{
			Group: GroupWallet,
			Name:  "import",
			Help:  "Create new wallet, attach to Indy CLI and then import content from the specified file",
			Params: []shell.ParamSpec{
				shell.Main("name", "Identifier of the wallet"),
				shell.Required("key", keyHelp).Secret(),
				shell.Optional("key_derivation_method", derivationHelp),
				shell.Required("export_path", "Path to the export file"),
				shell.Required("export_key", "Key used for export of the wallet").Secret(),
				shell.Optional("storage_type", "Type of the wallet storage"),
				shell.Optional("storage_config", "The list of key:value pairs defined by storage type").Of(shell.ShapeJSON),
			},
			Examples: []string{"wallet import wallet1 key export_path=/home/indy/export_wallet export_key"},
			Run:      b.walletImport,
		},
	}
}

func walletConfig(p *shell.Params) sdk.WalletConfig {
	return sdk.WalletConfig{
		ID:            p.String("name"),
		StorageType:   p.String("storage_type"),
		StorageConfig: p.JSON("storage_config"),
	}
}

func credentials(p *shell.Params) sdk.Credentials {
	return sdk.Credentials{
		Key:                p.String("key"),
		KeyDerivation:      p.String("key_derivation_method"),
		Rekey:              p.String("rekey"),
		RekeyDerivation:    p.String("rekey_derivation_method"),
		StorageCredentials: p.JSON("storage_credentials"),
	}
}

func exportConfig(p *shell.Params) sdk.ExportConfig {
	return sdk.ExportConfig{
		Path:          p.String("export_path"),
		Key:           p.String("export_key"),
		KeyDerivation: p.String("export_key_derivation_method"),
	}
}

func (b *Backend) walletCreate(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	cfg := walletConfig(inv.Params)
	if err := b.Wallets.Create(ctx, cfg, credentials(inv.Params)); err != nil {
		return nil, err
	}
	return output.Successf("Wallet %q has been created", cfg.ID), nil
}

func (b *Backend) walletAttach(_ context.Context, inv *shell.Invocation) (*output.Result, error) {
	cfg := walletConfig(inv.Params)
	if err := b.Wallets.Attach(cfg); err != nil {
		return nil, err
	}
	return output.Successf("Wallet %q has been attached", cfg.ID), nil
}

func (b *Backend) walletOpen(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	name := inv.Params.String("name")
	creds := credentials(inv.Params)

	err := inv.Session.OpenWallet(ctx, func(ctx context.Context) (sdk.Wallet, error) {
		return b.Wallets.Open(ctx, name, creds)
	})
	if err != nil {
		return nil, err
	}
	return output.Successf("Wallet %q has been opened", name), nil
}

func walletClose(_ context.Context, inv *shell.Invocation) (*output.Result, error) {
	name := inv.Session.WalletName()
	if err := inv.Session.CloseWallet(); err != nil {
		return nil, err
	}
	return output.Successf("Wallet %q has been closed", name), nil
}

func (b *Backend) walletDelete(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	name := inv.Params.String("name")
	if inv.Session.WalletName() == name {
		return nil, shell.Failf("Wallet %q is opened. Close it before deleting", name)
	}
	if err := b.Wallets.Delete(ctx, name, credentials(inv.Params)); err != nil {
		return nil, err
	}
	return output.Successf("Wallet %q has been deleted", name), nil
}

func (b *Backend) walletDetach(_ context.Context, inv *shell.Invocation) (*output.Result, error) {
	name := inv.Params.String("name")
	if inv.Session.WalletName() == name {
		return nil, shell.Failf("Wallet %q is opened", name)
	}
	if err := b.Wallets.Detach(name); err != nil {
		return nil, err
	}
	return output.Successf("Wallet %q has been detached", name), nil
}

func (b *Backend) walletList(_ context.Context, inv *shell.Invocation) (*output.Result, error) {
	wallets, err := b.Wallets.List()
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return output.NewResult().Text("There are no wallets"), nil
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].ID < wallets[j].ID })

	opened := inv.Session.WalletName()
	t := output.NewTable("Name", "Type", "Active")
	for _, w := range wallets {
		typ := w.StorageType
		if typ == "" {
			typ = sdk.DefaultStorageType
		}
		t.AddRow(w.ID, typ, activeMark(w.ID == opened))
	}

	res := output.NewResult().Table(t)
	if opened != "" {
		res.Success("Current wallet %q", opened)
	}
	return res, nil
}

func walletExport(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	w, _ := inv.Session.Wallet()
	to := exportConfig(inv.Params)
	if err := w.Export(ctx, to); err != nil {
		return nil, err
	}
	return output.Successf("Wallet %q has been exported to the file %q", w.Name(), to.Path), nil
}

func (b *Backend) walletImport(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	cfg := walletConfig(inv.Params)
	if err := b.Wallets.Import(ctx, cfg, credentials(inv.Params), exportConfig(inv.Params)); err != nil {
		return nil, err
	}
	return output.Successf("Wallet %q has been created", cfg.ID), nil
}

func activeMark(active bool) string {
	if active {
		return "*"
	}
	return ""
}
