package command

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sort"

	"github.com/pradeepp88/indy-cli-go/internal/cli/output"
	"github.com/pradeepp88/indy-cli-go/internal/cli/session"
	"github.com/pradeepp88/indy-cli-go/internal/cli/shell"
	"github.com/pradeepp88/indy-cli-go/internal/sdk"
	"github.com/pradeepp88/indy-cli-go/internal/sdk/did"
	"github.com/pradeepp88/indy-cli-go/internal/sdk/ledger"
)

const seedHelp = "Seed for creating DID key-pair. Type the bare word seed to enter it without echo."

func didCommands(b *Backend) []shell.CommandSpec {
	return []shell.CommandSpec{
		{
			Group:    GroupDID,
			Name:     "new",
			Help:     "Create new DID",
			Requires: shell.NeedWallet,
			Params: []shell.ParamSpec{
				shell.Optional("did", "Known DID for new wallet instance"),
				shell.Optional("seed", seedHelp).Secret(),
				shell.Optional("method", "Method name to create fully qualified DID"),
				shell.Optional("metadata", "DID metadata"),
			},
			Examples: []string{
				"did new",
				"did new did=VsKV7grR1BUE29mG2Fm2kX",
				"did new did=VsKV7grR1BUE29mG2Fm2kX method=indy",
				"did new seed",
				"did new seed=00000000000000000000000000000My1 metadata=did_metadata",
			},
			Run: didNew,
		},
		{
			Group:    GroupDID,
			Name:     "import",
			Help:     "Import DIDs entities from file to the current wallet.",
			Detail:   "The file is JSON: {\"version\": 1, \"dids\": [{\"did\": \"...\", \"seed\": \"...\", \"method\": \"...\"}]}.",
			Requires: shell.NeedWallet,
			Params:   []shell.ParamSpec{shell.Main("file", "Path to file with DIDs")},
			Examples: []string{"did import /home/user/dids.json"},
			Run:      didImport,
		},
		{
			Group:    GroupDID,
			Name:     "use",
			Help:     "Use DID",
			Requires: shell.NeedWallet,
			Params:   []shell.ParamSpec{shell.Main("did", "Did stored in wallet")},
			Examples: []string{"did use VsKV7grR1BUE29mG2Fm2kX"},
			Run:      didUse,
		},
		{
			Group:    GroupDID,
			Name:     "rotate-key",
			Help:     "Rotate keys for active did",
			Requires: shell.NeedWallet | shell.NeedIdentity | shell.NeedPool,
			Params: []shell.ParamSpec{
				shell.Optional("seed", "If not provide then a random one will be created. Type the bare word seed to enter it without echo.").Secret(),
				shell.Optional("resume", "Resume interrupted operation").Of(shell.ShapeBool).WithDefault("false"),
			},
			Examples: []string{
				"did rotate-key",
				"did rotate-key seed",
				"did rotate-key seed=00000000000000000000000000000My2",
				"did rotate-key resume=true",
			},
			Run: b.didRotateKey,
		},
		{
			Group:    GroupDID,
			Name:     "list",
			Help:     "List my DIDs stored in the opened wallet.",
			Requires: shell.NeedWallet,
			Run:      didList,
		},
		{
			Group:    GroupDID,
			Name:     "qualify",
			Help:     "Update DID stored in the wallet to make fully qualified, or to do other DID maintenance.",
			Requires: shell.NeedWallet,
			Params: []shell.ParamSpec{
				shell.Main("did", "Did stored in wallet"),
				shell.Required("method", "Method to apply to the DID."),
			},
			Examples: []string{"did qualify VsKV7grR1BUE29mG2Fm2kX method=did:peer"},
			Run:      didQualify,
		},
		{
			Group:    GroupDID,
			Name:     "set-metadata",
			Help:     "Set metadata for the active DID",
			Requires: shell.NeedWallet | shell.NeedIdentity,
			Params:   []shell.ParamSpec{shell.Required("metadata", "DID metadata")},
			Examples: []string{"did set-metadata metadata=some_data"},
			Run:      didSetMetadata,
		},
	}
}

func didNew(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p := inv.Params
	w, _ := inv.Session.Wallet()
	info, err := w.CreateDID(ctx, sdk.DIDOptions{
		DID:      p.String("did"),
		Seed:     p.String("seed"),
		Method:   p.String("method"),
		Metadata: p.String("metadata"),
	})
	if err != nil {
		return nil, err
	}
	vk, err := did.AbbreviateVerkey(info.DID, info.Verkey)
	if err != nil {
		return nil, err
	}
	return output.Successf("Did %q has been created with %q verkey", info.DID, vk), nil
}

// didFile is the did import file.
type didFile struct {
	Version int `json:"version"`
	DIDs    []struct {
		DID    string `json:"did"`
		Seed   string `json:"seed"`
		Method string `json:"method"`
	} `json:"dids"`
}

func didImport(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	path := inv.Params.String("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, shell.IO(path, err)
	}
	var file didFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, shell.Failf("Can't parse JSON: %v", err)
	}
	if file.Version != 1 {
		return nil, shell.Failf("Invalid or missed version")
	}
	if file.DIDs == nil {
		return nil, shell.Failf("missed DIDs")
	}

	w, _ := inv.Session.Wallet()
	res := output.NewResult()
	for _, entry := range file.DIDs {
		info, err := w.CreateDID(ctx, sdk.DIDOptions{DID: entry.DID, Seed: entry.Seed, Method: entry.Method})
		if err != nil {
			res.Warn("Did %q has not been imported: %v", entry.DID, err)
			continue
		}
		vk, err := did.AbbreviateVerkey(info.DID, info.Verkey)
		if err != nil {
			vk = info.Verkey
		}
		res.Success("Did %q has been created with %q verkey", info.DID, vk)
	}
	return res.Success("DIDs import finished"), nil
}

func didUse(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	id := inv.Params.String("did")
	w, _ := inv.Session.Wallet()
	if _, err := w.GetDID(ctx, id); err != nil {
		if errors.Is(err, sdk.ErrDIDNotFound) {
			return nil, shell.Failf("Requested DID not found")
		}
		return nil, err
	}
	inv.Session.SetDID(id)
	return output.Successf("Did %q has been set as active", id), nil
}

func didList(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	w, _ := inv.Session.Wallet()
	dids, err := w.ListDIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(dids) == 0 {
		return output.NewResult().Text("There are no dids"), nil
	}
	sort.Slice(dids, func(i, j int) bool { return dids[i].DID < dids[j].DID })

	t := output.NewTable("Did", "Verkey", "Metadata")
	for _, info := range dids {
		vk, err := did.AbbreviateVerkey(info.DID, info.Verkey)
		if err != nil {
			return nil, err
		}
		t.AddRow(info.DID, vk, output.Cell(info.Metadata))
	}
	res := output.NewResult().Table(t)
	if active, ok := inv.Session.DID(); ok {
		res.Success("Current did %q", active)
	}
	return res, nil
}

func didQualify(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	id := p.String("did")
	w, _ := sess.Wallet()
	qualified, err := w.QualifyDID(ctx, id, p.String("method"))
	if err != nil {
		return nil, err
	}

	res := output.Successf("Fully qualified DID %q", qualified)
	if active, ok := sess.DID(); ok && active == id {
		sess.SetDID(qualified)
		res.Success("Target DID is the same as CLI active. Active DID has been updated")
	}
	return res, nil
}

func didSetMetadata(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	sess := inv.Session
	id, _ := sess.DID()
	w, _ := sess.Wallet()
	if err := w.SetMetadata(ctx, id, inv.Params.String("metadata")); err != nil {
		return nil, err
	}
	return output.Successf("Metadata has been saved for DID %q", id), nil
}

// ledgerVerkey returns the verkey the ledger holds for id. ok is false when
// the DID is not registered.
func ledgerVerkey(ctx context.Context, sess *session.Context, id string) (verkey string, ok bool, err error) {
	w, _ := sess.Wallet()
	pool, _ := sess.Pool()

	req := builder(sess).GetNym(did.Unqualify(id), did.Unqualify(id))
	if err := req.Sign(ctx, w, id); err != nil {
		return "", false, err
	}
	reply, err := submit(ctx, pool, req)
	if err != nil {
		return "", false, err
	}
	if err := reply.Err(); err != nil {
		return "", false, err
	}
	data, err := ledger.ResultData(reply.Result)
	if err != nil {
		return "", false, shell.Failf("Wrong data has been received")
	}
	verkey, ok = asObject(data)["verkey"].(string)
	return verkey, ok, nil
}

// resumeRotation decides from the ledger state whether an interrupted
// rotation still has to send the NYM. It returns the pending verkey.
func resumeRotation(ctx context.Context, w sdk.Wallet, id, onLedger string, registered bool, res *output.Result) (string, bool, error) {
	info, err := w.GetDID(ctx, id)
	if err != nil {
		return "", false, err
	}
	if info.NextVerkey == "" {
		return "", false, shell.Failf("Unable to resume, have you already run rotate-key?")
	}
	if !registered {
		res.Warn("DID is not registered on the ledger")
		return info.NextVerkey, false, nil
	}

	res.Success("Verkey on ledger: %s", onLedger)
	res.Success("Current verkey in wallet: %s", info.Verkey)
	res.Success("Temp verkey in wallet: %s", info.NextVerkey)

	expand := func(verkey string) string {
		full, err := did.ExpandVerkey(id, verkey)
		if err != nil {
			return verkey
		}
		return full
	}
	switch expand(onLedger) {
	case expand(info.NextVerkey):
		return info.NextVerkey, false, nil
	case expand(info.Verkey):
		return info.NextVerkey, true, nil
	}
	return "", false, shell.Failf("Unable to resume, verkey on ledger is completely different from verkey in wallet")
}

func (b *Backend) didRotateKey(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	id, _ := sess.DID()
	w, _ := sess.Wallet()
	pool, _ := sess.Pool()
	res := output.NewResult()

	stop := b.spin("Reading the current verkey from the ledger")
	onLedger, registered, err := ledgerVerkey(ctx, sess, id)
	stop()
	if err != nil {
		return nil, err
	}

	var (
		verkey string
		update = true
	)
	if p.Bool("resume") {
		verkey, update, err = resumeRotation(ctx, w, id, onLedger, registered, res)
	} else {
		verkey, err = w.ReplaceKeysStart(ctx, id, p.String("seed"))
	}
	if err != nil {
		return nil, err
	}

	if update && registered {
		req, err := builder(sess).Nym(did.Unqualify(id), did.Unqualify(id), verkey, nil)
		if err != nil {
			return nil, err
		}
		if err := appendAcceptance(sess, req); err != nil {
			return nil, err
		}
		// The pending key is not applied yet, so this signs with the old one.
		if err := req.Sign(ctx, w, id); err != nil {
			return nil, err
		}
		reply, err := submit(ctx, pool, req)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, shell.Failf("Transaction response has not been received. Use command `did rotate-key resume=true` to complete")
		}
		if err != nil {
			return nil, err
		}
		if err := reply.Err(); err != nil {
			return nil, err
		}
	}

	if err := w.ReplaceKeysApply(ctx, id); err != nil {
		return nil, err
	}
	vk, err := did.AbbreviateVerkey(id, verkey)
	if err != nil {
		return nil, err
	}
	return res.
		Success("Verkey for did %q has been updated", id).
		Success("New verkey is %q", vk), nil
}
