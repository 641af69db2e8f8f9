package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"time"

	"github.com/pradeepp88/indy-cli-go/internal/cli/output"
	"github.com/pradeepp88/indy-cli-go/internal/cli/session"
	"github.com/pradeepp88/indy-cli-go/internal/cli/shell"
	"github.com/pradeepp88/indy-cli-go/internal/sdk"
	"github.com/pradeepp88/indy-cli-go/internal/sdk/did"
	"github.com/pradeepp88/indy-cli-go/internal/sdk/ledger"
)

// contextTxn names the stored transaction where a command takes txn.
const contextTxn = "context"

const (
	signHelp     = "Sign the request (True by default)"
	sendHelp     = "Send the request to the Ledger (True by default). If false then created request will be printed and stored into CLI context."
	endorserHelp = "DID of the Endorser that will submit the transaction to the ledger later. Implies send=false."
)

// writeParams appends the options every write command accepts.
func writeParams(params ...shell.ParamSpec) []shell.ParamSpec {
	return append(params,
		shell.Optional("sign", signHelp).Of(shell.ShapeBool).WithDefault("true"),
		shell.Optional("send", sendHelp).Of(shell.ShapeBool).WithDefault("true"),
		shell.Optional("endorser", endorserHelp),
	)
}

// writeRequirements: a wallet always, the active DID to sign, a pool to send.
func writeRequirements(p *shell.Params) shell.Requirement {
	req := shell.NeedWallet
	if p.Bool("sign") {
		req |= shell.NeedIdentity
	}
	if p.Bool("send") && p.String("endorser") == "" {
		req |= shell.NeedPool
	}
	return req
}

func readParams(params ...shell.ParamSpec) []shell.ParamSpec {
	return append(params, shell.Optional("send", sendHelp).Of(shell.ShapeBool).WithDefault("true"))
}

func readRequirements(p *shell.Params) shell.Requirement {
	if p.Bool("send") {
		return shell.NeedPool
	}
	return 0
}

func builder(sess *session.Context) ledger.Builder {
	return ledger.NewBuilder(sess.ProtocolVersion())
}

// submitter is the active DID, or "" for the default identifier.
func submitter(sess *session.Context) string {
	id, _ := sess.DID()
	return id
}

func submit(ctx context.Context, pool sdk.Pool, req *ledger.Request) (*ledger.Response, error) {
	data, err := pool.Submit(ctx, req.JSON())
	if err != nil {
		return nil, err
	}
	return ledger.ParseResponse(data)
}

// appendAcceptance adds the accepted agreement, if any, to req.
func appendAcceptance(sess *session.Context, req *ledger.Request) error {
	a, ok := sess.Acceptance()
	if !ok {
		return nil
	}
	mechanism := sess.AcceptanceMechanism()
	if mechanism == "" {
		return shell.Failf("Transaction author agreement Acceptance Mechanism isn't set.")
	}
	req.SetTAAAcceptance(ledger.NewAcceptance(mechanism, a.Text, a.Version, "", time.Unix(a.Time, 0)))
	return nil
}

func storeTransaction(sess *session.Context, req *ledger.Request) *output.Result {
	data := string(req.JSON())
	sess.SetTransaction(data)
	return output.NewResult().Success("Transaction has been created:").Text(data)
}

// sendWrite applies the write options to req and submits it. A nil reply
// with a non-nil result means the request was stored instead of sent.
func sendWrite(ctx context.Context, inv *shell.Invocation, req *ledger.Request) (*ledger.Response, *output.Result, error) {
	p, sess := inv.Params, inv.Session

	send := p.Bool("send")
	if endorser := p.String("endorser"); endorser != "" {
		req.SetEndorser(endorser)
		send = false
	}
	if err := appendAcceptance(sess, req); err != nil {
		return nil, nil, err
	}
	if p.Bool("sign") {
		w, _ := sess.Wallet()
		if err := req.Sign(ctx, w, submitter(sess)); err != nil {
			return nil, nil, err
		}
	}
	if !send {
		return nil, storeTransaction(sess, req), nil
	}

	pool, _ := sess.Pool()
	reply, err := submit(ctx, pool, req)
	if err != nil {
		return nil, nil, err
	}
	if err := reply.Err(); err != nil {
		return nil, nil, err
	}
	return reply, nil, nil
}

func sendRead(ctx context.Context, inv *shell.Invocation, req *ledger.Request) (*ledger.Response, *output.Result, error) {
	if !inv.Params.Bool("send") {
		return nil, storeTransaction(inv.Session, req), nil
	}
	pool, _ := inv.Session.Pool()
	reply, err := submit(ctx, pool, req)
	if err != nil {
		return nil, nil, err
	}
	if err := reply.Err(); err != nil {
		return nil, nil, err
	}
	return reply, nil, nil
}

// view describes how a reply is rendered.
type view struct {
	title   string
	columns []output.Column

	// nested names the field of the transaction data that holds the
	// columns. For read replies it selects result.data.
	nested string

	// notFound fails read replies that carry no data.
	notFound string

	adjust func(data map[string]any)
}

func (v view) render(txn *ledger.Txn, data map[string]any) *output.Result {
	if v.adjust != nil {
		v.adjust(data)
	}

	meta := make([]output.Column, 0, len(txn.Fields))
	for _, f := range txn.Fields {
		meta = append(meta, output.Column{Key: f.Key, Title: f.Title})
	}

	res := output.NewResult().
		Success("%s", v.title).
		Success("Metadata:").
		Table(output.TableFromRecords(meta, txn.Metadata))

	var cols []output.Column
	for _, c := range v.columns {
		if data[c.Key] != nil {
			cols = append(cols, c)
		}
	}
	if len(cols) > 0 {
		res.Success("Data:").Table(output.TableFromRecords(cols, data))
	}
	return res
}

func handleWrite(ctx context.Context, inv *shell.Invocation, req *ledger.Request, v view) (*output.Result, error) {
	reply, created, err := sendWrite(ctx, inv, req)
	if err != nil || reply == nil {
		return created, err
	}
	txn, err := ledger.ParseTxn(reply.Result)
	if err != nil {
		return nil, err
	}
	data := txn.Data
	if v.nested != "" {
		data = asObject(data[v.nested])
	}
	return v.render(txn, data), nil
}

func handleRead(ctx context.Context, inv *shell.Invocation, req *ledger.Request, v view) (*output.Result, error) {
	reply, created, err := sendRead(ctx, inv, req)
	if err != nil || reply == nil {
		return created, err
	}
	if v.notFound != "" && ledger.ResultField(reply.Result, "data") == nil {
		return nil, errors.New(v.notFound)
	}
	txn, err := ledger.ParseTxn(reply.Result)
	if err != nil {
		return nil, err
	}

	data := txn.Data
	if v.nested != "" {
		d, err := ledger.ResultData(reply.Result)
		if err != nil {
			return nil, err
		}
		data = asObject(d)
		if v.notFound != "" && len(data) == 0 {
			return nil, errors.New(v.notFound)
		}
	}
	return v.render(txn, data), nil
}

func asObject(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// pendingRequest returns the request given in param, or the stored
// transaction when param is absent or names the context.
func pendingRequest(inv *shell.Invocation, param string) (*ledger.Request, error) {
	raw, ok := inv.Params.Lookup(param)
	if !ok || raw == contextTxn {
		stored, has := inv.Session.Transaction()
		if !has {
			return nil, shell.NewError(shell.KindNoStoredTransaction, "")
		}
		raw = stored
	}
	return ledger.ParseRequest([]byte(raw))
}

func custom(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	req, err := pendingRequest(inv, "txn")
	if err != nil {
		return nil, err
	}
	for name, value := range inv.Params.Extra() {
		req.SetOperationField(name, value)
	}

	sess := inv.Session
	if inv.Params.Bool("sign") {
		w, _ := sess.Wallet()
		if err := req.Sign(ctx, w, submitter(sess)); err != nil {
			return nil, err
		}
	}

	pool, _ := sess.Pool()
	data, err := pool.Submit(ctx, req.JSON())
	if err != nil {
		return nil, err
	}
	reply, err := ledger.ParseResponse(data)
	if err != nil {
		return nil, err
	}
	if err := reply.Err(); err != nil {
		return nil, err
	}
	return output.NewResult().Success("Response:").Text(string(data)), nil
}

func signMulti(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	req, err := pendingRequest(inv, "txn")
	if err != nil {
		return nil, err
	}

	sess := inv.Session
	w, _ := sess.Wallet()
	if err := req.MultiSign(ctx, w, submitter(sess)); err != nil {
		return nil, err
	}

	data := string(req.JSON())
	sess.SetTransaction(data)
	return output.NewResult().Success("Transaction has been signed:").Text(data), nil
}

func endorse(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	req, err := pendingRequest(inv, "txn")
	if err != nil {
		return nil, err
	}

	sess := inv.Session
	id := submitter(sess)
	switch endorser := req.Endorser(); {
	case endorser == "":
		return nil, shell.Failf("Transaction does not name an Endorser")
	case endorser != did.Unqualify(id):
		return nil, shell.Failf("Active DID %q is not the Endorser %q of the transaction", id, endorser)
	}

	w, _ := sess.Wallet()
	if err := req.MultiSign(ctx, w, id); err != nil {
		return nil, err
	}

	pool, _ := sess.Pool()
	reply, err := submit(ctx, pool, req)
	if err != nil {
		return nil, err
	}
	if err := reply.Err(); err != nil {
		return nil, err
	}
	txn, err := ledger.ParseTxn(reply.Result)
	if err != nil {
		return nil, err
	}

	res := view{title: "Transaction has been sent to Ledger."}.render(txn, txn.Data)
	return res.Success("Data:").Data(txn.Data), nil
}

func saveTransaction(_ context.Context, inv *shell.Invocation) (*output.Result, error) {
	stored, _ := inv.Session.Transaction()
	req, err := ledger.ParseRequest([]byte(stored))
	if err != nil {
		return nil, err
	}

	path := inv.Params.String("file")
	if err := os.WriteFile(path, req.JSON(), 0o600); err != nil {
		return nil, shell.IO(path, err)
	}
	return output.Successf("The transaction has been saved."), nil
}

func loadTransaction(_ context.Context, inv *shell.Invocation) (*output.Result, error) {
	path := inv.Params.String("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, shell.IO(path, err)
	}
	req, err := ledger.ParseTransaction(data)
	if err != nil {
		return nil, shell.Failf("File contains invalid transaction: %v", err)
	}

	stored := string(req.JSON())
	inv.Session.SetTransaction(stored)
	return output.NewResult().Success("Following transaction has been loaded:").Text(stored), nil
}

// handleAction signs req and sends it to individual nodes. Each node's
// reply is rendered on its own line.
func handleAction(ctx context.Context, inv *shell.Invocation, req *ledger.Request, title string) (*output.Result, error) {
	sess := inv.Session
	w, _ := sess.Wallet()
	if err := req.Sign(ctx, w, submitter(sess)); err != nil {
		return nil, err
	}

	var timeout time.Duration
	if t, ok := inv.Params.Int("timeout"); ok {
		timeout = time.Duration(t) * time.Second
	}

	pool, _ := sess.Pool()
	replies, err := pool.SubmitAction(ctx, req.JSON(), inv.Params.List("nodes"), timeout)
	if err != nil {
		return nil, err
	}

	nodes := make([]string, 0, len(replies))
	for node := range replies {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	res := output.Successf("%s", title)
	for _, node := range nodes {
		res.Text(node + ": " + actionReply(replies[node]))
	}
	return res, nil
}

// actionReply formats one node reply. Transport failures arrive as JSON
// strings.
func actionReply(raw json.RawMessage) string {
	var msg string
	if json.Unmarshal(raw, &msg) == nil {
		return msg
	}
	reply, err := ledger.ParseResponse(raw)
	if err != nil {
		return string(raw)
	}
	if err := reply.Err(); err != nil {
		return err.Error()
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, reply.Result, "", "  "); err != nil {
		return string(reply.Result)
	}
	return buf.String()
}
