package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pradeepp88/indy-cli-go/internal/cli/output"
	"github.com/pradeepp88/indy-cli-go/internal/cli/session"
	"github.com/pradeepp88/indy-cli-go/internal/cli/shell"
	"github.com/pradeepp88/indy-cli-go/internal/sdk"
	"github.com/pradeepp88/indy-cli-go/internal/sdk/did"
	"github.com/pradeepp88/indy-cli-go/internal/sdk/ledger"
)

const (
	trusteeSeed   = "000000000000000000000000Trustee1"
	trusteeDID    = "V4SGRU86Z58d6TV7PBUe6f"
	trusteeVerkey = "GJ1SzoWzavQYfNL9XkaJdrQejfztN4XqdsiV4ct3LXKL"
	testTime      = 1700000000
)

// fakeWallets keeps wallet state in memory. Wallet contents survive close
// and reopen.
type fakeWallets struct {
	configs map[string]sdk.WalletConfig
	keys    map[string]string
	wallets map[string]*fakeWallet
	exports map[string]map[string]sdk.DIDInfo
}

func newFakeWallets() *fakeWallets {
	return &fakeWallets{
		configs: make(map[string]sdk.WalletConfig),
		keys:    make(map[string]string),
		wallets: make(map[string]*fakeWallet),
		exports: make(map[string]map[string]sdk.DIDInfo),
	}
}

func (f *fakeWallets) add(cfg sdk.WalletConfig, key string) {
	f.configs[cfg.ID] = cfg
	f.keys[cfg.ID] = key
	f.wallets[cfg.ID] = &fakeWallet{
		parent:  f,
		name:    cfg.ID,
		dids:    make(map[string]sdk.DIDInfo),
		keys:    make(map[string]*did.Key),
		pending: make(map[string]*did.Key),
	}
}

func (f *fakeWallets) Create(_ context.Context, cfg sdk.WalletConfig, creds sdk.Credentials) error {
	if _, ok := f.configs[cfg.ID]; ok {
		return sdk.ErrWalletExists
	}
	f.add(cfg, creds.Key)
	return nil
}

func (f *fakeWallets) Attach(cfg sdk.WalletConfig) error {
	if _, ok := f.configs[cfg.ID]; ok {
		return sdk.ErrWalletExists
	}
	f.add(cfg, "")
	return nil
}

func (f *fakeWallets) Open(_ context.Context, name string, creds sdk.Credentials) (sdk.Wallet, error) {
	w, err := f.unlock(name, creds)
	if err != nil {
		return nil, err
	}
	if creds.Rekey != "" {
		f.keys[name] = creds.Rekey
	}
	w.opens++
	return w, nil
}

func (f *fakeWallets) unlock(name string, creds sdk.Credentials) (*fakeWallet, error) {
	w, ok := f.wallets[name]
	if !ok {
		return nil, sdk.ErrWalletNotFound
	}
	if f.keys[name] != creds.Key {
		return nil, sdk.ErrInvalidWalletKey
	}
	return w, nil
}

func (f *fakeWallets) Delete(_ context.Context, name string, creds sdk.Credentials) error {
	if _, err := f.unlock(name, creds); err != nil {
		return err
	}
	delete(f.configs, name)
	delete(f.wallets, name)
	return nil
}

func (f *fakeWallets) Detach(name string) error {
	if _, ok := f.configs[name]; !ok {
		return sdk.ErrWalletNotFound
	}
	delete(f.configs, name)
	return nil
}

func (f *fakeWallets) List() ([]sdk.WalletConfig, error) {
	out := make([]sdk.WalletConfig, 0, len(f.configs))
	for _, c := range f.configs {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeWallets) Import(ctx context.Context, cfg sdk.WalletConfig, creds sdk.Credentials, from sdk.ExportConfig) error {
	dids, ok := f.exports[from.Path]
	if !ok {
		return errors.New("export file not found")
	}
	if err := f.Create(ctx, cfg, creds); err != nil {
		return err
	}
	for id, info := range dids {
		f.wallets[cfg.ID].dids[id] = info
	}
	return nil
}

type fakeWallet struct {
	parent  *fakeWallets
	name    string
	dids    map[string]sdk.DIDInfo
	keys    map[string]*did.Key
	pending map[string]*did.Key
	opens   int
	closes  int
}

func (w *fakeWallet) Name() string { return w.name }

func (w *fakeWallet) Close() error {
	w.closes++
	return nil
}

func (w *fakeWallet) Export(_ context.Context, to sdk.ExportConfig) error {
	snapshot := make(map[string]sdk.DIDInfo, len(w.dids))
	for id, info := range w.dids {
		snapshot[id] = info
	}
	w.parent.exports[to.Path] = snapshot
	return nil
}

func newKey(seed string) (*did.Key, error) {
	if seed == "" {
		return did.Generate()
	}
	return did.FromSeed(seed)
}

func (w *fakeWallet) CreateDID(_ context.Context, opts sdk.DIDOptions) (sdk.DIDInfo, error) {
	k, err := newKey(opts.Seed)
	if err != nil {
		return sdk.DIDInfo{}, err
	}
	id := opts.DID
	if id == "" {
		id = k.DID()
	}
	if opts.Method != "" {
		id = did.Qualify(id, opts.Method)
	}
	if _, ok := w.dids[id]; ok {
		return sdk.DIDInfo{}, sdk.ErrDIDExists
	}
	info := sdk.DIDInfo{DID: id, Verkey: k.Verkey(), Method: did.Method(id), Metadata: opts.Metadata}
	w.dids[id] = info
	w.keys[id] = k
	return info, nil
}

func (w *fakeWallet) ListDIDs(context.Context) ([]sdk.DIDInfo, error) {
	out := make([]sdk.DIDInfo, 0, len(w.dids))
	for _, info := range w.dids {
		out = append(out, info)
	}
	return out, nil
}

func (w *fakeWallet) GetDID(_ context.Context, id string) (sdk.DIDInfo, error) {
	info, ok := w.dids[id]
	if !ok {
		return sdk.DIDInfo{}, sdk.ErrDIDNotFound
	}
	return info, nil
}

func (w *fakeWallet) SetMetadata(_ context.Context, id, metadata string) error {
	info, ok := w.dids[id]
	if !ok {
		return sdk.ErrDIDNotFound
	}
	info.Metadata = metadata
	w.dids[id] = info
	return nil
}

func (w *fakeWallet) QualifyDID(_ context.Context, id, method string) (string, error) {
	info, ok := w.dids[id]
	if !ok {
		return "", sdk.ErrDIDNotFound
	}
	qualified := did.Qualify(id, method)
	info.DID, info.Method = qualified, method
	delete(w.dids, id)
	w.dids[qualified] = info
	w.keys[qualified] = w.keys[id]
	delete(w.keys, id)
	return qualified, nil
}

func (w *fakeWallet) ReplaceKeysStart(_ context.Context, id, seed string) (string, error) {
	info, ok := w.dids[id]
	if !ok {
		return "", sdk.ErrDIDNotFound
	}
	k, err := newKey(seed)
	if err != nil {
		return "", err
	}
	w.pending[id] = k
	info.NextVerkey = k.Verkey()
	w.dids[id] = info
	return k.Verkey(), nil
}

func (w *fakeWallet) ReplaceKeysApply(_ context.Context, id string) error {
	k, ok := w.pending[id]
	if !ok {
		return sdk.ErrNoPendingKey
	}
	info := w.dids[id]
	info.Verkey, info.NextVerkey = k.Verkey(), ""
	w.dids[id] = info
	w.keys[id] = k
	delete(w.pending, id)
	return nil
}

func (w *fakeWallet) Sign(_ context.Context, id string, msg []byte) ([]byte, error) {
	k, ok := w.keys[id]
	if !ok {
		return nil, sdk.ErrDIDNotFound
	}
	return k.Sign(msg), nil
}

type fakePools struct {
	configs map[string]string
	pool    *fakePool
	opts    []sdk.PoolOptions
}

func newFakePools() *fakePools {
	return &fakePools{
		configs: make(map[string]string),
		pool:    &fakePool{replies: make(map[string]string)},
	}
}

func (f *fakePools) Create(name, genesisPath string) error {
	if _, ok := f.configs[name]; ok {
		return sdk.ErrPoolExists
	}
	f.configs[name] = genesisPath
	return nil
}

func (f *fakePools) Delete(name string) error {
	if _, ok := f.configs[name]; !ok {
		return sdk.ErrPoolNotFound
	}
	delete(f.configs, name)
	return nil
}

func (f *fakePools) List() ([]sdk.PoolConfig, error) {
	out := make([]sdk.PoolConfig, 0, len(f.configs))
	for name, genesis := range f.configs {
		out = append(out, sdk.PoolConfig{Name: name, GenesisTxn: genesis})
	}
	return out, nil
}

func (f *fakePools) Open(_ context.Context, name string, opts sdk.PoolOptions) (sdk.Pool, error) {
	if _, ok := f.configs[name]; !ok {
		return nil, sdk.ErrPoolNotFound
	}
	f.opts = append(f.opts, opts)
	f.pool.name = name
	return f.pool, nil
}

// fakePool answers writes with a v1 reply echoing the operation and reads
// with empty data, unless a reply is set for the transaction type.
type fakePool struct {
	name      string
	replies   map[string]string
	actions   map[string]json.RawMessage
	requests  []*ledger.Request
	err       error
	refreshes int
	closes    int
}

func (p *fakePool) Name() string { return p.name }

func (p *fakePool) Close() error {
	p.closes++
	return nil
}

func (p *fakePool) Refresh(context.Context) error {
	p.refreshes++
	return p.err
}

func (p *fakePool) Submit(_ context.Context, request []byte) ([]byte, error) {
	req, err := ledger.ParseRequest(request)
	if err != nil {
		return nil, err
	}
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}

	typ := req.Type()
	if reply, ok := p.replies[typ]; ok {
		return []byte(reply), nil
	}
	if req.IsRead() {
		return json.Marshal(map[string]any{
			"op":     ledger.OpReply,
			"result": map[string]any{"type": typ, "data": nil},
		})
	}

	data := make(map[string]any)
	for k, v := range req.Operation() {
		if k != "type" {
			data[k] = v
		}
	}
	var reqID int64
	_ = json.Unmarshal(mustField(request, "reqId"), &reqID)
	return json.Marshal(map[string]any{
		"op": ledger.OpReply,
		"result": map[string]any{
			"ver": "1",
			"txn": map[string]any{
				"type":     typ,
				"data":     data,
				"metadata": map[string]any{"from": req.Identifier(), "reqId": reqID},
			},
			"txnMetadata": map[string]any{"seqNo": 15, "txnTime": testTime},
		},
	})
}

func (p *fakePool) SubmitAction(_ context.Context, request []byte, nodes []string, _ time.Duration) (map[string]json.RawMessage, error) {
	req, err := ledger.ParseRequest(request)
	if err != nil {
		return nil, err
	}
	p.requests = append(p.requests, req)
	if p.actions != nil {
		return p.actions, nil
	}
	if len(nodes) == 0 {
		nodes = []string{"Node1", "Node2"}
	}
	out := make(map[string]json.RawMessage, len(nodes))
	for _, n := range nodes {
		out[n] = json.RawMessage(`{"op":"REPLY","result":{"data":{"alias":"` + n + `"}}}`)
	}
	return out, nil
}

// last returns the last request the pool received.
func (p *fakePool) last(t *testing.T) *ledger.Request {
	t.Helper()
	if len(p.requests) == 0 {
		t.Fatal("pool received no request")
	}
	return p.requests[len(p.requests)-1]
}

func mustField(data []byte, key string) json.RawMessage {
	var m map[string]json.RawMessage
	_ = json.Unmarshal(data, &m)
	return m[key]
}

type fakePrompter struct {
	secrets []string
	confirm bool
	asked   []string
}

func (p *fakePrompter) ReadSecret(prompt string) (string, error) {
	p.asked = append(p.asked, prompt)
	if len(p.secrets) == 0 {
		return "", errors.New("no input")
	}
	v := p.secrets[0]
	p.secrets = p.secrets[1:]
	return v, nil
}

func (p *fakePrompter) Confirm(question string) (bool, error) {
	p.asked = append(p.asked, question)
	return p.confirm, nil
}

// harness runs command lines against fakes.
type harness struct {
	t         *testing.T
	wallets   *fakeWallets
	pools     *fakePools
	sess      *session.Context
	exec      *shell.Executor
	mechanism string
}

func newHarness(t *testing.T, opts ...shell.ExecutorOption) *harness {
	t.Helper()
	h := &harness{
		t:         t,
		wallets:   newFakeWallets(),
		pools:     newFakePools(),
		mechanism: "on_file",
	}
	h.sess = session.New(session.WithAcceptanceMechanism(func() string { return h.mechanism }))

	b := &Backend{
		Wallets: h.wallets,
		Pools:   h.pools,
		Now:     func() time.Time { return time.Unix(testTime, 0) },
	}
	exec, err := NewExecutor(b, h.sess, opts...)
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}
	h.exec = exec
	return h
}

func (h *harness) run(line string) (*output.Result, error) {
	l, err := shell.Parse(line)
	if err != nil {
		return nil, err
	}
	return h.exec.Execute(context.Background(), l)
}

// mustRun runs line and returns its rendered output.
func (h *harness) mustRun(line string) string {
	h.t.Helper()
	res, err := h.run(line)
	if err != nil {
		h.t.Fatalf("%s: %v", line, err)
	}
	return render(h.t, res)
}

func (h *harness) openWallet() *fakeWallet {
	h.t.Helper()
	h.mustRun("wallet create w1 key=k1")
	h.mustRun("wallet open w1 key=k1")
	return h.wallets.wallets["w1"]
}

func (h *harness) useTrustee() {
	h.t.Helper()
	h.mustRun("did new seed=" + trusteeSeed)
	h.mustRun("did use " + trusteeDID)
}

func (h *harness) connect() *fakePool {
	h.t.Helper()
	h.pools.configs["sandbox"] = "/tmp/sandbox.txn"
	h.mustRun("pool connect sandbox")
	return h.pools.pool
}

// ready opens a wallet, activates the trustee DID and connects the pool.
func (h *harness) ready() *fakePool {
	h.t.Helper()
	h.openWallet()
	h.useTrustee()
	return h.connect()
}

func render(t *testing.T, res *output.Result) string {
	t.Helper()
	var buf bytes.Buffer
	if err := output.NewPrinter(&buf, nil, output.FormatTable).Print(res); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	return buf.String()
}

func wantKind(t *testing.T, err error, target *shell.Error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want kind %v", err, target.Kind)
	}
}

// fields decodes a request into its top level fields.
func fields(t *testing.T, req *ledger.Request) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(req.JSON(), &m); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	return m
}
