package pool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/pradeepp88/indy-cli-go/internal/sdk"
	"github.com/pradeepp88/indy-cli-go/internal/sdk/ledger"
)

// Reply timeouts used when PoolOptions leaves them zero. Writes wait for
// the extended timeout.
const (
	DefaultTimeout         = 20 * time.Second
	DefaultExtendedTimeout = 60 * time.Second
)

var errClosed = errors.New("pool is closed")

// Pool is an open pool connection. It implements sdk.Pool.
type Pool struct {
	name      string
	txnPath   string
	opts      sdk.PoolOptions
	transport *transport
	logger    *slog.Logger
	release   func(name string)

	mu      sync.Mutex
	genesis *Genesis
	closed  bool
}

var _ sdk.Pool = (*Pool)(nil)

func (p *Pool) Name() string { return p.name }

// Options returns the options the pool was opened with, defaults applied.
func (p *Pool) Options() sdk.PoolOptions { return p.opts }

// Close releases the connection. Closing twice is a no-op.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.release != nil {
		p.release(p.name)
	}
	return nil
}

// Nodes returns the current validator nodes.
func (p *Pool) Nodes() []Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.genesis.Validators()
}

func (p *Pool) validators() ([]Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, errClosed
	}
	return p.genesis.Validators(), nil
}

// readOrder puts pre-ordered nodes first and keeps the rest in genesis order.
func (p *Pool) readOrder(nodes []Node) []Node {
	if len(p.opts.PreorderedNodes) == 0 {
		return nodes
	}
	out := make([]Node, 0, len(nodes))
	used := make(map[string]bool)
	for _, alias := range p.opts.PreorderedNodes {
		for _, n := range nodes {
			if n.Alias == alias && !used[alias] {
				out = append(out, n)
				used[alias] = true
			}
		}
	}
	for _, n := range nodes {
		if !used[n.Alias] {
			out = append(out, n)
		}
	}
	return out
}

// Submit sends a request and returns the reply f+1 nodes agree on. Reads
// go to number_read_nodes nodes first and widen to the whole pool when
// those disagree; writes go to every validator.
func (p *Pool) Submit(ctx context.Context, request []byte) ([]byte, error) {
	nodes, err := p.validators()
	if err != nil {
		return nil, err
	}
	req, err := ledger.ParseRequest(request)
	if err != nil {
		return nil, err
	}
	need := quorum(len(nodes))
	start := time.Now()

	var reply json.RawMessage
	if req.IsRead() {
		ordered := p.readOrder(nodes)
		first := ordered
		if k := p.opts.NumberReadNodes; k > 0 && k < len(ordered) {
			first = ordered[:k]
		}
		rctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
		reply, err = p.collect(rctx, first, request, min(need, len(first)))
		cancel()
		if err != nil && len(first) < len(ordered) {
			rctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
			reply, err = p.collect(rctx, ordered, request, need)
			cancel()
		}
	} else {
		wctx, cancel := context.WithTimeout(ctx, p.opts.ExtendedTimeout)
		reply, err = p.collect(wctx, nodes, request, need)
		cancel()
	}

	p.logger.Debug("pool request", "pool", p.name, "type", req.Type(), "nodes", len(nodes), "duration", time.Since(start), "error", err)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// SubmitAction sends a request to the named nodes (every validator when
// nodes is empty) and returns each node's reply. A node that fails is
// reported as a JSON string: "timeout" or the error text.
func (p *Pool) SubmitAction(ctx context.Context, request []byte, nodes []string, timeout time.Duration) (map[string]json.RawMessage, error) {
	all, err := p.validators()
	if err != nil {
		return nil, err
	}
	targets := all
	if len(nodes) > 0 {
		byAlias := make(map[string]Node, len(all))
		for _, n := range all {
			byAlias[n.Alias] = n
		}
		targets = targets[:0:0]
		for _, alias := range nodes {
			n, ok := byAlias[alias]
			if !ok {
				return nil, fmt.Errorf("unknown node %q in pool %s", alias, p.name)
			}
			targets = append(targets, n)
		}
	}
	if timeout <= 0 {
		timeout = p.opts.Timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make(chan nodeResult, len(targets))
	for _, n := range targets {
		go func(n Node) {
			reply, err := p.transport.send(ctx, n, request)
			results <- nodeResult{node: n, reply: reply, err: err}
		}(n)
	}

	out := make(map[string]json.RawMessage, len(targets))
	for range targets {
		r := <-results
		switch {
		case r.err == nil:
			out[r.node.Alias] = r.reply
		case errors.Is(r.err, context.DeadlineExceeded):
			out[r.node.Alias] = json.RawMessage(`"timeout"`)
		default:
			msg, _ := json.Marshal(r.err.Error())
			out[r.node.Alias] = msg
		}
	}
	return out, nil
}

// Refresh fetches pool ledger transactions past the known ones and
// appends them to the pool's transaction file.
func (p *Pool) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errClosed
	}
	next := len(p.genesis.Txns) + 1
	p.mu.Unlock()

	var added [][]byte
	for {
		txn, err := p.fetchTxn(ctx, next)
		if err != nil {
			return fmt.Errorf("refresh pool %s: %w", p.name, err)
		}
		if txn == nil {
			break
		}
		added = append(added, txn)
		next++
	}
	if len(added) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, txn := range added {
		if err := p.genesis.Add(txn); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(p.txnPath, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	for _, txn := range added {
		if _, err := f.Write(append(txn, '\n')); err != nil {
			f.Close()
			return err
		}
	}
	p.logger.Debug("pool refreshed", "pool", p.name, "added", len(added))
	return f.Close()
}

// fetchTxn returns the pool transaction with the given sequence number,
// or nil when the ledger has no such transaction.
func (p *Pool) fetchTxn(ctx context.Context, seqNo int) ([]byte, error) {
	req := ledger.NewBuilder(p.opts.ProtocolVersion).GetTxn("", ledger.LedgerPool, int64(seqNo))
	raw, err := p.Submit(ctx, req.JSON())
	if err != nil {
		return nil, err
	}

	var reply struct {
		Op     string `json:"op"`
		Reason string `json:"reason"`
		Result struct {
			Data json.RawMessage `json:"data"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("invalid GET_TXN reply: %w", err)
	}
	if reply.Op != "REPLY" {
		return nil, fmt.Errorf("GET_TXN %s: %s", reply.Op, reply.Reason)
	}
	data := bytes.TrimSpace(reply.Result.Data)
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
