package pool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoConsensus is returned when too few nodes agree on a reply.
var ErrNoConsensus = errors.New("no consensus among pool nodes")

// faulty is the number of faulty nodes an n node pool tolerates.
func faulty(n int) int {
	if n < 1 {
		return 0
	}
	return (n - 1) / 3
}

// quorum is the number of matching replies needed to trust a result.
func quorum(n int) int {
	return faulty(n) + 1
}

// nodeReply is the reply envelope as far as consensus cares.
type nodeReply struct {
	Op     string          `json:"op"`
	Result json.RawMessage `json:"result"`
	Reason string          `json:"reason"`
}

// replyKey groups replies that count as the same answer. REPLY messages
// match on their result; REQNACK and REJECT match on op alone since
// reasons carry node specific text.
func replyKey(raw json.RawMessage) (string, error) {
	var r nodeReply
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", err
	}
	switch r.Op {
	case "REPLY":
		var buf bytes.Buffer
		if err := json.Compact(&buf, canonical(r.Result)); err != nil {
			return "", err
		}
		return r.Op + ":" + buf.String(), nil
	case "REQNACK", "REJECT":
		return r.Op, nil
	case "":
		return "", fmt.Errorf("reply without op")
	default:
		return r.Op, nil
	}
}

// canonical re-encodes JSON with sorted object keys. Fields that differ
// per node (state proofs) are dropped.
func canonical(raw json.RawMessage) json.RawMessage {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}
	if m, ok := v.(map[string]any); ok {
		delete(m, "state_proof")
	}
	out, err := json.Marshal(v)
	if err != nil {
		return raw
	}
	return out
}

type nodeResult struct {
	node  Node
	reply json.RawMessage
	err   error
}

// collect sends body to nodes concurrently and returns the first reply
// that need nodes agree on. The remaining requests are cancelled.
func (p *Pool) collect(ctx context.Context, nodes []Node, body []byte, need int) (json.RawMessage, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan nodeResult, len(nodes))
	for _, n := range nodes {
		go func(n Node) {
			reply, err := p.transport.send(ctx, n, body)
			results <- nodeResult{node: n, reply: reply, err: err}
		}(n)
	}

	counts := make(map[string]int)
	var failed int
	var lastErr error
	for range nodes {
		r := <-results
		if r.err == nil {
			key, err := replyKey(r.reply)
			if err == nil {
				counts[key]++
				if counts[key] >= need {
					return r.reply, nil
				}
				continue
			}
			r.err = err
		}
		failed++
		lastErr = r.err
		p.logger.Debug("pool node failed", "pool", p.name, "node", r.node.Alias, "error", r.err)
	}

	if err := ctx.Err(); err != nil && failed == len(nodes) {
		return nil, fmt.Errorf("%w: %v", ErrNoConsensus, err)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %d of %d nodes failed, last error: %v", ErrNoConsensus, failed, len(nodes), lastErr)
	}
	return nil, fmt.Errorf("%w: %d distinct replies from %d nodes", ErrNoConsensus, len(counts), len(nodes))
}
