package pool

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pradeepp88/indy-cli-go/internal/sdk"
)

// testNode is an httptest server standing in for a validator.
type testNode struct {
	alias  string
	server *httptest.Server
	hits   atomic.Int32
}

func (n *testNode) genesisLine(t *testing.T, dest string) string {
	t.Helper()
	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(n.server.URL, "http://"))
	if err != nil {
		t.Fatalf("split %s: %v", n.server.URL, err)
	}
	p, _ := strconv.Atoi(portStr)
	return nodeTxn(n.alias, dest, host, p, []string{ServiceValidator})
}

func nodeTxn(alias, dest, ip string, clientPort int, services []string) string {
	txn := map[string]any{
		"reqSignature": map[string]any{},
		"txn": map[string]any{
			"type": "0",
			"data": map[string]any{
				"dest": dest,
				"data": map[string]any{
					"alias":       alias,
					"client_ip":   ip,
					"client_port": clientPort,
					"node_ip":     ip,
					"node_port":   clientPort + 1,
					"services":    services,
				},
			},
		},
		"txnMetadata": map[string]any{"seqNo": 1},
		"ver":         "1",
	}
	raw, _ := json.Marshal(txn)
	return string(raw)
}

// startNodes starts count nodes answering with handler.
func startNodes(t *testing.T, count int, handler func(alias string, req map[string]any) (int, any)) []*testNode {
	t.Helper()
	nodes := make([]*testNode, count)
	for i := range nodes {
		n := &testNode{alias: fmt.Sprintf("Node%d", i+1)}
		n.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n.hits.Add(1)
			var req map[string]any
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			status, reply := handler(n.alias, req)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(reply)
		}))
		t.Cleanup(n.server.Close)
		nodes[i] = n
	}
	return nodes
}

func writeGenesis(t *testing.T, nodes []*testNode) string {
	t.Helper()
	var lines []string
	for i, n := range nodes {
		lines = append(lines, n.genesisLine(t, fmt.Sprintf("Dest%d", i+1)))
	}
	path := filepath.Join(t.TempDir(), "genesis.txn")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("write genesis: %v", err)
	}
	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openTestPool creates and opens a pool over nodes.
func openTestPool(t *testing.T, nodes []*testNode, opts sdk.PoolOptions) (*Manager, *Pool) {
	t.Helper()
	m := NewManager(t.TempDir(), WithLogger(quietLogger()))
	if err := m.Create("test", writeGenesis(t, nodes)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	p, err := m.Open(t.Context(), "test", opts)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return m, p.(*Pool)
}

func reply(result any) map[string]any {
	return map[string]any{"op": "REPLY", "result": result}
}

func operationType(req map[string]any) string {
	op, _ := req["operation"].(map[string]any)
	s, _ := op["type"].(string)
	return s
}
