package pool

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pradeepp88/indy-cli-go/internal/sdk"
	"github.com/pradeepp88/indy-cli-go/internal/sdk/ledger"
)

func request(typ string) []byte {
	raw, _ := json.Marshal(map[string]any{
		"reqId":           1,
		"identifier":      "V4SGRU86Z58d6TV7PBUe6f",
		"protocolVersion": 2,
		"operation":       map[string]any{"type": typ, "dest": "V4SGRU86Z58d6TV7PBUe6f"},
	})
	return raw
}

func TestSubmit_WriteTolerateFaultyNode(t *testing.T) {
	nodes := startNodes(t, 4, func(alias string, req map[string]any) (int, any) {
		if alias == "Node4" {
			return http.StatusInternalServerError, map[string]any{"error": "down"}
		}
		return http.StatusOK, reply(map[string]any{"seqNo": 7, "type": "1"})
	})
	_, p := openTestPool(t, nodes, sdk.PoolOptions{})

	raw, err := p.Submit(t.Context(), request("1"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	var got struct {
		Op     string `json:"op"`
		Result struct {
			SeqNo int `json:"seqNo"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &got); err != nil || got.Op != "REPLY" || got.Result.SeqNo != 7 {
		t.Errorf("Submit() = %s", raw)
	}
}

func TestSubmit_ReqNackIsReply(t *testing.T) {
	nodes := startNodes(t, 4, func(alias string, req map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"op": "REQNACK", "reason": alias + ": insufficient role"}
	})
	_, p := openTestPool(t, nodes, sdk.PoolOptions{})

	raw, err := p.Submit(t.Context(), request("1"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !strings.Contains(string(raw), "REQNACK") {
		t.Errorf("Submit() = %s", raw)
	}
}

func TestSubmit_NoConsensus(t *testing.T) {
	nodes := startNodes(t, 4, func(alias string, req map[string]any) (int, any) {
		return http.StatusOK, reply(map[string]any{"node": alias})
	})
	_, p := openTestPool(t, nodes, sdk.PoolOptions{})

	if _, err := p.Submit(t.Context(), request("1")); !errors.Is(err, ErrNoConsensus) {
		t.Errorf("Submit() error = %v, want ErrNoConsensus", err)
	}
}

func TestSubmit_ReadUsesPreorderedNodes(t *testing.T) {
	nodes := startNodes(t, 4, func(alias string, req map[string]any) (int, any) {
		return http.StatusOK, reply(map[string]any{"data": "nym"})
	})
	_, p := openTestPool(t, nodes, sdk.PoolOptions{
		PreorderedNodes: []string{"Node3"},
		NumberReadNodes: 2,
	})

	if _, err := p.Submit(t.Context(), request("105")); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if nodes[2].hits.Load() != 1 {
		t.Errorf("pre-ordered node hits = %d, want 1", nodes[2].hits.Load())
	}
	if nodes[2].hits.Load()+nodes[0].hits.Load() > 2 || nodes[3].hits.Load() != 0 {
		t.Errorf("read went beyond the first two nodes: %d %d %d %d",
			nodes[0].hits.Load(), nodes[1].hits.Load(), nodes[2].hits.Load(), nodes[3].hits.Load())
	}
}

func TestSubmit_ReadWidensOnDisagreement(t *testing.T) {
	nodes := startNodes(t, 4, func(alias string, req map[string]any) (int, any) {
		if alias == "Node1" {
			return http.StatusServiceUnavailable, map[string]any{"error": "catching up"}
		}
		return http.StatusOK, reply(map[string]any{"data": "fresh"})
	})
	_, p := openTestPool(t, nodes, sdk.PoolOptions{NumberReadNodes: 1})

	raw, err := p.Submit(t.Context(), request("105"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !strings.Contains(string(raw), "fresh") {
		t.Errorf("Submit() = %s, want the reply of the other nodes", raw)
	}
}

func TestSubmit_InvalidRequest(t *testing.T) {
	nodes := startNodes(t, 1, func(string, map[string]any) (int, any) {
		return http.StatusOK, reply(nil)
	})
	_, p := openTestPool(t, nodes, sdk.PoolOptions{})

	if _, err := p.Submit(t.Context(), []byte(`{"operation":{}}`)); err == nil {
		t.Error("Submit() accepted a request without type")
	}
	p.Close()
	if _, err := p.Submit(t.Context(), request("1")); !errors.Is(err, errClosed) {
		t.Errorf("Submit() after Close error = %v", err)
	}
}

func TestSubmitAction(t *testing.T) {
	nodes := startNodes(t, 3, func(alias string, req map[string]any) (int, any) {
		if alias == "Node2" {
			time.Sleep(500 * time.Millisecond)
		}
		return http.StatusOK, reply(map[string]any{"alias": alias})
	})
	_, p := openTestPool(t, nodes, sdk.PoolOptions{})

	got, err := p.SubmitAction(t.Context(), request("119"), nil, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("SubmitAction() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("SubmitAction() = %d replies, want 3", len(got))
	}
	if string(got["Node2"]) != `"timeout"` {
		t.Errorf("slow node reply = %s", got["Node2"])
	}
	if !strings.Contains(string(got["Node1"]), `"alias":"Node1"`) {
		t.Errorf("Node1 reply = %s", got["Node1"])
	}

	got, err = p.SubmitAction(t.Context(), request("119"), []string{"Node3"}, time.Second)
	if err != nil || len(got) != 1 || got["Node3"] == nil {
		t.Errorf("SubmitAction(Node3) = %v, %v", got, err)
	}
	if _, err := p.SubmitAction(t.Context(), request("119"), []string{"Nope"}, time.Second); err == nil {
		t.Error("SubmitAction() accepted an unknown node")
	}
}

func TestRefresh(t *testing.T) {
	nodes := startNodes(t, 1, func(alias string, req map[string]any) (int, any) {
		if operationType(req) != ledger.TypeGetTxn {
			return http.StatusBadRequest, nil
		}
		op := req["operation"].(map[string]any)
		if op["data"].(float64) == 2 {
			txn := nodeTxn("Node1", "Dest1", "127.0.0.1", 1, []string{"VALIDATOR"})
			return http.StatusOK, reply(map[string]any{"data": json.RawMessage(txn)})
		}
		return http.StatusOK, reply(map[string]any{"data": nil})
	})
	_, p := openTestPool(t, nodes, sdk.PoolOptions{})

	if err := p.Refresh(t.Context()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	data, err := os.ReadFile(p.txnPath)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 2 {
		t.Errorf("txn file has %d lines, want 2", len(lines))
	}
	if n := p.Nodes(); len(n) != 1 || n[0].ClientPort != 1 {
		t.Errorf("Nodes() after refresh = %+v", n)
	}
}

func TestManager(t *testing.T) {
	nodes := startNodes(t, 1, func(string, map[string]any) (int, any) {
		return http.StatusOK, reply(nil)
	})
	genesis := writeGenesis(t, nodes)
	m := NewManager(t.TempDir(), WithLogger(quietLogger()))

	for _, name := range []string{"sandbox", "builder"} {
		if err := m.Create(name, genesis); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}
	if err := m.Create("sandbox", genesis); !errors.Is(err, sdk.ErrPoolExists) {
		t.Errorf("duplicate Create() error = %v", err)
	}
	if err := m.Create("missing", filepath.Join(t.TempDir(), "none.txn")); err == nil {
		t.Error("Create() accepted a missing genesis file")
	}
	bad := filepath.Join(t.TempDir(), "bad.txn")
	os.WriteFile(bad, []byte("not json\n"), 0o600)
	if err := m.Create("bad", bad); err == nil {
		t.Error("Create() accepted an invalid genesis file")
	}

	list, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].Name != "builder" || list[1].Name != "sandbox" {
		t.Fatalf("List() = %+v", list)
	}
	if filepath.Base(list[1].GenesisTxn) != "sandbox.txn" {
		t.Errorf("GenesisTxn = %q", list[1].GenesisTxn)
	}

	p, err := m.Open(context.Background(), "sandbox", sdk.PoolOptions{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	opts := p.(*Pool).Options()
	if opts.ProtocolVersion != sdk.DefaultProtocolVersion || opts.Timeout != DefaultTimeout {
		t.Errorf("Options() = %+v", opts)
	}
	if _, err := m.Open(context.Background(), "sandbox", sdk.PoolOptions{}); !errors.Is(err, ErrAlreadyOpened) {
		t.Errorf("second Open() error = %v", err)
	}
	if err := m.Delete("sandbox"); !errors.Is(err, ErrAlreadyOpened) {
		t.Errorf("Delete() of open pool error = %v", err)
	}
	p.Close()

	if err := m.Delete("sandbox"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := m.Delete("sandbox"); !errors.Is(err, sdk.ErrPoolNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
	if _, err := m.Open(context.Background(), "sandbox", sdk.PoolOptions{}); !errors.Is(err, sdk.ErrPoolNotFound) {
		t.Errorf("Open() of deleted pool error = %v", err)
	}
}
