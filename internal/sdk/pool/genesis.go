package pool

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ServiceValidator marks a node that takes part in consensus.
const ServiceValidator = "VALIDATOR"

// nodeTxnType is the transaction type of NODE transactions.
const nodeTxnType = "0"

// ErrNoValidators is returned for genesis data without any validator node.
var ErrNoValidators = errors.New("genesis has no validator nodes")

// Node is a pool member as described by its NODE transactions.
type Node struct {
	Alias      string
	Dest       string
	ClientIP   string
	ClientPort int
	NodeIP     string
	NodePort   int
	Services   []string
}

// Validator reports whether the node lists the VALIDATOR service.
func (n Node) Validator() bool {
	for _, s := range n.Services {
		if s == ServiceValidator {
			return true
		}
	}
	return false
}

// URL is the client endpoint of the node.
func (n Node) URL() string {
	return "http://" + n.ClientIP + ":" + strconv.Itoa(n.ClientPort) + "/"
}

type genesisTxn struct {
	Txn struct {
		Type string `json:"type"`
		Data struct {
			Dest string `json:"dest"`
			Data struct {
				Alias      string          `json:"alias"`
				ClientIP   string          `json:"client_ip"`
				ClientPort json.RawMessage `json:"client_port"`
				NodeIP     string          `json:"node_ip"`
				NodePort   json.RawMessage `json:"node_port"`
				Services   *[]string       `json:"services"`
			} `json:"data"`
		} `json:"data"`
	} `json:"txn"`
}

// port accepts both numeric and string encoded ports.
func port(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("invalid port %s", raw)
	}
	return strconv.Atoi(s)
}

// Genesis is the parsed content of a pool transaction file.
type Genesis struct {
	// Txns holds the non-empty lines in file order.
	Txns []json.RawMessage
	// Nodes holds every node in order of first appearance. Later NODE
	// transactions for the same dest update the earlier fields.
	Nodes []Node
}

// Validators returns the nodes that take part in consensus.
func (g *Genesis) Validators() []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Validator() {
			out = append(out, n)
		}
	}
	return out
}

// Add applies one more pool transaction.
func (g *Genesis) Add(line []byte) error {
	var txn genesisTxn
	if err := json.Unmarshal(line, &txn); err != nil {
		return fmt.Errorf("invalid transaction %d: %w", len(g.Txns)+1, err)
	}
	g.Txns = append(g.Txns, json.RawMessage(append([]byte(nil), line...)))
	if txn.Txn.Type != nodeTxnType && txn.Txn.Type != "" {
		return nil
	}

	d := txn.Txn.Data
	if d.Dest == "" {
		return fmt.Errorf("transaction %d: node without dest", len(g.Txns))
	}
	clientPort, err := port(d.Data.ClientPort)
	if err != nil {
		return fmt.Errorf("transaction %d: client_port: %w", len(g.Txns), err)
	}
	nodePort, err := port(d.Data.NodePort)
	if err != nil {
		return fmt.Errorf("transaction %d: node_port: %w", len(g.Txns), err)
	}

	idx := -1
	for i := range g.Nodes {
		if g.Nodes[i].Dest == d.Dest {
			idx = i
			break
		}
	}
	if idx < 0 {
		g.Nodes = append(g.Nodes, Node{Dest: d.Dest})
		idx = len(g.Nodes) - 1
	}
	n := &g.Nodes[idx]
	if d.Data.Alias != "" {
		n.Alias = d.Data.Alias
	}
	if d.Data.ClientIP != "" {
		n.ClientIP = d.Data.ClientIP
	}
	if clientPort != 0 {
		n.ClientPort = clientPort
	}
	if d.Data.NodeIP != "" {
		n.NodeIP = d.Data.NodeIP
	}
	if nodePort != 0 {
		n.NodePort = nodePort
	}
	if d.Data.Services != nil {
		n.Services = *d.Data.Services
	}
	return nil
}

// ParseGenesis reads newline separated pool transactions.
func ParseGenesis(r io.Reader) (*Genesis, error) {
	g := &Genesis{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := g.Add(line); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read genesis: %w", err)
	}
	if len(g.Validators()) == 0 {
		return nil, ErrNoValidators
	}
	return g, nil
}
