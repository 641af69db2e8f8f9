package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Reply operations.
const (
	OpReply   = "REPLY"
	OpReqNack = "REQNACK"
	OpReject  = "REJECT"
)

// TimeLayout renders ledger timestamps.
const TimeLayout = "2006-01-02 15:04:05"

// ErrUnsupportedFormat is returned for transaction results of an unknown
// version.
var ErrUnsupportedFormat = errors.New("unsupported transaction response format")

// Response is a node reply.
type Response struct {
	Op     string          `json:"op"`
	Reason string          `json:"reason,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

func ParseResponse(data []byte) (*Response, error) {
	var r Response
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("invalid ledger response: %w", err)
	}
	switch r.Op {
	case OpReply, OpReqNack, OpReject:
		return &r, nil
	default:
		return nil, fmt.Errorf("invalid ledger response: unknown op %q", r.Op)
	}
}

// Err returns nil for REPLY and an error carrying the reason otherwise.
func (r *Response) Err() error {
	if r.Op == OpReply {
		return nil
	}
	return fmt.Errorf("transaction has been rejected: %s", r.Reason)
}

// FormatTime renders unix seconds as UTC.
func FormatTime(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(TimeLayout)
}

// Field names one metadata column.
type Field struct {
	Key   string
	Title string
}

// Txn is a written transaction split for display.
type Txn struct {
	Fields   []Field
	Metadata map[string]any
	Data     map[string]any
}

// Value returns the metadata value of key formatted for display.
func (t *Txn) Value(key string) string {
	v, ok := t.Metadata[key]
	if !ok || v == nil {
		return "-"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	if m == nil {
		return map[string]any{}
	}
	return m
}

// formatTxnTime replaces a numeric txnTime with its rendered form.
func formatTxnTime(m map[string]any) {
	n, ok := m["txnTime"].(json.Number)
	if !ok {
		return
	}
	if ts, err := n.Int64(); err == nil {
		m["txnTime"] = FormatTime(ts)
	}
}

// ParseTxn splits the result of a write reply into metadata and data. v0
// results carry their metadata inline; v1 results nest it under txn and
// txnMetadata.
func ParseTxn(result json.RawMessage) (*Txn, error) {
	v, err := decode(result)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction result: %w", err)
	}
	res, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid transaction result: not an object")
	}

	switch ver := res["ver"]; ver {
	case nil:
		formatTxnTime(res)
		return &Txn{
			Fields: []Field{
				{"identifier", "Identifier"},
				{"seqNo", "Sequence Number"},
				{"reqId", "Request ID"},
				{"txnTime", "Transaction time"},
			},
			Metadata: res,
			Data:     res,
		}, nil
	case "1":
		txn := object(res["txn"])
		txnMeta := object(txn["metadata"])
		meta := make(map[string]any)
		for k, v := range object(res["txnMetadata"]) {
			meta[k] = v
		}
		formatTxnTime(meta)
		meta["reqId"] = txnMeta["reqId"]
		meta["from"] = txnMeta["from"]

		fields := []Field{
			{"from", "From"},
			{"seqNo", "Sequence Number"},
			{"reqId", "Request ID"},
			{"txnTime", "Transaction time"},
		}
		if e, ok := txnMeta["endorser"].(string); ok {
			meta["endorser"] = e
			fields = append(fields, Field{"endorser", "Endorser"})
		}
		return &Txn{Fields: fields, Metadata: meta, Data: object(txn["data"])}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, ver)
	}
}

// ResultData returns result.data of a read reply decoded, nil when the
// ledger has no such entry. String encoded data is decoded as JSON when
// it holds an object.
func ResultData(result json.RawMessage) (any, error) {
	v, err := decode(result)
	if err != nil {
		return nil, fmt.Errorf("invalid read result: %w", err)
	}
	data := object(v)["data"]
	if s, ok := data.(string); ok {
		if inner, err := decode([]byte(s)); err == nil {
			if _, isObj := inner.(map[string]any); isObj {
				return inner, nil
			}
		}
	}
	return data, nil
}

// ResultField returns a top level field of a read result.
func ResultField(result json.RawMessage, key string) any {
	v, err := decode(result)
	if err != nil {
		return nil
	}
	return object(v)[key]
}
