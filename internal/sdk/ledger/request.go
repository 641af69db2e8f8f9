package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// Top level request fields.
const (
	fieldReqID           = "reqId"
	fieldIdentifier      = "identifier"
	fieldOperation       = "operation"
	fieldProtocolVersion = "protocolVersion"
	fieldSignature       = "signature"
	fieldSignatures      = "signatures"
	fieldEndorser        = "endorser"
	fieldTAAAcceptance   = "taaAcceptance"
	fieldType            = "type"
)

// DefaultIdentifier is the identifier of unsigned read requests.
const DefaultIdentifier = "LibindyDid111111111111"

var ErrInvalidRequest = errors.New("invalid request")

var lastReqID atomic.Int64

// nextReqID returns a time based request id, strictly increasing within
// the process.
func nextReqID() int64 {
	for {
		now := time.Now().UnixNano()
		last := lastReqID.Load()
		if now <= last {
			now = last + 1
		}
		if lastReqID.CompareAndSwap(last, now) {
			return now
		}
	}
}

// Request is a ledger request as a JSON object.
type Request struct {
	fields map[string]any
}

func newRequest(identifier string, protocolVersion int, op map[string]any) *Request {
	if identifier == "" {
		identifier = DefaultIdentifier
	}
	return &Request{fields: map[string]any{
		fieldReqID:           nextReqID(),
		fieldIdentifier:      identifier,
		fieldProtocolVersion: protocolVersion,
		fieldOperation:       op,
	}}
}

func decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// ParseRequest decodes a request. It must be an object with an
// operation object that names its type.
func ParseRequest(data []byte) (*Request, error) {
	v, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	fields, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidRequest)
	}
	r := &Request{fields: fields}
	if r.Operation() == nil {
		return nil, fmt.Errorf("%w: operation object is missing", ErrInvalidRequest)
	}
	if r.Type() == "" {
		return nil, fmt.Errorf("%w: operation.type is missing", ErrInvalidRequest)
	}
	return r, nil
}

// ParseTransaction decodes a stored transaction, which must also carry
// reqId and identifier.
func ParseTransaction(data []byte) (*Request, error) {
	r, err := ParseRequest(data)
	if err != nil {
		return nil, err
	}
	for _, f := range []string{fieldReqID, fieldIdentifier} {
		if _, ok := r.fields[f]; !ok {
			return nil, fmt.Errorf("%w: %s is missing", ErrInvalidRequest, f)
		}
	}
	return r, nil
}

// MarshalJSON returns the canonical form of the request.
func (r *Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.fields)
}

// JSON returns the canonical form of the request.
func (r *Request) JSON() []byte {
	data, err := r.MarshalJSON()
	if err != nil {
		// fields only ever hold decoded JSON values
		panic(err)
	}
	return data
}

// Operation returns the operation object, nil when absent.
func (r *Request) Operation() map[string]any {
	op, _ := r.fields[fieldOperation].(map[string]any)
	return op
}

// Type returns the operation type code. Numeric codes are accepted.
func (r *Request) Type() string {
	switch t := r.Operation()[fieldType].(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// Identifier returns the submitter DID.
func (r *Request) Identifier() string {
	s, _ := r.fields[fieldIdentifier].(string)
	return s
}

// Endorser returns the endorser DID, empty when absent.
func (r *Request) Endorser() string {
	s, _ := r.fields[fieldEndorser].(string)
	return s
}

// SetEndorser names the DID that will endorse the request.
func (r *Request) SetEndorser(did string) {
	r.fields[fieldEndorser] = did
}

// SetOperationField sets one field of the operation.
func (r *Request) SetOperationField(name string, value any) {
	op := r.Operation()
	if op == nil {
		op = make(map[string]any)
		r.fields[fieldOperation] = op
	}
	op[name] = value
}

// SetTAAAcceptance attaches a transaction author agreement acceptance.
func (r *Request) SetTAAAcceptance(a Acceptance) {
	r.fields[fieldTAAAcceptance] = map[string]any{
		"mechanism": a.Mechanism,
		"taaDigest": a.Digest,
		"time":      a.Time,
	}
}

// Signed reports whether the request carries any signature.
func (r *Request) Signed() bool {
	_, single := r.fields[fieldSignature]
	_, multi := r.fields[fieldSignatures]
	return single || multi
}

// IsRead reports whether the request only reads ledger state.
func (r *Request) IsRead() bool {
	return readTypes[r.Type()]
}
