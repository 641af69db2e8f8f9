package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/pradeepp88/indy-cli-go/internal/sdk/did"
)

// Signer signs with the current key of a wallet DID. sdk.Wallet
// satisfies it.
type Signer interface {
	Sign(ctx context.Context, did string, msg []byte) ([]byte, error)
}

// hashedAttribFields are replaced by their sha256 when an ATTRIB or
// GET_ATTR request is serialized for signing.
var hashedAttribFields = map[string]bool{"raw": true, "hash": true, "enc": true}

// SigningPayload serializes the request the way nodes verify it: object
// keys sorted and flattened as key:value joined by "|", list elements
// joined by ",". The signature, signatures and fees fields are skipped.
func (r *Request) SigningPayload() []byte {
	var b strings.Builder
	serialize(&b, r.fields, true, r.Type())
	return []byte(b.String())
}

func serialize(b *strings.Builder, v any, top bool, typ string) {
	switch x := v.(type) {
	case nil:
		b.WriteString("None")
	case bool:
		if x {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case string:
		b.WriteString(x)
	case json.Number:
		b.WriteString(x.String())
	case int:
		b.WriteString(strconv.Itoa(x))
	case int64:
		b.WriteString(strconv.FormatInt(x, 10))
	case float64:
		b.WriteString(strconv.FormatFloat(x, 'f', -1, 64))
	case []any:
		for i, e := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			serialize(b, e, false, typ)
		}
	case []string:
		b.WriteString(strings.Join(x, ","))
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			if top && (k == fieldSignature || k == fieldSignatures || k == "fees") {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				b.WriteByte('|')
			}
			b.WriteString(k)
			b.WriteByte(':')
			val := x[k]
			if (typ == TypeAttrib || typ == TypeGetAttr) && hashedAttribFields[k] {
				var inner strings.Builder
				serialize(&inner, val, false, typ)
				sum := sha256.Sum256([]byte(inner.String()))
				val = hex.EncodeToString(sum[:])
			}
			serialize(b, val, false, typ)
		}
	default:
		data, err := json.Marshal(x)
		if err != nil {
			b.WriteString(fmt.Sprint(x))
			return
		}
		if v, err := decode(data); err == nil {
			serialize(b, v, top, typ)
		}
	}
}

// Sign sets signature to the signature of id, which holds the key of
// the request identifier.
func (r *Request) Sign(ctx context.Context, s Signer, id string) error {
	sig, err := s.Sign(ctx, id, r.SigningPayload())
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	r.fields[fieldSignature] = base58.Encode(sig)
	return nil
}

// MultiSign adds the signature of id to signatures, keyed by the
// unqualified DID. A single signature already present moves into
// signatures under the identifier.
func (r *Request) MultiSign(ctx context.Context, s Signer, id string) error {
	sig, err := s.Sign(ctx, id, r.SigningPayload())
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}

	sigs, _ := r.fields[fieldSignatures].(map[string]any)
	if sigs == nil {
		sigs = make(map[string]any)
	}
	if single, ok := r.fields[fieldSignature].(string); ok {
		sigs[r.Identifier()] = single
		delete(r.fields, fieldSignature)
	}
	sigs[did.Unqualify(id)] = base58.Encode(sig)
	r.fields[fieldSignatures] = sigs
	return nil
}
