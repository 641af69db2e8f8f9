package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pradeepp88/indy-cli-go/internal/sdk"
	"github.com/pradeepp88/indy-cli-go/internal/sdk/did"
)

// Builder creates requests for one protocol version. Submitter DIDs may
// be fully qualified; requests carry the unqualified form.
type Builder struct {
	ProtocolVersion int
}

// NewBuilder returns a builder for the given protocol version, the
// default when zero.
func NewBuilder(protocolVersion int) Builder {
	if protocolVersion == 0 {
		protocolVersion = sdk.DefaultProtocolVersion
	}
	return Builder{ProtocolVersion: protocolVersion}
}

func (b Builder) build(submitter, typ string, op map[string]any) *Request {
	if op == nil {
		op = make(map[string]any)
	}
	op[fieldType] = typ
	return newRequest(did.Unqualify(submitter), b.ProtocolVersion, op)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func putString(op map[string]any, key, value string) {
	if value != "" {
		op[key] = value
	}
}

func putJSON(op map[string]any, key string, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	v, err := decode(raw)
	if err != nil {
		return invalid("%s: %v", key, err)
	}
	op[key] = v
	return nil
}

// Nym builds a NYM request. A nil role leaves the role unchanged; an
// empty role removes it.
func (b Builder) Nym(submitter, dest, verkey string, role *string) (*Request, error) {
	if dest == "" {
		return nil, invalid("dest is required")
	}
	op := map[string]any{"dest": did.Unqualify(dest)}
	putString(op, "verkey", verkey)
	if role != nil {
		if *role == "" {
			op["role"] = nil
		} else {
			code, ok := RoleCode(*role)
			if !ok {
				return nil, invalid("unknown role %q", *role)
			}
			op["role"] = code
		}
	}
	return b.build(submitter, TypeNym, op), nil
}

func (b Builder) GetNym(submitter, dest string) *Request {
	return b.build(submitter, TypeGetNym, map[string]any{"dest": did.Unqualify(dest)})
}

// Attrib builds an ATTRIB request carrying exactly one of hash, raw or enc.
func (b Builder) Attrib(submitter, dest, hash string, raw json.RawMessage, enc string) (*Request, error) {
	set := 0
	op := map[string]any{"dest": did.Unqualify(dest)}
	if hash != "" {
		op["hash"] = hash
		set++
	}
	if len(raw) > 0 {
		if !json.Valid(raw) {
			return nil, invalid("raw is not JSON")
		}
		op["raw"] = compact(raw)
		set++
	}
	if enc != "" {
		op["enc"] = enc
		set++
	}
	if set != 1 {
		return nil, invalid("exactly one of hash, raw or enc is required")
	}
	return b.build(submitter, TypeAttrib, op), nil
}

// GetAttrib builds a GET_ATTR request for exactly one of raw, hash or enc.
func (b Builder) GetAttrib(submitter, dest, raw, hash, enc string) (*Request, error) {
	set := 0
	op := map[string]any{"dest": did.Unqualify(dest)}
	for key, v := range map[string]string{"raw": raw, "hash": hash, "enc": enc} {
		if v != "" {
			op[key] = v
			set++
		}
	}
	if set != 1 {
		return nil, invalid("exactly one of raw, hash or enc is required")
	}
	return b.build(submitter, TypeGetAttr, op), nil
}

func (b Builder) Schema(submitter, name, version string, attrNames []string) (*Request, error) {
	if len(attrNames) == 0 {
		return nil, invalid("attr_names must not be empty")
	}
	attrs := make([]any, len(attrNames))
	for i, a := range attrNames {
		attrs[i] = a
	}
	return b.build(submitter, TypeSchema, map[string]any{
		"data": map[string]any{
			"name":       name,
			"version":    version,
			"attr_names": attrs,
		},
	}), nil
}

func (b Builder) GetSchema(submitter, dest, name, version string) *Request {
	return b.build(submitter, TypeGetSchema, map[string]any{
		"dest": did.Unqualify(dest),
		"data": map[string]any{"name": name, "version": version},
	})
}

// schemaRef parses the sequence number of a schema.
func schemaRef(schemaID string) (int64, error) {
	ref, err := strconv.ParseInt(schemaID, 10, 64)
	if err != nil || ref <= 0 {
		return 0, invalid("schema_id must be a schema sequence number, got %q", schemaID)
	}
	return ref, nil
}

// CredDef builds a CLAIM_DEF request.
func (b Builder) CredDef(submitter, schemaID, signatureType, tag string, primary, revocation json.RawMessage) (*Request, error) {
	ref, err := schemaRef(schemaID)
	if err != nil {
		return nil, err
	}
	data := make(map[string]any)
	if err := putJSON(data, "primary", primary); err != nil {
		return nil, err
	}
	if _, ok := data["primary"].(map[string]any); !ok {
		return nil, invalid("primary must be a JSON object")
	}
	if err := putJSON(data, "revocation", revocation); err != nil {
		return nil, err
	}
	if tag == "" {
		tag = "default"
	}
	return b.build(submitter, TypeCredDef, map[string]any{
		"ref":            ref,
		"signature_type": signatureType,
		"tag":            tag,
		"data":           data,
	}), nil
}

func (b Builder) GetCredDef(submitter, schemaID, signatureType, tag, origin string) (*Request, error) {
	ref, err := schemaRef(schemaID)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		tag = "default"
	}
	return b.build(submitter, TypeGetCredDef, map[string]any{
		"ref":            ref,
		"signature_type": signatureType,
		"tag":            tag,
		"origin":         did.Unqualify(origin),
	}), nil
}

// NodeData is the data of a NODE transaction. Zero fields are omitted.
type NodeData struct {
	Alias      string
	NodeIP     string
	NodePort   int64
	ClientIP   string
	ClientPort int64
	BLSKey     string
	BLSKeyPoP  string
	Services   []string
}

func (b Builder) Node(submitter, target string, d NodeData) (*Request, error) {
	if d.Alias == "" {
		return nil, invalid("alias is required")
	}
	data := map[string]any{"alias": d.Alias}
	putString(data, "node_ip", d.NodeIP)
	putString(data, "client_ip", d.ClientIP)
	putString(data, "blskey", d.BLSKey)
	putString(data, "blskey_pop", d.BLSKeyPoP)
	if d.NodePort != 0 {
		data["node_port"] = d.NodePort
	}
	if d.ClientPort != 0 {
		data["client_port"] = d.ClientPort
	}
	if d.Services != nil {
		services := make([]any, 0, len(d.Services))
		for _, s := range d.Services {
			if s != "" {
				services = append(services, s)
			}
		}
		data["services"] = services
	}
	return b.build(submitter, TypeNode, map[string]any{"dest": target, "data": data}), nil
}

func (b Builder) ValidatorInfo(submitter string) *Request {
	return b.build(submitter, TypeGetValidatorInfo, nil)
}

// PoolUpgrade is the operation of a POOL_UPGRADE transaction.
type PoolUpgrade struct {
	Name          string
	Version       string
	Action        string
	SHA256        string
	Timeout       int64
	Schedule      json.RawMessage
	Justification string
	Reinstall     bool
	Force         bool
	Package       string
}

func (b Builder) PoolUpgrade(submitter string, u PoolUpgrade) (*Request, error) {
	switch u.Action {
	case "start":
		if len(u.Schedule) == 0 {
			return nil, invalid("schedule is required to start an upgrade")
		}
	case "cancel":
	default:
		return nil, invalid("action must be start or cancel, got %q", u.Action)
	}
	op := map[string]any{
		"name":      u.Name,
		"version":   u.Version,
		"action":    u.Action,
		"sha256":    u.SHA256,
		"reinstall": u.Reinstall,
		"force":     u.Force,
	}
	if u.Timeout != 0 {
		op["timeout"] = u.Timeout
	}
	if err := putJSON(op, "schedule", u.Schedule); err != nil {
		return nil, err
	}
	putString(op, "justification", u.Justification)
	putString(op, "package", u.Package)
	return b.build(submitter, TypePoolUpgrade, op), nil
}

func (b Builder) PoolConfig(submitter string, writes, force bool) *Request {
	return b.build(submitter, TypePoolConfig, map[string]any{"writes": writes, "force": force})
}

func (b Builder) PoolRestart(submitter, action, datetime string) (*Request, error) {
	if action != "start" && action != "cancel" {
		return nil, invalid("action must be start or cancel, got %q", action)
	}
	op := map[string]any{"action": action}
	putString(op, "datetime", datetime)
	return b.build(submitter, TypePoolRestart, op), nil
}

// AuthRule builds an AUTH_RULE request. ADD rules take no old value.
func (b Builder) AuthRule(submitter, txnType, action, field string, oldValue, newValue *string, constraint json.RawMessage) (*Request, error) {
	op := map[string]any{
		"auth_type":   txnType,
		"auth_action": action,
		"field":       field,
	}
	switch action {
	case "ADD":
	case "EDIT":
		if oldValue != nil {
			op["old_value"] = *oldValue
		}
	default:
		return nil, invalid("auth action must be ADD or EDIT, got %q", action)
	}
	if newValue != nil {
		op["new_value"] = *newValue
	}
	if err := putJSON(op, "constraint", constraint); err != nil {
		return nil, err
	}
	if _, ok := op["constraint"].(map[string]any); !ok {
		return nil, invalid("constraint must be a JSON object")
	}
	return b.build(submitter, TypeAuthRule, op), nil
}

func (b Builder) AuthRules(submitter string, rules json.RawMessage) (*Request, error) {
	op := make(map[string]any)
	if err := putJSON(op, "rules", rules); err != nil {
		return nil, err
	}
	if list, ok := op["rules"].([]any); !ok || len(list) == 0 {
		return nil, invalid("rules must be a non-empty JSON array")
	}
	return b.build(submitter, TypeAuthRules, op), nil
}

// AuthRuleQuery selects auth rules. The zero query selects all of them.
type AuthRuleQuery struct {
	TxnType  string
	Action   string
	Field    string
	OldValue *string
	NewValue *string
}

func (b Builder) GetAuthRule(submitter string, q AuthRuleQuery) (*Request, error) {
	op := make(map[string]any)
	if q != (AuthRuleQuery{}) {
		if q.TxnType == "" || q.Action == "" || q.Field == "" {
			return nil, invalid("txn_type, action and field are required to select one rule")
		}
		op["auth_type"] = q.TxnType
		op["auth_action"] = q.Action
		op["field"] = q.Field
		switch q.Action {
		case "ADD":
			if q.OldValue != nil {
				return nil, invalid("old_value is not allowed for ADD rules")
			}
		case "EDIT":
			if q.OldValue != nil {
				op["old_value"] = *q.OldValue
			}
		default:
			return nil, invalid("auth action must be ADD or EDIT, got %q", q.Action)
		}
		if q.NewValue != nil {
			op["new_value"] = *q.NewValue
		}
	}
	return b.build(submitter, TypeGetAuthRule, op), nil
}

// TxnAuthorAgreement builds a TXN_AUTHOR_AGREEMENT request. Nil fields
// are omitted.
func (b Builder) TxnAuthorAgreement(submitter string, text *string, version string, ratification, retirement *int64) (*Request, error) {
	if version == "" {
		return nil, invalid("version is required")
	}
	op := map[string]any{"version": version}
	if text != nil {
		op["text"] = *text
	}
	if ratification != nil {
		op["ratification_ts"] = *ratification
	}
	if retirement != nil {
		op["retirement_ts"] = *retirement
	}
	return b.build(submitter, TypeTxnAuthorAgreement, op), nil
}

func (b Builder) DisableAllTxnAuthorAgreements(submitter string) *Request {
	return b.build(submitter, TypeDisableAllTxnAuthorAgreement, nil)
}

// AcceptanceMechanisms builds a TXN_AUTHOR_AGREEMENT_AML request. aml
// maps mechanism names to descriptions.
func (b Builder) AcceptanceMechanisms(submitter string, aml json.RawMessage, version, amlContext string) (*Request, error) {
	op := map[string]any{"version": version}
	if err := putJSON(op, "aml", aml); err != nil {
		return nil, err
	}
	if m, ok := op["aml"].(map[string]any); !ok || len(m) == 0 {
		return nil, invalid("aml must be a non-empty JSON object")
	}
	putString(op, "amlContext", amlContext)
	return b.build(submitter, TypeTxnAuthorAgreementAML, op), nil
}

// GetTxnAuthorAgreement selects the active agreement when all selectors
// are empty.
func (b Builder) GetTxnAuthorAgreement(submitter, version, digest string, timestamp *int64) *Request {
	op := make(map[string]any)
	putString(op, "version", version)
	putString(op, "digest", digest)
	if timestamp != nil {
		op["timestamp"] = *timestamp
	}
	return b.build(submitter, TypeGetTxnAuthorAgreement, op)
}

func (b Builder) GetAcceptanceMechanisms(submitter string, timestamp *int64, version string) (*Request, error) {
	if timestamp != nil && version != "" {
		return nil, invalid("timestamp and version cannot be combined")
	}
	op := make(map[string]any)
	if timestamp != nil {
		op["timestamp"] = *timestamp
	}
	putString(op, "version", version)
	return b.build(submitter, TypeGetTxnAuthorAgreementAML, op), nil
}

func (b Builder) LedgersFreeze(submitter string, ledgerIDs []string) (*Request, error) {
	ids := make([]any, 0, len(ledgerIDs))
	for _, s := range ledgerIDs {
		s = strings.TrimSpace(s)
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, invalid("ledger id %q is not a number", s)
		}
		ids = append(ids, id)
	}
	return b.build(submitter, TypeLedgersFreeze, map[string]any{"ledgers_ids": ids}), nil
}

func (b Builder) GetFrozenLedgers(submitter string) *Request {
	return b.build(submitter, TypeGetFrozenLedgers, nil)
}

// Ledger ids for GET_TXN.
const (
	LedgerPool   = 0
	LedgerDomain = 1
	LedgerConfig = 2
)

func (b Builder) GetTxn(submitter string, ledgerID int, seqNo int64) *Request {
	return b.build(submitter, TypeGetTxn, map[string]any{"ledgerId": ledgerID, "data": seqNo})
}

func compact(raw json.RawMessage) string {
	v, err := decode(raw)
	if err != nil {
		return string(raw)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
