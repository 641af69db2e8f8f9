package command

import (
	"context"
	"encoding/json"
	"os"
	"sort"

	"github.com/pradeepp88/indy-cli-go/internal/cli/output"
	"github.com/pradeepp88/indy-cli-go/internal/cli/shell"
	"github.com/pradeepp88/indy-cli-go/internal/sdk/ledger"
)

const (
	actionRequires = shell.NeedWallet | shell.NeedIdentity | shell.NeedPool
	nodesHelp      = "Comma-separated node aliases to send the request to (all nodes by default)"
	timeoutHelp    = "Time to wait for the node replies (in sec)"
)

func ledgerCommands() []shell.CommandSpec {
	write := func(name, help string, run shell.HandlerFunc, examples []string, params ...shell.ParamSpec) shell.CommandSpec {
		return shell.CommandSpec{
			Group:    GroupLedger,
			Name:     name,
			Help:     help,
			Params:   writeParams(params...),
			Examples: examples,
			When:     writeRequirements,
			Run:      run,
		}
	}
	read := func(name, help string, run shell.HandlerFunc, examples []string, params ...shell.ParamSpec) shell.CommandSpec {
		return shell.CommandSpec{
			Group:    GroupLedger,
			Name:     name,
			Help:     help,
			Params:   readParams(params...),
			Examples: examples,
			When:     readRequirements,
			Run:      run,
		}
	}

	return []shell.CommandSpec{
		write("nym", "Send NYM transaction to the Ledger.", nym,
			[]string{"ledger nym did=VsKV7grR1BUE29mG2Fm2kX verkey=GjZWsBLgZCR18aL468JAT7w9CZRiBnpxUPPgyQxh4voa role=TRUSTEE"},
			shell.Required("did", "DID of new identity"),
			shell.Optional("verkey", "Verification key of new identity"),
			shell.Optional("role", "Role of identity. One of: STEWARD, TRUSTEE, TRUST_ANCHOR, ENDORSER, NETWORK_MONITOR or associated number, or empty in case of blacklisting NYM"),
		),
		read("get-nym", "Get NYM from Ledger.", getNym,
			[]string{"ledger get-nym did=VsKV7grR1BUE29mG2Fm2kX"},
			shell.Required("did", "DID of identity presented in Ledger"),
		),
		write("attrib", "Send Attribute transaction to the Ledger for exists NYM.", attrib,
			[]string{"ledger attrib did=VsKV7grR1BUE29mG2Fm2kX raw={\"endpoint\":{\"ha\":\"127.0.0.1:5555\"}}"},
			shell.Required("did", "DID of identity presented in Ledger"),
			shell.Optional("hash", "Hash of attribute data"),
			shell.Optional("raw", "JSON representation of attribute data").Of(shell.ShapeJSON),
			shell.Optional("enc", "Encrypted attribute data"),
		),
		read("get-attrib", "Get ATTRIB from Ledger.", getAttrib,
			[]string{"ledger get-attrib did=VsKV7grR1BUE29mG2Fm2kX raw=endpoint"},
			shell.Required("did", "DID of identity presented in Ledger"),
			shell.Optional("raw", "Name of attribute"),
			shell.Optional("hash", "Hash of attribute data"),
			shell.Optional("enc", "Encrypted attribute data"),
		),
		write("schema", "Send Schema transaction to the Ledger.", schema,
			[]string{"ledger schema name=gvt version=1.0 attr_names=name,age"},
			shell.Required("name", "Schema name"),
			shell.Required("version", "Schema version"),
			shell.Required("attr_names", "Schema attributes split by comma").Of(shell.ShapeList),
		),
		read("get-schema", "Get Schema from Ledger.", getSchema,
			[]string{"ledger get-schema did=VsKV7grR1BUE29mG2Fm2kX name=gvt version=1.0"},
			shell.Required("did", "DID of identity presented in Ledger"),
			shell.Required("name", "Schema name"),
			shell.Required("version", "Schema version"),
		),
		write("cred-def", "Send Cred Def transaction to the Ledger.", credDef,
			[]string{"ledger cred-def schema_id=1 signature_type=CL tag=1 primary={\"n\":\"1\",\"s\":\"2\",\"rms\":\"3\",\"r\":{\"age\":\"4\",\"name\":\"5\"},\"rctxt\":\"6\",\"z\":\"7\"}"},
			shell.Required("schema_id", "Sequence number of schema"),
			shell.Required("signature_type", "Signature type (only CL supported now)"),
			shell.Optional("tag", "Allows to distinct between credential definitions for the same issuer and schema"),
			shell.Required("primary", "Primary key in json format").Of(shell.ShapeJSON),
			shell.Optional("revocation", "Revocation key in json format").Of(shell.ShapeJSON),
		),
		read("get-cred-def", "Get Cred Definition from Ledger.", getCredDef,
			[]string{"ledger get-cred-def schema_id=1 signature_type=CL tag=1 origin=VsKV7grR1BUE29mG2Fm2kX"},
			shell.Required("schema_id", "Sequence number of schema"),
			shell.Required("signature_type", "Signature type (only CL supported now)"),
			shell.Optional("tag", "Allows to distinct between credential definitions for the same issuer and schema"),
			shell.Required("origin", "Credential definition owner DID"),
		),
		write("node", "Send Node transaction to the Ledger.", node,
			[]string{"ledger node target=A5iWQVT3k8Zo9nXj4otmeqaUziPQPCiDqcydXkAJBk1Y node_ip=127.0.0.1 node_port=9710 client_ip=127.0.0.1 client_port=9711 alias=Node5 services=VALIDATOR"},
			shell.Required("target", "Node identifier"),
			shell.Required("alias", "Node alias (can't be changed in case of update)"),
			shell.Optional("node_ip", "Node Ip. Note that it is mandatory for adding node case"),
			shell.Optional("node_port", "Node port. Note that it is mandatory for adding node case").Of(shell.ShapeInt),
			shell.Optional("client_ip", "Client Ip. Note that it is mandatory for adding node case"),
			shell.Optional("client_port", "Client port. Note that it is mandatory for adding node case").Of(shell.ShapeInt),
			shell.Optional("blskey", "Node BLS key"),
			shell.Optional("blskey_pop", "Node BLS key proof of possession"),
			shell.Optional("services", "Node type. One of: VALIDATOR, OBSERVER or empty in case of blacklisting node").Of(shell.ShapeList),
		),
		{
			Group:    GroupLedger,
			Name:     "get-validator-info",
			Help:     "Get validator info from all nodes.",
			Requires: actionRequires,
			Params: []shell.ParamSpec{
				shell.Optional("nodes", nodesHelp).Of(shell.ShapeList),
				shell.Optional("timeout", timeoutHelp).Of(shell.ShapeInt),
			},
			Examples: []string{"ledger get-validator-info nodes=Node1,Node2 timeout=150"},
			Run:      getValidatorInfo,
		},
		write("pool-upgrade", "Send instructions to nodes to update themselves.", poolUpgrade,
			[]string{"ledger pool-upgrade name=upgrade-1 version=2.0 action=start sha256=f284bdc3c1c9e24a494e285cb387c69510f28de51c15bb93179d9c7f28705398 schedule={\"Gw6pDLhcBcoQesN72qfotTgFa7cbuqZpkX3Xo6pLhPhv\":\"2020-01-25T12:49:05.258870+00:00\"}"},
			shell.Required("name", "Human-readable name for the upgrade"),
			shell.Required("version", "The version of indy-node package we perform upgrade to"),
			shell.Required("action", "Upgrade type. Either start or cancel"),
			shell.Required("sha256", "Sha256 hash of the package"),
			shell.Optional("timeout", "Limits upgrade time on each Node").Of(shell.ShapeInt),
			shell.Optional("schedule", "Node upgrade schedule. Schedule should contain identifiers of all nodes").Of(shell.ShapeJSON),
			shell.Optional("justification", "Justification string for this particular Upgrade"),
			shell.Optional("reinstall", "Whether it's allowed to re-install the same version").Of(shell.ShapeBool),
			shell.Optional("force", "Whether we should apply transaction without waiting for consensus").Of(shell.ShapeBool),
			shell.Optional("package", "Package to be upgraded"),
		),
		write("pool-config", "Send write configuration to pool.", poolConfig,
			[]string{"ledger pool-config writes=true"},
			shell.Required("writes", "Accept write transactions").Of(shell.ShapeBool),
			shell.Optional("force", "Whether we should apply transaction without waiting for consensus").Of(shell.ShapeBool).WithDefault("false"),
		),
		{
			Group:    GroupLedger,
			Name:     "pool-restart",
			Help:     "Send instructions to nodes to restart themselves.",
			Requires: actionRequires,
			Params: []shell.ParamSpec{
				shell.Required("action", "Restart type. Either start or cancel"),
				shell.Optional("datetime", "Node restart datetime (only for action=start)"),
				shell.Optional("nodes", nodesHelp).Of(shell.ShapeList),
				shell.Optional("timeout", timeoutHelp).Of(shell.ShapeInt),
			},
			Examples: []string{"ledger pool-restart action=start datetime=2020-01-25T12:49:05.258870+00:00"},
			Run:      poolRestart,
		},
		{
			Group: GroupLedger,
			Name:  "custom",
			Help:  "Send custom transaction to the Ledger.",
			Detail: "The transaction is a JSON request, or the word context for the transaction stored in CLI context. " +
				"Without one the stored transaction is used. Extra name=value params are set on the operation.",
			Params: []shell.ParamSpec{
				shell.Main("txn", "Transaction json or context").NotRequired(),
				shell.Optional("sign", "Is signature required").Of(shell.ShapeBool).WithDefault("false"),
			},
			Variadic: true,
			Requires: shell.NeedPool,
			When: func(p *shell.Params) shell.Requirement {
				if p.Bool("sign") {
					return shell.NeedWallet | shell.NeedIdentity
				}
				return 0
			},
			Examples: []string{
				"ledger custom {\"reqId\":1,\"identifier\":\"V4SGRU86Z58d6TV7PBUe6f\",\"operation\":{\"type\":\"105\",\"dest\":\"V4SGRU86Z58d6TV7PBUe6f\"},\"protocolVersion\":2}",
				"ledger custom context",
			},
			Run: custom,
		},
		write("auth-rule", "Send AUTH_RULE request to change authentication rules for a ledger transaction.", authRule,
			[]string{"ledger auth-rule txn_type=NYM action=ADD field=role new_value=101 constraint={\"sig_count\":1,\"role\":\"0\",\"constraint_id\":\"ROLE\",\"need_to_be_owner\":false}"},
			shell.Required("txn_type", "Ledger transaction alias or associated value"),
			shell.Required("action", "Type of an action. One of: ADD, EDIT"),
			shell.Required("field", "Transaction field"),
			shell.Optional("old_value", "Old value of field, which can be changed to a new_value (mandatory for EDIT action)"),
			shell.Optional("new_value", "New value that can be used to fill the field"),
			shell.Required("constraint", "Set of constraints required for execution of an action in json format").Of(shell.ShapeJSON),
		),
		write("auth-rules", "Send AUTH_RULES request to change authentication rules for multiple ledger transactions.", authRules,
			[]string{"ledger auth-rules rules=[{\"auth_type\":\"1\",\"auth_action\":\"ADD\",\"field\":\"role\",\"new_value\":\"101\",\"constraint\":{\"sig_count\":1,\"role\":\"0\",\"constraint_id\":\"ROLE\",\"need_to_be_owner\":false}}]"},
			shell.Required("rules", "A list of auth rules in json format").Of(shell.ShapeJSON),
		),
		read("get-auth-rule", "Send GET_AUTH_RULE request to get authentication rules for ledger transactions.", getAuthRule,
			[]string{"ledger get-auth-rule", "ledger get-auth-rule txn_type=NYM action=ADD field=role new_value=101"},
			shell.Optional("txn_type", "Ledger transaction alias or associated value"),
			shell.Optional("action", "Type of action. One of: ADD, EDIT"),
			shell.Optional("field", "Transaction field"),
			shell.Optional("old_value", "Old value of field, which can be changed to a new_value (mandatory for EDIT action)"),
			shell.Optional("new_value", "New value that can be used to fill the field"),
		),
		{
			Group:    GroupLedger,
			Name:     "sign-multi",
			Help:     "Add multi signature by current DID to transaction.",
			Requires: shell.NeedWallet | shell.NeedIdentity,
			Params:   []shell.ParamSpec{shell.Optional("txn", "Transaction json. Use the transaction stored in CLI context if not specified")},
			Examples: []string{"ledger sign-multi"},
			Run:      signMulti,
		},
		{
			Group:    GroupLedger,
			Name:     "endorse",
			Help:     "Endorse transaction to the ledger preserving an original author.",
			Requires: actionRequires,
			Params:   []shell.ParamSpec{shell.Optional("txn", "Transaction json. Use the transaction stored in CLI context if not specified")},
			Examples: []string{"ledger endorse"},
			Run:      endorse,
		},
		{
			Group:    GroupLedger,
			Name:     "save-transaction",
			Help:     "Save transaction from CLI context into a file.",
			Requires: shell.NeedTransaction,
			Params:   []shell.ParamSpec{shell.Required("file", "The path to file")},
			Examples: []string{"ledger save-transaction file=/home/file.txt"},
			Run:      saveTransaction,
		},
		{
			Group:    GroupLedger,
			Name:     "load-transaction",
			Help:     "Read transaction from a file and store it into CLI context.",
			Params:   []shell.ParamSpec{shell.Required("file", "The path to file containing a transaction to load")},
			Examples: []string{"ledger load-transaction file=/home/file.txt"},
			Run:      loadTransaction,
		},
		write("txn-author-agreement", "Send Transaction Author Agreement to the ledger.", txnAuthorAgreement,
			[]string{"ledger txn-author-agreement text=\"Indy transaction agreement\" version=1 ratification-timestamp=123456789"},
			shell.Optional("text", "The content of a new agreement"),
			shell.Optional("file", "The path to the file containing the content of a new agreement"),
			shell.Required("version", "The version of a new agreement"),
			shell.Optional("ratification-timestamp", "The date (timestamp) of TAA ratification by network government").Of(shell.ShapeInt),
			shell.Optional("retirement-timestamp", "The date (timestamp) of TAA retirement").Of(shell.ShapeInt),
		),
		write("disable-all-txn-author-agreements", "Disable All Transaction Author Agreements on the ledger.", disableAllTxnAuthorAgreements,
			[]string{"ledger disable-all-txn-author-agreements"},
		),
		write("txn-acceptance-mechanisms", "Send TAA Acceptance Mechanisms to the ledger.", txnAcceptanceMechanisms,
			[]string{"ledger txn-acceptance-mechanisms aml={\"Click Agreement\":\"some description\"} version=1"},
			shell.Optional("aml", "The set of new acceptance mechanisms").Of(shell.ShapeJSON),
			shell.Optional("file", "The path to the file containing a set of acceptance mechanisms to be used for TAA acceptance"),
			shell.Required("version", "The version of a new set of acceptance mechanisms"),
			shell.Optional("context", "Common context information about acceptance mechanisms (may be a URL to external resource)"),
		),
		read("get-acceptance-mechanisms", "Get a list of Acceptance Mechanisms set on the ledger.", getAcceptanceMechanisms,
			[]string{"ledger get-acceptance-mechanisms", "ledger get-acceptance-mechanisms version=1"},
			shell.Optional("timestamp", "The time to get an active acceptance mechanisms. Skip to get the latest one").Of(shell.ShapeInt),
			shell.Optional("version", "The version of acceptance mechanisms"),
		),
		write("ledgers-freeze", "Freeze ledgers.", ledgersFreeze,
			[]string{"ledger ledgers-freeze ledgers_ids=1,2,3"},
			shell.Required("ledgers_ids", "List of ledgers IDs for freezing").Of(shell.ShapeList),
		),
		read("get-frozen-ledgers", "Get a list of frozen ledgers.", getFrozenLedgers,
			[]string{"ledger get-frozen-ledgers"},
		),
	}
}

func optString(p *shell.Params, name string) *string {
	if v, ok := p.Lookup(name); ok {
		return &v
	}
	return nil
}

func optInt(p *shell.Params, name string) *int64 {
	if v, ok := p.Int(name); ok {
		return &v
	}
	return nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func roleTitles(data map[string]any) {
	if v, ok := data["role"]; ok {
		data["role"] = ledger.RoleTitle(str(v))
	}
}

var nymColumns = []output.Column{
	{Key: "dest", Title: "Did"},
	{Key: "verkey", Title: "Verkey"},
	{Key: "role", Title: "Role"},
}

func nym(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	req, err := builder(sess).Nym(submitter(sess), p.String("did"), p.String("verkey"), optString(p, "role"))
	if err != nil {
		return nil, err
	}
	return handleWrite(ctx, inv, req, view{
		title:   "Nym request has been sent to Ledger.",
		columns: nymColumns,
		adjust:  roleTitles,
	})
}

func getNym(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	sess := inv.Session
	req := builder(sess).GetNym(submitter(sess), inv.Params.String("did"))
	return handleRead(ctx, inv, req, view{
		title:    "Following NYM has been received.",
		nested:   "data",
		notFound: "NYM not found",
		columns: []output.Column{
			{Key: "identifier", Title: "Identifier"},
			{Key: "dest", Title: "Dest"},
			{Key: "verkey", Title: "Verkey"},
			{Key: "role", Title: "Role"},
		},
		adjust: roleTitles,
	})
}

func attrib(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	req, err := builder(sess).Attrib(submitter(sess), p.String("did"), p.String("hash"), p.JSON("raw"), p.String("enc"))
	if err != nil {
		return nil, err
	}
	return handleWrite(ctx, inv, req, view{
		title: "Attrib request has been sent to Ledger.",
		columns: []output.Column{
			{Key: "dest", Title: "Did"},
			{Key: "raw", Title: "Raw value"},
			{Key: "hash", Title: "Hashed value"},
			{Key: "enc", Title: "Encrypted value"},
		},
	})
}

func getAttrib(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	req, err := builder(sess).GetAttrib(submitter(sess), p.String("did"), p.String("raw"), p.String("hash"), p.String("enc"))
	if err != nil {
		return nil, err
	}
	return handleRead(ctx, inv, req, view{
		title:    "Following ATTRIB has been received.",
		notFound: "Attribute not found",
		columns: []output.Column{
			{Key: "raw", Title: "Raw attribute name"},
			{Key: "hash", Title: "Attribute hash"},
			{Key: "enc", Title: "Encrypted attribute"},
			{Key: "data", Title: "Data"},
		},
	})
}

var schemaColumns = []output.Column{
	{Key: "name", Title: "Name"},
	{Key: "version", Title: "Version"},
	{Key: "attr_names", Title: "Attributes"},
}

func schema(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	req, err := builder(sess).Schema(submitter(sess), p.String("name"), p.String("version"), p.List("attr_names"))
	if err != nil {
		return nil, err
	}
	return handleWrite(ctx, inv, req, view{
		title:   "Schema request has been sent to Ledger.",
		nested:  "data",
		columns: schemaColumns,
	})
}

func getSchema(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	req := builder(sess).GetSchema(submitter(sess), p.String("did"), p.String("name"), p.String("version"))
	return handleRead(ctx, inv, req, view{
		title:    "Following Schema has been received.",
		nested:   "data",
		notFound: "Schema not found",
		columns:  schemaColumns,
	})
}

var credDefColumns = []output.Column{
	{Key: "primary", Title: "Primary Key"},
	{Key: "revocation", Title: "Revocation Key"},
}

func credDef(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	req, err := builder(sess).CredDef(submitter(sess), p.String("schema_id"), p.String("signature_type"),
		p.String("tag"), p.JSON("primary"), p.JSON("revocation"))
	if err != nil {
		return nil, err
	}
	return handleWrite(ctx, inv, req, view{
		title:   "Credential Definition request has been sent to Ledger.",
		nested:  "data",
		columns: credDefColumns,
	})
}

func getCredDef(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	req, err := builder(sess).GetCredDef(submitter(sess), p.String("schema_id"), p.String("signature_type"),
		p.String("tag"), p.String("origin"))
	if err != nil {
		return nil, err
	}
	return handleRead(ctx, inv, req, view{
		title:    "Following Credential Definition has been received.",
		nested:   "data",
		notFound: "Credential Definition not found",
		columns:  credDefColumns,
	})
}

func node(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	nodePort, _ := p.Int("node_port")
	clientPort, _ := p.Int("client_port")
	req, err := builder(sess).Node(submitter(sess), p.String("target"), ledger.NodeData{
		Alias:      p.String("alias"),
		NodeIP:     p.String("node_ip"),
		NodePort:   nodePort,
		ClientIP:   p.String("client_ip"),
		ClientPort: clientPort,
		BLSKey:     p.String("blskey"),
		BLSKeyPoP:  p.String("blskey_pop"),
		Services:   p.List("services"),
	})
	if err != nil {
		return nil, err
	}
	return handleWrite(ctx, inv, req, view{
		title:  "Node request has been sent to Ledger.",
		nested: "data",
		columns: []output.Column{
			{Key: "alias", Title: "Alias"},
			{Key: "node_ip", Title: "Node Ip"},
			{Key: "node_port", Title: "Node Port"},
			{Key: "client_ip", Title: "Client Ip"},
			{Key: "client_port", Title: "Client Port"},
			{Key: "services", Title: "Services"},
			{Key: "blskey", Title: "Blskey"},
			{Key: "blskey_pop", Title: "Blskey Proof of Possession"},
		},
	})
}

func getValidatorInfo(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	sess := inv.Session
	req := builder(sess).ValidatorInfo(submitter(sess))
	return handleAction(ctx, inv, req, "Validator Info:")
}

func poolUpgrade(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	timeout, _ := p.Int("timeout")
	req, err := builder(sess).PoolUpgrade(submitter(sess), ledger.PoolUpgrade{
		Name:          p.String("name"),
		Version:       p.String("version"),
		Action:        p.String("action"),
		SHA256:        p.String("sha256"),
		Timeout:       timeout,
		Schedule:      p.JSON("schedule"),
		Justification: p.String("justification"),
		Reinstall:     p.Bool("reinstall"),
		Force:         p.Bool("force"),
		Package:       p.String("package"),
	})
	if err != nil {
		return nil, err
	}
	return handleWrite(ctx, inv, req, view{
		title: "Pool Upgrade request has been sent to Ledger.",
		columns: []output.Column{
			{Key: "name", Title: "Name"},
			{Key: "action", Title: "Action"},
			{Key: "version", Title: "Version"},
			{Key: "timeout", Title: "Timeout"},
			{Key: "schedule", Title: "Schedule"},
			{Key: "justification", Title: "Justification"},
			{Key: "sha256", Title: "Sha256"},
			{Key: "reinstall", Title: "Reinstall"},
			{Key: "force", Title: "Force Apply"},
			{Key: "package", Title: "Package Name"},
		},
	})
}

func poolConfig(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	req := builder(sess).PoolConfig(submitter(sess), p.Bool("writes"), p.Bool("force"))
	return handleWrite(ctx, inv, req, view{
		title: "Pool Config request has been sent to Ledger.",
		columns: []output.Column{
			{Key: "writes", Title: "Writes"},
			{Key: "force", Title: "Force Apply"},
		},
	})
}

func poolRestart(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	req, err := builder(sess).PoolRestart(submitter(sess), p.String("action"), p.String("datetime"))
	if err != nil {
		return nil, err
	}
	return handleAction(ctx, inv, req, "Restart pool response:")
}

var authRuleColumns = []output.Column{
	{Key: "auth_type", Title: "Type"},
	{Key: "auth_action", Title: "Action"},
	{Key: "field", Title: "Field"},
	{Key: "old_value", Title: "Old Value"},
	{Key: "new_value", Title: "New Value"},
	{Key: "constraint", Title: "Constraint"},
}

func authRule(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	req, err := builder(sess).AuthRule(submitter(sess), p.String("txn_type"), p.String("action"), p.String("field"),
		optString(p, "old_value"), optString(p, "new_value"), p.JSON("constraint"))
	if err != nil {
		return nil, err
	}
	return handleWrite(ctx, inv, req, view{
		title:   "Auth Rule request has been sent to Ledger.",
		columns: authRuleColumns,
		adjust: func(data map[string]any) {
			data["auth_type"] = ledger.TxnTitle(str(data["auth_type"]))
		},
	})
}

func authRules(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	sess := inv.Session
	req, err := builder(sess).AuthRules(submitter(sess), inv.Params.JSON("rules"))
	if err != nil {
		return nil, err
	}
	return handleWrite(ctx, inv, req, view{
		title:   "Auth Rules request has been sent to Ledger.",
		columns: []output.Column{{Key: "rules", Title: "Rules"}},
	})
}

func getAuthRule(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	req, err := builder(sess).GetAuthRule(submitter(sess), ledger.AuthRuleQuery{
		TxnType:  p.String("txn_type"),
		Action:   p.String("action"),
		Field:    p.String("field"),
		OldValue: optString(p, "old_value"),
		NewValue: optString(p, "new_value"),
	})
	if err != nil {
		return nil, err
	}

	reply, created, err := sendRead(ctx, inv, req)
	if err != nil || reply == nil {
		return created, err
	}
	rules, _ := ledger.ResultField(reply.Result, "data").([]any)
	if len(rules) == 0 {
		return nil, shell.Failf("There are no rules set")
	}

	records := make([]map[string]any, 0, len(rules))
	for _, r := range rules {
		rule := asObject(r)
		rule["auth_type"] = ledger.TxnTitle(str(rule["auth_type"]))
		records = append(records, rule)
	}
	return output.NewResult().
		Success("Following Rules has been received.").
		Table(output.TableFromRecords(authRuleColumns, records...)), nil
}

// textOrFile returns the value of the text param or the content of the
// file param. At most one may be given; nil means neither was.
func textOrFile(p *shell.Params, text, file string) (*string, error) {
	t, hasText := p.Lookup(text)
	path, hasFile := p.Lookup(file)
	switch {
	case hasText && hasFile:
		return nil, shell.Failf("Only one of the parameters `%s` and `%s` can be specified", text, file)
	case hasText:
		return &t, nil
	case hasFile:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, shell.IO(path, err)
		}
		content := string(data)
		return &content, nil
	}
	return nil, nil
}

func txnAuthorAgreement(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	text, err := textOrFile(p, "text", "file")
	if err != nil {
		return nil, err
	}
	req, err := builder(sess).TxnAuthorAgreement(submitter(sess), text, p.String("version"),
		optInt(p, "ratification-timestamp"), optInt(p, "retirement-timestamp"))
	if err != nil {
		return nil, err
	}
	return handleWrite(ctx, inv, req, view{
		title: "Transaction Author Agreement has been sent to Ledger.",
		columns: []output.Column{
			{Key: "text", Title: "Text"},
			{Key: "version", Title: "Version"},
			{Key: "ratification_ts", Title: "Ratification Time"},
			{Key: "retirement_ts", Title: "Retirement Time"},
		},
	})
}

func disableAllTxnAuthorAgreements(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	sess := inv.Session
	req := builder(sess).DisableAllTxnAuthorAgreements(submitter(sess))
	return handleWrite(ctx, inv, req, view{
		title: "All Transaction Author Agreements on the Ledger have been disabled",
	})
}

func txnAcceptanceMechanisms(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session

	aml := p.JSON("aml")
	path, hasFile := p.Lookup("file")
	switch {
	case len(aml) > 0 && hasFile:
		return nil, shell.Failf("Only one of the parameters `aml` and `file` can be specified")
	case hasFile:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, shell.IO(path, err)
		}
		aml = json.RawMessage(data)
	case len(aml) == 0:
		return nil, shell.Failf("Either `aml` or `file` parameter must be specified")
	}

	req, err := builder(sess).AcceptanceMechanisms(submitter(sess), aml, p.String("version"), p.String("context"))
	if err != nil {
		return nil, err
	}
	return handleWrite(ctx, inv, req, view{
		title: "Acceptance Mechanisms have been sent to Ledger.",
		columns: []output.Column{
			{Key: "aml", Title: "Text"},
			{Key: "version", Title: "Version"},
			{Key: "amlContext", Title: "Context"},
		},
	})
}

func getAcceptanceMechanisms(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	p, sess := inv.Params, inv.Session
	req, err := builder(sess).GetAcceptanceMechanisms(submitter(sess), optInt(p, "timestamp"), p.String("version"))
	if err != nil {
		return nil, err
	}

	reply, created, err := sendRead(ctx, inv, req)
	if err != nil || reply == nil {
		return created, err
	}
	raw, err := ledger.ResultData(reply.Result)
	if err != nil {
		return nil, err
	}
	data := asObject(raw)
	aml := asObject(data["aml"])
	if len(aml) == 0 {
		return output.NewResult().Text("There are no acceptance mechanisms"), nil
	}

	labels := make([]string, 0, len(aml))
	for label := range aml {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	t := output.NewTable("Label", "Description")
	for _, label := range labels {
		t.AddRow(label, output.Cell(aml[label]))
	}
	res := output.NewResult().
		Success("Following Acceptance Mechanisms are set on the Ledger").
		Table(t).
		Text("Version: " + output.Cell(data["version"]))
	if c := data["amlContext"]; c != nil {
		res.Text("Context: " + output.Cell(c))
	}
	return res, nil
}

func ledgersFreeze(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	sess := inv.Session
	req, err := builder(sess).LedgersFreeze(submitter(sess), inv.Params.List("ledgers_ids"))
	if err != nil {
		return nil, err
	}
	return handleWrite(ctx, inv, req, view{
		title:   "Ledgers freeze request has been sent to Ledger.",
		columns: []output.Column{{Key: "ledgers_ids", Title: "Ledgers IDs"}},
	})
}

func getFrozenLedgers(ctx context.Context, inv *shell.Invocation) (*output.Result, error) {
	sess := inv.Session
	req := builder(sess).GetFrozenLedgers(submitter(sess))

	reply, created, err := sendRead(ctx, inv, req)
	if err != nil || reply == nil {
		return created, err
	}
	raw, err := ledger.ResultData(reply.Result)
	if err != nil {
		return nil, err
	}
	frozen := asObject(raw)
	if len(frozen) == 0 {
		return output.NewResult().Text("There are no frozen ledgers"), nil
	}

	ids := make([]string, 0, len(frozen))
	for id := range frozen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	t := output.NewTable("Ledger", "Ledger Root", "State Root", "Seq No")
	for _, id := range ids {
		entry := asObject(frozen[id])
		t.AddRow(id, output.Cell(entry["ledger"]), output.Cell(entry["state"]), output.Cell(entry["seq_no"]))
	}
	return output.NewResult().Success("Frozen ledgers has been received.").Table(t), nil
}
