package ledger

// Transaction type codes.
const (
	TypeNode                         = "0"
	TypeNym                          = "1"
	TypeGetTxn                       = "3"
	TypeTxnAuthorAgreement           = "4"
	TypeTxnAuthorAgreementAML        = "5"
	TypeGetTxnAuthorAgreement        = "6"
	TypeGetTxnAuthorAgreementAML     = "7"
	TypeDisableAllTxnAuthorAgreement = "8"
	TypeLedgersFreeze                = "9"
	TypeGetFrozenLedgers             = "10"
	TypeAttrib                       = "100"
	TypeSchema                       = "101"
	TypeCredDef                      = "102"
	TypeGetAttr                      = "104"
	TypeGetNym                       = "105"
	TypeGetSchema                    = "107"
	TypeGetCredDef                   = "108"
	TypePoolUpgrade                  = "109"
	TypePoolConfig                   = "111"
	TypeRevocRegDef                  = "113"
	TypeRevocRegEntry                = "114"
	TypeGetRevocRegDef               = "115"
	TypeGetRevocReg                  = "116"
	TypeGetRevocRegDelta             = "117"
	TypePoolRestart                  = "118"
	TypeGetValidatorInfo             = "119"
	TypeAuthRule                     = "120"
	TypeGetAuthRule                  = "121"
	TypeAuthRules                    = "122"
)

var readTypes = map[string]bool{
	TypeGetTxn:                   true,
	TypeGetTxnAuthorAgreement:    true,
	TypeGetTxnAuthorAgreementAML: true,
	TypeGetFrozenLedgers:         true,
	TypeGetAttr:                  true,
	TypeGetNym:                   true,
	TypeGetSchema:                true,
	TypeGetCredDef:               true,
	TypeGetRevocRegDef:           true,
	TypeGetRevocReg:              true,
	TypeGetRevocRegDelta:         true,
	TypeGetAuthRule:              true,
}

var txnTitles = map[string]string{
	TypeNode:                         "NODE",
	TypeNym:                          "NYM",
	TypeGetTxn:                       "GET_TXN",
	TypeTxnAuthorAgreement:           "TXN_AUTHR_AGRMT",
	TypeTxnAuthorAgreementAML:        "TXN_AUTHR_AGRMT_AML",
	TypeGetTxnAuthorAgreement:        "GET_TXN_AUTHR_AGRMT",
	TypeGetTxnAuthorAgreementAML:     "GET_TXN_AUTHR_AGRMT_AML",
	TypeDisableAllTxnAuthorAgreement: "DISABLE_ALL_TXN_AUTHR_AGRMTS",
	TypeLedgersFreeze:                "LEDGERS_FREEZE",
	TypeGetFrozenLedgers:             "GET_FROZEN_LEDGERS",
	TypeAttrib:                       "ATTRIB",
	TypeSchema:                       "SCHEMA",
	TypeCredDef:                      "CRED_DEF",
	TypeGetAttr:                      "GET_ATTR",
	TypeGetNym:                       "GET_NYM",
	TypeGetSchema:                    "GET_SCHEMA",
	TypeGetCredDef:                   "GET_CRED_DEF",
	TypePoolUpgrade:                  "POOL_UPGRADE",
	TypePoolConfig:                   "POOL_CONFIG",
	TypeRevocRegDef:                  "REVOC_REG_DEF",
	TypeRevocRegEntry:                "REVOC_REG_ENTRY",
	TypeGetRevocRegDef:               "GET_REVOC_REG_DEF",
	TypeGetRevocReg:                  "GET_REVOC_REG",
	TypeGetRevocRegDelta:             "GET_REVOC_REG_DELTA",
	TypePoolRestart:                  "POOL_RESTART",
	TypeGetValidatorInfo:             "GET_VALIDATOR_INFO",
	TypeAuthRule:                     "AUTH_RULE",
	TypeGetAuthRule:                  "GET_AUTH_RULE",
	TypeAuthRules:                    "AUTH_RULES",
}

// TxnTitle names a transaction type code. Unknown codes are returned
// as they are.
func TxnTitle(code string) string {
	if code == "" {
		return "-"
	}
	if t, ok := txnTitles[code]; ok {
		return t
	}
	return code
}

// Role codes.
const (
	RoleTrustee        = "0"
	RoleSteward        = "2"
	RoleEndorser       = "101"
	RoleNetworkMonitor = "201"
)

var roleCodes = map[string]string{
	"TRUSTEE":         RoleTrustee,
	"STEWARD":         RoleSteward,
	"ENDORSER":        RoleEndorser,
	"TRUST_ANCHOR":    RoleEndorser,
	"NETWORK_MONITOR": RoleNetworkMonitor,
}

// RoleCode maps a role name to its ledger code. Codes pass through.
func RoleCode(role string) (string, bool) {
	if code, ok := roleCodes[role]; ok {
		return code, true
	}
	for _, code := range roleCodes {
		if code == role {
			return code, true
		}
	}
	return "", false
}

// RoleTitle names a role code, "-" for none.
func RoleTitle(code string) string {
	switch code {
	case RoleTrustee:
		return "TRUSTEE"
	case RoleSteward:
		return "STEWARD"
	case RoleEndorser:
		return "ENDORSER"
	case RoleNetworkMonitor:
		return "NETWORK_MONITOR"
	default:
		return "-"
	}
}
