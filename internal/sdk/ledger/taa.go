package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// Acceptance records that the author accepted an agreement.
type Acceptance struct {
	Mechanism string `json:"mechanism"`
	Digest    string `json:"taaDigest"`
	// Time is the acceptance time in unix seconds, rounded down to the day.
	Time int64 `json:"time"`
}

// AgreementDigest is sha256 over version followed by text, hex encoded.
func AgreementDigest(text, version string) string {
	sum := sha256.Sum256([]byte(version + text))
	return hex.EncodeToString(sum[:])
}

// NewAcceptance accepts an agreement at t. An explicit digest wins over
// one computed from text and version.
func NewAcceptance(mechanism, text, version, digest string, t time.Time) Acceptance {
	if digest == "" {
		digest = AgreementDigest(text, version)
	}
	ts := t.Unix()
	return Acceptance{
		Mechanism: mechanism,
		Digest:    digest,
		Time:      ts - ts%secondsPerDay,
	}
}

// Agreement is a transaction author agreement read from the ledger.
type Agreement struct {
	Text           string `json:"text"`
	Version        string `json:"version"`
	Digest         string `json:"digest"`
	RatificationTS int64  `json:"ratification_ts"`
}

// ParseAgreement reads the result of GET_TXN_AUTHR_AGRMT. It returns nil
// when the ledger has no agreement or the agreement is empty.
func ParseAgreement(result json.RawMessage) (*Agreement, error) {
	var r struct {
		Data *Agreement `json:"data"`
	}
	if err := json.Unmarshal(result, &r); err != nil {
		return nil, fmt.Errorf("invalid agreement reply: %w", err)
	}
	if r.Data == nil || r.Data.Text == "" {
		return nil, nil
	}
	if r.Data.Digest == "" {
		r.Data.Digest = AgreementDigest(r.Data.Text, r.Data.Version)
	}
	return r.Data, nil
}
