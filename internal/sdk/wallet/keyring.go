package wallet

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pradeepp88/indy-cli-go/internal/sdk"
)

const headerVersion = 1

// checkPlaintext is sealed under the wallet key to detect a wrong key.
const checkPlaintext = "indy-wallet-check"

var errNotInitialized = errors.New("wallet storage is not initialized")

// header is stored in clear; it holds what is needed to derive the key.
type header struct {
	Version int        `json:"version"`
	Cipher  CipherType `json:"cipher"`
	Salt    []byte     `json:"salt"`
}

func (h header) sealer(method, passphrase string) (*sealer, error) {
	key, err := deriveKey(method, passphrase, h.Salt)
	if err != nil {
		return nil, err
	}
	return newSealer(h.Cipher, key)
}

func newHeader(kind CipherType) (header, error) {
	salt, err := newSalt()
	if err != nil {
		return header{}, err
	}
	return header{Version: headerVersion, Cipher: kind, Salt: salt}, nil
}

// metaRecords returns the header and check records for a sealer.
func metaRecords(h header, sl *sealer) (map[string][]byte, error) {
	raw, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	check, err := sl.seal([]byte(checkPlaintext), []byte(keyCheck))
	if err != nil {
		return nil, err
	}
	return map[string][]byte{keyHeader: raw, keyCheck: check}, nil
}

func verifyCheck(sl *sealer, sealed []byte) error {
	plain, err := sl.open(sealed, []byte(keyCheck))
	if err != nil || string(plain) != checkPlaintext {
		return sdk.ErrInvalidWalletKey
	}
	return nil
}

// initStorage writes a fresh header and check value.
func initStorage(s *store, kind CipherType, method, passphrase string) (*sealer, error) {
	exists, err := s.has(keyHeader)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, sdk.ErrWalletExists
	}

	h, err := newHeader(kind)
	if err != nil {
		return nil, err
	}
	sl, err := h.sealer(method, passphrase)
	if err != nil {
		return nil, err
	}
	meta, err := metaRecords(h, sl)
	if err != nil {
		return nil, err
	}
	if err := s.write(meta); err != nil {
		return nil, err
	}
	return sl, nil
}

// unlock derives the wallet key and verifies it against the check value.
func unlock(s *store, method, passphrase string) (*sealer, error) {
	raw, err := s.get(keyHeader)
	if errors.Is(err, errRecordNotFound) {
		return nil, errNotInitialized
	}
	if err != nil {
		return nil, err
	}

	var h header
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("wallet header: %w", err)
	}
	sl, err := h.sealer(method, passphrase)
	if err != nil {
		return nil, err
	}

	check, err := s.get(keyCheck)
	if err != nil {
		return nil, fmt.Errorf("wallet check value: %w", err)
	}
	if err := verifyCheck(sl, check); err != nil {
		return nil, err
	}
	return sl, nil
}

// rekey re-seals every record under a key derived from a new passphrase
// and salt, in one transaction.
func rekey(s *store, old *sealer, method, passphrase string) (*sealer, error) {
	h, err := newHeader(old.kind)
	if err != nil {
		return nil, err
	}
	next, err := h.sealer(method, passphrase)
	if err != nil {
		return nil, err
	}

	records, err := s.records()
	if err != nil {
		return nil, err
	}
	puts, err := metaRecords(h, next)
	if err != nil {
		return nil, err
	}
	for key, sealed := range records {
		plain, err := old.open(sealed, []byte(key))
		if err != nil {
			return nil, fmt.Errorf("rekey %s: %w", key, err)
		}
		if puts[key], err = next.seal(plain, []byte(key)); err != nil {
			return nil, err
		}
	}

	if err := s.write(puts); err != nil {
		return nil, err
	}
	return next, nil
}
