package wallet

import (
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/argon2"

	"github.com/pradeepp88/indy-cli-go/internal/sdk"
)

const saltSize = 16

// Argon2 parameters per derivation method. argon2m is the moderate
// profile, argon2i the interactive one.
const (
	argon2mTime   = 3
	argon2mMemory = 64 * 1024
	argon2iTime   = 4
	argon2iMemory = 32 * 1024
	argon2Threads = 4
)

// deriveKey turns a wallet passphrase into a sealing key. The raw method
// takes the key itself as base58 and ignores the salt.
func deriveKey(method, passphrase string, salt []byte) ([]byte, error) {
	switch method {
	case "", sdk.KeyDerivationArgon2m:
		return argon2.IDKey([]byte(passphrase), salt, argon2mTime, argon2mMemory, argon2Threads, keySize), nil
	case sdk.KeyDerivationArgon2i:
		return argon2.Key([]byte(passphrase), salt, argon2iTime, argon2iMemory, argon2Threads, keySize), nil
	case sdk.KeyDerivationRaw:
		key, err := base58.Decode(passphrase)
		if err != nil || len(key) != keySize {
			return nil, fmt.Errorf("%w: raw key must be base58 of %d bytes", sdk.ErrInvalidWalletKey, keySize)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unknown key derivation method %q", method)
	}
}

func newSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// GenerateRawKey returns a random key usable with the raw derivation method.
func GenerateRawKey() (string, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base58.Encode(key), nil
}
