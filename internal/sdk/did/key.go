package did

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// SeedSize is the length of a key seed in bytes.
const SeedSize = ed25519.SeedSize

// ErrInvalidSeed is returned for seeds that cannot be decoded to 32 bytes.
var ErrInvalidSeed = errors.New("invalid seed: expected 32 characters, 64 hex characters or base64 of 32 bytes")

// ErrInvalidVerkey is returned for verkeys that do not decode to a public key.
var ErrInvalidVerkey = errors.New("invalid verkey")

// Key is an ed25519 signing key.
type Key struct {
	priv ed25519.PrivateKey
}

// ParseSeed decodes an operator supplied seed. Exactly 32 characters are
// taken as raw bytes; otherwise hex and then base64 are tried.
func ParseSeed(seed string) ([]byte, error) {
	if len(seed) == SeedSize {
		return []byte(seed), nil
	}
	if len(seed) == hex.EncodedLen(SeedSize) {
		if b, err := hex.DecodeString(seed); err == nil {
			return b, nil
		}
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(seed); err == nil && len(b) == SeedSize {
			return b, nil
		}
	}
	return nil, ErrInvalidSeed
}

// FromSeed derives a key from a seed string. An empty seed generates a
// random key.
func FromSeed(seed string) (*Key, error) {
	if seed == "" {
		return Generate()
	}
	raw, err := ParseSeed(seed)
	if err != nil {
		return nil, err
	}
	return FromSeedBytes(raw), nil
}

// FromSeedBytes derives a key from 32 seed bytes.
func FromSeedBytes(seed []byte) *Key {
	return &Key{priv: ed25519.NewKeyFromSeed(seed)}
}

// Generate creates a random key.
func Generate() (*Key, error) {
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return FromSeedBytes(seed), nil
}

// Seed returns the 32 byte seed the key was derived from.
func (k *Key) Seed() []byte {
	return k.priv.Seed()
}

// Public returns the raw public key.
func (k *Key) Public() ed25519.PublicKey {
	return k.priv.Public().(ed25519.PublicKey)
}

// DID returns the unqualified DID of the key.
func (k *Key) DID() string {
	return base58.Encode(k.Public()[:16])
}

// Verkey returns the full base58 verification key.
func (k *Key) Verkey() string {
	return base58.Encode(k.Public())
}

// AbbreviatedVerkey returns the verkey in the ~ form relative to the key's
// own DID.
func (k *Key) AbbreviatedVerkey() string {
	return "~" + base58.Encode(k.Public()[16:])
}

// Sign signs msg.
func (k *Key) Sign(msg []byte) []byte {
	return ed25519.Sign(k.priv, msg)
}

// ExpandVerkey resolves an abbreviated verkey against its DID. Full verkeys
// are returned unchanged.
func ExpandVerkey(did, verkey string) (string, error) {
	if len(verkey) == 0 || verkey[0] != '~' {
		return verkey, nil
	}
	head, err := base58.Decode(Unqualify(did))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidVerkey, err)
	}
	tail, err := base58.Decode(verkey[1:])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidVerkey, err)
	}
	full := append(head, tail...)
	if len(full) != ed25519.PublicKeySize {
		return "", ErrInvalidVerkey
	}
	return base58.Encode(full), nil
}

// AbbreviateVerkey returns verkey in the ~ form when its leading bytes are
// the DID. Other verkeys are returned unchanged.
func AbbreviateVerkey(did, verkey string) (string, error) {
	if len(verkey) > 0 && verkey[0] == '~' {
		return verkey, nil
	}
	full, err := base58.Decode(verkey)
	if err != nil || len(full) != ed25519.PublicKeySize {
		return "", ErrInvalidVerkey
	}
	head, err := base58.Decode(Unqualify(did))
	if err != nil || !bytes.Equal(head, full[:16]) {
		return verkey, nil
	}
	return "~" + base58.Encode(full[16:]), nil
}

// Verify checks an ed25519 signature against a base58 verkey.
func Verify(verkey string, msg, sig []byte) (bool, error) {
	pub, err := base58.Decode(verkey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false, ErrInvalidVerkey
	}
	return ed25519.Verify(ed25519.PublicKey(pub), msg, sig), nil
}
