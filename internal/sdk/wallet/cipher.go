package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherType identifies the record sealing algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// keySize is the sealing key size for both ciphers.
const keySize = 32

var errCiphertextShort = errors.New("sealed value too short")

// DefaultCipher picks AES-GCM where Go uses hardware AES, ChaCha20-Poly1305
// elsewhere.
func DefaultCipher() CipherType {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return CipherAESGCM
	default:
		return CipherChaCha20
	}
}

// sealer encrypts record values. The nonce is prepended to the output.
type sealer struct {
	kind CipherType
	aead cipher.AEAD
}

func newSealer(kind CipherType, key []byte) (*sealer, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("sealing key must be %d bytes", keySize)
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch kind {
	case CipherAESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(key)
		if err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case CipherChaCha20:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("unknown cipher type %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return &sealer{kind: kind, aead: aead}, nil
}

func (s *sealer) seal(plaintext, ad []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plaintext, ad), nil
}

func (s *sealer) open(sealed, ad []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n {
		return nil, errCiphertextShort
	}
	return s.aead.Open(nil, sealed[:n], sealed[n:], ad)
}
