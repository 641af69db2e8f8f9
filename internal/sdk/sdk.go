// Package sdk declares the capabilities command handlers drive.
//
// The interpreter only sees these interfaces. The local implementations
// live in the wallet, pool, did and ledger subpackages; tests substitute
// fakes.
package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Key derivation methods for wallet keys.
const (
	KeyDerivationArgon2m = "argon2m"
	KeyDerivationArgon2i = "argon2i"
	KeyDerivationRaw     = "raw"
)

// DefaultStorageType is the only storage backend the local wallets provide.
const DefaultStorageType = "default"

// DefaultProtocolVersion is the node protocol version used when none was set.
const DefaultProtocolVersion = 2

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrWalletExists        = errors.New("wallet already exists")
	ErrWalletAlreadyOpened = errors.New("wallet is already opened")
	ErrInvalidWalletKey    = errors.New("invalid wallet key")
	ErrUnknownStorageType  = errors.New("unknown wallet storage type")
	ErrPoolNotFound        = errors.New("pool not found")
	ErrPoolExists          = errors.New("pool already exists")
	ErrDIDNotFound         = errors.New("did not found in wallet")
	ErrDIDExists           = errors.New("did already exists in wallet")
	ErrNoPendingKey        = errors.New("no pending key rotation")
)

// WalletConfig identifies a wallet and its storage.
type WalletConfig struct {
	ID            string          `json:"id"`
	StorageType   string          `json:"storage_type,omitempty"`
	StorageConfig json.RawMessage `json:"storage_config,omitempty"`
}

// Credentials unlock a wallet.
type Credentials struct {
	Key                string
	KeyDerivation      string
	Rekey              string
	RekeyDerivation    string
	StorageCredentials json.RawMessage
}

// ExportConfig locates and protects a wallet backup file.
type ExportConfig struct {
	Path          string
	Key           string
	KeyDerivation string
}

// DIDInfo is a DID stored in a wallet.
type DIDInfo struct {
	DID        string `json:"did"`
	Verkey     string `json:"verkey"`
	Method     string `json:"method,omitempty"`
	Metadata   string `json:"metadata,omitempty"`
	NextVerkey string `json:"next_verkey,omitempty"`
}

// DIDOptions controls DID creation. Empty fields take defaults.
type DIDOptions struct {
	DID      string
	Seed     string
	Method   string
	Metadata string
}

// Wallets manages wallet configurations and opens wallets.
type Wallets interface {
	Create(ctx context.Context, cfg WalletConfig, creds Credentials) error
	Attach(cfg WalletConfig) error
	Open(ctx context.Context, name string, creds Credentials) (Wallet, error)
	Delete(ctx context.Context, name string, creds Credentials) error
	Detach(name string) error
	List() ([]WalletConfig, error)
	Import(ctx context.Context, cfg WalletConfig, creds Credentials, from ExportConfig) error
}

// Wallet is an open wallet handle. Close releases it.
type Wallet interface {
	Name() string
	Close() error
	Export(ctx context.Context, to ExportConfig) error

	CreateDID(ctx context.Context, opts DIDOptions) (DIDInfo, error)
	ListDIDs(ctx context.Context) ([]DIDInfo, error)
	GetDID(ctx context.Context, did string) (DIDInfo, error)
	SetMetadata(ctx context.Context, did, metadata string) error
	QualifyDID(ctx context.Context, did, method string) (string, error)

	// ReplaceKeysStart stores a pending verkey and returns it.
	ReplaceKeysStart(ctx context.Context, did, seed string) (string, error)
	// ReplaceKeysApply promotes the pending verkey.
	ReplaceKeysApply(ctx context.Context, did string) error

	Sign(ctx context.Context, did string, msg []byte) ([]byte, error)
}

// PoolConfig is a stored pool ledger configuration.
type PoolConfig struct {
	Name       string `json:"name"`
	GenesisTxn string `json:"genesis_txn"`
}

// PoolOptions tune a pool connection. Zero values take defaults.
type PoolOptions struct {
	ProtocolVersion int
	Timeout         time.Duration
	ExtendedTimeout time.Duration
	PreorderedNodes []string
	NumberReadNodes int
}

// Pools manages pool configurations and opens connections.
type Pools interface {
	Create(name, genesisPath string) error
	Delete(name string) error
	List() ([]PoolConfig, error)
	Open(ctx context.Context, name string, opts PoolOptions) (Pool, error)
}

// Pool is an open pool connection. Close releases it.
type Pool interface {
	Name() string
	Close() error
	Refresh(ctx context.Context) error

	// Submit sends a request and returns the consensus reply.
	Submit(ctx context.Context, request []byte) ([]byte, error)

	// SubmitAction sends a request to the given nodes (all when empty)
	// and returns each node's raw reply.
	SubmitAction(ctx context.Context, request []byte, nodes []string, timeout time.Duration) (map[string]json.RawMessage, error)
}
