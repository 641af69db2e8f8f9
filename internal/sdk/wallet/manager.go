package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pradeepp88/indy-cli-go/internal/sdk"
)

const (
	configFileName = "config.json"
	dbDirName      = "db"
)

// Manager implements sdk.Wallets over a directory of wallets.
type Manager struct {
	root   string
	cipher CipherType
	logger *slog.Logger

	mu     sync.Mutex
	opened map[string]bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for storage diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithCipher sets the cipher used for newly created wallets.
func WithCipher(kind CipherType) Option {
	return func(m *Manager) {
		m.cipher = kind
	}
}

// NewManager creates a manager rooted at dir.
func NewManager(dir string, opts ...Option) *Manager {
	m := &Manager{
		root:   dir,
		cipher: DefaultCipher(),
		logger: slog.Default(),
		opened: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ sdk.Wallets = (*Manager)(nil)

// storageConfig is the storage_config understood by the default storage.
type storageConfig struct {
	Path string `json:"path"`
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid wallet name %q", name)
	}
	return nil
}

func validateType(cfg sdk.WalletConfig) error {
	if cfg.StorageType != "" && cfg.StorageType != sdk.DefaultStorageType {
		return fmt.Errorf("%w: %s", sdk.ErrUnknownStorageType, cfg.StorageType)
	}
	return nil
}

func (m *Manager) dir(name string) string {
	return filepath.Join(m.root, name)
}

func (m *Manager) configPath(name string) string {
	return filepath.Join(m.dir(name), configFileName)
}

// storageDir is <path>/<name> when storage_config names a path, else the
// db directory inside the wallet directory.
func (m *Manager) storageDir(cfg sdk.WalletConfig) (string, error) {
	if len(cfg.StorageConfig) > 0 && string(cfg.StorageConfig) != "null" {
		var sc storageConfig
		if err := json.Unmarshal(cfg.StorageConfig, &sc); err != nil {
			return "", fmt.Errorf("invalid storage_config: %w", err)
		}
		if sc.Path != "" {
			return filepath.Join(sc.Path, cfg.ID), nil
		}
	}
	return filepath.Join(m.dir(cfg.ID), dbDirName), nil
}

func (m *Manager) readConfig(name string) (sdk.WalletConfig, error) {
	raw, err := os.ReadFile(m.configPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return sdk.WalletConfig{}, fmt.Errorf("%w: %s", sdk.ErrWalletNotFound, name)
	}
	if err != nil {
		return sdk.WalletConfig{}, err
	}
	var cfg sdk.WalletConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return sdk.WalletConfig{}, fmt.Errorf("wallet %s config: %w", name, err)
	}
	return cfg, nil
}

func (m *Manager) writeConfig(cfg sdk.WalletConfig) error {
	if _, err := os.Stat(m.configPath(cfg.ID)); err == nil {
		return fmt.Errorf("%w: %s", sdk.ErrWalletExists, cfg.ID)
	}
	if err := os.MkdirAll(m.dir(cfg.ID), 0o700); err != nil {
		return err
	}
	if cfg.StorageType == "" {
		cfg.StorageType = sdk.DefaultStorageType
	}
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.configPath(cfg.ID), raw, 0o600)
}

// Create registers a wallet and initializes its storage.
func (m *Manager) Create(ctx context.Context, cfg sdk.WalletConfig, creds sdk.Credentials) error {
	s, _, err := m.create(cfg, creds)
	if err != nil {
		return err
	}
	return s.close()
}

func (m *Manager) create(cfg sdk.WalletConfig, creds sdk.Credentials) (*store, *sealer, error) {
	if err := validateName(cfg.ID); err != nil {
		return nil, nil, err
	}
	if err := validateType(cfg); err != nil {
		return nil, nil, err
	}
	dir, err := m.storageDir(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := m.writeConfig(cfg); err != nil {
		return nil, nil, err
	}

	var sl *sealer
	s, err := openStore(dir, m.logger)
	if err == nil {
		if sl, err = initStorage(s, m.cipher, creds.KeyDerivation, creds.Key); err != nil {
			s.close()
		}
	}
	if err != nil {
		if errors.Is(err, sdk.ErrWalletExists) {
			os.Remove(m.configPath(cfg.ID))
			err = fmt.Errorf("%w: storage already initialized at %s", sdk.ErrWalletExists, dir)
		} else {
			os.RemoveAll(m.dir(cfg.ID))
		}
		return nil, nil, err
	}

	m.logger.Debug("wallet created", "wallet", cfg.ID, "storage", dir)
	return s, sl, nil
}

// Attach registers an existing storage without touching it.
func (m *Manager) Attach(cfg sdk.WalletConfig) error {
	if err := validateName(cfg.ID); err != nil {
		return err
	}
	if err := validateType(cfg); err != nil {
		return err
	}
	if _, err := m.storageDir(cfg); err != nil {
		return err
	}
	return m.writeConfig(cfg)
}

// Open unlocks a wallet. A Rekey in creds re-seals it under the new key.
func (m *Manager) Open(ctx context.Context, name string, creds sdk.Credentials) (sdk.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opened[name] {
		return nil, fmt.Errorf("%w: %s", sdk.ErrWalletAlreadyOpened, name)
	}

	s, sl, err := m.unlock(name, creds)
	if err != nil {
		return nil, err
	}

	if creds.Rekey != "" {
		sl, err = rekey(s, sl, creds.RekeyDerivation, creds.Rekey)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("rekey wallet %s: %w", name, err)
		}
		m.logger.Debug("wallet rekeyed", "wallet", name)
	}

	m.opened[name] = true
	return &Wallet{name: name, store: s, sealer: sl, release: m.release}, nil
}

func (m *Manager) unlock(name string, creds sdk.Credentials) (*store, *sealer, error) {
	cfg, err := m.readConfig(name)
	if err != nil {
		return nil, nil, err
	}
	if err := validateType(cfg); err != nil {
		return nil, nil, err
	}
	dir, err := m.storageDir(cfg)
	if err != nil {
		return nil, nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, nil, fmt.Errorf("%w: storage of %s is missing", sdk.ErrWalletNotFound, name)
	}

	s, err := openStore(dir, m.logger)
	if err != nil {
		return nil, nil, err
	}
	sl, err := unlock(s, creds.KeyDerivation, creds.Key)
	if err != nil {
		s.close()
		return nil, nil, err
	}
	return s, sl, nil
}

func (m *Manager) release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.opened, name)
}

// Delete removes a wallet and its storage after checking the key.
func (m *Manager) Delete(ctx context.Context, name string, creds sdk.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opened[name] {
		return fmt.Errorf("%w: %s", sdk.ErrWalletAlreadyOpened, name)
	}

	s, _, err := m.unlock(name, creds)
	if err != nil {
		return err
	}
	if err := s.close(); err != nil {
		return err
	}

	cfg, err := m.readConfig(name)
	if err != nil {
		return err
	}
	dir, err := m.storageDir(cfg)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.RemoveAll(m.dir(name))
}

// Detach forgets a wallet configuration and keeps its storage.
func (m *Manager) Detach(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opened[name] {
		return fmt.Errorf("%w: %s", sdk.ErrWalletAlreadyOpened, name)
	}
	if _, err := m.readConfig(name); err != nil {
		return err
	}
	return os.Remove(m.configPath(name))
}

// List returns every registered wallet, sorted by name.
func (m *Manager) List() ([]sdk.WalletConfig, error) {
	entries, err := os.ReadDir(m.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []sdk.WalletConfig
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		cfg, err := m.readConfig(e.Name())
		if errors.Is(err, sdk.ErrWalletNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Import creates a new wallet and fills it from an export file.
func (m *Manager) Import(ctx context.Context, cfg sdk.WalletConfig, creds sdk.Credentials, from sdk.ExportConfig) error {
	backup, err := readBackup(ctx, from)
	if err != nil {
		return err
	}

	s, sl, err := m.create(cfg, creds)
	if err != nil {
		return err
	}

	err = writeRecords(s, sl, backup)
	if cerr := s.close(); err == nil {
		err = cerr
	}
	if err != nil {
		if dir, derr := m.storageDir(cfg); derr == nil {
			os.RemoveAll(dir)
		}
		os.RemoveAll(m.dir(cfg.ID))
		return fmt.Errorf("import wallet %s: %w", cfg.ID, err)
	}
	return nil
}

func writeRecords(s *store, sl *sealer, records map[string][]byte) error {
	puts := make(map[string][]byte, len(records))
	for key, plain := range records {
		sealed, err := sl.seal(plain, []byte(key))
		if err != nil {
			return err
		}
		puts[key] = sealed
	}
	return s.write(puts)
}
