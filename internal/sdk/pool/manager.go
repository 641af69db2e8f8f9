package pool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/pradeepp88/indy-cli-go/internal/sdk"
)

const configFileName = "config.json"

// ErrAlreadyOpened is returned when a pool is opened twice.
var ErrAlreadyOpened = errors.New("pool is already opened")

// Manager implements sdk.Pools over a directory of pool configurations.
type Manager struct {
	root   string
	logger *slog.Logger
	client *http.Client
	limit  rate.Limit
	burst  int

	mu     sync.Mutex
	opened map[string]bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for pool diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHTTPClient sets the client used to reach nodes.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		m.client = c
	}
}

// WithRateLimit bounds outbound node requests per connection.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(m *Manager) {
		m.limit = limit
		m.burst = burst
	}
}

// NewManager creates a manager rooted at dir.
func NewManager(dir string, opts ...Option) *Manager {
	m := &Manager{
		root:   dir,
		logger: slog.Default(),
		limit:  rate.Limit(DefaultRequestRate),
		burst:  DefaultRequestRate,
		opened: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ sdk.Pools = (*Manager)(nil)

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid pool name %q", name)
	}
	return nil
}

func (m *Manager) dir(name string) string {
	return filepath.Join(m.root, name)
}

func (m *Manager) configPath(name string) string {
	return filepath.Join(m.dir(name), configFileName)
}

func (m *Manager) readConfig(name string) (sdk.PoolConfig, error) {
	raw, err := os.ReadFile(m.configPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return sdk.PoolConfig{}, fmt.Errorf("%w: %s", sdk.ErrPoolNotFound, name)
	}
	if err != nil {
		return sdk.PoolConfig{}, err
	}
	var cfg sdk.PoolConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return sdk.PoolConfig{}, fmt.Errorf("pool %s config: %w", name, err)
	}
	cfg.Name = name
	return cfg, nil
}

// Create copies a genesis file into a new pool directory. The file must
// name at least one validator.
func (m *Manager) Create(name, genesisPath string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if _, err := os.Stat(m.configPath(name)); err == nil {
		return fmt.Errorf("%w: %s", sdk.ErrPoolExists, name)
	}

	data, err := os.ReadFile(genesisPath)
	if err != nil {
		return fmt.Errorf("read genesis file: %w", err)
	}
	if _, err := ParseGenesis(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("invalid genesis file %s: %w", genesisPath, err)
	}

	if err := os.MkdirAll(m.dir(name), 0o700); err != nil {
		return err
	}
	txnPath := filepath.Join(m.dir(name), name+".txn")
	raw, err := json.MarshalIndent(map[string]string{"genesis_txn": txnPath}, "", "  ")
	if err == nil {
		err = os.WriteFile(txnPath, data, 0o600)
	}
	if err == nil {
		err = os.WriteFile(m.configPath(name), raw, 0o600)
	}
	if err != nil {
		os.RemoveAll(m.dir(name))
		return fmt.Errorf("create pool %s: %w", name, err)
	}
	m.logger.Debug("pool created", "pool", name, "genesis", genesisPath)
	return nil
}

// Delete removes a pool directory.
func (m *Manager) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opened[name] {
		return fmt.Errorf("%w: %s", ErrAlreadyOpened, name)
	}
	if _, err := m.readConfig(name); err != nil {
		return err
	}
	return os.RemoveAll(m.dir(name))
}

// List returns every pool, sorted by name.
func (m *Manager) List() ([]sdk.PoolConfig, error) {
	entries, err := os.ReadDir(m.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []sdk.PoolConfig
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		cfg, err := m.readConfig(e.Name())
		if errors.Is(err, sdk.ErrPoolNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Open loads the pool transactions and returns a connection. No node is
// contacted until the first request.
func (m *Manager) Open(ctx context.Context, name string, opts sdk.PoolOptions) (sdk.Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opened[name] {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyOpened, name)
	}
	cfg, err := m.readConfig(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(cfg.GenesisTxn)
	if err != nil {
		return nil, fmt.Errorf("open pool %s: %w", name, err)
	}
	g, err := ParseGenesis(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("open pool %s: %w", name, err)
	}

	if opts.ProtocolVersion == 0 {
		opts.ProtocolVersion = sdk.DefaultProtocolVersion
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ExtendedTimeout <= 0 {
		opts.ExtendedTimeout = DefaultExtendedTimeout
	}

	m.opened[name] = true
	m.logger.Debug("pool opened", "pool", name, "validators", len(g.Validators()))
	return &Pool{
		name:      name,
		txnPath:   cfg.GenesisTxn,
		opts:      opts,
		transport: newTransport(m.client, m.limit, m.burst),
		logger:    m.logger,
		release:   m.release,
		genesis:   g,
	}, nil
}

func (m *Manager) release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.opened, name)
}
