package config

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the client home directory.
const HomeEnv = "INDY_CLI_HOME"

const (
	homeDirName     = ".indy_client"
	walletDirName   = "wallet"
	poolDirName     = "pool"
	historyFileName = ".indy_cli_history"
)

// Paths locates the files indy-cli keeps under the client home directory.
type Paths struct {
	Home string
}

// DefaultPaths returns paths rooted at $INDY_CLI_HOME, or ~/.indy_client.
func DefaultPaths() Paths {
	if home := os.Getenv(HomeEnv); home != "" {
		return Paths{Home: home}
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		userHome = "."
	}
	return Paths{Home: filepath.Join(userHome, homeDirName)}
}

// WalletDir holds one directory per wallet.
func (p Paths) WalletDir() string {
	return filepath.Join(p.Home, walletDirName)
}

// PoolDir holds one directory per pool configuration.
func (p Paths) PoolDir() string {
	return filepath.Join(p.Home, poolDirName)
}

// HistoryFile is the persistent interactive history.
func (p Paths) HistoryFile() string {
	return filepath.Join(p.Home, historyFileName)
}

// Ensure creates the home, wallet and pool directories.
func (p Paths) Ensure() error {
	for _, dir := range []string{p.Home, p.WalletDir(), p.PoolDir()} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return nil
}
