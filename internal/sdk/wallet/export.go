package wallet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/pradeepp88/indy-cli-go/internal/sdk"
)

const (
	backupVersion = 1
	lockTimeout   = 5 * time.Second
)

// Meta keys of an export file.
const (
	metaVersion = "version"
	metaHeader  = "header"
	metaKDF     = "kdf"
	metaCheck   = "check"
)

var backupSchema = []string{
	"CREATE TABLE meta (key TEXT PRIMARY KEY, value BLOB NOT NULL);",
	"CREATE TABLE records (key TEXT PRIMARY KEY, value BLOB NOT NULL);",
}

func lockBackup(ctx context.Context, path string) (*flock.Flock, error) {
	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock %s: timeout acquiring lock", path)
	}
	return lock, nil
}

// Export writes every record to a new sqlite file, sealed under the
// export key. An existing file is never overwritten.
func (w *Wallet) Export(ctx context.Context, to sdk.ExportConfig) (err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.store == nil {
		return errClosed
	}
	if to.Path == "" {
		return errors.New("export path is required")
	}
	if _, err := os.Stat(to.Path); err == nil {
		return fmt.Errorf("export file %s already exists", to.Path)
	}

	lock, err := lockBackup(ctx, to.Path)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	h, err := newHeader(w.sealer.kind)
	if err != nil {
		return err
	}
	exportSealer, err := h.sealer(to.KeyDerivation, to.Key)
	if err != nil {
		return err
	}
	headerJSON, err := json.Marshal(h)
	if err != nil {
		return err
	}
	check, err := exportSealer.seal([]byte(checkPlaintext), []byte(metaCheck))
	if err != nil {
		return err
	}

	records, err := w.store.records()
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite", to.Path)
	if err != nil {
		return fmt.Errorf("open export file: %w", err)
	}
	defer func() {
		if cerr := db.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(to.Path)
		}
	}()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range backupSchema {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("init export schema: %w", err)
		}
	}

	kdf := to.KeyDerivation
	if kdf == "" {
		kdf = sdk.KeyDerivationArgon2m
	}
	meta := map[string][]byte{
		metaVersion: []byte(strconv.Itoa(backupVersion)),
		metaHeader:  headerJSON,
		metaKDF:     []byte(kdf),
		metaCheck:   check,
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("write export meta: %w", err)
		}
	}

	for key, sealed := range records {
		plain, err := w.sealer.open(sealed, []byte(key))
		if err != nil {
			return fmt.Errorf("open record %s: %w", key, err)
		}
		resealed, err := exportSealer.seal(plain, []byte(key))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO records (key, value) VALUES (?, ?)", key, resealed); err != nil {
			return fmt.Errorf("write export record: %w", err)
		}
	}

	return tx.Commit()
}

// readBackup opens an export file and returns its records in clear.
// The derivation method recorded in the file wins over the one in from.
func readBackup(ctx context.Context, from sdk.ExportConfig) (map[string][]byte, error) {
	if _, err := os.Stat(from.Path); err != nil {
		return nil, fmt.Errorf("export file: %w", err)
	}

	lock, err := lockBackup(ctx, from.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Unlock() }()

	db, err := sql.Open("sqlite", from.Path)
	if err != nil {
		return nil, fmt.Errorf("open export file: %w", err)
	}
	defer db.Close()

	meta := make(map[string][]byte)
	rows, err := db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("read export meta: %w", err)
	}
	for rows.Next() {
		var k string
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return nil, err
		}
		meta[k] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if v := string(meta[metaVersion]); v != strconv.Itoa(backupVersion) {
		return nil, fmt.Errorf("unsupported export version %q", v)
	}
	var h header
	if err := json.Unmarshal(meta[metaHeader], &h); err != nil {
		return nil, fmt.Errorf("export header: %w", err)
	}
	kdf := string(meta[metaKDF])
	if kdf == "" {
		kdf = from.KeyDerivation
	}
	sl, err := h.sealer(kdf, from.Key)
	if err != nil {
		return nil, err
	}
	if plain, err := sl.open(meta[metaCheck], []byte(metaCheck)); err != nil || string(plain) != checkPlaintext {
		return nil, fmt.Errorf("%w: export key does not match", sdk.ErrInvalidWalletKey)
	}

	records := make(map[string][]byte)
	rows, err = db.QueryContext(ctx, "SELECT key, value FROM records")
	if err != nil {
		return nil, fmt.Errorf("read export records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		plain, err := sl.open(v, []byte(k))
		if err != nil {
			return nil, fmt.Errorf("open export record %s: %w", k, err)
		}
		records[k] = plain
	}
	return records, rows.Err()
}
