package wallet

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v3"
)

var errRecordNotFound = errors.New("record not found")

// Record key layout. Meta records are not sealed by the record cipher
// except for the check value.
const (
	metaPrefix = "_meta/"
	keyHeader  = metaPrefix + "header"
	keyCheck   = metaPrefix + "check"

	didPrefix  = "did/"
	seedPrefix = "key/"
)

// store is the badger backed record store of one wallet.
type store struct {
	db *badger.DB
}

func openStore(dir string, logger *slog.Logger) (*store, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(&badgerLogger{logger: logger}).
		WithSyncWrites(true).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open wallet storage: %w", err)
	}
	return &store{db: db}, nil
}

func (s *store) get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return errRecordNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

func (s *store) has(key string) (bool, error) {
	_, err := s.get(key)
	if errors.Is(err, errRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// write applies puts and deletes in one transaction.
func (s *store) write(puts map[string][]byte, deletes ...string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range deletes {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		for k, v := range puts {
			if err := txn.Set([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *store) put(key string, value []byte) error {
	return s.write(map[string][]byte{key: value})
}

// scan calls fn for every record whose key starts with prefix, in key order.
func (s *store) scan(prefix string, fn func(key string, value []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(string(item.KeyCopy(nil)), value); err != nil {
				return err
			}
		}
		return nil
	})
}

// records returns every non-meta record.
func (s *store) records() (map[string][]byte, error) {
	out := make(map[string][]byte)
	err := s.scan("", func(key string, value []byte) error {
		if !strings.HasPrefix(key, metaPrefix) {
			out[key] = value
		}
		return nil
	})
	return out, err
}

func (s *store) close() error {
	return s.db.Close()
}

// badgerLogger adapts slog.Logger to badger's Logger interface. Badger's
// info chatter is logged at debug level.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
