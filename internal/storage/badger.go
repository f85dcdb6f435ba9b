package storage

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/anngvu/annotation-meta-analysis/internal/logger"
)

// BadgerStorage implements Storage using BadgerDB
type BadgerStorage struct {
	db *badger.DB
}

// NewBadgerStorage opens (or creates) a BadgerDB store at path
func NewBadgerStorage(path string) (*BadgerStorage, error) {
	return openBadger(badger.DefaultOptions(path))
}

// NewMemoryStorage creates a BadgerDB store that lives only in memory
func NewMemoryStorage() (*BadgerStorage, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true))
}

func openBadger(opts badger.Options) (*BadgerStorage, error) {
	opts.Logger = badgerLogger{}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &BadgerStorage{db: db}, nil
}

func (s *BadgerStorage) Begin(writable bool) (Transaction, error) {
	return &BadgerTransaction{
		txn:      s.db.NewTransaction(writable),
		writable: writable,
	}, nil
}

func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

func (s *BadgerStorage) Sync() error {
	return s.db.Sync()
}

// BadgerTransaction implements Transaction using BadgerDB
type BadgerTransaction struct {
	txn      *badger.Txn
	writable bool
}

func (t *BadgerTransaction) Get(table Table, key []byte) ([]byte, error) {
	item, err := t.txn.Get(PrefixKey(table, key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *BadgerTransaction) Set(table Table, key, value []byte) error {
	if !t.writable {
		return ErrTransactionRO
	}
	return t.txn.Set(PrefixKey(table, key), value)
}

func (t *BadgerTransaction) Delete(table Table, key []byte) error {
	if !t.writable {
		return ErrTransactionRO
	}
	return t.txn.Delete(PrefixKey(table, key))
}

func (t *BadgerTransaction) Scan(table Table, prefix []byte) (Iterator, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = PrefixKey(table, prefix)
	// index values are empty
	opts.PrefetchValues = table == TableID2Str || table == TableSources

	return &BadgerIterator{
		it:     t.txn.NewIterator(opts),
		prefix: opts.Prefix,
	}, nil
}

func (t *BadgerTransaction) Commit() error {
	return t.txn.Commit()
}

func (t *BadgerTransaction) Rollback() error {
	t.txn.Discard()
	return nil
}

// BadgerIterator implements Iterator using BadgerDB
type BadgerIterator struct {
	it       *badger.Iterator
	prefix   []byte
	started  bool
	hasValue bool
}

func (i *BadgerIterator) Next() bool {
	if !i.started {
		i.it.Seek(i.prefix)
		i.started = true
	} else {
		i.it.Next()
	}
	i.hasValue = i.it.ValidForPrefix(i.prefix)
	return i.hasValue
}

func (i *BadgerIterator) Key() []byte {
	if !i.hasValue {
		return nil
	}
	// strip the table byte
	return i.it.Item().KeyCopy(nil)[1:]
}

func (i *BadgerIterator) Value() ([]byte, error) {
	if !i.hasValue {
		return nil, ErrNotFound
	}
	return i.it.Item().ValueCopy(nil)
}

func (i *BadgerIterator) Close() error {
	i.it.Close()
	return nil
}

// badgerLogger routes badger's messages to the process logger; its info
// messages are logged at debug level.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any)   { logger.Errorf("badger: "+format, args...) }
func (badgerLogger) Warningf(format string, args ...any) { logger.Warnf("badger: "+format, args...) }
func (badgerLogger) Infof(format string, args ...any)    { logger.Debugf("badger: "+format, args...) }
func (badgerLogger) Debugf(format string, args ...any)   { logger.Debugf("badger: "+format, args...) }
