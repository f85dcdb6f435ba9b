// Package store is a triple store over the key-value storage layer. Every
// triple is written to the SPO, POS and OSP indexes; term strings live in
// the id2str table.
package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/anngvu/annotation-meta-analysis/internal/encoding"
	"github.com/anngvu/annotation-meta-analysis/internal/storage"
	"github.com/anngvu/annotation-meta-analysis/pkg/rdf"
)

// DefaultBatchSize is the number of triples written per transaction by
// InsertBatch
const DefaultBatchSize = 1000

// TripleStore manages the indexed triples
type TripleStore struct {
	storage   storage.Storage
	encoder   *encoding.TermEncoder
	decoder   *encoding.TermDecoder
	batchSize int
}

// NewTripleStore creates a new triplestore
func NewTripleStore(s storage.Storage) *TripleStore {
	return &TripleStore{
		storage:   s,
		encoder:   encoding.NewTermEncoder(),
		decoder:   encoding.NewTermDecoder(),
		batchSize: DefaultBatchSize,
	}
}

// Close closes the underlying storage
func (s *TripleStore) Close() error {
	return s.storage.Close()
}

// Insert adds one triple
func (s *TripleStore) Insert(triple *rdf.Triple) error {
	return s.InsertBatch([]*rdf.Triple{triple})
}

// InsertBatch adds triples, committing every batchSize triples. Triples
// already present are left as they are.
func (s *TripleStore) InsertBatch(triples []*rdf.Triple) error {
	for start := 0; start < len(triples); start += s.batchSize {
		end := min(start+s.batchSize, len(triples))
		if err := s.insertChunk(triples[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *TripleStore) insertChunk(triples []*rdf.Triple) error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	for _, triple := range triples {
		if err := s.insertInTxn(txn, triple); err != nil {
			return err
		}
	}
	return txn.Commit()
}

func (s *TripleStore) encodeTriple(triple *rdf.Triple) (subj, pred, obj encoding.EncodedTerm, strs [3]*string, err error) {
	subj, strs[0], err = s.encoder.EncodeTerm(triple.Subject)
	if err != nil {
		return subj, pred, obj, strs, fmt.Errorf("failed to encode subject: %w", err)
	}
	pred, strs[1], err = s.encoder.EncodeTerm(triple.Predicate)
	if err != nil {
		return subj, pred, obj, strs, fmt.Errorf("failed to encode predicate: %w", err)
	}
	obj, strs[2], err = s.encoder.EncodeTerm(triple.Object)
	if err != nil {
		return subj, pred, obj, strs, fmt.Errorf("failed to encode object: %w", err)
	}
	return subj, pred, obj, strs, nil
}

func (s *TripleStore) insertInTxn(txn storage.Transaction, triple *rdf.Triple) error {
	subj, pred, obj, strs, err := s.encodeTriple(triple)
	if err != nil {
		return err
	}

	for i, enc := range [3]encoding.EncodedTerm{subj, pred, obj} {
		if err := s.storeString(txn, enc, strs[i]); err != nil {
			return err
		}
	}

	emptyValue := []byte{}
	if err := txn.Set(storage.TableSPO, s.encoder.EncodeKey(subj, pred, obj), emptyValue); err != nil {
		return err
	}
	if err := txn.Set(storage.TablePOS, s.encoder.EncodeKey(pred, obj, subj), emptyValue); err != nil {
		return err
	}
	return txn.Set(storage.TableOSP, s.encoder.EncodeKey(obj, subj, pred), emptyValue)
}

// storeString stores a string in the id2str table if provided
func (s *TripleStore) storeString(txn storage.Transaction, encoded encoding.EncodedTerm, str *string) error {
	if str == nil {
		return nil
	}

	key := encoded[:]
	value := []byte(*str)

	existing, err := txn.Get(storage.TableID2Str, key)
	if err == nil && bytes.Equal(existing, value) {
		return nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return txn.Set(storage.TableID2Str, key, value)
}

// Delete removes a triple. Term strings are kept.
func (s *TripleStore) Delete(triple *rdf.Triple) error {
	subj, pred, obj, _, err := s.encodeTriple(triple)
	if err != nil {
		return err
	}

	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	if err := txn.Delete(storage.TableSPO, s.encoder.EncodeKey(subj, pred, obj)); err != nil {
		return err
	}
	if err := txn.Delete(storage.TablePOS, s.encoder.EncodeKey(pred, obj, subj)); err != nil {
		return err
	}
	if err := txn.Delete(storage.TableOSP, s.encoder.EncodeKey(obj, subj, pred)); err != nil {
		return err
	}
	return txn.Commit()
}

// Contains reports whether triple is stored
func (s *TripleStore) Contains(triple *rdf.Triple) (bool, error) {
	subj, pred, obj, _, err := s.encodeTriple(triple)
	if err != nil {
		return false, err
	}

	txn, err := s.storage.Begin(false)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	_, err = txn.Get(storage.TableSPO, s.encoder.EncodeKey(subj, pred, obj))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of stored triples
func (s *TripleStore) Count() (int64, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback()

	it, err := txn.Scan(storage.TableSPO, nil)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	count := int64(0)
	for it.Next() {
		count++
	}
	return count, nil
}

// RecordSource remembers that n triples were loaded from the named document
func (s *TripleStore) RecordSource(name string, n int) error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	value := binary.BigEndian.AppendUint64(nil, uint64(n)) // #nosec G115 - counts are non-negative
	if err := txn.Set(storage.TableSources, []byte(name), value); err != nil {
		return err
	}
	return txn.Commit()
}

// Sources returns the loaded document names and their triple counts
func (s *TripleStore) Sources() (map[string]int64, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	defer txn.Rollback()

	it, err := txn.Scan(storage.TableSources, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	sources := make(map[string]int64)
	for it.Next() {
		value, err := it.Value()
		if err != nil {
			return nil, err
		}
		if len(value) != 8 {
			return nil, fmt.Errorf("malformed source entry for %q", it.Key())
		}
		sources[string(it.Key())] = int64(binary.BigEndian.Uint64(value)) // #nosec G115 - written by RecordSource
	}
	return sources, nil
}
