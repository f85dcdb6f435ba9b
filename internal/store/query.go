package store

import (
	"errors"
	"fmt"

	"github.com/anngvu/annotation-meta-analysis/internal/encoding"
	"github.com/anngvu/annotation-meta-analysis/internal/storage"
	"github.com/anngvu/annotation-meta-analysis/pkg/rdf"
)

// Pattern selects triples; a nil position matches any term
type Pattern struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
}

// TripleIterator iterates over triples matching a pattern
type TripleIterator interface {
	Next() bool
	Triple() (*rdf.Triple, error)
	Close() error
}

// index describes one key order: order[i] is the triple position (0=S,
// 1=P, 2=O) stored at key slot i
type index struct {
	table storage.Table
	order [3]int
}

var (
	indexSPO = index{storage.TableSPO, [3]int{0, 1, 2}}
	indexPOS = index{storage.TablePOS, [3]int{1, 2, 0}}
	indexOSP = index{storage.TableOSP, [3]int{2, 0, 1}}
)

// Match returns an iterator over the triples matching pattern. The caller
// must Close it.
func (s *TripleStore) Match(pattern Pattern) (TripleIterator, error) {
	positions := [3]rdf.Term{pattern.Subject, pattern.Predicate, pattern.Object}
	idx := selectIndex(positions)

	prefix, err := s.buildScanPrefix(positions, idx)
	if err != nil {
		return nil, err
	}

	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	it, err := txn.Scan(idx.table, prefix)
	if err != nil {
		txn.Rollback()
		return nil, err
	}

	return &tripleIterator{
		store: s,
		txn:   txn,
		it:    it,
		index: idx,
	}, nil
}

// MatchAll collects every triple matching pattern
func (s *TripleStore) MatchAll(pattern Pattern) ([]*rdf.Triple, error) {
	it, err := s.Match(pattern)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var triples []*rdf.Triple
	for it.Next() {
		triple, err := it.Triple()
		if err != nil {
			return nil, err
		}
		triples = append(triples, triple)
	}
	return triples, nil
}

// selectIndex chooses the index whose key starts with the most bound
// positions
func selectIndex(positions [3]rdf.Term) index {
	sBound := positions[0] != nil
	pBound := positions[1] != nil
	oBound := positions[2] != nil

	switch {
	case sBound && pBound:
		return indexSPO
	case pBound && oBound:
		return indexPOS
	case oBound && sBound:
		return indexOSP
	case sBound:
		return indexSPO
	case pBound:
		return indexPOS
	case oBound:
		return indexOSP
	default:
		return indexSPO
	}
}

// buildScanPrefix encodes the bound positions in key order, stopping at the
// first unbound one
func (s *TripleStore) buildScanPrefix(positions [3]rdf.Term, idx index) ([]byte, error) {
	var prefix []byte
	for _, pos := range idx.order {
		term := positions[pos]
		if term == nil {
			break
		}
		encoded, _, err := s.encoder.EncodeTerm(term)
		if err != nil {
			return nil, err
		}
		prefix = append(prefix, encoded[:]...)
	}
	return prefix, nil
}

type tripleIterator struct {
	store  *TripleStore
	txn    storage.Transaction
	it     storage.Iterator
	index  index
	closed bool
}

func (ti *tripleIterator) Next() bool {
	if ti.closed {
		return false
	}
	return ti.it.Next()
}

func (ti *tripleIterator) Triple() (*rdf.Triple, error) {
	if ti.closed {
		return nil, fmt.Errorf("iterator closed")
	}

	key := ti.it.Key()
	if len(key) != 3*encoding.EncodedTermSize {
		return nil, fmt.Errorf("invalid key length: %d", len(key))
	}

	var terms [3]rdf.Term
	for slot, pos := range ti.index.order {
		var encoded encoding.EncodedTerm
		copy(encoded[:], key[slot*encoding.EncodedTermSize:])
		term, err := ti.store.decodeTerm(ti.txn, encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode term: %w", err)
		}
		terms[pos] = term
	}

	return rdf.NewTriple(terms[0], terms[1], terms[2]), nil
}

func (ti *tripleIterator) Close() error {
	if ti.closed {
		return nil
	}
	ti.closed = true
	ti.it.Close()
	return ti.txn.Rollback()
}

// decodeTerm decodes an encoded term, looking up its string when needed
func (s *TripleStore) decodeTerm(txn storage.Transaction, encoded encoding.EncodedTerm) (rdf.Term, error) {
	var stringValue *string
	if encoding.NeedsLookup(encoded) {
		str, err := txn.Get(storage.TableID2Str, encoded[:])
		switch {
		case err == nil:
			v := string(str)
			stringValue = &v
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
	}
	return s.decoder.DecodeTerm(encoded, stringValue)
}
