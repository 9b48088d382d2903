package ledger

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"github.com/mwillis775/PoRW-sub001/keyvaluedb"
	"github.com/mwillis775/PoRW-sub001/types"
	"github.com/mwillis775/PoRW-sub001/util"
)

var (
	// ErrNotFound is the explicit not-found signal for block lookups.
	ErrNotFound      = errors.New("block not found")
	ErrNotSequential = errors.New("block index is not sequential")
	ErrBrokenLink    = errors.New("previous hash does not match chain head")
)

const hashCacheSize = 1024

type (
	// Reader is the query surface consumed by the validators. Implementations
	// must support concurrent readers.
	Reader interface {
		BlockByIndex(index uint64) (types.Block, error)
		BlockByHash(hash string) (types.Block, error)
		LatestBlock() (types.Block, error)
		// BlocksInRange returns blocks with index in [lo, hi], ascending.
		BlocksInRange(lo, hi uint64) ([]types.Block, error)
		// RecentBlocksByType returns up to limit blocks of the given type,
		// newest first. A non-positive limit returns all of them.
		RecentBlocksByType(blockType types.BlockType, limit int) ([]types.Block, error)
		// Balance returns the spendable balance of the address; unknown
		// addresses hold zero.
		Balance(address string) (float64, error)
	}

	// Store is the durable block and balance record. Reads are non-exclusive;
	// Append is serialized so the strictly increasing index and linkage
	// invariants hold under concurrent validation.
	Store struct {
		db    keyvaluedb.KeyValueDB
		fees  types.FeeSchedule
		cache *lru.Cache
		mu    sync.Mutex
		log   zerolog.Logger
	}
)

// New creates a block store on top of the given key value db.
func New(db keyvaluedb.KeyValueDB, fees types.FeeSchedule, log zerolog.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	cache, err := lru.New(hashCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create hash index cache, %w", err)
	}
	return &Store{
		db:    db,
		fees:  fees,
		cache: cache,
		log:   log,
	}, nil
}

func blockKey(index uint64) []byte {
	return append([]byte{'b'}, util.Uint64ToBytes(index)...)
}

func hashKey(hash string) []byte {
	return append([]byte{'h'}, []byte(hash)...)
}

func typeKey(blockType types.BlockType, seq uint64) []byte {
	return append([]byte{'t', byte(blockType)}, util.Uint64ToBytes(seq)...)
}

func typeCountKey(blockType types.BlockType) []byte {
	return []byte{'c', byte(blockType)}
}

func balanceKey(address string) []byte {
	return append([]byte{'a'}, []byte(address)...)
}

var latestKey = []byte{'l'}

func (s *Store) BlockByIndex(index uint64) (types.Block, error) {
	envelope := &types.BlockEnvelope{}
	found, err := s.db.Read(blockKey(index), envelope)
	if err != nil {
		return nil, fmt.Errorf("block read failed, %w", err)
	}
	if !found {
		return nil, fmt.Errorf("no block at index %d, %w", index, ErrNotFound)
	}
	return envelope.Block()
}

func (s *Store) BlockByHash(hash string) (types.Block, error) {
	if index, ok := s.cache.Get(hash); ok {
		return s.BlockByIndex(index.(uint64))
	}
	var index uint64
	found, err := s.db.Read(hashKey(hash), &index)
	if err != nil {
		return nil, fmt.Errorf("hash index read failed, %w", err)
	}
	if !found {
		return nil, fmt.Errorf("no block with hash %s, %w", hash, ErrNotFound)
	}
	s.cache.Add(hash, index)
	return s.BlockByIndex(index)
}

func (s *Store) LatestBlock() (types.Block, error) {
	var index uint64
	found, err := s.db.Read(latestKey, &index)
	if err != nil {
		return nil, fmt.Errorf("chain head read failed, %w", err)
	}
	if !found {
		return nil, fmt.Errorf("chain is empty, %w", ErrNotFound)
	}
	return s.BlockByIndex(index)
}

func (s *Store) BlocksInRange(lo, hi uint64) ([]types.Block, error) {
	if hi < lo {
		return nil, fmt.Errorf("invalid range [%d, %d]", lo, hi)
	}
	// the span may run far past the chain head, grow as blocks are found
	blocks := []types.Block{}
	for i := lo; i <= hi; i++ {
		b, err := s.BlockByIndex(i)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				break
			}
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func (s *Store) RecentBlocksByType(blockType types.BlockType, limit int) ([]types.Block, error) {
	count, err := s.typeCount(blockType)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || uint64(limit) > count {
		limit = int(count)
	}
	blocks := make([]types.Block, 0, limit)
	for seq := count; seq > count-uint64(limit); seq-- {
		var index uint64
		found, err := s.db.Read(typeKey(blockType, seq), &index)
		if err != nil {
			return nil, fmt.Errorf("type index read failed, %w", err)
		}
		if !found {
			return nil, fmt.Errorf("missing type index entry %d, %w", seq, ErrNotFound)
		}
		b, err := s.BlockByIndex(index)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func (s *Store) Balance(address string) (float64, error) {
	var balance float64
	if _, err := s.db.Read(balanceKey(address), &balance); err != nil {
		return 0, fmt.Errorf("balance read failed, %w", err)
	}
	return balance, nil
}

func (s *Store) typeCount(blockType types.BlockType) (uint64, error) {
	var count uint64
	if _, err := s.db.Read(typeCountKey(blockType), &count); err != nil {
		return 0, fmt.Errorf("type count read failed, %w", err)
	}
	return count, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
