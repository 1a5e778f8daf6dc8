// Package historydb persists the history of actors in a LevelDB database, so
// that it may survive the end of a session when explicitly exported.
package historydb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/util"
	"github.com/df-mc/worldedit/server/edit/history"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrNotFound is returned by Import if no history was exported for an
	// actor.
	ErrNotFound = errors.New("historydb: no history stored for actor")
	// ErrCorrupt is returned by Import if the stored history does not match its
	// checksum or cannot be decoded.
	ErrCorrupt = errors.New("historydb: corrupt history")
)

// Config holds the optional parameters of a DB.
type Config struct {
	// Log is the Logger used to log debug messages. If nil, slog.Default() is
	// used.
	Log *slog.Logger
}

// DB stores exported history stacks, keyed by actor.
type DB struct {
	log *slog.Logger
	ldb *leveldb.DB

	encMu sync.Mutex
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// Open opens the database in dir using the default Config.
func Open(dir string) (*DB, error) {
	var conf Config
	return conf.Open(dir)
}

// Open opens the database in dir, creating it if it does not exist.
func (conf Config) Open(dir string) (*DB, error) {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	ldb, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		_ = ldb.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = ldb.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &DB{log: conf.Log, ldb: ldb, enc: enc, dec: dec}, nil
}

var keyPrefix = []byte("h")

func key(actor uuid.UUID) []byte {
	return append(append([]byte{}, keyPrefix...), actor[:]...)
}

// Export stores the undo and redo history of s for an actor, replacing any
// history stored for the actor before.
func (db *DB) Export(actor uuid.UUID, s *history.Stack) error {
	undo, redo := s.Entries()
	data, err := encodeStack(undo, redo, time.Now())
	if err != nil {
		return fmt.Errorf("encode history of %v: %w", actor, err)
	}
	db.encMu.Lock()
	payload := db.enc.EncodeAll(data, make([]byte, 8, 8+len(data)/4))
	db.encMu.Unlock()
	binary.LittleEndian.PutUint64(payload, xxhash.Sum64(payload[8:]))

	if err := db.ldb.Put(key(actor), payload, nil); err != nil {
		return fmt.Errorf("store history of %v: %w", actor, err)
	}
	db.log.Debug("Exported history.", "actor", actor, "undo", len(undo), "redo", len(redo), "bytes", len(payload))
	return nil
}

// Import reads the history stored for an actor into a new Stack holding at
// most depth change sets. ErrNotFound is returned if nothing was stored.
func (db *DB) Import(actor uuid.UUID, depth int) (*history.Stack, error) {
	payload, err := db.ldb.Get(key(actor), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("load history of %v: %w", actor, err)
	}
	if len(payload) < 8 || binary.LittleEndian.Uint64(payload) != xxhash.Sum64(payload[8:]) {
		return nil, fmt.Errorf("load history of %v: checksum mismatch: %w", actor, ErrCorrupt)
	}
	data, err := db.dec.DecodeAll(payload[8:], nil)
	if err != nil {
		return nil, fmt.Errorf("decompress history of %v: %w: %w", actor, ErrCorrupt, err)
	}
	undo, redo, err := decodeStack(data)
	if err != nil {
		return nil, fmt.Errorf("decode history of %v: %w", actor, err)
	}
	s := history.NewStack(depth)
	s.Restore(undo, redo)
	return s, nil
}

// Delete removes the history stored for an actor.
func (db *DB) Delete(actor uuid.UUID) error {
	if err := db.ldb.Delete(key(actor), nil); err != nil {
		return fmt.Errorf("delete history of %v: %w", actor, err)
	}
	return nil
}

// Actors returns the ids of all actors with stored history.
func (db *DB) Actors() ([]uuid.UUID, error) {
	it := db.ldb.NewIterator(util.BytesPrefix(keyPrefix), nil)
	defer it.Release()

	var actors []uuid.UUID
	for it.Next() {
		id, err := uuid.FromBytes(it.Key()[len(keyPrefix):])
		if err != nil {
			db.log.Debug("Skipped invalid history key.", "key", it.Key(), "error", err)
			continue
		}
		actors = append(actors, id)
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return actors, nil
}

// Close closes the database.
func (db *DB) Close() error {
	_ = db.enc.Close()
	db.dec.Close()
	return db.ldb.Close()
}
