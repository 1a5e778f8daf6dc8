package worlddb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/world"
	"github.com/klauspost/compress/zstd"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// ErrCorrupt is returned when a value stored in the database does not match
// its checksum or cannot be decoded.
var ErrCorrupt = errors.New("worlddb: corrupt value")

// Config holds the optional parameters of a DB.
type Config struct {
	// Log is the Logger that will be used to log errors and debug messages to.
	// If set to nil, slog.Default() is used.
	Log *slog.Logger
	// ReadOnly opens the database without permitting writes. StoreColumn and
	// SaveSettings become no-ops.
	ReadOnly bool
	// Name is the name given to the world if the database does not hold any
	// settings yet. If empty, "World" is used.
	Name string
}

// DB implements a world.Provider for a world stored in a LevelDB database.
// Columns are stored as zstd compressed NBT, prefixed by an xxhash checksum.
type DB struct {
	conf Config
	ldb  *leveldb.DB
	set  *world.Settings

	encMu sync.Mutex
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// Compile time check to make sure DB implements world.Provider.
var _ world.Provider = (*DB)(nil)

// Open creates a new provider reading and writing from/to files under the
// path passed using the default Config. If a world is present at the path,
// Open parses its data and initialises the world with it.
func Open(dir string) (*DB, error) {
	var conf Config
	return conf.Open(dir)
}

// Open creates a new DB reading and writing from/to files under the path
// passed. If a world is present at the path, Open will parse its data and
// initialise the world with it. If the data cannot be parsed, an error is
// returned.
func (conf Config) Open(dir string) (*DB, error) {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Name == "" {
		conf.Name = "World"
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	ldb, err := leveldb.OpenFile(dir, &opt.Options{ReadOnly: conf.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = ldb.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = ldb.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	db := &DB{conf: conf, ldb: ldb, enc: enc, dec: dec}
	if db.set, err = db.loadSettings(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

var keySettings = []byte("~settings")

// settingsData is the NBT form of world.Settings.
type settingsData struct {
	LevelName string `nbt:"LevelName"`
}

func (db *DB) loadSettings() (*world.Settings, error) {
	data, err := db.get(keySettings)
	if errors.Is(err, leveldb.ErrNotFound) {
		return &world.Settings{Name: db.conf.Name}, nil
	} else if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	var s settingsData
	if err := nbt.UnmarshalEncoding(data, &s, nbt.LittleEndian); err != nil {
		return nil, fmt.Errorf("decode settings: %w: %w", ErrCorrupt, err)
	}
	return &world.Settings{Name: s.LevelName}, nil
}

// Settings returns the world.Settings of the world loaded by the DB.
func (db *DB) Settings() *world.Settings {
	return db.set
}

// SaveSettings saves the world.Settings passed to the database.
func (db *DB) SaveSettings(s *world.Settings) {
	if db.conf.ReadOnly {
		return
	}
	s.Lock()
	data, err := nbt.MarshalEncoding(settingsData{LevelName: s.Name}, nbt.LittleEndian)
	s.Unlock()
	if err != nil {
		db.conf.Log.Error("Encode settings.", "error", err)
		return
	}
	if err := db.put(keySettings, data); err != nil {
		db.conf.Log.Error("Save settings.", "error", err)
	}
}

// LoadColumn reads a world.ColumnData from the DB at a position passed. If no
// column at that position exists, world.ErrColumnNotFound is returned.
func (db *DB) LoadColumn(pos cube.ChunkID) (*world.ColumnData, error) {
	data, err := db.get(columnKey(pos))
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, world.ErrColumnNotFound
	} else if err != nil {
		return nil, fmt.Errorf("load column %v: %w", pos, err)
	}
	col, err := decodeColumn(data)
	if err != nil {
		return nil, fmt.Errorf("decode column %v: %w", pos, err)
	}
	return col, nil
}

// StoreColumn stores a world.ColumnData at a position in the DB.
func (db *DB) StoreColumn(pos cube.ChunkID, col *world.ColumnData) error {
	if db.conf.ReadOnly {
		return nil
	}
	data, err := encodeColumn(col)
	if err != nil {
		return fmt.Errorf("encode column %v: %w", pos, err)
	}
	if err := db.put(columnKey(pos), data); err != nil {
		return fmt.Errorf("store column %v: %w", pos, err)
	}
	return nil
}

// Close closes the provider, saving any file that might need to be saved,
// such as the settings.
func (db *DB) Close() error {
	if db.set != nil {
		db.SaveSettings(db.set)
	}
	_ = db.enc.Close()
	db.dec.Close()
	return db.ldb.Close()
}

// columnKey returns the key of the column at pos: a tag byte followed by the
// little endian x and z of the column.
func columnKey(pos cube.ChunkID) []byte {
	k := make([]byte, 9)
	k[0] = 'c'
	binary.LittleEndian.PutUint32(k[1:], uint32(pos.X))
	binary.LittleEndian.PutUint32(k[5:], uint32(pos.Z))
	return k
}

// put compresses data and stores it under key, prefixed with the checksum of
// the compressed payload.
func (db *DB) put(key, data []byte) error {
	db.encMu.Lock()
	payload := db.enc.EncodeAll(data, make([]byte, 8, 8+len(data)/2))
	db.encMu.Unlock()
	binary.LittleEndian.PutUint64(payload, xxhash.Sum64(payload[8:]))
	return db.ldb.Put(key, payload, nil)
}

// get reads the value under key, verifies its checksum and decompresses it.
func (db *DB) get(key []byte) ([]byte, error) {
	payload, err := db.ldb.Get(key, nil)
	if err != nil {
		return nil, err
	}
	if len(payload) < 8 || binary.LittleEndian.Uint64(payload) != xxhash.Sum64(payload[8:]) {
		return nil, fmt.Errorf("checksum mismatch for key %x: %w", key, ErrCorrupt)
	}
	data, err := db.dec.DecodeAll(payload[8:], nil)
	if err != nil {
		return nil, fmt.Errorf("decompress key %x: %w: %w", key, ErrCorrupt, err)
	}
	return data, nil
}
