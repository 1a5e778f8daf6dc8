package permission

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"

	"github.com/pelletier/go-toml"
)

//go:embed mapping.toml
var defaultMapping []byte

// Table maps permission nodes checked by the engine to the keys a Service
// grants. Nodes without an entry map to themselves.
type Table map[string]string

type tableFile struct {
	Mapping map[string]string `toml:"mapping"`
}

// DecodeTable decodes a Table from TOML data holding a [mapping] table.
func DecodeTable(b []byte) (Table, error) {
	var data tableFile
	if err := toml.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("decode permission table: %w", err)
	}
	t := make(Table, len(data.Mapping))
	for node, key := range data.Mapping {
		if node == "" || key == "" {
			return nil, fmt.Errorf("decode permission table: empty mapping %q = %q", node, key)
		}
		t[node] = key
	}
	return t, nil
}

// DefaultTable returns the built-in Table.
func DefaultTable() Table {
	t, err := DecodeTable(defaultMapping)
	if err != nil {
		panic(err)
	}
	return t
}

// LoadTable returns the built-in Table with the entries of the file at path
// applied on top of it. A missing file is not an error.
func LoadTable(path string) (Table, error) {
	t := DefaultTable()
	if path == "" {
		return t, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	} else if err != nil {
		return nil, fmt.Errorf("read permission table: %w", err)
	}
	override, err := DecodeTable(b)
	if err != nil {
		return nil, err
	}
	maps.Copy(t, override)
	return t, nil
}

// Map returns the key that node maps to.
func (t Table) Map(node string) string {
	if key, ok := t[node]; ok {
		return key
	}
	return node
}
