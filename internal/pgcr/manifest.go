package pgcr

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// Manifest resolves activity definition hashes to display names.
type Manifest struct {
	names map[uint32]string
}

// NewManifest builds a manifest from an in-memory index.
func NewManifest(names map[uint32]string) *Manifest {
	m := &Manifest{names: make(map[uint32]string, len(names))}
	for k, v := range names {
		m.names[k] = v
	}
	return m
}

// ActivityName returns the display name for hash. A nil manifest knows nothing.
func (m *Manifest) ActivityName(hash uint32) (string, bool) {
	if m == nil {
		return "", false
	}
	name, ok := m.names[hash]
	return name, ok
}

// Len returns the number of known activities.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

type activityDefinition struct {
	Hash              uint32 `json:"hash"`
	DisplayProperties struct {
		Name string `json:"name"`
	} `json:"displayProperties"`
}

// LoadManifest reads a manifest from disk. Files ending in .json hold
// {"DestinyActivityDefinition": {"<hash>": {definition}}}; anything else is
// opened as the platform's SQLite world content database.
func LoadManifest(ctx context.Context, path string) (*Manifest, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return loadManifestJSON(path)
	}
	return loadManifestSQLite(ctx, path)
}

func loadManifestJSON(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var index struct {
		Activities map[string]activityDefinition `json:"DestinyActivityDefinition"`
	}
	if err := json.Unmarshal(b, &index); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	names := make(map[uint32]string, len(index.Activities))
	for key, def := range index.Activities {
		hash := def.Hash
		if hash == 0 {
			h, err := strconv.ParseUint(key, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("manifest %s: bad hash %q", path, key)
			}
			hash = uint32(h)
		}
		names[hash] = def.DisplayProperties.Name
	}
	return &Manifest{names: names}, nil
}

func loadManifestSQLite(ctx context.Context, path string) (*Manifest, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT json FROM DestinyActivityDefinition`)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	defer rows.Close()

	names := make(map[uint32]string)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var def activityDefinition
		if err := json.Unmarshal([]byte(raw), &def); err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
		names[def.Hash] = def.DisplayProperties.Name
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &Manifest{names: names}, nil
}
