package pgcr

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/vnykmshr/ratepool/internal/testutil"
)

func TestLoadManifestJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	data := `{"DestinyActivityDefinition": {
		"3577607128": {"hash": 3577607128, "displayProperties": {"name": "Gambit"}},
		"1": {"displayProperties": {"name": "Crucible"}}
	}}`
	testutil.AssertNoError(t, os.WriteFile(path, []byte(data), 0o600))

	m, err := LoadManifest(context.Background(), path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, m.Len(), 2)

	name, ok := m.ActivityName(3577607128)
	testutil.AssertTrue(t, ok)
	testutil.AssertEqual(t, name, "Gambit")

	name, _ = m.ActivityName(1)
	testutil.AssertEqual(t, name, "Crucible")

	_, ok = m.ActivityName(99)
	testutil.AssertTrue(t, !ok)
}

func TestLoadManifestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.content")
	db, err := sql.Open("sqlite", path)
	testutil.AssertNoError(t, err)
	_, err = db.Exec(`CREATE TABLE DestinyActivityDefinition (id INTEGER PRIMARY KEY, json BLOB)`)
	testutil.AssertNoError(t, err)
	_, err = db.Exec(`INSERT INTO DestinyActivityDefinition(id, json) VALUES (?, ?)`,
		-717360168, `{"hash": 3577607128, "displayProperties": {"name": "Gambit"}}`)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, db.Close())

	m, err := LoadManifest(context.Background(), path)
	testutil.AssertNoError(t, err)
	name, ok := m.ActivityName(3577607128)
	testutil.AssertTrue(t, ok)
	testutil.AssertEqual(t, name, "Gambit")
}

func TestLoadManifestMissing(t *testing.T) {
	_, err := LoadManifest(context.Background(), filepath.Join(t.TempDir(), "nope.content"))
	testutil.AssertError(t, err)
	_, err = LoadManifest(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	testutil.AssertError(t, err)
}

func TestNilManifest(t *testing.T) {
	var m *Manifest
	_, ok := m.ActivityName(1)
	testutil.AssertTrue(t, !ok)
	testutil.AssertEqual(t, m.Len(), 0)
}
