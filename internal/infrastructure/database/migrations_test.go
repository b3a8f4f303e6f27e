package database

import (
	"context"
	"testing"
	"testing/fstest"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"sql/20260101_000000_first.up.sql":    {Data: []byte("CREATE TABLE first (id INTEGER PRIMARY KEY);")},
		"sql/20260101_000000_first.down.sql":  {Data: []byte("DROP TABLE first;")},
		"sql/20260102_000000_second.up.sql":   {Data: []byte("CREATE TABLE second (id INTEGER PRIMARY KEY);")},
		"sql/20260102_000000_second.down.sql": {Data: []byte("DROP TABLE second;")},
		"sql/README.md":                       {Data: []byte("ignored")},
	}
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
	if err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	return n == 1
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := testMigrations()

	if err := db.Migrate(ctx, fsys, "sql"); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "first") || !tableExists(t, db, "second") {
		t.Fatal("expected both tables after Migrate()")
	}

	applied, pending, err := db.MigrationStatus(ctx, fsys, "sql")
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Errorf("applied=%d pending=%d, want 2/0", len(applied), len(pending))
	}

	// Idempotent.
	if err := db.Migrate(ctx, fsys, "sql"); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := testMigrations()

	if err := db.Migrate(ctx, fsys, "sql"); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx, fsys, "sql"); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if tableExists(t, db, "second") {
		t.Error("table second should be dropped")
	}
	if !tableExists(t, db, "first") {
		t.Error("table first should remain")
	}

	_, pending, err := db.MigrationStatus(ctx, fsys, "sql")
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "second" {
		t.Errorf("pending = %+v, want [second]", pending)
	}
}

func TestMigrate_BadSQL(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"20260101_000000_ok.up.sql":  {Data: []byte("CREATE TABLE ok (id INTEGER);")},
		"20260102_000000_bad.up.sql": {Data: []byte("CREATE TABLE nope (")},
	}

	if err := db.Migrate(context.Background(), fsys, "."); err == nil {
		t.Fatal("Migrate() expected error for bad SQL")
	}
	if !tableExists(t, db, "ok") {
		t.Error("earlier migration should stay committed")
	}
}

func TestMigrate_NoMigrations(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(context.Background(), fstest.MapFS{}, "missing"); err != nil {
		t.Errorf("Migrate() with no migrations error = %v", err)
	}
	if err := db.Migrate(context.Background(), nil, "."); err != nil {
		t.Errorf("Migrate() with nil fs error = %v", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		wantVersion string
		wantUp      bool
		wantOK      bool
	}{
		{"20261019_120000_supply_events.up.sql", "20261019_120000", true, true},
		{"20261019_120000_supply_events.down.sql", "20261019_120000", false, true},
		{"20261019_120000.up.sql", "20261019_120000", true, true},
		{"20261019_120000_x.sql", "", false, false},
		{"notes.txt", "", false, false},
		{"single.up.sql", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.name)
			if version != tt.wantVersion || isUp != tt.wantUp || ok != tt.wantOK {
				t.Errorf("parseMigrationFilename(%q) = %q, %v, %v; want %q, %v, %v",
					tt.name, version, isUp, ok, tt.wantVersion, tt.wantUp, tt.wantOK)
			}
		})
	}
}

func TestMigrationName(t *testing.T) {
	if got := migrationName("20261019_120000_supply_events.up.sql"); got != "supply_events" {
		t.Errorf("migrationName() = %q, want supply_events", got)
	}
	if got := migrationName("20261019_120000.down.sql"); got != "20261019_120000" {
		t.Errorf("migrationName() = %q, want 20261019_120000", got)
	}
}
