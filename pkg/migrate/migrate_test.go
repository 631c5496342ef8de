package migrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

var testMigrations = fstest.MapFS{
	"m/001_create_a.up.sql":   {Data: []byte("CREATE TABLE a (id INTEGER);")},
	"m/001_create_a.down.sql": {Data: []byte("DROP TABLE a;")},
	"m/002_create_b.up.sql":   {Data: []byte("CREATE TABLE b (id INTEGER);")},
	"m/002_create_b.down.sql": {Data: []byte("DROP TABLE b;")},
	"m/README.md":             {Data: []byte("ignored")},
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n == 1
}

func TestLoad(t *testing.T) {
	migrations, err := Load(testMigrations, "m")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "create a" || migrations[0].Down == "" {
		t.Errorf("unexpected first migration: %+v", migrations[0])
	}
}

func TestLoadRejectsBadSets(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"gap", fstest.MapFS{
			"m/001_a.up.sql": {Data: []byte("SELECT 1;")},
			"m/003_c.up.sql": {Data: []byte("SELECT 1;")},
		}},
		{"down only", fstest.MapFS{
			"m/001_a.down.sql": {Data: []byte("SELECT 1;")},
		}},
		{"missing dir", fstest.MapFS{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.fsys, "m"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestUpStatusAndTo(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	m, err := New(db, testMigrations, "m", "", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	st, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.Current != 0 || st.Latest != 2 || len(st.Pending) != 2 || st.UpToDate() {
		t.Errorf("fresh status = %+v", st)
	}

	if err := m.Up(ctx); err != nil {
		t.Fatalf("Up failed: %v", err)
	}
	if !tableExists(t, db, "a") || !tableExists(t, db, "b") {
		t.Errorf("tables not created")
	}
	// A second run is a no-op.
	if err := m.Up(ctx); err != nil {
		t.Fatalf("second Up failed: %v", err)
	}
	if st, _ = m.Status(ctx); !st.UpToDate() || len(st.Pending) != 0 {
		t.Errorf("status after Up = %+v", st)
	}

	if err := m.To(ctx, 1); err != nil {
		t.Fatalf("To(1) failed: %v", err)
	}
	if tableExists(t, db, "b") || !tableExists(t, db, "a") {
		t.Errorf("rollback to 1 should drop only b")
	}
	st, _ = m.Status(ctx)
	if st.Current != 1 || len(st.Pending) != 1 || st.Pending[0].Version != 2 {
		t.Errorf("status after rollback = %+v", st)
	}

	if err := m.To(ctx, 0); err != nil {
		t.Fatalf("To(0) failed: %v", err)
	}
	if tableExists(t, db, "a") {
		t.Errorf("table a should be dropped")
	}

	if err := m.To(ctx, 3); err == nil {
		t.Errorf("expected an error for an unknown target version")
	}
}

func TestToWithoutDownScript(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	m, err := New(db, fstest.MapFS{"m/001_a.up.sql": {Data: []byte("CREATE TABLE a (id INTEGER);")}}, "m", "versions", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := m.Up(ctx); err != nil {
		t.Fatalf("Up failed: %v", err)
	}
	if err := m.To(ctx, 0); err == nil {
		t.Error("expected an error rolling back without a down script")
	}
	if !tableExists(t, db, "versions") {
		t.Error("custom version table not used")
	}
}
