package linkdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "links.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAndClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "links.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if db.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
	}

	if err := db.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "links.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("directory was not created")
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "links.db")
	ctx := context.Background()

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	src := Endpoint{DocumentID: "a.xml", NodeID: "/a[1]"}
	dst := Endpoint{DocumentID: "b.xml", NodeID: "/b[1]"}
	if _, err := db.AddLink(ctx, src, dst); err != nil {
		t.Fatalf("AddLink failed: %v", err)
	}
	db.Close()

	db, err = Open(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	var version int
	if err := db.conn.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		t.Fatalf("reading schema version: %v", err)
	}
	if version != 1 {
		t.Errorf("schema version = %d, want 1", version)
	}

	ok, err := db.HasLink(ctx, src, dst)
	if err != nil {
		t.Fatalf("HasLink failed: %v", err)
	}
	if !ok {
		t.Error("link did not survive reopen")
	}
}

func TestAddAndQueryLinks(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	src1 := Endpoint{DocumentID: "a.xml", NodeID: "/a[1]/p[1]"}
	src2 := Endpoint{DocumentID: "a.xml", NodeID: "/a[1]/p[2]"}
	dst := Endpoint{DocumentID: "b.xml", NodeID: "/b[1]/section[1]"}

	added, err := db.AddLink(ctx, src1, dst)
	if err != nil {
		t.Fatalf("AddLink failed: %v", err)
	}
	if !added {
		t.Error("first AddLink should report added")
	}

	added, err = db.AddLink(ctx, src1, dst)
	if err != nil {
		t.Fatalf("duplicate AddLink failed: %v", err)
	}
	if added {
		t.Error("duplicate AddLink should report not added")
	}

	if _, err := db.AddLink(ctx, src2, dst); err != nil {
		t.Fatalf("AddLink failed: %v", err)
	}

	has, err := db.HasLink(ctx, src2, dst)
	if err != nil || !has {
		t.Errorf("HasLink(src2, dst) = %v, %v; want true", has, err)
	}
	has, err = db.HasLink(ctx, dst, src1)
	if err != nil || has {
		t.Errorf("HasLink(dst, src1) = %v, %v; want false", has, err)
	}

	links, err := db.LinksTo(ctx, dst)
	if err != nil {
		t.Fatalf("LinksTo failed: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("LinksTo returned %d links, want 2", len(links))
	}
	if links[0].Source != src1 || links[1].Source != src2 {
		t.Errorf("LinksTo order = %+v", links)
	}

	all, err := db.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List returned %d links, want 2", len(all))
	}
	if all[0].CreatedAt.IsZero() {
		t.Error("CreatedAt was not populated")
	}
}
