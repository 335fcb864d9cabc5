package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"coderx/internal/config"
	"coderx/internal/storage"
)

func TestOpenStore(t *testing.T) {
	store, err := openStore(config.StorageConfig{Backend: config.StorageBackendMemory})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*storage.MemoryStore); !ok {
		t.Fatalf("memory backend gave %T", store)
	}
	_ = store.Close()

	path := filepath.Join(t.TempDir(), "s.db")
	store, err = openStore(config.StorageConfig{Backend: config.StorageBackendSQLite, Path: path})
	if err != nil {
		t.Fatal(err)
	}
	sq, ok := store.(*storage.SQLiteStore)
	if !ok {
		t.Fatalf("sqlite backend gave %T", store)
	}
	if sq.Path() != path {
		t.Fatalf("path=%q", sq.Path())
	}
	_ = store.Close()

	if _, err := openStore(config.StorageConfig{Backend: "redis"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestRunInitConfig(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	if err := runInitConfig(&out, dir); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "wrote ") {
		t.Fatalf("out=%q", out.String())
	}
	out.Reset()
	if err := runInitConfig(&out, dir); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Fatalf("out=%q", out.String())
	}
}
