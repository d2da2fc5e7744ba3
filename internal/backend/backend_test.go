package backend

import (
	"path/filepath"
	"testing"

	"rasid/internal/config"
)

func TestCreateStoreMemory(t *testing.T) {
	f := NewFactory(nil)
	res, err := f.CreateStore(&config.Config{DataBackend: config.BackendMemory})
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	if res.Store == nil {
		t.Fatal("expected a store")
	}
	if res.Cleanup != nil {
		t.Error("memory backend needs no cleanup")
	}
}

func TestCreateStoreSQLite(t *testing.T) {
	f := NewFactory(nil)
	res, err := f.CreateStore(&config.Config{
		DataBackend:  config.BackendSQLite,
		SQLiteDBPath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	if res.Cleanup == nil {
		t.Fatal("sqlite backend must expose a cleanup")
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup: %v", err)
	}
}

func TestCreateStoreUnsupported(t *testing.T) {
	f := NewFactory(nil)
	if _, err := f.CreateStore(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}
