package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Index.ChunkSize != 2000 {
		t.Errorf("expected ChunkSize=2000, got %d", cfg.Index.ChunkSize)
	}
	if cfg.Index.ChunkOverlap != 400 {
		t.Errorf("expected ChunkOverlap=400, got %d", cfg.Index.ChunkOverlap)
	}
	if cfg.Retrieve.Limit != 10 {
		t.Errorf("expected Limit=10, got %d", cfg.Retrieve.Limit)
	}
	if cfg.Retrieve.Threshold != 0.7 {
		t.Errorf("expected Threshold=0.7, got %f", cfg.Retrieve.Threshold)
	}
	if cfg.Rerank.TimeoutMs != 700 {
		t.Errorf("expected TimeoutMs=700, got %d", cfg.Rerank.TimeoutMs)
	}
	if cfg.Storage.Driver != "bolt" {
		t.Errorf("expected Driver=bolt, got %s", cfg.Storage.Driver)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "ragengine.yaml")

	content := `
index:
  chunk_size: 500
  chunk_overlap: 50
retrieve:
  limit: 5
storage:
  driver: postgres
  dsn: postgres://localhost/rag
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Index.ChunkSize != 500 {
		t.Errorf("expected ChunkSize=500, got %d", cfg.Index.ChunkSize)
	}
	if cfg.Retrieve.Limit != 5 {
		t.Errorf("expected Limit=5, got %d", cfg.Retrieve.Limit)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("expected Driver=postgres, got %s", cfg.Storage.Driver)
	}
	// Untouched sections keep their defaults.
	if cfg.Rerank.TimeoutMs != 700 {
		t.Errorf("expected TimeoutMs=700, got %d", cfg.Rerank.TimeoutMs)
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "ragengine.yaml")

	content := `
server:
  addr: ":9090"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected Addr=:9090, got %s", cfg.Server.Addr)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "out", "ragengine.yaml")

	cfg := DefaultConfig()
	cfg.Server.Addr = ":7070"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Server.Addr != ":7070" {
		t.Errorf("expected Addr=:7070, got %s", loaded.Server.Addr)
	}
}
