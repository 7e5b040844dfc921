package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragengine/config"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Embedding.Dimension = 8
	return cfg
}

func TestBuildStoreMemory(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = "memory"

	s, err := buildStore(cfg)
	require.NoError(t, err)
	defer s.Close()
	assert.NotNil(t, s)
}

func TestBuildStoreBolt(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = "bolt"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "idx", "chunks.db")

	s, err := buildStore(cfg)
	require.NoError(t, err)
	defer s.Close()
	assert.NotNil(t, s)
}

func TestBuildStoreUnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = "cassandra"

	_, err := buildStore(cfg)
	require.Error(t, err)
}

func TestBuildStorePostgresRequiresDSN(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = "postgres"
	cfg.Storage.DSN = ""

	_, err := buildStore(cfg)
	require.Error(t, err)
}

func TestBuildStorePostgresBootstrapsSchema(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = "postgres"
	// Nothing listens on port 1: the schema bootstrap inside buildStore must
	// touch the database and surface the failure instead of handing back a
	// store that errors on first write.
	cfg.Storage.DSN = "postgres://ragengine@127.0.0.1:1/ragengine?sslmode=disable"

	_, err := buildStore(cfg)
	require.Error(t, err)
}
