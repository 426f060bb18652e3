package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/lexseg/blobstore"
	"github.com/hupe1980/lexseg/fastfield"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	cfg := defaultConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := bindFlags(fs, cfg)
	bindMergeFlags(fs, cfg)
	return cfg, parseConfig(fs, cfg, configPath, args)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lexseg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := parse(t)
		require.NoError(t, err)
		assert.Equal(t, defaultConfig(), cfg)
	})

	t.Run("file", func(t *testing.T) {
		path := writeConfig(t, `
store:
  kind: minio
  endpoint: localhost:9000
  bucket: segments
  prefix: idx/
  access_key: key
  secret_key: secret
merge:
  compression: zstd
  block_size: 8192
  workers: 4
  io_limit_bytes_per_sec: 1048576
  order_check: true
  codecs: [gcd, Bitpacked]
log_level: debug
log_format: json
metrics_addr: 127.0.0.1:0
`)
		cfg, err := parse(t, "-config", path)
		require.NoError(t, err)
		assert.Equal(t, "minio", cfg.Store.Kind)
		assert.Equal(t, "segments", cfg.Store.Bucket)
		assert.Equal(t, "idx/", cfg.Store.Prefix)
		assert.Equal(t, "secret", cfg.Store.SecretKey)
		assert.Equal(t, "zstd", cfg.Merge.Compression)
		assert.Equal(t, 8192, cfg.Merge.BlockSize)
		assert.Equal(t, 4, cfg.Merge.Workers)
		assert.Equal(t, int64(1<<20), cfg.Merge.IOLimitBytesPerSec)
		assert.True(t, cfg.Merge.OrderCheck)
		assert.Equal(t, "json", cfg.LogFormat)

		codecs, err := cfg.codecs()
		require.NoError(t, err)
		assert.Equal(t, []fastfield.CodecType{fastfield.CodecGCD, fastfield.CodecBitpacked}, codecs)
	})

	t.Run("flags override file", func(t *testing.T) {
		path := writeConfig(t, "store:\n  kind: local\n  root: /from/file\nmerge:\n  workers: 4\n")
		cfg, err := parse(t, "-workers", "2", "-config", path, "-compression", "lz4", "a.seg")
		require.NoError(t, err)
		assert.Equal(t, "/from/file", cfg.Store.Root)
		assert.Equal(t, 2, cfg.Merge.Workers)
		assert.Equal(t, "lz4", cfg.Merge.Compression)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := parse(t, "-store", "gcs")
		assert.ErrorContains(t, err, `unknown kind "gcs"`)

		_, err = parse(t, "-store", "s3")
		assert.ErrorContains(t, err, "requires a bucket")

		_, err = parse(t, "-compression", "brotli")
		assert.Error(t, err)

		_, err = parse(t, "-log-level", "loud")
		assert.Error(t, err)

		_, err = parse(t, "-config", filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)

		_, err = parse(t, "-config", writeConfig(t, "store: [unterminated"))
		assert.Error(t, err)
	})
}

func TestOpenStore(t *testing.T) {
	cfg := defaultConfig()
	cfg.Store.Root = t.TempDir()
	store, err := cfg.openStore(t.Context())
	require.NoError(t, err)
	assert.IsType(t, &blobstore.LocalStore{}, store)
}
