package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hupe1980/lexseg"
	"github.com/hupe1980/lexseg/blobstore"
	"github.com/hupe1980/lexseg/blobstore/minio"
	"github.com/hupe1980/lexseg/blobstore/s3"
	"github.com/hupe1980/lexseg/fastfield"
	"github.com/hupe1980/lexseg/termdict"
	"gopkg.in/yaml.v3"
)

// StoreConfig selects the blob store holding the segments.
type StoreConfig struct {
	Kind      string `yaml:"kind"` // local, s3 or minio
	Root      string `yaml:"root"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
}

// MergeConfig tunes merges.
type MergeConfig struct {
	Compression        string   `yaml:"compression"`
	BlockSize          int      `yaml:"block_size"`
	Workers            int      `yaml:"workers"`
	MemoryLimitBytes   int64    `yaml:"memory_limit_bytes"`
	IOLimitBytesPerSec int64    `yaml:"io_limit_bytes_per_sec"`
	OrderCheck         bool     `yaml:"order_check"`
	Codecs             []string `yaml:"codecs"`
}

// Config is the lexseg tool configuration.
type Config struct {
	Store       StoreConfig `yaml:"store"`
	Merge       MergeConfig `yaml:"merge"`
	LogLevel    string      `yaml:"log_level"`
	LogFormat   string      `yaml:"log_format"` // text or json
	MetricsAddr string      `yaml:"metrics_addr"`
}

func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Kind: "local",
			Root: ".",
		},
		Merge: MergeConfig{
			Compression: "none",
			BlockSize:   termdict.DefaultBlockSize,
			Workers:     1,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// bindFlags registers the flags shared by all commands.
func bindFlags(fs *flag.FlagSet, cfg *Config) *string {
	configPath := fs.String("config", "", "Path to YAML config file")

	fs.StringVar(&cfg.Store.Kind, "store", cfg.Store.Kind, "Store kind: local, s3 or minio")
	fs.StringVar(&cfg.Store.Root, "root", cfg.Store.Root, "Root directory of the local store")
	fs.StringVar(&cfg.Store.Bucket, "bucket", cfg.Store.Bucket, "Bucket of the s3 or minio store")
	fs.StringVar(&cfg.Store.Prefix, "prefix", cfg.Store.Prefix, "Key prefix inside the bucket")
	fs.StringVar(&cfg.Store.Endpoint, "endpoint", cfg.Store.Endpoint, "Endpoint of the s3 or minio store")
	fs.StringVar(&cfg.Store.Region, "region", cfg.Store.Region, "Region of the s3 or minio store")

	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")
	return configPath
}

// bindMergeFlags registers the flags of the merge command.
func bindMergeFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Merge.Compression, "compression", cfg.Merge.Compression, "Term dictionary compression: none, lz4 or zstd")
	fs.IntVar(&cfg.Merge.BlockSize, "block-size", cfg.Merge.BlockSize, "Term dictionary block size in bytes")
	fs.IntVar(&cfg.Merge.Workers, "workers", cfg.Merge.Workers, "Columns encoded concurrently")
	fs.Int64Var(&cfg.Merge.MemoryLimitBytes, "memory-limit", cfg.Merge.MemoryLimitBytes, "Memory budget for column encoding in bytes (0 = unlimited)")
	fs.Int64Var(&cfg.Merge.IOLimitBytesPerSec, "io-limit", cfg.Merge.IOLimitBytesPerSec, "Write throughput limit in bytes per second (0 = unlimited)")
	fs.BoolVar(&cfg.Merge.OrderCheck, "order-check", cfg.Merge.OrderCheck, "Verify that input dictionaries are sorted")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address during the merge")
}

// parseConfig parses args into cfg. Values from the config file override the
// defaults; flags given on the command line override the config file.
func parseConfig(fs *flag.FlagSet, cfg *Config, configPath *string, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return cfg.validate()
	}

	explicit := map[string]string{}
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	data, err := os.ReadFile(*configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", *configPath, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", *configPath, err)
	}

	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return err
		}
	}
	return cfg.validate()
}

func (c *Config) validate() error {
	var errs []error
	switch c.Store.Kind {
	case "local":
	case "s3", "minio":
		if c.Store.Bucket == "" {
			errs = append(errs, fmt.Errorf("store: %s requires a bucket", c.Store.Kind))
		}
		if c.Store.Kind == "minio" && c.Store.Endpoint == "" {
			errs = append(errs, errors.New("store: minio requires an endpoint"))
		}
	default:
		errs = append(errs, fmt.Errorf("store: unknown kind %q", c.Store.Kind))
	}
	if _, err := termdict.ParseCompression(c.Merge.Compression); err != nil {
		errs = append(errs, fmt.Errorf("merge: %w", err))
	}
	if _, err := c.codecs(); err != nil {
		errs = append(errs, fmt.Errorf("merge: %w", err))
	}
	if _, err := c.logLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func (c *Config) logLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

func (c *Config) codecs() ([]fastfield.CodecType, error) {
	var out []fastfield.CodecType
	for _, name := range c.Merge.Codecs {
		codec, err := fastfield.ParseCodecType(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			return nil, err
		}
		out = append(out, codec)
	}
	return out, nil
}

func (c *Config) logger(w io.Writer) *lexseg.Logger {
	level, _ := c.logLevel()
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return lexseg.NewLogger(slog.NewJSONHandler(w, opts))
	}
	return lexseg.NewLogger(slog.NewTextHandler(w, opts))
}

func (c *Config) openStore(ctx context.Context) (blobstore.BlobStore, error) {
	s := c.Store
	switch s.Kind {
	case "s3":
		return s3.New(ctx, s.Bucket,
			s3.WithPrefix(s.Prefix),
			s3.WithRegion(s.Region),
			s3.WithEndpoint(s.Endpoint),
		)
	case "minio":
		return minio.New(s.Endpoint, s.Bucket,
			minio.WithPrefix(s.Prefix),
			minio.WithCredentials(s.AccessKey, s.SecretKey),
			minio.WithRegion(s.Region),
			minio.WithSecure(s.Secure),
		)
	default:
		return blobstore.NewLocalStore(s.Root), nil
	}
}

func (c *Config) mergeOptions(logger *lexseg.Logger, mc lexseg.MetricsCollector) []lexseg.Option {
	compression, _ := termdict.ParseCompression(c.Merge.Compression)
	codecs, _ := c.codecs()
	opts := []lexseg.Option{
		lexseg.WithLogger(logger),
		lexseg.WithCompression(compression),
		lexseg.WithBlockSize(c.Merge.BlockSize),
		lexseg.WithCodecs(codecs...),
		lexseg.WithResourceConfig(lexseg.ResourceConfig{
			MaxWorkers:         c.Merge.Workers,
			MemoryLimitBytes:   c.Merge.MemoryLimitBytes,
			IOLimitBytesPerSec: c.Merge.IOLimitBytesPerSec,
		}),
	}
	if mc != nil {
		opts = append(opts, lexseg.WithMetricsCollector(mc))
	}
	if c.Merge.OrderCheck {
		opts = append(opts, lexseg.WithOrderCheck())
	}
	return opts
}
