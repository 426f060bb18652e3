// Command lexseg inspects and merges lexseg segments.
//
//	lexseg inspect [-config cfg.yaml] [flags] <segment>...
//	lexseg lookup [-config cfg.yaml] [flags] -field <field> <segment> <term>...
//	lexseg merge [-config cfg.yaml] [flags] -o <output> <segment>...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/hupe1980/lexseg"
	"github.com/hupe1980/lexseg/metrics/promcollector"
	"github.com/hupe1980/lexseg/termdict"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const usage = `usage:
  lexseg inspect [-config cfg.yaml] [flags] <segment>...
  lexseg lookup [-config cfg.yaml] [flags] -field <field> <segment> <term>...
  lexseg merge [-config cfg.yaml] [flags] -o <output> <segment>...

Run "lexseg <command> -h" for the flags of a command.`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "lexseg:", err)
		}
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "inspect":
		return runInspect(ctx, args[1:], stdout, stderr)
	case "lookup":
		return runLookup(ctx, args[1:], stdout, stderr)
	case "merge":
		return runMerge(ctx, args[1:], stdout, stderr)
	case "help", "-h", "-help", "--help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func runInspect(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg := defaultConfig()
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := bindFlags(fs, cfg)
	if err := parseConfig(fs, cfg, configPath, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: inspect needs at least one segment", errUsage)
	}

	store, err := cfg.openStore(ctx)
	if err != nil {
		return err
	}
	logger := cfg.logger(stderr)

	for _, name := range fs.Args() {
		seg, err := lexseg.OpenSegment(ctx, store, name, lexseg.WithLogger(logger))
		if err != nil {
			return err
		}
		info, err := seg.Describe()
		closeErr := seg.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return closeErr
		}
		if err := printInfo(stdout, info); err != nil {
			return err
		}
	}
	return nil
}

// lookupCacheBytes bounds the dictionary block cache shared by the lookups
// of one invocation.
const lookupCacheBytes = 8 << 20

func runLookup(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg := defaultConfig()
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := bindFlags(fs, cfg)
	field := fs.String("field", "", "Field of the term dictionary")
	if err := parseConfig(fs, cfg, configPath, args); err != nil {
		return err
	}
	if *field == "" || fs.NArg() < 2 {
		return fmt.Errorf("%w: lookup needs -field, a segment and at least one term", errUsage)
	}

	store, err := cfg.openStore(ctx)
	if err != nil {
		return err
	}

	seg, err := lexseg.OpenSegment(ctx, store, fs.Arg(0),
		lexseg.WithLogger(cfg.logger(stderr)),
		lexseg.WithBlockCache(termdict.NewLRUBlockCache(lookupCacheBytes)),
	)
	if err != nil {
		return err
	}
	defer seg.Close()

	dict, err := seg.TermDictionary(*field)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, term := range fs.Args()[1:] {
		info, ok, err := dict.Get([]byte(term))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(tw, "%s\tnot found\n", term)
			continue
		}
		fmt.Fprintf(tw, "%s\tdoc_freq=%d\tpostings=%d+%d\tpositions=%d\n",
			term, info.DocFreq, info.PostingsStart, info.PostingsLen, info.PositionsStart)
	}
	return tw.Flush()
}

func printInfo(w io.Writer, info *lexseg.SegmentInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "segment\t%s\n", info.Name)
	fmt.Fprintf(tw, "id\t%s\n", info.ID)
	fmt.Fprintf(tw, "docs\t%d (%d alive)\n", info.NumDocs, info.NumAliveDocs)
	fmt.Fprintf(tw, "bytes\t%d\n", info.Bytes)
	for _, d := range info.Dictionaries {
		fmt.Fprintf(tw, "terms\t%s\t%d terms\t%s\t%d bytes\n", d.Field, d.Terms, d.Compression, d.Bytes)
	}
	for _, c := range info.Columns {
		fmt.Fprintf(tw, "column\t%s\t%s\t[%d, %d]\t%d bytes\n", c.Field, c.Codec, c.Min, c.Max, c.Bytes)
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}

func runMerge(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg := defaultConfig()
	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := bindFlags(fs, cfg)
	bindMergeFlags(fs, cfg)
	output := fs.String("o", "", "Name of the merged segment")
	if err := parseConfig(fs, cfg, configPath, args); err != nil {
		return err
	}
	if *output == "" || fs.NArg() == 0 {
		return fmt.Errorf("%w: merge needs -o and at least one segment", errUsage)
	}

	store, err := cfg.openStore(ctx)
	if err != nil {
		return err
	}
	logger := cfg.logger(stderr)

	var mc lexseg.MetricsCollector
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		pc, err := promcollector.New(reg)
		if err != nil {
			return err
		}
		mc = pc

		shutdown, err := serveMetrics(cfg.MetricsAddr, reg)
		if err != nil {
			return err
		}
		defer shutdown()
		logger.InfoContext(ctx, "serving metrics", "addr", cfg.MetricsAddr)
	}

	stats, err := lexseg.Merge(ctx, store, fs.Args(), *output, cfg.mergeOptions(logger, mc)...)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "segment\t%s\n", *output)
	fmt.Fprintf(tw, "id\t%s\n", stats.SegmentID)
	fmt.Fprintf(tw, "inputs\t%d\n", stats.Inputs)
	fmt.Fprintf(tw, "docs\t%d (%d dropped)\n", stats.NumDocs, stats.DroppedDocs)
	fmt.Fprintf(tw, "bytes\t%d\n", stats.Bytes)
	fmt.Fprintf(tw, "duration\t%s\n", stats.Duration.Round(time.Millisecond))
	for _, c := range stats.Columns {
		fmt.Fprintf(tw, "column\t%s\t%s\t%d bytes\n", c.Field, c.Codec, c.Bytes)
	}
	return tw.Flush()
}

// serveMetrics exposes reg on addr until the returned function is called.
func serveMetrics(addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
