// Command bundlecat lists, reads and extracts files from a game install's
// content bundles, and dumps DAT tables as JSON.
//
// Usage:
//
//	bundlecat [flags] info
//	bundlecat [flags] list [-hash] [prefix]
//	bundlecat [flags] cat <path|0xHASH>
//	bundlecat [flags] extract [-workers n] <dest> [prefix]
//	bundlecat [flags] dat -schema schema.min.json [-row n] [-limit n] [-lists] <path>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/felixge/fgprof"

	"github.com/meigma/bundles"
	"github.com/meigma/bundles/cache/disk"
)

type config struct {
	dir         string
	cacheDir    string
	cacheMax    int64
	bundleCache int
	strict      bool
	verbose     bool
	fgProfile   string
	cpuProfile  string
}

// errUsage reports bad arguments; the message has already been printed.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, rest, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	if len(rest) == 0 {
		fmt.Fprintln(stderr, "bundlecat: missing command (info, list, cat, extract, dat)")
		return 2
	}

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	stopProfiles, err := startProfiles(cfg)
	if err != nil {
		logger.Error("start profiling", "error", err)
		return 1
	}
	defer stopProfiles(logger)

	src, err := bundles.NewDirSource(cfg.dir)
	if err != nil {
		logger.Error("open install", "dir", cfg.dir, "error", err)
		return 1
	}
	defer src.Close()

	a, err := openArchive(src, cfg, logger)
	if err != nil {
		logger.Error("open install", "dir", cfg.dir, "error", err)
		return 1
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "info":
		err = runInfo(a, stdout)
	case "list":
		err = runList(a, cmdArgs, stdout, stderr)
	case "cat":
		err = runCat(a, cmdArgs, stdout, stderr)
	case "extract":
		err = runExtract(ctx, a, cmdArgs, stdout, stderr)
	case "dat":
		err = runDat(a, cmdArgs, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "bundlecat: unknown command %q\n", cmd)
		return 2
	}
	switch {
	case errors.Is(err, errUsage):
		return 2
	case err != nil:
		logger.Error(cmd, "error", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (config, []string, error) {
	var cfg config
	fs := flag.NewFlagSet("bundlecat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.dir, "dir", ".", "install directory (contains Bundles2/)")
	fs.StringVar(&cfg.cacheDir, "cache-dir", "", "directory for the serialized index cache (disabled when empty)")
	fs.Int64Var(&cfg.cacheMax, "cache-max-bytes", 256<<20, "index cache size limit in bytes (0 = unlimited)")
	fs.IntVar(&cfg.bundleCache, "bundle-cache", bundles.DefaultBundleCacheSize, "decompressed bundles kept in memory (0 disables)")
	fs.BoolVar(&cfg.strict, "strict", false, "fail when the path directory cannot be decoded")
	fs.BoolVar(&cfg.verbose, "v", false, "debug logging")
	fs.StringVar(&cfg.fgProfile, "fgprofile", "", "write fgprof (wall clock) profile to file")
	fs.StringVar(&cfg.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	if err := fs.Parse(args); err != nil {
		return cfg, nil, err
	}
	return cfg, fs.Args(), nil
}

func openArchive(src bundles.Source, cfg config, logger *slog.Logger) (*bundles.Archive, error) {
	opts := []bundles.Option{
		bundles.WithDecompressor(newDecompressor()),
		bundles.WithLogger(logger),
		bundles.WithBundleCacheSize(cfg.bundleCache),
		bundles.WithStrictPaths(cfg.strict),
	}
	if cfg.cacheDir != "" {
		c, err := disk.New(cfg.cacheDir, disk.WithMaxBytes(cfg.cacheMax))
		if err != nil {
			return nil, fmt.Errorf("open index cache: %w", err)
		}
		opts = append(opts, bundles.WithIndexCache(c))
	}
	return bundles.Open(src, opts...)
}

func startProfiles(cfg config) (func(*slog.Logger), error) {
	var stops []func(*slog.Logger)
	stopAll := func(logger *slog.Logger) {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i](logger)
		}
	}

	if cfg.fgProfile != "" {
		fgFile, err := os.Create(cfg.fgProfile)
		if err != nil {
			return nil, err
		}
		stopFG := fgprof.Start(fgFile, fgprof.FormatPprof)
		stops = append(stops, func(logger *slog.Logger) {
			if err := stopFG(); err != nil {
				logger.Warn("fgprof stop", "error", err)
			}
			_ = fgFile.Close()
		})
	}

	if cfg.cpuProfile != "" {
		cpuFile, err := os.Create(cfg.cpuProfile)
		if err != nil {
			stopAll(slog.New(slog.DiscardHandler))
			return nil, err
		}
		if err := pprof.StartCPUProfile(cpuFile); err != nil {
			_ = cpuFile.Close()
			stopAll(slog.New(slog.DiscardHandler))
			return nil, err
		}
		stops = append(stops, func(*slog.Logger) {
			pprof.StopCPUProfile()
			_ = cpuFile.Close()
		})
	}
	return stopAll, nil
}
