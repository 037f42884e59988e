package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/haukened/rr-psl/internal/psl/common/clock"
	"github.com/haukened/rr-psl/internal/psl/common/log"
	"github.com/haukened/rr-psl/internal/psl/config"
	"github.com/haukened/rr-psl/internal/psl/gateways/source"
	"github.com/haukened/rr-psl/internal/psl/repos/lookup"
	"github.com/haukened/rr-psl/internal/psl/repos/lookup/bloom"
	"github.com/haukened/rr-psl/internal/psl/repos/lookup/lru"
	"github.com/haukened/rr-psl/internal/psl/repos/snapshot"
	"github.com/haukened/rr-psl/internal/psl/repos/snapshot/bolt"
	"github.com/haukened/rr-psl/internal/psl/repos/suffixlist/overlay"
	"github.com/haukened/rr-psl/internal/psl/services/resolver"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "rr-psl"

	// absent marks a missing value in an output column
	absent = "-"
)

// Application holds all the components of the resolver CLI
type Application struct {
	config    *config.AppConfig
	resolver  *resolver.Resolver
	snapshots snapshot.Store
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":      version,
		"env":          cfg.Env,
		"log_level":    cfg.LogLevel,
		"source":       cfg.Source,
		"cache_size":   cfg.CacheSize,
		"snapshot_db":  cfg.SnapshotDB,
		"rules_dir":    cfg.RulesDir,
		"compare_list": cfg.CompareBuiltin,
	}, "Starting "+appName)

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = app.Run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	stop()
	if cerr := app.Close(); cerr != nil {
		log.Warn(map[string]any{"error": cerr}, "Error closing snapshot store")
	}
	if err != nil {
		log.Error(map[string]any{"error": err}, "Resolution failed")
		os.Exit(1)
	}
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	clk := &clock.RealClock{}
	logger := log.GetLogger()

	repos, err := buildRepositories(cfg, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to build repositories: %w", err)
	}

	src, err := source.New(cfg.Source, cfg.Timeout)
	if err != nil {
		closeStore(repos.snapshots)
		return nil, fmt.Errorf("failed to create list source: %w", err)
	}
	log.Info(map[string]any{
		"source":  src.Name(),
		"timeout": cfg.Timeout,
	}, "List source configured")

	var extra []string
	if cfg.RulesDir != "" {
		extra, err = overlay.LoadDirectory(cfg.RulesDir)
		if err != nil {
			closeStore(repos.snapshots)
			return nil, fmt.Errorf("failed to load overlay rules: %w", err)
		}
		log.Info(map[string]any{
			"rules_dir": cfg.RulesDir,
			"rules":     len(extra),
		}, "Overlay rules loaded")
	}

	svc, err := resolver.New(resolver.Options{
		Source:         src,
		Lookup:         repos.lookup,
		Snapshots:      repos.snapshots,
		Clock:          clk,
		Logger:         logger,
		CompareBuiltin: cfg.CompareBuiltin,
		Extra:          extra,
	})
	if err != nil {
		closeStore(repos.snapshots)
		return nil, fmt.Errorf("failed to build resolver: %w", err)
	}

	return &Application{
		config:    cfg,
		resolver:  svc,
		snapshots: repos.snapshots,
	}, nil
}

// repositories holds all repository implementations
type repositories struct {
	lookup    lookup.Repository
	snapshots snapshot.Store // nil when snapshots are disabled
}

// buildRepositories creates and configures all repository implementations
func buildRepositories(cfg *config.AppConfig, clk clock.Clock) (*repositories, error) {
	var cache lookup.ResultCache
	var err error
	if cfg.DisableCache {
		cache, err = lru.New(0)
		log.Info(map[string]any{"disabled": true}, "Lookup caching disabled")
	} else {
		// Safely convert uint to int with bounds check
		if cfg.CacheSize > uint(^uint(0)>>1) {
			return nil, fmt.Errorf("cache size too large: %d (max %d)", cfg.CacheSize, ^uint(0)>>1)
		}
		cache, err = lru.New(int(cfg.CacheSize))
		log.Info(map[string]any{
			"type": "LRU",
			"size": cfg.CacheSize,
		}, "Lookup cache configured")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup cache: %w", err)
	}

	repo := lookup.NewRepository(cache, bloom.NewFactory(), cfg.BloomFPRate, clk)

	var store snapshot.Store
	if cfg.SnapshotDB != "" {
		store, err = bolt.New(cfg.SnapshotDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot db %q: %w", cfg.SnapshotDB, err)
		}
		stats := store.Stats()
		log.Info(map[string]any{
			"path":        cfg.SnapshotDB,
			"sources":     stats.Sources,
			"total_lines": stats.TotalLines,
		}, "Snapshot store opened")
	}

	return &repositories{lookup: repo, snapshots: store}, nil
}

func closeStore(s snapshot.Store) {
	if s != nil {
		_ = s.Close()
	}
}

// Run loads the list and writes one line per host to out. Hosts come from
// args, or from in (one per line) when args is empty.
func (app *Application) Run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	if err := app.resolver.Load(ctx); err != nil {
		return fmt.Errorf("failed to load public suffix list: %w", err)
	}

	w := bufio.NewWriter(out)
	emit := func(host string) error {
		_, err := io.WriteString(w, formatResult(app.resolver.Resolve(host)))
		return err
	}

	if len(args) > 0 {
		for _, host := range args {
			if err := emit(host); err != nil {
				return err
			}
		}
	} else {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			host := strings.TrimSpace(scanner.Text())
			if host == "" {
				continue
			}
			if err := emit(host); err != nil {
				return err
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read hosts: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stats := app.resolver.Stats()
	log.Debug(map[string]any{
		"rules":           stats.Rules,
		"bloom_enabled":   stats.BloomEnabled,
		"bloom_shortcuts": stats.BloomShortcuts,
		"cache_hits":      stats.Cache.Hits,
		"cache_misses":    stats.Cache.Misses,
	}, "Lookup stats")
	return nil
}

// Close releases the snapshot store, if any.
func (app *Application) Close() error {
	if app.snapshots == nil {
		return nil
	}
	return app.snapshots.Close()
}

// formatResult renders host, tld, domain, parents and rule separated by tabs,
// followed by the builtin list's tld, domain and agreement when present.
func formatResult(res resolver.Result) string {
	cols := []string{
		orAbsent(res.Host),
		orAbsent(res.TLD),
		orAbsent(res.Domain),
		orAbsent(strings.Join(res.Parents, ",")),
		orAbsent(res.Rule),
	}
	if b := res.Builtin; b != nil {
		cols = append(cols, orAbsent(b.TLD), orAbsent(b.Domain), strconv.FormatBool(b.Agrees))
	}
	return strings.Join(cols, "\t") + "\n"
}

func orAbsent(s string) string {
	if s == "" {
		return absent
	}
	return s
}
