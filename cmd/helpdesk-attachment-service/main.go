// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/helpdesk/lib/attachment"
	"github.com/bureau-foundation/helpdesk/lib/clock"
	"github.com/bureau-foundation/helpdesk/lib/config"
	"github.com/bureau-foundation/helpdesk/lib/helpdesk"
	"github.com/bureau-foundation/helpdesk/lib/service"
	"github.com/bureau-foundation/helpdesk/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		socketPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "path to helpdesk.yaml (defaults to $HELPDESK_CONFIG)")
	flag.StringVar(&socketPath, "socket", "", "Unix socket path (overrides service.socket_path)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("helpdesk-attachment-service %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := service.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.Real()

	cacheRoot := cfg.Cache.Directory
	if cacheRoot == "" {
		cacheRoot = attachment.DefaultCacheDirectory()
	}
	store, err := attachment.NewStore(cacheRoot, clk)
	if err != nil {
		return fmt.Errorf("opening cache root: %w", err)
	}

	upstream, err := helpdesk.NewClient(helpdesk.Config{
		BaseURL:    cfg.Upstream.BaseURL,
		Email:      cfg.Upstream.Email,
		APIToken:   cfg.Upstream.APIToken,
		OAuthToken: cfg.Upstream.OAuthToken,
		Clock:      clk,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	manager := attachment.NewManager(store, fetchFromUpstream(upstream), clk, logger)

	// Eviction runs only when the config asks for it.
	policies, err := evictionPolicies(&cfg.Cache, store.Root())
	if err != nil {
		return err
	}
	sweepInterval, err := cfg.Cache.SweepIntervalDuration()
	if err != nil {
		return err
	}
	go manager.RunSweeper(ctx, sweepInterval, policies...)

	if socketPath == "" {
		socketPath = cfg.Service.SocketPath
	}
	server := service.NewSocketServer(socketPath, logger)
	svc := &attachmentService{
		store:     store,
		manager:   manager,
		clock:     clk,
		startedAt: clk.Now(),
		cacheRoot: cacheRoot,
	}
	svc.registerActions(server)

	socketDone := make(chan error, 1)
	go func() {
		socketDone <- server.Serve(ctx)
	}()

	logger.Info("attachment service running",
		"socket", socketPath,
		"cache_root", cacheRoot,
		"sweep_interval", sweepInterval,
		"eviction_policies", len(policies),
	)

	<-ctx.Done()
	logger.Info("shutting down")

	// Wait for the socket server to drain active connections.
	if err := <-socketDone; err != nil {
		logger.Error("socket server error", "error", err)
	}
	return nil
}

// loadConfig resolves the configuration from the --config flag or the
// HELPDESK_CONFIG environment variable.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// fetchFromUpstream adapts the upstream API client into the cache's
// fetch collaborator: look up the attachment record, then open a
// streaming download of its content.
func fetchFromUpstream(client *helpdesk.Client) attachment.FetchFunc {
	return func(ctx context.Context, id int64) (*attachment.FetchResult, error) {
		record, err := client.ShowAttachment(ctx, id)
		if err != nil {
			return nil, err
		}
		if record.Deleted {
			return nil, fmt.Errorf("attachment %d is redacted upstream", id)
		}
		body, err := client.Download(ctx, record.ContentURL)
		if err != nil {
			return nil, err
		}
		return &attachment.FetchResult{
			Body:        body,
			Filename:    record.FileName,
			ContentType: record.ContentType,
			Locator:     record.ContentURL,
		}, nil
	}
}

// evictionPolicies builds the sweeper policy chain from the cache
// configuration. An empty chain disables the sweeper.
func evictionPolicies(cfg *config.CacheConfig, cacheRoot string) ([]attachment.EvictionPolicy, error) {
	var policies []attachment.EvictionPolicy

	maxAge, err := cfg.MaxEntryAgeDuration()
	if err != nil {
		return nil, err
	}
	if maxAge > 0 {
		policies = append(policies, attachment.MaxAgePolicy{MaxAge: maxAge})
	}
	if cfg.MaxTotalBytes > 0 {
		policies = append(policies, attachment.MaxTotalBytesPolicy{MaxBytes: cfg.MaxTotalBytes})
	}
	if cfg.MinFreeBytes > 0 {
		policies = append(policies, attachment.MinFreeBytesPolicy{
			Root:    cacheRoot,
			MinFree: uint64(cfg.MinFreeBytes),
		})
	}
	return policies, nil
}
