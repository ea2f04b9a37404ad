// Command aito-upload loads the grocery demo schema and data into a predictive database instance.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AitoDotAI/aito-demo/internal/config"
	dbRedis "github.com/AitoDotAI/aito-demo/internal/db/redis"
	logpkg "github.com/AitoDotAI/aito-demo/internal/logger"
	"github.com/AitoDotAI/aito-demo/internal/repository/querycache"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
	"github.com/AitoDotAI/aito-demo/internal/upload"
	"github.com/AitoDotAI/aito-demo/internal/version"
)

// errUploadFailed marks a run where at least one table failed.
var errUploadFailed = errors.New("some uploads failed")

type flags struct {
	dryRun     bool
	skipSchema bool
	onlyTable  string
	dataDir    string
	delay      time.Duration
	flushCache bool
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "aito-upload",
		Short: "Upload the grocery schema and data",
		Long: "Uploads schema.json and every table file from the data directory in dependency order.\n" +
			"Reads AITO_URL and AITO_READ_WRITE_KEY (or AITO_API_KEY), falling back to the server config.",
		Version:      version.String(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}

	fl := cmd.Flags()
	fl.BoolVar(&f.dryRun, "dry-run", false, "Validate files and print the plan without uploading")
	fl.BoolVar(&f.skipSchema, "skip-schema", false, "Do not upload schema.json")
	fl.StringVar(&f.onlyTable, "only-table", "", "Upload a single table")
	fl.StringVar(&f.dataDir, "data-dir", "src/data", "Directory holding schema.json and table files")
	fl.DurationVar(&f.delay, "delay", time.Second, "Pause between table uploads")
	fl.BoolVar(&f.flushCache, "flush-cache", false,
		"Purge cached query responses from Redis (REDIS_ADDR or cache.addrs) after a successful upload")
	return cmd
}

func run(ctx context.Context, f flags) error {
	env := config.GetEnv()
	base, err := logpkg.NewLogger(env)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	logger := base.Named("aito-upload")
	defer func() { _ = logger.Sync() }()

	url, key := resolveTarget(env)
	logger.Info("starting data upload",
		zap.String("aito_url", url),
		zap.Bool("api_key_configured", key != ""),
		zap.String("data_dir", f.dataDir),
		zap.Bool("dry_run", f.dryRun),
	)
	if url == "" {
		return errors.New("aito url not configured: set AITO_URL or REACT_APP_AITO_URL")
	}
	if key == "" {
		return errors.New("api key not configured: set AITO_READ_WRITE_KEY or AITO_API_KEY")
	}

	client, err := aito.New(aito.Config{
		BaseURL:       url,
		APIKey:        key,
		Timeout:       2 * time.Minute,
		UploadTimeout: 5 * time.Minute,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("create aito client: %w", err)
	}

	sum, err := upload.New(client, logger).Run(ctx, upload.Options{
		DataDir:    f.dataDir,
		DryRun:     f.dryRun,
		SkipSchema: f.skipSchema,
		OnlyTable:  f.onlyTable,
		Delay:      f.delay,
	})
	if err != nil {
		logger.Error("upload aborted", zap.Error(err))
		return err
	}
	if !sum.OK() {
		logger.Error("some uploads failed, check the logs above", zap.Int("failed", sum.Failed))
		return errUploadFailed
	}
	logger.Info("all uploads completed")

	if f.flushCache && !f.dryRun {
		return flushCache(ctx, cacheAddrs(env), logger)
	}
	return nil
}

// flushCache drops responses cached by the server so it serves the new data.
func flushCache(ctx context.Context, addrs []string, logger *zap.Logger) error {
	store, err := dbRedis.NewStore(dbRedis.Config{Addrs: addrs, Password: os.Getenv("REDIS_PASSWORD")})
	if err != nil {
		return fmt.Errorf("connect cache: %w", err)
	}
	defer store.Close()

	n, err := querycache.Purge(ctx, store)
	if err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}
	logger.Info("query cache flushed", zap.Int("keys", n), zap.Strings("addrs", addrs))
	return nil
}

// cacheAddrs reads the Redis address from REDIS_ADDR, then the server config.
func cacheAddrs(env string) []string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return []string{addr}
	}
	if cfg, err := config.Load(env); err == nil && len(cfg.Cache.Addrs) > 0 {
		return cfg.Cache.Addrs
	}
	return []string{"localhost:6379"}
}

// resolveTarget picks the database URL and write key from the environment, then the server config.
func resolveTarget(env string) (url, key string) {
	url = os.Getenv("AITO_URL")
	key = firstNonEmpty(os.Getenv("AITO_READ_WRITE_KEY"), os.Getenv("AITO_API_KEY"))
	if url != "" && key != "" {
		return url, key
	}
	if cfg, err := config.Load(env); err == nil {
		url = firstNonEmpty(url, cfg.Aito.URL)
		key = firstNonEmpty(key, cfg.Aito.APIKey)
	}
	return url, key
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
