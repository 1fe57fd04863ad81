// Package commands implements the bagel CLI.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bageldb/bagel-go"
	"github.com/bageldb/bagel-go/internal/config"
	logpkg "github.com/bageldb/bagel-go/internal/logger"
	"github.com/bageldb/bagel-go/internal/version"
)

const cacheReadyTimeout = 5 * time.Second

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	env        string
	logLevel   string
	baseURL    string
	apiKey     string
}

// app is the per-invocation composition root.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	client *bagel.Client
	out    io.Writer
	close  func()

	// embedder is nil when no embedding provider is configured.
	embedder bagel.Embedder
}

// NewRootCmd builds the bagel command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "bagel",
		Short:        "Command line client for the BagelDB vector database",
		Version:      version.String(),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file (default: config/<env>.yaml)")
	root.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "Environment name: local, dev, prod, test")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "Service URL, overrides server settings from the config")
	root.PersistentFlags().StringVar(&opts.apiKey, "api-key", "", "API key, overrides server.api_key")

	root.AddCommand(
		newPingCmd(opts),
		newVersionCmd(opts),
		newResetCmd(opts),
		newWaitlistCmd(opts),
		newCollectionsCmd(opts),
		newAddCmd(opts, "add"),
		newAddCmd(opts, "upsert"),
		newUpdateCmd(opts),
		newGetCmd(opts),
		newPeekCmd(opts),
		newQueryCmd(opts),
		newCountCmd(opts),
		newRemoveCmd(opts),
		newAddImageCmd(opts),
		newCreateIndexCmd(opts),
		newEmbedCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// run adapts a command body to cobra, building the app first.
func run(opts *rootOptions, fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := newApp(ctx, opts, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.close()
		return fn(ctx, a, args)
	}
}

func loadConfig(opts *rootOptions) (config.Config, error) {
	if opts.configPath != "" {
		return config.LoadFile(opts.configPath)
	}
	cfg, err := config.Load(opts.env)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Parse(nil)
	}
	return cfg, err
}

func newApp(ctx context.Context, opts *rootOptions, out io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if opts.baseURL != "" {
		cfg.Server.BaseURL = opts.baseURL
	}
	if opts.apiKey != "" {
		cfg.Server.APIKey = opts.apiKey
	}

	level := cfg.Logging.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger, err := logpkg.NewLogger(opts.env, level)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, out: out, close: func() { _ = logger.Sync() }}

	embedder, closeCache, err := buildEmbedder(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.embedder = embedder
	if closeCache != nil {
		a.close = func() {
			closeCache()
			_ = logger.Sync()
		}
	}

	clientOpts := []bagel.Option{
		bagel.WithAPIKey(cfg.Server.APIKey),
		bagel.WithBearerToken(cfg.Server.BearerToken),
		bagel.WithUserID(cfg.Server.UserID),
		bagel.WithTimeout(time.Duration(cfg.Server.TimeoutSec) * time.Second),
		bagel.WithLogger(logger),
	}
	if cfg.Server.BaseURL != "" {
		clientOpts = append(clientOpts, bagel.WithBaseURL(cfg.Server.BaseURL))
	} else {
		clientOpts = append(clientOpts,
			bagel.WithHost(cfg.Server.Host),
			bagel.WithPort(cfg.Server.Port),
			bagel.WithSSL(*cfg.Server.SSL),
		)
	}
	if cfg.Server.RateLimit > 0 {
		clientOpts = append(clientOpts, bagel.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))
	}
	if embedder != nil {
		clientOpts = append(clientOpts, bagel.WithEmbedder(embedder))
	}

	if a.client, err = bagel.New(clientOpts...); err != nil {
		a.close()
		return nil, err
	}
	logger.Debug("Client ready", zap.String("api_url", a.client.APIURL()))
	return a, nil
}

// buildEmbedder assembles the embedder chain: OpenAI -> Cached.
// It returns a nil embedder when no embedding api key is configured.
func buildEmbedder(ctx context.Context, cfg config.Config, logger *zap.Logger) (bagel.Embedder, func(), error) {
	if cfg.Embedding.APIKey == "" {
		return nil, nil, nil
	}
	emb, err := bagel.NewOpenAIEmbedder(bagel.OpenAIConfig{
		APIKey:      cfg.Embedding.APIKey,
		BaseURL:     cfg.Embedding.BaseURL,
		Model:       cfg.Embedding.Model,
		Dimensions:  cfg.Embedding.Dimensions,
		BatchSize:   cfg.Embedding.BatchSize,
		Concurrency: cfg.Embedding.Concurrency,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Cache.Enabled() {
		return emb, nil, nil
	}

	cache, err := bagel.NewValkeyCache(cfg.Cache.Addrs, cfg.Cache.Password)
	if err != nil {
		return nil, nil, err
	}
	if err := cache.WaitForReady(ctx, cacheReadyTimeout); err != nil {
		cache.Close()
		return nil, nil, fmt.Errorf("embedding cache not ready: %w", err)
	}
	cached, err := bagel.NewCachedEmbedder(emb, cache, bagel.CacheConfig{
		Model:  cfg.Embedding.Model,
		TTL:    time.Duration(cfg.Cache.TTLSec) * time.Second,
		Logger: logger,
	})
	if err != nil {
		cache.Close()
		return nil, nil, err
	}
	logger.Info("Embedding cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	return cached, cache.Close, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
