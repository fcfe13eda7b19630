package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"movieqa/internal/backend"
	"movieqa/internal/llm"
	mylog "movieqa/internal/log"
	"movieqa/internal/server"
	"movieqa/internal/vectorstore"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default MOVIEQA_ADDR or :3000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	lg := mylog.New()
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	backing, err := vectorstore.NewFromConfig(context.Background(), cfg.Corpus, cfg.Backend.Timeout, lg)
	if err != nil {
		return err
	}
	defer backing.Close()

	deps := server.Deps{
		Backend:      backend.New(cfg.Backend.URL, cfg.Backend.Timeout, lg),
		Store:        backing.Store,
		Source:       backing.Loader,
		Corpus:       backing.Loader,
		TopK:         cfg.Corpus.TopK,
		DataDir:      cfg.Server.DataDir,
		RateLimitRPS: cfg.Server.RateLimitRPS,
		IPRateRPS:    cfg.Server.IPRateRPS,
		Log:          lg,
	}
	client, err := newEmbedder(cfg)
	switch {
	case errors.Is(err, llm.ErrDisabled):
		lg.Warn("embeddings.disabled", "reason", err)
	case err != nil:
		return err
	default:
		cache := llm.NewCachingEmbedder(client, cfg.OpenAI.CacheSize, cfg.OpenAI.CacheTTL)
		deps.Embedder = cache
		deps.Cache = cache
		deps.Model = client.Model()
	}
	lg.Info("backend", "url", cfg.Backend.URL, "timeout", cfg.Backend.Timeout.String())
	return server.Run(addr, server.NewAPI(deps))
}
