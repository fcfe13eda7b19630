package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"movieqa/internal/corpus"
	"movieqa/internal/indexer/embedpipe"
	mylog "movieqa/internal/log"
	"movieqa/internal/storage/sqlite"
	"movieqa/internal/vectorstore"
)

var (
	embedCSV     string
	embedOut     string
	embedBatch   int
	embedWorkers int
	snapshotOut  string
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Build the embeddings JSON for a movie CSV",
	RunE:  runEmbed,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Copy the configured corpus into a SQLite snapshot",
	RunE:  runSnapshot,
}

func init() {
	embedCmd.Flags().StringVar(&embedCSV, "csv", "public/data/csv/IMDb_movies.csv", "movie CSV to embed")
	embedCmd.Flags().StringVar(&embedOut, "out", "public/data/embeddings.json", "output JSON file")
	embedCmd.Flags().IntVar(&embedBatch, "batch", embedpipe.DefaultBatch, "documents per embedding call")
	embedCmd.Flags().IntVar(&embedWorkers, "workers", embedpipe.DefaultWorkers, "concurrent embedding calls")
	snapshotCmd.Flags().StringVar(&snapshotOut, "out", "movieqa.db", "SQLite file to write")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(embedCSV)
	if err != nil {
		return err
	}
	movies, err := corpus.ParseCSV(data, cfg.Corpus.Strict)
	if err != nil {
		return fmt.Errorf("%s: %w", embedCSV, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	p := embedpipe.New(client, client.Model(), mylog.New()).WithBatch(embedBatch).WithWorkers(embedWorkers)
	p.Progress = func(done, total int) {
		fmt.Fprintf(os.Stderr, "\rembedded %d/%d", done, total)
	}
	vectors, err := p.Embed(ctx, movies)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	f, err := os.Create(embedOut)
	if err != nil {
		return err
	}
	if err := embedpipe.WriteJSON(f, vectors); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Println(color.GreenString("wrote"), len(vectors), "vectors to", embedOut)
	return nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	src := cfg.Corpus
	src.Snapshot = ""
	backing, err := vectorstore.NewFromConfig(ctx, src, cfg.Backend.Timeout, mylog.New())
	if err != nil {
		return err
	}
	c, err := backing.Loader.Load(ctx)
	if err != nil {
		return err
	}

	db, err := sqlite.Open(ctx, snapshotOut)
	if err != nil {
		return err
	}
	defer db.Close()
	model := ""
	if emb, err := newEmbedder(cfg); err == nil {
		model = emb.Model()
	}
	if err := corpus.WriteSnapshot(ctx, db, c, model); err != nil {
		return err
	}
	fmt.Println(color.GreenString("snapshot"), snapshotOut, "movies:", c.Len(), "dim:", c.Dim())
	return nil
}
