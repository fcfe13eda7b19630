package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"movieqa/internal/llm"
	mylog "movieqa/internal/log"
	"movieqa/internal/rag/planner"
	"movieqa/internal/rag/retriever"
	"movieqa/internal/vectorstore"
)

var (
	evalCases string
	evalMode  string
	evalJSON  bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score retrieval against labelled questions (hit@5, hit@10, MRR)",
	RunE:  runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalCases, "cases", "cases.json", `JSON array of {"query": ..., "titles": [...]}`)
	evalCmd.Flags().StringVar(&evalMode, "mode", planner.ModeLexical, "knn|lexical|hybrid")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "print the report as JSON")
}

func runEval(cmd *cobra.Command, args []string) error {
	f, err := os.Open(evalCases)
	if err != nil {
		return err
	}
	cases, err := retriever.ReadCases(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", evalCases, err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	backing, err := vectorstore.NewFromConfig(ctx, cfg.Corpus, cfg.Backend.Timeout, mylog.New())
	if err != nil {
		return err
	}
	defer backing.Close()

	lex := retriever.NewLexical(backing.Loader)
	var r retriever.Retriever
	switch evalMode {
	case planner.ModeLexical:
		r = lex
	case planner.ModeKNN, planner.ModeHybrid:
		emb, err := newEmbedder(cfg)
		if err != nil {
			return fmt.Errorf("%s mode: %w", evalMode, err)
		}
		knn := retriever.NewKNN(backing.Store, llm.NewCachingEmbedder(emb, cfg.OpenAI.CacheSize, cfg.OpenAI.CacheTTL), emb.Model())
		r = knn
		if evalMode == planner.ModeHybrid {
			r = retriever.NewHybrid(lex, knn, 1.0)
		}
	default:
		return fmt.Errorf("unknown mode %q (want knn, lexical or hybrid)", evalMode)
	}

	rep, err := retriever.Evaluate(ctx, r, cases)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if evalJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	fmt.Fprintf(out, "%s  cases=%d  hit@5=%.3f  hit@10=%.3f  MRR=%.3f\n",
		color.CyanString(evalMode), rep.Cases, rep.HitAt5, rep.HitAt10, rep.MRR)
	for _, q := range rep.Misses {
		fmt.Fprintln(out, color.YellowString("miss:"), q)
	}
	return nil
}
