package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"movieqa/internal/llm"
	mylog "movieqa/internal/log"
	"movieqa/internal/rag/planner"
	"movieqa/internal/rag/retriever"
	"movieqa/internal/rag/similarity"
	"movieqa/internal/vectorstore"
)

//go:embed web
var webFS embed.FS

// Asker answers a question. *backend.Client satisfies it.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// CorpusSize reports the number of loaded movies without triggering a load.
type CorpusSize interface {
	Size() (int, bool)
}

// Deps are the collaborators of the HTTP surface. Only Backend is required;
// /search answers 503 for modes whose dependencies are missing.
type Deps struct {
	Backend Asker

	Store    vectorstore.VectorStore
	Source   vectorstore.Source
	Embedder llm.Embedder
	Model    string
	TopK     int

	// Cache, when set, feeds the embed cache counters on /metrics.
	Cache *llm.CachingEmbedder
	// Corpus, when set, feeds the corpus size gauge on /metrics.
	Corpus CorpusSize

	DataDir      string
	RateLimitRPS float64
	IPRateRPS    float64
	Log          *mylog.Logger
}

type API struct {
	backend    Asker
	retrievers map[string]retriever.Retriever
	topK       int
	cache      *llm.CachingEmbedder
	corpus     CorpusSize
	dataDir    string
	limits     rateLimits
	log        *mylog.Logger
	metrics    *metricsCollector
}

// Search modes accepted by /search?mode=.
const (
	ModeKNN     = planner.ModeKNN
	ModeLexical = planner.ModeLexical
	ModeHybrid  = planner.ModeHybrid
	ModeAuto    = "auto"
)

func NewAPI(d Deps) *API {
	lg := d.Log
	if lg == nil {
		lg = mylog.Discard()
	}
	a := &API{
		backend:    d.Backend,
		retrievers: make(map[string]retriever.Retriever),
		topK:       d.TopK,
		cache:      d.Cache,
		corpus:     d.Corpus,
		dataDir:    d.DataDir,
		limits:     rateLimits{global: d.RateLimitRPS, ip: d.IPRateRPS},
		log:        lg,
		metrics:    newMetrics(),
	}
	if a.topK <= 0 {
		a.topK = similarity.DefaultK
	}
	var knn, lex retriever.Retriever
	if d.Store != nil && d.Embedder != nil {
		knn = retriever.NewKNN(d.Store, d.Embedder, d.Model)
		a.retrievers[ModeKNN] = knn
		lg.Info("search.mode", "mode", ModeKNN, "status", "enabled")
	} else {
		lg.Info("search.mode", "mode", ModeKNN, "status", "disabled")
	}
	if d.Source != nil {
		lex = retriever.NewLexical(d.Source)
		a.retrievers[ModeLexical] = lex
	}
	if knn != nil && lex != nil {
		a.retrievers[ModeHybrid] = retriever.NewHybrid(lex, knn, 1.0)
	}
	return a
}

func (a *API) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ask", a.handleAsk)
	mux.HandleFunc("/search", a.handleSearch)
	mux.HandleFunc("/metrics", a.handleMetrics)
	if a.dataDir != "" {
		mux.Handle("/data/", http.StripPrefix("/data/", http.FileServer(http.Dir(a.dataDir))))
	}
	mux.HandleFunc("/", a.handleIndex)
	return mux
}

// Handler is the full middleware chain around the routes. Responses are
// gzip-compressed for clients that accept it; embeddings.json is large.
func (a *API) Handler() http.Handler {
	return a.logMiddleware(a.rateLimitMiddleware(gzhttp.GzipHandler(a.mux())))
}

func (a *API) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	page, err := fs.ReadFile(webFS, "web/index.html")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// Run serves a until SIGINT/SIGTERM, then shuts down within 5s.
func Run(addr string, a *API) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	a.log.Info("server.listen", "addr", addr)

	// graceful shutdown on SIGINT/SIGTERM
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	select {
	case sig := <-sigc:
		a.log.Info("server.shutdown", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
