package server

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"movieqa/internal/version"
)

// lightweight in-process metrics collector
type metricsCollector struct {
	mu sync.Mutex
	// counters keyed by method|path|status
	reqTotal map[string]int
	// duration sum/count keyed by method|path
	durSum   map[string]float64
	durCount map[string]int
	// /ask outcomes: ok, invalid, backend_error
	askTotal map[string]int
}

func newMetrics() *metricsCollector {
	return &metricsCollector{
		reqTotal: make(map[string]int),
		durSum:   make(map[string]float64),
		durCount: make(map[string]int),
		askTotal: make(map[string]int),
	}
}

func (m *metricsCollector) request(method, path string, status int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqTotal[method+"|"+path+"|"+strconv.Itoa(status)]++
	m.durSum[method+"|"+path] += d.Seconds()
	m.durCount[method+"|"+path]++
}

func (m *metricsCollector) ask(outcome string) {
	m.mu.Lock()
	m.askTotal[outcome]++
	m.mu.Unlock()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stats is the JSON form of /metrics.
func (a *API) stats() map[string]int64 {
	out := map[string]int64{}
	a.metrics.mu.Lock()
	for outcome, v := range a.metrics.askTotal {
		out["ask_"+outcome] = int64(v)
	}
	var total int
	for _, v := range a.metrics.reqTotal {
		total += v
	}
	out["http_requests"] = int64(total)
	a.metrics.mu.Unlock()
	if a.cache != nil {
		s := a.cache.Stats()
		out["embed_cache_hits"] = s.Hits
		out["embed_cache_misses"] = s.Misses
		out["embed_cache_evictions"] = s.Evictions
	}
	if a.corpus != nil {
		if n, ok := a.corpus.Size(); ok {
			out["corpus_movies"] = int64(n)
		}
	}
	return out
}

func (a *API) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	// Content negotiation: default to Prometheus text exposition.
	// Use JSON when explicitly requested via query or Accept header.
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "json" || strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, a.stats())
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	m := a.metrics
	m.mu.Lock()
	io.WriteString(w, "# HELP movieqa_http_requests_total HTTP requests by method, path and status.\n")
	io.WriteString(w, "# TYPE movieqa_http_requests_total counter\n")
	for _, key := range sortedKeys(m.reqTotal) {
		parts := strings.Split(key, "|")
		if len(parts) == 3 {
			fmt.Fprintf(w, "movieqa_http_requests_total{method=%q,path=%q,status=%q} %d\n", parts[0], parts[1], parts[2], m.reqTotal[key])
		}
	}
	io.WriteString(w, "# HELP movieqa_http_request_duration_seconds HTTP request latency.\n")
	io.WriteString(w, "# TYPE movieqa_http_request_duration_seconds summary\n")
	for _, key := range sortedKeys(m.durSum) {
		parts := strings.Split(key, "|")
		if len(parts) == 2 {
			fmt.Fprintf(w, "movieqa_http_request_duration_seconds_sum{method=%q,path=%q} %f\n", parts[0], parts[1], m.durSum[key])
			fmt.Fprintf(w, "movieqa_http_request_duration_seconds_count{method=%q,path=%q} %d\n", parts[0], parts[1], m.durCount[key])
		}
	}
	io.WriteString(w, "# HELP movieqa_ask_total Questions handled by outcome.\n")
	io.WriteString(w, "# TYPE movieqa_ask_total counter\n")
	for _, outcome := range []string{"ok", "invalid", "backend_error"} {
		fmt.Fprintf(w, "movieqa_ask_total{outcome=%q} %d\n", outcome, m.askTotal[outcome])
	}
	m.mu.Unlock()

	if a.cache != nil {
		s := a.cache.Stats()
		io.WriteString(w, "# HELP movieqa_embed_cache_hits_total Embedding cache hits.\n")
		io.WriteString(w, "# TYPE movieqa_embed_cache_hits_total counter\n")
		fmt.Fprintf(w, "movieqa_embed_cache_hits_total %d\n", s.Hits)
		io.WriteString(w, "# HELP movieqa_embed_cache_misses_total Embedding cache misses.\n")
		io.WriteString(w, "# TYPE movieqa_embed_cache_misses_total counter\n")
		fmt.Fprintf(w, "movieqa_embed_cache_misses_total %d\n", s.Misses)
		io.WriteString(w, "# HELP movieqa_embed_cache_evictions_total Embedding cache evictions (size or TTL).\n")
		io.WriteString(w, "# TYPE movieqa_embed_cache_evictions_total counter\n")
		fmt.Fprintf(w, "movieqa_embed_cache_evictions_total %d\n", s.Evictions)
	}
	if a.corpus != nil {
		n, _ := a.corpus.Size()
		io.WriteString(w, "# HELP movieqa_corpus_movies Movies in the loaded corpus (0 until first load).\n")
		io.WriteString(w, "# TYPE movieqa_corpus_movies gauge\n")
		fmt.Fprintf(w, "movieqa_corpus_movies %d\n", n)
	}

	// build info
	io.WriteString(w, "# HELP movieqa_build_info Build information.\n")
	io.WriteString(w, "# TYPE movieqa_build_info gauge\n")
	fmt.Fprintf(w, "movieqa_build_info{version=%q,commit=%q} 1\n", version.Version, version.Commit)
}
