package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"movieqa/internal/backend"
	mylog "movieqa/internal/log"
	"movieqa/internal/models"
	"movieqa/internal/rag/planner"
	"movieqa/internal/rag/retriever"
)

const (
	maxAskBody = 1 << 20
	maxSearchK = 100
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Error: message})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// handleAsk validates {"question": string} and relays the backend's answer.
func (a *API) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	lg := a.log.With(map[string]string{"req_id": mylog.RequestID(r.Context())})
	q, msg := parseQuestion(http.MaxBytesReader(w, r.Body, maxAskBody))
	if msg != "" {
		a.metrics.ask("invalid")
		lg.Warn("ask.invalid", "reason", msg)
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if a.backend == nil {
		a.metrics.ask("backend_error")
		writeError(w, http.StatusInternalServerError, "no backend configured")
		return
	}
	answer, err := a.backend.Ask(r.Context(), q)
	if err != nil {
		a.metrics.ask("backend_error")
		lg.Error("ask.backend", "err", err)
		writeError(w, http.StatusInternalServerError, askErrorMessage(err))
		return
	}
	a.metrics.ask("ok")
	writeJSON(w, http.StatusOK, models.AskResponse{Answer: answer})
}

// parseQuestion returns the question or a client-facing reason it is invalid.
func parseQuestion(body io.Reader) (string, string) {
	var payload map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&payload); err != nil || payload == nil {
		return "", "request body must be a JSON object"
	}
	raw, ok := payload["question"]
	if !ok || string(raw) == "null" {
		return "", "question is required"
	}
	var q string
	if err := json.Unmarshal(raw, &q); err != nil {
		return "", "question must be a string"
	}
	if strings.TrimSpace(q) == "" {
		return "", "question must not be empty"
	}
	return q, ""
}

func askErrorMessage(err error) string {
	var be *backend.Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "failed to process question"
}

type searchResponse struct {
	Results []models.SearchResult `json:"results"`
}

// handleSearch ranks corpus movies for ?q=, optionally ?k= and ?mode=.
// mode=auto lets the query planner choose the mode and K.
func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	query := r.URL.Query()
	q := query.Get("q")
	if strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, "q required")
		return
	}
	k := a.topK
	explicitK := false
	if v := query.Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxSearchK {
			writeError(w, http.StatusBadRequest, "k must be an integer between 1 and "+strconv.Itoa(maxSearchK))
			return
		}
		k, explicitK = n, true
	}
	mode := strings.ToLower(query.Get("mode"))
	if mode == "" {
		mode = ModeKNN
	}
	switch mode {
	case ModeKNN, ModeLexical, ModeHybrid:
	case ModeAuto:
		plan := planner.For(q, a.topK)
		mode = a.firstAvailable(plan.Fallbacks())
		if mode == "" {
			writeError(w, http.StatusServiceUnavailable, "search unavailable: no corpus configured")
			return
		}
		if !explicitK {
			k = min(plan.K, maxSearchK)
		}
		a.log.Debug("search.plan", "req_id", mylog.RequestID(r.Context()), "intent", string(plan.Intent), "mode", mode, "k", k)
	default:
		writeError(w, http.StatusBadRequest, "mode must be one of knn, lexical, hybrid, auto")
		return
	}
	ret, ok := a.retrievers[mode]
	if !ok {
		writeError(w, http.StatusServiceUnavailable, mode+" search unavailable: "+a.missingFor(mode))
		return
	}
	w.Header().Set("X-Search-Mode", mode)
	results, err := ret.Retrieve(r.Context(), q, k)
	if err != nil {
		a.log.Error("search", "req_id", mylog.RequestID(r.Context()), "mode", mode, "err", err)
		writeError(w, searchErrorStatus(err), err.Error())
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

func searchErrorStatus(err error) int {
	if errors.Is(err, retriever.ErrBlankQuery) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (a *API) firstAvailable(modes []string) string {
	for _, m := range modes {
		if _, ok := a.retrievers[m]; ok {
			return m
		}
	}
	return ""
}

func (a *API) missingFor(mode string) string {
	if mode == ModeLexical {
		return "no corpus configured"
	}
	return "no embedding provider configured"
}
