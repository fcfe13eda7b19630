package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movieqa/internal/backend"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body, 1, "error body must only carry the error field")
	msg, ok := body["error"].(string)
	require.True(t, ok)
	return msg
}

func TestAskValidation(t *testing.T) {
	asker := &fakeAsker{answer: "never"}
	h := NewAPI(Deps{Backend: asker}).Handler()

	cases := []struct {
		name, body, msg string
	}{
		{"empty object", `{}`, "question is required"},
		{"null question", `{"question":null}`, "question is required"},
		{"not json", `question?`, "request body must be a JSON object"},
		{"array", `["x"]`, "request body must be a JSON object"},
		{"number", `{"question":42}`, "question must be a string"},
		{"blank", `{"question":"   "}`, "question must not be empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/ask", tc.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tc.msg, decodeError(t, rr))
		})
	}
	assert.Empty(t, asker.got, "invalid requests must not reach the backend")
}

func TestAskMethodNotAllowed(t *testing.T) {
	rr := do(t, NewAPI(Deps{Backend: &fakeAsker{}}).Handler(), http.MethodGet, "/ask", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
	assert.NotEmpty(t, decodeError(t, rr))
}

func TestAskRelaysBackendAnswer(t *testing.T) {
	var gotQuestion, gotReqID string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		gotQuestion = in["question"]
		gotReqID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"1997","sources":[1,2]}`))
	}))
	defer upstream.Close()

	h := NewAPI(Deps{Backend: backend.New(upstream.URL, 5*time.Second, nil)}).Handler()
	req := httptest.NewRequest(http.MethodPost, "/ask", jsonBody(`{"question":"What year was Titanic released?"}`))
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"answer":"1997"}`, rr.Body.String())
	assert.Equal(t, "What year was Titanic released?", gotQuestion)
	assert.Equal(t, "req-123", gotReqID)
}

func TestAskBackendErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error field", http.StatusBadGateway, `{"error":"index offline"}`, "index offline"},
		{"detail string", http.StatusUnprocessableEntity, `{"detail":"question too long"}`, "question too long"},
		{"no message", http.StatusInternalServerError, `{}`, backend.MsgGeneric},
		{"html", http.StatusInternalServerError, `<html>oops</html>`, backend.MsgNonJSON},
		{"ok without answer", http.StatusOK, `{"result":"1997"}`, backend.MsgNoAnswer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer upstream.Close()

			h := NewAPI(Deps{Backend: backend.New(upstream.URL, 5*time.Second, nil)}).Handler()
			rr := do(t, h, http.MethodPost, "/ask", `{"question":"q"}`)
			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.Equal(t, tc.want, decodeError(t, rr))
		})
	}
}

func TestAskBackendUnreachable(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	h := NewAPI(Deps{Backend: backend.New(url, 2*time.Second, nil)}).Handler()
	rr := do(t, h, http.MethodPost, "/ask", `{"question":"What year was Titanic released?"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, decodeError(t, rr), "failed to reach backend")
}

func TestAskPlainError(t *testing.T) {
	h := NewAPI(Deps{Backend: &fakeAsker{err: errors.New("boom")}}).Handler()
	rr := do(t, h, http.MethodPost, "/ask", `{"question":"q"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "boom", decodeError(t, rr))
}
