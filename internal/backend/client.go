// Package backend forwards questions to the external question-answering
// service and translates its failures into a single error message.
package backend

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	mylog "movieqa/internal/log"
	"movieqa/internal/models"
)

// Messages used when the backend gives nothing better.
const (
	MsgGeneric  = "failed to communicate with backend"
	MsgNonJSON  = "backend error"
	MsgNoAnswer = "backend returned no answer"
)

// Error is a failed backend exchange. Status is 0 when no response arrived.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Client posts questions to ${base}/ask. It never retries.
type Client struct {
	base string
	http *resty.Client
	log  *mylog.Logger
}

// New returns a client for the backend at base. timeout <= 0 disables the
// outbound deadline.
func New(base string, timeout time.Duration, lg *mylog.Logger) *Client {
	if lg == nil {
		lg = mylog.Discard()
	}
	c := resty.New().SetRetryCount(0)
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Client{base: strings.TrimRight(base, "/"), http: c, log: lg}
}

// URL is the endpoint questions are posted to.
func (c *Client) URL() string { return c.base + "/ask" }

// Ask forwards question and returns the backend's answer. Every failure is
// an *Error.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(models.AskRequest{Question: question})
	if id := mylog.RequestID(ctx); id != "" {
		req.SetHeader("X-Request-ID", id)
	}
	start := time.Now()
	resp, err := req.Post(c.URL())
	if err != nil {
		c.log.Error("backend.ask", "url", c.URL(), "err", err)
		return "", &Error{Message: "failed to reach backend: " + err.Error(), Err: err}
	}
	c.log.Debug("backend.ask", "url", c.URL(), "status", resp.StatusCode(), "duration_ms", time.Since(start).Milliseconds())
	if resp.IsError() || resp.StatusCode()/100 != 2 {
		msg := errorMessage(resp.Body())
		c.log.Warn("backend.ask", "status", resp.StatusCode(), "error", msg)
		return "", &Error{Status: resp.StatusCode(), Message: msg}
	}
	var out struct {
		Answer *string `json:"answer"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil || out.Answer == nil {
		return "", &Error{Status: resp.StatusCode(), Message: MsgNoAnswer, Err: err}
	}
	return *out.Answer, nil
}

// errorMessage extracts the most specific message from an error body:
// the "error" field, then FastAPI's "detail", then a generic message.
func errorMessage(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return MsgNonJSON
	}
	if s := stringField(payload["error"]); s != "" {
		return s
	}
	if raw, ok := payload["detail"]; ok {
		if s := stringField(raw); s != "" {
			return s
		}
		// validation failures: [{"loc": [...], "msg": "...", "type": "..."}]
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(raw, &items) == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	return MsgGeneric
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
