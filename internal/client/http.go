// Package client talks to the blog's REST API. Every response is a
// {success, data, message, error} envelope; failures are normalised into
// *Error values of a small set of kinds.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bassista/go_quill/internal/logger"
	"github.com/bassista/go_quill/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const defaultTimeout = 10 * time.Second

// HTTP is the shared transport of every resource.
type HTTP struct {
	baseURL  string
	client   *http.Client
	token    string
	validate *validator.Validate
	log      *logrus.Entry
}

type Option func(*HTTP)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(h *HTTP) {
		if d > 0 {
			h.client.Timeout = d
		}
	}
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(h *HTTP) { h.token = token }
}

func WithValidator(v *validator.Validate) Option {
	return func(h *HTTP) {
		if v != nil {
			h.validate = v
		}
	}
}

func New(baseURL string, opts ...Option) *HTTP {
	h := &HTTP{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: defaultTimeout},
		validate: model.NewValidator(),
		log:      logger.WithComponent("client"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Check validates v before it is sent.
func (h *HTTP) Check(v any) error {
	if err := h.validate.Struct(v); err != nil {
		return &Error{Kind: KindValidation, Message: model.ValidationMessage(err), Err: err}
	}
	return nil
}

// Do sends one request and decodes the envelope's data into out (when out is
// not nil).
func (h *HTTP) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	_, err := h.Send(ctx, method, path, query, body, out)
	return err
}

// Send is Do that also returns the envelope's message.
func (h *HTTP) Send(ctx context.Context, method, path string, query url.Values, body, out any) (string, error) {
	target := h.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return "", &Error{Kind: KindValidation, Message: "payload is not serializable", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", networkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", networkError(err)
	}

	h.log.WithFields(logrus.Fields{"method": method, "path": path, "status": resp.StatusCode}).Debug("api request")

	var env model.Envelope[json.RawMessage]
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil {
			msg = firstNonEmpty(env.Error, env.Message, msg)
		}
		return "", &Error{Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode, Message: msg}
	}
	if resp.StatusCode == http.StatusNoContent || (len(raw) == 0 && out == nil) {
		return env.Message, nil
	}
	if decodeErr != nil {
		return "", &Error{Kind: KindServer, Status: resp.StatusCode, Message: "malformed response", Err: decodeErr}
	}
	if !env.Success {
		return "", &Error{Kind: KindServer, Status: resp.StatusCode, Message: firstNonEmpty(env.Error, env.Message, "request was not successful")}
	}
	if out == nil {
		return env.Message, nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return "", &Error{Kind: KindServer, Status: resp.StatusCode, Message: "malformed response: missing data"}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return "", &Error{Kind: KindServer, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return env.Message, nil
}

func networkError(err error) *Error {
	msg := "network error"
	var uerr *url.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &uerr) && uerr.Timeout()) {
		msg = "request timed out"
	}
	return &Error{Kind: KindNetwork, Message: msg, Err: err}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func resourcePath(name string, id ...string) string {
	p := "/api/" + name
	for _, part := range id {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func listQuery(params model.ListParams) url.Values {
	q := url.Values{}
	for k, v := range params.AsMap() {
		q.Set(k, v)
	}
	return q
}
