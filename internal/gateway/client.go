// Package gateway is the REST client of the remote backend. It implements the
// consumer interfaces declared by the domain packages.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Observer records the latency and outcome of each backend call.
type Observer interface {
	ObserveGateway(op, outcome string, d time.Duration)
}

// Config configures the client.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	ServiceToken string
}

// Client talks JSON over HTTP to the backend. The bearer token comes from
// the request context; the service token is used when none is bound.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	serviceToken string
	observer     Observer
	validate     *validator.Validate
	logger       *slog.Logger
}

// New builds a client.
func New(cfg Config, observer Observer, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		serviceToken: cfg.ServiceToken,
		observer:     observer,
		validate:     newValidator(),
		logger:       logger,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// request describes one backend call.
type request struct {
	op         string
	method     string
	path       string
	query      url.Values
	body       any
	idempotent bool
	anonymous  bool
	accept     string
}

// response is the raw answer of a successful call.
type response struct {
	body   []byte
	header http.Header
}

// doJSON performs req and decodes the answer into result when non-nil.
// Outgoing bodies and decoded results are validated.
func (c *Client) doJSON(ctx context.Context, req request, result any) error {
	if req.body != nil {
		if err := c.check(req.body); err != nil {
			return fmt.Errorf("%s: %w", req.op, shared.Validation(err.Error()))
		}
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if result == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, result); err != nil {
		c.logger.Warn("undecodable backend response", slog.String("op", req.op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", req.op, &shared.Error{Kind: shared.ErrTransport, Message: "unexpected backend response"})
	}
	if err := c.check(result); err != nil {
		c.logger.Warn("invalid backend record", slog.String("op", req.op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", req.op, &shared.Error{Kind: shared.ErrTransport, Message: "unexpected backend response"})
	}
	return nil
}

func (c *Client) do(ctx context.Context, req request) (resp response, err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveGateway(req.op, outcomeOf(err), time.Since(start))
		}
	}()

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return response{}, fmt.Errorf("%s: marshal request: %w", req.op, err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return response{}, fmt.Errorf("%s: create request: %w", req.op, err)
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	accept := req.accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)
	if token := c.token(ctx); token != "" && !req.anonymous {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if req.idempotent {
		httpReq.Header.Set("Idempotency-Key", uuid.NewString())
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return response{}, fmt.Errorf("%s: %w", req.op, ctxErr)
		}
		c.logger.Warn("backend unreachable", slog.String("op", req.op), slog.Any("error", err))
		return response{}, fmt.Errorf("%s: %w", req.op, &shared.Error{Kind: shared.ErrTransport})
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return response{}, fmt.Errorf("%s: %w", req.op, &shared.Error{Kind: shared.ErrTransport, Message: "truncated backend response"})
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		c.logger.Debug("backend rejected request",
			slog.String("op", req.op),
			slog.Int("status", httpResp.StatusCode),
		)
		return response{}, fmt.Errorf("%s: %w", req.op, statusError(httpResp.StatusCode, raw))
	}
	return response{body: raw, header: httpResp.Header}, nil
}

func (c *Client) token(ctx context.Context) string {
	if creds, ok := shared.CredentialsFromContext(ctx); ok {
		return creds.Token
	}
	return c.serviceToken
}

// check validates structs and slices of structs.
func (c *Client) check(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		return c.validate.Struct(rv.Interface())
	case reflect.Slice:
		return c.validate.Var(rv.Interface(), "dive")
	default:
		return nil
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusError maps a backend status to the error taxonomy, keeping the
// server supplied reason.
func statusError(status int, body []byte) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	msg := strings.TrimSpace(eb.Message)
	if msg == "" {
		msg = strings.TrimSpace(eb.Error)
	}

	var kind error
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		kind = shared.ErrUnauthorized
	case status == http.StatusNotFound:
		kind = shared.ErrNotFound
	case status == http.StatusBadRequest, status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		kind = shared.ErrConflict
	case status >= http.StatusInternalServerError:
		return &shared.Error{Kind: shared.ErrTransport, Status: status}
	default:
		kind = shared.ErrConflict
	}
	return &shared.Error{Kind: kind, Status: status, Message: msg}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, shared.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrConflict):
		return "conflict"
	default:
		return "transport"
	}
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}
