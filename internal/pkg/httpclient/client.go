// Package httpclient is the traced HTTP client used for every
// cross-service call. Timeouts are owned by the caller's context, not
// by the client itself.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"shopbank/internal/pkg/nacos"
)

// StatusError is returned for any non-2xx response; Message carries
// the remote error body so callers can surface the real reason.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	Tracer     trace.Tracer
	Registry   *nacos.Client
	HTTPClient *http.Client
}

func NewClient(tracer trace.Tracer, registry *nacos.Client) *Client {
	return &Client{
		Tracer:   tracer,
		Registry: registry,
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
	}
}

// ServiceURL resolves a service name through Nacos into a concrete URL.
func (c *Client) ServiceURL(serviceName, path string) (string, error) {
	ip, port, err := c.Registry.DiscoverServiceInstance(serviceName)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s:%d%s", ip, port, path), nil
}

// PostJSON sends body as JSON and decodes a 2xx response into out.
// A nil body sends an empty POST; a nil out discards the response.
func (c *Client) PostJSON(ctx context.Context, url string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}
	return c.do(ctx, http.MethodPost, url, payload, out)
}

// GetJSON fetches url and decodes a 2xx response into out.
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) error {
	return c.do(ctx, http.MethodGet, url, nil, out)
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, out interface{}) error {
	ctx, span := c.Tracer.Start(ctx, fmt.Sprintf("call %s %s", method, url), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		span.RecordError(err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	span.SetAttributes(
		attribute.String("http.url", url),
		attribute.String("http.method", method),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		span.RecordError(serr)
		span.SetStatus(codes.Error, serr.Error())
		return serr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// readErrorMessage extracts {"error": "..."} bodies, falling back to
// the raw text.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return "no response body"
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return string(raw)
}
