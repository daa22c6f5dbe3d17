package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/terraincognita07/moodify/internal/retry"
)

const defaultRequestTimeout = 60 * time.Second

// HTTPError is returned for non-2xx upstream responses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("inference http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type transport struct {
	baseURL    string
	token      string
	httpClient *http.Client
	policy     retry.Policy
}

func newTransport(baseURL string, token string, httpClient *http.Client) transport {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return transport{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
		policy:     retry.DefaultPolicy(),
	}
}

func (t transport) postJSON(ctx context.Context, path string, body any, out any) error {
	_, err := retry.On503(ctx, t.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.postOnce(ctx, path, body, out)
	})
	return err
}

func (t transport) postOnce(ctx context.Context, path string, body any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type Option func(*options)

type options struct {
	httpClient *http.Client
	policy     *retry.Policy
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

func WithRetryPolicy(policy retry.Policy) Option {
	return func(o *options) { o.policy = &policy }
}

func applyOptions(opts []Option) options {
	var settings options
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}
	return settings
}
