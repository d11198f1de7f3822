package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout = 120 * time.Second
)

// httpClient performs JSON POSTs against a provider endpoint and records
// every interaction with the APILogger.
type httpClient struct {
	endpoint   string
	headers    map[string]string
	httpClient *http.Client
	logger     APILogger
}

func newHTTPClient(endpoint string, headers map[string]string, logger APILogger) *httpClient {
	return &httpClient{
		endpoint: endpoint,
		headers:  headers,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

func (c *httpClient) log(req, resp any, err error) {
	if c.logger != nil {
		c.logger.LogInteraction(req, resp, err)
	}
}

// post sends req and decodes a 200 response into out. Non-200 bodies are
// handed to decodeError so each provider can surface its own error shape.
func (c *httpClient) post(ctx context.Context, req any, out any, decodeError func(status int, body []byte) error) error {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("request cancelled: %w", ctx.Err())
		} else {
			err = fmt.Errorf("request error: %w", err)
		}
		c.log(req, nil, err)
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("reading response: %w", err)
		c.log(req, nil, err)
		return err
	}

	if resp.StatusCode != http.StatusOK {
		err := decodeError(resp.StatusCode, body)
		c.log(req, nil, err)
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		err = fmt.Errorf("unmarshaling response: %w", err)
		c.log(req, nil, err)
		return err
	}

	c.log(req, out, nil)
	return nil
}
