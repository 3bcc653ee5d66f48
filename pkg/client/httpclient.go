package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "creatorclub/pkg/errors"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 10 * time.Second

type HttpClient struct {
	BaseURL string
	rest    *resty.Client
}

func NewHttpClient(baseURL string) *HttpClient {
	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json")

	return &HttpClient{
		BaseURL: baseURL,
		rest:    rest,
	}
}

func (c *HttpClient) SetAuthToken(token string) {
	if token != "" {
		c.rest.SetAuthToken(token)
	}
}

func (c *HttpClient) SetHeader(key, value string) {
	if value != "" {
		c.rest.SetHeader(key, value)
	}
}

func (c *HttpClient) SetTimeout(timeout time.Duration) {
	c.rest.SetTimeout(timeout)
}

// Do sends a JSON request and decodes a 2xx body into result. Non-2xx responses are
// returned as *apperrors.AppError rebuilt from the server's error body.
func (c *HttpClient) Do(ctx context.Context, method, path string, body any, headers map[string]string, result any) error {
	req := c.rest.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	for key, value := range headers {
		req.SetHeader(key, value)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if resp.IsError() {
		return decodeError(resp)
	}
	return nil
}

func decodeError(resp *resty.Response) error {
	var errResp apperrors.ErrorResponse
	if err := json.Unmarshal(resp.Body(), &errResp); err != nil || errResp.Code == "" {
		return apperrors.New(apperrors.CodeInternal,
			fmt.Sprintf("unexpected response %d: %s", resp.StatusCode(), resp.String()),
			resp.StatusCode())
	}

	appErr := apperrors.New(errResp.Code, errResp.Message, resp.StatusCode())
	if errResp.Details != nil {
		// JSON numbers decode as float64; restore the integer slot index.
		if v, ok := errResp.Details[apperrors.DetailSlotIndex].(float64); ok {
			errResp.Details[apperrors.DetailSlotIndex] = int(v)
		}
		appErr.WithDetails(errResp.Details)
	}
	return appErr
}

func (c *HttpClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		resp, err := c.rest.R().SetContext(ctx).Get("/health")
		if err == nil && resp.StatusCode() == http.StatusOK {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return fmt.Errorf("service did not become healthy within %v", maxWait)
}
