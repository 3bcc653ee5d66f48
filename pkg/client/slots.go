package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"creatorclub/pkg/middleware"
	"creatorclub/pkg/model"
)

type SlotsClient struct {
	httpClient    *HttpClient
	paymentSecret string
}

func NewSlotsClient(baseURL string) *SlotsClient {
	return &SlotsClient{
		httpClient: NewHttpClient(baseURL),
	}
}

// WithToken authenticates every call with a bearer token.
func (c *SlotsClient) WithToken(token string) *SlotsClient {
	c.httpClient.SetAuthToken(token)
	return c
}

// WithHolderID sets the gateway holder header, used when the server runs without JWT.
func (c *SlotsClient) WithHolderID(holderID string) *SlotsClient {
	c.httpClient.SetHeader(middleware.HolderIDHeader, holderID)
	return c
}

// WithPaymentSecret signs confirmation bodies the way the payment collaborator does.
func (c *SlotsClient) WithPaymentSecret(secret string) *SlotsClient {
	c.paymentSecret = secret
	return c
}

func (c *SlotsClient) HTTP() *HttpClient {
	return c.httpClient
}

func (c *SlotsClient) Lock(ctx context.Context, req model.LockRequest) (*model.LockResult, error) {
	var result model.LockResult
	if err := c.httpClient.Do(ctx, http.MethodPost, "/api/v1/slots/lock", req, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *SlotsClient) LockRange(ctx context.Context, req model.LockRangeRequest) (*model.LockResult, error) {
	var result model.LockResult
	if err := c.httpClient.Do(ctx, http.MethodPost, "/api/v1/slots/lock-range", req, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *SlotsClient) Release(ctx context.Context, req model.ReleaseRequest) error {
	return c.httpClient.Do(ctx, http.MethodPost, "/api/v1/slots/release", req, nil, nil)
}

func (c *SlotsClient) Confirm(ctx context.Context, req model.ConfirmRequest) error {
	return c.signedPost(ctx, "/api/v1/slots/confirm", req)
}

func (c *SlotsClient) ConfirmRange(ctx context.Context, req model.ConfirmRangeRequest) error {
	return c.signedPost(ctx, "/api/v1/slots/confirm-range", req)
}

func (c *SlotsClient) signedPost(ctx context.Context, path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	var headers map[string]string
	if c.paymentSecret != "" {
		headers = map[string]string{
			middleware.SignatureHeader: middleware.SignaturePrefix + middleware.SignPayload(raw, c.paymentSecret),
		}
	}

	var result model.ConfirmResult
	return c.httpClient.Do(ctx, http.MethodPost, path, raw, headers, &result)
}

func (c *SlotsClient) Day(ctx context.Context, resourceID, dateKey string) ([]model.SlotView, error) {
	var envelope struct {
		Data []model.SlotView `json:"data"`
	}
	path := "/api/v1/admin/slots/" + url.PathEscape(resourceID) + "/" + url.PathEscape(dateKey)
	if err := c.httpClient.Do(ctx, http.MethodGet, path, nil, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}
