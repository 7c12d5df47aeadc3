// Package backend is the HTTP client for the platform backend that owns
// plans, checkouts and tenant provisioning.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/valenante/paginaVenta-sub002/internal/domain"
)

const (
	DefaultTimeout = 10 * time.Second

	pathPublicPlans     = "/plans/public"
	pathCheckoutSession = "/checkout/session"
	pathPaymentSession  = "/checkout/payment-session"
	pathVerify          = "/checkout/verify"
	pathStatus          = "/checkout/status"

	maxErrorBody = 512
)

// TransportError is a network failure or a non-2xx answer from the backend.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("backend %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client talks JSON to the platform backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListPlans returns the public plan catalog.
func (c *Client) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	var wire []planWire
	if err := c.do(ctx, "list plans", http.MethodGet, pathPublicPlans, nil, &wire); err != nil {
		return nil, err
	}

	plans := make([]domain.Plan, 0, len(wire))
	for _, w := range wire {
		plans = append(plans, w.toDomain())
	}
	return plans, nil
}

// CreateCheckoutSession sends the draft bundle and returns the precheckout id.
func (c *Client) CreateCheckoutSession(ctx context.Context, bundle domain.DraftBundle) (string, error) {
	var resp checkoutSessionResponse
	if err := c.do(ctx, "create checkout session", http.MethodPost, pathCheckoutSession, newCheckoutSessionRequest(bundle), &resp); err != nil {
		return "", err
	}
	return resp.PrecheckoutID, nil
}

// CreatePaymentSession returns the payment provider URL for a precheckout.
func (c *Client) CreatePaymentSession(ctx context.Context, req domain.PaymentSessionRequest) (string, error) {
	body := paymentSessionRequest{
		PrecheckoutID: req.PrecheckoutID,
		TenantEmail:   req.TenantEmail,
		Plan:          req.PlanSlug,
	}

	var resp paymentSessionResponse
	if err := c.do(ctx, "create payment session", http.MethodPost, pathPaymentSession, body, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *Client) VerifyPayment(ctx context.Context, ref domain.ProvisioningRef) (domain.PaymentVerification, error) {
	var resp domain.PaymentVerification
	if err := c.do(ctx, "verify payment", http.MethodPost, pathVerify, ref, &resp); err != nil {
		return domain.PaymentVerification{}, err
	}
	return resp, nil
}

func (c *Client) ProvisioningStatus(ctx context.Context, ref domain.ProvisioningRef) (domain.StatusReport, error) {
	q := url.Values{}
	q.Set("sessionId", ref.SessionID)
	q.Set("precheckoutId", ref.PrecheckoutID)

	var resp statusResponse
	if err := c.do(ctx, "provisioning status", http.MethodGet, pathStatus+"?"+q.Encode(), nil, &resp); err != nil {
		return domain.StatusReport{}, err
	}
	return resp.toDomain(), nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend.Client.do: marshal %s: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("backend.Client.do: build %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
