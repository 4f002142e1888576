// Package paypal is the payment gateway adapter for the PayPal REST v1
// payments API. It only speaks the provider protocol; enrollment rules live
// in the service layer.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"
	"github.com/skillsharehub/marketplace/internal/pkg/metrics"
)

const (
	SandboxBaseURL = "https://api-m.sandbox.paypal.com"
	LiveBaseURL    = "https://api-m.paypal.com"

	defaultTimeout = 15 * time.Second
	// tokenSkew renews the access token this long before PayPal expires it.
	tokenSkew = time.Minute
	maxBody   = 1 << 20
)

// Config holds the PayPal credentials and endpoint selection.
type Config struct {
	Mode     string // "sandbox" or "live"
	ClientID string
	Secret   string
	// BaseURL overrides the mode-derived endpoint.
	BaseURL string
	Timeout time.Duration
}

// Client implements ports.PaymentGateway.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	now         func() time.Time
}

var _ ports.PaymentGateway = (*Client)(nil)

// New validates cfg and returns a ready client.
func New(cfg Config, log zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("paypal: missing PAYPAL_CLIENT_ID or PAYPAL_SECRET")
	}

	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
		case "", "sandbox":
			base = SandboxBaseURL
		case "live":
			base = LiveBaseURL
		default:
			return nil, fmt.Errorf("paypal: unknown mode %q", cfg.Mode)
		}
	}
	cfg.BaseURL = strings.TrimRight(base, "/")

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
		now:        time.Now,
	}, nil
}

// --- PayPal v1 payments wire types ---

type paymentRequest struct {
	Intent       string        `json:"intent"`
	Payer        payer         `json:"payer"`
	RedirectURLs redirectURLs  `json:"redirect_urls"`
	Transactions []transaction `json:"transactions"`
}

type payer struct {
	PaymentMethod string `json:"payment_method"`
}

type redirectURLs struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type transaction struct {
	ItemList    itemList `json:"item_list"`
	Amount      amount   `json:"amount"`
	Description string   `json:"description"`
}

type itemList struct {
	Items []item `json:"items"`
}

type item struct {
	Name     string `json:"name"`
	SKU      string `json:"sku"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Quantity int    `json:"quantity"`
}

type amount struct {
	Currency string `json:"currency"`
	Total    string `json:"total"`
}

type link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type paymentResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
	Links []link `json:"links"`
}

type executeRequest struct {
	PayerID string `json:"payer_id"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// CreateOrder creates a "sale" payment and returns its approval link.
func (c *Client) CreateOrder(ctx context.Context, req ports.OrderRequest) (*ports.OrderApproval, error) {
	items := make([]item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, item{Name: it.Name, SKU: it.SKU, Price: it.Price, Currency: it.Currency, Quantity: it.Quantity})
	}

	wire := paymentRequest{
		Intent:       "sale",
		Payer:        payer{PaymentMethod: "paypal"},
		RedirectURLs: redirectURLs{ReturnURL: req.ReturnURL, CancelURL: req.CancelURL},
		Transactions: []transaction{{
			ItemList:    itemList{Items: items},
			Amount:      amount{Currency: req.Currency, Total: req.Total},
			Description: req.Description,
		}},
	}

	raw, err := c.call(ctx, "create_order", http.MethodPost, "/v1/payments/payment", wire)
	if err != nil {
		return nil, err
	}

	var resp paymentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.PaymentGatewayError{Payload: raw, Err: fmt.Errorf("decode payment: %w", err)}
	}
	for _, l := range resp.Links {
		if l.Rel == "approval_url" {
			return &ports.OrderApproval{OrderID: resp.ID, ApprovalURL: l.Href}, nil
		}
	}
	return nil, &domain.PaymentGatewayError{Payload: raw, Err: fmt.Errorf("payment %s has no approval_url link", resp.ID)}
}

// CaptureOrder executes a payer-approved payment.
func (c *Client) CaptureOrder(ctx context.Context, orderID, payerID string) (*ports.GatewayCapture, error) {
	path := "/v1/payments/payment/" + url.PathEscape(orderID) + "/execute"
	raw, err := c.call(ctx, "capture_order", http.MethodPost, path, executeRequest{PayerID: payerID})
	if err != nil {
		return nil, err
	}

	var resp paymentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.PaymentGatewayError{Payload: raw, Err: fmt.Errorf("decode execution: %w", err)}
	}
	return &ports.GatewayCapture{Outcome: outcomeOf(resp.State), State: resp.State, Raw: raw}, nil
}

func outcomeOf(state string) domain.CaptureOutcome {
	switch strings.ToLower(state) {
	case "approved":
		return domain.OutcomeApproved
	case "failed":
		return domain.OutcomeDeclined
	default:
		return domain.OutcomeOther
	}
}

// ---------- HTTP helpers ----------

func (c *Client) call(ctx context.Context, op, method, path string, body any) (json.RawMessage, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, &domain.PaymentGatewayError{Err: fmt.Errorf("%s: encode: %w", op, err)}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, &domain.PaymentGatewayError{Err: fmt.Errorf("%s: %w", op, err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	raw, status, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		c.invalidateToken()
	}
	if status < 200 || status >= 300 {
		return nil, httpError(op, status, raw)
	}
	return raw, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &domain.PaymentGatewayError{Err: fmt.Errorf("token: %w", err)}
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	raw, status, err := c.do("token", req)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", httpError("token", status, raw)
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil || tr.AccessToken == "" {
		return "", &domain.PaymentGatewayError{StatusCode: status, Err: fmt.Errorf("token: malformed response")}
	}

	c.token = tr.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenSkew)
	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// do sends req and reads the body. Transport failures, including deadline
// expiry, are retryable: the provider may or may not have applied the call.
func (c *Client) do(op string, req *http.Request) ([]byte, int, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.PaymentGatewayDuration.WithLabelValues(op, "error").Observe(time.Since(start).Seconds())
		c.log.Warn().Err(err).Str("op", op).Msg("paypal request failed")
		return nil, 0, &domain.PaymentGatewayError{Retryable: true, Err: fmt.Errorf("%s: %w", op, err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	result := "ok"
	if err != nil || resp.StatusCode >= 300 {
		result = "error"
	}
	metrics.PaymentGatewayDuration.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, resp.StatusCode, &domain.PaymentGatewayError{StatusCode: resp.StatusCode, Retryable: true, Err: fmt.Errorf("%s: read body: %w", op, err)}
	}

	c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("paypal response")
	return raw, resp.StatusCode, nil
}

func httpError(op string, status int, raw []byte) error {
	payload := json.RawMessage(raw)
	if !json.Valid(raw) {
		payload, _ = json.Marshal(map[string]string{"body": string(raw)})
	}
	return &domain.PaymentGatewayError{
		StatusCode: status,
		Payload:    payload,
		Retryable:  status == http.StatusTooManyRequests || status >= 500,
		Err:        fmt.Errorf("%s: %s", op, http.StatusText(status)),
	}
}
