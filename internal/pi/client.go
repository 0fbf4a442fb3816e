// Package pi talks to the Pi platform: the proof-of-identity exchange the
// identity provider runs at startup, and the testnet payment flow behind
// wallet top-ups.
package pi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// User is the authenticated Pi identity. Only the username scope is
// requested.
type User struct {
	Username string `json:"username"`
}

// AuthResult is the outcome of a successful proof-of-identity exchange.
type AuthResult struct {
	User        User
	AccessToken string
}

type PaymentRequest struct {
	Amount   float64        `json:"amount"`
	Memo     string         `json:"memo"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Payment struct {
	Identifier string  `json:"identifier"`
	Amount     float64 `json:"amount"`
	Memo       string  `json:"memo"`
	Status     string  `json:"status"`
	TxID       string  `json:"txid,omitempty"`
}

var ErrUnauthorized = errors.New("pi platform rejected the access token")

// Client calls the Pi platform REST API.
type Client struct {
	baseURL     string
	accessToken string
	sandbox     bool
	http        *http.Client
}

func NewClient(baseURL, accessToken string, sandbox bool) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		sandbox:     sandbox,
		http:        newHTTPClient(15 * time.Second),
	}
}

// Authenticate verifies the access token against the platform and returns
// the identity it belongs to.
func (c *Client) Authenticate(ctx context.Context, scopes []string) (AuthResult, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/v2/me", nil, &user); err != nil {
		return AuthResult{}, fmt.Errorf("authenticate: %w", err)
	}
	if user.Username == "" {
		return AuthResult{}, errors.New("authenticate: platform returned no username")
	}
	return AuthResult{User: user, AccessToken: c.accessToken}, nil
}

// CreatePayment opens a payment on the platform.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (Payment, error) {
	var payment Payment
	if err := c.do(ctx, http.MethodPost, "/v2/payments", req, &payment); err != nil {
		return Payment{}, fmt.Errorf("create payment: %w", err)
	}
	return payment, nil
}

// ApprovePayment approves a pending payment.
func (c *Client) ApprovePayment(ctx context.Context, identifier string) (Payment, error) {
	var payment Payment
	path := fmt.Sprintf("/v2/payments/%s/approve", identifier)
	if err := c.do(ctx, http.MethodPost, path, nil, &payment); err != nil {
		return Payment{}, fmt.Errorf("approve payment: %w", err)
	}
	return payment, nil
}

// CompletePayment closes an approved payment with its blockchain txid.
func (c *Client) CompletePayment(ctx context.Context, identifier, txid string) (Payment, error) {
	var payment Payment
	path := fmt.Sprintf("/v2/payments/%s/complete", identifier)
	body := map[string]string{"txid": txid}
	if err := c.do(ctx, http.MethodPost, path, body, &payment); err != nil {
		return Payment{}, fmt.Errorf("complete payment: %w", err)
	}
	return payment, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.sandbox {
		req.Header.Set("X-Pi-Sandbox", "true")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, data)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
